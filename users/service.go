// Package users handles account creation: registration with optional
// avatar and cover uploads, and the startup seed account.
package users

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/princinho/sessionauth/apperr"
	"github.com/princinho/sessionauth/logging"
	"github.com/princinho/sessionauth/media"
	"github.com/princinho/sessionauth/models"
	"github.com/princinho/sessionauth/store"
	"github.com/princinho/sessionauth/utils"
)

type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *multipart.FileHeader
	CoverImage *multipart.FileHeader
}

type Service struct {
	store    store.UserStore
	uploader media.Uploader
	log      logging.Logger
}

// NewService builds a registration service. uploader may be nil, in which
// case submitted images are ignored.
func NewService(s store.UserStore, uploader media.Uploader, log logging.Logger) *Service {
	return &Service{store: s, uploader: uploader, log: log}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = utils.NormalizeEmail(in.Email)
	in.Username = utils.NormalizeUsername(in.Username)

	if in.FullName == "" || in.Email == "" || in.Username == "" || in.Password == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "all fields are required")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	avatar, err := s.upload(ctx, "avatars", in.Avatar)
	if err != nil {
		return nil, err
	}
	cover, err := s.upload(ctx, "covers", in.CoverImage)
	if err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, &models.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		Avatar:       avatar,
		CoverImage:   cover,
		PasswordHash: hash,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Wrap(apperr.KindConflict, "user with email or username already exists", err)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create user", err)
	}

	s.log.Info(ctx, "user registered", "user_id", created.ID, "username", created.Username)
	return created.Sanitized(), nil
}

func (s *Service) upload(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", nil
	}
	if s.uploader == nil {
		s.log.Warn(ctx, "media backend not configured; dropping upload", "folder", folder, "filename", fh.Filename)
		return "", nil
	}
	url, err := s.uploader.Upload(ctx, folder, fh)
	if errors.Is(err, media.ErrUnsupportedType) {
		return "", apperr.Wrap(apperr.KindInvalidInput, media.ErrUnsupportedType.Error(), err)
	}
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, fmt.Sprintf("failed to upload %s", strings.TrimSuffix(folder, "s")), err)
	}
	return url, nil
}
