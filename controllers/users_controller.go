package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/sessionauth/apperr"
	"github.com/princinho/sessionauth/dto"
	"github.com/princinho/sessionauth/identity"
	"github.com/princinho/sessionauth/logging"
	"github.com/princinho/sessionauth/response"
	"github.com/princinho/sessionauth/session"
	"github.com/princinho/sessionauth/users"
)

type UsersController struct {
	users    *users.Service
	sessions *session.Manager
	cookies  CookieConfig
	log      logging.Logger
}

func NewUsersController(u *users.Service, sessions *session.Manager, cookies CookieConfig, log logging.Logger) *UsersController {
	return &UsersController{users: u, sessions: sessions, cookies: cookies, log: log}
}

// POST /api/v1/users/register
func (u *UsersController) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RegisterUserDTO
		if err := c.ShouldBind(&body); err != nil {
			response.Error(c, apperr.New(apperr.KindInvalidInput, "invalid registration form"), err.Error())
			return
		}

		avatar, err := optionalFile(c, "avatar")
		if err != nil {
			response.Error(c, apperr.Wrap(apperr.KindInvalidInput, "invalid avatar upload", err))
			return
		}
		cover, err := optionalFile(c, "coverImage")
		if err != nil {
			response.Error(c, apperr.Wrap(apperr.KindInvalidInput, "invalid cover image upload", err))
			return
		}

		user, err := u.users.Register(c.Request.Context(), users.RegisterInput{
			FullName:   body.FullName,
			Email:      body.Email,
			Username:   body.Username,
			Password:   body.Password,
			Avatar:     avatar,
			CoverImage: cover,
		})
		if err != nil {
			fail(c, u.log, err)
			return
		}

		response.OK(c, http.StatusCreated, user, "User registered successfully")
	}
}

// GET /api/v1/users/current-user
func (u *UsersController) CurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := identity.From(c.Request.Context())
		if !ok {
			response.Error(c, apperr.New(apperr.KindUnauthenticated, "unauthorized request"))
			return
		}
		response.OK(c, http.StatusOK, user, "Current user fetched successfully")
	}
}

// POST /api/v1/users/change-password
func (u *UsersController) ChangePassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ChangePasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Error(c, apperr.New(apperr.KindInvalidInput, "invalid request body"), err.Error())
			return
		}

		if err := u.sessions.ChangePassword(c.Request.Context(), body.OldPassword, body.NewPassword); err != nil {
			fail(c, u.log, err)
			return
		}

		u.cookies.clearTokens(c)
		response.OK(c, http.StatusOK, nil, "Password changed successfully")
	}
}

func optionalFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	return fh, err
}
