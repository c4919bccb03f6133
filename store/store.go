// Package store persists user records, including the single refresh token
// that backs a user's session.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/princinho/sessionauth/models"
	"github.com/princinho/sessionauth/utils"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("username or email already exists")
)

// UserStore is implemented by every backend. Lookups that return a user for
// request authentication go through FindPublicByID, which leaves the password
// hash and refresh token empty.
type UserStore interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindPublicByID(ctx context.Context, id string) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error)
	// SetRefreshToken overwrites the stored token unconditionally.
	SetRefreshToken(ctx context.Context, id, token string) error
	// SwapRefreshToken replaces current with next only when the stored value
	// still equals current. It reports false when another writer got there
	// first. A missing user yields ErrNotFound.
	SwapRefreshToken(ctx context.Context, id, current, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, id string) error
	// UpdatePassword stores the new hash and clears the refresh token in the
	// same write, so a password change always ends the session.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// normalizeIdentifier maps a login identifier to the stored forms of username
// and email.
func normalizeIdentifier(identifier string) (username, email string) {
	identifier = strings.TrimSpace(identifier)
	return utils.NormalizeUsername(identifier), strings.ToLower(identifier)
}
