// Package session runs the login, refresh, logout and password-change flows.
// A user has at most one live refresh token, persisted on the user record;
// every login or refresh overwrites it.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/princinho/sessionauth/apperr"
	"github.com/princinho/sessionauth/identity"
	"github.com/princinho/sessionauth/logging"
	"github.com/princinho/sessionauth/models"
	"github.com/princinho/sessionauth/ratelimit"
	"github.com/princinho/sessionauth/store"
	"github.com/princinho/sessionauth/tokens"
	"github.com/princinho/sessionauth/utils"
)

const msgRefreshRejected = "refresh token is expired or used"

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LoginResult struct {
	User *models.User `json:"user"`
	TokenPair
}

type Manager struct {
	store   store.UserStore
	tokens  *tokens.Service
	limiter ratelimit.Limiter
	log     logging.Logger
}

// NewManager wires the session flows. A nil limiter disables login
// throttling.
func NewManager(s store.UserStore, t *tokens.Service, l ratelimit.Limiter, log logging.Logger) *Manager {
	if l == nil {
		l = ratelimit.Noop{}
	}
	return &Manager{store: s, tokens: t, limiter: l, log: log}
}

func (m *Manager) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "username or email is required")
	}

	user, err := m.store.FindByUsernameOrEmail(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Wrap(apperr.KindNotFound, "user does not exist", err)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}

	// Attempts are counted per account, whichever spelling of the
	// identifier reached it.
	key := user.ID
	if err := m.limiter.Check(ctx, key); err != nil {
		if errors.Is(err, ratelimit.ErrRateLimited) {
			m.log.Warn(ctx, "login rate limited", "user_id", user.ID)
			return nil, apperr.Wrap(apperr.KindRateLimited, "too many failed login attempts, try again later", err)
		}
		m.log.Error(ctx, "login limiter unavailable", "error", err)
	}

	if err := utils.CheckPassword(user.PasswordHash, password); err != nil {
		if ferr := m.limiter.Fail(ctx, key); ferr != nil {
			m.log.Error(ctx, "record failed login", "error", ferr)
		}
		m.log.Warn(ctx, "login failed: bad password", "user_id", user.ID)
		return nil, apperr.Wrap(apperr.KindInvalidCredentials, "invalid user credentials", err)
	}
	if err := m.limiter.Reset(ctx, key); err != nil {
		m.log.Error(ctx, "reset login attempts", "error", err)
	}

	pair, err := m.issuePair(user.ID)
	if err != nil {
		return nil, err
	}
	if err := m.store.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to start session", err)
	}

	m.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{User: user.Sanitized(), TokenPair: *pair}, nil
}

// Refresh rotates the session. The presented token must verify and match
// the persisted value; the swap to the new value is conditional, so of two
// concurrent refreshes with the same token only one succeeds.
func (m *Manager) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, apperr.New(apperr.KindUnauthenticated, "unauthorized request")
	}

	claims, err := m.tokens.Verify(presented, tokens.Refresh)
	if err != nil {
		m.log.Debug(ctx, "refresh token rejected", "reason", err)
		return nil, apperr.Wrap(apperr.KindInvalidToken, "invalid refresh token", err)
	}

	user, err := m.store.FindByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Wrap(apperr.KindInvalidToken, "invalid refresh token", err)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}

	if subtle.ConstantTimeCompare([]byte(presented), []byte(user.RefreshToken)) != 1 {
		m.log.Warn(ctx, "refresh token reuse detected", "user_id", user.ID)
		return nil, apperr.New(apperr.KindTokenReused, msgRefreshRejected)
	}

	pair, err := m.issuePair(user.ID)
	if err != nil {
		return nil, err
	}

	swapped, err := m.store.SwapRefreshToken(ctx, user.ID, presented, pair.RefreshToken)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Wrap(apperr.KindInvalidToken, "invalid refresh token", err)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to rotate session", err)
	}
	if !swapped {
		m.log.Warn(ctx, "refresh token reuse detected", "user_id", user.ID, "race", true)
		return nil, apperr.New(apperr.KindTokenReused, msgRefreshRejected)
	}

	m.log.Debug(ctx, "session refreshed", "user_id", user.ID)
	return pair, nil
}

// Logout clears the persisted refresh token of the user in ctx. Calling it
// again is harmless.
func (m *Manager) Logout(ctx context.Context) error {
	u, ok := identity.From(ctx)
	if !ok {
		return apperr.New(apperr.KindUnauthenticated, "unauthorized request")
	}
	err := m.store.ClearRefreshToken(ctx, u.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return apperr.Wrap(apperr.KindInternal, "failed to end session", err)
	}
	m.log.Info(ctx, "user logged out", "user_id", u.ID)
	return nil
}

// ChangePassword replaces the password of the user in ctx and ends their
// session.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	u, ok := identity.From(ctx)
	if !ok {
		return apperr.New(apperr.KindUnauthenticated, "unauthorized request")
	}
	if newPassword == "" {
		return apperr.New(apperr.KindInvalidInput, "new password is required")
	}

	user, err := m.store.FindByID(ctx, u.ID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Wrap(apperr.KindUnauthenticated, "unauthorized request", err)
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}

	if err := utils.CheckPassword(user.PasswordHash, oldPassword); err != nil {
		return apperr.Wrap(apperr.KindInvalidCredentials, "invalid old password", err)
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}
	if err := m.store.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to update password", err)
	}

	m.log.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

func (m *Manager) issuePair(userID string) (*TokenPair, error) {
	access, err := m.tokens.IssueAccessToken(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to generate access token", err)
	}
	refresh, err := m.tokens.IssueRefreshToken(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to generate refresh token", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
