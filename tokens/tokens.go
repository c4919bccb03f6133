// Package tokens issues and verifies the two JWT kinds used for sessions.
// Access and refresh tokens are signed with distinct secrets so that a leaked
// access secret cannot mint refresh tokens.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	if k == Refresh {
		return "refresh"
	}
	return "access"
}

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

type Config struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// Verified is what a successfully verified token proves.
type Verified struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Service struct {
	access  keyConfig
	refresh keyConfig
	now     func() time.Time
}

type keyConfig struct {
	secret []byte
	ttl    time.Duration
}

type Option func(*Service)

// WithClock replaces time.Now for both issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	if cfg.AccessSecret == "" {
		return nil, errors.New("access token secret is required")
	}
	if cfg.RefreshSecret == "" {
		return nil, errors.New("refresh token secret is required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}

	s := &Service{
		access:  keyConfig{secret: []byte(cfg.AccessSecret), ttl: cfg.AccessTTL},
		refresh: keyConfig{secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshTTL},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) IssueAccessToken(userID string) (string, error) {
	return s.issue(userID, s.access)
}

func (s *Service) IssueRefreshToken(userID string) (string, error) {
	return s.issue(userID, s.refresh)
}

func (s *Service) issue(userID string, key keyConfig) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(key.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry only. Whether the subject still exists is
// up to the caller.
func (s *Service) Verify(tokenStr string, kind Kind) (*Verified, error) {
	key := s.access
	if kind == Refresh {
		key = s.refresh
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	claims := &jwt.RegisteredClaims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return key.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %s token", ErrTokenExpired, kind)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	v := &Verified{UserID: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}
	if claims.IssuedAt != nil {
		v.IssuedAt = claims.IssuedAt.Time
	}
	return v, nil
}
