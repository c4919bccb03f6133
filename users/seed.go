package users

import (
	"context"
	"fmt"

	"github.com/princinho/sessionauth/apperr"
	"github.com/princinho/sessionauth/config"
)

// Seed creates the configured seed account if it does not exist yet. It is
// skipped when no seed username is configured.
func (s *Service) Seed(ctx context.Context, cfg config.SeedConfig) error {
	if cfg.Username == "" {
		return nil
	}
	if cfg.Email == "" || cfg.Password == "" {
		return fmt.Errorf("missing SEED_EMAIL or SEED_PASSWORD for seed user %q", cfg.Username)
	}

	u, err := s.Register(ctx, RegisterInput{
		FullName: cfg.Username,
		Email:    cfg.Email,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	switch {
	case apperr.Is(err, apperr.KindConflict):
		s.log.Info(ctx, "seed user already exists", "username", cfg.Username)
		return nil
	case err != nil:
		return fmt.Errorf("seed user: %w", err)
	}

	s.log.Info(ctx, "seed user created", "user_id", u.ID, "username", u.Username)
	return nil
}
