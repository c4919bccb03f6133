// Package identity carries the authenticated user through a request context.
package identity

import (
	"context"

	"github.com/princinho/sessionauth/models"
)

type contextKey struct{}

// With returns a copy of ctx carrying u. The user is stored as given; callers
// pass an already sanitized value.
func With(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

func From(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(contextKey{}).(*models.User)
	if !ok || u == nil {
		return nil, false
	}
	return u, true
}
