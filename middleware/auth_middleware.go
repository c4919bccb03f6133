package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princinho/sessionauth/apperr"
	"github.com/princinho/sessionauth/identity"
	"github.com/princinho/sessionauth/logging"
	"github.com/princinho/sessionauth/response"
	"github.com/princinho/sessionauth/store"
	"github.com/princinho/sessionauth/tokens"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

var errUnauthorized = apperr.New(apperr.KindUnauthenticated, "unauthorized request")

// AuthMiddleware admits requests carrying a valid access token, read from the
// accessToken cookie or an "Authorization: Bearer" header. Expired, forged
// and malformed tokens all get the same 401.
func AuthMiddleware(ts *tokens.Service, users store.UserStore, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		raw := bearerToken(c)
		if raw == "" {
			response.Abort(c, errUnauthorized)
			return
		}

		claims, err := ts.Verify(raw, tokens.Access)
		if err != nil {
			log.Debug(ctx, "access token rejected", "reason", err)
			response.Abort(c, errUnauthorized)
			return
		}

		user, err := users.FindPublicByID(ctx, claims.UserID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.Error(ctx, "resolve token subject", "user_id", claims.UserID, "error", err)
			}
			response.Abort(c, errUnauthorized)
			return
		}

		c.Request = c.Request.WithContext(identity.With(ctx, user))
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if v, err := c.Cookie(AccessTokenCookie); err == nil && v != "" {
		return v
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
