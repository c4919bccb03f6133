package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/sessionauth/middleware"
	"github.com/princinho/sessionauth/session"
)

type CookieConfig struct {
	Secure     bool
	Domain     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (cc CookieConfig) sameSite() http.SameSite {
	// Browsers drop SameSite=None cookies that are not Secure.
	if cc.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (cc CookieConfig) set(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cc.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: cc.sameSite(),
	})
}

func (cc CookieConfig) setTokens(c *gin.Context, pair session.TokenPair) {
	cc.set(c, middleware.AccessTokenCookie, pair.AccessToken, int(cc.AccessTTL.Seconds()))
	cc.set(c, middleware.RefreshTokenCookie, pair.RefreshToken, int(cc.RefreshTTL.Seconds()))
}

func (cc CookieConfig) clearTokens(c *gin.Context) {
	cc.set(c, middleware.AccessTokenCookie, "", -1)
	cc.set(c, middleware.RefreshTokenCookie, "", -1)
}
