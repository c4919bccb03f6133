package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/sessionauth/apperr"
	"github.com/princinho/sessionauth/dto"
	"github.com/princinho/sessionauth/logging"
	"github.com/princinho/sessionauth/middleware"
	"github.com/princinho/sessionauth/response"
	"github.com/princinho/sessionauth/session"
)

type AuthController struct {
	sessions *session.Manager
	cookies  CookieConfig
	log      logging.Logger
}

func NewAuthController(sessions *session.Manager, cookies CookieConfig, log logging.Logger) *AuthController {
	return &AuthController{sessions: sessions, cookies: cookies, log: log}
}

// POST /api/v1/users/login
func (a *AuthController) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Error(c, apperr.New(apperr.KindInvalidInput, "invalid request body"), err.Error())
			return
		}

		res, err := a.sessions.Login(c.Request.Context(), body.Identifier(), body.Password)
		if err != nil {
			fail(c, a.log, err)
			return
		}

		a.cookies.setTokens(c, res.TokenPair)
		response.OK(c, http.StatusOK, res, "User logged in successfully")
	}
}

// POST /api/v1/users/refresh-token
func (a *AuthController) Refresh() gin.HandlerFunc {
	return func(c *gin.Context) {
		presented, _ := c.Cookie(middleware.RefreshTokenCookie)
		if presented == "" {
			var body dto.RefreshDTO
			// An empty or non-JSON body just means no token was sent.
			_ = c.ShouldBindJSON(&body)
			presented = body.RefreshToken
		}

		pair, err := a.sessions.Refresh(c.Request.Context(), presented)
		if err != nil {
			fail(c, a.log, err)
			return
		}

		a.cookies.setTokens(c, *pair)
		response.OK(c, http.StatusOK, pair, "Access token refreshed")
	}
}

// POST /api/v1/users/logout
func (a *AuthController) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.sessions.Logout(c.Request.Context()); err != nil {
			fail(c, a.log, err)
			return
		}
		a.cookies.clearTokens(c)
		response.OK(c, http.StatusOK, nil, "User logged out")
	}
}

// fail logs server-side failures with their cause before answering.
func fail(c *gin.Context, log logging.Logger, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		_ = c.Error(err)
	}
	response.Error(c, err)
}
