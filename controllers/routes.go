package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the user and session endpoints under /api/v1/users.
// requireAuth guards the routes that need a logged-in user.
func RegisterRoutes(r gin.IRouter, auth *AuthController, u *UsersController, requireAuth gin.HandlerFunc) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	g := r.Group("/api/v1/users")
	g.POST("/register", u.Register())
	g.POST("/login", auth.Login())
	g.POST("/refresh-token", auth.Refresh())

	secured := g.Group("")
	secured.Use(requireAuth)
	{
		secured.POST("/logout", auth.Logout())
		secured.GET("/current-user", u.CurrentUser())
		secured.POST("/change-password", u.ChangePassword())
	}
}
