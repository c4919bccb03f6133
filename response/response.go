// Package response writes the JSON envelope every endpoint answers with.
package response

import (
	"github.com/gin-gonic/gin"
	"github.com/princinho/sessionauth/apperr"
)

type Success struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

type Failure struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

func OK(c *gin.Context, status int, data any, message string) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, Success{StatusCode: status, Data: data, Message: message, Success: true})
}

// Error maps err to its status and public message. Wrapped causes are never
// written to the client.
func Error(c *gin.Context, err error, details ...string) {
	status := apperr.HTTPStatus(err)
	c.JSON(status, failure(status, err, details))
}

// Abort is Error for middleware: it also stops the handler chain.
func Abort(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	c.AbortWithStatusJSON(status, failure(status, err, nil))
}

func failure(status int, err error, details []string) Failure {
	return Failure{
		StatusCode: status,
		Message:    apperr.PublicMessage(err),
		Success:    false,
		Errors:     details,
	}
}
