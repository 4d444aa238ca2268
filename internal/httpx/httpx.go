// Package httpx provides helper functions for writing HTTP responses.
package httpx

import (
	"log/slog"
	"net/http"

	"github.com/kylejryan/claims-intake-backend/internal/apperr"
	"github.com/kylejryan/claims-intake-backend/internal/awsutil"

	"github.com/gin-gonic/gin"
)

// JSON writes v as a JSON response with the given status code.
func JSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

// Message writes a JSON error body {"error": msg} with the given status code.
func Message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// Error writes err with the status code of its kind.
func Error(c *gin.Context, err error) {
	ErrorStatus(c, StatusOf(apperr.KindOf(err)), err)
}

// ErrorStatus writes err with an explicit status code. Server errors are
// logged with the request path.
func ErrorStatus(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"kind", apperr.KindOf(err),
			"aws_code", awsutil.ErrorCode(err),
			"error", err,
		)
	}
	Message(c, status, err.Error())
}

// StatusOf maps an error kind to its HTTP status code.
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		// Conflicts surface as provider failures.
		return http.StatusInternalServerError
	}
}
