package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opsdeck/opsdeck/internal/service"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse carries a human-readable success message.
type MessageResponse struct {
	Message string `json:"message"`
}

// respondError maps a service error to its HTTP status. Unexpected failures
// are logged server-side and answered with a generic message.
func respondError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var conflictErr *service.ConflictError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validationErr.Message})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: conflictErr.Message})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: notFoundMessage(err)})
	default:
		slog.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// notFoundMessage keeps the wrapped "user: not found" / "role: not found"
// prefixes readable in responses.
func notFoundMessage(err error) string {
	switch err.Error() {
	case "user: not found":
		return "user not found"
	case "role: not found":
		return "role not found"
	}
	return "not found"
}

// HealthCheck godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
