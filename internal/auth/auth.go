// Package auth resolves bearer tokens to accounts and issues new ones.
package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/opsdeck/opsdeck/internal/models"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a missing, invalid, or expired token.
	ErrUnauthorized = errors.New("unauthorized")
)

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Authenticator is an interface for authentication providers.
type Authenticator interface {
	// Login authenticates an account and returns a signed token.
	Login(email, password string) (*LoginResponse, error)

	// Middleware returns a Gin middleware that resolves the bearer token
	// to an account and stores it in the request context.
	Middleware() gin.HandlerFunc

	// GetUserFromContext extracts the authenticated user from the Gin context.
	GetUserFromContext(c *gin.Context) (*models.User, error)
}
