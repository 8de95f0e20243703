package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/opsdeck/opsdeck/internal/audit"
	"github.com/opsdeck/opsdeck/internal/models"
)

const (
	// UserContextKey is the key used to store the user in the Gin context.
	UserContextKey = "user"
	// DefaultTokenDuration is the validity window for issued tokens.
	DefaultTokenDuration = 24 * time.Hour
)

// BasicAuthenticator implements email/password authentication with
// HMAC-signed bearer tokens.
type BasicAuthenticator struct {
	db        *gorm.DB
	recorder  *audit.Recorder
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewBasicAuthenticator creates a new basic authenticator. A zero ttl means
// DefaultTokenDuration.
func NewBasicAuthenticator(db *gorm.DB, recorder *audit.Recorder, jwtSecret string, ttl time.Duration) *BasicAuthenticator {
	if ttl <= 0 {
		ttl = DefaultTokenDuration
	}
	return &BasicAuthenticator{
		db:        db,
		recorder:  recorder,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// WithClock overrides the authenticator's clock. Used by tests.
func (a *BasicAuthenticator) WithClock(now func() time.Time) *BasicAuthenticator {
	a.now = now
	return a
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks if a password matches the hash.
func VerifyPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Claims represents the token claims: the account id and email plus the
// registered expiry window.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Login authenticates an account and returns a signed token. On success the
// account's last-login timestamp is updated and a LOGIN entry is appended to
// the audit trail.
func (a *BasicAuthenticator) Login(email, password string) (*LoginResponse, error) {
	var user models.User
	result := a.db.Preload("Roles").Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Warn("Login attempt with unknown email", "email", email)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	if !VerifyPassword(user.PasswordHash, password) {
		slog.Warn("Login attempt with incorrect password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	loginAt := a.now().UTC()
	if err := a.db.Model(&user).Update("last_login", loginAt).Error; err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLogin = &loginAt

	a.recorder.Record(user.ID, models.ActionLogin, models.TargetSystem, nil, nil)

	token, err := a.generateToken(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	slog.Info("User logged in", "user_id", user.ID, "email", user.Email)
	return &LoginResponse{
		Token: token,
		User:  &user,
	}, nil
}

// generateToken creates a signed token for a user.
func (a *BasicAuthenticator) generateToken(user *models.User) (string, error) {
	now := a.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "opsdeck",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// validateToken validates a token string and returns its claims.
func (a *BasicAuthenticator) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithTimeFunc(func() time.Time { return a.now() }))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrUnauthorized
}

// Middleware returns a Gin middleware that authenticates the bearer token.
// Every failure mode answers with the same generic 401 so callers learn
// nothing about which check failed. Verification never touches last-login.
func (a *BasicAuthenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		user, err := a.validateAndLoadUser(parts[1])
		if err != nil {
			slog.Warn("Rejected token", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		c.Set(UserContextKey, user)
		c.Next()
	}
}

// validateAndLoadUser validates a token and loads the account with its
// current role set. A token whose account no longer exists is rejected.
func (a *BasicAuthenticator) validateAndLoadUser(tokenString string) (*models.User, error) {
	claims, err := a.validateToken(tokenString)
	if err != nil {
		return nil, err
	}

	var user models.User
	if result := a.db.Preload("Roles").First(&user, claims.UserID); result.Error != nil {
		return nil, fmt.Errorf("account %s not found: %w", strconv.Itoa(int(claims.UserID)), result.Error)
	}

	return &user, nil
}

// GetUserFromContext extracts the authenticated user from the Gin context.
func (a *BasicAuthenticator) GetUserFromContext(c *gin.Context) (*models.User, error) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return nil, ErrUnauthorized
	}

	user, ok := value.(*models.User)
	if !ok {
		return nil, errors.New("invalid user in context")
	}

	return user, nil
}
