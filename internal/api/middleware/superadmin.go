package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opsdeck/opsdeck/internal/auth"
	"github.com/opsdeck/opsdeck/internal/models"
)

// RequireSuperadmin ensures the authenticated account holds the superadmin
// role. Authentication must already have run; a missing context user answers
// 401, a resolved user without the capability answers 403.
func RequireSuperadmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(auth.UserContextKey)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		user, ok := value.(*models.User)
		if !ok || !user.HasRole(models.SuperadminRoleName) {
			c.JSON(http.StatusForbidden, gin.H{"error": "superadmin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
