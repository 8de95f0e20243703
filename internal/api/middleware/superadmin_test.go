package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/opsdeck/opsdeck/internal/auth"
	"github.com/opsdeck/opsdeck/internal/models"
)

func runRequireSuperadmin(t *testing.T, user *models.User) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if user != nil {
		c.Set(auth.UserContextKey, user)
	}

	passed := false
	handlers := gin.HandlersChain{
		RequireSuperadmin(),
		func(c *gin.Context) { passed = true },
	}
	for _, h := range handlers {
		if c.IsAborted() {
			break
		}
		h(c)
	}
	return w, passed
}

func TestRequireSuperadmin_NoUser(t *testing.T) {
	w, passed := runRequireSuperadmin(t, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if passed {
		t.Error("handler ran without an authenticated user")
	}
}

func TestRequireSuperadmin_MissingRole(t *testing.T) {
	user := &models.User{
		ID:    1,
		Roles: []models.Role{{Name: "admin"}, {Name: "user"}},
	}
	w, passed := runRequireSuperadmin(t, user)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
	if passed {
		t.Error("handler ran without the superadmin role")
	}
}

func TestRequireSuperadmin_Allowed(t *testing.T) {
	user := &models.User{
		ID:    1,
		Roles: []models.Role{{Name: models.SuperadminRoleName}},
	}
	w, passed := runRequireSuperadmin(t, user)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !passed {
		t.Error("handler did not run for a superadmin")
	}
}
