package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/opsdeck/opsdeck/internal/auth"
	"github.com/opsdeck/opsdeck/internal/models"
	"github.com/opsdeck/opsdeck/internal/service"
)

// UserHandler serves the superadmin user-management endpoints.
type UserHandler struct {
	svc *service.AdminService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(svc *service.AdminService) *UserHandler {
	return &UserHandler{svc: svc}
}

// actingUser returns the authenticated account stored by the auth middleware.
func actingUser(c *gin.Context) *models.User {
	return c.MustGet(auth.UserContextKey).(*models.User)
}

// parseID parses a numeric path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// UserListResponse is the paginated user listing envelope.
type UserListResponse struct {
	Users      []models.User     `json:"users"`
	Pagination models.Pagination `json:"pagination"`
}

// ListUsers godoc
// @Summary List users
// @Tags superadmin
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param search query string false "Substring match on name or email"
// @Param role query string false "Restrict to holders of this role"
// @Success 200 {object} UserListResponse
// @Failure 500 {object} ErrorResponse
// @Router /superadmin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := service.ListUsersParams{
		Page:   intQuery(c, "page", 1),
		Limit:  intQuery(c, "limit", service.DefaultPageSize),
		Search: c.Query("search"),
		Role:   c.Query("role"),
	}

	users, pagination, err := h.svc.ListUsers(params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserListResponse{Users: users, Pagination: pagination})
}

// GetUser godoc
// @Summary Get user by ID
// @Tags superadmin
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse
// @Router /superadmin/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.svc.GetUser(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// CreateUserRequest carries the fields for a new account.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	RoleIDs  []uint `json:"roleIds"`
}

// CreateUser godoc
// @Summary Create a user
// @Tags superadmin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "User details"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Router /superadmin/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name, email, and password are required"})
		return
	}

	user, err := h.svc.CreateUser(actingUser(c).ID, service.CreateUserParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		RoleIDs:  req.RoleIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// UpdateUserRequest carries a partial account update. A present roleIds
// replaces the whole membership set.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password"`
	RoleIDs  *[]uint `json:"roleIds"`
}

// UpdateUser godoc
// @Summary Update a user
// @Tags superadmin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param user body UpdateUserRequest true "Fields to update"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /superadmin/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.svc.UpdateUser(actingUser(c).ID, id, service.UpdateUserParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		RoleIDs:  req.RoleIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags superadmin
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /superadmin/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(actingUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user deleted successfully"})
}
