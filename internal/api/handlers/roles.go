package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opsdeck/opsdeck/internal/service"
)

// RoleHandler serves the superadmin role-management endpoints.
type RoleHandler struct {
	svc *service.AdminService
}

// NewRoleHandler creates a RoleHandler.
func NewRoleHandler(svc *service.AdminService) *RoleHandler {
	return &RoleHandler{svc: svc}
}

// RoleListResponse wraps the annotated role listing.
type RoleListResponse struct {
	Roles []service.RoleWithMembers `json:"roles"`
}

// ListRoles godoc
// @Summary List roles with member counts
// @Tags superadmin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} RoleListResponse
// @Failure 500 {object} ErrorResponse
// @Router /superadmin/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.svc.ListRoles()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, RoleListResponse{Roles: roles})
}

// CreateRoleRequest carries the fields for a new role.
type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Permissions []string `json:"permissions"`
}

// CreateRole godoc
// @Summary Create a role
// @Tags superadmin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param role body CreateRoleRequest true "Role details"
// @Success 201 {object} models.Role
// @Failure 400 {object} ErrorResponse
// @Router /superadmin/roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "role name is required"})
		return
	}

	role, err := h.svc.CreateRole(actingUser(c).ID, req.Name, req.Permissions)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, role)
}

// UpdateRoleRequest carries a partial role update.
type UpdateRoleRequest struct {
	Name        *string   `json:"name"`
	Permissions *[]string `json:"permissions"`
}

// UpdateRole godoc
// @Summary Update a role
// @Tags superadmin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Role ID"
// @Param role body UpdateRoleRequest true "Fields to update"
// @Success 200 {object} models.Role
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /superadmin/roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	role, err := h.svc.UpdateRole(actingUser(c).ID, id, req.Name, req.Permissions)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, role)
}

// AssignRoleRequest names the account and role to link.
type AssignRoleRequest struct {
	UserID uint `json:"userId" binding:"required"`
	RoleID uint `json:"roleId" binding:"required"`
}

// AssignRole godoc
// @Summary Assign a role to a user
// @Tags superadmin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param assignment body AssignRoleRequest true "Assignment"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /superadmin/assign-role [post]
func (h *RoleHandler) AssignRole(c *gin.Context) {
	var req AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "userId and roleId are required"})
		return
	}

	if err := h.svc.AssignRole(actingUser(c).ID, req.UserID, req.RoleID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "role assigned successfully"})
}
