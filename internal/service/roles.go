package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/opsdeck/opsdeck/internal/models"
)

// ListRoles returns all roles alphabetically by name, each annotated with
// its current member count and member summaries.
func (s *AdminService) ListRoles() ([]RoleWithMembers, error) {
	var roles []models.Role
	if err := s.db.Order("name ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	type memberRow struct {
		RoleID uint
		ID     uint
		Name   string
		Email  string
	}
	var rows []memberRow
	err := s.db.Model(&models.UserRole{}).
		Select("user_roles.role_id AS role_id, users.id AS id, users.name AS name, users.email AS email").
		Joins("JOIN users ON users.id = user_roles.user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load role members: %w", err)
	}

	members := make(map[uint][]models.UserSummary)
	for _, r := range rows {
		members[r.RoleID] = append(members[r.RoleID], models.UserSummary{ID: r.ID, Name: r.Name, Email: r.Email})
	}

	out := make([]RoleWithMembers, len(roles))
	for i, role := range roles {
		users := members[role.ID]
		if users == nil {
			users = []models.UserSummary{}
		}
		out[i] = RoleWithMembers{
			Role:      role,
			UserCount: len(users),
			Users:     users,
		}
	}
	return out, nil
}

// CreateRole creates a named permission bundle. Permission tokens are stored
// as given; duplicates and arbitrary strings are permitted.
func (s *AdminService) CreateRole(actorID uint, name string, permissions []string) (*models.Role, error) {
	if name == "" {
		return nil, &ValidationError{Message: "role name is required"}
	}

	var existing models.Role
	if err := s.db.Where("name = ?", name).First(&existing).Error; err == nil {
		return nil, &ConflictError{Message: "role name already exists"}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check role name: %w", err)
	}

	if permissions == nil {
		permissions = []string{}
	}
	role := models.Role{
		Name:        name,
		Permissions: models.StringList(permissions),
	}
	if err := s.db.Create(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Message: "role name already exists"}
		}
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	id := role.ID
	s.recorder.Record(actorID, models.ActionCreate, models.TargetRole, &id, models.JSONMap{
		"roleName":    role.Name,
		"permissions": permissions,
	})

	return &role, nil
}

// UpdateRole applies a partial role update. The superadmin role cannot be
// renamed away from its name. Logs an UPDATE entry listing changed fields.
func (s *AdminService) UpdateRole(actorID, id uint, name *string, permissions *[]string) (*models.Role, error) {
	var role models.Role
	if err := s.db.First(&role, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch role: %w", err)
	}

	if role.Name == models.SuperadminRoleName && name != nil && *name != models.SuperadminRoleName {
		return nil, &ConflictError{Message: "cannot modify superadmin role name"}
	}

	var changed []string
	if name != nil && *name != "" && *name != role.Name {
		role.Name = *name
		changed = append(changed, "name")
	}
	if permissions != nil {
		role.Permissions = models.StringList(*permissions)
		changed = append(changed, "permissions")
	}

	if err := s.db.Save(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Message: "role name already exists"}
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.recorder.Record(actorID, models.ActionUpdate, models.TargetRole, &id, models.JSONMap{
		"roleName":      role.Name,
		"updatedFields": changed,
	})

	return &role, nil
}

// AssignRole adds a role to an account. Assigning an already-held role is
// rejected with a conflict rather than silently accepted.
func (s *AdminService) AssignRole(actorID, userID, roleID uint) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	var role models.Role
	if err := s.db.First(&role, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("role: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to fetch role: %w", err)
	}

	var existing models.UserRole
	err := s.db.Where("user_id = ? AND role_id = ?", userID, roleID).First(&existing).Error
	if err == nil {
		return &ConflictError{Message: "user already has this role"}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check membership: %w", err)
	}

	membership := models.UserRole{UserID: userID, RoleID: roleID}
	if err := s.db.Create(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &ConflictError{Message: "user already has this role"}
		}
		return fmt.Errorf("failed to create membership: %w", err)
	}

	s.recorder.Record(actorID, models.ActionAssignRole, models.TargetUser, &userID, models.JSONMap{
		"assignedRole":    role.Name,
		"targetUserEmail": user.Email,
	})

	return nil
}
