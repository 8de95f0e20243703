// Package service orchestrates account and role administration over the
// relational store, appending one audit entry per mutation.
package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/opsdeck/opsdeck/internal/audit"
	"github.com/opsdeck/opsdeck/internal/auth"
	"github.com/opsdeck/opsdeck/internal/models"
)

// AdminService exposes the administrative operations over accounts and
// roles. Stores are injected so tests can run against an in-memory database.
type AdminService struct {
	db       *gorm.DB
	recorder *audit.Recorder
}

// NewAdminService creates an AdminService.
func NewAdminService(db *gorm.DB, recorder *audit.Recorder) *AdminService {
	return &AdminService{db: db, recorder: recorder}
}

// ListUsers returns a page of accounts ordered by creation time descending,
// optionally filtered by a search term and a role name.
func (s *AdminService) ListUsers(p ListUsersParams) ([]models.User, models.Pagination, error) {
	page := p.Page
	if page <= 0 {
		page = 1
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	q := s.db.Model(&models.User{})
	if p.Search != "" {
		pattern := "%" + p.Search + "%"
		q = q.Where("LOWER(users.name) LIKE LOWER(?) OR LOWER(users.email) LIKE LOWER(?)", pattern, pattern)
	}
	if p.Role != "" {
		q = q.Joins("JOIN user_roles ON user_roles.user_id = users.id").
			Joins("JOIN roles ON roles.id = user_roles.role_id").
			Where("roles.name = ?", p.Role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	err := q.Select("users.*").
		Preload("Roles").
		Order("users.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to list users: %w", err)
	}

	return users, models.NewPagination(page, limit, total), nil
}

// GetUser returns one account with its roles.
func (s *AdminService) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Roles").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

// CreateUser creates an account, optionally attaching roles, and logs a
// CREATE entry against the new account.
func (s *AdminService) CreateUser(actorID uint, p CreateUserParams) (*models.User, error) {
	if p.Name == "" || p.Email == "" || p.Password == "" {
		return nil, &ValidationError{Message: "name, email, and password are required"}
	}

	var existing models.User
	if err := s.db.Where("email = ?", p.Email).First(&existing).Error; err == nil {
		return nil, &ConflictError{Message: "email already exists"}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := auth.HashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         p.Name,
		Email:        p.Email,
		PasswordHash: hash,
	}
	if err := s.db.Create(&user).Error; err != nil {
		// The unique index is the arbiter under concurrent creates: the
		// loser of the race surfaces the same conflict as a pre-checked
		// duplicate.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Message: "email already exists"}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if len(p.RoleIDs) > 0 {
		if err := s.replaceMemberships(user.ID, p.RoleIDs); err != nil {
			return nil, err
		}
	}

	id := user.ID
	s.recorder.Record(actorID, models.ActionCreate, models.TargetUser, &id, models.JSONMap{
		"email":         user.Email,
		"assignedRoles": p.RoleIDs,
	})

	return s.GetUser(user.ID)
}

// UpdateUser applies a partial update. A non-nil RoleIDs replaces the entire
// membership set. Logs an UPDATE entry listing the changed fields.
func (s *AdminService) UpdateUser(actorID, id uint, p UpdateUserParams) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	updates := map[string]interface{}{}
	var changed []string

	if p.Name != nil && *p.Name != "" {
		updates["name"] = *p.Name
		changed = append(changed, "name")
	}
	if p.Email != nil && *p.Email != "" {
		var other models.User
		err := s.db.Where("email = ? AND id <> ?", *p.Email, id).First(&other).Error
		if err == nil {
			return nil, &ConflictError{Message: "email already exists"}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		updates["email"] = *p.Email
		changed = append(changed, "email")
	}
	if p.Password != nil && *p.Password != "" {
		hash, err := auth.HashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
		changed = append(changed, "password")
	}

	if len(updates) > 0 {
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, &ConflictError{Message: "email already exists"}
			}
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	if p.RoleIDs != nil {
		if err := s.replaceMemberships(id, *p.RoleIDs); err != nil {
			return nil, err
		}
		changed = append(changed, "roles")
	}

	s.recorder.Record(actorID, models.ActionUpdate, models.TargetUser, &id, models.JSONMap{
		"updatedFields": changed,
	})

	return s.GetUser(id)
}

// DeleteUser removes an account and its memberships. Accounts cannot delete
// themselves, and an account holding the superadmin role cannot be deleted.
// The DELETE entry is logged before the row is removed so the trail keeps
// the email.
func (s *AdminService) DeleteUser(actorID, id uint) error {
	if id == actorID {
		return &ConflictError{Message: "cannot delete your own account"}
	}

	var user models.User
	if err := s.db.Preload("Roles").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	if user.HasRole(models.SuperadminRoleName) {
		return &ConflictError{Message: "cannot delete a superadmin account"}
	}

	s.recorder.Record(actorID, models.ActionDelete, models.TargetUser, &id, models.JSONMap{
		"deletedEmail": user.Email,
	})

	if err := s.db.Where("user_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
		return fmt.Errorf("failed to remove memberships: %w", err)
	}
	if err := s.db.Delete(&models.User{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// replaceMemberships swaps the account's whole membership set for the roles
// that actually exist among the given ids. It does not merge.
func (s *AdminService) replaceMemberships(userID uint, roleIDs []uint) error {
	if err := s.db.Where("user_id = ?", userID).Delete(&models.UserRole{}).Error; err != nil {
		return fmt.Errorf("failed to clear memberships: %w", err)
	}

	if len(roleIDs) == 0 {
		return nil
	}

	var roles []models.Role
	if err := s.db.Where("id IN ?", roleIDs).Find(&roles).Error; err != nil {
		return fmt.Errorf("failed to resolve roles: %w", err)
	}

	for _, role := range roles {
		membership := models.UserRole{UserID: userID, RoleID: role.ID}
		if err := s.db.Create(&membership).Error; err != nil {
			return fmt.Errorf("failed to create membership: %w", err)
		}
	}
	return nil
}
