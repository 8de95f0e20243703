package db

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/opsdeck/opsdeck/internal/audit"
	"github.com/opsdeck/opsdeck/internal/auth"
	"github.com/opsdeck/opsdeck/internal/models"
)

type seedAccount struct {
	name     string
	email    string
	password string
	role     string
}

var seedAccounts = []seedAccount{
	{"Super Admin", "superadmin@example.com", "Test1234!", models.SuperadminRoleName},
	{"John Doe", "john@example.com", "password123", "admin"},
	{"Jane Smith", "jane@example.com", "password123", "user"},
}

// Seed creates the bootstrap superadmin and demo accounts with their role
// memberships. Existing accounts are left untouched. When withAudit is true
// each created account leaves a CREATE audit entry attributed to the system
// sentinel actor; otherwise the bootstrap is silent.
func Seed(db *gorm.DB, withAudit bool) error {
	recorder := audit.NewRecorder(db)

	for _, acc := range seedAccounts {
		var existing models.User
		if err := db.Where("email = ?", acc.email).First(&existing).Error; err == nil {
			continue
		} else if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to look up %s: %w", acc.email, err)
		}

		hash, err := auth.HashPassword(acc.password)
		if err != nil {
			return err
		}

		user := models.User{
			Name:         acc.name,
			Email:        acc.email,
			PasswordHash: hash,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", acc.email, err)
		}

		var role models.Role
		if err := db.Where("name = ?", acc.role).First(&role).Error; err != nil {
			return fmt.Errorf("seed role %q missing: %w", acc.role, err)
		}
		membership := models.UserRole{UserID: user.ID, RoleID: role.ID}
		if err := db.Create(&membership).Error; err != nil {
			return fmt.Errorf("failed to assign %q to %s: %w", acc.role, acc.email, err)
		}

		if withAudit {
			id := user.ID
			recorder.Record(models.SystemActorID, models.ActionCreate, models.TargetUser, &id, models.JSONMap{
				"email":         user.Email,
				"assignedRoles": []string{acc.role},
				"seed":          true,
			})
		}

		slog.Info("Seeded account", "email", acc.email, "role", acc.role)
	}

	return nil
}
