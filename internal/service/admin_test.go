package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opsdeck/opsdeck/internal/audit"
	"github.com/opsdeck/opsdeck/internal/auth"
	"github.com/opsdeck/opsdeck/internal/models"
)

// testSetup opens a throwaway database, migrates the models, and returns a
// service ready for testing.
func testSetup(t *testing.T) (*AdminService, *gorm.DB) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	if err := db.SetupJoinTable(&models.User{}, "Roles", &models.UserRole{}); err != nil {
		t.Fatalf("setup join table: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.UserRole{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return NewAdminService(db, audit.NewRecorder(db)), db
}

func mustCreateRole(t *testing.T, db *gorm.DB, name string) models.Role {
	t.Helper()
	role := models.Role{Name: name, Permissions: models.StringList{"read"}}
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("create role %s: %v", name, err)
	}
	return role
}

func mustCreateUser(t *testing.T, db *gorm.DB, name, email string) models.User {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{Name: name, Email: email, PasswordHash: hash}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func auditCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.AuditLog{}).Count(&n).Error; err != nil {
		t.Fatalf("count audit logs: %v", err)
	}
	return n
}

func TestCreateUser_HashesPasswordAndLogsAudit(t *testing.T) {
	svc, db := testSetup(t)
	role := mustCreateRole(t, db, "admin")
	actor := mustCreateUser(t, db, "Actor", "actor@example.com")

	user, err := svc.CreateUser(actor.ID, CreateUserParams{
		Name:     "John Doe",
		Email:    "john@example.com",
		Password: "password123",
		RoleIDs:  []uint{role.ID},
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if user.PasswordHash == "password123" || user.PasswordHash == "" {
		t.Error("password was not hashed before storage")
	}
	if !auth.VerifyPassword(user.PasswordHash, "password123") {
		t.Error("stored hash does not verify against the plaintext")
	}
	if len(user.Roles) != 1 || user.Roles[0].Name != "admin" {
		t.Errorf("expected attached admin role, got %+v", user.Roles)
	}

	var entry models.AuditLog
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("expected an audit entry: %v", err)
	}
	if entry.Action != models.ActionCreate || entry.TargetType != models.TargetUser {
		t.Errorf("expected CREATE/USER audit entry, got %s/%s", entry.Action, entry.TargetType)
	}
	if entry.ActorID != actor.ID {
		t.Errorf("expected actor %d, got %d", actor.ID, entry.ActorID)
	}
	if entry.TargetID == nil || *entry.TargetID != user.ID {
		t.Errorf("expected target id %d, got %v", user.ID, entry.TargetID)
	}
}

func TestCreateUser_MissingFields(t *testing.T) {
	svc, db := testSetup(t)
	actor := mustCreateUser(t, db, "Actor", "actor@example.com")

	cases := []CreateUserParams{
		{Email: "a@example.com", Password: "x"},
		{Name: "A", Password: "x"},
		{Name: "A", Email: "a@example.com"},
	}
	for _, p := range cases {
		_, err := svc.CreateUser(actor.ID, p)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("params %+v: expected ValidationError, got %v", p, err)
		}
	}
}

func TestCreateUser_DuplicateEmailLeavesStoreUnchanged(t *testing.T) {
	svc, db := testSetup(t)
	actor := mustCreateUser(t, db, "Actor", "actor@example.com")

	if _, err := svc.CreateUser(actor.ID, CreateUserParams{
		Name: "First", Email: "dup@example.com", Password: "password123",
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	var before int64
	db.Model(&models.User{}).Count(&before)

	_, err := svc.CreateUser(actor.ID, CreateUserParams{
		Name: "Second", Email: "dup@example.com", Password: "password123",
	})
	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	var after int64
	db.Model(&models.User{}).Count(&after)
	if before != after {
		t.Errorf("user count changed from %d to %d on failed create", before, after)
	}
}

func TestUpdateUser_EmailCollision(t *testing.T) {
	svc, db := testSetup(t)
	actor := mustCreateUser(t, db, "Actor", "actor@example.com")
	taken := mustCreateUser(t, db, "Taken", "taken@example.com")
	target := mustCreateUser(t, db, "Target", "target@example.com")

	email := taken.Email
	_, err := svc.UpdateUser(actor.ID, target.ID, UpdateUserParams{Email: &email})
	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	// Keeping your own email is not a collision.
	same := target.Email
	if _, err := svc.UpdateUser(actor.ID, target.ID, UpdateUserParams{Email: &same}); err != nil {
		t.Fatalf("re-saving own email: %v", err)
	}
}

func TestUpdateUser_RoleIDsReplaceMembershipSet(t *testing.T) {
	svc, db := testSetup(t)
	actor := mustCreateUser(t, db, "Actor", "actor@example.com")
	roleA := mustCreateRole(t, db, "a-role")
	roleB := mustCreateRole(t, db, "b-role")

	user, err := svc.CreateUser(actor.ID, CreateUserParams{
		Name: "U", Email: "u@example.com", Password: "x-password",
		RoleIDs: []uint{roleA.ID},
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// Providing roleIds replaces, it does not merge.
	ids := []uint{roleB.ID}
	updated, err := svc.UpdateUser(actor.ID, user.ID, UpdateUserParams{RoleIDs: &ids})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if len(updated.Roles) != 1 || updated.Roles[0].ID != roleB.ID {
		t.Errorf("expected only role %d, got %+v", roleB.ID, updated.Roles)
	}

	// An explicitly empty set clears all memberships.
	empty := []uint{}
	updated, err = svc.UpdateUser(actor.ID, user.ID, UpdateUserParams{RoleIDs: &empty})
	if err != nil {
		t.Fatalf("UpdateUser clear: %v", err)
	}
	if len(updated.Roles) != 0 {
		t.Errorf("expected no roles, got %+v", updated.Roles)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	svc, db := testSetup(t)
	actor := mustCreateUser(t, db, "Actor", "actor@example.com")

	name := "X"
	if _, err := svc.UpdateUser(actor.ID, 9999, UpdateUserParams{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUser_SelfDeleteRejected(t *testing.T) {
	svc, db := testSetup(t)
	actor := mustCreateUser(t, db, "Actor", "actor@example.com")

	err := svc.DeleteUser(actor.ID, actor.ID)
	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError for self-delete, got %v", err)
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Errorf("expected actor to survive, user count %d", count)
	}
}

func TestDeleteUser_SuperadminHolderProtected(t *testing.T) {
	svc, db := testSetup(t)
	actor := mustCreateUser(t, db, "Actor", "actor@example.com")
	super := mustCreateRole(t, db, models.SuperadminRoleName)
	protected := mustCreateUser(t, db, "Protected", "protected@example.com")
	if err := db.Create(&models.UserRole{UserID: protected.ID, RoleID: super.ID}).Error; err != nil {
		t.Fatalf("assign superadmin: %v", err)
	}

	err := svc.DeleteUser(actor.ID, protected.ID)
	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError for superadmin delete, got %v", err)
	}
}

func TestDeleteUser_LogsEmailAndRemovesMemberships(t *testing.T) {
	svc, db := testSetup(t)
	actor := mustCreateUser(t, db, "Actor", "actor@example.com")
	role := mustCreateRole(t, db, "admin")
	victim := mustCreateUser(t, db, "Victim", "victim@example.com")
	if err := db.Create(&models.UserRole{UserID: victim.ID, RoleID: role.ID}).Error; err != nil {
		t.Fatalf("assign role: %v", err)
	}

	if err := svc.DeleteUser(actor.ID, victim.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	if _, err := svc.GetUser(victim.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected user gone, got %v", err)
	}
	var memberships int64
	db.Model(&models.UserRole{}).Where("user_id = ?", victim.ID).Count(&memberships)
	if memberships != 0 {
		t.Errorf("expected memberships removed, found %d", memberships)
	}

	// The trail keeps the email even though the row is gone.
	var entry models.AuditLog
	if err := db.Where("action = ?", models.ActionDelete).First(&entry).Error; err != nil {
		t.Fatalf("expected DELETE audit entry: %v", err)
	}
	if entry.Details["deletedEmail"] != "victim@example.com" {
		t.Errorf("expected deletedEmail in details, got %v", entry.Details)
	}
}

func TestDeleteUser_NotFound(t *testing.T) {
	svc, db := testSetup(t)
	actor := mustCreateUser(t, db, "Actor", "actor@example.com")

	if err := svc.DeleteUser(actor.ID, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsers_PaginationInvariant(t *testing.T) {
	svc, db := testSetup(t)
	for i := 0; i < 25; i++ {
		mustCreateUser(t, db, fmt.Sprintf("User %02d", i), fmt.Sprintf("user%02d@example.com", i))
	}

	limit := 10
	var all []uint
	page := 1
	for {
		users, pagination, err := svc.ListUsers(ListUsersParams{Page: page, Limit: limit})
		if err != nil {
			t.Fatalf("ListUsers page %d: %v", page, err)
		}
		if pagination.Total != 25 {
			t.Fatalf("expected total 25, got %d", pagination.Total)
		}
		if pagination.TotalPages != 3 {
			t.Fatalf("expected 3 pages, got %d", pagination.TotalPages)
		}
		for _, u := range users {
			all = append(all, u.ID)
		}
		if page >= pagination.TotalPages {
			break
		}
		page++
	}

	if len(all) != 25 {
		t.Fatalf("concatenated pages hold %d users, want 25", len(all))
	}
	seen := make(map[uint]bool)
	for _, id := range all {
		if seen[id] {
			t.Fatalf("user %d appears on more than one page", id)
		}
		seen[id] = true
	}
}

func TestListUsers_SearchAndRoleFilter(t *testing.T) {
	svc, db := testSetup(t)
	role := mustCreateRole(t, db, "operators")
	alice := mustCreateUser(t, db, "Alice Smith", "alice@example.com")
	mustCreateUser(t, db, "Bob Jones", "bob@example.com")
	if err := db.Create(&models.UserRole{UserID: alice.ID, RoleID: role.ID}).Error; err != nil {
		t.Fatalf("assign role: %v", err)
	}

	// Case-insensitive substring match on name or email.
	users, _, err := svc.ListUsers(ListUsersParams{Search: "ALICE"})
	if err != nil {
		t.Fatalf("ListUsers search: %v", err)
	}
	if len(users) != 1 || users[0].Email != "alice@example.com" {
		t.Errorf("search ALICE: got %+v", users)
	}

	users, _, err = svc.ListUsers(ListUsersParams{Role: "operators"})
	if err != nil {
		t.Fatalf("ListUsers role filter: %v", err)
	}
	if len(users) != 1 || users[0].ID != alice.ID {
		t.Errorf("role filter: got %+v", users)
	}

	users, _, err = svc.ListUsers(ListUsersParams{Role: "ghosts"})
	if err != nil {
		t.Fatalf("ListUsers unknown role: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("unknown role should match nobody, got %+v", users)
	}
}

func TestAuditWriteFailureDoesNotBlockMutation(t *testing.T) {
	svc, db := testSetup(t)
	actor := mustCreateUser(t, db, "Actor", "actor@example.com")

	// Force every audit insert to fail.
	if err := db.Migrator().DropTable(&models.AuditLog{}); err != nil {
		t.Fatalf("drop audit table: %v", err)
	}

	user, err := svc.CreateUser(actor.ID, CreateUserParams{
		Name: "U", Email: "u@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("CreateUser should succeed despite audit failure: %v", err)
	}
	if user.ID == 0 {
		t.Error("expected a persisted user")
	}
}
