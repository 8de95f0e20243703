package service

import (
	"github.com/opsdeck/opsdeck/internal/models"
)

// DefaultPageSize is the page size for user listings when none is supplied.
const DefaultPageSize = 10

// ListUsersParams narrows and pages a user listing.
type ListUsersParams struct {
	Page   int
	Limit  int
	Search string // case-insensitive substring match on name or email
	Role   string // restrict to accounts holding this role name
}

// CreateUserParams carries the fields for a new account.
type CreateUserParams struct {
	Name     string
	Email    string
	Password string
	RoleIDs  []uint
}

// UpdateUserParams carries a partial account update. Nil fields are left
// unchanged. A non-nil RoleIDs replaces the whole membership set, even when
// empty.
type UpdateUserParams struct {
	Name     *string
	Email    *string
	Password *string
	RoleIDs  *[]uint
}

// RoleWithMembers annotates a role with its current membership.
type RoleWithMembers struct {
	models.Role
	UserCount int                  `json:"userCount"`
	Users     []models.UserSummary `json:"users"`
}

// Summary is the point-in-time analytics snapshot. Every field is an
// independent count recomputed from scratch on each call.
type Summary struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalRoles        int64 `json:"totalRoles"`
	ActiveUsers7d     int64 `json:"activeUsers7d"`
	NewUsers7d        int64 `json:"newUsers7d"`
	RecentActivity24h int64 `json:"recentActivity24h"`
}
