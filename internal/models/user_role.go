package models

// UserRole is the join entity linking users to roles. It is modeled
// explicitly so the (user, role) pair carries its own primary-key
// uniqueness constraint rather than existing only as an implicit
// association table.
type UserRole struct {
	UserID uint `gorm:"primaryKey" json:"userId"`
	RoleID uint `gorm:"primaryKey" json:"roleId"`
}

// TableName keeps the join table name aligned with the many2many tag on User.
func (UserRole) TableName() string {
	return "user_roles"
}
