package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AuditAction is the closed set of administrative action kinds.
type AuditAction string

const (
	ActionCreate     AuditAction = "CREATE"
	ActionUpdate     AuditAction = "UPDATE"
	ActionDelete     AuditAction = "DELETE"
	ActionAssignRole AuditAction = "ASSIGN_ROLE"
	ActionLogin      AuditAction = "LOGIN"
)

// Valid reports whether the action is one of the known kinds.
func (a AuditAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionAssignRole, ActionLogin:
		return true
	}
	return false
}

// AuditTarget is the closed set of audit target types.
type AuditTarget string

const (
	TargetUser   AuditTarget = "USER"
	TargetRole   AuditTarget = "ROLE"
	TargetSystem AuditTarget = "SYSTEM"
)

// Valid reports whether the target type is one of the known kinds.
func (t AuditTarget) Valid() bool {
	switch t {
	case TargetUser, TargetRole, TargetSystem:
		return true
	}
	return false
}

// SystemActorID is the sentinel actor used for entries written outside a
// request context, such as seed-time creation.
const SystemActorID uint = 0

// AuditLog is an immutable record of one administrative action. Entries are
// append-only: nothing in the codebase updates or deletes them.
type AuditLog struct {
	ID         uint        `gorm:"primarykey" json:"id"`
	ActorID    uint        `gorm:"index" json:"actorId"`
	Action     AuditAction `gorm:"not null;index" json:"action"`
	TargetType AuditTarget `gorm:"not null" json:"targetType"`
	TargetID   *uint       `json:"targetId"`
	Details    JSONMap     `gorm:"type:text" json:"details"`
	Timestamp  time.Time   `gorm:"not null;index" json:"timestamp"`
}

// JSONMap stores an open-ended structured payload as JSON in a TEXT column.
type JSONMap map[string]interface{}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		m = JSONMap{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", value)
	}
	if len(data) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}
