package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SuperadminRoleName is the distinguished role that grants full
// administrative access. The role cannot be renamed once created.
const SuperadminRoleName = "superadmin"

// Role represents a named permission bundle.
type Role struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	Name        string     `gorm:"uniqueIndex;not null" json:"name"`
	Permissions StringList `gorm:"type:text" json:"permissions"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// StringList stores a JSON-encoded list of free-form permission tokens in a
// single TEXT column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(data, l)
}
