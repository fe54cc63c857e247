package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Capability verbs suffixing the per-type permission codes
const (
	CapabilityEdit    = "edit"
	CapabilityApprove = "approve"
	CapabilityCancel  = "cancel"
)

// CapabilityCode builds the permission code guarding a transition, e.g.
// "actions.absence.approve". Action types are stored uppercase; codes are
// always lowercase.
func CapabilityCode(actionType, verb string) string {
	return "actions." + strings.ToLower(actionType) + "." + verb
}

// Role represents a user role with associated permissions
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"` // prevent deletion of built-in roles
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission represents a single capability that can be assigned to roles
type Permission struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"` // e.g. "actions.bonus.approve"
	Name  string    `gorm:"type:varchar(255);not null" json:"name"`
	Group string    `gorm:"type:varchar(50);not null;index" json:"group"` // "actions", "master_data", "users"...
}
