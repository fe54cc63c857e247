package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification scope constants
const (
	ScopeUser   = "USER"
	ScopeRole   = "ROLE"
	ScopeGlobal = "GLOBAL"
)

// Notification types
const (
	NotifyActionChanged    = "ACTION_CHANGED"
	NotifyActionTransition = "ACTION_TRANSITION"
)

// Notification is one delivered message. USER scope rows carry RecipientID,
// ROLE scope rows carry RoleName, GLOBAL rows carry neither.
type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Type        string     `gorm:"type:varchar(30);not null;index" json:"type"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Message     string     `gorm:"type:text;not null" json:"message"`
	Scope       string     `gorm:"type:varchar(10);not null" json:"scope"`
	RecipientID *uuid.UUID `gorm:"type:uuid;index" json:"recipient_id"`
	RoleName    *string    `gorm:"type:varchar(50)" json:"role_name"`
	ReadAt      *time.Time `json:"read_at"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}
