package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateAction     = "CREATE_ACTION"
	ActionUpdateLines      = "UPDATE_LINES"
	ActionAdvanceStatus    = "ADVANCE_STATUS"
	ActionInvalidateAction = "INVALIDATE_ACTION"
	ActionApproveAction    = "APPROVE_ACTION"
	ActionRejectAction     = "REJECT_ACTION"
	ActionConsumeAction    = "CONSUME_ACTION"
	ActionCreateMasterData = "CREATE_MASTER_DATA"
	ActionUpdateMasterData = "UPDATE_MASTER_DATA"
	ActionDeleteMasterData = "DELETE_MASTER_DATA"
)

// AuditLog tracks Who, What, and When for every header mutation. Details holds
// the human-readable change description built by the diff recorder, so the
// trail reads as "added X, removed Y" rather than raw payload dumps.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for automated transitions
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	ActionID   *uuid.UUID `gorm:"type:uuid;index" json:"action_id"` // personal action the entry belongs to
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
