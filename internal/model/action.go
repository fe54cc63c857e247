package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActionType enum constants — one per personal action variant
const (
	ActionTypeAbsence    = "ABSENCE"
	ActionTypeLicense    = "LICENSE"
	ActionTypeDisability = "DISABILITY"
	ActionTypeBonus      = "BONUS"
	ActionTypeOvertime   = "OVERTIME"
	ActionTypeRetention  = "RETENTION"
	ActionTypeDiscount   = "DISCOUNT"
	ActionTypeGeneric    = "GENERIC"
)

// Header status codes. 1-4 are live, 5-9 are terminal.
const (
	StatusDraft             = 1
	StatusPendingSupervisor = 2
	StatusPendingHR         = 3
	StatusApproved          = 4
	StatusConsumed          = 5
	StatusCancelled         = 6
	StatusInvalidated       = 7
	StatusExpired           = 8
	StatusRejected          = 9
)

// Absence line kinds
const (
	AbsenceJustified   = "JUSTIFIED"
	AbsenceUnjustified = "UNJUSTIFIED"
)

// Disability institutions
const (
	InstitutionCCSS = "CCSS"
	InstitutionINS  = "INS"
)

// ActionTypeIDs maps each action type to the personal-action-type id its
// movement templates are configured under.
var ActionTypeIDs = map[string]int{
	ActionTypeAbsence:    1,
	ActionTypeLicense:    2,
	ActionTypeDisability: 3,
	ActionTypeBonus:      4,
	ActionTypeOvertime:   5,
	ActionTypeRetention:  6,
	ActionTypeDiscount:   7,
	ActionTypeGeneric:    8,
}

// LinedActionType reports whether the type carries monetary lines. GENERIC
// actions have no lines and go through the two-outcome approve/reject flow.
func LinedActionType(actionType string) bool {
	return actionType != ActionTypeGeneric
}

// PersonalAction is the header of an HR action: one approval status covering
// one or more payroll line items. Terminal rows are kept forever for audit;
// there is no delete path.
type PersonalAction struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"company_id"`
	EmployeeID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"employee_id"`
	Employee        *Employee       `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	ActionType      string          `gorm:"type:varchar(20);not null;index" json:"action_type"`
	Status          int             `gorm:"not null;default:1;index" json:"status"`
	Description     string          `gorm:"type:text" json:"description"`
	EffectiveDate   time.Time       `gorm:"not null" json:"effective_date"`
	AggregateAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"aggregate_amount"`
	// GroupID ties together the headers fanned out from a single submission
	// that spans several payroll periods.
	GroupID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"group_id"`
	Reason    string       `gorm:"type:text" json:"reason"` // invalidation/rejection reason
	CreatedBy *uuid.UUID   `gorm:"type:uuid;index" json:"created_by"`
	Creator   *User        `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Lines     []ActionLine `gorm:"foreignKey:ActionID" json:"lines"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ActionLine is one payroll-period monetary adjustment under a header.
// The shared base columns are common to every action type; the nullable
// tail columns form the type-specific payload keyed by the header's
// ActionType (tagged union, no inheritance).
type ActionLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ActionID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"action_id"`
	PayrollRunID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"payroll_run_id"`
	MovementID    *uuid.UUID      `gorm:"type:uuid;index" json:"movement_id"`
	Quantity      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount"`
	IsCompensated bool            `gorm:"default:false" json:"is_compensated"`
	Formula       string          `gorm:"type:text" json:"formula"`
	Order         int             `gorm:"column:line_order;not null" json:"order"`
	EffectiveDate time.Time       `gorm:"not null" json:"effective_date"`

	// Type-specific payload
	AbsenceKind    *string `gorm:"type:varchar(20)" json:"absence_kind,omitempty"`    // JUSTIFIED | UNJUSTIFIED
	ShiftHours     *int    `gorm:"type:smallint" json:"shift_hours,omitempty"`        // 6 | 7 | 8
	Institution    *string `gorm:"type:varchar(10)" json:"institution,omitempty"`     // CCSS | INS
	DisabilityKind *string `gorm:"type:varchar(50)" json:"disability_kind,omitempty"` // sub-type under the institution
	LicenseKind    *string `gorm:"type:varchar(50)" json:"license_kind,omitempty"`
	BonusKind      *string `gorm:"type:varchar(50)" json:"bonus_kind,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
