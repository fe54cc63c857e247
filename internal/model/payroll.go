package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayrollRun status constants
const (
	PayrollRunOpen    = "OPEN"
	PayrollRunClosed  = "CLOSED"
	PayrollRunApplied = "APPLIED"
)

// Pay period ids. 8 and 11 double as "per-hour" contracts when the employee
// has an hourly schedule.
const (
	PayPeriodWeekly    = 8
	PayPeriodBiweekly  = 9
	PayPeriodMonthly   = 10
	PayPeriodFortnight = 11
	PayPeriodDaily     = 12
	PayPeriodQuarterly = 13
	PayPeriodSemester  = 14
	PayPeriodAnnual    = 15
)

// PayrollRun is one instance of a payroll period lines are scheduled against
type PayrollRun struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID     uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Code          string    `gorm:"type:varchar(30);not null" json:"code"`
	Status        string    `gorm:"type:varchar(20);not null;default:'OPEN';index" json:"status"`
	PayPeriodID   int       `gorm:"not null;index" json:"pay_period_id"`
	Currency      string    `gorm:"type:varchar(10);not null" json:"currency"`
	PeriodStart   time.Time `gorm:"not null" json:"period_start"`
	PeriodEndDate time.Time `gorm:"not null" json:"period_end_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Movement is a catalog template describing how a line amount is computed:
// either a fixed amount per unit or a percentage over the employee's rate.
type Movement struct {
	ID                   uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code                 string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	Name                 string          `gorm:"type:varchar(255);not null" json:"name"`
	IsFixedAmount        bool            `gorm:"default:false" json:"is_fixed_amount"`
	FixedAmount          decimal.Decimal `gorm:"type:decimal(18,2);default:0" json:"fixed_amount"`
	Percentage           decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"percentage"`
	PersonalActionTypeID int             `gorm:"not null;index" json:"personal_action_type_id"`
	IsInactive           bool            `gorm:"default:false" json:"is_inactive"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}
