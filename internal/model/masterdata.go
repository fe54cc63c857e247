package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Company is the top-level tenant for master data and payroll runs
type Company struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string         `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	TaxID     string         `gorm:"type:varchar(50)" json:"tax_id"`
	Currency  string         `gorm:"type:varchar(10);not null;default:'CRC'" json:"currency"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type Department struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Code      string    `gorm:"type:varchar(30);not null" json:"code"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Project struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Code      string    `gorm:"type:varchar(30);not null" json:"code"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AccountingAccount struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Code      string    `gorm:"type:varchar(50);not null" json:"code"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Employee carries the compensation snapshot the line calculator and the
// eligibility resolver read: base salary, currency, pay period and whether
// the contract is hourly (no fixed period salary).
type Employee struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"company_id"`
	DepartmentID     *uuid.UUID      `gorm:"type:uuid;index" json:"department_id"`
	IdentityNumber   string          `gorm:"type:varchar(30);not null;index" json:"identity_number"`
	FirstName        string          `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName         string          `gorm:"type:varchar(100);not null" json:"last_name"`
	Email            string          `gorm:"type:varchar(255)" json:"email"`
	BaseSalary       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"base_salary"`
	SalaryCurrency   string          `gorm:"type:varchar(10);not null;default:'CRC'" json:"salary_currency"`
	PayPeriodID      int             `gorm:"not null" json:"pay_period_id"`
	IsHourlySchedule bool            `gorm:"default:false" json:"is_hourly_schedule"`
	HireDate         time.Time       `json:"hire_date"`
	IsActive         bool            `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}
