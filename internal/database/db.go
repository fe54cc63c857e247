package database

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"hrbackend/internal/model"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.Company{},
		&model.Department{},
		&model.Project{},
		&model.AccountingAccount{},
		&model.Employee{},
		&model.PayrollRun{},
		&model.Movement{},
		&model.PersonalAction{},
		&model.ActionLine{},
		&model.AuditLog{},
		&model.Notification{},
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to auto-migrate models")
	}

	return db, nil
}

// permissionSpec describes one seeded permission and which roles carry it
type permissionSpec struct {
	code  string
	name  string
	group string
	roles []string
}

// SeedRBAC inserts the built-in roles and permission catalog if missing. The
// admin role carries no explicit grants; it bypasses every check.
func SeedRBAC(db *gorm.DB) error {
	roles := map[string]string{
		"admin":      "Full access",
		"hr":         "HR staff: second approval stage and master data",
		"supervisor": "First approval stage for their reports",
		"employee":   "Submits own personal actions",
	}

	roleIDs := make(map[string]model.Role, len(roles))
	for name, description := range roles {
		var role model.Role
		err := db.Where("name = ?", name).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role = model.Role{Name: name, Description: description, IsSystem: true}
			if err := db.Create(&role).Error; err != nil {
				return fmt.Errorf("failed to seed role %s: %w", name, err)
			}
		} else if err != nil {
			return err
		}
		roleIDs[name] = role
	}

	specs := []permissionSpec{
		{"users.read", "View accounts", "users", []string{"hr"}},
		{"users.write", "Manage accounts", "users", nil},
		{"users.delete", "Remove accounts", "users", nil},
		{"masterdata.write", "Manage master data", "master_data", []string{"hr"}},
		{"masterdata.delete", "Remove master data", "master_data", []string{"hr"}},
		{"employees.write", "Manage employees", "master_data", []string{"hr"}},
		{"employees.delete", "Remove employees", "master_data", nil},
		{"payroll.write", "Manage payroll runs", "payroll", []string{"hr"}},
		{"payroll.apply", "Apply payroll results", "payroll", []string{"hr"}},
	}

	// Per-action-type transition capabilities. Employees may edit, supervisors
	// and HR additionally approve and cancel.
	for actionType := range model.ActionTypeIDs {
		specs = append(specs,
			permissionSpec{model.CapabilityCode(actionType, model.CapabilityEdit), "Edit " + actionType + " actions", "actions", []string{"hr", "supervisor", "employee"}},
			permissionSpec{model.CapabilityCode(actionType, model.CapabilityApprove), "Approve " + actionType + " actions", "actions", []string{"hr", "supervisor"}},
			permissionSpec{model.CapabilityCode(actionType, model.CapabilityCancel), "Cancel " + actionType + " actions", "actions", []string{"hr", "supervisor"}},
		)
	}

	for _, spec := range specs {
		var permission model.Permission
		err := db.Where("code = ?", spec.code).First(&permission).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			permission = model.Permission{Code: spec.code, Name: spec.name, Group: spec.group}
			if err := db.Create(&permission).Error; err != nil {
				return fmt.Errorf("failed to seed permission %s: %w", spec.code, err)
			}
		} else if err != nil {
			return err
		}

		for _, roleName := range spec.roles {
			role := roleIDs[roleName]
			if err := db.Model(&role).Association("Permissions").Append(&permission); err != nil {
				return fmt.Errorf("failed to grant %s to %s: %w", spec.code, roleName, err)
			}
		}
	}

	return nil
}
