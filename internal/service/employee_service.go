package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hrbackend/internal/engine"
	"hrbackend/internal/model"
	"hrbackend/internal/repository"
)

// --- DTOs ---

type CreateEmployeeRequest struct {
	CompanyID        string `json:"company_id" binding:"required"`
	DepartmentID     string `json:"department_id"`
	IdentityNumber   string `json:"identity_number" binding:"required"`
	FirstName        string `json:"first_name" binding:"required"`
	LastName         string `json:"last_name" binding:"required"`
	Email            string `json:"email" binding:"omitempty,email"`
	BaseSalary       string `json:"base_salary" binding:"required"`
	SalaryCurrency   string `json:"salary_currency" binding:"required"`
	PayPeriodID      int    `json:"pay_period_id" binding:"required,min=8,max=15"`
	IsHourlySchedule bool   `json:"is_hourly_schedule"`
	HireDate         string `json:"hire_date"` // YYYY-MM-DD
}

type UpdateEmployeeRequest struct {
	DepartmentID     string `json:"department_id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email" binding:"omitempty,email"`
	BaseSalary       string `json:"base_salary"`
	SalaryCurrency   string `json:"salary_currency"`
	PayPeriodID      int    `json:"pay_period_id" binding:"omitempty,min=8,max=15"`
	IsHourlySchedule *bool  `json:"is_hourly_schedule"`
	IsActive         *bool  `json:"is_active"`
}

// CompensationResponse is the salary snapshot the line calculator works from,
// pre-resolved for the employee's pay period.
type CompensationResponse struct {
	EmployeeID       string `json:"employee_id"`
	BaseSalary       string `json:"base_salary"`
	SalaryCurrency   string `json:"salary_currency"`
	PayPeriodID      int    `json:"pay_period_id"`
	IsHourlySchedule bool   `json:"is_hourly_schedule"`
	SalaryPerPeriod  string `json:"salary_per_period"`
	PeriodHours      int    `json:"period_hours"`
}

// --- Interface ---

type EmployeeService interface {
	Create(ctx context.Context, actorID uuid.UUID, req CreateEmployeeRequest) (*model.Employee, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Employee, error)
	List(ctx context.Context, companyID *uuid.UUID, page, limit int) ([]model.Employee, int64, error)
	Update(ctx context.Context, actorID, id uuid.UUID, req UpdateEmployeeRequest) (*model.Employee, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	GetCompensation(ctx context.Context, id uuid.UUID) (*CompensationResponse, error)
}

type employeeService struct {
	repo      repository.EmployeeRepository
	actions   repository.ActionRepository
	auditSvc  AuditService
	txManager repository.TransactionManager
}

func NewEmployeeService(repo repository.EmployeeRepository, actions repository.ActionRepository, auditSvc AuditService, txManager repository.TransactionManager) EmployeeService {
	return &employeeService{repo: repo, actions: actions, auditSvc: auditSvc, txManager: txManager}
}

// --- Implementation ---

func (s *employeeService) Create(ctx context.Context, actorID uuid.UUID, req CreateEmployeeRequest) (*model.Employee, error) {
	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		return nil, errors.New("invalid company id")
	}

	baseSalary := engine.SanitizeAmount(req.BaseSalary)
	if baseSalary.IsZero() {
		return nil, errors.New("invalid base salary")
	}

	employee := model.Employee{
		CompanyID:        companyID,
		IdentityNumber:   req.IdentityNumber,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		BaseSalary:       baseSalary,
		SalaryCurrency:   req.SalaryCurrency,
		PayPeriodID:      req.PayPeriodID,
		IsHourlySchedule: req.IsHourlySchedule,
		IsActive:         true,
	}
	if req.DepartmentID != "" {
		departmentID, err := uuid.Parse(req.DepartmentID)
		if err != nil {
			return nil, errors.New("invalid department id")
		}
		employee.DepartmentID = &departmentID
	}
	if req.HireDate != "" {
		hireDate, err := time.Parse("2006-01-02", req.HireDate)
		if err != nil {
			return nil, errors.New("hire date must be YYYY-MM-DD")
		}
		employee.HireDate = hireDate
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, &employee); err != nil {
			return fmt.Errorf("failed to create employee: %w", err)
		}
		actor := actorID
		_, err := s.auditSvc.RecordChange(txCtx, ChangeRecord{
			UserID:      &actor,
			Action:      model.ActionCreateMasterData,
			EntityName:  "employee",
			Description: req.IdentityNumber + " " + req.FirstName + " " + req.LastName,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (s *employeeService) GetByID(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *employeeService) List(ctx context.Context, companyID *uuid.UUID, page, limit int) ([]model.Employee, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return s.repo.List(ctx, companyID, page, limit)
}

func (s *employeeService) Update(ctx context.Context, actorID, id uuid.UUID, req UpdateEmployeeRequest) (*model.Employee, error) {
	employee, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DepartmentID != "" {
		departmentID, err := uuid.Parse(req.DepartmentID)
		if err != nil {
			return nil, errors.New("invalid department id")
		}
		employee.DepartmentID = &departmentID
	}
	if req.FirstName != "" {
		employee.FirstName = req.FirstName
	}
	if req.LastName != "" {
		employee.LastName = req.LastName
	}
	if req.Email != "" {
		employee.Email = req.Email
	}
	if req.BaseSalary != "" {
		baseSalary := engine.SanitizeAmount(req.BaseSalary)
		if baseSalary.IsZero() {
			return nil, errors.New("invalid base salary")
		}
		employee.BaseSalary = baseSalary
	}
	if req.SalaryCurrency != "" {
		employee.SalaryCurrency = req.SalaryCurrency
	}
	if req.PayPeriodID != 0 {
		employee.PayPeriodID = req.PayPeriodID
	}
	if req.IsHourlySchedule != nil {
		employee.IsHourlySchedule = *req.IsHourlySchedule
	}
	if req.IsActive != nil {
		employee.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, employee); err != nil {
			return fmt.Errorf("failed to update employee: %w", err)
		}
		actor := actorID
		_, err := s.auditSvc.RecordChange(txCtx, ChangeRecord{
			UserID:      &actor,
			Action:      model.ActionUpdateMasterData,
			EntityName:  "employee",
			Description: employee.IdentityNumber + " " + employee.FirstName + " " + employee.LastName,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *employeeService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	employee, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// An employee with live actions cannot be removed; resolve the actions
	// first.
	pending, _, err := s.actions.List(ctx, repository.ActionFilter{EmployeeID: &id, Live: true, Page: 1, Limit: 1})
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return fmt.Errorf("employee has unresolved personal actions: %w", engine.ErrConflict)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete employee: %w", err)
		}
		actor := actorID
		_, err := s.auditSvc.RecordChange(txCtx, ChangeRecord{
			UserID:      &actor,
			Action:      model.ActionDeleteMasterData,
			EntityName:  "employee",
			Description: employee.IdentityNumber + " " + employee.FirstName + " " + employee.LastName,
		})
		return err
	})
}

func (s *employeeService) GetCompensation(ctx context.Context, id uuid.UUID) (*CompensationResponse, error) {
	employee, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	comp := engine.Compensation{
		BaseSalary:       employee.BaseSalary,
		SalaryCurrency:   employee.SalaryCurrency,
		PayPeriodID:      employee.PayPeriodID,
		IsHourlySchedule: employee.IsHourlySchedule,
	}

	return &CompensationResponse{
		EmployeeID:       employee.ID.String(),
		BaseSalary:       employee.BaseSalary.StringFixed(2),
		SalaryCurrency:   employee.SalaryCurrency,
		PayPeriodID:      employee.PayPeriodID,
		IsHourlySchedule: employee.IsHourlySchedule,
		SalaryPerPeriod:  engine.SalaryPerPeriod(comp.BaseSalary, comp.PayPeriodID, comp.IsHourlySchedule).StringFixed(2),
		PeriodHours:      engine.PeriodHours(comp.PayPeriodID, comp.IsHourlySchedule),
	}, nil
}
