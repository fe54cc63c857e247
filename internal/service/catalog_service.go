package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hrbackend/internal/engine"
	"hrbackend/internal/model"
	"hrbackend/internal/repository"
)

// --- DTOs ---

type CreatePayrollRunRequest struct {
	CompanyID   string `json:"company_id" binding:"required"`
	Code        string `json:"code" binding:"required"`
	PayPeriodID int    `json:"pay_period_id" binding:"required,min=8,max=15"`
	Currency    string `json:"currency" binding:"required"`
	PeriodStart string `json:"period_start" binding:"required"` // YYYY-MM-DD
	PeriodEnd   string `json:"period_end" binding:"required"`   // YYYY-MM-DD
}

type CreateMovementRequest struct {
	Code                 string `json:"code" binding:"required"`
	Name                 string `json:"name" binding:"required"`
	IsFixedAmount        bool   `json:"is_fixed_amount"`
	FixedAmount          string `json:"fixed_amount"` // raw monetary input, sanitized
	Percentage           string `json:"percentage"`   // percent points, e.g. "150" for 150%
	PersonalActionTypeID int    `json:"personal_action_type_id" binding:"required,min=1,max=8"`
}

type UpdateMovementRequest struct {
	Name       string `json:"name"`
	IsInactive *bool  `json:"is_inactive"`
}

// --- Interface ---

// CatalogService manages the two catalogs lines reference: payroll runs and
// movement templates. Runs move OPEN -> CLOSED -> APPLIED; only OPEN runs
// accept new lines.
type CatalogService interface {
	ListRuns(ctx context.Context, companyID uuid.UUID) ([]model.PayrollRun, error)
	CreateRun(ctx context.Context, actorID uuid.UUID, req CreatePayrollRunRequest) (*model.PayrollRun, error)
	CloseRun(ctx context.Context, actorID, id uuid.UUID) error
	MarkRunApplied(ctx context.Context, actorID, id uuid.UUID) error

	ListMovements(ctx context.Context) ([]model.Movement, error)
	CreateMovement(ctx context.Context, actorID uuid.UUID, req CreateMovementRequest) (*model.Movement, error)
	UpdateMovement(ctx context.Context, actorID, id uuid.UUID, req UpdateMovementRequest) (*model.Movement, error)
}

type catalogService struct {
	payrollRepo repository.PayrollRepository
	auditSvc    AuditService
	txManager   repository.TransactionManager
}

func NewCatalogService(payrollRepo repository.PayrollRepository, auditSvc AuditService, txManager repository.TransactionManager) CatalogService {
	return &catalogService{payrollRepo: payrollRepo, auditSvc: auditSvc, txManager: txManager}
}

// --- Implementation ---

func (s *catalogService) ListRuns(ctx context.Context, companyID uuid.UUID) ([]model.PayrollRun, error) {
	return s.payrollRepo.ListRuns(ctx, companyID)
}

func (s *catalogService) CreateRun(ctx context.Context, actorID uuid.UUID, req CreatePayrollRunRequest) (*model.PayrollRun, error) {
	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		return nil, errors.New("invalid company id")
	}
	periodStart, err := time.Parse("2006-01-02", req.PeriodStart)
	if err != nil {
		return nil, errors.New("period start must be YYYY-MM-DD")
	}
	periodEnd, err := time.Parse("2006-01-02", req.PeriodEnd)
	if err != nil {
		return nil, errors.New("period end must be YYYY-MM-DD")
	}
	if !periodEnd.After(periodStart) {
		return nil, errors.New("period end must be after period start")
	}

	run := model.PayrollRun{
		CompanyID:     companyID,
		Code:          req.Code,
		Status:        model.PayrollRunOpen,
		PayPeriodID:   req.PayPeriodID,
		Currency:      req.Currency,
		PeriodStart:   periodStart,
		PeriodEndDate: periodEnd,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.payrollRepo.CreateRun(txCtx, &run); err != nil {
			return fmt.Errorf("failed to create payroll run: %w", err)
		}
		actor := actorID
		_, err := s.auditSvc.RecordChange(txCtx, ChangeRecord{
			UserID:      &actor,
			Action:      model.ActionCreateMasterData,
			EntityName:  "payroll run",
			Description: req.Code + " " + req.Currency,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *catalogService) CloseRun(ctx context.Context, actorID, id uuid.UUID) error {
	return s.moveRun(ctx, actorID, id, model.PayrollRunOpen, model.PayrollRunClosed)
}

func (s *catalogService) MarkRunApplied(ctx context.Context, actorID, id uuid.UUID) error {
	return s.moveRun(ctx, actorID, id, model.PayrollRunClosed, model.PayrollRunApplied)
}

func (s *catalogService) moveRun(ctx context.Context, actorID, id uuid.UUID, from, to string) error {
	run, err := s.payrollRepo.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if run.Status != from {
		return fmt.Errorf("payroll run %s is %s, not %s: %w", run.Code, run.Status, from, engine.ErrConflict)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.payrollRepo.UpdateRunStatus(txCtx, id, to); err != nil {
			return err
		}
		actor := actorID
		_, err := s.auditSvc.RecordChange(txCtx, ChangeRecord{
			UserID:      &actor,
			Action:      model.ActionUpdateMasterData,
			EntityName:  "payroll run",
			Description: run.Code + " " + from + "→" + to,
		})
		return err
	})
}

func (s *catalogService) ListMovements(ctx context.Context) ([]model.Movement, error) {
	return s.payrollRepo.ListMovements(ctx)
}

func (s *catalogService) CreateMovement(ctx context.Context, actorID uuid.UUID, req CreateMovementRequest) (*model.Movement, error) {
	movement := model.Movement{
		Code:                 req.Code,
		Name:                 req.Name,
		IsFixedAmount:        req.IsFixedAmount,
		PersonalActionTypeID: req.PersonalActionTypeID,
	}

	if req.IsFixedAmount {
		movement.FixedAmount = engine.SanitizeAmount(req.FixedAmount)
		if movement.FixedAmount.IsZero() {
			return nil, errors.New("fixed amount movements need a non-zero amount")
		}
	} else if req.Percentage != "" {
		percentage, err := decimal.NewFromString(req.Percentage)
		if err != nil || percentage.IsNegative() {
			return nil, errors.New("invalid percentage")
		}
		movement.Percentage = percentage
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.payrollRepo.CreateMovement(txCtx, &movement); err != nil {
			return fmt.Errorf("failed to create movement: %w", err)
		}
		actor := actorID
		_, err := s.auditSvc.RecordChange(txCtx, ChangeRecord{
			UserID:      &actor,
			Action:      model.ActionCreateMasterData,
			EntityName:  "movement",
			Description: req.Code + " " + req.Name,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

func (s *catalogService) UpdateMovement(ctx context.Context, actorID, id uuid.UUID, req UpdateMovementRequest) (*model.Movement, error) {
	movement, err := s.payrollRepo.GetMovement(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		movement.Name = req.Name
	}
	if req.IsInactive != nil {
		// Deactivation never touches existing lines, it only drops the
		// template from future eligibility.
		movement.IsInactive = *req.IsInactive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.payrollRepo.UpdateMovement(txCtx, movement); err != nil {
			return fmt.Errorf("failed to update movement: %w", err)
		}
		actor := actorID
		_, err := s.auditSvc.RecordChange(txCtx, ChangeRecord{
			UserID:      &actor,
			Action:      model.ActionUpdateMasterData,
			EntityName:  "movement",
			Description: movement.Code + " " + movement.Name,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}
