package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrbackend/internal/engine"
	"hrbackend/internal/model"
)

// PayrollRepository serves the payroll run and movement catalogs the
// eligibility resolver and the calculator read.
type PayrollRepository interface {
	ListRuns(ctx context.Context, companyID uuid.UUID) ([]model.PayrollRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (*model.PayrollRun, error)
	CreateRun(ctx context.Context, run *model.PayrollRun) error
	UpdateRunStatus(ctx context.Context, id uuid.UUID, status string) error

	ListMovements(ctx context.Context) ([]model.Movement, error)
	GetMovement(ctx context.Context, id uuid.UUID) (*model.Movement, error)
	CreateMovement(ctx context.Context, mv *model.Movement) error
	UpdateMovement(ctx context.Context, mv *model.Movement) error
}

type payrollRepository struct {
	db *gorm.DB
}

func NewPayrollRepository(db *gorm.DB) PayrollRepository {
	return &payrollRepository{db: db}
}

func (r *payrollRepository) ListRuns(ctx context.Context, companyID uuid.UUID) ([]model.PayrollRun, error) {
	var runs []model.PayrollRun
	err := GetDB(ctx, r.db).
		Where("company_id = ?", companyID).
		Order("period_end_date ASC").
		Find(&runs).Error
	return runs, err
}

func (r *payrollRepository) GetRun(ctx context.Context, id uuid.UUID) (*model.PayrollRun, error) {
	var run model.PayrollRun
	if err := GetDB(ctx, r.db).First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payroll run %s: %w", id, engine.ErrNotFound)
		}
		return nil, err
	}
	return &run, nil
}

func (r *payrollRepository) CreateRun(ctx context.Context, run *model.PayrollRun) error {
	return GetDB(ctx, r.db).Create(run).Error
}

func (r *payrollRepository) UpdateRunStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := GetDB(ctx, r.db).Model(&model.PayrollRun{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("payroll run %s: %w", id, engine.ErrNotFound)
	}
	return nil
}

func (r *payrollRepository) ListMovements(ctx context.Context) ([]model.Movement, error) {
	var movements []model.Movement
	err := GetDB(ctx, r.db).Order("code ASC").Find(&movements).Error
	return movements, err
}

func (r *payrollRepository) GetMovement(ctx context.Context, id uuid.UUID) (*model.Movement, error) {
	var mv model.Movement
	if err := GetDB(ctx, r.db).First(&mv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("movement %s: %w", id, engine.ErrNotFound)
		}
		return nil, err
	}
	return &mv, nil
}

func (r *payrollRepository) CreateMovement(ctx context.Context, mv *model.Movement) error {
	return GetDB(ctx, r.db).Create(mv).Error
}

func (r *payrollRepository) UpdateMovement(ctx context.Context, mv *model.Movement) error {
	return GetDB(ctx, r.db).Save(mv).Error
}
