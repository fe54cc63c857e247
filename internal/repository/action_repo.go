package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hrbackend/internal/engine"
	"hrbackend/internal/model"
)

// ActionFilter narrows List results.
type ActionFilter struct {
	CompanyID  *uuid.UUID
	EmployeeID *uuid.UUID
	ActionType string
	Status     int  // 0 for all
	Live       bool // restrict to non-terminal statuses
	Page       int
	Limit      int
}

// ActionRepository is the data access layer for personal action headers and
// their line sets.
type ActionRepository interface {
	Create(ctx context.Context, action *model.PersonalAction) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PersonalAction, error)
	List(ctx context.Context, filter ActionFilter) ([]model.PersonalAction, int64, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]model.PersonalAction, error)
	// ReplaceLines carries the same optimistic precondition as UpdateStatus:
	// the swap only happens while the header still sits at expected, so a
	// transition committed in between surfaces as a Conflict instead of lines
	// landing on a closed header.
	ReplaceLines(ctx context.Context, actionID uuid.UUID, expected int, lines []model.ActionLine, aggregate decimal.Decimal) error
	// UpdateStatus applies the optimistic precondition: the row only changes
	// when its persisted status still equals expected. A stale status is a
	// Conflict, never an overwrite.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next int, reason string) error
	CountByStatus(ctx context.Context, companyID *uuid.UUID) (map[int]int64, error)
}

type actionRepository struct {
	db *gorm.DB
}

func NewActionRepository(db *gorm.DB) ActionRepository {
	return &actionRepository{db: db}
}

func (r *actionRepository) Create(ctx context.Context, action *model.PersonalAction) error {
	return GetDB(ctx, r.db).Create(action).Error
}

func (r *actionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PersonalAction, error) {
	var action model.PersonalAction
	err := GetDB(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_order ASC") }).
		Preload("Employee").
		First(&action, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("action %s: %w", id, engine.ErrNotFound)
		}
		return nil, err
	}
	return &action, nil
}

func (r *actionRepository) List(ctx context.Context, filter ActionFilter) ([]model.PersonalAction, int64, error) {
	db := GetDB(ctx, r.db).Model(&model.PersonalAction{})
	if filter.CompanyID != nil {
		db = db.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.EmployeeID != nil {
		db = db.Where("employee_id = ?", *filter.EmployeeID)
	}
	if filter.ActionType != "" {
		db = db.Where("action_type = ?", filter.ActionType)
	}
	if filter.Status != 0 {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Live {
		db = db.Where("status < ?", model.StatusConsumed)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	var actions []model.PersonalAction
	offset := (filter.Page - 1) * filter.Limit
	if err := db.
		Preload("Employee").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&actions).Error; err != nil {
		return nil, 0, err
	}

	return actions, total, nil
}

func (r *actionRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]model.PersonalAction, error) {
	var actions []model.PersonalAction
	err := GetDB(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_order ASC") }).
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&actions).Error
	return actions, err
}

// ReplaceLines swaps the whole line set: delete plus reinsert with fresh
// order. Lines are never partially patched.
func (r *actionRepository) ReplaceLines(ctx context.Context, actionID uuid.UUID, expected int, lines []model.ActionLine, aggregate decimal.Decimal) error {
	db := GetDB(ctx, r.db)

	// Conditional header write first: it re-asserts the status under the
	// transaction before any line row is touched.
	res := db.Model(&model.PersonalAction{}).
		Where("id = ? AND status = ?", actionID, expected).
		Update("aggregate_amount", aggregate)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("status of action %s changed concurrently (expected %d): %w", actionID, expected, engine.ErrConflict)
	}

	if err := db.Where("action_id = ?", actionID).Delete(&model.ActionLine{}).Error; err != nil {
		return fmt.Errorf("failed to clear line set: %w", err)
	}
	for i := range lines {
		lines[i].ID = uuid.Nil
		lines[i].ActionID = actionID
		lines[i].Order = i + 1
	}
	if len(lines) > 0 {
		if err := db.Create(&lines).Error; err != nil {
			return fmt.Errorf("failed to insert line set: %w", err)
		}
	}
	return nil
}

func (r *actionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next int, reason string) error {
	updates := map[string]interface{}{"status": next}
	if reason != "" {
		updates["reason"] = reason
	}

	res := GetDB(ctx, r.db).Model(&model.PersonalAction{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("status of action %s changed concurrently (expected %d): %w", id, expected, engine.ErrConflict)
	}
	return nil
}

func (r *actionRepository) CountByStatus(ctx context.Context, companyID *uuid.UUID) (map[int]int64, error) {
	type row struct {
		Status int
		Total  int64
	}
	db := GetDB(ctx, r.db).Model(&model.PersonalAction{}).
		Select("status, count(*) as total").
		Group("status")
	if companyID != nil {
		db = db.Where("company_id = ?", *companyID)
	}

	var rows []row
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[int]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}
