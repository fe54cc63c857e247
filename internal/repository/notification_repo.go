package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrbackend/internal/model"
)

// NotificationRepository persists delivered notifications per recipient.
type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []model.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, role string, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&notifications).Error
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, role string, page, limit int) ([]model.Notification, int64, error) {
	visible := func() *gorm.DB {
		return GetDB(ctx, r.db).Model(&model.Notification{}).
			Where(
				GetDB(ctx, r.db).
					Where("scope = ? AND recipient_id = ?", model.ScopeUser, userID).
					Or("scope = ? AND recipient_id = ? AND role_name = ?", model.ScopeRole, userID, role).
					Or("scope = ?", model.ScopeGlobal),
			)
	}

	var total int64
	if err := visible().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.Notification
	offset := (page - 1) * limit
	if err := visible().Order("created_at desc").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	now := time.Now()
	return GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ?", id, userID).
		Update("read_at", now).Error
}
