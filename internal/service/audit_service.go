package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hrbackend/internal/model"
	"hrbackend/internal/repository"
)

// Audit trail paging: callers get 200 rows unless they ask for more, and
// never more than 500.
const (
	defaultTrailLimit = 200
	maxTrailLimit     = 500
)

// ChangeRecord is one header mutation handed to the recorder. Description is
// the deterministic change text (a diff rendering or a status edge); when it
// is empty the mutation changed nothing and the recorder writes no audit row
// and dispatches no notification — a strict idempotence rule, not an
// optimization.
type ChangeRecord struct {
	UserID      *uuid.UUID
	Action      string
	ActionID    uuid.UUID
	EntityName  string
	Description string

	// Notification targeting. Scope empty means no notification even when an
	// audit row is written.
	NotifyScope      string
	NotifyRecipients []uuid.UUID
	NotifyRole       string
}

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	ActionID   string `json:"action_id"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

// AuditService is the audit recorder: it turns mutations into human-readable
// change log rows and drives the notification for affected users. Every
// header mutation goes through RecordChange before it is considered complete.
type AuditService interface {
	RecordChange(ctx context.Context, rec ChangeRecord) (bool, error)
	GetTrail(ctx context.Context, actionID *uuid.UUID, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
	notifier  NotificationService
}

func NewAuditService(auditRepo repository.AuditRepository, notifier NotificationService) AuditService {
	return &auditService{auditRepo: auditRepo, notifier: notifier}
}

// RecordChange writes the audit row inside the caller's transaction context
// and dispatches the notification. Returns false when the description was
// empty and nothing was recorded.
func (s *auditService) RecordChange(ctx context.Context, rec ChangeRecord) (bool, error) {
	if rec.Description == "" {
		return false, nil
	}

	entry := model.AuditLog{
		UserID:     rec.UserID,
		Action:     rec.Action,
		EntityName: rec.EntityName,
		Details:    rec.Description,
	}
	if rec.ActionID != uuid.Nil {
		actionID := rec.ActionID
		entry.ActionID = &actionID
		entry.EntityID = actionID.String()
	}
	if err := s.auditRepo.Log(ctx, &entry); err != nil {
		return false, fmt.Errorf("failed to write audit log: %w", err)
	}

	if rec.NotifyScope != "" {
		receipts, err := s.notifier.Dispatch(ctx, Dispatch{
			Type:       notificationType(rec.Action),
			Title:      rec.EntityName,
			Message:    rec.Description,
			Scope:      rec.NotifyScope,
			Recipients: rec.NotifyRecipients,
			RoleName:   rec.NotifyRole,
		})
		if err != nil {
			return false, err
		}
		log.Debug().Str("action", rec.Action).Int("receipts", receipts).Msg("audit notification dispatched")
	}

	return true, nil
}

func notificationType(auditAction string) string {
	switch auditAction {
	case model.ActionCreateAction, model.ActionUpdateLines:
		return model.NotifyActionChanged
	default:
		return model.NotifyActionTransition
	}
}

func (s *auditService) GetTrail(ctx context.Context, actionID *uuid.UUID, page, limit int) ([]AuditLogResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultTrailLimit
	}
	if limit > maxTrailLimit {
		limit = maxTrailLimit
	}

	logs, total, err := s.auditRepo.List(ctx, actionID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := "System"
		userID := ""
		if l.User != nil {
			username = l.User.Username
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}
		entryActionID := ""
		if l.ActionID != nil {
			entryActionID = l.ActionID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			Username:   username,
			Action:     l.Action,
			ActionID:   entryActionID,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
