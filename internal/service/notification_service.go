package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hrbackend/internal/model"
	"hrbackend/internal/repository"
)

// Broadcaster pushes a message to every connected client. Satisfied by the
// websocket hub; faked in tests.
type Broadcaster interface {
	Broadcast(message []byte)
}

// Dispatch is one outgoing notification. Recipients applies to USER scope,
// RoleName to ROLE scope; GLOBAL ignores both.
type Dispatch struct {
	Type       string      `json:"type"`
	Title      string      `json:"title"`
	Message    string      `json:"message"`
	Scope      string      `json:"scope"`
	Recipients []uuid.UUID `json:"recipients,omitempty"`
	RoleName   string      `json:"role_name,omitempty"`
}

type NotificationResponse struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Message   string  `json:"message"`
	Scope     string  `json:"scope"`
	ReadAt    *string `json:"read_at"`
	CreatedAt string  `json:"created_at"`
}

// NotificationService persists one row per resolved recipient and mirrors the
// dispatch over the websocket hub. Dispatch returns the receipt count.
type NotificationService interface {
	Dispatch(ctx context.Context, d Dispatch) (int, error)
	ListForUser(ctx context.Context, userID uuid.UUID, role string, page, limit int) ([]NotificationResponse, int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	hub              Broadcaster
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	hub Broadcaster,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		hub:              hub,
	}
}

func (s *notificationService) Dispatch(ctx context.Context, d Dispatch) (int, error) {
	var rows []model.Notification

	switch d.Scope {
	case model.ScopeUser:
		for _, recipient := range d.Recipients {
			id := recipient
			rows = append(rows, model.Notification{
				Type: d.Type, Title: d.Title, Message: d.Message,
				Scope: model.ScopeUser, RecipientID: &id,
			})
		}
	case model.ScopeRole:
		users, err := s.userRepo.ListByRole(ctx, d.RoleName)
		if err != nil {
			return 0, fmt.Errorf("failed to resolve role recipients: %w", err)
		}
		role := d.RoleName
		for _, u := range users {
			id := u.ID
			rows = append(rows, model.Notification{
				Type: d.Type, Title: d.Title, Message: d.Message,
				Scope: model.ScopeRole, RecipientID: &id, RoleName: &role,
			})
		}
	case model.ScopeGlobal:
		rows = append(rows, model.Notification{
			Type: d.Type, Title: d.Title, Message: d.Message,
			Scope: model.ScopeGlobal,
		})
	default:
		return 0, fmt.Errorf("unknown notification scope: %s", d.Scope)
	}

	if err := s.notificationRepo.CreateBatch(ctx, rows); err != nil {
		return 0, fmt.Errorf("failed to persist notifications: %w", err)
	}

	if s.hub != nil {
		payload, err := json.Marshal(d)
		if err == nil {
			s.hub.Broadcast(payload)
		} else {
			log.Warn().Err(err).Str("type", d.Type).Msg("notification broadcast skipped")
		}
	}

	return len(rows), nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID uuid.UUID, role string, page, limit int) ([]NotificationResponse, int64, error) {
	rows, total, err := s.notificationRepo.ListForUser(ctx, userID, role, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]NotificationResponse, 0, len(rows))
	for _, n := range rows {
		item := NotificationResponse{
			ID:        n.ID.String(),
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Scope:     n.Scope,
			CreatedAt: n.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if n.ReadAt != nil {
			read := n.ReadAt.Format("2006-01-02 15:04:05")
			item.ReadAt = &read
		}
		res = append(res, item)
	}
	return res, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}
