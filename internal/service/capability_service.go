package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CapabilityEvaluator answers whether an actor holds one capability code.
// The state machine consumes the yes/no; it never sees how the decision is
// made.
type CapabilityEvaluator interface {
	HasCapability(ctx context.Context, actorID uuid.UUID, code string) (bool, error)
}

type capEntry struct {
	codes     map[string]bool
	role      string
	expiresAt time.Time
}

type capabilityService struct {
	db    *gorm.DB
	cache sync.Map // actorID string -> capEntry
	ttl   time.Duration
}

// NewCapabilityService builds the role→permission evaluator. Lookups are
// cached per actor with a short TTL so a transition costs at most one query.
func NewCapabilityService(db *gorm.DB) CapabilityEvaluator {
	return &capabilityService{db: db, ttl: 5 * time.Minute}
}

func (s *capabilityService) HasCapability(ctx context.Context, actorID uuid.UUID, code string) (bool, error) {
	entry, err := s.load(ctx, actorID)
	if err != nil {
		return false, err
	}
	// admin is the built-in superuser role
	if entry.role == "admin" {
		return true, nil
	}
	return entry.codes[code], nil
}

func (s *capabilityService) load(ctx context.Context, actorID uuid.UUID) (capEntry, error) {
	key := actorID.String()
	if cached, ok := s.cache.Load(key); ok {
		entry := cached.(capEntry)
		if time.Now().Before(entry.expiresAt) {
			return entry, nil
		}
	}

	var role string
	if err := s.db.WithContext(ctx).
		Raw("SELECT role FROM users WHERE id = ?", actorID).
		Scan(&role).Error; err != nil {
		return capEntry{}, fmt.Errorf("failed to resolve actor role: %w", err)
	}

	var codes []string
	err := s.db.WithContext(ctx).Raw(`
		SELECT p.code FROM permissions p
		INNER JOIN role_permissions rp ON rp.permission_id = p.id
		INNER JOIN roles r ON r.id = rp.role_id
		WHERE r.name = ?
	`, role).Pluck("code", &codes).Error
	if err != nil {
		return capEntry{}, fmt.Errorf("failed to load capabilities: %w", err)
	}

	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}

	entry := capEntry{codes: set, role: role, expiresAt: time.Now().Add(s.ttl)}
	s.cache.Store(key, entry)
	return entry, nil
}
