package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrbackend/internal/model"
)

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, actionID *uuid.UUID, _, _ int) ([]model.AuditLog, int64, error) {
	if actionID == nil {
		return f.entries, int64(len(f.entries)), nil
	}
	var out []model.AuditLog
	for _, e := range f.entries {
		if e.ActionID != nil && *e.ActionID == *actionID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

type fakeNotifier struct {
	dispatches []Dispatch
}

func (f *fakeNotifier) Dispatch(_ context.Context, d Dispatch) (int, error) {
	f.dispatches = append(f.dispatches, d)
	return 1, nil
}

func (f *fakeNotifier) ListForUser(_ context.Context, _ uuid.UUID, _ string, _, _ int) ([]NotificationResponse, int64, error) {
	return nil, 0, nil
}

func (f *fakeNotifier) MarkRead(_ context.Context, _, _ uuid.UUID) error { return nil }

func TestRecordChangeEmptyDescriptionRecordsNothing(t *testing.T) {
	repo := &fakeAuditRepo{}
	notifier := &fakeNotifier{}
	svc := NewAuditService(repo, notifier)

	actor := uuid.New()
	recorded, err := svc.RecordChange(context.Background(), ChangeRecord{
		UserID:      &actor,
		Action:      model.ActionUpdateLines,
		ActionID:    uuid.New(),
		EntityName:  "ABSENCE action",
		Description: "",
		NotifyScope: model.ScopeGlobal,
	})
	require.NoError(t, err)

	assert.False(t, recorded)
	assert.Empty(t, repo.entries, "no audit row for an empty change")
	assert.Empty(t, notifier.dispatches, "no notification for an empty change")
}

func TestRecordChangeWritesRowAndNotifies(t *testing.T) {
	repo := &fakeAuditRepo{}
	notifier := &fakeNotifier{}
	svc := NewAuditService(repo, notifier)

	actor := uuid.New()
	actionID := uuid.New()
	recorded, err := svc.RecordChange(context.Background(), ChangeRecord{
		UserID:      &actor,
		Action:      model.ActionAdvanceStatus,
		ActionID:    actionID,
		EntityName:  "ABSENCE action",
		Description: "status 2→3 (Pending Supervisor → Pending HR)",
		NotifyScope: model.ScopeRole,
		NotifyRole:  "hr",
	})
	require.NoError(t, err)
	assert.True(t, recorded)

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, model.ActionAdvanceStatus, entry.Action)
	require.NotNil(t, entry.ActionID)
	assert.Equal(t, actionID, *entry.ActionID)
	assert.Contains(t, entry.Details, "2→3")

	require.Len(t, notifier.dispatches, 1)
	assert.Equal(t, model.NotifyActionTransition, notifier.dispatches[0].Type)
	assert.Equal(t, model.ScopeRole, notifier.dispatches[0].Scope)
	assert.Equal(t, "hr", notifier.dispatches[0].RoleName)
}

func TestRecordChangeWithoutScopeSkipsNotification(t *testing.T) {
	repo := &fakeAuditRepo{}
	notifier := &fakeNotifier{}
	svc := NewAuditService(repo, notifier)

	actor := uuid.New()
	recorded, err := svc.RecordChange(context.Background(), ChangeRecord{
		UserID:      &actor,
		Action:      model.ActionCreateMasterData,
		EntityName:  "department",
		Description: "FIN Finance",
	})
	require.NoError(t, err)
	assert.True(t, recorded)
	assert.Len(t, repo.entries, 1)
	assert.Empty(t, notifier.dispatches)
}

func TestGetTrailCapsLimit(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewAuditService(repo, &fakeNotifier{})

	actor := uuid.New()
	for i := 0; i < 3; i++ {
		_, err := svc.RecordChange(context.Background(), ChangeRecord{
			UserID:      &actor,
			Action:      model.ActionCreateAction,
			ActionID:    uuid.New(),
			EntityName:  "BONUS action",
			Description: "added run:x|mv:y",
		})
		require.NoError(t, err)
	}

	logs, total, err := svc.GetTrail(context.Background(), nil, 1, 9999)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, logs, 3)
}
