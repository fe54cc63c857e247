package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrbackend/internal/model"
)

func allow(codes ...string) CapabilityFn {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return func(code string) bool { return set[code] }
}

func denyAll(string) bool { return false }

func TestAdvance_FullChain(t *testing.T) {
	cases := []struct {
		name       string
		from, to   int
		capability string
	}{
		{"draft to pending supervisor", model.StatusDraft, model.StatusPendingSupervisor, "actions.bonus.edit"},
		{"pending supervisor to pending hr", model.StatusPendingSupervisor, model.StatusPendingHR, "actions.bonus.approve"},
		{"pending hr to approved", model.StatusPendingHR, model.StatusApproved, "actions.bonus.approve"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Advance(model.ActionTypeBonus, tc.from, allow(tc.capability))
			require.NoError(t, err)
			assert.Equal(t, tc.to, next)
		})
	}
}

func TestAdvance_TerminalStatusesAlwaysConflict(t *testing.T) {
	terminal := []int{model.StatusConsumed, model.StatusCancelled, model.StatusInvalidated, model.StatusExpired, model.StatusRejected}
	for _, status := range terminal {
		_, err := Advance(model.ActionTypeAbsence, status, allow("actions.absence.edit", "actions.absence.approve"))
		assert.ErrorIs(t, err, ErrConflict, "status %d", status)
	}
}

func TestAdvance_ApprovedHasNoFurtherEdge(t *testing.T) {
	_, err := Advance(model.ActionTypeOvertime, model.StatusApproved, allow("actions.overtime.approve"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAdvance_MissingCapabilityIsForbidden(t *testing.T) {
	_, err := Advance(model.ActionTypeAbsence, model.StatusPendingSupervisor, denyAll)
	require.ErrorIs(t, err, ErrForbidden)

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "actions.absence.approve", te.Capability)
	assert.Equal(t, model.StatusPendingSupervisor, te.Current)
}

func TestAdvance_WrongCapabilityVerbIsForbidden(t *testing.T) {
	// edit alone does not grant the approval edges
	_, err := Advance(model.ActionTypeAbsence, model.StatusPendingHR, allow("actions.absence.edit"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAdvance_GenericActionsRejected(t *testing.T) {
	_, err := Advance(model.ActionTypeGeneric, model.StatusDraft, allow("actions.generic.edit"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestInvalidate_EditableStatuses(t *testing.T) {
	for _, status := range []int{model.StatusDraft, model.StatusPendingSupervisor, model.StatusPendingHR} {
		next, reason, err := Invalidate(model.ActionTypeDiscount, status, "  typo in quantity  ", allow("actions.discount.cancel"))
		require.NoError(t, err, "status %d", status)
		assert.Equal(t, model.StatusInvalidated, next)
		assert.Equal(t, "typo in quantity", reason)
	}
}

func TestInvalidate_EditCapabilityAlsoGrants(t *testing.T) {
	next, _, err := Invalidate(model.ActionTypeDiscount, model.StatusDraft, "", allow("actions.discount.edit"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusInvalidated, next)
}

func TestInvalidate_GenericUsesCancelledStatus(t *testing.T) {
	next, _, err := Invalidate(model.ActionTypeGeneric, model.StatusPendingSupervisor, "", allow("actions.generic.cancel"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, next)
}

func TestInvalidate_NotRepeatable(t *testing.T) {
	_, _, err := Invalidate(model.ActionTypeDiscount, model.StatusInvalidated, "", allow("actions.discount.cancel"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestInvalidate_ConsumedHeaderConflicts(t *testing.T) {
	_, _, err := Invalidate(model.ActionTypeBonus, model.StatusConsumed, "", allow("actions.bonus.cancel", "actions.bonus.edit"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestApproveGeneric(t *testing.T) {
	for _, status := range []int{model.StatusPendingSupervisor, model.StatusPendingHR} {
		next, err := ApproveGeneric(status, allow("actions.generic.approve"))
		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, next)
	}

	_, err := ApproveGeneric(model.StatusApproved, allow("actions.generic.approve"))
	assert.ErrorIs(t, err, ErrConflict)

	_, err = ApproveGeneric(model.StatusPendingHR, denyAll)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRejectGeneric_ReasonMandatory(t *testing.T) {
	_, _, err := RejectGeneric(model.StatusPendingSupervisor, "   ", allow("actions.generic.approve"))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "reason", ve.Field)
}

func TestRejectGeneric(t *testing.T) {
	next, reason, err := RejectGeneric(model.StatusPendingHR, "missing documentation", allow("actions.generic.approve"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, next)
	assert.Equal(t, "missing documentation", reason)

	_, _, err = RejectGeneric(model.StatusDraft, "reason", allow("actions.generic.approve"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestConsume(t *testing.T) {
	next, err := Consume(model.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConsumed, next)

	for _, status := range []int{model.StatusDraft, model.StatusPendingHR, model.StatusConsumed, model.StatusRejected} {
		_, err := Consume(status)
		assert.ErrorIs(t, err, ErrConflict, "status %d", status)
	}
}

func TestStatusName_CoversAllStatuses(t *testing.T) {
	for status := model.StatusDraft; status <= model.StatusRejected; status++ {
		assert.NotEqual(t, "Unknown", StatusName(status))
	}
	assert.Equal(t, "Unknown", StatusName(42))
}

func TestTransitionError_Unwrap(t *testing.T) {
	_, err := Advance(model.ActionTypeAbsence, model.StatusConsumed, denyAll)
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrForbidden))
}
