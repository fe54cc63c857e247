package engine

import (
	"strings"

	"hrbackend/internal/model"
)

// CapabilityFn answers whether the acting user holds one capability code.
// Services curry the actor id into it so the machine stays pure.
type CapabilityFn func(capabilityCode string) bool

// Transition is one edge of the lifecycle table. Capabilities lists the
// verb suffixes that grant the edge — holding any one of them is enough.
type Transition struct {
	From          int
	To            int
	Capabilities  []string
	RequireReason bool
}

// advanceEdges is the per-line approval chain: Draft -> PendingSupervisor ->
// PendingHR -> Approved. The table is the single source of truth for guard
// rules; there are no status conditionals anywhere else.
var advanceEdges = map[int]Transition{
	model.StatusDraft:             {From: model.StatusDraft, To: model.StatusPendingSupervisor, Capabilities: []string{model.CapabilityEdit}},
	model.StatusPendingSupervisor: {From: model.StatusPendingSupervisor, To: model.StatusPendingHR, Capabilities: []string{model.CapabilityApprove}},
	model.StatusPendingHR:         {From: model.StatusPendingHR, To: model.StatusApproved, Capabilities: []string{model.CapabilityApprove}},
}

// invalidateEdge covers Draft/PendingSupervisor/PendingHR -> Invalidated.
// Either the edit or the cancel capability for the action type grants it.
var invalidateEdge = Transition{
	To:           model.StatusInvalidated,
	Capabilities: []string{model.CapabilityEdit, model.CapabilityCancel},
}

// Generic (non-lined) actions run a simpler two-outcome flow over the same
// pending statuses. The two machines coexist; they share statuses but not
// edges.
var (
	genericApproveEdge = Transition{To: model.StatusApproved, Capabilities: []string{model.CapabilityApprove}}
	genericRejectEdge  = Transition{To: model.StatusRejected, Capabilities: []string{model.CapabilityApprove}, RequireReason: true}
)

// IsTerminal reports whether no further transition is permitted from status.
func IsTerminal(status int) bool {
	return status >= model.StatusConsumed
}

// CanEdit reports whether the header's line set may still be replaced.
func CanEdit(status int) bool {
	return status == model.StatusDraft ||
		status == model.StatusPendingSupervisor ||
		status == model.StatusPendingHR
}

// StatusName returns the display name for a status code.
func StatusName(status int) string {
	switch status {
	case model.StatusDraft:
		return "Draft"
	case model.StatusPendingSupervisor:
		return "Pending Supervisor"
	case model.StatusPendingHR:
		return "Pending HR"
	case model.StatusApproved:
		return "Approved"
	case model.StatusConsumed:
		return "Consumed"
	case model.StatusCancelled:
		return "Cancelled"
	case model.StatusInvalidated:
		return "Invalidated"
	case model.StatusExpired:
		return "Expired"
	case model.StatusRejected:
		return "Rejected"
	}
	return "Unknown"
}

func granted(actionType string, edge Transition, has CapabilityFn) (string, bool) {
	var last string
	for _, verb := range edge.Capabilities {
		last = model.CapabilityCode(actionType, verb)
		if has(last) {
			return last, true
		}
	}
	return last, false
}

// Advance moves a lined header one step along the approval chain and returns
// the next status. Wrong source status is a Conflict; a missing capability is
// Forbidden.
func Advance(actionType string, current int, has CapabilityFn) (int, error) {
	if !model.LinedActionType(actionType) {
		return 0, conflictErr(current, 0, current, "generic actions use approve/reject, not advance")
	}
	edge, ok := advanceEdges[current]
	if !ok {
		return 0, conflictErr(current, 0, current, "no advance from status "+StatusName(current))
	}
	if capability, ok := granted(actionType, edge, has); !ok {
		return 0, forbiddenErr(edge.From, edge.To, current, capability)
	}
	return edge.To, nil
}

// Invalidate retires an editable header. The reason is optional and is
// returned trimmed for the audit trail. Invalidating an already-Invalidated
// (or otherwise terminal, or Approved) header is a Conflict.
func Invalidate(actionType string, current int, reason string, has CapabilityFn) (int, string, error) {
	if !CanEdit(current) {
		return 0, "", conflictErr(current, invalidateEdge.To, current, "cannot invalidate a header in status "+StatusName(current))
	}
	to := invalidateEdge.To
	if actionType == model.ActionTypeGeneric {
		// the generic flow retires through the cancel path
		to = model.StatusCancelled
	}
	if capability, ok := granted(actionType, invalidateEdge, has); !ok {
		return 0, "", forbiddenErr(current, to, current, capability)
	}
	return to, strings.TrimSpace(reason), nil
}

// ApproveGeneric resolves a pending generic action to Approved.
func ApproveGeneric(current int, has CapabilityFn) (int, error) {
	if !isPending(current) {
		return 0, conflictErr(current, genericApproveEdge.To, current, "approval requires a pending header, got "+StatusName(current))
	}
	if capability, ok := granted(model.ActionTypeGeneric, genericApproveEdge, has); !ok {
		return 0, forbiddenErr(current, genericApproveEdge.To, current, capability)
	}
	return genericApproveEdge.To, nil
}

// RejectGeneric resolves a pending generic action to Rejected. A non-empty
// reason is mandatory.
func RejectGeneric(current int, reason string, has CapabilityFn) (int, string, error) {
	if !isPending(current) {
		return 0, "", conflictErr(current, genericRejectEdge.To, current, "rejection requires a pending header, got "+StatusName(current))
	}
	reason = strings.TrimSpace(reason)
	if genericRejectEdge.RequireReason && reason == "" {
		return 0, "", &ValidationError{Line: -1, Field: "reason", Rule: "is required when rejecting"}
	}
	if capability, ok := granted(model.ActionTypeGeneric, genericRejectEdge, has); !ok {
		return 0, "", forbiddenErr(current, genericRejectEdge.To, current, capability)
	}
	return genericRejectEdge.To, reason, nil
}

// Consume accepts the external 4->5 edge driven by the payroll pipeline when
// it applies the lines. This core never initiates it.
func Consume(current int) (int, error) {
	if current != model.StatusApproved {
		return 0, conflictErr(current, model.StatusConsumed, current, "only an Approved header can be consumed, got "+StatusName(current))
	}
	return model.StatusConsumed, nil
}

func isPending(status int) bool {
	return status == model.StatusPendingSupervisor || status == model.StatusPendingHR
}
