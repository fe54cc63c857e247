// Package engine holds the pure core of the personal-action workflow: the
// lifecycle state machine, the line amount calculator, the eligibility
// resolver and the change diff. Nothing here touches the database or the
// network; services wire the pieces together.
package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors — use with errors.Is()
var (
	// ErrConflict is returned when a transition's expected source status no
	// longer matches the header's current status, or when an edit targets a
	// non-editable header.
	ErrConflict = errors.New("status conflict")

	// ErrForbidden is returned when the actor lacks the capability a
	// transition requires.
	ErrForbidden = errors.New("capability denied")

	// ErrNotFound is returned for unknown header/line/movement/payroll refs.
	ErrNotFound = errors.New("not found")

	// ErrNoEligibleOptions signals an empty eligibility result. Callers
	// decide whether that is a hard stop.
	ErrNoEligibleOptions = errors.New("no eligible options")
)

// TransitionError carries the rejected edge so handlers can surface the
// specific rule instead of a generic failure. It unwraps to ErrConflict or
// ErrForbidden depending on which guard failed.
type TransitionError struct {
	From       int
	To         int
	Current    int
	Capability string
	Reason     string
	kind       error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %d->%d rejected (current status %d): %s", e.From, e.To, e.Current, e.Reason)
}

func (e *TransitionError) Unwrap() error { return e.kind }

// ValidationError reports one invalid line field. Line is the zero-based
// position in the submitted set, or -1 for header-level problems.
type ValidationError struct {
	Line  int
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("validation failed: %s %s", e.Field, e.Rule)
	}
	return fmt.Sprintf("validation failed on line %d: %s %s", e.Line, e.Field, e.Rule)
}

func conflictErr(from, to, current int, reason string) error {
	return &TransitionError{From: from, To: to, Current: current, Reason: reason, kind: ErrConflict}
}

func forbiddenErr(from, to, current int, capability string) error {
	return &TransitionError{From: from, To: to, Current: current, Capability: capability,
		Reason: "missing capability " + capability, kind: ErrForbidden}
}
