package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrbackend/internal/engine"
	"hrbackend/internal/model"
	"hrbackend/internal/repository"
)

// --- fakes ---

type fakeActionRepo struct {
	actions      map[uuid.UUID]*model.PersonalAction
	created      []*model.PersonalAction
	replaced     int
	statusCalls  int
	failStatusAs error
}

func newFakeActionRepo() *fakeActionRepo {
	return &fakeActionRepo{actions: map[uuid.UUID]*model.PersonalAction{}}
}

func (f *fakeActionRepo) Create(_ context.Context, action *model.PersonalAction) error {
	if action.ID == uuid.Nil {
		action.ID = uuid.New()
	}
	for i := range action.Lines {
		action.Lines[i].ActionID = action.ID
	}
	f.actions[action.ID] = action
	f.created = append(f.created, action)
	return nil
}

func (f *fakeActionRepo) GetByID(_ context.Context, id uuid.UUID) (*model.PersonalAction, error) {
	action, ok := f.actions[id]
	if !ok {
		return nil, fmt.Errorf("action %s: %w", id, engine.ErrNotFound)
	}
	copied := *action
	return &copied, nil
}

func (f *fakeActionRepo) List(_ context.Context, _ repository.ActionFilter) ([]model.PersonalAction, int64, error) {
	out := make([]model.PersonalAction, 0, len(f.actions))
	for _, a := range f.actions {
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

func (f *fakeActionRepo) ListByGroup(_ context.Context, groupID uuid.UUID) ([]model.PersonalAction, error) {
	var out []model.PersonalAction
	for _, a := range f.actions {
		if a.GroupID == groupID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeActionRepo) ReplaceLines(_ context.Context, actionID uuid.UUID, expected int, lines []model.ActionLine, aggregate decimal.Decimal) error {
	action, ok := f.actions[actionID]
	if !ok {
		return fmt.Errorf("action %s: %w", actionID, engine.ErrNotFound)
	}
	if action.Status != expected {
		return fmt.Errorf("status of action %s changed concurrently (expected %d): %w", actionID, expected, engine.ErrConflict)
	}
	f.replaced++
	action.Lines = lines
	action.AggregateAmount = aggregate
	return nil
}

func (f *fakeActionRepo) UpdateStatus(_ context.Context, id uuid.UUID, expected, next int, reason string) error {
	f.statusCalls++
	if f.failStatusAs != nil {
		return f.failStatusAs
	}
	action, ok := f.actions[id]
	if !ok {
		return fmt.Errorf("action %s: %w", id, engine.ErrNotFound)
	}
	if action.Status != expected {
		return fmt.Errorf("status changed underneath: %w", engine.ErrConflict)
	}
	action.Status = next
	if reason != "" {
		action.Reason = reason
	}
	return nil
}

func (f *fakeActionRepo) CountByStatus(_ context.Context, _ *uuid.UUID) (map[int]int64, error) {
	counts := map[int]int64{}
	for _, a := range f.actions {
		counts[a.Status]++
	}
	return counts, nil
}

type fakeEmployeeRepo struct {
	employees map[uuid.UUID]*model.Employee
}

func (f *fakeEmployeeRepo) Create(_ context.Context, e *model.Employee) error {
	f.employees[e.ID] = e
	return nil
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return nil, fmt.Errorf("employee %s: %w", id, engine.ErrNotFound)
	}
	return e, nil
}

func (f *fakeEmployeeRepo) List(_ context.Context, _ *uuid.UUID, _, _ int) ([]model.Employee, int64, error) {
	return nil, 0, nil
}
func (f *fakeEmployeeRepo) Update(_ context.Context, _ *model.Employee) error { return nil }
func (f *fakeEmployeeRepo) Delete(_ context.Context, _ uuid.UUID) error       { return nil }

type fakePayrollRepo struct {
	runs      []model.PayrollRun
	movements []model.Movement
}

func (f *fakePayrollRepo) ListRuns(_ context.Context, companyID uuid.UUID) ([]model.PayrollRun, error) {
	var out []model.PayrollRun
	for _, r := range f.runs {
		if r.CompanyID == companyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakePayrollRepo) GetRun(_ context.Context, id uuid.UUID) (*model.PayrollRun, error) {
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, fmt.Errorf("payroll run %s: %w", id, engine.ErrNotFound)
}

func (f *fakePayrollRepo) CreateRun(_ context.Context, run *model.PayrollRun) error {
	f.runs = append(f.runs, *run)
	return nil
}

func (f *fakePayrollRepo) UpdateRunStatus(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (f *fakePayrollRepo) ListMovements(_ context.Context) ([]model.Movement, error) {
	return f.movements, nil
}

func (f *fakePayrollRepo) GetMovement(_ context.Context, id uuid.UUID) (*model.Movement, error) {
	for i := range f.movements {
		if f.movements[i].ID == id {
			return &f.movements[i], nil
		}
	}
	return nil, fmt.Errorf("movement %s: %w", id, engine.ErrNotFound)
}

func (f *fakePayrollRepo) CreateMovement(_ context.Context, mv *model.Movement) error {
	f.movements = append(f.movements, *mv)
	return nil
}

func (f *fakePayrollRepo) UpdateMovement(_ context.Context, _ *model.Movement) error { return nil }

type fakeAuditService struct {
	records []ChangeRecord
}

func (f *fakeAuditService) RecordChange(_ context.Context, rec ChangeRecord) (bool, error) {
	if rec.Description == "" {
		return false, nil
	}
	f.records = append(f.records, rec)
	return true, nil
}

func (f *fakeAuditService) GetTrail(_ context.Context, _ *uuid.UUID, _, _ int) ([]AuditLogResponse, int64, error) {
	return nil, 0, nil
}

type fakeTxManager struct {
	before func() // models a commit landing just before the transactional body runs
}

func (f fakeTxManager) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	if f.before != nil {
		f.before()
	}
	return fn(ctx)
}

type fakeCaps struct {
	granted map[string]bool
}

func (f *fakeCaps) HasCapability(_ context.Context, _ uuid.UUID, code string) (bool, error) {
	return f.granted[code], nil
}

func allCaps() *fakeCaps {
	granted := map[string]bool{}
	for actionType := range model.ActionTypeIDs {
		for _, verb := range []string{model.CapabilityEdit, model.CapabilityApprove, model.CapabilityCancel} {
			granted[model.CapabilityCode(actionType, verb)] = true
		}
	}
	return &fakeCaps{granted: granted}
}

// --- fixture ---

type fixture struct {
	svc      ActionService
	actions  *fakeActionRepo
	audit    *fakeAuditService
	caps     *fakeCaps
	company  uuid.UUID
	employee *model.Employee
	runA     model.PayrollRun
	runB     model.PayrollRun
	movement model.Movement
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	company := uuid.New()
	employee := &model.Employee{
		ID:               uuid.New(),
		CompanyID:        company,
		FirstName:        "Maria",
		LastName:         "Rojas",
		BaseSalary:       decimal.RequireFromString("600000"),
		SalaryCurrency:   "CRC",
		PayPeriodID:      model.PayPeriodMonthly,
		IsHourlySchedule: false,
	}

	runA := model.PayrollRun{
		ID: uuid.New(), CompanyID: company, Code: "2026-08",
		Status: model.PayrollRunOpen, PayPeriodID: model.PayPeriodMonthly, Currency: "CRC",
		PeriodStart:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PeriodEndDate: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	}
	runB := runA
	runB.ID = uuid.New()
	runB.Code = "2026-09"
	runB.PeriodStart = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	runB.PeriodEndDate = time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	movement := model.Movement{
		ID: uuid.New(), Code: "ABS-UNJ", Name: "Unjustified absence",
		IsFixedAmount: true, FixedAmount: decimal.RequireFromString("15000"),
		PersonalActionTypeID: model.ActionTypeIDs[model.ActionTypeAbsence],
	}

	actions := newFakeActionRepo()
	audit := &fakeAuditService{}
	caps := allCaps()

	svc := NewActionService(
		actions,
		&fakeEmployeeRepo{employees: map[uuid.UUID]*model.Employee{employee.ID: employee}},
		&fakePayrollRepo{runs: []model.PayrollRun{runA, runB}, movements: []model.Movement{movement}},
		audit,
		fakeTxManager{},
		caps,
	)

	return &fixture{
		svc: svc, actions: actions, audit: audit, caps: caps,
		company: company, employee: employee,
		runA: runA, runB: runB, movement: movement,
	}
}

func (f *fixture) lineFor(run model.PayrollRun, qty string) LineRequest {
	return LineRequest{
		PayrollRunID: run.ID.String(),
		MovementID:   f.movement.ID.String(),
		Quantity:     qty,
		AbsenceKind:  model.AbsenceUnjustified,
	}
}

func (f *fixture) createRequest(lines ...LineRequest) CreateActionRequest {
	return CreateActionRequest{
		CompanyID:     f.company.String(),
		EmployeeID:    f.employee.ID.String(),
		Description:   "august absences",
		EffectiveDate: "2026-08-15",
		Lines:         lines,
	}
}

// --- tests ---

func TestCreateFansOutOneHeaderPerRun(t *testing.T) {
	f := newFixture(t)
	actor := uuid.New()

	res, err := f.svc.Create(context.Background(), actor, model.ActionTypeAbsence,
		f.createRequest(f.lineFor(f.runA, "2"), f.lineFor(f.runB, "1"), f.lineFor(f.runA, "1")))
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, res[0].GroupID, res[1].GroupID, "fanned-out headers share one group id")
	assert.NotEqual(t, res[0].ID, res[1].ID)
	for _, header := range res {
		assert.Equal(t, model.StatusDraft, header.Status)
	}

	// run A got two lines (qty 2 + qty 1 at 15000 fixed), run B one.
	assert.Equal(t, "45000.00", res[0].AggregateAmount)
	assert.Len(t, res[0].Lines, 2)
	assert.Equal(t, "15000.00", res[1].AggregateAmount)
	assert.Len(t, res[1].Lines, 1)

	require.Len(t, f.audit.records, 2)
	assert.Equal(t, model.ActionCreateAction, f.audit.records[0].Action)
	assert.Contains(t, f.audit.records[0].Description, "added")
}

func TestCreateWithoutCapabilityIsForbidden(t *testing.T) {
	f := newFixture(t)
	f.caps.granted = map[string]bool{}

	_, err := f.svc.Create(context.Background(), uuid.New(), model.ActionTypeAbsence,
		f.createRequest(f.lineFor(f.runA, "1")))
	require.ErrorIs(t, err, engine.ErrForbidden)
	assert.Empty(t, f.actions.created)
}

func TestCreateWithNoOpenRunFails(t *testing.T) {
	f := newFixture(t)
	pr := &fakePayrollRepo{movements: []model.Movement{f.movement}}
	closed := f.runA
	closed.Status = model.PayrollRunClosed
	pr.runs = []model.PayrollRun{closed}

	svc := NewActionService(f.actions,
		&fakeEmployeeRepo{employees: map[uuid.UUID]*model.Employee{f.employee.ID: f.employee}},
		pr, f.audit, fakeTxManager{}, f.caps)

	_, err := svc.Create(context.Background(), uuid.New(), model.ActionTypeAbsence,
		f.createRequest(f.lineFor(f.runA, "1")))
	require.ErrorIs(t, err, engine.ErrNoEligibleOptions)
}

func TestCreateGenericStartsPending(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Create(context.Background(), uuid.New(), model.ActionTypeGeneric, CreateActionRequest{
		CompanyID:     f.company.String(),
		EmployeeID:    f.employee.ID.String(),
		Description:   "schedule change request",
		EffectiveDate: "2026-09-01",
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, model.StatusPendingSupervisor, res[0].Status)
	assert.Empty(t, res[0].Lines)
}

func TestCreateRejectsUnknownMovementForType(t *testing.T) {
	f := newFixture(t)
	foreign := model.Movement{
		ID: uuid.New(), Code: "OT-150", Name: "Overtime 150%",
		PersonalActionTypeID: model.ActionTypeIDs[model.ActionTypeOvertime],
	}
	pr := &fakePayrollRepo{runs: []model.PayrollRun{f.runA}, movements: []model.Movement{foreign}}
	svc := NewActionService(f.actions,
		&fakeEmployeeRepo{employees: map[uuid.UUID]*model.Employee{f.employee.ID: f.employee}},
		pr, f.audit, fakeTxManager{}, f.caps)

	line := f.lineFor(f.runA, "1")
	line.MovementID = foreign.ID.String()
	_, err := svc.Create(context.Background(), uuid.New(), model.ActionTypeAbsence, f.createRequest(line))

	var verr *engine.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "movement_id", verr.Field)
}

func TestUpdateIdenticalLinesRecordsNothing(t *testing.T) {
	f := newFixture(t)
	actor := uuid.New()

	created, err := f.svc.Create(context.Background(), actor, model.ActionTypeAbsence,
		f.createRequest(f.lineFor(f.runA, "2")))
	require.NoError(t, err)
	f.audit.records = nil

	id := uuid.MustParse(created[0].ID)
	res, err := f.svc.Update(context.Background(), actor, id, UpdateActionRequest{
		Lines: []LineRequest{f.lineFor(f.runA, "2")},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, f.actions.replaced, "identical set must not rewrite lines")
	assert.Empty(t, f.audit.records, "identical set must not produce an audit entry")
	assert.Equal(t, "30000.00", res.AggregateAmount)
}

func TestUpdateRecordsLineDiff(t *testing.T) {
	f := newFixture(t)
	actor := uuid.New()

	created, err := f.svc.Create(context.Background(), actor, model.ActionTypeAbsence,
		f.createRequest(f.lineFor(f.runA, "2")))
	require.NoError(t, err)
	f.audit.records = nil

	id := uuid.MustParse(created[0].ID)
	res, err := f.svc.Update(context.Background(), actor, id, UpdateActionRequest{
		Lines: []LineRequest{f.lineFor(f.runA, "3")},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, f.actions.replaced)
	assert.Equal(t, "45000.00", res.AggregateAmount)
	require.Len(t, f.audit.records, 1)
	assert.Equal(t, model.ActionUpdateLines, f.audit.records[0].Action)
	assert.Contains(t, f.audit.records[0].Description, "added")
	assert.Contains(t, f.audit.records[0].Description, "removed")
}

func TestUpdateApprovedHeaderConflicts(t *testing.T) {
	f := newFixture(t)
	actor := uuid.New()

	created, err := f.svc.Create(context.Background(), actor, model.ActionTypeAbsence,
		f.createRequest(f.lineFor(f.runA, "1")))
	require.NoError(t, err)
	id := uuid.MustParse(created[0].ID)
	f.actions.actions[id].Status = model.StatusApproved

	_, err = f.svc.Update(context.Background(), actor, id, UpdateActionRequest{
		Lines: []LineRequest{f.lineFor(f.runA, "2")},
	})
	require.ErrorIs(t, err, engine.ErrConflict)
}

func TestUpdateLosingRaceToTransitionConflicts(t *testing.T) {
	f := newFixture(t)
	actor := uuid.New()

	created, err := f.svc.Create(context.Background(), actor, model.ActionTypeAbsence,
		f.createRequest(f.lineFor(f.runA, "1")))
	require.NoError(t, err)
	f.audit.records = nil
	id := uuid.MustParse(created[0].ID)

	// A transition to a terminal status commits after the editability check
	// but before the line write. The conditional write must refuse it.
	tx := fakeTxManager{before: func() {
		f.actions.actions[id].Status = model.StatusConsumed
	}}
	svc := NewActionService(f.actions,
		&fakeEmployeeRepo{employees: map[uuid.UUID]*model.Employee{f.employee.ID: f.employee}},
		&fakePayrollRepo{runs: []model.PayrollRun{f.runA, f.runB}, movements: []model.Movement{f.movement}},
		f.audit, tx, f.caps)

	_, err = svc.Update(context.Background(), actor, id, UpdateActionRequest{
		Lines: []LineRequest{f.lineFor(f.runA, "2")},
	})
	require.ErrorIs(t, err, engine.ErrConflict)
	assert.Equal(t, 0, f.actions.replaced, "lines of a consumed header must stay untouched")
	assert.Empty(t, f.audit.records, "a lost race must not leave an audit entry")
}

func TestAdvanceWritesTransitionAudit(t *testing.T) {
	f := newFixture(t)
	actor := uuid.New()

	created, err := f.svc.Create(context.Background(), actor, model.ActionTypeAbsence,
		f.createRequest(f.lineFor(f.runA, "1")))
	require.NoError(t, err)
	id := uuid.MustParse(created[0].ID)

	res, err := f.svc.Advance(context.Background(), actor, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingSupervisor, res.Status)

	f.audit.records = nil
	res, err = f.svc.Advance(context.Background(), actor, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingHR, res.Status)

	require.Len(t, f.audit.records, 1)
	assert.Equal(t, model.ActionAdvanceStatus, f.audit.records[0].Action)
	assert.Contains(t, f.audit.records[0].Description, "status 2→3")
	assert.Equal(t, model.ScopeRole, f.audit.records[0].NotifyScope)
	assert.Equal(t, "hr", f.audit.records[0].NotifyRole)
}

func TestAdvanceStaleStatusConflicts(t *testing.T) {
	f := newFixture(t)
	actor := uuid.New()

	created, err := f.svc.Create(context.Background(), actor, model.ActionTypeAbsence,
		f.createRequest(f.lineFor(f.runA, "1")))
	require.NoError(t, err)
	id := uuid.MustParse(created[0].ID)

	// Someone else moves the row between the read and the write.
	f.actions.failStatusAs = fmt.Errorf("status changed underneath: %w", engine.ErrConflict)
	f.audit.records = nil

	_, err = f.svc.Advance(context.Background(), actor, id)
	require.ErrorIs(t, err, engine.ErrConflict)
	assert.Empty(t, f.audit.records, "a lost race must not leave an audit entry")
}

func TestInvalidateTerminalHeaderConflicts(t *testing.T) {
	f := newFixture(t)
	actor := uuid.New()

	created, err := f.svc.Create(context.Background(), actor, model.ActionTypeAbsence,
		f.createRequest(f.lineFor(f.runA, "1")))
	require.NoError(t, err)
	id := uuid.MustParse(created[0].ID)
	f.actions.actions[id].Status = model.StatusConsumed

	_, err = f.svc.Invalidate(context.Background(), actor, id, "wrong employee")
	require.ErrorIs(t, err, engine.ErrConflict)

	var terr *engine.TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, model.StatusConsumed, terr.Current)
}

func TestInvalidateMovesToInvalidated(t *testing.T) {
	f := newFixture(t)
	actor := uuid.New()

	created, err := f.svc.Create(context.Background(), actor, model.ActionTypeAbsence,
		f.createRequest(f.lineFor(f.runA, "1")))
	require.NoError(t, err)
	id := uuid.MustParse(created[0].ID)

	res, err := f.svc.Invalidate(context.Background(), actor, id, "duplicate entry")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInvalidated, res.Status)
	assert.Equal(t, "duplicate entry", res.Reason)
}

func TestRejectGenericRequiresReason(t *testing.T) {
	f := newFixture(t)
	actor := uuid.New()

	created, err := f.svc.Create(context.Background(), actor, model.ActionTypeGeneric, CreateActionRequest{
		CompanyID:     f.company.String(),
		EmployeeID:    f.employee.ID.String(),
		EffectiveDate: "2026-09-01",
	})
	require.NoError(t, err)
	id := uuid.MustParse(created[0].ID)

	_, err = f.svc.Reject(context.Background(), actor, id, "  ")
	var verr *engine.ValidationError
	require.ErrorAs(t, err, &verr)

	res, err := f.svc.Reject(context.Background(), actor, id, "missing paperwork")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, res.Status)
}

func TestApproveLinedActionConflicts(t *testing.T) {
	f := newFixture(t)
	actor := uuid.New()

	created, err := f.svc.Create(context.Background(), actor, model.ActionTypeAbsence,
		f.createRequest(f.lineFor(f.runA, "1")))
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), actor, uuid.MustParse(created[0].ID))
	require.ErrorIs(t, err, engine.ErrConflict)
}

func TestAssociateToPayrollConsumes(t *testing.T) {
	f := newFixture(t)
	actor := uuid.New()

	created, err := f.svc.Create(context.Background(), actor, model.ActionTypeAbsence,
		f.createRequest(f.lineFor(f.runA, "1")))
	require.NoError(t, err)
	id := uuid.MustParse(created[0].ID)
	f.actions.actions[id].Status = model.StatusApproved

	res, err := f.svc.AssociateToPayroll(context.Background(), actor, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConsumed, res.Status)

	_, err = f.svc.AssociateToPayroll(context.Background(), actor, id)
	require.ErrorIs(t, err, engine.ErrConflict, "consume is not repeatable")
}

func TestEligibilityFlagsSelectedClosedRun(t *testing.T) {
	f := newFixture(t)
	actor := uuid.New()

	created, err := f.svc.Create(context.Background(), actor, model.ActionTypeAbsence,
		f.createRequest(f.lineFor(f.runA, "1")))
	require.NoError(t, err)
	id := uuid.MustParse(created[0].ID)

	// The run the line references closes after the fact.
	pr := &fakePayrollRepo{movements: []model.Movement{f.movement}}
	closedA := f.runA
	closedA.Status = model.PayrollRunClosed
	pr.runs = []model.PayrollRun{closedA, f.runB}

	svc := NewActionService(f.actions,
		&fakeEmployeeRepo{employees: map[uuid.UUID]*model.Employee{f.employee.ID: f.employee}},
		pr, f.audit, fakeTxManager{}, f.caps)

	res, err := svc.Eligibility(context.Background(), f.employee.ID, model.ActionTypeAbsence, &id)
	require.NoError(t, err)

	byID := map[string]bool{}
	for _, opt := range res.Runs {
		byID[opt.Run.ID.String()] = opt.Ineligible
	}
	require.Contains(t, byID, f.runA.ID.String(), "selected run stays listed even when closed")
	assert.True(t, byID[f.runA.ID.String()], "closed selected run is flagged")
	assert.False(t, byID[f.runB.ID.String()])
}

func TestStatsAggregateByStatusName(t *testing.T) {
	f := newFixture(t)
	actor := uuid.New()

	_, err := f.svc.Create(context.Background(), actor, model.ActionTypeAbsence,
		f.createRequest(f.lineFor(f.runA, "1"), f.lineFor(f.runB, "1")))
	require.NoError(t, err)

	stats, err := f.svc.Stats(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(2), stats.ByStatus["Draft"])
}
