package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"hrbackend/internal/engine"
	"hrbackend/internal/model"
	"hrbackend/internal/repository"
)

// --- DTOs ---

type LineRequest struct {
	PayrollRunID  string `json:"payroll_run_id" binding:"required"`
	MovementID    string `json:"movement_id" binding:"required"`
	Quantity      string `json:"quantity" binding:"required"` // decimal string
	ShiftHours    int    `json:"shift_hours" binding:"omitempty,oneof=6 7 8"`
	IsCompensated bool   `json:"is_compensated"`
	EffectiveDate string `json:"effective_date"` // YYYY-MM-DD, defaults to the header's

	AbsenceKind    string `json:"absence_kind" binding:"omitempty,oneof=JUSTIFIED UNJUSTIFIED"`
	Institution    string `json:"institution" binding:"omitempty,oneof=CCSS INS"`
	DisabilityKind string `json:"disability_kind"`
	LicenseKind    string `json:"license_kind"`
	BonusKind      string `json:"bonus_kind"`
}

type CreateActionRequest struct {
	CompanyID     string        `json:"company_id" binding:"required"`
	EmployeeID    string        `json:"employee_id" binding:"required"`
	Description   string        `json:"description"`
	EffectiveDate string        `json:"effective_date" binding:"required"` // YYYY-MM-DD
	Lines         []LineRequest `json:"lines"`
}

type UpdateActionRequest struct {
	Lines []LineRequest `json:"lines" binding:"required,min=1"`
}

type TransitionRequest struct {
	Reason string `json:"reason"`
}

type LineResponse struct {
	ID            string `json:"id"`
	PayrollRunID  string `json:"payroll_run_id"`
	MovementID    string `json:"movement_id"`
	Quantity      string `json:"quantity"`
	Amount        string `json:"amount"`
	IsCompensated bool   `json:"is_compensated"`
	Formula       string `json:"formula"`
	Order         int    `json:"order"`
	EffectiveDate string `json:"effective_date"`

	AbsenceKind    *string `json:"absence_kind,omitempty"`
	ShiftHours     *int    `json:"shift_hours,omitempty"`
	Institution    *string `json:"institution,omitempty"`
	DisabilityKind *string `json:"disability_kind,omitempty"`
	LicenseKind    *string `json:"license_kind,omitempty"`
	BonusKind      *string `json:"bonus_kind,omitempty"`
}

type ActionResponse struct {
	ID              string         `json:"id"`
	GroupID         string         `json:"group_id"`
	CompanyID       string         `json:"company_id"`
	EmployeeID      string         `json:"employee_id"`
	EmployeeName    string         `json:"employee_name,omitempty"`
	ActionType      string         `json:"action_type"`
	Status          int            `json:"status"`
	StatusName      string         `json:"status_name"`
	Description     string         `json:"description"`
	EffectiveDate   string         `json:"effective_date"`
	AggregateAmount string         `json:"aggregate_amount"`
	Reason          string         `json:"reason,omitempty"`
	Lines           []LineResponse `json:"lines"`
	CreatedAt       string         `json:"created_at"`
}

type EligibilityResponse struct {
	Runs                []engine.RunOption      `json:"runs"`
	Movements           []engine.MovementOption `json:"movements"`
	NoEligibleRuns      bool                    `json:"no_eligible_runs"`
	NoEligibleMovements bool                    `json:"no_eligible_movements"`
}

type ActionStatsResponse struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

// --- Interface ---

// ActionService orchestrates the personal action lifecycle: it resolves
// eligibility, recalculates lines, persists header+lines atomically, advances
// or retires headers through the state machine and drives the audit recorder
// on every mutation.
type ActionService interface {
	Create(ctx context.Context, actorID uuid.UUID, actionType string, req CreateActionRequest) ([]ActionResponse, error)
	Update(ctx context.Context, actorID, id uuid.UUID, req UpdateActionRequest) (ActionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (ActionResponse, error)
	GetGroup(ctx context.Context, id uuid.UUID) ([]ActionResponse, error)
	List(ctx context.Context, filter repository.ActionFilter) ([]ActionResponse, int64, error)

	Advance(ctx context.Context, actorID, id uuid.UUID) (ActionResponse, error)
	Invalidate(ctx context.Context, actorID, id uuid.UUID, reason string) (ActionResponse, error)
	Approve(ctx context.Context, actorID, id uuid.UUID) (ActionResponse, error)
	Reject(ctx context.Context, actorID, id uuid.UUID, reason string) (ActionResponse, error)
	AssociateToPayroll(ctx context.Context, actorID, id uuid.UUID) (ActionResponse, error)

	Eligibility(ctx context.Context, employeeID uuid.UUID, actionType string, actionID *uuid.UUID) (EligibilityResponse, error)
	Stats(ctx context.Context, companyID *uuid.UUID) (ActionStatsResponse, error)
}

type actionService struct {
	actionRepo   repository.ActionRepository
	employeeRepo repository.EmployeeRepository
	payrollRepo  repository.PayrollRepository
	auditSvc     AuditService
	txManager    repository.TransactionManager
	caps         CapabilityEvaluator
}

func NewActionService(
	actionRepo repository.ActionRepository,
	employeeRepo repository.EmployeeRepository,
	payrollRepo repository.PayrollRepository,
	auditSvc AuditService,
	txManager repository.TransactionManager,
	caps CapabilityEvaluator,
) ActionService {
	return &actionService{
		actionRepo:   actionRepo,
		employeeRepo: employeeRepo,
		payrollRepo:  payrollRepo,
		auditSvc:     auditSvc,
		txManager:    txManager,
		caps:         caps,
	}
}

// --- Implementation ---

func (s *actionService) capFn(ctx context.Context, actorID uuid.UUID) engine.CapabilityFn {
	return func(code string) bool {
		ok, err := s.caps.HasCapability(ctx, actorID, code)
		if err != nil {
			log.Error().Err(err).Str("actor", actorID.String()).Str("capability", code).Msg("capability lookup failed")
			return false
		}
		return ok
	}
}

func validActionType(actionType string) bool {
	_, ok := model.ActionTypeIDs[actionType]
	return ok
}

func (s *actionService) Create(ctx context.Context, actorID uuid.UUID, actionType string, req CreateActionRequest) ([]ActionResponse, error) {
	if !validActionType(actionType) {
		return nil, &engine.ValidationError{Line: -1, Field: "action_type", Rule: "is unknown"}
	}

	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		return nil, &engine.ValidationError{Line: -1, Field: "company_id", Rule: "is not a valid id"}
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return nil, &engine.ValidationError{Line: -1, Field: "employee_id", Rule: "is not a valid id"}
	}
	effectiveDate, err := time.Parse("2006-01-02", req.EffectiveDate)
	if err != nil {
		return nil, &engine.ValidationError{Line: -1, Field: "effective_date", Rule: "must be YYYY-MM-DD"}
	}

	if !s.capFn(ctx, actorID)(model.CapabilityCode(actionType, model.CapabilityEdit)) {
		return nil, fmt.Errorf("creating a %s action: %w", actionType, engine.ErrForbidden)
	}

	employee, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if employee.CompanyID != companyID {
		return nil, &engine.ValidationError{Line: -1, Field: "employee_id", Rule: "does not belong to the company"}
	}

	if !model.LinedActionType(actionType) {
		return s.createGeneric(ctx, actorID, companyID, employee, req, effectiveDate)
	}

	if len(req.Lines) == 0 {
		return nil, &engine.ValidationError{Line: -1, Field: "lines", Rule: "at least one line is required"}
	}

	snapshot, err := s.loadCatalogs(ctx, companyID, actionType, compensationOf(employee), nil, nil)
	if err != nil {
		return nil, err
	}
	if snapshot.noEligibleRuns {
		return nil, fmt.Errorf("no open payroll run matches the employee's company, pay period and currency: %w", engine.ErrNoEligibleOptions)
	}

	lines, err := s.buildLines(actionType, compensationOf(employee), snapshot, req.Lines, effectiveDate)
	if err != nil {
		return nil, err
	}

	// One submission fans out into one header per payroll run, tied together
	// by a shared group id.
	groupID := uuid.New()
	var runOrder []uuid.UUID
	grouped := make(map[uuid.UUID][]model.ActionLine)
	for _, line := range lines {
		if _, seen := grouped[line.PayrollRunID]; !seen {
			runOrder = append(runOrder, line.PayrollRunID)
		}
		grouped[line.PayrollRunID] = append(grouped[line.PayrollRunID], line)
	}

	var created []model.PersonalAction
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, runID := range runOrder {
			group := grouped[runID]
			aggregate := decimal.Zero
			for i := range group {
				group[i].Order = i + 1
				aggregate = aggregate.Add(group[i].Amount)
			}

			actor := actorID
			header := model.PersonalAction{
				CompanyID:       companyID,
				EmployeeID:      employeeID,
				ActionType:      actionType,
				Status:          model.StatusDraft,
				Description:     req.Description,
				EffectiveDate:   effectiveDate,
				AggregateAmount: aggregate,
				GroupID:         groupID,
				CreatedBy:       &actor,
				Lines:           group,
			}
			if err := s.actionRepo.Create(txCtx, &header); err != nil {
				return fmt.Errorf("failed to create action header: %w", err)
			}

			diff := engine.DiffCodes(nil, lineSignatures(header.Lines))
			if _, err := s.auditSvc.RecordChange(txCtx, ChangeRecord{
				UserID:      &actor,
				Action:      model.ActionCreateAction,
				ActionID:    header.ID,
				EntityName:  actionType + " action",
				Description: diff.Describe(),
				NotifyScope: model.ScopeRole,
				NotifyRole:  "supervisor",
			}); err != nil {
				return err
			}

			created = append(created, header)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := make([]ActionResponse, 0, len(created))
	for i := range created {
		res = append(res, s.toResponse(&created[i]))
	}
	return res, nil
}

// createGeneric handles the non-lined flavor: no monetary lines, created
// directly in pending so the two-outcome approve/reject flow can resolve it.
func (s *actionService) createGeneric(ctx context.Context, actorID, companyID uuid.UUID, employee *model.Employee, req CreateActionRequest, effectiveDate time.Time) ([]ActionResponse, error) {
	actor := actorID
	header := model.PersonalAction{
		CompanyID:     companyID,
		EmployeeID:    employee.ID,
		ActionType:    model.ActionTypeGeneric,
		Status:        model.StatusPendingSupervisor,
		Description:   req.Description,
		EffectiveDate: effectiveDate,
		GroupID:       uuid.New(),
		CreatedBy:     &actor,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.actionRepo.Create(txCtx, &header); err != nil {
			return fmt.Errorf("failed to create action header: %w", err)
		}
		_, err := s.auditSvc.RecordChange(txCtx, ChangeRecord{
			UserID:      &actor,
			Action:      model.ActionCreateAction,
			ActionID:    header.ID,
			EntityName:  model.ActionTypeGeneric + " action",
			Description: "submitted for approval",
			NotifyScope: model.ScopeRole,
			NotifyRole:  "supervisor",
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return []ActionResponse{s.toResponse(&header)}, nil
}

func (s *actionService) Update(ctx context.Context, actorID, id uuid.UUID, req UpdateActionRequest) (ActionResponse, error) {
	action, err := s.actionRepo.GetByID(ctx, id)
	if err != nil {
		return ActionResponse{}, err
	}
	if !model.LinedActionType(action.ActionType) {
		return ActionResponse{}, fmt.Errorf("generic actions carry no lines: %w", engine.ErrConflict)
	}
	if !engine.CanEdit(action.Status) {
		return ActionResponse{}, fmt.Errorf("header in status %s is no longer editable: %w", engine.StatusName(action.Status), engine.ErrConflict)
	}
	if !s.capFn(ctx, actorID)(model.CapabilityCode(action.ActionType, model.CapabilityEdit)) {
		return ActionResponse{}, fmt.Errorf("editing a %s action: %w", action.ActionType, engine.ErrForbidden)
	}

	employee, err := s.employeeRepo.GetByID(ctx, action.EmployeeID)
	if err != nil {
		return ActionResponse{}, err
	}

	// Runs and movements already referenced by the persisted set stay valid
	// even if they fell out of the eligible filter since.
	selectedRuns := make(map[uuid.UUID]bool, len(action.Lines))
	selectedMovs := make(map[uuid.UUID]bool, len(action.Lines))
	for _, line := range action.Lines {
		selectedRuns[line.PayrollRunID] = true
		if line.MovementID != nil {
			selectedMovs[*line.MovementID] = true
		}
	}

	snapshot, err := s.loadCatalogs(ctx, action.CompanyID, action.ActionType, compensationOf(employee), selectedRuns, selectedMovs)
	if err != nil {
		return ActionResponse{}, err
	}

	lines, err := s.buildLines(action.ActionType, compensationOf(employee), snapshot, req.Lines, action.EffectiveDate)
	if err != nil {
		return ActionResponse{}, err
	}

	diff := engine.DiffCodes(lineSignatures(action.Lines), lineSignatures(lines))
	if diff.Empty() {
		// Identical line set: the update succeeds but records nothing and
		// notifies nobody.
		return s.toResponse(action), nil
	}

	aggregate := decimal.Zero
	for _, line := range lines {
		aggregate = aggregate.Add(line.Amount)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.actionRepo.ReplaceLines(txCtx, action.ID, action.Status, lines, aggregate); err != nil {
			return err
		}
		actor := actorID
		rec := ChangeRecord{
			UserID:      &actor,
			Action:      model.ActionUpdateLines,
			ActionID:    action.ID,
			EntityName:  action.ActionType + " action",
			Description: diff.Describe(),
			NotifyScope: model.ScopeUser,
		}
		if action.CreatedBy != nil {
			rec.NotifyRecipients = []uuid.UUID{*action.CreatedBy}
		}
		_, err := s.auditSvc.RecordChange(txCtx, rec)
		return err
	})
	if err != nil {
		return ActionResponse{}, err
	}

	updated, err := s.actionRepo.GetByID(ctx, id)
	if err != nil {
		return ActionResponse{}, err
	}
	return s.toResponse(updated), nil
}

func (s *actionService) Get(ctx context.Context, id uuid.UUID) (ActionResponse, error) {
	action, err := s.actionRepo.GetByID(ctx, id)
	if err != nil {
		return ActionResponse{}, err
	}
	return s.toResponse(action), nil
}

// GetGroup returns every header fanned out from the same submission as the
// given one, in creation order.
func (s *actionService) GetGroup(ctx context.Context, id uuid.UUID) ([]ActionResponse, error) {
	action, err := s.actionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	siblings, err := s.actionRepo.ListByGroup(ctx, action.GroupID)
	if err != nil {
		return nil, err
	}
	res := make([]ActionResponse, 0, len(siblings))
	for i := range siblings {
		res = append(res, s.toResponse(&siblings[i]))
	}
	return res, nil
}

func (s *actionService) List(ctx context.Context, filter repository.ActionFilter) ([]ActionResponse, int64, error) {
	actions, total, err := s.actionRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	res := make([]ActionResponse, 0, len(actions))
	for i := range actions {
		res = append(res, s.toResponse(&actions[i]))
	}
	return res, total, nil
}

func (s *actionService) Advance(ctx context.Context, actorID, id uuid.UUID) (ActionResponse, error) {
	return s.transition(ctx, actorID, id, model.ActionAdvanceStatus, func(action *model.PersonalAction, can engine.CapabilityFn) (int, string, error) {
		next, err := engine.Advance(action.ActionType, action.Status, can)
		return next, "", err
	})
}

func (s *actionService) Invalidate(ctx context.Context, actorID, id uuid.UUID, reason string) (ActionResponse, error) {
	return s.transition(ctx, actorID, id, model.ActionInvalidateAction, func(action *model.PersonalAction, can engine.CapabilityFn) (int, string, error) {
		return engine.Invalidate(action.ActionType, action.Status, reason, can)
	})
}

func (s *actionService) Approve(ctx context.Context, actorID, id uuid.UUID) (ActionResponse, error) {
	return s.transition(ctx, actorID, id, model.ActionApproveAction, func(action *model.PersonalAction, can engine.CapabilityFn) (int, string, error) {
		if action.ActionType != model.ActionTypeGeneric {
			return 0, "", fmt.Errorf("approve applies to generic actions; lined actions advance instead: %w", engine.ErrConflict)
		}
		next, err := engine.ApproveGeneric(action.Status, can)
		return next, "", err
	})
}

func (s *actionService) Reject(ctx context.Context, actorID, id uuid.UUID, reason string) (ActionResponse, error) {
	return s.transition(ctx, actorID, id, model.ActionRejectAction, func(action *model.PersonalAction, can engine.CapabilityFn) (int, string, error) {
		if action.ActionType != model.ActionTypeGeneric {
			return 0, "", fmt.Errorf("reject applies to generic actions; lined actions invalidate instead: %w", engine.ErrConflict)
		}
		return engine.RejectGeneric(action.Status, reason, can)
	})
}

// AssociateToPayroll accepts the external 4->5 edge: the payroll pipeline
// reports that it applied the lines. The edge is guarded by route permission,
// not by an action-type capability.
func (s *actionService) AssociateToPayroll(ctx context.Context, actorID, id uuid.UUID) (ActionResponse, error) {
	return s.transition(ctx, actorID, id, model.ActionConsumeAction, func(action *model.PersonalAction, _ engine.CapabilityFn) (int, string, error) {
		next, err := engine.Consume(action.Status)
		return next, "", err
	})
}

// transition runs one state machine edge under the optimistic precondition:
// the status update only lands when the persisted status still equals the one
// the edge was computed from.
func (s *actionService) transition(
	ctx context.Context,
	actorID, id uuid.UUID,
	auditAction string,
	edge func(action *model.PersonalAction, can engine.CapabilityFn) (int, string, error),
) (ActionResponse, error) {
	action, err := s.actionRepo.GetByID(ctx, id)
	if err != nil {
		return ActionResponse{}, err
	}

	next, reason, err := edge(action, s.capFn(ctx, actorID))
	if err != nil {
		return ActionResponse{}, err
	}

	description := fmt.Sprintf("status %d→%d (%s → %s)", action.Status, next, engine.StatusName(action.Status), engine.StatusName(next))
	if reason != "" {
		description += "; reason: " + reason
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.actionRepo.UpdateStatus(txCtx, id, action.Status, next, reason); err != nil {
			return err
		}
		actor := actorID
		rec := ChangeRecord{
			UserID:      &actor,
			Action:      auditAction,
			ActionID:    action.ID,
			EntityName:  action.ActionType + " action",
			Description: description,
		}
		rec.NotifyScope, rec.NotifyRecipients, rec.NotifyRole = transitionAudience(action, next)
		_, err := s.auditSvc.RecordChange(txCtx, rec)
		return err
	})
	if err != nil {
		return ActionResponse{}, err
	}

	action.Status = next
	if reason != "" {
		action.Reason = reason
	}
	return s.toResponse(action), nil
}

// transitionAudience picks who hears about a status change: pending states
// notify the next approver role, resolutions notify the creator.
func transitionAudience(action *model.PersonalAction, next int) (scope string, recipients []uuid.UUID, role string) {
	switch next {
	case model.StatusPendingSupervisor:
		return model.ScopeRole, nil, "supervisor"
	case model.StatusPendingHR:
		return model.ScopeRole, nil, "hr"
	default:
		if action.CreatedBy != nil {
			return model.ScopeUser, []uuid.UUID{*action.CreatedBy}, ""
		}
		return model.ScopeGlobal, nil, ""
	}
}

func (s *actionService) Eligibility(ctx context.Context, employeeID uuid.UUID, actionType string, actionID *uuid.UUID) (EligibilityResponse, error) {
	if !validActionType(actionType) {
		return EligibilityResponse{}, &engine.ValidationError{Line: -1, Field: "action_type", Rule: "is unknown"}
	}

	employee, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return EligibilityResponse{}, err
	}

	selectedRuns := map[uuid.UUID]bool{}
	selectedMovs := map[uuid.UUID]bool{}
	if actionID != nil {
		action, err := s.actionRepo.GetByID(ctx, *actionID)
		if err != nil {
			return EligibilityResponse{}, err
		}
		for _, line := range action.Lines {
			selectedRuns[line.PayrollRunID] = true
			if line.MovementID != nil {
				selectedMovs[*line.MovementID] = true
			}
		}
	}

	snapshot, err := s.loadCatalogs(ctx, employee.CompanyID, actionType, compensationOf(employee), selectedRuns, selectedMovs)
	if err != nil {
		return EligibilityResponse{}, err
	}

	return EligibilityResponse{
		Runs:                snapshot.runOptions,
		Movements:           snapshot.movementOptions,
		NoEligibleRuns:      snapshot.noEligibleRuns,
		NoEligibleMovements: snapshot.noEligibleMovements,
	}, nil
}

func (s *actionService) Stats(ctx context.Context, companyID *uuid.UUID) (ActionStatsResponse, error) {
	counts, err := s.actionRepo.CountByStatus(ctx, companyID)
	if err != nil {
		return ActionStatsResponse{}, err
	}

	res := ActionStatsResponse{ByStatus: make(map[string]int64, len(counts))}
	for status, total := range counts {
		res.ByStatus[engine.StatusName(status)] = total
		res.Total += total
	}
	return res, nil
}

// --- catalog snapshot & line building ---

type catalogSnapshot struct {
	runsByID        map[uuid.UUID]model.PayrollRun
	movementsByID   map[uuid.UUID]model.Movement
	allowedRuns     map[uuid.UUID]bool
	allowedMovs     map[uuid.UUID]bool
	runOptions      []engine.RunOption
	movementOptions []engine.MovementOption

	noEligibleRuns      bool
	noEligibleMovements bool
}

// loadCatalogs resolves eligibility over the current payroll/movement
// catalogs. Previously selected entries stay allowed so an edit never loses a
// reference the user already holds.
func (s *actionService) loadCatalogs(
	ctx context.Context,
	companyID uuid.UUID,
	actionType string,
	comp engine.Compensation,
	selectedRuns, selectedMovs map[uuid.UUID]bool,
) (catalogSnapshot, error) {
	runs, err := s.payrollRepo.ListRuns(ctx, companyID)
	if err != nil {
		return catalogSnapshot{}, fmt.Errorf("failed to load payroll runs: %w", err)
	}
	movements, err := s.payrollRepo.ListMovements(ctx)
	if err != nil {
		return catalogSnapshot{}, fmt.Errorf("failed to load movements: %w", err)
	}

	snap := catalogSnapshot{
		runsByID:      make(map[uuid.UUID]model.PayrollRun, len(runs)),
		movementsByID: make(map[uuid.UUID]model.Movement, len(movements)),
		allowedRuns:   make(map[uuid.UUID]bool),
		allowedMovs:   make(map[uuid.UUID]bool),
	}
	for _, r := range runs {
		snap.runsByID[r.ID] = r
	}
	for _, m := range movements {
		snap.movementsByID[m.ID] = m
	}

	snap.runOptions, snap.noEligibleRuns = engine.EligibleRuns(companyID, comp, runs, selectedRuns)
	for _, opt := range snap.runOptions {
		snap.allowedRuns[opt.Run.ID] = true
	}

	snap.movementOptions, snap.noEligibleMovements = engine.EligibleMovements(actionType, movements, selectedMovs)
	for _, opt := range snap.movementOptions {
		snap.allowedMovs[opt.Movement.ID] = true
	}

	return snap, nil
}

// buildLines validates every submitted line against the catalogs and the
// type-specific payload rules, then runs the calculator. A failed validation
// is reported per-line before anything is persisted.
func (s *actionService) buildLines(
	actionType string,
	comp engine.Compensation,
	snap catalogSnapshot,
	reqs []LineRequest,
	headerDate time.Time,
) ([]model.ActionLine, error) {
	lines := make([]model.ActionLine, 0, len(reqs))

	for i, lr := range reqs {
		runID, err := uuid.Parse(lr.PayrollRunID)
		if err != nil {
			return nil, &engine.ValidationError{Line: i, Field: "payroll_run_id", Rule: "is not a valid id"}
		}
		if _, ok := snap.runsByID[runID]; !ok {
			return nil, fmt.Errorf("payroll run %s on line %d: %w", runID, i, engine.ErrNotFound)
		}
		if !snap.allowedRuns[runID] {
			return nil, fmt.Errorf("payroll run %s on line %d is not open for this employee: %w", runID, i, engine.ErrConflict)
		}

		movID, err := uuid.Parse(lr.MovementID)
		if err != nil {
			return nil, &engine.ValidationError{Line: i, Field: "movement_id", Rule: "no movement selected"}
		}
		movement, ok := snap.movementsByID[movID]
		if !ok {
			return nil, fmt.Errorf("movement %s on line %d: %w", movID, i, engine.ErrNotFound)
		}
		if !snap.allowedMovs[movID] {
			return nil, &engine.ValidationError{Line: i, Field: "movement_id", Rule: "is not available for this action type"}
		}

		quantity, err := decimal.NewFromString(lr.Quantity)
		if err != nil {
			return nil, &engine.ValidationError{Line: i, Field: "quantity", Rule: "is not a number"}
		}
		if !quantity.IsPositive() {
			return nil, &engine.ValidationError{Line: i, Field: "quantity", Rule: "must be greater than zero"}
		}

		effectiveDate := headerDate
		if lr.EffectiveDate != "" {
			effectiveDate, err = time.Parse("2006-01-02", lr.EffectiveDate)
			if err != nil {
				return nil, &engine.ValidationError{Line: i, Field: "effective_date", Rule: "must be YYYY-MM-DD"}
			}
		}

		line := model.ActionLine{
			PayrollRunID:  runID,
			MovementID:    &movID,
			Quantity:      quantity,
			IsCompensated: lr.IsCompensated,
			Order:         i + 1,
			EffectiveDate: effectiveDate,
		}
		if err := applyPayload(&line, actionType, lr, i); err != nil {
			return nil, err
		}

		shiftHours := 0
		if line.ShiftHours != nil {
			shiftHours = *line.ShiftHours
		}
		result := engine.Calculate(
			engine.MovementTemplate{
				IsFixedAmount: movement.IsFixedAmount,
				FixedAmount:   movement.FixedAmount,
				Percentage:    movement.Percentage,
			},
			comp,
			engine.LineInput{Quantity: quantity, ShiftHours: shiftHours},
		)
		line.Amount = result.Amount
		line.Formula = result.Formula

		lines = append(lines, line)
	}

	return lines, nil
}

// applyPayload validates and attaches the type-specific columns.
func applyPayload(line *model.ActionLine, actionType string, lr LineRequest, idx int) error {
	switch actionType {
	case model.ActionTypeAbsence:
		if lr.AbsenceKind == "" {
			return &engine.ValidationError{Line: idx, Field: "absence_kind", Rule: "is required for absences"}
		}
		kind := lr.AbsenceKind
		line.AbsenceKind = &kind
	case model.ActionTypeOvertime:
		if lr.ShiftHours == 0 {
			return &engine.ValidationError{Line: idx, Field: "shift_hours", Rule: "is required for overtime"}
		}
		hours := lr.ShiftHours
		line.ShiftHours = &hours
	case model.ActionTypeDisability:
		if lr.Institution == "" {
			return &engine.ValidationError{Line: idx, Field: "institution", Rule: "is required for disabilities"}
		}
		institution := lr.Institution
		line.Institution = &institution
		if lr.DisabilityKind != "" {
			kind := lr.DisabilityKind
			line.DisabilityKind = &kind
		}
	case model.ActionTypeLicense:
		if lr.LicenseKind != "" {
			kind := lr.LicenseKind
			line.LicenseKind = &kind
		}
	case model.ActionTypeBonus:
		if lr.BonusKind != "" {
			kind := lr.BonusKind
			line.BonusKind = &kind
		}
	}
	if actionType != model.ActionTypeOvertime && lr.ShiftHours != 0 {
		hours := lr.ShiftHours
		line.ShiftHours = &hours
	}
	return nil
}

// lineSignatures renders lines as canonical codes for diffing. Two sets with
// equal signatures are the same set regardless of row ids or ordering.
func lineSignatures(lines []model.ActionLine) []string {
	sigs := make([]string, 0, len(lines))
	for _, line := range lines {
		mov := ""
		if line.MovementID != nil {
			mov = line.MovementID.String()
		}
		sigs = append(sigs, fmt.Sprintf("run:%s|mv:%s|qty:%s|amt:%s|comp:%t",
			line.PayrollRunID, mov, line.Quantity.String(), line.Amount.StringFixed(2), line.IsCompensated))
	}
	return sigs
}

func (s *actionService) toResponse(action *model.PersonalAction) ActionResponse {
	res := ActionResponse{
		ID:              action.ID.String(),
		GroupID:         action.GroupID.String(),
		CompanyID:       action.CompanyID.String(),
		EmployeeID:      action.EmployeeID.String(),
		ActionType:      action.ActionType,
		Status:          action.Status,
		StatusName:      engine.StatusName(action.Status),
		Description:     action.Description,
		EffectiveDate:   action.EffectiveDate.Format("2006-01-02"),
		AggregateAmount: action.AggregateAmount.StringFixed(2),
		Reason:          action.Reason,
		Lines:           make([]LineResponse, 0, len(action.Lines)),
		CreatedAt:       action.CreatedAt.Format(time.RFC3339),
	}
	if action.Employee != nil {
		res.EmployeeName = action.Employee.FirstName + " " + action.Employee.LastName
	}

	for _, line := range action.Lines {
		mov := ""
		if line.MovementID != nil {
			mov = line.MovementID.String()
		}
		res.Lines = append(res.Lines, LineResponse{
			ID:             line.ID.String(),
			PayrollRunID:   line.PayrollRunID.String(),
			MovementID:     mov,
			Quantity:       line.Quantity.String(),
			Amount:         line.Amount.StringFixed(2),
			IsCompensated:  line.IsCompensated,
			Formula:        line.Formula,
			Order:          line.Order,
			EffectiveDate:  line.EffectiveDate.Format("2006-01-02"),
			AbsenceKind:    line.AbsenceKind,
			ShiftHours:     line.ShiftHours,
			Institution:    line.Institution,
			DisabilityKind: line.DisabilityKind,
			LicenseKind:    line.LicenseKind,
			BonusKind:      line.BonusKind,
		})
	}

	return res
}

func compensationOf(employee *model.Employee) engine.Compensation {
	return engine.Compensation{
		BaseSalary:       employee.BaseSalary,
		SalaryCurrency:   employee.SalaryCurrency,
		PayPeriodID:      employee.PayPeriodID,
		IsHourlySchedule: employee.IsHourlySchedule,
	}
}
