package engine

import (
	"github.com/google/uuid"

	"hrbackend/internal/model"
)

// RunOption is one payroll run offered to a line. Ineligible marks a run the
// user already selected that no longer passes the filter — it stays visible
// instead of being silently dropped.
type RunOption struct {
	Run        model.PayrollRun `json:"run"`
	Ineligible bool             `json:"ineligible"`
}

// MovementOption is one movement template offered to a line. Disabled marks
// an inactive template kept only because an existing line references it.
type MovementOption struct {
	Movement model.Movement `json:"movement"`
	Disabled bool           `json:"disabled"`
}

// EligibleRuns filters the payroll run catalog down to the runs a line of
// this employee may reference: same company, same pay period, same salary
// currency, still open. Runs in selected are always kept, flagged when they
// fail the filter. The second return is true when not a single eligible
// candidate remains — an empty result, not an error; callers decide whether
// that is a hard stop.
func EligibleRuns(companyID uuid.UUID, comp Compensation, runs []model.PayrollRun, selected map[uuid.UUID]bool) ([]RunOption, bool) {
	options := make([]RunOption, 0, len(runs))
	eligible := 0
	for _, run := range runs {
		ok := run.CompanyID == companyID &&
			run.PayPeriodID == comp.PayPeriodID &&
			run.Currency == comp.SalaryCurrency &&
			run.Status == model.PayrollRunOpen
		switch {
		case ok:
			options = append(options, RunOption{Run: run})
			eligible++
		case selected[run.ID]:
			options = append(options, RunOption{Run: run, Ineligible: true})
		}
	}
	return options, eligible == 0
}

// EligibleMovements filters the movement catalog down to the templates
// configured for the action type. Active templates are offered; inactive ones
// survive only while an existing line selects them, shown disabled rather
// than removed.
func EligibleMovements(actionType string, movements []model.Movement, selected map[uuid.UUID]bool) ([]MovementOption, bool) {
	typeID := model.ActionTypeIDs[actionType]
	options := make([]MovementOption, 0, len(movements))
	eligible := 0
	for _, mv := range movements {
		if mv.PersonalActionTypeID != typeID {
			continue
		}
		switch {
		case !mv.IsInactive:
			options = append(options, MovementOption{Movement: mv})
			eligible++
		case selected[mv.ID]:
			options = append(options, MovementOption{Movement: mv, Disabled: true})
		}
	}
	return options, eligible == 0
}
