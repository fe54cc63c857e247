package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrbackend/internal/model"
)

func run(companyID uuid.UUID, periodID int, currency, status string) model.PayrollRun {
	return model.PayrollRun{
		ID:          uuid.New(),
		CompanyID:   companyID,
		PayPeriodID: periodID,
		Currency:    currency,
		Status:      status,
	}
}

func TestEligibleRuns_FiltersByCompanyPeriodAndCurrency(t *testing.T) {
	companyID := uuid.New()
	comp := Compensation{SalaryCurrency: "CRC", PayPeriodID: model.PayPeriodMonthly}

	matching := run(companyID, model.PayPeriodMonthly, "CRC", model.PayrollRunOpen)
	runs := []model.PayrollRun{
		matching,
		run(uuid.New(), model.PayPeriodMonthly, "CRC", model.PayrollRunOpen),  // other company
		run(companyID, model.PayPeriodBiweekly, "CRC", model.PayrollRunOpen),  // other period
		run(companyID, model.PayPeriodMonthly, "USD", model.PayrollRunOpen),   // other currency
		run(companyID, model.PayPeriodMonthly, "CRC", model.PayrollRunClosed), // not open
	}

	options, none := EligibleRuns(companyID, comp, runs, nil)

	require.False(t, none)
	require.Len(t, options, 1)
	assert.Equal(t, matching.ID, options[0].Run.ID)
	assert.False(t, options[0].Ineligible)
}

func TestEligibleRuns_SelectedRunNeverSilentlyDropped(t *testing.T) {
	companyID := uuid.New()
	comp := Compensation{SalaryCurrency: "CRC", PayPeriodID: model.PayPeriodMonthly}

	closed := run(companyID, model.PayPeriodMonthly, "CRC", model.PayrollRunClosed)
	open := run(companyID, model.PayPeriodMonthly, "CRC", model.PayrollRunOpen)

	options, none := EligibleRuns(companyID, comp, []model.PayrollRun{closed, open},
		map[uuid.UUID]bool{closed.ID: true})

	require.False(t, none)
	require.Len(t, options, 2)
	assert.True(t, options[0].Ineligible, "previously selected closed run must stay visible, flagged")
	assert.False(t, options[1].Ineligible)
}

func TestEligibleRuns_EmptyResultSignalsNotErrors(t *testing.T) {
	companyID := uuid.New()
	comp := Compensation{SalaryCurrency: "CRC", PayPeriodID: model.PayPeriodMonthly}

	options, none := EligibleRuns(companyID, comp, []model.PayrollRun{
		run(companyID, model.PayPeriodBiweekly, "CRC", model.PayrollRunOpen),
	}, nil)

	assert.Empty(t, options)
	assert.True(t, none)
}

func TestEligibleRuns_OnlyFlaggedSelectionStillSignalsEmpty(t *testing.T) {
	companyID := uuid.New()
	comp := Compensation{SalaryCurrency: "CRC", PayPeriodID: model.PayPeriodMonthly}

	closed := run(companyID, model.PayPeriodMonthly, "CRC", model.PayrollRunClosed)
	options, none := EligibleRuns(companyID, comp, []model.PayrollRun{closed},
		map[uuid.UUID]bool{closed.ID: true})

	require.Len(t, options, 1)
	assert.True(t, none, "a kept-but-ineligible selection is not an eligible candidate")
}

func movement(typeID int, inactive bool) model.Movement {
	return model.Movement{ID: uuid.New(), PersonalActionTypeID: typeID, IsInactive: inactive}
}

func TestEligibleMovements_FiltersByActionType(t *testing.T) {
	bonusID := model.ActionTypeIDs[model.ActionTypeBonus]
	wanted := movement(bonusID, false)

	options, none := EligibleMovements(model.ActionTypeBonus, []model.Movement{
		wanted,
		movement(model.ActionTypeIDs[model.ActionTypeAbsence], false),
	}, nil)

	require.False(t, none)
	require.Len(t, options, 1)
	assert.Equal(t, wanted.ID, options[0].Movement.ID)
}

func TestEligibleMovements_InactiveSelectedShownDisabled(t *testing.T) {
	bonusID := model.ActionTypeIDs[model.ActionTypeBonus]
	inactive := movement(bonusID, true)
	active := movement(bonusID, false)

	options, none := EligibleMovements(model.ActionTypeBonus,
		[]model.Movement{inactive, active},
		map[uuid.UUID]bool{inactive.ID: true})

	require.False(t, none)
	require.Len(t, options, 2)
	assert.True(t, options[0].Disabled)
	assert.False(t, options[1].Disabled)
}

func TestEligibleMovements_UnselectedInactiveRemoved(t *testing.T) {
	bonusID := model.ActionTypeIDs[model.ActionTypeBonus]
	options, none := EligibleMovements(model.ActionTypeBonus,
		[]model.Movement{movement(bonusID, true)}, nil)

	assert.Empty(t, options)
	assert.True(t, none)
}
