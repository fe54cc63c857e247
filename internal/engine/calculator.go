package engine

import (
	"strings"

	"github.com/shopspring/decimal"

	"hrbackend/internal/model"
)

// maxAmountDigits bounds every monetary input: digits beyond this are cut
// before the value is accepted, independent of the formula path.
const maxAmountDigits = 12

// defaultShiftHours applies when a line does not carry its own shift length.
const defaultShiftHours = 8

// daysPerMonth converts the monthly base salary into a daily rate.
const daysPerMonth = 30

var (
	hundred = decimal.NewFromInt(100)
	thirty  = decimal.NewFromInt(daysPerMonth)
)

// Compensation is the employee snapshot the calculator reads. For hourly
// schedules on the per-hour pay periods (8 and 11) BaseSalary already is the
// hourly rate.
type Compensation struct {
	BaseSalary       decimal.Decimal
	SalaryCurrency   string
	PayPeriodID      int
	IsHourlySchedule bool
}

// MovementTemplate is the calculation configuration of a movement catalog
// entry, detached from its gorm row so the calculator stays storage-free.
type MovementTemplate struct {
	IsFixedAmount bool
	FixedAmount   decimal.Decimal
	Percentage    decimal.Decimal
}

// LineInput is what a single line contributes to the calculation.
type LineInput struct {
	Quantity   decimal.Decimal
	ShiftHours int // 0 means unset; defaults to 8
}

// CalcResult carries the computed amount and the human-readable formula that
// is persisted alongside it.
type CalcResult struct {
	Amount  decimal.Decimal
	Formula string
}

// periodSalaryFactor divides (or multiplies) the base salary into one pay
// period's worth. Keyed by pay period id; only meaningful for non-hourly
// schedules.
var periodSalaryFactor = map[int]decimal.Decimal{
	model.PayPeriodWeekly:    decimal.NewFromFloat(0.25),
	model.PayPeriodBiweekly:  decimal.NewFromFloat(0.5),
	model.PayPeriodMonthly:   decimal.NewFromInt(1),
	model.PayPeriodFortnight: decimal.NewFromFloat(0.5),
	model.PayPeriodDaily:     decimal.NewFromInt(1).Div(thirty),
	model.PayPeriodQuarterly: decimal.NewFromInt(3),
	model.PayPeriodSemester:  decimal.NewFromInt(6),
	model.PayPeriodAnnual:    decimal.NewFromInt(12),
}

// periodTotalHours is the total working hours in one pay period.
var periodTotalHours = map[int]int{
	model.PayPeriodWeekly:    48,
	model.PayPeriodBiweekly:  96,
	model.PayPeriodMonthly:   192,
	model.PayPeriodFortnight: 96,
	model.PayPeriodDaily:     10,
	model.PayPeriodQuarterly: 576,
	model.PayPeriodSemester:  1152,
	model.PayPeriodAnnual:    2304,
}

func perHourContract(payPeriodID int, hourly bool) bool {
	return hourly && (payPeriodID == model.PayPeriodWeekly || payPeriodID == model.PayPeriodFortnight)
}

// SalaryPerPeriod normalizes the base salary to one period's salary. Per-hour
// contracts have no fixed period salary, so the factor collapses to zero.
func SalaryPerPeriod(base decimal.Decimal, payPeriodID int, hourly bool) decimal.Decimal {
	if perHourContract(payPeriodID, hourly) {
		return decimal.Zero
	}
	factor, ok := periodSalaryFactor[payPeriodID]
	if !ok {
		return decimal.Zero
	}
	return base.Mul(factor).Round(2)
}

// PeriodHours returns the total hours of one pay period, zero for per-hour
// contracts and unknown ids.
func PeriodHours(payPeriodID int, hourly bool) int {
	if perHourContract(payPeriodID, hourly) {
		return 0
	}
	return periodTotalHours[payPeriodID]
}

// SanitizeAmount normalizes raw monetary input to a bounded non-negative
// integer value: every non-digit rune is stripped and the remaining digits
// are truncated to maxAmountDigits. Malformed or oversized input therefore
// degrades instead of overflowing.
func SanitizeAmount(raw string) decimal.Decimal {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == maxAmountDigits {
				break
			}
		}
	}
	if b.Len() == 0 {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero
	}
	return value
}

// Calculate computes one line's amount from its movement template and the
// employee's compensation snapshot.
//
// Priority: a fixed-amount template wins regardless of any percentage it also
// carries; then a percentage over the hourly rate; otherwise the line is
// accepted with a zero amount and a marker formula. All amounts round
// half-up to the currency's two minor-unit digits.
func Calculate(tpl MovementTemplate, comp Compensation, line LineInput) CalcResult {
	if tpl.IsFixedAmount && tpl.FixedAmount.IsPositive() {
		amount := tpl.FixedAmount.Mul(line.Quantity).Round(2)
		return CalcResult{
			Amount:  amount,
			Formula: "Fixed: " + tpl.FixedAmount.String() + " × " + line.Quantity.String(),
		}
	}

	if tpl.Percentage.IsPositive() {
		pct := tpl.Percentage.Div(hundred)
		if perHourContract(comp.PayPeriodID, comp.IsHourlySchedule) {
			// the salary field itself is the hourly rate
			amount := comp.BaseSalary.Mul(pct).Mul(line.Quantity).Round(2)
			return CalcResult{
				Amount:  amount,
				Formula: "Hourly rate " + comp.BaseSalary.String() + " × " + tpl.Percentage.String() + "% × " + line.Quantity.String(),
			}
		}

		hours := line.ShiftHours
		if hours <= 0 {
			hours = defaultShiftHours
		}
		dailyRate := comp.BaseSalary.Div(thirty)
		hourlyRate := dailyRate.Div(decimal.NewFromInt(int64(hours)))
		amount := hourlyRate.Mul(pct).Mul(line.Quantity).Round(2)
		return CalcResult{
			Amount: amount,
			Formula: "(" + comp.BaseSalary.String() + " / " + thirty.String() + " / " +
				decimal.NewFromInt(int64(hours)).String() + ") × " + tpl.Percentage.String() + "% × " + line.Quantity.String(),
		}
	}

	return CalcResult{Amount: decimal.Zero, Formula: "No calculation configuration"}
}
