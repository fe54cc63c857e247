package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrbackend/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func monthlyEmployee(salary string) Compensation {
	return Compensation{
		BaseSalary:     dec(salary),
		SalaryCurrency: "CRC",
		PayPeriodID:    model.PayPeriodMonthly,
	}
}

func TestCalculate_FixedAmount(t *testing.T) {
	tpl := MovementTemplate{IsFixedAmount: true, FixedAmount: dec("1500")}
	res := Calculate(tpl, monthlyEmployee("600000"), LineInput{Quantity: dec("3")})

	assert.True(t, res.Amount.Equal(dec("4500")), "got %s", res.Amount)
	assert.Equal(t, "Fixed: 1500 × 3", res.Formula)
}

func TestCalculate_FixedWinsOverPercentage(t *testing.T) {
	tpl := MovementTemplate{IsFixedAmount: true, FixedAmount: dec("200"), Percentage: dec("50")}
	res := Calculate(tpl, monthlyEmployee("600000"), LineInput{Quantity: dec("2")})

	assert.True(t, res.Amount.Equal(dec("400")), "got %s", res.Amount)
	assert.Contains(t, res.Formula, "Fixed:")
}

func TestCalculate_PercentageMonthly(t *testing.T) {
	// 600000/30 = 20000 daily, /8 = 2500 hourly, × 50% × 2 = 2500
	tpl := MovementTemplate{Percentage: dec("50")}
	res := Calculate(tpl, monthlyEmployee("600000"), LineInput{Quantity: dec("2"), ShiftHours: 8})

	assert.True(t, res.Amount.Equal(dec("2500")), "got %s", res.Amount)
	assert.Contains(t, res.Formula, "600000 / 30 / 8")
	assert.Contains(t, res.Formula, "50% × 2")
}

func TestCalculate_ShiftHoursDefaultToEight(t *testing.T) {
	tpl := MovementTemplate{Percentage: dec("50")}
	withDefault := Calculate(tpl, monthlyEmployee("600000"), LineInput{Quantity: dec("2")})
	explicit := Calculate(tpl, monthlyEmployee("600000"), LineInput{Quantity: dec("2"), ShiftHours: 8})

	assert.True(t, withDefault.Amount.Equal(explicit.Amount))
}

func TestCalculate_SixHourShift(t *testing.T) {
	// 600000/30/6 = 3333.33...; × 100% × 1 rounds half-up to 3333.33
	tpl := MovementTemplate{Percentage: dec("100")}
	res := Calculate(tpl, monthlyEmployee("600000"), LineInput{Quantity: dec("1"), ShiftHours: 6})

	assert.True(t, res.Amount.Equal(dec("3333.33")), "got %s", res.Amount)
}

func TestCalculate_HourlyContract(t *testing.T) {
	// Hourly schedule on a per-hour period: the salary field is the rate itself
	comp := Compensation{
		BaseSalary:       dec("2500"),
		SalaryCurrency:   "CRC",
		PayPeriodID:      model.PayPeriodWeekly,
		IsHourlySchedule: true,
	}
	tpl := MovementTemplate{Percentage: dec("100")}
	res := Calculate(tpl, comp, LineInput{Quantity: dec("2")})

	assert.True(t, res.Amount.Equal(dec("5000")), "got %s", res.Amount)
	assert.Contains(t, res.Formula, "Hourly rate")
}

func TestCalculate_HourlyScheduleOnMonthlyPeriodUsesDailyRate(t *testing.T) {
	// IsHourlySchedule only short-circuits for pay periods 8 and 11
	comp := Compensation{
		BaseSalary:       dec("600000"),
		SalaryCurrency:   "CRC",
		PayPeriodID:      model.PayPeriodMonthly,
		IsHourlySchedule: true,
	}
	tpl := MovementTemplate{Percentage: dec("50")}
	res := Calculate(tpl, comp, LineInput{Quantity: dec("2"), ShiftHours: 8})

	assert.True(t, res.Amount.Equal(dec("2500")), "got %s", res.Amount)
}

func TestCalculate_NoConfiguration(t *testing.T) {
	res := Calculate(MovementTemplate{}, monthlyEmployee("600000"), LineInput{Quantity: dec("3")})

	assert.True(t, res.Amount.IsZero())
	assert.Equal(t, "No calculation configuration", res.Formula)
}

func TestCalculate_RoundsHalfUp(t *testing.T) {
	tpl := MovementTemplate{IsFixedAmount: true, FixedAmount: dec("1.005")}
	res := Calculate(tpl, monthlyEmployee("0"), LineInput{Quantity: dec("1")})

	assert.True(t, res.Amount.Equal(dec("1.01")), "got %s", res.Amount)
}

func TestSanitizeAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"1500", "1500"},
		{"1,500.00", "150000"},
		{"₡ 2 500", "2500"},
		{"abc", "0"},
		{"", "0"},
		{"12345678901299999", "123456789012"}, // truncated to 12 digits
		{"-450", "450"},                       // sign stripped, never negative
	}

	for _, tc := range cases {
		got := SanitizeAmount(tc.raw)
		assert.True(t, got.Equal(dec(tc.want)), "SanitizeAmount(%q) = %s, want %s", tc.raw, got, tc.want)
	}
}

func TestSalaryPerPeriod(t *testing.T) {
	base := dec("600000")
	cases := []struct {
		periodID int
		want     string
	}{
		{model.PayPeriodWeekly, "150000"},
		{model.PayPeriodBiweekly, "300000"},
		{model.PayPeriodMonthly, "600000"},
		{model.PayPeriodFortnight, "300000"},
		{model.PayPeriodDaily, "20000"},
		{model.PayPeriodQuarterly, "1800000"},
		{model.PayPeriodSemester, "3600000"},
		{model.PayPeriodAnnual, "7200000"},
	}

	for _, tc := range cases {
		got := SalaryPerPeriod(base, tc.periodID, false)
		assert.True(t, got.Equal(dec(tc.want)), "period %d: got %s, want %s", tc.periodID, got, tc.want)
	}
}

func TestSalaryPerPeriod_PerHourContractsCollapseToZero(t *testing.T) {
	base := dec("600000")
	assert.True(t, SalaryPerPeriod(base, model.PayPeriodWeekly, true).IsZero())
	assert.True(t, SalaryPerPeriod(base, model.PayPeriodFortnight, true).IsZero())
	// other periods unaffected by the hourly flag
	assert.True(t, SalaryPerPeriod(base, model.PayPeriodMonthly, true).Equal(base))
}

func TestPeriodHours(t *testing.T) {
	cases := map[int]int{
		model.PayPeriodWeekly:    48,
		model.PayPeriodBiweekly:  96,
		model.PayPeriodMonthly:   192,
		model.PayPeriodFortnight: 96,
		model.PayPeriodDaily:     10,
		model.PayPeriodQuarterly: 576,
		model.PayPeriodSemester:  1152,
		model.PayPeriodAnnual:    2304,
	}

	for periodID, want := range cases {
		assert.Equal(t, want, PeriodHours(periodID, false), "period %d", periodID)
	}

	assert.Equal(t, 0, PeriodHours(model.PayPeriodWeekly, true))
	assert.Equal(t, 0, PeriodHours(model.PayPeriodFortnight, true))
	assert.Equal(t, 0, PeriodHours(99, false))
}

func TestCalculate_PropertyFixedAlwaysFixedTimesQuantity(t *testing.T) {
	quantities := []string{"1", "2", "3.5", "10", "0.5"}
	fixed := []string{"1500", "250.75", "99999"}

	for _, f := range fixed {
		for _, q := range quantities {
			tpl := MovementTemplate{IsFixedAmount: true, FixedAmount: dec(f), Percentage: dec("70")}
			res := Calculate(tpl, monthlyEmployee("123456"), LineInput{Quantity: dec(q)})
			want := dec(f).Mul(dec(q)).Round(2)
			require.True(t, res.Amount.Equal(want), "fixed=%s qty=%s: got %s want %s", f, q, res.Amount, want)
		}
	}
}
