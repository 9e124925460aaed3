package salary

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestRateTotalRate(t *testing.T) {
	rate := Rate{
		TeacherID: "t-1",
		BaseRate:  dec("12000"),
		Factors: []RateFactor{
			{Name: "Experience", Amount: dec("2000")},
			{Name: "Category", Amount: dec("1000")},
		},
	}
	assertDecimal(t, "15000", rate.TotalRate())
}

func TestRateTotalRateNoFactors(t *testing.T) {
	rate := Rate{BaseRate: dec("9500")}
	assertDecimal(t, "9500", rate.TotalRate())
}

func TestEffectiveAmountPercentage(t *testing.T) {
	bonus := Adjustment{Name: "Премия", Amount: dec("10"), IsPercentage: true}
	assertDecimal(t, "180000", EffectiveAmount(bonus, dec("1800000")))
}

func TestEffectiveAmountFlat(t *testing.T) {
	allowance := Adjustment{Name: "Стаж", Amount: dec("2000")}
	assertDecimal(t, "2000", EffectiveAmount(allowance, dec("1800000")))
}

func TestEffectiveAmountPercentageAboveHundred(t *testing.T) {
	// A 150% bonus is valid; the engine never clamps.
	bonus := Adjustment{Name: "Special", Amount: dec("150"), IsPercentage: true}
	assertDecimal(t, "1500", EffectiveAmount(bonus, dec("1000")))
}

func TestApplyAdjustmentsSkipsIncompleteRows(t *testing.T) {
	base := dec("100000")
	total := ApplyAdjustments([]Adjustment{
		{Name: "Transport", Amount: dec("5000")},
		{Name: "", Amount: dec("7000")},     // abandoned form row
		{Name: "Meals", Amount: dec("0")},   // zero amount, not a line item
		{Name: "Seniority", Amount: dec("10"), IsPercentage: true},
	}, base)
	assertDecimal(t, "15000", total)
}

func TestCalculateEndToEnd(t *testing.T) {
	allowances := []Adjustment{{Name: "Стаж", Amount: dec("2000")}}
	bonuses := []Adjustment{{Name: "Премия", Amount: dec("5"), IsPercentage: true}}
	deductions := []Adjustment{{Name: "Аванс", Amount: dec("100000")}}

	totals := Calculate(dec("15000"), dec("120"), allowances, bonuses, deductions)

	assertDecimal(t, "1800000", totals.BaseSalary)
	assertDecimal(t, "2000", totals.TotalAllowances)
	assertDecimal(t, "90000", totals.TotalBonuses)
	assertDecimal(t, "100000", totals.TotalDeductions)
	assertDecimal(t, "1892000", totals.TotalGross)
	assertDecimal(t, "1792000", totals.TotalNet)
}

func TestCalculateNetInvariant(t *testing.T) {
	totals := Calculate(dec("10000"), dec("80"),
		[]Adjustment{{Name: "A", Amount: dec("1500")}},
		[]Adjustment{{Name: "B", Amount: dec("12.5"), IsPercentage: true}},
		[]Adjustment{{Name: "D", Amount: dec("3000")}},
	)
	want := totals.BaseSalary.
		Add(totals.TotalAllowances).
		Add(totals.TotalBonuses).
		Sub(totals.TotalDeductions)
	assert.True(t, want.Equal(totals.TotalNet), "net must equal base+allowances+bonuses-deductions")
}

func TestRecalculateIsIdempotent(t *testing.T) {
	record := Record{
		HourlyRate:  dec("15000"),
		HoursWorked: dec("120"),
		Allowances:  []Adjustment{{Name: "Стаж", Amount: dec("2000")}},
		Bonuses:     []Adjustment{{Name: "Премия", Amount: dec("5"), IsPercentage: true}},
		Deductions:  []Adjustment{{Name: "Аванс", Amount: dec("100000")}},
	}
	record.Recalculate()
	first := record.Totals
	record.Recalculate()
	assert.Equal(t, first, record.Totals)
}

func TestValidateFactors(t *testing.T) {
	require.NoError(t, ValidateFactors([]RateFactor{{Name: "Experience", Amount: dec("100")}}))

	err := ValidateFactors([]RateFactor{{Name: "Experience", Amount: dec("-1")}})
	require.ErrorIs(t, err, ErrValidation)

	err = ValidateFactors([]RateFactor{{Name: "  ", Amount: dec("10")}})
	require.ErrorIs(t, err, ErrValidation)
}

func TestValidateAdjustmentsRejectsNegative(t *testing.T) {
	err := ValidateAdjustments("deduction", []Adjustment{{Name: "Fine", Amount: dec("-500")}})
	require.ErrorIs(t, err, ErrValidation)
}

func TestValidatePeriod(t *testing.T) {
	require.NoError(t, ValidatePeriod(1, 2026))
	require.ErrorIs(t, ValidatePeriod(0, 2026), ErrValidation)
	require.ErrorIs(t, ValidatePeriod(13, 2026), ErrValidation)
	require.ErrorIs(t, ValidatePeriod(6, 1999), ErrValidation)
}
