package salary

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// EffectiveAmount resolves an adjustment to money. Percentage adjustments
// apply to the base salary; values outside [0,100] are deliberately allowed
// (a 150% bonus is a valid line item).
func EffectiveAmount(adj Adjustment, baseSalary decimal.Decimal) decimal.Decimal {
	if adj.IsPercentage {
		return baseSalary.Mul(adj.Amount).Div(hundred)
	}
	return adj.Amount
}

// countsTowardTotal excludes incomplete rows: an adjustment without a name
// or with a zero amount is an abandoned form row, not a zero-value line item.
func countsTowardTotal(adj Adjustment) bool {
	return strings.TrimSpace(adj.Name) != "" && !adj.Amount.IsZero()
}

// ApplyAdjustments returns the summed effective value of a list of
// adjustments against a base salary.
func ApplyAdjustments(adjustments []Adjustment, baseSalary decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, adj := range adjustments {
		if !countsTowardTotal(adj) {
			continue
		}
		total = total.Add(EffectiveAmount(adj, baseSalary))
	}
	return total
}

// Calculate derives the full set of salary totals from a rate, an hours
// multiplicand and the three adjustment lists. No intermediate rounding:
// display rounding happens at the serialization edge only.
func Calculate(totalRate, usableHours decimal.Decimal, allowances, bonuses, deductions []Adjustment) Totals {
	base := totalRate.Mul(usableHours)
	totals := Totals{
		BaseSalary:      base,
		TotalAllowances: ApplyAdjustments(allowances, base),
		TotalBonuses:    ApplyAdjustments(bonuses, base),
		TotalDeductions: ApplyAdjustments(deductions, base),
	}
	totals.TotalGross = base.Add(totals.TotalAllowances).Add(totals.TotalBonuses)
	totals.TotalNet = totals.TotalGross.Sub(totals.TotalDeductions)
	return totals
}

// Recalculate refreshes the cached totals from the record's own snapshot and
// adjustment lists.
func (r *Record) Recalculate() {
	r.Totals = Calculate(r.HourlyRate, r.HoursWorked, r.Allowances, r.Bonuses, r.Deductions)
}

func ValidateFactors(factors []RateFactor) error {
	for i, factor := range factors {
		if strings.TrimSpace(factor.Name) == "" {
			return fmt.Errorf("%w: factor %d has no name", ErrValidation, i)
		}
		if factor.Amount.IsNegative() {
			return fmt.Errorf("%w: factor %q has a negative amount", ErrValidation, factor.Name)
		}
	}
	return nil
}

// ValidateAdjustments rejects negative amounts up front; the engine never
// silently coerces invalid input. Unnamed zero rows are tolerated here (the
// calculator skips them) but a named row must carry a non-negative amount.
func ValidateAdjustments(kind string, adjustments []Adjustment) error {
	for _, adj := range adjustments {
		if adj.Amount.IsNegative() {
			name := adj.Name
			if name == "" {
				name = "(unnamed)"
			}
			return fmt.Errorf("%w: %s %q has a negative amount", ErrValidation, kind, name)
		}
	}
	return nil
}

func ValidatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrValidation, month)
	}
	if year < 2000 || year > 2100 {
		return fmt.Errorf("%w: year %d out of range", ErrValidation, year)
	}
	return nil
}
