package salary

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusApproved  Status = "approved"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// RateFactor is a named per-hour increment on top of the base rate
// (experience, category, qualifications and so on). Always additive,
// never a percentage.
type RateFactor struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type Rate struct {
	TeacherID string          `json:"teacherId"`
	BaseRate  decimal.Decimal `json:"baseRate"`
	Factors   []RateFactor    `json:"factors"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// TotalRate is always derived, never stored.
func (r Rate) TotalRate() decimal.Decimal {
	total := r.BaseRate
	for _, factor := range r.Factors {
		total = total.Add(factor.Amount)
	}
	return total
}

// Adjustment is the shared shape for allowance, bonus and deduction line
// items. A percentage adjustment is computed against the base salary, never
// against the running gross.
type Adjustment struct {
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	IsPercentage bool            `json:"isPercentage"`
	Comment      string          `json:"comment,omitempty"`
}

type WorkedHours struct {
	ScheduledHours      decimal.Decimal `json:"scheduledHours"`
	WorkedHours         decimal.Decimal `json:"workedHours"`
	SubstitutedHours    decimal.Decimal `json:"substitutedHours"`
	SubstitutedByOthers decimal.Decimal `json:"substitutedByOthers"`
}

// TotalUsableHours is the hours multiplicand for salary calculation: hours
// the teacher actually delivered plus hours covered for other teachers.
func (w WorkedHours) TotalUsableHours() decimal.Decimal {
	return w.WorkedHours.Add(w.SubstitutedHours)
}

// Totals are cached results of Calculate. They must always be recomputable
// from the record's rate/hours snapshot and its adjustment lists.
type Totals struct {
	BaseSalary      decimal.Decimal `json:"baseSalary"`
	TotalAllowances decimal.Decimal `json:"totalAllowances"`
	TotalBonuses    decimal.Decimal `json:"totalBonuses"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	TotalGross      decimal.Decimal `json:"totalGross"`
	TotalNet        decimal.Decimal `json:"totalNet"`
}

// Record is one payroll computation for a teacher for a month/year.
// HourlyRate and HoursWorked are snapshots taken at creation or explicit
// recalculation time; they are not re-derived on read.
type Record struct {
	ID          string          `json:"id"`
	TeacherID   string          `json:"teacherId"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	HourlyRate  decimal.Decimal `json:"hourlyRate"`
	HoursWorked decimal.Decimal `json:"hoursWorked"`
	Allowances  []Adjustment    `json:"allowances"`
	Bonuses     []Adjustment    `json:"bonuses"`
	Deductions  []Adjustment    `json:"deductions"`
	Totals
	Status       Status     `json:"status"`
	ApprovedBy   string     `json:"approvedBy,omitempty"`
	ApprovedAt   *time.Time `json:"approvedAt,omitempty"`
	PaidAt       *time.Time `json:"paidAt,omitempty"`
	RejectReason string     `json:"rejectReason,omitempty"`
	Version      int        `json:"version"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type BatchOutcome struct {
	TeacherID string `json:"teacherId"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

const (
	BatchRecalculated = "recalculated"
	BatchCreated      = "created"
	BatchSkipped      = "skipped"
	BatchFailed       = "failed"
)

type BatchResult struct {
	Month     int            `json:"month"`
	Year      int            `json:"year"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	Outcomes  []BatchOutcome `json:"outcomes"`
}
