package salary

import (
	"fmt"
	"strings"
	"time"
)

// Workflow: draft -> approved -> paid, with draft|approved -> cancelled as
// the only side exit. Nothing leaves paid or cancelled; a paid record's
// monetary fields are frozen.

func (r *Record) Approve(approverID string, now time.Time) error {
	if strings.TrimSpace(approverID) == "" {
		return fmt.Errorf("%w: approver is required", ErrValidation)
	}
	if r.Status != StatusDraft {
		return fmt.Errorf("%w: cannot approve a %s record", ErrInvalidTransition, r.Status)
	}
	r.Status = StatusApproved
	r.ApprovedBy = approverID
	r.ApprovedAt = &now
	return nil
}

func (r *Record) MarkPaid(now time.Time) error {
	if r.Status != StatusApproved {
		return fmt.Errorf("%w: cannot pay a %s record", ErrInvalidTransition, r.Status)
	}
	r.Status = StatusPaid
	r.PaidAt = &now
	return nil
}

func (r *Record) Reject(reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}
	if r.Status != StatusDraft && r.Status != StatusApproved {
		return fmt.Errorf("%w: cannot reject a %s record", ErrInvalidTransition, r.Status)
	}
	r.Status = StatusCancelled
	r.RejectReason = strings.TrimSpace(reason)
	return nil
}

// EditAdjustments replaces all three adjustment lists and recomputes totals.
// Editing an approved record demotes it back to draft: the changed numbers
// must pass approval again before payment.
func (r *Record) EditAdjustments(allowances, bonuses, deductions []Adjustment) error {
	if r.Status != StatusDraft && r.Status != StatusApproved {
		return fmt.Errorf("%w: cannot edit a %s record", ErrInvalidTransition, r.Status)
	}

	if err := ValidateAdjustments("allowance", allowances); err != nil {
		return err
	}
	if err := ValidateAdjustments("bonus", bonuses); err != nil {
		return err
	}
	if err := ValidateAdjustments("deduction", deductions); err != nil {
		return err
	}

	if r.Status == StatusApproved {
		r.Status = StatusDraft
		r.ApprovedBy = ""
		r.ApprovedAt = nil
	}

	r.Allowances = allowances
	r.Bonuses = bonuses
	r.Deductions = deductions
	r.Recalculate()
	return nil
}
