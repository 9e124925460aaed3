package salary

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LessonSlot is the schedule provider's view of one scheduled lesson.
type LessonSlot struct {
	ID        string
	TeacherID string
	StartsAt  time.Time
	EndsAt    time.Time
	Cancelled bool
}

func (s LessonSlot) Hours() decimal.Decimal {
	minutes := s.EndsAt.Sub(s.StartsAt).Minutes()
	if minutes <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(minutes).Div(decimal.NewFromInt(60))
}

// Substitution records one slot delivered by someone other than the teacher
// it was assigned to.
type Substitution struct {
	SlotID              string
	OriginalTeacherID   string
	SubstituteTeacherID string
	StartsAt            time.Time
	EndsAt              time.Time
	Cancelled           bool
}

func (s Substitution) Hours() decimal.Decimal {
	return LessonSlot{StartsAt: s.StartsAt, EndsAt: s.EndsAt}.Hours()
}

// ScheduleProvider and SubstitutionProvider are the external collaborators
// the hours resolver reads from. The schedule domain implements both.
type ScheduleProvider interface {
	SlotsForTeacher(ctx context.Context, teacherID string, month time.Month, year int) ([]LessonSlot, error)
}

type SubstitutionProvider interface {
	// SubstitutionsForTeacher returns every substitution in the period where
	// the teacher is either the original or the substitute.
	SubstitutionsForTeacher(ctx context.Context, teacherID string, month time.Month, year int) ([]Substitution, error)
}

type HoursResolver struct {
	Schedule      ScheduleProvider
	Substitutions SubstitutionProvider
}

func NewHoursResolver(schedule ScheduleProvider, substitutions SubstitutionProvider) *HoursResolver {
	return &HoursResolver{Schedule: schedule, Substitutions: substitutions}
}

// Resolve derives worked hours for a teacher and calendar month. It is a
// pure function of provider data: recomputation with unchanged schedule and
// substitution records yields identical output.
//
// Classification per slot:
//   - delivered as scheduled: scheduled + worked
//   - substituted away:       scheduled + substitutedByOthers, not worked
//   - covered for another:    substitutedHours only, not scheduled
//   - cancelled:              excluded entirely
func (h *HoursResolver) Resolve(ctx context.Context, teacherID string, month time.Month, year int) (WorkedHours, error) {
	slots, err := h.Schedule.SlotsForTeacher(ctx, teacherID, month, year)
	if err != nil {
		return WorkedHours{}, fmt.Errorf("resolve schedule: %w", err)
	}
	if len(slots) == 0 {
		return WorkedHours{}, fmt.Errorf("%w: teacher %s, %d-%02d", ErrNoScheduleData, teacherID, year, int(month))
	}

	subs, err := h.Substitutions.SubstitutionsForTeacher(ctx, teacherID, month, year)
	if err != nil {
		return WorkedHours{}, fmt.Errorf("resolve substitutions: %w", err)
	}

	givenAway := make(map[string]bool, len(subs))
	for _, sub := range subs {
		if sub.OriginalTeacherID == teacherID && !sub.Cancelled {
			givenAway[sub.SlotID] = true
		}
	}

	var out WorkedHours
	for _, slot := range slots {
		if slot.Cancelled {
			continue
		}
		hours := slot.Hours()
		out.ScheduledHours = out.ScheduledHours.Add(hours)
		if givenAway[slot.ID] {
			out.SubstitutedByOthers = out.SubstitutedByOthers.Add(hours)
		} else {
			out.WorkedHours = out.WorkedHours.Add(hours)
		}
	}

	for _, sub := range subs {
		if sub.Cancelled || sub.SubstituteTeacherID != teacherID {
			continue
		}
		out.SubstitutedHours = out.SubstitutedHours.Add(sub.Hours())
	}

	return out, nil
}
