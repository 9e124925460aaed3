package salary

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSchedule struct {
	slots map[string][]LessonSlot
}

func (f *fakeSchedule) SlotsForTeacher(_ context.Context, teacherID string, _ time.Month, _ int) ([]LessonSlot, error) {
	return f.slots[teacherID], nil
}

type fakeSubstitutions struct {
	subs map[string][]Substitution
}

func (f *fakeSubstitutions) SubstitutionsForTeacher(_ context.Context, teacherID string, _ time.Month, _ int) ([]Substitution, error) {
	return f.subs[teacherID], nil
}

func slotAt(id, teacherID string, day, hour, durationMinutes int) LessonSlot {
	start := time.Date(2026, time.February, day, hour, 0, 0, 0, time.UTC)
	return LessonSlot{
		ID:        id,
		TeacherID: teacherID,
		StartsAt:  start,
		EndsAt:    start.Add(time.Duration(durationMinutes) * time.Minute),
	}
}

func TestResolveHoursDeliveredPlusSubstituted(t *testing.T) {
	// Spec scenario: 10h scheduled and delivered, 2h substituted in,
	// nothing given away => 12 usable hours.
	schedule := &fakeSchedule{slots: map[string][]LessonSlot{
		"t-1": {
			slotAt("s1", "t-1", 2, 9, 120),
			slotAt("s2", "t-1", 3, 9, 120),
			slotAt("s3", "t-1", 4, 9, 120),
			slotAt("s4", "t-1", 5, 9, 120),
			slotAt("s5", "t-1", 6, 9, 120),
		},
	}}
	other := slotAt("s9", "t-2", 6, 14, 120)
	subs := &fakeSubstitutions{subs: map[string][]Substitution{
		"t-1": {{
			SlotID:              other.ID,
			OriginalTeacherID:   "t-2",
			SubstituteTeacherID: "t-1",
			StartsAt:            other.StartsAt,
			EndsAt:              other.EndsAt,
		}},
	}}

	resolver := NewHoursResolver(schedule, subs)
	hours, err := resolver.Resolve(context.Background(), "t-1", time.February, 2026)
	require.NoError(t, err)

	assertDecimal(t, "10", hours.ScheduledHours)
	assertDecimal(t, "10", hours.WorkedHours)
	assertDecimal(t, "2", hours.SubstitutedHours)
	assertDecimal(t, "0", hours.SubstitutedByOthers)
	assertDecimal(t, "12", hours.TotalUsableHours())
}

func TestResolveHoursSubstitutedAway(t *testing.T) {
	schedule := &fakeSchedule{slots: map[string][]LessonSlot{
		"t-1": {
			slotAt("s1", "t-1", 2, 9, 90),
			slotAt("s2", "t-1", 3, 9, 90),
		},
	}}
	subs := &fakeSubstitutions{subs: map[string][]Substitution{
		"t-1": {{
			SlotID:              "s2",
			OriginalTeacherID:   "t-1",
			SubstituteTeacherID: "t-2",
			StartsAt:            time.Date(2026, time.February, 3, 9, 0, 0, 0, time.UTC),
			EndsAt:              time.Date(2026, time.February, 3, 10, 30, 0, 0, time.UTC),
		}},
	}}

	resolver := NewHoursResolver(schedule, subs)
	hours, err := resolver.Resolve(context.Background(), "t-1", time.February, 2026)
	require.NoError(t, err)

	// Given-away hours stay scheduled but are not worked.
	assertDecimal(t, "3", hours.ScheduledHours)
	assertDecimal(t, "1.5", hours.WorkedHours)
	assertDecimal(t, "1.5", hours.SubstitutedByOthers)
	assertDecimal(t, "1.5", hours.TotalUsableHours())
}

func TestResolveHoursIgnoresCancelledSlots(t *testing.T) {
	cancelled := slotAt("s2", "t-1", 3, 9, 120)
	cancelled.Cancelled = true
	schedule := &fakeSchedule{slots: map[string][]LessonSlot{
		"t-1": {slotAt("s1", "t-1", 2, 9, 120), cancelled},
	}}
	resolver := NewHoursResolver(schedule, &fakeSubstitutions{})

	hours, err := resolver.Resolve(context.Background(), "t-1", time.February, 2026)
	require.NoError(t, err)
	assertDecimal(t, "2", hours.ScheduledHours)
	assertDecimal(t, "2", hours.WorkedHours)
}

func TestResolveHoursNoScheduleData(t *testing.T) {
	resolver := NewHoursResolver(&fakeSchedule{}, &fakeSubstitutions{})
	_, err := resolver.Resolve(context.Background(), "t-unknown", time.February, 2026)
	require.ErrorIs(t, err, ErrNoScheduleData)
}

func TestResolveHoursIdempotent(t *testing.T) {
	schedule := &fakeSchedule{slots: map[string][]LessonSlot{
		"t-1": {slotAt("s1", "t-1", 2, 9, 45), slotAt("s2", "t-1", 2, 11, 45)},
	}}
	resolver := NewHoursResolver(schedule, &fakeSubstitutions{})

	first, err := resolver.Resolve(context.Background(), "t-1", time.February, 2026)
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), "t-1", time.February, 2026)
	require.NoError(t, err)

	require.True(t, first.ScheduledHours.Equal(second.ScheduledHours))
	require.True(t, first.WorkedHours.Equal(second.WorkedHours))
	require.True(t, first.TotalUsableHours().Equal(second.TotalUsableHours()))
}
