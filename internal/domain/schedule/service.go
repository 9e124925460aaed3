package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"academy/internal/domain/salary"
)

// Service owns schedule CRUD and doubles as the payroll core's schedule and
// substitution provider.
type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) CreateSlot(ctx context.Context, slot Slot) (Slot, error) {
	if strings.TrimSpace(slot.TeacherID) == "" {
		return Slot{}, fmt.Errorf("teacher id is required")
	}
	if !slot.EndsAt.After(slot.StartsAt) {
		return Slot{}, fmt.Errorf("slot must end after it starts")
	}
	return s.store.CreateSlot(ctx, slot)
}

func (s *Service) CancelSlot(ctx context.Context, slotID string) error {
	return s.store.CancelSlot(ctx, slotID)
}

func (s *Service) ListSlots(ctx context.Context, teacherID string, month time.Month, year int) ([]Slot, error) {
	return s.store.ListSlots(ctx, teacherID, month, year)
}

// CreateSubstitution assigns a slot to a substitute. A teacher cannot
// substitute their own slot.
func (s *Service) CreateSubstitution(ctx context.Context, slotID, substituteTeacherID, reason string) (Substitution, error) {
	originalTeacherID, err := s.store.SlotTeacher(ctx, slotID)
	if err != nil {
		return Substitution{}, err
	}
	if originalTeacherID == substituteTeacherID {
		return Substitution{}, fmt.Errorf("substitute must differ from the assigned teacher")
	}
	sub, err := s.store.CreateSubstitution(ctx, Substitution{
		SlotID:              slotID,
		SubstituteTeacherID: substituteTeacherID,
		Reason:              strings.TrimSpace(reason),
	})
	if err != nil {
		return Substitution{}, err
	}
	sub.OriginalTeacherID = originalTeacherID
	return sub, nil
}

func (s *Service) DeleteSubstitution(ctx context.Context, id string) error {
	return s.store.DeleteSubstitution(ctx, id)
}

// SlotsForTeacher implements salary.ScheduleProvider.
func (s *Service) SlotsForTeacher(ctx context.Context, teacherID string, month time.Month, year int) ([]salary.LessonSlot, error) {
	slots, err := s.store.ListSlots(ctx, teacherID, month, year)
	if err != nil {
		return nil, err
	}
	out := make([]salary.LessonSlot, 0, len(slots))
	for _, slot := range slots {
		out = append(out, salary.LessonSlot{
			ID:        slot.ID,
			TeacherID: slot.TeacherID,
			StartsAt:  slot.StartsAt,
			EndsAt:    slot.EndsAt,
			Cancelled: slot.Cancelled,
		})
	}
	return out, nil
}

// SubstitutionsForTeacher implements salary.SubstitutionProvider.
func (s *Service) SubstitutionsForTeacher(ctx context.Context, teacherID string, month time.Month, year int) ([]salary.Substitution, error) {
	rows, err := s.store.ListSubstitutionsTouchingTeacher(ctx, teacherID, month, year)
	if err != nil {
		return nil, err
	}
	out := make([]salary.Substitution, 0, len(rows))
	for _, row := range rows {
		out = append(out, salary.Substitution{
			SlotID:              row.SlotID,
			OriginalTeacherID:   row.OriginalTeacherID,
			SubstituteTeacherID: row.SubstituteTeacherID,
			StartsAt:            row.StartsAt,
			EndsAt:              row.EndsAt,
			Cancelled:           row.Cancelled,
		})
	}
	return out, nil
}
