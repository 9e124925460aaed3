package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("schedule entry not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// periodBounds returns the half-open UTC window [start, end) of a calendar month.
func periodBounds(month time.Month, year int) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func (s *Store) CreateSlot(ctx context.Context, slot Slot) (Slot, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO lesson_slots (teacher_id, subject, class_group, starts_at, ends_at, cancelled)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id, created_at
  `, slot.TeacherID, slot.Subject, slot.ClassGroup, slot.StartsAt, slot.EndsAt, slot.Cancelled).Scan(&slot.ID, &slot.CreatedAt)
	return slot, err
}

func (s *Store) CancelSlot(ctx context.Context, slotID string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE lesson_slots SET cancelled = true WHERE id = $1", slotID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListSlots(ctx context.Context, teacherID string, month time.Month, year int) ([]Slot, error) {
	start, end := periodBounds(month, year)
	rows, err := s.DB.Query(ctx, `
    SELECT id, teacher_id, subject, class_group, starts_at, ends_at, cancelled, created_at
    FROM lesson_slots
    WHERE teacher_id = $1 AND starts_at >= $2 AND starts_at < $3
    ORDER BY starts_at
  `, teacherID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var slot Slot
		if err := rows.Scan(&slot.ID, &slot.TeacherID, &slot.Subject, &slot.ClassGroup, &slot.StartsAt, &slot.EndsAt, &slot.Cancelled, &slot.CreatedAt); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (s *Store) CreateSubstitution(ctx context.Context, sub Substitution) (Substitution, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO substitutions (slot_id, substitute_teacher_id, reason)
    VALUES ($1,$2,$3)
    RETURNING id, created_at
  `, sub.SlotID, sub.SubstituteTeacherID, sub.Reason).Scan(&sub.ID, &sub.CreatedAt)
	return sub, err
}

func (s *Store) DeleteSubstitution(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM substitutions WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SlotTeacher(ctx context.Context, slotID string) (string, error) {
	var teacherID string
	err := s.DB.QueryRow(ctx, "SELECT teacher_id FROM lesson_slots WHERE id = $1", slotID).Scan(&teacherID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return teacherID, err
}

// substitutionRow joins the substitution with its slot so callers get the
// slot window and original teacher in one read.
type substitutionRow struct {
	Substitution
	StartsAt  time.Time
	EndsAt    time.Time
	Cancelled bool
}

func (s *Store) ListSubstitutionsTouchingTeacher(ctx context.Context, teacherID string, month time.Month, year int) ([]substitutionRow, error) {
	start, end := periodBounds(month, year)
	rows, err := s.DB.Query(ctx, `
    SELECT sub.id, sub.slot_id, ls.teacher_id, sub.substitute_teacher_id, COALESCE(sub.reason, ''), sub.created_at,
           ls.starts_at, ls.ends_at, ls.cancelled
    FROM substitutions sub
    JOIN lesson_slots ls ON sub.slot_id = ls.id
    WHERE (ls.teacher_id = $1 OR sub.substitute_teacher_id = $1)
      AND ls.starts_at >= $2 AND ls.starts_at < $3
    ORDER BY ls.starts_at
  `, teacherID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []substitutionRow
	for rows.Next() {
		var row substitutionRow
		if err := rows.Scan(
			&row.ID, &row.SlotID, &row.OriginalTeacherID, &row.SubstituteTeacherID, &row.Reason, &row.CreatedAt,
			&row.StartsAt, &row.EndsAt, &row.Cancelled,
		); err != nil {
			return nil, err
		}
		subs = append(subs, row)
	}
	return subs, nil
}
