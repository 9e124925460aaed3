package staff

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("teacher not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, teacher Teacher) (Teacher, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO teachers (first_name, last_name, email, subject, status)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id, created_at
  `, teacher.FirstName, teacher.LastName, teacher.Email, teacher.Subject, TeacherStatusActive).Scan(&teacher.ID, &teacher.CreatedAt)
	if err != nil {
		return Teacher{}, err
	}
	teacher.Status = TeacherStatusActive
	return teacher, nil
}

func (s *Store) Get(ctx context.Context, id string) (Teacher, error) {
	var teacher Teacher
	err := s.DB.QueryRow(ctx, `
    SELECT id, first_name, last_name, email, COALESCE(subject, ''), status, created_at
    FROM teachers
    WHERE id = $1
  `, id).Scan(&teacher.ID, &teacher.FirstName, &teacher.LastName, &teacher.Email, &teacher.Subject, &teacher.Status, &teacher.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Teacher{}, ErrNotFound
	}
	return teacher, err
}

func (s *Store) List(ctx context.Context, includeInactive bool) ([]Teacher, error) {
	query := `
    SELECT id, first_name, last_name, email, COALESCE(subject, ''), status, created_at
    FROM teachers
  `
	if !includeInactive {
		query += " WHERE status = 'active'"
	}
	query += " ORDER BY last_name, first_name"

	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teachers []Teacher
	for rows.Next() {
		var teacher Teacher
		if err := rows.Scan(&teacher.ID, &teacher.FirstName, &teacher.LastName, &teacher.Email, &teacher.Subject, &teacher.Status, &teacher.CreatedAt); err != nil {
			return nil, err
		}
		teachers = append(teachers, teacher)
	}
	return teachers, nil
}

func (s *Store) Update(ctx context.Context, teacher Teacher) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE teachers
    SET first_name = $1, last_name = $2, email = $3, subject = $4
    WHERE id = $5
  `, teacher.FirstName, teacher.LastName, teacher.Email, teacher.Subject, teacher.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetStatus(ctx context.Context, id, status string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE teachers SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
