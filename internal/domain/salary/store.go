package salary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) GetRate(ctx context.Context, teacherID string) (Rate, error) {
	var rate Rate
	var factorsJSON []byte
	err := s.DB.QueryRow(ctx, `
    SELECT teacher_id, base_rate, factors, updated_at
    FROM salary_rates
    WHERE teacher_id = $1
  `, teacherID).Scan(&rate.TeacherID, &rate.BaseRate, &factorsJSON, &rate.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rate{}, fmt.Errorf("%w: teacher %s", ErrRateNotConfigured, teacherID)
	}
	if err != nil {
		return Rate{}, err
	}
	if err := json.Unmarshal(factorsJSON, &rate.Factors); err != nil {
		return Rate{}, fmt.Errorf("decode rate factors: %w", err)
	}
	return rate, nil
}

// UpsertRate fully replaces the factor list; there are no partial patch
// semantics for factors.
func (s *Store) UpsertRate(ctx context.Context, rate Rate) (Rate, error) {
	factorsJSON, err := json.Marshal(rate.Factors)
	if err != nil {
		return Rate{}, err
	}
	err = s.DB.QueryRow(ctx, `
    INSERT INTO salary_rates (teacher_id, base_rate, factors)
    VALUES ($1,$2,$3)
    ON CONFLICT (teacher_id)
    DO UPDATE SET base_rate = EXCLUDED.base_rate, factors = EXCLUDED.factors, updated_at = now()
    RETURNING updated_at
  `, rate.TeacherID, rate.BaseRate, factorsJSON).Scan(&rate.UpdatedAt)
	if err != nil {
		return Rate{}, err
	}
	return rate, nil
}

func (s *Store) ListRates(ctx context.Context) ([]Rate, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT teacher_id, base_rate, factors, updated_at
    FROM salary_rates
    ORDER BY teacher_id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []Rate
	for rows.Next() {
		var rate Rate
		var factorsJSON []byte
		if err := rows.Scan(&rate.TeacherID, &rate.BaseRate, &factorsJSON, &rate.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(factorsJSON, &rate.Factors); err != nil {
			return nil, fmt.Errorf("decode rate factors: %w", err)
		}
		rates = append(rates, rate)
	}
	return rates, nil
}

const recordColumns = `
  id, teacher_id, month, year, hourly_rate, hours_worked,
  allowances, bonuses, deductions,
  base_salary, total_allowances, total_bonuses, total_deductions, total_gross, total_net,
  status, COALESCE(approved_by::text, ''), approved_at, paid_at, COALESCE(reject_reason, ''),
  version, created_at, updated_at`

func (s *Store) InsertRecord(ctx context.Context, record *Record) error {
	allowances, bonuses, deductions, err := marshalAdjustments(record)
	if err != nil {
		return err
	}
	return s.DB.QueryRow(ctx, `
    INSERT INTO salary_records (
      id, teacher_id, month, year, hourly_rate, hours_worked,
      allowances, bonuses, deductions,
      base_salary, total_allowances, total_bonuses, total_deductions, total_gross, total_net,
      status, version
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
    RETURNING created_at, updated_at
  `,
		record.ID, record.TeacherID, record.Month, record.Year, record.HourlyRate, record.HoursWorked,
		allowances, bonuses, deductions,
		record.BaseSalary, record.TotalAllowances, record.TotalBonuses, record.TotalDeductions, record.TotalGross, record.TotalNet,
		record.Status, record.Version,
	).Scan(&record.CreatedAt, &record.UpdatedAt)
}

func (s *Store) GetRecord(ctx context.Context, id string) (Record, error) {
	row := s.DB.QueryRow(ctx, "SELECT"+recordColumns+" FROM salary_records WHERE id = $1", id)
	return scanRecord(row)
}

func (s *Store) FindRecord(ctx context.Context, teacherID string, month, year int) (Record, error) {
	row := s.DB.QueryRow(ctx, "SELECT"+recordColumns+` FROM salary_records
    WHERE teacher_id = $1 AND month = $2 AND year = $3 AND status <> 'cancelled'`,
		teacherID, month, year)
	return scanRecord(row)
}

func (s *Store) ListRecords(ctx context.Context, month, year int) ([]Record, error) {
	rows, err := s.DB.Query(ctx, "SELECT"+recordColumns+` FROM salary_records
    WHERE month = $1 AND year = $2
    ORDER BY teacher_id`, month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Store) UpdateRecord(ctx context.Context, record *Record) error {
	allowances, bonuses, deductions, err := marshalAdjustments(record)
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE salary_records
    SET hourly_rate = $1, hours_worked = $2,
        allowances = $3, bonuses = $4, deductions = $5,
        base_salary = $6, total_allowances = $7, total_bonuses = $8,
        total_deductions = $9, total_gross = $10, total_net = $11,
        status = $12, approved_by = $13, approved_at = $14, paid_at = $15,
        reject_reason = $16, version = version + 1, updated_at = now()
    WHERE id = $17 AND version = $18
  `,
		record.HourlyRate, record.HoursWorked,
		allowances, bonuses, deductions,
		record.BaseSalary, record.TotalAllowances, record.TotalBonuses,
		record.TotalDeductions, record.TotalGross, record.TotalNet,
		record.Status, nullIfEmpty(record.ApprovedBy), record.ApprovedAt, record.PaidAt,
		nullIfEmpty(record.RejectReason),
		record.ID, record.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: record %s at version %d", ErrVersionConflict, record.ID, record.Version)
	}
	record.Version++
	return nil
}

func (s *Store) ActiveTeacherIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id FROM teachers WHERE status = 'active' ORDER BY last_name, first_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func marshalAdjustments(record *Record) (allowances, bonuses, deductions []byte, err error) {
	if allowances, err = json.Marshal(emptyIfNil(record.Allowances)); err != nil {
		return nil, nil, nil, err
	}
	if bonuses, err = json.Marshal(emptyIfNil(record.Bonuses)); err != nil {
		return nil, nil, nil, err
	}
	if deductions, err = json.Marshal(emptyIfNil(record.Deductions)); err != nil {
		return nil, nil, nil, err
	}
	return allowances, bonuses, deductions, nil
}

func emptyIfNil(adjustments []Adjustment) []Adjustment {
	if adjustments == nil {
		return []Adjustment{}
	}
	return adjustments
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func scanRecord(row pgx.Row) (Record, error) {
	var record Record
	var allowancesJSON, bonusesJSON, deductionsJSON []byte
	var approvedAt, paidAt *time.Time
	err := row.Scan(
		&record.ID, &record.TeacherID, &record.Month, &record.Year, &record.HourlyRate, &record.HoursWorked,
		&allowancesJSON, &bonusesJSON, &deductionsJSON,
		&record.BaseSalary, &record.TotalAllowances, &record.TotalBonuses, &record.TotalDeductions, &record.TotalGross, &record.TotalNet,
		&record.Status, &record.ApprovedBy, &approvedAt, &paidAt, &record.RejectReason,
		&record.Version, &record.CreatedAt, &record.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	record.ApprovedAt = approvedAt
	record.PaidAt = paidAt
	if err := json.Unmarshal(allowancesJSON, &record.Allowances); err != nil {
		return Record{}, fmt.Errorf("decode allowances: %w", err)
	}
	if err := json.Unmarshal(bonusesJSON, &record.Bonuses); err != nil {
		return Record{}, fmt.Errorf("decode bonuses: %w", err)
	}
	if err := json.Unmarshal(deductionsJSON, &record.Deductions); err != nil {
		return Record{}, fmt.Errorf("decode deductions: %w", err)
	}
	return record, nil
}
