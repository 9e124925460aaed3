package salary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// batchWorkers bounds the fan-out of a batch recalculation. Teachers are
// independent, so only intra-record writes need serialization (the store's
// version check handles that).
const batchWorkers = 4

type Service struct {
	store StoreAPI
	hours *HoursResolver
	clock func() time.Time
}

func NewService(store StoreAPI, schedule ScheduleProvider, substitutions SubstitutionProvider) *Service {
	return &Service{
		store: store,
		hours: NewHoursResolver(schedule, substitutions),
		clock: time.Now,
	}
}

// ResolveRate returns the teacher's effective rate configuration.
// ErrRateNotConfigured means "offer manual entry", not a hard failure.
func (s *Service) ResolveRate(ctx context.Context, teacherID string) (Rate, error) {
	return s.store.GetRate(ctx, teacherID)
}

func (s *Service) ListRates(ctx context.Context) ([]Rate, error) {
	return s.store.ListRates(ctx)
}

// UpdateRate replaces the teacher's rate configuration, factor list included.
func (s *Service) UpdateRate(ctx context.Context, teacherID string, baseRate decimal.Decimal, factors []RateFactor) (Rate, error) {
	if baseRate.IsNegative() {
		return Rate{}, fmt.Errorf("%w: base rate must not be negative", ErrValidation)
	}
	if err := ValidateFactors(factors); err != nil {
		return Rate{}, err
	}
	if factors == nil {
		factors = []RateFactor{}
	}
	return s.store.UpsertRate(ctx, Rate{TeacherID: teacherID, BaseRate: baseRate, Factors: factors})
}

// ResolveHours derives the teacher's worked hours for a calendar month.
func (s *Service) ResolveHours(ctx context.Context, teacherID string, month, year int) (WorkedHours, error) {
	if err := ValidatePeriod(month, year); err != nil {
		return WorkedHours{}, err
	}
	return s.hours.Resolve(ctx, teacherID, time.Month(month), year)
}

type CreateInput struct {
	TeacherID string
	Month     int
	Year      int
	// ManualRate and ManualHours take over when the teacher has no
	// configured rate or no schedule data for the period.
	ManualRate  *decimal.Decimal
	ManualHours *decimal.Decimal
	Allowances  []Adjustment
	Bonuses     []Adjustment
	Deductions  []Adjustment
}

// Create builds a new draft record from a rate + worked-hours snapshot.
func (s *Service) Create(ctx context.Context, in CreateInput) (Record, error) {
	if err := ValidatePeriod(in.Month, in.Year); err != nil {
		return Record{}, err
	}
	for kind, list := range map[string][]Adjustment{
		"allowance": in.Allowances, "bonus": in.Bonuses, "deduction": in.Deductions,
	} {
		if err := ValidateAdjustments(kind, list); err != nil {
			return Record{}, err
		}
	}
	if existing, err := s.store.FindRecord(ctx, in.TeacherID, in.Month, in.Year); err == nil {
		return Record{}, fmt.Errorf("%w: record %s already exists for %d-%02d", ErrValidation, existing.ID, in.Year, in.Month)
	} else if !errors.Is(err, ErrNotFound) {
		return Record{}, err
	}

	hourlyRate, err := s.snapshotRate(ctx, in.TeacherID, in.ManualRate)
	if err != nil {
		return Record{}, err
	}
	hoursWorked, err := s.snapshotHours(ctx, in.TeacherID, in.Month, in.Year, in.ManualHours)
	if err != nil {
		return Record{}, err
	}

	record := Record{
		ID:          uuid.NewString(),
		TeacherID:   in.TeacherID,
		Month:       in.Month,
		Year:        in.Year,
		HourlyRate:  hourlyRate,
		HoursWorked: hoursWorked,
		Allowances:  emptyIfNil(in.Allowances),
		Bonuses:     emptyIfNil(in.Bonuses),
		Deductions:  emptyIfNil(in.Deductions),
		Status:      StatusDraft,
		Version:     1,
	}
	record.Recalculate()

	if err := s.store.InsertRecord(ctx, &record); err != nil {
		return Record{}, err
	}
	return record, nil
}

func (s *Service) snapshotRate(ctx context.Context, teacherID string, manual *decimal.Decimal) (decimal.Decimal, error) {
	if manual != nil {
		if manual.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: manual rate must not be negative", ErrValidation)
		}
		return *manual, nil
	}
	rate, err := s.store.GetRate(ctx, teacherID)
	if err != nil {
		return decimal.Zero, err
	}
	return rate.TotalRate(), nil
}

func (s *Service) snapshotHours(ctx context.Context, teacherID string, month, year int, manual *decimal.Decimal) (decimal.Decimal, error) {
	if manual != nil {
		if manual.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: manual hours must not be negative", ErrValidation)
		}
		return *manual, nil
	}
	hours, err := s.hours.Resolve(ctx, teacherID, time.Month(month), year)
	if err != nil {
		return decimal.Zero, err
	}
	return hours.TotalUsableHours(), nil
}

func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.store.GetRecord(ctx, id)
}

func (s *Service) List(ctx context.Context, month, year int) ([]Record, error) {
	if err := ValidatePeriod(month, year); err != nil {
		return nil, err
	}
	return s.store.ListRecords(ctx, month, year)
}

// EditAdjustments replaces the record's adjustment lists and recomputes
// totals in one guarded update. Approved records drop back to draft.
func (s *Service) EditAdjustments(ctx context.Context, id string, allowances, bonuses, deductions []Adjustment) (Record, error) {
	record, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if err := record.EditAdjustments(emptyIfNil(allowances), emptyIfNil(bonuses), emptyIfNil(deductions)); err != nil {
		return Record{}, err
	}
	if err := s.store.UpdateRecord(ctx, &record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Recalculate refreshes a draft record's rate and hours snapshot from the
// current configuration and schedule, then replaces the totals atomically.
// Missing rate or schedule data keeps the existing snapshot (it was a manual
// entry to begin with).
func (s *Service) Recalculate(ctx context.Context, id string) (Record, error) {
	record, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if record.Status != StatusDraft {
		return Record{}, fmt.Errorf("%w: cannot recalculate a %s record", ErrInvalidTransition, record.Status)
	}

	if rate, err := s.store.GetRate(ctx, record.TeacherID); err == nil {
		record.HourlyRate = rate.TotalRate()
	} else if !errors.Is(err, ErrRateNotConfigured) {
		return Record{}, err
	}

	if hours, err := s.hours.Resolve(ctx, record.TeacherID, time.Month(record.Month), record.Year); err == nil {
		record.HoursWorked = hours.TotalUsableHours()
	} else if !errors.Is(err, ErrNoScheduleData) {
		return Record{}, err
	}

	record.Recalculate()
	if err := s.store.UpdateRecord(ctx, &record); err != nil {
		return Record{}, err
	}
	return record, nil
}

func (s *Service) Approve(ctx context.Context, id, approverID string) (Record, error) {
	return s.transition(ctx, id, func(record *Record) error {
		return record.Approve(approverID, s.clock())
	})
}

func (s *Service) MarkPaid(ctx context.Context, id string) (Record, error) {
	return s.transition(ctx, id, func(record *Record) error {
		return record.MarkPaid(s.clock())
	})
}

func (s *Service) Reject(ctx context.Context, id, reason string) (Record, error) {
	return s.transition(ctx, id, func(record *Record) error {
		return record.Reject(reason, s.clock())
	})
}

func (s *Service) transition(ctx context.Context, id string, apply func(*Record) error) (Record, error) {
	record, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if err := apply(&record); err != nil {
		return Record{}, err
	}
	if err := s.store.UpdateRecord(ctx, &record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// RecalculateAll sweeps every active teacher for the period. Each teacher is
// processed independently: one teacher's missing rate must not abort the
// rest. Draft records are refreshed, missing records are created, approved
// and paid records are left alone.
func (s *Service) RecalculateAll(ctx context.Context, month, year int) (BatchResult, error) {
	if err := ValidatePeriod(month, year); err != nil {
		return BatchResult{}, err
	}
	teacherIDs, err := s.store.ActiveTeacherIDs(ctx)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Month: month, Year: year}
	var mu sync.Mutex

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(batchWorkers)
	for _, teacherID := range teacherIDs {
		teacherID := teacherID
		group.Go(func() error {
			outcome := s.recalculateTeacher(ctx, teacherID, month, year)
			mu.Lock()
			result.Outcomes = append(result.Outcomes, outcome)
			switch outcome.Status {
			case BatchFailed:
				result.Failed++
			case BatchSkipped:
				result.Skipped++
			default:
				result.Succeeded++
			}
			mu.Unlock()
			// Outcomes carry the per-teacher errors; never cancel the sweep.
			return nil
		})
	}
	_ = group.Wait()

	sort.Slice(result.Outcomes, func(i, j int) bool {
		return result.Outcomes[i].TeacherID < result.Outcomes[j].TeacherID
	})
	return result, nil
}

func (s *Service) recalculateTeacher(ctx context.Context, teacherID string, month, year int) BatchOutcome {
	record, err := s.store.FindRecord(ctx, teacherID, month, year)
	switch {
	case errors.Is(err, ErrNotFound):
		if _, err := s.Create(ctx, CreateInput{TeacherID: teacherID, Month: month, Year: year}); err != nil {
			return BatchOutcome{TeacherID: teacherID, Status: BatchFailed, Error: err.Error()}
		}
		return BatchOutcome{TeacherID: teacherID, Status: BatchCreated}
	case err != nil:
		return BatchOutcome{TeacherID: teacherID, Status: BatchFailed, Error: err.Error()}
	}

	if record.Status != StatusDraft {
		return BatchOutcome{TeacherID: teacherID, Status: BatchSkipped}
	}
	if _, err := s.Recalculate(ctx, record.ID); err != nil {
		return BatchOutcome{TeacherID: teacherID, Status: BatchFailed, Error: err.Error()}
	}
	return BatchOutcome{TeacherID: teacherID, Status: BatchRecalculated}
}
