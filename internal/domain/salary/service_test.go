package salary

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeStore is safe for concurrent use: batch recalculation fans out.
type fakeStore struct {
	mu       sync.Mutex
	rates    map[string]Rate
	records  map[string]Record
	teachers []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rates:   map[string]Rate{},
		records: map[string]Record{},
	}
}

func (f *fakeStore) GetRate(_ context.Context, teacherID string) (Rate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rate, ok := f.rates[teacherID]
	if !ok {
		return Rate{}, fmt.Errorf("%w: teacher %s", ErrRateNotConfigured, teacherID)
	}
	return rate, nil
}

func (f *fakeStore) UpsertRate(_ context.Context, rate Rate) (Rate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rate.UpdatedAt = time.Now()
	f.rates[rate.TeacherID] = rate
	return rate, nil
}

func (f *fakeStore) ListRates(_ context.Context) ([]Rate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Rate, 0, len(f.rates))
	for _, rate := range f.rates {
		out = append(out, rate)
	}
	return out, nil
}

func (f *fakeStore) InsertRecord(_ context.Context, record *Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	f.records[record.ID] = *record
	return nil
}

func (f *fakeStore) GetRecord(_ context.Context, id string) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}

func (f *fakeStore) FindRecord(_ context.Context, teacherID string, month, year int) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.records {
		if record.TeacherID == teacherID && record.Month == month && record.Year == year && record.Status != StatusCancelled {
			return record, nil
		}
	}
	return Record{}, ErrNotFound
}

func (f *fakeStore) ListRecords(_ context.Context, month, year int) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Record
	for _, record := range f.records {
		if record.Month == month && record.Year == year {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateRecord(_ context.Context, record *Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.records[record.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != record.Version {
		return fmt.Errorf("%w: record %s", ErrVersionConflict, record.ID)
	}
	record.Version++
	record.UpdatedAt = time.Now()
	f.records[record.ID] = *record
	return nil
}

func (f *fakeStore) ActiveTeacherIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.teachers, nil
}

func monthSlots(teacherID string, count int) []LessonSlot {
	slots := make([]LessonSlot, 0, count)
	for i := 0; i < count; i++ {
		slots = append(slots, slotAt(fmt.Sprintf("%s-slot-%d", teacherID, i), teacherID, 2+i, 9, 120))
	}
	return slots
}

func newTestService(store *fakeStore, slots map[string][]LessonSlot) *Service {
	service := NewService(store, &fakeSchedule{slots: slots}, &fakeSubstitutions{})
	service.clock = func() time.Time { return testNow }
	return service
}

func TestServiceCreateFromConfiguredRateAndSchedule(t *testing.T) {
	store := newFakeStore()
	store.rates["t-1"] = Rate{TeacherID: "t-1", BaseRate: dec("14000"), Factors: []RateFactor{{Name: "Experience", Amount: dec("1000")}}}
	service := newTestService(store, map[string][]LessonSlot{"t-1": monthSlots("t-1", 5)})

	record, err := service.Create(context.Background(), CreateInput{TeacherID: "t-1", Month: 2, Year: 2026})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, record.Status)
	assertDecimal(t, "15000", record.HourlyRate)
	assertDecimal(t, "10", record.HoursWorked)
	assertDecimal(t, "150000", record.BaseSalary)
}

func TestServiceCreateManualFallback(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store, nil)

	manualRate := dec("12000")
	manualHours := dec("90")
	record, err := service.Create(context.Background(), CreateInput{
		TeacherID:   "t-1",
		Month:       2,
		Year:        2026,
		ManualRate:  &manualRate,
		ManualHours: &manualHours,
	})
	require.NoError(t, err)
	assertDecimal(t, "1080000", record.BaseSalary)
}

func TestServiceCreateWithoutRateFails(t *testing.T) {
	service := newTestService(newFakeStore(), map[string][]LessonSlot{"t-1": monthSlots("t-1", 3)})
	_, err := service.Create(context.Background(), CreateInput{TeacherID: "t-1", Month: 2, Year: 2026})
	require.ErrorIs(t, err, ErrRateNotConfigured)
}

func TestServiceCreateDuplicateFails(t *testing.T) {
	store := newFakeStore()
	store.rates["t-1"] = Rate{TeacherID: "t-1", BaseRate: dec("10000")}
	service := newTestService(store, map[string][]LessonSlot{"t-1": monthSlots("t-1", 3)})

	_, err := service.Create(context.Background(), CreateInput{TeacherID: "t-1", Month: 2, Year: 2026})
	require.NoError(t, err)
	_, err = service.Create(context.Background(), CreateInput{TeacherID: "t-1", Month: 2, Year: 2026})
	require.ErrorIs(t, err, ErrValidation)
}

func TestServiceUpdateRateReplacesFactors(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store, nil)

	_, err := service.UpdateRate(context.Background(), "t-1", dec("10000"), []RateFactor{
		{Name: "Experience", Amount: dec("2000")},
		{Name: "Category", Amount: dec("500")},
	})
	require.NoError(t, err)

	rate, err := service.UpdateRate(context.Background(), "t-1", dec("10000"), []RateFactor{
		{Name: "Category", Amount: dec("800")},
	})
	require.NoError(t, err)
	require.Len(t, rate.Factors, 1, "factor list must be fully replaced")
	assertDecimal(t, "10800", rate.TotalRate())
}

func TestServiceUpdateRateRejectsNegativeFactor(t *testing.T) {
	service := newTestService(newFakeStore(), nil)
	_, err := service.UpdateRate(context.Background(), "t-1", dec("10000"), []RateFactor{
		{Name: "Experience", Amount: dec("-5")},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestServiceEditAdjustmentsPersists(t *testing.T) {
	store := newFakeStore()
	store.rates["t-1"] = Rate{TeacherID: "t-1", BaseRate: dec("15000")}
	service := newTestService(store, map[string][]LessonSlot{"t-1": monthSlots("t-1", 5)})

	created, err := service.Create(context.Background(), CreateInput{TeacherID: "t-1", Month: 2, Year: 2026})
	require.NoError(t, err)

	updated, err := service.EditAdjustments(context.Background(), created.ID,
		[]Adjustment{{Name: "Transport", Amount: dec("2000")}},
		[]Adjustment{{Name: "Quality", Amount: dec("10"), IsPercentage: true}},
		nil,
	)
	require.NoError(t, err)
	require.Equal(t, created.Version+1, updated.Version)
	assertDecimal(t, "15000", updated.TotalBonuses)

	stored, err := service.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, updated.TotalNet.Equal(stored.TotalNet))
}

func TestServiceRecalculatePicksUpRateChange(t *testing.T) {
	store := newFakeStore()
	store.rates["t-1"] = Rate{TeacherID: "t-1", BaseRate: dec("10000")}
	service := newTestService(store, map[string][]LessonSlot{"t-1": monthSlots("t-1", 5)})

	created, err := service.Create(context.Background(), CreateInput{TeacherID: "t-1", Month: 2, Year: 2026})
	require.NoError(t, err)
	assertDecimal(t, "100000", created.BaseSalary)

	store.mu.Lock()
	store.rates["t-1"] = Rate{TeacherID: "t-1", BaseRate: dec("12000")}
	store.mu.Unlock()

	recalculated, err := service.Recalculate(context.Background(), created.ID)
	require.NoError(t, err)
	assertDecimal(t, "120000", recalculated.BaseSalary)
}

func TestServiceRecalculateRefusesNonDraft(t *testing.T) {
	store := newFakeStore()
	store.rates["t-1"] = Rate{TeacherID: "t-1", BaseRate: dec("10000")}
	service := newTestService(store, map[string][]LessonSlot{"t-1": monthSlots("t-1", 5)})

	created, err := service.Create(context.Background(), CreateInput{TeacherID: "t-1", Month: 2, Year: 2026})
	require.NoError(t, err)
	_, err = service.Approve(context.Background(), created.ID, "admin-1")
	require.NoError(t, err)

	_, err = service.Recalculate(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestServiceTransitionsPersistMetadata(t *testing.T) {
	store := newFakeStore()
	store.rates["t-1"] = Rate{TeacherID: "t-1", BaseRate: dec("10000")}
	service := newTestService(store, map[string][]LessonSlot{"t-1": monthSlots("t-1", 5)})

	created, err := service.Create(context.Background(), CreateInput{TeacherID: "t-1", Month: 2, Year: 2026})
	require.NoError(t, err)

	approved, err := service.Approve(context.Background(), created.ID, "admin-1")
	require.NoError(t, err)
	require.Equal(t, "admin-1", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	paid, err := service.MarkPaid(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = service.Reject(context.Background(), created.ID, "too late")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestServiceBatchRecalculatePartialFailure(t *testing.T) {
	store := newFakeStore()
	store.teachers = []string{"t-1", "t-2", "t-3"}
	store.rates["t-1"] = Rate{TeacherID: "t-1", BaseRate: dec("10000")}
	store.rates["t-2"] = Rate{TeacherID: "t-2", BaseRate: dec("11000")}
	// t-3 has no configured rate.
	service := newTestService(store, map[string][]LessonSlot{
		"t-1": monthSlots("t-1", 5),
		"t-2": monthSlots("t-2", 4),
		"t-3": monthSlots("t-3", 3),
	})

	result, err := service.RecalculateAll(context.Background(), 2, 2026)
	require.NoError(t, err, "one teacher's failure must not abort the batch")
	require.Equal(t, 2, result.Succeeded)
	require.Equal(t, 1, result.Failed)
	require.Len(t, result.Outcomes, 3)

	byTeacher := map[string]BatchOutcome{}
	for _, outcome := range result.Outcomes {
		byTeacher[outcome.TeacherID] = outcome
	}
	require.Equal(t, BatchCreated, byTeacher["t-1"].Status)
	require.Equal(t, BatchCreated, byTeacher["t-2"].Status)
	require.Equal(t, BatchFailed, byTeacher["t-3"].Status)
	require.Contains(t, byTeacher["t-3"].Error, "not configured")
}

func TestServiceBatchRecalculateSkipsSettledRecords(t *testing.T) {
	store := newFakeStore()
	store.teachers = []string{"t-1", "t-2"}
	store.rates["t-1"] = Rate{TeacherID: "t-1", BaseRate: dec("10000")}
	store.rates["t-2"] = Rate{TeacherID: "t-2", BaseRate: dec("11000")}
	service := newTestService(store, map[string][]LessonSlot{
		"t-1": monthSlots("t-1", 5),
		"t-2": monthSlots("t-2", 4),
	})

	created, err := service.Create(context.Background(), CreateInput{TeacherID: "t-1", Month: 2, Year: 2026})
	require.NoError(t, err)
	_, err = service.Approve(context.Background(), created.ID, "admin-1")
	require.NoError(t, err)

	result, err := service.RecalculateAll(context.Background(), 2, 2026)
	require.NoError(t, err)
	require.Equal(t, 1, result.Skipped, "approved record must be left alone")
	require.Equal(t, 1, result.Succeeded)
	require.Equal(t, 0, result.Failed)
}
