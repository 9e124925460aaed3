package salary

import "context"

type StoreAPI interface {
	GetRate(ctx context.Context, teacherID string) (Rate, error)
	UpsertRate(ctx context.Context, rate Rate) (Rate, error)
	ListRates(ctx context.Context) ([]Rate, error)

	InsertRecord(ctx context.Context, record *Record) error
	GetRecord(ctx context.Context, id string) (Record, error)
	FindRecord(ctx context.Context, teacherID string, month, year int) (Record, error)
	ListRecords(ctx context.Context, month, year int) ([]Record, error)
	// UpdateRecord persists all mutable fields in a single statement guarded
	// by an optimistic version check; ErrVersionConflict when the check fails.
	UpdateRecord(ctx context.Context, record *Record) error

	ActiveTeacherIDs(ctx context.Context) ([]string, error)
}
