package salary

import "errors"

var (
	// ErrRateNotConfigured and ErrNoScheduleData are recoverable: callers
	// fall back to manual rate/hour entry instead of failing the request.
	ErrRateNotConfigured = errors.New("salary rate not configured for teacher")
	ErrNoScheduleData    = errors.New("no schedule data for teacher in period")

	ErrInvalidTransition = errors.New("invalid salary status transition")
	ErrValidation        = errors.New("salary validation failed")
	ErrVersionConflict   = errors.New("salary record was modified concurrently")
	ErrNotFound          = errors.New("salary record not found")
)
