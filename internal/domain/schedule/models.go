package schedule

import "time"

// Slot is one scheduled lesson. Times are stored in UTC; the calendar month
// a slot belongs to is derived from StartsAt.
type Slot struct {
	ID         string    `json:"id"`
	TeacherID  string    `json:"teacherId"`
	Subject    string    `json:"subject"`
	ClassGroup string    `json:"classGroup"`
	StartsAt   time.Time `json:"startsAt"`
	EndsAt     time.Time `json:"endsAt"`
	Cancelled  bool      `json:"cancelled"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Substitution reassigns a slot to another teacher. The original teacher
// keeps the slot in their scheduled hours but loses the worked hours; the
// substitute gains them.
type Substitution struct {
	ID                  string    `json:"id"`
	SlotID              string    `json:"slotId"`
	OriginalTeacherID   string    `json:"originalTeacherId"`
	SubstituteTeacherID string    `json:"substituteTeacherId"`
	Reason              string    `json:"reason,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}
