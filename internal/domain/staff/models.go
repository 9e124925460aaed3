package staff

import "time"

const (
	TeacherStatusActive   = "active"
	TeacherStatusInactive = "inactive"
)

type Teacher struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
