package hearing

import "time"

// Status represents the lifecycle of a hearing.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusHeld      Status = "HELD"
	StatusPostponed Status = "POSTPONED"
	StatusCancelled Status = "CANCELLED"
	StatusLapsed    Status = "LAPSED"
)

var moves = map[Status][]Status{
	StatusScheduled: {StatusHeld, StatusPostponed, StatusCancelled, StatusLapsed},
	StatusPostponed: {StatusScheduled, StatusCancelled},
	StatusLapsed:    {StatusScheduled, StatusCancelled},
	StatusHeld:      nil,
	StatusCancelled: nil,
}

func (s Status) Valid() bool {
	_, ok := moves[s]
	return ok
}

// CanMove reports whether a hearing in from may be set to to.
func CanMove(from, to Status) bool {
	for _, s := range moves[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Record mirrors the hearings table.
type Record struct {
	ID        string
	CaseID    string
	Date      time.Time
	Time      string
	Location  string
	Status    Status
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewHearing is the input for scheduling a hearing.
type NewHearing struct {
	CaseID   string `json:"-"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

// Change updates a hearing. Date is only honored when moving back to
// SCHEDULED.
type Change struct {
	Status Status  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
	Date   string  `json:"date,omitempty"`
}
