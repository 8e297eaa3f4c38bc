package resident

import (
	"strings"
	"time"
)

// Resident is the registry entry used to prefill blotter parties.
type Resident struct {
	ID         string
	FirstName  string
	MiddleName string
	LastName   string
	Address    string
	Purok      string
	Contact    string
	BirthDate  *time.Time
	CreatedAt  time.Time
}

// FullName renders "First M. Last".
func (r Resident) FullName() string {
	parts := []string{r.FirstName}
	if m := strings.TrimSpace(r.MiddleName); m != "" {
		parts = append(parts, string([]rune(m)[:1])+".")
	}
	parts = append(parts, r.LastName)
	return strings.Join(parts, " ")
}

// FullAddress joins the street address and purok.
func (r Resident) FullAddress() string {
	switch {
	case r.Purok == "":
		return r.Address
	case r.Address == "":
		return r.Purok
	default:
		return r.Address + ", " + r.Purok
	}
}
