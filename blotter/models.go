package blotter

import "time"

// Priority ranks how urgently a case should be handled by the lupon.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Outcome is the selection made when leaving a decision-point status.
type Outcome string

const (
	OutcomeResolved   Outcome = "RESOLVED"
	OutcomeUnresolved Outcome = "UNRESOLVED"
)

func (o Outcome) Valid() bool {
	return o == OutcomeResolved || o == OutcomeUnresolved
}

// ResolutionMethod records how a RESOLVED case was settled.
type ResolutionMethod string

const (
	ResolutionAmicable     ResolutionMethod = "AMICABLE"
	ResolutionArbitration  ResolutionMethod = "ARBITRATION"
	ResolutionConciliation ResolutionMethod = "CONCILIATION"
	ResolutionWithdrawal   ResolutionMethod = "WITHDRAWAL"
	ResolutionOther        ResolutionMethod = "OTHER"
)

func (m ResolutionMethod) Valid() bool {
	switch m {
	case ResolutionAmicable, ResolutionArbitration, ResolutionConciliation, ResolutionWithdrawal, ResolutionOther:
		return true
	default:
		return false
	}
}

// Party is a complainant or respondent. ResidentID is set when the person is
// in the resident registry; the name, address and contact are copied at
// filing time so later registry edits do not rewrite the case.
type Party struct {
	ResidentID *string
	Name       string
	Address    string
	Contact    string
}

// Case mirrors the blotter_cases table.
type Case struct {
	ID               string
	CaseNumber       string
	Status           Status
	Priority         Priority
	IncidentType     string
	IncidentDate     time.Time
	IncidentTime     string
	IncidentLocation string
	Description      string
	Complainant      Party
	Respondent       Party

	FilingFee       float64
	FilingFeePaid   bool
	FilingFeePaidAt *time.Time

	DocketDate            *time.Time
	SummonDate            *time.Time
	MediationStartDate    *time.Time
	MediationEndDate      *time.Time
	MediationOutcome      *Outcome
	ConciliationStartDate *time.Time
	ConciliationEndDate   *time.Time
	ConciliationOutcome   *Outcome
	ExtensionDate         *time.Time
	CertificationDate     *time.Time
	ResolutionMethod      *ResolutionMethod
	EscalatedTo           *string

	// Version counts the writes to the case. Every transition and payment
	// confirmation bumps it.
	Version int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Observed is the state of a case a write was validated against. Stores
// apply the write only while both the status and the version still match.
type Observed struct {
	Status  Status
	Version int
}

func (c Case) observed() Observed {
	return Observed{Status: c.Status, Version: c.Version}
}

// Fields holds the normalized stage values captured by one transition. Only
// the fields accepted for that transition are non-nil.
type Fields struct {
	FilingFee             *float64          `json:"filingFee,omitempty"`
	FilingFeePaid         *bool             `json:"filingFeePaid,omitempty"`
	DocketDate            *time.Time        `json:"docketDate,omitempty"`
	SummonDate            *time.Time        `json:"summonDate,omitempty"`
	MediationStartDate    *time.Time        `json:"mediationStartDate,omitempty"`
	MediationEndDate      *time.Time        `json:"mediationEndDate,omitempty"`
	MediationOutcome      *Outcome          `json:"mediationOutcome,omitempty"`
	ConciliationStartDate *time.Time        `json:"conciliationStartDate,omitempty"`
	ConciliationEndDate   *time.Time        `json:"conciliationEndDate,omitempty"`
	ConciliationOutcome   *Outcome          `json:"conciliationOutcome,omitempty"`
	ExtensionDate         *time.Time        `json:"extensionDate,omitempty"`
	CertificationDate     *time.Time        `json:"certificationDate,omitempty"`
	ResolutionMethod      *ResolutionMethod `json:"resolutionMethod,omitempty"`
	EscalatedTo           *string           `json:"escalatedToEnt,omitempty"`
}

// StatusUpdate is the append-only audit record of one transition.
type StatusUpdate struct {
	ID         string
	CaseID     string
	Seq        int
	FromStatus Status
	Status     Status
	ActorID    string
	Remarks    string
	Fields     Fields
	CreatedAt  time.Time
}

// NewCase carries the data needed to file a case.
type NewCase struct {
	Priority         Priority
	IncidentType     string
	IncidentDate     string
	IncidentTime     string
	IncidentLocation string
	Description      string
	Complainant      Party
	Respondent       Party
	FilingFee        *float64
}

// Filters narrows ListCases. Query matches case number and party names.
type Filters struct {
	Status   Status
	Priority Priority
	Query    string
	Page     int
	PageSize int
}

type ListResult struct {
	Items []Case
	Total int
}

func (f Filters) normalized() Filters {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > 100 {
		f.PageSize = 20
	}
	return f
}

// apply moves the case to u.Status and copies the captured stage values onto
// it. A paid filing fee is never reverted.
func (c *Case) apply(u StatusUpdate) {
	f := u.Fields
	c.Status = u.Status
	c.Version++
	c.UpdatedAt = u.CreatedAt
	if f.FilingFee != nil {
		c.FilingFee = *f.FilingFee
	}
	if f.FilingFeePaid != nil && *f.FilingFeePaid && !c.FilingFeePaid {
		c.FilingFeePaid = true
		paidAt := u.CreatedAt
		c.FilingFeePaidAt = &paidAt
	}
	setTime(&c.DocketDate, f.DocketDate)
	setTime(&c.SummonDate, f.SummonDate)
	setTime(&c.MediationStartDate, f.MediationStartDate)
	setTime(&c.MediationEndDate, f.MediationEndDate)
	setTime(&c.ConciliationStartDate, f.ConciliationStartDate)
	setTime(&c.ConciliationEndDate, f.ConciliationEndDate)
	setTime(&c.ExtensionDate, f.ExtensionDate)
	setTime(&c.CertificationDate, f.CertificationDate)
	if f.MediationOutcome != nil {
		c.MediationOutcome = f.MediationOutcome
	}
	if f.ConciliationOutcome != nil {
		c.ConciliationOutcome = f.ConciliationOutcome
	}
	if f.ResolutionMethod != nil {
		c.ResolutionMethod = f.ResolutionMethod
	}
	if f.EscalatedTo != nil {
		c.EscalatedTo = f.EscalatedTo
	}
}

func setTime(dst **time.Time, v *time.Time) {
	if v != nil {
		t := *v
		*dst = &t
	}
}
