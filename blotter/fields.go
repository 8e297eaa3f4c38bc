package blotter

import (
	"math"
	"strings"
	"time"
)

// Field names a value a caller may submit with a transition. The names match
// the JSON keys of Payload.
type Field string

const (
	FieldFilingFee             Field = "filingFee"
	FieldFilingFeePaid         Field = "filingFeePaid"
	FieldDocketDate            Field = "docketDate"
	FieldSummonDate            Field = "summonDate"
	FieldMediationStartDate    Field = "mediationStartDate"
	FieldMediationEndDate      Field = "mediationEndDate"
	FieldMediationOutcome      Field = "mediationOutcome"
	FieldConciliationStartDate Field = "conciliationStartDate"
	FieldConciliationEndDate   Field = "conciliationEndDate"
	FieldConciliationOutcome   Field = "conciliationOutcome"
	FieldExtensionDate         Field = "extensionDate"
	FieldCertificationDate     Field = "certificationDate"
	FieldResolutionMethod      Field = "resolutionMethod"
	FieldEscalatedToEnt        Field = "escalatedToEnt"
	FieldRemarks               Field = "remarks"
	FieldStatus                Field = "status"
)

const maxRemarksLen = 2000

// Payload is what a caller submits to move a case. Empty strings and nil
// pointers mean the field was not supplied.
type Payload struct {
	Status                Status   `json:"status"`
	Remarks               string   `json:"remarks,omitempty"`
	FilingFee             *float64 `json:"filingFee,omitempty"`
	FilingFeePaid         *bool    `json:"filingFeePaid,omitempty"`
	DocketDate            string   `json:"docketDate,omitempty"`
	SummonDate            string   `json:"summonDate,omitempty"`
	MediationStartDate    string   `json:"mediationStartDate,omitempty"`
	MediationEndDate      string   `json:"mediationEndDate,omitempty"`
	MediationOutcome      string   `json:"mediationOutcome,omitempty"`
	ConciliationStartDate string   `json:"conciliationStartDate,omitempty"`
	ConciliationEndDate   string   `json:"conciliationEndDate,omitempty"`
	ConciliationOutcome   string   `json:"conciliationOutcome,omitempty"`
	ExtensionDate         string   `json:"extensionDate,omitempty"`
	CertificationDate     string   `json:"certificationDate,omitempty"`
	ResolutionMethod      string   `json:"resolutionMethod,omitempty"`
	EscalatedToEnt        string   `json:"escalatedToEnt,omitempty"`
}

// Requirement lists the fields captured when a case enters a status.
type Requirement struct {
	Required []Field
	Optional []Field
}

var entryFields = map[Status]Requirement{
	StatusFiled:        {Optional: []Field{FieldFilingFee, FieldFilingFeePaid}},
	StatusDocketed:     {Required: []Field{FieldDocketDate}},
	StatusSummoned:     {Required: []Field{FieldSummonDate}},
	StatusMediation:    {Required: []Field{FieldMediationStartDate}, Optional: []Field{FieldMediationEndDate, FieldMediationOutcome}},
	StatusConciliation: {Required: []Field{FieldConciliationStartDate}, Optional: []Field{FieldConciliationEndDate, FieldConciliationOutcome}},
	StatusExtended:     {Required: []Field{FieldExtensionDate}},
	StatusCertified:    {Required: []Field{FieldCertificationDate}},
	StatusResolved:     {Required: []Field{FieldResolutionMethod}},
	StatusEscalated:    {Required: []Field{FieldEscalatedToEnt}},
	StatusClosed:       {},
	StatusDismissed:    {},
	StatusPending:      {},
	StatusOngoing:      {},
}

// exitFields are accepted while leaving a stage, whatever the target.
var exitFields = map[Status][]Field{
	StatusFiled:        {FieldFilingFee, FieldFilingFeePaid},
	StatusMediation:    {FieldMediationEndDate, FieldMediationOutcome},
	StatusConciliation: {FieldConciliationEndDate, FieldConciliationOutcome},
}

// RequirementFor returns the fields for entering effective from current.
// Exit fields of current are folded into Optional.
func RequirementFor(current, effective Status) Requirement {
	entry := entryFields[effective]
	req := Requirement{
		Required: append([]Field(nil), entry.Required...),
		Optional: append([]Field(nil), entry.Optional...),
	}
	for _, f := range exitFields[current] {
		if !containsField(req.Required, f) && !containsField(req.Optional, f) {
			req.Optional = append(req.Optional, f)
		}
	}
	return req
}

// minStageDate bounds how far back a stage date may reach.
var minStageDate = time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)

// validate checks p against the requirement for entering effective from the
// case's current status and returns the normalized fields to persist.
func (p Payload) validate(c Case, effective Status, now time.Time) (Fields, error) {
	req := RequirementFor(c.Status, effective)

	for _, f := range req.Required {
		if !p.has(f) {
			return Fields{}, &ValidationError{Field: f, Reason: "is required"}
		}
	}
	if len(p.Remarks) > maxRemarksLen {
		return Fields{}, &ValidationError{Field: FieldRemarks, Reason: "is too long"}
	}

	var out Fields
	accepted := append(req.Required, req.Optional...)
	for _, f := range accepted {
		if !p.has(f) {
			continue
		}
		if err := p.set(&out, f, now); err != nil {
			return Fields{}, err
		}
	}

	if err := checkRange(FieldMediationEndDate, out.MediationEndDate, firstTime(out.MediationStartDate, c.MediationStartDate)); err != nil {
		return Fields{}, err
	}
	if err := checkRange(FieldConciliationEndDate, out.ConciliationEndDate, firstTime(out.ConciliationStartDate, c.ConciliationStartDate)); err != nil {
		return Fields{}, err
	}

	return out, nil
}

func (p Payload) has(f Field) bool {
	switch f {
	case FieldFilingFee:
		return p.FilingFee != nil
	case FieldFilingFeePaid:
		return p.FilingFeePaid != nil
	case FieldEscalatedToEnt:
		return strings.TrimSpace(p.EscalatedToEnt) != ""
	default:
		return strings.TrimSpace(p.raw(f)) != ""
	}
}

func (p Payload) raw(f Field) string {
	switch f {
	case FieldDocketDate:
		return p.DocketDate
	case FieldSummonDate:
		return p.SummonDate
	case FieldMediationStartDate:
		return p.MediationStartDate
	case FieldMediationEndDate:
		return p.MediationEndDate
	case FieldMediationOutcome:
		return p.MediationOutcome
	case FieldConciliationStartDate:
		return p.ConciliationStartDate
	case FieldConciliationEndDate:
		return p.ConciliationEndDate
	case FieldConciliationOutcome:
		return p.ConciliationOutcome
	case FieldExtensionDate:
		return p.ExtensionDate
	case FieldCertificationDate:
		return p.CertificationDate
	case FieldResolutionMethod:
		return p.ResolutionMethod
	case FieldEscalatedToEnt:
		return p.EscalatedToEnt
	case FieldRemarks:
		return p.Remarks
	case FieldStatus:
		return string(p.Status)
	default:
		return ""
	}
}

// outcome returns the decision submitted for leaving current.
func (p Payload) outcome(current Status) string {
	f := OutcomeField(current)
	if f == "" {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(p.raw(f)))
}

func (p Payload) set(out *Fields, f Field, now time.Time) error {
	switch f {
	case FieldFilingFee:
		fee := *p.FilingFee
		if !validAmount(fee) {
			return &ValidationError{Field: f, Reason: "must be a non-negative amount"}
		}
		out.FilingFee = &fee
	case FieldFilingFeePaid:
		paid := *p.FilingFeePaid
		out.FilingFeePaid = &paid
	case FieldMediationOutcome, FieldConciliationOutcome:
		o := Outcome(strings.ToUpper(strings.TrimSpace(p.raw(f))))
		if !o.Valid() {
			return &ValidationError{Field: f, Reason: "must be RESOLVED or UNRESOLVED"}
		}
		if f == FieldMediationOutcome {
			out.MediationOutcome = &o
		} else {
			out.ConciliationOutcome = &o
		}
	case FieldResolutionMethod:
		m := ResolutionMethod(strings.ToUpper(strings.TrimSpace(p.ResolutionMethod)))
		if !m.Valid() {
			return &ValidationError{Field: f, Reason: "must be one of AMICABLE, ARBITRATION, CONCILIATION, WITHDRAWAL, OTHER"}
		}
		out.ResolutionMethod = &m
	case FieldEscalatedToEnt:
		target := strings.TrimSpace(p.EscalatedToEnt)
		out.EscalatedTo = &target
	default:
		d, err := ParseDate(p.raw(f), now)
		if err != nil {
			return &ValidationError{Field: f, Reason: err.Error()}
		}
		*datePtr(out, f) = &d
	}
	return nil
}

// validAmount reports whether fee is a finite, non-negative amount.
func validAmount(fee float64) bool {
	return !math.IsNaN(fee) && !math.IsInf(fee, 0) && fee >= 0
}

func datePtr(out *Fields, f Field) **time.Time {
	switch f {
	case FieldDocketDate:
		return &out.DocketDate
	case FieldSummonDate:
		return &out.SummonDate
	case FieldMediationStartDate:
		return &out.MediationStartDate
	case FieldMediationEndDate:
		return &out.MediationEndDate
	case FieldConciliationStartDate:
		return &out.ConciliationStartDate
	case FieldConciliationEndDate:
		return &out.ConciliationEndDate
	case FieldExtensionDate:
		return &out.ExtensionDate
	case FieldCertificationDate:
		return &out.CertificationDate
	}
	panic("blotter: no date field " + string(f))
}

// ParseDate accepts YYYY-MM-DD or RFC 3339 and returns the calendar date in
// UTC. Dates before 1990 or more than a year after now are rejected.
func ParseDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		ts, rfcErr := time.Parse(time.RFC3339, raw)
		if rfcErr != nil {
			return time.Time{}, errDateFormat
		}
		t = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
	if t.Before(minStageDate) || t.After(now.UTC().AddDate(1, 0, 0)) {
		return time.Time{}, errDateRange
	}
	return t, nil
}

type dateError string

func (e dateError) Error() string { return string(e) }

const (
	errDateFormat dateError = "must be a date formatted YYYY-MM-DD"
	errDateRange  dateError = "is outside the accepted date range"
)

func checkRange(f Field, end, start *time.Time) error {
	if end == nil || start == nil {
		return nil
	}
	if end.Before(*start) {
		return &ValidationError{Field: f, Reason: "must not precede the start date"}
	}
	return nil
}

func firstTime(a, b *time.Time) *time.Time {
	if a != nil {
		return a
	}
	return b
}

func containsField(fs []Field, f Field) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}
