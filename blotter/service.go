package blotter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence boundary of the workflow. WriteTransition
// moves the case to update.Status, merges update.Fields into its stage
// columns and appends update to the history, all atomically and only if the
// stored status and version still equal seen. Otherwise it returns a
// *ConflictError (or ErrNotFound) and writes nothing. The store assigns Seq
// and CreatedAt and bumps the version.
type Repository interface {
	CreateCase(ctx context.Context, c Case) (Case, error)
	ReadCase(ctx context.Context, id string) (Case, error)
	ListCases(ctx context.Context, filters Filters) ([]Case, int, error)
	WriteTransition(ctx context.Context, seen Observed, update StatusUpdate) (Case, error)
	History(ctx context.Context, caseID string) ([]StatusUpdate, error)
	MarkFilingFeePaid(ctx context.Context, caseID string, seen Observed, amount *float64, paidAt time.Time) (Case, error)
}

// PartyResolver looks up registry details for a resident party.
type PartyResolver interface {
	ResolveParty(ctx context.Context, residentID string) (Party, error)
}

type Service struct {
	repo        Repository
	parties     PartyResolver
	idGenerator func() string
	now         func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:        repo,
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

func (s *Service) WithPartyResolver(r PartyResolver) *Service {
	s.parties = r
	return s
}

// TransitionRequest asks to move a case. ExpectedStatus is the status the
// caller observed and ExpectedVersion the version it read; either one, when
// set and stale, fails the request with ErrConflict.
type TransitionRequest struct {
	CaseID          string
	ExpectedStatus  Status
	ExpectedVersion *int
	ActorID         string
	Payload         Payload
}

// ProposeTransition validates a transition against the workflow and, when
// valid, records it. The case and its new status update are written together
// or not at all.
func (s *Service) ProposeTransition(ctx context.Context, req TransitionRequest) (Case, error) {
	if req.CaseID == "" {
		return Case{}, fmt.Errorf("blotter: missing case id")
	}

	current, err := s.repo.ReadCase(ctx, req.CaseID)
	if err != nil {
		return Case{}, err
	}
	if req.ExpectedStatus != "" && req.ExpectedStatus != current.Status {
		return Case{}, conflict(current, Observed{Status: req.ExpectedStatus, Version: current.Version})
	}
	if req.ExpectedVersion != nil && *req.ExpectedVersion != current.Version {
		return Case{}, conflict(current, Observed{Status: current.Status, Version: *req.ExpectedVersion})
	}

	requested := Status(strings.ToUpper(strings.TrimSpace(string(req.Payload.Status))))
	if requested == "" && current.Status.DecisionPoint() {
		// Decision points only pass through themselves; the outcome picks the target.
		requested = current.Status
	}
	effective, err := ResolveEffectiveStatus(current.Status, requested, req.Payload.outcome(current.Status))
	if err != nil {
		return Case{}, err
	}

	now := s.now()
	fields, err := req.Payload.validate(current, effective, now)
	if err != nil {
		return Case{}, err
	}

	update := StatusUpdate{
		ID:         s.idGenerator(),
		CaseID:     current.ID,
		FromStatus: current.Status,
		Status:     effective,
		ActorID:    req.ActorID,
		Remarks:    strings.TrimSpace(req.Payload.Remarks),
		Fields:     fields,
		CreatedAt:  now,
	}

	return s.repo.WriteTransition(ctx, current.observed(), update)
}

// CreateCase files a new case in FILED status.
func (s *Service) CreateCase(ctx context.Context, nc NewCase) (Case, error) {
	now := s.now()

	if nc.Priority == "" {
		nc.Priority = PriorityMedium
	}
	nc.Priority = Priority(strings.ToUpper(string(nc.Priority)))
	if !nc.Priority.Valid() {
		return Case{}, &ValidationError{Field: "priority", Reason: "must be one of LOW, MEDIUM, HIGH, URGENT"}
	}
	if strings.TrimSpace(nc.IncidentType) == "" {
		return Case{}, &ValidationError{Field: "incidentType", Reason: "is required"}
	}
	incidentDate, err := ParseDate(nc.IncidentDate, now)
	if err != nil {
		return Case{}, &ValidationError{Field: "incidentDate", Reason: err.Error()}
	}
	if incidentDate.After(now) {
		return Case{}, &ValidationError{Field: "incidentDate", Reason: "must not be in the future"}
	}
	if nc.IncidentTime != "" {
		if _, err := time.Parse("15:04", nc.IncidentTime); err != nil {
			return Case{}, &ValidationError{Field: "incidentTime", Reason: "must be formatted HH:MM"}
		}
	}
	var fee float64
	if nc.FilingFee != nil {
		fee = *nc.FilingFee
		if !validAmount(fee) {
			return Case{}, &ValidationError{Field: FieldFilingFee, Reason: "must be a non-negative amount"}
		}
	}

	complainant, err := s.party(ctx, "complainant", nc.Complainant)
	if err != nil {
		return Case{}, err
	}
	respondent, err := s.party(ctx, "respondent", nc.Respondent)
	if err != nil {
		return Case{}, err
	}

	c := Case{
		ID:               s.idGenerator(),
		Status:           StatusFiled,
		Priority:         nc.Priority,
		IncidentType:     strings.TrimSpace(nc.IncidentType),
		IncidentDate:     incidentDate,
		IncidentTime:     nc.IncidentTime,
		IncidentLocation: strings.TrimSpace(nc.IncidentLocation),
		Description:      strings.TrimSpace(nc.Description),
		Complainant:      complainant,
		Respondent:       respondent,
		FilingFee:        fee,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return s.repo.CreateCase(ctx, c)
}

func (s *Service) party(ctx context.Context, role string, p Party) (Party, error) {
	if p.ResidentID != nil && *p.ResidentID != "" && s.parties != nil {
		resolved, err := s.parties.ResolveParty(ctx, *p.ResidentID)
		if err != nil {
			return Party{}, fmt.Errorf("blotter: resolve %s: %w", role, err)
		}
		if p.Contact != "" {
			resolved.Contact = p.Contact
		}
		return resolved, nil
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Party{}, &ValidationError{Field: Field(role + ".name"), Reason: "is required"}
	}
	p.Address = strings.TrimSpace(p.Address)
	p.Contact = strings.TrimSpace(p.Contact)
	return p, nil
}

func (s *Service) GetCase(ctx context.Context, id string) (Case, error) {
	return s.repo.ReadCase(ctx, id)
}

func (s *Service) ListCases(ctx context.Context, filters Filters) (ListResult, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return ListResult{}, &ValidationError{Field: FieldStatus, Reason: "is not a known status"}
	}
	if filters.Priority != "" && !filters.Priority.Valid() {
		return ListResult{}, &ValidationError{Field: "priority", Reason: "is not a known priority"}
	}
	items, total, err := s.repo.ListCases(ctx, filters.normalized())
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

// History returns the status updates of a case in the order they happened.
func (s *Service) History(ctx context.Context, caseID string) ([]StatusUpdate, error) {
	if _, err := s.repo.ReadCase(ctx, caseID); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, caseID)
}

// Steps loads a case and derives its progress tracker.
func (s *Service) Steps(ctx context.Context, caseID string) ([]Step, error) {
	c, err := s.repo.ReadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return ComputeDisplaySteps(c), nil
}

// PaymentRequest confirms the filing fee was received at the hall.
type PaymentRequest struct {
	CaseID string
	// Amount overrides the recorded fee when the collected amount differs.
	Amount *float64
}

// ConfirmFilingFee is the explicit action that marks the filing fee as paid.
func (s *Service) ConfirmFilingFee(ctx context.Context, req PaymentRequest) (Case, error) {
	if req.Amount != nil && !validAmount(*req.Amount) {
		return Case{}, &ValidationError{Field: FieldFilingFee, Reason: "must be a non-negative amount"}
	}
	c, err := s.repo.ReadCase(ctx, req.CaseID)
	if err != nil {
		return Case{}, err
	}
	if c.Status.Terminal() {
		return Case{}, ErrCaseTerminal
	}
	return s.repo.MarkFilingFeePaid(ctx, c.ID, c.observed(), req.Amount, s.now())
}
