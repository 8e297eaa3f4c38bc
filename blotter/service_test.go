package blotter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestProposeTransition_FiledToDocketed(t *testing.T) {
	svc, repo := newTestService()
	c := repo.seed(StatusFiled)

	got, err := svc.ProposeTransition(context.Background(), TransitionRequest{
		CaseID:         c.ID,
		ExpectedStatus: StatusFiled,
		ActorID:        "official-1",
		Payload:        Payload{Status: StatusDocketed, DocketDate: "2024-01-10"},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.Status != StatusDocketed {
		t.Fatalf("expected DOCKETED, got %s", got.Status)
	}
	if got.DocketDate == nil || !got.DocketDate.Equal(day("2024-01-10")) {
		t.Fatalf("expected docket date 2024-01-10, got %v", got.DocketDate)
	}

	history := repo.history(c.ID)
	if len(history) != 1 {
		t.Fatalf("expected one status update, got %d", len(history))
	}
	u := history[0]
	if u.FromStatus != StatusFiled || u.Status != StatusDocketed || u.Seq != 1 || u.ActorID != "official-1" {
		t.Errorf("unexpected status update %+v", u)
	}
}

func TestProposeTransition_MediationUnresolvedGoesToConciliation(t *testing.T) {
	svc, repo := newTestService()
	c := repo.seed(StatusMediation)

	got, err := svc.ProposeTransition(context.Background(), TransitionRequest{
		CaseID: c.ID,
		Payload: Payload{
			Status:                StatusMediation,
			MediationOutcome:      "UNRESOLVED",
			ConciliationStartDate: "2024-02-01",
		},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.Status != StatusConciliation {
		t.Fatalf("expected CONCILIATION, got %s", got.Status)
	}
	if got.MediationOutcome == nil || *got.MediationOutcome != OutcomeUnresolved {
		t.Errorf("expected mediation outcome to be recorded, got %v", got.MediationOutcome)
	}
	if h := repo.history(c.ID); len(h) != 1 || h[0].Status != StatusConciliation {
		t.Errorf("expected one update into CONCILIATION, got %+v", h)
	}
}

func TestProposeTransition_DecisionPointDefaultsRequestedStatus(t *testing.T) {
	svc, repo := newTestService()
	c := repo.seed(StatusConciliation)

	got, err := svc.ProposeTransition(context.Background(), TransitionRequest{
		CaseID:  c.ID,
		Payload: Payload{ConciliationOutcome: "unresolved", ExtensionDate: "2024-02-20"},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.Status != StatusExtended {
		t.Fatalf("expected EXTENDED, got %s", got.Status)
	}
}

func TestProposeTransition_MediationWithoutOutcome(t *testing.T) {
	svc, repo := newTestService()
	c := repo.seed(StatusMediation)

	_, err := svc.ProposeTransition(context.Background(), TransitionRequest{
		CaseID:  c.ID,
		Payload: Payload{Status: StatusMediation, MediationEndDate: "2024-02-01"},
	})
	var missing *MissingDecisionError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingDecisionError, got %v", err)
	}
	if missing.Field != FieldMediationOutcome {
		t.Errorf("expected error to name mediationOutcome, got %s", missing.Field)
	}
	repo.assertUnchanged(t, c)
}

func TestProposeTransition_ConciliationResolvedNeedsMethod(t *testing.T) {
	svc, repo := newTestService()
	c := repo.seed(StatusConciliation)

	_, err := svc.ProposeTransition(context.Background(), TransitionRequest{
		CaseID:  c.ID,
		Payload: Payload{Status: StatusConciliation, ConciliationOutcome: "RESOLVED"},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != FieldResolutionMethod {
		t.Errorf("expected error to name resolutionMethod, got %s", verr.Field)
	}
	repo.assertUnchanged(t, c)
}

func TestProposeTransition_CertifiedCannotGoBack(t *testing.T) {
	svc, repo := newTestService()
	c := repo.seed(StatusCertified)

	_, err := svc.ProposeTransition(context.Background(), TransitionRequest{
		CaseID:  c.ID,
		Payload: Payload{Status: StatusDocketed, DocketDate: "2024-01-10"},
	})
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if invalid.From != StatusCertified || invalid.To != StatusDocketed {
		t.Errorf("expected error to name CERTIFIED -> DOCKETED, got %s -> %s", invalid.From, invalid.To)
	}
	repo.assertUnchanged(t, c)
}

func TestProposeTransition_UnknownCase(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ProposeTransition(context.Background(), TransitionRequest{
		CaseID:  "missing",
		Payload: Payload{Status: StatusDocketed, DocketDate: "2024-01-10"},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProposeTransition_StaleExpectedStatus(t *testing.T) {
	svc, repo := newTestService()
	c := repo.seed(StatusDocketed)

	_, err := svc.ProposeTransition(context.Background(), TransitionRequest{
		CaseID:         c.ID,
		ExpectedStatus: StatusFiled,
		Payload:        Payload{Status: StatusDocketed, DocketDate: "2024-01-10"},
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Actual != StatusDocketed || conflict.Expected != StatusFiled {
		t.Errorf("unexpected conflict %+v", conflict)
	}
	repo.assertUnchanged(t, c)
}

// Every (status, requested) pair either lands exactly where the workflow says
// or is rejected with one of the workflow errors and writes nothing.
func TestProposeTransition_EveryPair(t *testing.T) {
	for _, current := range AllStatuses {
		for _, requested := range AllStatuses {
			for _, outcome := range []string{"", "RESOLVED", "UNRESOLVED"} {
				name := fmt.Sprintf("%s->%s/%s", current, requested, outcome)
				t.Run(name, func(t *testing.T) {
					svc, repo := newTestService()
					c := repo.seed(current)

					p := fullPayload(requested)
					p.MediationOutcome = outcome
					p.ConciliationOutcome = outcome

					got, err := svc.ProposeTransition(context.Background(), TransitionRequest{CaseID: c.ID, Payload: p})
					want, wantErr := ResolveEffectiveStatus(current, requested, outcome)

					if wantErr != nil {
						if err == nil {
							t.Fatalf("expected rejection, got %s", got.Status)
						}
						if ErrorKind(err) != ErrorKind(wantErr) {
							t.Fatalf("expected %s, got %v", ErrorKind(wantErr), err)
						}
						repo.assertUnchanged(t, c)
						return
					}
					if err != nil {
						t.Fatalf("expected success, got %v", err)
					}
					if got.Status != want {
						t.Fatalf("expected %s, got %s", want, got.Status)
					}
					h := repo.history(c.ID)
					if len(h) != 1 || h[0].FromStatus != current || h[0].Status != want {
						t.Fatalf("unexpected history %+v", h)
					}
				})
			}
		}
	}
}

func TestProposeTransition_HistoryCoversEveryTransition(t *testing.T) {
	svc, repo := newTestService()
	c := repo.seed(StatusFiled)
	ctx := context.Background()

	steps := []Payload{
		{Status: StatusDocketed, DocketDate: "2024-01-10", FilingFee: ptr(100.0), FilingFeePaid: ptr(true)},
		{Status: StatusSummoned, SummonDate: "2024-01-12"},
		{Status: StatusMediation, MediationStartDate: "2024-01-15"},
		{Status: StatusMediation, MediationOutcome: "UNRESOLVED", MediationEndDate: "2024-01-30", ConciliationStartDate: "2024-02-01"},
		{Status: StatusConciliation, ConciliationOutcome: "UNRESOLVED", ExtensionDate: "2024-02-16"},
		{Status: StatusCertified, CertificationDate: "2024-02-20"},
		{Status: StatusEscalated, EscalatedToEnt: "Municipal Trial Court"},
		{Status: StatusDismissed, Remarks: "complainant withdrew in court"},
	}
	var last Case
	for i, p := range steps {
		var err error
		last, err = svc.ProposeTransition(ctx, TransitionRequest{CaseID: c.ID, Payload: p})
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	history, err := svc.History(ctx, c.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != len(steps) {
		t.Fatalf("expected %d updates, got %d", len(steps), len(history))
	}
	prev := StatusFiled
	for i, u := range history {
		if u.Seq != i+1 {
			t.Errorf("update %d has seq %d", i, u.Seq)
		}
		if u.FromStatus != prev {
			t.Errorf("update %d starts at %s, previous ended at %s", i, u.FromStatus, prev)
		}
		prev = u.Status
	}
	if prev != last.Status {
		t.Errorf("last update ends at %s, case is %s", prev, last.Status)
	}
	if !last.FilingFeePaid || last.FilingFee != 100 {
		t.Errorf("expected filing fee of 100 marked paid, got %v/%v", last.FilingFee, last.FilingFeePaid)
	}
	if history[len(history)-1].Remarks != "complainant withdrew in court" {
		t.Errorf("expected remarks on final update")
	}
}

func TestProposeTransition_ConcurrentSameStatus(t *testing.T) {
	svc, repo := newTestService()
	c := repo.seed(StatusFiled)
	repo.barrier(2)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ProposeTransition(context.Background(), TransitionRequest{
				CaseID:         c.ID,
				ExpectedStatus: StatusFiled,
				ActorID:        fmt.Sprintf("official-%d", i),
				Payload:        Payload{Status: StatusDocketed, DocketDate: "2024-01-10"},
			})
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Fatalf("expected one success and one conflict, got %d/%d", ok, conflicts)
	}
	if h := repo.history(c.ID); len(h) != 1 {
		t.Fatalf("expected a single status update, got %d", len(h))
	}
}

// Two lateral corrections of a RESOLVED case keep the status unchanged, so
// only the version tells the second writer its read is stale.
func TestProposeTransition_ConcurrentTerminalSelfTransition(t *testing.T) {
	svc, repo := newTestService()
	c := repo.seed(StatusResolved)
	repo.barrier(2)

	methods := []ResolutionMethod{ResolutionAmicable, ResolutionArbitration}
	var wg sync.WaitGroup
	errs := make([]error, len(methods))
	for i, m := range methods {
		wg.Add(1)
		go func(i int, m ResolutionMethod) {
			defer wg.Done()
			_, errs[i] = svc.ProposeTransition(context.Background(), TransitionRequest{
				CaseID:         c.ID,
				ExpectedStatus: StatusResolved,
				ActorID:        fmt.Sprintf("official-%d", i),
				Payload:        Payload{Status: StatusResolved, ResolutionMethod: string(m)},
			})
		}(i, m)
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		switch {
		case err == nil:
			if winner >= 0 {
				t.Fatalf("both corrections committed")
			}
			winner = i
		case errors.Is(err, ErrConflict):
			var conflict *ConflictError
			if !errors.As(err, &conflict) || conflict.ExpectedVersion != 0 || conflict.ActualVersion != 1 {
				t.Errorf("expected version conflict 0 -> 1, got %+v", err)
			}
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if winner < 0 {
		t.Fatalf("expected one correction to commit, got %v", errs)
	}

	h := repo.history(c.ID)
	if len(h) != 1 {
		t.Fatalf("expected a single status update, got %d", len(h))
	}
	repo.mu.Lock()
	got := repo.cases[c.ID]
	repo.mu.Unlock()
	if got.ResolutionMethod == nil || *got.ResolutionMethod != methods[winner] {
		t.Errorf("expected case to carry the committed method %s, got %v", methods[winner], got.ResolutionMethod)
	}
	if got.Version != 1 {
		t.Errorf("expected version 1, got %d", got.Version)
	}
}

func TestProposeTransition_StaleExpectedVersion(t *testing.T) {
	svc, repo := newTestService()
	c := repo.seed(StatusResolved)
	ctx := context.Background()

	first, err := svc.ProposeTransition(ctx, TransitionRequest{
		CaseID:          c.ID,
		ExpectedVersion: ptr(0),
		Payload:         Payload{Status: StatusResolved, ResolutionMethod: string(ResolutionAmicable)},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if first.Version != 1 {
		t.Fatalf("expected version 1, got %d", first.Version)
	}

	_, err = svc.ProposeTransition(ctx, TransitionRequest{
		CaseID:          c.ID,
		ExpectedVersion: ptr(0),
		Payload:         Payload{Status: StatusResolved, ResolutionMethod: string(ResolutionArbitration)},
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.ExpectedVersion != 0 || conflict.ActualVersion != 1 {
		t.Errorf("unexpected conflict %+v", conflict)
	}
	if h := repo.history(c.ID); len(h) != 1 {
		t.Errorf("expected the stale correction to write nothing, got %d updates", len(h))
	}
}

func TestConfirmFilingFee(t *testing.T) {
	svc, repo := newTestService()
	c := repo.seed(StatusFiled)

	got, err := svc.ConfirmFilingFee(context.Background(), PaymentRequest{CaseID: c.ID, Amount: ptr(250.0)})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !got.FilingFeePaid || got.FilingFee != 250 || got.FilingFeePaidAt == nil {
		t.Fatalf("expected fee of 250 marked paid, got %+v", got)
	}
	if got.Status != StatusFiled {
		t.Errorf("payment must not move the case, got %s", got.Status)
	}
	if h := repo.history(c.ID); len(h) != 0 {
		t.Errorf("payment must not write status updates, got %d", len(h))
	}
	if got.Version != c.Version+1 {
		t.Errorf("expected payment to bump the version, got %d", got.Version)
	}
}

func TestConfirmFilingFee_Rejections(t *testing.T) {
	svc, repo := newTestService()
	done := repo.seed(StatusClosed)
	open := repo.seed(StatusSummoned)

	if _, err := svc.ConfirmFilingFee(context.Background(), PaymentRequest{CaseID: done.ID}); !errors.Is(err, ErrCaseTerminal) {
		t.Errorf("expected ErrCaseTerminal, got %v", err)
	}
	for _, amount := range []float64{-5, math.NaN(), math.Inf(1)} {
		if _, err := svc.ConfirmFilingFee(context.Background(), PaymentRequest{CaseID: open.ID, Amount: ptr(amount)}); !errors.Is(err, ErrValidation) {
			t.Errorf("amount %v: expected ErrValidation, got %v", amount, err)
		}
	}
	if _, err := svc.ConfirmFilingFee(context.Background(), PaymentRequest{CaseID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateCase(t *testing.T) {
	svc, repo := newTestService()
	residentID := "resident-7"
	svc.WithPartyResolver(staticParties{residentID: {ResidentID: &residentID, Name: "Maria Santos", Address: "Purok 3"}})

	got, err := svc.CreateCase(context.Background(), NewCase{
		IncidentType: "Noise complaint",
		IncidentDate: "2024-02-20",
		IncidentTime: "21:45",
		Complainant:  Party{ResidentID: &residentID, Contact: "0917"},
		Respondent:   Party{Name: "  Jose Cruz "},
		FilingFee:    ptr(50.0),
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.Status != StatusFiled || got.Priority != PriorityMedium {
		t.Errorf("expected FILED/MEDIUM, got %s/%s", got.Status, got.Priority)
	}
	if got.CaseNumber != "BLT-2024-0001" {
		t.Errorf("unexpected case number %q", got.CaseNumber)
	}
	if got.Complainant.Name != "Maria Santos" || got.Complainant.Contact != "0917" {
		t.Errorf("expected complainant resolved from registry, got %+v", got.Complainant)
	}
	if got.Respondent.Name != "Jose Cruz" {
		t.Errorf("expected trimmed respondent name, got %q", got.Respondent.Name)
	}
	if got.FilingFeePaid {
		t.Errorf("new case must not be marked paid")
	}
	if h := repo.history(got.ID); len(h) != 0 {
		t.Errorf("creation must not write status updates, got %d", len(h))
	}
}

func TestCreateCase_Validation(t *testing.T) {
	valid := NewCase{
		IncidentType: "Trespass",
		IncidentDate: "2024-02-20",
		Complainant:  Party{Name: "A"},
		Respondent:   Party{Name: "B"},
	}
	tests := []struct {
		name  string
		edit  func(*NewCase)
		field Field
	}{
		{"priority", func(n *NewCase) { n.Priority = "CRITICAL" }, "priority"},
		{"incident type", func(n *NewCase) { n.IncidentType = " " }, "incidentType"},
		{"incident date format", func(n *NewCase) { n.IncidentDate = "Feb 20" }, "incidentDate"},
		{"incident date future", func(n *NewCase) { n.IncidentDate = "2024-06-01" }, "incidentDate"},
		{"incident time", func(n *NewCase) { n.IncidentTime = "9pm" }, "incidentTime"},
		{"negative fee", func(n *NewCase) { n.FilingFee = ptr(-1.0) }, FieldFilingFee},
		{"NaN fee", func(n *NewCase) { n.FilingFee = ptr(math.NaN()) }, FieldFilingFee},
		{"infinite fee", func(n *NewCase) { n.FilingFee = ptr(math.Inf(1)) }, FieldFilingFee},
		{"complainant", func(n *NewCase) { n.Complainant = Party{} }, "complainant.name"},
		{"respondent", func(n *NewCase) { n.Respondent = Party{Name: "  "} }, "respondent.name"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestService()
			nc := valid
			tc.edit(&nc)
			_, err := svc.CreateCase(context.Background(), nc)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Errorf("expected field %s, got %s", tc.field, verr.Field)
			}
		})
	}
}

func TestListCases_RejectsUnknownFilters(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.ListCases(context.Background(), Filters{Status: "OPEN"}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for status filter, got %v", err)
	}
	if _, err := svc.ListCases(context.Background(), Filters{Priority: "P0"}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for priority filter, got %v", err)
	}
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	n := 0
	svc := NewService(repo).
		WithClock(func() time.Time { return testNow }).
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		})
	return svc, repo
}

// fullPayload carries every field any target could need so that only the
// workflow rules decide the outcome.
func fullPayload(requested Status) Payload {
	return Payload{
		Status:                requested,
		FilingFee:             ptr(100.0),
		FilingFeePaid:         ptr(false),
		DocketDate:            "2024-01-10",
		SummonDate:            "2024-01-12",
		MediationStartDate:    "2024-01-15",
		MediationEndDate:      "2024-01-30",
		ConciliationStartDate: "2024-02-01",
		ConciliationEndDate:   "2024-02-14",
		ExtensionDate:         "2024-02-16",
		CertificationDate:     "2024-02-20",
		ResolutionMethod:      "AMICABLE",
		EscalatedToEnt:        "Municipal Trial Court",
	}
}

type staticParties map[string]Party

func (s staticParties) ResolveParty(_ context.Context, id string) (Party, error) {
	p, ok := s[id]
	if !ok {
		return Party{}, errors.New("resident not found")
	}
	return p, nil
}

type memRepo struct {
	mu      sync.Mutex
	cases   map[string]Case
	updates map[string][]StatusUpdate
	seq     int64
	reads   *sync.WaitGroup
}

func newMemRepo() *memRepo {
	return &memRepo{cases: map[string]Case{}, updates: map[string][]StatusUpdate{}}
}

// barrier makes the next n reads wait for each other before returning.
func (m *memRepo) barrier(n int) {
	m.reads = &sync.WaitGroup{}
	m.reads.Add(n)
}

func (m *memRepo) seed(status Status) Case {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c := Case{
		ID:           fmt.Sprintf("case-%d", m.seq),
		CaseNumber:   formatCaseNumber(testNow, m.seq),
		Status:       status,
		Priority:     PriorityMedium,
		IncidentType: "Dispute",
		IncidentDate: day("2024-01-05"),
		Complainant:  Party{Name: "A"},
		Respondent:   Party{Name: "B"},
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	m.cases[c.ID] = c
	return c
}

func (m *memRepo) history(id string) []StatusUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StatusUpdate(nil), m.updates[id]...)
}

func (m *memRepo) assertUnchanged(t *testing.T, want Case) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	got := m.cases[want.ID]
	if got.Status != want.Status || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("expected case to stay %s, got %s", want.Status, got.Status)
	}
	if n := len(m.updates[want.ID]); n != 0 {
		t.Errorf("expected no status updates, got %d", n)
	}
}

func (m *memRepo) CreateCase(_ context.Context, c Case) (Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c.CaseNumber = formatCaseNumber(c.CreatedAt, m.seq)
	m.cases[c.ID] = c
	return c, nil
}

func (m *memRepo) ReadCase(_ context.Context, id string) (Case, error) {
	m.mu.Lock()
	c, ok := m.cases[id]
	reads := m.reads
	m.mu.Unlock()
	if reads != nil {
		reads.Done()
		reads.Wait()
	}
	if !ok {
		return Case{}, ErrNotFound
	}
	return c, nil
}

func (m *memRepo) ListCases(_ context.Context, f Filters) ([]Case, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Case
	for _, c := range m.cases {
		if f.Status == "" || c.Status == f.Status {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memRepo) WriteTransition(_ context.Context, seen Observed, u StatusUpdate) (Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[u.CaseID]
	if !ok {
		return Case{}, ErrNotFound
	}
	if c.observed() != seen {
		return Case{}, conflict(c, seen)
	}
	u.Seq = len(m.updates[c.ID]) + 1
	c.apply(u)
	m.cases[c.ID] = c
	m.updates[c.ID] = append(m.updates[c.ID], u)
	return c, nil
}

func (m *memRepo) History(_ context.Context, id string) ([]StatusUpdate, error) {
	return m.history(id), nil
}

func (m *memRepo) MarkFilingFeePaid(_ context.Context, id string, seen Observed, amount *float64, paidAt time.Time) (Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return Case{}, ErrNotFound
	}
	if c.observed() != seen {
		return Case{}, conflict(c, seen)
	}
	if amount != nil {
		c.FilingFee = *amount
	}
	if !c.FilingFeePaid {
		c.FilingFeePaid = true
		c.FilingFeePaidAt = &paidAt
	}
	c.Version++
	m.cases[id] = c
	return c, nil
}
