package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nerraj-droid/bisig-final-sub001/blotter"
	"github.com/nerraj-droid/bisig-final-sub001/hearing"
)

// Cases is the shared pool of case ids the actors fight over.
type Cases struct {
	mu  sync.Mutex
	ids []string
}

func (c *Cases) Add(id string) {
	c.mu.Lock()
	c.ids = append(c.ids, id)
	c.mu.Unlock()
}

// Pick returns a random known case id.
func (c *Cases) Pick() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.ids) == 0 {
		return "", false
	}
	return c.ids[rand.Intn(len(c.ids))], true
}

func (c *Cases) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}

func stopped(ctx context.Context, stop <-chan struct{}) bool {
	select {
	case <-ctx.Done():
		return true
	case <-stop:
		return true
	default:
		return false
	}
}

func pause(minMs, spreadMs int) {
	time.Sleep(time.Duration(minMs+rand.Intn(spreadMs)) * time.Millisecond)
}

// Filer keeps adding fresh cases so there is always something to move.
func Filer(ctx context.Context, svc *blotter.Service, cases *Cases, stop <-chan struct{}) error {
	fee := 50.0
	for n := 0; !stopped(ctx, stop); n++ {
		c, err := svc.CreateCase(ctx, blotter.NewCase{
			IncidentType: "Boundary dispute",
			IncidentDate: time.Now().UTC().AddDate(0, 0, -7).Format(time.DateOnly),
			Complainant:  blotter.Party{Name: fmt.Sprintf("Complainant %d", n)},
			Respondent:   blotter.Party{Name: fmt.Sprintf("Respondent %d", n)},
			FilingFee:    &fee,
		})
		if err == nil {
			cases.Add(c.ID)
		} else if blotter.ErrorKind(err) != "" {
			return fmt.Errorf("filer create: %w", err)
		}
		pause(50, 100)
	}
	return nil
}

// Proposer reads a random case and proposes a random allowed move with every
// stage field filled in. Closed cases occasionally get a lateral correction to
// another terminal status, including their own. Losing the race to another
// proposer is expected.
func Proposer(ctx context.Context, svc *blotter.Service, cases *Cases, actorID string, stop <-chan struct{}) error {
	day := time.Now().UTC().AddDate(0, 0, -1).Format(time.DateOnly)
	for !stopped(ctx, stop) {
		id, ok := cases.Pick()
		if !ok {
			pause(10, 20)
			continue
		}
		c, err := svc.GetCase(ctx, id)
		if err != nil || (c.Status.Terminal() && rand.Intn(4) != 0) {
			pause(5, 10)
			continue
		}

		p := fullPayload(day)
		if c.Status.DecisionPoint() {
			p.Status = ""
			if rand.Intn(2) == 0 {
				p.MediationOutcome, p.ConciliationOutcome = string(blotter.OutcomeResolved), string(blotter.OutcomeResolved)
			}
		} else {
			next := blotter.AllowedNext(c.Status)
			p.Status = next[rand.Intn(len(next))]
		}

		_, err = svc.ProposeTransition(ctx, blotter.TransitionRequest{
			CaseID:          id,
			ExpectedStatus:  c.Status,
			ExpectedVersion: &c.Version,
			ActorID:         actorID,
			Payload:         p,
		})
		switch {
		case err == nil, errors.Is(err, blotter.ErrConflict):
		case errors.Is(err, blotter.ErrInvalidTransition), errors.Is(err, blotter.ErrValidation), errors.Is(err, blotter.ErrMissingDecision):
			return fmt.Errorf("proposer %s on %s from %s: %w", actorID, id, c.Status, err)
		}
		pause(5, 20)
	}
	return nil
}

var methods = []blotter.ResolutionMethod{blotter.ResolutionAmicable, blotter.ResolutionArbitration, blotter.ResolutionConciliation}

func fullPayload(day string) blotter.Payload {
	paid := rand.Intn(2) == 0
	return blotter.Payload{
		Remarks:               "stress",
		FilingFeePaid:         &paid,
		DocketDate:            day,
		SummonDate:            day,
		MediationStartDate:    day,
		MediationEndDate:      day,
		MediationOutcome:      string(blotter.OutcomeUnresolved),
		ConciliationStartDate: day,
		ConciliationEndDate:   day,
		ConciliationOutcome:   string(blotter.OutcomeUnresolved),
		ExtensionDate:         day,
		CertificationDate:     day,
		ResolutionMethod:      string(methods[rand.Intn(len(methods))]),
		EscalatedToEnt:        "Municipal Trial Court",
	}
}

// Payer confirms filing fees on random cases while proposers move them.
func Payer(ctx context.Context, svc *blotter.Service, cases *Cases, stop <-chan struct{}) error {
	for !stopped(ctx, stop) {
		if id, ok := cases.Pick(); ok {
			_, err := svc.ConfirmFilingFee(ctx, blotter.PaymentRequest{CaseID: id})
			if errors.Is(err, blotter.ErrValidation) {
				return fmt.Errorf("payer on %s: %w", id, err)
			}
		}
		pause(30, 50)
	}
	return nil
}

// Scheduler books hearings, some in the past so the lapse sweep has work.
func Scheduler(ctx context.Context, svc *hearing.Service, cases *Cases, stop <-chan struct{}) error {
	for !stopped(ctx, stop) {
		if id, ok := cases.Pick(); ok {
			date := time.Now().UTC().AddDate(0, 0, rand.Intn(10)-5).Format(time.DateOnly)
			_, err := svc.Schedule(ctx, hearing.NewHearing{CaseID: id, Date: date, Time: "09:00", Location: "Barangay Hall"})
			if errors.Is(err, hearing.ErrInvalidInput) {
				return fmt.Errorf("scheduler on %s: %w", id, err)
			}
		}
		if rand.Intn(10) == 0 {
			_, _ = svc.SweepLapsed(ctx)
		}
		pause(40, 60)
	}
	return nil
}

// Tamperer tries to rewrite and delete history rows. Any success means the
// append-only guard is broken.
func Tamperer(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	for !stopped(ctx, stop) {
		tag, err := pool.Exec(ctx, `UPDATE blotter_status_updates SET remarks = 'rewritten'
                                    WHERE id = (SELECT id FROM blotter_status_updates ORDER BY random() LIMIT 1)`)
		if err == nil && tag.RowsAffected() > 0 {
			return errors.New("tamperer: status update was rewritten")
		}
		tag, err = pool.Exec(ctx, `DELETE FROM blotter_status_updates
                                   WHERE id = (SELECT id FROM blotter_status_updates ORDER BY random() LIMIT 1)`)
		if err == nil && tag.RowsAffected() > 0 {
			return errors.New("tamperer: status update was deleted")
		}
		pause(200, 200)
	}
	return nil
}
