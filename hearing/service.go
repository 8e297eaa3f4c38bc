package hearing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidInput wraps every rejected hearing field.
var ErrInvalidInput = errors.New("hearing: invalid input")

// Store is the persistence boundary of the service. Repository satisfies it.
type Store interface {
	ListForCase(ctx context.Context, caseID string) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Create(ctx context.Context, rec Record) (Record, error)
	Update(ctx context.Context, id string, expected Status, next Record) (Record, error)
	MarkLapsed(ctx context.Context, cutoff time.Time) (int64, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) ListForCase(ctx context.Context, caseID string) ([]Record, error) {
	if _, err := uuid.Parse(caseID); err != nil {
		return nil, ErrCaseNotFound
	}
	return s.store.ListForCase(ctx, caseID)
}

// Schedule books a hearing for an open case.
func (s *Service) Schedule(ctx context.Context, in NewHearing) (Record, error) {
	if _, err := uuid.Parse(in.CaseID); err != nil {
		return Record{}, ErrCaseNotFound
	}
	date, err := s.parseDate(in.Date)
	if err != nil {
		return Record{}, err
	}
	in.Time = strings.TrimSpace(in.Time)
	if in.Time != "" {
		if _, err := time.Parse("15:04", in.Time); err != nil {
			return Record{}, fmt.Errorf("%w: time must be formatted HH:MM", ErrInvalidInput)
		}
	}

	return s.store.Create(ctx, Record{
		CaseID:   in.CaseID,
		Date:     date,
		Time:     in.Time,
		Location: strings.TrimSpace(in.Location),
		Status:   StatusScheduled,
		Notes:    strings.TrimSpace(in.Notes),
	})
}

// Update changes the status or notes of a hearing. Moving back to SCHEDULED
// may carry a new date.
func (s *Service) Update(ctx context.Context, id string, ch Change) (Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}

	next := current
	ch.Status = Status(strings.ToUpper(strings.TrimSpace(string(ch.Status))))
	if ch.Status != "" && ch.Status != current.Status {
		if !ch.Status.Valid() {
			return Record{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, ch.Status)
		}
		if !CanMove(current.Status, ch.Status) {
			return Record{}, fmt.Errorf("%w: %s -> %s", ErrBadStatus, current.Status, ch.Status)
		}
		next.Status = ch.Status
	}
	if ch.Notes != nil {
		next.Notes = strings.TrimSpace(*ch.Notes)
	}
	if ch.Date != "" && next.Status == StatusScheduled {
		date, err := s.parseDate(ch.Date)
		if err != nil {
			return Record{}, err
		}
		next.Date = date
	}

	return s.store.Update(ctx, id, current.Status, next)
}

// SweepLapsed marks SCHEDULED hearings dated before yesterday as LAPSED.
func (s *Service) SweepLapsed(ctx context.Context) (int64, error) {
	y, m, d := s.now().UTC().Add(-24 * time.Hour).Date()
	return s.store.MarkLapsed(ctx, time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func (s *Service) parseDate(raw string) (time.Time, error) {
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be formatted YYYY-MM-DD", ErrInvalidInput)
	}
	if date.Year() < 1990 || date.After(s.now().AddDate(2, 0, 0)) {
		return time.Time{}, fmt.Errorf("%w: date is outside the accepted range", ErrInvalidInput)
	}
	return date, nil
}
