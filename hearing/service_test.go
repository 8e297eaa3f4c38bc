package hearing

import (
	"context"
	"errors"
	"testing"
	"time"
)

const caseID = "5f0c2a8e-8d7b-4c43-9a59-2b7f0e0d6b11"

var fixedNow = time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)

func TestSchedule(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store).WithClock(func() time.Time { return fixedNow })

	rec, err := svc.Schedule(context.Background(), NewHearing{
		CaseID:   caseID,
		Date:     "2024-03-15",
		Time:     "09:30",
		Location: " Barangay Hall ",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if rec.Status != StatusScheduled {
		t.Errorf("expected SCHEDULED, got %s", rec.Status)
	}
	if rec.Location != "Barangay Hall" {
		t.Errorf("expected trimmed location, got %q", rec.Location)
	}
	if !rec.Date.Equal(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %v", rec.Date)
	}
}

func TestSchedule_Rejections(t *testing.T) {
	svc := NewService(newFakeStore()).WithClock(func() time.Time { return fixedNow })
	ctx := context.Background()

	if _, err := svc.Schedule(ctx, NewHearing{CaseID: "nope", Date: "2024-03-15"}); !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("expected ErrCaseNotFound, got %v", err)
	}
	if _, err := svc.Schedule(ctx, NewHearing{CaseID: caseID, Date: "15/03/2024"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for date, got %v", err)
	}
	if _, err := svc.Schedule(ctx, NewHearing{CaseID: caseID, Date: "2024-03-15", Time: "half past nine"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for time, got %v", err)
	}

	closed := newFakeStore()
	closed.createErr = ErrCaseClosed
	svc = NewService(closed).WithClock(func() time.Time { return fixedNow })
	if _, err := svc.Schedule(ctx, NewHearing{CaseID: caseID, Date: "2024-03-15"}); !errors.Is(err, ErrCaseClosed) {
		t.Errorf("expected ErrCaseClosed, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store).WithClock(func() time.Time { return fixedNow })
	ctx := context.Background()

	rec, err := svc.Schedule(ctx, NewHearing{CaseID: caseID, Date: "2024-03-15"})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	notes := "respondent asked for more time"
	rec, err = svc.Update(ctx, rec.ID, Change{Status: "postponed", Notes: &notes})
	if err != nil {
		t.Fatalf("postpone: %v", err)
	}
	if rec.Status != StatusPostponed || rec.Notes != notes {
		t.Fatalf("unexpected record %+v", rec)
	}

	rec, err = svc.Update(ctx, rec.ID, Change{Status: StatusScheduled, Date: "2024-03-22"})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if rec.Status != StatusScheduled || rec.Date.Day() != 22 {
		t.Fatalf("expected rescheduled hearing on the 22nd, got %+v", rec)
	}

	if _, err := svc.Update(ctx, rec.ID, Change{Status: StatusHeld}); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if _, err := svc.Update(ctx, rec.ID, Change{Status: StatusScheduled}); !errors.Is(err, ErrBadStatus) {
		t.Fatalf("expected ErrBadStatus after HELD, got %v", err)
	}
	if _, err := svc.Update(ctx, rec.ID, Change{Status: "ADJOURNED"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := NewService(newFakeStore())
	if _, err := svc.Update(context.Background(), "bad-id", Change{Status: StatusHeld}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Update(context.Background(), caseID, Change{Status: StatusHeld}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSweepLapsedCutoff(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store).WithClock(func() time.Time { return fixedNow })

	if _, err := svc.SweepLapsed(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	want := time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)
	if !store.cutoff.Equal(want) {
		t.Errorf("expected cutoff %v, got %v", want, store.cutoff)
	}
}

type fakeStore struct {
	records   map[string]Record
	createErr error
	cutoff    time.Time
	lapsed    int64
	sweeps    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]Record{}}
}

func (f *fakeStore) ListForCase(_ context.Context, caseID string) ([]Record, error) {
	var out []Record
	for _, r := range f.records {
		if r.CaseID == caseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (Record, error) {
	r, ok := f.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) Create(_ context.Context, rec Record) (Record, error) {
	if f.createErr != nil {
		return Record{}, f.createErr
	}
	rec.ID = "7d1c3f4a-0b7e-4b57-8a34-9f0e1c2d3b4a"
	rec.CreatedAt = fixedNow
	rec.UpdatedAt = fixedNow
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeStore) Update(_ context.Context, id string, expected Status, next Record) (Record, error) {
	cur, ok := f.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	if cur.Status != expected {
		return Record{}, ErrBadStatus
	}
	f.records[id] = next
	return next, nil
}

func (f *fakeStore) MarkLapsed(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	f.sweeps++
	return f.lapsed, nil
}
