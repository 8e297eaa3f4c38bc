package hearing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound     = errors.New("hearing: not found")
	ErrCaseNotFound = errors.New("hearing: case not found")
	ErrCaseClosed   = errors.New("hearing: case is no longer active")
	ErrBadStatus    = errors.New("hearing: invalid status transition")
)

const columns = `id::text, case_id::text, hearing_date, hearing_time, location, status, notes, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) ListForCase(ctx context.Context, caseID string) ([]Record, error) {
	query := `SELECT ` + columns + ` FROM hearings WHERE case_id = $1 ORDER BY hearing_date ASC, created_at ASC`

	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("hearing: list: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, 4)
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("hearing: scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("hearing: iterate: %w", err)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id string) (Record, error) {
	rec, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM hearings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("hearing: get: %w", err)
	}
	return rec, nil
}

// Create inserts a hearing only while the case is still open.
func (r *Repository) Create(ctx context.Context, rec Record) (Record, error) {
	const query = `
		INSERT INTO hearings (case_id, hearing_date, hearing_time, location, status, notes)
		SELECT c.id, $2, $3, $4, 'SCHEDULED', $5
		FROM blotter_cases c
		WHERE c.id = $1 AND c.status NOT IN ('RESOLVED', 'CLOSED', 'DISMISSED', 'ESCALATED')
		RETURNING ` + columns

	created, err := scan(r.pool.QueryRow(ctx, query, rec.CaseID, rec.Date, rec.Time, rec.Location, rec.Notes))
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("hearing: create: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM blotter_cases WHERE id = $1)`, rec.CaseID).Scan(&exists); err != nil {
		return Record{}, fmt.Errorf("hearing: create check: %w", err)
	}
	if !exists {
		return Record{}, ErrCaseNotFound
	}
	return Record{}, ErrCaseClosed
}

// Update applies next only if the hearing is still in expected.
func (r *Repository) Update(ctx context.Context, id string, expected Status, next Record) (Record, error) {
	const query = `
		UPDATE hearings
		SET status = $3, notes = $4, hearing_date = $5, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING ` + columns

	rec, err := scan(r.pool.QueryRow(ctx, query, id, string(expected), string(next.Status), next.Notes, next.Date))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("hearing: update: %w", err)
	}
	if _, err := r.Get(ctx, id); err != nil {
		return Record{}, err
	}
	return Record{}, ErrBadStatus
}

// MarkLapsed moves SCHEDULED hearings dated before cutoff to LAPSED.
func (r *Repository) MarkLapsed(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE hearings
		SET status = 'LAPSED', updated_at = now()
		WHERE status = 'SCHEDULED' AND hearing_date < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("hearing: mark lapsed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scan(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.CaseID, &rec.Date, &rec.Time, &rec.Location, &rec.Status, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}
