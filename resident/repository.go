package resident

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested resident does not exist.
var ErrNotFound = errors.New("resident: not found")

const columns = `id::text, first_name, middle_name, last_name, address, purok, contact, birth_date, created_at`

// Repository provides read access to the resident registry.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID fetches a resident by primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (Resident, error) {
	res, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM residents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Resident{}, ErrNotFound
		}
		return Resident{}, fmt.Errorf("resident: query by id: %w", err)
	}
	return res, nil
}

// Search matches name prefixes, last name first.
func (r *Repository) Search(ctx context.Context, name string, limit int) ([]Resident, error) {
	const query = `
		SELECT ` + columns + `
		FROM residents
		WHERE last_name ILIKE $1 OR first_name ILIKE $1 OR (first_name || ' ' || last_name) ILIKE $1
		ORDER BY lower(last_name), lower(first_name)
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, name+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("resident: search: %w", err)
	}
	defer rows.Close()

	out := make([]Resident, 0, limit)
	for rows.Next() {
		res, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("resident: scan: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("resident: iterate: %w", err)
	}
	return out, nil
}

func scan(row pgx.Row) (Resident, error) {
	var res Resident
	err := row.Scan(&res.ID, &res.FirstName, &res.MiddleName, &res.LastName, &res.Address, &res.Purok, &res.Contact, &res.BirthDate, &res.CreatedAt)
	return res, err
}
