package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrOfficialNotFound signals that the official does not exist.
	ErrOfficialNotFound = errors.New("auth: official not found")
	// ErrDuplicateEmail signals that the email is already registered.
	ErrDuplicateEmail = errors.New("auth: email already exists")
)

// Repository handles data access for authentication.
type Repository interface {
	CreateOfficial(ctx context.Context, params CreateOfficialParams) (Official, error)
	GetOfficialByEmail(ctx context.Context, email string) (Official, error)
	GetOfficialByID(ctx context.Context, id string) (Official, error)
	CountOfficials(ctx context.Context) (int, error)
}

// CreateOfficialParams contains write parameters for creating officials.
type CreateOfficialParams struct {
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed auth repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const officialColumns = `id::text, email, full_name, password_hash, role, created_at`

// CreateOfficial inserts a new official with a hashed password.
func (r *PGRepository) CreateOfficial(ctx context.Context, params CreateOfficialParams) (Official, error) {
	const insertSQL = `
		INSERT INTO officials (email, full_name, password_hash, role)
		VALUES (lower($1), $2, $3, $4)
		RETURNING ` + officialColumns

	o, err := scanOfficial(r.pool.QueryRow(ctx, insertSQL, params.Email, params.FullName, params.PasswordHash, string(params.Role)))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Official{}, ErrDuplicateEmail
		}
		return Official{}, fmt.Errorf("auth: create official: %w", err)
	}
	return o, nil
}

// GetOfficialByEmail retrieves an official by email address.
func (r *PGRepository) GetOfficialByEmail(ctx context.Context, email string) (Official, error) {
	o, err := scanOfficial(r.pool.QueryRow(ctx, `SELECT `+officialColumns+` FROM officials WHERE email = lower($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Official{}, ErrOfficialNotFound
		}
		return Official{}, fmt.Errorf("auth: get official by email: %w", err)
	}
	return o, nil
}

// GetOfficialByID retrieves an official by ID.
func (r *PGRepository) GetOfficialByID(ctx context.Context, id string) (Official, error) {
	o, err := scanOfficial(r.pool.QueryRow(ctx, `SELECT `+officialColumns+` FROM officials WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Official{}, ErrOfficialNotFound
		}
		return Official{}, fmt.Errorf("auth: get official by id: %w", err)
	}
	return o, nil
}

func (r *PGRepository) CountOfficials(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM officials`).Scan(&n); err != nil {
		return 0, fmt.Errorf("auth: count officials: %w", err)
	}
	return n, nil
}

func scanOfficial(row pgx.Row) (Official, error) {
	var o Official
	err := row.Scan(&o.ID, &o.Email, &o.FullName, &o.PasswordHash, &o.Role, &o.CreatedAt)
	return o, err
}
