package blotter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/nerraj-droid/bisig-final-sub001/db"
)

const caseColumns = `
	id::text, case_number, status, priority, incident_type, incident_date, incident_time,
	incident_location, description,
	complainant_resident_id::text, complainant_name, complainant_address, complainant_contact,
	respondent_resident_id::text, respondent_name, respondent_address, respondent_contact,
	filing_fee::float8, filing_fee_paid, filing_fee_paid_at,
	docket_date, summon_date, mediation_start_date, mediation_end_date, mediation_outcome,
	conciliation_start_date, conciliation_end_date, conciliation_outcome,
	extension_date, certification_date, resolution_method, escalated_to,
	version, created_at, updated_at`

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) CreateCase(ctx context.Context, c Case) (Case, error) {
	var seq int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('blotter_case_number_seq')`).Scan(&seq); err != nil {
		return Case{}, fmt.Errorf("blotter: next case number: %w", err)
	}
	c.CaseNumber = formatCaseNumber(c.CreatedAt, seq)

	insertSQL := `
		INSERT INTO blotter_cases (
			id, case_number, status, priority, incident_type, incident_date, incident_time,
			incident_location, description,
			complainant_resident_id, complainant_name, complainant_address, complainant_contact,
			respondent_resident_id, respondent_name, respondent_address, respondent_contact,
			filing_fee, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$19)
		RETURNING ` + caseColumns

	created, err := scanCase(r.pool.QueryRow(ctx, insertSQL,
		c.ID,
		c.CaseNumber,
		string(c.Status),
		string(c.Priority),
		c.IncidentType,
		c.IncidentDate,
		c.IncidentTime,
		c.IncidentLocation,
		c.Description,
		c.Complainant.ResidentID,
		c.Complainant.Name,
		c.Complainant.Address,
		c.Complainant.Contact,
		c.Respondent.ResidentID,
		c.Respondent.Name,
		c.Respondent.Address,
		c.Respondent.Contact,
		c.FilingFee,
		c.CreatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Case{}, ErrDuplicateCaseNumber
		}
		return Case{}, fmt.Errorf("blotter: insert case: %w", err)
	}
	return created, nil
}

func (r *PGRepository) ReadCase(ctx context.Context, id string) (Case, error) {
	if !validID(id) {
		return Case{}, ErrNotFound
	}
	c, err := scanCase(r.pool.QueryRow(ctx, `SELECT `+caseColumns+` FROM blotter_cases WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Case{}, ErrNotFound
		}
		return Case{}, fmt.Errorf("blotter: read case: %w", err)
	}
	return c, nil
}

func (r *PGRepository) ListCases(ctx context.Context, filters Filters) ([]Case, int, error) {
	filters = filters.normalized()

	where := []string{"1=1"}
	args := []any{}
	if filters.Status != "" {
		where = append(where, fmt.Sprintf("status=$%d", len(args)+1))
		args = append(args, string(filters.Status))
	}
	if filters.Priority != "" {
		where = append(where, fmt.Sprintf("priority=$%d", len(args)+1))
		args = append(args, string(filters.Priority))
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		n := len(args) + 1
		where = append(where, fmt.Sprintf("(case_number ILIKE $%d OR complainant_name ILIKE $%d OR respondent_name ILIKE $%d)", n, n, n))
		args = append(args, "%"+db.EscapeLike(q)+"%")
	}
	whereClause := " WHERE " + strings.Join(where, " AND ")

	limit := filters.PageSize
	offset := (filters.Page - 1) * filters.PageSize
	query := fmt.Sprintf(`SELECT %s FROM blotter_cases%s ORDER BY created_at DESC, case_number DESC LIMIT %d OFFSET %d`,
		caseColumns, whereClause, limit, offset)

	var (
		items []Case
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.pool.Query(gctx, query, args...)
		if err != nil {
			return fmt.Errorf("blotter: query list: %w", err)
		}
		defer rows.Close()

		items = make([]Case, 0, limit)
		for rows.Next() {
			c, err := scanCase(rows)
			if err != nil {
				return fmt.Errorf("blotter: scan case: %w", err)
			}
			items = append(items, c)
		}
		return rows.Err()
	})
	g.Go(func() error {
		if err := r.pool.QueryRow(gctx, `SELECT COUNT(*) FROM blotter_cases`+whereClause, args...).Scan(&total); err != nil {
			return fmt.Errorf("blotter: count list: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PGRepository) WriteTransition(ctx context.Context, seen Observed, update StatusUpdate) (Case, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Case{}, fmt.Errorf("blotter: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	f := update.Fields
	var paid *bool
	if f.FilingFeePaid != nil && *f.FilingFeePaid {
		paid = f.FilingFeePaid
	}

	// The status and version predicates are the compare-and-set guard: a
	// concurrent writer holding the row lock commits first, bumps the version
	// and this statement then matches nothing. The version also catches
	// self-transitions, which leave the status unchanged.
	updateSQL := `
		UPDATE blotter_cases
		SET status = $3,
		    filing_fee = COALESCE($4, filing_fee),
		    filing_fee_paid_at = CASE WHEN $5::bool AND NOT filing_fee_paid THEN clock_timestamp() ELSE filing_fee_paid_at END,
		    filing_fee_paid = filing_fee_paid OR COALESCE($5::bool, false),
		    docket_date = COALESCE($6, docket_date),
		    summon_date = COALESCE($7, summon_date),
		    mediation_start_date = COALESCE($8, mediation_start_date),
		    mediation_end_date = COALESCE($9, mediation_end_date),
		    mediation_outcome = COALESCE($10, mediation_outcome),
		    conciliation_start_date = COALESCE($11, conciliation_start_date),
		    conciliation_end_date = COALESCE($12, conciliation_end_date),
		    conciliation_outcome = COALESCE($13, conciliation_outcome),
		    extension_date = COALESCE($14, extension_date),
		    certification_date = COALESCE($15, certification_date),
		    resolution_method = COALESCE($16, resolution_method),
		    escalated_to = COALESCE($17, escalated_to),
		    version = version + 1,
		    updated_at = clock_timestamp()
		WHERE id = $1 AND status = $2 AND version = $18
		RETURNING ` + caseColumns

	updated, err := scanCase(tx.QueryRow(ctx, updateSQL,
		update.CaseID,
		string(seen.Status),
		string(update.Status),
		f.FilingFee,
		paid,
		f.DocketDate,
		f.SummonDate,
		f.MediationStartDate,
		f.MediationEndDate,
		nullableString(f.MediationOutcome),
		f.ConciliationStartDate,
		f.ConciliationEndDate,
		nullableString(f.ConciliationOutcome),
		f.ExtensionDate,
		f.CertificationDate,
		nullableString(f.ResolutionMethod),
		f.EscalatedTo,
		seen.Version,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Case{}, r.missedGuard(ctx, tx, update.CaseID, seen)
		}
		return Case{}, fmt.Errorf("blotter: update case: %w", err)
	}

	fieldsJSON, err := json.Marshal(f)
	if err != nil {
		return Case{}, fmt.Errorf("blotter: marshal fields: %w", err)
	}

	var actor any
	if update.ActorID != "" {
		actor = update.ActorID
	}
	const insertSQL = `
		INSERT INTO blotter_status_updates (id, case_id, seq, from_status, status, actor_id, remarks, fields)
		SELECT $1, $2, COALESCE(MAX(seq), 0) + 1, $3, $4, $5, $6, $7::jsonb
		FROM blotter_status_updates
		WHERE case_id = $2
	`
	if _, err := tx.Exec(ctx, insertSQL,
		update.ID,
		updated.ID,
		string(seen.Status),
		string(update.Status),
		actor,
		update.Remarks,
		fieldsJSON,
	); err != nil {
		return Case{}, fmt.Errorf("blotter: insert status update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Case{}, fmt.Errorf("blotter: commit transition: %w", err)
	}
	return updated, nil
}

// missedGuard explains why the compare-and-set update matched no row.
func (r *PGRepository) missedGuard(ctx context.Context, tx pgx.Tx, caseID string, seen Observed) error {
	actual := Case{ID: caseID}
	if err := tx.QueryRow(ctx, `SELECT status, version FROM blotter_cases WHERE id = $1`, caseID).Scan(&actual.Status, &actual.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("blotter: fetch current status: %w", err)
	}
	return conflict(actual, seen)
}

func (r *PGRepository) History(ctx context.Context, caseID string) ([]StatusUpdate, error) {
	if !validID(caseID) {
		return nil, ErrNotFound
	}
	const query = `
		SELECT id::text, case_id::text, seq, from_status, status, COALESCE(actor_id, ''), remarks, fields, created_at
		FROM blotter_status_updates
		WHERE case_id = $1
		ORDER BY seq ASC
	`
	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("blotter: history: %w", err)
	}
	defer rows.Close()

	out := make([]StatusUpdate, 0, 8)
	for rows.Next() {
		var (
			u          StatusUpdate
			fieldsJSON []byte
		)
		if err := rows.Scan(&u.ID, &u.CaseID, &u.Seq, &u.FromStatus, &u.Status, &u.ActorID, &u.Remarks, &fieldsJSON, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("blotter: scan status update: %w", err)
		}
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &u.Fields); err != nil {
				return nil, fmt.Errorf("blotter: decode status update fields: %w", err)
			}
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("blotter: iterate history: %w", err)
	}
	return out, nil
}

func (r *PGRepository) MarkFilingFeePaid(ctx context.Context, caseID string, seen Observed, amount *float64, paidAt time.Time) (Case, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Case{}, fmt.Errorf("blotter: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	updateSQL := `
		UPDATE blotter_cases
		SET filing_fee = COALESCE($3, filing_fee),
		    filing_fee_paid_at = COALESCE(filing_fee_paid_at, $4),
		    filing_fee_paid = true,
		    version = version + 1,
		    updated_at = clock_timestamp()
		WHERE id = $1 AND status = $2 AND version = $5
		RETURNING ` + caseColumns

	updated, err := scanCase(tx.QueryRow(ctx, updateSQL, caseID, string(seen.Status), amount, paidAt, seen.Version))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Case{}, r.missedGuard(ctx, tx, caseID, seen)
		}
		return Case{}, fmt.Errorf("blotter: mark filing fee paid: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Case{}, fmt.Errorf("blotter: commit payment: %w", err)
	}
	return updated, nil
}

func scanCase(row pgx.Row) (Case, error) {
	var (
		c                   Case
		mediationOutcome    *string
		conciliationOutcome *string
		resolutionMethod    *string
	)
	err := row.Scan(
		&c.ID,
		&c.CaseNumber,
		&c.Status,
		&c.Priority,
		&c.IncidentType,
		&c.IncidentDate,
		&c.IncidentTime,
		&c.IncidentLocation,
		&c.Description,
		&c.Complainant.ResidentID,
		&c.Complainant.Name,
		&c.Complainant.Address,
		&c.Complainant.Contact,
		&c.Respondent.ResidentID,
		&c.Respondent.Name,
		&c.Respondent.Address,
		&c.Respondent.Contact,
		&c.FilingFee,
		&c.FilingFeePaid,
		&c.FilingFeePaidAt,
		&c.DocketDate,
		&c.SummonDate,
		&c.MediationStartDate,
		&c.MediationEndDate,
		&mediationOutcome,
		&c.ConciliationStartDate,
		&c.ConciliationEndDate,
		&conciliationOutcome,
		&c.ExtensionDate,
		&c.CertificationDate,
		&resolutionMethod,
		&c.EscalatedTo,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return Case{}, err
	}
	if mediationOutcome != nil {
		o := Outcome(*mediationOutcome)
		c.MediationOutcome = &o
	}
	if conciliationOutcome != nil {
		o := Outcome(*conciliationOutcome)
		c.ConciliationOutcome = &o
	}
	if resolutionMethod != nil {
		m := ResolutionMethod(*resolutionMethod)
		c.ResolutionMethod = &m
	}
	return c, nil
}

func nullableString[T ~string](v *T) any {
	if v == nil {
		return nil
	}
	return string(*v)
}

func formatCaseNumber(filedAt time.Time, seq int64) string {
	return fmt.Sprintf("BLT-%d-%04d", filedAt.Year(), seq)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
