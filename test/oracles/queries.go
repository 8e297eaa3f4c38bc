package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_history_seq_gapless",
			SQL: `SELECT case_id, seq, rn FROM (
                      SELECT case_id, seq,
                             ROW_NUMBER() OVER (PARTITION BY case_id ORDER BY seq) AS rn
                      FROM blotter_status_updates) s
                  WHERE seq <> rn`,
		},
		{
			Name: "O2_case_matches_last_update",
			SQL: `SELECT c.id, c.status, u.status FROM blotter_cases c
                  JOIN LATERAL (
                      SELECT status FROM blotter_status_updates
                      WHERE case_id = c.id ORDER BY seq DESC LIMIT 1) u ON true
                  WHERE u.status <> c.status`,
		},
		{
			Name: "O3_history_chain",
			SQL: `WITH chain AS (
                      SELECT case_id, seq, from_status,
                             LAG(status) OVER (PARTITION BY case_id ORDER BY seq) AS prev
                      FROM blotter_status_updates)
                  SELECT * FROM chain
                  WHERE (prev IS NULL AND from_status <> 'FILED')
                     OR (prev IS NOT NULL AND from_status <> prev)`,
		},
		{
			Name: "O4_terminal_stays_terminal",
			SQL: `SELECT id, case_id, from_status, status FROM blotter_status_updates
                  WHERE from_status IN ('RESOLVED','CLOSED','DISMISSED','ESCALATED')
                    AND status NOT IN ('RESOLVED','CLOSED','DISMISSED','ESCALATED')`,
		},
		{
			Name: "O5_conciliation_only_when_entered",
			SQL: `SELECT c.id FROM blotter_cases c
                  WHERE c.conciliation_start_date IS NOT NULL
                    AND NOT EXISTS (
                        SELECT 1 FROM blotter_status_updates u
                        WHERE u.case_id = c.id AND u.status = 'CONCILIATION')`,
		},
		{
			Name: "O6_terminal_details",
			SQL: `SELECT id, status FROM blotter_cases
                  WHERE (status = 'RESOLVED' AND resolution_method IS NULL)
                     OR (status = 'ESCALATED' AND escalated_to IS NULL)`,
		},
		{
			Name: "O7_fee_paid_stamped",
			SQL:  `SELECT id FROM blotter_cases WHERE filing_fee_paid AND filing_fee_paid_at IS NULL`,
		},
		{
			Name: "O9_version_counts_writes",
			SQL: `SELECT c.id, c.version, n.updates FROM blotter_cases c
                  JOIN LATERAL (
                      SELECT count(*) AS updates FROM blotter_status_updates
                      WHERE case_id = c.id) n ON true
                  WHERE c.version < n.updates`,
		},
		{
			Name: "O8_history_append_only_guard",
			SQL: `SELECT 'missing_append_only_trigger' AS detail
                  WHERE NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname='blotter_status_updates_no_mutation')`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
