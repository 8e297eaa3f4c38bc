package chaos

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// victimSQL picks one backend inside a case write: one running a statement on
// the blotter tables, or one idle inside an open transaction.
const victimSQL = `
	SELECT pid FROM pg_stat_activity
	WHERE datname = current_database()
	  AND pid <> pg_backend_pid()
	  AND backend_type = 'client backend'
	  AND (state = 'idle in transaction'
	       OR (state = 'active' AND query ILIKE '%blotter\_%'))
	ORDER BY random()
	LIMIT 1`

// WriteKiller terminates backends caught mid-write on the case tables.
type WriteKiller struct {
	pool     *pgxpool.Pool
	interval time.Duration
	odds     int
	kills    atomic.Int64
}

// NewWriteKiller strikes on average once every odds ticks of interval.
func NewWriteKiller(pool *pgxpool.Pool, interval time.Duration, odds int) *WriteKiller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if odds < 1 {
		odds = 1
	}
	return &WriteKiller{pool: pool, interval: interval, odds: odds}
}

// Run kills until ctx is done or stop is closed.
func (k *WriteKiller) Run(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if rand.Intn(k.odds) == 0 {
				k.strike(ctx)
			}
		}
	}
}

// Kills is the number of backends terminated so far.
func (k *WriteKiller) Kills() int64 { return k.kills.Load() }

func (k *WriteKiller) strike(ctx context.Context) {
	var pid int32
	if err := k.pool.QueryRow(ctx, victimSQL).Scan(&pid); err != nil {
		// No writer in flight this tick.
		return
	}
	var killed bool
	if err := k.pool.QueryRow(ctx, `SELECT pg_terminate_backend($1)`, pid).Scan(&killed); err == nil && killed {
		k.kills.Add(1)
	}
}
