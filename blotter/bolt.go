package blotter

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "github.com/boltdb/bolt"
)

var (
	bucketCases       = []byte("cases")
	bucketCaseNumbers = []byte("case_numbers")
	bucketHistory     = []byte("status_updates")
)

// BoltRepository implements Repository on an embedded BoltDB file, for halls
// that run the blotter without a database server. Bolt serializes writers,
// so the status check inside Update is a sufficient compare-and-set.
type BoltRepository struct {
	db  *bolt.DB
	now func() time.Time
}

// OpenBolt opens (or creates) the database file and its buckets.
func OpenBolt(path string) (*BoltRepository, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("blotter: open bolt: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketCases, bucketCaseNumbers, bucketHistory} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("blotter: init bolt buckets: %w", err)
	}

	return &BoltRepository{db: db, now: time.Now}, nil
}

func (r *BoltRepository) WithClock(now func() time.Time) *BoltRepository {
	r.now = now
	return r
}

// Close releases the database file lock.
func (r *BoltRepository) Close() error {
	return r.db.Close()
}

func (r *BoltRepository) CreateCase(_ context.Context, c Case) (Case, error) {
	err := r.db.Update(func(tx *bolt.Tx) error {
		cases := tx.Bucket(bucketCases)
		numbers := tx.Bucket(bucketCaseNumbers)
		if cases.Get([]byte(c.ID)) != nil {
			return fmt.Errorf("blotter: case %s already exists", c.ID)
		}

		seq, err := cases.NextSequence()
		if err != nil {
			return err
		}
		c.CaseNumber = formatCaseNumber(c.CreatedAt, int64(seq))
		if numbers.Get([]byte(c.CaseNumber)) != nil {
			return ErrDuplicateCaseNumber
		}
		if err := numbers.Put([]byte(c.CaseNumber), []byte(c.ID)); err != nil {
			return err
		}
		return putJSON(cases, []byte(c.ID), c)
	})
	if err != nil {
		return Case{}, wrapBolt("insert case", err)
	}
	return c, nil
}

func (r *BoltRepository) ReadCase(_ context.Context, id string) (Case, error) {
	var c Case
	err := r.db.View(func(tx *bolt.Tx) error {
		return getCase(tx, id, &c)
	})
	if err != nil {
		return Case{}, wrapBolt("read case", err)
	}
	return c, nil
}

func (r *BoltRepository) ListCases(_ context.Context, filters Filters) ([]Case, int, error) {
	filters = filters.normalized()
	query := strings.ToLower(strings.TrimSpace(filters.Query))

	var matched []Case
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCases).ForEach(func(_, v []byte) error {
			var c Case
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			if filters.Status != "" && c.Status != filters.Status {
				return nil
			}
			if filters.Priority != "" && c.Priority != filters.Priority {
				return nil
			}
			if query != "" && !matchesQuery(c, query) {
				return nil
			}
			matched = append(matched, c)
			return nil
		})
	})
	if err != nil {
		return nil, 0, wrapBolt("list cases", err)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].CaseNumber > matched[j].CaseNumber
	})

	total := len(matched)
	start := (filters.Page - 1) * filters.PageSize
	if start > total {
		start = total
	}
	end := start + filters.PageSize
	if end > total {
		end = total
	}
	return append([]Case{}, matched[start:end]...), total, nil
}

func (r *BoltRepository) WriteTransition(_ context.Context, seen Observed, update StatusUpdate) (Case, error) {
	var c Case
	err := r.db.Update(func(tx *bolt.Tx) error {
		if err := getCase(tx, update.CaseID, &c); err != nil {
			return err
		}
		if c.observed() != seen {
			return conflict(c, seen)
		}

		history, err := tx.Bucket(bucketHistory).CreateBucketIfNotExists([]byte(c.ID))
		if err != nil {
			return err
		}
		seq, err := history.NextSequence()
		if err != nil {
			return err
		}

		// History timestamps never run backwards, even if the wall clock does.
		ts := r.now().UTC()
		if ts.Before(c.UpdatedAt) {
			ts = c.UpdatedAt
		}
		update.Seq = int(seq)
		update.FromStatus = seen.Status
		update.CreatedAt = ts

		c.apply(update)
		if err := putJSON(history, seqKey(seq), update); err != nil {
			return err
		}
		return putJSON(tx.Bucket(bucketCases), []byte(c.ID), c)
	})
	if err != nil {
		return Case{}, wrapBolt("write transition", err)
	}
	return c, nil
}

func (r *BoltRepository) History(_ context.Context, caseID string) ([]StatusUpdate, error) {
	out := make([]StatusUpdate, 0, 8)
	err := r.db.View(func(tx *bolt.Tx) error {
		history := tx.Bucket(bucketHistory).Bucket([]byte(caseID))
		if history == nil {
			return nil
		}
		return history.ForEach(func(_, v []byte) error {
			var u StatusUpdate
			if err := json.Unmarshal(v, &u); err != nil {
				return err
			}
			out = append(out, u)
			return nil
		})
	})
	if err != nil {
		return nil, wrapBolt("history", err)
	}
	return out, nil
}

func (r *BoltRepository) MarkFilingFeePaid(_ context.Context, caseID string, seen Observed, amount *float64, paidAt time.Time) (Case, error) {
	var c Case
	err := r.db.Update(func(tx *bolt.Tx) error {
		if err := getCase(tx, caseID, &c); err != nil {
			return err
		}
		if c.observed() != seen {
			return conflict(c, seen)
		}
		if amount != nil {
			c.FilingFee = *amount
		}
		if !c.FilingFeePaid {
			c.FilingFeePaid = true
			at := paidAt.UTC()
			c.FilingFeePaidAt = &at
		}
		c.Version++
		c.UpdatedAt = r.now().UTC()
		return putJSON(tx.Bucket(bucketCases), []byte(c.ID), c)
	})
	if err != nil {
		return Case{}, wrapBolt("mark filing fee paid", err)
	}
	return c, nil
}

func getCase(tx *bolt.Tx, id string, c *Case) error {
	v := tx.Bucket(bucketCases).Get([]byte(id))
	if v == nil {
		return ErrNotFound
	}
	return json.Unmarshal(v, c)
}

func putJSON(b *bolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func matchesQuery(c Case, query string) bool {
	for _, s := range []string{c.CaseNumber, c.Complainant.Name, c.Respondent.Name} {
		if strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}

// wrapBolt keeps workflow errors intact so callers can match on them.
func wrapBolt(op string, err error) error {
	var conflict *ConflictError
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateCaseNumber) || errors.As(err, &conflict) {
		return err
	}
	return fmt.Errorf("blotter: %s: %w", op, err)
}
