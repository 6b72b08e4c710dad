package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/animekg/backend/internal/util"
	"github.com/OFFIS-RIT/animekg/backend/pkg/query"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const DefaultRecentLimit = 20

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
}

// Store persists records in the qa_history table.
type Store struct {
	db dbConn
}

// NewStore wraps a pgx pool or connection.
func NewStore(db dbConn) *Store {
	return &Store{db: db}
}

// Save inserts a record. Saving the same id twice is a no-op so that
// redelivered queue messages do not duplicate rows.
func (s *Store) Save(ctx context.Context, r Record) error {
	intentJSON, err := json.Marshal(r.Intent)
	if err != nil {
		return fmt.Errorf("failed to encode intent: %w", err)
	}
	var anchorJSON []byte
	if r.Anchor != nil {
		if anchorJSON, err = json.Marshal(r.Anchor); err != nil {
			return fmt.Errorf("failed to encode anchor: %w", err)
		}
	}
	evidenceJSON, err := json.Marshal(nonNil(r.Evidence))
	if err != nil {
		return fmt.Errorf("failed to encode evidence: %w", err)
	}
	trace := r.Trace
	if trace == nil {
		trace = []query.PlanAttempt{}
	}
	traceJSON, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.Exec(ctx, insertSQL,
		r.ID,
		util.SanitizePostgresText(r.Query),
		util.SanitizePostgresText(r.Answer),
		intentJSON,
		anchorJSON,
		r.UsedPlan,
		evidenceJSON,
		traceJSON,
		r.TookMs,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history record %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns the newest records first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := s.db.Query(ctx, recentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		var intentJSON, anchorJSON, evidenceJSON, traceJSON []byte
		if err := rows.Scan(
			&r.ID, &r.Query, &r.Answer, &intentJSON, &anchorJSON,
			&r.UsedPlan, &evidenceJSON, &traceJSON, &r.TookMs, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if err := decodeColumns(&r, intentJSON, anchorJSON, evidenceJSON, traceJSON); err != nil {
			return nil, fmt.Errorf("history record %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return records, nil
}

// Prune deletes records created before cutoff and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, pruneSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return tag.RowsAffected(), nil
}

func decodeColumns(r *Record, intentJSON, anchorJSON, evidenceJSON, traceJSON []byte) error {
	if len(intentJSON) > 0 {
		if err := json.Unmarshal(intentJSON, &r.Intent); err != nil {
			return fmt.Errorf("bad intent: %w", err)
		}
	}
	if len(anchorJSON) > 0 && string(anchorJSON) != "null" {
		if err := json.Unmarshal(anchorJSON, &r.Anchor); err != nil {
			return fmt.Errorf("bad anchor: %w", err)
		}
	}
	if err := json.Unmarshal(evidenceJSON, &r.Evidence); err != nil {
		return fmt.Errorf("bad evidence: %w", err)
	}
	if err := json.Unmarshal(traceJSON, &r.Trace); err != nil {
		return fmt.Errorf("bad trace: %w", err)
	}
	r.Evidence = nonNil(r.Evidence)
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

const insertSQL = `
INSERT INTO qa_history (id, query, answer, intent, anchor, used_plan, evidence, trace, took_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO NOTHING;
`

const recentSQL = `
SELECT id, query, answer, intent, anchor, used_plan, evidence, trace, took_ms, created_at
FROM qa_history
ORDER BY created_at DESC
LIMIT $1;
`

const pruneSQL = `
DELETE FROM qa_history
WHERE created_at < $1;
`
