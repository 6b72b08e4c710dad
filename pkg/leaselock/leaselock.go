// Package leaselock provides expiring locks stored in Postgres so that a
// periodic job runs on one worker at a time.
package leaselock

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var ErrBusy = errors.New("lease lock busy")

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Client hands out leases on rows of the job_locks table.
type Client struct {
	db    dbConn
	owner string
}

// New creates a client whose leases are tagged with owner plus a random
// suffix, so two processes with the same owner never share a lease.
func New(db dbConn, owner string) (*Client, error) {
	suffix, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	return &Client{db: db, owner: owner + "-" + suffix}, nil
}

// WithLease runs fn while holding key. When another holder has an unexpired
// lease ErrBusy is returned and fn does not run. The lease expires after
// ttl even if release fails, so fn must finish well within ttl.
func (c *Client) WithLease(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	if key == "" {
		return errors.New("lease lock key is empty")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	ok, err := c.acquire(ctx, key, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBusy
	}
	defer func() {
		_, _ = c.db.Exec(context.WithoutCancel(ctx), releaseSQL, key, c.owner)
	}()

	leaseCtx, cancel := context.WithTimeout(ctx, ttl)
	defer cancel()
	return fn(leaseCtx)
}

func (c *Client) acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	var returnedKey string
	err := c.db.QueryRow(ctx, tryAcquireSQL, key, c.owner, ttl.Milliseconds()).Scan(&returnedKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return returnedKey != "", nil
}

const tryAcquireSQL = `
INSERT INTO job_locks (lock_key, locked_by, expires_at)
VALUES ($1, $2, now() + ($3::bigint * interval '1 millisecond'))
ON CONFLICT (lock_key) DO UPDATE
SET locked_by  = EXCLUDED.locked_by,
    expires_at = EXCLUDED.expires_at
WHERE job_locks.expires_at < now()
   OR job_locks.locked_by = EXCLUDED.locked_by
RETURNING lock_key;
`

const releaseSQL = `
DELETE FROM job_locks
WHERE lock_key = $1 AND locked_by = $2;
`
