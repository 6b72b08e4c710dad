package history

import (
	"context"
	"errors"
	"time"

	"github.com/OFFIS-RIT/animekg/backend/pkg/leaselock"
	"github.com/OFFIS-RIT/animekg/backend/pkg/logger"
)

const pruneLockKey = "qa_history_prune"

type pruneStore interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

type locker interface {
	WithLease(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// Pruner deletes records older than the retention period. With several
// workers the lease makes sure only one of them prunes per round.
type Pruner struct {
	store     pruneStore
	locks     locker
	retention time.Duration
	now       func() time.Time
}

func NewPruner(store pruneStore, locks locker, retention time.Duration) *Pruner {
	return &Pruner{store: store, locks: locks, retention: retention, now: time.Now}
}

// RunOnce prunes once. A round skipped because another worker holds the
// lease is not an error.
func (p *Pruner) RunOnce(ctx context.Context) error {
	err := p.locks.WithLease(ctx, pruneLockKey, time.Minute, func(ctx context.Context) error {
		cutoff := p.now().Add(-p.retention)
		n, err := p.store.Prune(ctx, cutoff)
		if err != nil {
			return err
		}
		logger.Info("Pruned history", "deleted", n, "cutoff", cutoff)
		return nil
	})
	if errors.Is(err, leaselock.ErrBusy) {
		logger.Debug("History prune skipped, lease held elsewhere")
		return nil
	}
	return err
}

// Run prunes every interval until ctx is done.
func (p *Pruner) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		if err := p.RunOnce(ctx); err != nil {
			logger.Error("History prune failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
