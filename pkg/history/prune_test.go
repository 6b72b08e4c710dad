package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OFFIS-RIT/animekg/backend/pkg/leaselock"
)

type fakePruneStore struct {
	cutoff time.Time
	calls  int
	err    error
}

func (f *fakePruneStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return 4, f.err
}

type fakeLocks struct{ err error }

func (f fakeLocks) WithLease(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

func TestPruner_RunOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		locks     fakeLocks
		storeErr  error
		wantCalls int
		wantErr   bool
	}{
		{name: "prunes", wantCalls: 1},
		{name: "lease busy", locks: fakeLocks{err: leaselock.ErrBusy}},
		{name: "lock error", locks: fakeLocks{err: errors.New("db down")}, wantErr: true},
		{name: "store error", storeErr: errors.New("db down"), wantCalls: 1, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakePruneStore{err: tc.storeErr}
			p := NewPruner(store, tc.locks, 30*24*time.Hour)
			p.now = func() time.Time { return now }

			err := p.RunOnce(context.Background())
			if (err != nil) != tc.wantErr {
				t.Fatalf("RunOnce() error = %v, wantErr %v", err, tc.wantErr)
			}
			if store.calls != tc.wantCalls {
				t.Fatalf("RunOnce() prune calls got = %d, want %d", store.calls, tc.wantCalls)
			}
			if tc.wantCalls == 1 && !store.cutoff.Equal(now.Add(-30*24*time.Hour)) {
				t.Fatalf("RunOnce() cutoff got = %v", store.cutoff)
			}
		})
	}
}
