package history

import (
	"context"
	"sync"
	"time"

	"github.com/OFFIS-RIT/animekg/backend/internal/util"
	"github.com/OFFIS-RIT/animekg/backend/pkg/logger"
)

// Recorder keeps answered questions. Recording is best effort: failures are
// logged and never reach the caller.
type Recorder interface {
	Record(ctx context.Context, r Record)
}

// Saver is the write side of the history store.
type Saver interface {
	Save(ctx context.Context, r Record) error
}

// Publisher hands records to the history queue.
type Publisher interface {
	PublishRecord(ctx context.Context, r Record) error
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, Record) {}

// Noop discards every record.
func Noop() Recorder { return noopRecorder{} }

// DirectRecorder writes records to the store in the background.
type DirectRecorder struct {
	saver   Saver
	tries   int
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDirectRecorder(saver Saver, tries int) *DirectRecorder {
	if tries <= 0 {
		tries = 3
	}
	return &DirectRecorder{saver: saver, tries: tries, timeout: 10 * time.Second}
}

// Record saves r on its own goroutine; the request context is not used so a
// finished request does not cancel the write.
func (d *DirectRecorder) Record(_ context.Context, r Record) {
	d.wg.Go(func() { d.save(r) })
}

// Wait blocks until pending writes are done.
func (d *DirectRecorder) Wait() {
	d.wg.Wait()
}

func (d *DirectRecorder) save(r Record) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	err := util.RetryErrWithContext(ctx, d.tries, func(ctx context.Context) error {
		return d.saver.Save(ctx, r)
	})
	if err != nil {
		logger.Error("Failed to save history record", "id", r.ID, "err", err)
		return
	}
	logger.Debug("History record saved", "id", r.ID)
}

// QueueRecorder publishes records for the worker to persist.
type QueueRecorder struct {
	pub Publisher
}

func NewQueueRecorder(pub Publisher) *QueueRecorder {
	return &QueueRecorder{pub: pub}
}

func (q *QueueRecorder) Record(ctx context.Context, r Record) {
	if err := q.pub.PublishRecord(context.WithoutCancel(ctx), r); err != nil {
		logger.Error("Failed to publish history record", "id", r.ID, "err", err)
	}
}
