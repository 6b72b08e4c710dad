package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/OFFIS-RIT/animekg/backend/pkg/intent"
	"github.com/OFFIS-RIT/animekg/backend/pkg/query"
	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
)

func TestNewRecord(t *testing.T) {
	res := query.Result{
		Answer: "五条悟的身高是190cm。",
		Meta: query.Meta{
			Intent:   intent.Intent{Mode: intent.ModeGetProperty, Predicates: []string{"Height"}},
			Anchor:   &query.EntityRef{Name: "五条悟", Type: schema.Character},
			UsedPlan: query.PlanAttributePredicate,
		},
	}

	r, err := NewRecord("五条悟的身高是多少？", res, 1500*time.Millisecond)
	if err != nil {
		t.Fatalf("NewRecord() error = %v", err)
	}
	if r.ID == "" || r.CreatedAt.IsZero() {
		t.Fatalf("NewRecord() got = %+v, want id and timestamp", r)
	}
	if r.TookMs != 1500 || r.UsedPlan != query.PlanAttributePredicate || r.Anchor.Name != "五条悟" {
		t.Fatalf("NewRecord() got = %+v", r)
	}
	if r.Evidence == nil || r.Trace == nil {
		t.Fatalf("NewRecord() got nil slices: %+v", r)
	}
}

type fakeSaver struct {
	mu     sync.Mutex
	failN  int
	calls  int
	stored []Record
}

func (f *fakeSaver) Save(ctx context.Context, r Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failN {
		return errors.New("connection reset")
	}
	f.stored = append(f.stored, r)
	return nil
}

func TestDirectRecorder_Retries(t *testing.T) {
	tests := []struct {
		name      string
		failN     int
		wantCalls int
		wantSaved int
	}{
		{name: "first try", failN: 0, wantCalls: 1, wantSaved: 1},
		{name: "after failures", failN: 2, wantCalls: 3, wantSaved: 1},
		{name: "gives up", failN: 5, wantCalls: 3, wantSaved: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			saver := &fakeSaver{failN: tc.failN}
			rec := NewDirectRecorder(saver, 3)

			rec.Record(context.Background(), Record{ID: "r1"})
			rec.Wait()

			if saver.calls != tc.wantCalls || len(saver.stored) != tc.wantSaved {
				t.Fatalf("Record() got = %d calls, %d saved, want %d, %d", saver.calls, len(saver.stored), tc.wantCalls, tc.wantSaved)
			}
		})
	}
}

func TestDirectRecorder_IgnoresRequestCancel(t *testing.T) {
	saver := &fakeSaver{}
	rec := NewDirectRecorder(saver, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Record(ctx, Record{ID: "r1"})
	rec.Wait()

	if len(saver.stored) != 1 {
		t.Fatalf("Record() saved %d records, want 1", len(saver.stored))
	}
}

type fakePublisher struct {
	err       error
	published []Record
	ctxErr    error
}

func (f *fakePublisher) PublishRecord(ctx context.Context, r Record) error {
	f.ctxErr = ctx.Err()
	f.published = append(f.published, r)
	return f.err
}

func TestQueueRecorder(t *testing.T) {
	pub := &fakePublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewQueueRecorder(pub).Record(ctx, Record{ID: "r1"})
	if len(pub.published) != 1 || pub.ctxErr != nil {
		t.Fatalf("Record() got = %d published, ctx err %v", len(pub.published), pub.ctxErr)
	}

	// A failing publish is swallowed.
	pub.err = errors.New("channel closed")
	NewQueueRecorder(pub).Record(context.Background(), Record{ID: "r2"})
	if len(pub.published) != 2 {
		t.Fatalf("Record() got = %d published, want 2", len(pub.published))
	}
}

func TestDecodeColumns(t *testing.T) {
	var r Record
	err := decodeColumns(&r,
		[]byte(`{"mode":"find_relation","predicates":null,"sourceTypes":["Character"],"resultTypes":null}`),
		[]byte(`null`),
		[]byte(`["a -[HasFriend]-> b"]`),
		[]byte(`[{"plan":"between_entities","status":"succeeded","rows":1,"durationMs":3}]`),
	)
	if err != nil {
		t.Fatalf("decodeColumns() error = %v", err)
	}
	if r.Intent.Mode != intent.ModeFindRelation || r.Anchor != nil || len(r.Evidence) != 1 || r.Trace[0].Status != "succeeded" {
		t.Fatalf("decodeColumns() got = %+v", r)
	}

	if err := decodeColumns(&r, nil, nil, []byte(`{`), []byte(`[]`)); err == nil {
		t.Fatal("decodeColumns() expected error for bad evidence")
	}
}
