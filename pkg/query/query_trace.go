package query

import (
	"sync"
	"time"
)

type TraceEventKind string

const (
	TraceEventPlanAttempted TraceEventKind = "plan_attempted"
	TraceEventPlanSucceeded TraceEventKind = "plan_succeeded"
	TraceEventPlanEmpty     TraceEventKind = "plan_empty"
	TraceEventPlanFailed    TraceEventKind = "plan_failed"
)

// TraceEvent is an extensible event envelope for query tracing.
// Additive changes to this struct are backward compatible for implementers.
type TraceEvent struct {
	Kind TraceEventKind

	Plan       string
	Rows       int
	DurationMs int64
	Error      string
}

// Tracer is a sink for query tracing events.
//
// Implementers can forward events to logs, telemetry, or custom post-processing
// pipelines.
type Tracer interface {
	Record(event TraceEvent)
}

// MultiTracer fan-outs trace events to multiple tracers.
type MultiTracer []Tracer

func (m MultiTracer) Record(event TraceEvent) {
	for _, t := range m {
		if t == nil {
			continue
		}
		t.Record(event)
	}
}

func RecordPlanAttempted(t Tracer, plan string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventPlanAttempted, Plan: plan})
}

// RecordPlanResult reports how a plan ended: failed when err is set,
// succeeded with at least one row, empty otherwise.
func RecordPlanResult(t Tracer, plan string, rows int, took time.Duration, err error) {
	if t == nil {
		return
	}
	ev := TraceEvent{Plan: plan, Rows: rows, DurationMs: took.Milliseconds()}
	switch {
	case err != nil:
		ev.Kind = TraceEventPlanFailed
		ev.Error = err.Error()
	case rows > 0:
		ev.Kind = TraceEventPlanSucceeded
	default:
		ev.Kind = TraceEventPlanEmpty
	}
	t.Record(ev)
}

// PlanAttempt is the outcome of one executed plan.
type PlanAttempt struct {
	Plan       string `json:"plan"`
	Status     string `json:"status"`
	Rows       int    `json:"rows"`
	DurationMs int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// QueryTrace collects the plans tried during one question, in execution
// order.
//
// QueryTrace is safe for concurrent use.
type QueryTrace struct {
	mu       sync.Mutex
	attempts []PlanAttempt
	open     map[string]int
}

func NewQueryTrace() *QueryTrace {
	return &QueryTrace{open: make(map[string]int)}
}

func (t *QueryTrace) Record(event TraceEvent) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch event.Kind {
	case TraceEventPlanAttempted:
		t.open[event.Plan] = len(t.attempts)
		t.attempts = append(t.attempts, PlanAttempt{Plan: event.Plan, Status: "running"})
	case TraceEventPlanSucceeded, TraceEventPlanEmpty, TraceEventPlanFailed:
		idx, ok := t.open[event.Plan]
		if !ok {
			idx = len(t.attempts)
			t.attempts = append(t.attempts, PlanAttempt{Plan: event.Plan})
		}
		delete(t.open, event.Plan)

		a := &t.attempts[idx]
		a.Rows = event.Rows
		a.DurationMs = event.DurationMs
		a.Error = event.Error
		switch event.Kind {
		case TraceEventPlanSucceeded:
			a.Status = "succeeded"
		case TraceEventPlanEmpty:
			a.Status = "empty"
		default:
			a.Status = "failed"
		}
	default:
		return
	}
}

// Snapshot returns the attempts recorded so far.
func (t *QueryTrace) Snapshot() []PlanAttempt {
	if t == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]PlanAttempt, len(t.attempts))
	copy(out, t.attempts)
	return out
}
