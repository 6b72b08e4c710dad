package query

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/animekg/backend/pkg/store"
)

func testPlans(names ...string) []Plan {
	plans := make([]Plan, 0, len(names))
	for _, name := range names {
		plans = append(plans, Plan{Name: name, Cypher: "CYPHER " + name, Params: map[string]any{}})
	}
	return plans
}

func oneRow() []store.Row {
	return []store.Row{{
		Anchor: node("1", "Character", "路飞"),
		Other:  node("2", "Character", "索隆"),
		Rel:    rel("HasCompanion", "1", "2", nil),
	}}
}

func TestExecute_StopsAtFirstPlanWithRows(t *testing.T) {
	fs := &fakeStore{respond: func(cypher string, params map[string]any) ([]store.Row, error) {
		if cypher == "CYPHER second" {
			return oneRow(), nil
		}
		return nil, nil
	}}
	trace := NewQueryTrace()

	rows, used := Execute(context.Background(), fs, testPlans("first", "second", "third"), trace)
	if used != "second" || len(rows) != 1 {
		t.Fatalf("Execute() got = %d rows, %q, want 1 row, second", len(rows), used)
	}
	if calls := fs.Calls(); !slices.Equal(calls, []string{"CYPHER first", "CYPHER second"}) {
		t.Fatalf("Execute() ran %v, third plan must not run", calls)
	}

	attempts := trace.Snapshot()
	if len(attempts) != 2 || attempts[0].Status != "empty" || attempts[1].Status != "succeeded" || attempts[1].Rows != 1 {
		t.Fatalf("trace got = %+v", attempts)
	}
}

func TestExecute_ErrorCountsAsEmpty(t *testing.T) {
	fs := &fakeStore{respond: func(cypher string, params map[string]any) ([]store.Row, error) {
		if strings.HasSuffix(cypher, "broken") {
			return nil, errors.New("syntax error")
		}
		return oneRow(), nil
	}}
	trace := NewQueryTrace()

	rows, used := Execute(context.Background(), fs, testPlans("broken", "neighbors"), trace)
	if used != "neighbors" || len(rows) != 1 {
		t.Fatalf("Execute() got = %d rows, %q", len(rows), used)
	}
	attempts := trace.Snapshot()
	if attempts[0].Status != "failed" || attempts[0].Error != "syntax error" {
		t.Fatalf("trace got = %+v", attempts[0])
	}
}

func TestExecute_AllEmpty(t *testing.T) {
	fs := &fakeStore{}
	rows, used := Execute(context.Background(), fs, testPlans("a", "b"), nil)
	if rows != nil || used != "" {
		t.Fatalf("Execute() got = %v, %q, want nothing", rows, used)
	}
	if len(fs.Calls()) != 2 {
		t.Fatalf("Execute() ran %d plans, want 2", len(fs.Calls()))
	}
}

func TestExecute_NoPlansOrStore(t *testing.T) {
	if rows, used := Execute(context.Background(), &fakeStore{}, nil, nil); rows != nil || used != "" {
		t.Fatalf("Execute(no plans) got = %v, %q", rows, used)
	}
	if rows, used := Execute(context.Background(), nil, testPlans("a"), nil); rows != nil || used != "" {
		t.Fatalf("Execute(nil store) got = %v, %q", rows, used)
	}
}

func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fs := &fakeStore{respond: func(string, map[string]any) ([]store.Row, error) { return oneRow(), nil }}

	if rows, used := Execute(ctx, fs, testPlans("a"), nil); rows != nil || used != "" {
		t.Fatalf("Execute(cancelled) got = %v, %q", rows, used)
	}
	if len(fs.Calls()) != 0 {
		t.Fatalf("Execute(cancelled) ran %v", fs.Calls())
	}
}
