// Package history records answered questions in Postgres. Records are written
// either directly by the server or through the history queue by the worker.
package history

import (
	"time"

	"github.com/OFFIS-RIT/animekg/backend/internal/util"
	"github.com/OFFIS-RIT/animekg/backend/pkg/intent"
	"github.com/OFFIS-RIT/animekg/backend/pkg/query"
)

// Record is one answered question.
type Record struct {
	ID        string              `json:"id"`
	Query     string              `json:"query"`
	Answer    string              `json:"answer"`
	Intent    intent.Intent       `json:"intent"`
	Anchor    *query.EntityRef    `json:"anchor"`
	UsedPlan  string              `json:"usedPlan"`
	Evidence  []string            `json:"evidence"`
	Trace     []query.PlanAttempt `json:"trace"`
	TookMs    int64               `json:"tookMs"`
	CreatedAt time.Time           `json:"createdAt"`
}

// NewRecord builds the record of an answered question.
func NewRecord(q string, res query.Result, took time.Duration) (Record, error) {
	id, err := util.NewID()
	if err != nil {
		return Record{}, err
	}
	evidence := res.Evidence
	if evidence == nil {
		evidence = []string{}
	}
	trace := res.Meta.Trace
	if trace == nil {
		trace = []query.PlanAttempt{}
	}
	return Record{
		ID:        id,
		Query:     q,
		Answer:    res.Answer,
		Intent:    res.Meta.Intent,
		Anchor:    res.Meta.Anchor,
		UsedPlan:  res.Meta.UsedPlan,
		Evidence:  evidence,
		Trace:     trace,
		TookMs:    took.Milliseconds(),
		CreatedAt: time.Now().UTC(),
	}, nil
}
