package query

import (
	"context"
	"time"

	"github.com/OFFIS-RIT/animekg/backend/pkg/logger"
	"github.com/OFFIS-RIT/animekg/backend/pkg/store"
)

// Execute runs plans one after another and returns the rows of the first
// plan that yields any, together with its name. A failing plan counts as
// empty. When every plan is empty the result is no rows and no name.
func Execute(ctx context.Context, gs store.GraphStore, plans []Plan, tracer Tracer) ([]store.Row, string) {
	if gs == nil {
		return nil, ""
	}
	for _, plan := range plans {
		if ctx.Err() != nil {
			logger.Warn("Plan execution cancelled", "plan", plan.Name, "err", ctx.Err())
			return nil, ""
		}

		RecordPlanAttempted(tracer, plan.Name)
		start := time.Now()
		rows, err := gs.Query(ctx, plan.Cypher, plan.Params)
		RecordPlanResult(tracer, plan.Name, len(rows), time.Since(start), err)

		if err != nil {
			logger.Error("Plan failed", "plan", plan.Name, "err", err)
			continue
		}
		if len(rows) > 0 {
			logger.Debug("Plan matched", "plan", plan.Name, "rows", len(rows))
			return rows, plan.Name
		}
	}
	return nil, ""
}
