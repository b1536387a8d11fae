package telemetry

import (
	"context"

	"github.com/petasbytes/course-rag/internal/metrics"
)

// EmitQueryFeatures records size features of a query and its folded history.
func EmitQueryFeatures(ctx context.Context, query, history string) {
	if !ObserveEnabled() {
		return
	}
	runID, _ := RunIDFromContext(ctx)
	Emit("query_features", map[string]any{
		"run_id":           runID,
		"features_version": "1",
		"query":            metrics.CountFeatures(query).Fields(),
		"history":          metrics.CountFeatures(history).Fields(),
	})
}
