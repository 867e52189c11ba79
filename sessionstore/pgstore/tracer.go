package pgstore

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pscheid92/cyan/internal/metrics"
)

// metricsTracer records every query the store runs.
type metricsTracer struct {
	metrics *metrics.StoreMetrics
}

var _ pgx.QueryTracer = (*metricsTracer)(nil)

type queryContextKey struct{}

type queryContext struct {
	start     time.Time
	operation string
}

func (t *metricsTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryContextKey{}, queryContext{start: time.Now(), operation: operation(data.SQL)})
}

func (t *metricsTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qctx, ok := ctx.Value(queryContextKey{}).(queryContext)
	if !ok {
		return
	}

	status := "success"
	if data.Err != nil {
		status = "error"
	}
	t.metrics.OpsTotal.WithLabelValues(qctx.operation, status).Inc()
	t.metrics.OpDuration.WithLabelValues(qctx.operation).Observe(time.Since(qctx.start).Seconds())
}

// operation reduces a statement to its lower-cased leading keyword to keep
// label cardinality low.
func operation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}
