package logger

import (
	"context"
	"sync/atomic"
	"time"
)

type queryStatsKey struct{}

// QueryStats accumulates the gateway calls made while serving one request.
// A nil *QueryStats reports zero.
type QueryStats struct {
	count   atomic.Int64
	elapsed atomic.Int64
}

// WithQueryStats returns a context carrying a fresh QueryStats.
func WithQueryStats(ctx context.Context) context.Context {
	return context.WithValue(ctx, queryStatsKey{}, &QueryStats{})
}

// QueryStatsFrom returns the QueryStats carried by ctx, or nil.
func QueryStatsFrom(ctx context.Context) *QueryStats {
	s, _ := ctx.Value(queryStatsKey{}).(*QueryStats)
	return s
}

// RecordQuery counts one call of duration d against ctx's stats, if any.
func RecordQuery(ctx context.Context, d time.Duration) {
	if s := QueryStatsFrom(ctx); s != nil {
		s.count.Add(1)
		s.elapsed.Add(int64(d))
	}
}

// Count returns the number of recorded calls.
func (s *QueryStats) Count() int64 {
	if s == nil {
		return 0
	}
	return s.count.Load()
}

// Elapsed returns the summed duration of recorded calls.
func (s *QueryStats) Elapsed() time.Duration {
	if s == nil {
		return 0
	}
	return time.Duration(s.elapsed.Load())
}
