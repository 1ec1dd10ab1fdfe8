// Package tracking records OpenTelemetry metrics for cache commands.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	cacheMeterName = "heritagehub-cms/cache"

	metricOperationDuration = "db.client.operation.duration"
	metricCacheHit          = "cache.hit"
	metricCacheMiss         = "cache.miss"

	attrDBSystem    = "db.system.name"
	attrDBOperation = "db.operation.name"
	attrErrorType   = "error.type"
	attrHit         = "cache.hit"
)

// Cache operation names.
const (
	OpGet    = "get"
	OpSet    = "set"
	OpDelete = "delete"
	OpHealth = "ping"
)

var (
	meterOnce sync.Once

	operationDuration metric.Float64Histogram
	hitCounter        metric.Int64Counter
	missCounter       metric.Int64Counter
)

func logMetricError(name string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize cache metric %s: %v\n", name, err)
	}
}

func initMeter() {
	meter := otel.Meter(cacheMeterName)

	var err error
	operationDuration, err = meter.Float64Histogram(
		metricOperationDuration,
		metric.WithDescription("Duration of cache operations"),
		metric.WithUnit("s"),
	)
	logMetricError(metricOperationDuration, err)

	hitCounter, err = meter.Int64Counter(metricCacheHit, metric.WithDescription("Number of cache hits"), metric.WithUnit("{hit}"))
	logMetricError(metricCacheHit, err)

	missCounter, err = meter.Int64Counter(metricCacheMiss, metric.WithDescription("Number of cache misses"), metric.WithUnit("{miss}"))
	logMetricError(metricCacheMiss, err)
}

// RecordOperation records the duration of one command and, for gets, a hit or miss.
func RecordOperation(ctx context.Context, op string, duration time.Duration, hit bool, err error) {
	meterOnce.Do(initMeter)

	attrs := []attribute.KeyValue{
		attribute.String(attrDBSystem, "redis"),
		attribute.String(attrDBOperation, op),
	}
	if op == OpGet {
		attrs = append(attrs, attribute.Bool(attrHit, hit))
	}
	if err != nil {
		attrs = append(attrs, attribute.String(attrErrorType, classifyError(err)))
	}

	if operationDuration != nil {
		operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}

	if op != OpGet {
		return
	}
	counter := missCounter
	if hit {
		counter = hitCounter
	}
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func classifyError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
