package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/heritagehub/cms/database/types"
)

const (
	dbMeterName = "heritagehub-cms/database"

	metricDBCalls      = "db.client.calls"
	metricDBDuration   = "db.client.operation.duration"
	metricRowsAffected = "db.rows.affected"

	metricPoolActive = "db.connection.pool.active"
	metricPoolIdle   = "db.connection.pool.idle"
	metricPoolTotal  = "db.connection.pool.total"

	attrDBTable = "db.sql.table"
)

var (
	dbMeter   metric.Meter
	meterOnce sync.Once

	dbCallsCounter        metric.Int64Counter
	dbDurationHistogram   metric.Float64Histogram
	dbRowsAffectedCounter metric.Int64Counter
)

// Table names are captured after FROM, INTO and UPDATE, skipping an optional
// schema qualifier and identifier quotes.
var (
	selectTableRegex = regexp.MustCompile(`(?i)FROM\s+(?:"?\w+"?\.)?"?(\w+)"?`)
	insertTableRegex = regexp.MustCompile(`(?i)INSERT\s+(?:OR\s+\w+\s+)?INTO\s+(?:"?\w+"?\.)?"?(\w+)"?`)
	updateTableRegex = regexp.MustCompile(`(?i)UPDATE\s+(?:"?\w+"?\.)?"?(\w+)"?`)
	deleteTableRegex = regexp.MustCompile(`(?i)DELETE\s+FROM\s+(?:"?\w+"?\.)?"?(\w+)"?`)
)

func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize metric %s: %v\n", metricName, err)
	}
}

func initDBMeter() {
	dbMeter = otel.Meter(dbMeterName)

	var err error
	dbCallsCounter, err = dbMeter.Int64Counter(
		metricDBCalls,
		metric.WithDescription("Total number of database client calls"),
	)
	logMetricError(metricDBCalls, err)

	dbDurationHistogram, err = dbMeter.Float64Histogram(
		metricDBDuration,
		metric.WithDescription("Duration of database operations in milliseconds"),
		metric.WithUnit("ms"),
	)
	logMetricError(metricDBDuration, err)

	dbRowsAffectedCounter, err = dbMeter.Int64Counter(
		metricRowsAffected,
		metric.WithDescription("Number of rows returned or affected by database operations"),
	)
	logMetricError(metricRowsAffected, err)
}

func getDBMeter() metric.Meter {
	meterOnce.Do(initDBMeter)
	return dbMeter
}

func recordDBMetrics(ctx context.Context, tc *Context, query string, duration time.Duration, rowsAffected int64, err error) {
	if getDBMeter() == nil {
		return
	}

	isError := err != nil && !errors.Is(err, sql.ErrNoRows)
	attrs := []attribute.KeyValue{
		attribute.String(attrDBSystem, tc.Dialect.String()),
		attribute.String(attrDBOperation, extractDBOperation(query)),
		attribute.String(attrDBTable, extractTableName(query)),
	}

	if dbCallsCounter != nil {
		callAttrs := append(append([]attribute.KeyValue{}, attrs...), attribute.Bool("error", isError))
		dbCallsCounter.Add(ctx, 1, metric.WithAttributes(callAttrs...))
	}
	if dbDurationHistogram != nil {
		dbDurationHistogram.Record(ctx, float64(duration.Nanoseconds())/1e6, metric.WithAttributes(attrs...))
	}
	if dbRowsAffectedCounter != nil && rowsAffected > 0 && !isError {
		dbRowsAffectedCounter.Add(ctx, rowsAffected, metric.WithAttributes(attrs...))
	}
}

// extractTableName returns the first table a DML statement names, or "unknown".
func extractTableName(query string) string {
	query = strings.TrimSpace(query)
	var pattern *regexp.Regexp
	switch extractDBOperation(query) {
	case "select", "with":
		pattern = selectTableRegex
	case "insert":
		pattern = insertTableRegex
	case "update":
		pattern = updateTableRegex
	case "delete":
		pattern = deleteTableRegex
	default:
		return "unknown"
	}
	if m := pattern.FindStringSubmatch(query); len(m) > 1 {
		return strings.ToLower(m[1])
	}
	return "unknown"
}

// PoolStatser is satisfied by *sql.DB.
type PoolStatser interface {
	Stats() sql.DBStats
}

// RegisterPoolMetrics registers observable gauges reporting the pool's in-use,
// idle and maximum connection counts. The returned function unregisters them.
func RegisterPoolMetrics(pool PoolStatser, dialect types.Dialect) func() {
	noop := func() {}

	meter := getDBMeter()
	if meter == nil {
		return noop
	}

	active, err := meter.Int64ObservableGauge(metricPoolActive, metric.WithDescription("Number of active database connections"))
	logMetricError(metricPoolActive, err)
	idle, err := meter.Int64ObservableGauge(metricPoolIdle, metric.WithDescription("Number of idle database connections"))
	logMetricError(metricPoolIdle, err)
	total, err := meter.Int64ObservableGauge(metricPoolTotal, metric.WithDescription("Maximum number of database connections configured"))
	logMetricError(metricPoolTotal, err)
	if active == nil || idle == nil || total == nil {
		return noop
	}

	attrs := metric.WithAttributes(attribute.String(attrDBSystem, dialect.String()))
	registration, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := pool.Stats()
		o.ObserveInt64(active, int64(stats.InUse), attrs)
		o.ObserveInt64(idle, int64(stats.Idle), attrs)
		o.ObserveInt64(total, int64(stats.MaxOpenConnections), attrs)
		return nil
	}, active, idle, total)
	if err != nil {
		logMetricError("pool_metrics_callback", err)
		return noop
	}

	return func() {
		if err := registration.Unregister(); err != nil {
			logMetricError("pool_metrics_unregister", err)
		}
	}
}
