package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/heritagehub/cms/logger"
)

const (
	defaultOperation = "query"

	dbTracerName      = "heritagehub-cms/database"
	maxDBQueryAttrLen = 2000

	attrDBSystem    = "db.system"
	attrDBQueryText = "db.query.text"
	attrDBOperation = "db.operation.name"
	attrDBVerb      = "db.gateway.verb"
)

// TrackDBOperation records one completed gateway call: request counters on
// ctx, a client span, metrics and a log line. sql.ErrNoRows marks an absent
// row and is logged at debug level rather than as a failure. rowsAffected is
// the number of rows returned or touched.
//
// It is a no-op when tc or its Logger is nil.
func TrackDBOperation(ctx context.Context, tc *Context, verb, query string, args []any, start time.Time, rowsAffected int64, err error) {
	if tc == nil || tc.Logger == nil {
		return
	}

	elapsed := time.Since(start)

	logger.RecordQuery(ctx, elapsed)

	createDBSpan(ctx, tc, verb, query, start, err)
	recordDBMetrics(ctx, tc, query, elapsed, rowsAffected, err)

	truncatedQuery := query
	if tc.Settings.MaxQueryLength() > 0 && len(query) > tc.Settings.MaxQueryLength() {
		truncatedQuery = TruncateString(query, tc.Settings.MaxQueryLength())
	}

	logEvent := tc.Logger.WithContext(ctx).WithFields(map[string]any{
		"dialect":     tc.Dialect.String(),
		"verb":        verb,
		"duration_ms": elapsed.Milliseconds(),
		"duration_ns": elapsed.Nanoseconds(),
		"rows":        rowsAffected,
		"query":       truncatedQuery,
	})

	if tc.Settings.LogQueryParameters() && len(args) > 0 {
		logEvent = logEvent.WithFields(map[string]any{
			"args": SanitizeArgs(args, tc.Settings.MaxQueryLength()),
		})
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		logEvent.Debug().Msg("Database operation returned no rows")
	case err != nil:
		logEvent.Error().Err(err).Msg("Database operation error")
	case elapsed > tc.Settings.SlowQueryThreshold():
		logEvent.Warn().Msgf("Slow database operation detected (%s)", elapsed)
	default:
		logEvent.Debug().Msg("Database operation executed")
	}
}

// TruncateString truncates value to at most maxLen runes. For maxLen > 3 the
// last three runes are replaced by "...". maxLen <= 0 disables truncation.
func TruncateString(value string, maxLen int) string {
	if maxLen <= 0 {
		return value
	}
	r := []rune(value)
	if len(r) <= maxLen {
		return value
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// SanitizeArgs returns a copy of args suitable for logging. Strings are
// truncated, byte slices become "<bytes len=N>" and everything else is
// formatted with %v and truncated. Empty input yields nil.
func SanitizeArgs(args []any, maxLen int) []any {
	if len(args) == 0 {
		return nil
	}
	sanitized := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case string:
			sanitized[i] = TruncateString(v, maxLen)
		case []byte:
			sanitized[i] = fmt.Sprintf("<bytes len=%d>", len(v))
		case nil:
			sanitized[i] = nil
		default:
			sanitized[i] = TruncateString(fmt.Sprintf("%v", v), maxLen)
		}
	}
	return sanitized
}

// createDBSpan emits a client span that starts at the operation's start time.
func createDBSpan(ctx context.Context, tc *Context, verb, query string, start time.Time, err error) {
	operation := extractDBOperation(query)

	_, span := otel.Tracer(dbTracerName).Start(ctx, "db."+operation,
		trace.WithTimestamp(start),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	attrs := []attribute.KeyValue{
		attribute.String(attrDBSystem, tc.Dialect.String()),
		attribute.String(attrDBQueryText, TruncateString(query, maxDBQueryAttrLen)),
		attribute.String(attrDBVerb, verb),
	}
	if operation != defaultOperation {
		attrs = append(attrs, attribute.String(attrDBOperation, operation))
	}
	span.SetAttributes(attrs...)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

// extractDBOperation returns the lower-cased leading SQL keyword, or "query"
// for anything it does not recognise.
func extractDBOperation(query string) string {
	parts := strings.Fields(query)
	if len(parts) == 0 {
		return defaultOperation
	}

	operation := strings.ToLower(strings.TrimRight(parts[0], "("))
	switch operation {
	case "select", "insert", "update", "delete", "with", "create", "drop", "alter":
		return operation
	default:
		return defaultOperation
	}
}
