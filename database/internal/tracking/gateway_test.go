package tracking

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/heritagehub/cms/database/types"
	"github.com/heritagehub/cms/testing/mocks"
)

// setupObservability installs in-memory trace and metric providers and resets
// the lazily created instruments so they bind to the test meter.
func setupObservability(t *testing.T) (*tracetest.InMemoryExporter, *sdkmetric.ManualReader) {
	t.Helper()

	originalTP := otel.GetTracerProvider()
	originalMP := otel.GetMeterProvider()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	meterOnce = sync.Once{}
	dbMeter = nil

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
		otel.SetTracerProvider(originalTP)
		otel.SetMeterProvider(originalMP)
		meterOnce = sync.Once{}
		dbMeter = nil
	})
	return exporter, reader
}

func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func spanAttr(attrs []attribute.KeyValue, key string) (string, bool) {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value.Emit(), true
		}
	}
	return "", false
}

func newWrapped(t *testing.T) (*Gateway, *mocks.MockGateway, *recordingLogger) {
	t.Helper()
	inner := &mocks.MockGateway{}
	rec := newRecordingLogger()
	tc := &Context{Logger: rec, Dialect: types.Embedded, Settings: NewSettings(nil)}
	t.Cleanup(func() { inner.AssertExpectations(t) })
	return Wrap(inner, tc), inner, rec
}

func TestGatewayAllPassesThroughAndTraces(t *testing.T) {
	exporter, reader := setupObservability(t)
	g, inner, rec := newWrapped(t)

	rows := []types.Record{{"id": int64(1)}, {"id": int64(2)}}
	inner.ExpectAll("SELECT id FROM events WHERE published = ?", rows, 1)

	got, err := g.All(context.Background(), "SELECT id FROM events WHERE published = ?", 1)
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.select", spans[0].Name)
	system, _ := spanAttr(spans[0].Attributes, attrDBSystem)
	assert.Equal(t, "sqlite", system)
	text, _ := spanAttr(spans[0].Attributes, attrDBQueryText)
	assert.Equal(t, "SELECT id FROM events WHERE published = ?", text)
	op, _ := spanAttr(spans[0].Attributes, attrDBOperation)
	assert.Equal(t, "select", op)

	event := singleEvent(t, rec)
	assert.Equal(t, int64(2), event.Fields["rows"])

	calls := collectMetric(t, reader, metricDBCalls)
	require.NotNil(t, calls)
	sum, ok := calls.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
	table, _ := sum.DataPoints[0].Attributes.Value(attrDBTable)
	assert.Equal(t, "events", table.AsString())
}

func TestGatewayGetAbsentIsNotAnError(t *testing.T) {
	exporter, _ := setupObservability(t)
	g, inner, rec := newWrapped(t)

	inner.ExpectGet("SELECT * FROM users WHERE id = ?", nil, 7)

	row, err := g.Get(context.Background(), "SELECT * FROM users WHERE id = ?", 7)
	require.NoError(t, err)
	assert.Nil(t, row)

	event := singleEvent(t, rec)
	assert.Equal(t, levelDebug, event.Level)
	assert.Equal(t, "Database operation returned no rows", event.Msg)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

func TestGatewayRunErrorIsReturnedUnchanged(t *testing.T) {
	exporter, reader := setupObservability(t)
	g, inner, rec := newWrapped(t)

	boom := errors.New("UNIQUE constraint failed: users.email")
	inner.On("Run", mock.Anything, "INSERT INTO users (email) VALUES (?)", "a@b.c").Return(types.Result{}, boom)

	_, err := g.Run(context.Background(), "INSERT INTO users (email) VALUES (?)", "a@b.c")
	assert.Same(t, boom, err)

	event := singleEvent(t, rec)
	assert.Equal(t, levelError, event.Level)
	assert.Same(t, boom, event.Err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "db.insert", spans[0].Name)

	if m := collectMetric(t, reader, metricRowsAffected); m != nil {
		assert.Empty(t, m.Data.(metricdata.Sum[int64]).DataPoints)
	}
}

func TestGatewayRunRecordsRowsAffected(t *testing.T) {
	_, reader := setupObservability(t)
	g, inner, _ := newWrapped(t)

	inner.ExpectRun("UPDATE banners SET active = ?", types.NewResult(3), 0)

	res, err := g.Run(context.Background(), "UPDATE banners SET active = ?", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.RowsAffected())

	affected := collectMetric(t, reader, metricRowsAffected)
	require.NotNil(t, affected)
	sum := affected.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
}

func TestGatewayRepairSequencesDelegates(t *testing.T) {
	setupObservability(t)
	g, inner, rec := newWrapped(t)

	report := types.RepairReport{
		{Table: "events", Outcome: types.RepairUpdated, MaxID: 9},
		{Table: "news", Outcome: types.RepairFailed, Err: errors.New("denied")},
	}
	inner.On("RepairSequences", mock.Anything, []string{"events", "news"}).Return(report)
	inner.On("Dialect").Return(types.Embedded)

	assert.Equal(t, report, g.RepairSequences(context.Background(), []string{"events", "news"}))
	assert.Equal(t, types.Embedded, g.Dialect())
	assert.Same(t, inner, g.Unwrap())

	event := singleEvent(t, rec)
	assert.Equal(t, 1, event.Fields["updated"])
	assert.Equal(t, 1, event.Fields["failed"])
}

func TestRegisterPoolMetrics(t *testing.T) {
	_, reader := setupObservability(t)

	unregister := RegisterPoolMetrics(statsFunc(func() sql.DBStats {
		return sql.DBStats{MaxOpenConnections: 10, InUse: 2, Idle: 3}
	}), types.Networked)
	defer unregister()

	active := collectMetric(t, reader, metricPoolActive)
	require.NotNil(t, active)
	gauge := active.Data.(metricdata.Gauge[int64])
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(2), gauge.DataPoints[0].Value)

	total := collectMetric(t, reader, metricPoolTotal)
	require.NotNil(t, total)
	assert.Equal(t, int64(10), total.Data.(metricdata.Gauge[int64]).DataPoints[0].Value)
}

type statsFunc func() sql.DBStats

func (f statsFunc) Stats() sql.DBStats { return f() }

func TestTrackedGatewayMeasuresDuration(t *testing.T) {
	setupObservability(t)
	g, inner, rec := newWrapped(t)
	g.tc.Settings = Settings{slowQueryThreshold: time.Millisecond, maxQueryLength: 100}

	inner.On("All", mock.Anything, "SELECT * FROM news").
		Run(func(mock.Arguments) { time.Sleep(5 * time.Millisecond) }).
		Return([]types.Record{}, nil)

	_, err := g.All(context.Background(), "SELECT * FROM news")
	require.NoError(t, err)
	assert.Equal(t, levelWarn, singleEvent(t, rec).Level)
}
