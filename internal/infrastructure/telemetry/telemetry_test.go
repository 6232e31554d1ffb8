package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/printshop/personalizer/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestSetup_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Telemetry: config.TelemetryConfig{ServiceName: "personalizer-test"},
	}

	p, err := Setup(ctx, cfg, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.Tracer.IsEnabled())
	assert.False(t, p.Meter.IsEnabled())
	assert.False(t, p.Logs.IsEnabled())
	assert.False(t, p.Profiler.IsEnabled())
	assert.Equal(t, zapcore.NewNopCore(), p.Logs.ZapCore(zapcore.InfoLevel))
	assert.NotNil(t, p.Tracer.Tracer("test"))
	assert.NotNil(t, p.Meter.Meter("test"))

	assert.NoError(t, p.Shutdown(ctx))
	assert.NoError(t, p.Profiler.Stop(), "second stop is a no-op")
}

func TestSetup_ProfilerNeedsAddress(t *testing.T) {
	cfg := &config.Config{Profiler: config.ProfilerConfig{Enabled: true, ApplicationName: "x"}}
	_, err := Setup(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewSampler(t *testing.T) {
	assert.Contains(t, newSampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, newSampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, newSampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	logger := zap.New(core).With(zap.String("svc", "test"))

	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept too")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
	assert.Equal(t, "test", logs.All()[0].ContextMap()["svc"])
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, span := StartServiceSpan(context.Background(), "personalization", "replace_line",
		SpanAttrLineID, "line-1",
		SpanAttrDesigns, 2,
		42, "ignored",
	)
	assert.NotEmpty(t, GetTraceID(ctx))
	SetAttributes(span, SpanAttrStored, int64(1))
	AddEvent(span, "record_skipped", SpanAttrAreaKey, "front")
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, "personalization.replace_line", got.Name())
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Contains(t, got.Attributes(), attribute.String(SpanAttrLineID, "line-1"))
	assert.Contains(t, got.Attributes(), attribute.Int(SpanAttrDesigns, 2))
	assert.Contains(t, got.Attributes(), attribute.Int64(SpanAttrStored, 1))
	require.Len(t, got.Events(), 2, "custom event plus the recorded error")
	assert.Equal(t, "record_skipped", got.Events()[0].Name)

	assert.Empty(t, GetTraceID(context.Background()))
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestPersonalizationMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(ctx)

	m, err := NewPersonalizationMetrics(provider.Meter("test"))
	require.NoError(t, err)

	m.RecordLineAdded(ctx)
	m.RecordSaved(ctx, "front", 1024)
	m.RecordSaved(ctx, "back", 0)
	m.RecordSaveFailure(ctx, "back")
	m.RecordReplaceConflict(ctx)
	m.RecordImageServed(ctx, "final", true)
	m.ObserveReplace(ctx, 30*time.Millisecond, "ok")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(1), sumOf(t, rm, "personalizer_cart_lines_added_total"))
	assert.Equal(t, int64(2), sumOf(t, rm, "personalizer_records_saved_total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "personalizer_record_save_failures_total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "personalizer_replace_conflicts_total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "personalizer_images_served_total"))
}

func TestPersonalizationMetrics_NilIsNoop(t *testing.T) {
	var m *PersonalizationMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordLineAdded(ctx)
		m.RecordSaved(ctx, "front", 10)
		m.RecordSaveFailure(ctx, "front")
		m.RecordReplaceConflict(ctx)
		m.RecordImageServed(ctx, "preview", false)
		m.ObserveReplace(ctx, time.Second, "conflict")
	})
}

type tracedRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestDBTracing(t *testing.T) {
	t.Run("disabled registers nothing", func(t *testing.T) {
		db := setupTestDB(t)
		plugin := NewDBTracing(config.TelemetryConfig{Enabled: true}, "sqlite", zap.NewNop())
		require.NoError(t, plugin.Register(db))
		assert.Nil(t, db.Callback().Query().Get("otel_slow_query:query"))
	})

	t.Run("defaults", func(t *testing.T) {
		plugin := NewDBTracing(config.TelemetryConfig{}, "postgres", zap.NewNop())
		assert.Equal(t, 200*time.Millisecond, plugin.slowThresh)
		assert.Equal(t, "postgresql", plugin.dbSystem)
	})

	t.Run("enabled traces statements", func(t *testing.T) {
		sr := setupTestTracer(t)
		db := setupTestDB(t)
		plugin := NewDBTracing(config.TelemetryConfig{
			Enabled:           true,
			DBTraceEnabled:    true,
			DBSlowQueryThresh: time.Nanosecond,
		}, "sqlite", zap.NewNop())
		require.NoError(t, plugin.Register(db))

		ctx, parent := StartServiceSpan(context.Background(), "test", "db")
		require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "a"}).Error)
		var rows []tracedRow
		require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
		parent.End()

		assert.Len(t, rows, 1)
		assert.Greater(t, len(sr.Ended()), 1, "statement spans are recorded besides the parent")
	})
}
