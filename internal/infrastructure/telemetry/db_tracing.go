package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/printshop/personalizer/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// DBTracing registers otelgorm and marks slow or failed statements on their spans.
type DBTracing struct {
	enabled    bool
	fullSQL    bool
	slowThresh time.Duration
	dbSystem   string
	logger     *zap.Logger
}

// NewDBTracing creates the plugin from the telemetry config
func NewDBTracing(cfg config.TelemetryConfig, dbDriver string, logger *zap.Logger) *DBTracing {
	thresh := cfg.DBSlowQueryThresh
	if thresh <= 0 {
		thresh = 200 * time.Millisecond
	}
	system := "postgresql"
	if dbDriver == "sqlite" {
		system = "sqlite"
	}
	return &DBTracing{
		enabled:    cfg.Enabled && cfg.DBTraceEnabled,
		fullSQL:    cfg.DBLogFullSQL,
		slowThresh: thresh,
		dbSystem:   system,
		logger:     logger,
	}
}

// Register installs the tracing callbacks on db. It does nothing when disabled.
func (p *DBTracing) Register(db *gorm.DB) error {
	if !p.enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.dbSystem)}
	if !p.fullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.registerCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.fullSQL),
		zap.Duration("slow_query_threshold", p.slowThresh),
	)
	return nil
}

func (p *DBTracing) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("otel_timing:before_create", markStart),
		cb.Query().Before("gorm:query").Register("otel_timing:before_query", markStart),
		cb.Update().Before("gorm:update").Register("otel_timing:before_update", markStart),
		cb.Delete().Before("gorm:delete").Register("otel_timing:before_delete", markStart),
		cb.Row().Before("gorm:row").Register("otel_timing:before_row", markStart),
		cb.Raw().Before("gorm:raw").Register("otel_timing:before_raw", markStart),

		cb.Create().After("gorm:create").Register("otel_slow_query:create", p.annotate),
		cb.Query().After("gorm:query").Register("otel_slow_query:query", p.annotate),
		cb.Update().After("gorm:update").Register("otel_slow_query:update", p.annotate),
		cb.Delete().After("gorm:delete").Register("otel_slow_query:delete", p.annotate),
		cb.Row().After("gorm:row").Register("otel_slow_query:row", p.annotate),
		cb.Raw().After("gorm:raw").Register("otel_slow_query:raw", p.annotate),
	)
}

func markStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

func (p *DBTracing) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if start, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > p.slowThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
