package telemetry

import (
	"context"
	"errors"

	"github.com/printshop/personalizer/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Providers bundles every signal pipeline of the process.
type Providers struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
	logger   *zap.Logger
}

// Setup starts tracing, metrics, log export and profiling as configured.
// Anything already started is shut down again when a later step fails.
func Setup(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Providers, error) {
	p := &Providers{logger: logger}
	var err error

	if p.Profiler, err = NewProfiler(cfg.Profiler, logger); err != nil {
		return nil, err
	}
	if p.Tracer, err = NewTracerProvider(ctx, cfg.Telemetry, logger); err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	if cfg.Profiler.SpanProfilesEnabled && p.Profiler.IsEnabled() {
		p.Tracer.EnableSpanProfiles()
	}
	if p.Meter, err = NewMeterProvider(ctx, cfg.Telemetry, logger); err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	if p.Logs, err = NewLoggerProvider(ctx, cfg.Telemetry, logger); err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	return p, nil
}

// Shutdown flushes and stops every started pipeline
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Logs != nil {
		errs = append(errs, p.Logs.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Profiler != nil {
		errs = append(errs, p.Profiler.Stop())
	}
	err := errors.Join(errs...)
	if err != nil {
		p.logger.Error("Telemetry shutdown failed", zap.Error(err))
	}
	return err
}
