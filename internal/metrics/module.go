package metrics

import (
	"context"

	config "github.com/tigerroll/escala/internal/config"

	"go.uber.org/fx"
)

// NewTracer selects the tracer implementation from configuration: the
// OpenTelemetry tracer when tracing is enabled, a no-op tracer otherwise.
func NewTracer(cfg *config.Config) (Tracer, error) {
	if !cfg.Escala.Tracing.Enabled {
		return NewNoopTracer(), nil
	}
	return NewOpenTelemetryTracer(context.Background(), cfg)
}

// Module is an Fx module that provides the MetricRecorder and Tracer.
var Module = fx.Options(
	fx.Provide(NewPrometheusRecorder),
	fx.Provide(NewTracer),
)
