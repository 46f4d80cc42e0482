package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	config "github.com/tigerroll/escala/internal/config"
	model "github.com/tigerroll/escala/internal/domain/model"
	"github.com/tigerroll/escala/internal/support/exception"
	"github.com/tigerroll/escala/internal/support/logger"
)

const tracerName = "github.com/tigerroll/escala"

// OpenTelemetryTracer is an implementation of Tracer exporting spans through
// OTLP/HTTP.
type OpenTelemetryTracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewOpenTelemetryTracer creates a tracer exporting to the configured OTLP
// endpoint. The exporter connects lazily, so an unreachable collector does
// not fail startup.
func NewOpenTelemetryTracer(ctx context.Context, cfg *config.Config) (Tracer, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Escala.Tracing.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, exception.NewBatchError("metrics", "failed to create OTLP trace exporter", err, false, false)
	}

	res, err := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.Escala.Tracing.ServiceName),
		),
	)
	if err != nil {
		return nil, exception.NewBatchError("metrics", "failed to build tracer resource", err, false, false)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	logger.Infof("OpenTelemetry tracer initialized (endpoint: %s).", cfg.Escala.Tracing.Endpoint)
	return &OpenTelemetryTracer{
		provider: provider,
		tracer:   provider.Tracer(tracerName),
	}, nil
}

// StartJobSpan starts a span for a generation execution.
func (t *OpenTelemetryTracer) StartJobSpan(ctx context.Context, execution *model.GenerationExecution) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "escala.job",
		trace.WithAttributes(
			attribute.String("escala.job_name", execution.JobName),
			attribute.String("escala.execution_id", execution.ID),
			attribute.Int("escala.year", execution.Year),
			attribute.Int("escala.roster_size", execution.RosterSize),
		),
	)
	return ctx, func() { span.End() }
}

// StartStepSpan starts a span for a named step.
func (t *OpenTelemetryTracer) StartStepSpan(ctx context.Context, stepName string) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "escala.step."+stepName)
	return ctx, func() { span.End() }
}

// RecordError records an error on the span carried by the context.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attribute.String("escala.module", module)))
	span.SetStatus(codes.Error, err.Error())
}

// Shutdown flushes pending spans and stops the provider.
func (t *OpenTelemetryTracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

var _ Tracer = (*OpenTelemetryTracer)(nil)
