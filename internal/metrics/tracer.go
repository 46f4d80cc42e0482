package metrics

import (
	"context"

	model "github.com/tigerroll/escala/internal/domain/model"
)

// Tracer creates spans around job and step executions.
type Tracer interface {
	// StartJobSpan starts a span for a generation execution. The returned
	// function ends the span.
	StartJobSpan(ctx context.Context, execution *model.GenerationExecution) (context.Context, func())
	// StartStepSpan starts a span for a named step. The returned function
	// ends the span.
	StartStepSpan(ctx context.Context, stepName string) (context.Context, func())
	// RecordError records an error on the current span.
	RecordError(ctx context.Context, module string, err error)
	// Shutdown flushes and releases tracer resources.
	Shutdown(ctx context.Context) error
}

// NoopTracer is a Tracer that creates no spans.
type NoopTracer struct{}

// NewNoopTracer creates a new NoopTracer.
func NewNoopTracer() Tracer {
	return &NoopTracer{}
}

func (t *NoopTracer) StartJobSpan(ctx context.Context, execution *model.GenerationExecution) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoopTracer) StartStepSpan(ctx context.Context, stepName string) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoopTracer) RecordError(ctx context.Context, module string, err error) {}

func (t *NoopTracer) Shutdown(ctx context.Context) error { return nil }

var _ Tracer = (*NoopTracer)(nil)
