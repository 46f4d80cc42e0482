// Package metrics defines the observability surface of the escala
// application: a metric recorder for job and step outcomes, and a tracer for
// execution spans.
package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/escala/internal/domain/model"
)

// MetricRecorder records job and step level metrics of generation runs.
type MetricRecorder interface {
	// RecordJobStart records the start of a generation execution.
	RecordJobStart(ctx context.Context, execution *model.GenerationExecution)
	// RecordJobCompletion records the terminal status and duration of an execution.
	RecordJobCompletion(ctx context.Context, execution *model.GenerationExecution)
	// RecordStepDuration records the duration and outcome of a named step.
	RecordStepDuration(ctx context.Context, jobName, stepName string, status model.JobStatus, duration time.Duration)
	// RecordAssignmentsWritten counts assignments persisted by the writer.
	RecordAssignmentsWritten(ctx context.Context, jobName string, count int)
	// RecordDraw counts a single deacon draw by role.
	RecordDraw(ctx context.Context, jobName string, role model.Role)
}

// NoopRecorder is a MetricRecorder that discards every record.
type NoopRecorder struct{}

// NewNoopRecorder creates a new NoopRecorder.
func NewNoopRecorder() MetricRecorder {
	return &NoopRecorder{}
}

func (r *NoopRecorder) RecordJobStart(ctx context.Context, execution *model.GenerationExecution) {}
func (r *NoopRecorder) RecordJobCompletion(ctx context.Context, execution *model.GenerationExecution) {
}
func (r *NoopRecorder) RecordStepDuration(ctx context.Context, jobName, stepName string, status model.JobStatus, duration time.Duration) {
}
func (r *NoopRecorder) RecordAssignmentsWritten(ctx context.Context, jobName string, count int) {}
func (r *NoopRecorder) RecordDraw(ctx context.Context, jobName string, role model.Role)         {}

var _ MetricRecorder = (*NoopRecorder)(nil)
