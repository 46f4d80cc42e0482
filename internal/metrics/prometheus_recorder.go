package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	model "github.com/tigerroll/escala/internal/domain/model"
	"github.com/tigerroll/escala/internal/support/logger"
)

// PrometheusRecorder is a Prometheus implementation of MetricRecorder.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	jobDurationSeconds *prometheus.HistogramVec
	jobStatusCounter   *prometheus.CounterVec

	stepDurationSeconds *prometheus.HistogramVec
	stepStatusCounter   *prometheus.CounterVec

	assignmentsWritten *prometheus.CounterVec
	drawCounter        *prometheus.CounterVec
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder.
func NewPrometheusRecorder() MetricRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		jobDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "escala_job_duration_seconds",
			Help:    "Duration of schedule generation executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_name", "status", "exit_status"}),
		jobStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "escala_job_status_total",
			Help: "Total number of schedule generation executions by status.",
		}, []string{"job_name", "status"}),
		stepDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "escala_step_duration_seconds",
			Help:    "Duration of job steps.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_name", "step_name", "status"}),
		stepStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "escala_step_status_total",
			Help: "Total number of step executions by status.",
		}, []string{"job_name", "step_name", "status"}),
		assignmentsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "escala_assignments_written_total",
			Help: "Total assignments persisted by the writer.",
		}, []string{"job_name"}),
		drawCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "escala_draws_total",
			Help: "Total deacon draws by role.",
		}, []string{"job_name", "role"}),
	}

	registry.MustRegister(r.jobDurationSeconds)
	registry.MustRegister(r.jobStatusCounter)
	registry.MustRegister(r.stepDurationSeconds)
	registry.MustRegister(r.stepStatusCounter)
	registry.MustRegister(r.assignmentsWritten)
	registry.MustRegister(r.drawCounter)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordJobStart records the start of a generation execution.
func (r *PrometheusRecorder) RecordJobStart(ctx context.Context, execution *model.GenerationExecution) {
	r.jobStatusCounter.WithLabelValues(execution.JobName, execution.Status.String()).Inc()
	logger.Debugf("Metrics: Job '%s' started.", execution.JobName)
}

// RecordJobCompletion records the terminal status and duration of an execution.
func (r *PrometheusRecorder) RecordJobCompletion(ctx context.Context, execution *model.GenerationExecution) {
	r.jobStatusCounter.WithLabelValues(execution.JobName, execution.Status.String()).Inc()
	r.jobDurationSeconds.WithLabelValues(
		execution.JobName,
		execution.Status.String(),
		string(execution.ExitStatus),
	).Observe(execution.Duration().Seconds())
	logger.Debugf("Metrics: Job '%s' finished with status %s.", execution.JobName, execution.Status)
}

// RecordStepDuration records the duration and outcome of a named step.
func (r *PrometheusRecorder) RecordStepDuration(ctx context.Context, jobName, stepName string, status model.JobStatus, duration time.Duration) {
	r.stepStatusCounter.WithLabelValues(jobName, stepName, status.String()).Inc()
	r.stepDurationSeconds.WithLabelValues(jobName, stepName, status.String()).Observe(duration.Seconds())
}

// RecordAssignmentsWritten counts assignments persisted by the writer.
func (r *PrometheusRecorder) RecordAssignmentsWritten(ctx context.Context, jobName string, count int) {
	r.assignmentsWritten.WithLabelValues(jobName).Add(float64(count))
}

// RecordDraw counts a single deacon draw by role.
func (r *PrometheusRecorder) RecordDraw(ctx context.Context, jobName string, role model.Role) {
	r.drawCounter.WithLabelValues(jobName, string(role)).Inc()
}

var _ MetricRecorder = (*PrometheusRecorder)(nil)
