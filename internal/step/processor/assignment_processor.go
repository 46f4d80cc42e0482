// Package processor turns service dates into duty assignments.
package processor

import (
	"context"

	config "github.com/tigerroll/escala/internal/config"
	model "github.com/tigerroll/escala/internal/domain/model"
	"github.com/tigerroll/escala/internal/metrics"
	"github.com/tigerroll/escala/internal/roster"
	"github.com/tigerroll/escala/internal/scheduler"
	"github.com/tigerroll/escala/internal/step/port"
	"github.com/tigerroll/escala/internal/support/exception"
	"github.com/tigerroll/escala/internal/support/logger"
)

const ModuleAssignmentProcessor = "AssignmentProcessor"

var _ port.ItemProcessor[*scheduler.ServiceDate, []model.Assignment] = (*AssignmentProcessor)(nil)

// AssignmentProcessor maps each service date to its assignments using a
// stateful generator. The generator carries the key rotation and the
// weekly key memory across calls, so the processor must see the year's
// dates in chronological order.
type AssignmentProcessor struct {
	jobName   string
	generator *scheduler.Generator
	recorder  metrics.MetricRecorder
}

// NewAssignmentProcessor builds the processor with a generator seeded
// from configuration.
func NewAssignmentProcessor(
	cfg *config.Config,
	r *roster.Roster,
	recorder metrics.MetricRecorder,
) (*AssignmentProcessor, error) {
	var opts []scheduler.Option
	if cfg.Escala.Batch.Seed != nil {
		opts = append(opts, scheduler.WithSeed(*cfg.Escala.Batch.Seed))
		logger.Debugf("AssignmentProcessor: generator seeded with %d.", *cfg.Escala.Batch.Seed)
	}

	gen, err := scheduler.New(r.Names(), opts...)
	if err != nil {
		return nil, exception.NewBatchError(ModuleAssignmentProcessor, "failed to build schedule generator", err, false, false)
	}

	return &AssignmentProcessor{
		jobName:   cfg.Escala.Batch.JobName,
		generator: gen,
		recorder:  recorder,
	}, nil
}

// Process computes the assignments for one service date.
func (p *AssignmentProcessor) Process(ctx context.Context, sd *scheduler.ServiceDate) ([]model.Assignment, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	assignments, err := p.generator.AssignmentsFor(*sd)
	if err != nil {
		return nil, exception.NewBatchError(ModuleAssignmentProcessor, "failed to compute assignments for "+sd.Date.Format("2006-01-02"), err, false, false)
	}

	for _, a := range assignments {
		p.recorder.RecordDraw(ctx, p.jobName, a.Role)
	}
	return assignments, nil
}

// Reset clears the generator state so a fresh run starts a new rotation.
func (p *AssignmentProcessor) Reset() {
	p.generator.Reset()
}
