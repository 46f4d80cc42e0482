// Package runner orchestrates the escala job: schema migration, the
// generation chunk loop, the Parquet export and the final report.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	config "github.com/tigerroll/escala/internal/config"
	model "github.com/tigerroll/escala/internal/domain/model"
	"github.com/tigerroll/escala/internal/domain/repository"
	"github.com/tigerroll/escala/internal/infrastructure/migration"
	"github.com/tigerroll/escala/internal/metrics"
	"github.com/tigerroll/escala/internal/render"
	"github.com/tigerroll/escala/internal/roster"
	"github.com/tigerroll/escala/internal/step/processor"
	"github.com/tigerroll/escala/internal/step/reader"
	"github.com/tigerroll/escala/internal/step/tasklet"
	"github.com/tigerroll/escala/internal/step/writer"
	"github.com/tigerroll/escala/internal/support/exception"
	"github.com/tigerroll/escala/internal/support/logger"
)

const moduleName = "schedule_job_runner"

const (
	stepMigration  = "migration"
	stepGeneration = "generation"
	stepExport     = "export"
)

// ScheduleJobRunner drives one generation execution from STARTING to a
// terminal status.
type ScheduleJobRunner struct {
	cfg          *config.Config
	roster       *roster.Roster
	repo         repository.ScheduleRepository
	reader       *reader.ServiceDateReader
	processor    *processor.AssignmentProcessor
	writer       *writer.ScheduleWriter
	export       *tasklet.ParquetExportTasklet
	migrator     *migration.Migrator
	migrationsFS fs.FS
	recorder     metrics.MetricRecorder
	tracer       metrics.Tracer
}

// NewScheduleJobRunner wires the runner. migrator and migrationsFS may
// be nil when the selected repository needs no schema.
func NewScheduleJobRunner(
	cfg *config.Config,
	r *roster.Roster,
	repo repository.ScheduleRepository,
	rd *reader.ServiceDateReader,
	proc *processor.AssignmentProcessor,
	wr *writer.ScheduleWriter,
	export *tasklet.ParquetExportTasklet,
	migrator *migration.Migrator,
	migrationsFS fs.FS,
	recorder metrics.MetricRecorder,
	tracer metrics.Tracer,
) *ScheduleJobRunner {
	return &ScheduleJobRunner{
		cfg:          cfg,
		roster:       r,
		repo:         repo,
		reader:       rd,
		processor:    proc,
		writer:       wr,
		export:       export,
		migrator:     migrator,
		migrationsFS: migrationsFS,
		recorder:     recorder,
		tracer:       tracer,
	}
}

// Run executes the escala job once and returns the finished execution
// record. The returned error reflects the job outcome; the execution's
// terminal status is always persisted on a best-effort basis.
func (r *ScheduleJobRunner) Run(ctx context.Context) (*model.GenerationExecution, error) {
	execution := model.NewGenerationExecution(
		r.cfg.Escala.Batch.JobName,
		r.cfg.Escala.Batch.Year,
		len(r.roster.Deacons),
		r.cfg.Escala.Batch.Seed,
	)
	logger.Infof("ScheduleJobRunner: starting job '%s' for year %d (Execution ID: %s).",
		execution.JobName, execution.Year, execution.ID)

	if err := r.repo.SaveExecution(ctx, execution); err != nil {
		return execution, exception.NewBatchError(moduleName, "failed to persist initial execution", err, false, false)
	}

	r.recorder.RecordJobStart(ctx, execution)
	jobCtx, endJobSpan := r.tracer.StartJobSpan(ctx, execution)
	defer endJobSpan()

	if err := r.transition(jobCtx, execution, model.BatchStatusStarted); err != nil {
		r.finish(jobCtx, execution, err)
		return execution, err
	}

	if err := r.runSteps(jobCtx, execution); err != nil {
		r.finish(jobCtx, execution, err)
		return execution, err
	}

	r.finish(jobCtx, execution, nil)
	return execution, nil
}

func (r *ScheduleJobRunner) runSteps(ctx context.Context, execution *model.GenerationExecution) error {
	if err := r.runStep(ctx, execution, stepMigration, r.runMigration); err != nil {
		return err
	}
	if err := r.runStep(ctx, execution, stepGeneration, r.runGeneration); err != nil {
		return err
	}
	if err := r.runStep(ctx, execution, stepExport, r.runExport); err != nil {
		return err
	}
	return nil
}

// runStep wraps a step with a span, duration metrics and error
// bookkeeping on the execution record.
func (r *ScheduleJobRunner) runStep(
	ctx context.Context,
	execution *model.GenerationExecution,
	stepName string,
	fn func(ctx context.Context, execution *model.GenerationExecution) error,
) error {
	stepCtx, endStepSpan := r.tracer.StartStepSpan(ctx, stepName)
	defer endStepSpan()

	start := time.Now()
	err := fn(stepCtx, execution)
	duration := time.Since(start)

	status := model.BatchStatusCompleted
	if err != nil {
		status = model.BatchStatusFailed
		if errors.Is(err, context.Canceled) {
			status = model.BatchStatusStopped
		}
		r.tracer.RecordError(stepCtx, stepName, err)
	}
	r.recorder.RecordStepDuration(stepCtx, execution.JobName, stepName, status, duration)
	logger.Infof("ScheduleJobRunner: step '%s' finished with status %s in %s.", stepName, status, duration)
	return err
}

func (r *ScheduleJobRunner) runMigration(ctx context.Context, execution *model.GenerationExecution) error {
	if r.migrator == nil || r.migrationsFS == nil {
		logger.Debugf("ScheduleJobRunner: no migrator configured, skipping schema migration.")
		return nil
	}
	return r.migrator.Up(r.migrationsFS, ".")
}

// runGeneration is the chunk loop: it reads service dates, processes
// them into assignments and writes them through the chunked writer,
// checkpointing the reader position on the execution record.
func (r *ScheduleJobRunner) runGeneration(ctx context.Context, execution *model.GenerationExecution) error {
	// A rerun for the same year replaces the previous schedule.
	if err := r.repo.DeleteAssignmentsByYear(ctx, execution.Year); err != nil {
		return exception.NewBatchError(moduleName, "failed to clear previous schedule", err, false, true)
	}

	execution.ExecutionContext.Put(writer.ExecutionIDKey, execution.ID)
	r.processor.Reset()

	if err := r.reader.Open(ctx, execution.ExecutionContext); err != nil {
		return err
	}
	if err := r.writer.Open(ctx, execution.ExecutionContext); err != nil {
		return err
	}

	chunkSize := r.cfg.Escala.Batch.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1
	}

	var loopErr error
	itemsInChunk := 0
	for {
		select {
		case <-ctx.Done():
			loopErr = ctx.Err()
		default:
		}
		if loopErr != nil {
			break
		}

		sd, err := r.reader.Read(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			loopErr = err
			break
		}

		assignments, err := r.processor.Process(ctx, sd)
		if err != nil {
			loopErr = err
			break
		}
		if err := r.writer.Write(ctx, assignments); err != nil {
			loopErr = err
			break
		}

		itemsInChunk++
		if itemsInChunk >= chunkSize {
			itemsInChunk = 0
			if err := r.checkpoint(ctx, execution); err != nil {
				loopErr = err
				break
			}
		}
	}

	if err := r.writer.Close(ctx); err != nil && loopErr == nil {
		loopErr = err
	}
	if err := r.reader.Close(ctx); err != nil && loopErr == nil {
		loopErr = err
	}

	execution.WriteCount = r.writer.WrittenSoFar()
	if loopErr != nil {
		return loopErr
	}

	logger.Infof("ScheduleJobRunner: generation step wrote %d assignments for year %d.",
		execution.WriteCount, execution.Year)
	return nil
}

// checkpoint persists the reader position so an interrupted run can
// resume instead of starting over.
func (r *ScheduleJobRunner) checkpoint(ctx context.Context, execution *model.GenerationExecution) error {
	if _, err := r.reader.GetExecutionContext(ctx); err != nil {
		return err
	}
	execution.WriteCount = r.writer.WrittenSoFar()
	execution.LastUpdated = time.Now()
	if err := r.repo.UpdateExecution(ctx, execution); err != nil {
		return exception.NewBatchError(moduleName, "failed to checkpoint execution", err, false, true)
	}
	return nil
}

func (r *ScheduleJobRunner) runExport(ctx context.Context, execution *model.GenerationExecution) error {
	exitStatus, err := r.export.Execute(ctx, execution)
	if err != nil {
		return err
	}
	if exitStatus != model.ExitStatusCompleted {
		return exception.NewBatchErrorf(moduleName, "export step finished with exit status %s", exitStatus)
	}
	return nil
}

// finish drives the execution to its terminal status, records metrics
// and logs the rendered schedule on success.
func (r *ScheduleJobRunner) finish(ctx context.Context, execution *model.GenerationExecution, runErr error) {
	// The context may already be cancelled; terminal bookkeeping still
	// has to be persisted.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	switch {
	case runErr == nil:
		r.transition(persistCtx, execution, model.BatchStatusCompleted)
	case errors.Is(runErr, context.Canceled):
		logger.Warnf("ScheduleJobRunner: job '%s' was cancelled, stopping.", execution.JobName)
		execution.AddFailureException(runErr)
		r.transition(persistCtx, execution, model.BatchStatusStopping)
		r.transition(persistCtx, execution, model.BatchStatusStopped)
	default:
		logger.Errorf("ScheduleJobRunner: job '%s' failed: %v", execution.JobName, runErr)
		execution.AddFailureException(runErr)
		r.transition(persistCtx, execution, model.BatchStatusFailed)
	}

	r.recorder.RecordJobCompletion(persistCtx, execution)

	if runErr == nil {
		r.report(persistCtx, execution)
	}
}

// report renders the persisted schedule the way the CLI presents it.
func (r *ScheduleJobRunner) report(ctx context.Context, execution *model.GenerationExecution) {
	schedule, err := r.repo.FindAssignmentsByYear(ctx, execution.Year)
	if err != nil {
		logger.Errorf("ScheduleJobRunner: failed to load schedule for report: %v", err)
		return
	}
	fmt.Println(render.Text(schedule))
}

func (r *ScheduleJobRunner) transition(ctx context.Context, execution *model.GenerationExecution, next model.JobStatus) error {
	if err := execution.TransitionTo(next); err != nil {
		logger.Errorf("ScheduleJobRunner: illegal status transition to %s: %v", next, err)
		return exception.NewBatchError(moduleName, "illegal execution status transition", err, false, false)
	}
	if err := r.repo.UpdateExecution(ctx, execution); err != nil {
		logger.Errorf("ScheduleJobRunner: failed to persist status %s: %v", next, err)
		return exception.NewBatchError(moduleName, "failed to persist execution status", err, false, true)
	}
	return nil
}
