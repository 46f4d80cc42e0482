// Package writer persists processed assignment chunks through the
// schedule repository.
package writer

import (
	"context"

	"github.com/hashicorp/go-multierror"

	config "github.com/tigerroll/escala/internal/config"
	model "github.com/tigerroll/escala/internal/domain/model"
	"github.com/tigerroll/escala/internal/domain/repository"
	"github.com/tigerroll/escala/internal/metrics"
	"github.com/tigerroll/escala/internal/step/port"
	"github.com/tigerroll/escala/internal/support/exception"
	"github.com/tigerroll/escala/internal/support/logger"
)

const ModuleScheduleWriter = "ScheduleWriter"

var _ port.ItemWriter[model.Assignment] = (*ScheduleWriter)(nil)

// ExecutionIDKey is the ExecutionContext key carrying the execution ID
// assignments are attributed to.
const ExecutionIDKey = "executionID"

// ScheduleWriter buffers assignments and flushes them to the repository
// once the buffer reaches the configured chunk size.
type ScheduleWriter struct {
	jobName   string
	chunkSize int
	repo      repository.ScheduleRepository
	recorder  metrics.MetricRecorder

	executionID string
	buffered    []model.Assignment
	written     int
}

// NewScheduleWriter builds a writer flushing in chunks of the
// configured size.
func NewScheduleWriter(
	cfg *config.Config,
	repo repository.ScheduleRepository,
	recorder metrics.MetricRecorder,
) *ScheduleWriter {
	chunkSize := cfg.Escala.Batch.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1
	}
	return &ScheduleWriter{
		jobName:   cfg.Escala.Batch.JobName,
		chunkSize: chunkSize,
		repo:      repo,
		recorder:  recorder,
	}
}

// Open reads the execution ID out of the step ExecutionContext.
func (w *ScheduleWriter) Open(ctx context.Context, ec model.ExecutionContext) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	id, ok := ec.GetString(ExecutionIDKey)
	if !ok || id == "" {
		return exception.NewBatchErrorf(ModuleScheduleWriter, "execution context is missing the %s key", ExecutionIDKey)
	}
	w.executionID = id
	w.buffered = w.buffered[:0]
	w.written = 0
	return nil
}

// Write buffers the given assignments and flushes full chunks.
func (w *ScheduleWriter) Write(ctx context.Context, items []model.Assignment) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	w.buffered = append(w.buffered, items...)
	for len(w.buffered) >= w.chunkSize {
		if err := w.flush(ctx, w.chunkSize); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes whatever is still buffered.
func (w *ScheduleWriter) Close(ctx context.Context) error {
	var multiErr *multierror.Error

	if len(w.buffered) > 0 {
		if err := w.flush(ctx, len(w.buffered)); err != nil {
			multiErr = multierror.Append(multiErr, err)
		}
	}
	return multiErr.ErrorOrNil()
}

func (w *ScheduleWriter) flush(ctx context.Context, n int) error {
	chunk := w.buffered[:n]
	if err := w.repo.SaveAssignments(ctx, w.executionID, chunk); err != nil {
		return exception.NewBatchError(ModuleScheduleWriter, "failed to persist assignment chunk", err, false, true)
	}

	w.recorder.RecordAssignmentsWritten(ctx, w.jobName, len(chunk))
	logger.Debugf("ScheduleWriter: flushed %d assignments for execution %s.", len(chunk), w.executionID)
	w.written += len(chunk)
	w.buffered = w.buffered[n:]
	return nil
}

// WrittenSoFar reports how many assignments reached the repository,
// feeding the execution's write count.
func (w *ScheduleWriter) WrittenSoFar() int {
	return w.written
}
