// Package reader provides the item reader feeding the generation step.
package reader

import (
	"context"
	"io"
	"time"

	config "github.com/tigerroll/escala/internal/config"
	model "github.com/tigerroll/escala/internal/domain/model"
	"github.com/tigerroll/escala/internal/scheduler"
	"github.com/tigerroll/escala/internal/step/port"
	"github.com/tigerroll/escala/internal/support/exception"
	"github.com/tigerroll/escala/internal/support/logger"
)

var _ port.ItemReader[*scheduler.ServiceDate] = (*ServiceDateReader)(nil)

const (
	ModuleServiceDateReader = "ServiceDateReader"
	// ReaderContextKey is where the reader checkpoints its state inside
	// the step ExecutionContext.
	ReaderContextKey = "reader_context"
	// CurrentIndexKey tracks how many service dates were already handed
	// out, so an interrupted run resumes where it stopped.
	CurrentIndexKey = "currentIndex"
)

// ServiceDateReader iterates over every service date of the configured
// year in chronological order.
type ServiceDateReader struct {
	year         int
	loc          *time.Location
	dates        []scheduler.ServiceDate
	currentIndex int

	// stepExecutionContext holds the reference to the step's ExecutionContext.
	stepExecutionContext model.ExecutionContext
	// readerState holds the reader's internal checkpoint state.
	readerState model.ExecutionContext
}

// NewServiceDateReader builds a reader for the configured target year
// and timezone.
func NewServiceDateReader(cfg *config.Config) (*ServiceDateReader, error) {
	loc, err := time.LoadLocation(cfg.Escala.System.Timezone)
	if err != nil {
		return nil, exception.NewBatchError(ModuleServiceDateReader, "invalid timezone "+cfg.Escala.System.Timezone, err, false, false)
	}

	return &ServiceDateReader{
		year:                 cfg.Escala.Batch.Year,
		loc:                  loc,
		stepExecutionContext: model.NewExecutionContext(),
		readerState:          model.NewExecutionContext(),
	}, nil
}

// Open computes the year's service dates and restores the checkpoint
// from the ExecutionContext.
func (r *ServiceDateReader) Open(ctx context.Context, ec model.ExecutionContext) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	logger.Debugf("ServiceDateReader.Open is called.")

	r.stepExecutionContext = ec
	r.dates = scheduler.ServiceDatesForYear(r.year, r.loc)
	if err := r.restoreReaderStateFromExecutionContext(); err != nil {
		return err
	}

	logger.Infof("ServiceDateReader: %d service dates computed for year %d (resuming at index %d).",
		len(r.dates), r.year, r.currentIndex)
	return nil
}

// Read returns the next service date, or io.EOF when the year is done.
func (r *ServiceDateReader) Read(ctx context.Context) (*scheduler.ServiceDate, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if r.currentIndex >= len(r.dates) {
		logger.Debugf("ServiceDateReader: finished reading all service dates. Returning EOF.")
		return nil, io.EOF
	}

	sd := r.dates[r.currentIndex]
	r.currentIndex++
	return &sd, nil
}

// Close saves the reader's checkpoint into the step ExecutionContext.
func (r *ServiceDateReader) Close(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	logger.Debugf("ServiceDateReader.Close is called.")
	r.saveReaderStateToExecutionContext()
	return nil
}

// SetExecutionContext sets the ExecutionContext and restores the
// reader's state from it.
func (r *ServiceDateReader) SetExecutionContext(ctx context.Context, ec model.ExecutionContext) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	r.stepExecutionContext = ec
	return r.restoreReaderStateFromExecutionContext()
}

// GetExecutionContext returns the reader's checkpoint state.
func (r *ServiceDateReader) GetExecutionContext(ctx context.Context) (model.ExecutionContext, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	r.saveReaderStateToExecutionContext()
	return r.readerState, nil
}

func (r *ServiceDateReader) restoreReaderStateFromExecutionContext() error {
	raw, ok := r.stepExecutionContext.Get(ReaderContextKey)
	if !ok {
		r.currentIndex = 0
		return nil
	}

	var state model.ExecutionContext
	switch v := raw.(type) {
	case model.ExecutionContext:
		state = v
	case map[string]interface{}:
		state = model.ExecutionContext(v)
	default:
		return exception.NewBatchErrorf(ModuleServiceDateReader, "unexpected reader state type %T in execution context", raw)
	}

	if idx, ok := state.GetInt(CurrentIndexKey); ok {
		if idx < 0 || idx > len(r.dates) {
			return exception.NewBatchErrorf(ModuleServiceDateReader, "checkpoint index %d out of range for %d service dates", idx, len(r.dates))
		}
		r.currentIndex = idx
		logger.Debugf("ServiceDateReader: restored checkpoint index %d.", idx)
	}
	r.readerState = state
	return nil
}

func (r *ServiceDateReader) saveReaderStateToExecutionContext() {
	r.readerState.Put(CurrentIndexKey, r.currentIndex)
	r.stepExecutionContext.Put(ReaderContextKey, r.readerState)
}
