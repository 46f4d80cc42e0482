// Package port defines the item-oriented component contracts the job
// runner drives: readers, processors, writers and tasklets.
package port

import (
	"context"

	model "github.com/tigerroll/escala/internal/domain/model"
)

// ItemReader reads items one at a time from a data source.
// Read returns io.EOF when the source is exhausted.
type ItemReader[O any] interface {
	// Open opens resources and restores state from ExecutionContext.
	Open(ctx context.Context, ec model.ExecutionContext) error
	// Read reads the next item.
	Read(ctx context.Context) (O, error)
	// Close releases resources and persists internal state.
	Close(ctx context.Context) error
	// SetExecutionContext sets the ExecutionContext and restores state.
	SetExecutionContext(ctx context.Context, ec model.ExecutionContext) error
	// GetExecutionContext retrieves the reader's checkpoint state.
	GetExecutionContext(ctx context.Context) (model.ExecutionContext, error)
}

// ItemProcessor transforms an input item into an output item.
type ItemProcessor[I, O any] interface {
	Process(ctx context.Context, item I) (O, error)
}

// ItemWriter persists chunks of items.
type ItemWriter[I any] interface {
	// Open opens resources and restores state from ExecutionContext.
	Open(ctx context.Context, ec model.ExecutionContext) error
	// Write persists a list of items.
	Write(ctx context.Context, items []I) error
	// Close flushes buffered items and releases resources.
	Close(ctx context.Context) error
}

// Tasklet is a single-shot step executed outside the chunk loop.
type Tasklet interface {
	// Execute runs the tasklet's logic against the current execution.
	Execute(ctx context.Context, execution *model.GenerationExecution) (model.ExitStatus, error)
	// Close releases resources.
	Close(ctx context.Context) error
}
