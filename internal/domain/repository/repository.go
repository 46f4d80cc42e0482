// Package repository defines the persistence contracts of the escala domain.
package repository

import (
	"context"
	"errors"

	model "github.com/tigerroll/escala/internal/domain/model"
)

// ErrExecutionNotFound is returned when an execution record does not exist.
var ErrExecutionNotFound = errors.New("generation execution not found")

// ScheduleRepository persists generated assignments and the execution records
// of generation runs.
type ScheduleRepository interface {
	// SaveAssignments persists a batch of assignments for the given execution.
	SaveAssignments(ctx context.Context, executionID string, assignments []model.Assignment) error
	// FindAssignmentsByYear returns all assignments whose date falls in the
	// given year, in chronological order.
	FindAssignmentsByYear(ctx context.Context, year int) (model.Schedule, error)
	// DeleteAssignmentsByYear removes all assignments of the given year.
	// It is used to make reruns idempotent.
	DeleteAssignmentsByYear(ctx context.Context, year int) error

	// SaveExecution persists a new execution record.
	SaveExecution(ctx context.Context, execution *model.GenerationExecution) error
	// UpdateExecution persists the current state of an execution record.
	UpdateExecution(ctx context.Context, execution *model.GenerationExecution) error
	// FindExecutionByID returns the execution record with the given ID.
	FindExecutionByID(ctx context.Context, id string) (*model.GenerationExecution, error)

	// Close releases resources held by the repository.
	Close() error
}
