// Package inmemory provides an in-memory implementation of the
// ScheduleRepository interface, suitable for tests and for runs where
// persistence is not required.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	model "github.com/tigerroll/escala/internal/domain/model"
	"github.com/tigerroll/escala/internal/domain/repository"
)

// InMemoryScheduleRepository holds assignments and execution records in maps.
type InMemoryScheduleRepository struct {
	assignments map[string][]model.Assignment // keyed by execution ID
	executions  map[string]*model.GenerationExecution
	mu          sync.RWMutex
}

// NewInMemoryScheduleRepository creates and initializes a new instance of
// InMemoryScheduleRepository.
func NewInMemoryScheduleRepository() *InMemoryScheduleRepository {
	return &InMemoryScheduleRepository{
		assignments: make(map[string][]model.Assignment),
		executions:  make(map[string]*model.GenerationExecution),
	}
}

// SaveAssignments appends a batch of assignments for the given execution.
func (r *InMemoryScheduleRepository) SaveAssignments(ctx context.Context, executionID string, assignments []model.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.assignments[executionID] = append(r.assignments[executionID], assignments...)
	return nil
}

// FindAssignmentsByYear returns all dated assignments of the given year in
// chronological order.
func (r *InMemoryScheduleRepository) FindAssignmentsByYear(ctx context.Context, year int) (model.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var schedule model.Schedule
	for _, batch := range r.assignments {
		for _, a := range batch {
			if a.Date != nil && a.Date.Year() == year {
				schedule = append(schedule, a)
			}
		}
	}
	sort.SliceStable(schedule, func(i, j int) bool {
		return schedule[i].Date.Before(*schedule[j].Date)
	})
	return schedule, nil
}

// DeleteAssignmentsByYear removes all assignments of the given year.
func (r *InMemoryScheduleRepository) DeleteAssignmentsByYear(ctx context.Context, year int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, batch := range r.assignments {
		kept := batch[:0]
		for _, a := range batch {
			if a.Date == nil || a.Date.Year() != year {
				kept = append(kept, a)
			}
		}
		r.assignments[id] = kept
	}
	return nil
}

// SaveExecution persists a new execution record. It returns an error if an
// execution with the same ID already exists.
func (r *InMemoryScheduleRepository) SaveExecution(ctx context.Context, execution *model.GenerationExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.executions[execution.ID]; exists {
		return fmt.Errorf("generation execution with ID %s already exists", execution.ID)
	}
	cp := *execution
	r.executions[execution.ID] = &cp
	return nil
}

// UpdateExecution updates an existing execution record.
func (r *InMemoryScheduleRepository) UpdateExecution(ctx context.Context, execution *model.GenerationExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.executions[execution.ID]; !exists {
		return repository.ErrExecutionNotFound
	}
	cp := *execution
	cp.Version++
	execution.Version = cp.Version
	r.executions[execution.ID] = &cp
	return nil
}

// FindExecutionByID finds an execution record by its ID. A copy is returned
// so callers cannot mutate stored state.
func (r *InMemoryScheduleRepository) FindExecutionByID(ctx context.Context, id string) (*model.GenerationExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	execution, ok := r.executions[id]
	if !ok {
		return nil, repository.ErrExecutionNotFound
	}
	cp := *execution
	return &cp, nil
}

// Close releases resources used by the repository. The in-memory repository
// holds no external resources.
func (r *InMemoryScheduleRepository) Close() error {
	return nil
}

var _ repository.ScheduleRepository = (*InMemoryScheduleRepository)(nil)
