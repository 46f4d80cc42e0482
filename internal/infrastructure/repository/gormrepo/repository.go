package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	model "github.com/tigerroll/escala/internal/domain/model"
	"github.com/tigerroll/escala/internal/domain/repository"
	"github.com/tigerroll/escala/internal/support/exception"
	"github.com/tigerroll/escala/internal/support/logger"
)

const moduleName = "gormrepo"

// GormScheduleRepository is a GORM implementation of ScheduleRepository.
type GormScheduleRepository struct {
	db *gorm.DB
}

// NewGormScheduleRepository creates a repository over an open GORM
// connection.
func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

// SaveAssignments persists a batch of assignments in a single transaction.
func (r *GormScheduleRepository) SaveAssignments(ctx context.Context, executionID string, assignments []model.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	records := make([]AssignmentRecord, 0, len(assignments))
	for _, a := range assignments {
		records = append(records, toAssignmentRecord(executionID, a))
	}

	if err := r.db.WithContext(ctx).Create(&records).Error; err != nil {
		return exception.NewBatchError(moduleName, "failed to insert assignments", err, false, true)
	}
	logger.Debugf("Persisted %d assignments for execution %s.", len(records), executionID)
	return nil
}

// FindAssignmentsByYear returns all assignments dated within the given year
// in chronological order.
func (r *GormScheduleRepository) FindAssignmentsByYear(ctx context.Context, year int) (model.Schedule, error) {
	var records []AssignmentRecord
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", yearStart(year), yearStart(year+1)).
		Order("date ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, exception.NewBatchError(moduleName, fmt.Sprintf("failed to query assignments for year %d", year), err, false, true)
	}

	schedule := make(model.Schedule, 0, len(records))
	for _, rec := range records {
		schedule = append(schedule, toAssignment(rec))
	}
	return schedule, nil
}

// DeleteAssignmentsByYear removes all assignments of the given year.
func (r *GormScheduleRepository) DeleteAssignmentsByYear(ctx context.Context, year int) error {
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", yearStart(year), yearStart(year+1)).
		Delete(&AssignmentRecord{}).Error
	if err != nil {
		return exception.NewBatchError(moduleName, fmt.Sprintf("failed to delete assignments for year %d", year), err, false, true)
	}
	return nil
}

// SaveExecution persists a new execution record.
func (r *GormScheduleRepository) SaveExecution(ctx context.Context, execution *model.GenerationExecution) error {
	rec, err := toExecutionRecord(execution)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return exception.NewBatchError(moduleName, "failed to insert generation execution", err, false, true)
	}
	return nil
}

// UpdateExecution persists the current state of an execution record using
// optimistic locking on the version column.
func (r *GormScheduleRepository) UpdateExecution(ctx context.Context, execution *model.GenerationExecution) error {
	rec, err := toExecutionRecord(execution)
	if err != nil {
		return err
	}
	rec.Version = execution.Version + 1

	result := r.db.WithContext(ctx).
		Model(&ExecutionRecord{}).
		Where("id = ? AND version = ?", execution.ID, execution.Version).
		Updates(map[string]interface{}{
			"status":            rec.Status,
			"exit_status":       rec.ExitStatus,
			"start_time":        rec.StartTime,
			"end_time":          rec.EndTime,
			"last_updated":      rec.LastUpdated,
			"write_count":       rec.WriteCount,
			"failures":          rec.Failures,
			"execution_context": rec.ExecutionContext,
			"version":           rec.Version,
		})
	if result.Error != nil {
		return exception.NewBatchError(moduleName, "failed to update generation execution", result.Error, false, true)
	}
	if result.RowsAffected == 0 {
		// Either the record is missing or another writer bumped the version.
		var count int64
		if err := r.db.WithContext(ctx).Model(&ExecutionRecord{}).Where("id = ?", execution.ID).Count(&count).Error; err == nil && count == 0 {
			return repository.ErrExecutionNotFound
		}
		return exception.NewBatchErrorf(moduleName, "optimistic lock conflict updating execution %s (version %d)", execution.ID, execution.Version)
	}

	execution.Version = rec.Version
	return nil
}

// FindExecutionByID returns the execution record with the given ID.
func (r *GormScheduleRepository) FindExecutionByID(ctx context.Context, id string) (*model.GenerationExecution, error) {
	var rec ExecutionRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrExecutionNotFound
	}
	if err != nil {
		return nil, exception.NewBatchError(moduleName, fmt.Sprintf("failed to find execution %s", id), err, false, true)
	}
	return toExecution(rec)
}

// Close closes the underlying database connection.
func (r *GormScheduleRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return exception.NewBatchError(moduleName, "failed to obtain underlying sql.DB", err, false, false)
	}
	return sqlDB.Close()
}

// DB exposes the underlying GORM handle for migrations and exports.
func (r *GormScheduleRepository) DB() *gorm.DB {
	return r.db
}

var _ repository.ScheduleRepository = (*GormScheduleRepository)(nil)
