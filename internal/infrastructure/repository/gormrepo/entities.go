// Package gormrepo provides a GORM-backed implementation of the
// ScheduleRepository interface, supporting SQLite, MySQL and PostgreSQL.
package gormrepo

import (
	"time"

	model "github.com/tigerroll/escala/internal/domain/model"
	"github.com/tigerroll/escala/internal/support/serialization"
)

// AssignmentRecord is the persisted form of a duty assignment.
type AssignmentRecord struct {
	ID          uint       `gorm:"primaryKey;autoIncrement"`
	ExecutionID string     `gorm:"size:36;index"`
	Name        string     `gorm:"size:255;not null"`
	Role        string     `gorm:"size:16;not null"`
	Day         string     `gorm:"size:16;not null"`
	Date        *time.Time `gorm:"index"`
}

// TableName returns the table name for assignment records.
func (AssignmentRecord) TableName() string {
	return "assignments"
}

// yearStart returns midnight UTC of January 1st of the given year.
func yearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// ExecutionRecord is the persisted form of a generation execution.
type ExecutionRecord struct {
	ID               string `gorm:"primaryKey;size:36"`
	JobName          string `gorm:"size:255;not null"`
	Year             int    `gorm:"not null"`
	RosterSize       int    `gorm:"not null"`
	Seed             *int64
	Status           string `gorm:"size:16;not null"`
	ExitStatus       string `gorm:"size:16;not null"`
	StartTime        time.Time
	EndTime          *time.Time
	CreateTime       time.Time `gorm:"not null"`
	LastUpdated      time.Time `gorm:"not null"`
	WriteCount       int
	Failures         []byte
	ExecutionContext []byte
	Version          int `gorm:"not null;default:0"`
}

// TableName returns the table name for execution records.
func (ExecutionRecord) TableName() string {
	return "generation_executions"
}

// toAssignmentRecord converts a domain assignment for persistence.
func toAssignmentRecord(executionID string, a model.Assignment) AssignmentRecord {
	return AssignmentRecord{
		ExecutionID: executionID,
		Name:        a.Name,
		Role:        string(a.Role),
		Day:         string(a.Day),
		Date:        a.Date,
	}
}

// toAssignment converts a persisted record back to the domain form.
func toAssignment(rec AssignmentRecord) model.Assignment {
	return model.Assignment{
		Name: rec.Name,
		Role: model.Role(rec.Role),
		Day:  model.ServiceDay(rec.Day),
		Date: rec.Date,
	}
}

// toExecutionRecord converts a domain execution for persistence.
func toExecutionRecord(e *model.GenerationExecution) (ExecutionRecord, error) {
	failures, err := serialization.MarshalFailureList(e.Failures)
	if err != nil {
		return ExecutionRecord{}, err
	}
	ec, err := serialization.MarshalExecutionContext(e.ExecutionContext)
	if err != nil {
		return ExecutionRecord{}, err
	}

	return ExecutionRecord{
		ID:               e.ID,
		JobName:          e.JobName,
		Year:             e.Year,
		RosterSize:       e.RosterSize,
		Seed:             e.Seed,
		Status:           e.Status.String(),
		ExitStatus:       string(e.ExitStatus),
		StartTime:        e.StartTime,
		EndTime:          e.EndTime,
		CreateTime:       e.CreateTime,
		LastUpdated:      e.LastUpdated,
		WriteCount:       e.WriteCount,
		Failures:         failures,
		ExecutionContext: ec,
		Version:          e.Version,
	}, nil
}

// toExecution converts a persisted record back to the domain form.
func toExecution(rec ExecutionRecord) (*model.GenerationExecution, error) {
	var failures []string
	if err := serialization.UnmarshalFailureList(rec.Failures, &failures); err != nil {
		return nil, err
	}
	var ec map[string]interface{}
	if err := serialization.UnmarshalExecutionContext(rec.ExecutionContext, &ec); err != nil {
		return nil, err
	}

	return &model.GenerationExecution{
		ID:               rec.ID,
		JobName:          rec.JobName,
		Year:             rec.Year,
		RosterSize:       rec.RosterSize,
		Seed:             rec.Seed,
		Status:           model.JobStatus(rec.Status),
		ExitStatus:       model.ExitStatus(rec.ExitStatus),
		StartTime:        rec.StartTime,
		EndTime:          rec.EndTime,
		CreateTime:       rec.CreateTime,
		LastUpdated:      rec.LastUpdated,
		WriteCount:       rec.WriteCount,
		Failures:         failures,
		ExecutionContext: ec,
		Version:          rec.Version,
	}, nil
}
