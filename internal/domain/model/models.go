// Package model defines the core domain entities of the escala application:
// duty assignments, service days, roles, and the execution metadata tracked
// for each generation run.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies the duty a deacon is assigned for a service.
type Role string

const (
	// RoleKey is the key holder duty ("chave").
	RoleKey Role = "chave"
	// RoleOffering is the offering collector duty ("oferta").
	RoleOffering Role = "oferta"
)

// ServiceDay names a weekday with a scheduled service.
type ServiceDay string

const (
	DaySunday    ServiceDay = "domingo"
	DayWednesday ServiceDay = "quarta"
	DaySaturday  ServiceDay = "sabado"
)

// ServiceDays lists the scheduled days in rendering order.
var ServiceDays = []ServiceDay{DaySunday, DayWednesday, DaySaturday}

// Weekday returns the time.Weekday corresponding to the service day.
func (d ServiceDay) Weekday() time.Weekday {
	switch d {
	case DaySunday:
		return time.Sunday
	case DayWednesday:
		return time.Wednesday
	case DaySaturday:
		return time.Saturday
	}
	return time.Sunday
}

// ServiceDayOf maps a weekday to its service day. The second return value is
// false for weekdays without a service.
func ServiceDayOf(wd time.Weekday) (ServiceDay, bool) {
	switch wd {
	case time.Sunday:
		return DaySunday, true
	case time.Wednesday:
		return DayWednesday, true
	case time.Saturday:
		return DaySaturday, true
	}
	return "", false
}

// Assignment represents one deacon assigned to one duty on a service day.
// Date is nil for schedules generated in weekly (undated) mode.
type Assignment struct {
	Name string
	Role Role
	Day  ServiceDay
	Date *time.Time
}

// Schedule is an ordered list of assignments.
type Schedule []Assignment

// ByDay groups the schedule's assignments by service day, preserving order.
func (s Schedule) ByDay() map[ServiceDay][]Assignment {
	grouped := make(map[ServiceDay][]Assignment, len(ServiceDays))
	for _, day := range ServiceDays {
		grouped[day] = []Assignment{}
	}
	for _, a := range s {
		grouped[a.Day] = append(grouped[a.Day], a)
	}
	return grouped
}

// ByRole groups the schedule's assignments by role, preserving order.
func (s Schedule) ByRole() map[Role][]Assignment {
	grouped := map[Role][]Assignment{
		RoleKey:      {},
		RoleOffering: {},
	}
	for _, a := range s {
		grouped[a.Role] = append(grouped[a.Role], a)
	}
	return grouped
}

// JobStatus represents the lifecycle state of a generation execution.
type JobStatus string

const (
	BatchStatusStarting  JobStatus = "STARTING"
	BatchStatusStarted   JobStatus = "STARTED"
	BatchStatusStopping  JobStatus = "STOPPING"
	BatchStatusStopped   JobStatus = "STOPPED"
	BatchStatusCompleted JobStatus = "COMPLETED"
	BatchStatusFailed    JobStatus = "FAILED"
)

// String returns the string representation of the status.
func (s JobStatus) String() string { return string(s) }

// IsFinished reports whether the status is terminal.
func (s JobStatus) IsFinished() bool {
	switch s {
	case BatchStatusCompleted, BatchStatusFailed, BatchStatusStopped:
		return true
	}
	return false
}

// validTransitions enumerates the legal status transitions.
var validTransitions = map[JobStatus][]JobStatus{
	BatchStatusStarting: {BatchStatusStarted, BatchStatusFailed, BatchStatusStopping},
	BatchStatusStarted:  {BatchStatusCompleted, BatchStatusFailed, BatchStatusStopping},
	BatchStatusStopping: {BatchStatusStopped, BatchStatusFailed},
}

// ExitStatus is a coarse-grained result code reported alongside the status.
type ExitStatus string

const (
	ExitStatusUnknown   ExitStatus = "UNKNOWN"
	ExitStatusCompleted ExitStatus = "COMPLETED"
	ExitStatusFailed    ExitStatus = "FAILED"
	ExitStatusStopped   ExitStatus = "STOPPED"
)

// ExecutionContext is a mutable key-value store checkpointed with an
// execution so interrupted runs can resume.
type ExecutionContext map[string]interface{}

// NewExecutionContext creates an empty ExecutionContext.
func NewExecutionContext() ExecutionContext {
	return make(ExecutionContext)
}

// Put stores a value under the given key.
func (ec ExecutionContext) Put(key string, value interface{}) {
	ec[key] = value
}

// Get retrieves the value stored under the given key.
func (ec ExecutionContext) Get(key string) (interface{}, bool) {
	v, ok := ec[key]
	return v, ok
}

// GetInt retrieves an int value. JSON round trips store numbers as float64,
// so both representations are accepted.
func (ec ExecutionContext) GetInt(key string) (int, bool) {
	v, ok := ec[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// GetString retrieves a string value.
func (ec ExecutionContext) GetString(key string) (string, bool) {
	v, ok := ec[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Remove deletes the value stored under the given key.
func (ec ExecutionContext) Remove(key string) {
	delete(ec, key)
}

// Copy returns a shallow copy of the context.
func (ec ExecutionContext) Copy() ExecutionContext {
	cp := make(ExecutionContext, len(ec))
	for k, v := range ec {
		cp[k] = v
	}
	return cp
}

// FailureList accumulates failure messages recorded during an execution.
type FailureList []string

// Add appends the error's message to the list.
func (f *FailureList) Add(err error) {
	if err == nil {
		return
	}
	*f = append(*f, err.Error())
}

// GenerationExecution tracks a single run of the schedule generation job.
type GenerationExecution struct {
	// ID is the unique identifier of this execution.
	ID string
	// JobName is the configured name of the job.
	JobName string
	// Year is the target year of the generated schedule.
	Year int
	// RosterSize is the number of deacons in the roster at launch.
	RosterSize int
	// Seed is the RNG seed used, if one was configured.
	Seed *int64
	// Status is the current lifecycle status.
	Status JobStatus
	// ExitStatus is the coarse result code.
	ExitStatus ExitStatus
	// StartTime is when the execution transitioned to STARTED.
	StartTime time.Time
	// EndTime is when the execution reached a terminal status.
	EndTime *time.Time
	// CreateTime is when the execution record was created.
	CreateTime time.Time
	// LastUpdated is the time of the most recent state change.
	LastUpdated time.Time
	// WriteCount is the number of assignments persisted.
	WriteCount int
	// Failures holds the messages of errors recorded during the run.
	Failures FailureList
	// ExecutionContext holds checkpoint state for restartable steps.
	ExecutionContext ExecutionContext
	// Version supports optimistic locking in persistent repositories.
	Version int
}

// NewID generates a new unique execution ID.
func NewID() string {
	return uuid.New().String()
}

// NewGenerationExecution creates an execution record in the STARTING state.
func NewGenerationExecution(jobName string, year, rosterSize int, seed *int64) *GenerationExecution {
	now := time.Now()
	return &GenerationExecution{
		ID:               NewID(),
		JobName:          jobName,
		Year:             year,
		RosterSize:       rosterSize,
		Seed:             seed,
		Status:           BatchStatusStarting,
		ExitStatus:       ExitStatusUnknown,
		CreateTime:       now,
		LastUpdated:      now,
		Failures:         FailureList{},
		ExecutionContext: NewExecutionContext(),
	}
}

// TransitionTo moves the execution to a new status, validating the
// transition. Terminal statuses also set EndTime and the exit status.
func (e *GenerationExecution) TransitionTo(next JobStatus) error {
	allowed := validTransitions[e.Status]
	legal := false
	for _, s := range allowed {
		if s == next {
			legal = true
			break
		}
	}
	if !legal {
		return fmt.Errorf("invalid status transition from %s to %s", e.Status, next)
	}

	now := time.Now()
	e.Status = next
	e.LastUpdated = now

	switch next {
	case BatchStatusStarted:
		e.StartTime = now
	case BatchStatusCompleted:
		e.EndTime = &now
		e.ExitStatus = ExitStatusCompleted
	case BatchStatusFailed:
		e.EndTime = &now
		e.ExitStatus = ExitStatusFailed
	case BatchStatusStopped:
		e.EndTime = &now
		e.ExitStatus = ExitStatusStopped
	}
	return nil
}

// AddFailureException records an error against this execution.
func (e *GenerationExecution) AddFailureException(err error) {
	e.Failures.Add(err)
	e.LastUpdated = time.Now()
}

// Duration returns the elapsed time of the execution, or zero if it has not
// finished.
func (e *GenerationExecution) Duration() time.Duration {
	if e.EndTime == nil || e.StartTime.IsZero() {
		return 0
	}
	return e.EndTime.Sub(e.StartTime)
}
