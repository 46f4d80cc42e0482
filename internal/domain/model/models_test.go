package model_test

import (
	"errors"
	"testing"
	"time"

	model "github.com/tigerroll/escala/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func newTestExecution(status model.JobStatus) *model.GenerationExecution {
	e := model.NewGenerationExecution("escalaJob", 2026, 8, nil)
	e.Status = status
	return e
}

func TestGenerationExecution_TransitionTo(t *testing.T) {
	e := newTestExecution(model.BatchStatusStarting)
	assert.NoError(t, e.TransitionTo(model.BatchStatusStarted))
	assert.Equal(t, model.BatchStatusStarted, e.Status)
	assert.False(t, e.StartTime.IsZero())

	// STARTING -> FAILED (setup failed before the job ran)
	e = newTestExecution(model.BatchStatusStarting)
	assert.NoError(t, e.TransitionTo(model.BatchStatusFailed))
	assert.Equal(t, model.ExitStatusFailed, e.ExitStatus)
	assert.NotNil(t, e.EndTime)

	e = newTestExecution(model.BatchStatusStarted)
	assert.NoError(t, e.TransitionTo(model.BatchStatusStopping))
	assert.NoError(t, e.TransitionTo(model.BatchStatusStopped))
	assert.Equal(t, model.ExitStatusStopped, e.ExitStatus)

	e = newTestExecution(model.BatchStatusStarted)
	assert.NoError(t, e.TransitionTo(model.BatchStatusCompleted))
	assert.Equal(t, model.ExitStatusCompleted, e.ExitStatus)

	// Terminal states accept no further transitions.
	err := e.TransitionTo(model.BatchStatusStarted)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status transition")

	// STARTING cannot jump straight to COMPLETED.
	e = newTestExecution(model.BatchStatusStarting)
	assert.Error(t, e.TransitionTo(model.BatchStatusCompleted))
}

func TestJobStatus_IsFinished(t *testing.T) {
	assert.True(t, model.BatchStatusCompleted.IsFinished())
	assert.True(t, model.BatchStatusFailed.IsFinished())
	assert.True(t, model.BatchStatusStopped.IsFinished())
	assert.False(t, model.BatchStatusStarting.IsFinished())
	assert.False(t, model.BatchStatusStarted.IsFinished())
	assert.False(t, model.BatchStatusStopping.IsFinished())
}

func TestGenerationExecution_AddFailureException(t *testing.T) {
	e := newTestExecution(model.BatchStatusStarted)
	e.AddFailureException(errors.New("first"))
	e.AddFailureException(errors.New("second"))
	e.AddFailureException(nil)

	assert.Equal(t, model.FailureList{"first", "second"}, e.Failures)
}

func TestExecutionContext_RoundTrip(t *testing.T) {
	ec := model.NewExecutionContext()
	ec.Put("currentIndex", 42)
	ec.Put("phase", "generation")

	idx, ok := ec.GetInt("currentIndex")
	assert.True(t, ok)
	assert.Equal(t, 42, idx)

	// JSON deserialization stores numbers as float64.
	ec.Put("restoredIndex", float64(7))
	idx, ok = ec.GetInt("restoredIndex")
	assert.True(t, ok)
	assert.Equal(t, 7, idx)

	phase, ok := ec.GetString("phase")
	assert.True(t, ok)
	assert.Equal(t, "generation", phase)

	cp := ec.Copy()
	cp.Put("phase", "export")
	phase, _ = ec.GetString("phase")
	assert.Equal(t, "generation", phase)

	ec.Remove("phase")
	_, ok = ec.Get("phase")
	assert.False(t, ok)
}

func TestSchedule_Grouping(t *testing.T) {
	date := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	s := model.Schedule{
		{Name: "João", Role: model.RoleKey, Day: model.DaySaturday, Date: &date},
		{Name: "Maria", Role: model.RoleOffering, Day: model.DaySaturday, Date: &date},
		{Name: "Pedro", Role: model.RoleOffering, Day: model.DaySaturday, Date: &date},
		{Name: "João", Role: model.RoleKey, Day: model.DaySunday},
	}

	byDay := s.ByDay()
	assert.Len(t, byDay[model.DaySaturday], 3)
	assert.Len(t, byDay[model.DaySunday], 1)
	assert.Empty(t, byDay[model.DayWednesday])

	byRole := s.ByRole()
	assert.Len(t, byRole[model.RoleKey], 2)
	assert.Len(t, byRole[model.RoleOffering], 2)
}

func TestServiceDayOf(t *testing.T) {
	day, ok := model.ServiceDayOf(time.Sunday)
	assert.True(t, ok)
	assert.Equal(t, model.DaySunday, day)

	day, ok = model.ServiceDayOf(time.Wednesday)
	assert.True(t, ok)
	assert.Equal(t, model.DayWednesday, day)

	day, ok = model.ServiceDayOf(time.Saturday)
	assert.True(t, ok)
	assert.Equal(t, model.DaySaturday, day)

	_, ok = model.ServiceDayOf(time.Monday)
	assert.False(t, ok)
}
