package processor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/tigerroll/escala/internal/config"
	model "github.com/tigerroll/escala/internal/domain/model"
	"github.com/tigerroll/escala/internal/metrics"
	"github.com/tigerroll/escala/internal/roster"
	"github.com/tigerroll/escala/internal/scheduler"
	"github.com/tigerroll/escala/internal/step/processor"
)

func newTestProcessor(t *testing.T, seed int64) *processor.AssignmentProcessor {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Escala.Batch.Year = 2026
	cfg.Escala.Batch.Seed = &seed

	r := &roster.Roster{Deacons: []string{
		"João", "Maria", "Pedro", "Ana", "Carlos", "Julia", "Paulo", "Sofia",
	}}
	require.NoError(t, r.Validate())

	p, err := processor.NewAssignmentProcessor(cfg, r, metrics.NewNoopRecorder())
	require.NoError(t, err)
	return p
}

func serviceDate(year int, month time.Month, day int) *scheduler.ServiceDate {
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	sd, ok := model.ServiceDayOf(date.Weekday())
	if !ok {
		panic("not a service date")
	}
	return &scheduler.ServiceDate{Date: date, Day: sd}
}

func TestAssignmentProcessor_SaturdayProducesThreeAssignments(t *testing.T) {
	p := newTestProcessor(t, 42)

	assignments, err := p.Process(context.Background(), serviceDate(2026, time.January, 3))
	require.NoError(t, err)
	require.Len(t, assignments, 3)

	assert.Equal(t, model.RoleKey, assignments[0].Role)
	assert.Equal(t, model.RoleOffering, assignments[1].Role)
	assert.Equal(t, model.RoleOffering, assignments[2].Role)
	for _, a := range assignments {
		assert.Equal(t, model.DaySaturday, a.Day)
		require.NotNil(t, a.Date)
	}
}

func TestAssignmentProcessor_SundayFollowsSaturdayKeyHolder(t *testing.T) {
	p := newTestProcessor(t, 42)
	ctx := context.Background()

	saturday, err := p.Process(ctx, serviceDate(2026, time.January, 3))
	require.NoError(t, err)
	sunday, err := p.Process(ctx, serviceDate(2026, time.January, 4))
	require.NoError(t, err)
	wednesday, err := p.Process(ctx, serviceDate(2026, time.January, 7))
	require.NoError(t, err)

	require.Len(t, sunday, 1)
	require.Len(t, wednesday, 1)
	assert.Equal(t, saturday[0].Name, sunday[0].Name)
	assert.Equal(t, saturday[0].Name, wednesday[0].Name)
	assert.Equal(t, model.RoleKey, sunday[0].Role)
}

func TestAssignmentProcessor_KeyRotationAvoidsRepeats(t *testing.T) {
	p := newTestProcessor(t, 7)
	ctx := context.Background()

	first, err := p.Process(ctx, serviceDate(2026, time.January, 3))
	require.NoError(t, err)
	second, err := p.Process(ctx, serviceDate(2026, time.January, 10))
	require.NoError(t, err)

	assert.NotEqual(t, first[0].Name, second[0].Name, "rotation must not repeat the key holder within a round")
}

func TestAssignmentProcessor_EmptyRosterRejected(t *testing.T) {
	cfg := config.NewConfig()
	r := &roster.Roster{}

	_, err := processor.NewAssignmentProcessor(cfg, r, metrics.NewNoopRecorder())
	assert.Error(t, err)
}
