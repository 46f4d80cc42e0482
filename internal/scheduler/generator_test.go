package scheduler_test

import (
	"testing"
	"time"

	model "github.com/tigerroll/escala/internal/domain/model"
	"github.com/tigerroll/escala/internal/scheduler"
	"github.com/tigerroll/escala/internal/support/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fullRoster = []string{"João", "Maria", "Pedro", "Ana", "Carlos", "Julia", "Paulo", "Sofia"}

func TestNew_EmptyRoster(t *testing.T) {
	_, err := scheduler.New(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, exception.ErrEmptyRoster)
}

func TestNew_RosterIsCopied(t *testing.T) {
	roster := []string{"João", "Maria", "Pedro", "Ana"}
	g, err := scheduler.New(roster)
	require.NoError(t, err)

	roster[0] = "Zé"
	assert.Equal(t, []string{"João", "Maria", "Pedro", "Ana"}, g.Roster())

	_, err = g.GenerateWeek(true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zé", "Maria", "Pedro", "Ana"}, roster)
}

func TestGenerateWeek_Structure(t *testing.T) {
	g, err := scheduler.New(fullRoster, scheduler.WithSeed(123))
	require.NoError(t, err)

	schedule, err := g.GenerateWeek(true)
	require.NoError(t, err)

	// 7 assignments: 2 (Sunday) + 2 (Wednesday) + 3 (Saturday).
	require.Len(t, schedule, 7)
	for _, a := range schedule {
		assert.Contains(t, fullRoster, a.Name)
		assert.Contains(t, []model.Role{model.RoleKey, model.RoleOffering}, a.Role)
		assert.Contains(t, model.ServiceDays, a.Day)
		assert.Nil(t, a.Date)
	}
}

func TestGenerateWeek_SundayHasKeyAndOffering(t *testing.T) {
	g, err := scheduler.New([]string{"João", "Maria", "Pedro", "Ana", "Carlos", "Julia", "Paulo"}, scheduler.WithSeed(456))
	require.NoError(t, err)

	schedule, err := g.GenerateWeek(true)
	require.NoError(t, err)

	sunday := schedule.ByDay()[model.DaySunday]
	require.Len(t, sunday, 2)

	roles := []model.Role{sunday[0].Role, sunday[1].Role}
	assert.Contains(t, roles, model.RoleKey)
	assert.Contains(t, roles, model.RoleOffering)
}

func TestGenerateWeek_WednesdayHasKeyAndOffering(t *testing.T) {
	g, err := scheduler.New([]string{"João", "Maria", "Pedro", "Ana", "Carlos", "Julia", "Paulo"}, scheduler.WithSeed(789))
	require.NoError(t, err)

	schedule, err := g.GenerateWeek(true)
	require.NoError(t, err)

	wednesday := schedule.ByDay()[model.DayWednesday]
	require.Len(t, wednesday, 2)

	roles := []model.Role{wednesday[0].Role, wednesday[1].Role}
	assert.Contains(t, roles, model.RoleKey)
	assert.Contains(t, roles, model.RoleOffering)
}

func TestGenerateWeek_SaturdayHasOneKeyTwoOfferings(t *testing.T) {
	g, err := scheduler.New([]string{"João", "Maria", "Pedro", "Ana", "Carlos", "Julia", "Paulo"}, scheduler.WithSeed(321))
	require.NoError(t, err)

	schedule, err := g.GenerateWeek(true)
	require.NoError(t, err)

	saturday := schedule.ByDay()[model.DaySaturday]
	require.Len(t, saturday, 3)

	keys, offerings := 0, 0
	for _, a := range saturday {
		switch a.Role {
		case model.RoleKey:
			keys++
		case model.RoleOffering:
			offerings++
		}
	}
	assert.Equal(t, 1, keys)
	assert.Equal(t, 2, offerings)
}

func TestGenerateWeek_AvoidRepeats(t *testing.T) {
	g, err := scheduler.New(fullRoster, scheduler.WithSeed(999))
	require.NoError(t, err)

	schedule, err := g.GenerateWeek(true)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, a := range schedule {
		seen[a.Name]++
	}
	for name, count := range seen {
		assert.Equalf(t, 1, count, "deacon %s drawn %d times in one week", name, count)
	}
}

func TestGenerateWeek_RepeatsAllowed(t *testing.T) {
	// 3 deacons cannot fill 7 assignments without repeating.
	g, err := scheduler.New([]string{"João", "Maria", "Pedro"}, scheduler.WithSeed(111))
	require.NoError(t, err)

	schedule, err := g.GenerateWeek(false)
	require.NoError(t, err)
	require.Len(t, schedule, 7)

	distinct := map[string]struct{}{}
	for _, a := range schedule {
		distinct[a.Name] = struct{}{}
	}
	assert.Less(t, len(distinct), len(schedule))
}

func TestGenerateWeek_PoolExhausted(t *testing.T) {
	// With avoidRepeats, 3 deacons cannot cover 7 draws.
	g, err := scheduler.New([]string{"João", "Maria", "Pedro"}, scheduler.WithSeed(222))
	require.NoError(t, err)

	_, err = g.GenerateWeek(true)
	require.Error(t, err)
	assert.ErrorIs(t, err, exception.ErrNoCandidates)
}

func TestGenerateWeek_GroupByRole(t *testing.T) {
	g, err := scheduler.New(fullRoster, scheduler.WithSeed(333))
	require.NoError(t, err)

	schedule, err := g.GenerateWeek(true)
	require.NoError(t, err)

	byRole := schedule.ByRole()
	// 3 keys (Sunday, Wednesday, Saturday) and 4 offerings (1+1+2).
	assert.Len(t, byRole[model.RoleKey], 3)
	assert.Len(t, byRole[model.RoleOffering], 4)
}

func TestGenerateWeek_IndependentRuns(t *testing.T) {
	g, err := scheduler.New(fullRoster)
	require.NoError(t, err)

	first, err := g.GenerateWeek(true)
	require.NoError(t, err)
	second, err := g.GenerateWeek(true)
	require.NoError(t, err)

	for _, schedule := range []model.Schedule{first, second} {
		require.Len(t, schedule, 7)
		byDay := schedule.ByDay()
		assert.Len(t, byDay[model.DaySunday], 2)
		assert.Len(t, byDay[model.DayWednesday], 2)
		assert.Len(t, byDay[model.DaySaturday], 3)
	}
}

func TestGenerateYear_Counts(t *testing.T) {
	g, err := scheduler.New(fullRoster, scheduler.WithSeed(42))
	require.NoError(t, err)

	schedule, err := g.GenerateYear(2026, time.UTC)
	require.NoError(t, err)

	// 52 of each service day in 2026: Saturdays carry 3 assignments,
	// Sundays and Wednesdays 1 each.
	assert.Len(t, schedule, 52*3+52+52)

	byDay := schedule.ByDay()
	assert.Len(t, byDay[model.DaySaturday], 52*3)
	assert.Len(t, byDay[model.DaySunday], 52)
	assert.Len(t, byDay[model.DayWednesday], 52)

	for _, a := range schedule {
		require.NotNil(t, a.Date)
		assert.Equal(t, 2026, a.Date.Year())
	}
}

func TestGenerateYear_KeyRotationIsCircular(t *testing.T) {
	g, err := scheduler.New(fullRoster, scheduler.WithSeed(42))
	require.NoError(t, err)

	schedule, err := g.GenerateYear(2026, time.UTC)
	require.NoError(t, err)

	// Saturday key holders, in order. Within each full round of len(roster)
	// draws every deacon appears exactly once.
	var keyHolders []string
	for _, a := range schedule {
		if a.Day == model.DaySaturday && a.Role == model.RoleKey {
			keyHolders = append(keyHolders, a.Name)
		}
	}
	require.Len(t, keyHolders, 52)

	for start := 0; start+len(fullRoster) <= len(keyHolders); start += len(fullRoster) {
		round := keyHolders[start : start+len(fullRoster)]
		distinct := map[string]struct{}{}
		for _, name := range round {
			distinct[name] = struct{}{}
		}
		assert.Lenf(t, distinct, len(fullRoster), "rotation round starting at %d repeats a key holder", start)
	}
}

func TestGenerateYear_WeeklyAnchorConsistency(t *testing.T) {
	g, err := scheduler.New(fullRoster, scheduler.WithSeed(42))
	require.NoError(t, err)

	schedule, err := g.GenerateYear(2026, time.UTC)
	require.NoError(t, err)

	saturdayKey := map[time.Time]string{}
	for _, a := range schedule {
		if a.Day == model.DaySaturday && a.Role == model.RoleKey {
			saturdayKey[*a.Date] = a.Name
		}
	}

	for _, a := range schedule {
		if a.Role != model.RoleKey || a.Day == model.DaySaturday {
			continue
		}
		anchor, ok := scheduler.WeekAnchorSaturday(*a.Date)
		require.True(t, ok)
		if holder, found := saturdayKey[anchor]; found {
			assert.Equalf(t, holder, a.Name,
				"%s key holder differs from the anchor Saturday %s", a.Date.Format("2006-01-02"), anchor.Format("2006-01-02"))
		}
	}
}

func TestGenerateYear_SeedReproducibility(t *testing.T) {
	first, err := scheduler.New(fullRoster, scheduler.WithSeed(42))
	require.NoError(t, err)
	second, err := scheduler.New(fullRoster, scheduler.WithSeed(42))
	require.NoError(t, err)

	a, err := first.GenerateYear(2026, time.UTC)
	require.NoError(t, err)
	b, err := second.GenerateYear(2026, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGenerateYear_ConsecutiveCallsAreIndependent(t *testing.T) {
	g, err := scheduler.New(fullRoster, scheduler.WithSeed(42))
	require.NoError(t, err)

	first, err := g.GenerateYear(2026, time.UTC)
	require.NoError(t, err)
	second, err := g.GenerateYear(2026, time.UTC)
	require.NoError(t, err)

	// The rotation state is reset between runs, so both schedules satisfy
	// the same structural properties.
	assert.Len(t, second, len(first))
}

func TestAssignmentsFor_SaturdayStoresWeeklyKey(t *testing.T) {
	g, err := scheduler.New(fullRoster, scheduler.WithSeed(7))
	require.NoError(t, err)

	saturday := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	satAssignments, err := g.AssignmentsFor(scheduler.ServiceDate{Date: saturday, Day: model.DaySaturday})
	require.NoError(t, err)
	require.Len(t, satAssignments, 3)
	keyHolder := satAssignments[0].Name
	assert.Equal(t, model.RoleKey, satAssignments[0].Role)

	sunday := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	sunAssignments, err := g.AssignmentsFor(scheduler.ServiceDate{Date: sunday, Day: model.DaySunday})
	require.NoError(t, err)
	require.Len(t, sunAssignments, 1)
	assert.Equal(t, keyHolder, sunAssignments[0].Name)

	wednesday := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	wedAssignments, err := g.AssignmentsFor(scheduler.ServiceDate{Date: wednesday, Day: model.DayWednesday})
	require.NoError(t, err)
	require.Len(t, wedAssignments, 1)
	assert.Equal(t, keyHolder, wedAssignments[0].Name)
}

func TestAssignmentsFor_MissingAnchorFallsBackToRotation(t *testing.T) {
	g, err := scheduler.New(fullRoster, scheduler.WithSeed(7))
	require.NoError(t, err)

	// A Sunday fed without its preceding Saturday (year boundary).
	sunday := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	assignments, err := g.AssignmentsFor(scheduler.ServiceDate{Date: sunday, Day: model.DaySunday})
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, model.RoleKey, assignments[0].Role)
	assert.Contains(t, fullRoster, assignments[0].Name)
}
