package scheduler_test

import (
	"testing"
	"time"

	model "github.com/tigerroll/escala/internal/domain/model"
	"github.com/tigerroll/escala/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceDatesForYear_OnlyServiceDays(t *testing.T) {
	dates := scheduler.ServiceDatesForYear(2026, nil)
	require.NotEmpty(t, dates)

	for _, sd := range dates {
		wd := sd.Date.Weekday()
		assert.Contains(t, []time.Weekday{time.Sunday, time.Wednesday, time.Saturday}, wd)
		assert.Equal(t, sd.Day.Weekday(), wd)
		assert.Equal(t, 2026, sd.Date.Year())
	}
}

func TestServiceDatesForYear_ChronologicalOrder(t *testing.T) {
	dates := scheduler.ServiceDatesForYear(2026, nil)
	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i-1].Date.Before(dates[i].Date))
	}
}

func TestServiceDatesForYear_Counts(t *testing.T) {
	// 2026 starts on a Thursday and has 365 days: 52 Sundays, 52 Wednesdays
	// and 52 Saturdays.
	dates := scheduler.ServiceDatesForYear(2026, nil)

	counts := map[model.ServiceDay]int{}
	for _, sd := range dates {
		counts[sd.Day]++
	}
	assert.Equal(t, 52, counts[model.DaySunday])
	assert.Equal(t, 52, counts[model.DayWednesday])
	assert.Equal(t, 52, counts[model.DaySaturday])
	assert.Len(t, dates, 156)
}

func TestWeekAnchorSaturday(t *testing.T) {
	// Sunday 2026-01-04 anchors to Saturday 2026-01-03.
	sunday := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	anchor, ok := scheduler.WeekAnchorSaturday(sunday)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), anchor)

	// Wednesday 2026-01-07 anchors to the same Saturday.
	wednesday := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	anchor, ok = scheduler.WeekAnchorSaturday(wednesday)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), anchor)

	// Saturdays and other weekdays have no anchor.
	saturday := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	_, ok = scheduler.WeekAnchorSaturday(saturday)
	assert.False(t, ok)

	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	_, ok = scheduler.WeekAnchorSaturday(monday)
	assert.False(t, ok)
}
