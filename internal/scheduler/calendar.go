// Package scheduler implements the duty schedule generation: the service
// calendar computation and the seeded rotation/draw of deacons over it.
package scheduler

import (
	"time"

	model "github.com/tigerroll/escala/internal/domain/model"
)

// ServiceDate couples a calendar date with its service day name.
type ServiceDate struct {
	Date time.Time
	Day  model.ServiceDay
}

// ServiceDatesForYear returns every Sunday, Wednesday and Saturday of the
// given year in chronological order. Dates are normalized to midnight in loc
// (UTC when loc is nil).
func ServiceDatesForYear(year int, loc *time.Location) []ServiceDate {
	if loc == nil {
		loc = time.UTC
	}

	var dates []ServiceDate
	current := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, loc)

	for !current.After(end) {
		if day, ok := model.ServiceDayOf(current.Weekday()); ok {
			dates = append(dates, ServiceDate{Date: current, Day: day})
		}
		current = current.AddDate(0, 0, 1)
	}
	return dates
}

// WeekAnchorSaturday returns the Saturday whose key draw governs the given
// service date: the previous day for a Sunday, four days earlier for a
// Wednesday. The second return value is false for any other weekday.
func WeekAnchorSaturday(date time.Time) (time.Time, bool) {
	switch date.Weekday() {
	case time.Sunday:
		return date.AddDate(0, 0, -1), true
	case time.Wednesday:
		return date.AddDate(0, 0, -4), true
	}
	return time.Time{}, false
}
