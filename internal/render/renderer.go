// Package render produces the textual representation of a generated schedule.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	model "github.com/tigerroll/escala/internal/domain/model"
)

// EmptyScheduleMessage is returned when rendering a schedule with no
// assignments.
const EmptyScheduleMessage = "Nenhuma escala gerada ainda."

// dayNames maps weekdays to their Portuguese names used in headers.
var dayNames = map[time.Weekday]string{
	time.Monday:    "segunda",
	time.Tuesday:   "terca",
	time.Wednesday: "quarta",
	time.Thursday:  "quinta",
	time.Friday:    "sexta",
	time.Saturday:  "sabado",
	time.Sunday:    "domingo",
}

// Text renders the schedule as text. Dated schedules are grouped
// chronologically by date; undated (weekly) schedules are grouped by service
// day.
func Text(schedule model.Schedule) string {
	if len(schedule) == 0 {
		return EmptyScheduleMessage
	}

	if schedule[0].Date != nil {
		return renderDated(schedule)
	}
	return renderWeekly(schedule)
}

func renderDated(schedule model.Schedule) string {
	byDate := map[time.Time][]model.Assignment{}
	for _, a := range schedule {
		if a.Date == nil {
			continue
		}
		byDate[*a.Date] = append(byDate[*a.Date], a)
	}

	dates := make([]time.Time, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var lines []string
	for _, date := range dates {
		lines = append(lines, fmt.Sprintf("\n%s (%s):", date.Format("02/01/2006"), strings.ToUpper(dayNames[date.Weekday()])))
		for _, a := range byDate[date] {
			lines = append(lines, fmt.Sprintf("  - %s (%s)", a.Name, a.Role))
		}
	}
	return strings.Join(lines, "\n")
}

func renderWeekly(schedule model.Schedule) string {
	byDay := schedule.ByDay()

	var lines []string
	for _, day := range model.ServiceDays {
		assignments := byDay[day]
		if len(assignments) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("\n%s:", strings.ToUpper(string(day))))
		for _, a := range assignments {
			lines = append(lines, fmt.Sprintf("  - %s (%s)", a.Name, a.Role))
		}
	}
	return strings.Join(lines, "\n")
}
