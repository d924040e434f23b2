package calendar

import "github.com/estuda/plannerd/internal/store"

// DateKey identifies one calendar day. Month is zero-based like the task
// documents themselves.
type DateKey struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// EventCounts indexes a task mirror by date. Rebuilt from scratch on every
// mirror change; a linear scan is fine at personal-planner scale.
func EventCounts(tasks []store.Task) map[DateKey]int {
	counts := make(map[DateKey]int, len(tasks))
	for _, t := range tasks {
		counts[DateKey{Year: t.Year, Month: t.Month, Day: t.Day}]++
	}
	return counts
}

// TasksOn filters a task mirror down to one day.
func TasksOn(tasks []store.Task, year, month, day int) []store.Task {
	var out []store.Task
	for _, t := range tasks {
		if t.Year == year && t.Month == month && t.Day == day {
			out = append(out, t)
		}
	}
	return out
}

// TasksInMonth filters a task mirror down to one month.
func TasksInMonth(tasks []store.Task, year, month int) []store.Task {
	var out []store.Task
	for _, t := range tasks {
		if t.Year == year && t.Month == month {
			out = append(out, t)
		}
	}
	return out
}
