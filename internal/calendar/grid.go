// Package calendar holds the pure date math behind the month grid: no
// store access, no clock access beyond what callers pass in.
package calendar

import "time"

// WeekStart selects which weekday occupies the grid's first column. The
// mobile client historically used both conventions on different screens, so
// the grid takes it as an explicit parameter instead of guessing.
type WeekStart int

const (
	SundayFirst WeekStart = iota
	MondayFirst
)

// Cell is one day entry in the 7-wide month grid.
type Cell struct {
	Day            int       `json:"day"`
	InCurrentMonth bool      `json:"inCurrentMonth"`
	Date           time.Time `json:"date"`
}

// DaysInMonth returns the day count of the given month. month is zero-based
// (0 = January), matching the task document encoding.
func DaysInMonth(year, month int) int {
	// Day 0 of the following month normalizes to this month's last day.
	return time.Date(year, time.Month(month+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

// BuildGrid maps (year, month) onto a sequence of cells spanning the
// previous, current, and next month. The result length is always a multiple
// of 7: leading cells come from the tail of the previous month (as many as
// day 1's weekday index under the chosen convention), then days
// 1..DaysInMonth flagged InCurrentMonth, then days from the next month
// until the final week is full.
func BuildGrid(year, month int, weekStart WeekStart) []Cell {
	first := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	days := DaysInMonth(year, month)

	lead := int(first.Weekday())
	if weekStart == MondayFirst {
		lead = (lead + 6) % 7
	}

	prevDays := time.Date(year, time.Month(month+1), 0, 0, 0, 0, 0, time.UTC).Day()

	grid := make([]Cell, 0, lead+days+6)

	for i := lead - 1; i >= 0; i-- {
		dayNum := prevDays - i
		grid = append(grid, Cell{
			Day:  dayNum,
			Date: time.Date(year, time.Month(month), dayNum, 0, 0, 0, 0, time.UTC),
		})
	}

	for d := 1; d <= days; d++ {
		grid = append(grid, Cell{
			Day:            d,
			InCurrentMonth: true,
			Date:           time.Date(year, time.Month(month+1), d, 0, 0, 0, 0, time.UTC),
		})
	}

	for nextDay := 1; len(grid)%7 != 0; nextDay++ {
		grid = append(grid, Cell{
			Day:  nextDay,
			Date: time.Date(year, time.Month(month+2), nextDay, 0, 0, 0, 0, time.UTC),
		})
	}

	return grid
}

// ChangeMonth steps the displayed month by delta, wrapping across year
// boundaries (December -> January and back).
func ChangeMonth(year, month, delta int) (int, int) {
	m := month + delta
	for m < 0 {
		m += 12
		year--
	}
	for m > 11 {
		m -= 12
		year++
	}
	return year, m
}

// IsPastDate reports whether the given date lies strictly before today as
// seen from now: the date's end of day is compared against now's start of
// day, so today is never past.
func IsPastDate(now time.Time, year, month, day int) bool {
	endOfDay := time.Date(year, time.Month(month+1), day, 23, 59, 59, int(999*time.Millisecond), now.Location())
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return endOfDay.Before(todayStart)
}
