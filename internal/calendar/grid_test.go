package calendar

import (
	"testing"
	"time"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month int
		want  int
	}{
		{"january", 2025, 0, 31},
		{"april", 2025, 3, 30},
		{"february common year", 2025, 1, 28},
		{"february leap year", 2024, 1, 29},
		{"february century non-leap", 1900, 1, 28},
		{"february 400-year leap", 2000, 1, 29},
		{"december", 2025, 11, 31},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysInMonth(tc.year, tc.month); got != tc.want {
				t.Errorf("DaysInMonth(%d, %d) = %d, want %d", tc.year, tc.month, got, tc.want)
			}
		})
	}
}

func TestBuildGridShape(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     int
		weekStart WeekStart
		wantLead  int
		wantTotal int
	}{
		// February 2024 starts on a Thursday.
		{"feb 2024 monday first", 2024, 1, MondayFirst, 3, 35},
		{"feb 2024 sunday first", 2024, 1, SundayFirst, 4, 35},
		// June 2025 starts on a Sunday: zero leading cells one way, six the other.
		{"jun 2025 sunday first", 2025, 5, SundayFirst, 0, 35},
		{"jun 2025 monday first", 2025, 5, MondayFirst, 6, 42},
		// September 2025 starts on a Monday.
		{"sep 2025 monday first", 2025, 8, MondayFirst, 0, 35},
		{"sep 2025 sunday first", 2025, 8, SundayFirst, 1, 35},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			grid := BuildGrid(tc.year, tc.month, tc.weekStart)

			if len(grid) != tc.wantTotal {
				t.Fatalf("len(grid) = %d, want %d", len(grid), tc.wantTotal)
			}
			if len(grid)%7 != 0 {
				t.Fatalf("len(grid) = %d, not a multiple of 7", len(grid))
			}

			for i := 0; i < tc.wantLead; i++ {
				if grid[i].InCurrentMonth {
					t.Errorf("cell %d: leading cell flagged as current month", i)
				}
			}

			days := DaysInMonth(tc.year, tc.month)
			for d := 1; d <= days; d++ {
				cell := grid[tc.wantLead+d-1]
				if !cell.InCurrentMonth {
					t.Fatalf("cell %d: day %d not flagged as current month", tc.wantLead+d-1, d)
				}
				if cell.Day != d {
					t.Fatalf("cell %d: day = %d, want %d", tc.wantLead+d-1, cell.Day, d)
				}
			}

			for i := tc.wantLead + days; i < len(grid); i++ {
				if grid[i].InCurrentMonth {
					t.Errorf("cell %d: trailing cell flagged as current month", i)
				}
				if grid[i].Day != i-(tc.wantLead+days)+1 {
					t.Errorf("cell %d: trailing day = %d", i, grid[i].Day)
				}
			}
		})
	}
}

func TestBuildGridDates(t *testing.T) {
	// January 2025 starts on a Wednesday; MondayFirst gives two leading
	// cells from December 2024.
	grid := BuildGrid(2025, 0, MondayFirst)

	if got := grid[0].Date; !got.Equal(time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first cell date = %v", got)
	}
	if got := grid[2].Date; !got.Equal(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first current-month date = %v", got)
	}
	last := grid[len(grid)-1]
	if last.InCurrentMonth {
		t.Error("last cell flagged as current month")
	}
	if last.Date.Month() != time.February || last.Date.Year() != 2025 {
		t.Errorf("last cell date = %v, want a February 2025 day", last.Date)
	}
}

func TestChangeMonth(t *testing.T) {
	tests := []struct {
		name                string
		year, month, delta  int
		wantYear, wantMonth int
	}{
		{"step forward", 2025, 4, 1, 2025, 5},
		{"step back", 2025, 4, -1, 2025, 3},
		{"december wraps forward", 2025, 11, 1, 2026, 0},
		{"january wraps back", 2025, 0, -1, 2024, 11},
		{"large forward", 2025, 10, 15, 2027, 1},
		{"large backward", 2025, 1, -26, 2022, 11},
		{"zero delta", 2025, 6, 0, 2025, 6},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			y, m := ChangeMonth(tc.year, tc.month, tc.delta)
			if y != tc.wantYear || m != tc.wantMonth {
				t.Errorf("ChangeMonth(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tc.year, tc.month, tc.delta, y, m, tc.wantYear, tc.wantMonth)
			}
		})
	}
}

func TestIsPastDate(t *testing.T) {
	now := time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name             string
		year, month, day int
		want             bool
	}{
		{"yesterday", 2025, 5, 14, true},
		{"today", 2025, 5, 15, false},
		{"tomorrow", 2025, 5, 16, false},
		{"last month", 2025, 4, 31, true},
		{"last year", 2024, 5, 15, true},
		{"next year", 2026, 5, 15, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsPastDate(now, tc.year, tc.month, tc.day); got != tc.want {
				t.Errorf("IsPastDate(%d, %d, %d) = %v, want %v", tc.year, tc.month, tc.day, got, tc.want)
			}
		})
	}
}
