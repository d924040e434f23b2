package calendar

import (
	"testing"

	"github.com/estuda/plannerd/internal/store"
)

func TestEventCounts(t *testing.T) {
	tasks := []store.Task{
		{ID: "1", Year: 2025, Month: 5, Day: 15},
		{ID: "2", Year: 2025, Month: 5, Day: 15},
		{ID: "3", Year: 2025, Month: 5, Day: 16},
		{ID: "4", Year: 2024, Month: 5, Day: 15},
	}

	counts := EventCounts(tasks)

	if got := counts[DateKey{Year: 2025, Month: 5, Day: 15}]; got != 2 {
		t.Errorf("count for 2025-5-15 = %d, want 2", got)
	}
	if got := counts[DateKey{Year: 2025, Month: 5, Day: 16}]; got != 1 {
		t.Errorf("count for 2025-5-16 = %d, want 1", got)
	}
	if got := counts[DateKey{Year: 2024, Month: 5, Day: 15}]; got != 1 {
		t.Errorf("count for 2024-5-15 = %d, want 1", got)
	}
	if got := counts[DateKey{Year: 2025, Month: 5, Day: 17}]; got != 0 {
		t.Errorf("count for an empty day = %d, want 0", got)
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	if total != len(tasks) {
		t.Errorf("counts sum to %d, want %d", total, len(tasks))
	}

	if got := EventCounts(nil); len(got) != 0 {
		t.Errorf("EventCounts(nil) = %v, want empty", got)
	}
}

func TestTaskFilters(t *testing.T) {
	tasks := []store.Task{
		{ID: "1", Year: 2025, Month: 5, Day: 15},
		{ID: "2", Year: 2025, Month: 5, Day: 16},
		{ID: "3", Year: 2025, Month: 6, Day: 15},
	}

	day := TasksOn(tasks, 2025, 5, 15)
	if len(day) != 1 || day[0].ID != "1" {
		t.Errorf("TasksOn = %v, want task 1 only", day)
	}
	if got := TasksOn(tasks, 2025, 5, 1); got != nil {
		t.Errorf("TasksOn empty day = %v, want nil", got)
	}

	month := TasksInMonth(tasks, 2025, 5)
	if len(month) != 2 {
		t.Errorf("TasksInMonth returned %d tasks, want 2", len(month))
	}
}
