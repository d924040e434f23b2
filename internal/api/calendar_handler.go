package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/estuda/plannerd/internal/calendar"
	httperr "github.com/estuda/plannerd/internal/http/errors"
)

type gridCell struct {
	Day            int       `json:"day"`
	InCurrentMonth bool      `json:"inCurrentMonth"`
	Date           time.Time `json:"date"`
	EventCount     int       `json:"eventCount"`
	IsPast         bool      `json:"isPast"`
}

// MonthGrid renders the 7-wide month grid with per-day event counts drawn
// from the identity's tasks. month is zero-based in the path, matching the
// task documents. weekStart defaults to monday; pass ?weekStart=sunday for
// the other convention.
func (h *Handler) MonthGrid(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		httperr.Client(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 0 || month > 11 {
		httperr.Client(w, http.StatusBadRequest, "invalid month (expected 0-11)")
		return
	}

	weekStart := calendar.MondayFirst
	switch r.URL.Query().Get("weekStart") {
	case "", "monday":
	case "sunday":
		weekStart = calendar.SundayFirst
	default:
		httperr.Client(w, http.StatusBadRequest, "invalid weekStart (expected sunday or monday)")
		return
	}

	tasks, err := h.st.Tasks.ListByOwner(r.Context(), identity(r))
	if err != nil {
		httperr.Internal(w, r, err, "failed to load tasks")
		return
	}

	counts := calendar.EventCounts(tasks)
	now := time.Now()

	cells := calendar.BuildGrid(year, month, weekStart)
	out := make([]gridCell, len(cells))
	for i, c := range cells {
		d := c.Date
		out[i] = gridCell{
			Day:            c.Day,
			InCurrentMonth: c.InCurrentMonth,
			Date:           d,
			EventCount:     counts[calendar.DateKey{Year: d.Year(), Month: int(d.Month()) - 1, Day: d.Day()}],
			IsPast:         calendar.IsPastDate(now, d.Year(), int(d.Month())-1, d.Day()),
		}
	}

	countsByKey := make(map[string]int, len(counts))
	for k, n := range counts {
		countsByKey[fmt.Sprintf("%d-%d-%d", k.Year, k.Month, k.Day)] = n
	}

	httperr.JSON(w, http.StatusOK, map[string]any{
		"year":   year,
		"month":  month,
		"cells":  out,
		"counts": countsByKey,
	})
}

// DayTasks lists the identity's tasks on one day.
func (h *Handler) DayTasks(w http.ResponseWriter, r *http.Request) {
	year, err1 := strconv.Atoi(chi.URLParam(r, "year"))
	month, err2 := strconv.Atoi(chi.URLParam(r, "month"))
	day, err3 := strconv.Atoi(chi.URLParam(r, "day"))
	if err1 != nil || err2 != nil || err3 != nil {
		httperr.Client(w, http.StatusBadRequest, "invalid date")
		return
	}

	tasks, err := h.st.Tasks.ListByOwner(r.Context(), identity(r))
	if err != nil {
		httperr.Internal(w, r, err, "failed to load tasks")
		return
	}

	day0 := calendar.TasksOn(tasks, year, month, day)
	httperr.JSON(w, http.StatusOK, map[string]any{
		"tasks":  day0,
		"isPast": calendar.IsPastDate(time.Now(), year, month, day),
	})
}
