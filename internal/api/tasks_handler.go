package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	httperr "github.com/estuda/plannerd/internal/http/errors"
	"github.com/estuda/plannerd/internal/planner"
	"github.com/estuda/plannerd/internal/store"
)

// syncWait bounds how long request-scoped operations wait for a freshly
// started mirror to receive its first snapshot.
const syncWait = 3 * time.Second

// ListTasks returns the identity's calendar tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.st.Tasks.ListByOwner(r.Context(), identity(r))
	if err != nil {
		httperr.Internal(w, r, err, "failed to load tasks")
		return
	}
	if tasks == nil {
		tasks = []store.Task{}
	}
	httperr.JSON(w, http.StatusOK, tasks)
}

// CreateTask adds a task; completion always starts false.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in planner.TaskInput
	if err := h.decode(w, r, &in); err != nil {
		httperr.Client(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.svc.AddTask(r.Context(), identity(r), in)
	if err != nil {
		writeDomainError(w, r, err, "failed to create task")
		return
	}
	httperr.JSON(w, http.StatusCreated, task)
}

// UpdateTask overwrites the task's fields.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var in planner.TaskInput
	if err := h.decode(w, r, &in); err != nil {
		httperr.Client(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.UpdateTask(r.Context(), identity(r), chi.URLParam(r, "id"), in); err != nil {
		writeDomainError(w, r, err, "failed to update task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTask removes the task.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTask(r.Context(), identity(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err, "failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleTask flips the task's completed flag, reading the current value
// from the identity's mirror. A task that hasn't reached the mirror yet is
// reported as not found.
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	owner := identity(r)
	sess := h.hub.Acquire(owner)
	defer h.hub.Release(owner)

	waitCtx, cancel := context.WithTimeout(r.Context(), syncWait)
	defer cancel()
	if err := sess.WaitTasksSynced(waitCtx); err != nil {
		httperr.Client(w, http.StatusServiceUnavailable, "mirror not synced yet")
		return
	}

	if err := h.svc.ToggleTaskCompleted(r.Context(), sess, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err, "failed to toggle task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
