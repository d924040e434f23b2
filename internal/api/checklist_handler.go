package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	httperr "github.com/estuda/plannerd/internal/http/errors"
	"github.com/estuda/plannerd/internal/planner"
	"github.com/estuda/plannerd/internal/store"
)

// ListChecklist returns one subject's checklist items.
func (h *Handler) ListChecklist(w http.ResponseWriter, r *http.Request) {
	items, err := h.st.Checklist.ListBySubject(r.Context(), identity(r), chi.URLParam(r, "id"))
	if err != nil {
		httperr.Internal(w, r, err, "failed to load checklist")
		return
	}
	if items == nil {
		items = []store.ChecklistItem{}
	}
	httperr.JSON(w, http.StatusOK, items)
}

// CreateChecklistItem adds an item to a subject and recomputes its progress.
func (h *Handler) CreateChecklistItem(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Label string `json:"label"`
	}
	if err := h.decode(w, r, &in); err != nil {
		httperr.Client(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.svc.AddChecklistItem(r.Context(), identity(r), planner.ChecklistInput{
		SubjectID: chi.URLParam(r, "id"),
		Label:     in.Label,
	})
	if err != nil {
		writeDomainError(w, r, err, "failed to create checklist item")
		return
	}
	httperr.JSON(w, http.StatusCreated, item)
}

// ToggleChecklistItem flips an item's done flag via the identity's mirror
// and recomputes the subject's progress.
func (h *Handler) ToggleChecklistItem(w http.ResponseWriter, r *http.Request) {
	owner := identity(r)
	sess := h.hub.Acquire(owner)
	defer h.hub.Release(owner)

	waitCtx, cancel := context.WithTimeout(r.Context(), syncWait)
	defer cancel()
	if err := sess.WaitChecklistSynced(waitCtx); err != nil {
		httperr.Client(w, http.StatusServiceUnavailable, "mirror not synced yet")
		return
	}

	if err := h.svc.ToggleChecklistItem(r.Context(), sess, chi.URLParam(r, "itemId")); err != nil {
		writeDomainError(w, r, err, "failed to toggle checklist item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteChecklistItem removes an item and recomputes the subject's progress.
func (h *Handler) DeleteChecklistItem(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteChecklistItem(r.Context(), identity(r), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"))
	if err != nil {
		writeDomainError(w, r, err, "failed to delete checklist item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
