package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httperr "github.com/estuda/plannerd/internal/http/errors"
	"github.com/estuda/plannerd/internal/planner"
	"github.com/estuda/plannerd/internal/store"
)

// ListSubjects returns the identity's subjects.
func (h *Handler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.st.Subjects.ListByOwner(r.Context(), identity(r))
	if err != nil {
		httperr.Internal(w, r, err, "failed to load subjects")
		return
	}
	if subjects == nil {
		subjects = []store.Subject{}
	}
	httperr.JSON(w, http.StatusOK, subjects)
}

// CreateSubject adds a subject owned by the identity.
func (h *Handler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	var in planner.SubjectInput
	if err := h.decode(w, r, &in); err != nil {
		httperr.Client(w, http.StatusBadRequest, "invalid request body")
		return
	}

	subject, err := h.svc.AddSubject(r.Context(), identity(r), in)
	if err != nil {
		writeDomainError(w, r, err, "failed to create subject")
		return
	}
	httperr.JSON(w, http.StatusCreated, subject)
}

// UpdateSubject overwrites the subject's fields.
func (h *Handler) UpdateSubject(w http.ResponseWriter, r *http.Request) {
	var in planner.SubjectInput
	if err := h.decode(w, r, &in); err != nil {
		httperr.Client(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.UpdateSubject(r.Context(), identity(r), chi.URLParam(r, "id"), in); err != nil {
		writeDomainError(w, r, err, "failed to update subject")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSubject removes the subject (checklist items are not cascaded).
func (h *Handler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSubject(r.Context(), identity(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err, "failed to delete subject")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubjectIcons lists the icon vocabulary clients may use.
func (h *Handler) SubjectIcons(w http.ResponseWriter, r *http.Request) {
	httperr.JSON(w, http.StatusOK, planner.SubjectIcons)
}
