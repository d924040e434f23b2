package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	httperr "github.com/estuda/plannerd/internal/http/errors"
	"github.com/estuda/plannerd/internal/planner"
	"github.com/estuda/plannerd/internal/store"
)

const streamKeepalive = 25 * time.Second

// Stream pushes mirror snapshots to the client over server-sent events.
// The client gets the current state of every collection up front, then a
// full replacement snapshot whenever something changes.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httperr.Client(w, http.StatusNotImplemented, "streaming unsupported")
		return
	}

	owner := identity(r)
	sess := h.hub.Acquire(owner)
	defer h.hub.Release(owner)

	events, cancel := sess.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Prime the stream with whatever the mirrors hold right now. A mirror
	// still loading sends an empty snapshot; the live event follows once
	// the first fetch lands.
	writeSSE(w, planner.Event{Collection: store.CollectionSubjects, Docs: sess.Subjects.Mirror()})
	writeSSE(w, planner.Event{Collection: store.CollectionTasks, Docs: sess.Tasks.Mirror()})
	writeSSE(w, planner.Event{Collection: store.CollectionChecklist, Docs: sess.Checklist.Mirror()})
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			if err := writeSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// StreamSubjectChecklist pushes live snapshots of a single subject's
// checklist, backing the subject detail view. Unlike Stream it watches the
// store directly instead of going through the session mirrors, so the
// snapshots carry only the requested subject's items.
func (h *Handler) StreamSubjectChecklist(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httperr.Client(w, http.StatusNotImplemented, "streaming unsupported")
		return
	}

	owner := identity(r)
	subjectID := chi.URLParam(r, "id")
	if _, err := h.st.Subjects.GetByID(r.Context(), owner, subjectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httperr.Client(w, http.StatusNotFound, "not found")
			return
		}
		httperr.Internal(w, r, err, "failed to load subject")
		return
	}

	q := h.st.WatchSubjectChecklist(r.Context(), owner, subjectID)
	defer q.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case docs := <-q.Updates():
			if docs == nil {
				docs = []store.ChecklistItem{}
			}
			if err := writeSSE(w, planner.Event{Collection: store.CollectionChecklist, Docs: docs}); err != nil {
				return
			}
			flusher.Flush()
		case err := <-q.Errors():
			// Headers are out; the client keeps its previous snapshot and
			// the next change hint triggers another fetch.
			httperr.LogWarn(r, "subject checklist refetch failed", err)
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev planner.Event) error {
	data, err := json.Marshal(ev.Docs)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Collection, data)
	return err
}
