package planner

import (
	"context"
	"sync"
	"time"

	"github.com/estuda/plannerd/internal/store"
)

// idleLinger keeps a session's subscriptions warm briefly after its last
// reference drops, so request-scoped acquires (toggle, calendar reads)
// don't churn live queries.
const idleLinger = 60 * time.Second

// Hub owns one Session per signed-in identity, refcounted across stream
// connections and request-scoped uses. The hub is the sole caller of the
// synchronizers' Start/Stop: an identity appearing starts its mirrors, the
// last release (plus linger) stops them.
type Hub struct {
	store *store.Store

	// ctx bounds the lifetime of every session's subscriptions; sessions
	// must outlive the requests that acquire them, so this is the process
	// context, not a request context.
	ctx context.Context

	mu      sync.Mutex
	entries map[string]*hubEntry
}

type hubEntry struct {
	sess  *Session
	refs  int
	timer *time.Timer
}

func NewHub(ctx context.Context, st *store.Store) *Hub {
	return &Hub{
		store:   st,
		ctx:     ctx,
		entries: make(map[string]*hubEntry),
	}
}

// Acquire returns the identity's session, creating and starting it on first
// use. Every Acquire must be paired with a Release.
func (h *Hub) Acquire(owner string) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.entries[owner]
	if !ok {
		e = &hubEntry{sess: newSession(h.store, owner)}
		h.entries[owner] = e
		e.sess.start(h.ctx)
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.refs++
	return e.sess
}

// Release drops one reference. When the last reference goes, the session
// lingers briefly and is then stopped and discarded.
func (h *Hub) Release(owner string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.entries[owner]
	if !ok {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}

	e.timer = time.AfterFunc(idleLinger, func() {
		h.mu.Lock()
		current, ok := h.entries[owner]
		if !ok || current != e || current.refs > 0 {
			h.mu.Unlock()
			return
		}
		delete(h.entries, owner)
		h.mu.Unlock()
		e.sess.stop()
	})
}

// SignOut tears the identity's session down immediately, superseding any
// linger. Active stream watchers simply stop receiving events.
func (h *Hub) SignOut(owner string) {
	h.mu.Lock()
	e, ok := h.entries[owner]
	if ok {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(h.entries, owner)
	}
	h.mu.Unlock()
	if ok {
		e.sess.stop()
	}
}
