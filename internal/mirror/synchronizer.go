// Package mirror keeps local in-memory copies of backend collections,
// replaced wholesale on every snapshot notification and scoped to the
// current authenticated identity.
package mirror

import (
	"context"
	"log"
	"sync"
)

// State describes where a synchronizer sits in its lifecycle.
type State int

const (
	// StateIdle means no identity is bound and the mirror is empty.
	StateIdle State = iota
	// StateLoading means a subscription is open but no snapshot has arrived.
	StateLoading
	// StateSynced means the mirror holds the latest delivered snapshot.
	StateSynced
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSynced:
		return "synced"
	default:
		return "unknown"
	}
}

// Subscription is a live feed of full snapshots for one owner's collection.
type Subscription[T any] interface {
	Updates() <-chan []T
	Errors() <-chan error
	Cancel()
}

// OpenFunc opens a subscription scoped to the given owner identity.
type OpenFunc[T any] func(ctx context.Context, owner string) (Subscription[T], error)

// Option configures a Synchronizer.
type Option[T any] func(*Synchronizer[T])

// WithErrorSink routes subscription failures to sink instead of the log.
func WithErrorSink[T any](sink func(error)) Option[T] {
	return func(s *Synchronizer[T]) { s.errSink = sink }
}

// WithOnChange registers a callback invoked with each new mirror snapshot
// (and with nil when the mirror is cleared on sign-out).
func WithOnChange[T any](fn func([]T)) Option[T] {
	return func(s *Synchronizer[T]) { s.onChange = fn }
}

// Synchronizer maintains the mirror of one collection for one identity at a
// time. At most one subscription is active; Start supersedes any previous
// one and Stop is idempotent. The mirror is written only by the snapshot
// consumer; mutation operations go through the store and never touch it.
type Synchronizer[T any] struct {
	name     string
	open     OpenFunc[T]
	errSink  func(error)
	onChange func([]T)

	opMu sync.Mutex // serializes Start/Stop

	mu      sync.Mutex
	mirror  []T
	state   State
	loading bool
	gen     uint64
	active  *activeSub[T]
}

type activeSub[T any] struct {
	sub  Subscription[T]
	stop chan struct{}
}

// New builds a synchronizer for a named collection. name only labels error
// reports.
func New[T any](name string, open OpenFunc[T], opts ...Option[T]) *Synchronizer[T] {
	s := &Synchronizer[T]{
		name: name,
		open: open,
		errSink: func(err error) {
			log.Printf("[ERROR] sync %s: %v", name, err)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the synchronizer to an identity. An empty owner clears the
// mirror and parks the synchronizer in the idle state. A previous
// subscription, if any, is released before the new one opens.
func (s *Synchronizer[T]) Start(ctx context.Context, owner string) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.release()

	s.mu.Lock()
	s.gen++
	gen := s.gen
	if owner == "" {
		s.mirror = nil
		s.state = StateIdle
		s.loading = false
		onChange := s.onChange
		s.mu.Unlock()
		if onChange != nil {
			onChange(nil)
		}
		return
	}
	s.state = StateLoading
	s.loading = true
	s.mu.Unlock()

	sub, err := s.open(ctx, owner)
	if err != nil {
		s.mu.Lock()
		if gen == s.gen {
			s.loading = false
		}
		s.mu.Unlock()
		s.errSink(err)
		return
	}

	s.mu.Lock()
	if gen != s.gen {
		// Superseded while the subscription was opening.
		s.mu.Unlock()
		sub.Cancel()
		return
	}
	a := &activeSub[T]{sub: sub, stop: make(chan struct{})}
	s.active = a
	s.mu.Unlock()

	go s.consume(gen, a)
}

// Stop releases the active subscription, if any. Safe to call repeatedly;
// once it returns, no further snapshot from the released subscription can
// reach the mirror, even one already in flight.
func (s *Synchronizer[T]) Stop() {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.release()
}

func (s *Synchronizer[T]) release() {
	s.mu.Lock()
	a := s.active
	s.active = nil
	if a != nil {
		s.gen++
	}
	s.mu.Unlock()

	if a != nil {
		a.sub.Cancel()
		close(a.stop)
	}
}

func (s *Synchronizer[T]) consume(gen uint64, a *activeSub[T]) {
	for {
		select {
		case <-a.stop:
			return
		case docs, ok := <-a.sub.Updates():
			if !ok {
				return
			}
			if !s.apply(gen, docs) {
				return
			}
		case err, ok := <-a.sub.Errors():
			if !ok {
				return
			}
			s.fail(gen, err)
		}
	}
}

// apply installs a snapshot if the generation is still current. Returns
// false when the subscription has been superseded.
func (s *Synchronizer[T]) apply(gen uint64, docs []T) bool {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return false
	}
	s.mirror = docs
	s.state = StateSynced
	s.loading = false
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(docs)
	}
	return true
}

// fail reports a subscription error. The mirror keeps its last known good
// snapshot; only the loading flag is cleared.
func (s *Synchronizer[T]) fail(gen uint64, err error) {
	s.mu.Lock()
	if gen == s.gen {
		s.loading = false
	}
	s.mu.Unlock()
	s.errSink(err)
}

// Mirror returns a copy of the current snapshot.
func (s *Synchronizer[T]) Mirror() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.mirror))
	copy(out, s.mirror)
	return out
}

// Find returns the first mirrored document matching the predicate.
func (s *Synchronizer[T]) Find(match func(T) bool) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.mirror {
		if match(doc) {
			return doc, true
		}
	}
	var zero T
	return zero, false
}

// State reports the lifecycle state.
func (s *Synchronizer[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loading reports whether a snapshot is still pending for the bound identity.
func (s *Synchronizer[T]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}
