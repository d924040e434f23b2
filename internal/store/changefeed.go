package store

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/estuda/plannerd/internal/metrics"
)

// notifyChannel is the Postgres NOTIFY channel carrying change hints.
// Payloads have the form "collection:ownerID".
const notifyChannel = "plannerd_changes"

type notifyFunc func(ctx context.Context, collection, ownerID string)

// Changefeed turns Postgres NOTIFY events into live-query wakeups. Every
// mutation announces (collection, owner); each registered watcher whose key
// matches is poked and refetches a full snapshot of the owner's collection.
//
// Routing change hints through Postgres (rather than an in-process bus)
// keeps snapshots correct when several plannerd instances share a database.
type Changefeed struct {
	pool *pgxpool.Pool

	mu       sync.Mutex
	nextID   int
	watchers map[int]*watcher
}

type watcher struct {
	collection string
	owner      string
	dirty      chan struct{}
}

// poke marks the watcher dirty. The channel holds one pending wakeup;
// bursts of notifications coalesce into a single refetch.
func (w *watcher) poke() {
	select {
	case w.dirty <- struct{}{}:
	default:
	}
}

func NewChangefeed(pool *pgxpool.Pool) *Changefeed {
	return &Changefeed{
		pool:     pool,
		watchers: make(map[int]*watcher),
	}
}

// Run listens for change notifications until ctx is cancelled, reconnecting
// with backoff on listener errors. All watchers are poked after every
// (re)connect so no change observed while disconnected is lost.
func (f *Changefeed) Run(ctx context.Context) error {
	const backoff = 2 * time.Second
	for {
		err := f.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("changefeed: listener error: %v (reconnecting in %s)", err, backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (f *Changefeed) listen(ctx context.Context) error {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}

	f.pokeAll()

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		collection, owner, ok := strings.Cut(n.Payload, ":")
		if !ok {
			continue
		}
		f.broadcast(collection, owner)
	}
}

// Announce publishes a change hint for (collection, owner). Delivery is
// best-effort: a failed NOTIFY leaves subscribers one refetch behind until
// the next change, so the error is logged rather than surfaced.
func (f *Changefeed) Announce(ctx context.Context, collection, ownerID string) {
	if _, err := f.pool.Exec(ctx, "SELECT pg_notify($1, $2)", notifyChannel, collection+":"+ownerID); err != nil {
		log.Printf("changefeed: announce %s/%s: %v", collection, ownerID, err)
	}
}

func (f *Changefeed) broadcast(collection, owner string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.watchers {
		if w.collection == collection && w.owner == owner {
			w.poke()
		}
	}
}

func (f *Changefeed) pokeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.watchers {
		w.poke()
	}
}

func (f *Changefeed) register(collection, owner string) (int, *watcher) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	w := &watcher{
		collection: collection,
		owner:      owner,
		dirty:      make(chan struct{}, 1),
	}
	f.watchers[f.nextID] = w
	return f.nextID, w
}

func (f *Changefeed) unregister(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.watchers, id)
}

// LiveQuery delivers full snapshots of one owner's collection. Each update
// replaces the previous one wholesale; there is no incremental diffing.
type LiveQuery[T any] struct {
	collection string
	updates    chan []T
	errs       chan error
	done       chan struct{}
	cancelOnce sync.Once
	unregister func()
}

// Updates yields complete snapshots. Only the latest snapshot is retained
// when the consumer falls behind.
func (q *LiveQuery[T]) Updates() <-chan []T { return q.updates }

// Errors yields fetch failures. The previous snapshot stays valid.
func (q *LiveQuery[T]) Errors() <-chan error { return q.errs }

// Cancel releases the subscription. It is safe to call any number of times
// and guarantees no further snapshot is delivered once it returns.
func (q *LiveQuery[T]) Cancel() {
	q.cancelOnce.Do(func() {
		q.unregister()
		close(q.done)
		metrics.LiveQueryClosed(q.collection)
	})
}

// Watch opens a live query against (collection, owner). fetch must return
// the complete current set of the owner's documents; it is invoked once
// immediately and then after every matching change hint.
func Watch[T any](ctx context.Context, feed *Changefeed, collection, owner string, fetch func(context.Context) ([]T, error)) *LiveQuery[T] {
	q := &LiveQuery[T]{
		collection: collection,
		updates:    make(chan []T, 1),
		errs:       make(chan error, 1),
		done:       make(chan struct{}),
	}
	id, w := feed.register(collection, owner)
	q.unregister = func() { feed.unregister(id) }
	metrics.LiveQueryOpened(collection)

	w.poke() // prime the initial snapshot
	go q.run(ctx, w.dirty, fetch)
	return q
}

func (q *LiveQuery[T]) run(ctx context.Context, dirty <-chan struct{}, fetch func(context.Context) ([]T, error)) {
	for {
		select {
		case <-q.done:
			return
		case <-ctx.Done():
			q.Cancel()
			return
		case <-dirty:
		}

		docs, err := fetch(ctx)
		if err != nil {
			select {
			case q.errs <- err:
			default:
			}
			continue
		}

		// Latest wins: displace a pending snapshot the consumer has not
		// read yet rather than blocking behind it.
		select {
		case <-q.updates:
		default:
		}
		select {
		case q.updates <- docs:
			metrics.SnapshotDelivered(q.collection)
		case <-q.done:
			return
		case <-ctx.Done():
			q.Cancel()
			return
		}
	}
}
