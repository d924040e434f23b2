package planner

import (
	"context"
	"log"
	"sync"

	"github.com/estuda/plannerd/internal/mirror"
	"github.com/estuda/plannerd/internal/store"
)

// Event is one mirror snapshot fanned out to stream subscribers.
type Event struct {
	Collection string `json:"collection"`
	Docs       any    `json:"docs"`
}

// Session is the mirror set for one signed-in identity: subjects, tasks,
// and checklist items, each kept live by its own synchronizer. Sessions are
// created and torn down by the Hub as identities come and go.
type Session struct {
	owner string

	Subjects  *mirror.Synchronizer[store.Subject]
	Tasks     *mirror.Synchronizer[store.Task]
	Checklist *mirror.Synchronizer[store.ChecklistItem]

	tasksSynced     chan struct{}
	tasksOnce       sync.Once
	checklistSynced chan struct{}
	checklistOnce   sync.Once

	mu       sync.Mutex
	nextID   int
	watchers map[int]chan Event
}

func newSession(st *store.Store, owner string) *Session {
	s := &Session{
		owner:           owner,
		tasksSynced:     make(chan struct{}),
		checklistSynced: make(chan struct{}),
		watchers:        make(map[int]chan Event),
	}

	s.Subjects = mirror.New(store.CollectionSubjects,
		func(ctx context.Context, owner string) (mirror.Subscription[store.Subject], error) {
			return st.WatchSubjects(ctx, owner), nil
		},
		mirror.WithOnChange[store.Subject](func(docs []store.Subject) {
			s.fanout(Event{Collection: store.CollectionSubjects, Docs: docs})
		}),
	)

	s.Tasks = mirror.New(store.CollectionTasks,
		func(ctx context.Context, owner string) (mirror.Subscription[store.Task], error) {
			return st.WatchTasks(ctx, owner), nil
		},
		mirror.WithOnChange[store.Task](func(docs []store.Task) {
			s.tasksOnce.Do(func() { close(s.tasksSynced) })
			s.fanout(Event{Collection: store.CollectionTasks, Docs: docs})
		}),
	)

	s.Checklist = mirror.New(store.CollectionChecklist,
		func(ctx context.Context, owner string) (mirror.Subscription[store.ChecklistItem], error) {
			return st.WatchChecklist(ctx, owner), nil
		},
		mirror.WithOnChange[store.ChecklistItem](func(docs []store.ChecklistItem) {
			s.checklistOnce.Do(func() { close(s.checklistSynced) })
			s.fanout(Event{Collection: store.CollectionChecklist, Docs: docs})
		}),
	)

	return s
}

// Owner returns the identity this session mirrors.
func (s *Session) Owner() string { return s.owner }

func (s *Session) start(ctx context.Context) {
	s.Subjects.Start(ctx, s.owner)
	s.Tasks.Start(ctx, s.owner)
	s.Checklist.Start(ctx, s.owner)
}

func (s *Session) stop() {
	s.Subjects.Stop()
	s.Tasks.Stop()
	s.Checklist.Stop()
}

// WaitTasksSynced blocks until the task mirror has received its first
// snapshot or ctx expires.
func (s *Session) WaitTasksSynced(ctx context.Context) error {
	select {
	case <-s.tasksSynced:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitChecklistSynced blocks until the checklist mirror has received its
// first snapshot or ctx expires.
func (s *Session) WaitChecklistSynced(ctx context.Context) error {
	select {
	case <-s.checklistSynced:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers a watcher receiving every mirror snapshot as it
// lands. The returned cancel func releases the watcher; the channel is
// never closed by the session.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	ch := make(chan Event, 8)
	s.watchers[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, id)
	}
}

func (s *Session) fanout(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- ev:
		default:
			// Slow consumer; it will catch up on the next snapshot since
			// every event carries the full collection.
			log.Printf("[WARN] session %s: dropping %s snapshot for slow watcher", s.owner, ev.Collection)
		}
	}
}
