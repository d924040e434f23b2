package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/estuda/plannerd/internal/auth"
	"github.com/estuda/plannerd/internal/config"
	"github.com/estuda/plannerd/internal/planner"
	"github.com/estuda/plannerd/internal/store"
)

// memDocs backs the fake repositories with in-memory maps.
type memDocs struct {
	mu       sync.Mutex
	nextID   int
	subjects map[string]store.Subject
	tasks    map[string]store.Task
	items    map[string]store.ChecklistItem

	// When set, task listings block until the channel closes. Lets stream
	// tests hold the first snapshot back until they are ready for it.
	taskFetchGate chan struct{}
}

func newMemDocs() *memDocs {
	return &memDocs{
		subjects: make(map[string]store.Subject),
		tasks:    make(map[string]store.Task),
		items:    make(map[string]store.ChecklistItem),
	}
}

func (d *memDocs) id() string {
	d.nextID++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", d.nextID)
}

type memSubjects struct{ d *memDocs }

func (m *memSubjects) ListByOwner(ctx context.Context, ownerID string) ([]store.Subject, error) {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	var out []store.Subject
	for _, s := range m.d.subjects {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubjects) GetByID(ctx context.Context, ownerID, id string) (*store.Subject, error) {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	s, ok := m.d.subjects[id]
	if !ok || s.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (m *memSubjects) Create(ctx context.Context, s store.Subject) (*store.Subject, error) {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	s.ID = m.d.id()
	m.d.subjects[s.ID] = s
	return &s, nil
}

func (m *memSubjects) Update(ctx context.Context, s store.Subject) error {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	old, ok := m.d.subjects[s.ID]
	if !ok || old.OwnerID != s.OwnerID {
		return store.ErrNotFound
	}
	m.d.subjects[s.ID] = s
	return nil
}

func (m *memSubjects) UpdateProgress(ctx context.Context, ownerID, id string, progress int) error {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	s, ok := m.d.subjects[id]
	if !ok || s.OwnerID != ownerID {
		return store.ErrNotFound
	}
	s.Progress = progress
	m.d.subjects[id] = s
	return nil
}

func (m *memSubjects) Delete(ctx context.Context, ownerID, id string) error {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	s, ok := m.d.subjects[id]
	if !ok || s.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(m.d.subjects, id)
	return nil
}

type memTasks struct{ d *memDocs }

func (m *memTasks) ListByOwner(ctx context.Context, ownerID string) ([]store.Task, error) {
	m.d.mu.Lock()
	gate := m.d.taskFetchGate
	m.d.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	var out []store.Task
	for _, t := range m.d.tasks {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTasks) Create(ctx context.Context, t store.Task) (*store.Task, error) {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	t.ID = m.d.id()
	m.d.tasks[t.ID] = t
	return &t, nil
}

func (m *memTasks) Update(ctx context.Context, t store.Task) error {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	old, ok := m.d.tasks[t.ID]
	if !ok || old.OwnerID != t.OwnerID {
		return store.ErrNotFound
	}
	m.d.tasks[t.ID] = t
	return nil
}

func (m *memTasks) SetCompleted(ctx context.Context, ownerID, id string, completed bool) error {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	t, ok := m.d.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return store.ErrNotFound
	}
	t.Completed = completed
	m.d.tasks[id] = t
	return nil
}

func (m *memTasks) Delete(ctx context.Context, ownerID, id string) error {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	t, ok := m.d.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(m.d.tasks, id)
	return nil
}

type memChecklist struct{ d *memDocs }

func (m *memChecklist) ListByOwner(ctx context.Context, ownerID string) ([]store.ChecklistItem, error) {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	var out []store.ChecklistItem
	for _, i := range m.d.items {
		if i.OwnerID == ownerID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *memChecklist) ListBySubject(ctx context.Context, ownerID, subjectID string) ([]store.ChecklistItem, error) {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	var out []store.ChecklistItem
	for _, i := range m.d.items {
		if i.OwnerID == ownerID && i.SubjectID == subjectID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *memChecklist) Create(ctx context.Context, item store.ChecklistItem) (*store.ChecklistItem, error) {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	item.ID = m.d.id()
	m.d.items[item.ID] = item
	return &item, nil
}

func (m *memChecklist) SetDone(ctx context.Context, ownerID, id string, done bool) error {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	i, ok := m.d.items[id]
	if !ok || i.OwnerID != ownerID {
		return store.ErrNotFound
	}
	i.Done = done
	m.d.items[id] = i
	return nil
}

func (m *memChecklist) Delete(ctx context.Context, ownerID, id string) error {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	i, ok := m.d.items[id]
	if !ok || i.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(m.d.items, id)
	return nil
}

func (m *memChecklist) CountBySubject(ctx context.Context, ownerID, subjectID string) (done, total int, err error) {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	for _, i := range m.d.items {
		if i.OwnerID == ownerID && i.SubjectID == subjectID {
			total++
			if i.Done {
				done++
			}
		}
	}
	return done, total, nil
}

// testEnv wires a handler over the fake store and a router that injects a
// fixed identity, standing in for the auth middleware.
type testEnv struct {
	docs    *memDocs
	handler *Handler
	router  chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	docs := newMemDocs()
	st := store.New(nil)
	st.Subjects = &memSubjects{d: docs}
	st.Tasks = &memTasks{d: docs}
	st.Checklist = &memChecklist{d: docs}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{BaseURL: "http://localhost:8080"}
	h := NewHandler(cfg, st, planner.NewService(st), planner.NewHub(ctx, st), nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			user := &store.User{ID: "alice", Email: "alice@example.com"}
			next.ServeHTTP(w, req.WithContext(auth.WithUser(req.Context(), user)))
		})
	})
	r.Get("/api/subjects", h.ListSubjects)
	r.Post("/api/subjects", h.CreateSubject)
	r.Put("/api/subjects/{id}", h.UpdateSubject)
	r.Delete("/api/subjects/{id}", h.DeleteSubject)
	r.Get("/api/subjects/icons", h.SubjectIcons)
	r.Get("/api/stream", h.Stream)
	r.Get("/api/subjects/{id}/checklist", h.ListChecklist)
	r.Get("/api/subjects/{id}/checklist/stream", h.StreamSubjectChecklist)
	r.Post("/api/subjects/{id}/checklist", h.CreateChecklistItem)
	r.Post("/api/subjects/{id}/checklist/{itemId}/toggle", h.ToggleChecklistItem)
	r.Delete("/api/subjects/{id}/checklist/{itemId}", h.DeleteChecklistItem)
	r.Get("/api/tasks", h.ListTasks)
	r.Post("/api/tasks", h.CreateTask)
	r.Put("/api/tasks/{id}", h.UpdateTask)
	r.Delete("/api/tasks/{id}", h.DeleteTask)
	r.Post("/api/tasks/{id}/toggle", h.ToggleTask)
	r.Get("/api/calendar/{year}/{month}", h.MonthGrid)
	r.Get("/api/calendar/{year}/{month}/{day}", h.DayTasks)

	return &testEnv{docs: docs, handler: h, router: r}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}
