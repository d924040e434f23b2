package planner

import (
	"context"
	"fmt"
	"sync"

	"github.com/estuda/plannerd/internal/store"
)

// fakeData is an in-memory document set shared by the fake repositories.
// Mutations do not announce change hints; tests that need a synced mirror
// seed the data before starting the session so the priming fetch sees it.
type fakeData struct {
	mu       sync.Mutex
	nextID   int
	subjects map[string]store.Subject
	tasks    map[string]store.Task
	items    map[string]store.ChecklistItem
}

func newFakeData() *fakeData {
	return &fakeData{
		subjects: make(map[string]store.Subject),
		tasks:    make(map[string]store.Task),
		items:    make(map[string]store.ChecklistItem),
	}
}

func (d *fakeData) id() string {
	d.nextID++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", d.nextID)
}

func (d *fakeData) subject(id string) (store.Subject, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.subjects[id]
	return s, ok
}

func (d *fakeData) task(id string) (store.Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tasks[id]
	return t, ok
}

func (d *fakeData) item(id string) (store.ChecklistItem, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i, ok := d.items[id]
	return i, ok
}

func newTestStore(d *fakeData) *store.Store {
	st := store.New(nil)
	st.Subjects = &fakeSubjects{d: d}
	st.Tasks = &fakeTasks{d: d}
	st.Checklist = &fakeChecklist{d: d}
	return st
}

type fakeSubjects struct{ d *fakeData }

func (f *fakeSubjects) ListByOwner(ctx context.Context, ownerID string) ([]store.Subject, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	var out []store.Subject
	for _, s := range f.d.subjects {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubjects) GetByID(ctx context.Context, ownerID, id string) (*store.Subject, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	s, ok := f.d.subjects[id]
	if !ok || s.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSubjects) Create(ctx context.Context, s store.Subject) (*store.Subject, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	s.ID = f.d.id()
	f.d.subjects[s.ID] = s
	return &s, nil
}

func (f *fakeSubjects) Update(ctx context.Context, s store.Subject) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	old, ok := f.d.subjects[s.ID]
	if !ok || old.OwnerID != s.OwnerID {
		return store.ErrNotFound
	}
	f.d.subjects[s.ID] = s
	return nil
}

func (f *fakeSubjects) UpdateProgress(ctx context.Context, ownerID, id string, progress int) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	s, ok := f.d.subjects[id]
	if !ok || s.OwnerID != ownerID {
		return store.ErrNotFound
	}
	s.Progress = progress
	f.d.subjects[id] = s
	return nil
}

func (f *fakeSubjects) Delete(ctx context.Context, ownerID, id string) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	s, ok := f.d.subjects[id]
	if !ok || s.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(f.d.subjects, id)
	return nil
}

type fakeTasks struct{ d *fakeData }

func (f *fakeTasks) ListByOwner(ctx context.Context, ownerID string) ([]store.Task, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	var out []store.Task
	for _, t := range f.d.tasks {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTasks) Create(ctx context.Context, t store.Task) (*store.Task, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	t.ID = f.d.id()
	f.d.tasks[t.ID] = t
	return &t, nil
}

func (f *fakeTasks) Update(ctx context.Context, t store.Task) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	old, ok := f.d.tasks[t.ID]
	if !ok || old.OwnerID != t.OwnerID {
		return store.ErrNotFound
	}
	f.d.tasks[t.ID] = t
	return nil
}

func (f *fakeTasks) SetCompleted(ctx context.Context, ownerID, id string, completed bool) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	t, ok := f.d.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return store.ErrNotFound
	}
	t.Completed = completed
	f.d.tasks[id] = t
	return nil
}

func (f *fakeTasks) Delete(ctx context.Context, ownerID, id string) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	t, ok := f.d.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(f.d.tasks, id)
	return nil
}

type fakeChecklist struct{ d *fakeData }

func (f *fakeChecklist) ListByOwner(ctx context.Context, ownerID string) ([]store.ChecklistItem, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	var out []store.ChecklistItem
	for _, i := range f.d.items {
		if i.OwnerID == ownerID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeChecklist) ListBySubject(ctx context.Context, ownerID, subjectID string) ([]store.ChecklistItem, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	var out []store.ChecklistItem
	for _, i := range f.d.items {
		if i.OwnerID == ownerID && i.SubjectID == subjectID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeChecklist) Create(ctx context.Context, item store.ChecklistItem) (*store.ChecklistItem, error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	item.ID = f.d.id()
	f.d.items[item.ID] = item
	return &item, nil
}

func (f *fakeChecklist) SetDone(ctx context.Context, ownerID, id string, done bool) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	i, ok := f.d.items[id]
	if !ok || i.OwnerID != ownerID {
		return store.ErrNotFound
	}
	i.Done = done
	f.d.items[id] = i
	return nil
}

func (f *fakeChecklist) Delete(ctx context.Context, ownerID, id string) error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	i, ok := f.d.items[id]
	if !ok || i.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(f.d.items, id)
	return nil
}

func (f *fakeChecklist) CountBySubject(ctx context.Context, ownerID, subjectID string) (done, total int, err error) {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	for _, i := range f.d.items {
		if i.OwnerID == ownerID && i.SubjectID == subjectID {
			total++
			if i.Done {
				done++
			}
		}
	}
	return done, total, nil
}
