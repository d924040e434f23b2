package planner

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/estuda/plannerd/internal/store"
)

// SubjectIcons is the fixed icon vocabulary the client renders. The
// SubjectInput oneof tag must stay in step with this list.
var SubjectIcons = []string{
	"book-outline", "calculator-outline", "flask-outline", "globe-outline",
	"language-outline", "musical-notes-outline", "brush-outline",
	"code-slash-outline", "fitness-outline", "library-outline",
}

// SubjectInput carries the caller-settable fields of a subject.
type SubjectInput struct {
	Name        string `json:"name" validate:"required"`
	Icon        string `json:"icon" validate:"required,oneof=book-outline calculator-outline flask-outline globe-outline language-outline musical-notes-outline brush-outline code-slash-outline fitness-outline library-outline"`
	Description string `json:"description"`
	Progress    int    `json:"progress" validate:"min=0,max=100"`
}

// TaskInput carries the caller-settable fields of a calendar task. Day is
// deliberately not checked against Month/Year (day 31 in February is
// accepted), matching the stored document contract.
type TaskInput struct {
	Title     string `json:"title" validate:"required"`
	Day       int    `json:"day" validate:"min=1,max=31"`
	Month     int    `json:"month" validate:"min=0,max=11"`
	Year      int    `json:"year" validate:"required,min=1970,max=9999"`
	Time      string `json:"time" validate:"omitempty,datetime=15:04"`
	Completed bool   `json:"completed"`
}

// ChecklistInput carries the caller-settable fields of a checklist item.
type ChecklistInput struct {
	SubjectID string `json:"subjectId" validate:"required,uuid4"`
	Label     string `json:"label" validate:"required"`
}

// Service implements the mutation operations. Every mutation requires a
// present identity and is fire-and-confirm: it writes to the store and
// returns; the caller's mirror catches up through its subscription, never
// through an optimistic local write.
type Service struct {
	store    *store.Store
	validate *validator.Validate
}

func NewService(st *store.Store) *Service {
	return &Service{
		store:    st,
		validate: validator.New(),
	}
}

func (s *Service) check(input any) error {
	if err := s.validate.Struct(input); err != nil {
		return newValidationError(err)
	}
	return nil
}

// AddSubject creates a subject owned by the identity. Progress starts at
// whatever the caller supplies (the client always passes 0 on create).
func (s *Service) AddSubject(ctx context.Context, owner string, in SubjectInput) (*store.Subject, error) {
	if owner == "" {
		return nil, ErrNotAuthenticated
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	return s.store.Subjects.Create(ctx, store.Subject{
		OwnerID:     owner,
		Name:        in.Name,
		Icon:        in.Icon,
		Description: in.Description,
		Progress:    in.Progress,
	})
}

// UpdateSubject overwrites every caller-settable field of the subject.
func (s *Service) UpdateSubject(ctx context.Context, owner, id string, in SubjectInput) error {
	if owner == "" {
		return ErrNotAuthenticated
	}
	if err := s.check(in); err != nil {
		return err
	}
	return s.store.Subjects.Update(ctx, store.Subject{
		ID:          id,
		OwnerID:     owner,
		Name:        in.Name,
		Icon:        in.Icon,
		Description: in.Description,
		Progress:    in.Progress,
	})
}

// DeleteSubject removes the subject. Its checklist items are left behind
// on purpose; see the schema comment on checklist_items.
func (s *Service) DeleteSubject(ctx context.Context, owner, id string) error {
	if owner == "" {
		return ErrNotAuthenticated
	}
	return s.store.Subjects.Delete(ctx, owner, id)
}

// AddTask creates a task owned by the identity. Completed always starts
// false regardless of input.
func (s *Service) AddTask(ctx context.Context, owner string, in TaskInput) (*store.Task, error) {
	if owner == "" {
		return nil, ErrNotAuthenticated
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	return s.store.Tasks.Create(ctx, store.Task{
		OwnerID: owner,
		Day:     in.Day,
		Month:   in.Month,
		Year:    in.Year,
		Time:    in.Time,
		Title:   in.Title,
	})
}

// UpdateTask overwrites every caller-settable field of the task.
func (s *Service) UpdateTask(ctx context.Context, owner, id string, in TaskInput) error {
	if owner == "" {
		return ErrNotAuthenticated
	}
	if err := s.check(in); err != nil {
		return err
	}
	return s.store.Tasks.Update(ctx, store.Task{
		ID:        id,
		OwnerID:   owner,
		Day:       in.Day,
		Month:     in.Month,
		Year:      in.Year,
		Time:      in.Time,
		Title:     in.Title,
		Completed: in.Completed,
	})
}

func (s *Service) DeleteTask(ctx context.Context, owner, id string) error {
	if owner == "" {
		return ErrNotAuthenticated
	}
	return s.store.Tasks.Delete(ctx, owner, id)
}

// ToggleTaskCompleted reads the task's current value from the session's
// local mirror and writes the negation. A task missing from the mirror is
// reported as not found even if the store has it; toggling right after an
// unsynced add can therefore fail spuriously, which callers accept.
func (s *Service) ToggleTaskCompleted(ctx context.Context, sess *Session, id string) error {
	if sess == nil || sess.Owner() == "" {
		return ErrNotAuthenticated
	}
	task, ok := sess.Tasks.Find(func(t store.Task) bool { return t.ID == id })
	if !ok {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return s.store.Tasks.SetCompleted(ctx, sess.Owner(), id, !task.Completed)
}

// AddChecklistItem creates an item inside a subject and recomputes the
// subject's progress.
func (s *Service) AddChecklistItem(ctx context.Context, owner string, in ChecklistInput) (*store.ChecklistItem, error) {
	if owner == "" {
		return nil, ErrNotAuthenticated
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	item, err := s.store.Checklist.Create(ctx, store.ChecklistItem{
		OwnerID:   owner,
		SubjectID: in.SubjectID,
		Label:     in.Label,
	})
	if err != nil {
		return nil, err
	}
	if err := s.recomputeProgress(ctx, owner, in.SubjectID); err != nil {
		return nil, err
	}
	return item, nil
}

// ToggleChecklistItem flips an item's done flag, reading the current value
// from the session mirror, then recomputes the subject's progress.
func (s *Service) ToggleChecklistItem(ctx context.Context, sess *Session, id string) error {
	if sess == nil || sess.Owner() == "" {
		return ErrNotAuthenticated
	}
	item, ok := sess.Checklist.Find(func(i store.ChecklistItem) bool { return i.ID == id })
	if !ok {
		return fmt.Errorf("checklist item %s: %w", id, ErrNotFound)
	}
	if err := s.store.Checklist.SetDone(ctx, sess.Owner(), id, !item.Done); err != nil {
		return err
	}
	return s.recomputeProgress(ctx, sess.Owner(), item.SubjectID)
}

// DeleteChecklistItem removes an item and recomputes the subject's progress.
func (s *Service) DeleteChecklistItem(ctx context.Context, owner, subjectID, id string) error {
	if owner == "" {
		return ErrNotAuthenticated
	}
	if err := s.store.Checklist.Delete(ctx, owner, id); err != nil {
		return err
	}
	return s.recomputeProgress(ctx, owner, subjectID)
}

// recomputeProgress derives progress = round(100 * done / total), 0 for an
// empty checklist, and writes it back to the subject. A missing subject is
// tolerated: items orphaned by a subject delete have nothing to update.
func (s *Service) recomputeProgress(ctx context.Context, owner, subjectID string) error {
	done, total, err := s.store.Checklist.CountBySubject(ctx, owner, subjectID)
	if err != nil {
		return err
	}
	err = s.store.Subjects.UpdateProgress(ctx, owner, subjectID, Progress(done, total))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// Progress computes the derived progress value without writing it.
func Progress(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}
