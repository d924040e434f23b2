package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store aggregates repositories backed by PostgreSQL plus the changefeed
// that drives live queries.
type Store struct {
	pool *pgxpool.Pool
	feed *Changefeed

	Users     UserRepository
	Subjects  SubjectRepository
	Tasks     TaskRepository
	Checklist ChecklistRepository
}

// New wires concrete repository implementations with a shared connection pool.
func New(pool *pgxpool.Pool) *Store {
	feed := NewChangefeed(pool)
	return &Store{
		pool:      pool,
		feed:      feed,
		Users:     &userRepo{pool: pool},
		Subjects:  &subjectRepo{pool: pool, notify: feed.Announce},
		Tasks:     &taskRepo{pool: pool, notify: feed.Announce},
		Checklist: &checklistRepo{pool: pool, notify: feed.Announce},
	}
}

// RunChangefeed blocks on the NOTIFY listener until ctx is cancelled.
func (s *Store) RunChangefeed(ctx context.Context) error {
	return s.feed.Run(ctx)
}

// WatchSubjects opens a live query over the owner's subjects.
func (s *Store) WatchSubjects(ctx context.Context, ownerID string) *LiveQuery[Subject] {
	return Watch(ctx, s.feed, CollectionSubjects, ownerID, func(ctx context.Context) ([]Subject, error) {
		return s.Subjects.ListByOwner(ctx, ownerID)
	})
}

// WatchTasks opens a live query over the owner's calendar tasks.
func (s *Store) WatchTasks(ctx context.Context, ownerID string) *LiveQuery[Task] {
	return Watch(ctx, s.feed, CollectionTasks, ownerID, func(ctx context.Context) ([]Task, error) {
		return s.Tasks.ListByOwner(ctx, ownerID)
	})
}

// WatchChecklist opens a live query over all of the owner's checklist items.
func (s *Store) WatchChecklist(ctx context.Context, ownerID string) *LiveQuery[ChecklistItem] {
	return Watch(ctx, s.feed, CollectionChecklist, ownerID, func(ctx context.Context) ([]ChecklistItem, error) {
		return s.Checklist.ListByOwner(ctx, ownerID)
	})
}

// WatchSubjectChecklist opens a live query scoped to one subject's checklist.
func (s *Store) WatchSubjectChecklist(ctx context.Context, ownerID, subjectID string) *LiveQuery[ChecklistItem] {
	return Watch(ctx, s.feed, CollectionChecklist, ownerID, func(ctx context.Context) ([]ChecklistItem, error) {
		return s.Checklist.ListBySubject(ctx, ownerID, subjectID)
	})
}

// HealthCheck verifies that the underlying database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	defer observeDB(ctx, "db.healthcheck")()
	return s.pool.Ping(ctx)
}
