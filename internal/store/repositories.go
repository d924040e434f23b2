package store

import "context"

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	Create(ctx context.Context, email string, passwordHash []byte) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpsertOIDCUser(ctx context.Context, subject, email string) (*User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash []byte) error
	TouchLastLogin(ctx context.Context, id string) error
}

// SubjectRepository handles subject documents scoped by owner.
type SubjectRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]Subject, error)
	GetByID(ctx context.Context, ownerID, id string) (*Subject, error)
	Create(ctx context.Context, s Subject) (*Subject, error)
	Update(ctx context.Context, s Subject) error
	UpdateProgress(ctx context.Context, ownerID, id string, progress int) error
	Delete(ctx context.Context, ownerID, id string) error
}

// TaskRepository handles calendar task documents scoped by owner.
type TaskRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]Task, error)
	Create(ctx context.Context, t Task) (*Task, error)
	Update(ctx context.Context, t Task) error
	SetCompleted(ctx context.Context, ownerID, id string, completed bool) error
	Delete(ctx context.Context, ownerID, id string) error
}

// ChecklistRepository handles per-subject checklist items scoped by owner.
type ChecklistRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]ChecklistItem, error)
	ListBySubject(ctx context.Context, ownerID, subjectID string) ([]ChecklistItem, error)
	Create(ctx context.Context, item ChecklistItem) (*ChecklistItem, error)
	SetDone(ctx context.Context, ownerID, id string, done bool) error
	Delete(ctx context.Context, ownerID, id string) error
	CountBySubject(ctx context.Context, ownerID, subjectID string) (done, total int, err error)
}
