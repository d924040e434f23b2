package store

import "time"

// Collection names used by the changefeed and live queries.
const (
	CollectionSubjects  = "subjects"
	CollectionTasks     = "tasks"
	CollectionChecklist = "checklist_items"
)

// User represents an account authenticated via email/password or OIDC.
type User struct {
	ID           string
	Email        string
	PasswordHash *string
	OIDCSubject  *string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// Subject is a course of study owned by one user. Progress is a derived
// value recomputed from the subject's checklist on every checklist change.
type Subject struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"-"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	Progress    int       `json:"progress"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Task is a calendar entry. Month is zero-based (0 = January) and Day is
// not validated against Month/Year; day 31 in February is stored as given.
type Task struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	Day       int       `json:"day"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	Time      string    `json:"time"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChecklistItem is a single to-do inside a subject.
type ChecklistItem struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	SubjectID string    `json:"subjectId"`
	Label     string    `json:"label"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
