package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// userRepo implements UserRepository.
type userRepo struct {
	pool *pgxpool.Pool
}

func (r *userRepo) Create(ctx context.Context, email string, passwordHash []byte) (*User, error) {
	defer observeDB(ctx, "db.users.create")()
	const q = `INSERT INTO users (id, email, password_hash)
VALUES ($1, $2, $3)
RETURNING id, email, password_hash, oidc_subject, created_at, last_login_at`
	return scanUser(r.pool.QueryRow(ctx, q, uuid.NewString(), email, string(passwordHash)))
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*User, error) {
	defer observeDB(ctx, "db.users.get_by_id")()
	const q = `SELECT id, email, password_hash, oidc_subject, created_at, last_login_at
FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	defer observeDB(ctx, "db.users.get_by_email")()
	const q = `SELECT id, email, password_hash, oidc_subject, created_at, last_login_at
FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *userRepo) UpsertOIDCUser(ctx context.Context, subject, email string) (*User, error) {
	defer observeDB(ctx, "db.users.upsert_oidc")()
	const q = `INSERT INTO users (id, email, oidc_subject, last_login_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (oidc_subject) DO UPDATE SET email = EXCLUDED.email, last_login_at = NOW()
RETURNING id, email, password_hash, oidc_subject, created_at, last_login_at`
	return scanUser(r.pool.QueryRow(ctx, q, uuid.NewString(), email, subject))
}

func (r *userRepo) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	defer observeDB(ctx, "db.users.update_password")()
	const q = `UPDATE users SET password_hash = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, string(passwordHash))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) TouchLastLogin(ctx context.Context, id string) error {
	defer observeDB(ctx, "db.users.touch_last_login")()
	const q = `UPDATE users SET last_login_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.OIDCSubject, &u.CreatedAt, &u.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// subjectRepo implements SubjectRepository.
type subjectRepo struct {
	pool   *pgxpool.Pool
	notify notifyFunc
}

func (r *subjectRepo) ListByOwner(ctx context.Context, ownerID string) ([]Subject, error) {
	defer observeDB(ctx, "db.subjects.list")()
	const q = `SELECT id, owner_id, name, icon, COALESCE(description, ''), COALESCE(progress, 0), created_at, updated_at
FROM subjects WHERE owner_id = $1 ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []Subject
	for rows.Next() {
		var s Subject
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Icon, &s.Description, &s.Progress, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

func (r *subjectRepo) GetByID(ctx context.Context, ownerID, id string) (*Subject, error) {
	defer observeDB(ctx, "db.subjects.get")()
	const q = `SELECT id, owner_id, name, icon, COALESCE(description, ''), COALESCE(progress, 0), created_at, updated_at
FROM subjects WHERE owner_id = $1 AND id = $2`
	var s Subject
	err := r.pool.QueryRow(ctx, q, ownerID, id).
		Scan(&s.ID, &s.OwnerID, &s.Name, &s.Icon, &s.Description, &s.Progress, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subjectRepo) Create(ctx context.Context, s Subject) (*Subject, error) {
	defer observeDB(ctx, "db.subjects.create")()
	const q = `INSERT INTO subjects (id, owner_id, name, icon, description, progress)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, uuid.NewString(), s.OwnerID, s.Name, s.Icon, s.Description, s.Progress).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.notify(ctx, CollectionSubjects, s.OwnerID)
	return &s, nil
}

// Update overwrites every mutable field of the subject document.
func (r *subjectRepo) Update(ctx context.Context, s Subject) error {
	defer observeDB(ctx, "db.subjects.update")()
	const q = `UPDATE subjects SET name = $3, icon = $4, description = $5, progress = $6, updated_at = NOW()
WHERE owner_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, q, s.OwnerID, s.ID, s.Name, s.Icon, s.Description, s.Progress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	r.notify(ctx, CollectionSubjects, s.OwnerID)
	return nil
}

func (r *subjectRepo) UpdateProgress(ctx context.Context, ownerID, id string, progress int) error {
	defer observeDB(ctx, "db.subjects.update_progress")()
	const q = `UPDATE subjects SET progress = $3, updated_at = NOW()
WHERE owner_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, q, ownerID, id, progress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	r.notify(ctx, CollectionSubjects, ownerID)
	return nil
}

// Delete removes the subject only. Checklist items referencing it are left
// in place; see the checklist_items schema for why there is no FK cascade.
func (r *subjectRepo) Delete(ctx context.Context, ownerID, id string) error {
	defer observeDB(ctx, "db.subjects.delete")()
	const q = `DELETE FROM subjects WHERE owner_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, q, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	r.notify(ctx, CollectionSubjects, ownerID)
	return nil
}

// taskRepo implements TaskRepository.
type taskRepo struct {
	pool   *pgxpool.Pool
	notify notifyFunc
}

func (r *taskRepo) ListByOwner(ctx context.Context, ownerID string) ([]Task, error) {
	defer observeDB(ctx, "db.tasks.list")()
	const q = `SELECT id, owner_id, day, month, year, COALESCE(event_time, ''), title, COALESCE(completed, FALSE), created_at, updated_at
FROM tasks WHERE owner_id = $1 ORDER BY year, month, day, created_at, id`
	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Day, &t.Month, &t.Year, &t.Time, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepo) Create(ctx context.Context, t Task) (*Task, error) {
	defer observeDB(ctx, "db.tasks.create")()
	const q = `INSERT INTO tasks (id, owner_id, day, month, year, event_time, title, completed)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, uuid.NewString(), t.OwnerID, t.Day, t.Month, t.Year, t.Time, t.Title, t.Completed).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.notify(ctx, CollectionTasks, t.OwnerID)
	return &t, nil
}

// Update overwrites every mutable field of the task document.
func (r *taskRepo) Update(ctx context.Context, t Task) error {
	defer observeDB(ctx, "db.tasks.update")()
	const q = `UPDATE tasks SET day = $3, month = $4, year = $5, event_time = $6, title = $7, completed = $8, updated_at = NOW()
WHERE owner_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, q, t.OwnerID, t.ID, t.Day, t.Month, t.Year, t.Time, t.Title, t.Completed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	r.notify(ctx, CollectionTasks, t.OwnerID)
	return nil
}

func (r *taskRepo) SetCompleted(ctx context.Context, ownerID, id string, completed bool) error {
	defer observeDB(ctx, "db.tasks.set_completed")()
	const q = `UPDATE tasks SET completed = $3, updated_at = NOW()
WHERE owner_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, q, ownerID, id, completed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	r.notify(ctx, CollectionTasks, ownerID)
	return nil
}

func (r *taskRepo) Delete(ctx context.Context, ownerID, id string) error {
	defer observeDB(ctx, "db.tasks.delete")()
	const q = `DELETE FROM tasks WHERE owner_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, q, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	r.notify(ctx, CollectionTasks, ownerID)
	return nil
}

// checklistRepo implements ChecklistRepository.
type checklistRepo struct {
	pool   *pgxpool.Pool
	notify notifyFunc
}

const checklistColumns = `id, owner_id, subject_id, label, COALESCE(done, FALSE), created_at, updated_at`

func (r *checklistRepo) ListByOwner(ctx context.Context, ownerID string) ([]ChecklistItem, error) {
	defer observeDB(ctx, "db.checklist.list")()
	q := fmt.Sprintf(`SELECT %s FROM checklist_items WHERE owner_id = $1 ORDER BY created_at, id`, checklistColumns)
	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChecklist(rows)
}

func (r *checklistRepo) ListBySubject(ctx context.Context, ownerID, subjectID string) ([]ChecklistItem, error) {
	defer observeDB(ctx, "db.checklist.list_by_subject")()
	q := fmt.Sprintf(`SELECT %s FROM checklist_items WHERE owner_id = $1 AND subject_id = $2 ORDER BY created_at, id`, checklistColumns)
	rows, err := r.pool.Query(ctx, q, ownerID, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChecklist(rows)
}

func (r *checklistRepo) Create(ctx context.Context, item ChecklistItem) (*ChecklistItem, error) {
	defer observeDB(ctx, "db.checklist.create")()
	const q = `INSERT INTO checklist_items (id, owner_id, subject_id, label, done)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, uuid.NewString(), item.OwnerID, item.SubjectID, item.Label, item.Done).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.notify(ctx, CollectionChecklist, item.OwnerID)
	return &item, nil
}

func (r *checklistRepo) SetDone(ctx context.Context, ownerID, id string, done bool) error {
	defer observeDB(ctx, "db.checklist.set_done")()
	const q = `UPDATE checklist_items SET done = $3, updated_at = NOW()
WHERE owner_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, q, ownerID, id, done)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	r.notify(ctx, CollectionChecklist, ownerID)
	return nil
}

func (r *checklistRepo) Delete(ctx context.Context, ownerID, id string) error {
	defer observeDB(ctx, "db.checklist.delete")()
	const q = `DELETE FROM checklist_items WHERE owner_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, q, ownerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	r.notify(ctx, CollectionChecklist, ownerID)
	return nil
}

func (r *checklistRepo) CountBySubject(ctx context.Context, ownerID, subjectID string) (done, total int, err error) {
	defer observeDB(ctx, "db.checklist.count_by_subject")()
	const q = `SELECT COUNT(*) FILTER (WHERE done), COUNT(*)
FROM checklist_items WHERE owner_id = $1 AND subject_id = $2`
	err = r.pool.QueryRow(ctx, q, ownerID, subjectID).Scan(&done, &total)
	return done, total, err
}

func scanChecklist(rows pgx.Rows) ([]ChecklistItem, error) {
	var items []ChecklistItem
	for rows.Next() {
		var item ChecklistItem
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.SubjectID, &item.Label, &item.Done, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
