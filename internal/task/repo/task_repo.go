package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/task/entity"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/pkg/database"
)

// TaskRepo provides data access for the tasks table. Every read and
// mutation other than Create is scoped by owner_id.
type TaskRepo struct {
	db *sqlx.DB
}

func NewTaskRepo(db *sqlx.DB) *TaskRepo { return &TaskRepo{db: db} }

type taskRow struct {
	ID          string `db:"id"`
	OwnerID     string `db:"owner_id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Status      string `db:"status"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (row taskRow) toEntity() entity.Task {
	return entity.Task{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Status:      entity.Status(row.Status),
		Owner:       row.OwnerID,
		CreatedAt:   database.FromMillis(row.CreatedAt),
		UpdatedAt:   database.FromMillis(row.UpdatedAt),
	}
}

const taskColumns = `id, owner_id, title, description, status, created_at, updated_at`

func (r *TaskRepo) Create(ctx context.Context, t *entity.Task) error {
	const q = `INSERT INTO tasks (id, owner_id, title, description, status, created_at, updated_at)
		VALUES (:id, :owner_id, :title, :description, :status, :created_at, :updated_at)`
	row := taskRow{
		ID:          t.ID,
		OwnerID:     t.Owner,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   database.Millis(t.CreatedAt),
		UpdatedAt:   database.Millis(t.UpdatedAt),
	}
	if _, err := r.db.NamedExecContext(ctx, q, row); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's tasks, newest first. Never nil.
func (r *TaskRepo) ListByOwner(ctx context.Context, owner string) ([]entity.Task, error) {
	q := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ? ORDER BY created_at DESC, id DESC`)
	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, q, owner); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]entity.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// UpdateOwned applies p to the task matching both id and owner in a single
// statement and returns the row after mutation. Returns sql.ErrNoRows when
// the task does not exist or belongs to someone else.
func (r *TaskRepo) UpdateOwned(ctx context.Context, id, owner string, p entity.Patch, now time.Time) (*entity.Task, error) {
	q := r.db.Rebind(`UPDATE tasks SET
		title = COALESCE(?, title),
		description = COALESCE(?, description),
		status = COALESCE(?, status),
		updated_at = ?
		WHERE id = ? AND owner_id = ?
		RETURNING ` + taskColumns)
	var status *string
	if p.Status != nil {
		s := string(*p.Status)
		status = &s
	}
	var row taskRow
	if err := r.db.GetContext(ctx, &row, q, p.Title, p.Description, status, database.Millis(now), id, owner); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	t := row.toEntity()
	return &t, nil
}

// DeleteOwned removes the task matching both id and owner. Returns
// sql.ErrNoRows when nothing matched.
func (r *TaskRepo) DeleteOwned(ctx context.Context, id, owner string) error {
	q := r.db.Rebind(`DELETE FROM tasks WHERE id = ? AND owner_id = ?`)
	res, err := r.db.ExecContext(ctx, q, id, owner)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
