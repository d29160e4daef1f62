package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, user_id, title, description, due_date, priority, status, created_at, updated_at`

// Store provides database operations for personal tasks.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new task store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func scanTask(scan func(dest ...any) error) (*Task, error) {
	t := &Task{}
	var priority, status string
	err := scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.DueDate, &priority, &status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.Priority = Priority(priority)
	t.Status = Status(status)
	return t, nil
}

// Create inserts a new task owned by ownerID.
func (s *Store) Create(ctx context.Context, ownerID string, f Fields) (*Task, error) {
	t, err := scanTask(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO personal_tasks (user_id, title, description, due_date, priority, status)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING `+taskColumns,
			ownerID, f.Title, f.Description, f.DueDate, string(f.Priority), string(StatusNotStarted),
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating personal task: %w", err)
	}
	return t, nil
}

// ListByOwner returns the owner's tasks ordered by due date. An empty status
// returns every task.
func (s *Store) ListByOwner(ctx context.Context, ownerID string, status Status) ([]*Task, error) {
	var rows pgx.Rows
	var err error

	if status != "" {
		rows, err = s.pool.Query(ctx,
			`SELECT `+taskColumns+` FROM personal_tasks
			 WHERE user_id = $1 AND status = $2
			 ORDER BY due_date ASC, created_at ASC`,
			ownerID, string(status),
		)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT `+taskColumns+` FROM personal_tasks
			 WHERE user_id = $1
			 ORDER BY due_date ASC, created_at ASC`,
			ownerID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing personal tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning personal task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update overwrites the editable fields of an owned task.
func (s *Store) Update(ctx context.Context, ownerID, id string, f Fields) (*Task, error) {
	t, err := scanTask(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`UPDATE personal_tasks
			 SET title = $3, description = $4, due_date = $5, priority = $6, updated_at = now()
			 WHERE id = $1 AND user_id = $2
			 RETURNING `+taskColumns,
			id, ownerID, f.Title, f.Description, f.DueDate, string(f.Priority),
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("updating personal task: %w", err)
	}
	return t, nil
}

// UpdateStatus sets the status of an owned task.
func (s *Store) UpdateStatus(ctx context.Context, ownerID, id string, status Status) (*Task, error) {
	t, err := scanTask(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`UPDATE personal_tasks SET status = $3, updated_at = now()
			 WHERE id = $1 AND user_id = $2
			 RETURNING `+taskColumns,
			id, ownerID, string(status),
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("updating personal task status: %w", err)
	}
	return t, nil
}

// Delete removes an owned task.
func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM personal_tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting personal task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
