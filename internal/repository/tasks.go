package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jayanthmurala/nexus-backend/internal/apperr"
	"github.com/Jayanthmurala/nexus-backend/internal/model"
)

// TaskRepository handles persistence for project tasks.
type TaskRepository struct {
	db *pgxpool.Pool
}

// NewTaskRepository constructs a TaskRepository.
func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, t *model.Task) (*model.Task, error) {
	t.ID = uuid.New().String()
	t.CreatedAt = time.Now().UTC()
	if t.Status == "" {
		t.Status = model.TaskTodo
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO tasks (id, project_id, title, status, assignee_id, created_by, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)`,
		t.ID, t.ProjectID, t.Title, t.Status, t.AssigneeID, t.CreatedBy, t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// GetByID returns a single task or apperr.ErrNotFound.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*model.Task, error) {
	var t model.Task
	var assignee *string
	err := r.db.QueryRow(ctx,
		`SELECT id, project_id, title, status, assignee_id, created_by, created_at
		 FROM tasks WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.ProjectID, &t.Title, &t.Status, &assignee, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	if assignee != nil {
		t.AssigneeID = *assignee
	}
	return &t, nil
}

// ListByProject returns a project's tasks, oldest first.
func (r *TaskRepository) ListByProject(ctx context.Context, projectID string) ([]model.Task, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, project_id, title, status, assignee_id, created_by, created_at
		 FROM tasks
		 WHERE project_id = $1
		 ORDER BY created_at ASC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		var assignee *string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Status, &assignee,
			&t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if assignee != nil {
			t.AssigneeID = *assignee
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// SetStatus moves a task between board columns.
func (r *TaskRepository) SetStatus(ctx context.Context, id string, status model.TaskStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tasks SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Delete removes a task.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// StatsRepository serves the counters exposed on the internal API.
type StatsRepository struct {
	db *pgxpool.Pool
}

// NewStatsRepository constructs a StatsRepository.
func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// Counts returns entity totals for one college.
func (r *StatsRepository) Counts(ctx context.Context, college string) (*model.InternalStats, error) {
	var s model.InternalStats
	err := r.db.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM events WHERE college = $1),
		   (SELECT COUNT(*) FROM registrations r JOIN events e ON e.id = r.event_id WHERE e.college = $1),
		   (SELECT COUNT(*) FROM projects WHERE college = $1),
		   (SELECT COUNT(*) FROM applications a JOIN projects p ON p.id = a.project_id WHERE p.college = $1)`,
		college,
	).Scan(&s.Events, &s.Registrations, &s.Projects, &s.Applications)
	if err != nil {
		return nil, fmt.Errorf("count stats: %w", err)
	}
	return &s, nil
}
