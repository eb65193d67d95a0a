package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jayanthmurala/nexus-backend/internal/apperr"
	"github.com/Jayanthmurala/nexus-backend/internal/authz"
	"github.com/Jayanthmurala/nexus-backend/internal/model"
)

// TaskStore is the persistence surface TaskService needs.
type TaskStore interface {
	Create(ctx context.Context, t *model.Task) (*model.Task, error)
	GetByID(ctx context.Context, id string) (*model.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Task, error)
	SetStatus(ctx context.Context, id string, status model.TaskStatus) error
	Delete(ctx context.Context, id string) error
}

// TaskService orchestrates project task operations.
type TaskService struct {
	projects ProjectStore
	tasks    TaskStore
}

// NewTaskService constructs a TaskService with its dependencies.
func NewTaskService(projects ProjectStore, tasks TaskStore) *TaskService {
	return &TaskService{projects: projects, tasks: tasks}
}

// Create adds a task to a project the caller owns (or administers).
func (s *TaskService) Create(ctx context.Context, ident model.Identity, projectID string, req model.CreateTaskRequest) (*model.Task, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	// Cross-college access reads as absence, same as the event and
	// project getters.
	if authz.SameCollege(ident, project.College) != nil {
		return nil, apperr.ErrNotFound
	}
	if err := authz.Allow(ident, authz.ResourceTask, authz.ActionCreate, project.AuthorID == ident.Subject); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("task title is required")
	}
	return s.tasks.Create(ctx, &model.Task{
		ProjectID:  projectID,
		Title:      req.Title,
		Status:     model.TaskTodo,
		AssigneeID: req.AssigneeID,
		CreatedBy:  ident.Subject,
	})
}

// List returns a project's tasks.
func (s *TaskService) List(ctx context.Context, ident model.Identity, projectID string) ([]model.Task, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if authz.SameCollege(ident, project.College) != nil {
		return nil, apperr.ErrNotFound
	}
	return s.tasks.ListByProject(ctx, projectID)
}

// UpdateStatus moves a task between board columns. The assignee may move
// their own task; otherwise the project owner or an admin role.
func (s *TaskService) UpdateStatus(ctx context.Context, ident model.Identity, taskID string, status model.TaskStatus) (*model.Task, error) {
	switch status {
	case model.TaskTodo, model.TaskDoing, model.TaskDone:
	default:
		return nil, fmt.Errorf("unknown task status %q", status)
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	project, err := s.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if authz.SameCollege(ident, project.College) != nil {
		return nil, apperr.ErrNotFound
	}
	owned := task.AssigneeID == ident.Subject || project.AuthorID == ident.Subject
	if err := authz.Allow(ident, authz.ResourceTask, authz.ActionUpdate, owned); err != nil {
		return nil, err
	}
	if err := s.tasks.SetStatus(ctx, taskID, status); err != nil {
		return nil, err
	}
	task.Status = status
	return task, nil
}

// Delete removes a task. Only the project owner or an admin role; being
// the assignee is not enough to delete.
func (s *TaskService) Delete(ctx context.Context, ident model.Identity, taskID string) error {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	project, err := s.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return err
	}
	if authz.SameCollege(ident, project.College) != nil {
		return apperr.ErrNotFound
	}
	if err := authz.Allow(ident, authz.ResourceTask, authz.ActionDelete, project.AuthorID == ident.Subject); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, taskID)
}

// StatsStore is the persistence surface for the internal stats endpoint.
type StatsStore interface {
	Counts(ctx context.Context, college string) (*model.InternalStats, error)
}

// StatsService serves counters to signed internal callers.
type StatsService struct {
	stats StatsStore
}

// NewStatsService constructs a StatsService.
func NewStatsService(stats StatsStore) *StatsService {
	return &StatsService{stats: stats}
}

// Counts returns entity totals for one college.
func (s *StatsService) Counts(ctx context.Context, college string) (*model.InternalStats, error) {
	if college == "" {
		return nil, fmt.Errorf("college is required")
	}
	return s.stats.Counts(ctx, college)
}
