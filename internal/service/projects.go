package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Jayanthmurala/nexus-backend/internal/apperr"
	"github.com/Jayanthmurala/nexus-backend/internal/authz"
	"github.com/Jayanthmurala/nexus-backend/internal/model"
)

// ProjectStore is the persistence surface ProjectService needs.
type ProjectStore interface {
	Create(ctx context.Context, p *model.Project) (*model.Project, error)
	ListApproved(ctx context.Context, college string) ([]model.Project, error)
	GetByID(ctx context.Context, id string) (*model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	SetModeration(ctx context.Context, id string, status model.ModerationStatus) error
	Delete(ctx context.Context, id string) error
}

// ApplicationStore is the persistence surface for the application claim
// and the status-gated acceptance.
type ApplicationStore interface {
	Claim(ctx context.Context, projectID, studentID, note string) (*model.Application, error)
	Decide(ctx context.Context, projectID, appID string, status model.ApplicationStatus) (*model.Application, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Application, error)
}

// ProjectService orchestrates project and application operations.
type ProjectService struct {
	projects     ProjectStore
	applications ApplicationStore
}

// NewProjectService constructs a ProjectService with its dependencies.
func NewProjectService(projects ProjectStore, applications ApplicationStore) *ProjectService {
	return &ProjectService{projects: projects, applications: applications}
}

// Create validates the request and delegates to the repository.
func (s *ProjectService) Create(ctx context.Context, ident model.Identity, req model.CreateProjectRequest) (*model.Project, error) {
	if err := authz.Allow(ident, authz.ResourceProject, authz.ActionCreate, false); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("project title is required")
	}
	if req.MaxStudents <= 0 {
		return nil, fmt.Errorf("max_students must be a positive integer")
	}
	if req.MaxStudents > 1_000 {
		return nil, fmt.Errorf("max_students cannot exceed 1,000")
	}

	moderation := model.ModerationPending
	if ident.HasRole(model.RoleDeptAdmin) || ident.HasRole(model.RoleHeadAdmin) {
		moderation = model.ModerationApproved
	}
	return s.projects.Create(ctx, &model.Project{
		Title:              req.Title,
		Description:        req.Description,
		AuthorID:           ident.Subject,
		College:            ident.College,
		Moderation:         moderation,
		Progress:           model.ProgressOpen,
		MaxStudents:        req.MaxStudents,
		VisibleDepartments: req.VisibleDepartments,
		ApplicationEnds:    req.ApplicationEnds,
	})
}

// List returns approved projects in the caller's college visible to the
// caller's department.
func (s *ProjectService) List(ctx context.Context, ident model.Identity) ([]model.Project, error) {
	projects, err := s.projects.ListApproved(ctx, ident.College)
	if err != nil {
		return nil, err
	}
	visible := projects[:0]
	for _, p := range projects {
		if p.VisibleTo(ident.Department) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// Get returns one project under the same scope-hiding rules as events.
func (s *ProjectService) Get(ctx context.Context, ident model.Identity, id string) (*model.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.College != ident.College {
		return nil, apperr.ErrNotFound
	}
	if project.AuthorID == ident.Subject || authz.Allow(ident, authz.ResourceApplication, authz.ActionViewAll, false) == nil {
		return project, nil
	}
	if project.Moderation != model.ModerationApproved || !project.VisibleTo(ident.Department) {
		return nil, apperr.ErrNotFound
	}
	return project, nil
}

// Update edits a project's mutable fields after the ownership gate.
// Progress may only move forward through open, in_progress, completed.
func (s *ProjectService) Update(ctx context.Context, ident model.Identity, projectID string, req model.UpdateProjectRequest) (*model.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	// Cross-college mutations read as absence, same as Get.
	if authz.SameCollege(ident, project.College) != nil {
		return nil, apperr.ErrNotFound
	}
	if err := authz.Allow(ident, authz.ResourceProject, authz.ActionUpdate, project.AuthorID == ident.Subject); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("project title is required")
	}
	if req.MaxStudents <= 0 {
		return nil, fmt.Errorf("max_students must be a positive integer")
	}
	if !validProgress(req.Progress) {
		return nil, fmt.Errorf("unknown progress status %q", req.Progress)
	}
	if progressOrder(req.Progress) < progressOrder(project.Progress) {
		return nil, fmt.Errorf("progress cannot move backwards: %w", apperr.ErrInvalidState)
	}
	project.Title = req.Title
	project.Description = req.Description
	project.MaxStudents = req.MaxStudents
	project.Progress = req.Progress
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func validProgress(p model.ProgressStatus) bool {
	switch p {
	case model.ProgressOpen, model.ProgressInProgress, model.ProgressCompleted:
		return true
	}
	return false
}

func progressOrder(p model.ProgressStatus) int {
	switch p {
	case model.ProgressInProgress:
		return 1
	case model.ProgressCompleted:
		return 2
	}
	return 0
}

// Apply files the caller's application: a uniqueness-scoped claim with
// no numeric cap. Preconditions run before the insert.
func (s *ProjectService) Apply(ctx context.Context, ident model.Identity, projectID string, req model.ApplyRequest) (*model.Application, error) {
	if !ident.HasRole(model.RoleStudent) {
		return nil, fmt.Errorf("only students apply to projects: %w", apperr.ErrForbidden)
	}
	project, err := s.Get(ctx, ident, projectID)
	if err != nil {
		return nil, err
	}
	if !project.AcceptsApplications() {
		return nil, fmt.Errorf("project is not accepting applications: %w", apperr.ErrInvalidState)
	}
	if !project.VisibleTo(ident.Department) {
		return nil, apperr.ErrNotFound
	}
	if project.ApplicationEnds != nil && time.Now().After(*project.ApplicationEnds) {
		return nil, fmt.Errorf("application deadline has passed: %w", apperr.ErrInvalidState)
	}
	return s.applications.Claim(ctx, project.ID, ident.Subject, strings.TrimSpace(req.Note))
}

// Decide accepts or rejects a pending application. Accepting is capacity
// bounded by the project's max_students; the repository enforces the cap
// inside the decision transaction.
func (s *ProjectService) Decide(ctx context.Context, ident model.Identity, projectID, appID string, status model.ApplicationStatus) (*model.Application, error) {
	if status != model.ApplicationAccepted && status != model.ApplicationRejected {
		return nil, fmt.Errorf("decision must be accepted or rejected")
	}
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if authz.SameCollege(ident, project.College) != nil {
		return nil, apperr.ErrNotFound
	}
	if err := authz.Allow(ident, authz.ResourceApplication, authz.ActionDecide, project.AuthorID == ident.Subject); err != nil {
		return nil, err
	}
	return s.applications.Decide(ctx, projectID, appID, status)
}

// Applications lists a project's applications for its author or an admin.
func (s *ProjectService) Applications(ctx context.Context, ident model.Identity, projectID string) ([]model.Application, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if authz.SameCollege(ident, project.College) != nil {
		return nil, apperr.ErrNotFound
	}
	if err := authz.Allow(ident, authz.ResourceApplication, authz.ActionViewAll, project.AuthorID == ident.Subject); err != nil {
		return nil, err
	}
	return s.applications.ListByProject(ctx, projectID)
}

// Moderate approves or rejects a pending project.
func (s *ProjectService) Moderate(ctx context.Context, ident model.Identity, projectID string, status model.ModerationStatus) error {
	if status != model.ModerationApproved && status != model.ModerationRejected {
		return fmt.Errorf("moderation status must be approved or rejected")
	}
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if authz.SameCollege(ident, project.College) != nil {
		return apperr.ErrNotFound
	}
	if err := authz.Allow(ident, authz.ResourceProject, authz.ActionModerate, false); err != nil {
		return err
	}
	return s.projects.SetModeration(ctx, projectID, status)
}

// Delete removes a project after the ownership gate.
func (s *ProjectService) Delete(ctx context.Context, ident model.Identity, projectID string) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if authz.SameCollege(ident, project.College) != nil {
		return apperr.ErrNotFound
	}
	if err := authz.Allow(ident, authz.ResourceProject, authz.ActionDelete, project.AuthorID == ident.Subject); err != nil {
		return err
	}
	return s.projects.Delete(ctx, projectID)
}
