package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jayanthmurala/nexus-backend/internal/apperr"
	"github.com/Jayanthmurala/nexus-backend/internal/database"
	"github.com/Jayanthmurala/nexus-backend/internal/model"
)

// ProjectRepository handles persistence for projects.
type ProjectRepository struct {
	db *pgxpool.Pool
}

// NewProjectRepository constructs a ProjectRepository.
func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, title, description, author_id, college, moderation_status,
	progress_status, max_students, visible_departments, application_ends, created_at`

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.AuthorID, &p.College,
		&p.Moderation, &p.Progress, &p.MaxStudents, &p.VisibleDepartments,
		&p.ApplicationEnds, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	return &p, nil
}

// Create inserts a new project and returns it with a generated UUID.
func (r *ProjectRepository) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	p.ID = uuid.New().String()
	p.CreatedAt = time.Now().UTC()
	if p.VisibleDepartments == nil {
		p.VisibleDepartments = []string{}
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO projects (`+projectColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Title, p.Description, p.AuthorID, p.College, p.Moderation,
		p.Progress, p.MaxStudents, p.VisibleDepartments, p.ApplicationEnds, p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

// ListApproved returns approved projects in a college, newest first.
func (r *ProjectRepository) ListApproved(ctx context.Context, college string) ([]model.Project, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+projectColumns+`
		 FROM projects
		 WHERE college = $1 AND moderation_status = $2
		 ORDER BY created_at DESC`,
		college, model.ModerationApproved,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// GetByID returns a single project or apperr.ErrNotFound.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*model.Project, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

// Update rewrites the mutable fields of a project.
func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE projects SET title = $1, description = $2, max_students = $3,
		        progress_status = $4, application_ends = $5
		 WHERE id = $6`,
		p.Title, p.Description, p.MaxStudents, p.Progress, p.ApplicationEnds, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// SetModeration transitions a pending project to approved or rejected.
func (r *ProjectRepository) SetModeration(ctx context.Context, id string, status model.ModerationStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE projects SET moderation_status = $1
		 WHERE id = $2 AND moderation_status = $3`,
		status, id, model.ModerationPending,
	)
	if err != nil {
		return fmt.Errorf("moderate project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("project %s is not pending: %w", id, apperr.ErrInvalidState)
	}
	return nil
}

// Delete removes a project; applications and tasks cascade.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ApplicationRepository handles persistence for project applications.
type ApplicationRepository struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

// NewApplicationRepository constructs an ApplicationRepository.
func NewApplicationRepository(db *pgxpool.Pool, log *slog.Logger) *ApplicationRepository {
	return &ApplicationRepository{db: db, log: log}
}

// Claim files an application. There is no numeric cap on pending
// applications, so the unique constraint on (project_id, student_id)
// alone makes the claim race-safe; a plain transaction suffices.
func (r *ApplicationRepository) Claim(ctx context.Context, projectID, studentID, note string) (*model.Application, error) {
	app := &model.Application{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		StudentID: studentID,
		Note:      note,
		Status:    model.ApplicationPending,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO applications (id, project_id, student_id, note, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		app.ID, app.ProjectID, app.StudentID, app.Note, app.Status, app.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("insert application: %w", err)
	}
	return app, nil
}

// Decide transitions a pending application to accepted or rejected.
//
// Accepting is the capacity-bounded transition: the count of already
// accepted applications is checked against the project's max_students
// inside the same serializable transaction, so two concurrent accepts
// cannot both pass the check. Rejecting never counts against the cap.
func (r *ApplicationRepository) Decide(ctx context.Context, projectID, appID string, status model.ApplicationStatus) (*model.Application, error) {
	var decided *model.Application
	err := database.InSerializableTx(ctx, r.db, r.log, func(tx pgx.Tx) error {
		var app model.Application
		err := tx.QueryRow(ctx,
			`SELECT id, project_id, student_id, note, status, created_at, decided_at
			 FROM applications
			 WHERE id = $1 AND project_id = $2`,
			appID, projectID,
		).Scan(&app.ID, &app.ProjectID, &app.StudentID, &app.Note, &app.Status,
			&app.CreatedAt, &app.DecidedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.ErrNotFound
			}
			return fmt.Errorf("read application: %w", err)
		}
		if app.Status != model.ApplicationPending {
			return fmt.Errorf("application %s already decided: %w", appID, apperr.ErrInvalidState)
		}

		if status == model.ApplicationAccepted {
			var maxStudents, accepted int
			err = tx.QueryRow(ctx,
				`SELECT p.max_students,
				        (SELECT COUNT(*) FROM applications
				          WHERE project_id = p.id AND status = $2)
				 FROM projects p WHERE p.id = $1`,
				projectID, model.ApplicationAccepted,
			).Scan(&maxStudents, &accepted)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return apperr.ErrNotFound
				}
				return fmt.Errorf("count accepted: %w", err)
			}
			if accepted >= maxStudents {
				return apperr.ErrFull
			}
		}

		now := time.Now().UTC()
		_, err = tx.Exec(ctx,
			`UPDATE applications SET status = $1, decided_at = $2 WHERE id = $3`,
			status, now, appID,
		)
		if err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		app.Status = status
		app.DecidedAt = &now
		decided = &app
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decided, nil
}

// ListByProject returns all applications for a project, oldest first.
func (r *ApplicationRepository) ListByProject(ctx context.Context, projectID string) ([]model.Application, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, project_id, student_id, note, status, created_at, decided_at
		 FROM applications
		 WHERE project_id = $1
		 ORDER BY created_at ASC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []model.Application
	for rows.Next() {
		var a model.Application
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.StudentID, &a.Note, &a.Status,
			&a.CreatedAt, &a.DecidedAt); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}
