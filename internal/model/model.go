// Package model defines the core domain types for the collaboration
// platform: events, projects, applications, tasks, and the caller
// identity resolved by the auth middleware.
package model

import (
	"slices"
	"time"
)

// Role strings as they appear in identity-provider claims.
const (
	RoleStudent   = "student"
	RoleFaculty   = "faculty"
	RoleDeptAdmin = "dept_admin"
	RoleHeadAdmin = "head_admin"
)

// Identity is the verified caller: a stable subject id plus roles and
// organizational scope extracted from the bearer token.
type Identity struct {
	Subject    string   `json:"subject"`
	Roles      []string `json:"roles"`
	College    string   `json:"college"`
	Department string   `json:"department"`
}

// HasRole reports whether the identity carries the given role.
func (id Identity) HasRole(role string) bool {
	return slices.Contains(id.Roles, role)
}

// ModerationStatus gates visibility of events and projects.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

// ProgressStatus tracks a project's lifecycle.
type ProgressStatus string

const (
	ProgressOpen       ProgressStatus = "open"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// ApplicationStatus is the claim's state machine: pending is the only
// pre-decision state, and exactly one transition is ever allowed.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Event is a registerable event created by faculty.
type Event struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	AuthorID    string           `json:"author_id"`
	College     string           `json:"college"`
	Moderation  ModerationStatus `json:"moderation_status"`
	// Capacity nil means unlimited. Zero is a valid cap: a closed event
	// that admits nobody.
	Capacity *int `json:"capacity,omitempty"`
	// Departments that may see and register; empty means open to all.
	VisibleDepartments []string   `json:"visible_departments"`
	RegistrationEnds   *time.Time `json:"registration_ends,omitempty"`
	StartsAt           time.Time  `json:"starts_at"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Limited reports whether the event enforces a numeric capacity.
func (e *Event) Limited() bool { return e.Capacity != nil }

// VisibleTo reports whether the event is open to the given department.
func (e *Event) VisibleTo(department string) bool {
	if len(e.VisibleDepartments) == 0 {
		return true
	}
	return slices.Contains(e.VisibleDepartments, department)
}

// Registration is an admission record: unique per (event, student).
type Registration struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	StudentID string    `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is a faculty-led project students apply to join.
type Project struct {
	ID                 string           `json:"id"`
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	AuthorID           string           `json:"author_id"`
	College            string           `json:"college"`
	Moderation         ModerationStatus `json:"moderation_status"`
	Progress           ProgressStatus   `json:"progress_status"`
	MaxStudents        int              `json:"max_students"`
	VisibleDepartments []string         `json:"visible_departments"`
	ApplicationEnds    *time.Time       `json:"application_ends,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

// VisibleTo reports whether the project is open to the given department.
func (p *Project) VisibleTo(department string) bool {
	if len(p.VisibleDepartments) == 0 {
		return true
	}
	return slices.Contains(p.VisibleDepartments, department)
}

// AcceptsApplications reports whether the project is in a state that
// permits new applications. The deadline is checked separately.
func (p *Project) AcceptsApplications() bool {
	return p.Moderation == ModerationApproved && p.Progress != ProgressCompleted
}

// Application is an admission record with a status state machine:
// unique per (project, student), capped only on transition to accepted.
type Application struct {
	ID        string            `json:"id"`
	ProjectID string            `json:"project_id"`
	StudentID string            `json:"student_id"`
	Note      string            `json:"note"`
	Status    ApplicationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	DecidedAt *time.Time        `json:"decided_at,omitempty"`
}

// TaskStatus tracks a project task through its board columns.
type TaskStatus string

const (
	TaskTodo  TaskStatus = "todo"
	TaskDoing TaskStatus = "doing"
	TaskDone  TaskStatus = "done"
)

// Task is a unit of work inside a project.
type Task struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	Title      string     `json:"title"`
	Status     TaskStatus `json:"status"`
	AssigneeID string     `json:"assignee_id,omitempty"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ─── Request payloads ─────────────────────────────────────────────────────────

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Capacity           *int       `json:"capacity"`
	VisibleDepartments []string   `json:"visible_departments"`
	RegistrationEnds   *time.Time `json:"registration_ends"`
	StartsAt           time.Time  `json:"starts_at"`
}

// CreateProjectRequest is the payload for creating a new project.
type CreateProjectRequest struct {
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	MaxStudents        int        `json:"max_students"`
	VisibleDepartments []string   `json:"visible_departments"`
	ApplicationEnds    *time.Time `json:"application_ends"`
}

// UpdateEventRequest is the payload for editing an event.
type UpdateEventRequest struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Capacity         *int       `json:"capacity"`
	RegistrationEnds *time.Time `json:"registration_ends"`
}

// UpdateProjectRequest is the payload for editing a project.
type UpdateProjectRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	MaxStudents int            `json:"max_students"`
	Progress    ProgressStatus `json:"progress_status"`
}

// ApplyRequest is the payload for applying to a project.
type ApplyRequest struct {
	Note string `json:"note"`
}

// DecideApplicationRequest accepts or rejects a pending application.
type DecideApplicationRequest struct {
	Status ApplicationStatus `json:"status"`
}

// ModerateRequest approves or rejects a pending event or project.
type ModerateRequest struct {
	Status ModerationStatus `json:"status"`
}

// CreateTaskRequest is the payload for creating a task.
type CreateTaskRequest struct {
	Title      string `json:"title"`
	AssigneeID string `json:"assignee_id"`
}

// UpdateTaskRequest moves a task between board columns.
type UpdateTaskRequest struct {
	Status TaskStatus `json:"status"`
}

// InternalStats is the payload served to internal (signed) callers.
type InternalStats struct {
	Events        int `json:"events"`
	Registrations int `json:"registrations"`
	Projects      int `json:"projects"`
	Applications  int `json:"applications"`
}
