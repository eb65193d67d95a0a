package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Jayanthmurala/nexus-backend/internal/apperr"
	"github.com/Jayanthmurala/nexus-backend/internal/model"
)

// The fakes below mirror the repositories' transactional semantics with
// a single mutex per store pair: each Claim/Decide runs atomically, which
// is exactly the guarantee serializable isolation provides the real
// implementation. The uniqueness tuple is a map key, standing in for the
// database's unique index.

type memEvents struct {
	mu     sync.Mutex
	nextID int
	events map[string]*model.Event
	regs   map[string]model.Registration // "eventID/studentID"
}

func newMemEvents() *memEvents {
	return &memEvents{
		events: make(map[string]*model.Event),
		regs:   make(map[string]model.Registration),
	}
}

func regKey(eventID, studentID string) string { return eventID + "/" + studentID }

func (m *memEvents) Create(_ context.Context, e *model.Event) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e.ID = "ev-" + strconv.Itoa(m.nextID)
	e.CreatedAt = time.Now().UTC()
	cp := *e
	m.events[e.ID] = &cp
	return e, nil
}

func (m *memEvents) ListApproved(_ context.Context, college string) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Event
	for _, e := range m.events {
		if e.College == college && e.Moderation == model.ModerationApproved {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memEvents) GetByID(_ context.Context, id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memEvents) SetModeration(_ context.Context, id string, status model.ModerationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if e.Moderation != model.ModerationPending {
		return fmt.Errorf("not pending: %w", apperr.ErrInvalidState)
	}
	e.Moderation = status
	return nil
}

func (m *memEvents) Update(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID]; !ok {
		return apperr.ErrNotFound
	}
	cp := *e
	m.events[e.ID] = &cp
	return nil
}

func (m *memEvents) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.events, id)
	for k, reg := range m.regs {
		if reg.EventID == id {
			delete(m.regs, k)
		}
	}
	return nil
}

// Claim performs the duplicate check, capacity guard, and insert under
// one lock, mirroring the serializable claim transaction.
func (m *memEvents) Claim(_ context.Context, eventID, studentID string) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if _, dup := m.regs[regKey(eventID, studentID)]; dup {
		return nil, apperr.ErrAlreadyClaimed
	}
	if e.Capacity != nil {
		admitted := 0
		for _, reg := range m.regs {
			if reg.EventID == eventID {
				admitted++
			}
		}
		if admitted >= *e.Capacity {
			return nil, apperr.ErrFull
		}
	}
	reg := model.Registration{
		ID:        regKey(eventID, studentID),
		EventID:   eventID,
		StudentID: studentID,
		CreatedAt: time.Now().UTC(),
	}
	m.regs[regKey(eventID, studentID)] = reg
	return &reg, nil
}

func (m *memEvents) ListByEvent(_ context.Context, eventID string) ([]model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Registration
	for _, reg := range m.regs {
		if reg.EventID == eventID {
			out = append(out, reg)
		}
	}
	return out, nil
}

type memProjects struct {
	mu       sync.Mutex
	nextID   int
	projects map[string]*model.Project
	apps     map[string]*model.Application // by application id
	appKeys  map[string]string             // "projectID/studentID" -> app id
}

func newMemProjects() *memProjects {
	return &memProjects{
		projects: make(map[string]*model.Project),
		apps:     make(map[string]*model.Application),
		appKeys:  make(map[string]string),
	}
}

func (m *memProjects) Create(_ context.Context, p *model.Project) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = "pr-" + strconv.Itoa(m.nextID)
	p.CreatedAt = time.Now().UTC()
	cp := *p
	m.projects[p.ID] = &cp
	return p, nil
}

func (m *memProjects) ListApproved(_ context.Context, college string) ([]model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Project
	for _, p := range m.projects {
		if p.College == college && p.Moderation == model.ModerationApproved {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProjects) GetByID(_ context.Context, id string) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProjects) SetModeration(_ context.Context, id string, status model.ModerationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if p.Moderation != model.ModerationPending {
		return fmt.Errorf("not pending: %w", apperr.ErrInvalidState)
	}
	p.Moderation = status
	return nil
}

func (m *memProjects) Update(_ context.Context, p *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ID]; !ok {
		return apperr.ErrNotFound
	}
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *memProjects) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *memProjects) Claim(_ context.Context, projectID, studentID, note string) (*model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := projectID + "/" + studentID
	if _, dup := m.appKeys[key]; dup {
		return nil, apperr.ErrAlreadyClaimed
	}
	app := &model.Application{
		ID:        "app-" + key,
		ProjectID: projectID,
		StudentID: studentID,
		Note:      note,
		Status:    model.ApplicationPending,
		CreatedAt: time.Now().UTC(),
	}
	m.apps[app.ID] = app
	m.appKeys[key] = app.ID
	return app, nil
}

// Decide mirrors the status-gated acceptance transaction: the pending
// check and the accepted-count check happen under the same lock as the
// status write.
func (m *memProjects) Decide(_ context.Context, projectID, appID string, status model.ApplicationStatus) (*model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[appID]
	if !ok || app.ProjectID != projectID {
		return nil, apperr.ErrNotFound
	}
	if app.Status != model.ApplicationPending {
		return nil, fmt.Errorf("already decided: %w", apperr.ErrInvalidState)
	}
	if status == model.ApplicationAccepted {
		p, ok := m.projects[projectID]
		if !ok {
			return nil, apperr.ErrNotFound
		}
		accepted := 0
		for _, a := range m.apps {
			if a.ProjectID == projectID && a.Status == model.ApplicationAccepted {
				accepted++
			}
		}
		if accepted >= p.MaxStudents {
			return nil, apperr.ErrFull
		}
	}
	now := time.Now().UTC()
	app.Status = status
	app.DecidedAt = &now
	cp := *app
	return &cp, nil
}

func (m *memProjects) ListByProject(_ context.Context, projectID string) ([]model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Application
	for _, a := range m.apps {
		if a.ProjectID == projectID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type memTasks struct {
	mu     sync.Mutex
	nextID int
	tasks  map[string]*model.Task
}

func newMemTasks() *memTasks {
	return &memTasks{tasks: make(map[string]*model.Task)}
}

func (m *memTasks) Create(_ context.Context, t *model.Task) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = "task-" + strconv.Itoa(m.nextID)
	t.CreatedAt = time.Now().UTC()
	cp := *t
	m.tasks[t.ID] = &cp
	return t, nil
}

func (m *memTasks) GetByID(_ context.Context, id string) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTasks) ListByProject(_ context.Context, projectID string) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTasks) SetStatus(_ context.Context, id string, status model.TaskStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return apperr.ErrNotFound
	}
	t.Status = status
	return nil
}

func (m *memTasks) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}
