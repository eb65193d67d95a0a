package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Jayanthmurala/nexus-backend/internal/apperr"
	"github.com/Jayanthmurala/nexus-backend/internal/model"
	"github.com/Jayanthmurala/nexus-backend/internal/service"
)

// ProjectHandler holds all HTTP handlers for the projects API.
type ProjectHandler struct {
	svc *service.ProjectService
}

// NewProjectHandler constructs a ProjectHandler.
func NewProjectHandler(svc *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

// Create handles POST /v1/projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	var req model.CreateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}

	project, err := h.svc.Create(r.Context(), ident, req)
	if err != nil {
		if errors.Is(err, apperr.ErrForbidden) {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// List handles GET /v1/projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	projects, err := h.svc.List(r.Context(), ident)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

// Get handles GET /v1/projects/{id}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	project, err := h.svc.Get(r.Context(), ident, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// Update handles PUT /v1/projects/{id}.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	var req model.UpdateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}
	project, err := h.svc.Update(r.Context(), ident, chi.URLParam(r, "id"), req)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrForbidden) || errors.Is(err, apperr.ErrInvalidState) {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// Apply handles POST /v1/projects/{id}/applications.
func (h *ProjectHandler) Apply(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	var req model.ApplyRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
			return
		}
	}

	app, err := h.svc.Apply(r.Context(), ident, chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// Applications handles GET /v1/projects/{id}/applications.
func (h *ProjectHandler) Applications(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	apps, err := h.svc.Applications(r.Context(), ident, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if apps == nil {
		apps = []model.Application{}
	}
	writeJSON(w, http.StatusOK, apps)
}

// Decide handles PATCH /v1/projects/{id}/applications/{appID}.
// Accepting is bounded by the project's max_students.
func (h *ProjectHandler) Decide(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	var req model.DecideApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}

	app, err := h.svc.Decide(r.Context(), ident, chi.URLParam(r, "id"), chi.URLParam(r, "appID"), req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// Moderate handles PATCH /v1/projects/{id}/moderation.
func (h *ProjectHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	var req model.ModerateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}
	if err := h.svc.Moderate(r.Context(), ident, chi.URLParam(r, "id"), req.Status); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

// Delete handles DELETE /v1/projects/{id}.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), ident, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TaskHandler holds all HTTP handlers for project tasks.
type TaskHandler struct {
	svc *service.TaskService
}

// NewTaskHandler constructs a TaskHandler.
func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// Create handles POST /v1/projects/{id}/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	var req model.CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}

	task, err := h.svc.Create(r.Context(), ident, chi.URLParam(r, "id"), req)
	if err != nil {
		if errors.Is(err, apperr.ErrForbidden) || errors.Is(err, apperr.ErrNotFound) {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// List handles GET /v1/projects/{id}/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	tasks, err := h.svc.List(r.Context(), ident, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// UpdateStatus handles PATCH /v1/tasks/{id}.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	var req model.UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}

	task, err := h.svc.UpdateStatus(r.Context(), ident, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		if errors.Is(err, apperr.ErrForbidden) || errors.Is(err, apperr.ErrNotFound) {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /v1/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), ident, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InternalHandler serves the signed server-to-server API.
type InternalHandler struct {
	svc *service.StatsService
}

// NewInternalHandler constructs an InternalHandler.
func NewInternalHandler(svc *service.StatsService) *InternalHandler {
	return &InternalHandler{svc: svc}
}

// Stats handles GET /internal/stats?college=...
func (h *InternalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Counts(r.Context(), r.URL.Query().Get("college"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
