// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Jayanthmurala/nexus-backend/internal/apperr"
	"github.com/Jayanthmurala/nexus-backend/internal/model"
	"github.com/Jayanthmurala/nexus-backend/internal/service"
)

// ErrorResponse is the standard JSON error envelope: a machine-checkable
// code plus a short human-readable message. Internal detail never
// appears here; it is logged instead.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Code: code, Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Unknown
// errors become opaque 500s.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, apperr.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "you may not perform this action")
	case errors.Is(err, apperr.ErrFull):
		writeError(w, http.StatusConflict, "FULL", "no slots remaining")
	case errors.Is(err, apperr.ErrAlreadyClaimed):
		writeError(w, http.StatusConflict, "ALREADY_CLAIMED", "you already hold a claim on this resource")
	case errors.Is(err, apperr.ErrInvalidState):
		writeError(w, http.StatusConflict, "INVALID_STATE", "the resource does not permit this operation")
	case errors.Is(err, apperr.ErrConflictRetry):
		writeError(w, http.StatusConflict, "CONFLICT_RETRY", "concurrent update conflict, please retry")
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

// ─── Event handlers ───────────────────────────────────────────────────────────

// EventHandler holds all HTTP handlers for the events API.
type EventHandler struct {
	svc *service.EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

// Create handles POST /v1/events.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.Create(r.Context(), ident, req)
	if err != nil {
		if errors.Is(err, apperr.ErrForbidden) {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// List handles GET /v1/events.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	events, err := h.svc.List(r.Context(), ident)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// Get handles GET /v1/events/{id}.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	event, err := h.svc.Get(r.Context(), ident, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Register handles POST /v1/events/{id}/register.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	reg, err := h.svc.Register(r.Context(), ident, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// Registrations handles GET /v1/events/{id}/registrations.
func (h *EventHandler) Registrations(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	regs, err := h.svc.Registrations(r.Context(), ident, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}

// Update handles PUT /v1/events/{id}.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	var req model.UpdateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}
	event, err := h.svc.Update(r.Context(), ident, chi.URLParam(r, "id"), req)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrForbidden) {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Moderate handles PATCH /v1/events/{id}/moderation.
func (h *EventHandler) Moderate(w http.ResponseWriter, r *http.Request) {
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

// Delete handles DELETE /v1/events/{id}.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), ident, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
