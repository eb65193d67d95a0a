// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
//
// Precondition checks (moderation state, deadlines, department
// visibility, ownership) happen here, before any transaction opens, so a
// rejected request never touches the claim transaction. The repositories
// own the transactional claim sequences themselves.
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

// EventStore is the persistence surface EventService needs.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) (*model.Event, error)
	ListApproved(ctx context.Context, college string) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	SetModeration(ctx context.Context, id string, status model.ModerationStatus) error
	Delete(ctx context.Context, id string) error
}

// RegistrationStore is the persistence surface for the registration claim.
type RegistrationStore interface {
	Claim(ctx context.Context, eventID, studentID string) (*model.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
}

// EventService orchestrates event-related business operations.
type EventService struct {
	events        EventStore
	registrations RegistrationStore
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore, registrations RegistrationStore) *EventService {
	return &EventService{events: events, registrations: registrations}
}

// Create validates the request and delegates to the repository. Events
// created by admins skip the moderation queue.
func (s *EventService) Create(ctx context.Context, ident model.Identity, req model.CreateEventRequest) (*model.Event, error) {
	if err := authz.Allow(ident, authz.ResourceEvent, authz.ActionCreate, false); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("event title is required")
	}
	if req.Capacity != nil && *req.Capacity < 0 {
		return nil, fmt.Errorf("capacity cannot be negative")
	}
	if req.Capacity != nil && *req.Capacity > 100_000 {
		return nil, fmt.Errorf("capacity cannot exceed 100,000")
	}
	if req.StartsAt.IsZero() {
		return nil, fmt.Errorf("starts_at is required")
	}

	moderation := model.ModerationPending
	if ident.HasRole(model.RoleDeptAdmin) || ident.HasRole(model.RoleHeadAdmin) {
		moderation = model.ModerationApproved
	}
	return s.events.Create(ctx, &model.Event{
		Title:              req.Title,
		Description:        req.Description,
		AuthorID:           ident.Subject,
		College:            ident.College,
		Moderation:         moderation,
		Capacity:           req.Capacity,
		VisibleDepartments: req.VisibleDepartments,
		RegistrationEnds:   req.RegistrationEnds,
		StartsAt:           req.StartsAt,
	})
}

// List returns approved events in the caller's college that are visible
// to the caller's department.
func (s *EventService) List(ctx context.Context, ident model.Identity) ([]model.Event, error) {
	events, err := s.events.ListApproved(ctx, ident.College)
	if err != nil {
		return nil, err
	}
	visible := events[:0]
	for _, e := range events {
		if e.VisibleTo(ident.Department) {
			visible = append(visible, e)
		}
	}
	return visible, nil
}

// Get returns one event. Events outside the caller's scope, unapproved
// events the caller does not own, and missing events are all NotFound so
// existence never leaks across scopes.
func (s *EventService) Get(ctx context.Context, ident model.Identity, id string) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.College != ident.College {
		return nil, apperr.ErrNotFound
	}
	if event.AuthorID == ident.Subject || authz.Allow(ident, authz.ResourceEvent, authz.ActionViewAll, false) == nil {
		return event, nil
	}
	if event.Moderation != model.ModerationApproved || !event.VisibleTo(ident.Department) {
		return nil, apperr.ErrNotFound
	}
	return event, nil
}

// Register claims a slot on an event for the caller.
//
// Preconditions are cheap reads outside the transaction: the event must
// be approved, visible to the caller's department, and inside its
// registration deadline. Only then does the serializable claim run.
func (s *EventService) Register(ctx context.Context, ident model.Identity, eventID string) (*model.Registration, error) {
	event, err := s.Get(ctx, ident, eventID)
	if err != nil {
		return nil, err
	}
	if event.Moderation != model.ModerationApproved {
		return nil, fmt.Errorf("event is not open for registration: %w", apperr.ErrInvalidState)
	}
	if !event.VisibleTo(ident.Department) {
		return nil, apperr.ErrNotFound
	}
	if event.RegistrationEnds != nil && time.Now().After(*event.RegistrationEnds) {
		return nil, fmt.Errorf("registration deadline has passed: %w", apperr.ErrInvalidState)
	}
	return s.registrations.Claim(ctx, event.ID, ident.Subject)
}

// Registrations lists an event's registrations for its author or an
// admin role.
func (s *EventService) Registrations(ctx context.Context, ident model.Identity, eventID string) ([]model.Registration, error) {
	event, err := s.Get(ctx, ident, eventID)
	if err != nil {
		return nil, err
	}
	if err := authz.Allow(ident, authz.ResourceEvent, authz.ActionViewAll, event.AuthorID == ident.Subject); err != nil {
		return nil, err
	}
	return s.registrations.ListByEvent(ctx, eventID)
}

// Update edits an event's mutable fields after the ownership gate.
func (s *EventService) Update(ctx context.Context, ident model.Identity, eventID string, req model.UpdateEventRequest) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	// Cross-college mutations read as absence, same as Get, so a 403
	// never confirms an event exists in another college.
	if authz.SameCollege(ident, event.College) != nil {
		return nil, apperr.ErrNotFound
	}
	if err := authz.Allow(ident, authz.ResourceEvent, authz.ActionUpdate, event.AuthorID == ident.Subject); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("event title is required")
	}
	if req.Capacity != nil && *req.Capacity < 0 {
		return nil, fmt.Errorf("capacity cannot be negative")
	}
	event.Title = req.Title
	event.Description = req.Description
	event.Capacity = req.Capacity
	event.RegistrationEnds = req.RegistrationEnds
	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Moderate approves or rejects a pending event.
func (s *EventService) Moderate(ctx context.Context, ident model.Identity, eventID string, status model.ModerationStatus) error {
	if status != model.ModerationApproved && status != model.ModerationRejected {
		return fmt.Errorf("moderation status must be approved or rejected")
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if authz.SameCollege(ident, event.College) != nil {
		return apperr.ErrNotFound
	}
	if err := authz.Allow(ident, authz.ResourceEvent, authz.ActionModerate, false); err != nil {
		return err
	}
	return s.events.SetModeration(ctx, eventID, status)
}

// Delete removes an event after the ownership gate.
func (s *EventService) Delete(ctx context.Context, ident model.Identity, eventID string) error {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if authz.SameCollege(ident, event.College) != nil {
		return apperr.ErrNotFound
	}
	if err := authz.Allow(ident, authz.ResourceEvent, authz.ActionDelete, event.AuthorID == ident.Subject); err != nil {
		return err
	}
	return s.events.Delete(ctx, eventID)
}
