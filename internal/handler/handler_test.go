package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Jayanthmurala/nexus-backend/internal/apperr"
	"github.com/Jayanthmurala/nexus-backend/internal/model"
	"github.com/Jayanthmurala/nexus-backend/internal/service"
)

func TestWriteDomainErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{apperr.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{apperr.ErrFull, http.StatusConflict, "FULL"},
		{apperr.ErrAlreadyClaimed, http.StatusConflict, "ALREADY_CLAIMED"},
		{apperr.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
		{apperr.ErrConflictRetry, http.StatusConflict, "CONFLICT_RETRY"},
		{fmt.Errorf("wrapped: %w", apperr.ErrFull), http.StatusConflict, "FULL"},
		{errors.New("database on fire"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeDomainError(rec, tc.err)
		if rec.Code != tc.status {
			t.Fatalf("%v: status = %d, want %d", tc.err, rec.Code, tc.status)
		}
		var body ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Code != tc.code {
			t.Fatalf("%v: code = %q, want %q", tc.err, body.Code, tc.code)
		}
	}
}

// stubEvents satisfies the event service's store interfaces with canned
// outcomes so endpoint tests do not need a database.
type stubEvents struct {
	event    *model.Event
	claimErr error
}

func (s *stubEvents) Create(_ context.Context, e *model.Event) (*model.Event, error) { return e, nil }
func (s *stubEvents) ListApproved(context.Context, string) ([]model.Event, error)    { return nil, nil }
func (s *stubEvents) GetByID(_ context.Context, id string) (*model.Event, error) {
	if s.event == nil || s.event.ID != id {
		return nil, apperr.ErrNotFound
	}
	cp := *s.event
	return &cp, nil
}
func (s *stubEvents) SetModeration(context.Context, string, model.ModerationStatus) error {
	return nil
}
func (s *stubEvents) Update(context.Context, *model.Event) error { return nil }
func (s *stubEvents) Delete(context.Context, string) error       { return nil }

func (s *stubEvents) Claim(_ context.Context, eventID, studentID string) (*model.Registration, error) {
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	return &model.Registration{ID: "reg-1", EventID: eventID, StudentID: studentID}, nil
}
func (s *stubEvents) ListByEvent(context.Context, string) ([]model.Registration, error) {
	return nil, nil
}

func registerEndpoint(stub *stubEvents) *httptest.Server {
	h := NewEventHandler(service.NewEventService(stub, stub))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ident := model.Identity{
				Subject:    "stu-1",
				Roles:      []string{model.RoleStudent},
				College:    "c-1",
				Department: "cse",
			}
			next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), identityKey, ident)))
		})
	})
	r.Post("/v1/events/{id}/register", h.Register)
	return httptest.NewServer(r)
}

func TestRegisterEndpointOutcomes(t *testing.T) {
	approved := &model.Event{
		ID:         "ev-1",
		Title:      "talk",
		College:    "c-1",
		Moderation: model.ModerationApproved,
	}

	cases := []struct {
		name     string
		stub     *stubEvents
		wantCode int
		wantBody string
	}{
		{"claimed", &stubEvents{event: approved}, http.StatusCreated, ""},
		{"full", &stubEvents{event: approved, claimErr: apperr.ErrFull}, http.StatusConflict, "FULL"},
		{"duplicate", &stubEvents{event: approved, claimErr: apperr.ErrAlreadyClaimed}, http.StatusConflict, "ALREADY_CLAIMED"},
		{"missing event", &stubEvents{}, http.StatusNotFound, "NOT_FOUND"},
		{"conflict retry", &stubEvents{event: approved, claimErr: apperr.ErrConflictRetry}, http.StatusConflict, "CONFLICT_RETRY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := registerEndpoint(tc.stub)
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/v1/events/ev-1/register", "application/json", nil)
			if err != nil {
				t.Fatalf("post: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.wantCode {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantCode)
			}
			if tc.wantBody != "" {
				var body ErrorResponse
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body.Code != tc.wantBody {
					t.Fatalf("code = %q, want %q", body.Code, tc.wantBody)
				}
			}
		})
	}
}
