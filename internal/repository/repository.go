// Package repository implements all database queries for the platform.
// It uses pgx directly (no ORM) for transparency and performance.
//
// The claim sites (event registration, project application, application
// acceptance) run their read-check-write sequences inside transactions;
// capacity-bounded ones at serializable isolation. Uniqueness of
// admission records is enforced by database constraints, with SQLSTATE
// 23505 translated to apperr.ErrAlreadyClaimed.
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

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, description, author_id, college, moderation_status,
	capacity, visible_departments, registration_ends, starts_at, created_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.AuthorID, &e.College,
		&e.Moderation, &e.Capacity, &e.VisibleDepartments, &e.RegistrationEnds,
		&e.StartsAt, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	return &e, nil
}

// Create inserts a new event and returns it with a generated UUID.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) (*model.Event, error) {
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now().UTC()
	if e.VisibleDepartments == nil {
		e.VisibleDepartments = []string{}
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.Title, e.Description, e.AuthorID, e.College, e.Moderation,
		e.Capacity, e.VisibleDepartments, e.RegistrationEnds, e.StartsAt, e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return e, nil
}

// ListApproved returns approved events in a college ordered by start time.
func (r *EventRepository) ListApproved(ctx context.Context, college string) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 WHERE college = $1 AND moderation_status = $2
		 ORDER BY starts_at ASC`,
		college, model.ModerationApproved,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetByID returns a single event or apperr.ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

// Update rewrites the mutable fields of an event.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET title = $1, description = $2, capacity = $3, registration_ends = $4
		 WHERE id = $5`,
		e.Title, e.Description, e.Capacity, e.RegistrationEnds, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// SetModeration transitions a pending event to approved or rejected.
// Only the pending state permits a transition.
func (r *EventRepository) SetModeration(ctx context.Context, id string, status model.ModerationStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET moderation_status = $1
		 WHERE id = $2 AND moderation_status = $3`,
		status, id, model.ModerationPending,
	)
	if err != nil {
		return fmt.Errorf("moderate event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("event %s is not pending: %w", id, apperr.ErrInvalidState)
	}
	return nil
}

// Delete removes an event; registrations cascade.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool, log *slog.Logger) *RegistrationRepository {
	return &RegistrationRepository{db: db, log: log}
}

// Claim admits a student onto an event inside a serializable transaction.
//
// Two concurrent claims can each count capacity-1 registrations under
// weaker isolation and both insert, oversubscribing the event; at
// serializable isolation the database aborts one of them instead, and
// the helper retries it once on a fresh snapshot.
//
// The duplicate check runs before the capacity guard so a requester who
// already holds a slot on a now-full event hears AlreadyClaimed, not
// Full. The unique constraint on (event_id, student_id) backstops the
// check against races the read cannot see.
func (r *RegistrationRepository) Claim(ctx context.Context, eventID, studentID string) (*model.Registration, error) {
	var reg *model.Registration
	err := database.InSerializableTx(ctx, r.db, r.log, func(tx pgx.Tx) error {
		var capacity *int
		err := tx.QueryRow(ctx,
			`SELECT capacity FROM events WHERE id = $1`, eventID,
		).Scan(&capacity)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.ErrNotFound
			}
			return fmt.Errorf("read event capacity: %w", err)
		}

		var dup int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND student_id = $2`,
			eventID, studentID,
		).Scan(&dup)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if dup > 0 {
			return apperr.ErrAlreadyClaimed
		}

		if capacity != nil {
			var admitted int
			err = tx.QueryRow(ctx,
				`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID,
			).Scan(&admitted)
			if err != nil {
				return fmt.Errorf("count registrations: %w", err)
			}
			if admitted >= *capacity {
				return apperr.ErrFull
			}
		}

		reg = &model.Registration{
			ID:        uuid.New().String(),
			EventID:   eventID,
			StudentID: studentID,
			CreatedAt: time.Now().UTC(),
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO registrations (id, event_id, student_id, created_at)
			 VALUES ($1, $2, $3, $4)`,
			reg.ID, reg.EventID, reg.StudentID, reg.CreatedAt,
		)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.ErrAlreadyClaimed
			}
			return fmt.Errorf("insert registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// ListByEvent returns all registrations for a given event.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, student_id, created_at
		 FROM registrations
		 WHERE event_id = $1
		 ORDER BY created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.StudentID, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
