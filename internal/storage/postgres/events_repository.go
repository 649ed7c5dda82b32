package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventforge/server/internal/domain/events"
	"github.com/jackc/pgx/v5"
)

var _ events.Repository = (*EventRepository)(nil)

// eventColumns joins the attendee count in so every read returns a
// complete aggregate in one round trip.
const eventColumns = `
e.id, e.title, e.description, e.location, e.start_time, e.end_time,
e.capacity, e.is_published, e.publisher_id,
(SELECT count(*) FROM event_attendees a WHERE a.event_id = e.id) AS attendee_count,
e.created_at, e.updated_at`

func (r *EventRepository) List(ctx context.Context, scope events.Scope) ([]events.Event, error) {
	// The owner scope is the publisher view: their own events plus
	// everything published. The zero scope is the public view.
	return r.list(ctx, `
SELECT `+eventColumns+`
  FROM events e
 WHERE $1::boolean OR e.is_published OR e.publisher_id = $2
 ORDER BY e.start_time, e.id`, scope.All, scope.OwnerID)
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO events (title, description, location, start_time, end_time, capacity, is_published, publisher_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+eventColumns,
		params.Title, params.Description, params.Location,
		params.StartTime, params.EndTime, params.Capacity,
		params.Published, params.PublisherID)

	event, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, event *events.Event) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
UPDATE events e
   SET title = $2, description = $3, location = $4, start_time = $5,
       end_time = $6, capacity = $7, is_published = $8, updated_at = now()
 WHERE e.id = $1
RETURNING `+eventColumns,
		event.ID, event.Title, event.Description, event.Location,
		event.StartTime, event.EndTime, event.Capacity, event.Published)

	updated, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	// Attendance rows go with the event via ON DELETE CASCADE.
	tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

// AddAttendee registers a user inside one transaction. The event row is
// locked with SELECT ... FOR UPDATE so two concurrent registrations
// serialize on the capacity check: the second one re-reads the count only
// after the first has committed, and cannot overshoot.
func (r *EventRepository) AddAttendee(ctx context.Context, eventID, userID int64) error {
	if r.tx != nil {
		return r.addAttendee(ctx, r.tx, eventID, userID)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := r.addAttendee(ctx, tx, eventID, userID); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *EventRepository) addAttendee(ctx context.Context, tx pgx.Tx, eventID, userID int64) error {
	var published bool
	var capacity *int32
	err := tx.QueryRow(ctx, `
SELECT is_published, capacity FROM events WHERE id = $1 FOR UPDATE`, eventID).
		Scan(&published, &capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return events.ErrNotFound
		}
		return fmt.Errorf("lock event: %w", err)
	}

	if !published {
		return events.ErrEventUnpublished
	}

	if capacity != nil {
		var count int32
		if err := tx.QueryRow(ctx, `
SELECT count(*) FROM event_attendees WHERE event_id = $1`, eventID).Scan(&count); err != nil {
			return fmt.Errorf("count attendees: %w", err)
		}
		if count >= *capacity {
			return events.ErrEventFull
		}
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO event_attendees (user_id, event_id) VALUES ($1, $2)`, userID, eventID); err != nil {
		if uniqueViolation(err, "") {
			return events.ErrAlreadyRegistered
		}
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

func (r *EventRepository) RemoveAttendee(ctx context.Context, eventID, userID int64) error {
	if _, err := r.GetByID(ctx, eventID); err != nil {
		return err
	}

	tag, err := r.queryer().Exec(ctx, `
DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotRegistered
	}
	return nil
}

func (r *EventRepository) ListAttendees(ctx context.Context, eventID int64) ([]events.Attendee, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT u.id, u.username, u.email, a.registered_at
  FROM event_attendees a
  JOIN users u ON u.id = a.user_id
 WHERE a.event_id = $1
 ORDER BY a.registered_at, u.id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	var items []events.Attendee
	for rows.Next() {
		var attendee events.Attendee
		if err := rows.Scan(&attendee.UserID, &attendee.Username, &attendee.Email, &attendee.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		items = append(items, attendee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendees: %w", err)
	}
	return items, nil
}

func (r *EventRepository) ListByOwner(ctx context.Context, ownerID int64) ([]events.Event, error) {
	return r.list(ctx, `
SELECT `+eventColumns+`
  FROM events e
 WHERE e.publisher_id = $1
 ORDER BY e.start_time, e.id`, ownerID)
}

func (r *EventRepository) ListByAttendee(ctx context.Context, userID int64) ([]events.Event, error) {
	return r.list(ctx, `
SELECT `+eventColumns+`
  FROM events e
  JOIN event_attendees a ON a.event_id = e.id
 WHERE a.user_id = $1
 ORDER BY e.start_time, e.id`, userID)
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var items []events.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var event events.Event
	var count int64
	if err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Location,
		&event.StartTime,
		&event.EndTime,
		&event.Capacity,
		&event.Published,
		&event.PublisherID,
		&count,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return nil, err
	}
	event.AttendeeCount = int32(count)
	return &event, nil
}
