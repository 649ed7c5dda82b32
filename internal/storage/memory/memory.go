// Package memory is an in-memory implementation of the storage aggregate.
// It backs unit and handler tests that do not need a database; the same
// mutex that guards the maps also serializes the registration capacity
// check, mirroring the row lock the postgres implementation takes.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/eventforge/server/internal/domain/events"
	"github.com/eventforge/server/internal/domain/users"
	"github.com/eventforge/server/internal/storage"
)

var _ storage.Repository = (*Repository)(nil)

type Repository struct {
	mu          sync.Mutex
	users       map[int64]*users.User
	events      map[int64]*events.Event
	attendances map[attendanceKey]time.Time
	nextUserID  int64
	nextEventID int64
}

type attendanceKey struct {
	UserID  int64
	EventID int64
}

func NewRepository() *Repository {
	return &Repository{
		users:       make(map[int64]*users.User),
		events:      make(map[int64]*events.Event),
		attendances: make(map[attendanceKey]time.Time),
		nextUserID:  1,
		nextEventID: 1,
	}
}

func (r *Repository) Users() users.Repository {
	return &userStore{repo: r}
}

func (r *Repository) Events() events.Repository {
	return &eventStore{repo: r}
}

// WithTx runs fn under the store mutex-free aggregate. There is no real
// transaction to roll back; callers get atomicity only per operation,
// which is all the tests need.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, storage.Repository) error) error {
	return fn(ctx, r)
}

func (r *Repository) attendeeCount(eventID int64) int32 {
	var count int32
	for key := range r.attendances {
		if key.EventID == eventID {
			count++
		}
	}
	return count
}

// snapshotEvent copies an event with its current attendee count so callers
// cannot mutate stored state through the returned pointer.
func (r *Repository) snapshotEvent(event *events.Event) *events.Event {
	copied := *event
	copied.AttendeeCount = r.attendeeCount(event.ID)
	return &copied
}
