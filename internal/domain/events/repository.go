package events

import (
	"context"
	"time"
)

type Event struct {
	ID            int64
	Title         string
	Description   string
	Location      string
	StartTime     time.Time
	EndTime       time.Time
	Capacity      *int32
	Published     bool
	PublisherID   int64
	AttendeeCount int32
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Full reports whether the event has reached its capacity. Events without
// a capacity are never full.
func (e *Event) Full() bool {
	return e.Capacity != nil && e.AttendeeCount >= *e.Capacity
}

// Attendee is one registration row joined with the attending user.
type Attendee struct {
	UserID       int64
	Username     string
	Email        string
	RegisteredAt time.Time
}

type CreateParams struct {
	Title       string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	Capacity    *int32
	Published   bool
	PublisherID int64
}

// Scope selects which events a listing may see. The zero value is the
// public view: published events only.
type Scope struct {
	All     bool
	OwnerID int64
}

type Repository interface {
	List(ctx context.Context, scope Scope) ([]Event, error)
	GetByID(ctx context.Context, id int64) (*Event, error)
	Create(ctx context.Context, params CreateParams) (*Event, error)
	Update(ctx context.Context, event *Event) (*Event, error)
	Delete(ctx context.Context, id int64) error

	// AddAttendee inserts a registration row as a single atomic step:
	// the published flag, the capacity headroom, and the uniqueness of
	// the (user, event) pair are all checked under one transaction so
	// concurrent registrations cannot overshoot capacity.
	AddAttendee(ctx context.Context, eventID, userID int64) error
	RemoveAttendee(ctx context.Context, eventID, userID int64) error
	ListAttendees(ctx context.Context, eventID int64) ([]Attendee, error)

	ListByOwner(ctx context.Context, ownerID int64) ([]Event, error)
	ListByAttendee(ctx context.Context, userID int64) ([]Event, error)
}
