package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/eventforge/server/internal/auth"
)

// Service enforces event visibility, capacity, and registration rules.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the events visible to the caller: anonymous callers and
// regular users see published events, publishers additionally see their
// own drafts, admins see everything.
func (s *Service) List(ctx context.Context, identity *auth.Identity) ([]Event, error) {
	scope := Scope{}
	if identity != nil {
		switch {
		case identity.Role == auth.RoleAdmin:
			scope.All = true
		case identity.Role == auth.RolePublisher:
			scope.OwnerID = identity.UserID
		}
	}
	return s.repo.List(ctx, scope)
}

// Get returns one event. An unpublished event is visible only to its
// owner or an admin; everyone else gets ErrNotFound so its existence is
// not leaked.
func (s *Service) Get(ctx context.Context, id int64, identity *auth.Identity) (*Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.Published && !canManage(event, identity) {
		return nil, ErrNotFound
	}
	return event, nil
}

type CreateInput struct {
	Title       string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	Capacity    *int32
	Published   bool
}

func (s *Service) Create(ctx context.Context, input CreateInput, identity *auth.Identity) (*Event, error) {
	if identity == nil || !identity.Role.IsManager() {
		return nil, ErrForbidden
	}
	if err := validateFields(input.Title, input.Description, input.Location); err != nil {
		return nil, err
	}
	if err := validateTimes(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}
	if err := validateCapacity(input.Capacity); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, CreateParams{
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Capacity:    input.Capacity,
		Published:   input.Published,
		PublisherID: identity.UserID,
	})
}

// UpdateInput carries a partial update. Nil fields keep their stored
// value; ClearCapacity removes the capacity limit entirely.
type UpdateInput struct {
	Title         *string
	Description   *string
	Location      *string
	StartTime     *time.Time
	EndTime       *time.Time
	Capacity      *int32
	ClearCapacity bool
	Published     *bool
}

// Update merges the provided fields onto the stored event and re-validates
// invariants against the merged result, then persists it as one atomic
// replacement.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput, identity *auth.Identity) (*Event, error) {
	event, err := s.Get(ctx, id, identity)
	if err != nil {
		return nil, err
	}
	if !canManage(event, identity) {
		return nil, ErrForbidden
	}

	merged := *event
	if input.Title != nil {
		merged.Title = *input.Title
	}
	if input.Description != nil {
		merged.Description = *input.Description
	}
	if input.Location != nil {
		merged.Location = *input.Location
	}
	if input.StartTime != nil {
		merged.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		merged.EndTime = *input.EndTime
	}
	if input.ClearCapacity {
		merged.Capacity = nil
	} else if input.Capacity != nil {
		merged.Capacity = input.Capacity
	}
	if input.Published != nil {
		merged.Published = *input.Published
	}

	if err := validateFields(merged.Title, merged.Description, merged.Location); err != nil {
		return nil, err
	}
	if err := validateTimes(merged.StartTime, merged.EndTime); err != nil {
		return nil, err
	}
	if err := validateCapacity(merged.Capacity); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, &merged)
}

func (s *Service) Delete(ctx context.Context, id int64, identity *auth.Identity) error {
	event, err := s.Get(ctx, id, identity)
	if err != nil {
		return err
	}
	if !canManage(event, identity) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// Register signs the caller up for an event. Publishers and admins manage
// events rather than attend them, so they are rejected outright. All
// storage-level invariants (published, capacity, uniqueness) are checked
// atomically by the repository.
func (s *Service) Register(ctx context.Context, eventID int64, identity *auth.Identity) error {
	if identity == nil {
		return ErrForbidden
	}
	if identity.Role.IsManager() {
		return ErrForbidden
	}
	if err := s.repo.AddAttendee(ctx, eventID, identity.UserID); err != nil {
		// registrants never own the event, so a draft must stay invisible
		if errors.Is(err, ErrEventUnpublished) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) Unregister(ctx context.Context, eventID int64, identity *auth.Identity) error {
	if identity == nil {
		return ErrForbidden
	}
	return s.repo.RemoveAttendee(ctx, eventID, identity.UserID)
}

// Attendees lists registrations for an event; owner or admin only.
func (s *Service) Attendees(ctx context.Context, eventID int64, identity *auth.Identity) ([]Attendee, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !canManage(event, identity) {
		return nil, ErrForbidden
	}
	return s.repo.ListAttendees(ctx, eventID)
}

// ListOwned returns the caller's own events, drafts included.
func (s *Service) ListOwned(ctx context.Context, identity *auth.Identity) ([]Event, error) {
	if identity == nil || !identity.Role.IsManager() {
		return nil, ErrForbidden
	}
	return s.repo.ListByOwner(ctx, identity.UserID)
}

// ListRegistrations returns the events the caller is registered for.
func (s *Service) ListRegistrations(ctx context.Context, identity *auth.Identity) ([]Event, error) {
	if identity == nil {
		return nil, ErrForbidden
	}
	return s.repo.ListByAttendee(ctx, identity.UserID)
}

func canManage(event *Event, identity *auth.Identity) bool {
	if identity == nil {
		return false
	}
	return identity.Role == auth.RoleAdmin || event.PublisherID == identity.UserID
}

func validateFields(title, description, location string) error {
	if strings.TrimSpace(title) == "" {
		return ValidationError{Field: "title", Message: "must not be empty"}
	}
	if strings.TrimSpace(description) == "" {
		return ValidationError{Field: "description", Message: "must not be empty"}
	}
	if strings.TrimSpace(location) == "" {
		return ValidationError{Field: "location", Message: "must not be empty"}
	}
	return nil
}

func validateTimes(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return ValidationError{Field: "start_time", Message: "start and end times are required"}
	}
	if !start.Before(end) {
		return ValidationError{Field: "end_time", Message: "must be after start_time"}
	}
	return nil
}

func validateCapacity(capacity *int32) error {
	if capacity != nil && *capacity < 0 {
		return ValidationError{Field: "capacity", Message: "must be a non-negative integer"}
	}
	return nil
}
