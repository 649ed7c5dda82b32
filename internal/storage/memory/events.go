package memory

import (
	"context"
	"sort"
	"time"

	"github.com/eventforge/server/internal/domain/events"
)

type eventStore struct {
	repo *Repository
}

var _ events.Repository = (*eventStore)(nil)

func (s *eventStore) List(ctx context.Context, scope events.Scope) ([]events.Event, error) {
	return s.collect(func(e *events.Event) bool {
		return scope.All || e.Published || e.PublisherID == scope.OwnerID
	})
}

func (s *eventStore) GetByID(ctx context.Context, id int64) (*events.Event, error) {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	event, ok := s.repo.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	return s.repo.snapshotEvent(event), nil
}

func (s *eventStore) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	now := time.Now().UTC()
	event := &events.Event{
		ID:          s.repo.nextEventID,
		Title:       params.Title,
		Description: params.Description,
		Location:    params.Location,
		StartTime:   params.StartTime,
		EndTime:     params.EndTime,
		Capacity:    params.Capacity,
		Published:   params.Published,
		PublisherID: params.PublisherID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.repo.nextEventID++
	s.repo.events[event.ID] = event

	return s.repo.snapshotEvent(event), nil
}

func (s *eventStore) Update(ctx context.Context, event *events.Event) (*events.Event, error) {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	stored, ok := s.repo.events[event.ID]
	if !ok {
		return nil, events.ErrNotFound
	}

	stored.Title = event.Title
	stored.Description = event.Description
	stored.Location = event.Location
	stored.StartTime = event.StartTime
	stored.EndTime = event.EndTime
	stored.Capacity = event.Capacity
	stored.Published = event.Published
	stored.UpdatedAt = time.Now().UTC()

	return s.repo.snapshotEvent(stored), nil
}

func (s *eventStore) Delete(ctx context.Context, id int64) error {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	if _, ok := s.repo.events[id]; !ok {
		return events.ErrNotFound
	}
	delete(s.repo.events, id)
	for key := range s.repo.attendances {
		if key.EventID == id {
			delete(s.repo.attendances, key)
		}
	}
	return nil
}

// AddAttendee checks and inserts under the store mutex, so concurrent
// registrations serialize exactly as they do on the database row lock.
func (s *eventStore) AddAttendee(ctx context.Context, eventID, userID int64) error {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	event, ok := s.repo.events[eventID]
	if !ok {
		return events.ErrNotFound
	}
	if !event.Published {
		return events.ErrEventUnpublished
	}
	if _, ok := s.repo.attendances[attendanceKey{UserID: userID, EventID: eventID}]; ok {
		return events.ErrAlreadyRegistered
	}
	if event.Capacity != nil && s.repo.attendeeCount(eventID) >= *event.Capacity {
		return events.ErrEventFull
	}

	s.repo.attendances[attendanceKey{UserID: userID, EventID: eventID}] = time.Now().UTC()
	return nil
}

func (s *eventStore) RemoveAttendee(ctx context.Context, eventID, userID int64) error {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	if _, ok := s.repo.events[eventID]; !ok {
		return events.ErrNotFound
	}
	key := attendanceKey{UserID: userID, EventID: eventID}
	if _, ok := s.repo.attendances[key]; !ok {
		return events.ErrNotRegistered
	}
	delete(s.repo.attendances, key)
	return nil
}

func (s *eventStore) ListAttendees(ctx context.Context, eventID int64) ([]events.Attendee, error) {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	if _, ok := s.repo.events[eventID]; !ok {
		return nil, events.ErrNotFound
	}

	var items []events.Attendee
	for key, registeredAt := range s.repo.attendances {
		if key.EventID != eventID {
			continue
		}
		attendee := events.Attendee{UserID: key.UserID, RegisteredAt: registeredAt}
		if user, ok := s.repo.users[key.UserID]; ok {
			attendee.Username = user.Username
			attendee.Email = user.Email
		}
		items = append(items, attendee)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UserID < items[j].UserID })
	return items, nil
}

func (s *eventStore) ListByOwner(ctx context.Context, ownerID int64) ([]events.Event, error) {
	return s.collect(func(e *events.Event) bool { return e.PublisherID == ownerID })
}

func (s *eventStore) ListByAttendee(ctx context.Context, userID int64) ([]events.Event, error) {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	var items []events.Event
	for id := int64(1); id < s.repo.nextEventID; id++ {
		event, ok := s.repo.events[id]
		if !ok {
			continue
		}
		if _, registered := s.repo.attendances[attendanceKey{UserID: userID, EventID: id}]; registered {
			items = append(items, *s.repo.snapshotEvent(event))
		}
	}
	return items, nil
}

func (s *eventStore) collect(match func(*events.Event) bool) ([]events.Event, error) {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	var items []events.Event
	for id := int64(1); id < s.repo.nextEventID; id++ {
		if event, ok := s.repo.events[id]; ok && match(event) {
			items = append(items, *s.repo.snapshotEvent(event))
		}
	}
	return items, nil
}
