package events_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventforge/server/internal/auth"
	"github.com/eventforge/server/internal/domain/events"
	"github.com/eventforge/server/internal/domain/users"
	"github.com/eventforge/server/internal/storage/memory"
)

type fixture struct {
	store     *memory.Repository
	service   *events.Service
	admin     *auth.Identity
	publisher *auth.Identity
	attendee  *auth.Identity
	attendee2 *auth.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewRepository()

	f := &fixture{
		store:   store,
		service: events.NewService(store.Events()),
	}
	f.admin = createUser(t, store, "root", auth.RoleAdmin)
	f.publisher = createUser(t, store, "alice", auth.RolePublisher)
	f.attendee = createUser(t, store, "bob", auth.RoleUser)
	f.attendee2 = createUser(t, store, "carol", auth.RoleUser)
	return f
}

func createUser(t *testing.T, store *memory.Repository, username string, role auth.Role) *auth.Identity {
	t.Helper()
	user, err := store.Users().Create(context.Background(), users.CreateParams{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
	})
	require.NoError(t, err)
	return user.Identity()
}

func validInput() events.CreateInput {
	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	return events.CreateInput{
		Title:       "Go meetup",
		Description: "Monthly meetup",
		Location:    "Community hall",
		StartTime:   start,
		EndTime:     start.Add(2 * time.Hour),
		Published:   true,
	}
}

func (f *fixture) createEvent(t *testing.T, input events.CreateInput, owner *auth.Identity) *events.Event {
	t.Helper()
	event, err := f.service.Create(context.Background(), input, owner)
	require.NoError(t, err)
	return event
}

func TestCreateRequiresManagerRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Create(context.Background(), validInput(), f.attendee)
	assert.ErrorIs(t, err, events.ErrForbidden)

	_, err = f.service.Create(context.Background(), validInput(), nil)
	assert.ErrorIs(t, err, events.ErrForbidden)
}

func TestCreateRejectsReversedTimes(t *testing.T) {
	f := newFixture(t)
	input := validInput()
	input.StartTime = input.EndTime.Add(time.Hour)

	_, err := f.service.Create(context.Background(), input, f.publisher)
	var verr events.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "end_time", verr.Field)
}

func TestCreateRejectsEqualTimes(t *testing.T) {
	f := newFixture(t)
	input := validInput()
	input.EndTime = input.StartTime

	_, err := f.service.Create(context.Background(), input, f.publisher)
	assert.Error(t, err)
}

func TestCreateRejectsNegativeCapacity(t *testing.T) {
	f := newFixture(t)
	input := validInput()
	capacity := int32(-1)
	input.Capacity = &capacity

	_, err := f.service.Create(context.Background(), input, f.publisher)
	var verr events.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "capacity", verr.Field)
}

func TestCreateSetsOwner(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, validInput(), f.publisher)
	assert.Equal(t, f.publisher.UserID, event.PublisherID)
}

func TestListVisibility(t *testing.T) {
	f := newFixture(t)
	published := validInput()
	f.createEvent(t, published, f.publisher)

	draft := validInput()
	draft.Title = "Draft event"
	draft.Published = false
	f.createEvent(t, draft, f.publisher)

	otherDraft := validInput()
	otherDraft.Title = "Admin draft"
	otherDraft.Published = false
	f.createEvent(t, otherDraft, f.admin)

	ctx := context.Background()

	anonymous, err := f.service.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, anonymous, 1)

	regular, err := f.service.List(ctx, f.attendee)
	require.NoError(t, err)
	assert.Len(t, regular, 1)

	publisherView, err := f.service.List(ctx, f.publisher)
	require.NoError(t, err)
	assert.Len(t, publisherView, 2)

	adminView, err := f.service.List(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, adminView, 3)
}

func TestGetMasksUnpublished(t *testing.T) {
	f := newFixture(t)
	draft := validInput()
	draft.Published = false
	event := f.createEvent(t, draft, f.publisher)

	ctx := context.Background()

	// Owner and admin see the draft.
	got, err := f.service.Get(ctx, event.ID, f.publisher)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)

	_, err = f.service.Get(ctx, event.ID, f.admin)
	require.NoError(t, err)

	// Everyone else gets not-found, never forbidden.
	_, err = f.service.Get(ctx, event.ID, f.attendee)
	assert.ErrorIs(t, err, events.ErrNotFound)

	_, err = f.service.Get(ctx, event.ID, nil)
	assert.ErrorIs(t, err, events.ErrNotFound)

	other := createUser(t, f.store, "dave", auth.RolePublisher)
	_, err = f.service.Get(ctx, event.ID, other)
	assert.ErrorIs(t, err, events.ErrNotFound)
}

func TestGetUnknownEvent(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Get(context.Background(), 999, f.admin)
	assert.ErrorIs(t, err, events.ErrNotFound)
}

func TestUpdateOwnership(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, validInput(), f.publisher)
	ctx := context.Background()

	title := "Renamed"
	_, err := f.service.Update(ctx, event.ID, events.UpdateInput{Title: &title}, f.attendee)
	assert.ErrorIs(t, err, events.ErrForbidden)

	other := createUser(t, f.store, "dave", auth.RolePublisher)
	_, err = f.service.Update(ctx, event.ID, events.UpdateInput{Title: &title}, other)
	assert.ErrorIs(t, err, events.ErrForbidden)

	updated, err := f.service.Update(ctx, event.ID, events.UpdateInput{Title: &title}, f.admin)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
}

func TestUpdateRevalidatesMergedTimes(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, validInput(), f.publisher)
	ctx := context.Background()

	// Moving only the start time past the stored end time must fail even
	// though the new value is internally well-formed.
	badStart := event.EndTime.Add(time.Hour)
	_, err := f.service.Update(ctx, event.ID, events.UpdateInput{StartTime: &badStart}, f.publisher)
	var verr events.ValidationError
	require.ErrorAs(t, err, &verr)

	// Moving both together succeeds.
	newStart := event.EndTime.Add(time.Hour)
	newEnd := newStart.Add(time.Hour)
	updated, err := f.service.Update(ctx, event.ID, events.UpdateInput{StartTime: &newStart, EndTime: &newEnd}, f.publisher)
	require.NoError(t, err)
	assert.True(t, updated.StartTime.Before(updated.EndTime))
}

func TestUpdateClearCapacity(t *testing.T) {
	f := newFixture(t)
	input := validInput()
	capacity := int32(5)
	input.Capacity = &capacity
	event := f.createEvent(t, input, f.publisher)

	updated, err := f.service.Update(context.Background(), event.ID, events.UpdateInput{ClearCapacity: true}, f.publisher)
	require.NoError(t, err)
	assert.Nil(t, updated.Capacity)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, validInput(), f.publisher)
	ctx := context.Background()

	require.NoError(t, f.service.Register(ctx, event.ID, f.attendee))

	assert.ErrorIs(t, f.service.Delete(ctx, event.ID, f.attendee), events.ErrForbidden)
	require.NoError(t, f.service.Delete(ctx, event.ID, f.publisher))

	_, err := f.service.Get(ctx, event.ID, f.admin)
	assert.ErrorIs(t, err, events.ErrNotFound)

	// Attendance rows are gone with the event.
	regs, err := f.service.ListRegistrations(ctx, f.attendee)
	require.NoError(t, err)
	assert.Empty(t, regs)
}

func TestRegisterRejectsManagers(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, validInput(), f.publisher)
	ctx := context.Background()

	assert.ErrorIs(t, f.service.Register(ctx, event.ID, f.publisher), events.ErrForbidden)
	assert.ErrorIs(t, f.service.Register(ctx, event.ID, f.admin), events.ErrForbidden)
	assert.ErrorIs(t, f.service.Register(ctx, event.ID, nil), events.ErrForbidden)
}

func TestRegisterRejectsUnpublished(t *testing.T) {
	f := newFixture(t)
	draft := validInput()
	draft.Published = false
	event := f.createEvent(t, draft, f.publisher)

	// drafts are invisible to would-be attendees, so the error must not
	// reveal that the event exists
	assert.ErrorIs(t, f.service.Register(context.Background(), event.ID, f.attendee), events.ErrNotFound)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, validInput(), f.publisher)
	ctx := context.Background()

	require.NoError(t, f.service.Register(ctx, event.ID, f.attendee))
	assert.ErrorIs(t, f.service.Register(ctx, event.ID, f.attendee), events.ErrAlreadyRegistered)
}

func TestRegisterRejectsFullEvent(t *testing.T) {
	f := newFixture(t)
	input := validInput()
	capacity := int32(1)
	input.Capacity = &capacity
	event := f.createEvent(t, input, f.publisher)
	ctx := context.Background()

	require.NoError(t, f.service.Register(ctx, event.ID, f.attendee))
	assert.ErrorIs(t, f.service.Register(ctx, event.ID, f.attendee2), events.ErrEventFull)
}

func TestRegisterUnregisterRoundTrip(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, validInput(), f.publisher)
	ctx := context.Background()

	require.NoError(t, f.service.Register(ctx, event.ID, f.attendee))
	require.NoError(t, f.service.Unregister(ctx, event.ID, f.attendee))
	require.NoError(t, f.service.Register(ctx, event.ID, f.attendee))

	attendees, err := f.service.Attendees(ctx, event.ID, f.publisher)
	require.NoError(t, err)
	require.Len(t, attendees, 1)
	assert.Equal(t, f.attendee.UserID, attendees[0].UserID)
}

func TestUnregisterWhenNotRegistered(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, validInput(), f.publisher)

	err := f.service.Unregister(context.Background(), event.ID, f.attendee)
	assert.ErrorIs(t, err, events.ErrNotRegistered)
}

func TestAttendeesOwnerOrAdminOnly(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, validInput(), f.publisher)
	ctx := context.Background()

	require.NoError(t, f.service.Register(ctx, event.ID, f.attendee))

	_, err := f.service.Attendees(ctx, event.ID, f.attendee)
	assert.ErrorIs(t, err, events.ErrForbidden)

	attendees, err := f.service.Attendees(ctx, event.ID, f.admin)
	require.NoError(t, err)
	assert.Len(t, attendees, 1)
}

func TestListOwnedAndRegistrations(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, validInput(), f.publisher)
	ctx := context.Background()

	_, err := f.service.ListOwned(ctx, f.attendee)
	assert.ErrorIs(t, err, events.ErrForbidden)

	owned, err := f.service.ListOwned(ctx, f.publisher)
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	require.NoError(t, f.service.Register(ctx, event.ID, f.attendee))
	regs, err := f.service.ListRegistrations(ctx, f.attendee)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, event.ID, regs[0].ID)
}

func TestConcurrentRegistrationRespectsCapacity(t *testing.T) {
	f := newFixture(t)
	input := validInput()
	capacity := int32(1)
	input.Capacity = &capacity
	event := f.createEvent(t, input, f.publisher)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, identity := range []*auth.Identity{f.attendee, f.attendee2} {
		wg.Add(1)
		go func(i int, identity *auth.Identity) {
			defer wg.Done()
			errs[i] = f.service.Register(ctx, event.ID, identity)
		}(i, identity)
	}
	wg.Wait()

	var successes, full int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, events.ErrEventFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, full)

	got, err := f.service.Get(ctx, event.ID, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int32(1), got.AttendeeCount)
}
