package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/eventforge/server/internal/api/problem"
	"github.com/eventforge/server/internal/domain/events"
	"github.com/eventforge/server/internal/metrics"
)

type EventsHandler struct {
	Service *events.Service
	Env     string
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

type eventResponse struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Capacity      *int32    `json:"capacity"`
	Published     bool      `json:"is_published"`
	PublisherID   int64     `json:"publisher_id"`
	AttendeeCount int32     `json:"attendee_count"`
	Full          bool      `json:"is_full"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newEventResponse(e *events.Event) eventResponse {
	return eventResponse{
		ID:            e.ID,
		Title:         e.Title,
		Description:   e.Description,
		Location:      e.Location,
		StartTime:     e.StartTime,
		EndTime:       e.EndTime,
		Capacity:      e.Capacity,
		Published:     e.Published,
		PublisherID:   e.PublisherID,
		AttendeeCount: e.AttendeeCount,
		Full:          e.Full(),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func newEventListResponse(items []events.Event) map[string]any {
	out := make([]eventResponse, 0, len(items))
	for i := range items {
		out = append(out, newEventResponse(&items[i]))
	}
	return map[string]any{"items": out}
}

type createEventRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"required"`
	Location    string    `json:"location" validate:"required,max=200"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	Capacity    *int32    `json:"capacity" validate:"omitempty,min=0"`
	Published   bool      `json:"is_published"`
}

// updateEventRequest distinguishes absent fields from explicit nulls.
// Capacity stays a raw message because "capacity": null means "remove
// the limit", which a plain pointer cannot express.
type updateEventRequest struct {
	Title       *string         `json:"title" validate:"omitempty,max=200"`
	Description *string         `json:"description"`
	Location    *string         `json:"location" validate:"omitempty,max=200"`
	StartTime   *time.Time      `json:"start_time"`
	EndTime     *time.Time      `json:"end_time"`
	Capacity    json.RawMessage `json:"capacity"`
	Published   *bool           `json:"is_published"`
}

var jsonNull = []byte("null")

func (req *updateEventRequest) toInput() (events.UpdateInput, error) {
	input := events.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Published:   req.Published,
	}
	switch {
	case len(req.Capacity) == 0:
		// field absent, keep stored value
	case bytes.Equal(bytes.TrimSpace(req.Capacity), jsonNull):
		input.ClearCapacity = true
	default:
		var capacity int32
		if err := json.Unmarshal(req.Capacity, &capacity); err != nil {
			return events.UpdateInput{}, events.ValidationError{Field: "capacity", Message: "must be an integer or null"}
		}
		input.Capacity = &capacity
	}
	return input, nil
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context(), identity(r))
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, newEventListResponse(items))
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	event, err := h.Service.Get(r.Context(), id, identity(r))
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEventResponse(event))
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidation(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Create(r.Context(), events.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.Capacity,
		Published:   req.Published,
	}, identity(r))
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newEventResponse(event))
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	var req updateEventRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidation(w, r, err, h.Env)
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeValidation(w, r, err, h.Env)
		return
	}

	event, err := h.Service.Update(r.Context(), id, input, identity(r))
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEventResponse(event))
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	if err := h.Service.Delete(r.Context(), id, identity(r)); err != nil {
		h.writeEventError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EventsHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	if err := h.Service.Register(r.Context(), id, identity(r)); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registrationOutcome(err)).Inc()
		h.writeEventError(w, r, err)
		return
	}

	metrics.RegistrationsTotal.WithLabelValues("registered").Inc()
	writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

func (h *EventsHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	if err := h.Service.Unregister(r.Context(), id, identity(r)); err != nil {
		h.writeEventError(w, r, err)
		return
	}

	metrics.RegistrationsTotal.WithLabelValues("unregistered").Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (h *EventsHandler) Attendees(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	attendees, err := h.Service.Attendees(r.Context(), id, identity(r))
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	type attendeeResponse struct {
		UserID       int64     `json:"user_id"`
		Username     string    `json:"username"`
		Email        string    `json:"email"`
		RegisteredAt time.Time `json:"registered_at"`
	}
	items := make([]attendeeResponse, 0, len(attendees))
	for _, a := range attendees {
		items = append(items, attendeeResponse{
			UserID:       a.UserID,
			Username:     a.Username,
			Email:        a.Email,
			RegisteredAt: a.RegisteredAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Mine lists the caller's own events, drafts included.
func (h *EventsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListOwned(r.Context(), identity(r))
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEventListResponse(items))
}

// Registrations lists the events the caller is signed up for.
func (h *EventsHandler) Registrations(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListRegistrations(r.Context(), identity(r))
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEventListResponse(items))
}

func registrationOutcome(err error) string {
	switch {
	case errors.Is(err, events.ErrEventFull):
		return "full"
	case errors.Is(err, events.ErrAlreadyRegistered):
		return "duplicate"
	default:
		return "error"
	}
}

func (h *EventsHandler) writeEventError(w http.ResponseWriter, r *http.Request, err error) {
	var validation events.ValidationError
	switch {
	case errors.As(err, &validation):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
	case errors.Is(err, events.ErrForbidden):
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Insufficient permissions", err, h.Env)
	case errors.Is(err, events.ErrEventFull):
		problem.Write(w, r, http.StatusConflict, problem.TypeCapacity, "Event is full", err, h.Env)
	case errors.Is(err, events.ErrAlreadyRegistered):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Already registered", err, h.Env)
	case errors.Is(err, events.ErrEventUnpublished):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Event is not published", err, h.Env)
	case errors.Is(err, events.ErrNotRegistered):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Not registered", err, h.Env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
	}
}
