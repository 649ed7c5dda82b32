package handlers

import (
	"errors"
	"net/http"

	"github.com/eventforge/server/internal/api/problem"
	"github.com/eventforge/server/internal/auth"
	"github.com/eventforge/server/internal/domain/users"
)

type UsersHandler struct {
	Service *users.Service
	Env     string
}

func NewUsersHandler(service *users.Service, env string) *UsersHandler {
	return &UsersHandler{Service: service, Env: env}
}

// List returns every account. Admin only; the route guard enforces it.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Service.List(r.Context())
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	items := make([]userResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, newUserResponse(&accounts[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Get returns one account. Users can read themselves; admins can read
// anyone.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	caller := identity(r)
	if caller == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, h.Env)
		return
	}
	if caller.UserID != id && caller.Role != auth.RoleAdmin {
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Insufficient permissions", problem.ErrForbidden, h.Env)
		return
	}

	user, err := h.Service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}

// ListPublishers returns accounts that can own events. Admin only.
func (h *UsersHandler) ListPublishers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Service.ListPublishers(r.Context())
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	items := make([]userResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, newUserResponse(&accounts[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// CreatePublisher provisions a publisher account. Admin only.
func (h *UsersHandler) CreatePublisher(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidation(w, r, err, h.Env)
		return
	}

	user, err := h.Service.CreatePublisher(r.Context(), users.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrUsernameTaken), errors.Is(err, users.ErrEmailTaken):
			problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Account already exists", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		}
		return
	}

	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// ChangeRole sets a user's role. Admin only. Demoting yourself is
// rejected so the system cannot end up without an admin by accident.
func (h *UsersHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	var req changeRoleRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeValidation(w, r, err, h.Env)
		return
	}

	role, err := auth.ParseRole(req.Role)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	user, err := h.Service.ChangeRole(r.Context(), identity(r), id, role)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrSelfRevocation):
			problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Cannot revoke own privileges", err, h.Env)
		case errors.Is(err, users.ErrRoleUnchanged):
			problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Role unchanged", err, h.Env)
		case errors.Is(err, users.ErrNotFound):
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		}
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}
