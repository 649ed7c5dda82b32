package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eventforge/server/internal/api/middleware"
	"github.com/eventforge/server/internal/api/problem"
	"github.com/eventforge/server/internal/auth"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathID(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(key))
	if raw == "" {
		return 0, errors.New("missing " + key)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return id, nil
}

// decodeAndValidate decodes a JSON request body into dst and runs
// struct validation. Unknown fields are rejected so typos surface as
// errors instead of silently dropped input.
func decodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

func identity(r *http.Request) *auth.Identity {
	return middleware.IdentityFrom(r.Context())
}

// writeValidation renders a 400 for malformed bodies and failed field
// validation.
func writeValidation(w http.ResponseWriter, r *http.Request, err error, env string) {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		first := fields[0]
		err = errors.New("invalid " + strings.ToLower(first.Field()) + ": failed " + first.Tag() + " check")
	}
	problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env)
}
