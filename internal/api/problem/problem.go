// Package problem writes RFC 7807 application/problem+json responses.
// Detail text is only echoed back in development and test environments;
// production callers get the bare status text so internal state and the
// exact reason an auth check failed are never leaked.
package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

// Problem type URIs used across the API.
const (
	TypeValidation   = "https://eventforge.dev/problems/validation-error"
	TypeUnauthorized = "https://eventforge.dev/problems/unauthorized"
	TypeForbidden    = "https://eventforge.dev/problems/forbidden"
	TypeNotFound     = "https://eventforge.dev/problems/not-found"
	TypeConflict     = "https://eventforge.dev/problems/conflict"
	TypeCapacity     = "https://eventforge.dev/problems/capacity-exceeded"
	TypeServerError  = "https://eventforge.dev/problems/server-error"
)

type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string) {
	details := ProblemDetails{
		Type:   typ,
		Title:  title,
		Status: status,
	}

	if err != nil {
		if env == "development" || env == "test" {
			details.Detail = err.Error()
		} else {
			details.Detail = http.StatusText(status)
		}
	}

	if r != nil {
		details.Instance = r.URL.Path

		if err != nil && status >= 500 {
			logger := zerolog.Ctx(r.Context())
			logger.Error().
				Err(err).
				Int("status", status).
				Str("type", typ).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg(title)
		} else if err != nil && status >= 400 {
			logger := zerolog.Ctx(r.Context())
			logger.Warn().
				Err(err).
				Int("status", status).
				Str("type", typ).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg(title)
		}
	}

	WriteProblem(w, details)
}

func WriteProblem(w http.ResponseWriter, details ProblemDetails) {
	payload, err := json.Marshal(details)
	if err != nil {
		fallback := fmt.Sprintf("{\"type\":\"about:blank\",\"title\":\"%s\",\"status\":500}", http.StatusText(http.StatusInternalServerError))
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallback))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(details.Status)
	_, _ = w.Write(payload)
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
