package problem

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteDevelopmentEchoesDetail(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/v1/events/1", nil)

	Write(recorder, request, http.StatusNotFound, TypeNotFound, "Not found", errors.New("event not found"), "development")

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if got := recorder.Header().Get("Content-Type"); got != contentType {
		t.Fatalf("unexpected content type: %s", got)
	}

	var details ProblemDetails
	if err := json.Unmarshal(recorder.Body.Bytes(), &details); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if details.Detail != "event not found" {
		t.Fatalf("expected detail to be echoed, got %q", details.Detail)
	}
	if details.Instance != "/api/v1/events/1" {
		t.Fatalf("unexpected instance: %s", details.Instance)
	}
}

func TestWriteProductionMasksDetail(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)

	Write(recorder, request, http.StatusUnauthorized, TypeUnauthorized, "Unauthorized", errors.New("signature mismatch"), "production")

	var details ProblemDetails
	if err := json.Unmarshal(recorder.Body.Bytes(), &details); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if details.Detail != http.StatusText(http.StatusUnauthorized) {
		t.Fatalf("detail leaked in production: %q", details.Detail)
	}
}
