package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %s", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", body["status"])
	}
}

func TestJSONNilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusNoContent, nil)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("Expected empty body, got %q", rec.Body.String())
	}
}

func TestSafeErrorPassesValidationErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	SafeError(rec, http.StatusBadRequest, errors.New("target is required"))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["error"] != "target is required" {
		t.Errorf("Expected validation message passed through, got '%s'", body["error"])
	}
}

func TestSafeErrorMasksInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	SafeError(rec, http.StatusBadGateway, errors.New("GET /repos: token ghp_abcdefgh12345678 rejected"))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["error"] != "internal server error" {
		t.Errorf("Expected generic message, got '%s'", body["error"])
	}
}

func TestSafeErrorNilError(t *testing.T) {
	rec := httptest.NewRecorder()
	SafeError(rec, http.StatusInternalServerError, nil)

	if rec.Body.Len() != 0 {
		t.Errorf("Expected no response for nil error, got %q", rec.Body.String())
	}
}
