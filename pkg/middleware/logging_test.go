package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestCollapseIDs(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/projects", "/api/projects"},
		{"/api/projects/0b906b93-3bb1-4a32-9fbf-a7c0f387c4c0", "/api/projects/:id"},
		{
			"/api/components/0b906b93-3bb1-4a32-9fbf-a7c0f387c4c0/generate",
			"/api/components/:id/generate",
		},
		{"/health", "/health"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := collapseIDs(tt.path); got != tt.want {
			t.Errorf("collapseIDs(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestRequestLoggerPreservesStatus(t *testing.T) {
	handler := RequestLogger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status to pass through, got %d", rec.Code)
	}
}

func TestRequestLoggerNilLoggerIsPassthrough(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	wrapped := RequestLogger(nil)(inner)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
