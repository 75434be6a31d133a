package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/dashboard"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "latest_log.csv")
	if err := os.WriteFile(path, []byte("ts,event_type,details\n2024-01-01T10:00:00,panic,PANIC\n"), 0o644); err != nil {
		t.Fatalf("failed to write mirror: %v", err)
	}
	cfg := &config.Config{Web: config.WebConfig{Host: "127.0.0.1", Port: 0}}
	return NewServer(cfg, dashboard.NewReader(path))
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		path        string
		status      int
		contentType string
	}{
		{"/api/v1/health", http.StatusOK, "application/json"},
		{"/api/v1/data", http.StatusOK, "application/json"},
		{"/data", http.StatusOK, "application/json"},
		{"/api/v1/stats", http.StatusOK, "application/json"},
		{"/", http.StatusOK, "text/html; charset=utf-8"},
		{"/favicon.ico", http.StatusNoContent, ""},
		{"/api/v1/photos", http.StatusNotFound, "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			if tt.contentType != "" && rec.Header().Get("Content-Type") != tt.contentType {
				t.Errorf("expected Content-Type %q, got %q", tt.contentType, rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestDataRoutesAgree(t *testing.T) {
	s := newTestServer(t)

	get := func(path string) []map[string]any {
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		var rows []map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
			t.Fatalf("invalid JSON from %s: %v", path, err)
		}
		return rows
	}

	legacy, versioned := get("/data"), get("/api/v1/data")
	if len(legacy) != 1 || len(versioned) != 1 || legacy[0]["Name"] != versioned[0]["Name"] {
		t.Errorf("routes disagree: %v vs %v", legacy, versioned)
	}
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(rec.Body.String(), "/api/v1/stats") {
		t.Error("expected dashboard page to poll the stats endpoint")
	}
}
