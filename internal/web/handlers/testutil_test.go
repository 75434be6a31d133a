package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kozaktomas/facegate/internal/dashboard"
)

// writeMirror writes a mirror file with the log header followed by rows
func writeMirror(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "latest_log.csv")
	content := "ts,event_type,details\n"
	for _, row := range rows {
		content += row + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write mirror: %v", err)
	}
	return path
}

// newTestDashboardHandler creates a handler over the given rows with caching disabled
func newTestDashboardHandler(t *testing.T, rows ...string) (*DashboardHandler, string) {
	t.Helper()
	path := writeMirror(t, rows...)
	h := NewDashboardHandler(dashboard.NewReader(path))
	h.ttl = 0
	return h, path
}

// authorizedRow builds an ai_event CSV row for name
func authorizedRow(ts, name string) string {
	details := `{"type":"AI_AUTH_OK","state":"authorized","reason":"Authorized: ` + name + `","ts":"` + ts + `"}`
	return ts + ",ai_event," + `"` + strings.ReplaceAll(details, `"`, `""`) + `"`
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}
