package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		data       any
		expectBody string
	}{
		{"object", http.StatusOK, map[string]int{"count": 2}, "{\"count\":2}\n"},
		{"array", http.StatusOK, []string{"a"}, "[\"a\"]\n"},
		{"nil data", http.StatusNoContent, nil, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondJSON(recorder, tc.status, tc.data)

			assertStatusCode(t, recorder, tc.status)
			assertContentType(t, recorder, "application/json")
			if recorder.Body.String() != tc.expectBody {
				t.Errorf("expected body %q, got %q", tc.expectBody, recorder.Body.String())
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondError(recorder, http.StatusServiceUnavailable, "mirror unavailable")

	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
	var result map[string]string
	parseJSONResponse(t, recorder, &result)
	if result["error"] != "mirror unavailable" {
		t.Errorf("expected error message, got %v", result)
	}
}

func TestHealthCheck(t *testing.T) {
	recorder := httptest.NewRecorder()
	HealthCheck(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var result map[string]string
	parseJSONResponse(t, recorder, &result)
	if result["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%s'", result["status"])
	}
}

func TestFavicon(t *testing.T) {
	recorder := httptest.NewRecorder()
	Favicon(recorder, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	assertStatusCode(t, recorder, http.StatusNoContent)
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("a\nb\rc"); got != "abc" {
		t.Errorf("expected 'abc', got %q", got)
	}
}
