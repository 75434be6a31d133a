package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.FrameTaken("ok")
	m.Transition("authorized")
	m.AlertPublished(nil)
	m.LogAppended("panic")
	m.Replicated(errors.New("boom"))
	m.SetPresence(true)
	m.ObserveRecognition(time.Millisecond)
}

func TestCounters(t *testing.T) {
	m := New()
	m.Transition("authorized")
	m.Transition("authorized")
	m.Transition("no_face")
	m.AlertPublished(nil)
	m.AlertPublished(errors.New("not connected"))
	m.LogAppended("ai_event")
	m.Replicated(nil)
	m.SetPresence(true)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"authorized transitions", testutil.ToFloat64(m.transitions.WithLabelValues("authorized")), 2},
		{"no_face transitions", testutil.ToFloat64(m.transitions.WithLabelValues("no_face")), 1},
		{"alerts ok", testutil.ToFloat64(m.alerts.WithLabelValues("ok")), 1},
		{"alerts error", testutil.ToFloat64(m.alerts.WithLabelValues("error")), 1},
		{"appends", testutil.ToFloat64(m.appends.WithLabelValues("ai_event")), 1},
		{"replications", testutil.ToFloat64(m.replications.WithLabelValues("ok")), 1},
		{"presence", testutil.ToFloat64(m.presence), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.LogAppended("panic")

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `facegate_log_appends_total{event_type="panic"} 1`) {
		t.Errorf("expected appends metric in output, got:\n%s", body)
	}
}
