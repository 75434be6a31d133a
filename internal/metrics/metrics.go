// Package metrics exposes Prometheus metrics for the monitor. All recording
// methods are safe to call on a nil *Metrics, which disables collection.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "facegate"

// Metrics holds the monitor's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	frames       *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	alerts       *prometheus.CounterVec
	appends      *prometheus.CounterVec
	replications *prometheus.CounterVec
	presence     prometheus.Gauge
	recognition  prometheus.Histogram
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.frames = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_total",
		Help:      "Frames taken from the frame source by result",
	}, []string{"result"})
	m.transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "state_transitions_total",
		Help:      "Debounced state transitions by new state",
	}, []string{"state"})
	m.alerts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_published_total",
		Help:      "Authorization alerts published to the broker by result",
	}, []string{"result"})
	m.appends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "log_appends_total",
		Help:      "Records appended to the durable event log by event type",
	}, []string{"event_type"})
	m.replications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replications_total",
		Help:      "Mirror copies of the event log by result",
	}, []string{"result"})
	m.presence = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "presence",
		Help:      "1 while someone is present at the gate",
	})
	m.recognition = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recognition_duration_seconds",
		Help:      "Time spent in face detection and matching per frame",
		Buckets:   prometheus.DefBuckets,
	})

	m.registry.MustRegister(
		m.frames, m.transitions, m.alerts, m.appends, m.replications,
		m.presence, m.recognition,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// FrameTaken counts a frame wait by outcome ("ok", "timeout", "error").
func (m *Metrics) FrameTaken(outcome string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(outcome).Inc()
}

// Transition counts a debounced state change.
func (m *Metrics) Transition(state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(state).Inc()
}

// AlertPublished counts a publish attempt.
func (m *Metrics) AlertPublished(err error) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(result(err)).Inc()
}

// LogAppended counts a successful durable log append.
func (m *Metrics) LogAppended(eventType string) {
	if m == nil {
		return
	}
	m.appends.WithLabelValues(eventType).Inc()
}

// Replicated counts a mirror copy attempt.
func (m *Metrics) Replicated(err error) {
	if m == nil {
		return
	}
	m.replications.WithLabelValues(result(err)).Inc()
}

// SetPresence records the presence signal.
func (m *Metrics) SetPresence(present bool) {
	if m == nil {
		return
	}
	if present {
		m.presence.Set(1)
	} else {
		m.presence.Set(0)
	}
}

// ObserveRecognition records how long a frame took to recognize.
func (m *Metrics) ObserveRecognition(d time.Duration) {
	if m == nil {
		return
	}
	m.recognition.Observe(d.Seconds())
}

// Handler returns the /metrics handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Server serves /metrics and /healthz.
type Server struct {
	httpServer *http.Server
}

// NewServer creates a metrics server listening on addr.
func NewServer(addr string, m *Metrics) *Server {
	r := chi.NewRouter()
	r.Handle("/metrics", m.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		slog.Info("metrics: listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics: server failed", "error", err)
		}
	}()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
