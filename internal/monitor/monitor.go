// Package monitor turns per-frame recognition results into debounced
// authorization events, gated by the presence sensor.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kozaktomas/facegate/internal/camera"
	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/events"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/metrics"
	"github.com/kozaktomas/facegate/internal/oracle"
)

// Recognizer detects faces in an encoded frame.
type Recognizer interface {
	DetectFaces(ctx context.Context, imageData []byte) ([]oracle.Detection, error)
}

// Publisher receives emitted alerts and panic signals.
type Publisher interface {
	PublishAuthorized(ctx context.Context, state, reason string, at time.Time) error
	LogPanic(payload string) error
}

var _ Publisher = (*events.Publisher)(nil)

// Options configures a Monitor.
type Options struct {
	Source     camera.Source
	Recognizer Recognizer
	Matcher    *facematch.Matcher
	Publisher  Publisher
	Topics     config.TopicsConfig
	Policy     Policy
	Metrics    *metrics.Metrics // optional
}

// Monitor runs the recognition loop and handles inbound messages.
type Monitor struct {
	state      *Context
	machine    *Machine
	gate       *Gate
	source     camera.Source
	recognizer Recognizer
	matcher    *facematch.Matcher
	publisher  Publisher
	topics     config.TopicsConfig
	policy     Policy
	metrics    *metrics.Metrics

	now  func() time.Time
	idle time.Duration
}

// New creates a monitor with presence off.
func New(opts Options) *Monitor {
	state := NewContext()
	m := &Monitor{
		state:      state,
		machine:    NewMachine(state),
		gate:       NewGate(state, opts.Metrics),
		source:     opts.Source,
		recognizer: opts.Recognizer,
		matcher:    opts.Matcher,
		publisher:  opts.Publisher,
		topics:     opts.Topics,
		policy:     opts.Policy,
		metrics:    opts.Metrics,
		now:        time.Now,
		idle:       constants.IdlePollInterval,
	}
	m.machine.OnTransition = func(s State) {
		m.metrics.Transition(string(s))
		slog.Debug("monitor: state transition", "state", s)
	}
	return m
}

// Context exposes the shared state.
func (m *Monitor) Context() *Context {
	return m.state
}

// HandleMessage dispatches an inbound message. Panic messages are logged
// unconditionally, presence messages drive the gate, anything else is
// ignored. Safe to call from the transport's goroutines.
func (m *Monitor) HandleMessage(topic string, payload []byte) {
	text := strings.ToValidUTF8(string(payload), "")
	slog.Debug("monitor: message in", "topic", topic, "payload", text)

	switch topic {
	case m.topics.Panic:
		if err := m.publisher.LogPanic(text); err != nil {
			slog.Error("monitor: failed to log panic", "error", err)
		}
	case m.topics.Presence:
		m.gate.Apply(text)
	}
}

// Run processes frames until ctx is cancelled. While nobody is present no
// frame is read and no state is recorded.
func (m *Monitor) Run(ctx context.Context) error {
	slog.Info("monitor: recognition loop started", "identities", m.matcher.Size(), "policy", m.policy)
	for {
		if err := m.Step(ctx); err != nil {
			if ctx.Err() != nil {
				slog.Info("monitor: recognition loop stopped")
				return nil
			}
			return err
		}
	}
}

// Step runs one loop iteration: idle wait, or take one frame and process it.
// Only context errors are returned, every other failure skips the frame.
func (m *Monitor) Step(ctx context.Context) error {
	if !m.state.Present() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.idle):
			return nil
		}
	}

	frame, err := m.source.Next(ctx)
	switch {
	case err == nil:
		m.metrics.FrameTaken("ok")
	case errors.Is(err, camera.ErrNoFrame):
		m.metrics.FrameTaken("timeout")
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		m.metrics.FrameTaken("error")
		slog.Warn("monitor: frame read failed", "error", err)
		return nil
	}

	m.ProcessFrame(ctx, frame)
	return nil
}

// ProcessFrame recognizes one frame and feeds the result to the state
// machine. It returns the derived decision and whether an alert was emitted.
func (m *Monitor) ProcessFrame(ctx context.Context, frame camera.Frame) (Decision, bool) {
	start := time.Now()
	detections, err := m.recognizer.DetectFaces(ctx, frame.Data)
	if err != nil {
		slog.Warn("monitor: recognition failed, skipping frame", "error", err)
		return Decision{}, false
	}
	decision := m.policy.Decide(m.matcher.Match(detections))
	m.metrics.ObserveRecognition(time.Since(start))

	// presence may have been cleared while the frame was being recognized
	if !m.state.Present() {
		return decision, false
	}

	now := m.now()
	if !m.machine.Observe(now, decision) {
		return decision, false
	}

	slog.Info("monitor: authorized", "name", decision.Name, "reason", decision.Label)
	if err := m.publisher.PublishAuthorized(ctx, string(decision.State), decision.Label, now); err != nil {
		slog.Error("monitor: failed to record alert", "error", err)
	}
	return decision, true
}
