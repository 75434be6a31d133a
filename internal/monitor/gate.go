package monitor

import (
	"log/slog"
	"strings"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/metrics"
)

// Gate maintains the presence signal from presence sensor messages.
type Gate struct {
	ctx     *Context
	metrics *metrics.Metrics
}

// NewGate creates a gate for ctx. m may be nil.
func NewGate(ctx *Context, m *metrics.Metrics) *Gate {
	return &Gate{ctx: ctx, metrics: m}
}

// Apply updates presence from a payload. A payload containing "enter" sets
// it, otherwise one containing "leave" clears it. Anything else is ignored.
// It reports whether the payload was recognized.
func (g *Gate) Apply(payload string) bool {
	var present bool
	switch {
	case strings.Contains(payload, constants.PresenceEnterMarker):
		present = true
	case strings.Contains(payload, constants.PresenceLeaveMarker):
		present = false
	default:
		slog.Debug("monitor: ignoring presence payload", "payload", payload)
		return false
	}

	if g.ctx.setPresent(present) {
		g.metrics.SetPresence(present)
		if present {
			slog.Info("monitor: presence detected, recognition active")
		} else {
			slog.Info("monitor: presence cleared, idle")
		}
	}
	return true
}
