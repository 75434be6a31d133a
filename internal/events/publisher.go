package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kozaktomas/facegate/internal/constants"
	"github.com/kozaktomas/facegate/internal/metrics"
)

// Transport publishes a payload on a topic.
type Transport interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Alert is the JSON payload published for an authorized transition and
// stored as the details of its log record.
type Alert struct {
	Type   string `json:"type"`
	State  string `json:"state"`
	Reason string `json:"reason"`
	TS     string `json:"ts"`
}

// Publisher delivers alerts to the broker and appends them to the durable log.
type Publisher struct {
	transport  Transport
	log        *Log
	alertTopic string
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewPublisher creates a publisher. transport may be nil, in which case
// alerts are only logged. m may be nil.
func NewPublisher(transport Transport, log *Log, alertTopic string, m *metrics.Metrics) *Publisher {
	return &Publisher{
		transport:  transport,
		log:        log,
		alertTopic: alertTopic,
		metrics:    m,
		now:        time.Now,
	}
}

// PublishAuthorized publishes an alert for an authorized transition and then
// appends it to the log. A publish failure is logged and never prevents the
// append; only the append error is returned.
func (p *Publisher) PublishAuthorized(ctx context.Context, state, reason string, at time.Time) error {
	alert := Alert{
		Type:   constants.AlertTypeAuthorized,
		State:  state,
		Reason: reason,
		TS:     Timestamp(at),
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshaling alert: %w", err)
	}

	if p.transport != nil {
		err := p.transport.Publish(ctx, p.alertTopic, payload)
		p.metrics.AlertPublished(err)
		if err != nil {
			slog.Warn("events: alert publish failed", "topic", p.alertTopic, "error", err)
		} else {
			slog.Info("events: alert published", "topic", p.alertTopic, "reason", reason)
		}
	}

	return p.append(Record{
		Timestamp: alert.TS,
		EventType: constants.EventTypeAI,
		Details:   string(payload),
	})
}

// LogPanic appends a panic record with the raw payload. There is no
// deduplication and no dependency on presence.
func (p *Publisher) LogPanic(payload string) error {
	slog.Warn("events: panic signal received", "payload", payload)
	return p.append(Record{
		Timestamp: Timestamp(p.now()),
		EventType: constants.EventTypePanic,
		Details:   payload,
	})
}

func (p *Publisher) append(r Record) error {
	if err := p.log.Append(r); err != nil {
		slog.Error("events: log append failed", "event_type", r.EventType, "error", err)
		return err
	}
	p.metrics.LogAppended(r.EventType)
	return nil
}

// DecodeDetails returns the JSON-decoded details, or the raw string when the
// details are not JSON.
func DecodeDetails(details string) any {
	var v any
	if err := json.Unmarshal([]byte(details), &v); err != nil {
		return details
	}
	return v
}
