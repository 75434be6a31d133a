// Package broker is the MQTT transport: it publishes alerts and dispatches
// inbound presence and panic messages.
package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/constants"
)

// ErrNotConnected is returned by Publish while the broker is unreachable.
var ErrNotConnected = errors.New("mqtt not connected")

// Handler receives inbound messages. It is called from paho's dispatch
// goroutine and must not block for long.
type Handler func(topic string, payload []byte)

// Client wraps a paho client with reconnect-safe subscriptions.
type Client struct {
	cfg    config.MQTTConfig
	client mqtt.Client

	mu        sync.RWMutex
	connected bool
	subs      map[string]Handler
}

// New creates a client; call Connect to start it.
func New(cfg config.MQTTConfig) *Client {
	c := &Client{
		cfg:  cfg,
		subs: make(map[string]Handler),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL())
	opts.SetClientID(cfg.ClientID)
	opts.SetKeepAlive(cfg.KeepAlive)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(opts)
	return c
}

func (c *Client) onConnect(client mqtt.Client) {
	c.mu.Lock()
	c.connected = true
	subs := make(map[string]Handler, len(c.subs))
	for topic, h := range c.subs {
		subs[topic] = h
	}
	c.mu.Unlock()

	slog.Info("broker: connected", "broker", c.cfg.BrokerURL(), "client_id", c.cfg.ClientID)

	// the session is clean, so subscriptions are renewed on every connect
	for topic, h := range subs {
		if err := c.subscribe(topic, h); err != nil {
			slog.Warn("broker: resubscribe failed", "topic", topic, "error", err)
		}
	}
}

func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	slog.Warn("broker: connection lost, will auto-reconnect", "error", err)
}

// Connect starts the connection. If the broker does not answer within the
// connect timeout the client keeps retrying in the background and Connect
// returns an error that callers may treat as non-fatal.
func (c *Client) Connect(ctx context.Context) error {
	slog.Info("broker: connecting", "broker", c.cfg.BrokerURL())

	token := c.client.Connect()
	select {
	case <-token.Done():
	case <-time.After(constants.ConnectTimeout):
		return fmt.Errorf("mqtt connection timeout after %s", constants.ConnectTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	return nil
}

// Subscribe registers h for topic. The subscription is sent now if the
// client is connected and renewed after every reconnect.
func (c *Client) Subscribe(topic string, h Handler) error {
	c.mu.Lock()
	c.subs[topic] = h
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		return nil
	}
	return c.subscribe(topic, h)
}

func (c *Client) subscribe(topic string, h Handler) error {
	token := c.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(constants.PublishTimeout) {
		return fmt.Errorf("subscribe to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s failed: %w", topic, err)
	}
	slog.Info("broker: subscribed", "topic", topic)
	return nil
}

// Publish sends payload to topic with QoS 0.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, 0, false, payload)
	select {
	case <-token.Done():
	case <-time.After(constants.PublishTimeout):
		return errors.New("publish timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	slog.Debug("broker: published", "topic", topic, "size", len(payload))
	return nil
}

// IsConnected reports the last known connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Disconnect closes the connection, giving in-flight work a short grace period.
func (c *Client) Disconnect() {
	// also aborts a connect that is still retrying in the background
	c.client.Disconnect(constants.DisconnectQuiesce)
	slog.Info("broker: disconnected")

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}
