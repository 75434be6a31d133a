package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kozaktomas/facegate/internal/config"
)

func unreachableConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker:    "127.0.0.1",
		Port:      1, // nothing listens here
		ClientID:  "facegate-test",
		KeepAlive: 10 * time.Second,
	}
}

func TestPublish_NotConnected(t *testing.T) {
	c := New(unreachableConfig())

	err := c.Publish(context.Background(), "factory/alert", []byte("{}"))
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestSubscribe_WhileDisconnectedIsDeferred(t *testing.T) {
	c := New(unreachableConfig())

	if err := c.Subscribe("esp/presence", func(string, []byte) {}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if _, ok := c.subs["esp/presence"]; !ok {
		t.Error("expected subscription to be kept for the next connect")
	}
}

func TestConnect_Cancelled(t *testing.T) {
	c := New(unreachableConfig())
	defer c.Disconnect()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Connect(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if c.IsConnected() {
		t.Error("client must not report connected")
	}
}
