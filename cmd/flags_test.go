package cmd

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func newFlagCommand() *cobra.Command {
	c := &cobra.Command{Use: "test"}
	c.Flags().String("broker", "", "")
	c.Flags().Int("mqtt-port", 0, "")
	c.Flags().Duration("replicate-interval", 0, "")
	return c
}

func TestOverride_OnlyWhenChanged(t *testing.T) {
	c := newFlagCommand()
	if err := c.Flags().Parse([]string{"--mqtt-port", "8883"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	broker, port := "from-env", 1883
	overrideString(c, "broker", &broker)
	overrideInt(c, "mqtt-port", &port)

	if broker != "from-env" {
		t.Errorf("unset flag must not override, got %q", broker)
	}
	if port != 8883 {
		t.Errorf("expected flag value 8883, got %d", port)
	}
}

func TestMonitorConfig_FlagsWinOverEnv(t *testing.T) {
	t.Setenv("MQTT_BROKER", "env-host")
	t.Setenv("CAMERA_SOURCE", "2")

	c := &cobra.Command{Use: "monitor"}
	c.Flags().AddFlagSet(monitorCmd.Flags())
	if err := c.Flags().Parse([]string{"--broker", "flag-host", "--replicate-interval", "5s"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	cfg := monitorConfig(c)
	if cfg.MQTT.Broker != "flag-host" {
		t.Errorf("expected broker from flag, got %q", cfg.MQTT.Broker)
	}
	if cfg.Camera.Source != "2" {
		t.Errorf("expected camera from env, got %q", cfg.Camera.Source)
	}
	if cfg.EventLog.ReplicateInterval != 5*time.Second {
		t.Errorf("expected 5s interval, got %s", cfg.EventLog.ReplicateInterval)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name    string
		details any
		want    string
	}{
		{"alert", map[string]any{"reason": "Authorized: alice"}, "Authorized: alice"},
		{"raw", "PANIC", "PANIC"},
		{"map without reason", map[string]any{"x": 1}, "map[x:1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describe(tt.details); got != tt.want {
				t.Errorf("describe() = %q, want %q", got, tt.want)
			}
		})
	}
}
