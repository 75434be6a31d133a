package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/kozaktomas/facegate/internal/broker"
	"github.com/kozaktomas/facegate/internal/camera"
	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/events"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/metrics"
	"github.com/kozaktomas/facegate/internal/monitor"
	"github.com/kozaktomas/facegate/internal/oracle"
	"github.com/kozaktomas/facegate/internal/replicate"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the face authorization monitor",
	Long: `Run the recognition loop. Frames are only read while the presence sensor
reports someone at the entrance. Authorized faces are published to the alert
topic and appended to the event log, panic button messages are always logged.

Configuration comes from the environment (or .env); flags override it.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().String("broker", "", "MQTT broker host or URL (overrides MQTT_BROKER)")
	monitorCmd.Flags().Int("mqtt-port", 0, "MQTT broker port (overrides MQTT_PORT)")
	monitorCmd.Flags().String("camera", "", "Camera device index or snapshot URL (overrides CAMERA_SOURCE)")
	monitorCmd.Flags().String("roster", "", "Directory with reference images (overrides ROSTER_DIR)")
	monitorCmd.Flags().String("event-log", "", "Event log path (overrides EVENT_LOG_PATH)")
	monitorCmd.Flags().String("mirror", "", "Mirror path read by the dashboard (overrides EVENT_MIRROR_PATH)")
	monitorCmd.Flags().String("metrics-addr", "", "Address for /metrics, e.g. :9100 (overrides METRICS_ADDR)")
	monitorCmd.Flags().Duration("replicate-interval", 0, "Period between mirror copies (overrides REPLICATE_INTERVAL)")
}

func monitorConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()
	overrideString(cmd, "broker", &cfg.MQTT.Broker)
	overrideInt(cmd, "mqtt-port", &cfg.MQTT.Port)
	overrideString(cmd, "camera", &cfg.Camera.Source)
	overrideString(cmd, "roster", &cfg.Roster.Dir)
	overrideString(cmd, "event-log", &cfg.EventLog.Path)
	overrideString(cmd, "mirror", &cfg.EventLog.MirrorPath)
	overrideString(cmd, "metrics-addr", &cfg.Metrics.Addr)
	if cmd.Flags().Changed("replicate-interval") {
		cfg.EventLog.ReplicateInterval = mustGetDuration(cmd, "replicate-interval")
	}
	return cfg
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg := monitorConfig(cmd)

	policy, err := monitor.ParsePolicy(cfg.Roster.MultiFacePolicy)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recognizer := oracle.NewClient(cfg.Embedding.URL)
	slog.Info("loading roster", "dir", cfg.Roster.Dir, "embedding", recognizer.BaseURL())
	identities, err := loadRoster(ctx, recognizer, cfg.Roster.Dir, false)
	if err != nil {
		return fmt.Errorf("loading roster: %w", err)
	}
	matcher, err := facematch.NewMatcher(identities, cfg.Roster.Tolerance, cfg.Roster.Metric)
	if err != nil {
		return err
	}
	slog.Info("roster loaded", "identities", matcher.Size(), "metric", cfg.Roster.Metric, "tolerance", cfg.Roster.Tolerance)

	m := metrics.New()
	var metricsServer *metrics.Server
	if cfg.Metrics.Addr != "" {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr, m)
		metricsServer.Start()
	}

	eventLog, err := events.OpenLog(cfg.EventLog.Path)
	if err != nil {
		return err
	}
	slog.Info("event log ready", "path", eventLog.Path())

	mqttClient := broker.New(cfg.MQTT)
	publisher := events.NewPublisher(mqttClient, eventLog, cfg.MQTT.Topics.Alert, m)

	source, err := camera.Open(ctx, cfg.Camera)
	if err != nil {
		return fmt.Errorf("opening camera %s: %w", cfg.Camera.Source, err)
	}

	mon := monitor.New(monitor.Options{
		Source:     source,
		Recognizer: recognizer,
		Matcher:    matcher,
		Publisher:  publisher,
		Topics:     cfg.MQTT.Topics,
		Policy:     policy,
		Metrics:    m,
	})

	for _, topic := range []string{cfg.MQTT.Topics.Panic, cfg.MQTT.Topics.Presence} {
		if err := mqttClient.Subscribe(topic, mon.HandleMessage); err != nil {
			slog.Warn("subscribe failed, retrying on reconnect", "topic", topic, "error", err)
		}
	}
	if err := mqttClient.Connect(ctx); err != nil {
		// the client keeps retrying; panic and presence arrive once it connects
		slog.Warn("broker not reachable yet", "error", err)
	}

	replicator := replicate.New(eventLog.Path(), cfg.EventLog.MirrorPath, cfg.EventLog.ReplicateInterval, m)
	replicator.Start(ctx)

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		slog.Debug("sd_notify failed", "error", err)
	}

	runErr := mon.Run(ctx)
	stop()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	slog.Info("shutting down")

	if err := source.Close(); err != nil {
		slog.Warn("closing camera", "error", err)
	}
	replicator.Stop()
	mqttClient.Disconnect()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown", "error", err)
		}
	}

	return runErr
}
