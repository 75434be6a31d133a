package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/replicate"
	"github.com/spf13/cobra"
)

var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Copy the event log to the dashboard mirror",
	Long: `Atomically replace the mirror file with a copy of the event log. The
monitor does this on its own; run this when the dashboard host needs a fresh
copy while the monitor is stopped, or with --watch as a standalone replicator.`,
	RunE: runReplicate,
}

func init() {
	rootCmd.AddCommand(replicateCmd)

	replicateCmd.Flags().String("event-log", "", "Event log path (overrides EVENT_LOG_PATH)")
	replicateCmd.Flags().String("mirror", "", "Mirror path (overrides EVENT_MIRROR_PATH)")
	replicateCmd.Flags().Bool("watch", false, "Keep copying until interrupted")
	replicateCmd.Flags().Duration("interval", 0, "Period between copies with --watch (overrides REPLICATE_INTERVAL)")
}

func runReplicate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	overrideString(cmd, "event-log", &cfg.EventLog.Path)
	overrideString(cmd, "mirror", &cfg.EventLog.MirrorPath)
	if cmd.Flags().Changed("interval") {
		cfg.EventLog.ReplicateInterval = mustGetDuration(cmd, "interval")
	}

	r := replicate.New(cfg.EventLog.Path, cfg.EventLog.MirrorPath, cfg.EventLog.ReplicateInterval, nil)

	if !mustGetBool(cmd, "watch") {
		if err := r.Sync(); err != nil {
			return fmt.Errorf("replicating event log: %w", err)
		}
		fmt.Printf("Copied %s to %s\n", cfg.EventLog.Path, cfg.EventLog.MirrorPath)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.Start(ctx)
	<-ctx.Done()
	r.Stop()
	return nil
}
