package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/dashboard"
	"github.com/kozaktomas/facegate/internal/web"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Start the dashboard web server",
	Long: `Start the dashboard web server. It reads the mirrored event log written
by the monitor and never touches the authoritative log, so it can run as a
separate process or on another host sharing the mirror file.`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().Int("port", 8080, "Port to listen on (overrides WEB_PORT)")
	dashboardCmd.Flags().String("host", "0.0.0.0", "Host to bind to (overrides WEB_HOST)")
	dashboardCmd.Flags().String("mirror", "", "Mirror file to read (overrides EVENT_MIRROR_PATH)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	overrideInt(cmd, "port", &cfg.Web.Port)
	overrideString(cmd, "host", &cfg.Web.Host)
	overrideString(cmd, "mirror", &cfg.EventLog.MirrorPath)

	server := web.NewServer(cfg, dashboard.NewReader(cfg.EventLog.MirrorPath))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Dashboard on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
