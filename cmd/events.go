package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/dashboard"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the most recent event log entries",
	RunE:  runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().String("file", "", "Log file to read (defaults to EVENT_LOG_PATH)")
	eventsCmd.Flags().Int("tail", 20, "Number of entries to show (0 for all)")
	eventsCmd.Flags().Bool("json", false, "Output as JSON rows, same shape as the dashboard")
	eventsCmd.Flags().Bool("stats", false, "Print counts instead of entries")
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	path := cfg.EventLog.Path
	overrideString(cmd, "file", &path)

	rows, err := dashboard.NewReader(path).Tail(mustGetInt(cmd, "tail"))
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "stats") {
		stats := dashboard.Summarize(rows)
		if mustGetBool(cmd, "json") {
			return outputJSON(stats)
		}
		fmt.Printf("authorized:   %d\n", stats.Authorized)
		fmt.Printf("unauthorized: %d\n", stats.Unauthorized)
		fmt.Printf("no face:      %d\n", stats.NoFace)
		fmt.Printf("panic:        %d\n", stats.Panic)
		fmt.Printf("total:        %d\n", stats.Total)
		return nil
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(rows)
	}

	if len(rows) == 0 {
		fmt.Printf("No events in %s\n", path)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tEVENT\tDETAILS")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\n", row.Timestamp, row.Label, describe(row.Name))
	}
	return w.Flush()
}

// describe renders decoded details for the terminal.
func describe(details any) string {
	if m, ok := details.(map[string]any); ok {
		if reason, ok := m["reason"].(string); ok {
			return reason
		}
	}
	return fmt.Sprint(details)
}
