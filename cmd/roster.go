package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/oracle"
	"github.com/kozaktomas/facegate/internal/roster"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Encode the reference images and list authorized identities",
	Long: `Encode every reference image in the roster directory with the embedding
service and print the identities the monitor would authorize. Use this to
check a new reference photo before restarting the monitor.`,
	RunE: runRoster,
}

func init() {
	rootCmd.AddCommand(rosterCmd)

	rosterCmd.Flags().String("roster", "", "Directory with reference images (overrides ROSTER_DIR)")
	rosterCmd.Flags().Bool("json", false, "Output identities as JSON")
}

// loadRoster encodes the roster directory. With progress set a progress bar
// is drawn on the terminal, otherwise every failed image is logged.
func loadRoster(ctx context.Context, encoder roster.Encoder, dir string, progress bool) ([]roster.Identity, error) {
	loader := &roster.Loader{Encoder: encoder}

	var bar *progressbar.ProgressBar
	if progress {
		files, err := roster.ReferenceImages(dir)
		if err != nil {
			return nil, err
		}
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Encoding roster"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
	}

	var failed []string
	loader.OnFile = func(path string, err error) {
		if bar != nil {
			_ = bar.Add(1)
		}
		if err == nil {
			return
		}
		if progress {
			failed = append(failed, fmt.Sprintf("%s: %v", filepath.Base(path), err))
			return
		}
		if errors.Is(err, roster.ErrNoFace) {
			slog.Warn("roster: no face in reference image", "file", path)
		} else {
			slog.Warn("roster: skipping reference image", "file", path, "error", err)
		}
	}

	identities, err := loader.Load(ctx, dir)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
		for _, f := range failed {
			fmt.Printf("  skipped %s\n", f)
		}
	}
	return identities, err
}

func runRoster(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	overrideString(cmd, "roster", &cfg.Roster.Dir)
	jsonOutput := mustGetBool(cmd, "json")

	client := oracle.NewClient(cfg.Embedding.URL)
	identities, err := loadRoster(cmd.Context(), client, cfg.Roster.Dir, !jsonOutput)
	if err != nil {
		return fmt.Errorf("loading roster: %w", err)
	}

	// validates tolerance and metric the same way the monitor does
	matcher, err := facematch.NewMatcher(identities, cfg.Roster.Tolerance, cfg.Roster.Metric)
	if err != nil {
		return err
	}

	if jsonOutput {
		type identityJSON struct {
			Name       string `json:"name"`
			Source     string `json:"source"`
			Dimensions int    `json:"dimensions"`
		}
		out := make([]identityJSON, 0, len(identities))
		for _, id := range identities {
			out = append(out, identityJSON{Name: id.Name, Source: id.Source, Dimensions: len(id.Encoding)})
		}
		return outputJSON(out)
	}

	fmt.Printf("\n%d authorized identities (metric %s, tolerance %.2f):\n",
		matcher.Size(), cfg.Roster.Metric, cfg.Roster.Tolerance)
	for _, id := range identities {
		fmt.Printf("  %-24s %s (%d dims)\n", id.Name, filepath.Base(id.Source), len(id.Encoding))
	}
	return nil
}
