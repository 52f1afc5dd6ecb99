package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/wifitracker/internal/wifitrack"
)

var (
	// tracker and platform are the in-process collaborators every
	// subcommand drives. wifitrackerctl has no remote daemon to talk
	// to: it embeds the engine directly against a DemoPlatform, the
	// same one cmd/wifitrackerd runs, so the two binaries show
	// identical behavior for a given seed state.
	tracker  *wifitrack.Tracker
	platform *wifitrack.DemoPlatform

	// rootCtx lives for the life of the process; shell mode drives many
	// commands through the same tracker instance, so setup only runs
	// once (guarded by tracker == nil) and teardown happens in Execute,
	// not per-command.
	rootCtx    context.Context
	cancelRoot context.CancelFunc

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string
)

// rootCmd is the top-level cobra command for wifitrackerctl.
var rootCmd = &cobra.Command{
	Use:   "wifitrackerctl",
	Short: "CLI for exercising the Wi-Fi tracking engine",
	Long:  "wifitrackerctl drives an in-process tracker engine against a simulated platform, for inspecting and exercising the entry cache, views, and connect/disconnect/forget operations.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if tracker != nil {
			return nil
		}
		return setupTracker()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func setupTracker() error {
	rootCtx, cancelRoot = context.WithCancel(context.Background())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	platform = wifitrack.NewDemoPlatform(logger)

	cfg := wifitrack.DefaultConfig()
	cfg.MaxScanAgeMS = 30_000
	cfg.ScanIntervalMS = 10_000
	cfg.ConnectedSchedule = []time.Duration{20 * time.Second, 40 * time.Second}
	cfg.DisconnectedSchedule = []time.Duration{10 * time.Second, 20 * time.Second}
	cfg.SingleSavedConnectedSchedule = []time.Duration{60 * time.Second}

	t, err := wifitrack.New(cfg, platform, wifitrack.SystemClock{}, logger)
	if err != nil {
		return fmt.Errorf("construct tracker: %w", err)
	}
	tracker = t

	if err := tracker.Start(rootCtx); err != nil {
		return fmt.Errorf("start tracker: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")

	rootCmd.AddCommand(entriesCmd())
	rootCmd.AddCommand(connectCmd())
	rootCmd.AddCommand(disconnectCmd())
	rootCmd.AddCommand(forgetCmd())
	rootCmd.AddCommand(monitorCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(shellCmd())
}

// Execute runs the root command and exits with code 1 on error. The
// tracker, if started, is stopped once on the way out regardless of
// which (possibly many, in shell mode) subcommands ran against it.
func Execute() {
	err := rootCmd.Execute()

	if tracker != nil {
		tracker.Stop()
	}
	if cancelRoot != nil {
		cancelRoot()
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
