package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"orderharvest/lib/telemetry"

	"github.com/spf13/cobra"
)

var configPath *string
var debug *bool

var rootCmd = &cobra.Command{
	Use:   "orderharvest",
	Short: "orderharvest collects a year's order history and invoice documents into resumable on-disk ledgers.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*debug)
		// telemetry is best-effort: without a telemetry.json5 the
		// process just runs with logs only
		err := telemetry.SetupFromEnv(cmd.Context(), "orderharvest")
		if err != nil {
			slog.Warn("telemetry setup failed, continuing without otlp export", "err", err)
		}
		telemetry.InstrumentPerfStats(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		err := telemetry.Shutdown(context.Background())
		if err != nil {
			slog.Warn("telemetry shutdown failed", "err", err)
		}
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The configuration file to load.")
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Enables debug logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
