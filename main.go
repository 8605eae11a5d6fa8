// package main is the entry point for the repo-tracker tool
package main

import (
	"log/slog"
	"os"
	"strings"

	backfillcmd "github.com/alan/repo-tracker/cmd/backfill"
	"github.com/alan/repo-tracker/cmd/serve"
	"github.com/alan/repo-tracker/cmd/stats"
	"github.com/alan/repo-tracker/cmd/track"
	"github.com/alan/repo-tracker/cmd/update"
	"github.com/alan/repo-tracker/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	var configFile string
	var logLevel string
	var logFormat string

	rootCmd := &cobra.Command{
		Use:   "repo-tracker",
		Short: "Track and backfill GitHub repository count series",
		Long: `repo-tracker polls GitHub repositories for star, open-issue,
open-pull-request and per-label open-issue counts, stores them as time series
in a relational database, and serves them as JSON for charting.

The backfill command reconstructs historical series retroactively by replaying
each issue's event history instead of waiting for future polls.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogger(logLevel, logFormat)
		},
	}

	// Environment overrides: TRACKER_DATABASE, TRACKER_LISTEN, ...
	viper.SetEnvPrefix("TRACKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Add global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "repo-tracker.yaml", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&logFormat, "log-format", "f", "text", "Log format (text, json)")

	// Create commands with access to the global config file
	rootCmd.AddCommand(backfillcmd.NewBackfillCmd())
	rootCmd.AddCommand(serve.NewServeCmd(&configFile, config.LoadConfig))
	rootCmd.AddCommand(update.NewUpdateCmd(&configFile, config.LoadConfig))
	rootCmd.AddCommand(track.NewTrackCmd(&configFile, config.LoadConfig))
	rootCmd.AddCommand(stats.NewStatsCmd(&configFile, config.LoadConfig))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(level, format string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}

	slog.SetDefault(slog.New(handler))
}
