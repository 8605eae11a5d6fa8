// Package serve implements the serve command: run the tracker HTTP server.
package serve

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alan/repo-tracker/cmd"
	"github.com/alan/repo-tracker/internal/commands"
	"github.com/alan/repo-tracker/internal/githubapi"
	"github.com/alan/repo-tracker/internal/poller"
	"github.com/alan/repo-tracker/internal/server"
	"github.com/alan/repo-tracker/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Command encapsulates the serve command's flags.
type Command struct {
	Database string
	Listen   string
}

// NewServeCmd creates and returns the serve command.
func NewServeCmd(globalConfigFile *string, loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	sc := &Command{}

	command := &cobra.Command{
		Use:   "serve",
		Short: "Serve tracked count series over HTTP",
		Long: `Serve runs the tracker HTTP server:

    GET  /{owner}/{repo}/json      count series for charting
    POST /{owner}/{repo}/backfill  apply one backfill batch
    POST /{owner}/{repo}/add       start tracking a repository
    POST /update                   record one observation for every tracked repo

Settings resolve flag first, then TRACKER_* environment variables, then the
config file. The /update endpoint needs GITHUB_TOKEN (or anonymous quota).`,
		SilenceUsage: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*globalConfigFile)
			if err != nil {
				return err
			}
			return sc.Run(cobraCmd.Context(), cfg)
		},
	}

	command.Flags().StringVar(&sc.Database, "database", "", "SQLite file path or postgres:// URL")
	command.Flags().StringVar(&sc.Listen, "listen", "", "Listen address (default :8080)")

	return command
}

// Run opens the store and serves until the process is terminated.
func (sc *Command) Run(ctx context.Context, cfg *cmd.Config) error {
	database := commands.Database(sc.Database, cfg)
	listen := commands.ResolveSetting(sc.Listen, viper.GetString("listen"), cfg.Listen, cmd.DefaultListen)

	st, err := store.Open(database)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	update := func(ctx context.Context) error {
		return updateAll(ctx, st)
	}

	srv := &http.Server{
		Addr:              listen,
		Handler:           server.New(st, update).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Serving", "listen", listen, "database", database)
	return srv.ListenAndServe()
}

// updateAll records one observation for every tracked repository.
func updateAll(ctx context.Context, st *store.Store) error {
	repos, err := st.ListRepos(ctx)
	if err != nil {
		return err
	}

	token := os.Getenv("GITHUB_TOKEN")
	for _, r := range repos {
		client := githubapi.NewClient(ctx, token, r.Owner, r.Name)
		if err := poller.Observe(ctx, client, st, r.Owner, r.Name); err != nil {
			return err
		}
	}
	return nil
}
