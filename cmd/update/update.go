// Package update implements the update command: record one observation for
// every tracked repository. This is the scheduler entry point; point cron at
// it at whatever cadence suits the charts.
package update

import (
	"context"
	"os"

	"github.com/alan/repo-tracker/cmd"
	"github.com/alan/repo-tracker/internal/commands"
	"github.com/alan/repo-tracker/internal/githubapi"
	"github.com/alan/repo-tracker/internal/poller"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Command encapsulates the update command's flags.
type Command struct {
	Database string
}

// NewUpdateCmd creates and returns the update command.
func NewUpdateCmd(globalConfigFile *string, loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	uc := &Command{}

	command := &cobra.Command{
		Use:          "update",
		Short:        "Record one observation for every tracked repository",
		SilenceUsage: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*globalConfigFile)
			if err != nil {
				return err
			}
			return uc.Run(cobraCmd.Context(), cfg)
		},
	}

	command.Flags().StringVar(&uc.Database, "database", "", "SQLite file path or postgres:// URL")

	return command
}

// Run polls every tracked repository once. Repos listed in the config file
// are tracked first, so a fresh database with a seeded config works without
// a separate track step.
func (uc *Command) Run(ctx context.Context, cfg *cmd.Config) error {
	st, err := commands.OpenStore(uc.Database, cfg)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	for _, r := range cfg.Repos {
		if err := st.AddRepo(ctx, r.Owner, r.Name); err != nil {
			return err
		}
	}

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

	color.Green("Recorded observations for %d repositories", len(repos))
	return nil
}
