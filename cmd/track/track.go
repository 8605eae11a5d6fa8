// Package track implements the track command: start tracking a repository.
package track

import (
	"context"

	"github.com/alan/repo-tracker/cmd"
	"github.com/alan/repo-tracker/internal/commands"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Command encapsulates the track command's flags.
type Command struct {
	Database string
}

// NewTrackCmd creates and returns the track command.
func NewTrackCmd(globalConfigFile *string, loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	tc := &Command{}

	command := &cobra.Command{
		Use:          "track <owner> <repo>",
		Short:        "Start tracking a repository",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*globalConfigFile)
			if err != nil {
				return err
			}
			return tc.Run(cobraCmd.Context(), cfg, args[0], args[1])
		},
	}

	command.Flags().StringVar(&tc.Database, "database", "", "SQLite file path or postgres:// URL")

	return command
}

// Run adds the repository to the tracked set.
func (tc *Command) Run(ctx context.Context, cfg *cmd.Config, owner, repo string) error {
	st, err := commands.OpenStore(tc.Database, cfg)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.AddRepo(ctx, owner, repo); err != nil {
		return err
	}

	color.Green("Tracking %s/%s", owner, repo)
	return nil
}
