// Package stats implements the stats command: show a repository's latest
// per-label open-issue counts.
package stats

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/alan/repo-tracker/cmd"
	"github.com/alan/repo-tracker/internal/commands"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// Command encapsulates the stats command's flags.
type Command struct {
	Database string
}

// NewStatsCmd creates and returns the stats command.
func NewStatsCmd(globalConfigFile *string, loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	sc := &Command{}

	command := &cobra.Command{
		Use:          "stats <owner> <repo>",
		Short:        "Show the latest per-label open-issue counts",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*globalConfigFile)
			if err != nil {
				return err
			}
			return sc.Run(cobraCmd.Context(), cfg, args[0], args[1])
		},
	}

	command.Flags().StringVar(&sc.Database, "database", "", "SQLite file path or postgres:// URL")

	return command
}

// Run prints the latest label counts, highest first.
func (sc *Command) Run(ctx context.Context, cfg *cmd.Config, owner, repo string) error {
	st, err := commands.OpenStore(sc.Database, cfg)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	counts, err := st.CurrentLabelCounts(ctx, owner, repo)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		fmt.Printf("No label counts recorded for %s/%s yet; run update or backfill first.\n", owner, repo)
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Label", "Open issues"})

	var data [][]string
	for _, lc := range counts {
		data = append(data, []string{lc.Label, strconv.Itoa(lc.Count)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
