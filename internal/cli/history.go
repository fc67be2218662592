package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/touchpointhq/journeysync/internal/journey"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	JourneyID string
	Limit     int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the sync audit trail",
		Long: `Show sync history entries, newest first. The trail is append-only:
every create, update, skip, and rollback is recorded with its outcome.

Example:
  journeysync history --db ./journeys.db
  journeysync history --journey jny-42 --limit 10 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.JourneyID, "journey", "", "show history for one journey")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most N entries (0 = all)")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	env, err := openEnvironment(opts.RootOptions)
	if err != nil {
		return err
	}
	defer env.close()

	entries, err := env.store.History(cmd.Context(), opts.JourneyID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to query history", err)
	}
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}

	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
	if opts.Format == "json" {
		return formatter.JSON(entries)
	}

	if len(entries) == 0 {
		formatter.Text("no history")
		return nil
	}
	for _, e := range entries {
		renderHistoryEntry(formatter, e)
	}
	return nil
}

func renderHistoryEntry(f *OutputFormatter, e journey.HistoryEntry) {
	line := e.CreatedAt.UTC().Format(time.RFC3339) + "  " +
		e.JourneyID + "  " + string(e.Operation) + "/" + string(e.Outcome)
	if e.RemoteID != "" {
		line += "  remote=" + e.RemoteID
	}
	if e.Error != "" {
		line += "  " + e.Error
	}
	f.Text("%s", line)
}
