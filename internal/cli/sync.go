package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/touchpointhq/journeysync/internal/engine"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	DryRun    bool
	OwnerID   string
	JourneyID string
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile pending journeys with the workflow engine",
		Long: `Reconcile pending journeys with the remote workflow engine.

Each pending journey is validated, checked for conflicts against its remote
counterpart, and pushed outward (create or update). Journeys blocked by
unresolved manual conflicts are skipped; resolve them with
"journeysync conflicts resolve".

Exit codes:
  0 - all journeys synced, no unresolved blocking conflicts
  1 - at least one journey failed or is blocked
  2 - command error (bad config, database not found)

Example:
  journeysync sync --db ./journeys.db
  journeysync sync --record jny-42 --dry-run --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "evaluate conflicts without remote writes")
	cmd.Flags().StringVar(&opts.OwnerID, "owner", "", "scope the run to one owner")
	cmd.Flags().StringVar(&opts.JourneyID, "record", "", "sync a single journey by id")

	return cmd
}

func runSync(cmd *cobra.Command, opts *SyncOptions) error {
	env, err := openEnvironment(opts.RootOptions)
	if err != nil {
		return err
	}
	defer env.close()

	result, err := env.orchestrator().Run(cmd.Context(), engine.Options{
		JourneyID: opts.JourneyID,
		OwnerID:   opts.OwnerID,
		DryRun:    opts.DryRun,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "sync run failed", err)
	}

	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
	if err := renderRunResult(formatter, result); err != nil {
		return err
	}

	blocked := 0
	for _, c := range result.UnresolvedConflicts {
		if c.Blocking() {
			blocked++
		}
	}
	switch {
	case !result.Success:
		return NewExitError(ExitFailure, fmt.Sprintf("%d journey(s) failed", result.Stats.Failed))
	case blocked > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d journey(s) blocked by unresolved conflicts", blocked))
	}
	return nil
}

func renderRunResult(f *OutputFormatter, result *engine.RunResult) error {
	if f.Format == "json" {
		return f.JSON(result)
	}

	f.Text("Synced:    %d (%d created, %d updated)",
		result.Stats.Synced, result.Stats.Created, result.Stats.Updated)
	f.Text("Conflicts: %d", result.Stats.Conflicts)
	f.Text("Failed:    %d", result.Stats.Failed)
	f.Text("Skipped:   %d", result.Stats.Skipped)
	f.Text("Duration:  %dms", result.DurationMs)

	if len(result.UnresolvedConflicts) > 0 {
		f.Text("")
		f.Text("Unresolved conflicts:")
		for _, c := range result.UnresolvedConflicts {
			f.Text("  %s  %s  %s/%s (%s): %s",
				c.ID, c.JourneyID, c.Type, c.Severity, c.Policy, c.Message)
		}
	}

	if f.Verbose && len(result.History) > 0 {
		f.Text("")
		f.Text("History:")
		for _, e := range result.History {
			line := fmt.Sprintf("  %s  %s  %s/%s", e.ID, e.JourneyID, e.Operation, e.Outcome)
			if e.Error != "" {
				line += "  " + e.Error
			}
			f.Text("%s", line)
		}
	}
	return nil
}
