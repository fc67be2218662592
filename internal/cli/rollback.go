package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRollbackCommand creates the rollback command.
func NewRollbackCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback <journey-id>",
		Short: "Delete a journey's remote counterpart",
		Long: `Delete the remote workflow created for a journey and mark the journey
failed locally. Manual undo for a sync that should not have happened; the
journey itself is untouched and can be edited and re-synced.

Example:
  journeysync rollback jny-42 --db ./journeys.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRollback(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runRollback(cmd *cobra.Command, rootOpts *RootOptions, journeyID string) error {
	env, err := openEnvironment(rootOpts)
	if err != nil {
		return err
	}
	defer env.close()

	ctx := cmd.Context()
	j, err := env.store.FetchJourney(ctx, journeyID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to fetch journey", err)
	}
	if j == nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("journey %s not found", journeyID))
	}
	if j.RemoteID == "" {
		return NewExitError(ExitCommandError, fmt.Sprintf("journey %s has no remote counterpart", journeyID))
	}

	if err := env.orchestrator().Rollback(ctx, journeyID, j.RemoteID); err != nil {
		return WrapExitError(ExitFailure, "rollback failed", err)
	}

	formatter := &OutputFormatter{
		Format: rootOpts.Format,
		Writer: cmd.OutOrStdout(),
	}
	if rootOpts.Format == "json" {
		return formatter.JSON(map[string]string{
			"journey_id": journeyID,
			"remote_id":  j.RemoteID,
		})
	}
	formatter.Text("rolled back %s (deleted remote %s)", journeyID, j.RemoteID)
	return nil
}
