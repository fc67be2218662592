package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/touchpointhq/journeysync/internal/conflict"
	"github.com/touchpointhq/journeysync/internal/diff"
	"github.com/touchpointhq/journeysync/internal/remote"
)

// ConflictsOptions holds flags for the conflicts subcommands.
type ConflictsOptions struct {
	*RootOptions
	JourneyID string
	ShowDiff  bool
}

// NewConflictsCommand creates the conflicts command group.
func NewConflictsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Triage sync conflicts",
	}

	cmd.AddCommand(newConflictsListCommand(rootOpts))
	cmd.AddCommand(newConflictsResolveCommand(rootOpts))

	return cmd
}

func newConflictsListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConflictsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List unresolved conflicts",
		Long: `List unresolved conflicts across journeys, or every recorded conflict
for one journey with --journey.

With --show-diff, each conflict is followed by a step-level diff between the
local journey and its remote counterpart.

Example:
  journeysync conflicts list --db ./journeys.db
  journeysync conflicts list --journey jny-42 --show-diff`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConflictsList(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.JourneyID, "journey", "", "list all conflicts for one journey")
	cmd.Flags().BoolVar(&opts.ShowDiff, "show-diff", false, "show local vs remote step diff per conflict")

	return cmd
}

func runConflictsList(cmd *cobra.Command, opts *ConflictsOptions) error {
	env, err := openEnvironment(opts.RootOptions)
	if err != nil {
		return err
	}
	defer env.close()

	ctx := cmd.Context()

	var conflicts []conflict.Conflict
	if opts.JourneyID != "" {
		conflicts, err = env.store.ListFor(ctx, opts.JourneyID)
	} else {
		conflicts, err = env.store.Unresolved(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list conflicts", err)
	}

	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	if opts.Format == "json" {
		return formatter.JSON(conflicts)
	}

	if len(conflicts) == 0 {
		formatter.Text("no conflicts")
		return nil
	}

	for _, c := range conflicts {
		state := "open"
		if c.Resolved() {
			state = "resolved"
		}
		formatter.Text("%s  %s  %s/%s (%s, %s): %s",
			c.ID, c.JourneyID, c.Type, c.Severity, c.Policy, state, c.Message)

		if opts.ShowDiff {
			if err := renderConflictDiff(cmd, env, formatter, c.JourneyID); err != nil {
				return err
			}
		}
	}
	return nil
}

// renderConflictDiff prints the step-level diff between the local journey and
// its current remote counterpart, remote side first so additions read as
// "what local would add".
func renderConflictDiff(cmd *cobra.Command, env *environment, f *OutputFormatter, journeyID string) error {
	ctx := cmd.Context()

	j, err := env.store.FetchJourney(ctx, journeyID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to fetch journey", err)
	}
	if j == nil {
		f.Text("  (journey %s no longer exists)", journeyID)
		return nil
	}

	client := remote.NewClient(env.cfg.Remote.BaseURL, env.cfg.Remote.Token)
	var entity *remote.Entity
	if j.RemoteID != "" {
		entity, err = client.FetchEntity(ctx, j.RemoteID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to fetch remote entity", err)
		}
	}

	report := diff.RenderCollection(diff.CompareCollections(remote.StepsFromEntity(entity), j.Steps))
	for _, line := range splitLines(report) {
		f.Text("  %s", line)
	}
	return nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func newConflictsResolveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <conflict-id> <strategy>",
		Short: "Resolve a conflict with the chosen strategy",
		Long: `Mark a conflict resolved. The strategy records how the divergence was
settled: auto_create, auto_overwrite, merge, or manual.

A resolved conflict stops blocking its journey; re-run sync to push it.

Example:
  journeysync conflicts resolve c-7f3a auto_overwrite`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConflictsResolve(cmd, rootOpts, args[0], conflict.Resolution(args[1]))
		},
	}
	return cmd
}

func runConflictsResolve(cmd *cobra.Command, rootOpts *RootOptions, conflictID string, resolution conflict.Resolution) error {
	if !isValidResolution(resolution) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid strategy %q: must be one of %v", resolution, conflict.ValidResolutions))
	}

	env, err := openEnvironment(rootOpts)
	if err != nil {
		return err
	}
	defer env.close()

	if err := env.store.Resolve(cmd.Context(), conflictID, resolution); err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve conflict", err)
	}

	formatter := &OutputFormatter{
		Format: rootOpts.Format,
		Writer: cmd.OutOrStdout(),
	}
	if rootOpts.Format == "json" {
		return formatter.JSON(map[string]string{
			"conflict_id": conflictID,
			"resolution":  string(resolution),
		})
	}
	formatter.Text("resolved %s as %s", conflictID, resolution)
	return nil
}

func isValidResolution(r conflict.Resolution) bool {
	for _, valid := range conflict.ValidResolutions {
		if r == valid {
			return true
		}
	}
	return false
}
