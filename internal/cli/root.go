// Package cli implements the journeysync command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/touchpointhq/journeysync/internal/config"
	"github.com/touchpointhq/journeysync/internal/engine"
	"github.com/touchpointhq/journeysync/internal/remote"
	"github.com/touchpointhq/journeysync/internal/retry"
	"github.com/touchpointhq/journeysync/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string // CUE config file path; empty = defaults
	Database string // overrides the configured database path
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the journeysync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "journeysync",
		Short: "Sync locally authored journeys to the remote workflow engine",
		Long: `journeysync reconciles locally authored journeys against a remote
workflow engine: it detects conflicts, pushes local changes outward under a
rate-limit-aware retry policy, and records every decision in an append-only
sync history.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to CUE config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewConflictsCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewRollbackCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func configureLogging(verbose bool) {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// environment is the wired-up runtime every command operates on.
type environment struct {
	cfg   *config.Config
	store *store.Store
}

// openEnvironment loads config and opens the journey store. The --db flag
// wins over the configured database path.
func openEnvironment(opts *RootOptions) (*environment, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	dbPath := cfg.DatabasePath
	if opts.Database != "" {
		dbPath = opts.Database
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	return &environment{cfg: cfg, store: st}, nil
}

func (e *environment) close() {
	if err := e.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// orchestrator wires the sync engine over the environment: the HTTP client
// against the configured workflow engine, the store-backed conflict registry,
// and the configured retry policy.
func (e *environment) orchestrator() *engine.Orchestrator {
	client := remote.NewClient(e.cfg.Remote.BaseURL, e.cfg.Remote.Token)
	policy := retry.New(
		retry.WithBaseDelay(e.cfg.Retry.BaseDelay),
		retry.WithMaxDelay(e.cfg.Retry.MaxDelay),
		retry.WithMaxRetries(e.cfg.Retry.MaxRetries),
	)
	return engine.New(e.store, client, remote.DefaultMapper{},
		engine.WithRegistry(e.store),
		engine.WithRetryPolicy(policy),
	)
}
