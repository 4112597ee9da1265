// Package main is the entry point for the notemap server and its
// maintenance commands. It loads configuration, connects to services,
// and dispatches to the cobra command tree.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"notemap/internal/config"
)

var (
	version = "dev" // set via -ldflags at build time
	commit  = "none"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	a := &app{}

	root := &cobra.Command{
		Use:           "notemap",
		Short:         "notemap sizes and lays out note categories",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			a.cfg = cfg
			a.logger = newLogger(os.Stderr, cfg.IsDev(), verbose)
			slog.SetDefault(a.logger)
			return nil
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("notemap %s\ncommit: %s\n", version, commit))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newUserCmd(a))
	root.AddCommand(newBackupCmd(a))

	return root
}
