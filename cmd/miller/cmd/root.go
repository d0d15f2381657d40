// Package cmd provides the CLI commands for miller.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/standardbeagle/miller/internal/logging"
	"github.com/standardbeagle/miller/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the miller CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "miller",
		Short: "Workspace-scoped code intelligence index",
		Long: `miller extracts and indexes symbols, relationships, and embeddings
across a codebase, then serves hybrid (full-text + semantic + code-pattern)
search and code-navigation tools over the result.

Run 'miller index' to build an index, 'miller watch' to keep it current as
files change, and 'miller serve' to expose the tool surface to a connected
transport.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("miller version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to "+logging.DefaultLogPath())
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newGPUCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startLogging(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	if debugMode {
		logCfg = logging.DebugConfig()
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
