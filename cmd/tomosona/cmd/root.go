// Package cmd provides the tomosona CLI commands.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbl2024/tomosona/internal/app"
	"github.com/jbl2024/tomosona/internal/logging"
)

var (
	rootFlag      string
	debugMode     bool
	loggingCleanup func()
)

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the tomosona root command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tomosona",
		Short: "Local, single-user Markdown notes index and search engine",
		Long: `tomosona indexes a workspace of Markdown notes, combining full-text
search with semantic similarity, explicit wiki-link and date-token
references, and a derived nearest-neighbor edge cache into a single
local index.`,
		PersistentPreRunE:  setupLogging,
		PersistentPostRunE: teardownLogging,
	}

	root.PersistentFlags().StringVar(&rootFlag, "root", "", "workspace root (defaults to the current directory)")
	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to ~/.tomosona/logs/")

	root.AddCommand(newIndexCmd())
	root.AddCommand(newRebuildCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newBacklinksCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newLogsCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newRelinkCmd())
	root.AddCommand(newMCPCmd())

	return root
}

func setupLogging(*cobra.Command, []string) error {
	level := "info"
	if debugMode {
		level = "debug"
	}
	logger, cleanup, err := logging.Setup(logging.Config{
		Level:         level,
		FilePath:      logging.DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	loggingCleanup = cleanup
	return nil
}

func teardownLogging(*cobra.Command, []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
	}
	return nil
}

// workspaceRoot resolves the --root flag to the current directory when unset.
func workspaceRoot() (string, error) {
	if rootFlag != "" {
		return rootFlag, nil
	}
	return os.Getwd()
}

// openApp resolves the workspace root and wires the full collaborator
// set, failing with the same errors workspace.Open and app.Open produce.
func openApp() (*app.App, error) {
	root, err := workspaceRoot()
	if err != nil {
		return nil, err
	}
	return app.Open(root, slog.Default())
}
