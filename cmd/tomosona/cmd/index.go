package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <file> [file...]",
		Short: "Index or reindex one or more Markdown files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIndex,
	}
	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := cmd.Context()
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", arg, err)
		}
		if err := a.Indexer.IndexFile(ctx, abs); err != nil {
			return fmt.Errorf("indexing %s: %w", arg, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %s\n", arg)
	}
	return nil
}
