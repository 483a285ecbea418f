package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Wipe and fully reindex the workspace",
		RunE:  runRebuild,
	}
	return cmd
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	result, err := a.Rebuilder.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.Canceled {
		fmt.Fprintf(out, "rebuild canceled after indexing %d file(s)\n", result.IndexedFiles)
		return nil
	}
	fmt.Fprintf(out, "indexed %d file(s)\n", result.IndexedFiles)
	return nil
}
