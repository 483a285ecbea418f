package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newBacklinksCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "backlinks <file>",
		Short: "List notes that reference the given note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBacklinks(cmd, args[0], jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func runBacklinks(cmd *cobra.Command, target string, jsonOutput bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	abs, err := filepath.Abs(target)
	if err != nil {
		return err
	}

	matches, err := a.Backlinks.For(cmd.Context(), abs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(matches)
	}
	for _, m := range matches {
		fmt.Fprintln(out, m)
	}
	return nil
}
