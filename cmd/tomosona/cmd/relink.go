package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newRelinkCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "relink <old-path> <new-path>",
		Short: "Rewrite wiki-links after a note was renamed or moved (update_wikilinks_for_rename)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelink(cmd, args[0], args[1], jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func runRelink(cmd *cobra.Command, oldPath, newPath string, jsonOutput bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	updated, err := a.Rename.ApplyRename(cmd.Context(), oldPath, newPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(updated)
	}
	for _, rel := range updated {
		_, _ = out.Write([]byte(rel + "\n"))
	}
	return nil
}
