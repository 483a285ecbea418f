package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jbl2024/tomosona/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the read/query MCP server over stdio",
		Long: `Starts an MCP server exposing the core's query surface
(fts_search, backlinks_for, get_wikilink_graph, reindex_file,
remove_file_from_index, rebuild_index, request_index_cancel,
read_index_runtime_status, read_index_logs) over stdio. File CRUD,
dialogs, and window lifecycle stay with the host shell.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			server := mcp.NewServer(a, nil)
			return server.Serve(cmd.Context())
		},
	}
}
