package mcp

import (
	"context"
	"log/slog"
	"path/filepath"

	gosdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jbl2024/tomosona/internal/app"
	"github.com/jbl2024/tomosona/pkg/version"
)

// Server bridges the core (an open *app.App) to the subset of §6's host
// RPC surface the core itself owns: fts_search, backlinks_for,
// get_wikilink_graph, reindex_file, remove_file_from_index,
// rebuild_index, request_index_cancel, read_index_runtime_status,
// read_index_logs. File CRUD, dialogs, and window lifecycle stay with
// the host shell, per §1's Non-goals.
type Server struct {
	mcp    *gosdk.Server
	app    *app.App
	logger *slog.Logger
}

// NewServer wires a Server over an already-open App.
func NewServer(a *app.App, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{app: a, logger: logger}
	s.mcp = gosdk.NewServer(&gosdk.Implementation{
		Name:    "tomosona",
		Version: version.Version,
	}, nil)
	s.registerTools()
	return s
}

// MCPServer returns the underlying SDK server, mainly for tests.
func (s *Server) MCPServer() *gosdk.Server {
	return s.mcp
}

// Serve runs the server over stdio until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting MCP server", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &gosdk.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped")
	return nil
}

func (s *Server) registerTools() {
	gosdk.AddTool(s.mcp, &gosdk.Tool{
		Name:        "fts_search",
		Description: "Hybrid lexical+semantic search over the note index. Returns ranked hits with snippets and fused scores.",
	}, s.ftsSearchHandler)

	gosdk.AddTool(s.mcp, &gosdk.Tool{
		Name:        "backlinks_for",
		Description: "List every note that references the given note via a wiki-link or date-token, computed live from the filesystem.",
	}, s.backlinksForHandler)

	gosdk.AddTool(s.mcp, &gosdk.Tool{
		Name:        "get_wikilink_graph",
		Description: "Return the full node/edge payload for the workspace's link graph, including derived semantic-similarity edges.",
	}, s.getWikilinkGraphHandler)

	gosdk.AddTool(s.mcp, &gosdk.Tool{
		Name:        "reindex_file",
		Description: "Reindex a single note: reparse, rechunk, reembed, and replace its rows in the index within one transaction.",
	}, s.reindexFileHandler)

	gosdk.AddTool(s.mcp, &gosdk.Tool{
		Name:        "remove_file_from_index",
		Description: "Remove a note's rows (chunks, links, properties, embeddings, semantic edges) from the index.",
	}, s.removeFileFromIndexHandler)

	gosdk.AddTool(s.mcp, &gosdk.Tool{
		Name:        "rebuild_index",
		Description: "Wipe and reindex the entire workspace, then refresh semantic edges once. Can run long; see request_index_cancel.",
	}, s.rebuildIndexHandler)

	gosdk.AddTool(s.mcp, &gosdk.Tool{
		Name:        "request_index_cancel",
		Description: "Request cooperative cancellation of an in-progress rebuild_index call.",
	}, s.requestIndexCancelHandler)

	gosdk.AddTool(s.mcp, &gosdk.Tool{
		Name:        "read_index_runtime_status",
		Description: "Read the embedder's lifecycle state and index-wide note/chunk counts.",
	}, s.readIndexRuntimeStatusHandler)

	gosdk.AddTool(s.mcp, &gosdk.Tool{
		Name:        "read_index_logs",
		Description: "Read the trailing entries of the most recent rebuild's bounded progress log.",
	}, s.readIndexLogsHandler)

	s.logger.Debug("registered MCP tools", slog.Int("count", 9))
}

// resolvePath interprets an MCP tool's path argument as workspace-relative
// unless it's already absolute, mirroring the CLI's filepath.Abs handling
// for paths given relative to the invoking shell.
func (s *Server) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.app.Workspace.Root(), filepath.FromSlash(path))
}

func (s *Server) ftsSearchHandler(ctx context.Context, _ *gosdk.CallToolRequest, input FTSSearchInput) (
	*gosdk.CallToolResult, FTSSearchOutput, error,
) {
	if input.Query == "" {
		return nil, FTSSearchOutput{}, NewInvalidParamsError("query parameter is required")
	}

	hits, err := s.app.Search.Search(ctx, input.Query)
	if err != nil {
		return nil, FTSSearchOutput{}, MapError(err)
	}

	limit := input.Limit
	if limit <= 0 || limit > len(hits) {
		limit = len(hits)
	}
	hits = hits[:limit]

	out := FTSSearchOutput{Results: make([]SearchHitOutput, 0, len(hits))}
	for _, h := range hits {
		out.Results = append(out.Results, SearchHitOutput{
			PathAbsolute: h.PathAbsolute,
			Snippet:      h.Snippet,
			Score:        h.Score,
		})
	}
	return nil, out, nil
}

func (s *Server) backlinksForHandler(ctx context.Context, _ *gosdk.CallToolRequest, input BacklinksForInput) (
	*gosdk.CallToolResult, BacklinksForOutput, error,
) {
	if input.Path == "" {
		return nil, BacklinksForOutput{}, NewInvalidParamsError("path parameter is required")
	}

	matches, err := s.app.Backlinks.For(ctx, s.resolvePath(input.Path))
	if err != nil {
		return nil, BacklinksForOutput{}, MapError(err)
	}
	return nil, BacklinksForOutput{Paths: matches}, nil
}

func (s *Server) getWikilinkGraphHandler(ctx context.Context, _ *gosdk.CallToolRequest, _ GetWikilinkGraphInput) (
	*gosdk.CallToolResult, GetWikilinkGraphOutput, error,
) {
	payload, err := s.app.Graph.Build(ctx)
	if err != nil {
		return nil, GetWikilinkGraphOutput{}, MapError(err)
	}

	out := GetWikilinkGraphOutput{
		Nodes:         make([]GraphNodeOutput, 0, len(payload.Nodes)),
		Edges:         make([]GraphEdgeOutput, 0, len(payload.Edges)),
		GeneratedAtMs: payload.GeneratedAtMs,
	}
	for _, n := range payload.Nodes {
		out.Nodes = append(out.Nodes, GraphNodeOutput{
			Path:         n.ID,
			AbsolutePath: n.AbsolutePath,
			Label:        n.Label,
			Degree:       n.Degree,
			Tags:         n.Tags,
		})
	}
	for _, e := range payload.Edges {
		out.Edges = append(out.Edges, GraphEdgeOutput{
			Source: e.Source,
			Target: e.Target,
			Type:   e.Type,
			Score:  e.Score,
		})
	}
	return nil, out, nil
}

func (s *Server) reindexFileHandler(ctx context.Context, _ *gosdk.CallToolRequest, input ReindexFileInput) (
	*gosdk.CallToolResult, ReindexFileOutput, error,
) {
	if input.Path == "" {
		return nil, ReindexFileOutput{}, NewInvalidParamsError("path parameter is required")
	}

	abs := s.resolvePath(input.Path)
	if err := s.app.Indexer.IndexFile(ctx, abs); err != nil {
		return nil, ReindexFileOutput{}, MapError(err)
	}
	return nil, ReindexFileOutput{Path: input.Path}, nil
}

func (s *Server) removeFileFromIndexHandler(ctx context.Context, _ *gosdk.CallToolRequest, input RemoveFileFromIndexInput) (
	*gosdk.CallToolResult, RemoveFileFromIndexOutput, error,
) {
	if input.Path == "" {
		return nil, RemoveFileFromIndexOutput{}, NewInvalidParamsError("path parameter is required")
	}

	abs := s.resolvePath(input.Path)
	if err := s.app.Indexer.RemoveFile(ctx, abs); err != nil {
		return nil, RemoveFileFromIndexOutput{}, MapError(err)
	}
	return nil, RemoveFileFromIndexOutput{Path: input.Path}, nil
}

func (s *Server) rebuildIndexHandler(ctx context.Context, _ *gosdk.CallToolRequest, _ RebuildIndexInput) (
	*gosdk.CallToolResult, RebuildIndexOutput, error,
) {
	result, err := s.app.Rebuilder.Run(ctx)
	if err != nil {
		return nil, RebuildIndexOutput{}, MapError(err)
	}
	return nil, RebuildIndexOutput{IndexedFiles: result.IndexedFiles, Canceled: result.Canceled}, nil
}

func (s *Server) requestIndexCancelHandler(_ context.Context, _ *gosdk.CallToolRequest, _ RequestIndexCancelInput) (
	*gosdk.CallToolResult, RequestIndexCancelOutput, error,
) {
	s.app.Rebuilder.Cancel.Request()
	return nil, RequestIndexCancelOutput{Requested: true}, nil
}

func (s *Server) readIndexRuntimeStatusHandler(ctx context.Context, _ *gosdk.CallToolRequest, _ ReadIndexRuntimeStatusInput) (
	*gosdk.CallToolResult, ReadIndexRuntimeStatusOutput, error,
) {
	status := s.app.Embed.Status()

	stats, err := s.app.Store.Stats(ctx)
	if err != nil {
		return nil, ReadIndexRuntimeStatusOutput{}, MapError(err)
	}

	return nil, ReadIndexRuntimeStatusOutput{
		EmbedderState: string(status.State),
		InitAttempts:  status.InitAttempts,
		LastError:     status.LastError,
		TotalNotes:    stats.TotalNotes,
		TotalChunks:   stats.TotalChunks,
	}, nil
}

func (s *Server) readIndexLogsHandler(_ context.Context, _ *gosdk.CallToolRequest, input ReadIndexLogsInput) (
	*gosdk.CallToolResult, ReadIndexLogsOutput, error,
) {
	limit := input.Limit
	if limit <= 0 {
		limit = 100
	}

	entries := s.app.Rebuilder.Log.Entries()
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	out := ReadIndexLogsOutput{Entries: make([]IndexLogEntryOutput, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, IndexLogEntryOutput{Path: e.Path, Error: e.Error})
	}
	return nil, out, nil
}
