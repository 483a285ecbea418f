package mcp

// FTSSearchInput is the input schema for the fts_search tool.
type FTSSearchInput struct {
	Query string `json:"query" jsonschema:"the search query, free text plus optional property:value filters"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 25, capped at 25"`
}

// SearchHitOutput is one ranked hit in a fts_search response.
type SearchHitOutput struct {
	PathAbsolute string  `json:"path_absolute" jsonschema:"absolute path of the matching note"`
	Snippet      string  `json:"snippet" jsonschema:"matched text snippet"`
	Score        float64 `json:"score" jsonschema:"fused lexical+semantic score in [0,1]"`
}

// FTSSearchOutput is the output schema for the fts_search tool.
type FTSSearchOutput struct {
	Results []SearchHitOutput `json:"results" jsonschema:"ranked search hits, highest score first"`
}

// BacklinksForInput is the input schema for the backlinks_for tool.
type BacklinksForInput struct {
	Path string `json:"path" jsonschema:"workspace-relative or absolute path of the note to find referrers for"`
}

// BacklinksForOutput is the output schema for the backlinks_for tool.
type BacklinksForOutput struct {
	Paths []string `json:"paths" jsonschema:"absolute paths of every note referencing the target, case-insensitively sorted"`
}

// GetWikilinkGraphInput is the (empty) input schema for get_wikilink_graph.
type GetWikilinkGraphInput struct{}

// GraphNodeOutput is one note in the wikilink graph payload.
type GraphNodeOutput struct {
	Path         string   `json:"path" jsonschema:"workspace-relative path"`
	AbsolutePath string   `json:"absolute_path"`
	Label        string   `json:"label" jsonschema:"path with the markdown extension stripped"`
	Degree       int      `json:"degree" jsonschema:"count of edges touching this node"`
	Tags         []string `json:"tags,omitempty"`
}

// GraphEdgeOutput is one explicit or derived relationship in the graph.
type GraphEdgeOutput struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   string   `json:"type" jsonschema:"wikilink or semantic"`
	Score  *float64 `json:"score,omitempty" jsonschema:"cosine similarity, present only for semantic edges"`
}

// GetWikilinkGraphOutput is the output schema for get_wikilink_graph.
type GetWikilinkGraphOutput struct {
	Nodes         []GraphNodeOutput `json:"nodes"`
	Edges         []GraphEdgeOutput `json:"edges"`
	GeneratedAtMs int64             `json:"generated_at_ms"`
}

// ReindexFileInput is the input schema for the reindex_file tool.
type ReindexFileInput struct {
	Path string `json:"path" jsonschema:"workspace-relative or absolute path of the note to (re)index"`
}

// ReindexFileOutput is the output schema for the reindex_file tool.
type ReindexFileOutput struct {
	Path string `json:"path"`
}

// RemoveFileFromIndexInput is the input schema for remove_file_from_index.
type RemoveFileFromIndexInput struct {
	Path string `json:"path" jsonschema:"workspace-relative or absolute path of the note to remove"`
}

// RemoveFileFromIndexOutput is the output schema for remove_file_from_index.
type RemoveFileFromIndexOutput struct {
	Path string `json:"path"`
}

// RebuildIndexInput is the (empty) input schema for rebuild_index.
type RebuildIndexInput struct{}

// RebuildIndexOutput is the output schema for rebuild_index.
type RebuildIndexOutput struct {
	IndexedFiles int  `json:"indexed_files"`
	Canceled     bool `json:"canceled"`
}

// RequestIndexCancelInput is the (empty) input schema for request_index_cancel.
type RequestIndexCancelInput struct{}

// RequestIndexCancelOutput is the output schema for request_index_cancel.
type RequestIndexCancelOutput struct {
	Requested bool `json:"requested"`
}

// ReadIndexRuntimeStatusInput is the (empty) input schema for
// read_index_runtime_status.
type ReadIndexRuntimeStatusInput struct{}

// ReadIndexRuntimeStatusOutput is the output schema for
// read_index_runtime_status, surfacing the Embedder Facade's lifecycle
// (§4.4) and index-wide counts (§4.7).
type ReadIndexRuntimeStatusOutput struct {
	EmbedderState string `json:"embedder_state"`
	InitAttempts  int    `json:"embedder_init_attempts"`
	LastError     string `json:"embedder_last_error,omitempty"`
	TotalNotes    int    `json:"total_notes"`
	TotalChunks   int    `json:"total_chunks"`
}

// ReadIndexLogsInput is the input schema for the read_index_logs tool.
type ReadIndexLogsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of trailing log entries, default 100"`
}

// IndexLogEntryOutput is one entry from the rebuild progress ring buffer.
type IndexLogEntryOutput struct {
	Path  string `json:"path"`
	Error string `json:"error,omitempty"`
}

// ReadIndexLogsOutput is the output schema for the read_index_logs tool.
type ReadIndexLogsOutput struct {
	Entries []IndexLogEntryOutput `json:"entries"`
}
