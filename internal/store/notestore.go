package store

import (
	"context"
	"database/sql"
	"fmt"

	tomoerrors "github.com/jbl2024/tomosona/internal/errors"
)

// NoteWrite bundles everything the Note Indexer (§4.6) produces for a
// single file into one atomic replacement.
type NoteWrite struct {
	Path       string
	Links      []LinkEdge
	Properties []Property
	Chunks     []Chunk // IDs are ignored on input, assigned on insert
	// Embeddings, parallel to Chunks by index; nil entries mean "no
	// embedding for this chunk" (embedder unavailable or skipped).
	Embeddings []*ChunkEmbeddingVector
	// Centroid is the note-level embedding; nil means none (embedder
	// unavailable, or no chunk embeddings to centroid).
	Centroid    []float32
	ModelLabel  string
	UpdatedAtMs int64
}

// ChunkEmbeddingVector is the unit-norm vector for one chunk, indexed
// positionally alongside NoteWrite.Chunks.
type ChunkEmbeddingVector struct {
	Vector []float32
}

// ReplaceNote atomically replaces every row for w.Path: deletes the prior
// generation, then inserts the new one, all inside a single transaction,
// satisfying the atomicity invariant of §3 and the Note Indexer's steps
// 2-8. The vector-index row is written outside the SQL transaction (the
// HNSW graph isn't transactional) but only after the commit succeeds, so
// a failed commit never leaves a dangling vector entry.
func (s *Store) ReplaceNote(ctx context.Context, w NoteWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return tomoerrors.StoreErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteNoteRows(ctx, tx, w.Path); err != nil {
		return err
	}

	chunkIDs := make([]int64, len(w.Chunks))
	for i, c := range w.Chunks {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO chunks(path, anchor, text, mtime) VALUES (?, ?, ?, ?)`,
			w.Path, c.Anchor, c.Text, c.MTime.UnixMilli())
		if err != nil {
			return tomoerrors.StoreErr(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return tomoerrors.StoreErr(err)
		}
		chunkIDs[i] = id
	}

	for _, l := range w.Links {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO note_links(source_path, target_key) VALUES (?, ?)`,
			w.Path, l.TargetKey); err != nil {
			return tomoerrors.StoreErr(err)
		}
	}

	for _, p := range w.Properties {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO note_properties(path, key, kind, value_text, value_num, value_bool, value_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			w.Path, p.Key, string(p.Kind), p.ValueText, p.ValueNum, p.ValueBool, p.ValueDate); err != nil {
			return tomoerrors.StoreErr(err)
		}
	}

	if w.ModelLabel != "" {
		for i, emb := range w.Embeddings {
			if emb == nil {
				continue
			}
			blob := EncodeVector(emb.Vector)
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO embeddings(chunk_id, model_label, dim, vector) VALUES (?, ?, ?, ?)`,
				chunkIDs[i], w.ModelLabel, len(emb.Vector), blob); err != nil {
				return tomoerrors.StoreErr(err)
			}
		}
		if w.Centroid != nil {
			blob := EncodeVector(w.Centroid)
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO note_embeddings(path, model_label, dim, vector, updated_at_ms) VALUES (?, ?, ?, ?, ?)`,
				w.Path, w.ModelLabel, len(w.Centroid), blob, w.UpdatedAtMs); err != nil {
				return tomoerrors.StoreErr(err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return tomoerrors.StoreErr(err)
	}

	if w.Centroid != nil && s.Vector != nil {
		_ = s.Vector.Upsert(w.Path, w.Centroid)
	} else if s.Vector != nil {
		_ = s.Vector.Remove(w.Path)
	}

	return nil
}

// RemoveNote deletes every row for path (chunks, links, properties,
// embeddings, centroid) plus any semantic edge touching path, and drops
// its vector-index entry. Symmetric with ReplaceNote, per §4.6's
// "Removal" paragraph.
func (s *Store) RemoveNote(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return tomoerrors.StoreErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteNoteRows(ctx, tx, path); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM semantic_edges WHERE source_path = ? OR target_path = ?`, path, path); err != nil {
		return tomoerrors.StoreErr(err)
	}

	if err := tx.Commit(); err != nil {
		return tomoerrors.StoreErr(err)
	}

	if s.Vector != nil {
		_ = s.Vector.Remove(path)
	}
	return nil
}

func deleteNoteRows(ctx context.Context, tx *sql.Tx, path string) error {
	stmts := []string{
		`DELETE FROM chunks WHERE path = ?`,
		`DELETE FROM note_links WHERE source_path = ?`,
		`DELETE FROM note_properties WHERE path = ?`,
		`DELETE FROM note_embeddings WHERE path = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, path); err != nil {
			return tomoerrors.StoreErr(err)
		}
	}
	return nil
}

// Truncate wipes every base table and the vector index, the first step of
// a full Workspace Rebuild (§4.7).
func (s *Store) Truncate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return tomoerrors.StoreErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	tables := []string{"chunks", "note_links", "note_properties", "embeddings", "note_embeddings", "semantic_edges"}
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", t)); err != nil {
			return tomoerrors.StoreErr(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return tomoerrors.StoreErr(err)
	}
	if s.Vector != nil {
		s.Vector.Clear()
	}
	return nil
}

// Search runs a full-text query against chunk text, returning up to limit
// candidates ordered by the store's native relevance (bm25, lower is
// better), with snippets using the spec's marker/window convention (§4.9
// step 2).
func (s *Store) Search(ctx context.Context, query string, limit int) ([]ChunkHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.path, c.anchor, c.text,
		       snippet(chunks_fts, 2, '<b>', '</b>', '...', 12) AS snippet,
		       bm25(chunks_fts) AS score
		FROM chunks_fts
		JOIN chunks c ON c.id = chunks_fts.rowid
		WHERE chunks_fts MATCH ?
		ORDER BY score
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, tomoerrors.StoreErr(err)
	}
	defer rows.Close()

	var hits []ChunkHit
	for rows.Next() {
		var h ChunkHit
		if err := rows.Scan(&h.ChunkID, &h.Path, &h.Anchor, &h.Text, &h.Snippet, &h.RawScore); err != nil {
			return nil, tomoerrors.StoreErr(err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, tomoerrors.StoreErr(err)
	}
	return hits, nil
}

// ChunkEmbeddingByID fetches the stored unit vector for a chunk, if any.
func (s *Store) ChunkEmbeddingByID(ctx context.Context, chunkID int64) ([]float32, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT vector FROM embeddings WHERE chunk_id = ?`, chunkID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, tomoerrors.StoreErr(err)
	}
	v, err := DecodeVector(blob)
	if err != nil {
		return nil, false, tomoerrors.StoreErr(err)
	}
	return v, true, nil
}

// NoteCentroid fetches a note's stored centroid vector, if any.
func (s *Store) NoteCentroid(ctx context.Context, path string) ([]float32, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT vector FROM note_embeddings WHERE path = ?`, path).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, tomoerrors.StoreErr(err)
	}
	v, err := DecodeVector(blob)
	if err != nil {
		return nil, false, tomoerrors.StoreErr(err)
	}
	return v, true, nil
}

// NotesWithCentroids lists every note path holding a centroid, for the
// Semantic Edge Refresher to iterate (§4.8 step 1).
func (s *Store) NotesWithCentroids(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM note_embeddings`)
	if err != nil {
		return nil, tomoerrors.StoreErr(err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, tomoerrors.StoreErr(err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// HasExplicitLink reports whether note_links already has source->targetKey,
// used by the Semantic Edge Refresher to de-duplicate against explicit
// edges (§4.8 step 5, invariant 4).
func (s *Store) HasExplicitLink(ctx context.Context, source, targetKey string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM note_links WHERE source_path = ? AND target_key = ?`, source, targetKey).Scan(&n)
	if err != nil {
		return false, tomoerrors.StoreErr(err)
	}
	return n > 0, nil
}

// NoteEmbeddingModelLabel fetches the model label recorded alongside a
// note's centroid, if any.
func (s *Store) NoteEmbeddingModelLabel(ctx context.Context, path string) (string, error) {
	var label string
	err := s.db.QueryRowContext(ctx, `SELECT model_label FROM note_embeddings WHERE path = ?`, path).Scan(&label)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", tomoerrors.StoreErr(err)
	}
	return label, nil
}

// ReplaceSemanticEdges atomically replaces the entire semantic_edges
// table, per §4.8 and the ordering guarantee in §5 that readers see the
// pre-refresh snapshot until commit.
func (s *Store) ReplaceSemanticEdges(ctx context.Context, edges []SemanticEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return tomoerrors.StoreErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM semantic_edges`); err != nil {
		return tomoerrors.StoreErr(err)
	}
	for _, e := range edges {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO semantic_edges(source_path, target_path, score, model_label, updated_at_ms) VALUES (?, ?, ?, ?, ?)`,
			e.SourcePath, e.TargetPath, e.Score, e.ModelLabel, e.UpdatedAtMs); err != nil {
			return tomoerrors.StoreErr(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return tomoerrors.StoreErr(err)
	}
	return nil
}

// SemanticEdges returns the full cached semantic-edge table, for the
// Graph Assembler (§4.10).
func (s *Store) SemanticEdges(ctx context.Context) ([]SemanticEdge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source_path, target_path, score, model_label, updated_at_ms FROM semantic_edges`)
	if err != nil {
		return nil, tomoerrors.StoreErr(err)
	}
	defer rows.Close()

	var edges []SemanticEdge
	for rows.Next() {
		var e SemanticEdge
		if err := rows.Scan(&e.SourcePath, &e.TargetPath, &e.Score, &e.ModelLabel, &e.UpdatedAtMs); err != nil {
			return nil, tomoerrors.StoreErr(err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// AllLinks returns every explicit link edge, for the Graph Assembler.
func (s *Store) AllLinks(ctx context.Context) ([]LinkEdge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source_path, target_key FROM note_links`)
	if err != nil {
		return nil, tomoerrors.StoreErr(err)
	}
	defer rows.Close()

	var links []LinkEdge
	for rows.Next() {
		var l LinkEdge
		if err := rows.Scan(&l.SourcePath, &l.TargetKey); err != nil {
			return nil, tomoerrors.StoreErr(err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// Stats is a point-in-time summary of index size, for the `status`
// surface (§6).
type Stats struct {
	TotalNotes  int
	TotalChunks int
	LastIndexed int64 // max note_embeddings.updated_at_ms, 0 if none
}

// Stats reports the current note/chunk counts and the most recent
// note-embedding write time (the largest note_embeddings.updated_at_ms).
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT path) FROM chunks`).Scan(&stats.TotalNotes); err != nil {
		return Stats{}, tomoerrors.StoreErr(err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&stats.TotalChunks); err != nil {
		return Stats{}, tomoerrors.StoreErr(err)
	}
	var lastIndexed sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(updated_at_ms) FROM note_embeddings`).Scan(&lastIndexed); err != nil {
		return Stats{}, tomoerrors.StoreErr(err)
	}
	if lastIndexed.Valid {
		stats.LastIndexed = lastIndexed.Int64
	}
	return stats, nil
}

// ListProperties returns every property row matching key (and, for list
// properties, every element row), used by the Graph Assembler to gather
// tags (§4.10) and by property-type schema tooling.
func (s *Store) ListProperties(ctx context.Context, key string) ([]Property, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, key, kind, value_text, value_num, value_bool, value_date FROM note_properties WHERE key = ?`, key)
	if err != nil {
		return nil, tomoerrors.StoreErr(err)
	}
	defer rows.Close()

	var props []Property
	for rows.Next() {
		var p Property
		var kind string
		if err := rows.Scan(&p.Path, &p.Key, &kind, &p.ValueText, &p.ValueNum, &p.ValueBool, &p.ValueDate); err != nil {
			return nil, tomoerrors.StoreErr(err)
		}
		p.Kind = PropertyKind(kind)
		props = append(props, p)
	}
	return props, rows.Err()
}
