// Package indexer implements the Note Indexer (§4.6): the per-file
// transactional pipeline that parses a Markdown file's frontmatter and
// body, chunks it by heading, extracts outbound link targets, embeds the
// chunks when the embedder is available, and atomically replaces the
// note's rows in the Index Store. It is grounded on the teacher's
// internal/index per-file pipeline (parse -> chunk -> embed -> write),
// adapted from a code-repository indexer to the notes domain's fixed
// five-table write.
package indexer

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jbl2024/tomosona/internal/embed"
	tomoerrors "github.com/jbl2024/tomosona/internal/errors"
	"github.com/jbl2024/tomosona/internal/frontmatter"
	"github.com/jbl2024/tomosona/internal/markdown"
	"github.com/jbl2024/tomosona/internal/pathutil"
	"github.com/jbl2024/tomosona/internal/store"
)

// DefaultMaxFileSizeBytes bounds how large a note the indexer will read
// into memory whole; larger files are skipped rather than indexed.
const DefaultMaxFileSizeBytes = 10 * 1024 * 1024

// Refresher is the Semantic Edge Refresher collaborator (§4.8), invoked
// outside the indexing transaction after a note's rows commit (§4.6 step
// 9). Defined here rather than imported from internal/semantic to avoid
// a dependency cycle; internal/semantic.Refresher satisfies it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Indexer is the Note Indexer of §4.6.
type Indexer struct {
	Store            *store.Store
	Embed            *embed.Facade
	Root             string
	MaxFileSizeBytes int64
	// Refresher, if set, is invoked after a successful single-file
	// replace or removal. The Workspace Rebuilder indexes files without
	// a Refresher wired (or via ReplaceOnly) and performs one
	// refresh after the full walk instead (§4.7 step 3-4).
	Refresher Refresher
	Log       *slog.Logger
}

// New builds an Indexer over store, embedder facade, and workspace root.
func New(s *store.Store, facade *embed.Facade, root string) *Indexer {
	return &Indexer{Store: s, Embed: facade, Root: root, MaxFileSizeBytes: DefaultMaxFileSizeBytes}
}

func (ix *Indexer) logger() *slog.Logger {
	if ix.Log != nil {
		return ix.Log
	}
	return slog.Default()
}

// IndexFile parses, chunks, embeds, and atomically replaces the rows for
// the note at absPath, then triggers a semantic-edge refresh if one is
// wired. absPath must resolve within the workspace root.
func (ix *Indexer) IndexFile(ctx context.Context, absPath string) error {
	if err := ix.ReplaceOnly(ctx, absPath); err != nil {
		return err
	}
	return ix.triggerRefresh(ctx)
}

// ReplaceOnly runs the per-file pipeline without triggering a semantic
// refresh afterward, used by the Workspace Rebuilder so a full rebuild
// performs exactly one refresh after the walk (§4.7 step 3).
func (ix *Indexer) ReplaceOnly(ctx context.Context, absPath string) error {
	relPath, err := pathutil.Relpath(ix.Root, absPath)
	if err != nil {
		return err
	}

	sourceKey, err := pathutil.NoteKey(ix.Root, absPath)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return tomoerrors.IoErr(err, absPath)
	}
	maxSize := ix.MaxFileSizeBytes
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSizeBytes
	}
	if info.Size() > maxSize {
		return tomoerrors.New(tomoerrors.OperationFailed, "file exceeds maximum indexed size").WithPath(absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return tomoerrors.IoErr(err, absPath)
	}

	rawFrontmatter, body := markdown.SplitFrontmatter(string(content))
	props := frontmatter.Parse(rawFrontmatter)
	chunks := markdown.ChunkBody(body)
	targets := markdown.ExtractTargets(body, sourceKey)

	write := store.NoteWrite{
		Path:        relPath,
		UpdatedAtMs: time.Now().UnixMilli(),
	}
	for _, t := range targets {
		write.Links = append(write.Links, store.LinkEdge{SourcePath: relPath, TargetKey: t})
	}
	for _, p := range props {
		write.Properties = append(write.Properties, store.Property{
			Path: relPath, Key: p.Key, Kind: store.PropertyKind(p.Kind),
			ValueText: p.ValueText, ValueNum: p.ValueNum, ValueBool: p.ValueBool, ValueDate: p.ValueDate,
		})
	}
	for _, c := range chunks {
		write.Chunks = append(write.Chunks, store.Chunk{Anchor: c.Anchor, Text: c.Text, MTime: info.ModTime()})
	}

	ix.attachEmbeddings(ctx, &write, chunks)

	if err := ix.Store.ReplaceNote(ctx, write); err != nil {
		return err
	}
	ix.logger().Info("note indexed",
		slog.String("path", relPath),
		slog.Int("chunks", len(write.Chunks)),
		slog.Int("links", len(write.Links)),
		slog.Int("properties", len(write.Properties)),
		slog.Bool("embedded", write.ModelLabel != ""))
	return nil
}

// attachEmbeddings batch-embeds chunk texts and computes the note
// centroid, per §4.6 step 7. An embedder failure is logged and leaves
// write.Embeddings/Centroid nil: chunks, links, and properties are still
// written, only the semantic rows are skipped for this file.
func (ix *Indexer) attachEmbeddings(ctx context.Context, write *store.NoteWrite, chunks []markdown.Chunk) {
	if ix.Embed == nil || len(chunks) == 0 {
		return
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := ix.Embed.Embed(ctx, texts)
	if err != nil {
		ix.logger().Warn("embedding unavailable, skipping semantic rows", slog.String("path", write.Path), slog.String("error", err.Error()))
		return
	}

	write.ModelLabel = ix.Embed.ModelLabel()
	write.Embeddings = make([]*store.ChunkEmbeddingVector, len(vectors))
	for i, v := range vectors {
		write.Embeddings[i] = &store.ChunkEmbeddingVector{Vector: v}
	}
	if centroid, ok := embed.Centroid(vectors); ok {
		write.Centroid = centroid
	}
}

// RemoveFile deletes every row for the note at absPath and triggers a
// semantic-edge refresh, symmetric with IndexFile (§4.6 "Removal").
func (ix *Indexer) RemoveFile(ctx context.Context, absPath string) error {
	relPath, err := pathutil.Relpath(ix.Root, absPath)
	if err != nil {
		return err
	}
	return ix.RemovePath(ctx, relPath)
}

// RemovePath deletes every row for the given workspace-relative path
// directly, for callers (e.g. the rename handler) that already have the
// relative path rather than an absolute one that still exists on disk.
func (ix *Indexer) RemovePath(ctx context.Context, relPath string) error {
	if err := ix.Store.RemoveNote(ctx, relPath); err != nil {
		return err
	}
	ix.logger().Info("note removed from index", slog.String("path", relPath))
	return ix.triggerRefresh(ctx)
}

func (ix *Indexer) triggerRefresh(ctx context.Context) error {
	if ix.Refresher == nil {
		return nil
	}
	if err := ix.Refresher.Refresh(ctx); err != nil {
		ix.logger().Warn("semantic edge refresh failed", slog.String("error", err.Error()))
		return nil
	}
	return nil
}
