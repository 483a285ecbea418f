// Package app wires the Note Indexer, Semantic Edge Refresher, Workspace
// Rebuilder, Graph Assembler, and Backlinks resolver over one open
// workspace, the single composition root shared by the CLI and MCP
// server entry points. Grounded on the teacher's cmd-layer wiring
// (one struct bundling store, embedder, and indexer, built once per
// command invocation).
package app

import (
	"log/slog"

	"github.com/jbl2024/tomosona/internal/config"
	"github.com/jbl2024/tomosona/internal/embed"
	"github.com/jbl2024/tomosona/internal/graph"
	"github.com/jbl2024/tomosona/internal/indexer"
	"github.com/jbl2024/tomosona/internal/rebuild"
	"github.com/jbl2024/tomosona/internal/rename"
	"github.com/jbl2024/tomosona/internal/search"
	"github.com/jbl2024/tomosona/internal/semantic"
	"github.com/jbl2024/tomosona/internal/store"
	"github.com/jbl2024/tomosona/internal/workspace"
)

// App bundles every collaborator needed to serve one open workspace.
type App struct {
	Workspace *workspace.Workspace
	Config    config.Config
	Store     *store.Store
	Embed     *embed.Facade
	Indexer   *indexer.Indexer
	Refresher *semantic.Refresher
	Rebuilder *rebuild.Rebuilder
	Search    *search.Engine
	Graph     *graph.Assembler
	Backlinks *graph.Backlinks
	Rename    *rename.Rewriter
}

// Open canonicalizes root, acquires the workspace lock, opens the index
// database and vector-index sidecar, and wires every collaborator
// together. Callers must call Close when done.
func Open(root string, log *slog.Logger) (*App, error) {
	ws, err := workspace.Open(root)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(ws.Root())
	if err != nil {
		_ = ws.Close()
		return nil, err
	}

	s, err := store.Open(ws.DatabasePath())
	if err != nil {
		_ = ws.Close()
		return nil, err
	}

	vector, err := store.LoadHNSWIndex(ws.VectorIndexPath(), embed.StaticDimensions)
	if err != nil {
		_ = s.Close()
		_ = ws.Close()
		return nil, err
	}
	s.Vector = vector

	facade := embed.NewFacade(func() (embed.Embedder, error) {
		return embed.NewCachedEmbedder(embed.NewStaticEmbedder(), cfg.EmbeddingCacheSize), nil
	})

	refresher := semantic.New(s)
	refresher.K = cfg.SemanticK
	refresher.Threshold = cfg.SemanticThreshold
	if log != nil {
		refresher.Log = log
	}

	ix := indexer.New(s, facade, ws.Root())
	ix.MaxFileSizeBytes = cfg.MaxFileSizeBytes
	ix.Refresher = refresher
	if log != nil {
		ix.Log = log
	}

	rebuilder := rebuild.New(ix, refresher, ws.Root())
	rebuilder.Log = rebuild.NewLog(cfg.RebuildLogCapacity)
	if log != nil {
		rebuilder.Logger = log
	}

	return &App{
		Workspace: ws,
		Config:    cfg,
		Store:     s,
		Embed:     facade,
		Indexer:   ix,
		Refresher: refresher,
		Rebuilder: rebuilder,
		Search:    search.New(s, facade, ws.Root()),
		Graph:     graph.New(s, ws.Root()),
		Backlinks: graph.NewBacklinks(ws.Root()),
		Rename:    rename.New(ws.Root(), ix),
	}, nil
}

// Close persists the vector index sidecar, closes the database, and
// releases the workspace lock, in that order so a crash between steps
// never corrupts state the next Open can't recover from.
func (a *App) Close() error {
	var firstErr error
	if a.Store.Vector != nil {
		if err := a.Store.Vector.Save(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.Workspace.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
