// Package rename implements update_wikilinks_for_rename (§6): when a note
// is moved or renamed by an external file-op, every other note's
// [[old-target|alias#heading]] reference is rewritten to point at the
// new target and the rewritten file is reindexed. Grounded on the
// Backlinks resolver's live-filesystem walk (internal/graph/backlinks.go)
// combined with the Note Indexer's single-file pipeline.
package rename

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jbl2024/tomosona/internal/config"
	"github.com/jbl2024/tomosona/internal/indexer"
	"github.com/jbl2024/tomosona/internal/markdown"
	"github.com/jbl2024/tomosona/internal/pathutil"
)

// indexFile is the subset of *indexer.Indexer's surface Rewriter depends
// on, narrowed so tests can substitute a spy.
type indexFile interface {
	IndexFile(ctx context.Context, absPath string) error
}

// Rewriter applies a single rename across a workspace's markdown files.
type Rewriter struct {
	Root    string
	Indexer indexFile
}

// New builds a Rewriter over root, reindexing changed files through ix.
func New(root string, ix *indexer.Indexer) *Rewriter {
	return &Rewriter{Root: root, Indexer: ix}
}

// ApplyRename rewrites every wiki-link reference to oldRelPath so it
// points at newRelPath instead, writes each changed file back to disk,
// and reindexes it. oldRelPath and newRelPath are workspace-relative
// paths (markdown extension included); the note itself is assumed to
// already have moved to newRelPath on disk (file-ops are an external
// collaborator, per §1). Returns the workspace-relative paths of every
// file that was rewritten, sorted by filesystem walk order.
func (rw *Rewriter) ApplyRename(ctx context.Context, oldRelPath, newRelPath string) ([]string, error) {
	oldKey := pathutil.KeyFromRelPath(oldRelPath)
	newTarget := pathutil.TargetFromRelPath(newRelPath)

	candidates, err := listMarkdownFiles(rw.Root)
	if err != nil {
		return nil, err
	}

	var updated []string
	for _, rel := range candidates {
		select {
		case <-ctx.Done():
			return updated, ctx.Err()
		default:
		}

		abs := filepath.Join(rw.Root, filepath.FromSlash(rel))
		data, err := os.ReadFile(abs)
		if err != nil {
			continue // file may have moved mid-walk; skip rather than fail
		}

		rewritten, changed := markdown.RewriteWikiLinks(string(data), oldKey, newTarget)
		if !changed {
			continue
		}

		if err := os.WriteFile(abs, []byte(rewritten), 0o644); err != nil {
			return updated, err
		}
		updated = append(updated, rel)

		if rw.Indexer != nil {
			if err := rw.Indexer.IndexFile(ctx, abs); err != nil {
				return updated, err
			}
		}
	}

	return updated, nil
}

// listMarkdownFiles walks root for markdown notes, skipping the internal
// and trash directories, mirroring internal/graph's equivalent walker.
func listMarkdownFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, relErr := pathutil.Relpath(root, path)
		if relErr != nil {
			return nil
		}
		if d.IsDir() {
			if isHardcodedSkip(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHardcodedSkip(rel) {
			return nil
		}
		if !pathutil.IsMarkdownFile(path) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func isHardcodedSkip(rel string) bool {
	if rel == config.InternalDirName || strings.HasPrefix(rel, config.InternalDirName+"/") {
		return true
	}
	if rel == config.TrashDirName || strings.HasPrefix(rel, config.TrashDirName+"/") {
		return true
	}
	return false
}
