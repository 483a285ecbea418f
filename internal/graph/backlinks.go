package graph

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jbl2024/tomosona/internal/markdown"
	"github.com/jbl2024/tomosona/internal/pathutil"
)

// Backlinks computes, on demand from the live filesystem, every note
// referencing the target note's key (§4.11). Unlike the Graph Assembler
// it never reads the index, so renames mid-watch can't produce a stale
// answer.
type Backlinks struct {
	Root string
}

// NewBacklinks builds a Backlinks resolver over the given workspace root.
func NewBacklinks(root string) *Backlinks {
	return &Backlinks{Root: root}
}

// For returns the absolute paths of every note whose body references
// absPath's note key, sorted case-insensitively.
func (b *Backlinks) For(ctx context.Context, absPath string) ([]string, error) {
	targetKey, err := pathutil.NoteKey(b.Root, absPath)
	if err != nil {
		return nil, err
	}

	candidates, err := listMarkdownFiles(b.Root)
	if err != nil {
		return nil, err
	}

	var matches []string
	for _, rel := range candidates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		abs := filepath.Join(b.Root, filepath.FromSlash(rel))
		content, err := os.ReadFile(abs)
		if err != nil {
			continue // file may have been removed mid-walk; skip rather than fail
		}

		sourceKey, err := pathutil.NoteKey(b.Root, abs)
		if err != nil {
			continue
		}
		if sourceKey == targetKey {
			continue
		}

		_, body := markdown.SplitFrontmatter(string(content))
		targets := markdown.ExtractTargets(body, sourceKey)
		for _, t := range targets {
			if t == targetKey {
				matches = append(matches, abs)
				break
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return strings.ToLower(matches[i]) < strings.ToLower(matches[j])
	})
	return matches, nil
}
