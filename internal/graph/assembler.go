// Package graph implements the Graph Assembler (§4.10) and Backlinks
// (§4.11): pull-based readers that merge the live workspace file list
// with the index's link and semantic-edge tables into a de-duplicated
// node/edge payload, and compute a note's referrers directly from the
// filesystem for freshness under rename races. Grounded on the teacher's
// internal/index graph-export command (node/edge JSON payload over a
// dependency-ish link table), adapted to wiki-link plus semantic-edge
// merging.
package graph

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jbl2024/tomosona/internal/config"
	"github.com/jbl2024/tomosona/internal/pathutil"
	"github.com/jbl2024/tomosona/internal/store"
)

// Node is one markdown file in the Cosmos view payload.
type Node struct {
	ID           string // workspace-relative path
	AbsolutePath string
	Label        string // path with markdown extension stripped
	Degree       int
	Tags         []string
	Cluster      *string // always nil; reserved for future clustering
}

// Edge is one explicit or derived relationship between two nodes.
type Edge struct {
	Source string
	Target string
	Type   string // "wikilink" or "semantic"
	Score  *float64
}

// Payload is the full Graph Assembler output (§4.10).
type Payload struct {
	Nodes         []Node
	Edges         []Edge
	GeneratedAtMs int64
}

// Assembler builds graph Payloads from a workspace root and its index.
type Assembler struct {
	Store *store.Store
	Root  string
	// Now supplies the generated_at_ms timestamp; when nil, Build uses
	// the wall clock (nowMs).
	Now func() int64
}

// New builds an Assembler over the given store and workspace root.
func New(s *store.Store, root string) *Assembler {
	return &Assembler{Store: s, Root: root}
}

// Build assembles the current node/edge payload, per §4.10's five steps.
func (a *Assembler) Build(ctx context.Context) (Payload, error) {
	paths, err := listMarkdownFiles(a.Root)
	if err != nil {
		return Payload{}, err
	}

	nodesByPath := make(map[string]*Node, len(paths))
	keyToPath := make(map[string]string, len(paths))
	basenameToPaths := make(map[string][]string, len(paths))

	for _, rel := range paths {
		key := pathutil.KeyFromRelPath(rel)
		if existing, ok := keyToPath[key]; ok && existing < rel {
			continue // case-insensitive duplicate: keep lexicographically smallest
		}
		keyToPath[key] = rel
	}
	for key, rel := range keyToPath {
		_ = key
		if _, exists := nodesByPath[rel]; exists {
			continue
		}
		nodesByPath[rel] = &Node{
			ID:           rel,
			AbsolutePath: filepath.Join(a.Root, filepath.FromSlash(rel)),
			Label:        strings.TrimSuffix(rel, extOf(rel)),
		}
		base := strings.ToLower(baseWithoutExt(rel))
		basenameToPaths[base] = append(basenameToPaths[base], rel)
	}

	if err := a.attachTags(ctx, nodesByPath); err != nil {
		return Payload{}, err
	}

	links, err := a.Store.AllLinks(ctx)
	if err != nil {
		return Payload{}, err
	}
	semanticEdges, err := a.Store.SemanticEdges(ctx)
	if err != nil {
		return Payload{}, err
	}

	edges, seen := resolveExplicitEdges(links, nodesByPath, keyToPath, basenameToPaths)
	edges = append(edges, resolveSemanticEdges(semanticEdges, nodesByPath, seen)...)

	for _, e := range edges {
		nodesByPath[e.Source].Degree++
		nodesByPath[e.Target].Degree++
	}

	nodes := make([]Node, 0, len(nodesByPath))
	for _, n := range nodesByPath {
		nodes = append(nodes, *n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return strings.ToLower(nodes[i].ID) < strings.ToLower(nodes[j].ID)
	})
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})

	now := a.Now
	if now == nil {
		now = nowMs
	}
	return Payload{Nodes: nodes, Edges: edges, GeneratedAtMs: now()}, nil
}

func (a *Assembler) attachTags(ctx context.Context, nodesByPath map[string]*Node) error {
	props, err := a.Store.ListProperties(ctx, "tags")
	if err != nil {
		return err
	}
	seen := make(map[string]map[string]bool, len(nodesByPath))
	for _, p := range props {
		if p.Kind != store.PropertyList {
			continue
		}
		node, ok := nodesByPath[p.Path]
		if !ok {
			continue
		}
		lower := strings.ToLower(strings.TrimSpace(p.ValueText))
		if lower == "" {
			continue
		}
		if seen[p.Path] == nil {
			seen[p.Path] = make(map[string]bool)
		}
		if seen[p.Path][lower] {
			continue
		}
		seen[p.Path][lower] = true
		node.Tags = append(node.Tags, p.ValueText)
	}
	return nil
}

// resolveExplicitEdges resolves note_links rows into node-to-node edges
// per §4.10's explicit-edge rule, returning the edges plus the set of
// (source,target) pairs already covered so semantic edges can skip them.
func resolveExplicitEdges(links []store.LinkEdge, nodesByPath map[string]*Node, keyToPath map[string]string, basenameToPaths map[string][]string) ([]Edge, map[string]bool) {
	seen := make(map[string]bool)
	var edges []Edge
	for _, l := range links {
		if _, ok := nodesByPath[l.SourcePath]; !ok {
			continue
		}
		target, ok := resolveTarget(l.TargetKey, keyToPath, basenameToPaths)
		if !ok {
			continue
		}
		if target == l.SourcePath {
			continue
		}
		pairKey := l.SourcePath + "\x00" + target
		if seen[pairKey] {
			continue
		}
		seen[pairKey] = true
		edges = append(edges, Edge{Source: l.SourcePath, Target: target, Type: "wikilink"})
	}
	return edges, seen
}

func resolveTarget(targetKey string, keyToPath map[string]string, basenameToPaths map[string][]string) (string, bool) {
	if path, ok := keyToPath[targetKey]; ok {
		return path, true
	}
	if strings.Contains(targetKey, "/") {
		return "", false
	}
	matches := basenameToPaths[strings.ToLower(targetKey)]
	if len(matches) != 1 {
		return "", false
	}
	return matches[0], true
}

func resolveSemanticEdges(semanticEdges []store.SemanticEdge, nodesByPath map[string]*Node, seen map[string]bool) []Edge {
	var edges []Edge
	for _, e := range semanticEdges {
		if e.SourcePath == e.TargetPath {
			continue
		}
		if _, ok := nodesByPath[e.SourcePath]; !ok {
			continue
		}
		if _, ok := nodesByPath[e.TargetPath]; !ok {
			continue
		}
		pairKey := e.SourcePath + "\x00" + e.TargetPath
		if seen[pairKey] {
			continue
		}
		score := e.Score
		edges = append(edges, Edge{Source: e.SourcePath, Target: e.TargetPath, Type: "semantic", Score: &score})
	}
	return edges
}

// listMarkdownFiles walks root for markdown notes, skipping the internal
// and trash directories, returning workspace-relative forward-slash paths.
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

func isHardcodedSkip(relPath string) bool {
	if relPath == config.InternalDirName || strings.HasPrefix(relPath, config.InternalDirName+"/") {
		return true
	}
	if relPath == config.TrashDirName || strings.HasPrefix(relPath, config.TrashDirName+"/") {
		return true
	}
	return false
}

func extOf(rel string) string {
	lower := strings.ToLower(rel)
	if strings.HasSuffix(lower, ".markdown") {
		return rel[len(rel)-len(".markdown"):]
	}
	if strings.HasSuffix(lower, ".md") {
		return rel[len(rel)-len(".md"):]
	}
	return ""
}

func baseWithoutExt(rel string) string {
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, extOf(base))
}
