// Package rebuild implements the Workspace Rebuilder (§4.7): a full
// wipe-and-reindex of the workspace, with cooperative cancellation and a
// bounded progress log, performing exactly one Semantic Edge Refresh
// after the walk instead of one per file. Grounded on the teacher's
// internal/index walk-and-index command (full-repository reindex with a
// progress ring buffer read by the host shell), adapted to Markdown notes
// and a single atomic cancel flag per §5.
package rebuild

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jbl2024/tomosona/internal/config"
	"github.com/jbl2024/tomosona/internal/gitignore"
	"github.com/jbl2024/tomosona/internal/indexer"
	"github.com/jbl2024/tomosona/internal/pathutil"
)

// DefaultConcurrency bounds how many files are indexed concurrently
// during a rebuild, per §5's worker-pool dispatch for long operations.
const DefaultConcurrency = 8

// LogEntry is one line appended to the rebuild's progress ring buffer.
type LogEntry struct {
	Path  string
	Error string // empty on success
}

// Log is the bounded in-memory ring buffer of §4.7 ("capacity ≈ 400
// entries"), mutated under a short lock per §5's shared-resource model.
type Log struct {
	mu       sync.Mutex
	capacity int
	entries  []LogEntry
}

// NewLog builds a Log with the given capacity, defaulting to the spec's
// ~400 entries when capacity is non-positive.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = 400
	}
	return &Log{capacity: capacity}
}

func (l *Log) append(entry LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if overflow := len(l.entries) - l.capacity; overflow > 0 {
		l.entries = l.entries[overflow:]
	}
}

// Entries returns a snapshot of the current ring buffer contents,
// oldest first.
func (l *Log) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// CancelFlag is the process-global atomic cancellation flag of §5,
// polled by the rebuilder between files.
type CancelFlag struct {
	flag atomic.Bool
}

// Request marks the flag, observed by the next poll between files.
func (c *CancelFlag) Request() { c.flag.Store(true) }

// Reset clears the flag, called at the start of a new rebuild.
func (c *CancelFlag) Reset() { c.flag.Store(false) }

// Requested reports whether cancellation has been requested.
func (c *CancelFlag) Requested() bool { return c.flag.Load() }

// Refresher is the Semantic Edge Refresher collaborator, run once after
// a successful (non-canceled) walk.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Rebuilder performs a full workspace reindex (§4.7).
type Rebuilder struct {
	Indexer     *indexer.Indexer
	Refresher   Refresher
	Root        string
	Concurrency int
	Log         *Log
	Cancel      *CancelFlag
	Logger      *slog.Logger
}

// New builds a Rebuilder with the spec's defaults.
func New(ix *indexer.Indexer, refresher Refresher, root string) *Rebuilder {
	return &Rebuilder{
		Indexer:     ix,
		Refresher:   refresher,
		Root:        root,
		Concurrency: DefaultConcurrency,
		Log:         NewLog(0),
		Cancel:      &CancelFlag{},
	}
}

// Result is the outcome of a rebuild (§4.7 step 5).
type Result struct {
	IndexedFiles int
	Canceled     bool
}

func (r *Rebuilder) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Run truncates the store, walks the workspace tree, reindexes every
// candidate note file, and performs one semantic-edge refresh if the
// walk completed without cancellation.
func (r *Rebuilder) Run(ctx context.Context) (Result, error) {
	r.Cancel.Reset()

	if ctx.Err() != nil {
		return Result{Canceled: true}, nil
	}

	if err := r.Indexer.Store.Truncate(ctx); err != nil {
		return Result{}, err
	}

	candidates, err := r.walk()
	if err != nil {
		return Result{}, err
	}

	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var indexed atomic.Int64
	canceled := false

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

outer:
	for _, abs := range candidates {
		if r.Cancel.Requested() {
			canceled = true
			break outer
		}
		select {
		case <-ctx.Done():
			canceled = true
			break outer
		default:
		}

		abs := abs
		g.Go(func() error {
			err := r.Indexer.ReplaceOnly(gctx, abs)
			rel, relErr := pathutil.Relpath(r.Root, abs)
			if relErr != nil {
				rel = abs
			}
			if err != nil {
				r.Log.append(LogEntry{Path: rel, Error: err.Error()})
				r.logger().Warn("rebuild: file indexing failed", slog.String("path", rel), slog.String("error", err.Error()))
				return nil
			}
			indexed.Add(1)
			r.Log.append(LogEntry{Path: rel})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	if canceled {
		r.logger().Info("rebuild canceled", slog.Int64("indexed", indexed.Load()))
		return Result{IndexedFiles: int(indexed.Load()), Canceled: true}, nil
	}

	if r.Refresher != nil {
		if err := r.Refresher.Refresh(ctx); err != nil {
			r.logger().Warn("rebuild: semantic edge refresh failed", slog.String("error", err.Error()))
		}
	}

	r.logger().Info("rebuild complete", slog.Int64("indexed", indexed.Load()))
	return Result{IndexedFiles: int(indexed.Load()), Canceled: false}, nil
}

// walk collects every candidate note file under the root, skipping the
// internal and trash directories, database sidecars, and anything
// matched by .gitignore/.tomosonaignore, per §4.7 step 2 and §4.12.
func (r *Rebuilder) walk() ([]string, error) {
	matcher := gitignore.New()
	_ = matcher.AddFromFile(filepath.Join(r.Root, ".gitignore"), "")
	_ = matcher.AddFromFile(filepath.Join(r.Root, ".tomosonaignore"), "")

	var candidates []string
	err := filepath.WalkDir(r.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if path == r.Root {
			return nil
		}
		rel, relErr := pathutil.Relpath(r.Root, path)
		if relErr != nil {
			return nil
		}

		if d.IsDir() {
			if isHardcodedSkip(rel) || matcher.Match(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if isHardcodedSkip(rel) || isDBSidecar(filepath.Base(rel)) {
			return nil
		}
		if !pathutil.IsMarkdownFile(path) {
			return nil
		}
		if matcher.Match(rel, false) {
			return nil
		}
		candidates = append(candidates, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
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

func isDBSidecar(base string) bool {
	switch base {
	case config.DatabaseName, config.DatabaseName + "-wal", config.DatabaseName + "-shm":
		return true
	default:
		return false
	}
}
