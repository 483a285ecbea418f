package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jbl2024/tomosona/internal/config"
	"github.com/jbl2024/tomosona/internal/gitignore"
)

// dbSidecarNames are the database file and its WAL/SHM sidecars, always
// skipped regardless of .gitignore/.tomosonaignore content (§4.12).
func dbSidecarNames() []string {
	return []string{config.DatabaseName, config.DatabaseName + "-wal", config.DatabaseName + "-shm"}
}

// HybridWatcher implements Watcher using fsnotify as the primary
// mechanism with polling as a fallback, per §4.12.
type HybridWatcher struct {
	fsWatcher   *fsnotify.Watcher
	pollWatcher *PollingWatcher
	useFsnotify bool
	debouncer   *Debouncer
	gitignore   *gitignore.Matcher
	changes     chan []Change
	errors      chan error
	stopCh      chan struct{}
	rootPath    string
	opts        Options
	mu          sync.RWMutex
	stopped     bool

	droppedBatches atomic.Uint64
	sessionID      atomic.Uint64

	renameMu       sync.Mutex
	pendingRenames []*pendingRename
}

type pendingRename struct {
	path  string
	timer *time.Timer
}

var _ Watcher = (*HybridWatcher)(nil)

// NewHybridWatcher creates a new hybrid watcher with the given options.
// Attempts to use fsnotify first, falls back to polling if it fails.
func NewHybridWatcher(opts Options) (*HybridWatcher, error) {
	opts = opts.WithDefaults()

	h := &HybridWatcher{
		debouncer: NewDebouncer(opts.DebounceWindow),
		gitignore: gitignore.New(),
		changes:   make(chan []Change, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
	}

	for _, pattern := range opts.IgnorePatterns {
		h.gitignore.AddPattern(pattern)
	}

	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		h.fsWatcher = fsw
		h.useFsnotify = true
	} else {
		h.useFsnotify = false
		h.pollWatcher = NewPollingWatcher(opts.PollInterval)
	}

	return h, nil
}

// Start begins watching the given directory. Each call increments the
// watcher's session_id, per §5.
func (h *HybridWatcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	h.rootPath = absPath
	h.sessionID.Add(1)

	h.loadIgnoreFiles()

	go h.forwardDebouncedChanges(ctx)

	if h.useFsnotify {
		return h.startFsnotify(ctx)
	}
	return h.startPolling(ctx)
}

// SessionID returns the session counter of the current/last Start.
func (h *HybridWatcher) SessionID() uint64 {
	return h.sessionID.Load()
}

func (h *HybridWatcher) startFsnotify(ctx context.Context) error {
	if err := h.addRecursive(h.rootPath); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = h.Stop()
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case event, ok := <-h.fsWatcher.Events:
			if !ok {
				return nil
			}
			h.handleFsnotifyEvent(event)
		case err, ok := <-h.fsWatcher.Errors:
			if !ok {
				return nil
			}
			h.emitError(err)
		}
	}
}

func (h *HybridWatcher) startPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.stopCh:
				return
			case change, ok := <-h.pollWatcher.Changes():
				if !ok {
					return
				}
				if h.shouldIgnore(change.Path, change.IsDir) {
					continue
				}
				if isIgnoreFile(change.Path) {
					h.loadIgnoreFiles()
				}
				change.TsMs = time.Now().UnixMilli()
				h.debouncer.Add(change)
			case err, ok := <-h.pollWatcher.Errors():
				if !ok {
					return
				}
				h.emitError(err)
			}
		}
	}()

	return h.pollWatcher.Start(ctx, h.rootPath)
}

// handleFsnotifyEvent converts, pairs, and filters fsnotify events.
func (h *HybridWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(h.rootPath, event.Name)
	if err != nil {
		relPath = event.Name
	}

	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	if h.shouldIgnore(relPath, isDir) {
		return
	}

	if isIgnoreFile(relPath) {
		h.loadIgnoreFiles()
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		if isDir {
			_ = h.fsWatcher.Add(event.Name)
		}
		if pair := h.popPendingRename(); pair != nil {
			h.emitRenamePair(pair.path, relPath)
			return
		}
		h.debouncer.Add(Change{Kind: Created, Path: relPath, IsDir: isDir, TsMs: time.Now().UnixMilli()})
	case event.Op&fsnotify.Write != 0:
		h.debouncer.Add(Change{Kind: Modified, Path: relPath, IsDir: isDir, TsMs: time.Now().UnixMilli()})
	case event.Op&fsnotify.Remove != 0:
		h.debouncer.Add(Change{Kind: Removed, Path: relPath, IsDir: isDir, TsMs: time.Now().UnixMilli()})
	case event.Op&fsnotify.Rename != 0:
		h.pushPendingRename(relPath)
	case event.Op&fsnotify.Chmod != 0:
		return
	}
}

// pushPendingRename stashes the "from" side of a rename; if no matching
// Create arrives within RenamePairWindow, it resolves to a plain Removed
// (the "from only" case of §4.12's table).
func (h *HybridWatcher) pushPendingRename(oldRelPath string) {
	h.renameMu.Lock()
	defer h.renameMu.Unlock()

	pr := &pendingRename{path: oldRelPath}
	pr.timer = time.AfterFunc(h.opts.RenamePairWindow, func() {
		h.removePendingRename(pr)
		h.debouncer.Add(Change{Kind: Removed, Path: oldRelPath, TsMs: time.Now().UnixMilli()})
	})
	h.pendingRenames = append(h.pendingRenames, pr)
}

// popPendingRename pops the oldest unmatched rename "from" side, if any.
func (h *HybridWatcher) popPendingRename() *pendingRename {
	h.renameMu.Lock()
	defer h.renameMu.Unlock()

	if len(h.pendingRenames) == 0 {
		return nil
	}
	pr := h.pendingRenames[0]
	h.pendingRenames = h.pendingRenames[1:]
	pr.timer.Stop()
	return pr
}

func (h *HybridWatcher) removePendingRename(target *pendingRename) {
	h.renameMu.Lock()
	defer h.renameMu.Unlock()

	for i, pr := range h.pendingRenames {
		if pr == target {
			h.pendingRenames = append(h.pendingRenames[:i], h.pendingRenames[i+1:]...)
			return
		}
	}
}

func (h *HybridWatcher) emitRenamePair(oldRelPath, newRelPath string) {
	h.debouncer.Add(Change{
		Kind:      Renamed,
		OldPath:   oldRelPath,
		NewPath:   newRelPath,
		OldParent: filepath.Dir(oldRelPath),
		NewParent: filepath.Dir(newRelPath),
		TsMs:      time.Now().UnixMilli(),
	})
}

// forwardDebouncedChanges forwards debounced batches to the output channel.
func (h *HybridWatcher) forwardDebouncedChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case changes, ok := <-h.debouncer.Output():
			if !ok {
				return
			}
			if len(changes) == 0 {
				continue
			}
			h.emitChanges(changes)
		}
	}
}

// addRecursive adds all directories under root to the fsnotify watcher.
func (h *HybridWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		relPath, _ := filepath.Rel(h.rootPath, path)
		if relPath == "." {
			return h.fsWatcher.Add(path)
		}
		if h.shouldIgnoreDir(relPath) {
			return filepath.SkipDir
		}
		return h.fsWatcher.Add(path)
	})
}

// shouldIgnoreDir checks if a directory should be skipped entirely
// (never descended into).
func (h *HybridWatcher) shouldIgnoreDir(relPath string) bool {
	if isHardcodedSkip(relPath) {
		return true
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.gitignore.Match(relPath, true)
}

// shouldIgnore reports whether relPath should be dropped, per §4.12's
// filtering rule: the internal/trash directories and database sidecars
// are skipped first, ahead of and independent from .gitignore/
// .tomosonaignore pattern matching.
func (h *HybridWatcher) shouldIgnore(relPath string, isDir bool) bool {
	if relPath == "." || relPath == "" {
		return true
	}
	if isHardcodedSkip(relPath) {
		return true
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.gitignore.Match(relPath, isDir)
}

// isHardcodedSkip reports whether relPath falls under .tomosona/,
// .tomosona-trash/, or is a database sidecar file — skipped regardless
// of ignore-file content.
func isHardcodedSkip(relPath string) bool {
	if relPath == config.InternalDirName || strings.HasPrefix(relPath, config.InternalDirName+"/") {
		return true
	}
	if relPath == config.TrashDirName || strings.HasPrefix(relPath, config.TrashDirName+"/") {
		return true
	}
	if relPath == ".git" || strings.HasPrefix(relPath, ".git/") {
		return true
	}
	base := filepath.Base(relPath)
	for _, name := range dbSidecarNames() {
		if base == name {
			return true
		}
	}
	return false
}

func isIgnoreFile(relPath string) bool {
	base := filepath.Base(relPath)
	return base == ".gitignore" || base == ".tomosonaignore"
}

// loadIgnoreFiles (re)loads .gitignore and .tomosonaignore patterns from
// the root and subdirectories.
func (h *HybridWatcher) loadIgnoreFiles() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.gitignore = gitignore.New()
	for _, pattern := range h.opts.IgnorePatterns {
		h.gitignore.AddPattern(pattern)
	}

	for _, name := range []string{".gitignore", ".tomosonaignore"} {
		p := filepath.Join(h.rootPath, name)
		if err := h.gitignore.AddFromFile(p, ""); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to load ignore file", slog.String("path", p), slog.String("error", err.Error()))
		}
	}

	_ = filepath.WalkDir(h.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping directory in ignore-file scan", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if name != ".gitignore" && name != ".tomosonaignore" {
			return nil
		}
		if filepath.Dir(path) == h.rootPath {
			return nil // already loaded above
		}
		base, _ := filepath.Rel(h.rootPath, filepath.Dir(path))
		if err := h.gitignore.AddFromFile(path, base); err != nil {
			slog.Warn("failed to read nested ignore file", slog.String("path", path), slog.String("error", err.Error()))
		}
		return nil
	})
}

// emitChanges sends a batch to the output channel.
func (h *HybridWatcher) emitChanges(changes []Change) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}

	sessionID := h.sessionID.Load()
	for i := range changes {
		changes[i].SessionID = sessionID
	}

	select {
	case h.changes <- changes:
	default:
		count := h.droppedBatches.Add(1)
		slog.Warn("change buffer full, dropping batch",
			slog.Int("batch_size", len(changes)),
			slog.Uint64("total_dropped_batches", count),
		)
	}
}

// DroppedBatches returns the number of change batches dropped due to
// buffer overflow.
func (h *HybridWatcher) DroppedBatches() uint64 {
	return h.droppedBatches.Load()
}

func (h *HybridWatcher) emitError(err error) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}
	select {
	case h.errors <- err:
	default:
	}
}

// Stop stops the watcher and releases resources. Safe to call multiple times.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}
	h.stopped = true
	close(h.stopCh)

	h.debouncer.Stop()

	if h.useFsnotify && h.fsWatcher != nil {
		_ = h.fsWatcher.Close()
	}
	if h.pollWatcher != nil {
		_ = h.pollWatcher.Stop()
	}

	close(h.changes)
	close(h.errors)
	return nil
}

// Changes returns the channel of batched changes.
func (h *HybridWatcher) Changes() <-chan []Change {
	return h.changes
}

// Errors returns the channel of errors.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errors
}

// IsHealthy returns true if the watcher is running and hasn't stopped.
func (h *HybridWatcher) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.stopped
}

// WatcherType returns "fsnotify" or "polling", whichever backs this watcher.
func (h *HybridWatcher) WatcherType() string {
	if h.useFsnotify {
		return "fsnotify"
	}
	return "polling"
}

// RootPath returns the root path being watched.
func (h *HybridWatcher) RootPath() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rootPath
}
