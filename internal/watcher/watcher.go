package watcher

import (
	"context"
	"time"
)

// Kind identifies the shape of a Change record, per §4.12.
type Kind int

const (
	// Created indicates a new file or directory appeared.
	Created Kind = iota
	// Removed indicates a file or directory disappeared.
	Removed
	// Renamed indicates both the old and new path of a rename were
	// observed; OldPath/NewPath and OldParent/NewParent are set.
	Renamed
	// Modified indicates an existing file's contents changed.
	Modified
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case Created:
		return "CREATED"
	case Removed:
		return "REMOVED"
	case Renamed:
		return "RENAMED"
	case Modified:
		return "MODIFIED"
	default:
		return "UNKNOWN"
	}
}

// Change is one change record emitted by a Watcher, per §4.12. For
// Created/Removed/Modified only Path (and IsDir) are meaningful. For
// Renamed, OldPath/NewPath carry the two sides of the move and
// OldParent/NewParent carry their containing directories.
type Change struct {
	Kind Kind

	// Path is the affected path for Created, Removed, and Modified.
	Path string

	// OldPath and NewPath are set only for Renamed.
	OldPath string
	NewPath string

	// OldParent and NewParent are the containing directories of
	// OldPath/NewPath, set only for Renamed.
	OldParent string
	NewParent string

	IsDir bool

	// SessionID is the watcher (re)start counter this record belongs
	// to; it strictly increases across restarts (§5).
	SessionID uint64

	// TsMs is the detection timestamp in Unix milliseconds.
	TsMs int64
}

// Watcher defines the interface for recursive filesystem watching.
// Implementations only emit records; scheduling reindex work for each
// affected path is the host's responsibility (§5).
type Watcher interface {
	// Start begins watching the given directory recursively. Returns an
	// error if watching fails to initialize. Runs until Stop is called
	// or ctx is cancelled.
	Start(ctx context.Context, path string) error

	// Stop stops the watcher and releases resources. Safe to call
	// multiple times.
	Stop() error

	// Changes returns the channel of debounced change batches. Closed
	// when the watcher stops.
	Changes() <-chan []Change

	// Errors returns a channel of non-fatal watcher errors. Closed when
	// the watcher stops.
	Errors() <-chan error

	// SessionID returns the session counter of the current/last Start.
	SessionID() uint64
}

// Options configures watcher behavior.
type Options struct {
	// DebounceWindow is the time to wait before emitting coalesced
	// changes. Default: 200ms.
	DebounceWindow time.Duration

	// PollInterval is the interval for polling mode (fallback).
	// Default: 5s.
	PollInterval time.Duration

	// EventBufferSize is the size of the change batch channel buffer.
	// Default: 1000.
	EventBufferSize int

	// RenamePairWindow bounds how long a bare fsnotify Rename (the
	// "from" side) waits for a matching Create (the "to" side) before
	// it is emitted as a plain Removed. Default: 100ms.
	RenamePairWindow time.Duration

	// IgnorePatterns are additional gitignore-syntax patterns to ignore
	// beyond .gitignore/.tomosonaignore.
	IgnorePatterns []string
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:   200 * time.Millisecond,
		PollInterval:     5 * time.Second,
		EventBufferSize:  1000,
		RenamePairWindow: 100 * time.Millisecond,
		IgnorePatterns:   nil,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow == 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval == 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	if o.RenamePairWindow == 0 {
		o.RenamePairWindow = defaults.RenamePairWindow
	}
	return o
}
