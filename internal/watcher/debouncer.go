package watcher

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces rapid changes to prevent index thrashing. Changes
// for the same path within the debounce window are merged according to
// these rules:
//   - Created + Modified = Created (file is still new)
//   - Created + Removed = nothing (file never really existed)
//   - Modified + Removed = Removed (file is gone)
//   - Removed + Created = Modified (file was replaced)
//   - Renamed is kept as the latest change for its new path.
type Debouncer struct {
	window  time.Duration
	pending map[string]*pendingChange
	mu      sync.Mutex
	output  chan []Change
	timer   *time.Timer
	stopCh  chan struct{}
	stopped bool
}

type pendingChange struct {
	change   Change
	firstOp  Kind
	lastSeen time.Time
}

// NewDebouncer creates a new debouncer with the given window duration.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]*pendingChange),
		output:  make(chan []Change, 10),
		stopCh:  make(chan struct{}),
	}
}

// debounceKey is the path a change is coalesced under.
func debounceKey(c Change) string {
	if c.Kind == Renamed {
		return c.NewPath
	}
	return c.Path
}

// Add adds a change to be debounced.
func (d *Debouncer) Add(change Change) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	key := debounceKey(change)
	now := time.Now()

	if existing, ok := d.pending[key]; ok {
		coalesced := d.coalesce(existing, change)
		if coalesced == nil {
			delete(d.pending, key)
		} else {
			existing.change = *coalesced
			existing.lastSeen = now
		}
	} else {
		d.pending[key] = &pendingChange{
			change:   change,
			firstOp:  change.Kind,
			lastSeen: now,
		}
	}

	d.scheduleFlush()
}

// coalesce merges two changes according to the coalescing rules. Returns
// nil if the changes cancel each other out.
func (d *Debouncer) coalesce(existing *pendingChange, next Change) *Change {
	switch existing.firstOp {
	case Created:
		switch next.Kind {
		case Modified:
			return &existing.change
		case Removed:
			return nil
		default:
			return &next
		}

	case Modified:
		return &next

	case Removed:
		if next.Kind == Created {
			result := next
			result.Kind = Modified
			return &result
		}
		return &next

	default:
		return &next
	}
}

// scheduleFlush schedules a flush after the debounce window.
func (d *Debouncer) scheduleFlush() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush emits all pending changes as a single batch.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	changes := make([]Change, 0, len(d.pending))
	for _, pc := range d.pending {
		changes = append(changes, pc.change)
	}
	d.pending = make(map[string]*pendingChange)

	select {
	case d.output <- changes:
	default:
		slog.Warn("debouncer output full, dropping batch", slog.Int("batch_size", len(changes)))
	}
}

// Output returns the channel of debounced change batches.
func (d *Debouncer) Output() <-chan []Change {
	return d.output
}

// Stop stops the debouncer and closes the output channel. Safe to call
// multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.stopCh)
	close(d.output)
}
