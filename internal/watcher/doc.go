// Package watcher provides real-time filesystem watching with automatic
// debouncing and ignore-file-aware filtering, per §4.12.
//
// The package implements a hybrid watching strategy:
//   - Primary: fsnotify for efficient event-based watching
//   - Fallback: polling for environments where fsnotify fails (network
//     mounts, some container filesystems)
//
// Raw OS events are translated into Created/Removed/Renamed/Modified
// change records, paired across a short window so a rename where both
// sides are observed collapses into a single Renamed record instead of a
// Removed+Created pair. Records are debounced to coalesce rapid changes
// from editors, then batched and stamped with the watcher's session_id
// and a millisecond timestamp before being handed to the host.
//
// Usage:
//
//	opts := watcher.DefaultOptions()
//	w, err := watcher.NewHybridWatcher(opts)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	if err := w.Start(ctx, rootPath); err != nil {
//	    return err
//	}
//
//	for batch := range w.Changes() {
//	    for _, c := range batch {
//	        switch c.Kind {
//	        case watcher.Created:
//	        case watcher.Removed:
//	        case watcher.Renamed:
//	        case watcher.Modified:
//	        }
//	    }
//	}
package watcher
