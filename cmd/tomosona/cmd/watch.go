package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jbl2024/tomosona/internal/app"
	"github.com/jbl2024/tomosona/internal/pathutil"
	"github.com/jbl2024/tomosona/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the workspace and drive partial reindex from filesystem changes",
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watcher.NewHybridWatcher(watcher.DefaultOptions())
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	if err := w.Start(ctx, a.Workspace.Root()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "watching %s (%s)\n", a.Workspace.Root(), w.WatcherType())

	lastSession := w.SessionID()
	for {
		select {
		case <-ctx.Done():
			return nil
		case changes, ok := <-w.Changes():
			if !ok {
				return nil
			}
			applyChanges(ctx, a, changes, &lastSession)
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			slog.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// applyChanges drives the Note Indexer from one debounced batch of
// change records, per §4.12's host responsibility. Records from a
// session older than the last one seen are ignored, per §5's ordering
// guarantee.
func applyChanges(ctx context.Context, a *app.App, changes []watcher.Change, lastSession *uint64) {
	for _, c := range changes {
		if c.SessionID < *lastSession {
			continue
		}
		*lastSession = c.SessionID

		switch c.Kind {
		case watcher.Created, watcher.Modified:
			if !pathutil.IsMarkdownFile(c.Path) {
				continue
			}
			abs := filepath.Join(a.Workspace.Root(), filepath.FromSlash(c.Path))
			if err := a.Indexer.IndexFile(ctx, abs); err != nil {
				slog.Warn("watch: indexing failed", slog.String("path", c.Path), slog.String("error", err.Error()))
			}
		case watcher.Removed:
			if !pathutil.IsMarkdownFile(c.Path) {
				continue
			}
			if err := a.Indexer.RemovePath(ctx, filepath.ToSlash(c.Path)); err != nil {
				slog.Warn("watch: removal failed", slog.String("path", c.Path), slog.String("error", err.Error()))
			}
		case watcher.Renamed:
			if !pathutil.IsMarkdownFile(c.OldPath) && !pathutil.IsMarkdownFile(c.NewPath) {
				continue
			}
			oldRel := filepath.ToSlash(c.OldPath)
			newRel := filepath.ToSlash(c.NewPath)
			if pathutil.IsMarkdownFile(oldRel) {
				if err := a.Indexer.RemovePath(ctx, oldRel); err != nil {
					slog.Warn("watch: rename removal failed", slog.String("path", oldRel), slog.String("error", err.Error()))
				}
			}
			if pathutil.IsMarkdownFile(newRel) {
				newAbs := filepath.Join(a.Workspace.Root(), filepath.FromSlash(newRel))
				if err := a.Indexer.IndexFile(ctx, newAbs); err != nil {
					slog.Warn("watch: rename indexing failed", slog.String("path", newRel), slog.String("error", err.Error()))
				}
			}
			if pathutil.IsMarkdownFile(oldRel) && pathutil.IsMarkdownFile(newRel) {
				if _, err := a.Rename.ApplyRename(ctx, oldRel, newRel); err != nil {
					slog.Warn("watch: wiki-link rewrite failed", slog.String("old", oldRel), slog.String("new", newRel), slog.String("error", err.Error()))
				}
			}
		}
	}
}
