// Package watch runs an fsnotify watcher over the vault root and publishes
// advisory change events. It keeps no state the core depends on: every
// operation still rebuilds its own index, the watcher only lets connected
// UIs refresh their link-health badge without polling.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/raido/internal/vaultservice"
)

// debounce coalesces bursts of file events (editors write several times per
// save) into one published change.
const debounce = 200 * time.Millisecond

// Callback is invoked after a debounced vault change with the vault-relative
// path of the last event and the current broken-link count.
type Callback func(path string, brokenLinks int)

// Run watches vaultRoot until ctx is cancelled, calling cb (if non-nil)
// after each debounced markdown change. New directories created at runtime
// are added to the watch list automatically.
func Run(ctx context.Context, svc *vaultservice.Service, vaultRoot string, logger *slog.Logger, cb Callback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	var timer *time.Timer
	var timerCh <-chan time.Time
	lastPath := ""

	schedule := func(path string) {
		lastPath = path
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			broken := brokenCount(ctx, svc, logger)
			logger.Debug("watcher: vault changed",
				slog.String("path", lastPath), slog.Int("broken_links", broken))
			if cb != nil {
				cb(lastPath, broken)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			// New directories are added to the watch list as they appear.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}

			if !strings.HasSuffix(strings.ToLower(ev.Name), ".md") {
				continue
			}
			rel, relErr := filepath.Rel(vaultRoot, ev.Name)
			if relErr != nil {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule(filepath.ToSlash(rel))
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// brokenCount rebuilds the index and counts unresolved internal links.
func brokenCount(ctx context.Context, svc *vaultservice.Service, logger *slog.Logger) int {
	ix, err := svc.BuildIndex(ctx)
	if err != nil {
		logger.Warn("watcher: index rebuild failed", slog.String("error", err.Error()))
		return 0
	}
	count := 0
	for _, links := range ix.Unresolved() {
		count += len(links)
	}
	return count
}

// addDirsRecursive adds root and all its non-hidden subdirectories to w.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
