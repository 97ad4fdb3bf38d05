package cellarer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchSettleDelay = 250 * time.Millisecond

// WatchLibraries keeps the library registry in sync with the file system.
// All map files contributing to the resolution and all effective library
// files are watched via their parent folders so that deletions and renames
// are caught as well. Events settle for a short time before a reload to
// coalesce editor write bursts. Returns when the context is cancelled.
func (c *cellarer) WatchLibraries(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return newCommandError("watching cell libraries failed", err)
	}
	defer watcher.Close()

	interesting, err := c.refreshWatchTargets(watcher, nil)
	if err != nil {
		return newCommandError("watching cell libraries failed", err)
	}
	if err := c.ReloadLibraries(); err != nil {
		return err
	}
	fmt.Fprint(c.extraOut, "Watching cell library map and libraries for changes...\n")

	var settle *time.Timer
	var settled <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, open := <-watcher.Events:
			if !open {
				return nil
			}
			if !interesting[filepath.Clean(event.Name)] {
				continue
			}
			fmt.Fprintf(c.verboseOut, "Change detected: %s (%s)\n", displayablePath(event.Name), event.Op)
			if settle == nil {
				settle = time.NewTimer(watchSettleDelay)
				settled = settle.C
			} else {
				settle.Reset(watchSettleDelay)
			}
		case watchErr, open := <-watcher.Errors:
			if !open {
				return nil
			}
			fmt.Fprintf(c.errOut, "watch error: %s\n", watchErr)
		case <-settled:
			settle = nil
			settled = nil
			if err := c.ReloadLibraries(); err != nil {
				fmt.Fprintf(c.errOut, "%s\n", err)
				continue //a transient inconsistency, the next change may fix it
			}
			if interesting, err = c.refreshWatchTargets(watcher, interesting); err != nil {
				return newCommandError("watching cell libraries failed", err)
			}
		}
	}
}

// refreshWatchTargets re-resolves the map and adjusts the watched folders to
// cover all contributing map files and effective library files. The returned
// set holds the full paths whose events matter.
func (c *cellarer) refreshWatchTargets(watcher *fsnotify.Watcher, previous map[string]bool) (interesting map[string]bool, err error) {
	resolved, err := c.resolveMap()
	if err != nil {
		return previous, err
	}

	interesting = make(map[string]bool)
	for _, file := range resolved.Files() {
		interesting[filepath.Clean(file)] = true
	}
	for _, definition := range resolved.Effective() {
		interesting[filepath.Clean(definition.Path)] = true
	}

	folders := make(map[string]bool)
	for path := range interesting {
		folders[filepath.Dir(path)] = true
	}
	for folder := range folders {
		if err := watcher.Add(folder); err != nil {
			return previous, fmt.Errorf("cannot watch folder %s: %w", folder, err)
		}
	}
	for _, watched := range watcher.WatchList() {
		if !folders[watched] {
			_ = watcher.Remove(watched) //folder no longer contributes
		}
	}
	return interesting, nil
}
