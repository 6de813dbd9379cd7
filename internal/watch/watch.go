// Package watch re-runs an action when Fortran sources under a directory change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/soypat/fort2go/internal/scan"
)

// DefaultDebounce is the quiet period after the last change before the action runs.
const DefaultDebounce = 200 * time.Millisecond

type Options struct {
	Debounce time.Duration
	// Legacy also watches fixed-form sources.
	Legacy bool
	Logger *slog.Logger
}

// Run watches root recursively and calls fn with the sorted set of source
// files changed since the previous call. Bursts of events are coalesced.
// Run returns nil when ctx is done.
func Run(ctx context.Context, root string, opts Options, fn func(changed []string)) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := addTree(w, root); err != nil {
		return err
	}

	timer := time.NewTimer(opts.Debounce)
	timer.Stop()
	pending := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(w, ev.Name); err != nil {
						log.Warn("watching new directory", "dir", ev.Name, "err", err)
					}
					continue
				}
			}
			if !scan.IsSource(ev.Name, opts.Legacy) || ev.Op == fsnotify.Chmod {
				continue
			}
			log.Debug("source changed", "path", ev.Name, "op", ev.Op.String())
			pending[ev.Name] = true
			timer.Reset(opts.Debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return err
		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			slices.Sort(changed)
			clear(pending)
			fn(changed)
		}
	}
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
