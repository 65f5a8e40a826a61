// Package watcher monitors a corpus directory and signals when its
// contents settle after a burst of changes, so a re-ingest can run once
// instead of once per file.
package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/docdex-io/docdex/internal/logger"
)

// DefaultDebounce is the quiet period required before a change burst
// is reported.
const DefaultDebounce = 2 * time.Second

// Watcher watches a directory tree for changes to documentation files.
type Watcher struct {
	fsw        *fsnotify.Watcher
	debounce   time.Duration
	extensions []string
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExtensions sets the file extensions that count as changes.
func WithExtensions(exts []string) Option {
	return func(w *Watcher) {
		if len(exts) > 0 {
			w.extensions = exts
		}
	}
}

// New creates a watcher over the directory tree rooted at dir.
func New(dir string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:        fsw,
		debounce:   DefaultDebounce,
		extensions: []string{".md", ".markdown", ".mdx", ".txt", ".rst"},
	}
	for _, opt := range opts {
		opt(w)
	}

	// fsnotify does not recurse, so every subdirectory is registered.
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); strings.HasPrefix(name, ".") && path != dir {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

// Changes returns a channel that receives one signal per settled burst
// of file changes. The channel closes when the context is cancelled.
func (w *Watcher) Changes(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)

		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if !w.relevant(event) {
					continue
				}
				logger.Debug("watcher: %s %s", event.Op, event.Name)

				// New directories must be registered to keep recursing.
				if event.Op.Has(fsnotify.Create) {
					w.fsw.Add(event.Name) //nolint:errcheck
				}

				if timer == nil {
					timer = time.NewTimer(w.debounce)
					timerC = timer.C
				} else {
					timer.Reset(w.debounce)
				}

			case <-timerC:
				timer = nil
				timerC = nil
				select {
				case out <- struct{}{}:
				default:
				}

			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher: %v", err)
			}
		}
	}()

	return out
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// relevant reports whether an event should trigger a re-ingest.
// Directory creations count so new subtrees get picked up.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename) {
		return false
	}
	ext := filepath.Ext(event.Name)
	if ext == "" {
		// Probably a directory.
		return event.Op.Has(fsnotify.Create | fsnotify.Remove | fsnotify.Rename)
	}
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
