// Package watch regenerates resources when source artwork changes.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/resgen/internal/catalog"
	"github.com/felixgeelhaar/resgen/internal/errors"
	"github.com/felixgeelhaar/resgen/internal/log"
	"github.com/felixgeelhaar/resgen/internal/resources"
)

// DefaultDebounce is the quiet period after the last change before a
// regeneration is triggered.
const DefaultDebounce = 500 * time.Millisecond

// Handler is called with the sorted source paths that changed.
type Handler func(ctx context.Context, changed []string) error

// Watcher monitors a resource root for source artwork changes.
type Watcher struct {
	Root     string
	Debounce time.Duration
	Logger   *log.Logger

	fs *fsnotify.Watcher
}

// New creates a watcher for the resource root. The root and each of its
// platform directories are watched; generated output directories are not.
func New(root string, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.DefaultLogger()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to create file watcher", err)
	}

	w := &Watcher{Root: root, Debounce: DefaultDebounce, Logger: logger, fs: fsw}
	if err := w.add(root); err != nil {
		fsw.Close()
		return nil, err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		fsw.Close()
		return nil, errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to read resource directory", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := w.add(filepath.Join(root, e.Name())); err != nil {
				fsw.Close()
				return nil, err
			}
		}
	}
	return w, nil
}

func (w *Watcher) add(dir string) error {
	if err := w.fs.Add(dir); err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to watch "+dir, err)
	}
	w.Logger.Debug("watching directory", "dir", dir)
	return nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run blocks until ctx is done, calling fn once per burst of source changes.
// Handler errors are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context, fn Handler) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(w.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if w.platformDir(event) {
				if err := w.add(event.Name); err != nil {
					w.Logger.WithError(err).Warn("failed to watch new platform directory")
				}
				continue
			}
			if !event.Has(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) || !IsSource(w.Root, event.Name) {
				continue
			}
			pending[event.Name] = true
			timer.Reset(w.Debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.Logger.WarnContext(ctx, "watcher error", "error", err)

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)

			w.Logger.InfoContext(ctx, "source artwork changed", "files", changed)
			if err := fn(ctx, changed); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.Logger.LogError("regeneration failed", err)
			}
		}
	}
}

func (w *Watcher) platformDir(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) || filepath.Dir(event.Name) != filepath.Clean(w.Root) {
		return false
	}
	info, err := os.Stat(event.Name)
	return err == nil && info.IsDir()
}

// IsSource reports whether path is a source artwork location under root:
// <root>/<category>.<ext> or <root>/<platform>/<category>.<ext>.
func IsSource(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) > 2 || parts[0] == ".." {
		return false
	}

	base := parts[len(parts)-1]
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	known := false
	for _, e := range resources.SourceExtensions {
		if ext == e {
			known = true
			break
		}
	}
	if !known {
		return false
	}
	for _, c := range catalog.Categories {
		if stem == string(c) {
			return true
		}
	}
	return false
}
