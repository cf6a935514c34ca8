// Package inbox imports note files dropped into a watched directory.
package inbox

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/noteflow/internal/apperr"
	"github.com/starford/noteflow/internal/checksum"
	"github.com/starford/noteflow/internal/models"
	"github.com/starford/noteflow/internal/transfer"
)

const defaultDebounce = 200 * time.Millisecond

// Importer turns a file into a note.
type Importer interface {
	Import(ctx context.Context, name string, data []byte) (models.ImportResult, error)
}

// EventCallback is called after a file was imported. action is "add" or
// "update"; path is relative to the inbox root.
type EventCallback func(action models.ImportAction, path string, noteID string)

// Watcher imports supported files written into an inbox directory. Writes
// are debounced so a file copied in several chunks is imported once, and a
// file whose content has not changed since its last import is skipped.
type Watcher struct {
	root     string
	imp      Importer
	logger   *slog.Logger
	cb       EventCallback
	debounce time.Duration

	seen    map[string]string
	pending map[string]struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithCallback sets the function called after each import.
func WithCallback(cb EventCallback) Option {
	return func(w *Watcher) { w.cb = cb }
}

// WithDebounce sets how long the watcher waits after the last write.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher for root. The directory is created if missing.
func New(root string, imp Importer, logger *slog.Logger, opts ...Option) (*Watcher, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	w := &Watcher{
		root:     root,
		imp:      imp,
		logger:   logger,
		debounce: defaultDebounce,
		seen:     make(map[string]string),
		pending:  make(map[string]struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// Sweep imports every supported file already in the inbox.
func (w *Watcher) Sweep(ctx context.Context) {
	_ = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		w.process(ctx, path)
		return nil
	})
}

// Run sweeps the inbox and then processes file events until ctx is
// cancelled. Subdirectories created at runtime are watched too.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return err
	}
	w.logger.Info("inbox: started", slog.String("root", w.root))
	w.Sweep(ctx)

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			timerCh = timer.C
		} else {
			timer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("inbox: stopped")
			return nil

		case <-timerCh:
			for path := range w.pending {
				w.process(ctx, path)
			}
			clear(w.pending)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			path := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, path); addErr != nil {
						w.logger.Warn("inbox: add new dir failed",
							slog.String("path", path),
							slog.String("error", addErr.Error()))
						continue
					}
					_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
						if err == nil && !d.IsDir() && transfer.Supported(p) {
							w.pending[p] = struct{}{}
						}
						return nil
					})
					schedule()
					continue
				}
			}

			if !transfer.Supported(path) {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				w.pending[path] = struct{}{}
				schedule()
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(w.pending, path)
				delete(w.seen, path)
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("inbox: error", slog.String("error", watchErr.Error()))
		}
	}
}

// process imports one file unless its content was already imported.
func (w *Watcher) process(ctx context.Context, path string) {
	if !transfer.Supported(path) {
		return
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			w.logger.Warn("inbox: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		}
		return
	}
	sum := checksum.Sum(data)
	if w.seen[path] == sum {
		return
	}
	res, err := w.imp.Import(ctx, filepath.Base(path), data)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, apperr.ErrImportFormat) {
			level = slog.LevelWarn
			w.seen[path] = sum
		}
		w.logger.Log(ctx, level, "inbox: import failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.seen[path] = sum
	w.logger.Debug("inbox: imported",
		slog.String("path", rel),
		slog.String("action", string(res.Action)),
		slog.String("id", res.Note.ID))
	if w.cb != nil {
		w.cb(res.Action, rel, res.Note.ID)
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
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
