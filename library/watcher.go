package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/simonhull/audiolib"
	"github.com/simonhull/audiolib/internal/logger"
)

// DefaultDebounce is how long the Watcher waits for a directory to go
// quiet before it syncs the library.
const DefaultDebounce = 500 * time.Millisecond

// Watcher keeps the library in step with directories on disk. Created or
// changed audio files are added or re-read; removed ones are dropped.
// Events are collected until no new one arrives for the debounce period.
type Watcher struct {
	store    *Store
	fs       *fsnotify.Watcher
	debounce time.Duration
	addOpts  []AddOption
	onSync   func(WatchSync)

	pending map[string]struct{}
	prune   bool
}

// WatchSync reports one debounced batch.
type WatchSync struct {
	Added   AddResult
	Removed int
	Err     error
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithAddOptions passes options to the AddTasks the watcher runs.
func WithAddOptions(opts ...AddOption) WatchOption {
	return func(w *Watcher) { w.addOpts = append(w.addOpts, opts...) }
}

// WithSyncHandler registers fn for every batch the watcher applies.
func WithSyncHandler(fn func(WatchSync)) WatchOption {
	return func(w *Watcher) { w.onSync = fn }
}

// NewWatcher watches dirs and everything below them.
func NewWatcher(store *Store, dirs []string, opts ...WatchOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		store:    store,
		fs:       fw,
		debounce: DefaultDebounce,
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	for _, dir := range dirs {
		if err := w.addTree(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// addTree watches dir and its subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// Run handles events until ctx is done, then closes the watcher. Pending
// changes are synced before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.sync(context.WithoutCancel(ctx))
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))

		case <-timer.C:
			w.sync(ctx)
		}
	}
}

// handle records ev and reports whether a sync is needed.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				logger.Warn("watch new directory", zap.String("path", ev.Name), zap.Error(err))
			}
			// Files moved in with the directory raise no events.
			w.pending[ev.Name] = struct{}{}
			return true
		}
	}
	if !audiolib.IsAudioPath(ev.Name) {
		// A removed directory takes its files along without events.
		if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
			w.prune = true
			return true
		}
		return false
	}
	if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		w.pending[ev.Name] = struct{}{}
		return true
	}
	return false
}

// sync applies the pending paths: existing ones are added or re-read,
// vanished ones removed.
func (w *Watcher) sync(ctx context.Context) {
	if len(w.pending) == 0 && !w.prune {
		return
	}
	present, gone := splitPending(slices.Collect(maps.Keys(w.pending)))
	clear(w.pending)

	var report WatchSync
	if len(present) > 0 {
		opts := append([]AddOption{WithReplace()}, w.addOpts...)
		report.Added, report.Err = NewAddTask(w.store, present, opts...).Run(ctx)
	}
	if len(gone) > 0 {
		err := w.store.Transaction(ctx, func(tx Tx) error {
			for _, p := range gone {
				uri := audiolib.FileURI(p)
				if _, err := tx.Find(uri); errors.Is(err, ErrNotFound) {
					continue
				}
				if err := tx.Remove(uri); err != nil {
					return err
				}
				report.Removed++
			}
			return nil
		})
		if err != nil {
			report.Removed = 0
			report.Err = errors.Join(report.Err, err)
		}
	}

	if w.prune {
		w.prune = false
		res, err := NewRemoveMissingTask(w.store).Run(ctx)
		report.Removed += res.Removed
		report.Err = errors.Join(report.Err, err)
	}

	logger.Info("library synced",
		zap.Int("added", report.Added.Added),
		zap.Int("updated", report.Added.Updated),
		zap.Int("removed", report.Removed),
		zap.Error(report.Err),
	)
	if w.onSync != nil {
		w.onSync(report)
	}
}

// splitPending sorts changed paths into those still on disk and those
// removed. A path that cannot be checked is left for a later event.
func splitPending(paths []string) (present, gone []string) {
	for _, p := range paths {
		_, err := os.Stat(p)
		switch {
		case err == nil:
			present = append(present, p)
		case errors.Is(err, fs.ErrNotExist):
			gone = append(gone, p)
		default:
			logger.Warn("watch skipped path", zap.String("path", p), zap.Error(err))
		}
	}
	slices.Sort(present)
	slices.Sort(gone)
	return present, gone
}
