package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/simonhull/audiolib"
	"github.com/simonhull/audiolib/internal/logger"
	"github.com/simonhull/audiolib/task"
)

// ExpandPaths returns the audio files named by paths. Directories are
// walked recursively; files without an audio extension are left out.
// The result is sorted and free of duplicates.
func ExpandPaths(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if !audiolib.IsAudioPath(p) {
			return
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if _, dup := seen[p]; !dup {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("skip unreadable path", zap.String("path", p), zap.Error(err))
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	slices.Sort(out)
	return out, nil
}

// AddResult summarizes an AddTask.
type AddResult struct {
	Added   int // new entries persisted
	Updated int // existing entries replaced
	Skipped int // already present, or unreadable
}

// AddOption configures an AddTask.
type AddOption func(*AddTask)

// WithReplace re-reads files that are already in the library and
// replaces their entries instead of skipping them.
func WithReplace() AddOption {
	return func(a *AddTask) { a.replace = true }
}

// WithStampFiles writes the library-added time into files that carry
// none, so it survives a rebuilt library.
func WithStampFiles(opts ...audiolib.WriteOption) AddOption {
	return func(a *AddTask) {
		a.stamp = true
		a.writeOpts = opts
	}
}

// WithTaskOptions passes options to the underlying task.ReadTask.
func WithTaskOptions(opts ...task.Option) AddOption {
	return func(a *AddTask) { a.taskOpts = append(a.taskOpts, opts...) }
}

// WithProgress registers fn for read progress.
func WithProgress(fn func(task.Progress)) AddOption {
	return func(a *AddTask) { a.progress = fn }
}

// WithClock replaces time.Now for the library-added time.
func WithClock(now func() time.Time) AddOption {
	return func(a *AddTask) { a.now = now }
}

// AddTask adds files and directories to the library. Metadata is read
// through a task.ReadTask; what was read before a cancellation is still
// persisted.
type AddTask struct {
	store *Store
	paths []string

	replace   bool
	stamp     bool
	writeOpts []audiolib.WriteOption
	taskOpts  []task.Option
	progress  func(task.Progress)
	now       func() time.Time

	mu   sync.Mutex
	read *task.ReadTask
	stop bool
}

// NewAddTask prepares an AddTask over paths.
func NewAddTask(store *Store, paths []string, opts ...AddOption) *AddTask {
	a := &AddTask{store: store, paths: slices.Clone(paths), now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Cancel stops the read between files.
func (a *AddTask) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stop = true
	if a.read != nil {
		a.read.Cancel()
	}
}

// Run expands the paths, reads the files not yet in the library and
// persists them in one transaction.
func (a *AddTask) Run(ctx context.Context) (AddResult, error) {
	var res AddResult

	files, err := ExpandPaths(a.paths)
	if err != nil {
		return res, err
	}
	existing, err := a.store.URIs(ctx)
	if err != nil {
		return res, err
	}

	var items []audiolib.Item
	for _, f := range files {
		if _, ok := existing[audiolib.FileURI(f)]; ok && !a.replace {
			res.Skipped++
			continue
		}
		items = append(items, audiolib.FileItem(f))
	}

	rt := task.NewReadTask(items, a.taskOpts...)
	if a.progress != nil {
		rt.OnProgress(a.progress)
	}
	a.mu.Lock()
	a.read = rt
	if a.stop {
		rt.Cancel()
	}
	a.mu.Unlock()

	ok, result, runErr := rt.Run(ctx)
	res.Skipped += rt.Progress().Skipped

	added := a.now()
	// Entries read before a cancellation are kept.
	err = a.store.Transaction(context.WithoutCancel(ctx), func(tx Tx) error {
		for _, m := range result {
			_, err := tx.Find(m.URI())
			switch {
			case err == nil:
				if !a.replace {
					res.Skipped++
					continue
				}
				res.Updated++
			case errors.Is(err, ErrNotFound):
				res.Added++
			default:
				return err
			}
			if err := tx.Persist(NewEntry(m, added)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return AddResult{}, fmt.Errorf("persist library entries: %w", err)
	}

	if a.stamp {
		a.stampFiles(ctx, result, added)
	}

	logger.Info("library add finished",
		zap.Int("added", res.Added),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Bool("complete", ok),
	)
	if runErr != nil {
		return res, runErr
	}
	if !ok {
		return res, context.Canceled
	}
	return res, nil
}

func (a *AddTask) stampFiles(ctx context.Context, result []*audiolib.Metadata, added time.Time) {
	for _, m := range result {
		if !m.LibraryAdded().IsZero() || ctx.Err() != nil {
			continue
		}
		w, err := audiolib.NewWriter(m, a.writeOpts...)
		if err != nil {
			continue
		}
		w.SetLibraryAdded(added)
		w.Write(ctx)
	}
}

// RemoveResult summarizes a RemoveMissingTask.
type RemoveResult struct {
	Checked int
	Removed int
}

// RemoveMissingTask drops the entries whose file no longer exists.
// Entries without a local file are kept.
type RemoveMissingTask struct {
	store *Store
}

func NewRemoveMissingTask(store *Store) *RemoveMissingTask {
	return &RemoveMissingTask{store: store}
}

// Run checks every entry and removes the missing ones in one
// transaction. A cancelled ctx stops the check; entries found missing
// so far are still removed.
func (r *RemoveMissingTask) Run(ctx context.Context) (RemoveResult, error) {
	var res RemoveResult
	entries, err := r.store.All(ctx)
	if err != nil {
		return res, err
	}

	var missing []string
	for i := range entries {
		if ctx.Err() != nil {
			break
		}
		e := &entries[i]
		res.Checked++
		if !e.IsFileBased() {
			continue
		}
		if _, err := os.Stat(e.Path); errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, e.Location)
		}
	}

	// The removal outlives a cancelled check.
	err = r.store.Transaction(context.WithoutCancel(ctx), func(tx Tx) error {
		for _, uri := range missing {
			if err := tx.Remove(uri); err != nil {
				return err
			}
			res.Removed++
		}
		return nil
	})
	if err != nil {
		return RemoveResult{}, fmt.Errorf("remove missing entries: %w", err)
	}

	logger.Info("library prune finished", zap.Int("checked", res.Checked), zap.Int("removed", res.Removed))
	return res, ctx.Err()
}
