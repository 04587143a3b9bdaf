// Package watch reports changes to the Markdown files of the vault.
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

	"github.com/starford/explode/internal/checksum"
	"github.com/starford/explode/internal/models"
	"github.com/starford/explode/internal/storage"
)

// Change kinds passed to a Callback.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

const (
	defaultDebounce = 100 * time.Millisecond
	reconcileDelay  = 200 * time.Millisecond
)

// Callback receives one change of a vault-relative path.
type Callback func(kind, path string)

// Vault is the part of the vault storage the watcher needs.
type Vault interface {
	Root() string
	Rel(abs string) (string, error)
	List(dir string) ([]models.DocumentInfo, error)
	Read(path string) ([]byte, error)
}

var _ Vault = (*storage.FS)(nil)

// Watcher tracks the checksum of every document so that only real content
// changes are reported.
type Watcher struct {
	vault    Vault
	debounce time.Duration
	logger   *slog.Logger

	known map[string]string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a path must stay quiet before it is checked.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New creates a watcher over vault.
func New(vault Vault, opts ...Option) *Watcher {
	w := &Watcher{
		vault:    vault,
		debounce: defaultDebounce,
		logger:   slog.Default(),
		known:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the vault until ctx is cancelled, calling cb (if non-nil) for
// every document created, updated or deleted. Directories created at runtime
// are watched too. A rename schedules a reconciliation pass against the
// file listing.
func (w *Watcher) Run(ctx context.Context, cb Callback) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	root := w.vault.Root()
	if err := addDirsRecursive(fw, root); err != nil {
		return err
	}
	w.seed()

	w.logger.Info("watcher: started", slog.String("root", root))

	pending := make(map[string]struct{})
	var flushTimer, reconcileTimer *time.Timer
	var flushCh, reconcileCh <-chan time.Time

	schedule := func(t **time.Timer, ch *<-chan time.Time, d time.Duration) {
		if *t == nil {
			*t = time.NewTimer(d)
			*ch = (*t).C
			return
		}
		(*t).Reset(d)
	}
	stop := func(t *time.Timer) {
		if t != nil {
			t.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stop(flushTimer)
			stop(reconcileTimer)
			w.logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			for rel := range pending {
				w.check(rel, cb)
			}
			clear(pending)

		case <-reconcileCh:
			w.reconcile(cb)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						w.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// Files may land in the directory before it is watched.
					schedule(&reconcileTimer, &reconcileCh, reconcileDelay)
					continue
				}
			}

			if !storage.IsDocument(ev.Name) {
				continue
			}
			rel, relErr := w.vault.Rel(ev.Name)
			if relErr != nil {
				continue
			}

			pending[rel] = struct{}{}
			schedule(&flushTimer, &flushCh, w.debounce)
			if ev.Op&fsnotify.Rename != 0 {
				// fsnotify reports only the old name of a rename.
				schedule(&reconcileTimer, &reconcileCh, reconcileDelay)
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// seed records the documents present when watching starts.
func (w *Watcher) seed() {
	items, err := w.vault.List("")
	if err != nil {
		w.logger.Warn("watcher: list failed", slog.String("error", err.Error()))
		return
	}
	for _, it := range items {
		w.known[it.Path] = it.Checksum
	}
}

// check compares the current content of rel with the last one seen.
func (w *Watcher) check(rel string, cb Callback) {
	prev, seen := w.known[rel]
	data, err := w.vault.Read(rel)
	if err != nil {
		if !seen {
			return
		}
		delete(w.known, rel)
		w.emit(cb, Deleted, rel)
		return
	}

	sum := checksum.Sum(data)
	if seen && prev == sum {
		return
	}
	w.known[rel] = sum
	if seen {
		w.emit(cb, Updated, rel)
	} else {
		w.emit(cb, Created, rel)
	}
}

// reconcile diffs the known documents against a fresh listing.
func (w *Watcher) reconcile(cb Callback) {
	items, err := w.vault.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(items))
	for _, it := range items {
		disk[it.Path] = it.Checksum
	}
	for p := range w.known {
		if _, ok := disk[p]; !ok {
			delete(w.known, p)
			w.emit(cb, Deleted, p)
		}
	}
	for p, sum := range disk {
		prev, seen := w.known[p]
		if seen && prev == sum {
			continue
		}
		w.known[p] = sum
		if seen {
			w.emit(cb, Updated, p)
		} else {
			w.emit(cb, Created, p)
		}
	}
}

func (w *Watcher) emit(cb Callback, kind, rel string) {
	w.logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", kind))
	if cb != nil {
		cb(kind, rel)
	}
}

// addDirsRecursive watches root and its subdirectories, hidden ones
// excluded.
func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
