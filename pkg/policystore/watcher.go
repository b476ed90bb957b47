package policystore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-billy/v5"
	"github.com/go-logr/logr"
	"github.com/kyverno/admission-engine/ext/file"
	"github.com/pkg/errors"
)

// ReloadFunc reloads the policy set
type ReloadFunc func(context.Context) error

// Reloader returns a ReloadFunc loading the paths from the filesystem
func (s *Store) Reloader(fs billy.Filesystem, paths ...string) ReloadFunc {
	return func(ctx context.Context) error {
		return s.LoadFS(ctx, fs, paths...)
	}
}

// Watcher triggers a reload when YAML files under the watched paths change.
// Bursts of events are coalesced, a reload runs once the paths are quiet for the debounce interval.
type Watcher struct {
	log      logr.Logger
	debounce time.Duration
	reload   ReloadFunc

	lock  sync.Mutex
	timer *time.Timer
}

const defaultDebounce = 500 * time.Millisecond

// NewWatcher creates a watcher, a zero debounce uses the default interval
func NewWatcher(log logr.Logger, debounce time.Duration, reload ReloadFunc) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		log:      log,
		debounce: debounce,
		reload:   reload,
	}
}

// Run watches the paths until the context is cancelled
func (w *Watcher) Run(ctx context.Context, paths ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}
	defer watcher.Close()
	for _, path := range paths {
		if err := addRecursive(watcher, path); err != nil {
			return err
		}
	}
	w.log.V(2).Info("watching policies", "paths", paths)
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.relevant(watcher, event) {
				continue
			}
			w.log.V(4).Info("policy file changed", "path", event.Name, "op", event.Op.String())
			w.trigger(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.log.Error(err, "watcher error")
		}
	}
}

func (w *Watcher) relevant(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addRecursive(watcher, event.Name); err != nil {
				w.log.Error(err, "failed to watch directory", "path", event.Name)
			}
			return true
		}
	}
	return file.IsYaml(event.Name)
}

func (w *Watcher) trigger(ctx context.Context) {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		if err := w.reload(ctx); err != nil {
			w.log.Error(err, "failed to reload policies")
			return
		}
		w.log.V(2).Info("policies reloaded")
	})
}

func (w *Watcher) stop() {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// addRecursive watches every directory under root, a file is watched through its parent directory
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		return errors.Wrapf(watcher.Add(filepath.Dir(root)), "failed to watch %s", root)
	}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := watcher.Add(path); err != nil {
				return errors.Wrapf(err, "failed to watch %s", path)
			}
		}
		return nil
	})
}
