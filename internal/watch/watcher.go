// Package watch turns filesystem change notifications for the displayed
// directories into cache invalidations.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kk-code-lab/millr/internal/logging"
)

// DefaultDebounce is how long a directory must stay quiet before it is
// invalidated.
const DefaultDebounce = 200 * time.Millisecond

// Invalidator receives debounced change notifications. It is called from the
// watcher goroutine.
type Invalidator interface {
	Invalidate(path string) bool
}

// Watcher keeps an fsnotify watch on a changing set of directories.
type Watcher struct {
	fsw      *fsnotify.Watcher
	target   Invalidator
	debounce time.Duration

	desired  chan []string
	done     chan struct{}
	finished chan struct{}
	once     sync.Once
	closeErr error

	// onSync runs on the watcher goroutine after a Sync was applied.
	onSync func(watching []string)
}

// New starts a watcher that reports changes to target.
func New(target Invalidator, debounce time.Duration) (*Watcher, error) {
	return newWatcher(target, debounce, nil)
}

func newWatcher(target Invalidator, debounce time.Duration, onSync func([]string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		fsw:      fsw,
		target:   target,
		debounce: debounce,
		desired:  make(chan []string, 1),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		onSync:   onSync,
	}
	go w.run()
	return w, nil
}

// Sync replaces the watched set with paths. It never blocks; when called
// faster than the watcher keeps up, only the latest set is applied.
func (w *Watcher) Sync(paths []string) {
	set := make([]string, len(paths))
	for i, p := range paths {
		set[i] = filepath.Clean(p)
	}

	select {
	case <-w.desired:
	default:
	}
	select {
	case w.desired <- set:
	case <-w.done:
	}
}

// Close stops the watcher and releases its descriptors.
func (w *Watcher) Close() error {
	w.once.Do(func() {
		close(w.done)
		<-w.finished
		w.closeErr = w.fsw.Close()
	})
	return w.closeErr
}

func (w *Watcher) run() {
	defer close(w.finished)

	watching := make(map[string]struct{})
	lastEvent := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case paths := <-w.desired:
			w.apply(watching, paths)
			for dir := range lastEvent {
				if _, ok := watching[dir]; !ok {
					delete(lastEvent, dir)
				}
			}

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Chmod) {
				continue
			}
			changed := filepath.Clean(event.Name)
			if _, ok := watching[filepath.Dir(changed)]; ok {
				lastEvent[filepath.Dir(changed)] = time.Now()
			}
			if _, ok := watching[changed]; ok {
				lastEvent[changed] = time.Now()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warn("watcher error", logging.Err(err))

		case now := <-ticker.C:
			for dir, at := range lastEvent {
				if now.Sub(at) < w.debounce {
					continue
				}
				delete(lastEvent, dir)
				logging.Debug("directory changed", logging.String("path", dir), logging.Duration("quiet", now.Sub(at)))
				w.target.Invalidate(dir)
			}
		}
	}
}

func (w *Watcher) apply(watching map[string]struct{}, paths []string) {
	want := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		want[p] = struct{}{}
	}

	for p := range watching {
		if _, ok := want[p]; ok {
			continue
		}
		if err := w.fsw.Remove(p); err != nil {
			logging.Debug("unwatch failed", logging.String("path", p), logging.Err(err))
		}
		delete(watching, p)
	}

	for p := range want {
		if _, ok := watching[p]; ok {
			continue
		}
		if err := w.fsw.Add(p); err != nil {
			logging.Debug("watch failed", logging.String("path", p), logging.Err(err))
			continue
		}
		watching[p] = struct{}{}
	}

	list := make([]string, 0, len(watching))
	for p := range watching {
		list = append(list, p)
	}
	logging.Debug("watch set updated", logging.Strings("paths", list))
	if w.onSync != nil {
		w.onSync(list)
	}
}
