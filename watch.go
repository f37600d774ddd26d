package scopefs

import (
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher invalidates cache entries when the files behind them change on
// the host filesystem. It is advisory: the modification-time check on Get
// remains the source of truth, the watcher only keeps a long-lived cache
// from accumulating entries for files that keep changing or disappearing.
// Paths are watched on the host, so a Watcher is only useful for caches
// over the host filesystem.
type Watcher struct {
	cache *ReadCache
	fw    *fsnotify.Watcher
}

// NewWatcher returns a Watcher invalidating entries of cache, or of the
// process-wide default cache when cache is nil.
func NewWatcher(cache *ReadCache) (*Watcher, error) {
	if cache == nil {
		cache = defaultCache
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{cache: cache, fw: fw}
	go w.run()
	return w, nil
}

// Add registers a resolved path for invalidation.
func (w *Watcher) Add(name string) error { return w.fw.Add(name) }

// Remove stops watching a resolved path.
func (w *Watcher) Remove(name string) error { return w.fw.Remove(name) }

// Close releases the underlying OS watcher and stops the event loop.
func (w *Watcher) Close() error { return w.fw.Close() }

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.cache.Invalidate(ev.Name)
			Logger().Debug("invalidate",
				zap.String("path", ev.Name),
				zap.Stringer("op", ev.Op))
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			Logger().Debug("watch error", zap.Error(err))
		}
	}
}
