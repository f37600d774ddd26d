package scopefs

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/absfs/absfs"
)

// ReadCache memoizes whole-file reads keyed by resolved path and encoding.
// Every Get stats the file and serves the cached content only while the
// modification time is unchanged, so a stale entry is never returned after
// the file changes on disk. Concurrent Gets for a key already being loaded
// coalesce onto the in-flight load instead of issuing a second read.
//
// A ReadCache is unbounded until explicitly purged. Keys are resolved
// paths, so views over different base filesystems should not share one
// cache.
type ReadCache struct {
	mu      sync.Mutex
	entries map[string]*readEntry
	flights map[string]*flight
	hits    uint64
	misses  uint64
}

// readEntry is one cached read: the content as loaded (and decoded), plus
// the modification time observed when it was loaded.
type readEntry struct {
	modTime time.Time
	content []byte
}

// flight tracks the one real read in progress for a key. Callers that miss
// while a flight exists block on done and share its outcome; entry and err
// are written before done is closed.
type flight struct {
	done  chan struct{}
	entry *readEntry
	err   error
}

// keySep joins path and encoding into a cache key. NUL cannot appear in
// either part.
const keySep = "\x00"

func readKey(name, encoding string) string {
	return name + keySep + encoding
}

// NewReadCache returns an empty cache.
func NewReadCache() *ReadCache {
	return &ReadCache{
		entries: make(map[string]*readEntry),
		flights: make(map[string]*flight),
	}
}

// defaultCache is shared by every FileSystem that does not inject its own,
// so all views of the same path observe and affect the same entry.
var defaultCache = NewReadCache()

// DefaultCache returns the process-wide cache used by views constructed
// without an explicit cache.
func DefaultCache() *ReadCache { return defaultCache }

// PurgeCache purges the process-wide default cache.
func PurgeCache() { defaultCache.Purge() }

// Get returns the content of name from fsys, decoded per the IANA charset
// name in encoding (empty for raw bytes). The returned buffer is always an
// independent copy; mutating it does not affect the cache or other callers.
//
// A stat failure fails the call with no cache mutation. A read failure is
// delivered to every caller waiting on the same load and is not cached:
// the next Get for the key retries from scratch.
func (c *ReadCache) Get(fsys absfs.FileSystem, name, encoding string) ([]byte, error) {
	if _, err := lookupEncoding(encoding); err != nil {
		return nil, err
	}
	key := readKey(name, encoding)

	info, err := fsys.Stat(name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.modTime.Equal(info.ModTime()) {
		c.hits++
		content := cloneContent(e.content)
		c.mu.Unlock()
		return content, nil
	}
	c.misses++
	if fl, ok := c.flights[key]; ok {
		// A load is already in flight; join it.
		c.mu.Unlock()
		<-fl.done
		if fl.err != nil {
			return nil, fl.err
		}
		return cloneContent(fl.entry.content), nil
	}
	fl := &flight{done: make(chan struct{})}
	c.flights[key] = fl
	c.mu.Unlock()

	entry, err := load(fsys, name, encoding)

	c.mu.Lock()
	if err == nil {
		c.entries[key] = entry
	}
	delete(c.flights, key)
	c.mu.Unlock()

	fl.entry, fl.err = entry, err
	close(fl.done)

	if err != nil {
		return nil, err
	}
	return cloneContent(entry.content), nil
}

// load performs the one real read for a flight: stat, read the whole file,
// decode. The stored modification time is the one observed before reading,
// so a write racing the read at worst leaves an entry that the next Get
// sees as stale.
func load(fsys absfs.FileSystem, name, encoding string) (*readEntry, error) {
	info, err := fsys.Stat(name)
	if err != nil {
		return nil, err
	}
	f, err := fsys.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	data, err = decode(data, encoding)
	if err != nil {
		return nil, err
	}
	Logger().Debug("reload",
		zap.String("path", name),
		zap.String("encoding", encoding),
		zap.Int("bytes", len(data)))
	return &readEntry{modTime: info.ModTime(), content: data}, nil
}

func cloneContent(content []byte) []byte {
	out := make([]byte, len(content))
	copy(out, content)
	return out
}

// Purge removes every entry whose key has no load in flight. Keys being
// reloaded are left alone so their waiters are not starved. Purge never
// fails and is safe to call concurrently with in-flight reads.
func (c *ReadCache) Purge() {
	c.mu.Lock()
	for key := range c.entries {
		if _, loading := c.flights[key]; loading {
			continue
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()
	Logger().Debug("purge")
}

// Invalidate removes the entries for one resolved path across every
// encoding, with the same in-flight exemption as Purge.
func (c *ReadCache) Invalidate(name string) {
	prefix := name + keySep
	c.mu.Lock()
	for key := range c.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if _, loading := c.flights[key]; loading {
			continue
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()
}

// Stats returns cache statistics.
func (c *ReadCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Entries: len(c.entries),
		Loading: len(c.flights),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

// CacheStats contains statistics about cache performance.
type CacheStats struct {
	Entries int    // Current number of cached reads
	Loading int    // Number of loads in flight
	Hits    uint64 // Number of modification-time-valid hits
	Misses  uint64 // Number of misses, stale entries included
}

// HitRate returns the cache hit rate as a percentage.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}
