package scopefs

import (
	"io"
	"os"

	"github.com/absfs/absfs"
)

// ReadOption configures a ReadFile call.
type ReadOption func(*readConfig)

type readConfig struct {
	encoding string
	cached   bool
}

// Encoded selects an IANA charset name; the file's bytes are decoded to
// UTF-8 before being returned. Without it, ReadFile returns raw bytes.
func Encoded(name string) ReadOption {
	return func(cfg *readConfig) { cfg.encoding = name }
}

// Cached enables or disables the read cache for a single call. Reads are
// uncached unless requested.
func Cached(enabled bool) ReadOption {
	return func(cfg *readConfig) { cfg.cached = enabled }
}

// ReadFile reads the named file and returns its contents. The supported
// shapes are:
//
//	ReadFile(name)                              raw bytes, uncached
//	ReadFile(name, Cached(true))                raw bytes, cached
//	ReadFile(name, Encoded(enc))                decoded, uncached
//	ReadFile(name, Encoded(enc), Cached(true))  decoded, cached
//
// Cached reads share one entry per (resolved path, encoding) pair across
// every view using the same cache. The entry is revalidated against the
// file's modification time on every call and reloaded when it differs;
// concurrent cached reads of the same pair coalesce onto one underlying
// read. The returned buffer is always the caller's own copy.
func (fs *FileSystem) ReadFile(name string, opts ...ReadOption) ([]byte, error) {
	var cfg readConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	p := fs.PathOf(name)
	if cfg.cached {
		return fs.cache.Get(fs.base, p, cfg.encoding)
	}

	data, err := readAll(fs.base, p)
	if err != nil {
		return nil, err
	}
	return decode(data, cfg.encoding)
}

// ReadString is ReadFile returning text.
func (fs *FileSystem) ReadString(name string, opts ...ReadOption) (string, error) {
	data, err := fs.ReadFile(name, opts...)
	return string(data), err
}

// readAll reads the whole of name from fsys.
func readAll(fsys absfs.FileSystem, name string) ([]byte, error) {
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
	return data, nil
}
