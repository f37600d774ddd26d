package scopefs

import (
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ReadDir reads the named directory and returns its entries sorted by
// filename.
func (fs *FileSystem) ReadDir(name string) ([]os.FileInfo, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	infos, err := f.Readdir(-1)
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
	return infos, nil
}

// Walk walks the subtree rooted at root within the view, calling fn for
// each file or directory in the tree, including root. Paths handed to fn
// are scope-relative. fn may return filepath.SkipDir as usual.
func (fs *FileSystem) Walk(root string, fn filepath.WalkFunc) error {
	// The info returned alongside a failed stat is not safe to interrogate
	// on every base, so fn sees nil info on error and the error verdicts
	// come before any IsDir call.
	info, statErr := fs.Stat(root)
	if statErr != nil {
		info = nil
	}
	err := fn(root, info, statErr)
	if err == filepath.SkipDir {
		return nil
	}
	if err != nil || statErr != nil {
		return err
	}

	if info == nil || !info.IsDir() {
		return nil
	}

	infos, err := fs.ReadDir(root)
	if err != nil {
		return fn(root, info, err)
	}

	for _, child := range infos {
		if err := fs.Walk(path.Join(root, child.Name()), fn); err != nil {
			return err
		}
	}

	return nil
}

// Glob returns the names of everything within the view matching pattern,
// sorted. Patterns use doublestar syntax, so "**" crosses directory
// boundaries. Names are scope-relative without a leading separator.
func (fs *FileSystem) Glob(pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}

	var matches []string
	err := fs.Walk("/", func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(name, "/")
		if rel == "" {
			return nil
		}
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return err
		}
		if ok {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Sub returns an io/fs view of the subtree rooted at dir.
func (fs *FileSystem) Sub(dir string) (iofs.FS, error) {
	return &ioFS{fs: fs.Scope(dir)}, nil
}

// ioFS adapts a view to io/fs. absfs files already satisfy iofs.File, so
// Open hands them through unwrapped.
type ioFS struct {
	fs *FileSystem
}

var _ iofs.ReadDirFS = (*ioFS)(nil)

func (v *ioFS) Open(name string) (iofs.File, error) {
	if !iofs.ValidPath(name) {
		return nil, &iofs.PathError{Op: "open", Path: name, Err: iofs.ErrInvalid}
	}
	return v.fs.Open(name)
}

func (v *ioFS) ReadDir(name string) ([]iofs.DirEntry, error) {
	if !iofs.ValidPath(name) {
		return nil, &iofs.PathError{Op: "readdir", Path: name, Err: iofs.ErrInvalid}
	}
	infos, err := v.fs.ReadDir(name)
	if err != nil {
		return nil, err
	}
	entries := make([]iofs.DirEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, iofs.FileInfoToDirEntry(info))
	}
	return entries, nil
}
