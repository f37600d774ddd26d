package scopefs

import (
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/absfs/absfs"
	"github.com/absfs/osfs"
)

var errNilBase = errors.New("base filesystem is nil")

// FileSystem is a view of a base absfs.FileSystem confined to the subtree
// rooted at a fixed directory. Every operation resolves its path arguments
// through Resolve and forwards to the base, so a view can wrap any absfs
// implementation and is itself an absfs.FileSystem.
//
// A locked view clamps ".."-style escapes to its root instead of letting
// them through; see Resolve. The confinement is purely syntactic: symlinks
// inside the subtree may still point outside it.
type FileSystem struct {
	base   absfs.FileSystem
	root   string
	locked bool
	cache  *ReadCache
}

// Ensure views remain drop-in absfs filesystems.
var _ absfs.FileSystem = (*FileSystem)(nil)

// NewFS returns an unlocked view of base rooted at root. An empty root
// scopes the whole of base.
func NewFS(base absfs.FileSystem, root string) (*FileSystem, error) {
	if base == nil {
		return nil, errNilBase
	}
	return &FileSystem{base: base, root: root, cache: defaultCache}, nil
}

// NewLockedFS returns a locked view of base rooted at root.
func NewLockedFS(base absfs.FileSystem, root string) (*FileSystem, error) {
	fs, err := NewFS(base, root)
	if err != nil {
		return nil, err
	}
	fs.locked = true
	return fs, nil
}

// OSRoot returns an unlocked view of the whole host filesystem.
func OSRoot() (*FileSystem, error) {
	base, err := osfs.NewFS()
	if err != nil {
		return nil, err
	}
	return NewFS(base, "")
}

// SetCache replaces the cache used by this view's cached reads. A nil
// cache restores the process-wide default.
func (fs *FileSystem) SetCache(cache *ReadCache) {
	if cache == nil {
		cache = defaultCache
	}
	fs.cache = cache
}

// Cache returns the cache used by this view's cached reads.
func (fs *FileSystem) Cache() *ReadCache { return fs.cache }

// PurgeCache purges this view's cache. The default cache is process-wide,
// so purging one view purges every view sharing it.
func (fs *FileSystem) PurgeCache() { fs.cache.Purge() }

// Root returns the view's root path within the base filesystem.
func (fs *FileSystem) Root() string { return fs.root }

// Locked reports whether the view clamps out-of-root paths.
func (fs *FileSystem) Locked() bool { return fs.locked }

// PathOf resolves name through the view's jailing rule to a base path.
// Collaborators that enumerate directories or apply bulk changes resolve
// their path arguments through PathOf so they observe the same confinement
// as every other operation.
func (fs *FileSystem) PathOf(name string) string {
	return Resolve(fs.root, name, fs.locked)
}

// Scope derives a child view rooted at name, resolved through the parent's
// jailing rule. The child inherits the parent's locked flag and cache.
func (fs *FileSystem) Scope(name string) *FileSystem {
	return fs.ScopeLocked(name, fs.locked)
}

// ScopeLocked derives a child view rooted at name with an explicit locked
// flag overriding the parent's.
func (fs *FileSystem) ScopeLocked(name string, locked bool) *FileSystem {
	return &FileSystem{
		base:   fs.base,
		root:   fs.PathOf(name),
		locked: locked,
		cache:  fs.cache,
	}
}

// TempScope creates a fresh directory under the base's temp directory and
// returns a view rooted there. The child inherits the parent's locked flag
// and cache.
func (fs *FileSystem) TempScope(prefix string) (*FileSystem, error) {
	dir := path.Join(fs.base.TempDir(), fmt.Sprintf("%s%d", prefix, time.Now().UnixNano()))
	if err := fs.base.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &FileSystem{base: fs.base, root: dir, locked: fs.locked, cache: fs.cache}, nil
}

// OpenFile is the generalized open call. It opens the named file with the
// specified flag (O_RDONLY etc.) and perm. The returned file reports the
// scope-relative name it was opened with.
func (fs *FileSystem) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	f, err := fs.base.OpenFile(fs.PathOf(name), flag, perm)
	if err != nil {
		return f, err
	}
	return &File{File: f, name: name}, nil
}

// Open is a convenience function that opens a file in read only mode.
func (fs *FileSystem) Open(name string) (absfs.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

// Create is a convenience function that opens a file for reading and
// writing. If the file does not exist it is created, if it does then it is
// truncated.
func (fs *FileSystem) Create(name string) (absfs.File, error) {
	return fs.OpenFile(name, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0777)
}

// Mkdir creates a directory with the specified name and permission bits.
func (fs *FileSystem) Mkdir(name string, perm os.FileMode) error {
	return fs.base.Mkdir(fs.PathOf(name), perm)
}

// MkdirAll creates the named directory along with any necessary parents.
func (fs *FileSystem) MkdirAll(name string, perm os.FileMode) error {
	return fs.base.MkdirAll(fs.PathOf(name), perm)
}

// Remove removes the named file or (empty) directory.
func (fs *FileSystem) Remove(name string) error {
	return fs.base.Remove(fs.PathOf(name))
}

// RemoveAll removes the named path and any children it contains.
func (fs *FileSystem) RemoveAll(name string) error {
	return fs.base.RemoveAll(fs.PathOf(name))
}

// Truncate changes the size of the named file.
func (fs *FileSystem) Truncate(name string, size int64) error {
	return fs.base.Truncate(fs.PathOf(name), size)
}

// Rename renames (moves) oldpath to newpath. Both paths resolve through
// the view's jailing rule.
func (fs *FileSystem) Rename(oldpath, newpath string) error {
	return fs.base.Rename(fs.PathOf(oldpath), fs.PathOf(newpath))
}

// Stat returns the FileInfo describing the named file.
func (fs *FileSystem) Stat(name string) (os.FileInfo, error) {
	return fs.base.Stat(fs.PathOf(name))
}

// Chmod changes the mode of the named file to mode.
func (fs *FileSystem) Chmod(name string, mode os.FileMode) error {
	return fs.base.Chmod(fs.PathOf(name), mode)
}

// Chown changes the owner and group ids of the named file.
func (fs *FileSystem) Chown(name string, uid, gid int) error {
	return fs.base.Chown(fs.PathOf(name), uid, gid)
}

// Chtimes changes the access and modification times of the named file.
func (fs *FileSystem) Chtimes(name string, atime, mtime time.Time) error {
	return fs.base.Chtimes(fs.PathOf(name), atime, mtime)
}

// Chdir changes the base's current directory to the resolved path.
func (fs *FileSystem) Chdir(dir string) error {
	return fs.base.Chdir(fs.PathOf(dir))
}

// Getwd returns the base's current working directory.
func (fs *FileSystem) Getwd() (string, error) { return fs.base.Getwd() }

// TempDir returns the base's temporary directory.
func (fs *FileSystem) TempDir() string { return fs.base.TempDir() }

// Separator returns the base's path separator.
func (fs *FileSystem) Separator() uint8 { return fs.base.Separator() }

// ListSeparator returns the base's path list separator.
func (fs *FileSystem) ListSeparator() uint8 { return fs.base.ListSeparator() }

// symlinker is the symlink surface of base filesystems that support it.
type symlinker interface {
	Lstat(name string) (os.FileInfo, error)
	Lchown(name string, uid, gid int) error
	Readlink(name string) (string, error)
	Symlink(oldname, newname string) error
}

// Lstat returns the FileInfo describing the named file without following
// symlinks. Bases without symlink support report errors.ErrUnsupported.
func (fs *FileSystem) Lstat(name string) (os.FileInfo, error) {
	sl, ok := fs.base.(symlinker)
	if !ok {
		return nil, &os.PathError{Op: "lstat", Path: name, Err: errors.ErrUnsupported}
	}
	return sl.Lstat(fs.PathOf(name))
}

// Lchown changes the numeric uid and gid of the named file without
// following symlinks.
func (fs *FileSystem) Lchown(name string, uid, gid int) error {
	sl, ok := fs.base.(symlinker)
	if !ok {
		return &os.PathError{Op: "lchown", Path: name, Err: errors.ErrUnsupported}
	}
	return sl.Lchown(fs.PathOf(name), uid, gid)
}

// Readlink returns the destination of the named symbolic link.
func (fs *FileSystem) Readlink(name string) (string, error) {
	sl, ok := fs.base.(symlinker)
	if !ok {
		return "", &os.PathError{Op: "readlink", Path: name, Err: errors.ErrUnsupported}
	}
	return sl.Readlink(fs.PathOf(name))
}

// Symlink creates newname as a symbolic link to oldname. Only the link
// location resolves through the jail; the target is stored as given, so a
// link may point outside the subtree.
func (fs *FileSystem) Symlink(oldname, newname string) error {
	sl, ok := fs.base.(symlinker)
	if !ok {
		return &os.PathError{Op: "symlink", Path: newname, Err: errors.ErrUnsupported}
	}
	return sl.Symlink(oldname, fs.PathOf(newname))
}
