package scopefs

import (
	"os"
	"path"

	"golang.org/x/sync/errgroup"
)

// applyWorkers bounds the number of concurrent changes ApplyDiff applies.
const applyWorkers = 8

// WriteFile writes data to the named file, creating it with perm if it
// does not exist and truncating it otherwise. Parent directories are
// created as needed.
func (fs *FileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if dir := path.Dir(name); dir != "." && dir != "/" {
		if err := fs.MkdirAll(dir, 0777); err != nil {
			return err
		}
	}
	f, err := fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// ApplyDiff applies a path to content mapping to the view: a non-nil value
// is written to its path and a nil value removes the path, tolerating
// paths that are already gone. Every path resolves through the view's
// jailing rule. Changes are applied concurrently; on error the first
// failure is returned and the remaining changes may or may not have been
// applied.
func (fs *FileSystem) ApplyDiff(changes map[string][]byte) error {
	var eg errgroup.Group
	eg.SetLimit(applyWorkers)
	for name, content := range changes {
		eg.Go(func() error {
			if content == nil {
				if err := fs.Remove(name); err != nil && !os.IsNotExist(err) {
					return err
				}
				return nil
			}
			return fs.WriteFile(name, content, 0666)
		})
	}
	return eg.Wait()
}
