package scopefs

import "github.com/absfs/absfs"

// File wraps a file opened through a view so that Name reports the
// scope-relative name it was opened with rather than the resolved base
// path. All other methods delegate to the base file.
type File struct {
	absfs.File
	name string
}

// Name returns the name of the file as presented to OpenFile.
func (f *File) Name() string {
	return f.name
}
