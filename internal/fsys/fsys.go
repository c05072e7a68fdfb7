// Package fsys defines the disk layer underneath the FSAL.
//
// Production code uses [OSFS] which delegates to the os package. Tests use
// [Fake], an in-memory filesystem with spy capabilities and error
// injection. [AferoFS] adapts any afero filesystem, which is how the
// in-memory "--memfs" workspaces are backed.
package fsys

import (
	"os"
)

// FS abstracts the filesystem operations used by the FSAL, the config
// loader and the selection store. Paths are OS paths.
type FS interface {
	// Mkdir creates a single directory. It fails with an error matching
	// fs.ErrExist if the path exists and fs.ErrNotExist if the parent is
	// missing. It never creates parents.
	Mkdir(path string, perm os.FileMode) error

	// MkdirAll creates a directory path and all parents that do not exist.
	MkdirAll(path string, perm os.FileMode) error

	// WriteFile writes data to the named file, creating it if necessary.
	WriteFile(name string, data []byte, perm os.FileMode) error

	// ReadFile reads the named file.
	ReadFile(name string) ([]byte, error)

	// Stat returns file info for the named file.
	Stat(name string) (os.FileInfo, error)

	// ReadDir reads the named directory and returns its entries sorted by
	// name.
	ReadDir(name string) ([]os.DirEntry, error)

	// Rename moves oldpath to newpath. Directories move with their contents.
	Rename(oldpath, newpath string) error

	// Remove removes a file or an empty directory.
	Remove(name string) error

	// RemoveAll removes path and any children it contains.
	RemoveAll(path string) error
}

// OSFS implements [FS] by delegating to the os package.
type OSFS struct{}

// Mkdir delegates to [os.Mkdir].
func (OSFS) Mkdir(path string, perm os.FileMode) error {
	return os.Mkdir(path, perm)
}

// MkdirAll delegates to [os.MkdirAll].
func (OSFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// WriteFile delegates to [os.WriteFile].
func (OSFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// ReadFile delegates to [os.ReadFile].
func (OSFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// Stat delegates to [os.Stat].
func (OSFS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// ReadDir delegates to [os.ReadDir].
func (OSFS) ReadDir(name string) ([]os.DirEntry, error) {
	return os.ReadDir(name)
}

// Rename delegates to [os.Rename].
func (OSFS) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// Remove delegates to [os.Remove].
func (OSFS) Remove(name string) error {
	return os.Remove(name)
}

// RemoveAll delegates to [os.RemoveAll].
func (OSFS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}
