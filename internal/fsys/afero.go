package fsys

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// AferoFS implements [FS] on top of an afero filesystem. With
// afero.NewMemMapFs it gives a throwaway workspace that never touches
// disk.
type AferoFS struct {
	fs afero.Fs
}

// NewAferoFS wraps an afero filesystem.
func NewAferoFS(afs afero.Fs) *AferoFS {
	return &AferoFS{fs: afs}
}

// NewMemFS returns an [AferoFS] backed by a fresh in-memory filesystem.
func NewMemFS() *AferoFS {
	return NewAferoFS(afero.NewMemMapFs())
}

// Mkdir creates a single directory. afero's MemMapFs does not check the
// parent, so the check is done here to keep the [FS] contract.
func (a *AferoFS) Mkdir(path string, perm os.FileMode) error {
	if parent := filepath.Dir(filepath.Clean(path)); !isVolumeRoot(parent) {
		fi, err := a.fs.Stat(parent)
		if err != nil {
			return &os.PathError{Op: "mkdir", Path: path, Err: fs.ErrNotExist}
		}
		if !fi.IsDir() {
			return &os.PathError{Op: "mkdir", Path: path, Err: fs.ErrInvalid}
		}
	}
	return a.fs.Mkdir(path, perm)
}

// MkdirAll delegates to the wrapped filesystem.
func (a *AferoFS) MkdirAll(path string, perm os.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

// WriteFile delegates to [afero.WriteFile].
func (a *AferoFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	return afero.WriteFile(a.fs, name, data, perm)
}

// ReadFile delegates to [afero.ReadFile].
func (a *AferoFS) ReadFile(name string) ([]byte, error) {
	return afero.ReadFile(a.fs, name)
}

// Stat delegates to the wrapped filesystem.
func (a *AferoFS) Stat(name string) (os.FileInfo, error) {
	return a.fs.Stat(name)
}

// ReadDir converts [afero.ReadDir] results to directory entries.
func (a *AferoFS) ReadDir(name string) ([]os.DirEntry, error) {
	infos, err := afero.ReadDir(a.fs, name)
	if err != nil {
		return nil, err
	}
	entries := make([]os.DirEntry, 0, len(infos))
	for _, fi := range infos {
		entries = append(entries, fs.FileInfoToDirEntry(fi))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

// Rename delegates to the wrapped filesystem.
func (a *AferoFS) Rename(oldpath, newpath string) error {
	if _, err := a.fs.Stat(newpath); err == nil {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrExist}
	}
	return a.fs.Rename(oldpath, newpath)
}

// Remove delegates to the wrapped filesystem.
func (a *AferoFS) Remove(name string) error {
	return a.fs.Remove(name)
}

// RemoveAll delegates to the wrapped filesystem.
func (a *AferoFS) RemoveAll(path string) error {
	return a.fs.RemoveAll(path)
}
