package fsal

import (
	"path/filepath"
	"time"
)

// Entity is a node of the tree. Values handed out by the FSAL are
// snapshots: they never change, and a later mutation is only visible
// through a fresh Resolve.
type Entity interface {
	// Path is the absolute, cleaned path and the entity's identity.
	Path() string
	// Name is the last path element.
	Name() string
	// ParentPath is the parent directory's path, or "" for a root.
	ParentPath() string
	IsDir() bool
	ModTime() time.Time
}

// Directory is a directory node.
type Directory struct {
	path     string
	parent   string
	children []string
	mod      time.Time
}

func (d *Directory) Path() string       { return d.path }
func (d *Directory) Name() string       { return filepath.Base(d.path) }
func (d *Directory) ParentPath() string { return d.parent }
func (d *Directory) IsDir() bool        { return true }
func (d *Directory) ModTime() time.Time { return d.mod }

// IsRoot reports whether d is a configured workspace root.
func (d *Directory) IsRoot() bool { return d.parent == "" }

// Children returns the paths of d's children in display order.
func (d *Directory) Children() []string {
	out := make([]string, len(d.children))
	copy(out, d.children)
	return out
}

// File is a leaf node.
type File struct {
	path   string
	parent string
	size   int64
	mod    time.Time
}

func (f *File) Path() string       { return f.path }
func (f *File) Name() string       { return filepath.Base(f.path) }
func (f *File) ParentPath() string { return f.parent }
func (f *File) IsDir() bool        { return false }
func (f *File) ModTime() time.Time { return f.mod }

// Size is the file size in bytes at the time the tree saw it.
func (f *File) Size() int64 { return f.size }

var (
	_ Entity = (*Directory)(nil)
	_ Entity = (*File)(nil)
)
