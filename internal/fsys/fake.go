package fsys

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotEmpty is returned by [Fake.Remove] for a directory with children.
var ErrNotEmpty = errors.New("directory not empty")

// Fake is an in-memory [FS] for testing. It records all calls (spy) and
// simulates filesystem state (fake). Pre-populate Dirs, Files, and Errors
// before calling methods. Paths are cleaned before lookup, so keys must be
// clean paths. Safe for concurrent use.
type Fake struct {
	mu     sync.Mutex
	Dirs   map[string]bool   // pre-populated directories
	Files  map[string][]byte // pre-populated files
	Errors map[string]error  // path → injected error (checked first)
	Calls  []Call            // spy log
}

// Call records a single method invocation on [Fake].
type Call struct {
	Method string // "Mkdir", "MkdirAll", "WriteFile", "ReadFile", "Stat", "ReadDir", "Rename", "Remove", or "RemoveAll"
	Path   string // path argument
}

// NewFake returns a ready-to-use [Fake] with empty maps.
func NewFake() *Fake {
	return &Fake{
		Dirs:   make(map[string]bool),
		Files:  make(map[string][]byte),
		Errors: make(map[string]error),
	}
}

// CallCount returns how many times method was invoked.
func (f *Fake) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *Fake) record(method, path string) error {
	f.Calls = append(f.Calls, Call{Method: method, Path: path})
	if err, ok := f.Errors[path]; ok {
		return err
	}
	return nil
}

// isVolumeRoot reports whether p is "/" (or a volume root) or ".".
func isVolumeRoot(p string) bool {
	return p == "." || filepath.Dir(p) == p
}

func (f *Fake) exists(p string) bool {
	if f.Dirs[p] {
		return true
	}
	_, ok := f.Files[p]
	return ok
}

// Mkdir records the call and adds a single directory. The parent must
// already exist in Dirs (or be the volume root).
func (f *Fake) Mkdir(path string, _ os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Mkdir", path); err != nil {
		return err
	}
	p := filepath.Clean(path)
	if f.exists(p) {
		return &os.PathError{Op: "mkdir", Path: path, Err: fs.ErrExist}
	}
	if parent := filepath.Dir(p); !isVolumeRoot(parent) && !f.Dirs[parent] {
		return &os.PathError{Op: "mkdir", Path: path, Err: fs.ErrNotExist}
	}
	f.Dirs[p] = true
	return nil
}

// MkdirAll records the call and adds the directory (and parents) to Dirs.
func (f *Fake) MkdirAll(path string, _ os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("MkdirAll", path); err != nil {
		return err
	}
	// Record this directory and all parents.
	for p := filepath.Clean(path); !isVolumeRoot(p); p = filepath.Dir(p) {
		f.Dirs[p] = true
	}
	return nil
}

// WriteFile records the call and stores the data in Files.
func (f *Fake) WriteFile(name string, data []byte, _ os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("WriteFile", name); err != nil {
		return err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.Files[filepath.Clean(name)] = cp
	return nil
}

// ReadFile records the call and returns the file contents from Files.
func (f *Fake) ReadFile(name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ReadFile", name); err != nil {
		return nil, err
	}
	if data, ok := f.Files[filepath.Clean(name)]; ok {
		cp := make([]byte, len(data))
		copy(cp, data)
		return cp, nil
	}
	return nil, &os.PathError{Op: "read", Path: name, Err: os.ErrNotExist}
}

// Stat records the call and returns info based on Dirs/Files maps.
func (f *Fake) Stat(name string) (os.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Stat", name); err != nil {
		return nil, err
	}
	p := filepath.Clean(name)
	if f.Dirs[p] {
		return fakeFileInfo{name: filepath.Base(p), dir: true}, nil
	}
	if data, ok := f.Files[p]; ok {
		return fakeFileInfo{name: filepath.Base(p), size: int64(len(data))}, nil
	}
	return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
}

// ReadDir records the call and returns entries from direct children.
func (f *Fake) ReadDir(name string) ([]os.DirEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ReadDir", name); err != nil {
		return nil, err
	}

	name = filepath.Clean(name)
	seen := make(map[string]bool)
	var entries []os.DirEntry

	// Collect direct child directories.
	for d := range f.Dirs {
		if filepath.Dir(d) == name && d != name {
			base := filepath.Base(d)
			if !seen[base] {
				seen[base] = true
				entries = append(entries, fakeDirEntry{name: base, dir: true})
			}
		}
	}
	// Collect direct child files.
	for p, data := range f.Files {
		if filepath.Dir(p) == name {
			base := filepath.Base(p)
			if !seen[base] {
				seen[base] = true
				entries = append(entries, fakeDirEntry{name: base, size: int64(len(data))})
			}
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

// Rename records the call and moves a file, or a directory together with
// everything below it.
func (f *Fake) Rename(oldpath, newpath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Rename", oldpath); err != nil {
		return err
	}
	from, to := filepath.Clean(oldpath), filepath.Clean(newpath)
	if data, ok := f.Files[from]; ok {
		f.Files[to] = data
		delete(f.Files, from)
		return nil
	}
	if !f.Dirs[from] {
		return &os.PathError{Op: "rename", Path: oldpath, Err: os.ErrNotExist}
	}
	if f.exists(to) {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fs.ErrExist}
	}
	prefix := from + string(filepath.Separator)
	for d := range f.Dirs {
		if d == from || strings.HasPrefix(d, prefix) {
			delete(f.Dirs, d)
			f.Dirs[to+strings.TrimPrefix(d, from)] = true
		}
	}
	for p, data := range f.Files {
		if strings.HasPrefix(p, prefix) {
			delete(f.Files, p)
			f.Files[to+strings.TrimPrefix(p, from)] = data
		}
	}
	return nil
}

// Remove records the call and removes a file or an empty directory.
func (f *Fake) Remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Remove", name); err != nil {
		return err
	}
	p := filepath.Clean(name)
	if _, ok := f.Files[p]; ok {
		delete(f.Files, p)
		return nil
	}
	if !f.Dirs[p] {
		return &os.PathError{Op: "remove", Path: name, Err: os.ErrNotExist}
	}
	prefix := p + string(filepath.Separator)
	for d := range f.Dirs {
		if strings.HasPrefix(d, prefix) {
			return &os.PathError{Op: "remove", Path: name, Err: ErrNotEmpty}
		}
	}
	for fp := range f.Files {
		if strings.HasPrefix(fp, prefix) {
			return &os.PathError{Op: "remove", Path: name, Err: ErrNotEmpty}
		}
	}
	delete(f.Dirs, p)
	return nil
}

// RemoveAll records the call and removes path and everything below it.
// A missing path is not an error.
func (f *Fake) RemoveAll(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RemoveAll", path); err != nil {
		return err
	}
	p := filepath.Clean(path)
	prefix := p + string(filepath.Separator)
	for d := range f.Dirs {
		if d == p || strings.HasPrefix(d, prefix) {
			delete(f.Dirs, d)
		}
	}
	for fp := range f.Files {
		if fp == p || strings.HasPrefix(fp, prefix) {
			delete(f.Files, fp)
		}
	}
	return nil
}

// --- fake os.FileInfo ---

type fakeFileInfo struct {
	name string
	size int64
	dir  bool
}

func (fi fakeFileInfo) Name() string { return fi.name }
func (fi fakeFileInfo) Size() int64  { return fi.size }
func (fi fakeFileInfo) Mode() os.FileMode {
	if fi.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}
func (fi fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (fi fakeFileInfo) IsDir() bool        { return fi.dir }
func (fi fakeFileInfo) Sys() any           { return nil }

// --- fake os.DirEntry ---

type fakeDirEntry struct {
	name string
	size int64
	dir  bool
}

func (de fakeDirEntry) Name() string { return de.name }
func (de fakeDirEntry) IsDir() bool  { return de.dir }
func (de fakeDirEntry) Type() fs.FileMode {
	if de.dir {
		return fs.ModeDir
	}
	return 0
}
func (de fakeDirEntry) Info() (fs.FileInfo, error) {
	return fakeFileInfo(de), nil
}

var (
	_ FS = (*Fake)(nil)
	_ FS = OSFS{}
	_ FS = (*AferoFS)(nil)
)

// Ensure fakeFileInfo implements os.FileInfo at compile time.
var _ os.FileInfo = fakeFileInfo{}

// Ensure fakeDirEntry implements os.DirEntry at compile time.
var _ os.DirEntry = fakeDirEntry{}
