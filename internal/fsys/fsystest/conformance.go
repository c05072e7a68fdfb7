// Package fsystest provides a conformance test suite for fsys.FS
// implementations. Each implementation's test file calls RunFSTests with its
// own factory function.
package fsystest

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/steveyegge/notedir/internal/fsys"
)

// RunFSTests runs the core conformance suite. newFS must return a fresh
// filesystem and an existing, empty directory to work under.
func RunFSTests(t *testing.T, newFS func(t *testing.T) (fsys.FS, string)) {
	t.Helper()

	t.Run("MkdirCreatesSingleDirectory", func(t *testing.T) {
		f, root := newFS(t)
		dir := filepath.Join(root, "notes")
		if err := f.Mkdir(dir, 0o755); err != nil {
			t.Fatalf("Mkdir: %v", err)
		}
		fi, err := f.Stat(dir)
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if !fi.IsDir() {
			t.Error("IsDir() = false, want true")
		}
	})

	t.Run("MkdirExisting", func(t *testing.T) {
		f, root := newFS(t)
		dir := filepath.Join(root, "notes")
		if err := f.Mkdir(dir, 0o755); err != nil {
			t.Fatalf("Mkdir: %v", err)
		}
		err := f.Mkdir(dir, 0o755)
		if !errors.Is(err, fs.ErrExist) {
			t.Errorf("second Mkdir = %v, want fs.ErrExist", err)
		}
	})

	t.Run("MkdirMissingParent", func(t *testing.T) {
		f, root := newFS(t)
		err := f.Mkdir(filepath.Join(root, "a", "b"), 0o755)
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Mkdir without parent = %v, want fs.ErrNotExist", err)
		}
	})

	t.Run("MkdirAllCreatesParents", func(t *testing.T) {
		f, root := newFS(t)
		if err := f.MkdirAll(filepath.Join(root, "a", "b", "c"), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		for _, p := range []string{"a", "a/b", "a/b/c"} {
			if _, err := f.Stat(filepath.Join(root, filepath.FromSlash(p))); err != nil {
				t.Errorf("Stat(%s): %v", p, err)
			}
		}
	})

	t.Run("WriteReadFile", func(t *testing.T) {
		f, root := newFS(t)
		name := filepath.Join(root, "note.md")
		if err := f.WriteFile(name, []byte("# hello"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		got, err := f.ReadFile(name)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if string(got) != "# hello" {
			t.Errorf("ReadFile = %q, want %q", got, "# hello")
		}
	})

	t.Run("StatMissing", func(t *testing.T) {
		f, root := newFS(t)
		_, err := f.Stat(filepath.Join(root, "nope"))
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Stat missing = %v, want fs.ErrNotExist", err)
		}
	})

	t.Run("ReadDirSorted", func(t *testing.T) {
		f, root := newFS(t)
		for _, d := range []string{"beta", "alpha"} {
			if err := f.Mkdir(filepath.Join(root, d), 0o755); err != nil {
				t.Fatalf("Mkdir(%s): %v", d, err)
			}
		}
		if err := f.WriteFile(filepath.Join(root, "gamma.md"), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		entries, err := f.ReadDir(root)
		if err != nil {
			t.Fatalf("ReadDir: %v", err)
		}
		want := []struct {
			name  string
			isDir bool
		}{{"alpha", true}, {"beta", true}, {"gamma.md", false}}
		if len(entries) != len(want) {
			t.Fatalf("got %d entries, want %d", len(entries), len(want))
		}
		for i, w := range want {
			if entries[i].Name() != w.name || entries[i].IsDir() != w.isDir {
				t.Errorf("entry[%d] = %s (dir=%v), want %s (dir=%v)",
					i, entries[i].Name(), entries[i].IsDir(), w.name, w.isDir)
			}
		}
	})

	t.Run("RenameEmptyDirectory", func(t *testing.T) {
		f, root := newFS(t)
		from, to := filepath.Join(root, "old"), filepath.Join(root, "new")
		if err := f.Mkdir(from, 0o755); err != nil {
			t.Fatalf("Mkdir: %v", err)
		}
		if err := f.Rename(from, to); err != nil {
			t.Fatalf("Rename: %v", err)
		}
		if _, err := f.Stat(from); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Stat(old) = %v, want fs.ErrNotExist", err)
		}
		if _, err := f.Stat(to); err != nil {
			t.Errorf("Stat(new): %v", err)
		}
	})

	t.Run("RemoveEmptyDirectory", func(t *testing.T) {
		f, root := newFS(t)
		dir := filepath.Join(root, "gone")
		if err := f.Mkdir(dir, 0o755); err != nil {
			t.Fatalf("Mkdir: %v", err)
		}
		if err := f.Remove(dir); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if _, err := f.Stat(dir); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Stat after Remove = %v, want fs.ErrNotExist", err)
		}
	})

	t.Run("RemoveAllSubtree", func(t *testing.T) {
		f, root := newFS(t)
		dir := filepath.Join(root, "tree")
		if err := f.MkdirAll(filepath.Join(dir, "a", "b"), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := f.WriteFile(filepath.Join(dir, "a", "n.md"), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if err := f.RemoveAll(dir); err != nil {
			t.Fatalf("RemoveAll: %v", err)
		}
		if _, err := f.Stat(filepath.Join(dir, "a", "b")); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Stat(nested) = %v, want fs.ErrNotExist", err)
		}
	})

	t.Run("RemoveAllMissing", func(t *testing.T) {
		f, root := newFS(t)
		if err := f.RemoveAll(filepath.Join(root, "never")); err != nil {
			t.Errorf("RemoveAll(missing) = %v, want nil", err)
		}
	})
}

// RunSubtreeTests covers directory moves and non-empty removal. Not every
// afero backend moves children on Rename, so only OS-like implementations
// run these.
func RunSubtreeTests(t *testing.T, newFS func(t *testing.T) (fsys.FS, string)) {
	t.Helper()

	t.Run("RenameMovesChildren", func(t *testing.T) {
		f, root := newFS(t)
		from, to := filepath.Join(root, "old"), filepath.Join(root, "new")
		if err := f.MkdirAll(filepath.Join(from, "sub"), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := f.WriteFile(filepath.Join(from, "sub", "n.md"), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if err := f.Rename(from, to); err != nil {
			t.Fatalf("Rename: %v", err)
		}
		if _, err := f.Stat(filepath.Join(to, "sub", "n.md")); err != nil {
			t.Errorf("Stat(moved file): %v", err)
		}
		if _, err := f.Stat(filepath.Join(from, "sub")); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Stat(old child) = %v, want fs.ErrNotExist", err)
		}
	})

	t.Run("RemoveNonEmptyFails", func(t *testing.T) {
		f, root := newFS(t)
		dir := filepath.Join(root, "full")
		if err := f.MkdirAll(filepath.Join(dir, "child"), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := f.Remove(dir); err == nil {
			t.Error("Remove(non-empty) = nil, want error")
		}
		if _, err := f.Stat(filepath.Join(dir, "child")); err != nil {
			t.Errorf("child vanished after failed Remove: %v", err)
		}
	})
}
