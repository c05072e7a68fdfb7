package app

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/steveyegge/notedir/internal/fsys"
)

// mirror copies each path (a directory tree or a single file) from src
// to dst. Missing paths are skipped.
func mirror(src, dst fsys.FS, paths []string) error {
	for _, p := range paths {
		fi, err := src.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		if err := dst.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := copyEntry(src, dst, p, fi.IsDir()); err != nil {
			return err
		}
	}
	return nil
}

func copyEntry(src, dst fsys.FS, p string, dir bool) error {
	if !dir {
		data, err := src.ReadFile(p)
		if err != nil {
			return err
		}
		return dst.WriteFile(p, data, 0o644)
	}
	if err := dst.MkdirAll(p, 0o755); err != nil {
		return err
	}
	entries, err := src.ReadDir(p)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := copyEntry(src, dst, filepath.Join(p, e.Name()), e.IsDir()); err != nil {
			return err
		}
	}
	return nil
}
