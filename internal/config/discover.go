package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/steveyegge/notedir/internal/fsys"
)

// ErrNoWorkspace is returned when no notedir.toml is found.
var ErrNoWorkspace = errors.New("not in a notedir workspace (no " + FileName + " found)")

// Find walks up from dir looking for notedir.toml and returns the
// directory that holds it.
func Find(fs fsys.FS, dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if fi, err := fs.Stat(filepath.Join(dir, FileName)); err == nil && !fi.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoWorkspace
		}
		dir = parent
	}
}

// Resolve returns the workspace directory. An explicit dir (from
// --workspace) must hold notedir.toml itself; otherwise the search starts
// at cwd.
func Resolve(fs fsys.FS, explicit, cwd string) (string, error) {
	if explicit == "" {
		return Find(fs, cwd)
	}
	p, err := filepath.Abs(explicit)
	if err != nil {
		return "", err
	}
	if fi, err := fs.Stat(filepath.Join(p, FileName)); err != nil || fi.IsDir() {
		return "", fmt.Errorf("not a notedir workspace: %s (no %s found)", p, FileName)
	}
	return p, nil
}

// StatePath joins elem onto the state directory of the workspace at dir.
func StatePath(dir string, elem ...string) string {
	return filepath.Join(append([]string{dir, StateDir}, elem...)...)
}
