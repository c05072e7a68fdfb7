// Package docgen generates the notedir.toml JSON Schema and the markdown
// references (config and CLI) checked in under docs/.
package docgen

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const generatedNote = "> Generated by `go run ./cmd/genschema`. Do not edit.\n\n"

// ModuleRoot walks up from the working directory to the directory
// holding go.mod.
func ModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent of %s", dir)
		}
		dir = parent
	}
}

// writeAtomic renders into a temp file next to path and renames it into
// place.
func writeAtomic(path string, render func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".docgen-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	name := tmp.Name()
	if err := render(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("renaming %s: %w", path, err)
	}
	return nil
}

// printer is an io.Writer wrapper that keeps the first write error so
// renderers can print unconditionally and check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}
