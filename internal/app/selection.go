package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"

	"github.com/steveyegge/notedir/internal/config"
	"github.com/steveyegge/notedir/internal/events"
	"github.com/steveyegge/notedir/internal/fsal"
	"github.com/steveyegge/notedir/internal/fsys"
	"github.com/steveyegge/notedir/internal/telemetry"
)

// state is the persisted form of .notedir/state.toml.
type state struct {
	Selected string `toml:"selected,omitempty"`
}

func loadSelection(disk fsys.FS, path string) (string, error) {
	data, err := disk.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var st state
	if _, err := toml.Decode(string(data), &st); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	return st.Selected, nil
}

// saveSelection writes path atomically via a temp file and rename.
func saveSelection(disk fsys.FS, path, selected string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(state{Selected: selected}); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := disk.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return disk.Rename(tmp, path)
}

// Select makes the directory at path the current selection and persists
// it. The stored path is the directory's canonical path.
func (a *App) Select(path string) error {
	d, ok := a.fsal.FindDir(path)
	if !ok {
		return fmt.Errorf("selecting %s: %w", path, fsal.ErrNotFound)
	}
	return a.setSelection(d.Path())
}

// ClearSelection forgets the current selection.
func (a *App) ClearSelection() error {
	return a.setSelection("")
}

// setSelection persists path before adopting it, so a failed write leaves
// both the stored and the in-memory selection where they were.
func (a *App) setSelection(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := saveSelection(a.fs, config.StatePath(a.dir, stateFile), path); err != nil {
		return fmt.Errorf("saving selection: %w", err)
	}
	prev := a.selection
	a.selection = path
	a.events.Record(events.Event{
		Type:     events.SelectionChanged,
		Actor:    a.actor,
		Subject:  path,
		Previous: prev,
	})
	telemetry.RecordSelection(context.Background(), path)
	return nil
}

// Selection re-resolves the selected path. It reports false when nothing
// is selected or the directory no longer exists.
func (a *App) Selection() (*fsal.Directory, bool) {
	p := a.SelectedPath()
	if p == "" {
		return nil, false
	}
	return a.fsal.FindDir(p)
}

// SelectedPath returns the stored selection, resolvable or not.
func (a *App) SelectedPath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selection
}
