package doctor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/steveyegge/notedir/internal/app"
	"github.com/steveyegge/notedir/internal/config"
	"github.com/steveyegge/notedir/internal/events"
	"github.com/steveyegge/notedir/internal/fsal"
)

// --- Workspace checks ---

// WorkspaceStructureCheck verifies notedir.toml and .notedir/ exist.
type WorkspaceStructureCheck struct{}

// Name returns the check identifier.
func (c *WorkspaceStructureCheck) Name() string { return "workspace-structure" }

// Run checks that the workspace directory has the expected layout.
func (c *WorkspaceStructureCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	if _, err := ctx.fs().Stat(filepath.Join(ctx.WorkspacePath, config.FileName)); err != nil {
		r.Status = StatusError
		r.Message = config.FileName + " missing"
		r.FixHint = "run nd init"
		return r
	}
	if fi, err := ctx.fs().Stat(config.StatePath(ctx.WorkspacePath)); err != nil || !fi.IsDir() {
		r.Status = StatusWarning
		r.Message = config.StateDir + "/ directory missing"
		return r
	}
	r.Status = StatusOK
	r.Message = config.FileName + " and " + config.StateDir + "/ present"
	return r
}

// CanFix returns true. A missing state directory can be recreated; a
// missing notedir.toml cannot.
func (c *WorkspaceStructureCheck) CanFix() bool { return true }

// Fix creates the state directory.
func (c *WorkspaceStructureCheck) Fix(ctx *CheckContext) error {
	if _, err := ctx.fs().Stat(filepath.Join(ctx.WorkspacePath, config.FileName)); err != nil {
		return err
	}
	return ctx.fs().MkdirAll(config.StatePath(ctx.WorkspacePath), 0o755)
}

// WorkspaceConfigCheck verifies notedir.toml parses and validates. Keys
// the schema does not know are reported as a warning.
type WorkspaceConfigCheck struct{}

// Name returns the check identifier.
func (c *WorkspaceConfigCheck) Name() string { return "workspace-config" }

// Run loads and validates notedir.toml.
func (c *WorkspaceConfigCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	cfg, err := config.Load(ctx.fs(), filepath.Join(ctx.WorkspacePath, config.FileName))
	if err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("%s parse error: %v", config.FileName, err)
		return r
	}
	if err := cfg.Validate(); err != nil {
		r.Status = StatusError
		r.Message = "invalid " + config.FileName
		r.Details = joined(err)
		return r
	}
	if unknown := cfg.Unknown(); len(unknown) > 0 {
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("%d unknown key(s) ignored", len(unknown))
		r.Details = unknown
		return r
	}
	r.Status = StatusOK
	r.Message = fmt.Sprintf("%s loaded (workspace %q, %d roots)", config.FileName, cfg.Workspace.Name, len(cfg.Workspace.Roots))
	return r
}

// CanFix returns false.
func (c *WorkspaceConfigCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *WorkspaceConfigCheck) Fix(_ *CheckContext) error { return nil }

// joined splits an errors.Join result into one line per error.
func joined(err error) []string {
	var multi interface{ Unwrap() []error }
	if errors.As(err, &multi) {
		var out []string
		for _, e := range multi.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

// RootsExistCheck verifies every configured root is a directory.
type RootsExistCheck struct {
	cfg *config.Config
}

// NewRootsExistCheck creates a check for the roots of cfg.
func NewRootsExistCheck(cfg *config.Config) *RootsExistCheck {
	return &RootsExistCheck{cfg: cfg}
}

// Name returns the check identifier.
func (c *RootsExistCheck) Name() string { return "roots-exist" }

// Run stats each root.
func (c *RootsExistCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	missing, notDir := c.scan(ctx)
	for _, p := range missing {
		r.Details = append(r.Details, "missing: "+p)
	}
	for _, p := range notDir {
		r.Details = append(r.Details, "not a directory: "+p)
	}
	if len(r.Details) > 0 {
		r.Status = StatusError
		r.Message = fmt.Sprintf("%d of %d roots unusable", len(missing)+len(notDir), len(c.cfg.Workspace.Roots))
		if len(notDir) > 0 {
			r.FixHint = "move the file out of the way or edit workspace.roots"
		}
		return r
	}
	r.Status = StatusOK
	r.Message = fmt.Sprintf("%d roots present", len(c.cfg.Workspace.Roots))
	return r
}

func (c *RootsExistCheck) scan(ctx *CheckContext) (missing, notDir []string) {
	for _, p := range c.cfg.RootPaths(ctx.WorkspacePath) {
		fi, err := ctx.fs().Stat(p)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			missing = append(missing, p)
		case err != nil:
			notDir = append(notDir, p)
		case !fi.IsDir():
			notDir = append(notDir, p)
		}
	}
	return missing, notDir
}

// CanFix returns true. Missing roots are created; files in the way are
// left alone.
func (c *RootsExistCheck) CanFix() bool { return true }

// Fix creates missing roots.
func (c *RootsExistCheck) Fix(ctx *CheckContext) error {
	missing, _ := c.scan(ctx)
	for _, p := range missing {
		if err := ctx.fs().MkdirAll(p, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// --- Tree checks ---

// Verifier compares an in-memory tree with the disk. *fsal.FSAL
// implements it.
type Verifier interface {
	Verify(ctx context.Context) ([]fsal.Drift, error)
}

// TreeConsistencyCheck reports drift between the loaded tree and a fresh
// scan of the disk.
type TreeConsistencyCheck struct {
	v Verifier
}

// NewTreeConsistencyCheck creates a check over v.
func NewTreeConsistencyCheck(v Verifier) *TreeConsistencyCheck {
	return &TreeConsistencyCheck{v: v}
}

// Name returns the check identifier.
func (c *TreeConsistencyCheck) Name() string { return "tree-consistency" }

// Run rescans the disk.
func (c *TreeConsistencyCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	drift, err := c.v.Verify(ctx.ctx())
	if err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("scan failed: %v", err)
		return r
	}
	if len(drift) > 0 {
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("%d path(s) changed on disk during the run", len(drift))
		for _, d := range drift {
			r.Details = append(r.Details, d.String())
		}
		return r
	}
	r.Status = StatusOK
	r.Message = "tree matches disk"
	return r
}

// CanFix returns false.
func (c *TreeConsistencyCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *TreeConsistencyCheck) Fix(_ *CheckContext) error { return nil }

// EventJournalCheck verifies .notedir/events.jsonl parses and its sequence
// numbers strictly increase.
type EventJournalCheck struct{}

// Name returns the check identifier.
func (c *EventJournalCheck) Name() string { return "event-journal" }

// Run reads the whole journal.
func (c *EventJournalCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	data, err := ctx.fs().ReadFile(app.JournalPath(ctx.WorkspacePath))
	if errors.Is(err, fs.ErrNotExist) {
		r.Status = StatusOK
		r.Message = "no journal yet"
		return r
	}
	if err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("events.jsonl unreadable: %v", err)
		return r
	}

	var (
		n, bad, outOfOrder int
		last               uint64
		unknown            []string
	)
	for i, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var e events.Event
		if err := json.Unmarshal(line, &e); err != nil {
			bad++
			r.Details = append(r.Details, fmt.Sprintf("line %d: %v", i+1, err))
			continue
		}
		n++
		if e.Seq <= last {
			outOfOrder++
			r.Details = append(r.Details, fmt.Sprintf("line %d: seq %d after %d", i+1, e.Seq, last))
		}
		last = max(last, e.Seq)
		if !slices.Contains(events.KnownTypes, e.Type) && !slices.Contains(unknown, e.Type) {
			unknown = append(unknown, e.Type)
			r.Details = append(r.Details, fmt.Sprintf("line %d: unknown type %q", i+1, e.Type))
		}
	}
	switch {
	case outOfOrder > 0:
		r.Status = StatusError
		r.Message = fmt.Sprintf("%d event(s) out of sequence", outOfOrder)
		r.FixHint = "move events.jsonl aside; a new journal starts on the next run"
	case bad > 0:
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("%d malformed line(s) skipped", bad)
	case len(unknown) > 0:
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("%d unknown event type(s)", len(unknown))
	default:
		r.Status = StatusOK
		r.Message = fmt.Sprintf("%d events, latest seq %d", n, last)
	}
	return r
}

// CanFix returns false.
func (c *EventJournalCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *EventJournalCheck) Fix(_ *CheckContext) error { return nil }

// Selector is the persisted selection. *app.App implements it.
type Selector interface {
	SelectedPath() string
	Selection() (*fsal.Directory, bool)
	ClearSelection() error
}

// SelectionCheck verifies the persisted selection still resolves.
type SelectionCheck struct {
	s Selector
}

// NewSelectionCheck creates a check over s.
func NewSelectionCheck(s Selector) *SelectionCheck {
	return &SelectionCheck{s: s}
}

// Name returns the check identifier.
func (c *SelectionCheck) Name() string { return "selection" }

// Run resolves the selected path.
func (c *SelectionCheck) Run(_ *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	p := c.s.SelectedPath()
	if p == "" {
		r.Status = StatusOK
		r.Message = "nothing selected"
		return r
	}
	if _, ok := c.s.Selection(); !ok {
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("selected directory %s no longer exists", p)
		return r
	}
	r.Status = StatusOK
	r.Message = "selected " + p
	return r
}

// CanFix returns true.
func (c *SelectionCheck) CanFix() bool { return true }

// Fix clears the stale selection.
func (c *SelectionCheck) Fix(_ *CheckContext) error { return c.s.ClearSelection() }

// --- Lock check (informational) ---

// LockCheck reports whether another nd process holds the workspace lock.
// A held lock is normal while a mutation runs, so it never fails.
type LockCheck struct{}

// Name returns the check identifier.
func (c *LockCheck) Name() string { return "lock" }

// Run probes the lock.
func (c *LockCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name(), Status: StatusOK}
	if app.IsLocked(ctx.WorkspacePath) {
		r.Message = "held by another nd process"
		return r
	}
	r.Message = "free"
	return r
}

// CanFix returns false.
func (c *LockCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *LockCheck) Fix(_ *CheckContext) error { return nil }
