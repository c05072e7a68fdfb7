package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/steveyegge/notedir/internal/config"
	"github.com/steveyegge/notedir/internal/events"
	"github.com/steveyegge/notedir/internal/fsal"
	"github.com/steveyegge/notedir/internal/fsys"
)

const ws = "/ws"

const validToml = `[workspace]
name = "journal"
roots = ["notes", "archive"]
`

// setupWorkspace returns a fake disk holding a complete workspace.
func setupWorkspace(t *testing.T, tomlContent string) (*fsys.Fake, *CheckContext) {
	t.Helper()
	disk := fsys.NewFake()
	disk.Dirs[ws] = true
	disk.Dirs[filepath.Join(ws, config.StateDir)] = true
	disk.Dirs[filepath.Join(ws, "notes")] = true
	disk.Dirs[filepath.Join(ws, "archive")] = true
	disk.Files[filepath.Join(ws, config.FileName)] = []byte(tomlContent)
	return disk, &CheckContext{WorkspacePath: ws, FS: disk}
}

func mustParse(t *testing.T, s string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

// --- workspace-structure ---

func TestWorkspaceStructureCheck_OK(t *testing.T) {
	_, ctx := setupWorkspace(t, validToml)
	r := (&WorkspaceStructureCheck{}).Run(ctx)
	if r.Status != StatusOK {
		t.Errorf("status = %d, want OK; msg = %s", r.Status, r.Message)
	}
}

func TestWorkspaceStructureCheck_MissingToml(t *testing.T) {
	disk, ctx := setupWorkspace(t, validToml)
	delete(disk.Files, filepath.Join(ws, config.FileName))
	c := &WorkspaceStructureCheck{}
	r := c.Run(ctx)
	if r.Status != StatusError {
		t.Errorf("status = %d, want Error", r.Status)
	}
	if r.FixHint == "" {
		t.Error("missing fix hint")
	}
	if err := c.Fix(ctx); err == nil {
		t.Error("Fix succeeded without notedir.toml")
	}
}

func TestWorkspaceStructureCheck_FixStateDir(t *testing.T) {
	disk, ctx := setupWorkspace(t, validToml)
	delete(disk.Dirs, filepath.Join(ws, config.StateDir))
	c := &WorkspaceStructureCheck{}
	if r := c.Run(ctx); r.Status != StatusWarning {
		t.Fatalf("status = %d, want Warning", r.Status)
	}
	if err := c.Fix(ctx); err != nil {
		t.Fatal(err)
	}
	if !disk.Dirs[filepath.Join(ws, config.StateDir)] {
		t.Error("Fix did not create the state directory")
	}
	if r := c.Run(ctx); r.Status != StatusOK {
		t.Errorf("status after fix = %d", r.Status)
	}
}

// --- workspace-config ---

func TestWorkspaceConfigCheck_OK(t *testing.T) {
	_, ctx := setupWorkspace(t, validToml)
	r := (&WorkspaceConfigCheck{}).Run(ctx)
	if r.Status != StatusOK {
		t.Fatalf("status = %d, want OK; msg = %s", r.Status, r.Message)
	}
	if !strings.Contains(r.Message, "2 roots") {
		t.Errorf("message = %q", r.Message)
	}
}

func TestWorkspaceConfigCheck_ParseError(t *testing.T) {
	_, ctx := setupWorkspace(t, "[workspace\n")
	r := (&WorkspaceConfigCheck{}).Run(ctx)
	if r.Status != StatusError || !strings.Contains(r.Message, "parse error") {
		t.Errorf("result = %+v", r)
	}
}

func TestWorkspaceConfigCheck_Invalid(t *testing.T) {
	_, ctx := setupWorkspace(t, "[workspace]\nroots = [\"../out\"]\n")
	r := (&WorkspaceConfigCheck{}).Run(ctx)
	if r.Status != StatusError {
		t.Fatalf("status = %d, want Error", r.Status)
	}
	if len(r.Details) < 2 {
		t.Errorf("details = %q, want one line per problem", r.Details)
	}
}

func TestWorkspaceConfigCheck_UnknownKeys(t *testing.T) {
	_, ctx := setupWorkspace(t, validToml+"colour = \"blue\"\n")
	r := (&WorkspaceConfigCheck{}).Run(ctx)
	if r.Status != StatusWarning {
		t.Fatalf("status = %d, want Warning", r.Status)
	}
	if len(r.Details) != 1 || r.Details[0] != "workspace.colour" {
		t.Errorf("details = %q", r.Details)
	}
}

// --- roots-exist ---

func TestRootsExistCheck_OK(t *testing.T) {
	_, ctx := setupWorkspace(t, validToml)
	r := NewRootsExistCheck(mustParse(t, validToml)).Run(ctx)
	if r.Status != StatusOK {
		t.Errorf("status = %d; details = %q", r.Status, r.Details)
	}
}

func TestRootsExistCheck_MissingFixed(t *testing.T) {
	disk, ctx := setupWorkspace(t, validToml)
	archive := filepath.Join(ws, "archive")
	delete(disk.Dirs, archive)

	c := NewRootsExistCheck(mustParse(t, validToml))
	r := c.Run(ctx)
	if r.Status != StatusError {
		t.Fatalf("status = %d, want Error", r.Status)
	}
	if len(r.Details) != 1 || r.Details[0] != "missing: "+archive {
		t.Errorf("details = %q", r.Details)
	}

	var buf strings.Builder
	d := &Doctor{}
	d.Register(c)
	rep := d.Run(ctx, &buf, true)
	if rep.Fixed != 1 || !disk.Dirs[archive] {
		t.Errorf("report = %+v, archive created = %v", rep, disk.Dirs[archive])
	}
}

func TestRootsExistCheck_FileInTheWay(t *testing.T) {
	disk, ctx := setupWorkspace(t, validToml)
	notes := filepath.Join(ws, "notes")
	delete(disk.Dirs, notes)
	disk.Files[notes] = []byte("oops")

	c := NewRootsExistCheck(mustParse(t, validToml))
	if err := c.Fix(ctx); err != nil {
		t.Fatal(err)
	}
	r := c.Run(ctx)
	if r.Status != StatusError || r.FixHint == "" {
		t.Errorf("result = %+v", r)
	}
	if disk.Dirs[notes] {
		t.Error("Fix replaced a file with a directory")
	}
}

// --- tree-consistency ---

func TestTreeConsistencyCheck(t *testing.T) {
	disk := fsys.NewFake()
	disk.Dirs["/notes"] = true
	disk.Dirs["/notes/a"] = true
	f, err := fsal.Open(context.Background(), disk, events.NewFake(), fsal.Options{Roots: []string{"/notes"}})
	if err != nil {
		t.Fatal(err)
	}
	c := NewTreeConsistencyCheck(f)
	if r := c.Run(&CheckContext{}); r.Status != StatusOK {
		t.Fatalf("status = %d; msg = %s", r.Status, r.Message)
	}

	delete(disk.Dirs, "/notes/a")
	disk.Dirs["/notes/b"] = true
	r := c.Run(&CheckContext{})
	if r.Status != StatusWarning {
		t.Fatalf("status = %d, want Warning", r.Status)
	}
	want := []string{"missing-on-disk: /notes/a", "missing-in-tree: /notes/b"}
	if strings.Join(r.Details, "|") != strings.Join(want, "|") {
		t.Errorf("details = %q, want %q", r.Details, want)
	}
}

type failVerifier struct{}

func (failVerifier) Verify(context.Context) ([]fsal.Drift, error) {
	return nil, errors.New("disk gone")
}

func TestTreeConsistencyCheck_ScanError(t *testing.T) {
	r := NewTreeConsistencyCheck(failVerifier{}).Run(&CheckContext{})
	if r.Status != StatusError || !strings.Contains(r.Message, "disk gone") {
		t.Errorf("result = %+v", r)
	}
}

// --- event-journal ---

func journal(lines ...string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

func TestEventJournalCheck(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		status CheckStatus
		msg    string
	}{
		{"missing", nil, StatusOK, "no journal yet"},
		{"ok", journal(
			`{"seq":1,"type":"tree.loaded","actor":"human"}`,
			`{"seq":2,"type":"dir.created","actor":"human","subject":"/notes/a"}`,
		), StatusOK, "2 events, latest seq 2"},
		{"out of order", journal(
			`{"seq":2,"type":"tree.loaded"}`,
			`{"seq":2,"type":"dir.created"}`,
		), StatusError, "1 event(s) out of sequence"},
		{"malformed", journal(
			`{"seq":1,"type":"tree.loaded"}`,
			`{"seq":2,"typ`,
		), StatusWarning, "1 malformed line(s) skipped"},
		{"unknown type", journal(
			`{"seq":1,"type":"bead.created"}`,
			`{"seq":2,"type":"bead.created"}`,
		), StatusWarning, "1 unknown event type(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disk, ctx := setupWorkspace(t, validToml)
			if tt.data != nil {
				disk.Files[filepath.Join(ws, config.StateDir, "events.jsonl")] = tt.data
			}
			r := (&EventJournalCheck{}).Run(ctx)
			if r.Status != tt.status || r.Message != tt.msg {
				t.Errorf("got (%d, %q), want (%d, %q)", r.Status, r.Message, tt.status, tt.msg)
			}
		})
	}
}

func TestEventJournalCheck_Unreadable(t *testing.T) {
	disk, ctx := setupWorkspace(t, validToml)
	disk.Errors[filepath.Join(ws, config.StateDir, "events.jsonl")] = os.ErrPermission
	if r := (&EventJournalCheck{}).Run(ctx); r.Status != StatusError {
		t.Errorf("status = %d, want Error", r.Status)
	}
}

// --- selection ---

type fakeSelector struct {
	path     string
	resolves bool
	clearErr error
}

func (s *fakeSelector) SelectedPath() string { return s.path }

func (s *fakeSelector) Selection() (*fsal.Directory, bool) {
	if s.path == "" || !s.resolves {
		return nil, false
	}
	return &fsal.Directory{}, true
}

func (s *fakeSelector) ClearSelection() error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.path = ""
	return nil
}

func TestSelectionCheck(t *testing.T) {
	tests := []struct {
		name   string
		sel    *fakeSelector
		status CheckStatus
	}{
		{"nothing selected", &fakeSelector{}, StatusOK},
		{"resolves", &fakeSelector{path: "/notes/a", resolves: true}, StatusOK},
		{"stale", &fakeSelector{path: "/notes/gone"}, StatusWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r := NewSelectionCheck(tt.sel).Run(&CheckContext{}); r.Status != tt.status {
				t.Errorf("status = %d, want %d (%s)", r.Status, tt.status, r.Message)
			}
		})
	}
}

func TestSelectionCheck_Fix(t *testing.T) {
	sel := &fakeSelector{path: "/notes/gone"}
	d := &Doctor{}
	d.Register(NewSelectionCheck(sel))
	var buf strings.Builder
	r := d.Run(&CheckContext{}, &buf, true)
	if r.Fixed != 1 || sel.path != "" {
		t.Errorf("report = %+v, selection = %q", r, sel.path)
	}
	if !strings.Contains(buf.String(), "(fixed)") {
		t.Errorf("output = %q", buf.String())
	}
}

// --- lock ---

func TestLockCheck_Free(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, config.StateDir), 0o755); err != nil {
		t.Fatal(err)
	}
	r := (&LockCheck{}).Run(&CheckContext{WorkspacePath: dir})
	if r.Status != StatusOK || r.Message != "free" {
		t.Errorf("result = %+v", r)
	}
}
