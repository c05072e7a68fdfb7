package command

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/steveyegge/notedir/internal/events"
	"github.com/steveyegge/notedir/internal/fsal"
	"github.com/steveyegge/notedir/internal/fsys"
	"github.com/steveyegge/notedir/internal/i18n"
	"github.com/steveyegge/notedir/internal/prompt"
	"github.com/steveyegge/notedir/internal/sanitize"
)

// spyFS counts mutation calls on a real FSAL.
type spyFS struct {
	fsal.FileSystem
	mu      sync.Mutex
	creates int
	renames int
	removes int
}

func (s *spyFS) CreateDirectory(ctx context.Context, parent *fsal.Directory, name sanitize.Name) (*fsal.Directory, error) {
	s.mu.Lock()
	s.creates++
	s.mu.Unlock()
	return s.FileSystem.CreateDirectory(ctx, parent, name)
}

func (s *spyFS) RenameDirectory(ctx context.Context, dir *fsal.Directory, name sanitize.Name) (*fsal.Directory, error) {
	s.mu.Lock()
	s.renames++
	s.mu.Unlock()
	return s.FileSystem.RenameDirectory(ctx, dir, name)
}

func (s *spyFS) RemoveDirectory(ctx context.Context, dir *fsal.Directory) error {
	s.mu.Lock()
	s.removes++
	s.mu.Unlock()
	return s.FileSystem.RemoveDirectory(ctx, dir)
}

func (s *spyFS) mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates + s.renames + s.removes
}

// fakeApp is an application context over a real FSAL on a fake disk.
type fakeApp struct {
	fs        fsal.FileSystem
	prompts   prompt.Fake
	selected  string
	selects   int
	selectErr error
	finds     int
}

func (a *fakeApp) FindDir(p string) (*fsal.Directory, bool) {
	a.finds++
	return a.fs.FindDir(p)
}

func (a *fakeApp) FileSystem() fsal.FileSystem { return a.fs }

func (a *fakeApp) Prompt(o prompt.Options) { a.prompts.Prompt(o) }

func (a *fakeApp) Select(p string) error {
	a.selects++
	if a.selectErr != nil {
		return a.selectErr
	}
	a.selected = p
	return nil
}

func (a *fakeApp) Selection() (*fsal.Directory, bool) {
	if a.selected == "" {
		return nil, false
	}
	return a.fs.FindDir(a.selected)
}

// spySanitizer counts calls to a real policy.
type spySanitizer struct {
	calls int
	p     sanitize.Policy
}

func (s *spySanitizer) Sanitize(raw string) sanitize.Name {
	s.calls++
	return s.p.Sanitize(raw)
}

type fixture struct {
	disk  *fsys.Fake
	ev    *events.Fake
	fsal  *fsal.FSAL
	spy   *spyFS
	app   *fakeApp
	san   *spySanitizer
	logs  *observer.ObservedLogs
	deps  Deps
	trans i18n.Translator
}

// newFixture opens an FSAL on a fake disk holding the root /notes plus
// the given directories.
func newFixture(t *testing.T, dirs ...string) *fixture {
	t.Helper()
	disk := fsys.NewFake()
	disk.Dirs["/notes"] = true
	for _, d := range dirs {
		disk.Dirs[d] = true
	}
	ev := events.NewFake()
	f, err := fsal.Open(context.Background(), disk, ev, fsal.Options{Roots: []string{"/notes"}})
	if err != nil {
		t.Fatalf("fsal.Open: %v", err)
	}
	core, logs := observer.New(zapcore.DebugLevel)
	trans, err := i18n.New("en")
	if err != nil {
		t.Fatal(err)
	}
	fx := &fixture{
		disk:  disk,
		ev:    ev,
		fsal:  f,
		spy:   &spyFS{FileSystem: f},
		san:   &spySanitizer{p: sanitize.DefaultPolicy()},
		logs:  logs,
		trans: trans,
	}
	fx.app = &fakeApp{fs: fx.spy}
	fx.deps = Deps{
		Translator: trans,
		Logger:     zap.New(core),
		Sanitizer:  fx.san,
		NewID:      func() string { return "req-1" },
	}
	return fx
}

// paths lists every path in the tree.
func (fx *fixture) paths(t *testing.T) []string {
	t.Helper()
	var out []string
	if err := fx.fsal.Walk("/notes", func(e fsal.Entity) error {
		out = append(out, e.Path())
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	sort.Strings(out)
	return out
}

func (fx *fixture) eventsOf(t *testing.T, typ, subject string) []events.Event {
	t.Helper()
	evs, err := fx.ev.List(events.Filter{Type: typ, Subject: subject})
	if err != nil {
		t.Fatal(err)
	}
	return evs
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func strp(s string) *string { return &s }

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		Validating: "validating", Sanitizing: "sanitizing", Mutating: "mutating",
		Finalizing: "finalizing", Done: "done", Failed: "failed", State(42): "State(42)",
	} {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

func TestUnder(t *testing.T) {
	tests := []struct {
		p, root string
		want    bool
	}{
		{"/notes/a", "/notes/a", true},
		{"/notes/a/b", "/notes/a", true},
		{"/notes/ab", "/notes/a", false},
		{"/notes", "/notes/a", false},
	}
	for _, tt := range tests {
		if got := under(tt.p, tt.root); got != tt.want {
			t.Errorf("under(%q, %q) = %v, want %v", tt.p, tt.root, got, tt.want)
		}
	}
}

func TestDepsDefaults(t *testing.T) {
	d := Deps{}.withDefaults()
	if d.Translator == nil || d.Logger == nil || d.Sanitizer == nil || d.NewID == nil {
		t.Fatalf("withDefaults left a nil field: %+v", d)
	}
	if got := d.Sanitizer.Sanitize("a/b"); got != "a-b" {
		t.Errorf("default sanitizer: %q", got)
	}
	if d.NewID() == d.NewID() {
		t.Error("default request IDs repeat")
	}
	if got := d.Translator.Trans(keyDefaultDirName); got != "New directory" {
		t.Errorf("default translator: %q", got)
	}
}

func TestFailureLogCarriesRequestID(t *testing.T) {
	fx := newFixture(t)
	c := NewDirNew(fx.app, fx.deps)
	if c.Run(context.Background(), DirNewRequest{SourcePath: "/missing", Name: strp("x")}) {
		t.Fatal("Run = true for a missing source")
	}
	entries := fx.logs.FilterLevelExact(zapcore.ErrorLevel).All()
	if len(entries) != 1 {
		t.Fatalf("error entries = %d, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["request_id"] != "req-1" || ctx["command"] != "dir-new" || ctx["state"] != "validating" {
		t.Errorf("log context = %v", ctx)
	}
	if msg, _ := ctx["error"].(string); !strings.Contains(msg, ErrNoSourceDirectory.Error()) {
		t.Errorf("log error field = %v", ctx["error"])
	}
}
