package command

import (
	"context"
	"errors"
	"testing"

	"github.com/steveyegge/notedir/internal/events"
	"github.com/steveyegge/notedir/internal/fsal"
)

func TestDirDeleteSelectedMovesToParent(t *testing.T) {
	fx := newFixture(t, "/notes/a", "/notes/a/b", "/notes/a/b/c")
	fx.app.selected = "/notes/a/b/c"

	res, err := NewDirDelete(fx.app, fx.deps).Execute(context.Background(), DirDeleteRequest{Path: "/notes/a/b"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Path != "/notes/a/b" || !res.Selected {
		t.Errorf("Result = %+v", res)
	}
	if fx.app.selected != "/notes/a" {
		t.Errorf("selected = %q, want /notes/a", fx.app.selected)
	}
	for _, p := range []string{"/notes/a/b", "/notes/a/b/c"} {
		if _, ok := fx.fsal.Resolve(p); ok {
			t.Errorf("%s still resolves", p)
		}
	}
	if got := fx.eventsOf(t, events.DirRemoved, "/notes/a/b"); len(got) != 1 {
		t.Errorf("dir.removed events = %d, want 1", len(got))
	}
}

func TestDirDeleteUnrelatedSelectionStays(t *testing.T) {
	fx := newFixture(t, "/notes/a", "/notes/b")
	fx.app.selected = "/notes/b"
	if !NewDirDelete(fx.app, fx.deps).Run(context.Background(), DirDeleteRequest{Path: "/notes/a"}) {
		t.Fatal("Run failed")
	}
	if fx.app.selects != 0 || fx.app.selected != "/notes/b" {
		t.Errorf("selection = %q after %d selects", fx.app.selected, fx.app.selects)
	}
}

func TestDirDeleteFailures(t *testing.T) {
	tests := []struct {
		name    string
		req     DirDeleteRequest
		wantErr error
		message string
	}{
		{"missing", DirDeleteRequest{Path: "/notes/nope"}, ErrNoSourceDirectory, "Could not remove directory"},
		{"root", DirDeleteRequest{Path: "/notes"}, fsal.ErrRoot, "Workspace roots cannot be renamed or removed"},
		{"no path", DirDeleteRequest{}, ErrInvalidRequest, "Could not remove directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, "/notes/a")
			fx.app.selected = "/notes/a"
			_, err := NewDirDelete(fx.app, fx.deps).Execute(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			p, _ := fx.app.prompts.Last()
			if fx.app.prompts.Count() != 1 || p.Message != tt.message {
				t.Errorf("prompts = %+v", fx.app.prompts.Calls)
			}
			if fx.app.selects != 0 {
				t.Error("selection changed on failure")
			}
		})
	}
}
