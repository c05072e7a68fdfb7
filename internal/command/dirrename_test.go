package command

import (
	"context"
	"errors"
	"testing"

	"github.com/steveyegge/notedir/internal/events"
	"github.com/steveyegge/notedir/internal/fsal"
)

func TestDirRenameMovesSelectionWithIt(t *testing.T) {
	fx := newFixture(t, "/notes/draft", "/notes/draft/ch1")
	fx.app.selected = "/notes/draft/ch1"

	res, err := NewDirRename(fx.app, fx.deps).Execute(context.Background(), DirRenameRequest{Path: "/notes/draft", Name: "Book: v2"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Path != "/notes/Book- v2" || !res.Selected {
		t.Errorf("Result = %+v", res)
	}
	if _, ok := fx.fsal.FindDir("/notes/Book- v2/ch1"); !ok {
		t.Error("child did not move with the rename")
	}
	if fx.app.selected != "/notes/Book- v2/ch1" {
		t.Errorf("selected = %q", fx.app.selected)
	}
	evs := fx.eventsOf(t, events.DirRenamed, "/notes/draft")
	if len(evs) != 1 || evs[0].Previous != "/notes/draft" || evs[0].Subject != "/notes/Book- v2" {
		t.Errorf("rename events = %+v", evs)
	}
}

func TestDirRenameLeavesUnrelatedSelection(t *testing.T) {
	fx := newFixture(t, "/notes/a", "/notes/ab")
	fx.app.selected = "/notes/ab"
	if !NewDirRename(fx.app, fx.deps).Run(context.Background(), DirRenameRequest{Path: "/notes/a", Name: "c"}) {
		t.Fatalf("Run failed: %+v", fx.app.prompts.Calls)
	}
	if fx.app.selects != 0 || fx.app.selected != "/notes/ab" {
		t.Errorf("selection moved to %q", fx.app.selected)
	}
}

func TestDirRenameFailures(t *testing.T) {
	tests := []struct {
		name    string
		req     DirRenameRequest
		wantErr error
		in      State
		message string
	}{
		{"missing", DirRenameRequest{Path: "/notes/nope", Name: "x"}, ErrNoSourceDirectory, Validating, "Could not rename directory"},
		{"empty name", DirRenameRequest{Path: "/notes/a", Name: "  "}, ErrEmptyName, Sanitizing, "Could not rename directory"},
		{"root", DirRenameRequest{Path: "/notes", Name: "x"}, fsal.ErrRoot, Mutating, "Workspace roots cannot be renamed or removed"},
		{"collision", DirRenameRequest{Path: "/notes/a", Name: "b"}, fsal.ErrExists, Mutating, "A file or directory with that name already exists"},
		{"no path", DirRenameRequest{Name: "x"}, ErrInvalidRequest, Validating, "Could not rename directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, "/notes/a", "/notes/b")
			before := fx.paths(t)
			res, err := NewDirRename(fx.app, fx.deps).Execute(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if res.State != Failed || res.FailedIn != tt.in {
				t.Errorf("Result = %+v, want failed in %v", res, tt.in)
			}
			p, ok := fx.app.prompts.Last()
			if !ok || fx.app.prompts.Count() != 1 || p.Title != "Could not rename directory" || p.Message != tt.message {
				t.Errorf("prompts = %+v", fx.app.prompts.Calls)
			}
			if !equal(fx.paths(t), before) {
				t.Error("tree changed")
			}
		})
	}
}
