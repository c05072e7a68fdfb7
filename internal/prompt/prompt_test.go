package prompt

import (
	"bytes"
	"testing"
)

func TestWriter(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"title and message", Options{Type: Error, Title: "Could not create directory", Message: "permission denied"},
			"error: Could not create directory: permission denied\n"},
		{"message equals title", Options{Type: Error, Title: "Could not create directory", Message: "Could not create directory"},
			"error: Could not create directory\n"},
		{"no title", Options{Type: Warning, Message: "journal is behind"}, "warning: journal is behind\n"},
		{"default type", Options{Title: "t", Message: "m"}, "error: t: m\n"},
		{"info", Options{Type: Info, Title: "Created"}, "info: Created\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewWriter(&buf).Prompt(tt.opts)
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestFake(t *testing.T) {
	var f Fake
	if _, ok := f.Last(); ok {
		t.Fatal("Last on empty fake returned ok")
	}
	f.Prompt(Options{Type: Error, Title: "a"})
	f.Prompt(Options{Type: Info, Title: "b"})
	if f.Count() != 2 {
		t.Errorf("Count = %d, want 2", f.Count())
	}
	last, ok := f.Last()
	if !ok || last.Title != "b" {
		t.Errorf("Last = %+v, %v", last, ok)
	}
	Discard.Prompt(Options{Title: "ignored"})
}
