package events

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Compile-time interface checks.
var (
	_ Provider = (*FileRecorder)(nil)
	_ Provider = (*Fake)(nil)
	_ Provider = FailFake{}
)

func newTestRecorder(t *testing.T) (*FileRecorder, string, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".notedir", "events.jsonl")
	var stderr bytes.Buffer
	rec, err := NewFileRecorder(path, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rec.Close() }) //nolint:errcheck // test cleanup
	return rec, path, &stderr
}

func TestFileRecorderWritesEvent(t *testing.T) {
	rec, path, stderr := newTestRecorder(t)

	rec.Record(Event{
		Type:    DirCreated,
		Actor:   "human",
		Subject: "/ws/notes/My Ideas",
	})

	if stderr.Len() > 0 {
		t.Errorf("unexpected stderr: %q", stderr.String())
	}
	events, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.Seq != 1 {
		t.Errorf("Seq = %d, want 1", e.Seq)
	}
	if e.Subject != "/ws/notes/My Ideas" {
		t.Errorf("Subject = %q, want %q", e.Subject, "/ws/notes/My Ideas")
	}
	if e.Ts.IsZero() {
		t.Error("Ts should be auto-filled, got zero")
	}
}

func TestFileRecorderOmitsEmptyPrevious(t *testing.T) {
	rec, path, _ := newTestRecorder(t)
	rec.Record(Event{Type: DirCreated, Actor: "human", Subject: "/ws/notes/a"})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(data, []byte(`"previous"`)) {
		t.Errorf("empty Previous should be omitted from JSON, got: %s", data)
	}
}

func TestFileRecorderResumesSeq(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	var stderr bytes.Buffer

	rec1, err := NewFileRecorder(path, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	rec1.Record(Event{Type: DirCreated, Actor: "human"})
	rec1.Record(Event{Type: DirCreated, Actor: "human"})
	rec1.Close() //nolint:errcheck // test cleanup

	rec2, err := NewFileRecorder(path, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	defer rec2.Close() //nolint:errcheck // test cleanup
	rec2.Record(Event{Type: DirRemoved, Actor: "human"})

	events, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[2].Seq != 3 {
		t.Errorf("resumed Seq = %d, want 3", events[2].Seq)
	}
}

func TestFileRecorderRecordAfterClose(t *testing.T) {
	rec, path, stderr := newTestRecorder(t)
	rec.Close() //nolint:errcheck // test

	rec.Record(Event{Type: DirCreated, Actor: "human"})

	if stderr.Len() == 0 {
		t.Error("expected a stderr diagnostic for record after close")
	}
	events, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events after close, want 0", len(events))
	}
}

func TestFileRecorderWatchSeesOtherWriter(t *testing.T) {
	rec, path, _ := newTestRecorder(t)

	// A second recorder on the same journal stands in for another nd process.
	var stderr bytes.Buffer
	other, err := NewFileRecorder(path, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close() //nolint:errcheck // test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	w, err := rec.Watch(ctx, 0)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close() //nolint:errcheck // test cleanup

	go func() {
		time.Sleep(50 * time.Millisecond)
		other.Record(Event{Type: DirCreated, Actor: "sync", Subject: "/ws/notes/x"})
	}()

	e, err := w.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if e.Subject != "/ws/notes/x" {
		t.Errorf("Subject = %q, want %q", e.Subject, "/ws/notes/x")
	}
}

func TestFileRecorderWatchReturnsErrClosed(t *testing.T) {
	rec, _, _ := newTestRecorder(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	w, err := rec.Watch(ctx, 0)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close() //nolint:errcheck // test cleanup

	go func() {
		time.Sleep(50 * time.Millisecond)
		rec.Close() //nolint:errcheck // test
	}()
	if _, err := w.Next(); !errors.Is(err, ErrClosed) {
		t.Errorf("Next after Close = %v, want ErrClosed", err)
	}
}

func TestFakeWatchReturnsErrClosed(t *testing.T) {
	f := NewFake()
	w, err := f.Watch(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		f.Close() //nolint:errcheck // test
	}()
	if _, err := w.Next(); !errors.Is(err, ErrClosed) {
		t.Errorf("Next after Close = %v, want ErrClosed", err)
	}
}

func TestFakeTypes(t *testing.T) {
	f := NewFake()
	f.Record(Event{Type: TreeLoaded})
	f.Record(Event{Type: DirCreated})
	got := f.Types()
	if len(got) != 2 || got[0] != TreeLoaded || got[1] != DirCreated {
		t.Errorf("Types() = %v", got)
	}
}

func TestFailFakeErrors(t *testing.T) {
	f := NewFailFake()
	if _, err := f.List(Filter{}); err == nil {
		t.Error("List: expected error, got nil")
	}
	if _, err := f.LatestSeq(); err == nil {
		t.Error("LatestSeq: expected error, got nil")
	}
	if _, err := f.Watch(context.Background(), 0); err == nil {
		t.Error("Watch: expected error, got nil")
	}
}

func TestDiscardDoesNothing(_ *testing.T) {
	Discard.Record(Event{Type: DirCreated, Actor: "human"})
}

func TestFilterMatch(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := Event{Seq: 5, Type: DirRenamed, Actor: "human", Ts: ts, Subject: "/ws/notes/b", Previous: "/ws/notes/a"}
	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"zero", Filter{}, true},
		{"type", Filter{Type: DirRenamed}, true},
		{"other type", Filter{Type: DirCreated}, false},
		{"actor", Filter{Actor: "sync"}, false},
		{"subject exact", Filter{Subject: "/ws/notes/b"}, true},
		{"subject ancestor", Filter{Subject: "/ws/notes"}, true},
		{"previous path", Filter{Subject: "/ws/notes/a"}, true},
		{"sibling prefix", Filter{Subject: "/ws/notes/b2"}, false},
		{"after seq", Filter{AfterSeq: 5}, false},
		{"since before", Filter{Since: ts.Add(-time.Minute)}, true},
		{"since after", Filter{Since: ts.Add(time.Minute)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(e); got != tt.want {
				t.Errorf("Match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadAllMissing(t *testing.T) {
	events, err := ReadAll(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err != nil {
		t.Fatalf("ReadAll(missing) error: %v", err)
	}
	if events != nil {
		t.Errorf("ReadAll(missing) = %v, want nil", events)
	}
}

func TestReadAllSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	data := "{\"seq\":1,\"type\":\"dir.created\"}\nnot json\n{\"seq\":2,\"type\":\"dir.removed\"}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	events, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	seq, err := ReadLatestSeq(path)
	if err != nil {
		t.Fatal(err)
	}
	if seq != 2 {
		t.Errorf("ReadLatestSeq = %d, want 2", seq)
	}
}

func TestReadFromLeavesPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	full := "{\"seq\":1,\"type\":\"dir.created\"}\n"
	if err := os.WriteFile(path, []byte(full+"{\"seq\":2,"), 0o644); err != nil {
		t.Fatal(err)
	}

	evts, off, err := ReadFrom(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(evts) != 1 || evts[0].Seq != 1 {
		t.Fatalf("ReadFrom = %+v, want seq 1 only", evts)
	}
	if off != int64(len(full)) {
		t.Errorf("offset = %d, want %d", off, len(full))
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("\"type\":\"dir.removed\"}\n"); err != nil {
		t.Fatal(err)
	}
	f.Close() //nolint:errcheck // test

	evts, _, err = ReadFrom(path, off)
	if err != nil {
		t.Fatal(err)
	}
	if len(evts) != 1 || evts[0].Seq != 2 {
		t.Errorf("ReadFrom after completion = %+v, want seq 2", evts)
	}
}

func TestReadFromMissingFile(t *testing.T) {
	evts, off, err := ReadFrom(filepath.Join(t.TempDir(), "nope.jsonl"), 7)
	if err != nil {
		t.Fatal(err)
	}
	if evts != nil || off != 7 {
		t.Errorf("ReadFrom(missing) = %v, %d; want nil, 7", evts, off)
	}
}

func TestReadOnlyDropsRecord(t *testing.T) {
	f := NewFake()
	f.Record(Event{Type: DirCreated, Subject: "/notes/a"})
	ro := ReadOnly(f)
	ro.Record(Event{Type: DirRemoved, Subject: "/notes/a"})

	evs, err := ro.List(Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 1 || evs[0].Type != DirCreated {
		t.Errorf("events = %+v, want only the write through the underlying provider", evs)
	}
	if seq, _ := ro.LatestSeq(); seq != 1 {
		t.Errorf("LatestSeq = %d, want 1", seq)
	}
}
