// Package eventstest provides a conformance test suite for events.Provider
// implementations. Each implementation's test file calls RunProviderTests
// with its own factory function.
package eventstest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/steveyegge/notedir/internal/events"
)

// session is the journal of a short editing session: two directories are
// created, the outer one renamed, selected, then emptied.
var session = []events.Event{
	{Type: events.TreeLoaded, Actor: "nd", Subject: "/ws/notes"},
	{Type: events.DirCreated, Actor: "human", Subject: "/ws/notes/ideas"},
	{Type: events.DirCreated, Actor: "human", Subject: "/ws/notes/ideas/draft"},
	{Type: events.DirRenamed, Actor: "human", Subject: "/ws/notes/thoughts", Previous: "/ws/notes/ideas"},
	{Type: events.SelectionChanged, Actor: "human", Subject: "/ws/notes/thoughts"},
	{Type: events.DirRemoved, Actor: "sync", Subject: "/ws/notes/thoughts/draft"},
	{Type: events.SelectionChanged, Actor: "human", Subject: "/ws/notes", Previous: "/ws/notes/thoughts"},
}

func record(p events.Provider, evs ...events.Event) {
	for _, e := range evs {
		p.Record(e)
	}
}

func list(t *testing.T, p events.Provider, f events.Filter) []events.Event {
	t.Helper()
	got, err := p.List(f)
	if err != nil {
		t.Fatalf("List(%+v): %v", f, err)
	}
	return got
}

func subjects(evs []events.Event) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Type + " " + e.Subject
	}
	return out
}

func sameStrings(a, b []string) bool {
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

func watch(t *testing.T, p events.Provider, after uint64) events.Watcher {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	w, err := p.Watch(ctx, after)
	if err != nil {
		t.Fatalf("Watch(%d): %v", after, err)
	}
	t.Cleanup(func() { w.Close() }) //nolint:errcheck // test cleanup
	return w
}

// RunProviderTests runs the core conformance suite against a Provider implementation.
// The newProvider function must return a fresh, empty provider and a cleanup closure.
func RunProviderTests(t *testing.T, newProvider func(t *testing.T) (events.Provider, func())) {
	t.Helper()

	t.Run("EmptyJournal", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		if got := list(t, p, events.Filter{}); len(got) != 0 {
			t.Errorf("List on empty journal = %+v", got)
		}
		seq, err := p.LatestSeq()
		if err != nil || seq != 0 {
			t.Errorf("LatestSeq on empty journal = %d, %v; want 0, nil", seq, err)
		}
	})

	t.Run("RecordKeepsFieldsAndFillsSeqAndTs", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		record(p, session...)
		got := list(t, p, events.Filter{})
		if len(got) != len(session) {
			t.Fatalf("List returned %d events, want %d", len(got), len(session))
		}
		var prev uint64
		for i, e := range got {
			want := session[i]
			if e.Type != want.Type || e.Actor != want.Actor || e.Subject != want.Subject || e.Previous != want.Previous {
				t.Errorf("event %d = %+v, want fields of %+v", i, e, want)
			}
			if e.Seq <= prev {
				t.Errorf("event %d Seq = %d after %d, want increasing", i, e.Seq, prev)
			}
			prev = e.Seq
			if e.Ts.IsZero() || time.Since(e.Ts).Abs() > 5*time.Second {
				t.Errorf("event %d Ts = %v, want about now", i, e.Ts)
			}
		}
		seq, err := p.LatestSeq()
		if err != nil || seq != prev {
			t.Errorf("LatestSeq = %d, %v; want %d", seq, err, prev)
		}
	})

	t.Run("RecordKeepsExplicitTimestampAndMessage", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
		p.Record(events.Event{Type: events.DirCreated, Actor: "human", Subject: "/ws/notes/Jörg", Message: "created Jörg", Ts: at})

		got := list(t, p, events.Filter{})
		if len(got) != 1 {
			t.Fatalf("List returned %d events, want 1", len(got))
		}
		if !got[0].Ts.Equal(at) {
			t.Errorf("Ts = %v, want %v", got[0].Ts, at)
		}
		if got[0].Subject != "/ws/notes/Jörg" || got[0].Message != "created Jörg" {
			t.Errorf("Subject, Message = %q, %q", got[0].Subject, got[0].Message)
		}
	})

	t.Run("ListFilters", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		record(p, session...)
		all := list(t, p, events.Filter{})
		if len(all) != len(session) {
			t.Fatalf("List returned %d events, want %d", len(all), len(session))
		}
		renameSeq := all[3].Seq

		tests := []struct {
			name   string
			filter events.Filter
			want   []string
		}{
			{"type", events.Filter{Type: events.DirCreated}, []string{
				"dir.created /ws/notes/ideas",
				"dir.created /ws/notes/ideas/draft",
			}},
			{"actor", events.Filter{Actor: "sync"}, []string{
				"dir.removed /ws/notes/thoughts/draft",
			}},
			{"subject after rename", events.Filter{Subject: "/ws/notes/thoughts"}, []string{
				"dir.renamed /ws/notes/thoughts",
				"selection.changed /ws/notes/thoughts",
				"dir.removed /ws/notes/thoughts/draft",
				"selection.changed /ws/notes",
			}},
			{"subject before rename", events.Filter{Subject: "/ws/notes/ideas"}, []string{
				"dir.created /ws/notes/ideas",
				"dir.created /ws/notes/ideas/draft",
				"dir.renamed /ws/notes/thoughts",
			}},
			{"subject is not a prefix match", events.Filter{Subject: "/ws/notes/idea"}, nil},
			{"subject with trailing separator", events.Filter{Subject: "/ws/notes/thoughts/draft/"}, []string{
				"dir.removed /ws/notes/thoughts/draft",
			}},
			{"after rename", events.Filter{AfterSeq: renameSeq}, []string{
				"selection.changed /ws/notes/thoughts",
				"dir.removed /ws/notes/thoughts/draft",
				"selection.changed /ws/notes",
			}},
			{"type and subject", events.Filter{Type: events.SelectionChanged, Subject: "/ws/notes/thoughts"}, []string{
				"selection.changed /ws/notes/thoughts",
				"selection.changed /ws/notes",
			}},
			{"type and after", events.Filter{Type: events.DirCreated, AfterSeq: renameSeq}, nil},
			{"no match", events.Filter{Actor: "nobody"}, nil},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got := subjects(list(t, p, tt.filter))
				if !sameStrings(got, tt.want) {
					t.Errorf("List(%+v) = %q, want %q", tt.filter, got, tt.want)
				}
			})
		}
	})

	t.Run("ListSince", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		p.Record(events.Event{Type: events.DirCreated, Actor: "human", Subject: "/ws/notes/old", Ts: time.Now().Add(-2 * time.Hour)})
		p.Record(events.Event{Type: events.DirCreated, Actor: "human", Subject: "/ws/notes/new"})

		got := subjects(list(t, p, events.Filter{Since: time.Now().Add(-time.Hour)}))
		if want := []string{"dir.created /ws/notes/new"}; !sameStrings(got, want) {
			t.Errorf("List(Since) = %q, want %q", got, want)
		}
	})

	t.Run("SelectionChainLinksPrevious", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		prev := ""
		for _, path := range []string{"/ws/notes", "/ws/notes/a", "", "/ws/notes/b"} {
			p.Record(events.Event{Type: events.SelectionChanged, Actor: "human", Subject: path, Previous: prev})
			prev = path
		}
		got := list(t, p, events.Filter{Type: events.SelectionChanged})
		if len(got) != 4 {
			t.Fatalf("selection events = %d, want 4", len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i].Previous != got[i-1].Subject {
				t.Errorf("event %d Previous = %q, want %q", i, got[i].Previous, got[i-1].Subject)
			}
		}
		if got[2].Subject != "" {
			t.Errorf("cleared selection Subject = %q, want empty", got[2].Subject)
		}
	})

	t.Run("WatchReplaysThenFollows", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		record(p, session[:2]...)
		w := watch(t, p, 0)
		go func() {
			time.Sleep(50 * time.Millisecond)
			record(p, session[2:4]...)
		}()

		want := subjects(session[:4])
		var last uint64
		for i := range want {
			e, err := w.Next()
			if err != nil {
				t.Fatalf("Next(%d): %v", i, err)
			}
			if got := e.Type + " " + e.Subject; got != want[i] {
				t.Errorf("Next(%d) = %q, want %q", i, got, want[i])
			}
			if e.Seq <= last {
				t.Errorf("Next(%d) Seq = %d after %d", i, e.Seq, last)
			}
			last = e.Seq
		}
	})

	t.Run("WatchRenameCarriesPrevious", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		record(p, session[:3]...)
		seq, err := p.LatestSeq()
		if err != nil {
			t.Fatal(err)
		}
		w := watch(t, p, seq)
		go func() {
			time.Sleep(50 * time.Millisecond)
			p.Record(session[3])
		}()

		e, err := w.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if e.Type != events.DirRenamed || e.Subject != "/ws/notes/thoughts" || e.Previous != "/ws/notes/ideas" {
			t.Errorf("Next = %+v, want the rename of ideas to thoughts", e)
		}
		if e.Seq <= seq {
			t.Errorf("Seq = %d, want > %d", e.Seq, seq)
		}
	})

	t.Run("WatchDeliversBurstInOrder", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		w := watch(t, p, 0)
		const n = 20
		go func() {
			for range n {
				p.Record(events.Event{Type: events.DirCreated, Actor: "human"})
			}
		}()

		var last uint64
		for i := range n {
			e, err := w.Next()
			if err != nil {
				t.Fatalf("Next(%d): %v", i, err)
			}
			if e.Seq <= last {
				t.Fatalf("Seq %d after %d, want increasing", e.Seq, last)
			}
			last = e.Seq
		}
	})

	t.Run("WatchStopsOnCancel", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		ctx, cancel := context.WithCancel(context.Background())
		w, err := p.Watch(ctx, 0)
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
		defer w.Close() //nolint:errcheck // test cleanup

		cancel()
		if _, err := w.Next(); !errors.Is(err, context.Canceled) {
			t.Errorf("Next after cancel = %v, want context.Canceled", err)
		}
	})

	t.Run("Close", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		if err := p.Close(); err != nil {
			t.Errorf("Close() = %v, want nil", err)
		}
	})
}

// RunConcurrencyTests runs concurrency-specific tests. Only valid for
// in-process providers (FileRecorder, Fake) where goroutines share the
// same provider instance.
func RunConcurrencyTests(t *testing.T, newProvider func(t *testing.T) (events.Provider, func())) {
	t.Helper()

	t.Run("ConcurrentRecordSafe", func(t *testing.T) {
		p, cleanup := newProvider(t)
		defer cleanup()

		const writers, perWriter = 10, 10
		var wg sync.WaitGroup
		for g := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range perWriter {
					p.Record(events.Event{Type: events.DirCreated, Actor: "human", Subject: "/ws/notes/w" + string(rune('a'+g))})
				}
			}()
		}
		wg.Wait()

		got := list(t, p, events.Filter{})
		if len(got) != writers*perWriter {
			t.Errorf("List returned %d events, want %d", len(got), writers*perWriter)
		}
		seen := make(map[uint64]bool, len(got))
		for _, e := range got {
			if seen[e.Seq] {
				t.Errorf("duplicate seq: %d", e.Seq)
			}
			seen[e.Seq] = true
		}
		if mine := list(t, p, events.Filter{Subject: "/ws/notes/wa"}); len(mine) != perWriter {
			t.Errorf("events for one writer's directory = %d, want %d", len(mine), perWriter)
		}
	})
}
