package events

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Fake is an in-memory [Provider] for tests and throwaway workspaces. It
// captures all recorded events in the Events slice and assigns Seq and Ts
// like [FileRecorder]. Watchers never miss an event. Safe for concurrent
// use.
type Fake struct {
	mu      sync.Mutex
	Events  []Event
	seq     uint64
	changed chan struct{} // closed and replaced on every Record
	closed  bool
}

// NewFake returns a ready-to-use [Fake] provider.
func NewFake() *Fake {
	return &Fake{changed: make(chan struct{})}
}

// Record appends the event, filling Seq and Ts (if zero), and wakes any
// watchers.
func (f *Fake) Record(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	e.Seq = f.seq
	if e.Ts.IsZero() {
		e.Ts = time.Now()
	}
	f.Events = append(f.Events, e)
	close(f.changed)
	f.changed = make(chan struct{})
}

// List returns recorded events matching filter.
func (f *Fake) List(filter Filter) ([]Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Event
	for _, e := range f.Events {
		if filter.Match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// LatestSeq returns the highest assigned sequence number.
func (f *Fake) LatestSeq() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq, nil
}

// Watch returns a watcher over events with Seq > afterSeq.
func (f *Fake) Watch(ctx context.Context, afterSeq uint64) (Watcher, error) {
	return &fakeWatcher{f: f, ctx: ctx, after: afterSeq}, nil
}

// Close marks the fake closed; blocked watchers return [ErrClosed].
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.changed)
		f.changed = make(chan struct{})
	}
	return nil
}

// Types returns the recorded event types in order. Handy in tests.
func (f *Fake) Types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Events))
	for i, e := range f.Events {
		out[i] = e.Type
	}
	return out
}

type fakeWatcher struct {
	f     *Fake
	ctx   context.Context
	after uint64
}

func (w *fakeWatcher) Next() (Event, error) {
	for {
		w.f.mu.Lock()
		for _, e := range w.f.Events {
			if e.Seq > w.after {
				w.after = e.Seq
				w.f.mu.Unlock()
				return e, nil
			}
		}
		closed := w.f.closed
		wake := w.f.changed
		w.f.mu.Unlock()

		if closed {
			return Event{}, ErrClosed
		}
		select {
		case <-w.ctx.Done():
			return Event{}, w.ctx.Err()
		case <-wake:
		}
	}
}

func (w *fakeWatcher) Close() error { return nil }

// errFailFake is returned by every read on a [FailFake].
var errFailFake = errors.New("events: provider unavailable")

// FailFake is a [Provider] whose reads always fail and whose Record drops
// events. It stands in for a broken journal in tests.
type FailFake struct{}

// NewFailFake returns a failing provider.
func NewFailFake() FailFake { return FailFake{} }

// Record drops the event.
func (FailFake) Record(Event) {}

// List fails.
func (FailFake) List(Filter) ([]Event, error) { return nil, errFailFake }

// LatestSeq fails.
func (FailFake) LatestSeq() (uint64, error) { return 0, errFailFake }

// Watch fails.
func (FailFake) Watch(context.Context, uint64) (Watcher, error) { return nil, errFailFake }

// Close is a no-op.
func (FailFake) Close() error { return nil }
