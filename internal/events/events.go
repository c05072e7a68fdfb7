// Package events is the change-notification stream of a notedir workspace.
//
// Events are synchronous, append-only records of what happened to the
// tree. The FSAL records exactly one event per successful mutation before
// the mutation returns, so an observer that reads an event can always
// resolve its subject. The file recorder writes JSON lines to
// .notedir/events.jsonl; the reader scans them back. Recording is
// best-effort: errors are logged to stderr but never returned to callers.
package events

import (
	"context"
	"errors"
	"time"
)

// Event type constants.
const (
	DirCreated       = "dir.created"
	DirRenamed       = "dir.renamed"
	DirRemoved       = "dir.removed"
	SelectionChanged = "selection.changed"
	TreeLoaded       = "tree.loaded"
)

// KnownTypes lists every event type the workspace emits, in display order.
var KnownTypes = []string{DirCreated, DirRenamed, DirRemoved, SelectionChanged, TreeLoaded}

// Event is a single recorded occurrence in the workspace. Subject is the
// path the event is about. Previous is the old path of a rename, or the
// previous selection.
type Event struct {
	Seq      uint64    `json:"seq"`
	Type     string    `json:"type"`
	Ts       time.Time `json:"ts"`
	Actor    string    `json:"actor"`
	Subject  string    `json:"subject,omitempty"`
	Previous string    `json:"previous,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// Recorder records events. Safe for concurrent use. Best-effort.
type Recorder interface {
	Record(e Event)
}

// Provider is a Recorder that can also read and follow what it recorded.
type Provider interface {
	Recorder

	// List returns recorded events matching filter, oldest first.
	List(filter Filter) ([]Event, error)

	// LatestSeq returns the highest recorded sequence number, or 0.
	LatestSeq() (uint64, error)

	// Watch returns a Watcher that yields every event with Seq > afterSeq
	// in order, including events recorded after Watch returns.
	Watch(ctx context.Context, afterSeq uint64) (Watcher, error)

	// Close releases the provider's resources.
	Close() error
}

// Watcher is a cursor over a Provider's events.
type Watcher interface {
	// Next blocks until the next event is available or the watch context
	// is done.
	Next() (Event, error)

	// Close stops the watcher. Next must not be called afterwards.
	Close() error
}

// ErrClosed is returned by Watcher.Next once the provider is closed.
var ErrClosed = errors.New("events: provider closed")

// Discard silently drops all events.
var Discard Recorder = discardRecorder{}

type discardRecorder struct{}

func (discardRecorder) Record(Event) {}

// ReadOnly wraps p so Record is dropped. Reads, watches and Close pass
// through. Processes that do not hold the workspace lock use it so they
// never append to a journal a writer owns.
func ReadOnly(p Provider) Provider { return readOnly{p} }

type readOnly struct{ Provider }

func (readOnly) Record(Event) {}
