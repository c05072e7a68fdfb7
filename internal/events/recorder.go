package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultPoll bounds how long a watcher sleeps when no wakeup arrives.
// fsnotify is best-effort on some filesystems, so watchers also poll.
const defaultPoll = 250 * time.Millisecond

// FileRecorder appends events to a JSONL file. It uses O_APPEND for
// cross-process safety and a mutex for in-process serialization.
// Recording errors are written to stderr and never returned.
//
// FileRecorder implements [Provider]. Watchers in the same process are
// woken directly by Record; watchers following a journal written by
// another process are woken by fsnotify, with polling as a fallback.
type FileRecorder struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	seq     uint64
	stderr  io.Writer
	changed chan struct{}
	closed  bool
}

// NewFileRecorder opens (or creates) the event log at path. It scans any
// existing file to find the maximum sequence number so new events continue
// monotonically. Parent directories are created as needed.
func NewFileRecorder(path string, stderr io.Writer) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}

	maxSeq, err := ReadLatestSeq(path)
	if err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}

	return &FileRecorder{
		path:    path,
		file:    file,
		seq:     maxSeq,
		stderr:  stderr,
		changed: make(chan struct{}),
	}, nil
}

// Path returns the journal location.
func (r *FileRecorder) Path() string { return r.path }

// Record appends an event to the log. It auto-fills Seq and Ts (if zero).
// The line is written before Record returns. Errors are written to stderr.
func (r *FileRecorder) Record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		fmt.Fprintf(r.stderr, "events: record %s after close\n", e.Type) //nolint:errcheck // best-effort stderr
		return
	}

	r.seq++
	e.Seq = r.seq
	if e.Ts.IsZero() {
		e.Ts = time.Now()
	}

	data, err := json.Marshal(e)
	if err != nil {
		fmt.Fprintf(r.stderr, "events: marshal: %v\n", err) //nolint:errcheck // best-effort stderr
		return
	}
	data = append(data, '\n')
	if _, err := r.file.Write(data); err != nil {
		fmt.Fprintf(r.stderr, "events: write: %v\n", err) //nolint:errcheck // best-effort stderr
		return
	}
	close(r.changed)
	r.changed = make(chan struct{})
}

// List returns events matching the filter from the underlying file.
func (r *FileRecorder) List(filter Filter) ([]Event, error) {
	return ReadFiltered(r.path, filter)
}

// LatestSeq returns the highest sequence number in the event log.
func (r *FileRecorder) LatestSeq() (uint64, error) {
	return ReadLatestSeq(r.path)
}

// Watch returns a Watcher that follows the event file. If fsnotify cannot
// watch the journal directory the watcher falls back to polling.
func (r *FileRecorder) Watch(ctx context.Context, afterSeq uint64) (Watcher, error) {
	w := &fileWatcher{
		rec:      r,
		path:     r.path,
		afterSeq: afterSeq,
		ctx:      ctx,
		poll:     defaultPoll,
	}
	if fw, err := fsnotify.NewWatcher(); err == nil {
		if err := fw.Add(filepath.Dir(r.path)); err == nil {
			w.notify = fw
		} else {
			fw.Close() //nolint:errcheck // fall back to polling
		}
	}
	return w, nil
}

// Close closes the underlying file and wakes blocked watchers.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	close(r.changed)
	r.changed = make(chan struct{})
	return r.file.Close()
}

// wake returns a channel closed on the next Record or Close.
func (r *FileRecorder) wake() (<-chan struct{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changed, r.closed
}

// fileWatcher tails a JSONL file for new events.
type fileWatcher struct {
	rec      *FileRecorder
	path     string
	afterSeq uint64
	ctx      context.Context
	poll     time.Duration
	offset   int64
	buf      []Event // buffered events from the last read
	notify   *fsnotify.Watcher
}

// Next blocks until the next event is available or the context is canceled.
func (w *fileWatcher) Next() (Event, error) {
	for {
		if len(w.buf) > 0 {
			e := w.buf[0]
			w.buf = w.buf[1:]
			return e, nil
		}

		select {
		case <-w.ctx.Done():
			return Event{}, w.ctx.Err()
		default:
		}

		// Take the wakeup channel before reading so a Record that lands
		// between the read and the wait is not missed.
		wake, closed := w.rec.wake()

		evts, newOffset, err := ReadFrom(w.path, w.offset)
		if err != nil {
			return Event{}, err
		}
		w.offset = newOffset
		for _, e := range evts {
			if e.Seq > w.afterSeq {
				w.afterSeq = e.Seq
				w.buf = append(w.buf, e)
			}
		}
		if len(w.buf) > 0 {
			continue
		}
		if closed {
			return Event{}, ErrClosed
		}

		if err := w.wait(wake); err != nil {
			return Event{}, err
		}
	}
}

func (w *fileWatcher) wait(wake <-chan struct{}) error {
	var fsEvents <-chan fsnotify.Event
	var fsErrors <-chan error
	if w.notify != nil {
		fsEvents, fsErrors = w.notify.Events, w.notify.Errors
	}
	timer := time.NewTimer(w.poll)
	defer timer.Stop()
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		case <-wake:
			return nil
		case ev, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
				continue
			}
			if filepath.Clean(ev.Name) == filepath.Clean(w.path) && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				return nil
			}
		case _, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
			}
		case <-timer.C:
			return nil
		}
	}
}

// Close stops the fsnotify watcher, if any.
func (w *fileWatcher) Close() error {
	if w.notify != nil {
		return w.notify.Close()
	}
	return nil
}
