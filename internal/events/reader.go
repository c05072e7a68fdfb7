package events

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxLine bounds one journal line. Longer lines fail the read.
const maxLine = 1 << 20

// Filter selects events for ReadFiltered and Provider.List. Zero fields
// match everything.
type Filter struct {
	Type     string    // exact event type
	Actor    string    // exact actor
	Subject  string    // path whose own and descendant events match, old or new side
	Since    time.Time // Ts at or after
	AfterSeq uint64    // Seq strictly greater; 0 disables
}

// Match reports whether e satisfies every non-zero field of f. A rename
// matches a Subject filter on either its new path or its Previous one, so
// following a directory by path keeps working across the rename.
func (f Filter) Match(e Event) bool {
	switch {
	case f.AfterSeq > 0 && e.Seq <= f.AfterSeq:
		return false
	case f.Type != "" && e.Type != f.Type:
		return false
	case f.Actor != "" && e.Actor != f.Actor:
		return false
	case !f.Since.IsZero() && e.Ts.Before(f.Since):
		return false
	case f.Subject != "":
		return under(e.Subject, f.Subject) || under(e.Previous, f.Subject)
	}
	return true
}

// under reports whether p is dir itself or a path inside it.
func under(p, dir string) bool {
	if p == "" {
		return false
	}
	p, dir = filepath.Clean(p), filepath.Clean(dir)
	if p == dir {
		return true
	}
	return strings.HasPrefix(p, strings.TrimSuffix(dir, string(filepath.Separator))+string(filepath.Separator))
}

// openJournal opens the journal for reading. A missing journal is not an
// error; it yields a nil file.
func openJournal(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	return f, nil
}

// decodeLines calls fn for each well-formed event line in r. Lines that
// do not decode are skipped, since a crash mid-append can leave one.
func decodeLines(r io.Reader, fn func(Event)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		var e Event
		if json.Unmarshal(sc.Bytes(), &e) == nil {
			fn(e)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scanning journal: %w", err)
	}
	return nil
}

// ReadFiltered returns the journal events at path that match filter, in
// file order. A missing or empty journal yields (nil, nil).
func ReadFiltered(path string, filter Filter) ([]Event, error) {
	f, err := openJournal(path)
	if f == nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only file

	var out []Event
	err = decodeLines(f, func(e Event) {
		if filter.Match(e) {
			out = append(out, e)
		}
	})
	return out, err
}

// ReadAll returns every event in the journal at path.
func ReadAll(path string) ([]Event, error) {
	return ReadFiltered(path, Filter{})
}

// ReadLatestSeq returns the highest Seq in the journal, 0 when it is
// missing or empty.
func ReadLatestSeq(path string) (uint64, error) {
	f, err := openJournal(path)
	if f == nil {
		return 0, err
	}
	defer f.Close() //nolint:errcheck // read-only file

	var latest uint64
	err = decodeLines(f, func(e Event) { latest = max(latest, e.Seq) })
	return latest, err
}

// ReadFrom reads the complete lines after byte offset and returns them
// with the offset just past the last one. A trailing line without its
// newline is an append in progress and is left for the next call. A
// missing journal returns (nil, offset, nil).
func ReadFrom(path string, offset int64) ([]Event, int64, error) {
	f, err := openJournal(path)
	if f == nil {
		return nil, offset, err
	}
	defer f.Close() //nolint:errcheck // read-only file

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seeking journal: %w", err)
	}
	var out []Event
	br := bufio.NewReader(f)
	for {
		line, err := br.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			return out, offset, nil
		}
		if err != nil {
			return out, offset, fmt.Errorf("scanning journal: %w", err)
		}
		offset += int64(len(line))
		var e Event
		if json.Unmarshal(line, &e) == nil {
			out = append(out, e)
		}
	}
}
