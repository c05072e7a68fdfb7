package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"github.com/steveyegge/notedir/internal/config"
	"github.com/steveyegge/notedir/internal/telemetry"
)

const (
	journalFile = "events.jsonl"
	stateFile   = "state.toml"
	lockFile    = "nd.lock"
)

// DefaultLockTimeout bounds how long Open waits for another nd process
// to release the workspace.
const DefaultLockTimeout = 5 * time.Second

const lockRetry = 50 * time.Millisecond

// ErrLocked is returned when another process holds the workspace lock.
var ErrLocked = errors.New("workspace is locked by another nd process")

// acquireLock takes the exclusive workspace lock, waiting up to timeout.
func acquireLock(ctx context.Context, path string, timeout time.Duration) (*flock.Flock, error) {
	lk := flock.New(path)
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	ok, err := lk.TryLockContext(wctx, lockRetry)
	switch {
	case err != nil && wctx.Err() != nil && ctx.Err() == nil:
		err = fmt.Errorf("%w (waited %s)", ErrLocked, timeout)
	case err != nil:
		err = fmt.Errorf("locking %s: %w", path, err)
	case !ok:
		err = ErrLocked
	}
	telemetry.RecordLockWait(ctx, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return lk, nil
}

// JournalPath returns the change journal of the workspace at dir.
func JournalPath(dir string) string { return config.StatePath(dir, journalFile) }

// IsLocked probes the lock of the workspace at dir. It reports true when
// another process (or another App in this process) holds it.
func IsLocked(dir string) bool {
	lk := flock.New(config.StatePath(dir, lockFile))
	ok, err := lk.TryLock()
	if err != nil {
		return false
	}
	if !ok {
		return true
	}
	lk.Unlock() //nolint:errcheck // availability check only
	return false
}
