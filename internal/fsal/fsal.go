// Package fsal is the filesystem abstraction layer of a notedir workspace.
//
// An FSAL owns an in-memory tree mirroring the directories and files under
// the configured workspace roots. Reads ([FSAL.Resolve] and friends) are
// served from memory and never touch disk. Mutations perform the disk I/O,
// update the tree and record exactly one change event, in that order,
// before they return:
//
//	CreateDirectory(parent, name)
//	  -> collision check (ErrExists, before any I/O)
//	  -> Mkdir on disk (failure: tree untouched, error returned verbatim)
//	  -> tree insert
//	  -> events.DirCreated recorded
//	  -> return the new *Directory
//
// So once a mutation returns, Resolve reflects it, and an observer that
// sees the event can resolve its subject. Mutations are serialized by a
// single writer lock and are never retried.
package fsal

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"go.uber.org/zap"

	"github.com/steveyegge/notedir/internal/events"
	"github.com/steveyegge/notedir/internal/fsys"
	"github.com/steveyegge/notedir/internal/sanitize"
	"github.com/steveyegge/notedir/internal/telemetry"
)

// DefaultActor is recorded on events when Options.Actor is empty.
const DefaultActor = "human"

// Options configures [Open].
type Options struct {
	// Roots are absolute paths of existing directories. They must not
	// nest.
	Roots []string
	// Ignore holds glob patterns matched against entry names. Matching
	// entries (and everything below them) stay out of the tree.
	Ignore []string
	// CaseInsensitive makes paths that differ only in case collide, as
	// they do on the host filesystem.
	CaseInsensitive bool
	// Actor is recorded on every event.
	Actor string
	// Logger receives debug diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// FSAL is the tree plus the operations that mutate it. Safe for
// concurrent use.
type FSAL struct {
	mu     sync.RWMutex
	fs     fsys.FS
	events events.Provider
	tree   *tree
	opts   Options
	ignore []glob.Glob
	log    *zap.Logger
}

// FileSystem is the part of an FSAL that commands depend on.
type FileSystem interface {
	Resolve(path string) (Entity, bool)
	FindDir(path string) (*Directory, bool)
	CreateDirectory(ctx context.Context, parent *Directory, name sanitize.Name) (*Directory, error)
	RenameDirectory(ctx context.Context, dir *Directory, name sanitize.Name) (*Directory, error)
	RemoveDirectory(ctx context.Context, dir *Directory) error
}

var _ FileSystem = (*FSAL)(nil)

// Open loads the tree from disk and records [events.TreeLoaded].
func Open(ctx context.Context, fs fsys.FS, ev events.Provider, opts Options) (*FSAL, error) {
	if len(opts.Roots) == 0 {
		return nil, errors.New("fsal: no workspace roots")
	}
	if opts.Actor == "" {
		opts.Actor = DefaultActor
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	f := &FSAL{fs: fs, events: ev, opts: opts, log: log.Named("fsal")}
	for _, pat := range opts.Ignore {
		g, err := glob.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("compiling ignore pattern %q: %w", pat, err)
		}
		f.ignore = append(f.ignore, g)
	}
	roots := make([]string, len(opts.Roots))
	for i, r := range opts.Roots {
		if !filepath.IsAbs(r) {
			return nil, fmt.Errorf("fsal: root %q is not absolute", r)
		}
		roots[i] = filepath.Clean(r)
	}
	f.opts.Roots = roots

	t, err := f.scan(ctx)
	telemetry.RecordTreeLoad(ctx, len(roots), lenOf(t), err)
	if err != nil {
		return nil, err
	}
	f.tree = t
	f.log.Debug("tree loaded", zap.Int("roots", len(roots)), zap.Int("entities", t.len()))
	ev.Record(events.Event{
		Type:    events.TreeLoaded,
		Actor:   opts.Actor,
		Message: fmt.Sprintf("%d entities under %d roots", t.len(), len(roots)),
	})
	return f, nil
}

func lenOf(t *tree) int {
	if t == nil {
		return 0
	}
	return t.len()
}

func (f *FSAL) ignored(name string) bool {
	for _, g := range f.ignore {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// scan builds a fresh tree from disk.
func (f *FSAL) scan(ctx context.Context) (*tree, error) {
	t := newTree(f.opts.CaseInsensitive)
	for _, r := range f.opts.Roots {
		for _, other := range t.roots {
			if within(t.key(r), t.key(other.path)) || within(t.key(other.path), t.key(r)) {
				return nil, fmt.Errorf("fsal: roots %s and %s overlap", other.path, r)
			}
		}
		fi, err := f.fs.Stat(r)
		if err != nil {
			return nil, fmt.Errorf("loading root %s: %w", r, err)
		}
		if !fi.IsDir() {
			return nil, fmt.Errorf("loading root %s: %w", r, ErrNotDirectory)
		}
		n := &node{path: r, name: filepath.Base(r), dir: true, mod: fi.ModTime()}
		t.addRoot(n)
		if err := f.scanDir(ctx, t, n); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (f *FSAL) scanDir(ctx context.Context, t *tree, dir *node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := f.fs.ReadDir(dir.path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir.path, err)
	}
	for _, e := range entries {
		if f.ignored(e.Name()) {
			continue
		}
		n := &node{path: filepath.Join(dir.path, e.Name()), name: e.Name(), dir: e.IsDir()}
		if info, err := e.Info(); err == nil {
			n.size = info.Size()
			n.mod = info.ModTime()
		}
		if t.lookup(n.path) != nil {
			f.log.Warn("skipping entry that collides with a sibling", zap.String("path", n.path))
			continue
		}
		t.insert(dir, n)
		if n.dir {
			if err := f.scanDir(ctx, t, n); err != nil {
				return err
			}
		}
	}
	return nil
}

// Resolve returns the entity at path. It never touches disk.
func (f *FSAL) Resolve(path string) (Entity, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := f.tree.lookup(path)
	if n == nil {
		return nil, false
	}
	return snapshot(n), true
}

// FindDir resolves path and reports whether it is a directory.
func (f *FSAL) FindDir(path string) (*Directory, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := f.tree.lookup(path)
	if n == nil || !n.dir {
		return nil, false
	}
	return dirSnapshot(n), true
}

// FindFile resolves path and reports whether it is a file.
func (f *FSAL) FindFile(path string) (*File, bool) {
	e, ok := f.Resolve(path)
	if !ok || e.IsDir() {
		return nil, false
	}
	return e.(*File), true
}

// Roots returns the workspace roots sorted by path.
func (f *FSAL) Roots() []*Directory {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Directory, len(f.tree.roots))
	for i, r := range f.tree.roots {
		out[i] = dirSnapshot(r)
	}
	return out
}

// RootOf returns the workspace root containing path.
func (f *FSAL) RootOf(path string) (*Directory, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := f.tree.lookup(path)
	if n == nil {
		return nil, false
	}
	for n.parent != nil {
		n = n.parent
	}
	return dirSnapshot(n), true
}

// Len returns the number of entities in the tree, roots included.
func (f *FSAL) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.tree.len()
}

// Walk calls fn for path and every entity below it, parents before
// children, siblings in display order. It walks a snapshot taken up
// front, so fn may call back into the FSAL. An error from fn stops the
// walk and is returned.
func (f *FSAL) Walk(path string, fn func(Entity) error) error {
	f.mu.RLock()
	n := f.tree.lookup(path)
	var snap []Entity
	if n != nil {
		walk(n, func(n *node) { snap = append(snap, snapshot(n)) })
	}
	f.mu.RUnlock()
	if n == nil {
		return fmt.Errorf("walk %s: %w", path, ErrNotFound)
	}
	for _, e := range snap {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// Watch follows the change stream from afterSeq.
func (f *FSAL) Watch(ctx context.Context, afterSeq uint64) (events.Watcher, error) {
	return f.events.Watch(ctx, afterSeq)
}

// LatestSeq returns the sequence number of the last recorded event.
func (f *FSAL) LatestSeq() (uint64, error) {
	return f.events.LatestSeq()
}

// Events exposes the change stream the FSAL records to.
func (f *FSAL) Events() events.Provider { return f.events }

// CreateDirectory creates name under parent on disk and in the tree and
// returns the new directory. parent is re-resolved by path, so a stale
// snapshot is fine as long as the directory still exists.
func (f *FSAL) CreateDirectory(ctx context.Context, parent *Directory, name sanitize.Name) (*Directory, error) {
	start := time.Now()
	target := ""
	if parent != nil {
		target = filepath.Join(parent.Path(), name.String())
	}
	d, err := f.createDirectory(ctx, parent, name)
	telemetry.RecordFSALOp(ctx, "create", target, time.Since(start), err)
	return d, err
}

func (f *FSAL) createDirectory(ctx context.Context, parent *Directory, name sanitize.Name) (*Directory, error) {
	const op = "create directory"
	if parent == nil {
		return nil, &OpError{Op: op, Err: ErrNotFound}
	}
	if err := f.validName(name); err != nil {
		return nil, &OpError{Op: op, Path: parent.Path(), Err: err}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	pn, err := f.lookupDir(parent.Path())
	if err != nil {
		return nil, &OpError{Op: op, Path: parent.Path(), Err: err}
	}
	target := filepath.Join(pn.path, name.String())
	if f.tree.lookup(target) != nil {
		return nil, &OpError{Op: op, Path: target, Err: ErrExists}
	}
	if err := ctx.Err(); err != nil {
		return nil, &OpError{Op: op, Path: target, Err: err}
	}

	if err := f.fs.Mkdir(target, 0o755); err != nil {
		f.log.Debug("mkdir failed", zap.String("path", target), zap.Error(err))
		return nil, &OpError{Op: op, Path: target, Err: err}
	}

	n := &node{path: target, name: name.String(), dir: true, mod: f.modTime(target)}
	f.tree.insert(pn, n)
	f.events.Record(events.Event{
		Type:    events.DirCreated,
		Actor:   f.opts.Actor,
		Subject: target,
	})
	f.log.Debug("created directory", zap.String("path", target))
	return dirSnapshot(n), nil
}

// RenameDirectory gives dir a new name in the same parent. Everything
// below dir moves with it. Roots cannot be renamed.
func (f *FSAL) RenameDirectory(ctx context.Context, dir *Directory, name sanitize.Name) (*Directory, error) {
	start := time.Now()
	path := ""
	if dir != nil {
		path = dir.Path()
	}
	d, err := f.renameDirectory(ctx, dir, name)
	telemetry.RecordFSALOp(ctx, "rename", path, time.Since(start), err)
	return d, err
}

func (f *FSAL) renameDirectory(ctx context.Context, dir *Directory, name sanitize.Name) (*Directory, error) {
	const op = "rename directory"
	if dir == nil {
		return nil, &OpError{Op: op, Err: ErrNotFound}
	}
	if err := f.validName(name); err != nil {
		return nil, &OpError{Op: op, Path: dir.Path(), Err: err}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	n, err := f.lookupDir(dir.Path())
	if err != nil {
		return nil, &OpError{Op: op, Path: dir.Path(), Err: err}
	}
	if n.parent == nil {
		return nil, &OpError{Op: op, Path: n.path, Err: ErrRoot}
	}
	old := n.path
	target := filepath.Join(n.parent.path, name.String())
	if target == old {
		return dirSnapshot(n), nil
	}
	// A case-only rename folds onto n itself on case-insensitive hosts.
	if other := f.tree.lookup(target); other != nil && other != n {
		return nil, &OpError{Op: op, Path: target, Err: ErrExists}
	}
	if err := ctx.Err(); err != nil {
		return nil, &OpError{Op: op, Path: old, Err: err}
	}

	if err := f.fs.Rename(old, target); err != nil {
		return nil, &OpError{Op: op, Path: old, Err: err}
	}

	parent := n.parent
	f.tree.detach(n)
	f.tree.repath(n, target)
	f.tree.insert(parent, n)
	f.events.Record(events.Event{
		Type:     events.DirRenamed,
		Actor:    f.opts.Actor,
		Subject:  target,
		Previous: old,
	})
	f.log.Debug("renamed directory", zap.String("from", old), zap.String("to", target))
	return dirSnapshot(n), nil
}

// RemoveDirectory deletes dir and everything below it. Roots cannot be
// removed.
func (f *FSAL) RemoveDirectory(ctx context.Context, dir *Directory) error {
	start := time.Now()
	path := ""
	if dir != nil {
		path = dir.Path()
	}
	err := f.removeDirectory(ctx, dir)
	telemetry.RecordFSALOp(ctx, "remove", path, time.Since(start), err)
	return err
}

func (f *FSAL) removeDirectory(ctx context.Context, dir *Directory) error {
	const op = "remove directory"
	if dir == nil {
		return &OpError{Op: op, Err: ErrNotFound}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	n, err := f.lookupDir(dir.Path())
	if err != nil {
		return &OpError{Op: op, Path: dir.Path(), Err: err}
	}
	if n.parent == nil {
		return &OpError{Op: op, Path: n.path, Err: ErrRoot}
	}
	if err := ctx.Err(); err != nil {
		return &OpError{Op: op, Path: n.path, Err: err}
	}

	if err := f.fs.RemoveAll(n.path); err != nil {
		return &OpError{Op: op, Path: n.path, Err: err}
	}

	removed := count(n)
	f.tree.detach(n)
	f.events.Record(events.Event{
		Type:    events.DirRemoved,
		Actor:   f.opts.Actor,
		Subject: n.path,
		Message: fmt.Sprintf("%d entities removed", removed),
	})
	f.log.Debug("removed directory", zap.String("path", n.path), zap.Int("entities", removed))
	return nil
}

// validName rejects names that are not sanitized, and names the loader
// would skip, since the tree could not hold them after a reload.
func (f *FSAL) validName(name sanitize.Name) error {
	if err := sanitize.Valid(name); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidName, err)
	}
	if f.ignored(name.String()) {
		return fmt.Errorf("%w: %q matches an ignore pattern", ErrInvalidName, name.String())
	}
	return nil
}

// lookupDir resolves a directory node. Callers hold f.mu.
func (f *FSAL) lookupDir(path string) (*node, error) {
	n := f.tree.lookup(path)
	if n == nil {
		return nil, ErrNotFound
	}
	if !n.dir {
		return nil, ErrNotDirectory
	}
	return n, nil
}

// modTime stats a path the FSAL just created. A failed stat is not worth
// failing the mutation for.
func (f *FSAL) modTime(path string) time.Time {
	fi, err := f.fs.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}
