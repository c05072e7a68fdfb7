// Package app is the application context of an nd process: one workspace
// opened with its FSAL, change journal, selection, translator, logger and
// prompter, all constructed here and handed to commands explicitly.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/steveyegge/notedir/internal/config"
	"github.com/steveyegge/notedir/internal/events"
	"github.com/steveyegge/notedir/internal/fsal"
	"github.com/steveyegge/notedir/internal/fsys"
	"github.com/steveyegge/notedir/internal/i18n"
	"github.com/steveyegge/notedir/internal/logging"
	"github.com/steveyegge/notedir/internal/prompt"
	"github.com/steveyegge/notedir/internal/sanitize"
)

// Options configures [Open]. The zero value opens the workspace on disk
// for writing, prompting to stderr.
type Options struct {
	// FS is the disk. Nil means fsys.OSFS.
	FS fsys.FS
	// MemFS copies the roots into memory and works there. Nothing is
	// written to disk and no lock is taken.
	MemFS bool
	// ReadOnly skips the workspace lock and never appends to the
	// journal. The selection can still be changed.
	ReadOnly bool
	// LockTimeout bounds the wait for another nd process. Zero means
	// DefaultLockTimeout.
	LockTimeout time.Duration

	// Locale and LogLevel override notedir.toml when non-empty.
	Locale   string
	LogLevel string
	// Actor is recorded on events. Empty means fsal.DefaultActor.
	Actor string

	Stderr   io.Writer
	Prompter prompt.Prompter
	Logger   *zap.Logger
	// Events replaces the journal and is closed by App.Close. Nil means
	// .notedir/events.jsonl (or an in-memory journal with MemFS).
	Events events.Provider
}

// App is an open workspace.
type App struct {
	dir    string
	cfg    *config.Config
	fs     fsys.FS
	fsal   *fsal.FSAL
	events events.Provider
	trans  *i18n.Bundle
	log    *zap.Logger
	prompt prompt.Prompter
	lock   *flock.Flock
	actor  string

	mu        sync.Mutex
	selection string
}

// Open loads the workspace at dir.
func Open(ctx context.Context, dir string, opts Options) (a *App, err error) {
	disk := opts.FS
	if disk == nil {
		disk = fsys.OSFS{}
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	cfgPath := filepath.Join(dir, config.FileName)
	cfg, err := config.Load(disk, cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.FileName, err)
	}

	log := opts.Logger
	if log == nil {
		lc := cfg.Logging()
		if opts.LogLevel != "" {
			lc.Level = opts.LogLevel
		}
		if log, err = logging.New(lc, stderr); err != nil {
			return nil, err
		}
	}
	locale := cfg.Names.Locale
	if opts.Locale != "" {
		locale = opts.Locale
	}
	trans, err := i18n.New(locale)
	if err != nil {
		return nil, err
	}

	a = &App{
		dir:    dir,
		cfg:    cfg,
		fs:     disk,
		trans:  trans,
		log:    log,
		prompt: opts.Prompter,
		actor:  opts.Actor,
	}
	if a.prompt == nil {
		a.prompt = prompt.NewWriter(stderr)
	}
	if a.actor == "" {
		a.actor = fsal.DefaultActor
	}
	defer func() {
		if err != nil {
			a.Close() //nolint:errcheck // already failing
			a = nil
		}
	}()

	if opts.MemFS {
		mem := fsys.NewMemFS()
		if err := mirror(disk, mem, append(cfg.RootPaths(dir), config.StatePath(dir, stateFile))); err != nil {
			return a, fmt.Errorf("copying workspace into memory: %w", err)
		}
		a.fs = mem
	}
	if err := a.fs.MkdirAll(config.StatePath(dir), 0o755); err != nil {
		return a, fmt.Errorf("creating state directory: %w", err)
	}
	if !opts.ReadOnly && !opts.MemFS {
		timeout := opts.LockTimeout
		if timeout == 0 {
			timeout = DefaultLockTimeout
		}
		if a.lock, err = acquireLock(ctx, config.StatePath(dir, lockFile), timeout); err != nil {
			return a, err
		}
	}

	switch {
	case opts.Events != nil:
		a.events = opts.Events
	case opts.MemFS:
		a.events = events.NewFake()
	default:
		rec, err := events.NewFileRecorder(config.StatePath(dir, journalFile), stderr)
		if err != nil {
			return a, err
		}
		a.events = rec
	}
	if opts.ReadOnly {
		a.events = events.ReadOnly(a.events)
	}

	a.fsal, err = fsal.Open(ctx, a.fs, a.events, fsal.Options{
		Roots:           cfg.RootPaths(dir),
		Ignore:          cfg.Workspace.Ignore,
		CaseInsensitive: cfg.Workspace.CaseInsensitive,
		Actor:           a.actor,
		Logger:          log,
	})
	if err != nil {
		return a, err
	}

	sel, err := loadSelection(a.fs, config.StatePath(dir, stateFile))
	if err != nil {
		log.Warn("ignoring unreadable selection", zap.Error(err))
	}
	a.selection = sel
	log.Debug("workspace opened",
		zap.String("dir", dir),
		zap.String("config_revision", config.Revision(disk, cfgPath)),
		zap.Bool("memfs", opts.MemFS))
	return a, nil
}

// Dir returns the workspace directory.
func (a *App) Dir() string { return a.dir }

// Config returns the loaded notedir.toml.
func (a *App) Config() *config.Config { return a.cfg }

// Disk returns the filesystem the FSAL works on.
func (a *App) Disk() fsys.FS { return a.fs }

// FSAL returns the workspace tree.
func (a *App) FSAL() *fsal.FSAL { return a.fsal }

// FileSystem returns the FSAL as the interface commands mutate through.
func (a *App) FileSystem() fsal.FileSystem { return a.fsal }

// FindDir resolves a directory by path.
func (a *App) FindDir(path string) (*fsal.Directory, bool) { return a.fsal.FindDir(path) }

// Events returns the change journal.
func (a *App) Events() events.Provider { return a.events }

// Prompt shows opts to the user.
func (a *App) Prompt(opts prompt.Options) { a.prompt.Prompt(opts) }

// Translator returns the translator for the configured locale.
func (a *App) Translator() *i18n.Bundle { return a.trans }

// Logger returns the process logger.
func (a *App) Logger() *zap.Logger { return a.log }

// Policy returns the configured name sanitizer.
func (a *App) Policy() sanitize.Policy { return a.cfg.Policy() }

// Actor returns the identity recorded on events.
func (a *App) Actor() string { return a.actor }

// Close releases the journal and the workspace lock.
func (a *App) Close() error {
	var errs []error
	if a.events != nil {
		errs = append(errs, a.events.Close())
	}
	if a.lock != nil {
		errs = append(errs, a.lock.Unlock())
		a.lock = nil
	}
	return errors.Join(errs...)
}
