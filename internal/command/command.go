// Package command turns user intents into FSAL mutations.
//
// Every command runs the same state machine:
//
//	Validating -> Sanitizing -> Mutating -> Finalizing -> Done
//	     \            \            \
//	      +------------+------------+-----> Failed
//
// Validating and Sanitizing fail without touching the FSAL. Mutating makes
// exactly one FSAL call. Finalizing re-resolves what the mutation produced
// and moves the selection; it never fails the command. A failed command
// shows exactly one prompt and leaves the selection alone.
package command

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steveyegge/notedir/internal/fsal"
	"github.com/steveyegge/notedir/internal/i18n"
	"github.com/steveyegge/notedir/internal/logging"
	"github.com/steveyegge/notedir/internal/prompt"
	"github.com/steveyegge/notedir/internal/sanitize"
	"github.com/steveyegge/notedir/internal/telemetry"
)

// Errors returned by commands before they reach the FSAL.
var (
	ErrNoSourceDirectory = errors.New("source directory not found")
	ErrEmptyName         = errors.New("name is empty")
	ErrInvalidRequest    = errors.New("invalid request")
)

// Context is the application context a command runs in.
type Context interface {
	FindDir(path string) (*fsal.Directory, bool)
	FileSystem() fsal.FileSystem
	Prompt(opts prompt.Options)
	Select(path string) error
	Selection() (*fsal.Directory, bool)
}

// Sanitizer turns raw user input into a name. sanitize.Policy implements
// it.
type Sanitizer interface {
	Sanitize(raw string) sanitize.Name
}

// Deps are the collaborators shared by all commands. Zero fields get
// defaults: English messages, no logging, the default sanitizer and
// random request IDs.
type Deps struct {
	Translator i18n.Translator
	Logger     *zap.Logger
	Sanitizer  Sanitizer
	NewID      func() string
}

func (d Deps) withDefaults() Deps {
	if d.Translator == nil {
		if b, err := i18n.New(i18n.DefaultLocale); err == nil {
			d.Translator = b
		} else {
			d.Translator = i18n.Fake{}
		}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Sanitizer == nil {
		d.Sanitizer = sanitize.DefaultPolicy()
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

// State is a step of the command state machine.
type State int

// Command states.
const (
	Validating State = iota
	Sanitizing
	Mutating
	Finalizing
	Done
	Failed
)

var stateNames = [...]string{"validating", "sanitizing", "mutating", "finalizing", "done", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Result describes a finished command.
type Result struct {
	RequestID string
	// State is Done or Failed.
	State State
	// FailedIn is the state the command failed in. Meaningless when
	// State is Done.
	FailedIn State
	// Path is the path of the directory the command produced or
	// removed.
	Path string
	// Selected reports whether the selection moved.
	Selected bool
}

// Message keys shown on failure.
const (
	keyAlreadyExists  = "system.error.dir_already_exists"
	keyRootNotAllowed = "system.error.root_not_allowed"
)

// run carries one execution of a command.
type run struct {
	name     string
	titleKey string
	app      Context
	deps     Deps
	log      *zap.Logger
	res      Result
	state    State
}

func newRun(name, titleKey string, app Context, deps Deps) *run {
	id := deps.NewID()
	return &run{
		name:     name,
		titleKey: titleKey,
		app:      app,
		deps:     deps,
		log:      logging.WithRequestID(deps.Logger, id).With(zap.String("command", name)),
		res:      Result{RequestID: id},
	}
}

// enter moves the run to s.
func (r *run) enter(s State) {
	r.state = s
	r.log.Debug("state", zap.Stringer("state", s))
}

// fail ends the run in Failed: one log entry, one prompt, telemetry.
func (r *run) fail(ctx context.Context, err error, fields ...zap.Field) (Result, error) {
	r.res.State = Failed
	r.res.FailedIn = r.state
	fields = append(fields, zap.Stringer("state", r.state), zap.Error(err))
	r.log.Error("command failed", fields...)
	r.app.Prompt(prompt.Options{
		Type:    prompt.Error,
		Title:   r.deps.Translator.Trans(r.titleKey),
		Message: r.message(err),
	})
	telemetry.RecordCommand(ctx, r.name, r.res.RequestID, r.state.String(), err)
	return r.res, err
}

// message is the prompt text for err. Failures before the mutation reuse
// the title; FSAL failures show the underlying error.
func (r *run) message(err error) string {
	switch {
	case errors.Is(err, ErrNoSourceDirectory), errors.Is(err, ErrEmptyName), errors.Is(err, ErrInvalidRequest):
		return r.deps.Translator.Trans(r.titleKey)
	case errors.Is(err, fsal.ErrExists):
		return r.deps.Translator.Trans(keyAlreadyExists)
	case errors.Is(err, fsal.ErrRoot):
		return r.deps.Translator.Trans(keyRootNotAllowed)
	default:
		return err.Error()
	}
}

func (r *run) done(ctx context.Context) (Result, error) {
	r.enter(Done)
	r.res.State = Done
	telemetry.RecordCommand(ctx, r.name, r.res.RequestID, Done.String(), nil)
	return r.res, nil
}

// selectPath re-resolves path and selects it. Failures are logged only.
func (r *run) selectPath(path string) {
	d, ok := r.app.FindDir(path)
	if !ok {
		r.log.Warn("directory not found after mutation", zap.String("path", path))
		return
	}
	if err := r.app.Select(d.Path()); err != nil {
		r.log.Warn("could not update selection", zap.String("path", d.Path()), zap.Error(err))
		return
	}
	r.res.Selected = true
}

// under reports whether p is root or lies below it.
func under(p, root string) bool {
	return p == root || strings.HasPrefix(p, root+string(filepath.Separator))
}
