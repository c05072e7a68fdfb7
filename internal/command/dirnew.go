package command

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// DirNewRequest asks for a new directory below SourcePath. A nil Name
// means the localized default name.
type DirNewRequest struct {
	SourcePath string
	Name       *string
}

// Validate checks the request shape. It does not look at the tree.
func (r DirNewRequest) Validate() error {
	if r.SourcePath == "" {
		return fmt.Errorf("%w: source path is empty", ErrInvalidRequest)
	}
	return nil
}

// Message keys used by DirNew.
const (
	keyCouldNotCreate = "system.error.could_not_create_dir"
	keyDefaultDirName = "dialog.dir_new.value"
)

// DirNew creates a directory and selects it.
type DirNew struct {
	app  Context
	deps Deps
}

// NewDirNew returns a DirNew running against app.
func NewDirNew(app Context, deps Deps) *DirNew {
	return &DirNew{app: app, deps: deps.withDefaults()}
}

// Run executes req and reports success. Failures have already been
// prompted and logged.
func (c *DirNew) Run(ctx context.Context, req DirNewRequest) bool {
	_, err := c.Execute(ctx, req)
	return err == nil
}

// Execute runs the state machine and returns what happened. On failure
// the returned error is the cause, already shown to the user.
func (c *DirNew) Execute(ctx context.Context, req DirNewRequest) (Result, error) {
	r := newRun("dir-new", keyCouldNotCreate, c.app, c.deps)

	r.enter(Validating)
	if err := req.Validate(); err != nil {
		return r.fail(ctx, err)
	}
	source, ok := c.app.FindDir(req.SourcePath)
	if !ok {
		return r.fail(ctx, fmt.Errorf("%w: %s", ErrNoSourceDirectory, req.SourcePath),
			zap.String("source", req.SourcePath))
	}

	r.enter(Sanitizing)
	raw := c.deps.Translator.Trans(keyDefaultDirName)
	if req.Name != nil {
		raw = *req.Name
	}
	name := c.deps.Sanitizer.Sanitize(raw)
	if name.Empty() {
		return r.fail(ctx, fmt.Errorf("%w: %q", ErrEmptyName, raw),
			zap.String("source", source.Path()), zap.String("name", raw))
	}

	r.enter(Mutating)
	if _, err := c.app.FileSystem().CreateDirectory(ctx, source, name); err != nil {
		return r.fail(ctx, err, zap.String("source", source.Path()), zap.String("name", name.String()))
	}

	r.enter(Finalizing)
	r.res.Path = filepath.Join(source.Path(), name.String())
	r.selectPath(r.res.Path)
	return r.done(ctx)
}
