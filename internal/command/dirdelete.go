package command

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DirDeleteRequest removes the directory at Path and everything in it.
type DirDeleteRequest struct {
	Path string
}

// Validate checks the request shape.
func (r DirDeleteRequest) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("%w: path is empty", ErrInvalidRequest)
	}
	return nil
}

const keyCouldNotRemove = "system.error.could_not_remove_dir"

// DirDelete removes a directory. When the selection is the removed
// directory or lies below it, the parent becomes the selection.
type DirDelete struct {
	app  Context
	deps Deps
}

// NewDirDelete returns a DirDelete running against app.
func NewDirDelete(app Context, deps Deps) *DirDelete {
	return &DirDelete{app: app, deps: deps.withDefaults()}
}

// Run executes req and reports success.
func (c *DirDelete) Run(ctx context.Context, req DirDeleteRequest) bool {
	_, err := c.Execute(ctx, req)
	return err == nil
}

// Execute runs the state machine and returns what happened. There is no
// name, so Sanitizing is passed through.
func (c *DirDelete) Execute(ctx context.Context, req DirDeleteRequest) (Result, error) {
	r := newRun("dir-rm", keyCouldNotRemove, c.app, c.deps)

	r.enter(Validating)
	if err := req.Validate(); err != nil {
		return r.fail(ctx, err)
	}
	dir, ok := c.app.FindDir(req.Path)
	if !ok {
		return r.fail(ctx, fmt.Errorf("%w: %s", ErrNoSourceDirectory, req.Path), zap.String("path", req.Path))
	}
	sel, hadSel := c.app.Selection()

	r.enter(Mutating)
	if err := c.app.FileSystem().RemoveDirectory(ctx, dir); err != nil {
		return r.fail(ctx, err, zap.String("path", dir.Path()))
	}

	r.enter(Finalizing)
	r.res.Path = dir.Path()
	if hadSel && under(sel.Path(), dir.Path()) {
		r.selectPath(dir.ParentPath())
	}
	return r.done(ctx)
}
