package command

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// DirRenameRequest renames the directory at Path to Name.
type DirRenameRequest struct {
	Path string
	Name string
}

// Validate checks the request shape.
func (r DirRenameRequest) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("%w: path is empty", ErrInvalidRequest)
	}
	return nil
}

const keyCouldNotRename = "system.error.could_not_rename_dir"

// DirRename renames a directory. A selection inside it follows the
// rename.
type DirRename struct {
	app  Context
	deps Deps
}

// NewDirRename returns a DirRename running against app.
func NewDirRename(app Context, deps Deps) *DirRename {
	return &DirRename{app: app, deps: deps.withDefaults()}
}

// Run executes req and reports success.
func (c *DirRename) Run(ctx context.Context, req DirRenameRequest) bool {
	_, err := c.Execute(ctx, req)
	return err == nil
}

// Execute runs the state machine and returns what happened.
func (c *DirRename) Execute(ctx context.Context, req DirRenameRequest) (Result, error) {
	r := newRun("dir-rename", keyCouldNotRename, c.app, c.deps)

	r.enter(Validating)
	if err := req.Validate(); err != nil {
		return r.fail(ctx, err)
	}
	dir, ok := c.app.FindDir(req.Path)
	if !ok {
		return r.fail(ctx, fmt.Errorf("%w: %s", ErrNoSourceDirectory, req.Path), zap.String("path", req.Path))
	}

	r.enter(Sanitizing)
	name := c.deps.Sanitizer.Sanitize(req.Name)
	if name.Empty() {
		return r.fail(ctx, fmt.Errorf("%w: %q", ErrEmptyName, req.Name),
			zap.String("path", dir.Path()), zap.String("name", req.Name))
	}

	sel, hadSel := c.app.Selection()

	r.enter(Mutating)
	renamed, err := c.app.FileSystem().RenameDirectory(ctx, dir, name)
	if err != nil {
		return r.fail(ctx, err, zap.String("path", dir.Path()), zap.String("name", name.String()))
	}

	r.enter(Finalizing)
	r.res.Path = filepath.Join(filepath.Dir(dir.Path()), name.String())
	if renamed.Path() != r.res.Path {
		r.log.Warn("renamed path differs from requested", zap.String("want", r.res.Path), zap.String("got", renamed.Path()))
	}
	if hadSel && under(sel.Path(), dir.Path()) {
		r.selectPath(r.res.Path + sel.Path()[len(dir.Path()):])
	}
	return r.done(ctx)
}
