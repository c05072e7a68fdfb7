// Package doctor runs health checks against a notedir workspace. Checks
// stream their results as they finish, and fixable problems are repaired
// when the caller asks for it.
package doctor

import (
	"context"

	"github.com/steveyegge/notedir/internal/fsys"
)

// CheckStatus represents the outcome of a health check.
type CheckStatus int

const (
	// StatusOK means the check passed.
	StatusOK CheckStatus = iota
	// StatusWarning means the check found a non-critical issue.
	StatusWarning
	// StatusError means the check found a critical problem.
	StatusError
)

// Check is a single diagnostic check.
type Check interface {
	// Name returns a short, unique identifier (e.g. "workspace-config").
	Name() string
	Run(ctx *CheckContext) *CheckResult
	CanFix() bool
	// Fix is only called when CanFix returns true and Run returned a
	// non-OK status.
	Fix(ctx *CheckContext) error
}

// CheckContext carries shared state for all checks during a doctor run.
type CheckContext struct {
	// WorkspacePath is the absolute path of the directory holding
	// notedir.toml.
	WorkspacePath string
	// FS is the disk the checks inspect. Nil means fsys.OSFS.
	FS fsys.FS
	// Context bounds checks that scan the disk. Nil means
	// context.Background.
	Context context.Context
	// Verbose shows result details.
	Verbose bool
}

func (c *CheckContext) fs() fsys.FS {
	if c.FS == nil {
		return fsys.OSFS{}
	}
	return c.FS
}

func (c *CheckContext) ctx() context.Context {
	if c.Context == nil {
		return context.Background()
	}
	return c.Context
}

// CheckResult holds the outcome of a single check execution.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	// Details holds extra lines shown only in verbose mode.
	Details []string
	// FixHint is shown when the check fails and was not fixed.
	FixHint string
	// Fixed is true when a fix remediated the issue.
	Fixed bool
}
