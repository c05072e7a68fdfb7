package fsal

import (
	"errors"
	"io/fs"
	"os"
)

// Sentinel errors. Match them with errors.Is; mutations wrap them in an
// [*OpError].
var (
	// ErrExists means an entity already occupies the target path. It is
	// detected before touching disk; a collision reported by the disk
	// itself also matches.
	ErrExists = errors.New("entity exists")
	// ErrNotFound means a path does not resolve in the tree.
	ErrNotFound = errors.New("entity not found")
	// ErrInvalidName means a name is not a sanitized single path element.
	ErrInvalidName = errors.New("invalid name")
	// ErrNotDirectory means a directory was required.
	ErrNotDirectory = errors.New("not a directory")
	// ErrRoot means the operation cannot be applied to a workspace root.
	ErrRoot = errors.New("workspace root")
)

// OpError records a failed FSAL mutation. Its message is meant for
// people; Unwrap exposes the underlying cause, which for disk failures is
// the *fs.PathError returned by the filesystem.
type OpError struct {
	Op   string // "create directory", "rename directory" or "remove directory"
	Path string
	Err  error
}

func (e *OpError) Error() string {
	msg := e.Err.Error()
	// Drop the path the filesystem repeats in its own message.
	switch err := e.Err.(type) {
	case *fs.PathError:
		msg = err.Err.Error()
	case *os.LinkError:
		msg = err.Err.Error()
	}
	if e.Path == "" {
		return e.Op + ": " + msg
	}
	return e.Op + " " + e.Path + ": " + msg
}

func (e *OpError) Unwrap() error { return e.Err }

// Is makes a disk-level collision match [ErrExists].
func (e *OpError) Is(target error) bool {
	return target == ErrExists && errors.Is(e.Err, fs.ErrExist)
}

// IsDisk reports whether err came from the filesystem rather than from a
// check the FSAL made before touching disk.
func IsDisk(err error) bool {
	var pe *fs.PathError
	var le *os.LinkError
	return errors.As(err, &pe) || errors.As(err, &le)
}
