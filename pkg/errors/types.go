package errors

import (
	goErrors "errors"
	"fmt"
	"os"
	"syscall"
)

// Kind is a coarse category of filesystem failure.
type Kind int

const (
	// IOFailure is any failure that isn't one of the more specific kinds.
	IOFailure Kind = iota
	// NotFound means that a path didn't exist.
	NotFound
	// PermissionDenied means that the process wasn't allowed to access a path.
	PermissionDenied
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case PermissionDenied:
		return "permission denied"
	default:
		return "I/O failure"
	}
}

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// NotADirectory is returned when a path that must be a directory is something
// else.
type NotADirectory struct {
	Path string
}

func (err NotADirectory) Error() string {
	return fmt.Sprintf("%q is not a directory", err.Path)
}

// MutationError describes a failed change to the replica tree.
type MutationError struct {
	// Op is a short description of the operation, e.g. "remove directory".
	Op   string
	Path string
	Err  error
}

func (err MutationError) Error() string {
	return fmt.Sprintf("%s %q: %s", err.Op, err.Path, err.Err)
}

func (err MutationError) Unwrap() error {
	return err.Err
}

// KindOf categorizes err by walking its chain.
func KindOf(err error) Kind {
	var notFound FileNotFound
	if goErrors.As(err, &notFound) {
		return NotFound
	}

	switch {
	case goErrors.Is(err, os.ErrNotExist), goErrors.Is(err, syscall.ENOENT):
		return NotFound
	case goErrors.Is(err, os.ErrPermission), goErrors.Is(err, syscall.EACCES),
		goErrors.Is(err, syscall.EPERM):
		return PermissionDenied
	}
	return IOFailure
}
