package errors

import (
	goErrors "errors"
	"fmt"
)

// New returns an error with the given message.
func New(msg string) error {
	return goErrors.New(msg)
}

// As is a passthrough to the standard library so that callers only need to
// import this package.
func As(err error, target interface{}) bool {
	return goErrors.As(err, target)
}

// Is is a passthrough to the standard library.
func Is(err, target error) bool {
	return goErrors.Is(err, target)
}

// contextError annotates an error with a short description of what was being
// attempted when it occurred.
type contextError struct {
	err     error
	context string
}

// WithContext wraps `err` with `context`. The result prints as
// "context: err". A nil error stays nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return contextError{err: err, context: context}
}

func (err contextError) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.err)
}

func (err contextError) Unwrap() error {
	return err.err
}

// RootCause strips all context from the error and returns the innermost
// error.
func RootCause(err error) error {
	for {
		wrapped := goErrors.Unwrap(err)
		if wrapped == nil {
			return err
		}
		err = wrapped
	}
}

// FriendlyError is an error whose message is meant to be shown directly to the
// user, without any of the wrapped context.
type FriendlyError struct {
	msg string
}

// NewFriendlyError formats a FriendlyError.
func NewFriendlyError(template string, args ...interface{}) error {
	return FriendlyError{fmt.Sprintf(template, args...)}
}

func (err FriendlyError) Error() string {
	return err.msg
}

// FriendlyMessage returns the message that should be shown to the user.
func (err FriendlyError) FriendlyMessage() string {
	return err.msg
}

// GetFriendlyMessage returns the user facing message of the first error in
// the chain that has one.
func GetFriendlyMessage(err error) (string, bool) {
	var friendly interface{ FriendlyMessage() string }
	if goErrors.As(err, &friendly) {
		return friendly.FriendlyMessage(), true
	}
	return "", false
}
