package magic

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/hsiuhsiu/go-magic/pkg/magic/internal/backend"
)

// Error kinds. Every error returned by a Session that originates from the
// engine or from range validation is an *Error whose Kind is one of these,
// so callers can test with errors.Is.
var (
	// ErrNotOpen reports an operation on a closed Session.
	ErrNotOpen = errors.New("magic: library is not open")

	// ErrFlags reports a flag mask outside the known set, or one the engine
	// rejected.
	ErrFlags = errors.New("magic: invalid flags")

	// ErrParameter reports an unknown parameter or an out-of-range value.
	ErrParameter = errors.New("magic: invalid parameter")

	// ErrNotImplemented reports a function the linked libmagic predates.
	ErrNotImplemented = errors.New("magic: function is not implemented")

	// ErrMagic reports a failure inside the engine, e.g. a malformed
	// database or an unreadable file.
	ErrMagic = errors.New("magic: library error")
)

var (
	// ErrUnknownFlag is returned by ParseFlags for an unrecognised name.
	ErrUnknownFlag = errors.New("magic: unknown flag")

	// ErrUnknownParam is returned by ParseParam for an unrecognised name.
	ErrUnknownParam = errors.New("magic: unknown parameter")

	// ErrNotBuilt reports that the binary was built without cgo.
	ErrNotBuilt = errors.New("magic: native bindings not built")

	// ErrLibraryNotFound reports that libmagic could not be loaded.
	ErrLibraryNotFound = errors.New("magic: libmagic not found")
)

const (
	msgNotOpen        = "Magic library is not open"
	msgInvalidFlags   = "unknown or invalid flag specified"
	msgInvalidParam   = "unknown or invalid parameter specified"
	msgInvalidValue   = "invalid parameter value specified"
	msgNotImplemented = "function is not implemented"
	msgNotLoaded      = "no magic files loaded"
)

// Error is the structured error returned by this package.
type Error struct {
	Op      string        // Operation that failed, e.g. "file" or "set_parameter"
	Kind    error         // One of the Err* kinds above
	Message string        // Human readable text, engine-supplied where possible
	Errno   syscall.Errno // System error number, zero when none applies
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(op string, kind error, msg string, errno syscall.Errno) *Error {
	return &Error{Op: op, Kind: kind, Message: msg, Errno: errno}
}

func errNotOpen(op string) error {
	return newError(op, ErrNotOpen, msgNotOpen, syscall.EFAULT)
}

func errNotImplemented(op string) error {
	return newError(op, ErrNotImplemented, msgNotImplemented, 0)
}

// remapError converts backend errors to public errors. kind selects the
// Error kind used for engine failures.
func remapError(op string, kind error, err error) error {
	if err == nil {
		return nil
	}

	var failure *backend.Failure
	switch {
	case errors.As(err, &failure):
		return newError(op, kind, failure.Message, failure.Errno)
	case errors.Is(err, backend.ErrUnsupported):
		return errNotImplemented(op)
	case errors.Is(err, backend.ErrNotBuilt):
		return fmt.Errorf("%w: %w", ErrNotBuilt, err)
	case errors.Is(err, backend.ErrLibraryNotFound):
		return fmt.Errorf("%w: %w", ErrLibraryNotFound, err)
	default:
		return err
	}
}

// argumentError wraps the standard invalid-argument error.
func argumentError(op, format string, args ...any) error {
	return fmt.Errorf("magic: %s: %w: %s", op, os.ErrInvalid, fmt.Sprintf(format, args...))
}
