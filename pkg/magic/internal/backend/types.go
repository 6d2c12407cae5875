package backend

import (
	"errors"
	"syscall"
)

var (
	// ErrNotBuilt reports that the native bindings were not linked into the
	// current binary (cgo disabled or an unsupported platform).
	ErrNotBuilt = errors.New("magic/internal/backend: native bindings not built")

	// ErrLibraryNotFound reports that libmagic could not be opened, or that
	// the library found lacks a mandatory entry point.
	ErrLibraryNotFound = errors.New("magic/internal/backend: libmagic not found")

	// ErrUnsupported reports that the linked libmagic predates the requested
	// function.
	ErrUnsupported = errors.New("magic/internal/backend: function is not implemented")
)

// Failure is an error reported by libmagic itself. Message is the text of
// magic_error(3) and Errno the value of magic_errno(3), or the errno left by
// the call when the engine did not record one.
type Failure struct {
	Message string
	Errno   syscall.Errno
}

func (f *Failure) Error() string {
	return f.Message
}

// debugFlag mirrors MAGIC_DEBUG; engine warnings stay visible when it is set.
const debugFlag = 0x0000001
