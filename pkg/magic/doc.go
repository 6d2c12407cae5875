// Package magic identifies content with libmagic(3), the engine behind
// file(1).
//
// A Session wraps one libmagic cookie. Open it, optionally load one or more
// databases, then classify a path, a reader, a buffer or a descriptor:
//
//	s, err := magic.Open(magic.WithFlags(magic.MIMEType))
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	mime, err := s.File("image.png") // "image/png"
//
// When nothing has been loaded the first classification loads the default
// database, which honours the MAGIC environment variable. One-shot helpers
// such as FileType and FileMIME open and close a session per call.
//
// # Errors
//
// Engine and range errors are *Error values whose Kind is one of ErrNotOpen,
// ErrFlags, ErrParameter, ErrNotImplemented or ErrMagic, so errors.Is works
// on both. Invalid arguments wrap os.ErrInvalid, closed streams and
// descriptors wrap os.ErrClosed, and negative descriptors wrap
// syscall.EBADF; these are reported before the engine is called.
//
// # Configuration
//
// Config holds two process-wide toggles read by every session at call time:
//
//   - DoNotAutoLoad: classifying before a database is loaded fails with
//     "no magic files loaded" instead of loading the default.
//   - DoNotStopOnError: a failed Load is logged and ignored, and a failed
//     classification returns the engine's diagnostic text as the result.
//
// DefaultConfig is seeded from GOMAGIC_DO_NOT_AUTO_LOAD and
// GOMAGIC_DO_NOT_STOP_ON_ERROR; GOMAGIC_LIBRARY names the shared library to
// load. Toggles are atomic, but a change made while a call is running may or
// may not be seen by that call. Use Config.Snapshot, or WithConfig with a
// private Config, to isolate a goroutine or a child process.
//
// # Concurrency
//
// A Session is not safe for concurrent use. Engine calls run on the calling
// goroutine and block it; other goroutines keep running. There is no
// cancellation: a call runs to completion.
//
// # Building
//
// The engine is loaded at run time with dlopen(3), so building requires cgo
// but not the libmagic headers. Without cgo, and on windows, Open returns
// ErrNotBuilt.
package magic
