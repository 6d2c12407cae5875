package magic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"syscall"
)

// File classifies the file at path.
func (s *Session) File(path string) (string, error) {
	const op = "file"
	if err := s.ensureOpen(op); err != nil {
		return "", err
	}
	if path == "" {
		return "", argumentError(op, "empty path")
	}
	if strings.IndexByte(path, 0) >= 0 {
		return "", argumentError(op, "path contains a NUL byte")
	}

	return s.classify(op, func(e engine) (string, error) {
		return e.File(path)
	})
}

// Buffer classifies data. A nil slice is rejected; an empty one is
// classified like an empty file.
func (s *Session) Buffer(data []byte) (string, error) {
	const op = "buffer"
	if err := s.ensureOpen(op); err != nil {
		return "", err
	}
	if data == nil {
		return "", argumentError(op, "nil buffer")
	}

	return s.buffer(op, data)
}

func (s *Session) buffer(op string, data []byte) (string, error) {
	return s.classify(op, func(e engine) (string, error) {
		return e.Buffer(data)
	})
}

// Descriptor classifies the open descriptor fd. The descriptor is read from
// its current offset and is never closed.
func (s *Session) Descriptor(fd int) (string, error) {
	const op = "descriptor"
	if err := s.ensureOpen(op); err != nil {
		return "", err
	}
	return s.descriptor(op, fd)
}

func (s *Session) descriptor(op string, fd int) (string, error) {
	if fd < 0 {
		return "", fmt.Errorf("magic: %s: %w", op, syscall.EBADF)
	}
	if err := checkDescriptor(fd); err != nil {
		return "", fmt.Errorf("magic: %s: %w: %w", op, os.ErrClosed, err)
	}

	return s.classify(op, func(e engine) (string, error) {
		return e.Descriptor(fd)
	})
}

type fder interface {
	Fd() uintptr
}

// Stream classifies r without closing it. Regular files are classified
// through their descriptor. Pipes, sockets and any other reader are read
// up to the BytesMax parameter and classified as a buffer.
func (s *Session) Stream(r io.Reader) (string, error) {
	const op = "stream"
	if err := s.ensureOpen(op); err != nil {
		return "", err
	}
	if r == nil {
		return "", argumentError(op, "nil stream")
	}

	switch v := r.(type) {
	case syscall.Conn:
		return s.rawStream(op, r, v)
	case fder:
		return s.descriptor(op, int(v.Fd()))
	default:
		return s.readStream(op, r)
	}
}

// rawStream classifies regular files by descriptor. Pipes, sockets and
// devices are non-blocking under the runtime poller, so the engine would
// only see what is buffered; those are read through r instead.
func (s *Session) rawStream(op string, r io.Reader, c syscall.Conn) (string, error) {
	rc, err := c.SyscallConn()
	if err != nil {
		return "", fmt.Errorf("magic: %s: %w: %w", op, os.ErrClosed, err)
	}

	var (
		out     string
		cerr    error
		regular bool
	)
	err = rc.Control(func(fd uintptr) {
		regular, cerr = isRegular(int(fd))
		if cerr != nil {
			cerr = fmt.Errorf("magic: %s: %w: %w", op, os.ErrClosed, cerr)
			return
		}
		if regular {
			out, cerr = s.descriptor(op, int(fd))
		}
	})
	if err != nil {
		// Control only fails once the descriptor is gone.
		return "", fmt.Errorf("magic: %s: %w: %w", op, os.ErrClosed, err)
	}
	if cerr != nil || regular {
		return out, cerr
	}
	return s.readStream(op, r)
}

func (s *Session) readStream(op string, r io.Reader) (string, error) {
	limit, err := s.Parameter(BytesMax)
	if err != nil {
		if !errors.Is(err, ErrNotImplemented) {
			return "", err
		}
		limit = BytesMax.Default()
	}

	data, err := io.ReadAll(io.LimitReader(r, int64(limit)))
	if err != nil {
		return "", fmt.Errorf("magic: %s: %w", op, err)
	}
	if data == nil {
		data = []byte{}
	}
	return s.buffer(op, data)
}

// classify runs fn against the engine after loading the default database if
// needed and pushing the effective flags.
func (s *Session) classify(op string, fn func(engine) (string, error)) (string, error) {
	if err := s.autoLoad(op); err != nil {
		return "", err
	}
	if err := s.sync(op); err != nil {
		return "", err
	}

	out, err := fn(s.engine)
	// The finalizer must not close the cookie while fn is running.
	runtime.KeepAlive(s)
	if err == nil {
		return out, nil
	}

	mapped := remapError(op, ErrMagic, err)
	var e *Error
	if s.DoNotStopOnError() && errors.As(mapped, &e) && errors.Is(e, ErrMagic) {
		s.logger.Warn(context.Background(), "magic failure returned as result", "op", op, "error", e.Message)
		return e.Message, nil
	}
	return "", mapped
}

func (s *Session) autoLoad(op string) error {
	if s.loaded {
		return nil
	}
	if s.config.DoNotAutoLoad() {
		return newError(op, ErrMagic, msgNotLoaded, 0)
	}
	err := s.Load()
	var e *Error
	if errors.As(err, &e) {
		e.Op = op
	}
	return err
}
