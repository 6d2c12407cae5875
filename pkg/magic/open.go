package magic

import (
	"io"
	"slices"
)

// Do opens a session with opts, passes it to fn and closes it on every exit
// path. Nothing is retained between calls.
func Do(fn func(*Session) error, opts ...Option) error {
	s, err := Open(opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(s)
}

func do(opts []Option, fn func(*Session) (string, error)) (string, error) {
	var out string
	err := Do(func(s *Session) error {
		var err error
		out, err = fn(s)
		return err
	}, opts...)
	return out, err
}

// FileType classifies the file at path in a one-shot session.
func FileType(path string, opts ...Option) (string, error) {
	return do(opts, func(s *Session) (string, error) { return s.File(path) })
}

// BufferType classifies data in a one-shot session.
func BufferType(data []byte, opts ...Option) (string, error) {
	return do(opts, func(s *Session) (string, error) { return s.Buffer(data) })
}

// StreamType classifies r in a one-shot session. r is not closed.
func StreamType(r io.Reader, opts ...Option) (string, error) {
	return do(opts, func(s *Session) (string, error) { return s.Stream(r) })
}

// DescriptorType classifies fd in a one-shot session. fd is not closed.
func DescriptorType(fd int, opts ...Option) (string, error) {
	return do(opts, func(s *Session) (string, error) { return s.Descriptor(fd) })
}

// FileMIMEType returns the MIME type of the file at path, e.g. "image/png".
func FileMIMEType(path string, opts ...Option) (string, error) {
	return FileType(path, append(slices.Clip(opts), WithFlags(MIMEType))...)
}

// FileMIMEEncoding returns the MIME encoding of the file at path, e.g.
// "binary".
func FileMIMEEncoding(path string, opts ...Option) (string, error) {
	return FileType(path, append(slices.Clip(opts), WithFlags(MIMEEncoding))...)
}

// FileMIME returns the MIME type and encoding of the file at path, e.g.
// "image/png; charset=binary".
func FileMIME(path string, opts ...Option) (string, error) {
	return FileType(path, append(slices.Clip(opts), WithFlags(MIME))...)
}

// CheckDatabase validates the given databases, or the default one, in a
// one-shot session.
func CheckDatabase(paths []string, opts ...Option) error {
	return Do(func(s *Session) error { return s.Check(paths...) }, opts...)
}

// CompileDatabase compiles the given databases in a one-shot session.
func CompileDatabase(paths []string, opts ...Option) error {
	return Do(func(s *Session) error { return s.Compile(paths...) }, opts...)
}
