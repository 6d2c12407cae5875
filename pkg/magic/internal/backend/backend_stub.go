//go:build !cgo || windows

package backend

// Stub implementations for non-CGO builds or Windows.
// These allow the package to compile but return ErrNotBuilt when called.

// Bind always fails without cgo.
func Bind(string) error { return ErrNotBuilt }

// Cookie is a placeholder that is never handed out.
type Cookie struct{}

func Open(int) (*Cookie, error) { return nil, ErrNotBuilt }

func Version() (int, error) { return 0, ErrNotBuilt }

func (*Cookie) Close() {}

func (*Cookie) SetFlags(int) error { return ErrNotBuilt }

func (*Cookie) Flags() (int, error) { return 0, ErrNotBuilt }

func (*Cookie) Load([]string) error { return ErrNotBuilt }

func (*Cookie) Check([]string) error { return ErrNotBuilt }

func (*Cookie) Compile([]string) error { return ErrNotBuilt }

func (*Cookie) LoadBuffers([][]byte) error { return ErrNotBuilt }

func (*Cookie) File(string) (string, error) { return "", ErrNotBuilt }

func (*Cookie) Buffer([]byte) (string, error) { return "", ErrNotBuilt }

func (*Cookie) Descriptor(int) (string, error) { return "", ErrNotBuilt }

func (*Cookie) SupportsParams() bool { return false }

func (*Cookie) Param(int) (uint64, error) { return 0, ErrNotBuilt }

func (*Cookie) SetParam(int, uint64) error { return ErrNotBuilt }

func (*Cookie) Path() string { return "" }
