package magic

import (
	"slices"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hsiuhsiu/go-magic/pkg/magic/internal/backend"
	"github.com/hsiuhsiu/go-magic/pkg/magic/logging"
)

// fakeEngine records the calls a Session makes and answers from its fields.
type fakeEngine struct {
	closed bool

	flags       int
	flagPushes  []int
	setFlagsErr error
	noGetFlags  bool
	loads       [][]string
	loadErr     error
	bufferLoads [][][]byte
	loadBufErr  error
	checks      [][]string
	checkErr    error
	compiles    [][]string
	compileErr  error
	files       []string
	buffers     [][]byte
	descriptors []int
	result      string
	classifyErr error
	noParams    bool
	params      map[int]uint64
	setParamErr error
	path        string

	// during runs inside Check and File, while the engine call is in
	// flight.
	during func()
}

func newFakeEngine() *fakeEngine {
	f := &fakeEngine{
		result: "data",
		path:   "/usr/share/misc/magic",
		params: map[int]uint64{},
	}
	for _, p := range Params() {
		f.params[int(p)] = uint64(p.Default())
	}
	return f
}

func (f *fakeEngine) Close() { f.closed = true }

func (f *fakeEngine) SetFlags(flags int) error {
	if f.setFlagsErr != nil {
		return f.setFlagsErr
	}
	f.flags = flags
	f.flagPushes = append(f.flagPushes, flags)
	return nil
}

func (f *fakeEngine) Flags() (int, error) {
	if f.noGetFlags {
		return 0, backend.ErrUnsupported
	}
	return f.flags, nil
}

func (f *fakeEngine) Load(paths []string) error {
	f.loads = append(f.loads, slices.Clone(paths))
	return f.loadErr
}

func (f *fakeEngine) Check(paths []string) error {
	f.checks = append(f.checks, slices.Clone(paths))
	f.inCall()
	return f.checkErr
}

func (f *fakeEngine) Compile(paths []string) error {
	f.compiles = append(f.compiles, slices.Clone(paths))
	return f.compileErr
}

func (f *fakeEngine) LoadBuffers(bufs [][]byte) error {
	if f.loadBufErr != nil {
		return f.loadBufErr
	}
	f.bufferLoads = append(f.bufferLoads, bufs)
	return nil
}

func (f *fakeEngine) File(path string) (string, error) {
	f.files = append(f.files, path)
	f.inCall()
	return f.answer()
}

func (f *fakeEngine) Buffer(data []byte) (string, error) {
	f.buffers = append(f.buffers, slices.Clone(data))
	return f.answer()
}

func (f *fakeEngine) Descriptor(fd int) (string, error) {
	f.descriptors = append(f.descriptors, fd)
	return f.answer()
}

func (f *fakeEngine) inCall() {
	if f.during != nil {
		f.during()
	}
}

func (f *fakeEngine) answer() (string, error) {
	if f.classifyErr != nil {
		return "", f.classifyErr
	}
	return f.result, nil
}

func (f *fakeEngine) SupportsParams() bool { return !f.noParams }

func (f *fakeEngine) Param(id int) (uint64, error) {
	v, ok := f.params[id]
	if !ok {
		return 0, &backend.Failure{Message: "unknown or invalid parameter specified", Errno: syscall.EINVAL}
	}
	return v, nil
}

func (f *fakeEngine) SetParam(id int, value uint64) error {
	if f.setParamErr != nil {
		return f.setParamErr
	}
	f.params[id] = value
	return nil
}

func (f *fakeEngine) Path() string { return f.path }

func (f *fakeEngine) calls() int {
	return len(f.files) + len(f.buffers) + len(f.descriptors)
}

// openFake opens a session on eng with a private Config and a silent logger.
// Later options override those defaults.
func openFake(t *testing.T, eng *fakeEngine, opts ...Option) *Session {
	t.Helper()

	base := []Option{
		withEngine(func(int) (engine, error) { return eng, nil }),
		WithConfig(NewConfig()),
		WithLogger(logging.Discard()),
	}
	s, err := Open(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func fakeOption(eng *fakeEngine) Option {
	return withEngine(func(int) (engine, error) { return eng, nil })
}

// requireError asserts err is an *Error of kind with the given message and
// errno.
func requireError(t *testing.T, err error, kind error, msg string, errno syscall.Errno) *Error {
	t.Helper()

	require.Error(t, err)
	require.ErrorIs(t, err, kind)

	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, msg, e.Message)
	require.Equal(t, errno, e.Errno)
	return e
}
