package magic

import (
	"errors"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsiuhsiu/go-magic/pkg/magic/internal/backend"
	"github.com/hsiuhsiu/go-magic/pkg/magic/logging"
)

func facadeOptions(eng *fakeEngine) []Option {
	return []Option{fakeOption(eng), WithConfig(NewConfig()), WithLogger(logging.Discard())}
}

func TestDo(t *testing.T) {
	eng := newFakeEngine()

	var seen *Session
	err := Do(func(s *Session) error {
		seen = s
		_, err := s.File("a")
		return err
	}, facadeOptions(eng)...)
	require.NoError(t, err)

	assert.True(t, seen.Closed())
	assert.True(t, eng.closed)
}

func TestDoClosesOnError(t *testing.T) {
	eng := newFakeEngine()
	boom := errors.New("boom")

	err := Do(func(*Session) error { return boom }, facadeOptions(eng)...)
	require.ErrorIs(t, err, boom)
	assert.True(t, eng.closed)
}

func TestFacadeFlags(t *testing.T) {
	for _, tc := range []struct {
		name string
		fn   func(string, ...Option) (string, error)
		want Flag
	}{
		{"type", FileType, None},
		{"mime type", FileMIMEType, MIMEType},
		{"mime encoding", FileMIMEEncoding, MIMEEncoding},
		{"mime", FileMIME, MIME},
	} {
		t.Run(tc.name, func(t *testing.T) {
			eng := newFakeEngine()
			eng.result = "image/png"

			out, err := tc.fn("ruby.png", facadeOptions(eng)...)
			require.NoError(t, err)
			assert.Equal(t, "image/png", out)
			assert.Equal(t, []string{"ruby.png"}, eng.files)
			assert.Equal(t, int(tc.want|ErrorFlag), eng.flags)
			assert.True(t, eng.closed)
		})
	}
}

func TestFacadeInputs(t *testing.T) {
	eng := newFakeEngine()
	_, err := BufferType([]byte("abc"), facadeOptions(eng)...)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("abc")}, eng.buffers)
	assert.True(t, eng.closed)

	eng = newFakeEngine()
	_, err = StreamType(strings.NewReader("abc"), facadeOptions(eng)...)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("abc")}, eng.buffers)
	assert.True(t, eng.closed)

	eng = newFakeEngine()
	_, err = DescriptorType(-1, facadeOptions(eng)...)
	require.ErrorIs(t, err, syscall.EBADF)
	assert.True(t, eng.closed)
}

func TestFacadeDatabaseAndSetup(t *testing.T) {
	eng := newFakeEngine()

	var setupRan bool
	opts := append(facadeOptions(eng),
		WithDatabase("custom.mgc"),
		WithSetup(func(s *Session) error {
			setupRan = true
			return s.SetParameter(BytesMax, 4096)
		}),
	)

	_, err := FileType("a", opts...)
	require.NoError(t, err)
	assert.True(t, setupRan)
	assert.Equal(t, [][]string{{"custom.mgc"}}, eng.loads)
	assert.Equal(t, uint64(4096), eng.params[int(BytesMax)])
}

func TestFacadeErrors(t *testing.T) {
	eng := newFakeEngine()
	eng.classifyErr = &backend.Failure{Message: "cannot open `x'", Errno: syscall.ENOENT}

	_, err := FileType("x", facadeOptions(eng)...)
	require.ErrorIs(t, err, ErrMagic)
	assert.True(t, eng.closed)

	_, err = FileType("x", withEngine(func(int) (engine, error) { return nil, backend.ErrNotBuilt }))
	require.ErrorIs(t, err, ErrNotBuilt)
}

func TestCheckAndCompileDatabase(t *testing.T) {
	eng := newFakeEngine()
	require.NoError(t, CheckDatabase([]string{"a.magic"}, facadeOptions(eng)...))
	assert.Equal(t, [][]string{{"a.magic"}}, eng.checks)
	assert.True(t, eng.closed)

	eng = newFakeEngine()
	eng.compileErr = &backend.Failure{Message: "bad magic"}
	err := CompileDatabase([]string{"a.magic"}, facadeOptions(eng)...)
	requireError(t, err, ErrMagic, "bad magic", 0)
	assert.True(t, eng.closed)
}
