package magic

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagsRoundTrip(t *testing.T) {
	for _, e := range primitives {
		t.Run(e.name, func(t *testing.T) {
			f, err := ParseFlags(e.name)
			require.NoError(t, err)
			assert.Equal(t, e.flag, f)
			assert.Equal(t, []Flag{e.flag}, f.Flags())
			assert.Equal(t, []string{e.name}, f.Names())
		})
	}
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags("mime_type", "MAGIC_MIME_ENCODING", " continue ")
	require.NoError(t, err)
	assert.Equal(t, MIMEType|MIMEEncoding|Continue, f)

	f, err = ParseFlags("MIME")
	require.NoError(t, err)
	assert.Equal(t, MIME, f)

	f, err = ParseFlags()
	require.NoError(t, err)
	assert.Equal(t, None, f)

	_, err = ParseFlags("MIME", "BOGUS")
	require.ErrorIs(t, err, ErrUnknownFlag)
}

func TestFlagsDecodeOrder(t *testing.T) {
	// Caller order does not matter; decode is ascending by bit.
	f, err := ParseFlags("MIME_ENCODING", "ERROR", "MIME_TYPE")
	require.NoError(t, err)

	assert.Equal(t, []Flag{MIMEType, ErrorFlag, MIMEEncoding}, f.Flags())
	assert.Equal(t, "MIME_TYPE|ERROR|MIME_ENCODING", f.String())

	decoded := MaxFlags.Flags()
	require.Len(t, decoded, len(primitives))
	for i := 1; i < len(decoded); i++ {
		assert.Less(t, decoded[i-1], decoded[i])
	}
}

func TestCompositeFlags(t *testing.T) {
	assert.Equal(t, []Flag{MIMEType, MIMEEncoding}, MIME.Flags())
	assert.Equal(t, []Flag{MIMEType, MIMEEncoding, Apple, Extension}, NoDesc.Flags())
	assert.Equal(t, NoCheckText, NoCheckASCII)
	assert.True(t, NoCheckBuiltin.Has(NoCheckELF|NoCheckJSON))
	assert.False(t, NoCheckBuiltin.Has(NoCheckSoft))
	assert.Equal(t, []Flag{None}, None.Flags())
	assert.Equal(t, "NONE", None.String())
}

func TestMaxFlags(t *testing.T) {
	assert.Equal(t, Flag(0x7ffffff), MaxFlags)
	require.NoError(t, MaxFlags.Validate())
	require.NoError(t, None.Validate())
}

func TestFlagValidate(t *testing.T) {
	for _, f := range []Flag{-1, -512, MaxFlags + 1, 0x8000000 | MIME} {
		err := f.Validate()

		e := requireError(t, err, ErrFlags, "unknown or invalid flag specified", syscall.EINVAL)
		assert.Equal(t, "flags", e.Op)
		assert.Contains(t, f.String(), "Flag(")
	}
}
