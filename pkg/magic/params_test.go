package magic

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams(t *testing.T) {
	assert.Equal(t, []Param{
		IndirMax, NameMax, ElfPhnumMax, ElfShnumMax, ElfNotesMax,
		RegexMax, BytesMax, EncodingMax, ElfShsizeMax,
	}, Params())

	assert.Equal(t, []string{
		"INDIR_MAX", "NAME_MAX", "ELF_PHNUM_MAX", "ELF_SHNUM_MAX", "ELF_NOTES_MAX",
		"REGEX_MAX", "BYTES_MAX", "ENCODING_MAX", "ELF_SHSIZE_MAX",
	}, ParamNames())
}

func TestParseParam(t *testing.T) {
	for _, name := range []string{"BYTES_MAX", "bytes_max", "PARAM_BYTES_MAX", "MAGIC_PARAM_BYTES_MAX"} {
		p, err := ParseParam(name)
		require.NoError(t, err, name)
		assert.Equal(t, BytesMax, p)
	}

	_, err := ParseParam("FOO_MAX")
	require.ErrorIs(t, err, ErrUnknownParam)
}

func TestParamLimits(t *testing.T) {
	assert.Equal(t, 50, IndirMax.Default())
	assert.Equal(t, 1024*1024, BytesMax.Default())
	assert.Equal(t, uint64(math.MaxUint16), IndirMax.Max())
	assert.Equal(t, uint64(math.MaxInt), BytesMax.Max())

	assert.True(t, IndirMax.checkValue(0))
	assert.True(t, IndirMax.checkValue(128))
	assert.False(t, IndirMax.checkValue(128*1024))
	assert.False(t, IndirMax.checkValue(-1))
	assert.True(t, BytesMax.checkValue(10*1024*1024))

	for _, p := range []Param{-1, 9, 128} {
		assert.False(t, p.Valid())
		assert.Zero(t, p.Max())
		assert.Zero(t, p.Default())
		assert.Equal(t, "Param("+strconv.Itoa(int(p))+")", p.String())
	}
}

