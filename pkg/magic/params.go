package magic

import (
	"fmt"
	"math"
	"strings"

	"github.com/siderolabs/gen/xslices"
)

// Param identifies a libmagic tunable (magic_getparam/magic_setparam).
type Param int

const (
	IndirMax     Param = 0 // Recursion limit for indirect magic
	NameMax      Param = 1 // Use count limit for name/use magic
	ElfPhnumMax  Param = 2 // Max ELF program sections processed
	ElfShnumMax  Param = 3 // Max ELF sections processed
	ElfNotesMax  Param = 4 // Max ELF notes processed
	RegexMax     Param = 5 // Length limit for regex searches
	BytesMax     Param = 6 // Max number of bytes to read from a file
	EncodingMax  Param = 7 // Max number of bytes to scan for encoding
	ElfShsizeMax Param = 8 // Max ELF section size to process
)

type paramSpec struct {
	name string
	max  uint64
	def  int
}

// The engine keeps the first six as 16-bit counters.
var params = []paramSpec{
	IndirMax:     {"INDIR_MAX", math.MaxUint16, 50},
	NameMax:      {"NAME_MAX", math.MaxUint16, 50},
	ElfPhnumMax:  {"ELF_PHNUM_MAX", math.MaxUint16, 2048},
	ElfShnumMax:  {"ELF_SHNUM_MAX", math.MaxUint16, 32768},
	ElfNotesMax:  {"ELF_NOTES_MAX", math.MaxUint16, 256},
	RegexMax:     {"REGEX_MAX", math.MaxUint16, 8192},
	BytesMax:     {"BYTES_MAX", math.MaxInt, 1024 * 1024},
	EncodingMax:  {"ENCODING_MAX", math.MaxInt, 64 * 1024},
	ElfShsizeMax: {"ELF_SHSIZE_MAX", math.MaxInt, 128 * 1024 * 1024},
}

// Params lists every known parameter in ascending id order.
func Params() []Param {
	out := make([]Param, len(params))
	for i := range params {
		out[i] = Param(i)
	}
	return out
}

// ParamNames lists the display names of every known parameter.
func ParamNames() []string {
	return xslices.Map(Params(), Param.String)
}

// ParseParam looks a parameter up by name, e.g. "BYTES_MAX" or
// "MAGIC_PARAM_BYTES_MAX". Matching is case-insensitive.
func ParseParam(name string) (Param, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	key = strings.TrimPrefix(key, "MAGIC_PARAM_")
	key = strings.TrimPrefix(key, "PARAM_")

	for i, p := range params {
		if p.name == key {
			return Param(i), nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownParam, name)
}

// Valid reports whether p is a known parameter id.
func (p Param) Valid() bool {
	return p >= 0 && int(p) < len(params)
}

func (p Param) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Param(%d)", int(p))
	}
	return params[p].name
}

// Max is the largest value the engine accepts for p.
func (p Param) Max() uint64 {
	if !p.Valid() {
		return 0
	}
	return params[p].max
}

// Default is the value a fresh cookie of a current libmagic reports for p.
// Older engines may differ (e.g. IndirMax was 15 before 5.26).
func (p Param) Default() int {
	if !p.Valid() {
		return 0
	}
	return params[p].def
}

// checkValue reports whether v fits p's ceiling.
func (p Param) checkValue(v int) bool {
	return v >= 0 && uint64(v) <= p.Max()
}
