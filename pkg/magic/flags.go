package magic

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/siderolabs/gen/xslices"
)

// Flag is a libmagic flag bitmask. Flags combine with |.
type Flag int

// Primitive flags, one bit each, in ascending bit order.
const (
	None            Flag = 0x0000000 // No special handling
	Debug           Flag = 0x0000001 // Print debugging messages to stderr
	Symlink         Flag = 0x0000002 // Follow symbolic links
	Compress        Flag = 0x0000004 // Look inside compressed files
	Devices         Flag = 0x0000008 // Look at the contents of devices
	MIMEType        Flag = 0x0000010 // Return the MIME type
	Continue        Flag = 0x0000020 // Return all matches, not just the first
	Check           Flag = 0x0000040 // Print warnings to stderr
	PreserveATime   Flag = 0x0000080 // Restore access time after reading
	Raw             Flag = 0x0000100 // Do not convert unprintable characters
	ErrorFlag       Flag = 0x0000200 // Treat OS errors as real errors
	MIMEEncoding    Flag = 0x0000400 // Return the MIME encoding
	Apple           Flag = 0x0000800 // Return the Apple creator and type
	NoCheckCompress Flag = 0x0001000 // Don't check for compressed files
	NoCheckTar      Flag = 0x0002000 // Don't check for tar files
	NoCheckSoft     Flag = 0x0004000 // Don't check magic entries
	NoCheckAppType  Flag = 0x0008000 // Don't check application type
	NoCheckELF      Flag = 0x0010000 // Don't check for ELF details
	NoCheckText     Flag = 0x0020000 // Don't check for text files
	NoCheckCDF      Flag = 0x0040000 // Don't check for CDF files
	NoCheckCSV      Flag = 0x0080000 // Don't check for CSV files
	NoCheckTokens   Flag = 0x0100000 // Don't check tokens
	NoCheckEncoding Flag = 0x0200000 // Don't check text encodings
	NoCheckJSON     Flag = 0x0400000 // Don't check for JSON files
	NoCheckSimh     Flag = 0x0800000 // Don't check for SIMH tape files
	Extension       Flag = 0x1000000 // Return a /-separated list of extensions
	CompressTransp  Flag = 0x2000000 // Check inside compressed files but not report compression
	NoCompressFork  Flag = 0x4000000 // Don't allow decompression that needs to fork
)

// Composite flags.
const (
	MIME           = MIMEType | MIMEEncoding
	NoDesc         = Extension | MIME | Apple
	NoCheckASCII   = NoCheckText
	NoCheckBuiltin = NoCheckCompress | NoCheckTar | NoCheckAppType | NoCheckELF |
		NoCheckText | NoCheckCSV | NoCheckCDF | NoCheckTokens | NoCheckEncoding |
		NoCheckJSON | NoCheckSimh
)

type flagEntry struct {
	flag Flag
	name string
}

// primitives is ordered by ascending bit value; decoding relies on it.
var primitives = []flagEntry{
	{Debug, "DEBUG"},
	{Symlink, "SYMLINK"},
	{Compress, "COMPRESS"},
	{Devices, "DEVICES"},
	{MIMEType, "MIME_TYPE"},
	{Continue, "CONTINUE"},
	{Check, "CHECK"},
	{PreserveATime, "PRESERVE_ATIME"},
	{Raw, "RAW"},
	{ErrorFlag, "ERROR"},
	{MIMEEncoding, "MIME_ENCODING"},
	{Apple, "APPLE"},
	{NoCheckCompress, "NO_CHECK_COMPRESS"},
	{NoCheckTar, "NO_CHECK_TAR"},
	{NoCheckSoft, "NO_CHECK_SOFT"},
	{NoCheckAppType, "NO_CHECK_APPTYPE"},
	{NoCheckELF, "NO_CHECK_ELF"},
	{NoCheckText, "NO_CHECK_TEXT"},
	{NoCheckCDF, "NO_CHECK_CDF"},
	{NoCheckCSV, "NO_CHECK_CSV"},
	{NoCheckTokens, "NO_CHECK_TOKENS"},
	{NoCheckEncoding, "NO_CHECK_ENCODING"},
	{NoCheckJSON, "NO_CHECK_JSON"},
	{NoCheckSimh, "NO_CHECK_SIMH"},
	{Extension, "EXTENSION"},
	{CompressTransp, "COMPRESS_TRANSP"},
	{NoCompressFork, "NO_COMPRESS_FORK"},
}

var aliases = map[string]Flag{
	"NONE":             None,
	"MIME":             MIME,
	"NODESC":           NoDesc,
	"NO_CHECK_ASCII":   NoCheckASCII,
	"NO_CHECK_BUILTIN": NoCheckBuiltin,
}

var byName = func() map[string]Flag {
	m := make(map[string]Flag, len(primitives)+len(aliases))
	for _, e := range primitives {
		m[e.name] = e.flag
	}
	for name, f := range aliases {
		m[name] = f
	}
	return m
}()

// MaxFlags is the union of every known flag bit. A mask is valid iff it lies
// in [0, MaxFlags] and sets no bit outside it.
var MaxFlags = func() Flag {
	var all Flag
	for _, e := range primitives {
		all |= e.flag
	}
	return all
}()

// ParseFlags ORs together the named flags. Names are case-insensitive and
// may carry the "MAGIC_" prefix used by the C headers.
func ParseFlags(names ...string) (Flag, error) {
	var f Flag
	for _, name := range names {
		key := strings.ToUpper(strings.TrimSpace(name))
		key = strings.TrimPrefix(key, "MAGIC_")

		bit, ok := byName[key]
		if !ok {
			return None, fmt.Errorf("%w: %q", ErrUnknownFlag, name)
		}
		f |= bit
	}
	return f, nil
}

// Flags decodes f into its primitive flags in ascending bit order. The
// result of decoding 0 is [None]. Bits outside MaxFlags are dropped.
func (f Flag) Flags() []Flag {
	if f == None {
		return []Flag{None}
	}

	var out []Flag
	for _, e := range primitives {
		if f&e.flag != 0 {
			out = append(out, e.flag)
		}
	}
	return out
}

// Names decodes f like Flags and returns the display names.
func (f Flag) Names() []string {
	return xslices.Map(f.Flags(), Flag.name)
}

func (f Flag) name() string {
	if f == None {
		return "NONE"
	}
	for _, e := range primitives {
		if e.flag == f {
			return e.name
		}
	}
	return fmt.Sprintf("0x%07x", int(f))
}

func (f Flag) String() string {
	if err := f.Validate(); err != nil {
		return fmt.Sprintf("Flag(%d)", int(f))
	}
	return strings.Join(f.Names(), "|")
}

// Has reports whether every bit of other is set in f.
func (f Flag) Has(other Flag) bool {
	return f&other == other
}

// Validate rejects negative masks and masks with bits outside MaxFlags.
func (f Flag) Validate() error {
	if f < 0 || f > MaxFlags || f&^MaxFlags != 0 {
		return newError("flags", ErrFlags, msgInvalidFlags, syscall.EINVAL)
	}
	return nil
}
