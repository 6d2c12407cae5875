package magic

import (
	"fmt"

	"github.com/hsiuhsiu/go-magic/pkg/magic/internal/backend"
)

// versionFunc is swapped in tests.
var versionFunc = func() (int, error) {
	if err := bindLibrary(); err != nil {
		return 0, err
	}
	return backend.Version()
}

// Version returns the engine version as an integer, e.g. 545 for 5.45.
// Engines without magic_version fail with ErrNotImplemented.
func Version() (int, error) {
	v, err := versionFunc()
	if err != nil {
		return 0, remapError("version", ErrMagic, err)
	}
	return v, nil
}

// VersionParts splits Version into its major and minor components.
func VersionParts() (major, minor int, err error) {
	v, err := Version()
	if err != nil {
		return 0, 0, err
	}
	return v / 100, v % 100, nil
}

// VersionString formats Version as "major.minor", e.g. "5.45".
func VersionString() (string, error) {
	major, minor, err := VersionParts()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.%02d", major, minor), nil
}
