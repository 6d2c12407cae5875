//go:build !cgo || windows

package backend_test

import (
	"errors"
	"testing"

	"github.com/hsiuhsiu/go-magic/pkg/magic/internal/backend"
)

func TestStubNotBuilt(t *testing.T) {
	if err := backend.Bind(""); !errors.Is(err, backend.ErrNotBuilt) {
		t.Errorf("Bind() error = %v, want ErrNotBuilt", err)
	}
	if _, err := backend.Open(0); !errors.Is(err, backend.ErrNotBuilt) {
		t.Errorf("Open() error = %v, want ErrNotBuilt", err)
	}
	if _, err := backend.Version(); !errors.Is(err, backend.ErrNotBuilt) {
		t.Errorf("Version() error = %v, want ErrNotBuilt", err)
	}
}
