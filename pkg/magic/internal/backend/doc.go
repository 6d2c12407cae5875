// Package backend hosts the thin cgo layer that links the Go API to
// libmagic(3). The shared library is opened with dlopen(3) the first time a
// cookie is requested and every entry point is resolved with dlsym(3), so an
// engine that predates an optional function (magic_load_buffers,
// magic_getparam, magic_version, ...) is reported as ErrUnsupported instead
// of failing to link.
//
// The real implementation lives behind build tags so that the rest of the
// repository compiles without cgo; in that case every call returns
// ErrNotBuilt.
//
// A Cookie is NOT safe for concurrent use. Callers must serialise access.
package backend
