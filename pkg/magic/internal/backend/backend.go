//go:build cgo && !windows

package backend

/*
#cgo linux LDFLAGS: -ldl

#include <dlfcn.h>
#include <errno.h>
#include <fcntl.h>
#include <locale.h>
#include <stdio.h>
#include <stdlib.h>
#include <string.h>
#include <unistd.h>
#if defined(__APPLE__) || defined(__FreeBSD__)
#include <xlocale.h>
#endif

typedef struct magic_set *magic_t;

typedef magic_t (*gm_open_fn)(int);
typedef void (*gm_close_fn)(magic_t);
typedef const char *(*gm_error_fn)(magic_t);
typedef int (*gm_errno_fn)(magic_t);
typedef const char *(*gm_file_fn)(magic_t, const char *);
typedef const char *(*gm_buffer_fn)(magic_t, const void *, size_t);
typedef const char *(*gm_descriptor_fn)(magic_t, int);
typedef int (*gm_setflags_fn)(magic_t, int);
typedef int (*gm_getflags_fn)(magic_t);
typedef int (*gm_path_fn)(magic_t, const char *);
typedef int (*gm_load_buffers_fn)(magic_t, void **, size_t *, size_t);
typedef int (*gm_version_fn)(void);
typedef int (*gm_getparam_fn)(magic_t, int, void *);
typedef int (*gm_setparam_fn)(magic_t, int, const void *);
typedef const char *(*gm_getpath_fn)(const char *, int);

enum {
	GM_CAP_GETFLAGS     = 1 << 0,
	GM_CAP_LOAD_BUFFERS = 1 << 1,
	GM_CAP_PARAMS       = 1 << 2,
	GM_CAP_VERSION      = 1 << 3,
	GM_CAP_GETPATH      = 1 << 4,
};

static struct {
	void *handle;
	gm_open_fn open;
	gm_close_fn close;
	gm_error_fn error;
	gm_errno_fn get_errno;
	gm_file_fn file;
	gm_buffer_fn buffer;
	gm_descriptor_fn descriptor;
	gm_setflags_fn setflags;
	gm_getflags_fn getflags;
	gm_path_fn load;
	gm_path_fn check;
	gm_path_fn compile;
	gm_load_buffers_fn load_buffers;
	gm_version_fn version;
	gm_getparam_fn getparam;
	gm_setparam_fn setparam;
	gm_getpath_fn getpath;
} gm;

static int gm_bind(const char *name) {
	void *h = dlopen(name, RTLD_NOW | RTLD_LOCAL);
	if (h == NULL)
		return -1;

	gm.open = (gm_open_fn)dlsym(h, "magic_open");
	gm.close = (gm_close_fn)dlsym(h, "magic_close");
	gm.error = (gm_error_fn)dlsym(h, "magic_error");
	gm.get_errno = (gm_errno_fn)dlsym(h, "magic_errno");
	gm.file = (gm_file_fn)dlsym(h, "magic_file");
	gm.buffer = (gm_buffer_fn)dlsym(h, "magic_buffer");
	gm.descriptor = (gm_descriptor_fn)dlsym(h, "magic_descriptor");
	gm.setflags = (gm_setflags_fn)dlsym(h, "magic_setflags");
	gm.getflags = (gm_getflags_fn)dlsym(h, "magic_getflags");
	gm.load = (gm_path_fn)dlsym(h, "magic_load");
	gm.check = (gm_path_fn)dlsym(h, "magic_check");
	gm.compile = (gm_path_fn)dlsym(h, "magic_compile");
	gm.load_buffers = (gm_load_buffers_fn)dlsym(h, "magic_load_buffers");
	gm.version = (gm_version_fn)dlsym(h, "magic_version");
	gm.getparam = (gm_getparam_fn)dlsym(h, "magic_getparam");
	gm.setparam = (gm_setparam_fn)dlsym(h, "magic_setparam");
	gm.getpath = (gm_getpath_fn)dlsym(h, "magic_getpath");

	if (gm.open == NULL || gm.close == NULL || gm.error == NULL ||
	    gm.get_errno == NULL || gm.file == NULL || gm.buffer == NULL ||
	    gm.descriptor == NULL || gm.setflags == NULL || gm.load == NULL ||
	    gm.check == NULL || gm.compile == NULL) {
		dlclose(h);
		memset(&gm, 0, sizeof(gm));
		return -2;
	}

	gm.handle = h;
	return 0;
}

static int gm_caps(void) {
	int caps = 0;
	if (gm.getflags != NULL)
		caps |= GM_CAP_GETFLAGS;
	if (gm.load_buffers != NULL)
		caps |= GM_CAP_LOAD_BUFFERS;
	if (gm.getparam != NULL && gm.setparam != NULL)
		caps |= GM_CAP_PARAMS;
	if (gm.version != NULL)
		caps |= GM_CAP_VERSION;
	if (gm.getpath != NULL)
		caps |= GM_CAP_GETPATH;
	return caps;
}

// Engine output must not depend on the caller's locale. uselocale(3) only
// affects the calling thread, which cgo pins for the duration of the call.
typedef struct {
	locale_t c;
	locale_t old;
} gm_locale;

static void gm_locale_enter(gm_locale *l) {
	l->old = (locale_t)0;
	l->c = newlocale(LC_ALL_MASK, "C", (locale_t)0);
	if (l->c != (locale_t)0)
		l->old = uselocale(l->c);
}

static void gm_locale_leave(gm_locale *l) {
	int saved = errno;
	if (l->c != (locale_t)0) {
		uselocale(l->old);
		freelocale(l->c);
	}
	errno = saved;
}

static magic_t gm_open(int flags) {
	return gm.open(flags);
}

static void gm_close(magic_t m) {
	gm.close(m);
}

static const char *gm_error(magic_t m) {
	return gm.error(m);
}

static int gm_errno(magic_t m) {
	return gm.get_errno(m);
}

static int gm_setflags(magic_t m, int flags) {
	return gm.setflags(m, flags);
}

static int gm_getflags(magic_t m) {
	if (gm.getflags == NULL) {
		errno = ENOSYS;
		return -1;
	}
	return gm.getflags(m);
}

static int gm_load(magic_t m, const char *path) {
	gm_locale l;
	int rv;
	gm_locale_enter(&l);
	rv = gm.load(m, path);
	gm_locale_leave(&l);
	return rv;
}

static int gm_check(magic_t m, const char *path) {
	gm_locale l;
	int rv;
	gm_locale_enter(&l);
	rv = gm.check(m, path);
	gm_locale_leave(&l);
	return rv;
}

static int gm_compile(magic_t m, const char *path) {
	gm_locale l;
	int rv;
	gm_locale_enter(&l);
	rv = gm.compile(m, path);
	gm_locale_leave(&l);
	return rv;
}

static int gm_load_buffers(magic_t m, void **bufs, size_t *sizes, size_t n) {
	gm_locale l;
	int rv;
	if (gm.load_buffers == NULL) {
		errno = ENOSYS;
		return -1;
	}
	gm_locale_enter(&l);
	rv = gm.load_buffers(m, bufs, sizes, n);
	gm_locale_leave(&l);
	return rv;
}

static const char *gm_file(magic_t m, const char *path) {
	gm_locale l;
	const char *rv;
	gm_locale_enter(&l);
	rv = gm.file(m, path);
	gm_locale_leave(&l);
	return rv;
}

static const char *gm_buffer(magic_t m, const void *buf, size_t n) {
	gm_locale l;
	const char *rv;
	gm_locale_enter(&l);
	rv = gm.buffer(m, buf, n);
	gm_locale_leave(&l);
	return rv;
}

static const char *gm_descriptor(magic_t m, int fd) {
	gm_locale l;
	const char *rv;
	gm_locale_enter(&l);
	rv = gm.descriptor(m, fd);
	gm_locale_leave(&l);
	return rv;
}

static int gm_version(void) {
	if (gm.version == NULL) {
		errno = ENOSYS;
		return -1;
	}
	return gm.version();
}

static int gm_getparam(magic_t m, int param, size_t *value) {
	if (gm.getparam == NULL) {
		errno = ENOSYS;
		return -1;
	}
	return gm.getparam(m, param, value);
}

static int gm_setparam(magic_t m, int param, size_t value) {
	if (gm.setparam == NULL) {
		errno = ENOSYS;
		return -1;
	}
	return gm.setparam(m, param, &value);
}

static const char *gm_getpath(void) {
	if (gm.getpath == NULL)
		return NULL;
	return gm.getpath(NULL, 0);
}

// Redirect stderr to /dev/null, returning the saved descriptor or -1.
static int gm_quiet_begin(void) {
	int saved, devnull;

	fflush(stderr);
	saved = dup(STDERR_FILENO);
	if (saved < 0)
		return -1;

	devnull = open("/dev/null", O_WRONLY | O_APPEND);
	if (devnull < 0) {
		close(saved);
		return -1;
	}

	if (dup2(devnull, STDERR_FILENO) < 0) {
		close(devnull);
		close(saved);
		return -1;
	}

	close(devnull);
	return saved;
}

static void gm_quiet_end(int saved) {
	if (saved < 0)
		return;
	fflush(stderr);
	dup2(saved, STDERR_FILENO);
	close(saved);
	clearerr(stderr);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"
	"unsafe"
)

var defaultLibraries = []string{
	"libmagic.so.1",
	"libmagic.so",
	"libmagic.1.dylib",
	"libmagic.dylib",
}

var (
	bindMu sync.Mutex
	bound  bool
	caps   int

	// stderrMu serialises the process-wide stderr swap performed around
	// load, check and compile.
	stderrMu sync.Mutex
)

// Bind opens the shared library. An empty name tries the platform defaults.
// Once a library is bound later calls are no-ops, whatever name they pass.
func Bind(library string) error {
	bindMu.Lock()
	defer bindMu.Unlock()

	if bound {
		return nil
	}

	candidates := defaultLibraries
	if library != "" {
		candidates = []string{library}
	}

	for _, name := range candidates {
		cname := C.CString(name)
		rc := C.gm_bind(cname)
		C.free(unsafe.Pointer(cname))

		switch rc {
		case 0:
			bound = true
			caps = int(C.gm_caps())
			return nil
		case -2:
			return fmt.Errorf("%w: %s lacks mandatory symbols", ErrLibraryNotFound, name)
		}
	}

	return fmt.Errorf("%w: tried %s", ErrLibraryNotFound, strings.Join(candidates, ", "))
}

func capable(c int) bool {
	bindMu.Lock()
	defer bindMu.Unlock()
	return caps&c != 0
}

// Cookie wraps a magic_t.
type Cookie struct {
	ptr   C.magic_t
	flags int

	// bufs holds the C copies handed to magic_load_buffers; libmagic
	// references them until the next load or magic_close.
	bufs []unsafe.Pointer
}

// Open binds the default library if needed and returns a new cookie.
func Open(flags int) (*Cookie, error) {
	if err := Bind(""); err != nil {
		return nil, err
	}

	ptr, err := C.gm_open(C.int(flags))
	if ptr == nil {
		return nil, &Failure{Message: "failed to initialize Magic library", Errno: errnoOf(err, syscall.ENOMEM)}
	}

	return &Cookie{ptr: ptr, flags: flags}, nil
}

// Version returns magic_version().
func Version() (int, error) {
	if err := Bind(""); err != nil {
		return 0, err
	}
	if !capable(C.GM_CAP_VERSION) {
		return 0, ErrUnsupported
	}
	return int(C.gm_version()), nil
}

// Close releases the cookie. It is safe to call more than once.
func (c *Cookie) Close() {
	if c.ptr != nil {
		C.gm_close(c.ptr)
		c.ptr = nil
	}
	c.release()
}

func (c *Cookie) release() {
	for _, p := range c.bufs {
		C.free(p)
	}
	c.bufs = nil
}

// SetFlags calls magic_setflags.
func (c *Cookie) SetFlags(flags int) error {
	rc, err := C.gm_setflags(c.ptr, C.int(flags))
	if rc < 0 {
		return &Failure{Message: "unknown or invalid flag specified", Errno: errnoOf(err, syscall.EINVAL)}
	}
	c.flags = flags
	return nil
}

// Flags calls magic_getflags.
func (c *Cookie) Flags() (int, error) {
	if !capable(C.GM_CAP_GETFLAGS) {
		return 0, ErrUnsupported
	}
	return int(C.gm_getflags(c.ptr)), nil
}

// Load calls magic_load with the paths joined by the list separator; no
// paths selects the engine default, which honours $MAGIC.
func (c *Cookie) Load(paths []string) error {
	return c.pathCall(paths, func(p *C.char) (C.int, error) {
		rc, err := C.gm_load(c.ptr, p)
		return rc, err
	}, true)
}

// Check calls magic_check.
func (c *Cookie) Check(paths []string) error {
	return c.pathCall(paths, func(p *C.char) (C.int, error) {
		rc, err := C.gm_check(c.ptr, p)
		return rc, err
	}, false)
}

// Compile calls magic_compile.
func (c *Cookie) Compile(paths []string) error {
	return c.pathCall(paths, func(p *C.char) (C.int, error) {
		rc, err := C.gm_compile(c.ptr, p)
		return rc, err
	}, false)
}

func (c *Cookie) pathCall(paths []string, fn func(*C.char) (C.int, error), replaces bool) error {
	var cpath *C.char
	if len(paths) > 0 {
		cpath = C.CString(strings.Join(paths, string(os.PathListSeparator)))
		defer C.free(unsafe.Pointer(cpath))
	}

	var (
		rc  C.int
		err error
	)
	c.quietly(func() {
		rc, err = fn(cpath)
	})

	if replaces {
		// The engine dropped its previous database either way.
		c.release()
	}

	if rc < 0 {
		return c.failure(err)
	}
	return nil
}

// LoadBuffers calls magic_load_buffers with C copies of bufs.
func (c *Cookie) LoadBuffers(bufs [][]byte) error {
	if !capable(C.GM_CAP_LOAD_BUFFERS) {
		return ErrUnsupported
	}

	n := len(bufs)
	ptrs := unsafe.Slice((*unsafe.Pointer)(C.malloc(C.size_t(n+1)*C.size_t(unsafe.Sizeof(unsafe.Pointer(nil))))), n+1)
	sizes := unsafe.Slice((*C.size_t)(C.malloc(C.size_t(n+1)*C.size_t(unsafe.Sizeof(C.size_t(0))))), n+1)
	defer C.free(unsafe.Pointer(&ptrs[0]))
	defer C.free(unsafe.Pointer(&sizes[0]))

	copies := make([]unsafe.Pointer, 0, n)
	for i, b := range bufs {
		p := C.CBytes(b)
		copies = append(copies, p)
		ptrs[i] = p
		sizes[i] = C.size_t(len(b))
	}

	var (
		rc  C.int
		err error
	)
	c.quietly(func() {
		rc, err = C.gm_load_buffers(c.ptr, &ptrs[0], &sizes[0], C.size_t(n))
	})

	c.release()
	if rc < 0 {
		for _, p := range copies {
			C.free(p)
		}
		return c.failure(err)
	}

	c.bufs = copies
	return nil
}

// File calls magic_file.
func (c *Cookie) File(path string) (string, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	r, err := C.gm_file(c.ptr, cpath)
	if r == nil {
		return "", c.failure(err)
	}
	return C.GoString(r), nil
}

var empty [1]byte

// Buffer calls magic_buffer.
func (c *Cookie) Buffer(data []byte) (string, error) {
	p := unsafe.Pointer(&empty[0])
	if len(data) > 0 {
		p = unsafe.Pointer(&data[0])
	}

	r, err := C.gm_buffer(c.ptr, p, C.size_t(len(data)))
	if r == nil {
		return "", c.failure(err)
	}
	return C.GoString(r), nil
}

// Descriptor calls magic_descriptor. The descriptor is not closed.
func (c *Cookie) Descriptor(fd int) (string, error) {
	r, err := C.gm_descriptor(c.ptr, C.int(fd))
	if r == nil {
		return "", c.failure(err)
	}
	return C.GoString(r), nil
}

// SupportsParams reports whether the bound library exports
// magic_getparam and magic_setparam.
func (c *Cookie) SupportsParams() bool {
	return capable(C.GM_CAP_PARAMS)
}

// Param calls magic_getparam.
func (c *Cookie) Param(id int) (uint64, error) {
	if !capable(C.GM_CAP_PARAMS) {
		return 0, ErrUnsupported
	}

	var v C.size_t
	rc, err := C.gm_getparam(c.ptr, C.int(id), &v)
	if rc < 0 {
		return 0, &Failure{Message: "unknown or invalid parameter specified", Errno: errnoOf(err, syscall.EINVAL)}
	}
	return uint64(v), nil
}

// SetParam calls magic_setparam.
func (c *Cookie) SetParam(id int, value uint64) error {
	if !capable(C.GM_CAP_PARAMS) {
		return ErrUnsupported
	}

	rc, err := C.gm_setparam(c.ptr, C.int(id), C.size_t(value))
	if rc < 0 {
		return &Failure{Message: "unknown or invalid parameter specified", Errno: errnoOf(err, syscall.EINVAL)}
	}
	return nil
}

// Path returns magic_getpath(NULL, 0), the default database search path.
func (c *Cookie) Path() string {
	if !capable(C.GM_CAP_GETPATH) {
		return ""
	}
	if p := C.gm_getpath(); p != nil {
		return C.GoString(p)
	}
	return ""
}

func (c *Cookie) quietly(fn func()) {
	if c.flags&debugFlag != 0 {
		fn()
		return
	}

	stderrMu.Lock()
	defer stderrMu.Unlock()

	saved := C.gm_quiet_begin()
	defer C.gm_quiet_end(saved)

	fn()
}

func (c *Cookie) failure(callErr error) error {
	var msg string
	if p := C.gm_error(c.ptr); p != nil {
		msg = C.GoString(p)
	}

	errno := syscall.Errno(C.gm_errno(c.ptr))
	if errno == 0 {
		errno = errnoOf(callErr, 0)
	}

	if msg == "" {
		if errno != 0 {
			msg = errno.Error()
		} else {
			msg = "unknown error"
		}
	}

	return &Failure{Message: msg, Errno: errno}
}

func errnoOf(err error, fallback syscall.Errno) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		return errno
	}
	return fallback
}
