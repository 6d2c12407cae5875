package magic

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"syscall"

	"github.com/siderolabs/go-pointer"

	"github.com/hsiuhsiu/go-magic/pkg/magic/internal/backend"
	"github.com/hsiuhsiu/go-magic/pkg/magic/logging"
)

// engine is the native surface a Session drives. *backend.Cookie is the
// production implementation.
type engine interface {
	Close()
	SetFlags(flags int) error
	Flags() (int, error)
	Load(paths []string) error
	Check(paths []string) error
	Compile(paths []string) error
	LoadBuffers(bufs [][]byte) error
	File(path string) (string, error)
	Buffer(data []byte) (string, error)
	Descriptor(fd int) (string, error)
	SupportsParams() bool
	Param(id int) (uint64, error)
	SetParam(id int, value uint64) error
	Path() string
}

var _ engine = (*backend.Cookie)(nil)

// Option configures a Session at Open time.
type Option func(*options)

type options struct {
	flags     *Flag
	databases []string
	load      bool
	config    *Config
	stopOnErr *bool
	logger    logging.Logger
	setup     []func(*Session) error
	open      func(flags int) (engine, error)
}

// WithFlags sets the session flags right after opening.
func WithFlags(f Flag) Option {
	return func(o *options) { o.flags = pointer.To(f) }
}

// WithDatabase loads the given databases right after opening. Calling it
// with no paths loads the engine default.
func WithDatabase(paths ...string) Option {
	return func(o *options) {
		o.databases = append(o.databases, paths...)
		o.load = true
	}
}

// WithConfig binds the session to c instead of DefaultConfig().
func WithConfig(c *Config) Option {
	return func(o *options) { o.config = c }
}

// WithDoNotStopOnError overrides the DoNotStopOnError toggle for this
// session only. The other toggles still come from the session's Config.
func WithDoNotStopOnError(v bool) Option {
	return func(o *options) { o.stopOnErr = pointer.To(v) }
}

// WithLogger sets the session logger. The default wraps slog.Default().
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSetup registers a callback run on the new session after flags and
// databases are applied. A failing callback closes the session.
func WithSetup(fn func(*Session) error) Option {
	return func(o *options) { o.setup = append(o.setup, fn) }
}

func withEngine(open func(flags int) (engine, error)) Option {
	return func(o *options) { o.open = open }
}

func openEngine(flags int) (engine, error) {
	if err := bindLibrary(); err != nil {
		return nil, err
	}
	c, err := backend.Open(flags)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// bindLibrary loads libmagic, honouring GOMAGIC_LIBRARY.
func bindLibrary() error {
	initDefaults()
	return backend.Bind(defaultSettings.Library)
}

// Session is one libmagic cookie together with the databases loaded into it.
//
// A Session is not safe for concurrent use. Independent sessions do not
// interact, so the usual pattern is one Session per goroutine.
type Session struct {
	engine engine
	config *Config
	logger logging.Logger

	// doNotStopOnError overrides config when set.
	doNotStopOnError *bool

	flags  Flag
	pushed *Flag
	paths  []string
	loaded bool
}

// Open creates a session with the engine default flags. Nothing is loaded
// until Load, LoadBuffers or the first classification.
func Open(opts ...Option) (*Session, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.config == nil {
		o.config = DefaultConfig()
	}
	if o.logger == nil {
		o.logger = logging.New(nil)
	}
	if o.open == nil {
		o.open = openEngine
	}

	eng, err := o.open(int(None))
	if err != nil {
		return nil, remapError("open", ErrMagic, err)
	}

	s := &Session{
		engine: eng,
		config: o.config,
		logger: o.logger,
		pushed: pointer.To(None),

		doNotStopOnError: o.stopOnErr,
	}
	runtime.SetFinalizer(s, (*Session).Close)

	if err := s.setup(&o); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Session) setup(o *options) error {
	if o.flags != nil {
		if err := s.SetFlags(*o.flags); err != nil {
			return err
		}
	}
	if o.load {
		if err := s.Load(o.databases...); err != nil {
			return err
		}
	}
	for _, fn := range o.setup {
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the cookie and any database buffers. It is idempotent and
// always returns nil.
func (s *Session) Close() error {
	if s.engine != nil {
		s.engine.Close()
		s.engine = nil
	}
	s.paths = nil
	s.loaded = false
	runtime.SetFinalizer(s, nil)
	return nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.engine == nil
}

func (s *Session) String() string {
	if s.Closed() {
		return fmt.Sprintf("magic.Session(%p) (closed)", s)
	}
	return fmt.Sprintf("magic.Session(%p)", s)
}

func (s *Session) ensureOpen(op string) error {
	if s.engine == nil {
		return errNotOpen(op)
	}
	return nil
}

// DoNotStopOnError reports whether failures are returned as results for
// this session: the session override if one was set, else the Config.
func (s *Session) DoNotStopOnError() bool {
	if s.doNotStopOnError != nil {
		return *s.doNotStopOnError
	}
	return s.config.DoNotStopOnError()
}

// SetDoNotStopOnError overrides the Config's DoNotStopOnError toggle for
// this session.
func (s *Session) SetDoNotStopOnError(v bool) {
	s.doNotStopOnError = pointer.To(v)
}

// ResetDoNotStopOnError drops the session override; the Config's toggle
// applies again.
func (s *Session) ResetDoNotStopOnError() {
	s.doNotStopOnError = nil
}

// effective is the mask pushed to the engine: the stored flags, plus ErrorFlag
// unless failures are to be swallowed.
func (s *Session) effective() Flag {
	f := s.flags
	if !s.DoNotStopOnError() {
		f |= ErrorFlag
	}
	return f
}

// sync pushes the effective mask if the engine holds a different one.
func (s *Session) sync(op string) error {
	defer runtime.KeepAlive(s)

	f := s.effective()
	if s.pushed != nil && *s.pushed == f {
		return nil
	}
	if err := s.engine.SetFlags(int(f)); err != nil {
		s.pushed = nil
		return remapError(op, ErrFlags, err)
	}
	s.pushed = pointer.To(f)
	return nil
}

// Flags returns the effective flags. ErrorFlag is included unless
// DoNotStopOnError is in effect.
func (s *Session) Flags() (Flag, error) {
	if err := s.ensureOpen("flags"); err != nil {
		return None, err
	}
	if err := s.sync("flags"); err != nil {
		return None, err
	}

	f, err := s.engine.Flags()
	runtime.KeepAlive(s)
	if errors.Is(err, backend.ErrUnsupported) {
		return s.effective(), nil
	}
	if err != nil {
		return None, remapError("flags", ErrFlags, err)
	}
	return Flag(f), nil
}

// SetFlags replaces the stored flags. Masks outside [0, MaxFlags] fail with
// ErrFlags before reaching the engine.
func (s *Session) SetFlags(f Flag) error {
	if err := s.ensureOpen("set_flags"); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Op = "set_flags"
		}
		return err
	}

	prev := s.flags
	s.flags = f
	if err := s.sync("set_flags"); err != nil {
		s.flags = prev
		return err
	}

	s.logger.Debug(context.Background(), "magic flags set", "flags", f.String())
	return nil
}

// Load replaces the loaded databases with paths. No paths loads the engine
// default, which honours the MAGIC environment variable.
//
// When the Config has DoNotStopOnError set, an engine failure is logged and
// Load returns nil with nothing loaded.
func (s *Session) Load(paths ...string) error {
	const op = "load"
	if err := s.ensureOpen(op); err != nil {
		return err
	}
	if err := checkPaths(op, paths); err != nil {
		return err
	}
	if err := s.sync(op); err != nil {
		return err
	}

	err := s.engine.Load(paths)
	runtime.KeepAlive(s)
	if err != nil {
		s.paths, s.loaded = nil, false
		return s.tolerate(op, remapError(op, ErrMagic, err))
	}

	if len(paths) == 0 {
		s.paths = filepath.SplitList(s.engine.Path())
		runtime.KeepAlive(s)
	} else {
		s.paths = slices.Clone(paths)
	}
	s.loaded = true

	s.logger.Debug(context.Background(), "magic database loaded", "paths", s.paths)
	return nil
}

// LoadBuffers replaces the loaded databases with compiled databases held in
// memory. The buffers are copied; the copies live until the next load or
// Close. Engines older than 5.21 fail with ErrNotImplemented.
func (s *Session) LoadBuffers(bufs ...[]byte) error {
	const op = "load_buffers"
	if err := s.ensureOpen(op); err != nil {
		return err
	}
	if len(bufs) == 0 {
		return argumentError(op, "no buffers given")
	}
	for i, b := range bufs {
		if len(b) == 0 {
			return argumentError(op, "buffer %d is empty", i)
		}
	}
	if err := s.sync(op); err != nil {
		return err
	}

	err := s.engine.LoadBuffers(bufs)
	runtime.KeepAlive(s)
	if errors.Is(err, backend.ErrUnsupported) {
		return errNotImplemented(op)
	}
	if err != nil {
		s.paths, s.loaded = nil, false
		return s.tolerate(op, remapError(op, ErrMagic, err))
	}

	s.paths = nil
	s.loaded = true

	s.logger.Debug(context.Background(), "magic database loaded from memory", "buffers", len(bufs))
	return nil
}

// tolerate swallows engine failures when DoNotStopOnError is set.
func (s *Session) tolerate(op string, err error) error {
	if !s.DoNotStopOnError() || !errors.Is(err, ErrMagic) {
		return err
	}
	s.logger.Warn(context.Background(), "magic failure ignored", "op", op, "error", err.Error())
	return nil
}

// Loaded reports whether a database is loaded.
func (s *Session) Loaded() (bool, error) {
	if err := s.ensureOpen("loaded"); err != nil {
		return false, err
	}
	return s.loaded, nil
}

// Paths returns the loaded database paths. Before anything is loaded, and
// after LoadBuffers, it returns the engine's default search path.
func (s *Session) Paths() ([]string, error) {
	if err := s.ensureOpen("paths"); err != nil {
		return nil, err
	}
	if len(s.paths) > 0 {
		return slices.Clone(s.paths), nil
	}
	paths := filepath.SplitList(s.engine.Path())
	runtime.KeepAlive(s)
	return paths, nil
}

// Parameter returns the current value of p.
func (s *Session) Parameter(p Param) (int, error) {
	const op = "parameter"
	if err := s.checkParam(op, p); err != nil {
		return 0, err
	}

	v, err := s.engine.Param(int(p))
	runtime.KeepAlive(s)
	if err != nil {
		return 0, paramError(op, err)
	}
	return int(v), nil
}

// SetParameter sets p to v. Values below zero or above p.Max() fail with
// ErrParameter before reaching the engine.
func (s *Session) SetParameter(p Param, v int) error {
	const op = "set_parameter"
	if err := s.checkParam(op, p); err != nil {
		return err
	}
	if !p.checkValue(v) {
		return newError(op, ErrParameter, msgInvalidValue, syscall.EOVERFLOW)
	}

	err := s.engine.SetParam(int(p), uint64(v))
	runtime.KeepAlive(s)
	if err != nil {
		return paramError(op, err)
	}

	s.logger.Debug(context.Background(), "magic parameter set", "param", p.String(), "value", v)
	return nil
}

func (s *Session) checkParam(op string, p Param) error {
	if err := s.ensureOpen(op); err != nil {
		return err
	}
	if !p.Valid() {
		return newError(op, ErrParameter, msgInvalidParam, syscall.EINVAL)
	}
	if !s.engine.SupportsParams() {
		return errNotImplemented(op)
	}
	return nil
}

func paramError(op string, err error) error {
	var failure *backend.Failure
	if errors.As(err, &failure) {
		if failure.Errno == syscall.EOVERFLOW {
			return newError(op, ErrParameter, msgInvalidValue, syscall.EOVERFLOW)
		}
		return newError(op, ErrParameter, msgInvalidParam, syscall.EINVAL)
	}
	return remapError(op, ErrParameter, err)
}

// Check validates the given source databases, or the default one when no
// paths are given. The engine's diagnostics go to stderr only when the
// Debug flag is set.
func (s *Session) Check(paths ...string) error {
	return s.pathOp("check", paths, s.engineCheck)
}

// Valid reports whether Check succeeds.
func (s *Session) Valid(paths ...string) bool {
	return s.Check(paths...) == nil
}

// Compile compiles the given source databases. Each output is written to the
// current directory as <basename>.mgc.
func (s *Session) Compile(paths ...string) error {
	return s.pathOp("compile", paths, s.engineCompile)
}

func (s *Session) engineCheck(paths []string) error   { return s.engine.Check(paths) }
func (s *Session) engineCompile(paths []string) error { return s.engine.Compile(paths) }

func (s *Session) pathOp(op string, paths []string, fn func([]string) error) error {
	if err := s.ensureOpen(op); err != nil {
		return err
	}
	if err := checkPaths(op, paths); err != nil {
		return err
	}
	if err := s.sync(op); err != nil {
		return err
	}

	err := fn(paths)
	runtime.KeepAlive(s)
	return remapError(op, ErrMagic, err)
}

func checkPaths(op string, paths []string) error {
	for _, p := range paths {
		if p == "" {
			return argumentError(op, "empty path")
		}
		if strings.IndexByte(p, 0) >= 0 {
			return argumentError(op, "path contains a NUL byte")
		}
	}
	return nil
}
