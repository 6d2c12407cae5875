package magic

import (
	"sync"
	"sync/atomic"

	"github.com/gobeaver/beaver-kit/config"
)

// Config carries the process-wide toggles of the binding. Sessions keep a
// pointer to their Config and read it at call time, so a change affects
// subsequent calls of sessions that are already open.
//
// Reads and writes are atomic, but a toggle changed while a call is in
// flight may or may not be observed by that call. The toggles are meant as
// coarse settings, not per-call parameters.
type Config struct {
	doNotAutoLoad    atomic.Bool
	doNotStopOnError atomic.Bool
}

// NewConfig returns a Config with the engine defaults: auto-load enabled and
// classification failures returned as errors.
func NewConfig() *Config {
	return &Config{}
}

// DoNotAutoLoad reports whether sessions skip loading the default database
// before their first classification.
func (c *Config) DoNotAutoLoad() bool { return c.doNotAutoLoad.Load() }

// SetDoNotAutoLoad sets the auto-load toggle.
func (c *Config) SetDoNotAutoLoad(v bool) { c.doNotAutoLoad.Store(v) }

// DoNotStopOnError reports whether a failed classification returns the
// engine's diagnostic text instead of an error.
func (c *Config) DoNotStopOnError() bool { return c.doNotStopOnError.Load() }

// SetDoNotStopOnError sets the stop-on-error toggle.
func (c *Config) SetDoNotStopOnError(v bool) { c.doNotStopOnError.Store(v) }

// Snapshot returns an independent copy of c. Changes to either side are not
// visible on the other.
func (c *Config) Snapshot() *Config {
	s := NewConfig()
	s.SetDoNotAutoLoad(c.DoNotAutoLoad())
	s.SetDoNotStopOnError(c.DoNotStopOnError())
	return s
}

// Settings is the environment form of Config.
type Settings struct {
	DoNotAutoLoad    bool   `env:"DO_NOT_AUTO_LOAD,default:false"`
	DoNotStopOnError bool   `env:"DO_NOT_STOP_ON_ERROR,default:false"`
	Library          string `env:"LIBRARY"` // Path to the libmagic shared library
}

// EnvPrefix is prepended to every Settings variable, e.g.
// GOMAGIC_DO_NOT_AUTO_LOAD.
const EnvPrefix = "GOMAGIC_"

// LoadSettings reads Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := config.Load(&s, config.LoadOptions{Prefix: EnvPrefix}); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Config builds a fresh Config from s.
func (s Settings) Config() *Config {
	c := NewConfig()
	c.SetDoNotAutoLoad(s.DoNotAutoLoad)
	c.SetDoNotStopOnError(s.DoNotStopOnError)
	return c
}

var (
	defaultOnce     sync.Once
	defaultConfig   *Config
	defaultSettings Settings
	defaultErr      error
)

func initDefaults() {
	defaultOnce.Do(func() {
		defaultSettings, defaultErr = LoadSettings()
		if defaultErr != nil {
			defaultSettings = Settings{}
		}
		defaultConfig = defaultSettings.Config()
	})
}

// DefaultConfig returns the process-wide Config used by sessions opened
// without WithConfig. It is seeded once from the environment; a malformed
// environment falls back to the engine defaults (see DefaultConfigErr).
func DefaultConfig() *Config {
	initDefaults()
	return defaultConfig
}

// DefaultConfigErr reports the error, if any, met while reading the
// environment for DefaultConfig.
func DefaultConfigErr() error {
	initDefaults()
	return defaultErr
}
