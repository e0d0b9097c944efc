// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Config is built once at startup and passed by value or pointer to
//   constructors; nothing reads it from package state.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// Environment and flag names shared by the loader and the CLI.
const (
	EnvPrefix     = "NOTECACHE_"
	EnvConfigFile = EnvPrefix + "CONFIG"

	KeyHost         = "host"
	KeyPort         = "port"
	KeyCache        = "cache"
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
	KeyMaxBodyBytes = "max_body_bytes"
	KeyWatch        = "watch"
)

const defaultMaxBodyBytes = 1 << 20

// Config contains process configuration.
type Config struct {
	// Host is the address the HTTP server binds to, e.g. "127.0.0.1".
	Host string `koanf:"host"`

	// Port is the TCP port, kept as a string as it arrives from flags and env.
	Port string `koanf:"port"`

	// CacheDir is the flat directory holding one <name>.txt file per note.
	CacheDir string `koanf:"cache"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// MaxBodyBytes caps PUT and POST request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// Watch enables the cache directory watcher.
	Watch bool `koanf:"watch"`
}

// New returns a Config holding defaults. Host, port and cache have no
// defaults: they must be supplied by file, env or flags.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		MaxBodyBytes: defaultMaxBodyBytes,
		Watch:        true,
	}
}

// Addr joins host and port into a listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Validate reports the first missing required option. Messages follow the
// wording the CLI has always printed.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Host) == "":
		return fmt.Errorf("%w: please, specify server address (host)", ErrInvalidConfig)
	case strings.TrimSpace(c.Port) == "":
		return fmt.Errorf("%w: please, specify server port number", ErrInvalidConfig)
	case strings.TrimSpace(c.CacheDir) == "":
		return fmt.Errorf("%w: please, specify the path to the directory with cached files", ErrInvalidConfig)
	}
	if _, err := net.LookupPort("tcp", c.Port); err != nil {
		return fmt.Errorf("%w: invalid port %q", ErrInvalidConfig, c.Port)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	}
	return nil
}
