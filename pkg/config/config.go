// Package config loads treecanvas settings.
//
// Settings come from three layers, later layers winning:
//
//  1. [Default]
//  2. a TOML file (default: $XDG_CONFIG_HOME/treecanvas/config.toml)
//  3. TREECANVAS_* environment variables and bound command-line flags,
//     applied through viper (see [Load])
//
// A minimal file:
//
//	workspace = "notes"
//
//	[store]
//	backend = "sqlite"
//
//	[layout]
//	children_per_row = 4
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/matzehuels/treecanvas/pkg/cache"
	"github.com/matzehuels/treecanvas/pkg/canvas"
	"github.com/matzehuels/treecanvas/pkg/layout"
	"github.com/matzehuels/treecanvas/pkg/store"
)

// AppName names the config, data and cache directories.
const AppName = "treecanvas"

// Defaults not owned by other packages.
const (
	DefaultWorkspace       = "default"
	DefaultServerAddr      = "127.0.0.1:7420"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultLogLevel        = "info"
)

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("invalid config")

// Duration is a time.Duration written as "300ms" in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) { return []byte(time.Duration(d).String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full configuration.
type Config struct {
	Workspace string `toml:"workspace"`

	Layout    layout.Options   `toml:"layout"`
	Placement canvas.Placement `toml:"placement"`
	Drag      DragConfig       `toml:"drag"`
	Store     StoreConfig      `toml:"store"`
	Cache     CacheConfig      `toml:"cache"`
	Persist   PersistConfig    `toml:"persist"`
	Server    ServerConfig     `toml:"server"`
	Log       LogConfig        `toml:"log"`
}

// DragConfig configures drag propagation.
type DragConfig struct {
	Threshold        float64 `toml:"threshold"`
	MoveWithChildren bool    `toml:"move_with_children"`
}

// StoreConfig selects the item store.
type StoreConfig struct {
	Backend    string `toml:"backend"`
	Path       string `toml:"path"`
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// CacheConfig selects the artifact cache.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisURL  string `toml:"redis_url"`
	RedisAddr string `toml:"redis_addr"`
	Prefix    string `toml:"prefix"`
}

// PersistConfig configures debounced writes.
type PersistConfig struct {
	Debounce Duration `toml:"debounce"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	c := Config{
		Workspace: DefaultWorkspace,
		Layout:    layout.DefaultOptions(),
		Placement: canvas.DefaultPlacement(),
		Drag:      DragConfig{Threshold: canvas.DefaultDragThreshold},
		Store:     StoreConfig{Backend: store.BackendFile, Path: DataDir()},
		Cache:     CacheConfig{Backend: cache.BackendFile, Dir: CacheDir(), Prefix: AppName + ":"},
		Persist:   PersistConfig{Debounce: Duration(store.DefaultDebounce)},
		Server:    ServerConfig{Addr: DefaultServerAddr, ShutdownTimeout: Duration(DefaultShutdownTimeout)},
		Log:       LogConfig{Level: DefaultLogLevel},
	}
	return c
}

var (
	cacheBackends = []string{cache.BackendFile, cache.BackendMemory, cache.BackendRedis, cache.BackendNone}
	logLevels     = []string{"debug", "info", "warn", "error"}
)

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Workspace == "" {
		return fmt.Errorf("%w: workspace must not be empty", ErrInvalid)
	}
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Drag.Threshold < 0 {
		return fmt.Errorf("%w: drag.threshold must not be negative", ErrInvalid)
	}
	if !slices.Contains(store.Backends, c.Store.Backend) {
		return fmt.Errorf("%w: unknown store.backend %q", ErrInvalid, c.Store.Backend)
	}
	if c.Store.Backend == store.BackendMongo && c.Store.URI == "" {
		return fmt.Errorf("%w: store.uri is required for the mongo backend", ErrInvalid)
	}
	if !slices.Contains(cacheBackends, c.Cache.Backend) {
		return fmt.Errorf("%w: unknown cache.backend %q", ErrInvalid, c.Cache.Backend)
	}
	if c.Cache.Backend == cache.BackendRedis && c.Cache.RedisURL == "" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("%w: cache.redis_addr or cache.redis_url is required for the redis backend", ErrInvalid)
	}
	if c.Persist.Debounce < 0 {
		return fmt.Errorf("%w: persist.debounce must not be negative", ErrInvalid)
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("%w: unknown log.level %q", ErrInvalid, c.Log.Level)
	}
	return nil
}

// StoreOptions converts the [store] section for store.Open.
func (c Config) StoreOptions() store.Config {
	return store.Config{
		Backend:    c.Store.Backend,
		Path:       c.Store.Path,
		URI:        c.Store.URI,
		Database:   c.Store.Database,
		Collection: c.Store.Collection,
		Workspace:  c.Workspace,
	}
}

// CacheOptions converts the [cache] section for cache.Open.
func (c Config) CacheOptions() cache.Config {
	return cache.Config{
		Backend:   c.Cache.Backend,
		Dir:       c.Cache.Dir,
		RedisURL:  c.Cache.RedisURL,
		RedisAddr: c.Cache.RedisAddr,
		Prefix:    c.Cache.Prefix,
	}
}

// SessionOptions returns canvas session options; callbacks and logger are
// left to the caller.
func (c Config) SessionOptions() canvas.Options {
	return canvas.Options{
		Layout:           c.Layout,
		Placement:        c.Placement,
		DragThreshold:    c.Drag.Threshold,
		MoveWithChildren: c.Drag.MoveWithChildren,
	}
}

// =============================================================================
// Paths
// =============================================================================

// ConfigDir returns $XDG_CONFIG_HOME/treecanvas (~/.config/treecanvas).
func ConfigDir() string { return xdgDir("XDG_CONFIG_HOME", ".config") }

// DataDir returns $XDG_DATA_HOME/treecanvas (~/.local/share/treecanvas).
func DataDir() string { return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")) }

// CacheDir returns $XDG_CACHE_HOME/treecanvas (~/.cache/treecanvas).
func CacheDir() string { return xdgDir("XDG_CACHE_HOME", ".cache") }

// DefaultPath returns the default config file path.
func DefaultPath() string { return filepath.Join(ConfigDir(), "config.toml") }

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, fallback, AppName)
}
