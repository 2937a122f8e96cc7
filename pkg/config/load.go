package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// TREECANVAS_STORE_BACKEND.
const EnvPrefix = "TREECANVAS"

// Overridable keys. Each maps to an environment variable and may be bound
// to a cobra flag with viper.BindPFlag.
const (
	KeyWorkspace        = "workspace"
	KeyStoreBackend     = "store.backend"
	KeyStorePath        = "store.path"
	KeyStoreURI         = "store.uri"
	KeyCacheBackend     = "cache.backend"
	KeyCacheDir         = "cache.dir"
	KeyCacheRedisURL    = "cache.redis_url"
	KeyCacheRedisAddr   = "cache.redis_addr"
	KeyPersistDebounce  = "persist.debounce"
	KeyMoveWithChildren = "drag.move_with_children"
	KeyServerAddr       = "server.addr"
	KeyLogLevel         = "log.level"
)

// NewViper returns a viper instance reading TREECANVAS_* variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the TOML file at path on top of the defaults and applies the
// overrides held by v. A missing file is not an error when path is the
// default path. v may be nil.
func Load(path string, v *viper.Viper) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if v != nil {
		if err := overlay(&cfg, v); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overlay(cfg *Config, v *viper.Viper) error {
	strs := map[string]*string{
		KeyWorkspace:      &cfg.Workspace,
		KeyStoreBackend:   &cfg.Store.Backend,
		KeyStorePath:      &cfg.Store.Path,
		KeyStoreURI:       &cfg.Store.URI,
		KeyCacheBackend:   &cfg.Cache.Backend,
		KeyCacheDir:       &cfg.Cache.Dir,
		KeyCacheRedisURL:  &cfg.Cache.RedisURL,
		KeyCacheRedisAddr: &cfg.Cache.RedisAddr,
		KeyServerAddr:     &cfg.Server.Addr,
		KeyLogLevel:       &cfg.Log.Level,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			if s := v.GetString(key); s != "" {
				*dst = s
			}
		}
	}
	if v.IsSet(KeyMoveWithChildren) {
		cfg.Drag.MoveWithChildren = v.GetBool(KeyMoveWithChildren)
	}
	if v.IsSet(KeyPersistDebounce) {
		d, err := time.ParseDuration(v.GetString(KeyPersistDebounce))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, KeyPersistDebounce, err)
		}
		cfg.Persist.Debounce = Duration(d)
	}
	return nil
}

// Encode returns cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Write saves cfg to path, creating the directory. An existing file is only
// replaced when overwrite is set.
func Write(path string, cfg Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, fs.ErrExist)
		}
	}
	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
