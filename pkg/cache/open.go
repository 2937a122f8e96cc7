package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by [Open].
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Config selects and configures a cache backend.
type Config struct {
	Backend   string
	Dir       string
	RedisURL  string
	RedisAddr string
	Prefix    string
}

// Open creates the cache described by cfg. An empty backend disables
// caching.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("file cache needs a directory")
		}
		return NewFileCache(cfg.Dir)
	case BackendMemory:
		return NewMemoryCache(), nil
	case BackendRedis:
		return NewRedisCache(ctx, RedisConfig{URL: cfg.RedisURL, Addr: cfg.RedisAddr, Prefix: cfg.Prefix})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
