package store

import (
	"context"
	"fmt"
	"path/filepath"
)

// Backend names accepted by [Open].
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Backends lists every supported backend.
var Backends = []string{BackendFile, BackendSQLite, BackendMongo, BackendMemory}

// Config selects and configures a backend.
type Config struct {
	Backend    string
	Path       string // file: workspace JSON; sqlite: database file
	URI        string // mongo
	Database   string // mongo
	Collection string // mongo
	Workspace  string
}

// Open creates the store described by cfg. An empty backend means file.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		path := cfg.Path
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, cfg.Workspace+".json")
		}
		return NewFileStore(path, cfg.Workspace)
	case BackendSQLite:
		path := cfg.Path
		if filepath.Ext(path) == "" && path != ":memory:" {
			path = filepath.Join(path, "treecanvas.db")
		}
		return NewSQLiteStore(path, cfg.Workspace)
	case BackendMongo:
		return NewMongoStore(ctx, MongoConfig{
			URI:        cfg.URI,
			Database:   cfg.Database,
			Collection: cfg.Collection,
			Workspace:  cfg.Workspace,
		})
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
