// Package cli implements the treecanvas command-line interface.
//
// Commands load a workspace from the configured store, apply one operation
// through a canvas session and persist the committed changes before they
// exit. The same session semantics back the HTTP API started by "serve".
//
// # Commands
//
//   - add, rm, rename, color: item lifecycle
//   - mv, connect, collapse, expand: hierarchy
//   - move, drag: position changes, optionally carrying the subtree
//   - layout: auto-layout of one or more subtrees
//   - show: the projected render graph as a table
//   - export: JSON, DOT, SVG, PNG or PDF
//   - browse: interactive outline
//   - serve: HTTP API
//   - config, cache, completion: housekeeping
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matzehuels/treecanvas/pkg/buildinfo"
	"github.com/matzehuels/treecanvas/pkg/cache"
	"github.com/matzehuels/treecanvas/pkg/canvas"
	"github.com/matzehuels/treecanvas/pkg/config"
	"github.com/matzehuels/treecanvas/pkg/pipeline"
	"github.com/matzehuels/treecanvas/pkg/store"
)

// appName is the binary name used in help text.
const appName = config.AppName

// annotationConfigOptional marks commands that run without the config
// file named by --config.
const annotationConfigOptional = "config-optional"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	cfgFile string
	verbose bool
	viper   *viper.Viper
	cfg     config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		viper:  config.NewViper(),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config returns the configuration loaded for the running command.
func (c *CLI) Config() config.Config { return c.cfg }

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "treecanvas lays out folders, notes and mind-maps on an infinite canvas",
		Long: `treecanvas keeps a hierarchy of folders, notes and mind-maps on a 2-D canvas.
It projects the hierarchy into a render graph, lays out subtrees automatically,
drags whole subtrees and refuses reparent moves that would form a cycle.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringP("workspace", "w", "", "workspace name")
	flags.String("store", "", "item store backend: file, sqlite, mongo, memory")
	flags.String("store-path", "", "workspace file or database path")
	flags.String("store-uri", "", "MongoDB connection URI")
	flags.String("cache", "", "artifact cache backend: file, memory, redis, none")
	for name, key := range map[string]string{
		"workspace":  config.KeyWorkspace,
		"store":      config.KeyStoreBackend,
		"store-path": config.KeyStorePath,
		"store-uri":  config.KeyStoreURI,
		"cache":      config.KeyCacheBackend,
	} {
		_ = c.viper.BindPFlag(key, flags.Lookup(name))
	}

	root.AddCommand(c.addCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.renameCommand())
	root.AddCommand(c.colorCommand())
	root.AddCommand(c.moveParentCommand())
	root.AddCommand(c.connectCommand())
	root.AddCommand(c.collapseCommand(true))
	root.AddCommand(c.collapseCommand(false))
	root.AddCommand(c.positionCommand())
	root.AddCommand(c.dragCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and attaches the logger to the command
// context.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.cfgFile, c.viper)
	switch {
	case errors.Is(err, fs.ErrNotExist) && configOptional(cmd):
		cfg = config.Default()
	case err != nil:
		return err
	}
	c.cfg = cfg

	level := LogInfo
	if parsed, err := log.ParseLevel(cfg.Log.Level); err == nil {
		level = parsed
	}
	if c.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, workspaceLogger(c.Logger, cfg.Workspace, cfg.Store.Backend)))
	return nil
}

func configOptional(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations[annotationConfigOptional] != "" {
			return true
		}
	}
	return false
}

// =============================================================================
// Factories
// =============================================================================

// openStore opens the configured item store, creating its directory for
// the file and sqlite backends.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	opts := c.cfg.StoreOptions()
	if (opts.Backend == store.BackendFile || opts.Backend == store.BackendSQLite) &&
		opts.Path != "" && opts.Path != ":memory:" {
		dir := opts.Path
		if filepath.Ext(dir) != "" {
			dir = filepath.Dir(dir)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	st, err := store.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", opts.Backend, err)
	}
	c.Logger.Debug("store opened", "backend", opts.Backend, "workspace", c.cfg.Workspace)
	return st, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) *pipeline.Runner {
	return pipeline.NewRunner(c.newCache(ctx, noCache), nil, c.Logger)
}

// newCache opens the configured cache. Failures degrade to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	cc, err := cache.Open(ctx, c.cfg.CacheOptions())
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "backend", c.cfg.Cache.Backend, "err", err)
		return cache.NewNullCache()
	}
	return cc
}

// pipelineOptions returns pipeline options seeded from the configuration.
func (c *CLI) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Layout:    c.cfg.Layout,
		Placement: c.cfg.Placement,
		Logger:    c.Logger,
	}
}

// sessionOptions returns canvas session options with the given callbacks.
func (c *CLI) sessionOptions(cb canvas.Callbacks) canvas.Options {
	opts := c.cfg.SessionOptions()
	opts.Callbacks = cb
	opts.Logger = c.Logger
	return opts
}
