// Package server exposes a canvas session over HTTP.
//
// The server is the transport between a render surface (a browser canvas,
// an editor plugin) and the core: the surface pushes gestures (moves,
// connects, collapse toggles, viewport changes) and reads back the render
// graph. Committed changes flow through a store.Persister so rapid drags
// produce one write per item per debounce window.
//
// Routes:
//
//	GET    /healthz
//	GET    /version
//	GET    /graph                   ?hidden=true includes collapsed subtrees
//	POST   /items
//	PATCH  /items/{id}
//	DELETE /items/{id}              ?cascade=true deletes the subtree
//	POST   /items/{id}/move         {"to":{x,y}} or {"by":{x,y}}, "end":true commits
//	POST   /items/{id}/parent       {"parent":"folder-id"}
//	POST   /items/{id}/collapse     {"collapsed":true}, empty body toggles
//	POST   /items/{id}/size         {"width":..,"height":..}
//	POST   /connect                 canvas.ConnectGesture
//	PUT    /viewport                canvas.Viewport
//	POST   /layout                  every root with children
//	POST   /layout/{id}
//	GET    /export.{format}         json, dot, svg, png, pdf
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/treecanvas/pkg/canvas"
	"github.com/matzehuels/treecanvas/pkg/graph"
	"github.com/matzehuels/treecanvas/pkg/pipeline"
	"github.com/matzehuels/treecanvas/pkg/store"
)

// DefaultShutdownTimeout bounds graceful shutdown in [Server.Run].
const DefaultShutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	// Session configures the canvas session. Callbacks are replaced by the
	// server's persister.
	Session canvas.Options
	// Export is the template for /export requests; Formats is ignored.
	Export pipeline.Options
	// Runner caches exports. Nil uses an uncached runner.
	Runner *pipeline.Runner
	// Debounce is the persister's write window.
	Debounce time.Duration
	Logger   *log.Logger
}

// Server serves one workspace.
type Server struct {
	store     store.Store
	persister *store.Persister
	runner    *pipeline.Runner
	export    pipeline.Options
	logger    *log.Logger
	router    chi.Router

	mu   sync.Mutex
	sess *canvas.Session
}

// New loads every item from st into a fresh session.
func New(ctx context.Context, st store.Store, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	items, err := st.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	p := store.NewPersister(st, opts.Debounce, logger)
	sessOpts := opts.Session
	sessOpts.Callbacks = p
	sessOpts.Logger = logger
	sess := canvas.NewSession(sessOpts)
	sess.Sync(items)

	if vs, ok := st.(viewportStore); ok {
		if ws, err := vs.Workspace(ctx); err == nil && ws.Viewport != nil {
			sess.SetViewport(*ws.Viewport)
		}
	}

	runner := opts.Runner
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}

	export := opts.Export
	export.Layout = sessOpts.Layout
	export.Layout.SetDefaults()

	s := &Server{
		store:     st,
		persister: p,
		runner:    runner,
		export:    export,
		logger:    logger,
		sess:      sess,
	}
	s.router = s.routes()
	logger.Debug("server session loaded", "items", len(items), "issues", len(sess.Issues()))
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Flush writes pending changes to the store.
func (s *Server) Flush(ctx context.Context) error { return s.persister.Flush(ctx) }

// Close flushes pending changes and stops persisting new ones. The store
// is left open.
func (s *Server) Close(ctx context.Context) error { return s.persister.Close(ctx) }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(securityHeaders)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Get("/graph", s.handleGraph)

	r.Route("/items", func(r chi.Router) {
		r.Post("/", s.handleAdd)
		r.Route("/{id}", func(r chi.Router) {
			r.Patch("/", s.handleUpdate)
			r.Delete("/", s.handleRemove)
			r.Post("/move", s.handleMove)
			r.Post("/parent", s.handleParent)
			r.Post("/collapse", s.handleCollapse)
			r.Post("/size", s.handleSize)
		})
	})
	r.Post("/connect", s.handleConnect)
	r.Put("/viewport", s.handleViewport)
	r.Post("/layout", s.handleLayoutAll)
	r.Post("/layout/{id}", s.handleLayout)
	r.Get("/export.{format}", s.handleExport)
	return r
}

// =============================================================================
// Lifecycle
// =============================================================================

// Run serves on addr until ctx is cancelled, then shuts down within
// timeout and flushes pending changes.
func (s *Server) Run(ctx context.Context, addr string, timeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, timeout)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.logger.Info("shutting down")
		err := srv.Shutdown(shutdownCtx)
		if cerr := s.Close(shutdownCtx); cerr != nil && err == nil {
			err = cerr
		}
		return err
	})
	return g.Wait()
}

// viewportStore is implemented by stores that keep the viewport next to
// the items (store.FileStore).
type viewportStore interface {
	Workspace(ctx context.Context) (*graph.Workspace, error)
	SaveViewport(ctx context.Context, v canvas.Viewport) error
}
