package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treecanvas/pkg/cache"
	"github.com/matzehuels/treecanvas/pkg/canvas"
	"github.com/matzehuels/treecanvas/pkg/geom"
	"github.com/matzehuels/treecanvas/pkg/graph"
	"github.com/matzehuels/treecanvas/pkg/observability"
	"github.com/matzehuels/treecanvas/pkg/store"
)

// Runner executes pipeline stages with caching.
//
// The Runner holds no pipeline state besides the cache and logger, so one
// Runner can serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer uses DefaultKeyer, a nil cache
// disables caching and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs layout, projection and export over items. The input slice
// is not modified.
func (r *Runner) Execute(ctx context.Context, items []canvas.Item, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	res := &Result{Items: cloneItems(items), Artifacts: make(map[string][]byte)}

	// Stage 1: Layout
	layoutStart := time.Now()
	roots := opts.Roots
	if opts.LayoutAll {
		roots = appendLayoutRoots(roots, res.Items)
	}
	changed := make(map[string]bool)
	for _, root := range roots {
		l, hit, err := r.LayoutWithCacheInfo(ctx, res.Items, root, opts)
		if err != nil {
			return nil, fmt.Errorf("layout %s: %w", root, err)
		}
		if hit {
			res.CacheInfo.LayoutHits++
		}
		res.Layouts = append(res.Layouts, l)
		for _, id := range ApplyLayout(res.Items, l) {
			changed[id] = true
		}
	}
	for _, it := range res.Items {
		if changed[it.ID] {
			res.Changed = append(res.Changed, it.Clone())
		}
	}
	res.Stats.LayoutTime = time.Since(layoutStart)
	if len(roots) > 0 {
		r.Logger.Info("laid out subtrees",
			"roots", len(roots),
			"moved", len(res.Changed),
			"duration", res.Stats.LayoutTime)
	}

	// Stage 2: Project
	projectStart := time.Now()
	p, hit, err := r.ProjectWithCacheInfo(ctx, res.Items, opts)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	res.Graph = p.Graph
	res.Issues = p.Issues
	res.CacheInfo.ProjectHit = hit
	res.Stats.ProjectTime = time.Since(projectStart)
	res.Stats.NodeCount = len(p.Graph.Nodes)
	res.Stats.EdgeCount = len(p.Graph.Edges)
	for _, n := range p.Graph.Nodes {
		if n.Hidden {
			res.Stats.HiddenCount++
		}
	}
	if data, err := graph.MarshalRenderGraph(p.Graph); err == nil {
		res.GraphHash = cache.Hash(data)
	}
	r.Logger.Info("projected items",
		"nodes", res.Stats.NodeCount,
		"hidden", res.Stats.HiddenCount,
		"edges", res.Stats.EdgeCount,
		"issues", len(res.Issues),
		"duration", res.Stats.ProjectTime)

	// Stage 3: Export
	if len(opts.Formats) == 0 {
		return res, nil
	}
	exportStart := time.Now()
	artifacts, hit, err := r.ExportWithCacheInfo(ctx, res.Graph, opts)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	res.Artifacts = artifacts
	res.CacheInfo.ExportHit = hit
	res.Stats.ExportTime = time.Since(exportStart)
	r.Logger.Info("exported canvas",
		"formats", opts.Formats,
		"duration", res.Stats.ExportTime)

	return res, nil
}

// RunStore loads the items of st, executes the pipeline and writes the
// items whose positions changed back to st.
func (r *Runner) RunStore(ctx context.Context, st store.Store, opts Options) (*Result, error) {
	items, err := st.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	res, err := r.Execute(ctx, items, opts)
	if err != nil {
		return nil, err
	}
	if len(res.Changed) > 0 {
		if err := st.Put(ctx, res.Changed...); err != nil {
			return nil, fmt.Errorf("persist layout: %w", err)
		}
		r.Logger.Debug("persisted layout", "items", len(res.Changed))
	}
	return res, nil
}

// =============================================================================
// Projection
// =============================================================================

// ProjectionResult is the cached output of the projection stage.
type ProjectionResult struct {
	Graph  graph.RenderGraph `json:"graph"`
	Issues []canvas.Issue    `json:"issues,omitempty"`
}

// ProjectWithCacheInfo projects items into a fresh render graph and reports
// whether the result came from the cache.
func (r *Runner) ProjectWithCacheInfo(ctx context.Context, items []canvas.Item, opts Options) (ProjectionResult, bool, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	key, err := r.projectionKey(items, opts)
	if err != nil {
		return ProjectionResult{}, false, err
	}

	if !opts.Refresh {
		if data, hit := r.get(ctx, key); hit {
			var cached ProjectionResult
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, true, nil
			}
		}
	}

	start := time.Now()
	p := canvas.Project(items, nil, canvas.ProjectOptions{
		Placement:   opts.Placement,
		DefaultSize: opts.Layout.DefaultSize,
	})
	out := ProjectionResult{Graph: graph.FromCanvas(p.Graph), Issues: p.Issues}
	observability.Sync().OnProject(ctx, len(p.Graph.Nodes), len(p.Graph.Nodes)-len(p.Graph.Visible()), len(p.Issues), time.Since(start))
	for _, is := range p.Issues {
		opts.Logger.Debug("item parent ignored", "id", is.ItemID, "parent", is.Parent, "issue", is.Kind)
	}

	if data, err := json.Marshal(out); err == nil {
		r.set(ctx, key, data, cache.TTLProjection)
	}
	return out, false, nil
}

// Project is ProjectWithCacheInfo without the cache flag.
func (r *Runner) Project(ctx context.Context, items []canvas.Item, opts Options) (ProjectionResult, error) {
	p, _, err := r.ProjectWithCacheInfo(ctx, items, opts)
	return p, err
}

func (r *Runner) projectionKey(items []canvas.Item, opts Options) (string, error) {
	h, err := cache.HashJSON(struct {
		Items     []canvas.Item    `json:"items"`
		Placement canvas.Placement `json:"placement"`
		Size      geom.Size        `json:"size"`
	}{items, opts.Placement, opts.Layout.DefaultSize})
	if err != nil {
		return "", fmt.Errorf("hash items: %w", err)
	}
	return r.Keyer.ProjectionKey(h), nil
}

// =============================================================================
// Layout
// =============================================================================

// LayoutWithCacheInfo auto-lays out the subtree under root. The returned
// layout holds descendant positions only; the root keeps its position.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, items []canvas.Item, root string, opts Options) (graph.Layout, bool, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	itemsHash, err := cache.HashJSON(struct {
		Items     []canvas.Item    `json:"items"`
		Placement canvas.Placement `json:"placement"`
	}{items, opts.Placement})
	if err != nil {
		return graph.Layout{}, false, fmt.Errorf("hash items: %w", err)
	}
	key := r.Keyer.LayoutKey(itemsHash, opts.LayoutKeyOpts(root))

	if !opts.Refresh {
		if data, hit := r.get(ctx, key); hit {
			if cached, err := graph.UnmarshalLayout(data); err == nil {
				return cached, true, nil
			}
		}
	}

	sess := canvas.NewSession(canvas.Options{
		Layout:    opts.Layout,
		Placement: opts.Placement,
		Logger:    opts.Logger,
	})
	sess.Sync(items)

	observability.Layout().OnLayoutStart(ctx, root, len(sess.Index().Descendants(root))+1)
	start := time.Now()
	pos, err := sess.AutoLayout(root)
	observability.Layout().OnLayoutComplete(ctx, root, len(pos), time.Since(start), err)
	if err != nil {
		return graph.Layout{}, false, err
	}

	l := graph.FromPositions(root, pos, opts.Layout)
	if data, err := graph.MarshalLayout(l); err == nil {
		r.set(ctx, key, data, cache.TTLLayout)
	}
	return l, false, nil
}

// Layout is LayoutWithCacheInfo without the cache flag.
func (r *Runner) Layout(ctx context.Context, items []canvas.Item, root string, opts Options) (graph.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, items, root, opts)
	return l, err
}

// ApplyLayout writes the positions of l into items and returns the ids
// whose position changed.
func ApplyLayout(items []canvas.Item, l graph.Layout) []string {
	pos := l.PositionMap()
	var changed []string
	for i := range items {
		p, ok := pos[items[i].ID]
		if !ok || items[i].ID == l.Root {
			continue
		}
		if items[i].Position != nil && *items[i].Position == p {
			continue
		}
		items[i].Position = &p
		changed = append(changed, items[i].ID)
	}
	return changed
}

// appendLayoutRoots adds every root with children that is not already in
// roots.
func appendLayoutRoots(roots []string, items []canvas.Item) []string {
	idx, _ := canvas.BuildIndex(items)
	seen := make(map[string]bool, len(roots))
	for _, r := range roots {
		seen[r] = true
	}
	f := idx.Forest()
	for _, r := range f.Roots() {
		if !seen[r] && f.HasChildren(r) {
			roots = append(roots, r)
		}
	}
	return roots
}

// =============================================================================
// Export
// =============================================================================

// ExportWithCacheInfo encodes g in every requested format. The flag is true
// only when all formats came from the cache.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, g graph.RenderGraph, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	data, err := graph.MarshalRenderGraph(g)
	if err != nil {
		return nil, false, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	graphHash := cache.Hash(data)

	out := make(map[string][]byte, len(opts.Formats))
	allHit := true
	for _, format := range opts.Formats {
		key := r.Keyer.ExportKey(graphHash, opts.ExportKeyOpts(format))
		if !opts.Refresh {
			if data, hit := r.get(ctx, key); hit {
				out[format] = data
				continue
			}
		}
		allHit = false

		artifact, err := Export(g, format, opts)
		if err != nil {
			return nil, false, err
		}
		out[format] = artifact
		r.set(ctx, key, artifact, cache.TTLExport)
	}
	return out, allHit, nil
}

// =============================================================================
// Helpers
// =============================================================================

func (r *Runner) get(ctx context.Context, key string) ([]byte, bool) {
	kind := cache.KindOf(key)
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "kind", kind, "err", err)
		return nil, false
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, kind)
		return data, true
	}
	observability.Cache().OnCacheMiss(ctx, kind)
	return nil, false
}

func (r *Runner) set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	kind := cache.KindOf(key)
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "kind", kind, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, kind, len(data))
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on opts if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func cloneItems(items []canvas.Item) []canvas.Item {
	out := make([]canvas.Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
