package pipeline

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/treecanvas/pkg/cache"
	"github.com/matzehuels/treecanvas/pkg/canvas"
	"github.com/matzehuels/treecanvas/pkg/geom"
	"github.com/matzehuels/treecanvas/pkg/graph"
	"github.com/matzehuels/treecanvas/pkg/layout"
	"github.com/matzehuels/treecanvas/pkg/observability"
	"github.com/matzehuels/treecanvas/pkg/store"
)

func pt(x, y float64) *geom.Point { return &geom.Point{X: x, Y: y} }

// items: project folder at the origin with two unplaced notes, plus an
// archive folder that is collapsed over one note.
func items() []canvas.Item {
	return []canvas.Item{
		{ID: "project", Kind: canvas.KindFolder, Position: pt(0, 0)},
		{ID: "draft", Kind: canvas.KindNote, FolderID: "project"},
		{ID: "ideas", Kind: canvas.KindMindmap, FolderID: "project"},
		{ID: "archive", Kind: canvas.KindFolder, Position: pt(1000, 0), Collapsed: true},
		{ID: "old", Kind: canvas.KindNote, FolderID: "archive", Position: pt(1000, 160)},
	}
}

func newRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(io.Discard))
}

func byID(items []canvas.Item) map[string]canvas.Item {
	out := make(map[string]canvas.Item, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out
}

func TestExecuteLayoutAll(t *testing.T) {
	r := newRunner(nil)
	in := items()
	res, err := r.Execute(context.Background(), in, Options{LayoutAll: true})
	require.NoError(t, err)

	// project and archive both have children.
	require.Len(t, res.Layouts, 2)
	assert.Equal(t, "project", res.Layouts[0].Root)

	got := byID(res.Items)
	assert.Equal(t, geom.Point{}, *got["project"].Position, "root keeps its position")
	assert.Equal(t, geom.Point{X: 1000, Y: 0}, *got["archive"].Position)

	draft, ideas := got["draft"].Position, got["ideas"].Position
	require.NotNil(t, draft)
	require.NotNil(t, ideas)
	assert.Equal(t, 160.0, draft.Y)
	assert.Equal(t, 160.0, ideas.Y)
	assert.Equal(t, -120.0, draft.X)
	assert.Equal(t, 120.0, ideas.X)

	// "old" already sat where the layout puts it.
	changed := make([]string, 0, len(res.Changed))
	for _, it := range res.Changed {
		changed = append(changed, it.ID)
	}
	assert.ElementsMatch(t, []string{"draft", "ideas"}, changed)

	assert.Nil(t, in[1].Position, "input items are not modified")
}

func TestExecuteProjection(t *testing.T) {
	r := newRunner(nil)
	res, err := r.Execute(context.Background(), items(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Stats.NodeCount)
	assert.Equal(t, 1, res.Stats.HiddenCount)
	assert.Equal(t, 2, res.Stats.EdgeCount, "edge into the hidden note is dropped")
	assert.Empty(t, res.Issues)
	assert.Len(t, res.GraphHash, 64)
	assert.Empty(t, res.Layouts)
}

func TestExecuteCaches(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()
	r := newRunner(c)
	opts := Options{Roots: []string{"project"}, Formats: []string{"json", "dot"}}

	first, err := r.Execute(ctx, items(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, first.CacheInfo.LayoutHits)
	assert.False(t, first.CacheInfo.ProjectHit)
	assert.False(t, first.CacheInfo.ExportHit)

	second, err := r.Execute(ctx, items(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, second.CacheInfo.LayoutHits)
	assert.True(t, second.CacheInfo.ProjectHit)
	assert.True(t, second.CacheInfo.ExportHit)
	assert.Equal(t, first.Artifacts["dot"], second.Artifacts["dot"])
	assert.Equal(t, first.Graph, second.Graph)

	opts.Refresh = true
	third, err := r.Execute(ctx, items(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, third.CacheInfo.LayoutHits)
	assert.False(t, third.CacheInfo.ProjectHit)
}

func TestLayoutCacheKeyedByDefaultSize(t *testing.T) {
	ctx := context.Background()
	r := newRunner(cache.NewMemoryCache())

	small, hit, err := r.LayoutWithCacheInfo(ctx, items(), "project", Options{})
	require.NoError(t, err)
	assert.False(t, hit)

	big := Options{Layout: layout.Options{DefaultSize: geom.Size{Width: 600, Height: 200}}}
	got, hit, err := r.LayoutWithCacheInfo(ctx, items(), "project", big)
	require.NoError(t, err)
	assert.False(t, hit, "a different default size must not reuse the cached layout")
	assert.NotEqual(t, small.PositionMap(), got.PositionMap())

	want, _, err := newRunner(nil).LayoutWithCacheInfo(ctx, items(), "project", big)
	require.NoError(t, err)
	assert.Equal(t, want.PositionMap(), got.PositionMap())

	_, hit, err = r.LayoutWithCacheInfo(ctx, items(), "project", big)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestExecuteEmitsHooks(t *testing.T) {
	defer observability.Reset()
	lh := &countingLayoutHooks{}
	ch := &countingCacheHooks{}
	observability.SetLayoutHooks(lh)
	observability.SetCacheHooks(ch)

	r := newRunner(cache.NewMemoryCache())
	_, err := r.Execute(context.Background(), items(), Options{Roots: []string{"project"}})
	require.NoError(t, err)
	assert.Equal(t, 1, lh.started)
	assert.Equal(t, 1, lh.completed)
	assert.Equal(t, 2, lh.positioned)
	assert.Equal(t, 2, ch.misses) // layout + projection
	assert.Equal(t, 2, ch.sets)
}

func TestExecuteInvalidOptions(t *testing.T) {
	r := newRunner(nil)
	_, err := r.Execute(context.Background(), items(), Options{Formats: []string{"gif"}})
	assert.ErrorContains(t, err, "invalid format")

	_, err = r.Execute(context.Background(), items(), Options{Layout: layout.Options{NodeSpacing: -1}})
	assert.ErrorIs(t, err, layout.ErrInvalidOptions)
}

func TestLayoutMissingRoot(t *testing.T) {
	r := newRunner(nil)
	_, err := r.Layout(context.Background(), items(), "nope", Options{})
	assert.ErrorIs(t, err, layout.ErrRootNotFound)

	_, err = r.Execute(context.Background(), items(), Options{Roots: []string{"nope"}})
	assert.ErrorIs(t, err, layout.ErrRootNotFound)
}

func TestRunStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore(items()...)
	r := newRunner(nil)

	res, err := r.RunStore(ctx, st, Options{Roots: []string{"project"}})
	require.NoError(t, err)
	assert.Len(t, res.Changed, 2)

	draft, err := st.Get(ctx, "draft")
	require.NoError(t, err)
	require.NotNil(t, draft.Position)
	assert.Equal(t, geom.Point{X: -120, Y: 160}, *draft.Position)
}

func TestExportJSONHidesCollapsed(t *testing.T) {
	r := newRunner(nil)
	p, err := r.Project(context.Background(), items(), Options{})
	require.NoError(t, err)

	data, err := Export(p.Graph, graph.FormatJSON, Options{})
	require.NoError(t, err)
	g, err := graph.UnmarshalRenderGraph(data)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 4)

	data, err = Export(p.Graph, graph.FormatJSON, Options{IncludeHidden: true})
	require.NoError(t, err)
	g, err = graph.UnmarshalRenderGraph(data)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 5)
}

func TestExportDOT(t *testing.T) {
	r := newRunner(nil)
	p, err := r.Project(context.Background(), items(), Options{})
	require.NoError(t, err)

	data, err := Export(p.Graph, graph.FormatDOT, Options{})
	require.NoError(t, err)
	dot := string(data)
	assert.True(t, strings.HasPrefix(dot, "digraph canvas {"))
	assert.Contains(t, dot, `"project" -> "draft"`)
	assert.NotContains(t, dot, `"old"`)

	_, err = Export(p.Graph, "gif", Options{})
	assert.Error(t, err)
}

func TestApplyLayout(t *testing.T) {
	in := items()
	l := graph.Layout{
		Root: "project",
		Positions: []graph.Position{
			{ID: "project", X: 500, Y: 500},
			{ID: "draft", X: 20, Y: 160},
			{ID: "old", X: 1000, Y: 160},
			{ID: "ghost", X: 1, Y: 1},
		},
	}
	changed := ApplyLayout(in, l)
	assert.Equal(t, []string{"draft"}, changed)
	assert.Equal(t, geom.Point{}, *in[0].Position)
	assert.Equal(t, geom.Point{X: 20, Y: 160}, *in[1].Position)
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"SVG", true},
		{"gif", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
	assert.NoError(t, ValidateFormats(nil))
}

type countingLayoutHooks struct {
	observability.NoopLayoutHooks
	started, completed, positioned int
}

func (h *countingLayoutHooks) OnLayoutStart(context.Context, string, int) { h.started++ }
func (h *countingLayoutHooks) OnLayoutComplete(_ context.Context, _ string, n int, _ time.Duration, _ error) {
	h.completed++
	h.positioned += n
}

type countingCacheHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets int
}

func (h *countingCacheHooks) OnCacheHit(context.Context, string)      { h.hits++ }
func (h *countingCacheHooks) OnCacheMiss(context.Context, string)     { h.misses++ }
func (h *countingCacheHooks) OnCacheSet(context.Context, string, int) { h.sets++ }
