// Package pipeline runs the canvas operations that do not need a live
// session: projecting a stored item collection, auto-laying out subtrees
// and exporting the result.
//
// The CLI and the HTTP server share this package so both cache the same
// artifacts under the same keys.
//
// # Stages
//
//  1. Layout: optional auto-layout of selected roots, or of every root with
//     children. Positions are written back into the item collection; each
//     root keeps its own position.
//  2. Project: derive the render graph (positions, visibility, edges).
//  3. Export: encode the render graph as JSON, DOT, SVG, PNG or PDF.
//
// Every stage is cached by a hash of its inputs.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, items, pipeline.Options{
//	    LayoutAll: true,
//	    Formats:   []string{"svg"},
//	})
//	svg := res.Artifacts["svg"]
//
// [Runner.RunStore] does the same against a [store.Store] and persists the
// positions the layout stage changed.
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treecanvas/pkg/cache"
	"github.com/matzehuels/treecanvas/pkg/canvas"
	"github.com/matzehuels/treecanvas/pkg/graph"
	"github.com/matzehuels/treecanvas/pkg/layout"
)

// DefaultScale is the PNG scale factor.
const DefaultScale = 2.0

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run.
type Options struct {
	Layout    layout.Options   `json:"layout"`
	Placement canvas.Placement `json:"placement"`

	// Roots are laid out in order. LayoutAll adds every root that has
	// children.
	Roots     []string `json:"roots,omitempty"`
	LayoutAll bool     `json:"layout_all,omitempty"`

	Formats       []string `json:"formats,omitempty"`
	IncludeHidden bool     `json:"include_hidden,omitempty"`
	Detailed      bool     `json:"detailed,omitempty"`
	Scale         float64  `json:"scale,omitempty"`

	// Refresh bypasses cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	o.Layout.SetDefaults()
	o.Placement.SetDefaults()
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Validate checks formats and layout options.
func (o *Options) Validate() error {
	if err := o.Layout.Validate(); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

// LayoutKeyOpts returns the cache key inputs of a layout of root.
func (o *Options) LayoutKeyOpts(root string) cache.LayoutKeyOpts {
	grid := o.Layout.GridSize
	if o.Layout.NoSnap {
		grid = 0
	}
	return cache.LayoutKeyOpts{
		Root:           root,
		NodeSpacing:    o.Layout.NodeSpacing,
		SubtreeSpacing: o.Layout.SubtreeSpacing,
		LevelSpacing:   o.Layout.LevelSpacing,
		ChildrenPerRow: o.Layout.ChildrenPerRow,
		MinRowSpacing:  o.Layout.MinRowSpacing,
		GridSize:       grid,
		DefaultWidth:   o.Layout.DefaultSize.Width,
		DefaultHeight:  o.Layout.DefaultSize.Height,
	}
}

// ExportKeyOpts returns the cache key inputs of an export.
func (o *Options) ExportKeyOpts(format string) cache.ExportKeyOpts {
	k := cache.ExportKeyOpts{Format: format, IncludeHidden: o.IncludeHidden, Detailed: o.Detailed}
	if format == graph.FormatPNG {
		k.Scale = o.Scale
	}
	return k
}

// ValidateFormat checks that format is a supported export format.
func ValidateFormat(format string) error {
	if !slices.Contains(graph.Formats, format) {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Items is the collection after the layout stage.
	Items []canvas.Item
	// Changed lists the items whose position the layout stage changed.
	Changed []canvas.Item

	Graph     graph.RenderGraph
	GraphHash string
	Layouts   []graph.Layout
	Issues    []canvas.Issue
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timing and size information.
type Stats struct {
	NodeCount   int
	HiddenCount int
	EdgeCount   int
	LayoutTime  time.Duration
	ProjectTime time.Duration
	ExportTime  time.Duration
}

// CacheInfo records which stages were served from the cache.
type CacheInfo struct {
	LayoutHits int
	ProjectHit bool
	ExportHit  bool
}
