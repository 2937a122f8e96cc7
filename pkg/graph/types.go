package graph

import (
	"errors"
	"slices"
	"strings"

	"github.com/matzehuels/treecanvas/pkg/canvas"
	"github.com/matzehuels/treecanvas/pkg/geom"
	"github.com/matzehuels/treecanvas/pkg/layout"
)

// =============================================================================
// Constants
// =============================================================================

// FormatVersion is the workspace format written by this package.
const FormatVersion = 1

// Export formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// Formats lists every export format.
var Formats = []string{FormatJSON, FormatDOT, FormatSVG, FormatPNG, FormatPDF}

// ErrUnsupportedVersion is returned when a workspace was written by a newer
// format version.
var ErrUnsupportedVersion = errors.New("unsupported workspace version")

// =============================================================================
// Workspace - Item Collection
// =============================================================================

// Workspace is the serialized item collection of one canvas.
type Workspace struct {
	Version  int              `json:"version" bson:"version"`
	Name     string           `json:"name,omitempty" bson:"name,omitempty"`
	Viewport *canvas.Viewport `json:"viewport,omitempty" bson:"viewport,omitempty"`
	Items    []canvas.Item    `json:"items" bson:"items"`
}

// NewWorkspace returns an empty workspace at the current format version.
func NewWorkspace(name string) *Workspace {
	return &Workspace{Version: FormatVersion, Name: name, Items: []canvas.Item{}}
}

// =============================================================================
// RenderGraph - Projected Node/Edge List
// =============================================================================

// RenderGraph is the flat wire form of a canvas.Graph, used for API
// responses, caching and CLI output.
type RenderGraph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is a positioned render node.
type Node struct {
	ID         string  `json:"id" bson:"id"`
	Kind       string  `json:"kind" bson:"kind"`
	Label      string  `json:"label,omitempty" bson:"label,omitempty"`
	Color      string  `json:"color,omitempty" bson:"color,omitempty"`
	X          float64 `json:"x" bson:"x"`
	Y          float64 `json:"y" bson:"y"`
	Width      float64 `json:"width" bson:"width"`
	Height     float64 `json:"height" bson:"height"`
	Hidden     bool    `json:"hidden,omitempty" bson:"hidden,omitempty"`
	ChildCount int     `json:"child_count,omitempty" bson:"child_count,omitempty"`
	Authority  string  `json:"authority,omitempty" bson:"authority,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a parent -> child connector.
type Edge struct {
	ID    string `json:"id" bson:"id"`
	From  string `json:"from" bson:"from"`
	To    string `json:"to" bson:"to"`
	Color string `json:"color,omitempty" bson:"color,omitempty"`
}

// FromCanvas converts a render graph to its wire form. Node and edge order
// are preserved.
func FromCanvas(g *canvas.Graph) RenderGraph {
	out := RenderGraph{
		Nodes: make([]Node, 0, len(g.Nodes)),
		Edges: make([]Edge, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		out.Nodes = append(out.Nodes, Node{
			ID:         n.ID,
			Kind:       string(n.Kind),
			Label:      n.Label,
			Color:      n.Color,
			X:          n.Position.X,
			Y:          n.Position.Y,
			Width:      n.Size.Width,
			Height:     n.Size.Height,
			Hidden:     n.Hidden,
			ChildCount: n.ChildCount,
			Authority:  n.Authority.String(),
		})
	}
	for _, e := range g.Edges {
		out.Edges = append(out.Edges, Edge{ID: e.ID, From: e.Source, To: e.Target, Color: e.Color})
	}
	return out
}

// Visible returns a copy of the graph without hidden nodes.
func (g RenderGraph) Visible() RenderGraph {
	out := RenderGraph{Edges: slices.Clone(g.Edges)}
	for _, n := range g.Nodes {
		if !n.Hidden {
			out.Nodes = append(out.Nodes, n)
		}
	}
	return out
}

// Bounds returns the rectangle covering every node, or a zero rectangle for
// an empty graph.
func (g RenderGraph) Bounds() geom.Rect {
	if len(g.Nodes) == 0 {
		return geom.Rect{}
	}
	r := nodeRect(g.Nodes[0])
	for _, n := range g.Nodes[1:] {
		r = r.Union(nodeRect(n))
	}
	return r
}

func nodeRect(n Node) geom.Rect {
	return geom.RectAt(geom.Point{X: n.X, Y: n.Y}, geom.Size{Width: n.Width, Height: n.Height})
}

// =============================================================================
// Layout - Auto Layout Result
// =============================================================================

// Layout is the serialized result of one auto-layout pass.
type Layout struct {
	Root      string         `json:"root" bson:"root"`
	Positions []Position     `json:"positions" bson:"positions"`
	Options   layout.Options `json:"options" bson:"options"`
}

// Position is one entry of a Layout.
type Position struct {
	ID string  `json:"id" bson:"id"`
	X  float64 `json:"x" bson:"x"`
	Y  float64 `json:"y" bson:"y"`
}

// FromPositions builds a Layout. Positions are sorted by ID for
// deterministic output.
func FromPositions(root string, pos layout.PositionMap, opts layout.Options) Layout {
	out := Layout{Root: root, Options: opts, Positions: make([]Position, 0, len(pos))}
	for id, p := range pos {
		out.Positions = append(out.Positions, Position{ID: id, X: p.X, Y: p.Y})
	}
	slices.SortFunc(out.Positions, func(a, b Position) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// PositionMap converts the layout back into a lookup map.
func (l Layout) PositionMap() layout.PositionMap {
	out := make(layout.PositionMap, len(l.Positions))
	for _, p := range l.Positions {
		out[p.ID] = geom.Point{X: p.X, Y: p.Y}
	}
	return out
}
