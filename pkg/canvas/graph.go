package canvas

import (
	"slices"

	"github.com/matzehuels/treecanvas/pkg/geom"
)

// Authority records who owns a node's position.
type Authority int

const (
	// Seeded nodes took their position from the item store or from default
	// placement.
	Seeded Authority = iota
	// Live nodes were moved during this session; the render graph owns their
	// position until it is persisted.
	Live
)

func (a Authority) String() string {
	if a == Live {
		return "live"
	}
	return "seeded"
}

// MarshalText implements encoding.TextMarshaler.
func (a Authority) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Authority) UnmarshalText(b []byte) error {
	if string(b) == "live" {
		*a = Live
	} else {
		*a = Seeded
	}
	return nil
}

// RenderNode is the derived, render-ready view of an item. Hidden nodes are
// kept so that re-expanding a folder does not recreate them.
type RenderNode struct {
	ID         string     `json:"id"`
	Kind       Kind       `json:"kind"`
	Position   geom.Point `json:"position"`
	Hidden     bool       `json:"hidden,omitempty"`
	Size       geom.Size  `json:"size"`
	Label      string     `json:"label,omitempty"`
	Color      string     `json:"color,omitempty"`
	ChildCount int        `json:"child_count,omitempty"`
	Authority  Authority  `json:"authority"`
}

// RenderEdge connects a parent (Source) to a child (Target).
type RenderEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Color  string `json:"color,omitempty"`
}

// EdgeID returns the stable id of the edge from parent to child.
func EdgeID(parent, child string) string { return parent + "->" + child }

// Graph is the render state: one node per item and one edge per visible
// parent reference. Nodes are ordered parents first.
type Graph struct {
	Nodes []*RenderNode `json:"nodes"`
	Edges []RenderEdge  `json:"edges"`

	byID map[string]*RenderNode
}

func newGraph(capacity int) *Graph {
	return &Graph{
		Nodes: make([]*RenderNode, 0, capacity),
		byID:  make(map[string]*RenderNode, capacity),
	}
}

func (g *Graph) add(n *RenderNode) {
	g.Nodes = append(g.Nodes, n)
	g.byID[n.ID] = n
}

// Node returns the render node for id.
func (g *Graph) Node(id string) (*RenderNode, bool) {
	if g == nil {
		return nil, false
	}
	if g.byID == nil {
		g.reindex()
	}
	n, ok := g.byID[id]
	return n, ok
}

// reindex rebuilds the id lookup, used after a Graph was decoded.
func (g *Graph) reindex() {
	g.byID = make(map[string]*RenderNode, len(g.Nodes))
	for _, n := range g.Nodes {
		g.byID[n.ID] = n
	}
}

// Visible returns the nodes that are not hidden.
func (g *Graph) Visible() []*RenderNode {
	var out []*RenderNode
	for _, n := range g.Nodes {
		if !n.Hidden {
			out = append(out, n)
		}
	}
	return out
}

// refreshEdges replaces the edge slice with an identical copy so that
// renderers comparing slice identity redraw connectors.
func (g *Graph) refreshEdges() {
	g.Edges = slices.Clone(g.Edges)
}

// Positions returns a snapshot of every node position.
func (g *Graph) Positions() map[string]geom.Point {
	out := make(map[string]geom.Point, len(g.Nodes))
	for _, n := range g.Nodes {
		out[n.ID] = n.Position
	}
	return out
}
