package canvas

import (
	"github.com/matzehuels/treecanvas/pkg/geom"
)

// ProjectOptions configures a projection pass.
type ProjectOptions struct {
	Placement   Placement
	DefaultSize geom.Size
}

// Projection is the result of [Project].
type Projection struct {
	Graph  *Graph
	Index  *Index
	Issues []Issue
	// Placed lists items that received a default position in this pass.
	Placed []string
}

// Project derives the render graph from items.
//
// Nodes found in prev keep their position and authority; the item's stored
// position only seeds a node the first time its id appears. New items
// without a stored position get one from the spiral search, visiting parents
// before children so a child's base point is its parent's position.
// Visibility is recomputed for every node and edges are emitted only for
// children that are not hidden.
func Project(items []Item, prev *Graph, opts ProjectOptions) *Projection {
	opts.Placement.SetDefaults()
	if opts.DefaultSize.IsZero() {
		opts.DefaultSize = geom.Size{Width: 200, Height: 40}
	}

	idx, issues := BuildIndex(items)
	order := idx.Walk()
	g := newGraph(len(order))
	res := &Projection{Graph: g, Index: idx, Issues: issues}

	var occupied []geom.Point
	for _, id := range order {
		if old, ok := prev.Node(id); ok {
			occupied = append(occupied, old.Position)
		} else if p := idx.items[id].Position; p != nil {
			occupied = append(occupied, *p)
		}
	}

	for _, id := range order {
		it := idx.items[id]
		n := &RenderNode{ID: id, Authority: Seeded}
		if old, ok := prev.Node(id); ok {
			n.Position, n.Authority, n.Size = old.Position, old.Authority, old.Size
		} else if it.Position != nil {
			n.Position = *it.Position
		} else {
			var parentPos *geom.Point
			if pid, ok := idx.Parent(id); ok {
				pp := g.byID[pid].Position
				parentPos = &pp
			}
			base := opts.Placement.Base(parentPos)
			n.Position = opts.Placement.Find(base, occupied, base)
			occupied = append(occupied, n.Position)
			res.Placed = append(res.Placed, id)
		}

		if !it.Size.IsZero() {
			n.Size = it.Size
		} else if n.Size.IsZero() {
			n.Size = opts.DefaultSize
		}
		n.Kind = it.Kind
		n.Label = it.Label
		n.Color = it.Color
		n.ChildCount = len(idx.f.Children(id))
		n.Hidden = idx.Hidden(id)
		g.add(n)

		if pid, ok := idx.Parent(id); ok && !n.Hidden {
			g.Edges = append(g.Edges, RenderEdge{
				ID:     EdgeID(pid, id),
				Source: pid,
				Target: id,
				Color:  idx.items[pid].Color,
			})
		}
	}
	return res
}
