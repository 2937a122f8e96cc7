package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/matzehuels/treecanvas/pkg/forest"
	"github.com/matzehuels/treecanvas/pkg/geom"
)

// ErrRootNotFound is returned by [Layout] when the root id is not part of the
// forest. Callers should treat it as a no-op.
var ErrRootNotFound = errors.New("layout root not found")

// PositionMap maps node ids to top-left canvas positions.
type PositionMap map[string]geom.Point

// Layout positions the subtree rooted at rootID.
//
// The returned map contains the root and every descendant. The root is
// placed at opts.Origin; descendants are placed below it according to the
// spacing model and shifted so that the root's direct children are centered
// under the root. Inner nodes are centered over their own direct children. All coordinates are snapped to opts.GridSize unless
// opts.NoSnap is set.
//
// Layout is deterministic: the same forest, sizes and options always
// produce the same map.
func Layout(f *forest.Forest, rootID string, sizes SizeFunc, opts Options) (PositionMap, error) {
	if f == nil || !f.Has(rootID) {
		return nil, fmt.Errorf("%w: %q", ErrRootNotFound, rootID)
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	e := newEngine(f, sizes, opts)
	e.subtreeWidth(rootID)

	root := e.size(rootID)
	e.place(rootID, opts.Origin.X+root.Width/2, opts.Origin.Y)
	e.pos[rootID] = opts.Origin
	e.centerChildren(rootID)

	if !opts.NoSnap {
		for id, p := range e.pos {
			e.pos[id] = SnapPoint(p, opts.GridSize)
		}
	}
	return e.pos, nil
}

// place puts id centered on centerX with its top edge at top, then places
// its children one level down.
func (e *engine) place(id string, centerX, top float64) {
	s := e.size(id)
	e.pos[id] = geom.Point{X: centerX - s.Width/2, Y: top}

	kids := e.f.Children(id)
	if len(kids) == 0 {
		return
	}
	childTop := top + e.opts.LevelOffset(s.Height)

	if e.arrangement(id) == StackedRows {
		e.placeStacked(kids, centerX, childTop)
	} else {
		e.placeRow(kids, centerX, childTop)
	}
	e.centerOverChildren(id, centerX)
}

// centerOverChildren moves id, and only id, so it is centered over the
// bounding box of its direct children. The node stays inside the slot of
// width subtreeWidth(id) around slotCenter, which keeps it clear of sibling
// subtrees.
func (e *engine) centerOverChildren(id string, slotCenter float64) {
	w := e.size(id).Width
	half := e.subtreeWidth(id) / 2
	x := e.childBox(id).CenterX() - w/2
	x = math.Max(x, slotCenter-half)
	x = math.Min(x, slotCenter+half-w)

	p := e.pos[id]
	p.X = x
	e.pos[id] = p
}

// childBox is the bounding box of the direct children of id, which must
// have at least one child.
func (e *engine) childBox(id string) geom.Rect {
	kids := e.f.Children(id)
	box := geom.RectAt(e.pos[kids[0]], e.size(kids[0]))
	for _, k := range kids[1:] {
		box = box.Union(geom.RectAt(e.pos[k], e.size(k)))
	}
	return box
}

// placeRow lays kids out left to right, each centered in a slot as wide as
// its subtree.
func (e *engine) placeRow(kids []string, centerX, top float64) {
	x := centerX - e.rowWidth(kids)/2
	for i, k := range kids {
		w := e.subtreeWidth(k)
		e.place(k, x+w/2, top)
		x += w
		if i+1 < len(kids) {
			x += e.opts.Gap(e.f.HasChildren(k), e.f.HasChildren(kids[i+1]))
		}
	}
}

// placeStacked lays leaf kids out in balanced rows, each row centered on
// centerX independently.
func (e *engine) placeStacked(kids []string, centerX, top float64) {
	y := top
	for _, row := range chunkRows(kids, e.opts.ChildrenPerRow) {
		e.placeRow(row, centerX, y)

		var tallest float64
		for _, k := range row {
			tallest = math.Max(tallest, e.size(k).Height)
		}
		y += e.opts.RowAdvance(tallest)
	}
}

// centerChildren shifts every descendant of id horizontally so that the
// bounding box of id's direct children is centered under id.
func (e *engine) centerChildren(id string) {
	if !e.f.HasChildren(id) {
		return
	}
	rootCenter := e.pos[id].X + e.size(id).Width/2
	offset := rootCenter - e.childBox(id).CenterX()
	if offset == 0 {
		return
	}
	for _, d := range e.f.Descendants(id) {
		p := e.pos[d]
		p.X += offset
		e.pos[d] = p
	}
}
