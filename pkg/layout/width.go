package layout

import (
	"math"

	"github.com/matzehuels/treecanvas/pkg/forest"
	"github.com/matzehuels/treecanvas/pkg/geom"
)

// Arrangement is how a node's children are placed below it.
type Arrangement int

const (
	// SingleRow places children left to right in one row.
	SingleRow Arrangement = iota
	// StackedRows wraps leaf children into several centered rows.
	StackedRows
)

func (a Arrangement) String() string {
	if a == StackedRows {
		return "stacked"
	}
	return "single"
}

// SizeFunc reports the rendered size of a node. It returns false when the
// size is unknown, in which case Options.DefaultSize is used.
type SizeFunc func(id string) (geom.Size, bool)

// SizeMap adapts a map to a SizeFunc.
func SizeMap(m map[string]geom.Size) SizeFunc {
	return func(id string) (geom.Size, bool) {
		s, ok := m[id]
		return s, ok
	}
}

// engine holds the state of a single Layout call. The width cache lives only
// as long as the engine.
type engine struct {
	f      *forest.Forest
	sizes  SizeFunc
	opts   Options
	widths map[string]float64
	pos    PositionMap
}

func newEngine(f *forest.Forest, sizes SizeFunc, opts Options) *engine {
	return &engine{
		f:      f,
		sizes:  sizes,
		opts:   opts,
		widths: make(map[string]float64),
		pos:    make(PositionMap),
	}
}

func (e *engine) size(id string) geom.Size {
	if e.sizes != nil {
		if s, ok := e.sizes(id); ok && !s.IsZero() {
			return s
		}
	}
	return e.opts.DefaultSize
}

// arrangement decides between stacked and single-row placement.
func (e *engine) arrangement(id string) Arrangement {
	kids := e.f.Children(id)
	if len(kids) < stackMinChildren {
		return SingleRow
	}
	for _, k := range kids {
		if e.f.HasChildren(k) {
			return SingleRow
		}
	}
	return StackedRows
}

// subtreeWidth returns the horizontal footprint of id and its descendants.
func (e *engine) subtreeWidth(id string) float64 {
	if w, ok := e.widths[id]; ok {
		return w
	}
	own := e.size(id).Width
	w := own
	if kids := e.f.Children(id); len(kids) > 0 {
		var arranged float64
		if e.arrangement(id) == StackedRows {
			arranged = e.stackedWidth(kids)
		} else {
			arranged = e.rowWidth(kids)
		}
		w = math.Max(own, arranged)
	}
	e.widths[id] = w
	return w
}

// rowWidth is the width of kids placed in a single row.
func (e *engine) rowWidth(kids []string) float64 {
	var total float64
	for i, k := range kids {
		total += e.subtreeWidth(k)
		if i > 0 {
			total += e.opts.Gap(e.f.HasChildren(kids[i-1]), e.f.HasChildren(k))
		}
	}
	return total
}

// stackedWidth is the width of the widest stacked row.
func (e *engine) stackedWidth(kids []string) float64 {
	var widest float64
	for _, row := range chunkRows(kids, e.opts.ChildrenPerRow) {
		widest = math.Max(widest, e.rowWidth(row))
	}
	return widest
}

// chunkRows splits ids into balanced rows of at most perRow entries. The row
// count is chosen first so that rows differ in length by at most one.
func chunkRows(ids []string, perRow int) [][]string {
	if perRow < 1 {
		perRow = 1
	}
	if len(ids) == 0 {
		return nil
	}
	rowCount := (len(ids) + perRow - 1) / perRow
	base, extra := len(ids)/rowCount, len(ids)%rowCount

	rows := make([][]string, 0, rowCount)
	start := 0
	for r := 0; r < rowCount; r++ {
		n := base
		if r < extra {
			n++
		}
		rows = append(rows, ids[start:start+n])
		start += n
	}
	return rows
}

// SubtreeWidth returns the horizontal footprint of the subtree rooted at id.
func SubtreeWidth(f *forest.Forest, id string, sizes SizeFunc, opts Options) float64 {
	opts.SetDefaults()
	return newEngine(f, sizes, opts).subtreeWidth(id)
}

// ArrangementOf reports how the children of id would be arranged.
func ArrangementOf(f *forest.Forest, id string) Arrangement {
	return newEngine(f, nil, DefaultOptions()).arrangement(id)
}
