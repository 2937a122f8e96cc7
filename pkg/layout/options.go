package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/matzehuels/treecanvas/pkg/geom"
)

// Default spacing model values, in canvas units.
const (
	DefaultNodeSpacing    = 40.0
	DefaultSubtreeSpacing = 100.0
	DefaultLevelSpacing   = 160.0
	DefaultChildrenPerRow = 3
	DefaultMinRowSpacing  = 100.0
	DefaultGridSize       = 20.0
	DefaultNodeWidth      = 200.0
	DefaultNodeHeight     = 40.0
)

// levelPadding is the minimum clearance between a node's bottom edge and the
// top edge of the row below it.
const levelPadding = 40.0

// stackMinChildren is the child count at which leaf-only children wrap into
// stacked rows.
const stackMinChildren = 4

// ErrInvalidOptions is returned by [Options.Validate].
var ErrInvalidOptions = errors.New("invalid layout options")

// Options configures the spacing model.
type Options struct {
	// NodeSpacing is the horizontal gap between two leaf siblings.
	NodeSpacing float64 `json:"node_spacing" toml:"node_spacing"`
	// SubtreeSpacing is the horizontal gap between siblings when either of
	// them has children.
	SubtreeSpacing float64 `json:"subtree_spacing" toml:"subtree_spacing"`
	// LevelSpacing is the minimum distance from a parent's top edge to its
	// children's top edge.
	LevelSpacing float64 `json:"level_spacing" toml:"level_spacing"`
	// ChildrenPerRow caps the width of a stacked row.
	ChildrenPerRow int `json:"children_per_row" toml:"children_per_row"`
	// MinRowSpacing is the minimum vertical advance between stacked rows.
	MinRowSpacing float64 `json:"min_row_spacing" toml:"min_row_spacing"`
	// GridSize is the snapping grid. NoSnap keeps raw coordinates.
	GridSize float64 `json:"grid_size" toml:"grid_size"`
	NoSnap   bool    `json:"no_snap,omitempty" toml:"no_snap"`
	// DefaultSize is used for nodes the SizeFunc does not know.
	DefaultSize geom.Size `json:"default_size" toml:"default_size"`

	// Origin is the top-left position of the root.
	Origin geom.Point `json:"-" toml:"-"`
}

// DefaultOptions returns the default spacing model.
func DefaultOptions() Options {
	var o Options
	o.SetDefaults()
	return o
}

// SetDefaults fills every unset field with its default value.
func (o *Options) SetDefaults() {
	if o.NodeSpacing == 0 {
		o.NodeSpacing = DefaultNodeSpacing
	}
	if o.SubtreeSpacing == 0 {
		o.SubtreeSpacing = DefaultSubtreeSpacing
	}
	if o.LevelSpacing == 0 {
		o.LevelSpacing = DefaultLevelSpacing
	}
	if o.ChildrenPerRow == 0 {
		o.ChildrenPerRow = DefaultChildrenPerRow
	}
	if o.MinRowSpacing == 0 {
		o.MinRowSpacing = DefaultMinRowSpacing
	}
	if o.GridSize == 0 {
		o.GridSize = DefaultGridSize
	}
	if o.DefaultSize.IsZero() {
		o.DefaultSize = geom.Size{Width: DefaultNodeWidth, Height: DefaultNodeHeight}
	}
}

// Validate rejects negative spacings and a non-positive row capacity.
func (o Options) Validate() error {
	switch {
	case o.NodeSpacing < 0, o.SubtreeSpacing < 0, o.LevelSpacing < 0, o.MinRowSpacing < 0:
		return fmt.Errorf("%w: spacings must not be negative", ErrInvalidOptions)
	case o.ChildrenPerRow < 1:
		return fmt.Errorf("%w: children_per_row must be at least 1", ErrInvalidOptions)
	case o.GridSize < 0:
		return fmt.Errorf("%w: grid_size must not be negative", ErrInvalidOptions)
	}
	return nil
}

// Snap rounds v to the nearest multiple of grid. A non-positive grid
// returns v unchanged.
func Snap(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}

// SnapPoint snaps both coordinates of p.
func SnapPoint(p geom.Point, grid float64) geom.Point {
	return geom.Point{X: Snap(p.X, grid), Y: Snap(p.Y, grid)}
}

// LevelOffset returns the vertical distance from a parent's top edge to its
// children's top edge.
func (o Options) LevelOffset(parentHeight float64) float64 {
	return math.Max(o.LevelSpacing, parentHeight+levelPadding)
}

// RowAdvance returns the vertical distance between two stacked rows whose
// tallest member is rowHeight high.
func (o Options) RowAdvance(rowHeight float64) float64 {
	return math.Max(o.MinRowSpacing, rowHeight+levelPadding)
}

// Gap returns the horizontal gap between two adjacent siblings in a single
// row.
func (o Options) Gap(leftHasChildren, rightHasChildren bool) float64 {
	if leftHasChildren || rightHasChildren {
		return o.SubtreeSpacing
	}
	return o.NodeSpacing
}
