// Package geom provides the small set of 2-D canvas primitives shared by the
// layout engine and the graph synchronization layer.
//
// All coordinates are canvas units. A node's [Point] is its top-left corner,
// matching how the render surface positions nodes.
package geom

import "math"

// Point is a position on the canvas.
type Point struct {
	X float64 `json:"x" bson:"x" toml:"x"`
	Y float64 `json:"y" bson:"y" toml:"y"`
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point { return Point{X: p.X + d.X, Y: p.Y + d.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Size is the rendered footprint of a node.
type Size struct {
	Width  float64 `json:"width" bson:"width" toml:"width"`
	Height float64 `json:"height" bson:"height" toml:"height"`
}

// IsZero reports whether either dimension is unset.
func (s Size) IsZero() bool { return s.Width <= 0 || s.Height <= 0 }

// Rect is an axis-aligned rectangle.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// RectAt returns the rectangle of a node of size s placed at p.
func RectAt(p Point, s Size) Rect {
	return Rect{Left: p.X, Top: p.Y, Right: p.X + s.Width, Bottom: p.Y + s.Height}
}

// Width returns the horizontal span of the rectangle.
func (r Rect) Width() float64 { return r.Right - r.Left }

// CenterX returns the horizontal center of the rectangle.
func (r Rect) CenterX() float64 { return (r.Left + r.Right) / 2 }

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Left:   math.Min(r.Left, o.Left),
		Top:    math.Min(r.Top, o.Top),
		Right:  math.Max(r.Right, o.Right),
		Bottom: math.Max(r.Bottom, o.Bottom),
	}
}

// Overlap returns how far r and o intrude into each other horizontally and
// vertically. Both values are positive only when the rectangles intersect.
func (r Rect) Overlap(o Rect) (dx, dy float64) {
	dx = math.Min(r.Right, o.Right) - math.Max(r.Left, o.Left)
	dy = math.Min(r.Bottom, o.Bottom) - math.Max(r.Top, o.Top)
	return dx, dy
}

// Intersects reports whether r and o overlap by more than tolerance on both axes.
func (r Rect) Intersects(o Rect, tolerance float64) bool {
	dx, dy := r.Overlap(o)
	return dx > tolerance && dy > tolerance
}
