package canvas

import (
	"math"
	"sort"

	"github.com/matzehuels/treecanvas/pkg/geom"
)

// Default placement values, in canvas units.
const (
	DefaultMinDistance = 140.0
	DefaultMaxRings    = 12
	DefaultBelowParent = 160.0
)

// Placement configures default positions for items that have none.
type Placement struct {
	// MinDistance is the exclusion radius around every occupied point.
	MinDistance float64 `json:"min_distance" toml:"min_distance"`
	// Step is the distance between rings. Zero means MinDistance.
	Step float64 `json:"step" toml:"step"`
	// MaxRings bounds the search.
	MaxRings int `json:"max_rings" toml:"max_rings"`
	// BelowParent is the vertical offset of a child's base point from its
	// parent.
	BelowParent float64 `json:"below_parent" toml:"below_parent"`
	// Origin is the base point for root items.
	Origin geom.Point `json:"origin" toml:"origin"`
}

// DefaultPlacement returns the default placement settings.
func DefaultPlacement() Placement {
	var p Placement
	p.SetDefaults()
	return p
}

// SetDefaults fills every unset field.
func (p *Placement) SetDefaults() {
	if p.MinDistance <= 0 {
		p.MinDistance = DefaultMinDistance
	}
	if p.Step <= 0 {
		p.Step = p.MinDistance
	}
	if p.MaxRings <= 0 {
		p.MaxRings = DefaultMaxRings
	}
	if p.BelowParent <= 0 {
		p.BelowParent = DefaultBelowParent
	}
}

// Base returns the point the search starts from: below the parent when
// there is one, the origin otherwise.
func (p Placement) Base(parent *geom.Point) geom.Point {
	if parent == nil {
		return p.Origin
	}
	return geom.Point{X: parent.X, Y: parent.Y + p.BelowParent}
}

// Find returns the first free point around base, searching ring by ring.
// A point is free when it is at least MinDistance away from every occupied
// point. Candidates on one ring are tried nearest first, ties broken by
// angle, so the result is deterministic. When MaxRings rings yield nothing,
// fallback is returned.
func (p Placement) Find(base geom.Point, occupied []geom.Point, fallback geom.Point) geom.Point {
	p.SetDefaults()
	if p.free(base, occupied) {
		return base
	}
	for ring := 1; ring <= p.MaxRings; ring++ {
		for _, c := range p.ring(base, ring) {
			if p.free(c, occupied) {
				return c
			}
		}
	}
	return fallback
}

func (p Placement) free(c geom.Point, occupied []geom.Point) bool {
	for _, o := range occupied {
		if c.Distance(o) < p.MinDistance {
			return false
		}
	}
	return true
}

// ring returns the grid points on the square ring at Chebyshev distance r
// from base, sorted by Euclidean distance and then clockwise from the top.
func (p Placement) ring(base geom.Point, r int) []geom.Point {
	type cand struct {
		pt    geom.Point
		dist  float64
		angle float64
	}
	var cands []cand
	for i := -r; i <= r; i++ {
		for j := -r; j <= r; j++ {
			if max(abs(i), abs(j)) != r {
				continue
			}
			off := geom.Point{X: float64(i) * p.Step, Y: float64(j) * p.Step}
			cands = append(cands, cand{
				pt:    base.Add(off),
				dist:  math.Hypot(off.X, off.Y),
				angle: math.Mod(math.Atan2(off.X, -off.Y)+2*math.Pi, 2*math.Pi),
			})
		}
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].dist != cands[b].dist {
			return cands[a].dist < cands[b].dist
		}
		return cands[a].angle < cands[b].angle
	})
	out := make([]geom.Point, len(cands))
	for i, c := range cands {
		out[i] = c.pt
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
