package canvas

import (
	"testing"

	"github.com/matzehuels/treecanvas/pkg/geom"
)

func TestPlacementFind(t *testing.T) {
	p := DefaultPlacement()
	base := geom.Point{X: 0, Y: 0}

	tests := []struct {
		name     string
		occupied []geom.Point
		want     geom.Point
	}{
		{"empty canvas", nil, base},
		{"base taken, top of first ring", []geom.Point{base}, geom.Point{X: 0, Y: -140}},
		{
			"base and top taken",
			[]geom.Point{base, {X: 0, Y: -140}},
			geom.Point{X: 140, Y: 0},
		},
		{"far point does not block", []geom.Point{{X: 1000, Y: 1000}}, base},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Find(base, tt.occupied, base); got != tt.want {
				t.Errorf("Find() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlacementFallback(t *testing.T) {
	p := Placement{MaxRings: 1}
	var occupied []geom.Point
	for x := -2; x <= 2; x++ {
		for y := -2; y <= 2; y++ {
			occupied = append(occupied, geom.Point{X: float64(x) * 140, Y: float64(y) * 140})
		}
	}
	fallback := geom.Point{X: 7, Y: 7}
	if got := p.Find(geom.Point{}, occupied, fallback); got != fallback {
		t.Errorf("exhausted search = %v, want fallback %v", got, fallback)
	}
}

func TestPlacementBase(t *testing.T) {
	p := DefaultPlacement()
	p.Origin = geom.Point{X: 50, Y: 60}
	if got := p.Base(nil); got != p.Origin {
		t.Errorf("root base = %v", got)
	}
	if got := p.Base(&geom.Point{X: 10, Y: 20}); got != (geom.Point{X: 10, Y: 180}) {
		t.Errorf("child base = %v", got)
	}
}
