package layout

import (
	"github.com/matzehuels/gitmorph/pkg/graph"
)

// Zoom limits and fitting constants.
const (
	MinScale   = 0.2
	MaxScale   = 8.0
	fitMargin  = 20.0 // per side
	fitFactor  = 0.9
	nodeRadius = 10.0
)

// Transform is a uniform scale followed by a translation, as applied by a
// renderer's zoom group: p' = p*Scale + (TranslateX, TranslateY).
type Transform struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
}

// Identity is the transform that leaves points unchanged.
var Identity = Transform{Scale: 1}

// Apply maps p through the transform.
func (t Transform) Apply(p graph.Point) graph.Point {
	return graph.Point{X: p.X*t.Scale + t.TranslateX, Y: p.Y*t.Scale + t.TranslateY}
}

// Fit returns the transform that centers the laid-out snapshot inside a
// width x height viewport. The node bounding box (grown by the node radius)
// is scaled to fit the viewport less a 20 unit margin per side, then shrunk
// by 10% and clamped to [MinScale, MaxScale].
func Fit(s *graph.Snapshot, width, height float64) Transform {
	lo, hi, ok := s.Bounds()
	if !ok {
		return Identity
	}
	return FitBox(lo, hi, width, height)
}

// FitBox is Fit for an explicit bounding box of node centers.
func FitBox(lo, hi graph.Point, width, height float64) Transform {
	if width <= 0 || height <= 0 {
		return Identity
	}
	lo.X, lo.Y = lo.X-nodeRadius, lo.Y-nodeRadius
	hi.X, hi.Y = hi.X+nodeRadius, hi.Y+nodeRadius

	bw, bh := hi.X-lo.X, hi.Y-lo.Y
	scale := min((width-2*fitMargin)/bw, (height-2*fitMargin)/bh) * fitFactor
	scale = max(MinScale, min(MaxScale, scale))

	cx, cy := lo.X+bw/2, lo.Y+bh/2
	return Transform{
		Scale:      scale,
		TranslateX: width/2 - cx*scale,
		TranslateY: height/2 - cy*scale,
	}
}
