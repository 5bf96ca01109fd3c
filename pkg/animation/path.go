package animation

import (
	"math"
	"strconv"

	"github.com/matzehuels/gitmorph/pkg/graph"
)

// Path is a link's drawn geometry: either a straight segment or a cubic
// Bezier whose control points share the vertical midpoint.
type Path struct {
	Start    graph.Point `json:"start"`
	C1       graph.Point `json:"c1"`
	C2       graph.Point `json:"c2"`
	End      graph.Point `json:"end"`
	Straight bool        `json:"straight"`
}

// straightTolerance is the largest x difference still drawn as a line.
const straightTolerance = 1.0

// PathBetween returns the path from s to t.
func PathBetween(s, t graph.Point) Path {
	if math.Abs(s.X-t.X) < straightTolerance {
		return Path{Start: s, C1: s, C2: t, End: t, Straight: true}
	}
	midY := (s.Y + t.Y) / 2
	return Path{
		Start: s,
		C1:    graph.Point{X: s.X, Y: midY},
		C2:    graph.Point{X: t.X, Y: midY},
		End:   t,
	}
}

// D returns the SVG path data, "M x,y L x,y" or "M x,y C x,y x,y x,y".
func (p Path) D() string {
	b := make([]byte, 0, 64)
	b = append(b, 'M')
	b = appendPoint(b, p.Start)
	if p.Straight {
		b = append(b, " L"...)
		b = appendPoint(b, p.End)
		return string(b)
	}
	b = append(b, " C"...)
	b = appendPoint(b, p.C1)
	b = append(b, ' ')
	b = appendPoint(b, p.C2)
	b = append(b, ' ')
	b = appendPoint(b, p.End)
	return string(b)
}

// At evaluates the path at parameter u in [0, 1].
func (p Path) At(u float64) graph.Point {
	u = clamp01(u)
	if p.Straight {
		return lerpPoint(p.Start, p.End, u)
	}
	v := 1 - u
	a, b, c, d := v*v*v, 3*v*v*u, 3*v*u*u, u*u*u
	return graph.Point{
		X: a*p.Start.X + b*p.C1.X + c*p.C2.X + d*p.End.X,
		Y: a*p.Start.Y + b*p.C1.Y + c*p.C2.Y + d*p.End.Y,
	}
}

func appendPoint(b []byte, p graph.Point) []byte {
	b = strconv.AppendFloat(b, p.X, 'f', -1, 64)
	b = append(b, ',')
	return strconv.AppendFloat(b, p.Y, 'f', -1, 64)
}
