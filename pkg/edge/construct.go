package edge

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// NewLineEdge builds a straight edge between two points. The parameter
// range is arc length, as hosts report it.
func NewLineEdge(a, b v3.Vec) Edge {
	return Edge{
		Curve:     LineData{},
		Verts:     [2]v3.Vec{a, b},
		LastParam: b.Sub(a).Length(),
	}
}

// NewCircleEdge builds a circle or arc edge from circle data and a
// parameter range in radians. A full circle spans [0, 2π]. The boundary
// vertices are derived from the parameter range; parameter zero lies on
// an arbitrary but fixed radial direction in the circle's plane.
func NewCircleEdge(c CircleData, first, last float64) Edge {
	c.Axis = c.Axis.Normalize()
	u := perpendicular(c.Axis)
	w := c.Axis.Cross(u)
	at := func(t float64) v3.Vec {
		return c.Center.
			Add(u.MulScalar(c.Radius * math.Cos(t))).
			Add(w.MulScalar(c.Radius * math.Sin(t)))
	}
	return Edge{
		Curve:      c,
		Verts:      [2]v3.Vec{at(first), at(last)},
		FirstParam: first,
		LastParam:  last,
	}
}

// NewSplineEdge builds a B-spline edge. The boundary vertices are the
// end poles; clamped splines interpolate them.
func NewSplineEdge(b BSplineData) Edge {
	var first, last float64
	if n := len(b.Knots); n > 0 {
		first, last = b.Knots[0], b.Knots[n-1]
	}
	var verts [2]v3.Vec
	if n := len(b.Poles); n > 0 {
		verts = [2]v3.Vec{b.Poles[0], b.Poles[n-1]}
	}
	return Edge{Curve: b, Verts: verts, FirstParam: first, LastParam: last}
}

// NewOtherEdge builds a fallback record for a curve kind the pipeline
// has no native representation for. Only the boundary chord survives.
func NewOtherEdge(typeName string, a, b v3.Vec) Edge {
	return Edge{
		Curve:     OtherData{TypeName: typeName},
		Verts:     [2]v3.Vec{a, b},
		LastParam: b.Sub(a).Length(),
	}
}
