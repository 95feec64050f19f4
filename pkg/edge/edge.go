// Package edge defines the immutable edge records read from the host
// document. An edge carries a classified curve, its curve-specific
// parameter set, and its ordered pair of boundary vertices. Edges are
// inputs to the reconstruction pipeline and are never mutated.
package edge

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// CurveKind classifies an edge's underlying curve.
type CurveKind int

const (
	KindLine    CurveKind = iota // straight segment
	KindCircle                   // full circle or circular arc
	KindBSpline                  // B-spline curve
	KindOther                    // anything else; falls back to a chord
)

func (k CurveKind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindCircle:
		return "circle"
	case KindBSpline:
		return "bspline"
	case KindOther:
		return "other"
	default:
		return fmt.Sprintf("CurveKind(%d)", int(k))
	}
}

// Curve is the closed union of curve parameter sets. Implementations
// are the *Data types in this package; nothing outside it may add one.
type Curve interface {
	curveData()
}

// LineData is a straight segment. The edge's boundary vertices are its
// endpoints, so the line itself needs no extra parameters.
type LineData struct{}

func (LineData) curveData() {}

// CircleData is a circle or circular arc. The parameter range on the
// owning edge selects the arc; a full circle spans 2π.
type CircleData struct {
	Center v3.Vec
	Axis   v3.Vec // unit normal of the circle's plane
	Radius float64
}

func (CircleData) curveData() {}

// BSplineData carries the full B-spline parametrization. Knots,
// multiplicities, degree and periodicity are invariant under rigid
// transforms; only the poles move.
type BSplineData struct {
	Poles    []v3.Vec
	Knots    []float64
	Mults    []int
	Degree   int
	Periodic bool
}

func (BSplineData) curveData() {}

// OtherData stands in for a curve kind the pipeline has no native
// representation for. TypeName records what the host reported.
type OtherData struct {
	TypeName string
}

func (OtherData) curveData() {}

// Kind classifies a curve. Classification is a pure function of the
// curve's Go type: reclassifying is deterministic and side-effect-free.
// A nil curve classifies as KindOther.
func Kind(c Curve) CurveKind {
	switch c.(type) {
	case LineData:
		return KindLine
	case CircleData:
		return KindCircle
	case BSplineData:
		return KindBSpline
	default:
		return KindOther
	}
}

// Edge is an immutable input record: one boundary edge of a host shape.
type Edge struct {
	Curve      Curve
	Verts      [2]v3.Vec // ordered boundary vertex positions
	FirstParam float64
	LastParam  float64
}

// Kind returns the edge's curve classification.
func (e Edge) Kind() CurveKind {
	return Kind(e.Curve)
}

// Length returns the edge's arc length. Lines and circular arcs are
// exact. B-splines and fallback curves report the boundary chord
// length; the pipeline only consults Length for circles, where it
// decides full-circle versus arc.
func (e Edge) Length() float64 {
	switch c := e.Curve.(type) {
	case CircleData:
		return c.Radius * math.Abs(e.LastParam-e.FirstParam)
	default:
		return e.Verts[1].Sub(e.Verts[0]).Length()
	}
}

// PointAt evaluates the edge's curve at parameter t. Only lines and
// circles are evaluable; the pipeline needs evaluation solely for the
// geometric midpoint of circular arcs.
func (e Edge) PointAt(t float64) (v3.Vec, error) {
	switch c := e.Curve.(type) {
	case LineData:
		d := e.Verts[1].Sub(e.Verts[0])
		span := e.LastParam - e.FirstParam
		if span == 0 {
			return e.Verts[0], nil
		}
		return e.Verts[0].Add(d.MulScalar((t - e.FirstParam) / span)), nil
	case CircleData:
		// Build an orthonormal frame in the circle's plane with u
		// pointing at the parameter-zero position, derived from the
		// first boundary vertex.
		u := e.Verts[0].Sub(c.Center)
		if u.Length() < 1e-12 {
			// Degenerate boundary vertex; fall back to any radial
			// direction in the circle's plane.
			u = perpendicular(c.Axis)
		}
		u = u.Normalize()
		w := c.Axis.Cross(u).Normalize()
		a := t - e.FirstParam
		return c.Center.
			Add(u.MulScalar(c.Radius * math.Cos(a))).
			Add(w.MulScalar(c.Radius * math.Sin(a))), nil
	default:
		return v3.Vec{}, fmt.Errorf("edge: cannot evaluate %s curve at parameter", e.Kind())
	}
}

// MidPoint returns the point at the middle of the edge's parameter
// range.
func (e Edge) MidPoint() (v3.Vec, error) {
	return e.PointAt((e.FirstParam + e.LastParam) / 2)
}

// perpendicular returns an arbitrary unit vector perpendicular to n.
func perpendicular(n v3.Vec) v3.Vec {
	ref := v3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		ref = v3.Vec{Y: 1}
	}
	return n.Cross(ref).Normalize()
}
