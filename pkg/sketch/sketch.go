// Package sketch defines the 2D sketch geometry model, the builder
// boundary to the host sketch object, the curve re-projection pass and
// the constraint synthesis passes. Everything here works in the
// sketch's local frame; 3D input only appears as edges paired with a
// placement.
package sketch

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/galou/detessellate/pkg/edge"
)

// Point ids for constraint references. A segment or arc has points 1
// and 2 at its ends; circles and arcs expose their center as point 3.
const (
	PointStart  = 1
	PointEnd    = 2
	PointCenter = 3
)

// OriginGeo is the pseudo geometry index of the sketch's fixed origin;
// (OriginGeo, PointStart) references the origin point itself.
const OriginGeo = -1

// Geometry is the closed union of sketch geometry forms. Implementations
// are the types in this file.
type Geometry interface {
	sketchGeometry()
}

// Segment is a straight 2D segment.
type Segment struct {
	Start, End v2.Vec
}

func (Segment) sketchGeometry() {}

// Circle is a full circle.
type Circle struct {
	Center v2.Vec
	Radius float64
}

func (Circle) sketchGeometry() {}

// ThreePointArc is the construction form of a circular arc: start
// point, a point on the arc, end point. Hosts normalize it on creation;
// reading the geometry back yields an Arc.
type ThreePointArc struct {
	Start, Mid, End v2.Vec
}

func (ThreePointArc) sketchGeometry() {}

// Arc is the realized form of a circular arc as stored by the host
// after normalization.
type Arc struct {
	Center     v2.Vec
	Radius     float64
	Start, End v2.Vec
}

func (Arc) sketchGeometry() {}

// Spline is a B-spline given by poles plus frame-invariant
// parametrization data.
type Spline struct {
	Poles    []v2.Vec
	Knots    []float64
	Mults    []int
	Degree   int
	Periodic bool
}

func (Spline) sketchGeometry() {}

// ConstraintKind enumerates the constraint relations the synthesizer
// emits.
type ConstraintKind int

const (
	ConstraintCoincident ConstraintKind = iota
	ConstraintRadius
	ConstraintBlock
	ConstraintDistance
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintCoincident:
		return "coincident"
	case ConstraintRadius:
		return "radius"
	case ConstraintBlock:
		return "block"
	case ConstraintDistance:
		return "distance"
	default:
		return fmt.Sprintf("ConstraintKind(%d)", int(k))
	}
}

// Constraint is a typed relation over geometry indices. Which fields
// are meaningful depends on Kind; use the constructors.
type Constraint struct {
	Kind       ConstraintKind
	Geo        int
	Point      int
	OtherGeo   int
	OtherPoint int
	Value      float64
}

// Coincident forces two referenced points to share one position.
func Coincident(geo, point, otherGeo, otherPoint int) Constraint {
	return Constraint{Kind: ConstraintCoincident, Geo: geo, Point: point,
		OtherGeo: otherGeo, OtherPoint: otherPoint}
}

// Radius fixes the radius of a circle or arc.
func Radius(geo int, r float64) Constraint {
	return Constraint{Kind: ConstraintRadius, Geo: geo, Value: r}
}

// Block pins a geometry in place, preventing translation and rotation.
func Block(geo int) Constraint {
	return Constraint{Kind: ConstraintBlock, Geo: geo}
}

// Distance records the length of a segment. Mark it non-driving via
// Builder.SetDriving to keep it out of the solver's degrees of freedom.
func Distance(geo int, d float64) Constraint {
	return Constraint{Kind: ConstraintDistance, Geo: geo, Value: d}
}

// Builder is the host sketch capability the pipeline appends through.
// Geometry and Point return realized values as stored by the host,
// which are authoritative over the values used at construction.
type Builder interface {
	// AddGeometry appends a geometry entry, returning its stable index.
	// Construction geometry is excluded from the exported contour.
	AddGeometry(g Geometry, construction bool) (int, error)

	// Geometry returns the realized geometry at the given index.
	Geometry(index int) (Geometry, error)

	// Point returns a realized point of an indexed geometry entry.
	Point(index, point int) (v2.Vec, error)

	// AddConstraint appends a constraint, returning its index.
	AddConstraint(c Constraint) (int, error)

	// SetDriving marks a constraint as driving or reference-only.
	SetDriving(index int, driving bool) error
}

// Entry pairs a created geometry index with its source edge. The slice
// order produced by Project is creation order and is relied on by the
// constraint passes; construction-line indices are always appended
// after the primary entries.
type Entry struct {
	Index int
	Edge  edge.Edge
}
