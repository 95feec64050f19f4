// Package plane fits a supporting plane to a set of boundary edges and
// builds the rigid placement used as the sketch's local coordinate
// frame. Fitting is exact, not least-squares: the input is required to
// be coplanar within tolerance, and fitting fails otherwise.
package plane

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/galou/detessellate/pkg/edge"
)

// Tolerance is the coplanarity and point-identity tolerance, in length
// units.
const Tolerance = 1e-6

// Plane is a point and a unit normal.
type Plane struct {
	Point  v3.Vec
	Normal v3.Vec
}

// Distance returns the absolute distance from p to the plane.
func (pl Plane) Distance(p v3.Vec) float64 {
	d := p.Sub(pl.Point).Dot(pl.Normal)
	if d < 0 {
		return -d
	}
	return d
}

// FitErrorKind distinguishes the ways plane fitting can fail.
type FitErrorKind int

const (
	FitInsufficientData FitErrorKind = iota // fewer than 3 unique points
	FitCollinear                            // no non-collinear point pair
	FitNonPlanar                            // a point violates the tolerance
	FitUnsupported                          // lone curve cannot define a plane
)

func (k FitErrorKind) String() string {
	switch k {
	case FitInsufficientData:
		return "insufficient data"
	case FitCollinear:
		return "collinear"
	case FitNonPlanar:
		return "non-planar"
	case FitUnsupported:
		return "unsupported geometry"
	default:
		return fmt.Sprintf("FitErrorKind(%d)", int(k))
	}
}

// FitError reports a plane-fitting failure. All fit failures are fatal
// to the enclosing operation.
type FitError struct {
	Kind   FitErrorKind
	Reason string
}

func (e *FitError) Error() string {
	return fmt.Sprintf("plane fit: %s: %s", e.Kind, e.Reason)
}

// IsPlanarity reports whether the failure is a planarity violation
// (collinear or non-coplanar input) as opposed to missing or
// unsupported input.
func (e *FitError) IsPlanarity() bool {
	return e.Kind == FitCollinear || e.Kind == FitNonPlanar
}

// Fit computes the supporting plane and the frame origin for a set of
// classified edges using the default tolerance. See FitTol.
func Fit(edges []edge.Edge) (Plane, v3.Vec, error) {
	return FitTol(edges, Tolerance)
}

// FitTol fits a plane to the edges. A single edge must define its own
// plane (a circle via center and axis, a planar B-spline via its
// poles); two or more edges are fitted through their boundary vertices
// and verified coplanar. The returned point is the frame origin: the
// plane-defining point for a single edge, the centroid of all boundary
// vertices otherwise.
func FitTol(edges []edge.Edge, tol float64) (Plane, v3.Vec, error) {
	switch len(edges) {
	case 0:
		return Plane{}, v3.Vec{}, &FitError{FitInsufficientData, "no edges"}
	case 1:
		return fitSingle(edges[0], tol)
	default:
		return fitMulti(edges, tol)
	}
}

// fitSingle handles the one-edge case: the curve itself must define the
// plane.
func fitSingle(e edge.Edge, tol float64) (Plane, v3.Vec, error) {
	switch c := e.Curve.(type) {
	case edge.CircleData:
		pl := Plane{Point: c.Center, Normal: c.Axis.Normalize()}
		return pl, c.Center, nil

	case edge.BSplineData:
		if len(c.Poles) < 3 {
			return Plane{}, v3.Vec{}, &FitError{FitInsufficientData,
				"B-spline has too few control points to define a plane"}
		}
		normal, ok := normalFromPoints(c.Poles, tol)
		if !ok {
			return Plane{}, v3.Vec{}, &FitError{FitCollinear,
				"B-spline control points are collinear"}
		}
		pl := Plane{Point: c.Poles[0], Normal: normal}
		for _, p := range c.Poles {
			if pl.Distance(p) > tol {
				return Plane{}, v3.Vec{}, &FitError{FitNonPlanar,
					"B-spline is non-planar; select additional edges to define the plane"}
			}
		}
		return pl, pl.Point, nil

	default:
		return Plane{}, v3.Vec{}, &FitError{FitUnsupported,
			fmt.Sprintf("a single %s edge cannot define a plane; select at least 2 edges", e.Kind())}
	}
}

// fitMulti handles two or more edges: gather boundary vertices, find
// three non-collinear unique points, then verify every vertex lies on
// the resulting plane.
func fitMulti(edges []edge.Edge, tol float64) (Plane, v3.Vec, error) {
	var all, unique []v3.Vec
	for _, e := range edges {
		for _, p := range e.Verts {
			all = append(all, p)
			if !containsPoint(unique, p, tol) {
				unique = append(unique, p)
			}
		}
	}

	if len(unique) < 3 {
		return Plane{}, v3.Vec{}, &FitError{FitInsufficientData,
			"selected edges do not provide enough unique points to define a plane"}
	}

	// The normal search runs over unique points only; duplicated
	// vertices would otherwise defeat the collinearity test.
	normal, ok := normalFromPoints(unique, tol)
	if !ok {
		return Plane{}, v3.Vec{}, &FitError{FitCollinear,
			"selected edges are collinear and cannot define a plane"}
	}

	pl := Plane{Point: unique[0], Normal: normal}
	for _, p := range all {
		if pl.Distance(p) > tol {
			return Plane{}, v3.Vec{}, &FitError{FitNonPlanar,
				"selected edges are not coplanar"}
		}
	}

	return pl, centroid(all), nil
}

// normalFromPoints searches pairs (i, j), i < j, of offsets from
// pts[0] for the first whose cross product exceeds the tolerance, and
// returns it normalized. Reports false when every pair is degenerate,
// meaning the points are collinear.
func normalFromPoints(pts []v3.Vec, tol float64) (v3.Vec, bool) {
	base := pts[0]
	for i := 1; i < len(pts); i++ {
		v1 := pts[i].Sub(base)
		for j := i + 1; j < len(pts); j++ {
			v2 := pts[j].Sub(base)
			cross := v1.Cross(v2)
			if cross.Length() > tol {
				return cross.Normalize(), true
			}
		}
	}
	return v3.Vec{}, false
}

// containsPoint reports whether p matches any point in pts within tol.
func containsPoint(pts []v3.Vec, p v3.Vec, tol float64) bool {
	for _, q := range pts {
		if q.Equals(p, tol) {
			return true
		}
	}
	return false
}

// centroid returns the arithmetic mean of the points.
func centroid(pts []v3.Vec) v3.Vec {
	var sum v3.Vec
	for _, p := range pts {
		sum = sum.Add(p)
	}
	return sum.DivScalar(float64(len(pts)))
}
