package plane

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// parallelDot is the |cos| threshold above which a normal is treated as
// parallel to the global Z axis and the canonical tie-break applies.
const parallelDot = 0.999

// Placement is a rigid frame: a base point that becomes the 2D frame
// origin, and a rotation mapping the local +Z axis onto the fitted
// plane normal. Construct placements with NewPlacement or Identity; the
// zero value has a degenerate rotation.
type Placement struct {
	Base v3.Vec
	Rot  sdf.M44 // rotation only, no translation component
}

// Identity returns the placement that leaves coordinates unchanged.
func Identity() Placement {
	return Placement{Rot: sdf.Identity3d()}
}

// NewPlacement builds the frame for a fitted plane. Tie-break when the
// normal is parallel to global +Z: identity if aligned, a 180° rotation
// about X if anti-parallel; otherwise the minimal rotation taking +Z to
// the normal. A degenerate zero-length normal defaults to +Z.
func NewPlacement(normal, origin v3.Vec) Placement {
	if normal.Length() < Tolerance {
		normal = v3.Vec{Z: 1}
	}
	n := normal.Normalize()
	z := v3.Vec{Z: 1}

	var rot sdf.M44
	d := n.Dot(z)
	switch {
	case d > parallelDot:
		rot = sdf.Identity3d()
	case d < -parallelDot:
		rot = sdf.RotateX(math.Pi)
	default:
		axis := z.Cross(n).Normalize()
		rot = sdf.Rotate3d(axis, math.Acos(clamp(d, -1, 1)))
	}

	return Placement{Base: origin, Rot: rot}
}

// Matrix returns the local-to-global transform.
func (p Placement) Matrix() sdf.M44 {
	return sdf.Translate3d(p.Base).Mul(p.Rot)
}

// Inverse returns the global-to-local transform. Re-projection computes
// this once per invocation and applies it to every curve.
func (p Placement) Inverse() sdf.M44 {
	return p.Matrix().Inverse()
}

// FromLocal maps a point in the frame to global coordinates.
func (p Placement) FromLocal(v v3.Vec) v3.Vec {
	return p.Matrix().MulPosition(v)
}

// ToLocal maps a global point into the frame.
func (p Placement) ToLocal(v v3.Vec) v3.Vec {
	return p.Inverse().MulPosition(v)
}

// Normal returns the plane normal the frame maps local +Z onto.
func (p Placement) Normal() v3.Vec {
	return p.Rot.MulPosition(v3.Vec{Z: 1})
}

// Mul composes two placements: the result applies o in p's frame, as a
// host resolves an attachment offset against an origin feature.
func (p Placement) Mul(o Placement) Placement {
	return Placement{
		Base: p.Matrix().MulPosition(o.Base),
		Rot:  p.Rot.Mul(o.Rot),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
