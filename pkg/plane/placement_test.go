package plane

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestNewPlacement_AlignedNormal(t *testing.T) {
	p := NewPlacement(v3.Vec{Z: 1}, v3.Vec{X: 1, Y: 2, Z: 3})
	if !p.Normal().Equals(v3.Vec{Z: 1}, 1e-9) {
		t.Errorf("normal = %v, want +Z", p.Normal())
	}
	// Identity rotation: local X stays global X.
	x := p.Rot.MulPosition(v3.Vec{X: 1})
	if !x.Equals(v3.Vec{X: 1}, 1e-9) {
		t.Errorf("rotated X = %v, want identity", x)
	}
}

func TestNewPlacement_AntiParallelNormal(t *testing.T) {
	p := NewPlacement(v3.Vec{Z: -1}, v3.Vec{})
	if !p.Normal().Equals(v3.Vec{Z: -1}, 1e-9) {
		t.Errorf("normal = %v, want -Z", p.Normal())
	}
	// The tie-break is a 180° rotation about X: local Y flips, local X
	// is preserved.
	x := p.Rot.MulPosition(v3.Vec{X: 1})
	y := p.Rot.MulPosition(v3.Vec{Y: 1})
	if !x.Equals(v3.Vec{X: 1}, 1e-9) {
		t.Errorf("rotated X = %v, want +X", x)
	}
	if !y.Equals(v3.Vec{Y: -1}, 1e-9) {
		t.Errorf("rotated Y = %v, want -Y", y)
	}
}

func TestNewPlacement_GeneralNormal(t *testing.T) {
	n := v3.Vec{X: 1, Y: 1, Z: 1}.Normalize()
	p := NewPlacement(n, v3.Vec{})
	if !p.Normal().Equals(n, 1e-9) {
		t.Errorf("normal = %v, want %v", p.Normal(), n)
	}
}

func TestNewPlacement_DegenerateNormal(t *testing.T) {
	p := NewPlacement(v3.Vec{}, v3.Vec{})
	if !p.Normal().Equals(v3.Vec{Z: 1}, 1e-9) {
		t.Errorf("normal = %v, want +Z default", p.Normal())
	}
}

func TestPlacement_RoundTrip(t *testing.T) {
	n := v3.Vec{X: 2, Y: -1, Z: 3}.Normalize()
	p := NewPlacement(n, v3.Vec{X: 5, Y: 6, Z: 7})

	for _, pt := range []v3.Vec{{}, {X: 1}, {X: -2, Y: 3, Z: 4}} {
		back := p.FromLocal(p.ToLocal(pt))
		if !back.Equals(pt, 1e-9) {
			t.Errorf("round trip %v -> %v", pt, back)
		}
	}
}

func TestPlacement_OriginMapsToBase(t *testing.T) {
	base := v3.Vec{X: 3, Y: -2, Z: 8}
	p := NewPlacement(v3.Vec{X: 1, Z: 1}.Normalize(), base)
	if got := p.FromLocal(v3.Vec{}); !got.Equals(base, 1e-9) {
		t.Errorf("FromLocal(origin) = %v, want %v", got, base)
	}
}

func TestPlacement_LocalPlaneIsFlat(t *testing.T) {
	// Points on the fitted plane land at local z = 0.
	n := v3.Vec{X: 1, Y: 2, Z: 2}.Normalize()
	base := v3.Vec{X: 1, Y: 1, Z: 1}
	p := NewPlacement(n, base)

	// Two points in the plane through base with normal n.
	u := n.Cross(v3.Vec{Z: 1}).Normalize()
	w := n.Cross(u)
	for _, pt := range []v3.Vec{
		base.Add(u.MulScalar(3)),
		base.Add(w.MulScalar(-2)).Add(u.MulScalar(1)),
	} {
		local := p.ToLocal(pt)
		if math.Abs(local.Z) > 1e-9 {
			t.Errorf("local Z = %g for on-plane point %v", local.Z, pt)
		}
	}
}

func TestPlacement_Mul(t *testing.T) {
	a := NewPlacement(v3.Vec{Z: 1}, v3.Vec{X: 10})
	b := NewPlacement(v3.Vec{X: 1}, v3.Vec{Y: 2})
	c := a.Mul(b)

	// Composition applied to a point equals sequential application.
	pt := v3.Vec{X: 1, Y: 2, Z: 3}
	want := a.FromLocal(b.FromLocal(pt))
	if got := c.FromLocal(pt); !got.Equals(want, 1e-9) {
		t.Errorf("composed = %v, want %v", got, want)
	}
}

func TestIdentity(t *testing.T) {
	p := Identity()
	pt := v3.Vec{X: 1, Y: 2, Z: 3}
	if got := p.FromLocal(pt); !got.Equals(pt, 1e-12) {
		t.Errorf("identity moved %v to %v", pt, got)
	}
}
