package sketch_test

import (
	"math"
	"testing"

	"github.com/rs/zerolog"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/galou/detessellate/pkg/doc/memdoc"
	"github.com/galou/detessellate/pkg/edge"
	"github.com/galou/detessellate/pkg/plane"
	"github.com/galou/detessellate/pkg/sketch"
)

// newBuilder returns a fresh sketch inside an open memdoc transaction.
func newBuilder(t *testing.T) *memdoc.Sketch {
	t.Helper()
	d := memdoc.New()
	txn, err := d.Begin("test")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	sk, err := txn.NewSketch("Sketch")
	if err != nil {
		t.Fatalf("NewSketch: %v", err)
	}
	return sk.(*memdoc.Sketch)
}

func geometryAt(t *testing.T, b sketch.Builder, idx int) sketch.Geometry {
	t.Helper()
	g, err := b.Geometry(idx)
	if err != nil {
		t.Fatalf("Geometry(%d): %v", idx, err)
	}
	return g
}

// ---------------------------------------------------------------------------
// Projection
// ---------------------------------------------------------------------------

func TestProject_LineIntoTranslatedFrame(t *testing.T) {
	b := newBuilder(t)
	pl := plane.NewPlacement(v3.Vec{Z: 1}, v3.Vec{X: 5, Y: 5, Z: 2})
	edges := []edge.Edge{
		edge.NewLineEdge(v3.Vec{X: 5, Y: 5, Z: 2}, v3.Vec{X: 8, Y: 5, Z: 2}),
	}

	entries := sketch.Project(b, pl, edges, zerolog.Nop())
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	seg, ok := geometryAt(t, b, entries[0].Index).(sketch.Segment)
	if !ok {
		t.Fatalf("geometry is %T, want Segment", geometryAt(t, b, entries[0].Index))
	}
	if math.Abs(seg.Start.X) > 1e-9 || math.Abs(seg.Start.Y) > 1e-9 {
		t.Errorf("start = %v, want local origin", seg.Start)
	}
	if math.Abs(seg.End.X-3) > 1e-9 || math.Abs(seg.End.Y) > 1e-9 {
		t.Errorf("end = %v, want (3, 0)", seg.End)
	}
}

func TestProject_FullCircle(t *testing.T) {
	b := newBuilder(t)
	c := edge.CircleData{Center: v3.Vec{Z: 10}, Axis: v3.Vec{Z: 1}, Radius: 5}
	e := edge.NewCircleEdge(c, 0, 2*math.Pi)
	pl := plane.NewPlacement(v3.Vec{Z: 1}, v3.Vec{Z: 10})

	entries := sketch.Project(b, pl, []edge.Edge{e}, zerolog.Nop())
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	circ, ok := geometryAt(t, b, entries[0].Index).(sketch.Circle)
	if !ok {
		t.Fatalf("geometry is %T, want Circle", geometryAt(t, b, entries[0].Index))
	}
	if circ.Center.Length() > 1e-9 {
		t.Errorf("center = %v, want origin", circ.Center)
	}
	if math.Abs(circ.Radius-5) > 1e-9 {
		t.Errorf("radius = %g, want 5", circ.Radius)
	}
}

func TestProject_ArcRadiusRoundTrip(t *testing.T) {
	// A half arc in a tilted plane: the realized arc must reproduce the
	// source radius regardless of the frame rotation.
	axis := v3.Vec{X: 1, Y: 1, Z: 1}.Normalize()
	c := edge.CircleData{Center: v3.Vec{X: 2, Y: -1, Z: 4}, Axis: axis, Radius: 3}
	e := edge.NewCircleEdge(c, 0, math.Pi)
	pl := plane.NewPlacement(axis, c.Center)

	b := newBuilder(t)
	entries := sketch.Project(b, pl, []edge.Edge{e}, zerolog.Nop())
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	arc, ok := geometryAt(t, b, entries[0].Index).(sketch.Arc)
	if !ok {
		t.Fatalf("geometry is %T, want Arc", geometryAt(t, b, entries[0].Index))
	}
	if math.Abs(arc.Radius-3) > 1e-6 {
		t.Errorf("realized radius = %g, want 3", arc.Radius)
	}
	if arc.Center.Length() > 1e-6 {
		t.Errorf("realized center = %v, want origin", arc.Center)
	}
}

func TestProject_SplineCopiesParametrization(t *testing.T) {
	poles := []v3.Vec{{Z: 1}, {X: 1, Y: 2, Z: 1}, {X: 3, Y: 2, Z: 1}, {X: 4, Z: 1}}
	data := edge.BSplineData{
		Poles:  poles,
		Knots:  []float64{0, 0.5, 1},
		Mults:  []int{3, 1, 3},
		Degree: 2,
	}
	e := edge.NewSplineEdge(data)
	pl := plane.NewPlacement(v3.Vec{Z: 1}, v3.Vec{Z: 1})

	b := newBuilder(t)
	entries := sketch.Project(b, pl, []edge.Edge{e}, zerolog.Nop())
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	sp, ok := geometryAt(t, b, entries[0].Index).(sketch.Spline)
	if !ok {
		t.Fatalf("geometry is %T, want Spline", geometryAt(t, b, entries[0].Index))
	}
	if len(sp.Poles) != len(poles) {
		t.Fatalf("poles = %d, want %d", len(sp.Poles), len(poles))
	}
	for i, k := range data.Knots {
		if sp.Knots[i] != k {
			t.Errorf("knot %d = %g, want %g", i, sp.Knots[i], k)
		}
	}
	for i, m := range data.Mults {
		if sp.Mults[i] != m {
			t.Errorf("mult %d = %d, want %d", i, sp.Mults[i], m)
		}
	}
	if sp.Degree != 2 || sp.Periodic {
		t.Errorf("degree/periodic = %d/%v, want 2/false", sp.Degree, sp.Periodic)
	}
	// Poles moved into the local frame: last pole at (4, 0).
	last := sp.Poles[len(sp.Poles)-1]
	if math.Abs(last.X-4) > 1e-9 || math.Abs(last.Y) > 1e-9 {
		t.Errorf("last pole = %v, want (4, 0)", last)
	}
}

func TestProject_UnsupportedFallsBackToChord(t *testing.T) {
	b := newBuilder(t)
	e := edge.NewOtherEdge("Ellipse", v3.Vec{}, v3.Vec{X: 2, Y: 2})
	entries := sketch.Project(b, plane.Identity(), []edge.Edge{e}, zerolog.Nop())
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if _, ok := geometryAt(t, b, entries[0].Index).(sketch.Segment); !ok {
		t.Errorf("fallback geometry is not a segment")
	}
}

func TestProject_BadEdgeSkipped(t *testing.T) {
	b := newBuilder(t)
	edges := []edge.Edge{
		edge.NewCircleEdge(edge.CircleData{Axis: v3.Vec{Z: 1}}, 0, 2*math.Pi), // radius 0
		edge.NewLineEdge(v3.Vec{}, v3.Vec{X: 1}),
	}
	entries := sketch.Project(b, plane.Identity(), edges, zerolog.Nop())
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1 (bad circle skipped)", len(entries))
	}
	if _, ok := geometryAt(t, b, entries[0].Index).(sketch.Segment); !ok {
		t.Errorf("surviving geometry is not the line")
	}
}

// ---------------------------------------------------------------------------
// Constraint synthesis
// ---------------------------------------------------------------------------

// project is a shorthand for projecting with the identity placement.
func project(t *testing.T, b *memdoc.Sketch, edges ...edge.Edge) []sketch.Entry {
	t.Helper()
	return sketch.Project(b, plane.Identity(), edges, zerolog.Nop())
}

func constraintsOfKind(sk *memdoc.Sketch, kind sketch.ConstraintKind) []memdoc.ConstraintInfo {
	var out []memdoc.ConstraintInfo
	for _, c := range sk.Constraints() {
		if c.Constraint.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func TestConstrain_SharedVertexCoincidence(t *testing.T) {
	b := newBuilder(t)
	entries := project(t, b,
		edge.NewLineEdge(v3.Vec{}, v3.Vec{X: 10}),
		edge.NewLineEdge(v3.Vec{X: 10}, v3.Vec{X: 10, Y: 5}),
	)

	counts := sketch.Constrain(b, entries, zerolog.Nop())
	if counts.Coincident != 1 {
		t.Errorf("coincident = %d, want 1", counts.Coincident)
	}
	cons := constraintsOfKind(b, sketch.ConstraintCoincident)
	if len(cons) != 1 {
		t.Fatalf("stored coincident constraints = %d, want 1", len(cons))
	}
	c := cons[0].Constraint
	if c.Geo != 0 || c.Point != sketch.PointEnd || c.OtherGeo != 1 || c.OtherPoint != sketch.PointStart {
		t.Errorf("constraint joins (%d.%d)-(%d.%d), want (0.2)-(1.1)",
			c.Geo, c.Point, c.OtherGeo, c.OtherPoint)
	}
}

func TestConstrain_FirstPairOnly(t *testing.T) {
	// Three segments meeting at one point: only the first two get
	// constrained together.
	b := newBuilder(t)
	entries := project(t, b,
		edge.NewLineEdge(v3.Vec{}, v3.Vec{X: 1}),
		edge.NewLineEdge(v3.Vec{}, v3.Vec{Y: 1}),
		edge.NewLineEdge(v3.Vec{}, v3.Vec{X: 1, Y: 1}),
	)

	counts := sketch.Constrain(b, entries, zerolog.Nop())
	if counts.Coincident != 1 {
		t.Errorf("coincident = %d, want 1 (first pair only)", counts.Coincident)
	}
}

func TestConstrain_OriginCenteredCircle(t *testing.T) {
	b := newBuilder(t)
	c := edge.CircleData{Axis: v3.Vec{Z: 1}, Radius: 4}
	entries := project(t, b, edge.NewCircleEdge(c, 0, 2*math.Pi))

	counts := sketch.Constrain(b, entries, zerolog.Nop())
	if counts.ConstructionLines != 0 {
		t.Errorf("construction lines = %d, want 0", counts.ConstructionLines)
	}
	if counts.Coincident != 1 {
		t.Errorf("coincident = %d, want 1 (direct center anchor)", counts.Coincident)
	}
	if counts.Block != 0 {
		t.Errorf("block = %d, want 0", counts.Block)
	}
	cons := constraintsOfKind(b, sketch.ConstraintCoincident)
	c0 := cons[0].Constraint
	if c0.Point != sketch.PointCenter || c0.OtherGeo != sketch.OriginGeo || c0.OtherPoint != sketch.PointStart {
		t.Errorf("anchor constraint = %+v, want center to origin", c0)
	}
}

func TestConstrain_OffCenterCircleGetsConstructionLine(t *testing.T) {
	b := newBuilder(t)
	c := edge.CircleData{Center: v3.Vec{X: 3, Y: 4}, Axis: v3.Vec{Z: 1}, Radius: 2}
	entries := project(t, b, edge.NewCircleEdge(c, 0, 2*math.Pi))

	counts := sketch.Constrain(b, entries, zerolog.Nop())
	if counts.ConstructionLines != 1 {
		t.Fatalf("construction lines = %d, want 1", counts.ConstructionLines)
	}
	if counts.Coincident != 2 {
		t.Errorf("coincident = %d, want 2", counts.Coincident)
	}
	if counts.Block != 1 {
		t.Errorf("block = %d, want 1", counts.Block)
	}

	// The construction line is appended after the primary geometry and
	// tagged as construction.
	geoms := b.Geometries()
	if len(geoms) != 2 {
		t.Fatalf("geometry count = %d, want 2", len(geoms))
	}
	if !geoms[1].Construction {
		t.Errorf("appended line is not construction geometry")
	}
	seg := geoms[1].Geometry.(sketch.Segment)
	if math.Abs(seg.Start.X-3) > 1e-9 || math.Abs(seg.Start.Y-4) > 1e-9 {
		t.Errorf("construction line start = %v, want circle center", seg.Start)
	}
	if seg.End.Length() > 1e-9 {
		t.Errorf("construction line end = %v, want origin", seg.End)
	}
}

func TestConstrain_RadiusPerCircularEntry(t *testing.T) {
	b := newBuilder(t)
	full := edge.NewCircleEdge(edge.CircleData{Center: v3.Vec{X: 1}, Axis: v3.Vec{Z: 1}, Radius: 2}, 0, 2*math.Pi)
	half := edge.NewCircleEdge(edge.CircleData{Center: v3.Vec{X: 8}, Axis: v3.Vec{Z: 1}, Radius: 3}, 0, math.Pi)
	entries := project(t, b, full, half)

	counts := sketch.Constrain(b, entries, zerolog.Nop())
	if counts.Radius != 2 {
		t.Fatalf("radius constraints = %d, want 2", counts.Radius)
	}
	cons := constraintsOfKind(b, sketch.ConstraintRadius)
	want := map[int]float64{entries[0].Index: 2, entries[1].Index: 3}
	for _, ci := range cons {
		if r, ok := want[ci.Constraint.Geo]; !ok || math.Abs(ci.Constraint.Value-r) > 1e-6 {
			t.Errorf("radius on geo %d = %g, want %g", ci.Constraint.Geo, ci.Constraint.Value, r)
		}
	}
}

func TestConstrain_ReferenceDistanceNonDriving(t *testing.T) {
	b := newBuilder(t)
	entries := project(t, b, edge.NewLineEdge(v3.Vec{}, v3.Vec{X: 3, Y: 4}))

	counts := sketch.Constrain(b, entries, zerolog.Nop())
	if counts.Distance != 1 {
		t.Fatalf("distance constraints = %d, want 1", counts.Distance)
	}
	cons := constraintsOfKind(b, sketch.ConstraintDistance)
	if math.Abs(cons[0].Constraint.Value-5) > 1e-9 {
		t.Errorf("distance = %g, want 5", cons[0].Constraint.Value)
	}
	if cons[0].Driving {
		t.Errorf("reference distance is driving")
	}
}

func TestConstrain_ConstructionLineNotDistanced(t *testing.T) {
	// The construction line created by center anchoring must not get a
	// reference distance: pass 4 only covers primary entries.
	b := newBuilder(t)
	c := edge.CircleData{Center: v3.Vec{X: 3}, Axis: v3.Vec{Z: 1}, Radius: 1}
	entries := project(t, b, edge.NewCircleEdge(c, 0, 2*math.Pi))

	counts := sketch.Constrain(b, entries, zerolog.Nop())
	if counts.Distance != 0 {
		t.Errorf("distance constraints = %d, want 0", counts.Distance)
	}
}
