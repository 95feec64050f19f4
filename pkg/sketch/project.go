package sketch

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/rs/zerolog"

	"github.com/galou/detessellate/pkg/edge"
	"github.com/galou/detessellate/pkg/plane"
)

// fullCircleTol is the absolute arc-length tolerance that separates a
// full circle from an arc, in length units.
const fullCircleTol = 0.01

// Project re-projects each edge into the placement's local frame and
// appends the resulting geometry to the builder, preserving curve
// semantics. The returned entries are in creation order. A failure on
// one edge is logged and that edge skipped; the pass continues, so one
// odd edge never aborts the rest.
func Project(b Builder, pl plane.Placement, edges []edge.Edge, log zerolog.Logger) []Entry {
	inv := pl.Inverse()

	var entries []Entry
	for i, e := range edges {
		if e.Kind() == edge.KindOther {
			name := "unknown"
			if o, ok := e.Curve.(edge.OtherData); ok && o.TypeName != "" {
				name = o.TypeName
			}
			log.Warn().Int("edge", i).Str("type", name).
				Msg("unsupported curve type, converting to line")
		}

		g, err := localGeometry(e, inv)
		if err == nil {
			var idx int
			idx, err = b.AddGeometry(g, false)
			if err == nil {
				entries = append(entries, Entry{Index: idx, Edge: e})
				continue
			}
		}
		log.Warn().Int("edge", i).Err(err).Msg("failed to add edge, skipping")
	}
	return entries
}

// localGeometry maps one edge's native curve into the local frame.
func localGeometry(e edge.Edge, inv sdf.M44) (Geometry, error) {
	switch c := e.Curve.(type) {
	case edge.CircleData:
		return localCircle(e, c, inv)

	case edge.BSplineData:
		poles := make([]v2.Vec, len(c.Poles))
		for i, p := range c.Poles {
			poles[i] = flatten(inv.MulPosition(p))
		}
		// Knots, multiplicities, degree and periodicity are invariant
		// under the rigid transform and copy over verbatim.
		return Spline{
			Poles:    poles,
			Knots:    append([]float64(nil), c.Knots...),
			Mults:    append([]int(nil), c.Mults...),
			Degree:   c.Degree,
			Periodic: c.Periodic,
		}, nil

	default:
		// Lines, and the chord fallback for unsupported kinds.
		return Segment{
			Start: flatten(inv.MulPosition(e.Verts[0])),
			End:   flatten(inv.MulPosition(e.Verts[1])),
		}, nil
	}
}

// localCircle decides full circle versus arc by comparing the edge's
// arc length against the full circumference. Arcs are rebuilt from
// three points: start, geometric midpoint by parameter, end.
func localCircle(e edge.Edge, c edge.CircleData, inv sdf.M44) (Geometry, error) {
	if math.Abs(e.Length()-2*math.Pi*c.Radius) < fullCircleTol {
		return Circle{
			Center: flatten(inv.MulPosition(c.Center)),
			Radius: c.Radius,
		}, nil
	}

	mid, err := e.MidPoint()
	if err != nil {
		return nil, fmt.Errorf("arc midpoint: %w", err)
	}
	return ThreePointArc{
		Start: flatten(inv.MulPosition(e.Verts[0])),
		Mid:   flatten(inv.MulPosition(mid)),
		End:   flatten(inv.MulPosition(e.Verts[1])),
	}, nil
}

// flatten drops the local Z coordinate, which is within tolerance of
// zero for any point on the fitted plane.
func flatten(v v3.Vec) v2.Vec {
	return v2.Vec{X: v.X, Y: v.Y}
}
