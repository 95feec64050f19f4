package sketch

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/rs/zerolog"
)

// originTol is the distance under which a center counts as already
// sitting on the sketch origin.
const originTol = 1e-6

// Counts summarizes what constraint synthesis produced.
type Counts struct {
	Coincident        int
	Radius            int
	Block             int
	Distance          int
	ConstructionLines int
	Skipped           int // constraints that failed and were skipped
}

// Constrain runs the four constraint passes over the created entries,
// in order:
//
//  1. vertex coincidence between entries sharing an endpoint;
//  2. anchoring of circle/arc centers to the origin, directly or via a
//     blocked construction line;
//  3. one radius constraint per circle/arc;
//  4. one non-driving reference distance per segment.
//
// The order is load-bearing: later passes assume earlier constraints
// fixed relative position. Every pass reads realized geometry back from
// the builder rather than reusing construction inputs, since the host
// may normalize values on creation. A failure on a single constraint is
// logged and that constraint skipped; the pass continues.
func Constrain(b Builder, entries []Entry, log zerolog.Logger) Counts {
	var counts Counts
	coincideVertices(b, entries, &counts, log)
	anchorCenters(b, entries, &counts, log)
	lockRadii(b, entries, &counts, log)
	referenceDistances(b, entries, &counts, log)
	return counts
}

// pointRef identifies one point of one geometry entry.
type pointRef struct {
	geo   int
	point int
}

// pointKey is a 2D coordinate rounded for map grouping.
type pointKey struct {
	x, y float64
}

func keyOf(p v2.Vec) pointKey {
	return pointKey{round6(p.X), round6(p.Y)}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// coincideVertices groups realized endpoints by rounded coordinates and
// emits one coincident constraint per shared position, between the
// first two members of the group. Full circles have no endpoints and
// are skipped.
func coincideVertices(b Builder, entries []Entry, counts *Counts, log zerolog.Logger) {
	groups := make(map[pointKey][]pointRef)
	var order []pointKey

	for _, ent := range entries {
		g, err := b.Geometry(ent.Index)
		if err != nil {
			log.Warn().Int("geo", ent.Index).Err(err).Msg("could not read geometry")
			continue
		}
		if _, full := g.(Circle); full {
			continue
		}
		for _, pid := range []int{PointStart, PointEnd} {
			p, err := b.Point(ent.Index, pid)
			if err != nil {
				log.Warn().Int("geo", ent.Index).Int("point", pid).Err(err).
					Msg("could not read point")
				continue
			}
			k := keyOf(p)
			if _, seen := groups[k]; !seen {
				order = append(order, k)
			}
			groups[k] = append(groups[k], pointRef{ent.Index, pid})
		}
	}

	for _, k := range order {
		refs := groups[k]
		if len(refs) < 2 {
			continue
		}
		// First-found pair only. Three or more entries meeting at one
		// point still get a single constraint between the first two.
		base, other := refs[0], refs[1]
		c := Coincident(base.geo, base.point, other.geo, other.point)
		if _, err := b.AddConstraint(c); err != nil {
			counts.Skipped++
			log.Warn().Int("geo", base.geo).Int("other", other.geo).Err(err).
				Msg("failed to add coincident constraint")
			continue
		}
		counts.Coincident++
	}
}

// anchorCenters pins every circle/arc center to the origin. A center
// already on the origin is constrained directly; any other center gets
// a construction line to the origin, coincident at both ends. Block
// constraints on the construction lines are deferred until all lines
// exist, then applied together.
func anchorCenters(b Builder, entries []Entry, counts *Counts, log zerolog.Logger) {
	var blocked []int

	for _, ent := range entries {
		g, err := b.Geometry(ent.Index)
		if err != nil {
			log.Warn().Int("geo", ent.Index).Err(err).Msg("could not read geometry")
			continue
		}

		var center v2.Vec
		switch gg := g.(type) {
		case Circle:
			center = gg.Center
		case Arc:
			center = gg.Center
		default:
			continue
		}

		if center.Length() <= originTol {
			add(b, Coincident(ent.Index, PointCenter, OriginGeo, PointStart),
				&counts.Coincident, &counts.Skipped, log)
			continue
		}

		lineIdx, err := b.AddGeometry(Segment{Start: center}, true)
		if err != nil {
			counts.Skipped++
			log.Warn().Int("geo", ent.Index).Err(err).
				Msg("failed to add construction line")
			continue
		}
		counts.ConstructionLines++
		add(b, Coincident(lineIdx, PointStart, ent.Index, PointCenter),
			&counts.Coincident, &counts.Skipped, log)
		add(b, Coincident(lineIdx, PointEnd, OriginGeo, PointStart),
			&counts.Coincident, &counts.Skipped, log)
		blocked = append(blocked, lineIdx)
	}

	for _, idx := range blocked {
		add(b, Block(idx), &counts.Block, &counts.Skipped, log)
	}
}

// lockRadii gives every circle/arc one radius constraint at its
// realized radius, making the profile size invariant under later edits.
func lockRadii(b Builder, entries []Entry, counts *Counts, log zerolog.Logger) {
	for _, ent := range entries {
		g, err := b.Geometry(ent.Index)
		if err != nil {
			log.Warn().Int("geo", ent.Index).Err(err).Msg("could not read geometry")
			continue
		}
		switch gg := g.(type) {
		case Circle:
			add(b, Radius(ent.Index, gg.Radius), &counts.Radius, &counts.Skipped, log)
		case Arc:
			add(b, Radius(ent.Index, gg.Radius), &counts.Radius, &counts.Skipped, log)
		}
	}
}

// referenceDistances records every segment's realized length as a
// non-driving distance constraint. Reference constraints document the
// size without consuming solver degrees of freedom.
func referenceDistances(b Builder, entries []Entry, counts *Counts, log zerolog.Logger) {
	for _, ent := range entries {
		g, err := b.Geometry(ent.Index)
		if err != nil {
			log.Warn().Int("geo", ent.Index).Err(err).Msg("could not read geometry")
			continue
		}
		if _, isSeg := g.(Segment); !isSeg {
			continue
		}

		p1, err := b.Point(ent.Index, PointStart)
		if err == nil {
			var p2 v2.Vec
			p2, err = b.Point(ent.Index, PointEnd)
			if err == nil {
				var idx int
				idx, err = b.AddConstraint(Distance(ent.Index, p2.Sub(p1).Length()))
				if err == nil {
					err = b.SetDriving(idx, false)
				}
			}
		}
		if err != nil {
			counts.Skipped++
			log.Warn().Int("geo", ent.Index).Err(err).
				Msg("failed to add reference distance constraint")
			continue
		}
		counts.Distance++
	}
}

// add appends one constraint, bumping ok on success and skipped on
// failure.
func add(b Builder, c Constraint, ok, skipped *int, log zerolog.Logger) {
	if _, err := b.AddConstraint(c); err != nil {
		*skipped++
		log.Warn().Str("kind", c.Kind.String()).Int("geo", c.Geo).Err(err).
			Msg("failed to add constraint")
		return
	}
	*ok++
}
