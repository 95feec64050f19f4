package memdoc

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/galou/detessellate/pkg/doc"
	"github.com/galou/detessellate/pkg/plane"
	"github.com/galou/detessellate/pkg/sketch"
)

type sketchObj struct {
	id        uuid.UUID
	name      string
	placement plane.Placement // direct placement
	attach    *attachment
	global    plane.Placement // realized at last recompute
	geoms     []geomRec
	cons      []consRec
}

type attachment struct {
	support featureObj
	mode    doc.MapMode
	offset  plane.Placement
}

type geomRec struct {
	g            sketch.Geometry
	construction bool
}

type consRec struct {
	c       sketch.Constraint
	driving bool
}

func (s *sketchObj) clone() *sketchObj {
	c := *s
	if s.attach != nil {
		a := *s.attach
		c.attach = &a
	}
	c.geoms = append([]geomRec(nil), s.geoms...)
	c.cons = append([]consRec(nil), s.cons...)
	return &c
}

// Sketch is a handle to a sketch object. It implements doc.Sketch and
// therefore sketch.Builder.
type Sketch struct {
	doc *Document
	obj *sketchObj
}

// Name returns the sketch's document name.
func (s *Sketch) Name() string { return s.obj.name }

// SetPlacement sets the direct placement. A standalone sketch's global
// placement follows it immediately.
func (s *Sketch) SetPlacement(p plane.Placement) {
	s.obj.placement = p
	if s.obj.attach == nil {
		s.obj.global = p
	}
}

// AttachTo attaches the sketch to a support feature with an offset.
// The realized global placement is stale until the next recompute.
func (s *Sketch) AttachTo(f doc.Feature, mode doc.MapMode, offset plane.Placement) error {
	if mode != doc.MapModeObjectXY {
		return fmt.Errorf("memdoc: unsupported map mode %q", mode)
	}
	s.obj.attach = &attachment{
		support: featureObj{name: f.Name(), placement: f.Placement()},
		mode:    mode,
		offset:  offset,
	}
	s.obj.placement = plane.Identity()
	return nil
}

// GlobalPlacement returns the placement realized at the last
// recompute.
func (s *Sketch) GlobalPlacement() plane.Placement {
	return s.obj.global
}

// ---------------------------------------------------------------------------
// sketch.Builder
// ---------------------------------------------------------------------------

// AddGeometry appends geometry and returns its stable index. Geometry
// is stored realized: a three-point arc is normalized into center form,
// so later reads return host values rather than construction inputs.
func (s *Sketch) AddGeometry(g sketch.Geometry, construction bool) (int, error) {
	realized, err := realize(g)
	if err != nil {
		return 0, err
	}
	s.obj.geoms = append(s.obj.geoms, geomRec{g: realized, construction: construction})
	return len(s.obj.geoms) - 1, nil
}

// Geometry returns the realized geometry at index.
func (s *Sketch) Geometry(index int) (sketch.Geometry, error) {
	if index < 0 || index >= len(s.obj.geoms) {
		return nil, fmt.Errorf("memdoc: no geometry %d", index)
	}
	return s.obj.geoms[index].g, nil
}

// Point returns a realized point of an indexed geometry entry. The
// pseudo index sketch.OriginGeo with point 1 is the sketch origin.
func (s *Sketch) Point(index, point int) (v2.Vec, error) {
	if index == sketch.OriginGeo {
		if point != sketch.PointStart {
			return v2.Vec{}, fmt.Errorf("memdoc: origin has no point %d", point)
		}
		return v2.Vec{}, nil
	}
	g, err := s.Geometry(index)
	if err != nil {
		return v2.Vec{}, err
	}

	switch gg := g.(type) {
	case sketch.Segment:
		switch point {
		case sketch.PointStart:
			return gg.Start, nil
		case sketch.PointEnd:
			return gg.End, nil
		}
	case sketch.Arc:
		switch point {
		case sketch.PointStart:
			return gg.Start, nil
		case sketch.PointEnd:
			return gg.End, nil
		case sketch.PointCenter:
			return gg.Center, nil
		}
	case sketch.Circle:
		if point == sketch.PointCenter {
			return gg.Center, nil
		}
	case sketch.Spline:
		// Clamped splines interpolate their end poles.
		switch point {
		case sketch.PointStart:
			return gg.Poles[0], nil
		case sketch.PointEnd:
			return gg.Poles[len(gg.Poles)-1], nil
		}
	}
	return v2.Vec{}, fmt.Errorf("memdoc: geometry %d has no point %d", index, point)
}

// AddConstraint validates and appends a constraint. New constraints are
// driving.
func (s *Sketch) AddConstraint(c sketch.Constraint) (int, error) {
	switch c.Kind {
	case sketch.ConstraintCoincident:
		if err := s.checkPoint(c.Geo, c.Point); err != nil {
			return 0, err
		}
		if err := s.checkPoint(c.OtherGeo, c.OtherPoint); err != nil {
			return 0, err
		}
	case sketch.ConstraintRadius:
		g, err := s.Geometry(c.Geo)
		if err != nil {
			return 0, err
		}
		switch g.(type) {
		case sketch.Circle, sketch.Arc:
		default:
			return 0, fmt.Errorf("memdoc: radius constraint on non-circular geometry %d", c.Geo)
		}
		if c.Value <= 0 {
			return 0, fmt.Errorf("memdoc: non-positive radius %g", c.Value)
		}
	case sketch.ConstraintBlock:
		if _, err := s.Geometry(c.Geo); err != nil {
			return 0, err
		}
	case sketch.ConstraintDistance:
		g, err := s.Geometry(c.Geo)
		if err != nil {
			return 0, err
		}
		if _, isSeg := g.(sketch.Segment); !isSeg {
			return 0, fmt.Errorf("memdoc: distance constraint on non-segment geometry %d", c.Geo)
		}
		if c.Value < 0 {
			return 0, fmt.Errorf("memdoc: negative distance %g", c.Value)
		}
	default:
		return 0, fmt.Errorf("memdoc: unknown constraint kind %v", c.Kind)
	}

	s.obj.cons = append(s.obj.cons, consRec{c: c, driving: true})
	return len(s.obj.cons) - 1, nil
}

// SetDriving switches a dimensional constraint between driving and
// reference mode.
func (s *Sketch) SetDriving(index int, driving bool) error {
	if index < 0 || index >= len(s.obj.cons) {
		return fmt.Errorf("memdoc: no constraint %d", index)
	}
	switch s.obj.cons[index].c.Kind {
	case sketch.ConstraintDistance, sketch.ConstraintRadius:
		s.obj.cons[index].driving = driving
		return nil
	}
	return fmt.Errorf("memdoc: constraint %d is not dimensional", index)
}

// checkPoint validates a (geometry, point) reference.
func (s *Sketch) checkPoint(index, point int) error {
	_, err := s.Point(index, point)
	return err
}

// ---------------------------------------------------------------------------
// Inspection (not part of the doc boundary)
// ---------------------------------------------------------------------------

// GeometryInfo describes one stored geometry entry.
type GeometryInfo struct {
	Index        int
	Geometry     sketch.Geometry
	Construction bool
}

// ConstraintInfo describes one stored constraint.
type ConstraintInfo struct {
	Index      int
	Constraint sketch.Constraint
	Driving    bool
}

// Geometries lists the sketch's geometry in index order.
func (s *Sketch) Geometries() []GeometryInfo {
	out := make([]GeometryInfo, len(s.obj.geoms))
	for i, rec := range s.obj.geoms {
		out[i] = GeometryInfo{Index: i, Geometry: rec.g, Construction: rec.construction}
	}
	return out
}

// Constraints lists the sketch's constraints in index order.
func (s *Sketch) Constraints() []ConstraintInfo {
	out := make([]ConstraintInfo, len(s.obj.cons))
	for i, rec := range s.obj.cons {
		out[i] = ConstraintInfo{Index: i, Constraint: rec.c, Driving: rec.driving}
	}
	return out
}

// ---------------------------------------------------------------------------
// Realization
// ---------------------------------------------------------------------------

// realize normalizes geometry into its stored host form and validates
// it.
func realize(g sketch.Geometry) (sketch.Geometry, error) {
	switch gg := g.(type) {
	case sketch.Segment:
		return gg, nil

	case sketch.Circle:
		if gg.Radius <= 0 {
			return nil, fmt.Errorf("memdoc: non-positive circle radius %g", gg.Radius)
		}
		return gg, nil

	case sketch.ThreePointArc:
		center, ok := circumcenter(gg.Start, gg.Mid, gg.End)
		if !ok {
			return nil, errors.New("memdoc: arc points are collinear")
		}
		return sketch.Arc{
			Center: center,
			Radius: gg.Start.Sub(center).Length(),
			Start:  gg.Start,
			End:    gg.End,
		}, nil

	case sketch.Arc:
		if gg.Radius <= 0 {
			return nil, fmt.Errorf("memdoc: non-positive arc radius %g", gg.Radius)
		}
		return gg, nil

	case sketch.Spline:
		if len(gg.Poles) < 2 {
			return nil, errors.New("memdoc: spline needs at least 2 poles")
		}
		if gg.Degree < 1 {
			return nil, fmt.Errorf("memdoc: invalid spline degree %d", gg.Degree)
		}
		if len(gg.Knots) != len(gg.Mults) {
			return nil, fmt.Errorf("memdoc: %d knots but %d multiplicities",
				len(gg.Knots), len(gg.Mults))
		}
		return gg, nil

	default:
		return nil, fmt.Errorf("memdoc: unsupported geometry %T", g)
	}
}

// circumcenter returns the center of the circle through three points,
// or false when they are collinear.
func circumcenter(a, b, c v2.Vec) (v2.Vec, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < 1e-12 {
		return v2.Vec{}, false
	}
	a2 := a.X*a.X + a.Y*a.Y
	b2 := b.X*b.X + b.Y*b.Y
	c2 := c.X*c.X + c.Y*c.Y
	return v2.Vec{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}, true
}
