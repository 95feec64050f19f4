package main

import (
	"fmt"
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/galou/detessellate/pkg/doc"
	"github.com/galou/detessellate/pkg/doc/memdoc"
	"github.com/galou/detessellate/pkg/edge"
)

// scene is the TOML description of a document: shapes with typed
// edges, pre-existing bodies, the current selection, and options.
type scene struct {
	Objects   []sceneObject  `toml:"object"`
	Bodies    []sceneBody    `toml:"body"`
	Selection sceneSelection `toml:"selection"`
	Options   sceneOptions   `toml:"options"`
}

type sceneObject struct {
	Name  string      `toml:"name"`
	Edges []sceneEdge `toml:"edge"`
}

type sceneBody struct {
	Name string `toml:"name"`
}

type sceneSelection struct {
	Object string `toml:"object"`
	Edges  []int  `toml:"edges"` // one-based, like host subelement names
}

type sceneOptions struct {
	Tolerance float64 `toml:"tolerance"`
}

// sceneEdge is one edge record; which fields apply depends on kind.
type sceneEdge struct {
	Kind string `toml:"kind"` // line, circle, bspline, other

	// line / other
	Start []float64 `toml:"start"`
	End   []float64 `toml:"end"`
	Type  string    `toml:"type"` // reported curve type for kind=other

	// circle; omit first/last for a full circle
	Center []float64 `toml:"center"`
	Axis   []float64 `toml:"axis"`
	Radius float64   `toml:"radius"`
	First  *float64  `toml:"first"`
	Last   *float64  `toml:"last"`

	// bspline
	Poles    [][]float64 `toml:"poles"`
	Knots    []float64   `toml:"knots"`
	Mults    []int       `toml:"mults"`
	Degree   int         `toml:"degree"`
	Periodic bool        `toml:"periodic"`
}

// loadScene reads and validates a scene file.
func loadScene(path string) (*scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s scene
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(s.Objects) == 0 {
		return nil, fmt.Errorf("%s: no objects", path)
	}
	return &s, nil
}

// buildDocument turns a scene into an in-memory document with the
// scene's selection applied.
func buildDocument(s *scene) (*memdoc.Document, error) {
	d := memdoc.New()

	for _, obj := range s.Objects {
		edges := make([]edge.Edge, 0, len(obj.Edges))
		for i, se := range obj.Edges {
			e, err := buildEdge(se)
			if err != nil {
				return nil, fmt.Errorf("object %s edge %d: %w", obj.Name, i+1, err)
			}
			edges = append(edges, e)
		}
		d.AddShape(obj.Name, edges)
	}

	for _, b := range s.Bodies {
		d.AddBody(b.Name)
	}

	for _, n := range s.Selection.Edges {
		d.AddSelection(doc.EdgeRef{Object: s.Selection.Object, Index: n - 1})
	}

	return d, nil
}

// buildEdge converts one scene edge record into an edge.Edge.
func buildEdge(se sceneEdge) (edge.Edge, error) {
	switch se.Kind {
	case "line":
		a, err := vec3(se.Start, "start")
		if err != nil {
			return edge.Edge{}, err
		}
		b, err := vec3(se.End, "end")
		if err != nil {
			return edge.Edge{}, err
		}
		return edge.NewLineEdge(a, b), nil

	case "circle":
		center, err := vec3(se.Center, "center")
		if err != nil {
			return edge.Edge{}, err
		}
		axis, err := vec3(se.Axis, "axis")
		if err != nil {
			return edge.Edge{}, err
		}
		if se.Radius <= 0 {
			return edge.Edge{}, fmt.Errorf("non-positive radius %g", se.Radius)
		}
		first, last := 0.0, 2*math.Pi
		if se.First != nil {
			first = *se.First
		}
		if se.Last != nil {
			last = *se.Last
		}
		c := edge.CircleData{Center: center, Axis: axis, Radius: se.Radius}
		return edge.NewCircleEdge(c, first, last), nil

	case "bspline":
		if len(se.Poles) < 2 {
			return edge.Edge{}, fmt.Errorf("bspline needs at least 2 poles, got %d", len(se.Poles))
		}
		poles := make([]v3.Vec, len(se.Poles))
		for i, p := range se.Poles {
			v, err := vec3(p, fmt.Sprintf("pole %d", i+1))
			if err != nil {
				return edge.Edge{}, err
			}
			poles[i] = v
		}
		return edge.NewSplineEdge(edge.BSplineData{
			Poles:    poles,
			Knots:    se.Knots,
			Mults:    se.Mults,
			Degree:   se.Degree,
			Periodic: se.Periodic,
		}), nil

	case "other":
		a, err := vec3(se.Start, "start")
		if err != nil {
			return edge.Edge{}, err
		}
		b, err := vec3(se.End, "end")
		if err != nil {
			return edge.Edge{}, err
		}
		return edge.NewOtherEdge(se.Type, a, b), nil

	default:
		return edge.Edge{}, fmt.Errorf("unknown edge kind %q", se.Kind)
	}
}

// vec3 converts a TOML triple into a vector.
func vec3(f []float64, what string) (v3.Vec, error) {
	if len(f) != 3 {
		return v3.Vec{}, fmt.Errorf("%s must have 3 components, got %d", what, len(f))
	}
	return v3.Vec{X: f[0], Y: f[1], Z: f[2]}, nil
}
