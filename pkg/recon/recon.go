// Package recon orchestrates the whole reconstruction operation:
// selection validation, plane fitting, frame construction, destination
// resolution, curve re-projection and constraint synthesis, all inside
// one host document transaction. On any fatal failure the transaction
// is aborted and the document is left unchanged.
package recon

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/galou/detessellate/pkg/destination"
	"github.com/galou/detessellate/pkg/doc"
	"github.com/galou/detessellate/pkg/edge"
	"github.com/galou/detessellate/pkg/plane"
	"github.com/galou/detessellate/pkg/sketch"
)

// Fatal selection errors, raised before any transaction begins.
var (
	ErrNoSelection          = errors.New("no edges selected")
	ErrCrossObjectSelection = errors.New("all selected edges must be from the same object")
)

// transactionName labels the document transaction.
const transactionName = "Create Sketch from Edge Loop"

// Options tunes one invocation. The zero value is usable.
type Options struct {
	// Log receives per-edge and per-constraint warnings. Defaults to a
	// no-op logger.
	Log *zerolog.Logger

	// Tolerance overrides the plane-fit tolerance. Zero means the
	// default (plane.Tolerance).
	Tolerance float64

	// SketchName is the base name for the created sketch object.
	// Defaults to "Sketch".
	SketchName string
}

func (o *Options) logger() zerolog.Logger {
	if o.Log == nil {
		return zerolog.Nop()
	}
	return *o.Log
}

func (o *Options) tolerance() float64 {
	if o.Tolerance <= 0 {
		return plane.Tolerance
	}
	return o.Tolerance
}

func (o *Options) sketchName() string {
	if o.SketchName == "" {
		return "Sketch"
	}
	return o.SketchName
}

// Summary reports what one invocation produced. It replaces ad-hoc
// logging counters; callers decide what to surface.
type Summary struct {
	Cancelled bool // user declined the destination choice

	Sketch      string // document name of the created sketch
	Body        string // owning body, if any
	Destination destination.Kind

	Plane     plane.Plane
	Placement plane.Placement

	EdgesSelected int
	EdgesAdded    int
	EdgesSkipped  int
	Constraints   sketch.Counts
}

// CreateSketch runs the full operation against the host document. The
// chooser supplies the destination; a declined choice cancels cleanly
// (Summary.Cancelled, nil error). Plane-fitting and destination
// failures are fatal and roll the transaction back; individual edge or
// constraint failures are logged and skipped.
func CreateSketch(d doc.Document, chooser destination.Chooser, opts Options) (*Summary, error) {
	log := opts.logger()

	edges, err := selectedEdges(d)
	if err != nil {
		return nil, err
	}

	txn, err := d.Begin(transactionName)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			txn.Abort()
		}
	}()

	pl, origin, err := plane.FitTol(edges, opts.tolerance())
	if err != nil {
		return nil, err
	}
	placement := plane.NewPlacement(pl.Normal, origin)
	log.Debug().
		Floats64("normal", []float64{pl.Normal.X, pl.Normal.Y, pl.Normal.Z}).
		Floats64("origin", []float64{origin.X, origin.Y, origin.Z}).
		Msg("fitted supporting plane")

	choice, ok, err := chooser.Choose(d.Bodies())
	if err != nil {
		return nil, fmt.Errorf("destination choice: %w", err)
	}
	if !ok {
		log.Info().Msg("sketch creation cancelled")
		return &Summary{Cancelled: true}, nil
	}

	sk, body, err := createTarget(txn, choice, placement, opts.sketchName())
	if err != nil {
		return nil, err
	}

	// The effective local frame is only known after attachment
	// resolution, so re-project against the realized global placement.
	global := sk.GlobalPlacement()
	entries := sketch.Project(sk, global, edges, log)
	counts := sketch.Constrain(sk, entries, log)

	if err := txn.Recompute(); err != nil {
		return nil, err
	}
	if err := txn.Commit(); err != nil {
		return nil, err
	}
	committed = true

	s := &Summary{
		Sketch:        sk.Name(),
		Destination:   choice.Kind,
		Plane:         pl,
		Placement:     placement,
		EdgesSelected: len(edges),
		EdgesAdded:    len(entries),
		EdgesSkipped:  len(edges) - len(entries),
		Constraints:   counts,
	}
	if body != nil {
		s.Body = body.Name()
	}
	log.Info().Str("sketch", s.Sketch).Int("edges", s.EdgesAdded).
		Msg("sketch created")
	return s, nil
}

// selectedEdges validates the selection and reads edge geometry. All
// edges must come from one object; violations fail before any
// transaction begins.
func selectedEdges(d doc.Document) ([]edge.Edge, error) {
	sel := d.Selection()
	if len(sel) == 0 {
		return nil, ErrNoSelection
	}

	object := sel[0].Object
	edges := make([]edge.Edge, 0, len(sel))
	for _, ref := range sel {
		if ref.Object != object {
			return nil, ErrCrossObjectSelection
		}
		e, err := d.Edge(ref)
		if err != nil {
			return nil, fmt.Errorf("read edge %d of %s: %w", ref.Index, ref.Object, err)
		}
		edges = append(edges, e)
	}
	return edges, nil
}

// createTarget creates the sketch in its chosen destination. Standalone
// sketches carry the placement directly; body-attached sketches store
// it as an attachment offset against the body's origin feature and need
// a recompute before their global placement is valid.
func createTarget(txn doc.Transaction, choice destination.Choice,
	placement plane.Placement, name string) (doc.Sketch, doc.Body, error) {

	sk, err := txn.NewSketch(name)
	if err != nil {
		return nil, nil, err
	}

	var body doc.Body
	switch choice.Kind {
	case destination.Standalone:
		sk.SetPlacement(placement)
		return sk, nil, nil

	case destination.NewBody:
		body, err = txn.NewBody("Body")
		if err != nil {
			return nil, nil, err
		}

	case destination.ExistingBody:
		var ok bool
		body, ok = txn.Body(choice.Body)
		if !ok {
			return nil, nil, &destination.NotFoundError{Body: choice.Body}
		}

	default:
		return nil, nil, fmt.Errorf("unknown destination kind %v", choice.Kind)
	}

	if err := body.Adopt(sk); err != nil {
		return nil, nil, err
	}
	if err := sk.AttachTo(body.OriginFeature(), doc.MapModeObjectXY, placement); err != nil {
		return nil, nil, err
	}
	if err := txn.Recompute(); err != nil {
		return nil, nil, err
	}
	return sk, body, nil
}
