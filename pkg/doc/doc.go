// Package doc defines the host document boundary. The reconstruction
// core talks to the hosting CAD application exclusively through these
// interfaces: selection queries, edge geometry reads, transactions, and
// sketch object creation. Implementations (memdoc) provide a concrete
// document behind this boundary, which keeps host state out of the
// algorithm packages.
package doc

import (
	"github.com/galou/detessellate/pkg/edge"
	"github.com/galou/detessellate/pkg/plane"
	"github.com/galou/detessellate/pkg/sketch"
)

// EdgeRef identifies one boundary edge of a named document object.
type EdgeRef struct {
	Object string
	Index  int // zero-based edge index within the object's shape
}

// MapMode selects how an attached sketch maps onto its support.
type MapMode string

// MapModeObjectXY attaches a sketch to the XY plane of its support
// feature; the attachment offset then positions it.
const MapModeObjectXY MapMode = "ObjectXY"

// Document is the host document seen by the reconstruction core.
type Document interface {
	// Selection returns the currently selected edges in pick order.
	Selection() []EdgeRef

	// Edge reads the geometry of a referenced edge: classified curve,
	// parameter data and boundary vertices.
	Edge(ref EdgeRef) (edge.Edge, error)

	// Bodies lists the names of body-like container objects.
	Bodies() []string

	// Begin opens a named transaction. All document mutations happen
	// inside one; abort rolls every mutation back.
	Begin(name string) (Transaction, error)
}

// Transaction scopes document mutations. Exactly one of Commit or
// Abort must be called.
type Transaction interface {
	// NewSketch creates an empty parametric sketch object.
	NewSketch(name string) (Sketch, error)

	// NewBody creates a new feature body with an origin feature.
	NewBody(name string) (Body, error)

	// Body looks up an existing body by name.
	Body(name string) (Body, bool)

	// Recompute resolves pending attachments and updates realized
	// placements.
	Recompute() error

	Commit() error
	Abort()
}

// Sketch is a created sketch object. It accepts geometry and
// constraints through the sketch.Builder interface and exposes its
// placement state.
type Sketch interface {
	sketch.Builder

	// Name returns the sketch's document name.
	Name() string

	// SetPlacement sets the sketch's direct placement. Used for
	// standalone sketches.
	SetPlacement(p plane.Placement)

	// AttachTo attaches the sketch to a support feature. The offset is
	// applied after attachment resolution, so later support motion
	// carries the sketch along. Requires a Recompute before the
	// realized global placement is valid.
	AttachTo(f Feature, mode MapMode, offset plane.Placement) error

	// GlobalPlacement returns the realized local-to-global placement
	// as last resolved.
	GlobalPlacement() plane.Placement
}

// Body is a feature-body container.
type Body interface {
	Name() string

	// OriginFeature returns the body's origin datum, the support for
	// attached sketches.
	OriginFeature() Feature

	// Adopt moves a sketch into the body's group.
	Adopt(s Sketch) error
}

// Feature is a document feature a sketch can attach to.
type Feature interface {
	Name() string
	Placement() plane.Placement
}
