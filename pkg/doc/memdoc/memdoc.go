// Package memdoc implements the doc.Document boundary with an
// in-memory document. It backs the CLI and the tests: shapes hold edge
// geometry, transactions snapshot and restore the whole document, and
// sketches realize geometry the way a solver-backed host does
// (normalizing three-point arcs into center form).
package memdoc

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/galou/detessellate/pkg/doc"
	"github.com/galou/detessellate/pkg/edge"
	"github.com/galou/detessellate/pkg/plane"
)

// Compile-time interface checks.
var (
	_ doc.Document    = (*Document)(nil)
	_ doc.Transaction = (*Transaction)(nil)
	_ doc.Sketch      = (*Sketch)(nil)
	_ doc.Body        = (*Body)(nil)
)

// Document is an in-memory host document. It is single-threaded, like
// the host it stands in for. Handles obtained before an aborted
// transaction must be re-fetched afterwards.
type Document struct {
	shapes      map[string]*shapeObj
	bodies      map[string]*bodyObj
	bodyOrder   []string
	sketches    map[string]*sketchObj
	sketchOrder []string
	names       map[string]int
	selection   []doc.EdgeRef
	open        bool
}

type shapeObj struct {
	id    uuid.UUID
	name  string
	edges []edge.Edge
}

type bodyObj struct {
	id       uuid.UUID
	name     string
	origin   featureObj
	children []uuid.UUID // adopted sketch ids
}

type featureObj struct {
	name      string
	placement plane.Placement
}

// New creates an empty document.
func New() *Document {
	return &Document{
		shapes:   make(map[string]*shapeObj),
		bodies:   make(map[string]*bodyObj),
		sketches: make(map[string]*sketchObj),
		names:    make(map[string]int),
	}
}

// ---------------------------------------------------------------------------
// Setup API (not part of the doc boundary)
// ---------------------------------------------------------------------------

// AddShape adds a named shape with the given edges.
func (d *Document) AddShape(name string, edges []edge.Edge) {
	d.shapes[name] = &shapeObj{
		id:    uuid.New(),
		name:  name,
		edges: append([]edge.Edge(nil), edges...),
	}
}

// AddBody adds a named body whose origin feature sits at the global
// origin.
func (d *Document) AddBody(name string) {
	d.AddBodyAt(name, plane.Identity())
}

// AddBodyAt adds a named body with its origin feature at the given
// placement.
func (d *Document) AddBodyAt(name string, pl plane.Placement) {
	d.bodies[name] = &bodyObj{
		id:     uuid.New(),
		name:   name,
		origin: featureObj{name: name + ".Origin.XY", placement: pl},
	}
	d.bodyOrder = append(d.bodyOrder, name)
}

// Select sets the current selection to the given edge indices of one
// object, in order. Indices are zero-based.
func (d *Document) Select(object string, indices ...int) {
	d.selection = d.selection[:0]
	for _, i := range indices {
		d.selection = append(d.selection, doc.EdgeRef{Object: object, Index: i})
	}
}

// AddSelection appends one edge reference to the selection. Unlike
// Select it can span objects, which the pipeline must reject.
func (d *Document) AddSelection(ref doc.EdgeRef) {
	d.selection = append(d.selection, ref)
}

// Sketch returns the named sketch handle for inspection.
func (d *Document) Sketch(name string) (*Sketch, bool) {
	s, ok := d.sketches[name]
	if !ok {
		return nil, false
	}
	return &Sketch{doc: d, obj: s}, true
}

// SketchNames lists sketches in creation order.
func (d *Document) SketchNames() []string {
	return append([]string(nil), d.sketchOrder...)
}

// ---------------------------------------------------------------------------
// doc.Document
// ---------------------------------------------------------------------------

// Selection returns the current selection in pick order.
func (d *Document) Selection() []doc.EdgeRef {
	return append([]doc.EdgeRef(nil), d.selection...)
}

// Edge reads the geometry of a referenced edge.
func (d *Document) Edge(ref doc.EdgeRef) (edge.Edge, error) {
	s, ok := d.shapes[ref.Object]
	if !ok {
		return edge.Edge{}, fmt.Errorf("memdoc: no object %q", ref.Object)
	}
	if ref.Index < 0 || ref.Index >= len(s.edges) {
		return edge.Edge{}, fmt.Errorf("memdoc: %s has no edge %d", ref.Object, ref.Index)
	}
	return s.edges[ref.Index], nil
}

// Bodies lists body names in creation order.
func (d *Document) Bodies() []string {
	return append([]string(nil), d.bodyOrder...)
}

// Begin opens a transaction. Only one may be open at a time.
func (d *Document) Begin(name string) (doc.Transaction, error) {
	if d.open {
		return nil, errors.New("memdoc: a transaction is already open")
	}
	d.open = true
	return &Transaction{doc: d, name: name, saved: d.snapshot()}, nil
}

// nextName returns base for the first use, then base001, base002, ...
// mirroring host auto-naming.
func (d *Document) nextName(base string) string {
	n := d.names[base]
	d.names[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s%03d", base, n)
}

// ---------------------------------------------------------------------------
// Transaction
// ---------------------------------------------------------------------------

// Transaction is a snapshot-based document transaction: Begin copies
// the full document state, Abort restores it.
type Transaction struct {
	doc   *Document
	name  string
	saved snapshot
	done  bool
}

// NewSketch creates an empty sketch object.
func (t *Transaction) NewSketch(name string) (doc.Sketch, error) {
	if t.done {
		return nil, errors.New("memdoc: transaction is closed")
	}
	obj := &sketchObj{
		id:        uuid.New(),
		name:      t.doc.nextName(name),
		placement: plane.Identity(),
		global:    plane.Identity(),
	}
	t.doc.sketches[obj.name] = obj
	t.doc.sketchOrder = append(t.doc.sketchOrder, obj.name)
	return &Sketch{doc: t.doc, obj: obj}, nil
}

// NewBody creates a new body with an origin feature at the global
// origin.
func (t *Transaction) NewBody(name string) (doc.Body, error) {
	if t.done {
		return nil, errors.New("memdoc: transaction is closed")
	}
	n := t.doc.nextName(name)
	t.doc.AddBodyAt(n, plane.Identity())
	return &Body{doc: t.doc, obj: t.doc.bodies[n]}, nil
}

// Body looks up an existing body.
func (t *Transaction) Body(name string) (doc.Body, bool) {
	b, ok := t.doc.bodies[name]
	if !ok {
		return nil, false
	}
	return &Body{doc: t.doc, obj: b}, true
}

// Recompute resolves attachments: an attached sketch's realized global
// placement is its support's placement composed with the attachment
// offset.
func (t *Transaction) Recompute() error {
	if t.done {
		return errors.New("memdoc: transaction is closed")
	}
	for _, name := range t.doc.sketchOrder {
		s := t.doc.sketches[name]
		if s.attach != nil {
			s.global = s.attach.support.placement.Mul(s.attach.offset)
		} else {
			s.global = s.placement
		}
	}
	return nil
}

// Commit finalizes the transaction.
func (t *Transaction) Commit() error {
	if t.done {
		return errors.New("memdoc: transaction is closed")
	}
	t.done = true
	t.doc.open = false
	return nil
}

// Abort restores the document to its state at Begin.
func (t *Transaction) Abort() {
	if t.done {
		return
	}
	t.done = true
	t.doc.restore(t.saved)
	t.doc.open = false
}

// ---------------------------------------------------------------------------
// Snapshot / restore
// ---------------------------------------------------------------------------

type snapshot struct {
	shapes      map[string]*shapeObj
	bodies      map[string]*bodyObj
	bodyOrder   []string
	sketches    map[string]*sketchObj
	sketchOrder []string
	names       map[string]int
	selection   []doc.EdgeRef
}

func (d *Document) snapshot() snapshot {
	s := snapshot{
		shapes:      make(map[string]*shapeObj, len(d.shapes)),
		bodies:      make(map[string]*bodyObj, len(d.bodies)),
		bodyOrder:   append([]string(nil), d.bodyOrder...),
		sketches:    make(map[string]*sketchObj, len(d.sketches)),
		sketchOrder: append([]string(nil), d.sketchOrder...),
		names:       make(map[string]int, len(d.names)),
		selection:   append([]doc.EdgeRef(nil), d.selection...),
	}
	for k, v := range d.shapes {
		s.shapes[k] = v.clone()
	}
	for k, v := range d.bodies {
		s.bodies[k] = v.clone()
	}
	for k, v := range d.sketches {
		s.sketches[k] = v.clone()
	}
	for k, v := range d.names {
		s.names[k] = v
	}
	return s
}

func (d *Document) restore(s snapshot) {
	d.shapes = s.shapes
	d.bodies = s.bodies
	d.bodyOrder = s.bodyOrder
	d.sketches = s.sketches
	d.sketchOrder = s.sketchOrder
	d.names = s.names
	d.selection = s.selection
}

func (s *shapeObj) clone() *shapeObj {
	c := *s
	c.edges = append([]edge.Edge(nil), s.edges...)
	return &c
}

func (b *bodyObj) clone() *bodyObj {
	c := *b
	c.children = append([]uuid.UUID(nil), b.children...)
	return &c
}

// ---------------------------------------------------------------------------
// Body and features
// ---------------------------------------------------------------------------

// Body is a handle to a body object.
type Body struct {
	doc *Document
	obj *bodyObj
}

// Name returns the body's document name.
func (b *Body) Name() string { return b.obj.name }

// OriginFeature returns the body's origin datum.
func (b *Body) OriginFeature() doc.Feature {
	return feature{b.obj.origin}
}

// Adopt moves a sketch into the body's group.
func (b *Body) Adopt(s doc.Sketch) error {
	h, ok := s.(*Sketch)
	if !ok {
		return errors.New("memdoc: cannot adopt a foreign sketch")
	}
	for _, id := range b.obj.children {
		if id == h.obj.id {
			return fmt.Errorf("memdoc: %s already owns %s", b.obj.name, h.obj.name)
		}
	}
	b.obj.children = append(b.obj.children, h.obj.id)
	return nil
}

// SketchNames lists the names of the body's adopted sketches.
func (b *Body) SketchNames() []string {
	var names []string
	for _, id := range b.obj.children {
		for _, name := range b.doc.sketchOrder {
			if b.doc.sketches[name].id == id {
				names = append(names, name)
			}
		}
	}
	return names
}

type feature struct {
	obj featureObj
}

func (f feature) Name() string               { return f.obj.name }
func (f feature) Placement() plane.Placement { return f.obj.placement }
