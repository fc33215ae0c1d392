package graph

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"geomap/internal/geom"
	"geomap/internal/selection"
	"geomap/internal/spatial"
)

// DataSet owns a graph of primitives together with its spatial indexes and
// selection.
type DataSet struct {
	id   uuid.UUID
	name string
	log  *zap.Logger

	mu        sync.RWMutex
	byID      map[PrimitiveID]Primitive
	nodes     []*Node
	ways      []*Way
	relations []*Relation
	nodeIdx   *spatial.QuadBuckets[*Node]
	wayIdx    *spatial.QuadBuckets[*Way]

	selection *selection.Model[Primitive]
}

// Option configures a DataSet.
type Option func(*DataSet)

// WithLogger sets the logger used for mutation tracing.
func WithLogger(l *zap.Logger) Option {
	return func(ds *DataSet) {
		if l != nil {
			ds.log = l
		}
	}
}

// WithMaxLevel sets the deepest quad-tile level of the spatial indexes.
func WithMaxLevel(level int) Option {
	return func(ds *DataSet) {
		ds.nodeIdx = spatial.New[*Node](level)
		ds.wayIdx = spatial.New[*Way](level)
	}
}

// WithName labels the data set, typically with its source file.
func WithName(name string) Option {
	return func(ds *DataSet) { ds.name = name }
}

// New returns an empty data set.
func New(opts ...Option) *DataSet {
	ds := &DataSet{
		id:      uuid.New(),
		log:     zap.NewNop(),
		byID:    make(map[PrimitiveID]Primitive),
		nodeIdx: spatial.New[*Node](spatial.DefaultMaxLevel),
		wayIdx:  spatial.New[*Way](spatial.DefaultMaxLevel),
	}
	for _, opt := range opts {
		opt(ds)
	}
	ds.selection = selection.NewModel[Primitive](ds)
	ds.log = ds.log.With(zap.String("dataset", ds.Label()))
	return ds
}

// ID returns the data set's identity.
func (ds *DataSet) ID() uuid.UUID { return ds.id }

// Name returns the configured name, possibly empty.
func (ds *DataSet) Name() string { return ds.name }

// Label is the name, or the id when unnamed.
func (ds *DataSet) Label() string {
	if ds.name != "" {
		return ds.name
	}
	return ds.id.String()
}

func (ds *DataSet) RLock()   { ds.mu.RLock() }
func (ds *DataSet) RUnlock() { ds.mu.RUnlock() }

// Read runs fn with the read lock held.
func (ds *DataSet) Read(fn func()) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	fn()
}

// Selection returns the data set's selection model. Listeners are invoked
// without the data set lock held.
func (ds *DataSet) Selection() *selection.Model[Primitive] { return ds.selection }

// The accessors below do not lock; callers hold the read lock.

// Len returns the number of primitives.
func (ds *DataSet) Len() int { return len(ds.byID) }

// Nodes returns the nodes in insertion order.
func (ds *DataSet) Nodes() []*Node { return slices.Clone(ds.nodes) }

// Ways returns the ways in insertion order.
func (ds *DataSet) Ways() []*Way { return slices.Clone(ds.ways) }

// Relations returns the relations in insertion order.
func (ds *DataSet) Relations() []*Relation { return slices.Clone(ds.relations) }

// Primitives returns nodes, then ways, then relations.
func (ds *DataSet) Primitives() []Primitive {
	out := make([]Primitive, 0, len(ds.byID))
	for _, n := range ds.nodes {
		out = append(out, n)
	}
	for _, w := range ds.ways {
		out = append(out, w)
	}
	for _, r := range ds.relations {
		out = append(out, r)
	}
	return out
}

// Primitive looks up a primitive by id.
func (ds *DataSet) Primitive(id PrimitiveID) (Primitive, bool) {
	p, ok := ds.byID[id]
	return p, ok
}

// Node looks up a node by id.
func (ds *DataSet) Node(ref int64) *Node {
	n, _ := ds.byID[PrimitiveID{Type: TypeNode, Ref: ref}].(*Node)
	return n
}

// Way looks up a way by id.
func (ds *DataSet) Way(ref int64) *Way {
	w, _ := ds.byID[PrimitiveID{Type: TypeWay, Ref: ref}].(*Way)
	return w
}

// Relation looks up a relation by id.
func (ds *DataSet) Relation(ref int64) *Relation {
	r, _ := ds.byID[PrimitiveID{Type: TypeRelation, Ref: ref}].(*Relation)
	return r
}

// SearchNodes returns the nodes with a coordinate inside box.
func (ds *DataSet) SearchNodes(box geom.BBox) []*Node {
	return ds.nodeIdx.Search(box)
}

// SearchWays returns the ways whose box intersects box.
func (ds *DataSet) SearchWays(box geom.BBox) []*Way {
	return ds.wayIdx.Search(box)
}

// SearchRelations returns the relations whose box intersects box.
func (ds *DataSet) SearchRelations(box geom.BBox) []*Relation {
	var out []*Relation
	for _, r := range ds.relations {
		if r.BBox().Intersects(box) {
			out = append(out, r)
		}
	}
	return out
}

// ContainsNode reports whether a search with the node's own box finds it.
func (ds *DataSet) ContainsNode(n *Node) bool {
	return ds.nodeIdx.Locate(n, n.BBox())
}

// ContainsWay reports whether a search with the way's own box finds it.
func (ds *DataSet) ContainsWay(w *Way) bool {
	return ds.wayIdx.Locate(w, w.BBox())
}

// BBox is the union of all known node coordinates.
func (ds *DataSet) BBox() geom.BBox {
	b := geom.NewBBox()
	for _, n := range ds.nodes {
		if ll, ok := n.Coor(); ok {
			b.Add(ll)
		}
	}
	return b
}

// Counts returns the number of nodes, ways and relations.
func (ds *DataSet) Counts() (nodes, ways, relations int) {
	return len(ds.nodes), len(ds.ways), len(ds.relations)
}
