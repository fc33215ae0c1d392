package graph

import (
	"geomap/internal/geom"
	"geomap/internal/tags"
)

// Node is a point primitive.
type Node struct {
	primitive
	coor    geom.LatLon
	hasCoor bool
}

// NewNode returns a complete, visible node at ll.
func NewNode(id int64, ll geom.LatLon, pairs ...tags.Tag) *Node {
	n := &Node{primitive: primitive{id: id, visible: true}}
	n.setCoor(ll)
	for _, t := range pairs {
		_, _, _ = n.tags.Put(t.Key, t.Value)
	}
	return n
}

// NewIncompleteNode returns a placeholder for a node that is referenced but
// whose data was not loaded.
func NewIncompleteNode(id int64) *Node {
	return &Node{primitive: primitive{id: id, visible: true, incomplete: true}}
}

func (n *Node) PrimitiveID() PrimitiveID { return PrimitiveID{Type: TypeNode, Ref: n.id} }
func (n *Node) Type() Type               { return TypeNode }

// Coor returns the coordinate and whether it is known.
func (n *Node) Coor() (geom.LatLon, bool) { return n.coor, n.hasCoor }

// BBox is a zero-area box at the coordinate, or invalid when unknown.
func (n *Node) BBox() geom.BBox {
	if !n.hasCoor {
		return geom.NewBBox()
	}
	return geom.BBoxFromPoint(n.coor)
}

func (n *Node) String() string { return describe(n) }

func (n *Node) setCoor(ll geom.LatLon) {
	n.coor = ll
	n.hasCoor = ll.IsFinite()
}
