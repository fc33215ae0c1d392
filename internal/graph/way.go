package graph

import (
	"slices"

	"geomap/internal/geom"
	"geomap/internal/tags"
)

// Way is an ordered list of nodes.
type Way struct {
	primitive
	nodes []*Node
	bbox  geom.BBox // recomputed by every mutation that can change it
}

// NewWay returns a complete, visible way over nodes. Back-links are created
// when the way is added to a data set.
func NewWay(id int64, nodes []*Node, pairs ...tags.Tag) *Way {
	w := &Way{primitive: primitive{id: id, visible: true}, nodes: slices.Clone(nodes)}
	for _, t := range pairs {
		_, _, _ = w.tags.Put(t.Key, t.Value)
	}
	w.refreshBBox()
	return w
}

// NewIncompleteWay returns a placeholder for an unloaded way.
func NewIncompleteWay(id int64) *Way {
	w := &Way{primitive: primitive{id: id, visible: true, incomplete: true}}
	w.refreshBBox()
	return w
}

func (w *Way) PrimitiveID() PrimitiveID { return PrimitiveID{Type: TypeWay, Ref: w.id} }
func (w *Way) Type() Type               { return TypeWay }

// Nodes returns a copy of the node list.
func (w *Way) Nodes() []*Node { return slices.Clone(w.nodes) }

// NodesCount returns the number of node slots, duplicates included.
func (w *Way) NodesCount() int { return len(w.nodes) }

// Node returns the i-th node.
func (w *Way) Node(i int) *Node { return w.nodes[i] }

// IsClosed reports whether the first and last node are the same.
func (w *Way) IsClosed() bool {
	return len(w.nodes) >= 3 && w.nodes[0] == w.nodes[len(w.nodes)-1]
}

// ContainsNode reports whether n is one of the way's nodes.
func (w *Way) ContainsNode(n *Node) bool { return slices.Contains(w.nodes, n) }

// BBox is the union of the node coordinates.
func (w *Way) BBox() geom.BBox { return w.bbox }

func (w *Way) String() string { return describe(w) }

func (w *Way) refreshBBox() {
	b := geom.NewBBox()
	for _, n := range w.nodes {
		if ll, ok := n.Coor(); ok {
			b.Add(ll)
		}
	}
	w.bbox = b
}
