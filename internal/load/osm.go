package load

import (
	"context"
	"io"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"
	"go.uber.org/zap"

	"geomap/internal/geom"
	"geomap/internal/graph"
	"geomap/internal/tags"
)

// osmBuilder resolves references between OSM objects. Objects referenced
// but absent from the file become incomplete primitives with the
// referenced id. Every object is imported as visible; files saved by
// editors often omit the attribute.
type osmBuilder struct {
	b         *batch
	nodes     map[osm.NodeID]*graph.Node
	ways      map[osm.WayID]*graph.Way
	relations map[osm.RelationID]*graph.Relation
	log       *zap.Logger
}

func parseOSM(ctx context.Context, r io.Reader, log *zap.Logger) (*batch, error) {
	sc := osmxml.New(ctx, r)
	defer sc.Close()

	var (
		nodes     []*osm.Node
		ways      []*osm.Way
		relations []*osm.Relation
	)
	for sc.Scan() {
		switch o := sc.Object().(type) {
		case *osm.Node:
			nodes = append(nodes, o)
		case *osm.Way:
			ways = append(ways, o)
		case *osm.Relation:
			relations = append(relations, o)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	ob := &osmBuilder{
		b:         &batch{},
		nodes:     make(map[osm.NodeID]*graph.Node, len(nodes)),
		ways:      make(map[osm.WayID]*graph.Way, len(ways)),
		relations: make(map[osm.RelationID]*graph.Relation, len(relations)),
		log:       log,
	}
	for _, n := range nodes {
		if _, dup := ob.nodes[n.ID]; dup {
			log.Warn("duplicate osm node skipped", zap.Int64("id", int64(n.ID)))
			continue
		}
		gn := graph.NewNode(int64(n.ID), geom.LL(n.Lat, n.Lon), osmTags(n.Tags)...)
		ob.nodes[n.ID] = gn
		ob.b.addPrimitive(gn)
	}
	for _, w := range ways {
		if _, dup := ob.ways[w.ID]; dup {
			log.Warn("duplicate osm way skipped", zap.Int64("id", int64(w.ID)))
			continue
		}
		refs := make([]*graph.Node, 0, len(w.Nodes))
		for _, wn := range w.Nodes {
			refs = append(refs, ob.node(wn.ID))
		}
		gw := graph.NewWay(int64(w.ID), refs, osmTags(w.Tags)...)
		ob.ways[w.ID] = gw
		ob.b.addPrimitive(gw)
	}

	// Relations may refer to relations later in the file, so all of them
	// exist before any members are resolved.
	var created []*osm.Relation
	for _, r := range relations {
		if _, dup := ob.relations[r.ID]; dup {
			log.Warn("duplicate osm relation skipped", zap.Int64("id", int64(r.ID)))
			continue
		}
		gr := graph.NewRelation(int64(r.ID), nil, osmTags(r.Tags)...)
		ob.relations[r.ID] = gr
		ob.b.addPrimitive(gr)
		created = append(created, r)
	}
	for _, r := range created {
		members := make([]graph.Member, 0, len(r.Members))
		for _, m := range r.Members {
			if p := ob.member(m); p != nil {
				members = append(members, graph.Member{Role: m.Role, Primitive: p})
			}
		}
		if err := ob.relations[r.ID].SetDetachedMembers(members); err != nil {
			return nil, err
		}
	}
	return ob.b, nil
}

func (ob *osmBuilder) node(id osm.NodeID) *graph.Node {
	if n, ok := ob.nodes[id]; ok {
		return n
	}
	n := graph.NewIncompleteNode(int64(id))
	ob.nodes[id] = n
	ob.b.addPrimitive(n)
	return n
}

func (ob *osmBuilder) way(id osm.WayID) *graph.Way {
	if w, ok := ob.ways[id]; ok {
		return w
	}
	w := graph.NewIncompleteWay(int64(id))
	ob.ways[id] = w
	ob.b.addPrimitive(w)
	return w
}

func (ob *osmBuilder) relation(id osm.RelationID) *graph.Relation {
	if r, ok := ob.relations[id]; ok {
		return r
	}
	r := graph.NewIncompleteRelation(int64(id))
	ob.relations[id] = r
	ob.b.addPrimitive(r)
	return r
}

func (ob *osmBuilder) member(m osm.Member) graph.Primitive {
	switch m.Type {
	case osm.TypeNode:
		return ob.node(osm.NodeID(m.Ref))
	case osm.TypeWay:
		return ob.way(osm.WayID(m.Ref))
	case osm.TypeRelation:
		return ob.relation(osm.RelationID(m.Ref))
	}
	ob.log.Warn("osm member of unknown type skipped", zap.String("type", string(m.Type)), zap.Int64("ref", m.Ref))
	return nil
}

func osmTags(in osm.Tags) []tags.Tag {
	out := make([]tags.Tag, 0, len(in))
	for _, t := range in {
		if t.Key != "" && t.Value != "" {
			out = append(out, tags.Tag{Key: t.Key, Value: t.Value})
		}
	}
	return out
}
