package load

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"

	"geomap/internal/geom"
	"geomap/internal/graph"
	"geomap/internal/tags"
)

// batch collects the primitives of one import before they are added to the
// data set in a single call.
type batch struct {
	prims []graph.Primitive
	stats Stats
}

func (b *batch) node(ll geom.LatLon, t []tags.Tag) *graph.Node {
	n := graph.NewNode(graph.NewID(), ll, t...)
	b.prims = append(b.prims, n)
	b.stats.Nodes++
	return n
}

func (b *batch) way(nodes []*graph.Node, t []tags.Tag) *graph.Way {
	w := graph.NewWay(graph.NewID(), nodes, t...)
	b.prims = append(b.prims, w)
	b.stats.Ways++
	return w
}

func (b *batch) relation(members []graph.Member, t []tags.Tag) *graph.Relation {
	r := graph.NewRelation(graph.NewID(), members, t...)
	b.prims = append(b.prims, r)
	b.stats.Relations++
	return r
}

func (b *batch) addPrimitive(p graph.Primitive) {
	b.prims = append(b.prims, p)
	switch p.Type() {
	case graph.TypeNode:
		b.stats.Nodes++
	case graph.TypeWay:
		b.stats.Ways++
	case graph.TypeRelation:
		b.stats.Relations++
	}
}

// line adds the nodes of ls and a way over them. A closing point equal to
// the first one reuses the first node, so rings come out closed.
func (b *batch) line(ls []orb.Point, t []tags.Tag) *graph.Way {
	nodes := make([]*graph.Node, 0, len(ls))
	for i, p := range ls {
		if i > 0 && i == len(ls)-1 && p == ls[0] && len(nodes) > 0 {
			nodes = append(nodes, nodes[0])
			continue
		}
		nodes = append(nodes, b.node(geom.FromPoint(p), nil))
	}
	return b.way(nodes, t)
}

// polygons adds a closed way for a single-ring polygon and a multipolygon
// relation otherwise.
func (b *batch) polygons(polys []orb.Polygon, t []tags.Tag) {
	if len(polys) == 1 && len(polys[0]) == 1 {
		b.line(polys[0][0], t)
		return
	}
	var members []graph.Member
	for _, poly := range polys {
		for i, ring := range poly {
			role := "inner"
			if i == 0 {
				role = "outer"
			}
			members = append(members, graph.Member{Role: role, Primitive: b.line(ring, nil)})
		}
	}
	b.relation(members, append([]tags.Tag{{Key: "type", Value: "multipolygon"}}, t...))
}

// geometry converts one orb geometry. t goes on the primitive that stands
// for the whole geometry.
func (b *batch) geometry(g orb.Geometry, t []tags.Tag) {
	switch g := g.(type) {
	case orb.Point:
		b.node(geom.FromPoint(g), t)
	case orb.MultiPoint:
		for _, p := range g {
			b.node(geom.FromPoint(p), t)
		}
	case orb.LineString:
		b.line(g, t)
	case orb.MultiLineString:
		for _, ls := range g {
			b.line(ls, t)
		}
	case orb.Ring:
		b.line(g, t)
	case orb.Polygon:
		b.polygons([]orb.Polygon{g}, t)
	case orb.MultiPolygon:
		b.polygons(g, t)
	case orb.Bound:
		b.line(g.ToRing(), t)
	case orb.Collection:
		for _, sub := range g {
			b.geometry(sub, t)
		}
	}
}

// tagList turns loosely typed properties into tags sorted by key. Empty and
// nil values are dropped.
func tagList(props map[string]any) []tags.Tag {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]tags.Tag, 0, len(keys))
	for _, k := range keys {
		v := props[k]
		if k == "" || v == nil {
			continue
		}
		s := fmt.Sprint(v)
		if s == "" {
			continue
		}
		out = append(out, tags.Tag{Key: k, Value: s})
	}
	return out
}
