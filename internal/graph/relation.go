package graph

import (
	"fmt"
	"slices"

	"geomap/internal/geom"
	"geomap/internal/tags"
)

// Member is one entry of a relation.
type Member struct {
	Role      string
	Primitive Primitive
}

// Relation groups other primitives under roles.
type Relation struct {
	primitive
	members []Member
}

// NewRelation returns a complete, visible relation.
func NewRelation(id int64, members []Member, pairs ...tags.Tag) *Relation {
	r := &Relation{primitive: primitive{id: id, visible: true}, members: slices.Clone(members)}
	for _, t := range pairs {
		_, _, _ = r.tags.Put(t.Key, t.Value)
	}
	return r
}

// NewIncompleteRelation returns a placeholder for an unloaded relation.
func NewIncompleteRelation(id int64) *Relation {
	return &Relation{primitive: primitive{id: id, visible: true, incomplete: true}}
}

func (r *Relation) PrimitiveID() PrimitiveID { return PrimitiveID{Type: TypeRelation, Ref: r.id} }
func (r *Relation) Type() Type               { return TypeRelation }

// SetDetachedMembers replaces the members of a relation that has not been
// added to a data set, for importers that resolve members after creating
// every relation. Use DataSet.SetMembers once the relation is added.
func (r *Relation) SetDetachedMembers(members []Member) error {
	if r.ds != nil {
		return fmt.Errorf("%w: %s is in %s", ErrWrongDataSet, r.PrimitiveID(), r.ds.Label())
	}
	r.members = slices.Clone(members)
	return nil
}

// Members returns a copy of the member list.
func (r *Relation) Members() []Member { return slices.Clone(r.members) }

// MembersCount returns the number of members.
func (r *Relation) MembersCount() int { return len(r.members) }

// MemberPrimitives returns each distinct member primitive once.
func (r *Relation) MemberPrimitives() []Primitive {
	out := make([]Primitive, 0, len(r.members))
	for _, m := range r.members {
		if !slices.Contains(out, m.Primitive) {
			out = append(out, m.Primitive)
		}
	}
	return out
}

// BBox is the union of the member boxes. Relations that contain themselves,
// directly or through other relations, are visited once.
func (r *Relation) BBox() geom.BBox {
	b := geom.NewBBox()
	r.collectBBox(&b, map[*Relation]bool{})
	return b
}

func (r *Relation) collectBBox(b *geom.BBox, seen map[*Relation]bool) {
	if seen[r] {
		return
	}
	seen[r] = true
	for _, m := range r.members {
		if sub, ok := m.Primitive.(*Relation); ok {
			sub.collectBBox(b, seen)
			continue
		}
		b.AddBBox(m.Primitive.BBox())
	}
}

func (r *Relation) String() string { return describe(r) }
