package graph

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"geomap/internal/geom"
)

// AddPrimitive adds p and links it into the referrer lists of the primitives
// it refers to. Referenced primitives need not belong to the data set.
func (ds *DataSet) AddPrimitive(p Primitive) error {
	return ds.AddPrimitives(p)
}

// AddPrimitives adds all of ps or none of them.
func (ds *DataSet) AddPrimitives(ps ...Primitive) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	batch := make(map[PrimitiveID]bool, len(ps))
	for _, p := range ps {
		if err := ds.addable(p); err != nil {
			return err
		}
		if batch[p.PrimitiveID()] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, p.PrimitiveID())
		}
		batch[p.PrimitiveID()] = true
	}
	for _, p := range ps {
		ds.add(p)
	}
	ds.log.Debug("primitives added", zap.Int("count", len(ps)), zap.Int("total", len(ds.byID)))
	return nil
}

func (ds *DataSet) addable(p Primitive) error {
	b := p.base()
	switch {
	case b.ds == ds:
		return fmt.Errorf("%w: %s", ErrDuplicateID, p.PrimitiveID())
	case b.ds != nil:
		return fmt.Errorf("%w: %s in %s", ErrWrongDataSet, p.PrimitiveID(), b.ds.Label())
	}
	if _, ok := ds.byID[p.PrimitiveID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, p.PrimitiveID())
	}
	return nil
}

func (ds *DataSet) add(p Primitive) {
	p.base().ds = ds
	ds.byID[p.PrimitiveID()] = p
	switch v := p.(type) {
	case *Node:
		ds.nodes = append(ds.nodes, v)
		ds.reindexNode(v)
	case *Way:
		ds.ways = append(ds.ways, v)
		ds.linkChildren(v)
		ds.reindexWay(v)
	case *Relation:
		ds.relations = append(ds.relations, v)
		ds.linkChildren(v)
	}
}

// RemovePrimitive removes p from the data set. A primitive that is still
// referred to cannot be removed. The primitive is also dropped from the
// selection.
func (ds *DataSet) RemovePrimitive(p Primitive) error {
	ds.mu.Lock()
	if err := ds.owned(p); err != nil {
		ds.mu.Unlock()
		return err
	}
	if refs := p.base().referrers; len(refs) > 0 {
		ds.mu.Unlock()
		return fmt.Errorf("%w: %s by %s", ErrHasReferrers, p.PrimitiveID(), refs[0].PrimitiveID())
	}
	ds.unlinkChildren(p)
	delete(ds.byID, p.PrimitiveID())
	switch v := p.(type) {
	case *Node:
		ds.nodes = slices.DeleteFunc(ds.nodes, func(n *Node) bool { return n == v })
		ds.nodeIdx.Remove(v)
	case *Way:
		ds.ways = slices.DeleteFunc(ds.ways, func(w *Way) bool { return w == v })
		ds.wayIdx.Remove(v)
	case *Relation:
		ds.relations = slices.DeleteFunc(ds.relations, func(r *Relation) bool { return r == v })
	}
	p.base().ds = nil
	ds.mu.Unlock()

	ds.log.Debug("primitive removed", zap.Stringer("id", p.PrimitiveID()))
	ds.selection.Remove(p)
	return nil
}

// SetWayNodes replaces the node list of w.
func (ds *DataSet) SetWayNodes(w *Way, nodes []*Node) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.owned(w); err != nil {
		return err
	}
	ds.unlinkChildren(w)
	w.nodes = slices.Clone(nodes)
	ds.linkChildren(w)
	ds.reindexWay(w)
	return nil
}

// SetMembers replaces the member list of r.
func (ds *DataSet) SetMembers(r *Relation, members []Member) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.owned(r); err != nil {
		return err
	}
	ds.unlinkChildren(r)
	r.members = slices.Clone(members)
	ds.linkChildren(r)
	return nil
}

// SetCoor moves n and re-indexes it together with the ways that use it.
// A non-finite coordinate makes the coordinate unknown.
func (ds *DataSet) SetCoor(n *Node, ll geom.LatLon) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.owned(n); err != nil {
		return err
	}
	n.setCoor(ll)
	ds.reindexNode(n)
	for _, ref := range n.referrers {
		if w, ok := ref.(*Way); ok && w.ds == ds {
			ds.reindexWay(w)
		}
	}
	return nil
}

// SetDeleted marks p deleted or undeleted. A deleted way or relation is
// unlinked from its children's referrer lists and linked back when
// undeleted. Deleted primitives are dropped from the selection.
func (ds *DataSet) SetDeleted(p Primitive, deleted bool) error {
	ds.mu.Lock()
	if err := ds.owned(p); err != nil {
		ds.mu.Unlock()
		return err
	}
	b := p.base()
	if b.deleted == deleted {
		ds.mu.Unlock()
		return nil
	}
	if deleted {
		ds.unlinkChildren(p)
		b.deleted = true
	} else {
		b.deleted = false
		ds.linkChildren(p)
		if w, ok := p.(*Way); ok {
			ds.reindexWay(w)
		}
	}
	ds.mu.Unlock()

	if deleted {
		ds.selection.Remove(p)
	}
	return nil
}

// SetVisible changes the visibility of p.
func (ds *DataSet) SetVisible(p Primitive, visible bool) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.owned(p); err != nil {
		return err
	}
	p.base().visible = visible
	return nil
}

// SetIncomplete changes whether p is a placeholder.
func (ds *DataSet) SetIncomplete(p Primitive, incomplete bool) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.owned(p); err != nil {
		return err
	}
	p.base().incomplete = incomplete
	return nil
}

// LinkReferrer adds parent to the referrer list of child, which must belong
// to the data set. It exists to repair back-links; regular edits keep them
// in sync on their own.
func (ds *DataSet) LinkReferrer(child, parent Primitive) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.owned(child); err != nil {
		return err
	}
	link(child, parent)
	return nil
}

// UnlinkReferrer removes parent from the referrer list of child.
func (ds *DataSet) UnlinkReferrer(child, parent Primitive) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.owned(child); err != nil {
		return err
	}
	unlink(child, parent)
	return nil
}

// RestoreReferrers links every live way and relation back into the
// referrer lists of its children that lost it. Scan and relink share one
// write lock, so only current members are relinked. It returns the number
// of links restored.
func (ds *DataSet) RestoreReferrers() int {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	restored := 0
	relink := func(child, parent Primitive) {
		if child.base().ds == ds && !child.base().hasReferrer(parent) {
			link(child, parent)
			restored++
		}
	}
	for _, w := range ds.ways {
		if w.deleted {
			continue
		}
		for _, n := range w.nodes {
			relink(n, w)
		}
	}
	for _, r := range ds.relations {
		if r.deleted {
			continue
		}
		for _, m := range r.members {
			relink(m.Primitive, r)
		}
	}
	if restored > 0 {
		ds.log.Info("referrers restored", zap.Int("links", restored))
	}
	return restored
}

func (ds *DataSet) owned(p Primitive) error {
	if p.base().ds != ds {
		return fmt.Errorf("%w: %s", ErrNotInDataSet, p.PrimitiveID())
	}
	return nil
}

// linkChildren links parent into each child. Deleted parents stay unlinked.
// Children owned by another data set are left alone; their referrer lists
// belong to that data set's lock.
func (ds *DataSet) linkChildren(parent Primitive) {
	if parent.IsDeleted() {
		return
	}
	switch v := parent.(type) {
	case *Way:
		for _, n := range v.nodes {
			ds.link(n, v)
		}
	case *Relation:
		for _, m := range v.members {
			ds.link(m.Primitive, v)
		}
	}
}

func (ds *DataSet) unlinkChildren(parent Primitive) {
	switch v := parent.(type) {
	case *Way:
		for _, n := range v.nodes {
			ds.unlink(n, v)
		}
	case *Relation:
		for _, m := range v.members {
			ds.unlink(m.Primitive, v)
		}
	}
}

// foreign reports whether child belongs to a different data set.
func (ds *DataSet) foreign(child Primitive) bool {
	owner := child.base().ds
	return owner != nil && owner != ds
}

func (ds *DataSet) link(child, parent Primitive) {
	if !ds.foreign(child) {
		link(child, parent)
	}
}

func (ds *DataSet) unlink(child, parent Primitive) {
	if !ds.foreign(child) {
		unlink(child, parent)
	}
}

func (ds *DataSet) reindexNode(n *Node) {
	if n.hasCoor {
		ds.nodeIdx.Update(n, n.BBox())
	} else {
		ds.nodeIdx.Remove(n)
	}
}

func (ds *DataSet) reindexWay(w *Way) {
	w.refreshBBox()
	ds.wayIdx.Update(w, w.bbox)
}
