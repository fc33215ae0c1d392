package graph

import (
	"fmt"
	"slices"
	"sync/atomic"

	"geomap/internal/geom"
	"geomap/internal/tags"
)

// Type is the kind of a primitive.
type Type int8

const (
	TypeNode Type = iota
	TypeWay
	TypeRelation
)

func (t Type) String() string {
	switch t {
	case TypeNode:
		return "node"
	case TypeWay:
		return "way"
	case TypeRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// PrimitiveID identifies a primitive within a data set. Ids are unique per
// type; negative ids belong to primitives created locally.
type PrimitiveID struct {
	Type Type
	Ref  int64
}

func (id PrimitiveID) String() string {
	return fmt.Sprintf("%c%d", id.Type.String()[0], id.Ref)
}

var lastNewID atomic.Int64

// NewID returns a fresh negative id for a locally created primitive.
func NewID() int64 {
	return lastNewID.Add(-1)
}

// Primitive is a node, way or relation. Only this package implements it.
//
// Accessors read state owned by the primitive's data set; callers hold the
// data set's read lock while reading a primitive that belongs to one.
type Primitive interface {
	PrimitiveID() PrimitiveID
	Type() Type
	ID() int64
	Tags() *tags.Map
	Referrers() []Primitive
	IsDeleted() bool
	IsIncomplete() bool
	IsVisible() bool
	// IsUsable reports neither deleted nor incomplete.
	IsUsable() bool
	// IsDrawable reports usable and visible.
	IsDrawable() bool
	BBox() geom.BBox
	DataSet() *DataSet
	String() string

	base() *primitive
}

// primitive holds what every type shares.
type primitive struct {
	id         int64
	tags       tags.Map
	referrers  []Primitive
	deleted    bool
	incomplete bool
	visible    bool
	ds         *DataSet
}

func (p *primitive) base() *primitive { return p }

func (p *primitive) ID() int64          { return p.id }
func (p *primitive) Tags() *tags.Map    { return &p.tags }
func (p *primitive) IsDeleted() bool    { return p.deleted }
func (p *primitive) IsIncomplete() bool { return p.incomplete }
func (p *primitive) IsVisible() bool    { return p.visible }
func (p *primitive) IsUsable() bool     { return !p.deleted && !p.incomplete }
func (p *primitive) IsDrawable() bool   { return p.IsUsable() && p.visible }
func (p *primitive) DataSet() *DataSet  { return p.ds }

// Referrers returns the primitives that list this one as a member.
func (p *primitive) Referrers() []Primitive {
	return slices.Clone(p.referrers)
}

func (p *primitive) hasReferrer(parent Primitive) bool {
	return slices.Contains(p.referrers, parent)
}

// link and unlink are the only writers of referrer lists. They run with the
// owning data set's write lock held.
func link(child, parent Primitive) {
	b := child.base()
	if !b.hasReferrer(parent) {
		b.referrers = append(b.referrers, parent)
	}
}

func unlink(child, parent Primitive) {
	b := child.base()
	b.referrers = slices.DeleteFunc(b.referrers, func(r Primitive) bool { return r == parent })
}

func describe(p Primitive) string {
	s := p.PrimitiveID().String()
	if name := p.Tags().Value("name"); name != "" {
		s += " " + fmt.Sprintf("%q", name)
	}
	return s
}
