package geom

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBBoxFromPointsBoundsBothCorners(t *testing.T) {
	pairs := [][2]LatLon{
		{LL(0, 0), LL(10, 10)},
		{LL(10, 10), LL(0, 0)},
		{LL(-45.5, 170), LL(12.25, -170)},
		{LL(3, 3), LL(3, 3)},
	}
	for _, p := range pairs {
		b := BBoxFromPoints(p[0], p[1])
		require.True(t, b.IsValid(), "box %v", b)
		assert.True(t, b.BoundsPoint(p[0]), "%v should bound %v", b, p[0])
		assert.True(t, b.BoundsPoint(p[1]), "%v should bound %v", b, p[1])
	}
}

func TestBBoxAddIsMonotonic(t *testing.T) {
	b := BBoxFromPoint(LL(1, 1))
	steps := []LatLon{LL(0, 0), LL(0.5, 0.5), LL(5, -3), LL(math.NaN(), 4), LL(-2, math.Inf(1))}
	for _, ll := range steps {
		before := b
		b.Add(ll)
		assert.True(t, b.Bounds(before), "add %v shrank %v to %v", ll, before, b)
	}
	assert.Equal(t, BBox{MinX: -3, MinY: 0, MaxX: 1, MaxY: 5}, b)
}

func TestBBoxNaNStaysInvalid(t *testing.T) {
	b := BBoxFromPoint(LL(math.NaN(), math.NaN()))
	assert.False(t, b.IsValid())

	b.AddXY(math.NaN(), 1)
	assert.False(t, b.IsValid())

	b.AddBBox(NewBBox())
	assert.False(t, b.IsValid())
	assert.Equal(t, "[invalid]", b.String())
}

func TestBBoxAddInvalidBoxIsNoop(t *testing.T) {
	b := BBoxFromCoords(0, 0, 1, 1)
	b.AddBBox(NewBBox())
	assert.Equal(t, BBoxFromCoords(0, 0, 1, 1), b)

	b.AddBBox(BBoxFromCoords(2, 2, 3, 3))
	assert.Equal(t, BBox{MinX: 0, MinY: 0, MaxX: 3, MaxY: 3}, b)
}

func TestBBoxIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b BBox
		want bool
	}{
		{"overlap", BBoxFromCoords(0, 0, 10, 10), BBoxFromCoords(5, 5, 15, 15), true},
		{"disjoint", BBoxFromCoords(0, 0, 1, 1), BBoxFromCoords(2, 2, 3, 3), false},
		{"shared edge", BBoxFromCoords(0, 0, 1, 1), BBoxFromCoords(1, 0, 2, 1), true},
		{"shared corner", BBoxFromCoords(0, 0, 1, 1), BBoxFromCoords(1, 1, 2, 2), true},
		{"x overlap only", BBoxFromCoords(0, 0, 5, 1), BBoxFromCoords(1, 2, 3, 3), false},
		{"contained", BBoxFromCoords(0, 0, 10, 10), BBoxFromCoords(2, 2, 3, 3), true},
		{"invalid", BBoxFromCoords(0, 0, 10, 10), NewBBox(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Intersects(tt.b))
			assert.Equal(t, tt.want, tt.b.Intersects(tt.a), "intersects must be symmetric")
		})
	}
}

func TestBBoxBounds(t *testing.T) {
	outer := BBoxFromCoords(0, 0, 10, 10)
	assert.True(t, outer.Bounds(BBoxFromCoords(0, 0, 10, 10)))
	assert.True(t, outer.Bounds(BBoxFromCoords(2, 3, 4, 5)))
	assert.False(t, outer.Bounds(BBoxFromCoords(2, 3, 11, 5)))
	assert.False(t, outer.Bounds(NewBBox()))
	assert.True(t, outer.BoundsPoint(LL(10, 0)))
	assert.False(t, outer.BoundsPoint(LL(10.0001, 0)))
}

func TestBBoxIsInWorld(t *testing.T) {
	assert.True(t, BBoxFromCoords(-180, -90, 180, 90).IsInWorld())
	assert.False(t, BBoxFromCoords(-181, 0, 0, 1).IsInWorld())
	assert.False(t, BBoxFromCoords(0, 0, 1, 90.5).IsInWorld())
	assert.False(t, NewBBox().IsInWorld())
}

func TestBBoxFormat(t *testing.T) {
	b := BBoxFromCoords(1.5, -2, 3, 4.25)
	assert.Equal(t, "1.5000000,-2.0000000,3.0000000,4.2500000", b.Format(","))
	assert.Equal(t, "1.5000000 -2.0000000 3.0000000 4.2500000", b.Format(" "))
}

func TestBBoxOrbRoundTrip(t *testing.T) {
	b := BBoxFromCoords(-3, 4, 5, 6)
	assert.Equal(t, orb.Bound{Min: orb.Point{-3, 4}, Max: orb.Point{5, 6}}, b.Bound())
	assert.Equal(t, b, BBoxFromBound(b.Bound()))
}
