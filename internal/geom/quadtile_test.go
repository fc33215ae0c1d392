package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileIndexLevelZeroIsWholeWorld(t *testing.T) {
	for _, ll := range []LatLon{LL(-90, -180), LL(0, 0), LL(90, 180), LL(45, -120)} {
		id, ok := TileIndex(ll, 0)
		require.True(t, ok)
		assert.Equal(t, int64(0), id)
	}
}

func TestTileIndexQuadrants(t *testing.T) {
	tests := []struct {
		ll   LatLon
		want int64
	}{
		{LL(-45, -90), 0}, // south-west
		{LL(-45, 90), 1},  // south-east
		{LL(45, -90), 2},  // north-west
		{LL(45, 90), 3},   // north-east
	}
	for _, tt := range tests {
		id, ok := TileIndex(tt.ll, 1)
		require.True(t, ok)
		assert.Equal(t, tt.want, id, "%v", tt.ll)
	}
}

func TestTileIndexBoundaryRule(t *testing.T) {
	// interior edges go to the upper cell
	id, ok := TileIndex(LL(0, 0), 1)
	require.True(t, ok)
	assert.Equal(t, int64(3), id)

	// world edges fold into the last cell
	id, ok = TileIndex(LL(90, 180), 1)
	require.True(t, ok)
	assert.Equal(t, int64(3), id)

	id, ok = TileIndex(LL(-90, -180), 3)
	require.True(t, ok)
	assert.Equal(t, int64(0), id)
}

func TestTileIndexUnresolved(t *testing.T) {
	_, ok := TileIndex(LL(91, 0), 4)
	assert.False(t, ok)
	_, ok = TileIndex(LL(0, 0), -1)
	assert.False(t, ok)
	_, ok = TileIndex(LL(0, 0), MaxTileLevel+1)
	assert.False(t, ok)
}

func TestTileIndexRange(t *testing.T) {
	for level := 0; level <= MaxTileLevel; level += 4 {
		id, ok := TileIndex(LL(89.9999, 179.9999), level)
		require.True(t, ok)
		assert.GreaterOrEqual(t, id, int64(0))
		assert.Less(t, uint64(id), uint64(1)<<uint(2*level))
	}
}

func TestTileBBoxContainsCoordinate(t *testing.T) {
	ll := LL(48.2082, 16.3738)
	for _, level := range []int{0, 5, 10, 18, MaxTileLevel} {
		id, ok := TileIndex(ll, level)
		require.True(t, ok)
		assert.True(t, TileBBox(id, level).BoundsPoint(ll), "level %d", level)
	}
}

func TestBBoxIndexSingleTile(t *testing.T) {
	b := BBoxFromCoords(0.01, 0.01, 0.02, 0.02)
	id := b.Index(10)
	require.NotEqual(t, TileSpansMultiple, id)
	assert.GreaterOrEqual(t, id, int64(0))
	for _, c := range []LatLon{LL(0.01, 0.01), LL(0.01, 0.02), LL(0.02, 0.01), LL(0.02, 0.02)} {
		cid, ok := TileIndex(c, 10)
		require.True(t, ok)
		assert.Equal(t, id, cid)
	}
}

func TestBBoxIndexSpansTiles(t *testing.T) {
	b := BBoxFromCoords(-0.01, 0.01, 0.01, 0.02)
	assert.Equal(t, TileSpansMultiple, b.Index(10))
	// any box fits at level 0
	assert.Equal(t, int64(0), b.Index(0))
}

func TestBBoxIndexUnresolvedCornerTakesResolvedValue(t *testing.T) {
	// max corners lie outside the world
	b := BBoxFromCoords(179.99, 89.99, 181, 91)
	want, ok := TileIndex(LL(89.99, 179.99), 6)
	require.True(t, ok)
	assert.Equal(t, want, b.Index(6))

	assert.Equal(t, TileSpansMultiple, BBoxFromCoords(200, 100, 201, 101).Index(3))
	assert.Equal(t, TileSpansMultiple, NewBBox().Index(3))
}
