package spatial

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geomap/internal/geom"
)

func TestAddSearchRemove(t *testing.T) {
	q := New[string](DefaultMaxLevel)
	q.Add("vienna", geom.BBoxFromPoint(geom.LL(48.2082, 16.3738)))
	q.Add("danube", geom.BBoxFromCoords(8.1, 44.6, 29.7, 48.9))
	q.Add("world", geom.BBoxFromCoords(-180, -90, 180, 90))
	require.Equal(t, 3, q.Len())

	got := q.Search(geom.BBoxFromCoords(16, 48, 17, 49))
	assert.ElementsMatch(t, []string{"vienna", "danube", "world"}, got)

	got = q.Search(geom.BBoxFromCoords(-10, -10, -9, -9))
	assert.ElementsMatch(t, []string{"world"}, got)

	assert.True(t, q.Remove("danube"))
	assert.False(t, q.Remove("danube"))
	got = q.Search(geom.BBoxFromCoords(16, 48, 17, 49))
	assert.ElementsMatch(t, []string{"vienna", "world"}, got)
	assert.False(t, q.Contains("danube"))
}

func TestPlacementDepth(t *testing.T) {
	q := New[int](10)
	q.Add(1, geom.BBoxFromCoords(0.01, 0.01, 0.02, 0.02))
	q.Add(2, geom.BBoxFromCoords(-0.01, 0.01, 0.01, 0.02)) // straddles lon 0
	q.Add(3, geom.NewBBox())

	assert.Equal(t, 10, q.where[1].level)
	assert.Equal(t, 0, q.where[2].level)
	assert.Equal(t, 0, q.where[3].level)
}

func TestUpdateMovesItem(t *testing.T) {
	q := New[string](12)
	q.Add("n", geom.BBoxFromPoint(geom.LL(10, 10)))
	q.Update("n", geom.BBoxFromPoint(geom.LL(-30, -60)))
	assert.Equal(t, 1, q.Len())
	assert.Empty(t, q.Search(geom.BBoxFromCoords(9, 9, 11, 11)))
	assert.Equal(t, []string{"n"}, q.Search(geom.BBoxFromCoords(-61, -31, -59, -29)))
}

func TestLocate(t *testing.T) {
	q := New[string](14)
	box := geom.BBoxFromPoint(geom.LL(52.52, 13.405))
	q.Add("berlin", box)
	assert.True(t, q.Locate("berlin", box))
	assert.False(t, q.Locate("berlin", geom.BBoxFromPoint(geom.LL(52.53, 13.405))))
	assert.False(t, q.Locate("paris", box))
}

func TestSearchOnTileBoundary(t *testing.T) {
	q := New[string](8)
	q.Add("west", geom.BBoxFromCoords(-1, 1, 0, 2))
	q.Add("east", geom.BBoxFromCoords(0, 1, 1, 2))
	got := q.Search(geom.BBoxFromCoords(-0.5, 1.5, 0, 1.5))
	assert.ElementsMatch(t, []string{"west", "east"}, got)
}

func TestSearchMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	q := New[string](DefaultMaxLevel)
	boxes := map[string]geom.BBox{}
	for i := 0; i < 500; i++ {
		x := rng.Float64()*40 - 20
		y := rng.Float64()*40 - 20
		w := rng.Float64() * rng.Float64() * 5
		h := rng.Float64() * rng.Float64() * 5
		name := fmt.Sprintf("i%d", i)
		boxes[name] = geom.BBoxFromCoords(x, y, x+w, y+h)
		q.Add(name, boxes[name])
	}
	for i := 0; i < 50; i++ {
		x := rng.Float64()*40 - 20
		y := rng.Float64()*40 - 20
		query := geom.BBoxFromCoords(x, y, x+rng.Float64()*3, y+rng.Float64()*3)
		var want []string
		for name, b := range boxes {
			if b.Intersects(query) {
				want = append(want, name)
			}
		}
		assert.ElementsMatch(t, want, q.Search(query), "query %v", query)
	}
}

func TestBoxPastAntimeridianIsSearchable(t *testing.T) {
	q := New[string](9)
	// enough occupied level-9 buckets that Search walks tiles, not buckets
	for i := 0; i < 20; i++ {
		q.Add(fmt.Sprintf("p%d", i), geom.BBoxFromPoint(geom.LL(-40+float64(i), -100+float64(i)*5)))
	}
	cross := geom.BBoxFromCoords(170.1, 0.5, 185, 0.6)
	q.Add("cross", cross)

	assert.Equal(t, 0, q.where["cross"].level)
	assert.Equal(t, []string{"cross"}, q.Search(geom.BBoxFromCoords(179, 0, 180, 1)))
	assert.True(t, q.Locate("cross", cross))
}
