// Package spatial buckets items by quad-tile so bounding-box queries only
// visit cells near the query.
package spatial

import (
	"geomap/internal/geom"
)

// DefaultMaxLevel is the deepest bucket level used when none is configured.
const DefaultMaxLevel = 16

type key struct {
	level int
	tile  int64
}

type entry[T comparable] struct {
	item T
	box  geom.BBox
}

// QuadBuckets stores each item in the deepest tile that fully contains its
// box. Items whose box spans tiles even at level 1, is invalid or reaches
// outside the world live in the level-0 root bucket. QuadBuckets is not
// safe for concurrent use; the owner provides locking.
type QuadBuckets[T comparable] struct {
	maxLevel int
	levels   []map[int64][]entry[T]
	where    map[T]key
}

// New returns an empty index. maxLevel is clamped to [0, geom.MaxTileLevel].
func New[T comparable](maxLevel int) *QuadBuckets[T] {
	if maxLevel < 0 {
		maxLevel = 0
	}
	if maxLevel > geom.MaxTileLevel {
		maxLevel = geom.MaxTileLevel
	}
	q := &QuadBuckets[T]{maxLevel: maxLevel}
	q.Clear()
	return q
}

// MaxLevel returns the deepest level items are stored at.
func (q *QuadBuckets[T]) MaxLevel() int { return q.maxLevel }

// Len returns the number of stored items.
func (q *QuadBuckets[T]) Len() int { return len(q.where) }

// Clear removes every item.
func (q *QuadBuckets[T]) Clear() {
	q.levels = make([]map[int64][]entry[T], q.maxLevel+1)
	for i := range q.levels {
		q.levels[i] = make(map[int64][]entry[T])
	}
	q.where = make(map[T]key)
}

// place returns the bucket for box. A box reaching outside the world covers
// cells the grid cannot name, so it stays in the root bucket.
func (q *QuadBuckets[T]) place(box geom.BBox) key {
	k := key{}
	if !box.IsInWorld() {
		return k
	}
	for level := 1; level <= q.maxLevel; level++ {
		id := box.Index(level)
		if id == geom.TileSpansMultiple {
			break
		}
		k = key{level: level, tile: id}
	}
	return k
}

// Add stores item with box, replacing a previous entry for the same item.
func (q *QuadBuckets[T]) Add(item T, box geom.BBox) {
	if _, ok := q.where[item]; ok {
		q.Remove(item)
	}
	k := q.place(box)
	q.levels[k.level][k.tile] = append(q.levels[k.level][k.tile], entry[T]{item: item, box: box})
	q.where[item] = k
}

// Update re-buckets item after its box changed.
func (q *QuadBuckets[T]) Update(item T, box geom.BBox) {
	q.Add(item, box)
}

// Remove drops item and reports whether it was present.
func (q *QuadBuckets[T]) Remove(item T) bool {
	k, ok := q.where[item]
	if !ok {
		return false
	}
	delete(q.where, item)
	bucket := q.levels[k.level][k.tile]
	for i, e := range bucket {
		if e.item == item {
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			break
		}
	}
	if len(bucket) == 0 {
		delete(q.levels[k.level], k.tile)
	} else {
		q.levels[k.level][k.tile] = bucket
	}
	return true
}

// Contains reports whether item is stored, regardless of bucket.
func (q *QuadBuckets[T]) Contains(item T) bool {
	_, ok := q.where[item]
	return ok
}

// Locate reports whether item can be found by searching with box: it must
// sit in the bucket box selects, stored with a box that intersects box.
func (q *QuadBuckets[T]) Locate(item T, box geom.BBox) bool {
	k := q.place(box)
	for _, e := range q.levels[k.level][k.tile] {
		if e.item == item {
			return e.box.Intersects(box)
		}
	}
	return false
}

// Search returns the items whose stored box intersects box.
func (q *QuadBuckets[T]) Search(box geom.BBox) []T {
	var out []T
	if !box.IsValid() {
		return out
	}
	for level := 0; level <= q.maxLevel; level++ {
		buckets := q.levels[level]
		if len(buckets) == 0 {
			continue
		}
		for _, tile := range q.candidates(level, box, len(buckets)) {
			for _, e := range buckets[tile] {
				if e.box.Intersects(box) {
					out = append(out, e.item)
				}
			}
		}
	}
	return out
}

// All returns every stored item in no particular order.
func (q *QuadBuckets[T]) All() []T {
	out := make([]T, 0, len(q.where))
	for item := range q.where {
		out = append(out, item)
	}
	return out
}

// candidates lists the tiles at level that may hold items intersecting box.
// When the tile range is larger than the number of occupied buckets, the
// occupied buckets are scanned instead.
func (q *QuadBuckets[T]) candidates(level int, box geom.BBox, occupied int) []int64 {
	lo, hi := clampWorld(box)
	a, okA := geom.TileIndex(lo, level)
	b, okB := geom.TileIndex(hi, level)
	if !okA || !okB {
		return q.occupied(level)
	}
	x0, y0 := geom.TileCell(a)
	x1, y1 := geom.TileCell(b)
	span := uint64(x1-x0+1) * uint64(y1-y0+1)
	if span > uint64(occupied) {
		return q.occupied(level)
	}
	out := make([]int64, 0, span)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			out = append(out, geom.TileID(x, y))
		}
	}
	return out
}

func (q *QuadBuckets[T]) occupied(level int) []int64 {
	out := make([]int64, 0, len(q.levels[level]))
	for tile := range q.levels[level] {
		out = append(out, tile)
	}
	return out
}

func clampWorld(box geom.BBox) (lo, hi geom.LatLon) {
	clamp := func(v, lower, upper float64) float64 { return max(lower, min(v, upper)) }
	lo = geom.LatLon{Lat: clamp(box.MinY, geom.MinLat, geom.MaxLat), Lon: clamp(box.MinX, geom.MinLon, geom.MaxLon)}
	hi = geom.LatLon{Lat: clamp(box.MaxY, geom.MinLat, geom.MaxLat), Lon: clamp(box.MaxX, geom.MinLon, geom.MaxLon)}
	return lo, hi
}
