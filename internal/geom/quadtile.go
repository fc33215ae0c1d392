package geom

import "math"

// MaxTileLevel is the deepest subdivision TileIndex accepts. Ids at that
// level need 2*MaxTileLevel bits.
const MaxTileLevel = 24

// TileSpansMultiple is returned by BBox.Index when the box does not fit in a
// single cell. Tile ids are always >= 0, so it never collides with one.
const TileSpansMultiple int64 = -1

// TileIndex returns the id of the cell containing ll after halving the world
// level times on both axes. Level 0 is the whole world.
//
// Cells are half-open: a coordinate on an interior cell edge belongs to the
// cell east/north of it. Lon 180 and lat 90 fold into the last column/row.
// ok is false for coordinates outside the world or for a level outside
// [0, MaxTileLevel].
func TileIndex(ll LatLon, level int) (id int64, ok bool) {
	if level < 0 || level > MaxTileLevel || !ll.IsInWorld() {
		return 0, false
	}
	n := uint64(1) << uint(level)
	x := cell((ll.Lon-MinLon)/(MaxLon-MinLon), n)
	y := cell((ll.Lat-MinLat)/(MaxLat-MinLat), n)
	return int64(interleave(x, y)), true
}

// TileCell returns the column and row of id.
func TileCell(id int64) (x, y uint32) {
	u := uint64(id)
	return compact(u), compact(u >> 1)
}

// TileID is the inverse of TileCell.
func TileID(x, y uint32) int64 {
	return int64(interleave(uint64(x), uint64(y)))
}

// TileBBox returns the extent of the cell id at level.
func TileBBox(id int64, level int) BBox {
	x, y := TileCell(id)
	n := float64(uint64(1) << uint(level))
	w := (MaxLon - MinLon) / n
	h := (MaxLat - MinLat) / n
	return BBox{
		MinX: MinLon + float64(x)*w,
		MaxX: MinLon + float64(x+1)*w,
		MinY: MinLat + float64(y)*h,
		MaxY: MinLat + float64(y+1)*h,
	}
}

// Index returns the tile id shared by all four corners of b at level, or
// TileSpansMultiple when they disagree. A corner that cannot be resolved
// takes the value of the first resolved corner.
func (b BBox) Index(level int) int64 {
	if !b.IsValid() {
		return TileSpansMultiple
	}
	corners := [4]LatLon{
		{Lat: b.MinY, Lon: b.MinX},
		{Lat: b.MinY, Lon: b.MaxX},
		{Lat: b.MaxY, Lon: b.MinX},
		{Lat: b.MaxY, Lon: b.MaxX},
	}
	first := TileSpansMultiple
	for _, c := range corners {
		id, ok := TileIndex(c, level)
		if !ok {
			continue
		}
		if first == TileSpansMultiple {
			first = id
			continue
		}
		if id != first {
			return TileSpansMultiple
		}
	}
	return first
}

func cell(frac float64, n uint64) uint64 {
	c := uint64(math.Floor(frac * float64(n)))
	if c >= n {
		c = n - 1
	}
	return c
}

// interleave puts x on the even bits and y on the odd bits.
func interleave(x, y uint64) uint64 {
	return spread(x) | spread(y)<<1
}

func spread(v uint64) uint64 {
	v &= 0xffffffff
	v = (v | v<<16) & 0x0000ffff0000ffff
	v = (v | v<<8) & 0x00ff00ff00ff00ff
	v = (v | v<<4) & 0x0f0f0f0f0f0f0f0f
	v = (v | v<<2) & 0x3333333333333333
	v = (v | v<<1) & 0x5555555555555555
	return v
}

func compact(v uint64) uint32 {
	v &= 0x5555555555555555
	v = (v | v>>1) & 0x3333333333333333
	v = (v | v>>2) & 0x0f0f0f0f0f0f0f0f
	v = (v | v>>4) & 0x00ff00ff00ff00ff
	v = (v | v>>8) & 0x0000ffff0000ffff
	v = (v | v>>16) & 0x00000000ffffffff
	return uint32(v)
}
