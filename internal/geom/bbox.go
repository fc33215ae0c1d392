package geom

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// BBox is an axis-aligned rectangle over lon (X) and lat (Y).
//
// A box is valid when MinX <= MaxX and MinY <= MaxY. NewBBox returns the
// canonical invalid box (+Inf/-Inf), which every Add call grows from. The zero
// value is a degenerate box at (0, 0), not an empty one.
type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewBBox returns an invalid box that contains nothing.
func NewBBox() BBox {
	return BBox{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
}

// BBoxFromPoint returns a zero-area box at ll, or an invalid box when ll is
// not finite.
func BBoxFromPoint(ll LatLon) BBox {
	b := NewBBox()
	b.Add(ll)
	return b
}

// BBoxFromPoints returns the smallest box containing a and b. The argument
// order does not matter.
func BBoxFromPoints(a, b LatLon) BBox {
	box := NewBBox()
	box.Add(a)
	box.Add(b)
	return box
}

// BBoxFromCoords is BBoxFromPoints for raw x/y pairs.
func BBoxFromCoords(x1, y1, x2, y2 float64) BBox {
	box := NewBBox()
	box.AddXY(x1, y1)
	box.AddXY(x2, y2)
	return box
}

// BBoxFromBound converts an orb bound.
func BBoxFromBound(b orb.Bound) BBox {
	return BBoxFromCoords(b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y())
}

// Add grows the box to include ll. Non-finite coordinates are ignored.
func (b *BBox) Add(ll LatLon) {
	b.AddXY(ll.Lon, ll.Lat)
}

// AddXY grows the box to include (x, y). NaN or infinite input is ignored.
func (b *BBox) AddXY(x, y float64) {
	if !finite(x) || !finite(y) {
		return
	}
	b.MinX = math.Min(b.MinX, x)
	b.MaxX = math.Max(b.MaxX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxY = math.Max(b.MaxY, y)
}

// AddBBox grows the box to include o when o is valid.
func (b *BBox) AddBBox(o BBox) {
	if !o.IsValid() {
		return
	}
	b.MinX = math.Min(b.MinX, o.MinX)
	b.MaxX = math.Max(b.MaxX, o.MaxX)
	b.MinY = math.Min(b.MinY, o.MinY)
	b.MaxY = math.Max(b.MaxY, o.MaxY)
}

// IsValid reports whether the box contains at least one point.
func (b BBox) IsValid() bool {
	return b.MinX <= b.MaxX && b.MinY <= b.MaxY
}

// IsInWorld reports whether the box lies within the world extents.
func (b BBox) IsInWorld() bool {
	return b.IsValid() &&
		b.MinX >= MinLon && b.MaxX <= MaxLon &&
		b.MinY >= MinLat && b.MaxY <= MaxLat
}

// Bounds reports whether o lies entirely inside b. Edges are inclusive.
func (b BBox) Bounds(o BBox) bool {
	if !b.IsValid() || !o.IsValid() {
		return false
	}
	return b.MinX <= o.MinX && b.MaxX >= o.MaxX &&
		b.MinY <= o.MinY && b.MaxY >= o.MaxY
}

// BoundsPoint reports whether ll lies inside b. Edges are inclusive.
func (b BBox) BoundsPoint(ll LatLon) bool {
	if !b.IsValid() || !ll.IsFinite() {
		return false
	}
	return ll.Lon >= b.MinX && ll.Lon <= b.MaxX &&
		ll.Lat >= b.MinY && ll.Lat <= b.MaxY
}

// Intersects reports whether b and o share at least one point.
func (b BBox) Intersects(o BBox) bool {
	if !b.IsValid() || !o.IsValid() {
		return false
	}
	return !(o.MaxX < b.MinX ||
		o.MinX > b.MaxX ||
		o.MaxY < b.MinY ||
		o.MinY > b.MaxY)
}

// Center returns the midpoint of the box.
func (b BBox) Center() LatLon {
	return LatLon{Lat: (b.MinY + b.MaxY) / 2, Lon: (b.MinX + b.MaxX) / 2}
}

// Width is the extent along X; 0 for invalid boxes.
func (b BBox) Width() float64 {
	if !b.IsValid() {
		return 0
	}
	return b.MaxX - b.MinX
}

// Height is the extent along Y; 0 for invalid boxes.
func (b BBox) Height() float64 {
	if !b.IsValid() {
		return 0
	}
	return b.MaxY - b.MinY
}

// TopLeft and BottomRight are the north-west and south-east corners.
func (b BBox) TopLeft() LatLon     { return LatLon{Lat: b.MaxY, Lon: b.MinX} }
func (b BBox) BottomRight() LatLon { return LatLon{Lat: b.MinY, Lon: b.MaxX} }

// Bound converts to an orb bound.
func (b BBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinX, b.MinY}, Max: orb.Point{b.MaxX, b.MaxY}}
}

// Format renders "minX<sep>minY<sep>maxX<sep>maxY" with seven decimals.
func (b BBox) Format(sep string) string {
	vals := []float64{b.MinX, b.MinY, b.MaxX, b.MaxY}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'f', 7, 64)
	}
	return strings.Join(parts, sep)
}

func (b BBox) String() string {
	if !b.IsValid() {
		return "[invalid]"
	}
	return "[" + b.Format(", ") + "]"
}
