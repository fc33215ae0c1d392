package geom

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// World extents on both axes.
const (
	MinLon = -180.0
	MaxLon = 180.0
	MinLat = -90.0
	MaxLat = 90.0
)

// LatLon is a WGS84 coordinate. Lon is the X axis, Lat the Y axis.
type LatLon struct {
	Lat float64
	Lon float64
}

// LL is shorthand for LatLon{Lat: lat, Lon: lon}.
func LL(lat, lon float64) LatLon { return LatLon{Lat: lat, Lon: lon} }

// IsFinite reports whether both components are neither NaN nor infinite.
func (ll LatLon) IsFinite() bool {
	return finite(ll.Lat) && finite(ll.Lon)
}

// IsInWorld reports whether the coordinate lies within the world extents.
func (ll LatLon) IsInWorld() bool {
	return ll.IsFinite() &&
		ll.Lon >= MinLon && ll.Lon <= MaxLon &&
		ll.Lat >= MinLat && ll.Lat <= MaxLat
}

// Point converts to an orb point (X = lon, Y = lat).
func (ll LatLon) Point() orb.Point { return orb.Point{ll.Lon, ll.Lat} }

// FromPoint converts an orb point into a LatLon.
func FromPoint(p orb.Point) LatLon { return LatLon{Lat: p.Lat(), Lon: p.Lon()} }

func (ll LatLon) String() string {
	return fmt.Sprintf("(%.7f, %.7f)", ll.Lat, ll.Lon)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
