package load

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"geomap/internal/tags"
)

type kmlCoords struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer kmlCoords   `xml:"outerBoundaryIs>LinearRing"`
	Inner []kmlCoords `xml:"innerBoundaryIs>LinearRing"`
}

type kmlGeometry struct {
	Points   []kmlCoords   `xml:"Point"`
	Lines    []kmlCoords   `xml:"LineString"`
	Polygons []kmlPolygon  `xml:"Polygon"`
	Multi    []kmlGeometry `xml:"MultiGeometry"`
}

type kmlPlacemark struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	kmlGeometry
}

// parseKML reads every Placemark, however deeply it sits in Documents and
// Folders. KML coordinates are "lon,lat[,alt]"; altitude is ignored.
func parseKML(r io.Reader) (*batch, error) {
	dec := xml.NewDecoder(r)
	b := &batch{}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Placemark" {
			continue
		}
		var pm kmlPlacemark
		if err := dec.DecodeElement(&pm, &se); err != nil {
			return nil, err
		}
		var t []tags.Tag
		if name := strings.TrimSpace(pm.Name); name != "" {
			t = append(t, tags.Tag{Key: "name", Value: name})
		}
		if desc := strings.TrimSpace(pm.Description); desc != "" {
			t = append(t, tags.Tag{Key: "description", Value: desc})
		}
		b.geometry(pm.kmlGeometry.collection(), t)
	}
	return b, nil
}

func (g kmlGeometry) collection() orb.Collection {
	var out orb.Collection
	for _, p := range g.Points {
		if pts := kmlPoints(p.Coordinates); len(pts) > 0 {
			out = append(out, pts[0])
		}
	}
	for _, l := range g.Lines {
		if pts := kmlPoints(l.Coordinates); len(pts) > 0 {
			out = append(out, orb.LineString(pts))
		}
	}
	for _, p := range g.Polygons {
		outer := kmlPoints(p.Outer.Coordinates)
		if len(outer) == 0 {
			continue
		}
		poly := orb.Polygon{orb.Ring(outer)}
		for _, in := range p.Inner {
			if pts := kmlPoints(in.Coordinates); len(pts) > 0 {
				poly = append(poly, orb.Ring(pts))
			}
		}
		out = append(out, poly)
	}
	for _, m := range g.Multi {
		out = append(out, m.collection()...)
	}
	return out
}

// kmlPoints parses whitespace-separated "lon,lat[,alt]" tuples, skipping
// malformed ones.
func kmlPoints(s string) []orb.Point {
	var out []orb.Point
	for _, tuple := range strings.Fields(s) {
		vals := strings.Split(tuple, ",")
		if len(vals) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, orb.Point{lon, lat})
	}
	return out
}
