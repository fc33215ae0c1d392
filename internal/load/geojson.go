package load

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/paulmach/orb/geojson"
)

// parseGeoJSON accepts a FeatureCollection, a single Feature or a bare
// geometry. Feature properties become tags.
func parseGeoJSON(r io.Reader) (*batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	b := &batch{}
	switch probe.Type {
	case "":
		return nil, errors.New("geojson: missing type")
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, err
		}
		for _, f := range fc.Features {
			if f.Geometry != nil {
				b.geometry(f.Geometry, tagList(f.Properties))
			}
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		if f.Geometry != nil {
			b.geometry(f.Geometry, tagList(f.Properties))
		}
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		if og := g.Geometry(); og != nil {
			b.geometry(og, nil)
		}
	}
	return b, nil
}
