package load

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"geomap/internal/geom"
	"geomap/internal/tags"
)

// parseCSV reads a table with latitude/longitude columns. Column detection:
// lat|latitude|y and lon|lng|long|longitude|x, case-insensitive. Every other
// non-empty cell becomes a tag keyed by its header.
func parseCSV(r io.Reader, log *zap.Logger) (*batch, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("csv: empty input")
	}
	if err != nil {
		return nil, err
	}

	idxLat, idxLon := -1, -1
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		switch strings.ToLower(header[i]) {
		case "lat", "latitude", "y":
			if idxLat == -1 {
				idxLat = i
			}
		case "lon", "lng", "long", "longitude", "x":
			if idxLon == -1 {
				idxLon = i
			}
		}
	}
	if idxLat == -1 || idxLon == -1 {
		return nil, errors.New("csv: latitude/longitude columns not found")
	}

	b := &batch{}
	skipped := 0
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if idxLon >= len(row) || idxLat >= len(row) {
			skipped++
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(row[idxLon]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(row[idxLat]), 64)
		if err1 != nil || err2 != nil {
			log.Debug("csv row skipped", zap.Int("line", line))
			skipped++
			continue
		}
		var t []tags.Tag
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			if i == idxLat || i == idxLon || i >= len(header) || header[i] == "" || cell == "" {
				continue
			}
			t = append(t, tags.Tag{Key: header[i], Value: cell})
		}
		b.node(geom.LL(lat, lon), t)
	}
	if skipped > 0 {
		log.Info("csv rows without coordinates skipped", zap.Int("rows", skipped))
	}
	return b, nil
}
