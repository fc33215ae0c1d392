// Package load imports geometry files into a data set. GeoJSON and WKT
// geometries become nodes, ways and multipolygon relations; CSV rows and KML
// placemarks become tagged primitives; OSM XML keeps its ids and turns
// references to objects missing from the file into incomplete primitives.
package load

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"geomap/internal/graph"
	"geomap/internal/metrics"
)

// Format is a supported input format.
type Format string

const (
	FormatGeoJSON Format = "geojson"
	FormatWKT     Format = "wkt"
	FormatCSV     Format = "csv"
	FormatKML     Format = "kml"
	FormatOSM     Format = "osm"
)

var extensions = map[string]Format{
	".geojson": FormatGeoJSON,
	".json":    FormatGeoJSON,
	".wkt":     FormatWKT,
	".csv":     FormatCSV,
	".kml":     FormatKML,
	".osm":     FormatOSM,
}

// Detect picks the format from the file extension.
func Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Supported reports whether path has a known extension.
func Supported(path string) bool {
	_, err := Detect(path)
	return err == nil
}

// Stats counts imported primitives.
type Stats struct {
	Nodes     int
	Ways      int
	Relations int
}

func (s Stats) Total() int { return s.Nodes + s.Ways + s.Relations }

func (s *Stats) add(o Stats) {
	s.Nodes += o.Nodes
	s.Ways += o.Ways
	s.Relations += o.Relations
}

func (s Stats) String() string {
	return fmt.Sprintf("nodes=%d ways=%d relations=%d", s.Nodes, s.Ways, s.Relations)
}

type options struct {
	log     *zap.Logger
	metrics *metrics.Metrics
}

// Option configures an import.
type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics records import durations in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func newOptions(opts []Option) options {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// File imports one file into ds.
func File(ctx context.Context, ds *graph.DataSet, path string, opts ...Option) (Stats, error) {
	format, err := Detect(path)
	if err != nil {
		return Stats{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, err
	}
	defer f.Close()
	st, err := Reader(ctx, ds, format, f, opts...)
	if err != nil {
		return st, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return st, nil
}

// Reader imports data in the given format into ds. Nothing is added when
// parsing fails.
func Reader(ctx context.Context, ds *graph.DataSet, format Format, r io.Reader, opts ...Option) (Stats, error) {
	o := newOptions(opts)
	start := time.Now()

	b, err := parse(ctx, format, r, o.log)
	if err != nil {
		return Stats{}, err
	}
	if len(b.prims) == 0 {
		return Stats{}, ErrNoGeometry
	}
	if err := ds.AddPrimitives(b.prims...); err != nil {
		return Stats{}, err
	}

	took := time.Since(start)
	o.metrics.ObserveLoad(string(format), took)
	o.log.Debug("imported",
		zap.String("format", string(format)),
		zap.Stringer("stats", b.stats),
		zap.Duration("took", took))
	return b.stats, nil
}

func parse(ctx context.Context, format Format, r io.Reader, log *zap.Logger) (*batch, error) {
	switch format {
	case FormatGeoJSON:
		return parseGeoJSON(r)
	case FormatWKT:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return parseWKT(string(data))
	case FormatCSV:
		return parseCSV(r, log)
	case FormatKML:
		return parseKML(r)
	case FormatOSM:
		return parseOSM(ctx, r, log)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// Files imports paths concurrently into ds. The first failure cancels the
// remaining imports; files already imported stay in ds.
func Files(ctx context.Context, ds *graph.DataSet, paths []string, opts ...Option) (Stats, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	results := make([]Stats, len(paths))
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			st, err := File(ctx, ds, p, opts...)
			results[i] = st
			return err
		})
	}
	err := g.Wait()

	var total Stats
	for _, st := range results {
		total.add(st)
	}
	return total, err
}

// WKT imports a WKT string, as pasted by a user.
func WKT(ds *graph.DataSet, s string, opts ...Option) (Stats, error) {
	return Reader(context.Background(), ds, FormatWKT, strings.NewReader(s), opts...)
}
