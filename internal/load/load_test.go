package load

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"geomap/internal/geom"
	"geomap/internal/graph"
	"geomap/internal/metrics"
	"geomap/internal/validate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDetect(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"a.geojson", FormatGeoJSON},
		{"b.JSON", FormatGeoJSON},
		{"dir/c.wkt", FormatWKT},
		{"d.csv", FormatCSV},
		{"e.kml", FormatKML},
		{"f.osm", FormatOSM},
	}
	for _, tt := range tests {
		got, err := Detect(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
	_, err := Detect("roads.shp")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, Supported("notes.txt"))
}

const featureCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "Fountain", "height": 12},
     "geometry": {"type": "Point", "coordinates": [16.37, 48.21]}},
    {"type": "Feature", "properties": {"highway": "primary", "ref": null},
     "geometry": {"type": "LineString", "coordinates": [[16.0, 48.0], [16.1, 48.1], [16.2, 48.0]]}},
    {"type": "Feature", "properties": {"building": "yes"},
     "geometry": {"type": "Polygon", "coordinates": [
       [[0, 0], [4, 0], [4, 4], [0, 4], [0, 0]],
       [[1, 1], [2, 1], [2, 2], [1, 1]]
     ]}}
  ]
}`

func TestGeoJSONFeatureCollection(t *testing.T) {
	ds := graph.New()
	st, err := Reader(context.Background(), ds, FormatGeoJSON, strings.NewReader(featureCollection))
	require.NoError(t, err)
	assert.Equal(t, Stats{Nodes: 1 + 3 + 4 + 3, Ways: 3, Relations: 1}, st)

	ds.RLock()
	defer ds.RUnlock()
	assert.Equal(t, st.Total(), ds.Len())

	fountain := ds.SearchNodes(geom.BBoxFromCoords(16.36, 48.2, 16.38, 48.22))
	require.Len(t, fountain, 1)
	assert.Equal(t, "Fountain", fountain[0].Tags().Value("name"))
	assert.Equal(t, "12", fountain[0].Tags().Value("height"))

	rels := ds.Relations()
	require.Len(t, rels, 1)
	assert.Equal(t, "multipolygon", rels[0].Tags().Value("type"))
	assert.Equal(t, "yes", rels[0].Tags().Value("building"))
	members := rels[0].Members()
	require.Len(t, members, 2)
	assert.Equal(t, "outer", members[0].Role)
	assert.Equal(t, "inner", members[1].Role)
	assert.True(t, members[0].Primitive.(*graph.Way).IsClosed())

	road := ds.Ways()[0]
	assert.Equal(t, "primary", road.Tags().Value("highway"))
	assert.False(t, road.Tags().ContainsKey("ref"))
}

func TestGeoJSONBareGeometry(t *testing.T) {
	ds := graph.New()
	st, err := Reader(context.Background(), ds, FormatGeoJSON,
		strings.NewReader(`{"type": "MultiPoint", "coordinates": [[1, 2], [3, 4]]}`))
	require.NoError(t, err)
	assert.Equal(t, Stats{Nodes: 2}, st)

	_, err = Reader(context.Background(), ds, FormatGeoJSON, strings.NewReader(`{"coordinates": []}`))
	assert.Error(t, err)
}

func TestWKT(t *testing.T) {
	ds := graph.New()
	st, err := WKT(ds, "POINT(1 2); LINESTRING(0 0,1 1,2 0)\n\nPOLYGON((0 0,1 0,1 1,0 0))")
	require.NoError(t, err)
	assert.Equal(t, Stats{Nodes: 1 + 3 + 3, Ways: 2}, st)

	ds.RLock()
	ways := ds.Ways()
	ds.RUnlock()
	require.Len(t, ways, 2)
	assert.False(t, ways[0].IsClosed())
	assert.True(t, ways[1].IsClosed())
	assert.Equal(t, 4, ways[1].NodesCount())
}

func TestWKTErrorAddsNothing(t *testing.T) {
	ds := graph.New()
	_, err := WKT(ds, "POINT(1 2); CIRCLE(0 0, 5)")
	assert.Error(t, err)
	_, err = WKT(ds, "   ")
	assert.Error(t, err)
	assert.Zero(t, ds.Len())
}

func TestCSV(t *testing.T) {
	csv := "Name,Latitude,Longitude,kind\n" +
		"Station A, 47.1, 8.5, rail\n" +
		"broken,north,east,\n" +
		"Station B,47.2,8.6,\n"
	ds := graph.New()
	st, err := Reader(context.Background(), ds, FormatCSV, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, Stats{Nodes: 2}, st)

	ds.RLock()
	defer ds.RUnlock()
	nodes := ds.Nodes()
	require.Len(t, nodes, 2)
	ll, ok := nodes[0].Coor()
	require.True(t, ok)
	assert.Equal(t, geom.LL(47.1, 8.5), ll)
	assert.Equal(t, "Station A", nodes[0].Tags().Value("Name"))
	assert.Equal(t, "rail", nodes[0].Tags().Value("kind"))
	assert.False(t, nodes[1].Tags().ContainsKey("kind"))
}

func TestCSVErrors(t *testing.T) {
	ds := graph.New()
	_, err := Reader(context.Background(), ds, FormatCSV, strings.NewReader("a,b\n1,2\n"))
	assert.ErrorContains(t, err, "latitude/longitude columns not found")
	_, err = Reader(context.Background(), ds, FormatCSV, strings.NewReader(""))
	assert.Error(t, err)
	_, err = Reader(context.Background(), ds, FormatCSV, strings.NewReader("lat,lon\nx,y\n"))
	assert.ErrorIs(t, err, ErrNoGeometry)
}

const kmlDoc = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Folder>
      <Placemark>
        <name>Summit</name>
        <Point><coordinates>10.5,46.9,3200</coordinates></Point>
      </Placemark>
      <Placemark>
        <name>Trail</name>
        <LineString><coordinates>10.0,46.0 10.1,46.1 10.2,46.2</coordinates></LineString>
      </Placemark>
    </Folder>
    <Placemark>
      <name>Lake</name>
      <description>fresh water</description>
      <Polygon>
        <outerBoundaryIs><LinearRing>
          <coordinates>9,45 9.5,45 9.5,45.5 9,45</coordinates>
        </LinearRing></outerBoundaryIs>
      </Polygon>
    </Placemark>
  </Document>
</kml>`

func TestKML(t *testing.T) {
	ds := graph.New()
	st, err := Reader(context.Background(), ds, FormatKML, strings.NewReader(kmlDoc))
	require.NoError(t, err)
	assert.Equal(t, Stats{Nodes: 1 + 3 + 3, Ways: 2}, st)

	ds.RLock()
	defer ds.RUnlock()
	ways := ds.Ways()
	require.Len(t, ways, 2)
	assert.Equal(t, "Trail", ways[0].Tags().Value("name"))
	assert.Equal(t, "Lake", ways[1].Tags().Value("name"))
	assert.Equal(t, "fresh water", ways[1].Tags().Value("description"))
	assert.True(t, ways[1].IsClosed())
	summit := ds.Nodes()[0]
	assert.Equal(t, "Summit", summit.Tags().Value("name"))
}

const osmDoc = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="51.50" lon="-0.12"><tag k="amenity" v="cafe"/></node>
  <node id="2" lat="51.51" lon="-0.11"/>
  <way id="10">
    <nd ref="1"/><nd ref="2"/><nd ref="3"/>
    <tag k="highway" v="service"/>
  </way>
  <relation id="20">
    <member type="way" ref="10" role="street"/>
    <member type="relation" ref="21" role=""/>
    <member type="node" ref="99" role="stop"/>
    <tag k="type" v="route"/>
  </relation>
  <relation id="21">
    <member type="relation" ref="20" role="parent"/>
  </relation>
</osm>`

func TestOSM(t *testing.T) {
	ds := graph.New()
	st, err := Reader(context.Background(), ds, FormatOSM, strings.NewReader(osmDoc))
	require.NoError(t, err)
	assert.Equal(t, Stats{Nodes: 4, Ways: 1, Relations: 2}, st)

	ds.RLock()
	missing := ds.Node(3)
	stop := ds.Node(99)
	way := ds.Way(10)
	r20, r21 := ds.Relation(20), ds.Relation(21)
	ds.RUnlock()

	require.NotNil(t, missing)
	assert.True(t, missing.IsIncomplete())
	assert.True(t, stop.IsIncomplete())
	assert.Equal(t, "service", way.Tags().Value("highway"))
	assert.True(t, way.IsVisible())
	require.Equal(t, 3, r20.MembersCount())
	assert.Same(t, r21, r20.Members()[1].Primitive)
	assert.Same(t, r20, r21.Members()[0].Primitive)
	assert.ElementsMatch(t, []graph.Primitive{r20}, way.Referrers())

	r := validate.Run(ds)
	assert.Equal(t, 1, r.Count(validate.UsableHasIncomplete), r.String())
	assert.Equal(t, 1, r.Total(), r.String())
}

func TestFilesMergesConcurrently(t *testing.T) {
	a := writeFile(t, "a.wkt", "LINESTRING(0 0,1 1)")
	b := writeFile(t, "b.csv", "lat,lon\n1,1\n2,2\n")
	c := writeFile(t, "c.geojson", `{"type":"Point","coordinates":[5,5]}`)
	m := metrics.New()

	ds := graph.New()
	st, err := Files(context.Background(), ds, []string{a, b, c}, WithMetrics(m))
	require.NoError(t, err)
	assert.Equal(t, Stats{Nodes: 5, Ways: 1}, st)
	assert.Equal(t, 6, ds.Len())
	assert.True(t, validate.Run(ds).Clean())
	assert.Equal(t, 3, testutil.CollectAndCount(m.LoadDuration))
}

func TestFilesReportsFailure(t *testing.T) {
	good := writeFile(t, "good.wkt", "POINT(1 1)")
	bad := writeFile(t, "bad.txt", "POINT(1 1)")
	_, err := Files(context.Background(), graph.New(), []string{good, bad})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = File(context.Background(), graph.New(), filepath.Join(t.TempDir(), "absent.wkt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatchReportsWrites(t *testing.T) {
	p := writeFile(t, "live.wkt", "POINT(1 1)")
	other := filepath.Join(filepath.Dir(p), "other.wkt")

	w, err := Watch(context.Background(), []string{p}, 20*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(other, []byte("POINT(0 0)"), 0o644))
	require.NoError(t, os.WriteFile(p, []byte("POINT(2 2)"), 0o644))

	select {
	case got := <-w.Changes():
		abs, _ := filepath.Abs(p)
		assert.Equal(t, abs, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
