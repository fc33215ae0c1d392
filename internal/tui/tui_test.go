package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geomap/internal/geom"
	"geomap/internal/graph"
	"geomap/internal/metrics"
	"geomap/internal/tags"
	"geomap/internal/validate"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

// sample holds a diagonal road from (0,0) to (10,10) and a named point in
// the middle.
func sample(t *testing.T) (*graph.DataSet, *graph.Node, *graph.Way) {
	t.Helper()
	ds := graph.New(graph.WithName("sample"))
	a := graph.NewNode(1, geom.LL(0, 0))
	b := graph.NewNode(2, geom.LL(10, 10))
	road := graph.NewWay(10, []*graph.Node{a, b}, tags.Tag{Key: "highway", Value: "path"})
	centre := graph.NewNode(3, geom.LL(5, 5), tags.Tag{Key: "name", Value: "Centre"})
	require.NoError(t, ds.AddPrimitives(a, b, road, centre))
	return ds, centre, road
}

func newModel(t *testing.T, ds *graph.DataSet, opts Options) Model {
	t.Helper()
	m := New(opts)
	m.setDataSet(ds)
	return send(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

func isBraille(r rune) bool { return r > 0x2800 && r <= 0x28FF }

func TestViewRendersGeometry(t *testing.T) {
	ds, _, _ := sample(t)
	m := newModel(t, ds, Options{Help: true})

	out := m.View()
	assert.True(t, strings.ContainsFunc(out, isBraille))
	assert.Contains(t, out, "sample")
	assert.Contains(t, m.renderHelp(), "c check")

	m = send(t, m, key("1"), key("2"), key("3"))
	assert.False(t, strings.ContainsFunc(m.View(), isBraille), "all layers hidden")
}

func TestEmptyModelRendersFrame(t *testing.T) {
	m := send(t, New(Options{}), tea.WindowSizeMsg{Width: 60, Height: 20})
	assert.Contains(t, m.View(), "geomap")
	assert.False(t, strings.ContainsFunc(m.View(), isBraille))

	m = send(t, m, key("c"), key(" "), key("r"))
	assert.Equal(t, "nothing to reload", m.status)
}

func TestSpaceTogglesNearestToCentre(t *testing.T) {
	ds, centre, _ := sample(t)
	met := metrics.New()
	m := newModel(t, ds, Options{Metrics: met})

	m = send(t, m, key(" "))
	assert.True(t, ds.Selection().Selection().Contains(centre))
	assert.Contains(t, m.status, "selected n3")

	m = send(t, m, key(" "))
	assert.True(t, ds.Selection().Selection().IsEmpty())

	assert.Equal(t, float64(2), testutil.ToFloat64(met.SelectionChanges.WithLabelValues("toggle")))
}

func TestClickSelectsAndEscClears(t *testing.T) {
	ds, centre, road := sample(t)
	m := newModel(t, ds, Options{})
	lay := m.layout()

	x, y, ok := m.screenXYMicro(5, 5, lay.mapW, lay.mapH)
	require.True(t, ok)
	m = send(t, m, tea.MouseMsg{
		X: lay.mapX + x/2, Y: lay.mapY + y/4,
		Action: tea.MouseActionPress, Button: tea.MouseButtonLeft,
	})
	assert.True(t, m.hovering)
	assert.Same(t, centre, m.hoverPrim)
	assert.True(t, ds.Selection().Selection().Contains(centre))

	// hovering the road's first vertex picks the way
	x, y, _ = m.screenXYMicro(0, 0, lay.mapW, lay.mapH)
	m = send(t, m, tea.MouseMsg{X: lay.mapX + x/2, Y: lay.mapY + y/4, Action: tea.MouseActionMotion})
	assert.Same(t, road, m.hoverPrim)
	m = send(t, m, key(" "))
	assert.Equal(t, 2, ds.Selection().Selection().Len())

	m = send(t, m, key("i"))
	require.NotEmpty(t, m.popup)
	m = send(t, m, key("esc"))
	assert.Empty(t, m.popup, "first esc closes the popup")
	assert.Equal(t, 2, ds.Selection().Selection().Len())
	send(t, m, key("esc"))
	assert.True(t, ds.Selection().Selection().IsEmpty())
}

func TestMouseOutsideMapStopsHover(t *testing.T) {
	ds, _, _ := sample(t)
	m := newModel(t, ds, Options{})
	m = send(t, m, tea.MouseMsg{X: 40, Y: 0, Action: tea.MouseActionMotion})
	assert.False(t, m.hovering)
	assert.Nil(t, m.hoverPrim)
}

func TestInspectDescribesPrimitive(t *testing.T) {
	ds, _, _ := sample(t)
	m := newModel(t, ds, Options{})
	m = send(t, m, key("i"))
	assert.Contains(t, m.popup, `node n3 "Centre"`)
	assert.Contains(t, m.popup, "name=Centre")
	assert.Contains(t, m.popup, "counts: nodes=3 ways=1 relations=0")
	assert.Contains(t, m.popup, "tile: ")
}

func TestCheckShowsReport(t *testing.T) {
	ds, _, _ := sample(t)
	met := metrics.New()
	m := newModel(t, ds, Options{Metrics: met})
	m = send(t, m, key("c"))
	assert.Equal(t, "consistency check: no violations", m.popup)

	broken := graph.New()
	a := graph.NewNode(1, geom.LL(0, 0))
	gap := graph.NewIncompleteNode(2)
	w := graph.NewWay(10, []*graph.Node{a, gap})
	require.NoError(t, broken.AddPrimitives(a, gap, w))
	m.setDataSet(broken)
	m = send(t, m, key("c"))
	assert.Contains(t, m.popup, string(validate.UsableHasIncomplete))
	assert.Contains(t, m.status, "violations")
	assert.Equal(t, float64(2), testutil.ToFloat64(met.Scans))
}

func TestTagTable(t *testing.T) {
	ds, centre, _ := sample(t)
	m := newModel(t, ds, Options{})

	m = send(t, m, key("a"))
	require.True(t, m.showAttrs)
	assert.Len(t, m.tbl.Rows(), 2, "every tagged primitive without a selection")

	ds.Selection().Set(centre)
	m.refreshAttrs()
	rows := m.tbl.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "n3", rows[0][0])
	assert.Equal(t, "Centre", rows[0][1])
	assert.Equal(t, "name", m.tbl.Columns()[1].Title)
	assert.Contains(t, m.View(), "Centre")

	m = send(t, m, key("esc"))
	assert.False(t, m.showAttrs)
}

func TestTagTableNeedsTags(t *testing.T) {
	ds := graph.New()
	require.NoError(t, ds.AddPrimitive(graph.NewNode(1, geom.LL(1, 1))))
	m := newModel(t, ds, Options{})
	m = send(t, m, key("a"))
	assert.False(t, m.showAttrs)
	assert.Equal(t, "no tags to show", m.status)
}

func TestPasteAddsToDataSet(t *testing.T) {
	m := send(t, New(Options{}), tea.WindowSizeMsg{Width: 80, Height: 24}, key("p"))
	require.True(t, m.pasteMode)
	m.ta.SetValue("LINESTRING(0 0, 2 2)")
	m = send(t, m, key("enter"))
	require.False(t, m.pasteMode)
	require.NotNil(t, m.DataSet())
	assert.Equal(t, 3, m.DataSet().Len())
	assert.True(t, strings.ContainsFunc(m.View(), isBraille))

	m = send(t, m, key("p"))
	m.ta.SetValue("POINT(10 10)")
	m = send(t, m, key("enter"))
	assert.Equal(t, 4, m.DataSet().Len())
	assert.InDelta(t, 10, m.extent.MaxX, 1e-9)

	m = send(t, m, key("p"))
	m.ta.SetValue("NOT WKT")
	m = send(t, m, key("enter"))
	assert.True(t, m.pasteMode, "stays open on error")
	assert.Contains(t, m.status, "wkt error")
	m = send(t, m, key("esc"))
	assert.False(t, m.pasteMode)
	assert.Equal(t, 4, m.DataSet().Len())
}

const osmV1 = `<osm version="0.6">
  <node id="1" lat="1" lon="1"><tag k="name" v="keep"/></node>
  <node id="2" lat="2" lon="2"/>
</osm>`

const osmV2 = `<osm version="0.6">
  <node id="1" lat="1" lon="1"><tag k="name" v="keep"/></node>
  <node id="2" lat="2" lon="2"/>
  <node id="3" lat="3" lon="3"/>
</osm>`

func TestReloadKeepsSelectedIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "area.osm")
	require.NoError(t, os.WriteFile(path, []byte(osmV1), 0o644))

	m := NewWithPath(path, Options{Watch: true, Debounce: 20 * time.Millisecond})
	defer m.Close()
	require.NotNil(t, m.DataSet())
	require.NotNil(t, m.Init())

	old := m.DataSet()
	old.RLock()
	keep := old.Node(1)
	old.RUnlock()
	old.Selection().Set(keep)

	require.NoError(t, os.WriteFile(path, []byte(osmV2), 0o644))
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	m = send(t, m, fileChangedMsg{path: abs})

	ds := m.DataSet()
	require.NotSame(t, old, ds)
	assert.Equal(t, 3, ds.Len())
	ds.RLock()
	fresh := ds.Node(1)
	ds.RUnlock()
	assert.True(t, ds.Selection().Selection().Contains(fresh))
	assert.Contains(t, m.status, "reloaded: area.osm")

	m = send(t, m, fileChangedMsg{path: "/elsewhere.osm"})
	assert.Same(t, ds, m.DataSet(), "changes to other files are ignored")
}

func TestOpenReportsErrors(t *testing.T) {
	m := NewWithPath(filepath.Join(t.TempDir(), "absent.wkt"), Options{})
	assert.Nil(t, m.DataSet())
	assert.Contains(t, m.status, "load error")
	assert.Nil(t, m.Init())
}

func TestRefreshDirListsSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.wkt", "a.geojson", "notes.txt", "c.osm"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	m := New(Options{})
	m.cwd = dir
	m.refreshDir()
	var names []string
	for _, it := range m.items {
		names = append(names, it.(fileItem).title)
	}
	assert.Equal(t, []string{"a.geojson", "b.wkt", "c.osm"}, names)
}

func TestMultipolygonHoleStaysEmpty(t *testing.T) {
	var f frame
	f.base = newBrailleBuf(10, 5)
	outer := [][2]int{{0, 0}, {19, 0}, {19, 19}, {0, 19}}
	inner := [][2]int{{6, 6}, {13, 6}, {13, 13}, {6, 13}}
	f.base.fillRings([][][2]int{outer, inner})
	assert.NotZero(t, f.base.m[0][0])
	assert.Zero(t, f.base.m[2][4], "cell inside the inner ring")
}

func TestClipLines(t *testing.T) {
	assert.Equal(t, "a\nb", clipLines("a\nb\n", 5))
	got := clipLines("1\n2\n3\n4\n5", 3)
	assert.True(t, strings.HasPrefix(got, "1\n2\n"))
	assert.Contains(t, got, "3 more lines")
}
