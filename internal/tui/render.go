package tui

import (
	"math"
	"sort"
	"strings"

	"geomap/internal/geom"
	"geomap/internal/graph"
	"geomap/internal/selection"
)

// padExtent widens a degenerate extent so a single point or a straight
// north-south line can still be projected.
func padExtent(b geom.BBox) geom.BBox {
	if !b.IsValid() {
		return b
	}
	const pad = 0.0005
	if b.MaxX-b.MinX < pad {
		b.MinX, b.MaxX = b.MinX-pad, b.MaxX+pad
	}
	if b.MaxY-b.MinY < pad {
		b.MinY, b.MaxY = b.MinY-pad, b.MaxY+pad
	}
	return b
}

func (m Model) projectable() bool {
	return m.extent.IsValid() && m.extent.MaxX > m.extent.MinX && m.extent.MaxY > m.extent.MinY
}

// cellToLonLat converts a map cell coordinate back to lon/lat using the extent, zoom, and pan.
func (m Model) cellToLonLat(cx, cy, w, h int) (float64, float64, bool) {
	if !m.projectable() || w <= 1 || h <= 1 {
		return 0, 0, false
	}
	zx := float64(cx-m.offsetX) / float64(w-1)
	zy := 1.0 - float64(cy-m.offsetY)/float64(h-1)
	nx := 0.5 + (zx-0.5)/m.zoom
	ny := 0.5 + (zy-0.5)/m.zoom
	lon := m.extent.MinX + nx*(m.extent.MaxX-m.extent.MinX)
	lat := m.extent.MinY + ny*(m.extent.MaxY-m.extent.MinY)
	return lon, lat, true
}

// viewport is the area visible in a w x h map, one cell of margin included.
func (m Model) viewport(w, h int) (geom.BBox, bool) {
	lon0, lat0, ok := m.cellToLonLat(-1, -1, w, h)
	if !ok {
		return geom.BBox{}, false
	}
	lon1, lat1, _ := m.cellToLonLat(w, h, w, h)
	return geom.BBoxFromCoords(lon0, lat0, lon1, lat1), true
}

// screenXYMicro maps lon/lat into a 2x4 microgrid per cell for braille rendering.
func (m Model) screenXYMicro(lon, lat float64, w, h int) (int, int, bool) {
	if !m.projectable() {
		return 0, 0, false
	}
	nx := (lon - m.extent.MinX) / (m.extent.MaxX - m.extent.MinX)
	ny := (lat - m.extent.MinY) / (m.extent.MaxY - m.extent.MinY)
	zx := 0.5 + (nx-0.5)*m.zoom
	zy := 0.5 + (ny-0.5)*m.zoom
	wMic := w * 2
	hMic := h * 4
	sx := int(math.Floor(zx*float64(wMic-1))) + m.offsetX*2
	sy := int(math.Floor((1.0-zy)*float64(hMic-1))) + m.offsetY*4
	return sx, sy, true
}

func (m Model) nodeMicro(n *graph.Node, w, h int) (int, int, bool) {
	ll, ok := n.Coor()
	if !ok {
		return 0, 0, false
	}
	return m.screenXYMicro(ll.Lon, ll.Lat, w, h)
}

func (m Model) wayMicro(wy *graph.Way, w, h int) [][2]int {
	pts := make([][2]int, 0, wy.NodesCount())
	for i := range wy.NodesCount() {
		if x, y, ok := m.nodeMicro(wy.Node(i), w, h); ok {
			pts = append(pts, [2]int{x, y})
		}
	}
	return pts
}

// isPoint reports whether n is drawn on its own rather than as a way vertex.
func isPoint(n *graph.Node) bool {
	if !n.Tags().IsEmpty() {
		return true
	}
	for _, r := range n.Referrers() {
		if r.Type() == graph.TypeWay {
			return false
		}
	}
	return true
}

// frame is one rendered map. Selected geometry goes to sel so it can be
// styled separately.
type frame struct {
	w, h int
	base *brailleBuf
	sel  *brailleBuf
}

func (m Model) renderMap(w, h int) string {
	return m.draw(w, h).compose(m.hovering, m.hoverMicX/2, m.hoverMicY/4)
}

// draw projects every drawable primitive intersecting the viewport.
func (m Model) draw(w, h int) *frame {
	f := &frame{w: w, h: h, base: newBrailleBuf(w, h), sel: newBrailleBuf(w, h)}
	if m.ds == nil {
		return f
	}
	vp, ok := m.viewport(w, h)
	if !ok {
		return f
	}
	selected := m.ds.Selection().Selection()
	m.ds.Read(func() {
		filled := map[*graph.Way]bool{}
		if m.showAreas {
			for _, r := range m.ds.SearchRelations(vp) {
				if !r.IsDrawable() || r.Tags().Value("type") != "multipolygon" {
					continue
				}
				var rings [][][2]int
				for _, mb := range r.Members() {
					wy, ok := mb.Primitive.(*graph.Way)
					if !ok || !wy.IsDrawable() || !wy.IsClosed() {
						continue
					}
					filled[wy] = true
					rings = append(rings, m.wayMicro(wy, w, h))
				}
				f.buf(isSelected(selected, r)).fillRings(rings)
			}
		}
		for _, wy := range m.ds.SearchWays(vp) {
			if !wy.IsDrawable() {
				continue
			}
			buf := f.buf(isSelected(selected, wy))
			pts := m.wayMicro(wy, w, h)
			switch {
			case wy.IsClosed() && m.showAreas:
				if !filled[wy] {
					buf.fillRings([][][2]int{pts})
				}
				buf.strokeRing(pts)
			case !wy.IsClosed() && m.showWays:
				buf.strokePath(pts)
			}
		}
		if m.showNodes {
			for _, n := range m.ds.SearchNodes(vp) {
				if !n.IsDrawable() || !isPoint(n) {
					continue
				}
				x, y, ok := m.nodeMicro(n, w, h)
				if !ok {
					continue
				}
				if selected.Contains(n) {
					f.sel.dot(x, y)
				} else {
					f.base.setPixel(x, y)
				}
			}
		}
	})
	return f
}

func (f *frame) buf(selected bool) *brailleBuf {
	if selected {
		return f.sel
	}
	return f.base
}

// isSelected reports whether p or a relation containing it is selected.
func isSelected(sel *selection.Set[graph.Primitive], p graph.Primitive) bool {
	if sel.IsEmpty() {
		return false
	}
	if sel.Contains(p) {
		return true
	}
	for _, r := range p.Referrers() {
		if r.Type() == graph.TypeRelation && sel.Contains(r) {
			return true
		}
	}
	return false
}

// compose joins both layers into styled text, with the hover marker on top.
func (f *frame) compose(hover bool, hx, hy int) string {
	var sb strings.Builder
	for y := 0; y < f.h; y++ {
		for x := 0; x < f.w; x++ {
			if hover && x == hx && y == hy {
				sb.WriteString(hoverStyle.Render("◯"))
				continue
			}
			base, sel := f.base.m[y][x], f.sel.m[y][x]
			if sel != 0 {
				sb.WriteString(selectedStyle.Render(string(glyph(base | sel))))
				continue
			}
			sb.WriteRune(glyph(base))
		}
		if y < f.h-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// fillRings fills the interior of rings with the even-odd rule, so inner
// rings of a multipolygon stay empty.
func (b *brailleBuf) fillRings(rings [][][2]int) {
	hMic := b.h * 4
	for yMic := 0; yMic < hMic; yMic++ {
		var xs []int
		for _, ring := range rings {
			if len(ring) < 3 {
				continue
			}
			for i := 0; i < len(ring); i++ {
				a := ring[i]
				c := ring[(i+1)%len(ring)]
				if a[1] == c[1] {
					continue
				}
				y0, y1 := a[1], c[1]
				x0, x1 := a[0], c[0]
				if (yMic >= y0 && yMic < y1) || (yMic >= y1 && yMic < y0) {
					t := float64(yMic-y0) / float64(y1-y0)
					xs = append(xs, int(float64(x0)+t*float64(x1-x0)))
				}
			}
		}
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for xMic := max(0, xs[i]); xMic <= min(xs[i+1], b.w*2-1); xMic++ {
				b.setPixel(xMic, yMic)
			}
		}
	}
}

func (b *brailleBuf) strokePath(pts [][2]int) {
	for i := 1; i < len(pts); i++ {
		b.drawLineMicro(pts[i-1][0], pts[i-1][1], pts[i][0], pts[i][1])
	}
	if len(pts) == 1 {
		b.setPixel(pts[0][0], pts[0][1])
	}
}

func (b *brailleBuf) strokeRing(pts [][2]int) {
	b.strokePath(pts)
	if len(pts) > 2 {
		last := pts[len(pts)-1]
		b.drawLineMicro(last[0], last[1], pts[0][0], pts[0][1])
	}
}

// pick finds the drawable primitive with a vertex nearest to the micro
// position (mx, my). Way vertices pick the way; point nodes pick the node.
func (m Model) pick(mx, my, w, h int) (p graph.Primitive, px, py int, ok bool) {
	if m.ds == nil {
		return nil, 0, 0, false
	}
	vp, vok := m.viewport(w, h)
	if !vok {
		return nil, 0, 0, false
	}
	best := math.MaxInt
	try := func(cand graph.Primitive, x, y int) {
		dx, dy := x-mx, y-my
		if d := dx*dx + dy*dy; d < best {
			best, p, px, py, ok = d, cand, x, y, true
		}
	}
	m.ds.Read(func() {
		if m.showNodes {
			for _, n := range m.ds.SearchNodes(vp) {
				if !n.IsDrawable() || !isPoint(n) {
					continue
				}
				if x, y, ok := m.nodeMicro(n, w, h); ok {
					try(n, x, y)
				}
			}
		}
		for _, wy := range m.ds.SearchWays(vp) {
			if !wy.IsDrawable() {
				continue
			}
			if wy.IsClosed() && !m.showAreas || !wy.IsClosed() && !m.showWays {
				continue
			}
			for _, pt := range m.wayMicro(wy, w, h) {
				try(wy, pt[0], pt[1])
			}
		}
	})
	return p, px, py, ok
}

// pickCenter picks the primitive nearest to the middle of the map.
func (m Model) pickCenter(w, h int) (graph.Primitive, bool) {
	p, _, _, ok := m.pick(w, h*2, w, h)
	return p, ok
}
