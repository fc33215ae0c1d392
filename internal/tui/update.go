package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"geomap/internal/graph"
	"geomap/internal/load"
	"geomap/internal/validate"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.showSidebar {
			lay := m.layout()
			m.l.SetSize(sidebarWidth-2, lay.contentH-2)
		}
	case fileChangedMsg:
		if m.watcher == nil || msg.path != m.watchPath {
			return m, nil
		}
		m.log.Info("file changed, reloading", zap.String("path", msg.path))
		m.reload()
		return m, waitForChange(m.watcher)
	case tea.KeyMsg:
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.pasteMode {
			switch msg.String() {
			case "esc":
				m.pasteMode = false
				m.ta.Blur()
				return m, nil
			case "enter":
				m.paste(strings.TrimSpace(m.ta.Value()))
				return m, nil
			}
			var cmd tea.Cmd
			m.ta, cmd = m.ta.Update(msg)
			return m, cmd
		}
		if done, cmd := m.handleKey(msg); done || cmd != nil {
			return m, cmd
		}
	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey runs a view-mode command. done means the command already
// produced the final result and the list must not see the key.
func (m *Model) handleKey(msg tea.KeyMsg) (done bool, cmd tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return true, tea.Quit
	case "1":
		m.showNodes = !m.showNodes
		m.status = fmt.Sprintf("points: %v", m.showNodes)
	case "2":
		m.showWays = !m.showWays
		m.status = fmt.Sprintf("lines: %v", m.showWays)
	case "3":
		m.showAreas = !m.showAreas
		m.status = fmt.Sprintf("areas: %v", m.showAreas)
	case "l":
		all := m.showNodes && m.showWays && m.showAreas
		m.showNodes, m.showWays, m.showAreas = !all, !all, !all
		m.status = fmt.Sprintf("layers: pts=%v ls=%v areas=%v", m.showNodes, m.showWays, m.showAreas)
	case "+", "=":
		if m.zoom < 4096 {
			m.zoom *= 1.2
			m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
		}
	case "-", "_":
		if m.zoom > 0.05 {
			m.zoom /= 1.2
			m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
		}
	case "tab":
		m.showSidebar = !m.showSidebar
		if m.showSidebar {
			m.refreshDir()
			m.l.SetSize(sidebarWidth-2, m.layout().contentH-2)
		}
	case "p":
		m.pasteMode = true
		m.ta.SetValue("")
		m.status = "paste mode"
		m.ta.Focus()
	case "h":
		m.helpVisible = !m.helpVisible
	case "a":
		m.showAttrs = !m.showAttrs
		if m.showAttrs {
			m.refreshAttrs()
		}
	case "i":
		lay := m.layout()
		if p, ok := m.pickCenter(lay.mapW, lay.mapH); ok {
			m.popup = m.describe(p)
			m.status = "inspect " + p.PrimitiveID().String()
		} else {
			m.popup = "no feature nearby"
			m.status = m.popup
		}
	case "c":
		m.check()
	case "r":
		m.reload()
	case " ":
		lay := m.layout()
		p, ok := m.hoverPrim, m.hovering && m.hoverPrim != nil
		if !ok {
			p, ok = m.pickCenter(lay.mapW, lay.mapH)
		}
		if ok {
			m.toggle(p)
		}
	case "esc":
		switch {
		case m.popup != "":
			m.popup = ""
		case m.showAttrs:
			m.showAttrs = false
		case m.ds != nil:
			m.ds.Selection().Clear()
			m.status = "selection cleared"
		}
	case "enter":
		if m.showSidebar {
			if it, ok := m.l.SelectedItem().(fileItem); ok {
				return true, m.open(it.path)
			}
		}
	case "up":
		m.offsetY -= 1
	case "down":
		m.offsetY += 1
	case "left":
		m.offsetX -= 2
	case "right":
		m.offsetX += 2
	}
	return false, nil
}

// handleMouse tracks the primitive under the pointer; a left click toggles
// it in the selection.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	lay := m.layout()
	if m.showSidebar {
		m.l.SetSize(sidebarWidth-2, lay.contentH-2)
	}
	cx, cy := msg.X-lay.mapX, msg.Y-lay.mapY
	if cx < 0 || cx >= lay.mapW || cy < 0 || cy >= lay.mapH {
		m.hovering = false
		m.hoverPrim = nil
		return
	}
	m.hoverCellX, m.hoverCellY = cx, cy
	m.hoverLon, m.hoverLat, m.hoverHasGeo = m.cellToLonLat(cx, cy, lay.mapW, lay.mapH)

	p, px, py, ok := m.pick(cx*2, cy*4, lay.mapW, lay.mapH)
	m.hovering = ok
	m.hoverPrim = p
	m.hoverMicX, m.hoverMicY = px, py

	if ok && msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		m.toggle(p)
	}
}

func (m *Model) toggle(p graph.Primitive) {
	m.ds.Selection().Toggle(p)
	sel := m.ds.Selection().Selection()
	verb := "deselected"
	if sel.Contains(p) {
		verb = "selected"
	}
	m.status = fmt.Sprintf("%s %s  (%d selected)", verb, p.PrimitiveID(), sel.Len())
	if m.showAttrs {
		m.refreshAttrs()
	}
}

// paste adds WKT text to the data set on screen, creating one when needed.
func (m *Model) paste(text string) {
	if text == "" {
		m.status = "paste: empty"
		return
	}
	ds := m.ds
	if ds == nil {
		ds = graph.New(graph.WithName("pasted"), graph.WithLogger(m.opts.Logger), graph.WithMaxLevel(m.opts.MaxLevel))
	}
	st, err := load.WKT(ds, text, load.WithLogger(m.opts.Logger), load.WithMetrics(m.opts.Metrics))
	if err != nil {
		m.status = "wkt error: " + err.Error()
		return
	}
	if ds != m.ds {
		m.setDataSet(ds)
	} else {
		m.refreshExtent()
	}
	m.zoom = 1.0
	m.offsetX, m.offsetY = 0, 0
	m.pasteMode = false
	m.ta.Blur()
	m.status = "pasted WKT  " + st.String()
}

// check runs the consistency checker and shows its report.
func (m *Model) check() {
	if m.ds == nil {
		m.status = "nothing loaded"
		return
	}
	r := validate.Run(m.ds,
		validate.WithMaxReports(m.opts.MaxReports),
		validate.WithLogger(m.opts.Logger),
		validate.WithMetrics(m.opts.Metrics))
	if r.Clean() {
		m.popup = "consistency check: no violations"
		m.status = "check: clean"
		return
	}
	head := fmt.Sprintf("consistency check: %d violations, %d errors", r.Total(), r.Errors())
	if r.Fault != "" {
		head += "\n" + errorStyle.Render("scan aborted")
	}
	m.popup = head + "\n" + strings.TrimRight(r.String(), "\n")
	m.status = fmt.Sprintf("check: %d violations", r.Total())
}

// describe renders the inspect popup for p.
func (m Model) describe(p graph.Primitive) string {
	name := filepath.Base(m.selPath)
	if m.selPath == "" {
		name = "<unsaved>"
	}
	var lines []string
	m.ds.Read(func() {
		nodes, ways, rels := m.ds.Counts()
		lines = append(lines,
			fmt.Sprintf("data set: %s", name),
			fmt.Sprintf("path: %s", m.selPath),
			fmt.Sprintf("counts: nodes=%d ways=%d relations=%d", nodes, ways, rels),
			fmt.Sprintf("selected: %d", m.ds.Selection().Selection().Len()),
			"",
			fmt.Sprintf("%s %s", p.Type(), p),
		)
		box := p.BBox()
		lines = append(lines, "bbox: "+box.String())
		if box.IsValid() {
			lines = append(lines, fmt.Sprintf("tile: %d (level %d)", box.Index(m.opts.MaxLevel), m.opts.MaxLevel))
		}
		switch v := p.(type) {
		case *graph.Node:
			if ll, ok := v.Coor(); ok {
				lines = append(lines, "coor: "+ll.String())
			}
		case *graph.Way:
			lines = append(lines, fmt.Sprintf("nodes: %d  closed: %v", v.NodesCount(), v.IsClosed()))
		case *graph.Relation:
			lines = append(lines, fmt.Sprintf("members: %d", v.MembersCount()))
		}
		lines = append(lines, fmt.Sprintf("referrers: %d", len(p.Referrers())))
		for k, v := range p.Tags().All() {
			lines = append(lines, k+"="+v)
		}
	})
	return strings.Join(lines, "\n")
}
