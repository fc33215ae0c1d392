package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"geomap/internal/graph"
	"geomap/internal/load"
	"geomap/internal/metrics"
)

type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

// fileChangedMsg is sent when the watched file was written.
type fileChangedMsg struct{ path string }

func waitForChange(w *load.Watcher) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-w.Changes()
		if !ok {
			return nil
		}
		return fileChangedMsg{path: p}
	}
}

func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.status = "read dir error: " + err.Error()
		return
	}
	var items []list.Item
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !load.Supported(name) {
			continue
		}
		f, _ := load.Detect(name)
		items = append(items, fileItem{title: name, desc: string(f), path: filepath.Join(m.cwd, name)})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).Title() < items[j].(fileItem).Title() })
	m.items = items
	m.l.SetItems(items)
	if len(items) == 0 {
		m.status = "no supported files in current directory"
	}
}

// importFile reads p into a fresh data set.
func (m *Model) importFile(p string) (*graph.DataSet, load.Stats, error) {
	ds := graph.New(
		graph.WithName(filepath.Base(p)),
		graph.WithLogger(m.opts.Logger),
		graph.WithMaxLevel(m.opts.MaxLevel),
	)
	st, err := load.File(context.Background(), ds, p,
		load.WithLogger(m.opts.Logger),
		load.WithMetrics(m.opts.Metrics))
	if err != nil {
		m.log.Warn("load failed", zap.String("path", p), zap.Error(err))
		return nil, st, err
	}
	return ds, st, nil
}

// open replaces the data set with the contents of p, resets the view and
// restarts the file watch.
func (m *Model) open(p string) tea.Cmd {
	ds, st, err := m.importFile(p)
	if err != nil {
		m.status = "load error: " + err.Error()
		return nil
	}
	m.selPath = p
	m.setDataSet(ds)
	m.zoom = 1.0
	m.offsetX, m.offsetY = 0, 0
	m.popup = ""
	m.status = fmt.Sprintf("loaded: %s  %s", filepath.Base(p), st)
	if m.showAttrs {
		m.refreshAttrs()
	}
	return m.startWatch(p)
}

// reload re-reads the current file keeping zoom, pan and the selected ids.
func (m *Model) reload() {
	if m.selPath == "" {
		m.status = "nothing to reload"
		return
	}
	ds, st, err := m.importFile(m.selPath)
	if err != nil {
		m.status = "reload error: " + err.Error()
		return
	}
	var keep []graph.Primitive
	if m.ds != nil {
		ds.Read(func() {
			for p := range m.ds.Selection().Selection().All() {
				if np, ok := ds.Primitive(p.PrimitiveID()); ok {
					keep = append(keep, np)
				}
			}
		})
	}
	m.setDataSet(ds)
	ds.Selection().Set(keep...)
	m.status = fmt.Sprintf("reloaded: %s  %s", filepath.Base(m.selPath), st)
	if m.showAttrs {
		m.refreshAttrs()
	}
}

func (m *Model) setDataSet(ds *graph.DataSet) {
	if m.unlisten != nil {
		m.unlisten()
	}
	m.ds = ds
	m.unlisten = ds.Selection().Listen(metrics.SelectionCounter[graph.Primitive](m.opts.Metrics))
	m.hoverPrim = nil
	m.refreshExtent()
}

// refreshExtent recomputes the projected extent after the data changed.
func (m *Model) refreshExtent() {
	var n, w, r int
	m.ds.Read(func() {
		m.extent = padExtent(m.ds.BBox())
		n, w, r = m.ds.Counts()
	})
	m.opts.Metrics.SetPrimitives(n, w, r)
}

func (m *Model) startWatch(p string) tea.Cmd {
	if !m.opts.Watch {
		return nil
	}
	m.stopWatch()
	w, err := load.Watch(context.Background(), []string{p}, m.opts.Debounce, m.opts.Logger)
	if err != nil {
		m.status = "watch error: " + err.Error()
		return nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	m.watcher, m.watchPath = w, abs
	return waitForChange(w)
}

func (m *Model) stopWatch() {
	if m.watcher == nil {
		return
	}
	if err := m.watcher.Close(); err != nil {
		m.log.Debug("close watcher", zap.Error(err))
	}
	m.watcher, m.watchPath = nil, ""
}
