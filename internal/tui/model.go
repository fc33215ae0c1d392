package tui

import (
	"os"
	"time"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"geomap/internal/geom"
	"geomap/internal/graph"
	"geomap/internal/load"
	"geomap/internal/metrics"
	"geomap/internal/spatial"
)

// Options carries the viewer settings taken from config and flags.
type Options struct {
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	MaxLevel   int
	MaxReports int
	Watch      bool
	Debounce   time.Duration
	Help       bool
}

type Model struct {
	opts Options
	log  *zap.Logger

	width  int
	height int

	showSidebar bool
	helpVisible bool

	zoom    float64
	offsetX int
	offsetY int

	status string

	// File explorer
	cwd     string
	l       list.Model
	items   []list.Item
	selPath string

	// Data
	ds       *graph.DataSet
	extent   geom.BBox
	unlisten func()

	watcher   *load.Watcher
	watchPath string

	// paste mode
	pasteMode bool
	ta        textarea.Model

	// layer visibility
	showNodes bool
	showWays  bool
	showAreas bool

	// inspect and check popup
	popup string

	// hover state
	hovering    bool
	hoverCellX  int
	hoverCellY  int
	hoverMicX   int
	hoverMicY   int
	hoverPrim   graph.Primitive
	hoverHasGeo bool
	hoverLon    float64
	hoverLat    float64

	// tag table
	showAttrs bool
	tbl       table.Model
}

func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxLevel == 0 {
		opts.MaxLevel = spatial.DefaultMaxLevel
	}
	m := Model{
		opts:        opts,
		log:         opts.Logger.Named("tui"),
		showSidebar: false,
		helpVisible: opts.Help,
		zoom:        1.0,
		status:      "geomap ready",
		showNodes:   true,
		showWays:    true,
		showAreas:   true,
	}
	m.cwd, _ = os.Getwd()
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Files"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	m.ta = textarea.New()
	m.ta.Placeholder = "Paste WKT here (POINT, LINESTRING, POLYGON, MULTI*, GEOMETRYCOLLECTION). Enter adds it to the data set; Esc cancels."
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(6)
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	m.refreshDir()
	return m
}

// NewWithPath loads a file at launch. Init starts watching it when enabled.
func NewWithPath(path string, opts Options) Model {
	m := New(opts)
	m.open(path)
	return m
}

func (m Model) Init() tea.Cmd {
	if m.watcher != nil {
		return waitForChange(m.watcher)
	}
	return nil
}

// DataSet returns the data set on screen, or nil before anything is loaded.
func (m Model) DataSet() *graph.DataSet { return m.ds }

// Close stops the file watcher, if any.
func (m Model) Close() error {
	if m.unlisten != nil {
		m.unlisten()
	}
	if m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}
