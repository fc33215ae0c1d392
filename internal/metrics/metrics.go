// Package metrics counts what the tools do: primitives loaded, consistency
// findings, selection changes and import timings.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"geomap/internal/selection"
)

// Metrics owns a private registry so several instances can coexist in one
// process. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	Primitives       *prometheus.GaugeVec
	Violations       *prometheus.CounterVec
	Scans            prometheus.Counter
	SelectionChanges *prometheus.CounterVec
	LoadDuration     *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Primitives: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "geomap_primitives",
			Help: "Primitives in the loaded data set by type",
		}, []string{"type"}),
		Violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geomap_consistency_violations_total",
			Help: "Consistency violations found by kind",
		}, []string{"kind"}),
		Scans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geomap_consistency_scans_total",
			Help: "Completed consistency scans",
		}),
		SelectionChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geomap_selection_changes_total",
			Help: "Selection changes by operation",
		}, []string{"op"}),
		LoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geomap_load_duration_seconds",
			Help:    "File import duration by format",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		}, []string{"format"}),
	}
	m.Registry.MustRegister(m.Primitives, m.Violations, m.Scans, m.SelectionChanges, m.LoadDuration)
	return m
}

// SetPrimitives records the current primitive counts.
func (m *Metrics) SetPrimitives(nodes, ways, relations int) {
	if m == nil {
		return
	}
	m.Primitives.WithLabelValues("node").Set(float64(nodes))
	m.Primitives.WithLabelValues("way").Set(float64(ways))
	m.Primitives.WithLabelValues("relation").Set(float64(relations))
}

// RecordScan counts one finished scan and its findings per kind.
func (m *Metrics) RecordScan(counts map[string]int) {
	if m == nil {
		return
	}
	m.Scans.Inc()
	for kind, n := range counts {
		m.Violations.WithLabelValues(kind).Add(float64(n))
	}
}

// ObserveLoad records how long importing one file took.
func (m *Metrics) ObserveLoad(format string, d time.Duration) {
	if m == nil {
		return
	}
	m.LoadDuration.WithLabelValues(format).Observe(d.Seconds())
}

// SelectionCounter returns a listener counting changes of a selection model.
func SelectionCounter[T comparable](m *Metrics) selection.Listener[T] {
	return func(ev *selection.Event[T]) {
		if m == nil {
			return
		}
		m.SelectionChanges.WithLabelValues(ev.Op().String()).Inc()
	}
}

// WriteTextfile writes the registry in the text exposition format, for the
// node exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
