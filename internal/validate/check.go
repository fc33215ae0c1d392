// Package validate scans a primitive graph for broken invariants: missing
// back-links, incomplete or coordinate-less primitives, spatial index drift,
// dangling references and degenerate ways.
package validate

import (
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"go.uber.org/zap"

	"geomap/internal/graph"
	"geomap/internal/metrics"
)

// DefaultMaxReports is the number of violations formatted before the rest
// are only counted.
const DefaultMaxReports = 100

// Store is what a scan needs from a data set. *graph.DataSet satisfies it.
type Store interface {
	RLock()
	RUnlock()
	Nodes() []*graph.Node
	Ways() []*graph.Way
	Relations() []*graph.Relation
	Primitive(id graph.PrimitiveID) (graph.Primitive, bool)
	ContainsNode(n *graph.Node) bool
	ContainsWay(w *graph.Way) bool
}

type options struct {
	max     int
	log     *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a scan.
type Option func(*options)

// WithMaxReports sets the number of formatted violations. Values below one
// are ignored.
func WithMaxReports(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.max = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics records scan results in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Run scans s under its read lock. Every check runs; a panic ends the scan
// and is recorded in Report.Fault.
func Run(s Store, opts ...Option) *Report {
	o := options{max: DefaultMaxReports, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	r := newReport(o.max)
	start := time.Now()

	s.RLock()
	scan(s, r, o.log)
	s.RUnlock()

	o.log.Info("consistency scan finished",
		zap.Int("violations", r.Total()),
		zap.Int("errors", r.Errors()),
		zap.Bool("faulted", r.Fault != ""),
		zap.Duration("took", time.Since(start)))

	if o.metrics != nil {
		counts := make(map[string]int, len(r.counts))
		for k, n := range r.counts {
			counts[string(k)] = n
		}
		o.metrics.RecordScan(counts)
	}
	return r
}

func scan(s Store, r *Report, log *zap.Logger) {
	defer func() {
		if v := recover(); v != nil {
			r.Fault = fmt.Sprintf("%v\n%s", v, debug.Stack())
			log.Error("consistency scan aborted", zap.Any("panic", v))
		}
	}()
	c := checker{s: s, r: r}
	c.referrers()
	c.completeness()
	c.coordinates()
	c.searchable()
	c.references()
	c.degenerate()
}

type checker struct {
	s Store
	r *Report
}

func (c checker) referrers() {
	for _, w := range c.s.Ways() {
		if w.IsDeleted() {
			continue
		}
		seen := make(map[*graph.Node]bool, w.NodesCount())
		for _, n := range w.Nodes() {
			if seen[n] {
				continue
			}
			seen[n] = true
			if c.owns(n) && !slices.Contains(n.Referrers(), graph.Primitive(w)) {
				c.r.add(WayNotInReferrers, w, n, "%s not in referrers of %s", w, n)
			}
		}
	}
	for _, rel := range c.s.Relations() {
		if rel.IsDeleted() {
			continue
		}
		for _, m := range rel.MemberPrimitives() {
			if c.owns(m) && !slices.Contains(m.Referrers(), graph.Primitive(rel)) {
				c.r.add(RelationNotInReferrers, rel, m, "%s not in referrers of %s", rel, m)
			}
		}
	}
}

// owns reports whether p resolves to itself in the scanned store. Back-links
// are only kept for such children; the others are reported by references.
func (c checker) owns(p graph.Primitive) bool {
	if p.DataSet() == nil {
		return false
	}
	got, ok := c.s.Primitive(p.PrimitiveID())
	return ok && got == p
}

func (c checker) completeness() {
	for _, w := range c.s.Ways() {
		if !w.IsUsable() {
			continue
		}
		for _, n := range w.Nodes() {
			if n.IsIncomplete() {
				c.r.add(UsableHasIncomplete, w, n, "%s contains incomplete %s", w, n)
				break
			}
		}
	}
}

func (c checker) coordinates() {
	for _, n := range c.s.Nodes() {
		if n.IsIncomplete() || !n.IsVisible() {
			continue
		}
		if _, ok := n.Coor(); !ok {
			c.r.add(CompleteWithoutCoordinate, n, nil, "complete visible %s has no coordinates", n)
		}
	}
}

func (c checker) searchable() {
	for _, n := range c.s.Nodes() {
		ll, ok := n.Coor()
		if !ok || !n.IsDrawable() {
			continue
		}
		if !c.s.ContainsNode(n) {
			c.r.add(SearchNodes, n, nil, "%s not found by search at %s", n, ll)
		}
	}
	for _, w := range c.s.Ways() {
		if w.IsIncomplete() || w.IsDeleted() || w.NodesCount() < 2 {
			continue
		}
		box := w.BBox()
		if !box.IsValid() {
			continue
		}
		if !c.s.ContainsWay(w) {
			c.r.add(SearchWays, w, nil, "%s not found by search in %s", w, box)
		}
	}
}

func (c checker) references() {
	for _, w := range c.s.Ways() {
		seen := make(map[*graph.Node]bool, w.NodesCount())
		for _, n := range w.Nodes() {
			if !seen[n] {
				seen[n] = true
				c.reference(w, n)
			}
		}
	}
	for _, rel := range c.s.Relations() {
		for _, m := range rel.MemberPrimitives() {
			c.reference(rel, m)
		}
	}
}

func (c checker) reference(parent, child graph.Primitive) {
	if child.DataSet() == nil {
		c.r.add(NotInDataSet, parent, child, "%s refers to %s which is in no data set", parent, child)
	} else if got, ok := c.s.Primitive(child.PrimitiveID()); !ok || got != child {
		c.r.add(ReferencedButNotInData, parent, child, "%s refers to %s which does not resolve to itself", parent, child)
	}
	if child.IsDeleted() && !parent.IsDeleted() {
		c.r.add(DeletedReferenced, parent, child, "%s refers to deleted %s", parent, child)
	}
}

func (c checker) degenerate() {
	for _, w := range c.s.Ways() {
		if !w.IsUsable() {
			continue
		}
		switch w.NodesCount() {
		case 0:
			c.r.add(ZeroNodes, w, nil, "%s has no nodes", w)
		case 1:
			c.r.add(OneNode, w, nil, "%s has only one node", w)
		}
	}
}
