package validate

import (
	"fmt"
	"strings"

	"geomap/internal/graph"
)

// Kind names a class of violation.
type Kind string

const (
	WayNotInReferrers         Kind = "WAY NOT IN REFERRERS"
	RelationNotInReferrers    Kind = "RELATION NOT IN REFERRERS"
	UsableHasIncomplete       Kind = "USABLE HAS INCOMPLETE"
	CompleteWithoutCoordinate Kind = "COMPLETE WITHOUT COORDINATES"
	SearchNodes               Kind = "SEARCH NODES"
	SearchWays                Kind = "SEARCH WAYS"
	NotInDataSet              Kind = "NOT IN DATASET"
	ReferencedButNotInData    Kind = "REFERENCED BUT NOT IN DATA"
	DeletedReferenced         Kind = "DELETED REFERENCED"
	ZeroNodes                 Kind = "WARN - ZERO NODES"
	OneNode                   Kind = "WARN - ONE NODE"
)

// Kinds lists every kind in check order.
var Kinds = []Kind{
	WayNotInReferrers, RelationNotInReferrers, UsableHasIncomplete,
	CompleteWithoutCoordinate, SearchNodes, SearchWays, NotInDataSet,
	ReferencedButNotInData, DeletedReferenced, ZeroNodes, OneNode,
}

// IsWarning reports whether the kind is advisory.
func (k Kind) IsWarning() bool { return strings.HasPrefix(string(k), "WARN") }

// Violation is one formatted finding. Subject is the primitive the message
// is about; Other is the related primitive, when there is one.
type Violation struct {
	Kind    Kind
	Message string
	Subject graph.Primitive
	Other   graph.Primitive
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s", v.Kind, v.Message)
}

// Report accumulates violations up to a cap. Violations past the cap are
// counted but not formatted.
type Report struct {
	Violations []Violation
	Overflow   int
	// Fault holds the panic value and stack of an aborted scan.
	Fault string

	max    int
	counts map[Kind]int
}

func newReport(max int) *Report {
	return &Report{max: max, counts: make(map[Kind]int)}
}

func (r *Report) add(kind Kind, subject, other graph.Primitive, format string, args ...any) {
	r.counts[kind]++
	if len(r.Violations) >= r.max {
		r.Overflow++
		return
	}
	r.Violations = append(r.Violations, Violation{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Subject: subject,
		Other:   other,
	})
}

// Total is the number of violations found, formatted or not.
func (r *Report) Total() int { return len(r.Violations) + r.Overflow }

// Count returns how many violations of kind were found.
func (r *Report) Count(kind Kind) int { return r.counts[kind] }

// Counts returns the per-kind totals.
func (r *Report) Counts() map[Kind]int {
	out := make(map[Kind]int, len(r.counts))
	for k, n := range r.counts {
		out[k] = n
	}
	return out
}

// Clean reports whether the scan completed without findings.
func (r *Report) Clean() bool { return r.Total() == 0 && r.Fault == "" }

// Errors returns the number of non-warning violations.
func (r *Report) Errors() int {
	n := 0
	for k, c := range r.counts {
		if !k.IsWarning() {
			n += c
		}
	}
	return n
}

// String renders one "[KIND] message" line per violation.
func (r *Report) String() string {
	var b strings.Builder
	for _, v := range r.Violations {
		b.WriteString(v.String())
		b.WriteByte('\n')
	}
	if r.Overflow > 0 {
		fmt.Fprintf(&b, "%d more...\n", r.Overflow)
	}
	if r.Fault != "" {
		b.WriteString("[FAULT] ")
		b.WriteString(r.Fault)
		if !strings.HasSuffix(r.Fault, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
