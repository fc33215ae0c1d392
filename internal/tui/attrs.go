package tui

import (
	"fmt"

	table "github.com/charmbracelet/bubbles/table"

	"geomap/internal/graph"
)

// maxAttrRows caps the table when it lists every tagged primitive.
const maxAttrRows = 1000

// refreshAttrs rebuilds the tag table from the selection, or from all tagged
// primitives when nothing is selected.
func (m *Model) refreshAttrs() {
	cols, rows := m.buildAttributes()
	if len(rows) == 0 {
		// SetColumns re-renders; leave the table alone when there is nothing to show
		m.showAttrs = false
		m.status = "no tags to show"
		return
	}
	tcols := make([]table.Column, 0, len(cols)+1)
	tcols = append(tcols, table.Column{Title: "id", Width: 10})
	maxColW := 24
	for _, c := range cols {
		tcols = append(tcols, table.Column{Title: c, Width: min(len(c)+2, maxColW)})
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(tcols)
	m.tbl.SetRows(rows)
}

// buildAttributes unions the tag keys of the listed primitives in first-seen
// order and returns one row per primitive, id first.
func (m *Model) buildAttributes() ([]string, []table.Row) {
	if m.ds == nil {
		return nil, nil
	}
	prims := m.ds.Selection().Selection().Slice()
	source := "selection"
	var cols []string
	var rows []table.Row
	m.ds.Read(func() {
		if len(prims) == 0 {
			source = "data set"
			for _, p := range m.ds.Primitives() {
				if !p.Tags().IsEmpty() && len(prims) < maxAttrRows {
					prims = append(prims, p)
				}
			}
		}
		seen := map[string]bool{}
		for _, p := range prims {
			for _, k := range p.Tags().Keys() {
				if !seen[k] {
					seen[k] = true
					cols = append(cols, k)
				}
			}
		}
		rows = make([]table.Row, 0, len(prims))
		for _, p := range prims {
			rows = append(rows, attrRow(p, cols))
		}
	})
	if len(rows) > 0 {
		m.status = fmt.Sprintf("tags: %d rows from %s", len(rows), source)
	}
	return cols, rows
}

func attrRow(p graph.Primitive, cols []string) table.Row {
	row := make(table.Row, 0, len(cols)+1)
	row = append(row, p.PrimitiveID().String())
	for _, k := range cols {
		row = append(row, p.Tags().Value(k))
	}
	return row
}
