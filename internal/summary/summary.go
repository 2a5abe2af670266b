// Package summary merges period-keyed aggregate tables into one reporting table.
package summary

import (
	"fmt"
	"sort"

	"fno-returns/internal/errors"
	"fno-returns/internal/models"
)

// Table is a named period-keyed aggregate, one column group in the merged output.
type Table struct {
	Name    string
	Returns map[models.Period]models.PeriodReturn
}

// Row is one joined period. Cells line up with Merged.Columns; a nil cell
// means that table had no entry for the period.
type Row struct {
	Key   int                    `json:"key"`
	Label string                 `json:"label"`
	Cells []*models.PeriodReturn `json:"cells"`
}

// Cell returns the cell for column i and whether it is set.
func (r Row) Cell(i int) (models.PeriodReturn, bool) {
	if i < 0 || i >= len(r.Cells) || r.Cells[i] == nil {
		return models.PeriodReturn{}, false
	}
	return *r.Cells[i], true
}

// Merged is the outer join of several tables.
type Merged struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Merge full-outer-joins tables on their join key. Calendar and financial
// years join on the year number; months join on year and month. Each table
// must hold a single period kind. Rows come out in chronological order
// regardless of input order.
func Merge(tables ...Table) (Merged, error) {
	out := Merged{Columns: make([]string, len(tables))}

	var granularity string
	rows := make(map[int]*Row)
	for i, t := range tables {
		out.Columns[i] = t.Name
		var kind models.PeriodKind
		for p, pr := range t.Returns {
			if kind == "" {
				kind = p.Kind
			} else if p.Kind != kind {
				return Merged{}, errors.Wrapf(errors.ErrIncompatiblePeriods, "table %q mixes %s with %s", t.Name, p.Kind, kind)
			}
			g := granularityOf(p)
			if granularity == "" {
				granularity = g
			} else if g != granularity {
				return Merged{}, errors.Wrapf(errors.ErrIncompatiblePeriods, "table %q is %s-keyed, others are %s-keyed", t.Name, g, granularity)
			}

			key := p.Ordinal()
			row, ok := rows[key]
			if !ok {
				row = &Row{Key: key, Label: joinLabel(p), Cells: make([]*models.PeriodReturn, len(tables))}
				rows[key] = row
			}
			cell := pr
			row.Cells[i] = &cell
		}
	}

	out.Rows = make([]Row, 0, len(rows))
	for _, r := range rows {
		out.Rows = append(out.Rows, *r)
	}
	sort.Slice(out.Rows, func(i, j int) bool {
		return out.Rows[i].Key < out.Rows[j].Key
	})
	return out, nil
}

// Keys returns the row labels in order.
func (m Merged) Keys() []string {
	keys := make([]string, len(m.Rows))
	for i, r := range m.Rows {
		keys[i] = r.Label
	}
	return keys
}

func granularityOf(p models.Period) string {
	if p.Kind == models.PeriodCalendarMonth {
		return "month"
	}
	return "year"
}

func joinLabel(p models.Period) string {
	if p.Kind == models.PeriodCalendarMonth {
		return p.Label()
	}
	return fmt.Sprintf("%d", p.Year)
}
