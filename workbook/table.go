// Package workbook reads uploaded spreadsheets into header-keyed tables and
// writes delimited-text exports.
package workbook

import (
	"strings"
)

// Table is a spreadsheet read as a header row followed by data rows. Rows may
// be shorter than Headers; missing cells read as "".
type Table struct {
	Headers []string
	Rows    [][]string
	index   map[string]int
}

func NewTable(headers []string, rows [][]string) *Table {
	t := &Table{
		Headers: headers,
		Rows:    rows,
		index:   make(map[string]int, len(headers)),
	}

	for i, h := range headers {
		h = strings.TrimSpace(h)
		if _, exists := t.index[h]; !exists {
			t.index[h] = i
		}
	}

	return t
}

// Has reports whether the table has a column named col.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Value returns the cell at row for column col.
func (t *Table) Value(row int, col string) string {
	i, ok := t.index[col]
	if !ok || row < 0 || row >= len(t.Rows) {
		return ""
	}

	cells := t.Rows[row]
	if i >= len(cells) {
		return ""
	}

	return cells[i]
}

func (t *Table) Len() int {
	return len(t.Rows)
}
