package result

import "github.com/leapstack-labs/sqlpad/pkg/decimal"

// Ellipsis fills every cell of the sentinel row.
const Ellipsis = "⋮"

// Grid is a materialized page of a result.
type Grid struct {
	Columns []string
	// Rows holds the data rows followed, when Truncated, by one sentinel
	// row of Ellipsis cells.
	Rows      [][]string
	Truncated bool
}

// DataRows returns Rows without the sentinel row.
func (g Grid) DataRows() [][]string {
	if g.Truncated && len(g.Rows) > 0 {
		return g.Rows[:len(g.Rows)-1]
	}
	return g.Rows
}

// IsSentinel reports whether row i is the truncation marker.
func (g Grid) IsSentinel(i int) bool {
	return g.Truncated && i == len(g.Rows)-1
}

// CellFormatter renders one cell.
type CellFormatter func(col Column, v Value) string

// Materialize renders the first rowLimit rows of t. Negative limits are
// treated as zero.
func Materialize(t Table, rowLimit int) Grid {
	return MaterializeWith(t, rowLimit, FormatCell)
}

// MaterializeWith is Materialize with a custom cell formatter.
func MaterializeWith(t Table, rowLimit int, format CellFormatter) Grid {
	schema := t.Schema()
	n := t.NumRows()
	if rowLimit < 0 {
		rowLimit = 0
	}

	shown := min(rowLimit, n)
	grid := Grid{
		Columns:   schema.Names(),
		Rows:      make([][]string, 0, shown+1),
		Truncated: n > rowLimit,
	}

	for r := 0; r < shown; r++ {
		row := make([]string, len(schema))
		for c, col := range schema {
			row[c] = format(col, t.Cell(r, c))
		}
		grid.Rows = append(grid.Rows, row)
	}

	if grid.Truncated {
		sentinel := make([]string, len(schema))
		for c := range sentinel {
			sentinel[c] = Ellipsis
		}
		grid.Rows = append(grid.Rows, sentinel)
	}

	return grid
}

// FormatCell renders a single cell for display.
//
// Zero and false are matched before the empty check so they are never
// blanked. Decimals go through decimal.Decode using the value's scale, or the
// column scale when the value carries none.
func FormatCell(col Column, v Value) string {
	switch {
	case v.IsNull():
		return ""
	case v.Kind == KindBool && !v.Bool:
		return "false"
	case v.IsZero():
		return "0"
	}

	if v.Kind == KindDecimal {
		if s, ok := decimal.DecodeWords(v.Words, cellScale(col, v)); ok {
			return s
		}
		return v.Str
	}
	return v.String()
}

// FormatCellExact is FormatCell except that decimals keep their fractional
// digits.
func FormatCellExact(col Column, v Value) string {
	if v.Kind != KindDecimal || v.IsNull() {
		return FormatCell(col, v)
	}
	l, ok := decimal.LimbsFromSlice(v.Words)
	if !ok {
		return v.Str
	}
	return decimal.Format(l, cellScale(col, v))
}

func cellScale(col Column, v Value) uint8 {
	if v.Scale == 0 {
		return col.Scale
	}
	return v.Scale
}
