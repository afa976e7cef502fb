package result

import "fmt"

// Column describes one result column. Scale is only meaningful for
// KindDecimal columns.
type Column struct {
	Name  string
	Kind  Kind
	Scale uint8
}

// Schema is the ordered list of result columns. Names need not be unique.
type Schema []Column

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the first column called name, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Table is a read-only columnar result.
type Table interface {
	Schema() Schema
	NumRows() int
	// Cell returns the value at row, col. Out of range positions are Null.
	Cell(row, col int) Value
}

// MemTable is a Table held as row slices.
type MemTable struct {
	schema Schema
	rows   [][]Value
}

// NewMemTable builds an in-memory table. Every row must have one value per
// column.
func NewMemTable(schema Schema, rows [][]Value) (*MemTable, error) {
	for i, r := range rows {
		if len(r) != len(schema) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(r), len(schema))
		}
	}
	return &MemTable{schema: schema, rows: rows}, nil
}

// Schema returns the table schema.
func (t *MemTable) Schema() Schema { return t.schema }

// NumRows returns the number of rows.
func (t *MemTable) NumRows() int { return len(t.rows) }

// Cell returns a single value.
func (t *MemTable) Cell(row, col int) Value {
	if row < 0 || row >= len(t.rows) || col < 0 || col >= len(t.schema) {
		return Null
	}
	return t.rows[row][col]
}

var _ Table = (*MemTable)(nil)
