package result

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlpad/pkg/decimal"
)

func seriesTable(t *testing.T, n int) *MemTable {
	t.Helper()
	schema := Schema{
		{Name: "i", Kind: KindInt},
		{Name: "label", Kind: KindText},
	}
	rows := make([][]Value, n)
	for i := range rows {
		rows[i] = []Value{IntValue(int64(i)), TextValue("row")}
	}
	tbl, err := NewMemTable(schema, rows)
	require.NoError(t, err)
	return tbl
}

func TestMaterialize_Window(t *testing.T) {
	tests := []struct {
		name          string
		rows          int
		limit         int
		wantData      int
		wantTruncated bool
	}{
		{"limit above rows", 5, 100, 5, false},
		{"limit equals rows", 100, 100, 100, false},
		{"limit below rows", 150, 100, 100, true},
		{"zero limit", 3, 0, 0, true},
		{"negative limit", 3, -1, 0, true},
		{"empty table", 0, 100, 0, false},
		{"empty table zero limit", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Materialize(seriesTable(t, tt.rows), tt.limit)

			assert.Equal(t, []string{"i", "label"}, g.Columns)
			assert.Equal(t, tt.wantTruncated, g.Truncated)
			assert.Len(t, g.DataRows(), tt.wantData)

			if tt.wantTruncated {
				require.Len(t, g.Rows, tt.wantData+1)
				assert.Equal(t, []string{Ellipsis, Ellipsis}, g.Rows[len(g.Rows)-1])
				assert.True(t, g.IsSentinel(len(g.Rows)-1))
			} else {
				assert.Len(t, g.Rows, tt.wantData)
				assert.False(t, g.IsSentinel(len(g.Rows)-1))
			}
		})
	}
}

func TestMaterialize_RowOrder(t *testing.T) {
	g := Materialize(seriesTable(t, 10), 3)
	assert.Equal(t, [][]string{
		{"0", "row"},
		{"1", "row"},
		{"2", "row"},
		{Ellipsis, Ellipsis},
	}, g.Rows)
}

func TestFormatCell(t *testing.T) {
	dec := Column{Name: "d", Kind: KindDecimal, Scale: 2}

	tests := []struct {
		name string
		col  Column
		v    Value
		want string
	}{
		{"null", Column{Kind: KindInt}, Null, ""},
		{"nil big int", Column{Kind: KindInt}, BigIntValue(nil), ""},
		{"false", Column{Kind: KindBool}, BoolValue(false), "false"},
		{"true", Column{Kind: KindBool}, BoolValue(true), "true"},
		{"int zero", Column{Kind: KindInt}, IntValue(0), "0"},
		{"uint zero", Column{Kind: KindInt}, UintValue(0), "0"},
		{"float zero", Column{Kind: KindFloat}, FloatValue(0), "0"},
		{"negative float zero", Column{Kind: KindFloat}, FloatValue(math.Copysign(0, -1)), "0"},
		{"decimal zero", dec, DecimalValue(decimal.Limbs{}, 2), "0"},
		{"int", Column{Kind: KindInt}, IntValue(-42), "-42"},
		{"uint max", Column{Kind: KindInt}, UintValue(math.MaxUint64), "18446744073709551615"},
		{"float", Column{Kind: KindFloat}, FloatValue(1.5), "1.5"},
		{"nan", Column{Kind: KindFloat}, FloatValue(math.NaN()), "NaN"},
		{"text", Column{Kind: KindText}, TextValue("duck"), "duck"},
		{"empty text", Column{Kind: KindText}, TextValue(""), ""},
		{"decimal truncates", dec, DecimalValue(decimal.LimbsFromInt64(-12345), 2), "-123"},
		{"decimal column scale", dec, Value{Kind: KindDecimal, Words: []uint32{12345, 0, 0, 0}}, "123"},
		{"malformed decimal", dec, Value{Kind: KindDecimal, Words: []uint32{1, 2}, Str: "raw"}, "raw"},
		{"other", Column{Kind: KindOther}, OtherValue("[1, 2]"), "[1, 2]"},
		{"huge int", Column{Kind: KindInt}, BigIntValue(new(big.Int).Lsh(big.NewInt(1), 100)), "1267650600228229401496703205376"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCell(tt.col, tt.v))
		})
	}
}

func TestNewMemTable_RowWidth(t *testing.T) {
	_, err := NewMemTable(Schema{{Name: "a"}}, [][]Value{{Null, Null}})
	assert.Error(t, err)
}

func TestSchema_Index(t *testing.T) {
	s := Schema{{Name: "a"}, {Name: "b"}, {Name: "a"}}
	assert.Equal(t, 0, s.Index("a"))
	assert.Equal(t, 1, s.Index("b"))
	assert.Equal(t, -1, s.Index("c"))
}

func TestMemTable_CellOutOfRange(t *testing.T) {
	tbl := seriesTable(t, 1)
	assert.Equal(t, Null, tbl.Cell(1, 0))
	assert.Equal(t, Null, tbl.Cell(0, 5))
	assert.Equal(t, Null, tbl.Cell(-1, 0))
}

func TestFormatCellExact(t *testing.T) {
	col := Column{Name: "amount", Kind: KindDecimal, Scale: 2}

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"fraction kept", DecimalValue(decimal.LimbsFromInt64(-12345), 2), "-123.45"},
		{"leading zeros", DecimalValue(decimal.LimbsFromInt64(5), 3), "0.005"},
		{"column scale", Value{Kind: KindDecimal, Words: []uint32{250, 0, 0, 0}}, "2.50"},
		{"zero keeps scale", DecimalValue(decimal.Limbs{}, 2), "0.00"},
		{"malformed words", Value{Kind: KindDecimal, Words: []uint32{1}, Str: "raw"}, "raw"},
		{"null", Value{}, ""},
		{"non-decimal unchanged", IntValue(0), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCellExact(col, tt.v))
		})
	}
}

func TestMaterializeWith(t *testing.T) {
	g := MaterializeWith(seriesTable(t, 3), 2, func(_ Column, v Value) string { return "<" + v.String() + ">" })

	assert.True(t, g.Truncated)
	assert.Equal(t, []string{"<0>", "<row>"}, g.Rows[0])
	assert.Equal(t, []string{Ellipsis, Ellipsis}, g.Rows[2])
}
