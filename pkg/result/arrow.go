package result

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/leapstack-labs/sqlpad/pkg/decimal"
)

// ArrowTable adapts an Arrow record to Table. Column kinds and the accessor
// for each column are chosen once in FromRecord.
type ArrowTable struct {
	rec     arrow.Record
	schema  Schema
	columns []func(row int) Value
}

// FromRecord wraps rec. The table retains the record until Release.
func FromRecord(rec arrow.Record) *ArrowTable {
	rec.Retain()

	n := int(rec.NumCols())
	t := &ArrowTable{
		rec:     rec,
		schema:  make(Schema, n),
		columns: make([]func(int) Value, n),
	}
	for i := 0; i < n; i++ {
		field := rec.Schema().Field(i)
		col, get := arrowAccessor(field, rec.Column(i))
		t.schema[i] = col
		t.columns[i] = get
	}
	return t
}

func arrowAccessor(field arrow.Field, arr arrow.Array) (Column, func(int) Value) {
	col := Column{Name: field.Name, Kind: KindOther}

	var get func(int) Value
	switch a := arr.(type) {
	case *array.Null:
		col.Kind = KindNull
		get = func(int) Value { return Null }
	case *array.Boolean:
		col.Kind = KindBool
		get = func(r int) Value { return BoolValue(a.Value(r)) }
	case *array.Int8:
		col.Kind = KindInt
		get = func(r int) Value { return IntValue(int64(a.Value(r))) }
	case *array.Int16:
		col.Kind = KindInt
		get = func(r int) Value { return IntValue(int64(a.Value(r))) }
	case *array.Int32:
		col.Kind = KindInt
		get = func(r int) Value { return IntValue(int64(a.Value(r))) }
	case *array.Int64:
		col.Kind = KindInt
		get = func(r int) Value { return IntValue(a.Value(r)) }
	case *array.Uint8:
		col.Kind = KindInt
		get = func(r int) Value { return UintValue(uint64(a.Value(r))) }
	case *array.Uint16:
		col.Kind = KindInt
		get = func(r int) Value { return UintValue(uint64(a.Value(r))) }
	case *array.Uint32:
		col.Kind = KindInt
		get = func(r int) Value { return UintValue(uint64(a.Value(r))) }
	case *array.Uint64:
		col.Kind = KindInt
		get = func(r int) Value { return UintValue(a.Value(r)) }
	case *array.Float32:
		col.Kind = KindFloat
		get = func(r int) Value { return FloatValue(float64(a.Value(r))) }
	case *array.Float64:
		col.Kind = KindFloat
		get = func(r int) Value { return FloatValue(a.Value(r)) }
	case *array.Decimal128:
		col.Kind = KindDecimal
		if dt, ok := field.Type.(*arrow.Decimal128Type); ok {
			col.Scale = clampScale(dt.Scale)
		}
		scale := col.Scale
		get = func(r int) Value {
			n := a.Value(r)
			return DecimalValue(decimal.LimbsFromHalves(n.HighBits(), n.LowBits()), scale)
		}
	case *array.String:
		col.Kind = KindText
		get = func(r int) Value { return TextValue(a.Value(r)) }
	case *array.LargeString:
		col.Kind = KindText
		get = func(r int) Value { return TextValue(a.Value(r)) }
	default:
		get = func(r int) Value { return OtherValue(arr.ValueStr(r)) }
	}

	return col, func(r int) Value {
		if arr.IsNull(r) {
			return Null
		}
		return get(r)
	}
}

func clampScale(s int32) uint8 {
	switch {
	case s < 0:
		return 0
	case s > 255:
		return 255
	}
	return uint8(s)
}

// Schema returns the resolved schema.
func (t *ArrowTable) Schema() Schema { return t.schema }

// NumRows returns the record length.
func (t *ArrowTable) NumRows() int { return int(t.rec.NumRows()) }

// Cell returns a single value.
func (t *ArrowTable) Cell(row, col int) Value {
	if row < 0 || row >= t.NumRows() || col < 0 || col >= len(t.columns) {
		return Null
	}
	return t.columns[col](row)
}

// Record returns the underlying record.
func (t *ArrowTable) Record() arrow.Record { return t.rec }

// Release drops the table's reference to the record.
func (t *ArrowTable) Release() { t.rec.Release() }

var _ Table = (*ArrowTable)(nil)
