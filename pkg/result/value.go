// Package result turns columnar query results into grids of display strings.
//
// A Table exposes a schema whose column kinds are resolved once, plus
// positional cell access. Materialize walks at most rowLimit rows of it and
// renders every cell with FormatCell. When rows are withheld the grid ends
// with a sentinel row of Ellipsis cells that a UI can use as a "show more"
// affordance; NextRowLimit and Pager implement the growth policy for that.
package result

import (
	"math"
	"math/big"
	"strconv"

	"github.com/leapstack-labs/sqlpad/pkg/decimal"
)

// Kind tags the variant held by a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDecimal
	KindText
	KindOther
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBool:    "boolean",
	KindInt:     "integer",
	KindFloat:   "float",
	KindDecimal: "decimal",
	KindText:    "text",
	KindOther:   "other",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a single result cell. Only the fields belonging to Kind are set.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   *big.Int
	Float float64
	// Words holds a decimal's 128-bit integer, least significant word first.
	Words []uint32
	Scale uint8
	// Str is the text of KindText, the raw form of KindOther, and the
	// generic fallback form of a malformed KindDecimal.
	Str string
}

// Null is the absent value.
var Null = Value{Kind: KindNull}

// BoolValue returns a boolean cell.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IntValue returns an integer cell.
func IntValue(v int64) Value { return Value{Kind: KindInt, Int: big.NewInt(v)} }

// UintValue returns an integer cell for an unsigned source.
func UintValue(v uint64) Value { return Value{Kind: KindInt, Int: new(big.Int).SetUint64(v)} }

// BigIntValue returns an integer cell. A nil v is Null.
func BigIntValue(v *big.Int) Value {
	if v == nil {
		return Null
	}
	return Value{Kind: KindInt, Int: v}
}

// FloatValue returns a floating point cell.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// DecimalValue returns a decimal cell from its limbs.
func DecimalValue(l decimal.Limbs, scale uint8) Value {
	return Value{Kind: KindDecimal, Words: l[:], Scale: scale}
}

// TextValue returns a string cell.
func TextValue(s string) Value { return Value{Kind: KindText, Str: s} }

// OtherValue returns a cell of an unsupported type in its raw string form.
func OtherValue(raw string) Value { return Value{Kind: KindOther, Str: raw} }

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool {
	return v.Kind == KindNull || (v.Kind == KindInt && v.Int == nil)
}

// IsZero reports whether v is a numeric zero of any numeric kind.
func (v Value) IsZero() bool {
	switch v.Kind {
	case KindInt:
		return v.Int != nil && v.Int.Sign() == 0
	case KindFloat:
		return v.Float == 0
	case KindDecimal:
		l, ok := decimal.LimbsFromSlice(v.Words)
		return ok && l.IsZero()
	}
	return false
}

// String returns the generic string form of the value.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		if v.Int == nil {
			return ""
		}
		return v.Int.String()
	case KindFloat:
		return formatFloat(v.Float)
	case KindDecimal:
		if s, ok := decimal.DecodeWords(v.Words, v.Scale); ok {
			return s
		}
		return v.Str
	default:
		return v.Str
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
