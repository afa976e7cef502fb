package engine

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"
)

// maxDecimalPrecision is the widest precision decimal128 can hold.
const maxDecimalPrecision = 38

var errOverflow = errors.New("value does not fit in 128 bits")

// column is the conversion plan for one result column.
type column struct {
	name     string
	typeName string
	dtype    arrow.DataType
}

// planColumns maps database column types onto Arrow types. Types without a
// lossless Arrow counterpart become strings.
func planColumns(cts []*sql.ColumnType) []column {
	cols := make([]column, len(cts))
	for i, ct := range cts {
		typeName := strings.ToUpper(strings.TrimSpace(ct.DatabaseTypeName()))
		cols[i] = column{
			name:     ct.Name(),
			typeName: typeName,
			dtype:    arrowType(ct, typeName),
		}
	}
	return cols
}

func arrowType(ct *sql.ColumnType, typeName string) arrow.DataType {
	base, _, _ := strings.Cut(typeName, "(")
	switch strings.TrimSpace(base) {
	case "BOOLEAN", "BOOL":
		return arrow.FixedWidthTypes.Boolean
	case "TINYINT", "SMALLINT", "INTEGER", "INT", "BIGINT", "INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL":
		return arrow.PrimitiveTypes.Int64
	case "UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT":
		return arrow.PrimitiveTypes.Uint64
	case "FLOAT", "REAL", "DOUBLE", "FLOAT4", "FLOAT8", "DOUBLE PRECISION":
		return arrow.PrimitiveTypes.Float64
	case "HUGEINT":
		return &arrow.Decimal128Type{Precision: maxDecimalPrecision, Scale: 0}
	case "UHUGEINT":
		// Values at or above 2^127 do not fit a signed decimal128.
		return arrow.BinaryTypes.String
	case "DECIMAL", "NUMERIC":
		prec, scale, ok := ct.DecimalSize()
		if !ok {
			prec, scale, ok = parseDecimalSize(typeName)
		}
		if ok && prec > 0 && prec <= maxDecimalPrecision && scale >= 0 && scale <= prec {
			return &arrow.Decimal128Type{Precision: int32(prec), Scale: int32(scale)} //nolint:gosec // bounded above
		}
		return arrow.BinaryTypes.String
	default:
		return arrow.BinaryTypes.String
	}
}

// parseDecimalSize reads precision and scale from a type name such as
// "DECIMAL(10,2)".
func parseDecimalSize(typeName string) (prec, scale int64, ok bool) {
	_, args, found := strings.Cut(typeName, "(")
	if !found {
		return 0, 0, false
	}
	args = strings.TrimSuffix(strings.TrimSpace(args), ")")
	p, s, _ := strings.Cut(args, ",")

	prec, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if s = strings.TrimSpace(s); s != "" {
		if scale, err = strconv.ParseInt(s, 10, 64); err != nil {
			return 0, 0, false
		}
	}
	return prec, scale, true
}

// buildRecord drains rows into a single Arrow record. Values that cannot
// be converted to their column type are stored as null and logged.
func buildRecord(rows *sql.Rows, alloc memory.Allocator, logger *slog.Logger) (arrow.Record, error) {
	cts, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}
	cols := planColumns(cts)

	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c.name, Type: c.dtype, Nullable: true}
	}

	b := array.NewRecordBuilder(alloc, arrow.NewSchema(fields, nil))
	defer b.Release()

	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			if err := appendValue(b.Field(i), cols[i], v); err != nil {
				logger.Debug("storing unconvertible value as null",
					slog.String("column", cols[i].name),
					slog.String("type", cols[i].typeName),
					slog.String("error", err.Error()))
				b.Field(i).AppendNull()
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return b.NewRecord(), nil
}

func appendValue(fb array.Builder, col column, v any) error {
	if v == nil {
		fb.AppendNull()
		return nil
	}

	switch b := fb.(type) {
	case *array.BooleanBuilder:
		x, err := toBool(v)
		if err != nil {
			return err
		}
		b.Append(x)
	case *array.Int64Builder:
		x, err := toInt64(v)
		if err != nil {
			return err
		}
		b.Append(x)
	case *array.Uint64Builder:
		x, err := toUint64(v)
		if err != nil {
			return err
		}
		b.Append(x)
	case *array.Float64Builder:
		x, err := toFloat64(v)
		if err != nil {
			return err
		}
		b.Append(x)
	case *array.Decimal128Builder:
		dt := col.dtype.(*arrow.Decimal128Type)
		x, err := toDecimal(v, dt.Precision, dt.Scale)
		if err != nil {
			return err
		}
		b.Append(x)
	case *array.StringBuilder:
		b.Append(toString(col.typeName, v))
	default:
		return fmt.Errorf("unsupported builder %T", fb)
	}
	return nil
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case string:
		return strconv.ParseBool(x)
	case []byte:
		return strconv.ParseBool(string(x))
	}
	return false, fmt.Errorf("cannot convert %T to bool", v)
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, errOverflow
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, fmt.Errorf("float %v is not an integer", x)
		}
		return int64(x), nil
	case string:
		return strconv.ParseInt(x, 10, 64)
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to int64", v)
}

func toUint64(v any) (uint64, error) {
	switch x := v.(type) {
	case uint64:
		return x, nil
	case uint32:
		return uint64(x), nil
	case uint16:
		return uint64(x), nil
	case uint8:
		return uint64(x), nil
	case string:
		return strconv.ParseUint(x, 10, 64)
	case []byte:
		return strconv.ParseUint(string(x), 10, 64)
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d for unsigned column", n)
	}
	return uint64(n), nil
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case duckdb.Decimal:
		return x.Float64(), nil
	case string:
		return strconv.ParseFloat(x, 64)
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %T to float64", v)
	}
	return float64(n), nil
}

// toDecimal converts v to an unscaled 128-bit integer at the given scale.
// Excess fractional digits are truncated.
func toDecimal(v any, prec, scale int32) (decimal128.Num, error) {
	var n *big.Int
	switch x := v.(type) {
	case duckdb.Decimal:
		if x.Value == nil {
			return decimal128.Num{}, errors.New("decimal without value")
		}
		n = rescale(new(big.Int).Set(x.Value), int32(x.Scale), scale)
	case *big.Int:
		n = rescale(new(big.Int).Set(x), 0, scale)
	case float64:
		return decimal128.FromString(strconv.FormatFloat(x, 'f', -1, 64), prec, scale)
	case float32:
		return decimal128.FromString(strconv.FormatFloat(float64(x), 'f', -1, 32), prec, scale)
	case string:
		return decimal128.FromString(x, prec, scale)
	case []byte:
		return decimal128.FromString(string(x), prec, scale)
	default:
		i, err := toInt64(v)
		if err != nil {
			return decimal128.Num{}, fmt.Errorf("cannot convert %T to decimal", v)
		}
		n = rescale(big.NewInt(i), 0, scale)
	}

	if !fits128(n) {
		return decimal128.Num{}, errOverflow
	}
	return decimal128.FromBigInt(n), nil
}

func rescale(n *big.Int, from, to int32) *big.Int {
	switch {
	case to > from:
		return n.Mul(n, pow10(to-from))
	case to < from:
		return n.Quo(n, pow10(from-to))
	}
	return n
}

func pow10(n int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

var (
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
)

func fits128(n *big.Int) bool {
	return n.Cmp(minInt128) >= 0 && n.Cmp(maxInt128) <= 0
}

func toString(typeName string, v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		if typeName == "UUID" && len(x) == 16 {
			if id, err := uuid.FromBytes(x); err == nil {
				return id.String()
			}
		}
		return string(x)
	case time.Time:
		return formatTime(typeName, x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func formatTime(typeName string, t time.Time) string {
	switch {
	case typeName == "DATE":
		return t.Format(time.DateOnly)
	case strings.HasPrefix(typeName, "TIME") && !strings.HasPrefix(typeName, "TIMESTAMP"):
		return t.Format("15:04:05.999999")
	case strings.Contains(typeName, "TZ") || strings.Contains(typeName, "TIME ZONE"):
		return t.Format("2006-01-02 15:04:05.999999-07:00")
	}
	return t.Format("2006-01-02 15:04:05.999999")
}
