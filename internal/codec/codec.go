// Package codec renders row values as SQL literals for re-insertion,
// dispatching on the column's declared type.
package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is the canonical type family a declared column type maps to.
type Category int

const (
	SmallInt Category = iota
	Integer
	BigInt
	Decimal
	Real
	Double
	Bool
	Timestamp
	TimestampTZ
	Date
	Time
	Inet
	JSON
	Text // fallback for anything string-like or unknown
)

const (
	timestampLayout = "2006-01-02 15:04:05.999999"
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05.999999"
)

// ValueError reports a value that could not be rendered as its declared
// type nor any fallback representation. It aborts the current table.
type ValueError struct {
	Column   string
	DataType string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("unsupported or unreadable value of type '%s' for column '%s'", e.DataType, e.Column)
}

// Classify maps a declared type name onto its category. Matching is on the
// normalized (lower-cased) name, exact widths before families.
func Classify(dataType string) Category {
	t := strings.ToLower(strings.TrimSpace(dataType))
	switch t {
	case "smallint", "int2", "tinyint":
		return SmallInt
	case "integer", "int", "int4", "mediumint":
		return Integer
	case "bigint", "int8":
		return BigInt
	case "numeric", "decimal", "number", "money", "smallmoney":
		return Decimal
	case "real", "float4", "binary_float":
		return Real
	case "double precision", "float8", "float", "double", "binary_double":
		return Double
	case "boolean", "bool", "bit":
		return Bool
	case "timestamp", "timestamp without time zone", "datetime", "datetime2", "smalldatetime":
		return Timestamp
	case "timestamp with time zone", "timestamptz":
		return TimestampTZ
	case "date":
		return Date
	case "time", "time without time zone", "time with time zone":
		return Time
	case "inet", "cidr", "macaddr":
		return Inet
	case "json", "jsonb":
		return JSON
	}
	switch {
	case strings.HasPrefix(t, "timestamp") && strings.Contains(t, "time zone") && !strings.Contains(t, "without"):
		return TimestampTZ
	case strings.HasPrefix(t, "timestamp"):
		return Timestamp
	}
	return Text
}

// Literal renders a scanned row value as a SQL literal for the declared
// type. nil always renders as NULL. When the value does not carry the
// category's native representation, the fallback chain (opaque integer,
// float, boolean, quoted text) is tried before giving up with a ValueError.
func Literal(v any, column, dataType string) (string, error) {
	if v == nil {
		return "NULL", nil
	}

	switch Classify(dataType) {
	case SmallInt, Integer, BigInt:
		if n, ok := asInt64(v); ok {
			return strconv.FormatInt(n, 10), nil
		}
	case Decimal:
		if s, ok := asString(v); ok {
			if dec, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
				return dec.String(), nil
			}
		}
		if f, ok := asFloat64(v); ok {
			return decimal.NewFromFloat(f).String(), nil
		}
	case Real, Double:
		if f, ok := asFloat64(v); ok {
			return strconv.FormatFloat(f, 'g', -1, 64), nil
		}
	case Bool:
		if b, ok := asBool(v); ok {
			return boolLiteral(b), nil
		}
	case Timestamp:
		if t, ok := v.(time.Time); ok {
			return quote(t.Format(timestampLayout)), nil
		}
	case TimestampTZ:
		if t, ok := v.(time.Time); ok {
			return quote(t.Format(time.RFC3339Nano)), nil
		}
	case Date:
		if t, ok := v.(time.Time); ok {
			return quote(t.Format(dateLayout)), nil
		}
	case Time:
		if t, ok := v.(time.Time); ok {
			return quote(t.Format(timeLayout)), nil
		}
	case Inet, JSON, Text:
		if s, ok := asString(v); ok {
			return quote(s), nil
		}
	}

	return fallbackLiteral(v, column, dataType)
}

// fallbackLiteral is the last-resort chain for values whose Go
// representation does not match the declared type.
func fallbackLiteral(v any, column, dataType string) (string, error) {
	if n, ok := asInt64(v); ok {
		return strconv.FormatInt(n, 10), nil
	}
	if f, ok := asFloat64(v); ok {
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	}
	if b, ok := asBool(v); ok {
		return boolLiteral(b), nil
	}
	if t, ok := v.(time.Time); ok {
		return quote(t.Format(timestampLayout)), nil
	}
	if s, ok := asString(v); ok {
		return quote(s), nil
	}
	return "", &ValueError{Column: column, DataType: dataType}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func boolLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	case int:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x <= 1<<63-1 {
			return int64(x), true
		}
	case []byte:
		if n, err := strconv.ParseInt(strings.TrimSpace(string(x)), 10, 64); err == nil {
			return n, true
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case []byte:
		if f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64); err == nil {
			return f, true
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case []byte:
		return boolFromString(string(x))
	case string:
		return boolFromString(x)
	}
	return false, false
}

func boolFromString(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "true":
		return true, true
	case "f", "false":
		return false, true
	}
	return false, false
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	}
	return "", false
}
