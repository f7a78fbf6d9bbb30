package rowset

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Value is a sealed interface for a single cell.
// Only Null, String, Int, Float and Bool implement it.
type Value interface {
	cell()
}

// Null represents SQL NULL.
type Null struct{}

func (Null) cell() {}

// String represents a text cell.
type String string

func (String) cell() {}

// Int represents an integer cell. Every integer width is widened to int64.
type Int int64

func (Int) cell() {}

// Float represents a floating point cell.
type Float float64

func (Float) cell() {}

// Bool represents a boolean cell.
type Bool bool

func (Bool) cell() {}

// FromDriver converts a value produced by database/sql into a Value.
// Strings are NFC normalised, matching what Decode returns for a fixture.
func FromDriver(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(norm.NFC.String(val)), nil
	case []byte:
		return String(norm.NFC.Bytes(val)), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer overflows int64: %d", val)
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case bool:
		return Bool(val), nil
	case time.Time:
		return String(val.UTC().Format(time.RFC3339Nano)), nil
	default:
		return nil, fmt.Errorf("unsupported cell type %T", v)
	}
}

// MustRow builds a Row from plain Go values and panics on unsupported types.
// Intended for tests and literal fixtures.
func MustRow(vals ...any) Row {
	row := make(Row, len(vals))
	for i, v := range vals {
		cell, err := FromDriver(v)
		if err != nil {
			panic(fmt.Sprintf("rowset.MustRow: column %d: %v", i, err))
		}
		row[i] = cell
	}
	return row
}

// Format renders a value for diff messages.
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "NULL"
	case String:
		return strconv.Quote(string(val))
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	default:
		return fmt.Sprintf("%v", val)
	}
}
