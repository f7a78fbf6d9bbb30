package rowset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Encode produces the canonical fixture encoding of rs.
// The output always ends with a newline.
func Encode(rs *RowSet) ([]byte, error) {
	if rs == nil {
		return nil, errors.New("nil rowset")
	}

	var buf bytes.Buffer
	buf.WriteString(`{"columns":[`)
	for i, col := range rs.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(&buf, col)
	}
	buf.WriteString(`],"rows":[`)
	buf.WriteByte('\n')

	for i, row := range rs.Rows {
		if len(row) != len(rs.Columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(rs.Columns))
		}
		buf.WriteByte('[')
		for j, cell := range row {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(&buf, cell); err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", i, rs.Columns[j], err)
			}
		}
		buf.WriteByte(']')
		if i < len(rs.Rows)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}

	buf.WriteString("]}\n")
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case String:
		writeString(buf, string(val))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("non-finite float %v", f)
		}
		s := strconv.FormatFloat(f, 'g', -1, 64)
		// Keep a marker so the value decodes back as a float.
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		buf.WriteString(s)
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

// writeString writes a JSON string with NFC normalisation.
// Only quote, backslash and control characters are escaped.
func writeString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"

	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				buf.WriteString("\uFFFD")
			} else {
				buf.WriteString(s[i : i+size])
			}
			i += size
			continue
		}
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if c < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hex[c>>4])
				buf.WriteByte(hex[c&0xf])
			} else {
				buf.WriteByte(c)
			}
		}
		i++
	}
	buf.WriteByte('"')
}

type encoded struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Decode parses the canonical encoding. It accepts any JSON whitespace
// layout, so hand-edited fixtures load as long as they keep the two keys.
func Decode(data []byte) (*RowSet, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	var raw encoded
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode rowset: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode rowset: trailing data after rowset")
	}
	if raw.Columns == nil {
		return nil, errors.New("decode rowset: columns is required")
	}

	columns := make([]string, len(raw.Columns))
	for i, col := range raw.Columns {
		columns[i] = norm.NFC.String(col)
	}

	rs := New(columns)
	for i, rawRow := range raw.Rows {
		if len(rawRow) != len(columns) {
			return nil, fmt.Errorf("decode rowset: row %d has %d values, expected %d", i, len(rawRow), len(columns))
		}
		row := make(Row, len(rawRow))
		for j, rawCell := range rawRow {
			cell, err := decodeValue(rawCell)
			if err != nil {
				return nil, fmt.Errorf("decode rowset: row %d, column %q: %w", i, columns[j], err)
			}
			row[j] = cell
		}
		rs.Rows = append(rs.Rows, row)
	}

	return rs, nil
}

func decodeValue(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case string:
		return String(norm.NFC.String(val)), nil
	case bool:
		return Bool(val), nil
	case json.Number:
		s := val.String()
		if strings.ContainsAny(s, ".eE") {
			f, err := val.Float64()
			if err != nil {
				return nil, err
			}
			return Float(f), nil
		}
		n, err := val.Int64()
		if err != nil {
			return nil, err
		}
		return Int(n), nil
	default:
		return nil, fmt.Errorf("unsupported JSON value %T", v)
	}
}
