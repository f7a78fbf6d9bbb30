package rowset

import (
	"database/sql"
	"fmt"
)

// Row is an ordered sequence of cells.
type Row []Value

// RowSet is a query result: ordered column names plus ordered rows.
type RowSet struct {
	Columns []string
	Rows    []Row
}

// New creates a RowSet. Rows is never nil, even when no rows are given.
func New(columns []string, rows ...Row) *RowSet {
	if rows == nil {
		rows = []Row{}
	}
	return &RowSet{Columns: columns, Rows: rows}
}

// Len returns the number of rows.
func (rs *RowSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Append adds a row after checking its width against the columns.
func (rs *RowSet) Append(row Row) error {
	if len(row) != len(rs.Columns) {
		return fmt.Errorf("row has %d values, expected %d", len(row), len(rs.Columns))
	}
	rs.Rows = append(rs.Rows, row)
	return nil
}

// String returns the canonical encoding, or an error marker if encoding fails.
func (rs *RowSet) String() string {
	data, err := Encode(rs)
	if err != nil {
		return fmt.Sprintf("<invalid rowset: %v>", err)
	}
	return string(data)
}

// MarshalJSON encodes rs canonically so a RowSet can be embedded in other
// JSON documents.
func (rs *RowSet) MarshalJSON() ([]byte, error) {
	return Encode(rs)
}

// Scan reads every remaining row from rows into a RowSet.
// The caller still owns rows and is responsible for closing it.
func Scan(rows *sql.Rows) (*RowSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	rs := New(columns)
	dest := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", rs.Len(), err)
		}
		row := make(Row, len(columns))
		for i, raw := range dest {
			cell, err := FromDriver(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", rs.Len(), columns[i], err)
			}
			row[i] = cell
		}
		rs.Rows = append(rs.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return rs, nil
}
