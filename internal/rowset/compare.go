package rowset

import (
	"fmt"
	"sort"
	"strings"
)

// ValuesEqual reports whether two cells hold the same value.
// Int and Float compare numerically; Null equals only Null.
func ValuesEqual(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}

	switch av := a.(type) {
	case Int:
		switch bv := b.(type) {
		case Int:
			return av == bv
		case Float:
			return float64(av) == float64(bv)
		}
		return false
	case Float:
		switch bv := b.(type) {
		case Int:
			return float64(av) == float64(bv)
		case Float:
			return av == bv
		}
		return false
	default:
		return a == b
	}
}

// RowsEqual reports whether two rows have the same width and cells.
func RowsEqual(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ValuesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether actual matches expected.
// Rows are compared as a sequence when ordered is true, as a multiset otherwise.
func Equal(expected, actual *RowSet, ordered bool) bool {
	return len(Diff(expected, actual, ordered)) == 0
}

// Diff describes every difference between expected and actual.
// An empty result means the two row sets are equal.
func Diff(expected, actual *RowSet, ordered bool) []string {
	if expected == nil || actual == nil {
		if expected == actual {
			return nil
		}
		return []string{fmt.Sprintf("expected %s rowset, got %s", describeNil(expected), describeNil(actual))}
	}

	var diffs []string
	if !columnsEqual(expected.Columns, actual.Columns) {
		diffs = append(diffs, fmt.Sprintf("columns: expected [%s], got [%s]",
			strings.Join(expected.Columns, ", "), strings.Join(actual.Columns, ", ")))
	}

	if ordered {
		return append(diffs, orderedDiff(expected, actual)...)
	}
	return append(diffs, unorderedDiff(expected, actual)...)
}

func orderedDiff(expected, actual *RowSet) []string {
	var diffs []string
	if expected.Len() != actual.Len() {
		diffs = append(diffs, fmt.Sprintf("expected %d rows, got %d", expected.Len(), actual.Len()))
	}

	n := min(expected.Len(), actual.Len())
	for i := 0; i < n; i++ {
		exp, act := expected.Rows[i], actual.Rows[i]
		if len(exp) != len(act) {
			diffs = append(diffs, fmt.Sprintf("row %d: expected %d values, got %d", i, len(exp), len(act)))
			continue
		}
		for j := range exp {
			if !ValuesEqual(exp[j], act[j]) {
				diffs = append(diffs, fmt.Sprintf("row %d, column %q: expected %s, got %s",
					i, columnName(expected.Columns, j), Format(exp[j]), Format(act[j])))
			}
		}
	}

	for i := n; i < actual.Len(); i++ {
		diffs = append(diffs, fmt.Sprintf("row %d: unexpected %s", i, formatRow(actual.Rows[i])))
	}
	for i := n; i < expected.Len(); i++ {
		diffs = append(diffs, fmt.Sprintf("row %d: missing %s", i, formatRow(expected.Rows[i])))
	}
	return diffs
}

func unorderedDiff(expected, actual *RowSet) []string {
	remaining := make([]Row, len(actual.Rows))
	copy(remaining, actual.Rows)

	var missing []string
	for _, exp := range expected.Rows {
		found := -1
		for k, act := range remaining {
			if RowsEqual(exp, act) {
				found = k
				break
			}
		}
		if found < 0 {
			missing = append(missing, formatRow(exp))
			continue
		}
		remaining = append(remaining[:found], remaining[found+1:]...)
	}

	unexpected := make([]string, 0, len(remaining))
	for _, act := range remaining {
		unexpected = append(unexpected, formatRow(act))
	}
	sort.Strings(missing)
	sort.Strings(unexpected)

	var diffs []string
	if expected.Len() != actual.Len() {
		diffs = append(diffs, fmt.Sprintf("expected %d rows, got %d", expected.Len(), actual.Len()))
	}
	for _, m := range missing {
		diffs = append(diffs, "missing "+m)
	}
	for _, u := range unexpected {
		diffs = append(diffs, "unexpected "+u)
	}
	return diffs
}

func columnsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func columnName(columns []string, i int) string {
	if i < len(columns) {
		return columns[i]
	}
	return fmt.Sprintf("#%d", i)
}

func formatRow(row Row) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = Format(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func describeNil(rs *RowSet) string {
	if rs == nil {
		return "nil"
	}
	return "non-nil"
}
