// Package csvio reads and writes the bulk import spreadsheets.
package csvio

import (
	"fmt"
	"sort"
	"strconv"
)

// ErrorColumn is appended to exported rows that failed.
const ErrorColumn = "error"

// Row maps a header to a coerced cell value: nil, bool, float64 or string.
type Row map[string]interface{}

// String renders a cell as text. Missing and nil cells are empty.
func (r Row) String(key string) string {
	return FormatValue(r[key])
}

// Bool is true only for a coerced boolean true.
func (r Row) Bool(key string) bool {
	v, ok := r[key].(bool)
	return ok && v
}

// Has reports whether the cell is present and non-nil.
func (r Row) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Clone returns a shallow copy.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is a parsed sheet with its header order preserved.
type Table struct {
	Header []string
	Rows   []Row
}

// Columns returns the header if set, otherwise the sorted union of row keys.
func (t *Table) Columns() []string {
	if len(t.Header) > 0 {
		return append([]string(nil), t.Header...)
	}
	seen := map[string]bool{}
	var cols []string
	for _, row := range t.Rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// exportColumns moves the error column last, adding it when any row has one.
func (t *Table) exportColumns() []string {
	var cols []string
	hasError := false
	for _, c := range t.Columns() {
		if c == ErrorColumn {
			hasError = true
			continue
		}
		cols = append(cols, c)
	}
	if !hasError {
		for _, row := range t.Rows {
			if _, ok := row[ErrorColumn]; ok {
				hasError = true
				break
			}
		}
	}
	if hasError {
		cols = append(cols, ErrorColumn)
	}
	return cols
}

// FormatValue renders a coerced value back to text.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	}
	return fmt.Sprint(v)
}
