package csvio

import (
	"strings"
)

// Export renders the table as CSV. String cells are always quoted with
// embedded quotes doubled; numbers and bools are written bare; nil is empty.
// The error column, when present, is always last.
func Export(t *Table) string {
	cols := t.exportColumns()

	lines := make([]string, 0, len(t.Rows)+1)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = quoteIfNeeded(c)
	}
	lines = append(lines, strings.Join(header, ","))

	for _, row := range t.Rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = formatCell(row[c])
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n")
}

func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return quote(val)
	default:
		return FormatValue(val)
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") {
		return quote(s)
	}
	return s
}
