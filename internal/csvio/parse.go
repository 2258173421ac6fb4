package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrTooFewLines is returned when a file has no data row after the header.
var ErrTooFewLines = errors.New("CSV file must contain a header row and at least one data row")

// Parse reads a CSV document whose first record is the header. Blank
// records are skipped and every cell goes through Coerce.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		if blank(record) {
			continue
		}
		records = append(records, record)
	}

	return fromRecords(records)
}

func fromRecords(records [][]string) (*Table, error) {
	if len(records) < 2 {
		return nil, ErrTooFewLines
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		h = strings.TrimPrefix(h, "\ufeff")
		header[i] = strings.TrimSpace(h)
	}

	table := &Table{Header: header, Rows: make([]Row, 0, len(records)-1)}
	for _, record := range records[1:] {
		row := make(Row, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = Coerce(record[i])
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
