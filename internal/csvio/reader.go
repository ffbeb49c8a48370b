// Package csvio reads product CSV files, maps their columns onto product
// fields, imports them in sequential chunks and writes the export format.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const utf8BOM = "\ufeff"

// Table is a parsed CSV file. Rows are keyed by header; a short row has no
// key for its missing trailing fields.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// ReadCSV parses a comma-separated file with a header row. Header names
// are trimmed, a leading byte-order mark is dropped and blank lines are
// skipped. Rows may have fewer or more fields than the header; extra
// fields are ignored. A repeated header name gets a numeric suffix.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Table{Headers: []string{}, Rows: []map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	headers := normaliseHeaders(header)
	table := &Table{Headers: headers, Rows: []map[string]string{}}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		if isBlank(record) {
			continue
		}

		row := make(map[string]string, len(headers))
		for i, value := range record {
			if i >= len(headers) {
				break
			}
			row[headers[i]] = value
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func normaliseHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))

	for i, h := range raw {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = strings.TrimSpace(h)

		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = h + "_" + strconv.Itoa(n)
		} else {
			seen[h] = 1
		}
		headers[i] = h
	}
	return headers
}

// isBlank reports whether a record is a single empty field, which is how
// encoding/csv returns a line holding only whitespace.
func isBlank(record []string) bool {
	return len(record) == 1 && strings.TrimSpace(record[0]) == ""
}
