// Package export turns report rows into downloadable files.
package export

import (
	"bytes"
	"encoding/csv"
)

// Column names a CSV column and how to read it from a row.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// ToCSV writes a header row followed by one row per record. Quoting follows
// RFC 4180.
func ToCSV[T any](rows []T, columns []Column[T]) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	record := make([]string, len(columns))
	for i, c := range columns {
		record[i] = c.Header
	}
	if err := w.Write(record); err != nil {
		return nil, err
	}

	for _, row := range rows {
		for i, c := range columns {
			record[i] = c.Value(row)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
