package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyFile is returned when the input has no header row
var ErrEmptyFile = errors.New("csv file is empty")

// Table is a parsed CSV file: its header row and every data row keyed by header
type Table struct {
	Headers []string
	Rows    []map[string]string

	// Lines holds the 1-based file line each row starts on
	Lines []int
}

// HasHeader reports whether name is one of the table's headers
func (t *Table) HasHeader(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Parse reads CSV with a header row. Headers and values are trimmed; rows
// whose cells are all blank are skipped; short rows leave missing cells empty.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	headers := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{Headers: headers, Rows: []map[string]string{}, Lines: []int{}}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		if blank(record) {
			continue
		}

		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			} else {
				row[h] = ""
			}
		}
		line, _ := reader.FieldPos(0)
		table.Rows = append(table.Rows, row)
		table.Lines = append(table.Lines, line)
	}
	return table, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
