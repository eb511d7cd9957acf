// Package tabular reads and writes account CSV files.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/usecase"
)

// Header column names, matched case-insensitively.
const (
	ColumnID      = "id"
	ColumnName    = "name"
	ColumnBalance = "balance"
)

const utf8BOM = "\ufeff"

// ReadAccountRows reads a CSV file whose header names the ID, Name and
// Balance columns. Rows keep the line they started on; a row missing cells
// yields empty values and fails later, during import. A row with a CSV
// syntax error is returned with Err set so the rest of the file still
// imports; only an unreadable header fails the whole file.
func ReadAccountRows(r io.Reader) ([]usecase.ImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", domain.ErrMalformedFile)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedFile, err)
	}

	columns, err := headerColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []usecase.ImportRow

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			rows = append(rows, usecase.ImportRow{Line: parseErr.StartLine, Err: parseErr})
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrMalformedFile, err)
		}

		line, _ := reader.FieldPos(0)

		if blank(record) {
			continue
		}

		rows = append(rows, usecase.ImportRow{
			Line:    line,
			ID:      cell(record, columns[ColumnID]),
			Name:    cell(record, columns[ColumnName]),
			Balance: cell(record, columns[ColumnBalance]),
		})
	}

	return rows, nil
}

func headerColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))

	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}

		name = strings.ToLower(strings.TrimSpace(name))
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}

	var missing []string

	for _, required := range []string{ColumnID, ColumnName, ColumnBalance} {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing header columns: %s", domain.ErrMalformedFile, strings.Join(missing, ", "))
	}

	return columns, nil
}

func cell(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}

	return strings.TrimSpace(record[idx])
}

func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}

	return true
}
