package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the first sheet of an XLSX stream into raw rows.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}

	iter, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	defer iter.Close()

	var rows [][]string
	for iter.Next() {
		record, err := iter.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read xlsx row: %w", err)
		}
		rows = append(rows, record)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("error iterating xlsx rows: %w", err)
	}

	return rows, nil
}

// ReadCSV reads a CSV stream into raw rows. Ragged rows are allowed; the
// schema resolver treats short rows as having empty trailing cells.
func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return rows, nil
}

// ReadTableFile reads an .xlsx or .csv file into raw rows by extension.
func ReadTableFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open input file %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(f)
	case ".csv":
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported file extension for %s (want .xlsx or .csv)", path)
	}
}
