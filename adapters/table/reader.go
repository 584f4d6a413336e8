package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dialectloss/domain/core"
	"dialectloss/domain/variants"

	"github.com/xuri/excelize/v2"
)

// TableReader loads one variable's aggregated count table from a CSV or xlsx
// file. Rows whose token total is zero are dropped at load time; everything
// else malformed is a fatal error for that variable.
type TableReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	origin   int    // centering year for year20
}

// NewTableReader creates a reader for the given file path. The file type is
// inferred from the extension; anything that is not .xlsx is read as CSV.
func NewTableReader(filePath string, origin int) *TableReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "csv"
	if ext == ".xlsx" {
		fileType = "xlsx"
	}
	return &TableReader{filePath: filePath, fileType: fileType, origin: origin}
}

// Read loads, validates and derives the observation rows. Row order of the
// source file is preserved.
func (r *TableReader) Read() ([]variants.RawObservationRow, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", core.ErrTableNotFound, r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "xlsx":
		rows, err = r.readXLSX()
	default:
		rows, err = r.readCSV()
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %s has no data rows", core.ErrNoObservations, r.filePath)
	}
	return r.processRows(rows)
}

func (r *TableReader) readCSV() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV file %s: %w", r.filePath, err)
	}
	return records, nil
}

func (r *TableReader) readXLSX() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file: %w", err)
	}
	defer f.Close()

	// Always use the first sheet
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// requiredColumns maps canonical column names to their index in the header.
var requiredColumns = []string{"speaker", "year", "gender", "cons", "inn"}

func (r *TableReader) processRows(rows [][]string) ([]variants.RawObservationRow, error) {
	cols, err := r.resolveHeader(rows[0])
	if err != nil {
		return nil, err
	}

	out := make([]variants.RawObservationRow, 0, len(rows)-1)
	for i, rec := range rows[1:] {
		rowNum := i + 2 // 1-based, counting the header
		if isBlank(rec) {
			continue
		}
		speaker := cell(rec, cols["speaker"])
		gender := cell(rec, cols["gender"])
		year, err := strconv.Atoi(cell(rec, cols["year"]))
		if err != nil {
			return nil, core.NewMalformedValueError("year", rowNum, err)
		}
		cons, err := strconv.Atoi(cell(rec, cols["cons"]))
		if err != nil {
			return nil, core.NewMalformedValueError("cons", rowNum, err)
		}
		inn, err := strconv.Atoi(cell(rec, cols["inn"]))
		if err != nil {
			return nil, core.NewMalformedValueError("inn", rowNum, err)
		}

		// Degenerate rows carry no tokens and are silently filtered.
		if cons+inn == 0 {
			continue
		}
		row, err := variants.NewRawObservationRow(speaker, year, gender, cons, inn, r.origin)
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", rowNum, r.filePath, err)
		}
		out = append(out, row)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s has no rows with tokens", core.ErrNoObservations, r.filePath)
	}
	return out, nil
}

func (r *TableReader) resolveHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, core.NewMissingColumnError(name, r.filePath)
		}
	}
	return cols, nil
}

func cell(rec []string, idx int) string {
	if idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
