package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"mcnemar/domain/mcnemar"
	"mcnemar/internal/analysis"
)

// Column headers recognized in input files. Matching is case-insensitive;
// label and alpha are optional.
const (
	columnLabel = "label"
	columnA     = "a"
	columnB     = "b"
	columnC     = "c"
	columnD     = "d"
	columnAlpha = "alpha"
)

// TableReader reads batches of 2x2 tables from Excel and CSV files
type TableReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewTableReader creates a reader that handles both Excel and CSV files
func NewTableReader(filePath string) *TableReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &TableReader{filePath: filePath, fileType: fileType}
}

// ReadBatch reads every data row into a batch input. Cell text must parse as
// a number; whether the parsed counts form a usable table is judged later by
// the computation, per row, so one bad table never blocks the file.
func (r *TableReader) ReadBatch() ([]analysis.BatchInput, error) {
	log.Printf("[TableReader] Reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType))
	}

	return r.parseRows(rows)
}

// readExcelRows reads raw rows from Sheet1
func (r *TableReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	// Always use Sheet1
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	return rows, nil
}

// readCSVRows reads raw rows from a CSV file
func (r *TableReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// parseRows converts raw string rows into batch inputs
func (r *TableReader) parseRows(rows [][]string) ([]analysis.BatchInput, error) {
	columns := make(map[string]int)
	for j, header := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = j
	}

	for _, required := range []string{columnA, columnB, columnC, columnD} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q in header row", required)
		}
	}
	labelIdx, hasLabel := columns[columnLabel]
	alphaIdx, hasAlpha := columns[columnAlpha]

	var inputs []analysis.BatchInput
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		rowNum := i + 1 // 1-based, header included

		a, err := parseCell(row, columns[columnA], columnA, rowNum)
		if err != nil {
			return nil, err
		}
		b, err := parseCell(row, columns[columnB], columnB, rowNum)
		if err != nil {
			return nil, err
		}
		c, err := parseCell(row, columns[columnC], columnC, rowNum)
		if err != nil {
			return nil, err
		}
		d, err := parseCell(row, columns[columnD], columnD, rowNum)
		if err != nil {
			return nil, err
		}

		input := analysis.BatchInput{
			Table: mcnemar.TableFromCounts(a, b, c, d),
		}
		if hasLabel {
			input.Label = strings.TrimSpace(cellAt(row, labelIdx))
		}
		if hasAlpha {
			if cell := strings.TrimSpace(cellAt(row, alphaIdx)); cell != "" {
				alpha, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("row %d: column %q is not numeric: %q", rowNum, columnAlpha, cell)
				}
				input.Alpha = alpha
			}
		}

		inputs = append(inputs, input)
	}

	log.Printf("[TableReader] %s file processed (%d tables)", strings.ToUpper(r.fileType), len(inputs))
	return inputs, nil
}

func parseCell(row []string, idx int, column string, rowNum int) (float64, error) {
	cell := strings.TrimSpace(cellAt(row, idx))
	if cell == "" {
		return 0, fmt.Errorf("row %d: column %q is empty", rowNum, column)
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d: column %q is not numeric: %q", rowNum, column, cell)
	}
	return v, nil
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
