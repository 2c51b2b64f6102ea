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

	"mcnemar/internal/analysis"
)

// resultHeaders is the column order for exported batch results.
var resultHeaders = []string{
	"label", "a", "b", "c", "d", "alpha",
	"chi_square", "df", "critical", "p_value", "z_beta", "power",
	"pair_count", "significant", "warnings", "error",
}

// ResultWriter writes batch outcomes to Excel and CSV files
type ResultWriter struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewResultWriter creates a writer that handles both Excel and CSV files
func NewResultWriter(filePath string) *ResultWriter {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &ResultWriter{filePath: filePath, fileType: fileType}
}

// WriteResults writes one row per batch item. Failed items keep their label
// and error message with blank statistics, so a partially bad input file
// still produces a complete report.
func (w *ResultWriter) WriteResults(items []analysis.BatchItem) error {
	rows := buildResultRows(items)

	var err error
	switch w.fileType {
	case "csv":
		err = w.writeCSV(rows)
	case "xlsx":
		err = w.writeXLSX(rows)
	default:
		return fmt.Errorf("unsupported file type: %s", w.fileType)
	}
	if err != nil {
		return err
	}

	log.Printf("[ResultWriter] Wrote %d result rows to %s", len(items), w.filePath)
	return nil
}

func (w *ResultWriter) writeCSV(rows [][]string) error {
	f, err := os.Create(w.filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}

func (w *ResultWriter) writeXLSX(rows [][]string) error {
	f := excelize.NewFile()

	// Ensure Sheet1 exists and is active.
	sheet := "Sheet1"
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return err
		}
		f.SetActiveSheet(idx)
	}

	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(w.filePath)
}

func buildResultRows(items []analysis.BatchItem) [][]string {
	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, resultHeaders)

	for _, item := range items {
		if item.Err != nil {
			row := make([]string, len(resultHeaders))
			row[0] = item.Label
			row[len(row)-1] = item.Err.Error()
			rows = append(rows, row)
			continue
		}

		res := item.Result
		warnings := make([]string, 0, len(res.Warnings))
		for _, code := range res.Warnings {
			warnings = append(warnings, string(code))
		}

		rows = append(rows, []string{
			item.Label,
			formatCount(res.Table[0][0]),
			formatCount(res.Table[0][1]),
			formatCount(res.Table[1][0]),
			formatCount(res.Table[1][1]),
			formatFloat(res.Alpha),
			formatFloat(res.ChiSquare),
			strconv.Itoa(res.DF),
			formatFloat(res.Critical),
			formatFloat(res.PValue),
			formatFloat(res.ZBeta),
			formatFloat(res.Power),
			strconv.Itoa(res.PairCount),
			strconv.FormatBool(res.Significant()),
			strings.Join(warnings, ";"),
			"",
		})
	}
	return rows
}

func formatCount(v float64) string {
	return strconv.FormatInt(int64(v), 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
