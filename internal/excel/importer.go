// Package excel bulk-imports card templates from spreadsheet files.
package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/conorfennell/memorank/internal/cardhash"
	"github.com/conorfennell/memorank/internal/domain"
	"github.com/conorfennell/memorank/internal/storage"
)

// ImportConfig defines where template fields live in the sheet.
type ImportConfig struct {
	FilePath       string // path to the .xlsx or .csv file
	FrontColumn    string // column letter with the front text
	BackColumn     string // column letter with the back text
	CategoryColumn string // column letter with the category label
	SheetName      string // sheet to import from (.xlsx only)
	StartRow       int    // 1-based row to start importing from
}

// DefaultImportConfig returns the default column layout: front, back,
// category in columns A-C with a header row.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		FrontColumn:    "A",
		BackColumn:     "B",
		CategoryColumn: "C",
		SheetName:      "Sheet1",
		StartRow:       2,
	}
}

// ImportResult holds the outcome of one import run.
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ImportTemplates imports card templates from an Excel or CSV file. Rows
// whose content hash already exists are skipped, so re-imports are safe.
func ImportTemplates(db *storage.DB, config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return importFromCSV(db, config)
	}
	return importFromExcel(db, config)
}

func importFromExcel(db *storage.DB, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", config.SheetName, err)
	}

	front, err := columnIndex(config.FrontColumn)
	if err != nil {
		return nil, err
	}
	back, err := columnIndex(config.BackColumn)
	if err != nil {
		return nil, err
	}
	category, err := columnIndex(config.CategoryColumn)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for i, row := range rows {
		if i+1 < config.StartRow {
			continue
		}
		importRow(db, result, i+1, cell(row, front), cell(row, back), cell(row, category))
	}
	return result, nil
}

func importFromCSV(db *storage.DB, config ImportConfig) (*ImportResult, error) {
	f, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	front, err := columnIndex(config.FrontColumn)
	if err != nil {
		return nil, err
	}
	back, err := columnIndex(config.BackColumn)
	if err != nil {
		return nil, err
	}
	category, err := columnIndex(config.CategoryColumn)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	result := &ImportResult{}
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		importRow(db, result, rowNum, cell(row, front), cell(row, back), cell(row, category))
	}
	return result, nil
}

// importRow validates, hashes, and inserts a single parsed row.
func importRow(db *storage.DB, result *ImportResult, rowNum int, front, back, category string) {
	result.TotalProcessed++

	front = strings.TrimSpace(front)
	back = strings.TrimSpace(back)
	category = strings.TrimSpace(category)
	if front == "" || back == "" {
		result.Skipped++
		return
	}

	tpl := domain.Template{Front: front, Back: back, Category: category}
	tpl.Hash = cardhash.Hash(tpl)

	existing, err := db.FindTemplateByHash(tpl.Hash)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
		return
	}
	if existing != nil {
		result.Skipped++
		return
	}

	if err := db.InsertTemplate(tpl); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
		return
	}
	result.Created++
}

// columnIndex converts a column letter ("A") to a zero-based index.
func columnIndex(name string) (int, error) {
	n, err := excelize.ColumnNameToNumber(name)
	if err != nil {
		return 0, fmt.Errorf("invalid column %q: %w", name, err)
	}
	return n - 1, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
