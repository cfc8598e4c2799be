// =============================================================================
// Ledger Reconciler - XLSX Ledger Parser
// =============================================================================
//
// This module reads an uploaded marketplace ledger from an .xlsx workbook into
// a header-keyed table.
//
// LEDGER STRUCTURE (Expected Layout):
//   One worksheet, a single header row, one transaction per data row.
//
//   | Тип начисления      | Артикул | SKU       | Количество | За продажу или возврат ... |
//   |---------------------|---------|-----------|------------|----------------------------|
//   | Доставка покупателю | A1      | 100200300 | 2          | 100                        |
//   | Доставка покупателю | A1      | 100200300 | 3          | 150                        |
//
// Cells are read raw (unformatted) so that numeric values keep their full
// precision and no locale-specific thousands separators are introduced.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/ledger-reconciler/internal/config"
	"github.com/ginjaninja78/ledger-reconciler/internal/types"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads an .xlsx ledger from disk.
//
// PARAMETERS:
//   - filePath: The path to the workbook.
//   - settings: The ledger layout settings.
//
// RETURNS:
//   - The parsed table.
//   - An error if the file cannot be opened or read.
func Parse(filePath string, settings config.LedgerSettings) (*types.Table, error) {
	// Open the XLSX file.
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer f.Close()

	table, err := parseWorkbook(f, settings)
	if err != nil {
		return nil, err
	}
	table.SourceFile = filePath
	return table, nil
}

// Read reads an .xlsx ledger from a stream, e.g. an upload body.
func Read(r io.Reader, settings config.LedgerSettings) (*types.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger stream: %w", err)
	}
	defer f.Close()

	return parseWorkbook(f, settings)
}

// parseWorkbook extracts the header row and data rows from the configured sheet.
func parseWorkbook(f *excelize.File, settings config.LedgerSettings) (*types.Table, error) {
	// Use the configured sheet or fall back to the first one.
	sheetName := settings.Sheet
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, fmt.Errorf("ledger file has no sheets")
	}
	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return nil, fmt.Errorf("ledger file has no sheet %q", sheetName)
	}

	// Get all rows from the sheet.
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	headerIndex := settings.HeaderRow - 1
	if headerIndex < 0 {
		headerIndex = 0
	}
	if headerIndex >= len(rows) {
		return nil, fmt.Errorf("ledger sheet %q has no header row %d", sheetName, headerIndex+1)
	}

	headers := cleanHeaders(rows[headerIndex])
	table := &types.Table{
		Headers:    headers,
		Rows:       make([]map[string]string, 0, len(rows)-headerIndex-1),
		RowNumbers: make([]int, 0, len(rows)-headerIndex-1),
	}

	// Parse each data row.
	for i := headerIndex + 1; i < len(rows); i++ {
		row := rows[i]

		// Skip empty rows.
		if len(row) == 0 || isRowEmpty(row) {
			continue
		}

		rowMap := make(map[string]string, len(headers))
		for col, header := range headers {
			if col < len(row) {
				rowMap[header] = strings.TrimSpace(row[col])
			} else {
				rowMap[header] = ""
			}
		}

		table.Rows = append(table.Rows, rowMap)
		table.RowNumbers = append(table.RowNumbers, i+1)
	}

	return table, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// cleanHeaders trims header labels and names empty ones by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
