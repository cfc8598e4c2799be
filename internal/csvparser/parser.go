// =============================================================================
// Ledger Reconciler - CSV Ledger Parser
// =============================================================================
//
// This module reads a ledger exported as CSV into the same header-keyed table
// the XLSX parser produces, so both formats feed the same pipeline.
//
// PARSING PROCESS:
//   1. Configure the CSV reader with the configured delimiter
//   2. Strip a UTF-8 byte order mark from the first header cell
//   3. Read the header row at the configured position
//   4. Convert each following non-empty row to a map of header -> value
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/ledger-reconciler/internal/config"
	"github.com/ginjaninja78/ledger-reconciler/internal/types"
)

const utf8BOM = "\ufeff"

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV ledger from disk.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The ledger layout settings.
//
// RETURNS:
//   - The parsed table.
//   - An error if the file cannot be read or parsed.
func Parse(filePath string, settings config.LedgerSettings) (*types.Table, error) {
	// Open the file.
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	table, err := Read(file, settings)
	if err != nil {
		return nil, err
	}
	table.SourceFile = filePath
	return table, nil
}

// Read reads a CSV ledger from a stream.
func Read(r io.Reader, settings config.LedgerSettings) (*types.Table, error) {
	// Create the CSV reader.
	csvReader := csv.NewReader(bufio.NewReader(r))

	// Configure the CSV reader based on settings.
	configureReader(csvReader, settings)

	// Read all rows.
	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	// Validate that we have data.
	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}
	allRows[0] = stripBOM(allRows[0])

	headerIndex := settings.HeaderRow - 1
	if headerIndex < 0 {
		headerIndex = 0
	}
	if headerIndex >= len(allRows) {
		return nil, fmt.Errorf("file has fewer rows than header_row setting")
	}

	headers := cleanHeaders(allRows[headerIndex])
	table := &types.Table{
		Headers:    headers,
		Rows:       make([]map[string]string, 0, len(allRows)-headerIndex-1),
		RowNumbers: make([]int, 0, len(allRows)-headerIndex-1),
	}

	// Extract data rows.
	for rowIndex := headerIndex + 1; rowIndex < len(allRows); rowIndex++ {
		row := allRows[rowIndex]

		// Skip empty rows.
		if isRowEmpty(row) {
			continue
		}

		// Convert the row to a map.
		rowMap := make(map[string]string, len(headers))
		for colIndex, header := range headers {
			if colIndex < len(row) {
				rowMap[header] = strings.TrimSpace(row[colIndex])
			} else {
				// Column is missing in this row.
				rowMap[header] = ""
			}
		}

		table.Rows = append(table.Rows, rowMap)
		table.RowNumbers = append(table.RowNumbers, rowIndex+1)
	}

	return table, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.LedgerSettings) {
	// Set the delimiter.
	// Handle special cases for common delimiters.
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1

	// Marketplace exports are not always strictly quoted.
	reader.LazyQuotes = true

	reader.TrimLeadingSpace = true
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// stripBOM removes a UTF-8 byte order mark from the first cell.
func stripBOM(row []string) []string {
	if len(row) > 0 {
		row[0] = strings.TrimPrefix(row[0], utf8BOM)
	}
	return row
}

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

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
