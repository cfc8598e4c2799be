// =============================================================================
// Ledger Reconciler - Ledger Validation
// =============================================================================
//
// This module checks an uploaded ledger table and converts it into typed
// ledger rows. It validates:
//   - Required columns (product code, transaction type, quantity, amount)
//   - Numeric cells (quantity and amount must parse as decimals)
//
// ERROR HANDLING:
//   - Errors are collected, not returned at the first bad cell
//   - Each error includes the file row, column label and raw value
//   - Any error makes the whole ledger malformed: no partial output is produced
//
// Empty quantity or amount cells are read as zero. Rows are not classified
// here; rows the engine does not report are dropped there and counted.
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/ledger-reconciler/internal/config"
	"github.com/ginjaninja78/ledger-reconciler/internal/types"
	"github.com/shopspring/decimal"
)

// ErrMalformedLedger is matched by every error describing a ledger that
// cannot be reconciled.
var ErrMalformedLedger = errors.New("malformed ledger")

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single bad cell.
type ValidationError struct {
	// RowNumber is the 1-based row in the source file.
	RowNumber int

	// Field is the column label of the cell.
	Field string

	// Value is the raw cell value.
	Value string

	// Message is a human-readable error message.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d, field '%s': %s (value: '%s')", e.RowNumber, e.Field, e.Message, e.Value)
}

// LedgerError describes why a ledger is malformed.
type LedgerError struct {
	// MissingColumns lists required column labels absent from the header.
	MissingColumns []string

	// Errors lists the cells that failed to parse.
	Errors []*ValidationError
}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	if len(e.MissingColumns) > 0 {
		return fmt.Sprintf("%s: missing required columns: %s",
			ErrMalformedLedger, strings.Join(e.MissingColumns, ", "))
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s: %s", ErrMalformedLedger, e.Errors[0].Error())
	}
	return fmt.Sprintf("%s: %d invalid cells, first: %s", ErrMalformedLedger, len(e.Errors), e.Errors[0].Error())
}

// Is makes errors.Is(err, ErrMalformedLedger) hold for every LedgerError.
func (e *LedgerError) Is(target error) bool {
	return target == ErrMalformedLedger
}

// =============================================================================
// COLUMN CHECKS
// =============================================================================

// RequiredColumns returns the labels a ledger must carry.
func RequiredColumns(columns config.LedgerColumns) []string {
	return []string{
		columns.ProductCode,
		columns.TransactionType,
		columns.Quantity,
		columns.Amount,
	}
}

// CheckColumns verifies the table header carries every required column.
// Labels are compared exactly.
func CheckColumns(table *types.Table, columns config.LedgerColumns) error {
	var missing []string
	for _, label := range RequiredColumns(columns) {
		if !table.HasColumn(label) {
			missing = append(missing, label)
		}
	}
	if len(missing) > 0 {
		return &LedgerError{MissingColumns: missing}
	}
	return nil
}

// =============================================================================
// ROW CONVERSION
// =============================================================================

// ToLedgerRows validates the table and converts every data row.
//
// PARAMETERS:
//   - table: The parsed ledger.
//   - columns: The ledger column labels.
//
// RETURNS:
//   - The typed rows in file order.
//   - A *LedgerError if columns are missing or any numeric cell is invalid.
func ToLedgerRows(table *types.Table, columns config.LedgerColumns) ([]types.LedgerRow, error) {
	if err := CheckColumns(table, columns); err != nil {
		return nil, err
	}

	rows := make([]types.LedgerRow, 0, len(table.Rows))
	var cellErrors []*ValidationError

	for i, raw := range table.Rows {
		rowNumber := i + 1
		if i < len(table.RowNumbers) {
			rowNumber = table.RowNumbers[i]
		}

		quantity, err := ParseNumber(raw[columns.Quantity])
		if err != nil {
			cellErrors = append(cellErrors, &ValidationError{
				RowNumber: rowNumber,
				Field:     columns.Quantity,
				Value:     raw[columns.Quantity],
				Message:   "not a number",
			})
		}

		amount, err := ParseNumber(raw[columns.Amount])
		if err != nil {
			cellErrors = append(cellErrors, &ValidationError{
				RowNumber: rowNumber,
				Field:     columns.Amount,
				Value:     raw[columns.Amount],
				Message:   "not a number",
			})
		}

		rows = append(rows, types.LedgerRow{
			ProductCode:     raw[columns.ProductCode],
			TransactionType: raw[columns.TransactionType],
			Quantity:        quantity,
			Amount:          amount,
			SKU:             raw[columns.SKU],
			RowNumber:       rowNumber,
		})
	}

	if len(cellErrors) > 0 {
		return nil, &LedgerError{Errors: cellErrors}
	}

	return rows, nil
}

// =============================================================================
// NUMBER PARSING
// =============================================================================

// numberCleaner drops the grouping spaces spreadsheet exports put in numbers.
var numberCleaner = strings.NewReplacer(
	" ", "",
	"\u00a0", "",
	"\u202f", "",
)

// ParseNumber parses a quantity or amount cell. An empty cell is zero. A
// lone comma is read as the decimal separator; when both comma and dot are
// present the comma is a thousands separator.
func ParseNumber(value string) (decimal.Decimal, error) {
	value = numberCleaner.Replace(strings.TrimSpace(value))
	if value == "" {
		return decimal.Zero, nil
	}

	if strings.Contains(value, ",") {
		if strings.Contains(value, ".") {
			value = strings.ReplaceAll(value, ",", "")
		} else {
			value = strings.Replace(value, ",", ".", 1)
		}
	}

	return decimal.NewFromString(value)
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errs []*ValidationError) string {
	if len(errs) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errs)))
	for i, err := range errs {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
