// =============================================================================
// Ledger Reconciler - Report Writer Module
// =============================================================================
//
// This module serializes a reconciled report into an .xlsx workbook.
//
// REPORT STRUCTURE:
//   One sheet ("Sheet1"), one header row, one row per group:
//
//   | Штрихкод EAN13 | Артикул | Код | ПРЕДМЕТ | Сумма | Количество | ЦЕНА |
//   |----------------|---------|-----|---------|-------|------------|------|
//   | 4600000000001  | A1      | 7   |         | 250   | 5          | 50   |
//
//   The last column is "ЦЕНА" for shipments and "ЦЕНА: Цена продажи" for
//   returns. ПРЕДМЕТ is always empty, as is the price of a group whose
//   quantity sums to zero.
//
// =============================================================================

package reportwriter

import (
	"fmt"
	"io"

	"github.com/ginjaninja78/ledger-reconciler/internal/types"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet every report is written to.
const SheetName = "Sheet1"

// =============================================================================
// COLUMN LABELS
// =============================================================================

// Columns holds the output labels shared by both reports. The price label
// comes from the report itself.
type Columns struct {
	Barcode      string
	ProductCode  string
	Code         string
	ItemCategory string
	Amount       string
	Quantity     string
}

// DefaultColumns returns the output labels of the marketplace upload format.
func DefaultColumns() Columns {
	return Columns{
		Barcode:      "Штрихкод EAN13",
		ProductCode:  "Артикул",
		Code:         "Код",
		ItemCategory: "ПРЕДМЕТ",
		Amount:       "Сумма",
		Quantity:     "Количество",
	}
}

// Headers returns the header row for report.
func Headers(report types.Report, columns Columns) []string {
	return []string{
		columns.Barcode,
		columns.ProductCode,
		columns.Code,
		columns.ItemCategory,
		columns.Amount,
		columns.Quantity,
		report.PriceLabel,
	}
}

// =============================================================================
// WRITER FUNCTIONS
// =============================================================================

// Build creates the workbook for report. The caller must close it.
func Build(report types.Report, columns Columns) (*excelize.File, error) {
	f := excelize.NewFile()

	header := toRow(Headers(report, columns))
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, group := range report.Groups {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		values := groupRow(group)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	return f, nil
}

// Write streams report as an .xlsx workbook to w.
func Write(w io.Writer, report types.Report, columns Columns) error {
	f, err := Build(report, columns)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Save writes report as an .xlsx workbook to path.
func Save(path string, report types.Report, columns Columns) error {
	f, err := Build(report, columns)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func toRow(labels []string) []interface{} {
	row := make([]interface{}, len(labels))
	for i, label := range labels {
		row[i] = label
	}
	return row
}

// groupRow converts a group into cell values. Codes stay text so that
// leading zeros survive; nil leaves a cell empty.
func groupRow(group types.Group) []interface{} {
	var category interface{}
	if group.ItemCategory != nil {
		category = *group.ItemCategory
	}

	var price interface{}
	if group.Price.Valid {
		price = numberCell(group.Price.Decimal)
	}

	return []interface{}{
		group.Barcode,
		group.ProductCode,
		group.Code,
		category,
		numberCell(group.Amount),
		numberCell(group.Quantity),
		price,
	}
}

// numberCell returns an integer for whole values that fit in int64 and a
// float otherwise.
func numberCell(d decimal.Decimal) interface{} {
	if d.IsInteger() && d.BigInt().IsInt64() {
		return d.IntPart()
	}
	return d.InexactFloat64()
}
