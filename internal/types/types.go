// =============================================================================
// Ledger Reconciler - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - catalog
//   - validation
//   - reconcile
//   - reportwriter
//
// =============================================================================

package types

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER TYPES
// =============================================================================

// LedgerRow represents one transaction line from the uploaded ledger.
type LedgerRow struct {
	// ProductCode is the seller's article code. It is the join key against
	// the catalog and may repeat across rows.
	ProductCode string

	// TransactionType is the accrual type label, e.g. "Доставка покупателю".
	TransactionType string

	// Quantity is signed. Zero and negative values are adjustments.
	Quantity decimal.Decimal

	// Amount is the gross amount before commissions and services.
	Amount decimal.Decimal

	// SKU is the marketplace's internal code, passed through as "code".
	SKU string

	// RowNumber is the 1-based row number in the source file.
	RowNumber int
}

// Table is a ledger read from a spreadsheet, keyed by header label.
type Table struct {
	// Headers contains the column labels in file order.
	Headers []string

	// Rows contains the data rows as maps of header -> value.
	Rows []map[string]string

	// RowNumbers holds the 1-based file row number of each entry in Rows.
	RowNumbers []int

	// SourceFile is the path the table was read from, if any.
	SourceFile string
}

// HasColumn reports whether the table has a column with exactly this label.
func (t *Table) HasColumn(label string) bool {
	for _, header := range t.Headers {
		if header == label {
			return true
		}
	}
	return false
}

// =============================================================================
// CATALOG TYPES
// =============================================================================

// CatalogEntry is one (product code, barcode) pair from the reference store.
type CatalogEntry struct {
	ProductCode string
	Barcode     string
}

// =============================================================================
// REPORT TYPES
// =============================================================================

// ReportKind identifies which report a group belongs to.
type ReportKind string

const (
	ReportShipments ReportKind = "shipments"
	ReportReturns   ReportKind = "returns"
)

// GroupKey is the composite grouping key of a reconciled group.
type GroupKey struct {
	Barcode     string
	ProductCode string
	Code        string
}

// Less orders keys by barcode, then product code, then code.
func (k GroupKey) Less(other GroupKey) bool {
	if k.Barcode != other.Barcode {
		return k.Barcode < other.Barcode
	}
	if k.ProductCode != other.ProductCode {
		return k.ProductCode < other.ProductCode
	}
	return k.Code < other.Code
}

// Group is one aggregated output row.
type Group struct {
	GroupKey

	// ItemCategory is attached for downstream consumers and is never populated.
	ItemCategory *string

	Amount   decimal.Decimal
	Quantity decimal.Decimal

	// Price is Amount / Quantity. Price.Valid is false when Quantity is zero.
	Price decimal.NullDecimal

	// Rows is the number of ledger rows folded into this group.
	Rows int
}

// Report is one finished output table.
type Report struct {
	Kind ReportKind

	// PriceLabel is the column label of the derived unit price. Shipments and
	// returns use different labels for the same quantity.
	PriceLabel string

	Groups []Group
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// Stats counts what happened to ledger rows during a reconciliation run.
type Stats struct {
	RowsRead            int
	RowsMerged          int
	UnmatchedRows       int
	ShipmentRows        int
	ReturnRows          int
	DroppedUnclassified int
	DroppedNonPositive  int
	ShipmentGroups      int
	ReturnGroups        int
	UndefinedPrices     int
}

// Dropped returns the number of merged rows that reached neither report.
func (s Stats) Dropped() int {
	return s.DroppedUnclassified + s.DroppedNonPositive
}
