// =============================================================================
// Ledger Reconciler - Reconciliation Engine
// =============================================================================
//
// This module contains the core reconciliation logic. It turns typed ledger
// rows and a resolved catalog into the shipment and return reports.
//
// PIPELINE:
//   1. Merge: left-join every ledger row onto the catalog by product code
//   2. Project: amount/code/item-category columns of the output schema
//   3. Classify: shipment or return type with quantity > 0, else drop
//   4. Group: sum amount and quantity per (barcode, product code, code)
//   5. Price: amount / quantity, undefined when quantity is zero
//
// The engine is a pure, synchronous transform: it holds no state between
// runs and never writes back to the catalog.
//
// =============================================================================

package reconcile

import (
	"sort"

	"github.com/ginjaninja78/ledger-reconciler/internal/catalog"
	"github.com/ginjaninja78/ledger-reconciler/internal/config"
	"github.com/ginjaninja78/ledger-reconciler/internal/types"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SCHEMA
// =============================================================================

// Schema holds the labels the engine classifies by and emits.
type Schema struct {
	// ShipmentType is the transaction type of a delivery to the customer.
	ShipmentType string

	// ReturnType is the transaction type of a return, cancellation or
	// non-redemption received back from the customer.
	ReturnType string

	// ShipmentPriceLabel and ReturnPriceLabel name the derived unit price
	// column of each report. They differ on purpose.
	ShipmentPriceLabel string
	ReturnPriceLabel   string
}

// DefaultSchema returns the labels of the Ozon accruals report.
func DefaultSchema() Schema {
	return Schema{
		ShipmentType:       "Доставка покупателю",
		ReturnType:         "Получение возврата, отмены, невыкупа от покупателя",
		ShipmentPriceLabel: "ЦЕНА",
		ReturnPriceLabel:   "ЦЕНА: Цена продажи",
	}
}

// SchemaFromConfig returns the default schema with the configured
// transaction type labels.
func SchemaFromConfig(transactionTypes config.TransactionTypes) Schema {
	schema := DefaultSchema()
	if transactionTypes.Shipment != "" {
		schema.ShipmentType = transactionTypes.Shipment
	}
	if transactionTypes.Return != "" {
		schema.ReturnType = transactionTypes.Return
	}
	return schema
}

// =============================================================================
// ENGINE
// =============================================================================

// Result holds the two finished reports of one run.
type Result struct {
	Shipments types.Report
	Returns   types.Report
	Stats     types.Stats
}

// Engine reconciles ledgers against a catalog.
type Engine struct {
	schema Schema
}

// NewEngine creates an Engine.
func NewEngine(schema Schema) *Engine {
	return &Engine{schema: schema}
}

// mergedRow is a ledger row after the catalog join and column projection.
type mergedRow struct {
	key             types.GroupKey
	transactionType string
	amount          decimal.Decimal
	quantity        decimal.Decimal
}

// Run reconciles typed ledger rows against cat. A nil catalog behaves as an
// empty one.
func (e *Engine) Run(rows []types.LedgerRow, cat *catalog.Catalog) *Result {
	stats := types.Stats{RowsRead: len(rows)}

	merged := merge(rows, cat, &stats)
	shipments, returns := e.classify(merged, &stats)

	result := &Result{
		Shipments: types.Report{
			Kind:       types.ReportShipments,
			PriceLabel: e.schema.ShipmentPriceLabel,
			Groups:     aggregate(shipments),
		},
		Returns: types.Report{
			Kind:       types.ReportReturns,
			PriceLabel: e.schema.ReturnPriceLabel,
			Groups:     aggregate(returns),
		},
	}

	stats.ShipmentGroups = len(result.Shipments.Groups)
	stats.ReturnGroups = len(result.Returns.Groups)
	stats.UndefinedPrices = countUndefined(result.Shipments.Groups) + countUndefined(result.Returns.Groups)
	result.Stats = stats

	return result
}

// merge left-joins rows onto the catalog. A product code mapped to several
// barcodes yields one merged row per barcode; an unmatched row keeps an
// empty barcode.
func merge(rows []types.LedgerRow, cat *catalog.Catalog, stats *types.Stats) []mergedRow {
	merged := make([]mergedRow, 0, len(rows))
	for _, row := range rows {
		barcodes := cat.Barcodes(row.ProductCode)
		if len(barcodes) == 0 {
			stats.UnmatchedRows++
			barcodes = []string{""}
		}
		for _, barcode := range barcodes {
			merged = append(merged, mergedRow{
				key: types.GroupKey{
					Barcode:     barcode,
					ProductCode: row.ProductCode,
					Code:        row.SKU,
				},
				transactionType: row.TransactionType,
				amount:          row.Amount,
				quantity:        row.Quantity,
			})
		}
	}
	stats.RowsMerged = len(merged)
	return merged
}

// classify splits merged rows into shipment and return candidates. Rows of
// any other type, or with a quantity that is not strictly positive, are
// dropped and only counted.
func (e *Engine) classify(rows []mergedRow, stats *types.Stats) (shipments, returns []mergedRow) {
	for _, row := range rows {
		isShipment := row.transactionType == e.schema.ShipmentType
		isReturn := row.transactionType == e.schema.ReturnType

		switch {
		case !isShipment && !isReturn:
			stats.DroppedUnclassified++
		case !row.quantity.IsPositive():
			stats.DroppedNonPositive++
		case isShipment:
			shipments = append(shipments, row)
			stats.ShipmentRows++
		default:
			returns = append(returns, row)
			stats.ReturnRows++
		}
	}
	return shipments, returns
}

// aggregate groups rows by key, sums amount and quantity, derives the unit
// price and sorts the groups by key.
func aggregate(rows []mergedRow) []types.Group {
	index := make(map[types.GroupKey]int)
	groups := make([]types.Group, 0)

	for _, row := range rows {
		i, ok := index[row.key]
		if !ok {
			i = len(groups)
			index[row.key] = i
			groups = append(groups, types.Group{
				GroupKey: row.key,
				Amount:   decimal.Zero,
				Quantity: decimal.Zero,
			})
		}
		groups[i].Amount = groups[i].Amount.Add(row.amount)
		groups[i].Quantity = groups[i].Quantity.Add(row.quantity)
		groups[i].Rows++
	}

	for i := range groups {
		groups[i].Price = UnitPrice(groups[i].Amount, groups[i].Quantity)
	}

	sort.Slice(groups, func(a, b int) bool {
		return groups[a].GroupKey.Less(groups[b].GroupKey)
	})

	return groups
}

// UnitPrice returns amount / quantity. The result is invalid (undefined)
// when quantity is zero; no division is attempted in that case.
func UnitPrice(amount, quantity decimal.Decimal) decimal.NullDecimal {
	if quantity.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: amount.Div(quantity), Valid: true}
}

func countUndefined(groups []types.Group) int {
	n := 0
	for _, g := range groups {
		if !g.Price.Valid {
			n++
		}
	}
	return n
}
