package reconcile

import (
	"testing"

	"github.com/ginjaninja78/ledger-reconciler/internal/catalog"
	"github.com/ginjaninja78/ledger-reconciler/internal/config"
	"github.com/ginjaninja78/ledger-reconciler/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	deliveryType = "delivery to customer"
	returnType   = "return/cancellation/non-redemption received from customer"
)

func englishSchema() Schema {
	return Schema{
		ShipmentType:       deliveryType,
		ReturnType:         returnType,
		ShipmentPriceLabel: "price",
		ReturnPriceLabel:   "sale price",
	}
}

func row(code, txType string, qty, amount int64) types.LedgerRow {
	return types.LedgerRow{
		ProductCode:     code,
		TransactionType: txType,
		Quantity:        decimal.NewFromInt(qty),
		Amount:          decimal.NewFromInt(amount),
	}
}

func assertDecimal(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.NewFromInt(want).Equal(got), "want %d, got %s", want, got)
}

func TestRunAggregatesShipmentsWithBarcode(t *testing.T) {
	cat := catalog.New([]types.CatalogEntry{{ProductCode: "A1", Barcode: "123"}})
	rows := []types.LedgerRow{
		row("A1", deliveryType, 2, 100),
		row("A1", deliveryType, 3, 150),
	}

	res := NewEngine(englishSchema()).Run(rows, cat)

	assert.Empty(t, res.Returns.Groups)
	require.Len(t, res.Shipments.Groups, 1)
	g := res.Shipments.Groups[0]
	assert.Equal(t, "123", g.Barcode)
	assert.Equal(t, "A1", g.ProductCode)
	assertDecimal(t, 250, g.Amount)
	assertDecimal(t, 5, g.Quantity)
	require.True(t, g.Price.Valid)
	assertDecimal(t, 50, g.Price.Decimal)
	assert.Nil(t, g.ItemCategory)
	assert.Equal(t, 2, g.Rows)
	assert.Equal(t, "price", res.Shipments.PriceLabel)
}

func TestRunUnmatchedReturnKeepsEmptyBarcode(t *testing.T) {
	rows := []types.LedgerRow{row("B2", returnType, 1, 80)}

	res := NewEngine(englishSchema()).Run(rows, catalog.New(nil))

	assert.Empty(t, res.Shipments.Groups)
	require.Len(t, res.Returns.Groups, 1)
	g := res.Returns.Groups[0]
	assert.Equal(t, "", g.Barcode)
	assert.Equal(t, "B2", g.ProductCode)
	assertDecimal(t, 80, g.Amount)
	assertDecimal(t, 1, g.Quantity)
	assertDecimal(t, 80, g.Price.Decimal)
	assert.Equal(t, "sale price", res.Returns.PriceLabel)
	assert.Equal(t, 1, res.Stats.UnmatchedRows)
}

func TestRunExcludesNonPositiveQuantities(t *testing.T) {
	rows := []types.LedgerRow{
		row("A1", deliveryType, 0, 100),
		row("A1", deliveryType, -2, -200),
		row("B1", returnType, 0, 10),
		row("B1", returnType, -1, -10),
		row("C1", deliveryType, 1, 30),
	}

	res := NewEngine(englishSchema()).Run(rows, nil)

	require.Len(t, res.Shipments.Groups, 1)
	assert.Equal(t, "C1", res.Shipments.Groups[0].ProductCode)
	assert.Empty(t, res.Returns.Groups)
	assert.Equal(t, 4, res.Stats.DroppedNonPositive)
	assert.Equal(t, 0, res.Stats.DroppedUnclassified)
	assert.Equal(t, 4, res.Stats.Dropped())
}

func TestRunDropsUnclassifiedTypes(t *testing.T) {
	rows := []types.LedgerRow{
		row("A1", "Оплата эквайринга", 1, 10),
		row("A1", "Delivery to customer", 1, 10),
		row("A1", deliveryType, 1, 10),
	}

	res := NewEngine(englishSchema()).Run(rows, nil)

	require.Len(t, res.Shipments.Groups, 1)
	assertDecimal(t, 1, res.Shipments.Groups[0].Quantity)
	assert.Equal(t, 2, res.Stats.DroppedUnclassified)
	assert.Equal(t, 3, res.Stats.RowsRead)
	assert.Equal(t, 1, res.Stats.ShipmentRows)
}

func TestRunGroupsByCompositeKeyAndSorts(t *testing.T) {
	cat := catalog.New([]types.CatalogEntry{
		{ProductCode: "A1", Barcode: "200"},
		{ProductCode: "B1", Barcode: "100"},
	})
	rows := []types.LedgerRow{
		row("A1", deliveryType, 1, 10),
		row("B1", deliveryType, 2, 30),
		row("Z9", deliveryType, 4, 40),
		row("A1", deliveryType, 1, 14),
	}
	rows[3].SKU = "sku-2"

	res := NewEngine(englishSchema()).Run(rows, cat)

	require.Len(t, res.Shipments.Groups, 4)
	var keys []types.GroupKey
	for _, g := range res.Shipments.Groups {
		keys = append(keys, g.GroupKey)
	}
	assert.Equal(t, []types.GroupKey{
		{Barcode: "", ProductCode: "Z9"},
		{Barcode: "100", ProductCode: "B1"},
		{Barcode: "200", ProductCode: "A1"},
		{Barcode: "200", ProductCode: "A1", Code: "sku-2"},
	}, keys)
	assert.Equal(t, 4, res.Stats.ShipmentGroups)
}

func TestRunSumsExactlyTheClassifiedRows(t *testing.T) {
	rows := []types.LedgerRow{
		row("A1", deliveryType, 2, 20),
		row("A1", returnType, 7, 70),
		row("A1", deliveryType, -5, -50),
		row("A1", deliveryType, 3, 33),
		row("A1", "other", 9, 99),
	}

	res := NewEngine(englishSchema()).Run(rows, nil)

	require.Len(t, res.Shipments.Groups, 1)
	assertDecimal(t, 5, res.Shipments.Groups[0].Quantity)
	assertDecimal(t, 53, res.Shipments.Groups[0].Amount)
	require.Len(t, res.Returns.Groups, 1)
	assertDecimal(t, 7, res.Returns.Groups[0].Quantity)
	assertDecimal(t, 70, res.Returns.Groups[0].Amount)
}

func TestRunEmptyCatalogRoundTrip(t *testing.T) {
	rows := []types.LedgerRow{
		row("A1", deliveryType, 1, 10),
		row("B1", deliveryType, 2, 10),
		row("A1", deliveryType, 3, 10),
		row("C1", deliveryType, 1, 10),
	}

	res := NewEngine(englishSchema()).Run(rows, catalog.New(nil))

	assert.Empty(t, res.Returns.Groups)
	require.Len(t, res.Shipments.Groups, 3)
	for _, g := range res.Shipments.Groups {
		assert.Equal(t, "", g.Barcode)
		assert.True(t, g.Price.Valid)
	}
	assert.Equal(t, 4, res.Stats.UnmatchedRows)
}

func TestRunJoinsEveryBarcodeOfAProductCode(t *testing.T) {
	cat := catalog.New([]types.CatalogEntry{
		{ProductCode: "A1", Barcode: "111"},
		{ProductCode: "A1", Barcode: "222"},
	})

	res := NewEngine(englishSchema()).Run([]types.LedgerRow{row("A1", deliveryType, 1, 10)}, cat)

	require.Len(t, res.Shipments.Groups, 2)
	assert.Equal(t, "111", res.Shipments.Groups[0].Barcode)
	assert.Equal(t, "222", res.Shipments.Groups[1].Barcode)
	assert.Equal(t, 2, res.Stats.RowsMerged)
	assert.Equal(t, 0, res.Stats.UnmatchedRows)
}

func TestRunIgnoresCatalogEntriesWithoutBarcode(t *testing.T) {
	cat := catalog.New([]types.CatalogEntry{
		{ProductCode: "A1", Barcode: ""},
		{ProductCode: "A1", Barcode: "123"},
		{ProductCode: "B1", Barcode: ""},
	})
	rows := []types.LedgerRow{
		row("A1", deliveryType, 2, 100),
		row("B1", deliveryType, 1, 30),
	}

	res := NewEngine(englishSchema()).Run(rows, cat)

	require.Len(t, res.Shipments.Groups, 2)
	assert.Equal(t, types.GroupKey{Barcode: "", ProductCode: "B1"}, res.Shipments.Groups[0].GroupKey)
	assert.Equal(t, types.GroupKey{Barcode: "123", ProductCode: "A1"}, res.Shipments.Groups[1].GroupKey)
	assertDecimal(t, 2, res.Shipments.Groups[1].Quantity)
	assertDecimal(t, 100, res.Shipments.Groups[1].Amount)

	total := decimal.Zero
	for _, g := range res.Shipments.Groups {
		total = total.Add(g.Quantity)
	}
	assertDecimal(t, 3, total)
	assert.Equal(t, 2, res.Stats.RowsMerged)
	assert.Equal(t, 1, res.Stats.UnmatchedRows)
}

func TestRunFractionalPrice(t *testing.T) {
	res := NewEngine(englishSchema()).Run([]types.LedgerRow{row("A1", deliveryType, 3, 100)}, nil)

	require.Len(t, res.Shipments.Groups, 1)
	price := res.Shipments.Groups[0].Price
	require.True(t, price.Valid)
	assert.Equal(t, "33.33", price.Decimal.StringFixed(2))
}

func TestUnitPriceZeroQuantityIsUndefined(t *testing.T) {
	price := UnitPrice(decimal.NewFromInt(100), decimal.Zero)
	assert.False(t, price.Valid)

	price = UnitPrice(decimal.NewFromInt(100), decimal.NewFromInt(4))
	require.True(t, price.Valid)
	assertDecimal(t, 25, price.Decimal)
}

func TestAggregateZeroQuantityGroupHasUndefinedPrice(t *testing.T) {
	groups := aggregate([]mergedRow{
		{key: types.GroupKey{ProductCode: "A1"}, amount: decimal.NewFromInt(10), quantity: decimal.NewFromInt(2)},
		{key: types.GroupKey{ProductCode: "A1"}, amount: decimal.NewFromInt(-10), quantity: decimal.NewFromInt(-2)},
	})

	require.Len(t, groups, 1)
	assert.True(t, groups[0].Quantity.IsZero())
	assert.False(t, groups[0].Price.Valid)
	assert.Equal(t, 1, countUndefined(groups))
}

func TestRunWithDefaultLabels(t *testing.T) {
	cfg := config.Default()
	rows := []types.LedgerRow{
		{ProductCode: "A1", TransactionType: "Доставка покупателю", SKU: "7", Quantity: decimal.NewFromInt(2), Amount: decimal.NewFromInt(100)},
		{ProductCode: "A1", TransactionType: "Получение возврата, отмены, невыкупа от покупателя", SKU: "7", Quantity: decimal.NewFromInt(1), Amount: decimal.NewFromInt(50)},
	}
	cat := catalog.New([]types.CatalogEntry{{ProductCode: "A1", Barcode: "4600000000001"}})

	res := NewEngine(SchemaFromConfig(cfg.Ledger.TransactionTypes)).Run(rows, cat)

	require.Len(t, res.Shipments.Groups, 1)
	require.Len(t, res.Returns.Groups, 1)
	assert.Equal(t, "ЦЕНА", res.Shipments.PriceLabel)
	assert.Equal(t, "ЦЕНА: Цена продажи", res.Returns.PriceLabel)
	assert.Equal(t, types.GroupKey{Barcode: "4600000000001", ProductCode: "A1", Code: "7"}, res.Shipments.Groups[0].GroupKey)
	assertDecimal(t, 50, res.Shipments.Groups[0].Price.Decimal)
}
