package validation

import (
	"errors"
	"testing"

	"github.com/ginjaninja78/ledger-reconciler/internal/config"
	"github.com/ginjaninja78/ledger-reconciler/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledgerTable(rows ...map[string]string) *types.Table {
	columns := config.Default().Ledger.Columns
	return &types.Table{
		Headers: []string{columns.TransactionType, columns.ProductCode, columns.SKU, columns.Quantity, columns.Amount},
		Rows:    rows,
	}
}

func TestToLedgerRows(t *testing.T) {
	columns := config.Default().Ledger.Columns
	table := ledgerTable(
		map[string]string{
			columns.TransactionType: "Доставка покупателю",
			columns.ProductCode:     "A1",
			columns.SKU:             "100200300",
			columns.Quantity:        "2",
			columns.Amount:          "1 234,50",
		},
		map[string]string{
			columns.TransactionType: "Доставка покупателю",
			columns.ProductCode:     "A2",
			columns.Quantity:        "",
			columns.Amount:          "-15",
		},
	)
	table.RowNumbers = []int{2, 5}

	rows, err := ToLedgerRows(table, columns)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "A1", rows[0].ProductCode)
	assert.Equal(t, "100200300", rows[0].SKU)
	assert.True(t, decimal.NewFromInt(2).Equal(rows[0].Quantity))
	assert.True(t, decimal.RequireFromString("1234.50").Equal(rows[0].Amount))
	assert.Equal(t, 2, rows[0].RowNumber)

	assert.True(t, rows[1].Quantity.IsZero())
	assert.True(t, decimal.NewFromInt(-15).Equal(rows[1].Amount))
	assert.Equal(t, "", rows[1].SKU)
	assert.Equal(t, 5, rows[1].RowNumber)
}

func TestToLedgerRowsMissingColumns(t *testing.T) {
	columns := config.Default().Ledger.Columns
	table := &types.Table{Headers: []string{columns.ProductCode, "количество", columns.SKU}}

	rows, err := ToLedgerRows(table, columns)
	assert.Nil(t, rows)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedLedger)

	var ledgerErr *LedgerError
	require.True(t, errors.As(err, &ledgerErr))
	assert.Equal(t, []string{columns.TransactionType, columns.Quantity, columns.Amount}, ledgerErr.MissingColumns)
}

func TestToLedgerRowsCollectsBadCells(t *testing.T) {
	columns := config.Default().Ledger.Columns
	table := ledgerTable(
		map[string]string{columns.Quantity: "two", columns.Amount: "100"},
		map[string]string{columns.Quantity: "1", columns.Amount: "n/a"},
	)

	_, err := ToLedgerRows(table, columns)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedLedger)

	var ledgerErr *LedgerError
	require.True(t, errors.As(err, &ledgerErr))
	require.Len(t, ledgerErr.Errors, 2)
	assert.Equal(t, 1, ledgerErr.Errors[0].RowNumber)
	assert.Equal(t, columns.Quantity, ledgerErr.Errors[0].Field)
	assert.Equal(t, "n/a", ledgerErr.Errors[1].Value)
	assert.Contains(t, FormatErrors(ledgerErr.Errors), "2 error(s)")
}

func TestParseNumber(t *testing.T) {
	cases := map[string]string{
		"":             "0",
		"42":           "42",
		"-3":           "-3",
		"100,5":        "100.5",
		"1,234.75":     "1234.75",
		"1 234 567,25": "1234567.25",
		"1,234":        "1.234",
		"1\u00a0000":   "1000",
		" 7 ":          "7",
	}
	for in, want := range cases {
		got, err := ParseNumber(in)
		require.NoError(t, err, "input %q", in)
		assert.True(t, decimal.RequireFromString(want).Equal(got), "input %q: got %s", in, got)
	}

	_, err := ParseNumber("abc")
	assert.Error(t, err)
}
