package xlsxparser

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/ledger-reconciler/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheet string, rows [][]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &values))
	}
	return f
}

func TestReadLedger(t *testing.T) {
	f := buildWorkbook(t, "Sheet1", [][]interface{}{
		{"Тип начисления", "Артикул", "SKU", "Количество", "За продажу или возврат до вычета комиссий и услуг"},
		{"Доставка покупателю", "A1", 100200300, 2, 100.5},
		{},
		{"Доставка покупателю", " A2 ", 100200301, -1, 1234567.25},
	})
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := Read(bytes.NewReader(buf.Bytes()), config.Default().Ledger)
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []int{2, 4}, table.RowNumbers)
	assert.True(t, table.HasColumn("Количество"))
	assert.Equal(t, "A1", table.Rows[0]["Артикул"])
	assert.Equal(t, "2", table.Rows[0]["Количество"])
	assert.Equal(t, "100.5", table.Rows[0]["За продажу или возврат до вычета комиссий и услуг"])
	assert.Equal(t, "A2", table.Rows[1]["Артикул"])
	assert.Equal(t, "-1", table.Rows[1]["Количество"])
	assert.Equal(t, "1234567.25", table.Rows[1]["За продажу или возврат до вычета комиссий и услуг"])
}

func TestParseNamedSheetAndHeaderRow(t *testing.T) {
	f := buildWorkbook(t, "Начисления", [][]interface{}{
		{"Период: октябрь"},
		{"Артикул", "", "Количество"},
		{"B2", "x", 1},
	})
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	require.NoError(t, f.SaveAs(path))

	settings := config.Default().Ledger
	settings.Sheet = "Начисления"
	settings.HeaderRow = 2

	table, err := Parse(path, settings)
	require.NoError(t, err)

	assert.Equal(t, path, table.SourceFile)
	assert.Equal(t, []string{"Артикул", "Column_2", "Количество"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, 3, table.RowNumbers[0])
	assert.Equal(t, "x", table.Rows[0]["Column_2"])
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "missing.xlsx"), config.Default().Ledger)
	assert.Error(t, err)

	f := buildWorkbook(t, "Sheet1", [][]interface{}{{"Артикул"}})
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	settings := config.Default().Ledger
	settings.Sheet = "Absent"
	_, err = Read(bytes.NewReader(buf.Bytes()), settings)
	assert.ErrorContains(t, err, "no sheet")

	settings = config.Default().Ledger
	settings.HeaderRow = 5
	_, err = Read(bytes.NewReader(buf.Bytes()), settings)
	assert.ErrorContains(t, err, "no header row")
}
