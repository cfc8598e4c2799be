package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/ledger-reconciler/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSemicolonLedger(t *testing.T) {
	input := "\ufeffТип начисления;Артикул;SKU;Количество;Сумма\n" +
		"Доставка покупателю;A1;100;2;100,50\n" +
		";;;;\n" +
		"\"Получение возврата, отмены, невыкупа от покупателя\";B2;200;1;80\n" +
		"Доставка покупателю;C3\n"

	settings := config.Default().Ledger
	settings.Delimiter = ";"

	table, err := Read(strings.NewReader(input), settings)
	require.NoError(t, err)

	assert.Equal(t, "Тип начисления", table.Headers[0])
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []int{2, 4, 5}, table.RowNumbers)
	assert.Equal(t, "100,50", table.Rows[0]["Сумма"])
	assert.Equal(t, "Получение возврата, отмены, невыкупа от покупателя", table.Rows[1]["Тип начисления"])
	assert.Equal(t, "", table.Rows[2]["Количество"])
}

func TestReadTabDelimiter(t *testing.T) {
	settings := config.Default().Ledger
	settings.Delimiter = "\\t"

	table, err := Read(strings.NewReader("a\tb\n1\t2\n"), settings)
	require.NoError(t, err)
	assert.Equal(t, "2", table.Rows[0]["b"])
}

func TestParseHeaderRowAndErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, os.WriteFile(path, []byte("report header\nАртикул,Количество\nA1,3\n"), 0o644))

	settings := config.Default().Ledger
	settings.HeaderRow = 2
	table, err := Parse(path, settings)
	require.NoError(t, err)
	assert.Equal(t, path, table.SourceFile)
	assert.Equal(t, "3", table.Rows[0]["Количество"])

	_, err = Read(strings.NewReader(""), config.Default().Ledger)
	assert.ErrorContains(t, err, "empty")

	settings.HeaderRow = 9
	_, err = Parse(path, settings)
	assert.Error(t, err)

	_, err = Parse(filepath.Join(t.TempDir(), "absent.csv"), config.Default().Ledger)
	assert.Error(t, err)
}
