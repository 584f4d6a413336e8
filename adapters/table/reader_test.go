package table_test

import (
	"errors"
	"path/filepath"
	"testing"

	"dialectloss/adapters/table"
	"dialectloss/domain/core"
	"dialectloss/internal/testkit"

	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, records [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "okane.csv")
	require.NoError(t, testkit.WriteCSV(path, records))
	return path
}

func TestReadDecliningTable(t *testing.T) {
	path := writeFixture(t, testkit.DecliningCSV())

	rows, err := table.NewTableReader(path, 1920).Read()
	require.NoError(t, err)
	require.Len(t, rows, 9)

	first := rows[0]
	require.Equal(t, "akf1937", first.Speaker)
	require.Equal(t, 1920, first.Year)
	require.Equal(t, 10, first.Total)
	require.InDelta(t, 0.9, first.Prop, 1e-12)
	require.Equal(t, 0.0, first.Year20)
}

func TestReadFiltersZeroTotalRows(t *testing.T) {
	records := testkit.DecliningCSV()
	records = append(records, []string{"zzz1999", "1999", "m", "0", "0"})
	path := writeFixture(t, records)

	rows, err := table.NewTableReader(path, 1920).Read()
	require.NoError(t, err)
	require.Len(t, rows, 9)
	for _, r := range rows {
		require.Positive(t, r.Total)
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := table.NewTableReader(filepath.Join(t.TempDir(), "absent.csv"), 1920).Read()
	require.Error(t, err)
	require.True(t, errors.Is(err, core.ErrTableNotFound))
}

func TestReadMissingColumn(t *testing.T) {
	path := writeFixture(t, [][]string{
		{"speaker", "year", "gender", "cons"}, // no inn column
		{"akf1937", "1937", "f", "3"},
	})
	_, err := table.NewTableReader(path, 1920).Read()
	require.True(t, errors.Is(err, core.ErrMissingColumn))
}

func TestReadMalformedCount(t *testing.T) {
	path := writeFixture(t, [][]string{
		{"speaker", "year", "gender", "cons", "inn"},
		{"akf1937", "1937", "f", "three", "7"},
	})
	_, err := table.NewTableReader(path, 1920).Read()
	require.True(t, errors.Is(err, core.ErrMalformedValue))
}

func TestReadAllZeroTableIsDataError(t *testing.T) {
	path := writeFixture(t, testkit.AllZeroCSV())
	_, err := table.NewTableReader(path, 1920).Read()
	require.Error(t, err)
	require.True(t, errors.Is(err, core.ErrNoObservations))
	require.True(t, core.IsDataError(err))
}

func TestHeaderIsCaseInsensitive(t *testing.T) {
	path := writeFixture(t, [][]string{
		{"Speaker", "Year", "Gender", "Cons", "Inn"},
		{"akf1937", "1937", "f", "3", "7"},
	})
	rows, err := table.NewTableReader(path, 1920).Read()
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
