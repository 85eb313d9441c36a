package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCandleCSVSortsAndSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "candles.csv")
	content := "date,open,high,low,close\n" +
		"2020-01-03,100,110,95,105\n" +
		"2020-01-01,100,100,100,100\n" +
		"bad-row,x,y,z,w\n" +
		"2020-01-02,100,105,98,102\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	candles, err := loadCandleCSV(path)
	require.NoError(t, err)
	require.Len(t, candles, 3)
	require.Equal(t, "2020-01-01", candles[0].dateKey())
	require.Equal(t, "2020-01-02", candles[1].dateKey())
	require.Equal(t, "2020-01-03", candles[2].dateKey())
}

func TestLoadCandleCSVMissingFile(t *testing.T) {
	_, err := loadCandleCSV("/nonexistent/path/does-not-exist.csv")
	require.Error(t, err)
}
