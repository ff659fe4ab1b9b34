package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"FinEnrich/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stock_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSource_Ingest(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "\uFEFFDate,Symbol,Open,High,Close,Volume\n"+
		"2024-01-02,AAPL,185.1,186,185.6,1000\n"+
		"2024-01-02,MSFT,,372,370.2,\n"+
		"2024-01-03,IBM,160\n")

	rows, err := NewCSVSource(path).Ingest(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, models.RawRecord{Symbol: "AAPL", Date: "2024-01-02", Open: "185.1", Close: "185.6", Volume: "1000"}, rows[0])
	assert.Equal(t, "", rows[1].Open)
	assert.Equal(t, "", rows[1].Volume)
	assert.Equal(t, "IBM", rows[2].Symbol)
	assert.Equal(t, "", rows[2].Close)
}

func TestCSVSource_HeaderIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "symbol,DATE,open,CLOSE,volume\nAAPL,2024-01-02,1,2,3\n")
	rows, err := NewCSVSource(path).Ingest(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "3", rows[0].Volume)
}

func TestCSVSource_Unavailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.csv") }},
		{"empty file", func(t *testing.T) string { return writeFile(t, "") }},
		{"missing column", func(t *testing.T) string { return writeFile(t, "Symbol,Date,Open,Close\nA,2024-01-01,1,2\n") }},
		{"bad quoting", func(t *testing.T) string {
			return writeFile(t, "Symbol,Date,Open,Close,Volume\n\"AAPL,2024-01-01,1,2,3\n")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewCSVSource(tt.path(t)).Ingest(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrSourceUnavailable)
		})
	}
}

func TestCSVSource_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCSVSource(writeFile(t, "Symbol,Date,Open,Close,Volume\n")).Ingest(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
