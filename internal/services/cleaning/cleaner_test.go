package cleaning

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"FinEnrich/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(symbol, date, open, close, volume string) models.RawRecord {
	return models.RawRecord{Symbol: symbol, Date: date, Open: open, Close: close, Volume: volume}
}

func TestCleanFillsMissingNumericsAndDropsMissingKeys(t *testing.T) {
	t.Parallel()

	rows := []models.RawRecord{
		raw("AAPL", "2024-01-02", "", "101", "1000"),
		raw("", "2024-01-02", "1", "1", "1"),
		raw("MSFT", "", "1", "1", "1"),
		raw("GOOG", "2024-01-03", "NaN", "null", " "),
	}

	table, rep, err := New().Clean(rows)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	assert.Equal(t, "AAPL", table.Rows[0].Symbol)
	assert.Equal(t, 0.0, table.Rows[0].Open)
	assert.Equal(t, int64(1000), table.Rows[0].Volume)

	assert.Equal(t, "GOOG", table.Rows[1].Symbol)
	assert.Equal(t, 0.0, table.Rows[1].Open)
	assert.Equal(t, 0.0, table.Rows[1].Close)
	assert.Equal(t, int64(0), table.Rows[1].Volume)

	assert.Equal(t, 2, rep.MissingKey)
	assert.Equal(t, 4, rep.FilledNumerics)
	assert.Equal(t, 2, rep.Output)
}

func TestCleanDeduplicatesKeepingFirst(t *testing.T) {
	t.Parallel()

	rows := []models.RawRecord{
		raw("AAPL", "2024-01-02", "100", "101", "1000"),
		raw("MSFT", "2024-01-02", "300", "301", "2000"),
		raw("AAPL", "2024-01-02", "100", "101", "1000"),
		raw("AAPL", "2024-01-02", "", "101", "1000"),
		raw("AAPL", "2024-01-02", "0", "101", "1000"),
	}

	table, rep, err := New().Clean(rows)
	require.NoError(t, err)

	require.Equal(t, 3, table.Len())
	assert.Equal(t, "AAPL", table.Rows[0].Symbol)
	assert.Equal(t, "MSFT", table.Rows[1].Symbol)
	assert.Equal(t, 0.0, table.Rows[2].Open)
	assert.Equal(t, 2, rep.Duplicates)
}

func TestCleanDropsUnparseableDates(t *testing.T) {
	t.Parallel()

	rows := []models.RawRecord{
		raw("AAPL", "2024-01-02", "100", "101", "1000"),
		raw("MSFT", "yesterday", "300", "301", "2000"),
		raw("IBM", "01/05/2024", "150", "151", "3000"),
	}

	table, rep, err := New().Clean(rows)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, 1, rep.BadDate)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), table.Rows[1].Date)

	for _, r := range table.Rows {
		assert.NotEmpty(t, r.Symbol)
		assert.False(t, r.Date.IsZero())
	}
}

func TestCleanRejectsOutliers(t *testing.T) {
	t.Parallel()

	rows := make([]models.RawRecord, 0, 20)
	for i := 0; i < 19; i++ {
		rows = append(rows, raw("AAPL", fmt.Sprintf("2024-01-%02d", i+1), "100", "101", "1000"))
	}
	rows = append(rows, raw("AAPL", "2024-01-20", "10000", "101", "1000"))

	table, rep, err := New().Clean(rows)
	require.NoError(t, err)

	assert.Equal(t, 19, table.Len())
	assert.Equal(t, 1, rep.Outliers)
	for _, r := range table.Rows {
		assert.Equal(t, 100.0, r.Open)
	}
}

func TestCleanConstantColumnDropsNothing(t *testing.T) {
	t.Parallel()

	rows := make([]models.RawRecord, 0, 10)
	for i := 0; i < 10; i++ {
		rows = append(rows, raw("AAPL",
			fmt.Sprintf("2024-02-%02d", i+1),
			fmt.Sprintf("%d", 100+i),
			"55.5",
			fmt.Sprintf("%d", 1000+10*i),
		))
	}

	table, rep, err := New().Clean(rows)
	require.NoError(t, err)
	assert.Equal(t, 10, table.Len())
	assert.Equal(t, 0, rep.Outliers)
}

func TestCleanConstantColumnKeepsExtremesInTenRows(t *testing.T) {
	t.Parallel()

	// nine equal values and one extreme give a population |z| of exactly 3
	rows := make([]models.RawRecord, 0, 10)
	for i := 0; i < 9; i++ {
		rows = append(rows, raw("AAPL", fmt.Sprintf("2024-03-%02d", i+1), "100", "55.5", "1000"))
	}
	rows = append(rows, raw("AAPL", "2024-03-10", "1000", "55.5", "50000"))

	table, rep, err := New().Clean(rows)
	require.NoError(t, err)
	assert.Equal(t, 10, table.Len())
	assert.Equal(t, 0, rep.Outliers)
	assert.Equal(t, 1000.0, table.Rows[9].Open)
	assert.Equal(t, int64(50000), table.Rows[9].Volume)
}

func TestCleanDropsRowsBeyondThreshold(t *testing.T) {
	t.Parallel()

	// with eleven rows the same extreme reaches sqrt(10)
	rows := make([]models.RawRecord, 0, 11)
	for i := 0; i < 10; i++ {
		rows = append(rows, raw("AAPL", fmt.Sprintf("2024-03-%02d", i+1), "100", "55.5", "1000"))
	}
	rows = append(rows, raw("AAPL", "2024-03-11", "1000", "55.5", "1000"))

	table, rep, err := New().Clean(rows)
	require.NoError(t, err)
	assert.Equal(t, 10, table.Len())
	assert.Equal(t, 1, rep.Outliers)
}

func TestCleanMalformedNumericFails(t *testing.T) {
	t.Parallel()

	rows := []models.RawRecord{
		raw("AAPL", "2024-01-02", "100", "101", "1000"),
		raw("MSFT", "2024-01-02", "abc", "301", "2000"),
	}

	_, _, err := New().Clean(rows)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrMalformedRow))

	var rowErr *models.RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 1, rowErr.Row)
	assert.Equal(t, "Open", rowErr.Field)
}

func TestCleanTruncatesNonIntegralVolume(t *testing.T) {
	t.Parallel()

	rows := []models.RawRecord{
		raw("AAPL", "2024-01-02", "100", "101", "10"),
		raw("MSFT", "2024-01-03", "100", "101", "10.5"),
		raw("IBM", "2024-01-04", "100", "101", "11.99"),
	}

	table, _, err := New().Clean(rows)
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, int64(10), table.Rows[1].Volume)
	assert.Equal(t, int64(11), table.Rows[2].Volume)
}

func TestCleanVolumeOutOfRangeFails(t *testing.T) {
	t.Parallel()

	rows := []models.RawRecord{
		raw("AAPL", "2024-01-02", "100", "101", "10"),
		raw("MSFT", "2024-01-03", "100", "101", "1e30"),
		raw("IBM", "2024-01-04", "100", "101", "11"),
	}

	_, _, err := New().Clean(rows)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrMalformedRow)

	var rowErr *models.RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 1, rowErr.Row)
	assert.Equal(t, "Volume", rowErr.Field)
}

func TestCleanIsIdempotent(t *testing.T) {
	t.Parallel()

	rows := []models.RawRecord{
		raw("AAPL", "2024-01-02", "100.25", "101", "1000"),
		raw("AAPL", "2024-01-02", "100.25", "101", "1000"),
		raw("AAPL", "2024-01-02", "100.250", "101.0", "1e3"),
		raw("MSFT", "2024-01-02", "300", "", "2000"),
		raw("", "2024-01-02", "1", "1", "1"),
		raw("IBM", "2024-01-03", "150", "151", "3000"),
		raw("TSLA", "2024/01/04", "200", "199.5", "4000"),
	}

	c := New()
	first, _, err := c.Clean(rows)
	require.NoError(t, err)
	require.Equal(t, 4, first.Len())

	second, rep, err := c.Clean(first.Raw())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Zero(t, rep.Dropped())
}

func TestCleanDeduplicatesEquivalentSpellings(t *testing.T) {
	t.Parallel()

	rows := []models.RawRecord{
		raw("ABC", "2024-01-01", "100", "102", "1000"),
		raw("ABC", "2024-01-01", "100.0", "102", "1000"),
		raw("ABC", "2024-01-01", "1e2", "102.00", "1e3"),
		raw("ABC", "2024/01/01", "100", "102", "1000.4"),
		raw("XYZ", "2024-01-01", "50", "51", "500"),
	}

	c := New()
	first, rep, err := c.Clean(rows)
	require.NoError(t, err)
	require.Equal(t, 2, first.Len())
	assert.Equal(t, 3, rep.Duplicates)
	assert.Equal(t, "ABC", first.Rows[0].Symbol)
	assert.Equal(t, "XYZ", first.Rows[1].Symbol)

	second, rep, err := c.Clean(first.Raw())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Zero(t, rep.Dropped())
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	rows := []models.RawRecord{
		raw(" AAPL ", "2024-01-02", "", "101", "1000"),
		raw("AAPL", "2024-01-02", "", "101", "1000"),
	}
	snapshot := append([]models.RawRecord(nil), rows...)

	_, _, err := New().Clean(rows)
	require.NoError(t, err)
	assert.Equal(t, snapshot, rows)
}

func TestCleanEmptyInput(t *testing.T) {
	t.Parallel()

	table, rep, err := New().Clean(nil)
	require.NoError(t, err)
	assert.Zero(t, table.Len())
	assert.Zero(t, rep.Output)
}
