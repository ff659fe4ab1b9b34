package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"FinEnrich/internal/domain/models"
	"FinEnrich/internal/domain/repository"
)

// requiredColumns are matched case-insensitively against the header row.
var requiredColumns = []string{"symbol", "date", "open", "close", "volume"}

// CSVSource reads the raw stock table from a CSV file with a header row.
type CSVSource struct {
	path string
}

// NewCSVSource creates a CSV source reader.
func NewCSVSource(path string) repository.SourceReader {
	return &CSVSource{path: path}
}

// Ingest loads every data row in file order. Any failure is reported as ErrSourceUnavailable.
func (s *CSVSource) Ingest(ctx context.Context) ([]models.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	defer f.Close()

	return readRecords(ctx, f)
}

func readRecords(ctx context.Context, in io.Reader) ([]models.RawRecord, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", models.ErrSourceUnavailable)
		}
		return nil, fmt.Errorf("%w: read header: %v", models.ErrSourceUnavailable, err)
	}

	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	cell := func(row []string, col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []models.RawRecord
	for line := 2; ; line++ {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", models.ErrSourceUnavailable, line, err)
		}
		out = append(out, models.RawRecord{
			Symbol: cell(row, "symbol"),
			Date:   cell(row, "date"),
			Open:   cell(row, "open"),
			Close:  cell(row, "close"),
			Volume: cell(row, "volume"),
		})
	}
	return out, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", models.ErrSourceUnavailable, strings.Join(missing, ", "))
	}
	return idx, nil
}
