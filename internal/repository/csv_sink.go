package repository

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"FinEnrich/internal/domain/models"
	"FinEnrich/internal/domain/repository"
)

// CSVColumns is the header written by CSVSink.
var CSVColumns = []string{
	"symbol", "date", "open", "close", "volume_csv",
	"latest_price", "live_volume", "usd_to_local_rate",
	"sentiment", "news", "impact_score", "timestamp",
}

// CSVSink writes the batch to a single CSV file, replacing any previous run.
type CSVSink struct {
	path string
}

// NewCSVSink creates a CSV file sink.
func NewCSVSink(path string) repository.Sink {
	return &CSVSink{path: path}
}

func (s *CSVSink) Name() string { return "csv" }

// Write renders to a temp file next to path and renames it into place.
func (s *CSVSink) Write(ctx context.Context, records []models.EnrichedRecord) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeCSV(tmp, records); err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return 0, fmt.Errorf("replace %s: %w", s.path, err)
	}
	return len(records), nil
}

func writeCSV(f *os.File, records []models.EnrichedRecord) error {
	w := csv.NewWriter(f)
	if err := w.Write(CSVColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		row, err := csvRow(r)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	w.Flush()
	return w.Error()
}

func csvRow(r models.EnrichedRecord) ([]string, error) {
	sentiment, err := json.Marshal(r.Sentiment)
	if err != nil {
		return nil, fmt.Errorf("encode sentiment: %w", err)
	}
	news := r.News
	if news == nil {
		news = []models.NewsItem{}
	}
	newsJSON, err := json.Marshal(news)
	if err != nil {
		return nil, fmt.Errorf("encode news: %w", err)
	}

	return []string{
		r.Symbol,
		r.Date,
		formatFloat(r.Open),
		formatFloat(r.Close),
		strconv.FormatInt(r.VolumeFromSource, 10),
		optFloat(r.LatestPrice),
		optInt(r.LiveVolume),
		optFloat(r.USDToLocalRate),
		string(sentiment),
		string(newsJSON),
		formatFloat(r.ImpactScore),
		r.GeneratedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func optInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
