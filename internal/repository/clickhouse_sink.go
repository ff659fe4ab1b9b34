package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"FinEnrich/internal/domain/models"
	"FinEnrich/internal/domain/repository"
)

const clickHouseChunkSize = 2000

const clickHouseColumns = "symbol, date, open, close, volume_csv, latest_price, live_volume, usd_to_local_rate, sentiment_score, sentiment, news, impact_score, ts"

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ClickHouseSink appends records to a MergeTree table for analytics.
type ClickHouseSink struct {
	db    execer
	table string
}

// NewClickHouseSink creates a sink inserting into table (optionally db-qualified).
func NewClickHouseSink(db *sql.DB, table string) repository.Sink {
	return &ClickHouseSink{db: db, table: table}
}

// ClickHouseSchema returns idempotent DDL for the sink table.
func ClickHouseSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    symbol LowCardinality(String),
    date Date,
    open Float64,
    close Float64,
    volume_csv Int64,
    latest_price Nullable(Float64),
    live_volume Nullable(Int64),
    usd_to_local_rate Nullable(Float64),
    sentiment_score Float64,
    sentiment String,
    news String,
    impact_score Float64,
    ts DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (symbol, date, ts)`, database, table),
	}
}

func (s *ClickHouseSink) Name() string { return "clickhouse" }

// Write inserts in multi-row chunks. On failure the count covers the chunks already committed.
func (s *ClickHouseSink) Write(ctx context.Context, records []models.EnrichedRecord) (int, error) {
	written := 0
	for start := 0; start < len(records); start += clickHouseChunkSize {
		end := min(start+clickHouseChunkSize, len(records))
		chunk := records[start:end]

		values := make([]string, len(chunk))
		args := make([]any, 0, len(chunk)*13)
		for i, r := range chunk {
			row, err := clickHouseArgs(r)
			if err != nil {
				return written, err
			}
			values[i] = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
			args = append(args, row...)
		}

		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, clickHouseColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return written, fmt.Errorf("insert chunk at %d: %w", start, err)
		}
		written += len(chunk)
	}
	return written, nil
}

func clickHouseArgs(r models.EnrichedRecord) ([]any, error) {
	date, err := time.Parse(models.DateLayout, r.Date)
	if err != nil {
		return nil, fmt.Errorf("record %s: date %q: %w", r.Symbol, r.Date, err)
	}
	sentiment, err := json.Marshal(r.Sentiment)
	if err != nil {
		return nil, fmt.Errorf("record %s: encode sentiment: %w", r.Symbol, err)
	}
	news := r.News
	if news == nil {
		news = []models.NewsItem{}
	}
	newsJSON, err := json.Marshal(news)
	if err != nil {
		return nil, fmt.Errorf("record %s: encode news: %w", r.Symbol, err)
	}

	return []any{
		r.Symbol,
		date,
		r.Open,
		r.Close,
		r.VolumeFromSource,
		r.LatestPrice,
		r.LiveVolume,
		r.USDToLocalRate,
		r.Sentiment.Score,
		string(sentiment),
		string(newsJSON),
		r.ImpactScore,
		r.GeneratedAt.UTC(),
	}, nil
}
