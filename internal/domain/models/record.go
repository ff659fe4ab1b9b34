package models

import (
	"strconv"
	"time"
)

// DateLayout is the canonical calendar-date layout used when a cleaned date is rendered back to text.
const DateLayout = "2006-01-02"

// RawRecord is one row of the source table. Numeric cells are kept as text until cleaning.
type RawRecord struct {
	Symbol string
	Date   string
	Open   string
	Close  string
	Volume string
}

// CleanRecord is a row that survived every cleaning step.
type CleanRecord struct {
	Symbol string
	Date   time.Time
	Open   float64
	Close  float64
	Volume int64
}

// Raw renders the record back into source form.
func (r CleanRecord) Raw() RawRecord {
	return RawRecord{
		Symbol: r.Symbol,
		Date:   r.Date.Format(DateLayout),
		Open:   strconv.FormatFloat(r.Open, 'f', -1, 64),
		Close:  strconv.FormatFloat(r.Close, 'f', -1, 64),
		Volume: strconv.FormatInt(r.Volume, 10),
	}
}

// CleanedTable is the ordered output of the cleaner.
type CleanedTable struct {
	Rows []CleanRecord
}

// Len returns number of rows.
func (t CleanedTable) Len() int { return len(t.Rows) }

// Raw re-renders all rows as RawRecords, preserving order.
func (t CleanedTable) Raw() []RawRecord {
	out := make([]RawRecord, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Raw()
	}
	return out
}

// Head returns the first n rows. n <= 0 returns the whole table.
func (t CleanedTable) Head(n int) []CleanRecord {
	if n <= 0 || n >= len(t.Rows) {
		return t.Rows
	}
	return t.Rows[:n]
}

// CleanReport counts rows removed by each cleaning step.
type CleanReport struct {
	Input          int `json:"input"`
	MissingKey     int `json:"missing_key"`
	Duplicates     int `json:"duplicates"`
	BadDate        int `json:"bad_date"`
	Outliers       int `json:"outliers"`
	Output         int `json:"output"`
	FilledNumerics int `json:"filled_numerics"`
}

// Dropped returns the total number of dropped rows.
func (r CleanReport) Dropped() int {
	return r.MissingKey + r.Duplicates + r.BadDate + r.Outliers
}
