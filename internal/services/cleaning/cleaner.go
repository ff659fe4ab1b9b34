package cleaning

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"FinEnrich/internal/domain/models"
	"FinEnrich/internal/services/features"
	"FinEnrich/pkg/util"
)

// DefaultZThreshold drops rows whose absolute z-score exceeds this value in any numeric column.
const DefaultZThreshold = 3.0

// zTolerance absorbs rounding at the threshold. Over n rows the population |z| is bounded by
// sqrt(n-1), so a 10-row table peaks at exactly 3 and must not flip on the last bit.
const zTolerance = 1e-9

// missing lists cell values treated as absent numerics (compared case-insensitively).
var missing = map[string]struct{}{
	"":     {},
	"nan":  {},
	"null": {},
	"na":   {},
	"n/a":  {},
	"none": {},
}

// Option configures Cleaner.
type Option func(*Cleaner)

// Cleaner turns raw source rows into a CleanedTable.
type Cleaner struct {
	zThreshold float64
}

// New creates a Cleaner.
func New(opts ...Option) *Cleaner {
	c := &Cleaner{zThreshold: DefaultZThreshold}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithZThreshold overrides the outlier cut-off.
func WithZThreshold(z float64) Option {
	return func(c *Cleaner) {
		if z > 0 {
			c.zThreshold = z
		}
	}
}

// candidate carries a row through the steps together with its source index.
type candidate struct {
	idx  int
	raw  models.RawRecord
	rec  models.CleanRecord
	vals [3]float64
}

// Clean runs fill, drop, dedup, date parse, outlier rejection and coercion in that order.
// The input slice is not modified and relative order is preserved.
func (c *Cleaner) Clean(rows []models.RawRecord) (models.CleanedTable, models.CleanReport, error) {
	rep := models.CleanReport{Input: len(rows)}

	// fill + drop rows missing a key
	filled := make([]candidate, 0, len(rows))
	for i, r := range rows {
		r = models.RawRecord{
			Symbol: strings.TrimSpace(r.Symbol),
			Date:   strings.TrimSpace(r.Date),
			Open:   fillNumeric(r.Open, &rep.FilledNumerics),
			Close:  fillNumeric(r.Close, &rep.FilledNumerics),
			Volume: fillNumeric(r.Volume, &rep.FilledNumerics),
		}
		if r.Symbol == "" || r.Date == "" {
			rep.MissingKey++
			continue
		}
		filled = append(filled, candidate{idx: i, raw: r})
	}

	// duplicates of an earlier retained row, compared by value rather than by spelling
	seen := make(map[models.RawRecord]struct{}, len(filled))
	unique := filled[:0]
	for _, cd := range filled {
		key := dedupKey(cd.raw)
		if _, dup := seen[key]; dup {
			rep.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, cd)
	}

	dated := unique[:0]
	for _, cd := range unique {
		d, ok := util.ParseDate(cd.raw.Date)
		if !ok {
			rep.BadDate++
			continue
		}
		cd.rec = models.CleanRecord{Symbol: cd.raw.Symbol, Date: d}
		dated = append(dated, cd)
	}

	if err := parseNumerics(dated); err != nil {
		return models.CleanedTable{}, rep, err
	}

	kept := c.rejectOutliers(dated, &rep)

	out := make([]models.CleanRecord, 0, len(kept))
	for _, cd := range kept {
		vol, err := toVolume(cd.vals[2])
		if err != nil {
			return models.CleanedTable{}, rep, &models.RowError{Row: cd.idx, Field: "Volume", Value: cd.raw.Volume, Err: err}
		}
		rec := cd.rec
		rec.Open = cd.vals[0]
		rec.Close = cd.vals[1]
		rec.Volume = vol
		out = append(out, rec)
	}

	rep.Output = len(out)
	return models.CleanedTable{Rows: out}, rep, nil
}

func (c *Cleaner) rejectOutliers(rows []candidate, rep *models.CleanReport) []candidate {
	var zs [3][]float64
	col := make([]float64, len(rows))
	for j := range zs {
		for i, cd := range rows {
			col[i] = cd.vals[j]
		}
		zs[j] = features.ZScores(col)
	}

	limit := c.zThreshold + zTolerance
	kept := make([]candidate, 0, len(rows))
	for i, cd := range rows {
		outlier := false
		for j := range zs {
			if math.Abs(zs[j][i]) > limit {
				outlier = true
				break
			}
		}
		if outlier {
			rep.Outliers++
			continue
		}
		kept = append(kept, cd)
	}
	return kept
}

func fillNumeric(s string, filled *int) string {
	s = strings.TrimSpace(s)
	if _, ok := missing[strings.ToLower(s)]; ok {
		*filled++
		return "0"
	}
	return s
}

func parseNumerics(rows []candidate) error {
	fields := [3]string{"Open", "Close", "Volume"}
	for i := range rows {
		cells := [3]string{rows[i].raw.Open, rows[i].raw.Close, rows[i].raw.Volume}
		for j, cell := range cells {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return &models.RowError{
					Row:   rows[i].idx,
					Field: fields[j],
					Value: cell,
					Err:   fmt.Errorf("%w: not a finite number", models.ErrMalformedRow),
				}
			}
			rows[i].vals[j] = v
		}
		// volume is an integer column; outliers are judged on the value that is kept
		rows[i].vals[2] = math.Trunc(rows[i].vals[2])
	}
	return nil
}

// dedupKey renders a filled row in canonical form so "100", "100.0" and "1e2" collide.
// Cells that do not parse are kept verbatim and fail later in parseNumerics.
func dedupKey(r models.RawRecord) models.RawRecord {
	if d, ok := util.ParseDate(r.Date); ok {
		r.Date = d.Format(models.DateLayout)
	}
	r.Open = canonicalNumber(r.Open, false)
	r.Close = canonicalNumber(r.Close, false)
	r.Volume = canonicalNumber(r.Volume, true)
	return r
}

func canonicalNumber(s string, integral bool) string {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return s
	}
	if integral {
		v = math.Trunc(v)
	}
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func toVolume(v float64) (int64, error) {
	if v >= math.MaxInt64 || v < math.MinInt64 {
		return 0, fmt.Errorf("%w: volume out of range", models.ErrMalformedRow)
	}
	return int64(v), nil
}
