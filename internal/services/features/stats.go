package features

import "math"

// ColumnStats holds the population mean and standard deviation of a numeric column.
type ColumnStats struct {
	N    int
	Mean float64
	Std  float64
}

// ComputeStats computes population statistics in two passes.
// Returns zero stats for an empty column.
func ComputeStats(xs []float64) ColumnStats {
	if len(xs) == 0 {
		return ColumnStats{}
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	n := float64(len(xs))
	mean := sum / n

	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	variance := ss / n
	if variance < 0 {
		variance = 0
	}
	return ColumnStats{N: len(xs), Mean: mean, Std: math.Sqrt(variance)}
}

// ZScore returns (x - mean) / std. A zero-variance column yields 0 for every value.
func (s ColumnStats) ZScore(x float64) float64 {
	if s.Std == 0 {
		return 0
	}
	return (x - s.Mean) / s.Std
}

// ZScores computes the z-score of every value in xs.
func ZScores(xs []float64) []float64 {
	st := ComputeStats(xs)
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = st.ZScore(x)
	}
	return out
}
