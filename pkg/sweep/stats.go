package sweep

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// durationStats returns the mean and sample standard deviation of ds.
// The deviation of fewer than two samples is zero.
func durationStats(ds []time.Duration) (mean, stddev time.Duration) {
	if len(ds) == 0 {
		return 0, 0
	}
	xs := make([]float64, len(ds))
	for i, d := range ds {
		xs[i] = float64(d)
	}
	if len(xs) == 1 {
		return ds[0], 0
	}
	m, s := stat.MeanStdDev(xs, nil)
	if math.IsNaN(s) {
		s = 0
	}
	return time.Duration(m), time.Duration(s)
}
