package engine

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// zeroStdTolerance treats a relative spread below this as a constant series.
const zeroStdTolerance = 1e-12

// zscore normalizes x with the population standard deviation. A constant
// series normalizes to all zeros.
func zscore(x []float64) []float64 {
	out := make([]float64, len(x))
	mean, std := stat.PopMeanStdDev(x, nil)
	if std <= zeroStdTolerance*math.Max(1, math.Abs(mean)) {
		return out
	}
	for i, v := range x {
		out[i] = (v - mean) / std
	}
	return out
}

func popVariance(x []float64) float64 {
	_, v := stat.PopMeanVariance(x, nil)
	return v
}

// pearson returns the correlation coefficient of x and y, or 0 when either
// series has zero variance.
func pearson(x, y []float64) float64 {
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	return clamp(c, -1, 1)
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

func finiteSeries(xs ...[]float64) bool {
	for _, x := range xs {
		for _, v := range x {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
