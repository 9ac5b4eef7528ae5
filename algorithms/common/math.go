package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions used across algorithms using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// Variance calculates the sample variance of a slice using gonum
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.Variance(data, nil)
}

// StandardDeviation calculates the sample standard deviation
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return math.Sqrt(Variance(data))
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Norm(data, 2) / math.Sqrt(float64(len(data)))
}

// MinMaxNormalize shifts data so its minimum is zero and scales it so its
// maximum is one. Constant input normalizes to all zeros.
func MinMaxNormalize(data []float64) []float64 {
	if len(data) == 0 {
		return data
	}

	min := floats.Min(data)
	max := floats.Max(data)

	normalized := make([]float64, len(data))
	if math.Abs(max-min) < 1e-10 {
		return normalized
	}

	for i, val := range data {
		normalized[i] = (val - min) / (max - min)
	}

	return normalized
}

// AnyNonZero reports whether any element differs from zero.
func AnyNonZero(data []float64) bool {
	for _, v := range data {
		if v != 0 {
			return true
		}
	}
	return false
}

// ArgMax returns the index of the first maximum, or -1 for empty input.
func ArgMax(data []float64) int {
	if len(data) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(data); i++ {
		if data[i] > data[best] {
			best = i
		}
	}
	return best
}

// Median returns the median of data without modifying it.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
