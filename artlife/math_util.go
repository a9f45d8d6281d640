package artlife

import (
	"math"
	"sort"
)

// roundNearest rounds to the nearest integer with ties going to the even
// neighbour (0.5 -> 0, 1.5 -> 2, 2.5 -> 2). Every "round to nearest" in the
// codec and the operators goes through here.
func roundNearest(x float64) int {
	return int(math.RoundToEven(x))
}

// clampGene restricts an integer gene value to [0, 255].
func clampGene(v int) GeneID {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return GeneID(v)
}

// cellCount returns round(percent/100 * total).
func cellCount(percent, total int) int {
	return roundNearest(float64(percent*total) / 100.0)
}

// linspaceInts returns n evenly spaced values from start to stop inclusive,
// each rounded to the nearest integer. n == 1 yields just start.
func linspaceInts(start, stop float64, n int) []int {
	if n <= 0 {
		return []int{}
	}
	out := make([]int, n)
	if n == 1 {
		out[0] = roundNearest(start)
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = roundNearest(start + step*float64(i))
	}
	// Pin the end point against accumulated float error.
	out[n-1] = roundNearest(stop)
	return out
}

// --- Statistical Functions ---

// Mean calculates the average of a slice of float64 values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	return Sum(values) / float64(len(values))
}

// Sum calculates the sum of a slice of float64 values.
func Sum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// MaxFloat calculates the maximum value in a slice of float64 values.
// Returns negative infinity if the slice is empty.
func MaxFloat(values []float64) float64 {
	if len(values) == 0 {
		return math.Inf(-1)
	}
	maxVal := values[0]
	for i := 1; i < len(values); i++ {
		if values[i] > maxVal {
			maxVal = values[i]
		}
	}
	return maxVal
}

// Median calculates the median of a slice of float64 values.
// Returns NaN if the slice is empty.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2.0
}
