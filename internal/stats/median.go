package stats

import (
	"slices"
	"time"
)

// Number is the set of value types the summary helpers accept.
type Number interface {
	~int | ~int64 | ~float64
}

// Median returns the middle value of values sorted numerically, or the mean
// of the two middle values for even lengths. The input is not modified.
// The second result is false for an empty input.
func Median[T Number](values []T) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	middle := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[middle]), true
	}
	return (float64(sorted[middle-1]) + float64(sorted[middle])) / 2, true
}

// MedianDuration is Median for durations, truncated to whole nanoseconds.
func MedianDuration(values []time.Duration) (time.Duration, bool) {
	m, ok := Median(values)
	return time.Duration(m), ok
}

// Min returns the smallest value; the second result is false for an empty input.
func Min[T Number](values []T) (T, bool) {
	if len(values) == 0 {
		var zero T
		return zero, false
	}
	return slices.Min(values), true
}

// Max returns the largest value; the second result is false for an empty input.
func Max[T Number](values []T) (T, bool) {
	if len(values) == 0 {
		var zero T
		return zero, false
	}
	return slices.Max(values), true
}
