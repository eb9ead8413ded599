package services

import "math"

const (
	minRating = 0.0
	maxRating = 5.0
)

// NextRating folds value into an incremental average, clamping the result
// to [0, 5] and rounding it to one decimal.
func NextRating(oldRating float64, oldCount int, value float64) (float64, int) {
	if oldCount < 0 {
		oldCount = 0
	}
	count := oldCount + 1
	avg := (oldRating*float64(oldCount) + value) / float64(count)
	avg = math.Max(minRating, math.Min(maxRating, avg))
	return math.Round(avg*10) / 10, count
}
