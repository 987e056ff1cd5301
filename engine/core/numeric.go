package core

import "math"

const defaultEpsilon = 1e-12

// MinusInfinityDB is the decibel floor treated as silence by gain controls.
const MinusInfinityDB = -100.0

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// DBToGain converts decibels to a linear gain factor. Values at or below
// MinusInfinityDB map to 0.
func DBToGain(db float64) float64 {
	if db <= MinusInfinityDB {
		return 0
	}

	return math.Pow(10, db/20)
}

// GainToDB converts a linear gain factor to decibels, floored at
// MinusInfinityDB.
func GainToDB(gain float64) float64 {
	if gain <= 0 {
		return MinusInfinityDB
	}

	return math.Max(MinusInfinityDB, 20*math.Log10(gain))
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
