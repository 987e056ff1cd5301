// Package testutil holds signal generators and comparison helpers shared by
// the engine tests.
package testutil

import (
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireSilent fails t if any sample is not exactly zero.
func RequireSilent(t testing.TB, data []float64) {
	t.Helper()
	for i, v := range data {
		if v != 0 {
			t.Fatalf("index %d: got %v, want silence", i, v)
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t testing.TB, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequireMonotonic fails t unless data never decreases (rising=true) or
// never increases (rising=false).
func RequireMonotonic(t testing.TB, data []float64, rising bool) {
	t.Helper()
	for i := 1; i < len(data); i++ {
		if rising && data[i] < data[i-1] || !rising && data[i] > data[i-1] {
			t.Fatalf("index %d: %v after %v breaks monotonic order", i, data[i], data[i-1])
		}
	}
}
