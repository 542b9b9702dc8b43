package calc

import (
	"math"
	"testing"
)

func TestSafeDiv(t *testing.T) {
	if v, ok := SafeDiv(10, 4); !ok || v != 2.5 {
		t.Errorf("Expected 2.5, got %f (ok=%v)", v, ok)
	}

	// Exactly zero and near-zero denominators report no value.
	if _, ok := SafeDiv(10, 0); ok {
		t.Error("Expected no value for zero denominator")
	}
	if _, ok := SafeDiv(10, 1e-13); ok {
		t.Error("Expected no value for denominator below epsilon")
	}
	if _, ok := SafeDiv(10, -1e-13); ok {
		t.Error("Expected no value for negative denominator below epsilon")
	}

	// The cutoff is strict: |d| == epsilon still divides.
	if v, ok := SafeDiv(1, DenominatorEpsilon); !ok || v != 1/DenominatorEpsilon {
		t.Errorf("Expected exact quotient at the epsilon boundary, got %f (ok=%v)", v, ok)
	}

	// When defined, the quotient is exact n/d.
	cases := [][2]float64{{7, 3}, {-7, 3}, {0, 5}, {1e9, -2e-3}}
	for _, c := range cases {
		v, ok := SafeDiv(c[0], c[1])
		if !ok || v != c[0]/c[1] {
			t.Errorf("SafeDiv(%g, %g) = %g, expected %g", c[0], c[1], v, c[0]/c[1])
		}
	}
}

func TestAverage(t *testing.T) {
	if _, ok := Average(nil); ok {
		t.Error("Expected no value for empty slice")
	}
	if v, ok := Average([]float64{1, 2, 3, 4}); !ok || v != 2.5 {
		t.Errorf("Expected 2.5, got %f", v)
	}
}

func TestRollingAverage(t *testing.T) {
	values := []float64{10, 20, 30, 40}
	// Window 2 averages the two most recent observations.
	if v, ok := RollingAverage(values, 2); !ok || v != 35 {
		t.Errorf("Expected 35, got %f", v)
	}
	// Window larger than the series averages everything.
	if v, ok := RollingAverage(values, 10); !ok || v != 25 {
		t.Errorf("Expected 25, got %f", v)
	}
	if _, ok := RollingAverage(values, 0); ok {
		t.Error("Expected no value for non-positive window")
	}
}

func TestToBasisPoints(t *testing.T) {
	if bps := ToBasisPoints(0.0125); math.Abs(bps-125) > 1e-9 {
		t.Errorf("Expected 125bps, got %f", bps)
	}
}
