// Package calc provides the deterministic financial calculation library:
// accrual quality, solvency, working-capital cycle, unit economics, ROIC
// and DCF/IRR primitives. Every function is pure and side-effect free.
//
// Missing or uncomputable results are reported as (0, false), never as an
// error and never as NaN/Inf. This is the single "no value" convention the
// metric builder converts into the ABSTAIN sentinel.
package calc

// DenominatorEpsilon is the cutoff below which a denominator is treated as
// zero. SafeDiv reports no value for any |d| < DenominatorEpsilon.
const DenominatorEpsilon = 1e-12

// SafeDiv returns n/d, guarding against division by (near-)zero.
//
// The second return is false iff |d| < DenominatorEpsilon; otherwise the
// quotient is exact.
func SafeDiv(n, d float64) (float64, bool) {
	if d < DenominatorEpsilon && d > -DenominatorEpsilon {
		return 0, false
	}
	return n / d, true
}

// Average computes the arithmetic mean of a non-empty slice.
func Average(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// RollingAverage averages the most recent window observations.
func RollingAverage(values []float64, window int) (float64, bool) {
	if window <= 0 {
		return 0, false
	}
	if len(values) > window {
		values = values[len(values)-window:]
	}
	return Average(values)
}

// ToBasisPoints converts a decimal rate to basis points.
func ToBasisPoints(rate float64) float64 {
	return rate * 10_000
}
