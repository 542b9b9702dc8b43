package calc

import "math"

// =============================================================================
// BALANCE-SHEET RESILIENCE & SOLVENCY
// =============================================================================

// NetDebt computes total debt minus cash and equivalents.
func NetDebt(totalDebt, cashAndEquivalents float64) float64 {
	return totalDebt - cashAndEquivalents
}

// NetLeverageRatio computes Net Debt / EBITDA.
func NetLeverageRatio(totalDebt, cashAndEquivalents, ebitda float64) (float64, bool) {
	return SafeDiv(NetDebt(totalDebt, cashAndEquivalents), ebitda)
}

// InterestCoverage computes EBIT / |interest expense|.
func InterestCoverage(ebit, interestExpense float64) (float64, bool) {
	return SafeDiv(ebit, math.Abs(interestExpense))
}

// FCFInterestCoverage computes FCF / |interest expense|.
func FCFInterestCoverage(freeCashFlow, interestExpense float64) (float64, bool) {
	return SafeDiv(freeCashFlow, math.Abs(interestExpense))
}

// TwentyFourMonthCoverage is the liquidity coverage of debt maturing
// within 24 months.
//
// FORMULA: (Cash + Expected FCF next 8Q + Undrawn Revolver) / Debt due 24m
func TwentyFourMonthCoverage(cash, expectedFCFNext8Q, undrawnRevolver, debtDue24M float64) (float64, bool) {
	return SafeDiv(cash+expectedFCFNext8Q+undrawnRevolver, debtDue24M)
}

// RunwayMonths computes the cash runway in months.
//
// Burn is derived from TTM FCF; a company with non-negative TTM FCF has an
// unbounded runway, reported as +Inf by convention.
func RunwayMonths(cash, undrawnRevolver, minimumCash, ttmFreeCashFlow float64) float64 {
	availableLiquidity := cash + undrawnRevolver - minimumCash
	monthlyBurn := math.Max(0, -ttmFreeCashFlow/12.0)
	if monthlyBurn == 0 {
		return math.Inf(1)
	}
	if availableLiquidity <= 0 {
		return 0
	}
	return availableLiquidity / monthlyBurn
}
