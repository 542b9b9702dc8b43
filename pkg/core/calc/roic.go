package calc

// =============================================================================
// RETURN ON INVESTED CAPITAL
// =============================================================================

// NOPAT computes net operating profit after tax.
//
// FORMULA: EBIT × (1 - tax rate)
func NOPAT(ebit, taxRate float64) float64 {
	return ebit * (1.0 - taxRate)
}

// InvestedCapital computes equity + debt - cash - non-operating assets.
func InvestedCapital(totalEquity, totalDebt, cashAndEquivalents, nonOperatingAssets float64) float64 {
	return totalEquity + totalDebt - cashAndEquivalents - nonOperatingAssets
}

// ROIC computes NOPAT / invested capital.
func ROIC(nopat, investedCapital float64) (float64, bool) {
	return SafeDiv(nopat, investedCapital)
}

// IncrementalROIC computes ΔNOPAT / ΔInvested Capital.
func IncrementalROIC(nopatCurrent, nopatPrior, investedCurrent, investedPrior float64) (float64, bool) {
	return SafeDiv(nopatCurrent-nopatPrior, investedCurrent-investedPrior)
}
