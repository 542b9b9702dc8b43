package calc

// =============================================================================
// ACCRUAL QUALITY
// =============================================================================

// AccrualsRatio computes the Sloan accruals ratio.
//
// FORMULA: (Net Income - CFO) / Average Total Assets
//
// A ratio far from zero means earnings are running ahead of (or behind)
// cash collection, which is the classic earnings-quality red flag.
func AccrualsRatio(netIncome, cashFromOperations, averageTotalAssets float64) (float64, bool) {
	return SafeDiv(netIncome-cashFromOperations, averageTotalAssets)
}

// BalanceSheetAccruals computes the balance-sheet based accruals ratio
// per Sloan (1996).
//
// FORMULA: ((ΔCA - ΔCash) - (ΔCL - ΔSTD)) / Average Total Assets
func BalanceSheetAccruals(
	deltaCurrentAssets,
	deltaCash,
	deltaCurrentLiabilities,
	deltaShortTermDebt,
	averageTotalAssets float64,
) (float64, bool) {
	numerator := (deltaCurrentAssets - deltaCash) - (deltaCurrentLiabilities - deltaShortTermDebt)
	return SafeDiv(numerator, averageTotalAssets)
}
