package calc

// =============================================================================
// WORKING CAPITAL EFFICIENCY
// =============================================================================

// DaysInPeriod is the annualization convention for the cycle metrics.
const DaysInPeriod = 365

// DaysSalesOutstanding computes DSO = AR / Revenue × days.
func DaysSalesOutstanding(accountsReceivable, revenue float64) (float64, bool) {
	ratio, ok := SafeDiv(accountsReceivable, revenue)
	if !ok {
		return 0, false
	}
	return ratio * DaysInPeriod, true
}

// DaysInventoryOnHand computes DIH = Inventory / COGS × days.
func DaysInventoryOnHand(inventory, costOfGoodsSold float64) (float64, bool) {
	ratio, ok := SafeDiv(inventory, costOfGoodsSold)
	if !ok {
		return 0, false
	}
	return ratio * DaysInPeriod, true
}

// DaysPayablesOutstanding computes DPO = AP / COGS × days.
func DaysPayablesOutstanding(accountsPayable, costOfGoodsSold float64) (float64, bool) {
	ratio, ok := SafeDiv(accountsPayable, costOfGoodsSold)
	if !ok {
		return 0, false
	}
	return ratio * DaysInPeriod, true
}

// CashConversionCycle computes CCC = DSO + DIH - DPO.
func CashConversionCycle(dso, dih, dpo float64) float64 {
	return dso + dih - dpo
}

// NetWorkingCapital computes current assets minus current liabilities.
func NetWorkingCapital(currentAssets, currentLiabilities float64) float64 {
	return currentAssets - currentLiabilities
}

// WorkingCapitalTurnover computes how many times revenue covers net
// working capital.
func WorkingCapitalTurnover(revenue, averageNetWorkingCapital float64) (float64, bool) {
	return SafeDiv(revenue, averageNetWorkingCapital)
}
