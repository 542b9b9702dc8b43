package calc

// =============================================================================
// UNIT ECONOMICS (marketplace and subscription metrics)
// =============================================================================

// TakeRate computes the platform take rate = revenue / gross bookings.
func TakeRate(revenue, grossBookings float64) (float64, bool) {
	return SafeDiv(revenue, grossBookings)
}

// NetRevenueRetention computes NRR.
//
// FORMULA: (Start + Expansions - Contractions - Churn) / Start
func NetRevenueRetention(startingARR, expansions, contractions, churn float64) (float64, bool) {
	ending := startingARR + expansions - contractions - churn
	return SafeDiv(ending, startingARR)
}

// GrossRevenueRetention computes GRR = (Start - Churn) / Start.
func GrossRevenueRetention(startingARR, churn float64) (float64, bool) {
	return SafeDiv(startingARR-churn, startingARR)
}

// CustomerAcquisitionCost computes CAC = S&M spend / net new customers.
func CustomerAcquisitionCost(salesAndMarketingSpend, netNewCustomers float64) (float64, bool) {
	return SafeDiv(salesAndMarketingSpend, netNewCustomers)
}

// ContributionMargin computes (revenue - variable costs) / revenue.
func ContributionMargin(revenue, variableCosts float64) (float64, bool) {
	return SafeDiv(revenue-variableCosts, revenue)
}

// PaybackPeriodMonths computes CAC payback in months given gross profit
// per customer per period.
func PaybackPeriodMonths(cac, grossProfitPerCustomerPerPeriod float64, periodsPerYear int) (float64, bool) {
	paybackPeriods, ok := SafeDiv(cac, grossProfitPerCustomerPerPeriod)
	if !ok {
		return 0, false
	}
	if periodsPerYear <= 0 {
		return 0, false
	}
	monthsPerPeriod := 12.0 / float64(periodsPerYear)
	return paybackPeriods * monthsPerPeriod, true
}

// LTVToCAC returns the LTV/CAC ratio.
func LTVToCAC(lifetimeValue, cac float64) (float64, bool) {
	return SafeDiv(lifetimeValue, cac)
}
