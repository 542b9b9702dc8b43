package calc

import (
	"math"
	"sort"
)

// =============================================================================
// COST OF CAPITAL
// =============================================================================

// MaxEquityAdjustmentBps bounds the qualitative cost-of-equity adjustment.
const MaxEquityAdjustmentBps = 150.0

// EnterpriseValue computes market equity plus net debt.
func EnterpriseValue(sharePrice, sharesDiluted, netDebt float64) float64 {
	return sharePrice*sharesDiluted + netDebt
}

// CAPMCostOfEquity calculates required return on equity using CAPM with a
// bounded qualitative adjustment.
//
// FORMULA: r_e = r_f + β × ERP + clamp(adj, ±150bps) / 10,000
func CAPMCostOfEquity(riskFreeRate, beta, equityRiskPremium, adjustmentBps float64) float64 {
	bounded := math.Max(-MaxEquityAdjustmentBps, math.Min(MaxEquityAdjustmentBps, adjustmentBps))
	return riskFreeRate + beta*equityRiskPremium + bounded/10_000.0
}

// AfterTaxCostOfDebt tax-effects the pretax cost of debt.
//
// FORMULA: r_d × (1 - T)
func AfterTaxCostOfDebt(pretaxCostOfDebt, taxRate float64) float64 {
	return pretaxCostOfDebt * (1 - taxRate)
}

// CapitalStructureWeights returns (equity weight, debt weight) from market
// values. Negative inputs are floored at zero; a zero total has no defined
// weights and reports no value.
func CapitalStructureWeights(marketEquityValue, marketDebtValue float64) (equityWeight, debtWeight float64, ok bool) {
	equity := math.Max(marketEquityValue, 0)
	debt := math.Max(marketDebtValue, 0)
	total := equity + debt
	if total == 0 {
		return 0, 0, false
	}
	return equity / total, debt / total, true
}

// WeightedAverageCostOfCapital computes the market-value weighted WACC.
//
// FORMULA: WACC = E/V × r_e + D/V × r_d(1-T)
func WeightedAverageCostOfCapital(costOfEquity, costOfDebtAfterTax, marketEquityValue, marketDebtValue float64) (float64, bool) {
	equityWeight, debtWeight, ok := CapitalStructureWeights(marketEquityValue, marketDebtValue)
	if !ok {
		return 0, false
	}
	return costOfEquity*equityWeight + costOfDebtAfterTax*debtWeight, true
}

// =============================================================================
// DCF PRIMITIVES
// =============================================================================

// TerminalValueGordon computes the Gordon-growth terminal value.
//
// FORMULA: TV = CF × (1 + g) / (r - g), defined only for r > g.
func TerminalValueGordon(finalCashFlow, discountRate, terminalGrowthRate float64) (float64, bool) {
	if discountRate <= terminalGrowthRate {
		return 0, false
	}
	return finalCashFlow * (1 + terminalGrowthRate) / (discountRate - terminalGrowthRate), true
}

// DiscountCashFlows returns the present value of a forward cash flow
// sequence, with the first flow one period out.
//
// FORMULA: PV = Σ CF_t / (1 + r)^t
func DiscountCashFlows(cashFlows []float64, discountRate float64) float64 {
	var pv float64
	for t, cf := range cashFlows {
		pv += cf / math.Pow(1+discountRate, float64(t+1))
	}
	return pv
}

// ReverseDCFEnterpriseValue computes the enterprise value implied by a
// free cash flow projection and a Gordon terminal value.
func ReverseDCFEnterpriseValue(projectedFCF []float64, wacc, terminalGrowthRate float64) (float64, bool) {
	if len(projectedFCF) == 0 {
		return 0, false
	}
	terminal, ok := TerminalValueGordon(projectedFCF[len(projectedFCF)-1], wacc, terminalGrowthRate)
	if !ok {
		return 0, false
	}
	pvFCF := DiscountCashFlows(projectedFCF, wacc)
	terminalPV := terminal / math.Pow(1+wacc, float64(len(projectedFCF)))
	return pvFCF + terminalPV, true
}

// ImpliedEquityValue converts enterprise value back to equity value.
func ImpliedEquityValue(enterpriseValue, netDebt float64) float64 {
	return enterpriseValue - netDebt
}

// ImpliedSharePrice computes equity value / diluted shares.
func ImpliedSharePrice(equityValue, sharesDiluted float64) (float64, bool) {
	return SafeDiv(equityValue, sharesDiluted)
}

// =============================================================================
// IRR SOLVER (Newton-Raphson)
// =============================================================================

const (
	irrDefaultGuess      = 0.10
	irrTolerance         = 1e-6
	irrMaxIterations     = 100
	irrDerivativeEpsilon = 1e-9
)

// InternalRateOfReturn solves for the IRR of a cash flow vector (period 0
// first) via Newton-Raphson. The second return is false when the solver
// fails to converge or its derivative underflows; callers must treat that
// as a first-class "no solution" outcome, never as a value to guess.
func InternalRateOfReturn(cashFlows []float64) (float64, bool) {
	if len(cashFlows) < 2 {
		return 0, false
	}

	rate := irrDefaultGuess
	for i := 0; i < irrMaxIterations; i++ {
		var npv, dNPV float64
		for period, cf := range cashFlows {
			denom := math.Pow(1+rate, float64(period))
			npv += cf / denom
			if period > 0 {
				dNPV -= float64(period) * cf / math.Pow(1+rate, float64(period+1))
			}
		}
		if math.Abs(dNPV) < irrDerivativeEpsilon {
			return 0, false
		}
		next := rate - npv/dNPV
		if math.Abs(next-rate) < irrTolerance {
			return next, true
		}
		rate = next
	}
	return 0, false
}

// BuildEquityCashFlows returns the per-share cash flow vector for the IRR
// calculation: buy one share at the current price, receive per-share FCF
// each period, and per-share terminal value on top of the final period.
func BuildEquityCashFlows(initialEquityOutlay float64, projectedFCF []float64, terminalValue, sharesDiluted float64) ([]float64, bool) {
	if len(projectedFCF) == 0 || sharesDiluted <= 0 {
		return nil, false
	}
	flows := make([]float64, 0, len(projectedFCF)+1)
	flows = append(flows, -initialEquityOutlay)
	for _, fcf := range projectedFCF[:len(projectedFCF)-1] {
		flows = append(flows, fcf/sharesDiluted)
	}
	final := projectedFCF[len(projectedFCF)-1]/sharesDiluted + terminalValue/sharesDiluted
	flows = append(flows, final)
	return flows, true
}

// ValuationSensitivity returns the points around a base rate for each
// requested delta.
func ValuationSensitivity(baseRate float64, deltas []float64) []float64 {
	points := make([]float64, len(deltas))
	for i, d := range deltas {
		points[i] = baseRate + d
	}
	return points
}

// =============================================================================
// SCENARIO IRR ANALYSIS
// =============================================================================

// IRRScenario is one named free-cash-flow scenario with its solved IRR.
// IRR is nil when the solver found no solution.
type IRRScenario struct {
	Name    string    `json:"name"`
	FCFPath []float64 `json:"fcf_path"`
	IRR     *float64  `json:"irr"`
}

// IRRAnalysisInput drives RunIRRAnalysis.
type IRRAnalysisInput struct {
	Price          float64
	Shares         float64
	NetDebt        float64
	WACC           float64
	TerminalGrowth float64
	// FCFPath is the Base scenario path.
	FCFPath []float64
	// Scenarios holds additional named paths (typically Bear and Bull).
	Scenarios map[string][]float64
	// ResolveSensitivity re-solves an IRR per perturbation instead of
	// reporting the perturbed rate point.
	ResolveSensitivity bool
}

// IRRAnalysis is the reverse-DCF result bundle.
type IRRAnalysis struct {
	IRR         *float64           `json:"irr"`
	Scenarios   []IRRScenario      `json:"scenarios"`
	Sensitivity map[string]float64 `json:"sensitivity"`
}

// scenarioRank orders Bear before Base before Bull; anything else sorts
// after, alphabetically.
func scenarioRank(name string) int {
	switch name {
	case "Bear":
		return 0
	case "Base":
		return 1
	case "Bull":
		return 2
	}
	return 3
}

// RunIRRAnalysis solves the base scenario IRR, any additional named
// scenario IRRs, and a sensitivity grid of WACC ±100bps and terminal
// growth ±50bps.
func RunIRRAnalysis(in IRRAnalysisInput) IRRAnalysis {
	analysis := IRRAnalysis{
		Sensitivity: map[string]float64{
			"wacc+100bps": in.WACC + 0.01,
			"wacc-100bps": in.WACC - 0.01,
			"g+50bps":     in.TerminalGrowth + 0.005,
			"g-50bps":     in.TerminalGrowth - 0.005,
		},
	}

	analysis.IRR = solveScenarioIRR(in.Price, in.Shares, in.FCFPath, in.WACC, in.TerminalGrowth)

	names := make([]string, 0, len(in.Scenarios))
	for name := range in.Scenarios {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := scenarioRank(names[i]), scenarioRank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		path := in.Scenarios[name]
		analysis.Scenarios = append(analysis.Scenarios, IRRScenario{
			Name:    name,
			FCFPath: append([]float64(nil), path...),
			IRR:     solveScenarioIRR(in.Price, in.Shares, path, in.WACC, in.TerminalGrowth),
		})
	}

	if in.ResolveSensitivity {
		analysis.Sensitivity = map[string]float64{}
		resolve := func(key string, wacc, growth float64) {
			if irr := solveScenarioIRR(in.Price, in.Shares, in.FCFPath, wacc, growth); irr != nil {
				analysis.Sensitivity[key] = *irr
			}
		}
		resolve("wacc+100bps", in.WACC+0.01, in.TerminalGrowth)
		resolve("wacc-100bps", in.WACC-0.01, in.TerminalGrowth)
		resolve("g+50bps", in.WACC, in.TerminalGrowth+0.005)
		resolve("g-50bps", in.WACC, in.TerminalGrowth-0.005)
	}

	return analysis
}

func solveScenarioIRR(price, shares float64, path []float64, wacc, terminalGrowth float64) *float64 {
	if len(path) == 0 {
		return nil
	}
	terminal, ok := TerminalValueGordon(path[len(path)-1], wacc, terminalGrowth)
	if !ok {
		return nil
	}
	flows, ok := BuildEquityCashFlows(price, path, terminal, shares)
	if !ok {
		return nil
	}
	irr, ok := InternalRateOfReturn(flows)
	if !ok {
		return nil
	}
	return &irr
}
