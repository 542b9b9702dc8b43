// Package valuation derives the deterministic valuation bundle: WACC with
// its ±1pp band, capped terminal growth, the policy hurdle rate and the
// reverse-DCF scenario IRRs.
package valuation

import (
	"math"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/calc"
)

// WACCInputs are the externally supplied market and macro inputs.
type WACCInputs struct {
	RiskFreeRate        float64 `json:"risk_free_rate"`
	EquityRiskPremium   float64 `json:"equity_risk_premium"`
	Beta                float64 `json:"beta"`
	CostOfDebt          float64 `json:"cost_of_debt"`
	TaxRate             float64 `json:"tax_rate"`
	MarketEquityValue   float64 `json:"market_equity_value"`
	MarketDebtValue     float64 `json:"market_debt_value"`
	EquityAdjustmentBps float64 `json:"equity_adjustment_bps"`
}

// WACCResult is the derived cost-of-capital band and its components.
type WACCResult struct {
	Point              float64            `json:"point"`
	Lower              float64            `json:"lower"`
	Upper              float64            `json:"upper"`
	CostOfEquity       float64            `json:"cost_of_equity"`
	CostOfDebtAfterTax float64            `json:"cost_of_debt_after_tax"`
	Weights            map[string]float64 `json:"weights"`
	Inputs             map[string]float64 `json:"inputs"`
}

// DeriveWACC computes the weighted average cost of capital.
//
// Cost of equity is CAPM with the qualitative adjustment clamped to
// ±150bps. When both market values are zero the capital structure is
// defined as 100% equity. The band is the point ±1.00pp, floored at zero
// on the lower bound.
func DeriveWACC(in WACCInputs) WACCResult {
	costOfEquity := calc.CAPMCostOfEquity(in.RiskFreeRate, in.Beta, in.EquityRiskPremium, in.EquityAdjustmentBps)
	costOfDebtAfterTax := calc.AfterTaxCostOfDebt(in.CostOfDebt, in.TaxRate)

	equityWeight, debtWeight, ok := calc.CapitalStructureWeights(in.MarketEquityValue, in.MarketDebtValue)
	if !ok {
		equityWeight, debtWeight = 1.0, 0.0
	}

	point := costOfEquity*equityWeight + costOfDebtAfterTax*debtWeight

	return WACCResult{
		Point:              point,
		Lower:              math.Max(point-0.01, 0),
		Upper:              point + 0.01,
		CostOfEquity:       costOfEquity,
		CostOfDebtAfterTax: costOfDebtAfterTax,
		Weights: map[string]float64{
			"equity": equityWeight,
			"debt":   debtWeight,
		},
		Inputs: map[string]float64{
			"rf":                    in.RiskFreeRate,
			"erp":                   in.EquityRiskPremium,
			"beta":                  in.Beta,
			"rd":                    in.CostOfDebt,
			"tax":                   in.TaxRate,
			"weights_equity":        equityWeight,
			"weights_debt":          debtWeight,
			"equity_adjustment_bps": in.EquityAdjustmentBps,
		},
	}
}
