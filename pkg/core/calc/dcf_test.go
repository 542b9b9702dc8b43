package calc

import (
	"math"
	"testing"
)

func TestCAPMCostOfEquity(t *testing.T) {
	// r_e = 0.04 + 1.2 * 0.05 = 0.10
	re := CAPMCostOfEquity(0.04, 1.2, 0.05, 0)
	if math.Abs(re-0.10) > 1e-9 {
		t.Errorf("Expected 0.10, got %f", re)
	}

	// Adjustment is clamped to +/-150bps.
	high := CAPMCostOfEquity(0.04, 1.2, 0.05, 500)
	if math.Abs(high-(0.10+0.015)) > 1e-9 {
		t.Errorf("Expected clamp at +150bps, got %f", high)
	}
	low := CAPMCostOfEquity(0.04, 1.2, 0.05, -500)
	if math.Abs(low-(0.10-0.015)) > 1e-9 {
		t.Errorf("Expected clamp at -150bps, got %f", low)
	}
}

func TestCapitalStructureWeights(t *testing.T) {
	eq, debt, ok := CapitalStructureWeights(800, 200)
	if !ok || eq != 0.8 || debt != 0.2 {
		t.Errorf("Expected 0.8/0.2, got %f/%f (ok=%v)", eq, debt, ok)
	}

	// Negative market values are floored at zero.
	eq, debt, ok = CapitalStructureWeights(500, -100)
	if !ok || eq != 1.0 || debt != 0.0 {
		t.Errorf("Expected 1.0/0.0 after flooring, got %f/%f", eq, debt)
	}

	if _, _, ok := CapitalStructureWeights(0, 0); ok {
		t.Error("Expected no weights for zero total capital")
	}
}

func TestWACCWithinComponentBounds(t *testing.T) {
	costOfEquity := 0.11
	costOfDebtAT := 0.03
	wacc, ok := WeightedAverageCostOfCapital(costOfEquity, costOfDebtAT, 700, 300)
	if !ok {
		t.Fatal("Expected a WACC value")
	}
	if wacc < costOfDebtAT || wacc > costOfEquity {
		t.Errorf("WACC %f outside [%f, %f]", wacc, costOfDebtAT, costOfEquity)
	}
}

func TestTerminalValueGordon(t *testing.T) {
	// TV = 100 * 1.02 / (0.08 - 0.02) = 1700
	tv, ok := TerminalValueGordon(100, 0.08, 0.02)
	if !ok || math.Abs(tv-1700) > 1e-9 {
		t.Errorf("Expected 1700, got %f (ok=%v)", tv, ok)
	}

	// Undefined when the discount rate does not exceed growth.
	if _, ok := TerminalValueGordon(100, 0.02, 0.02); ok {
		t.Error("Expected no value when r <= g")
	}
}

func TestDiscountCashFlows(t *testing.T) {
	// 110 one period out at 10% discounts to 100.
	pv := DiscountCashFlows([]float64{110}, 0.10)
	if math.Abs(pv-100) > 1e-9 {
		t.Errorf("Expected 100, got %f", pv)
	}
}

func TestInternalRateOfReturn(t *testing.T) {
	// Known case: [-100, 60, 60, 60] solves near 36.31%.
	irr, ok := InternalRateOfReturn([]float64{-100, 60, 60, 60})
	if !ok {
		t.Fatal("Expected a solution")
	}
	if math.Abs(irr-0.3631) > 1e-3 {
		t.Errorf("Expected IRR ~0.3631, got %f", irr)
	}

	// All-zero returns never recover the outlay: no solution.
	if _, ok := InternalRateOfReturn([]float64{-100, 0, 0}); ok {
		t.Error("Expected no solution for unrecoverable outlay")
	}

	if _, ok := InternalRateOfReturn([]float64{-100}); ok {
		t.Error("Expected no solution for a single flow")
	}
}

func TestBuildEquityCashFlows(t *testing.T) {
	flows, ok := BuildEquityCashFlows(50, []float64{100, 110, 120}, 2400, 10)
	if !ok {
		t.Fatal("Expected flows")
	}
	expected := []float64{-50, 10, 11, 12 + 240}
	if len(flows) != len(expected) {
		t.Fatalf("Expected %d flows, got %d", len(expected), len(flows))
	}
	for i := range expected {
		if math.Abs(flows[i]-expected[i]) > 1e-9 {
			t.Errorf("flow[%d]: expected %f, got %f", i, expected[i], flows[i])
		}
	}

	if _, ok := BuildEquityCashFlows(50, nil, 0, 10); ok {
		t.Error("Expected no flows for empty projection")
	}
	if _, ok := BuildEquityCashFlows(50, []float64{100}, 0, 0); ok {
		t.Error("Expected no flows for zero share count")
	}
}

func TestRunIRRAnalysisSensitivityKeys(t *testing.T) {
	analysis := RunIRRAnalysis(IRRAnalysisInput{
		Price:          50,
		Shares:         100,
		NetDebt:        200,
		WACC:           0.09,
		TerminalGrowth: 0.02,
		FCFPath:        []float64{500, 550, 600, 650, 700},
	})

	for _, key := range []string{"wacc+100bps", "wacc-100bps", "g+50bps", "g-50bps"} {
		if _, ok := analysis.Sensitivity[key]; !ok {
			t.Errorf("Missing sensitivity key %s", key)
		}
	}
	if math.Abs(analysis.Sensitivity["wacc+100bps"]-0.10) > 1e-9 {
		t.Errorf("Expected perturbed rate point 0.10, got %f", analysis.Sensitivity["wacc+100bps"])
	}
	if analysis.IRR == nil {
		t.Fatal("Expected a base IRR")
	}
}

func TestRunIRRAnalysisScenarioOrdering(t *testing.T) {
	analysis := RunIRRAnalysis(IRRAnalysisInput{
		Price:          50,
		Shares:         100,
		WACC:           0.09,
		TerminalGrowth: 0.02,
		FCFPath:        []float64{500, 550, 600},
		Scenarios: map[string][]float64{
			"Bull":   {700, 800, 900},
			"Bear":   {300, 280, 260},
			"Stress": {100, 100, 100},
		},
	})

	names := make([]string, len(analysis.Scenarios))
	for i, s := range analysis.Scenarios {
		names[i] = s.Name
	}
	expected := []string{"Bear", "Bull", "Stress"}
	for i := range expected {
		if names[i] != expected[i] {
			t.Fatalf("Expected scenario order %v, got %v", expected, names)
		}
	}
}

func TestRunIRRAnalysisMonotonicInPrice(t *testing.T) {
	base := IRRAnalysisInput{
		Shares:         100,
		WACC:           0.09,
		TerminalGrowth: 0.02,
		FCFPath:        []float64{500, 550, 600, 650, 700},
	}

	base.Price = 40
	cheap := RunIRRAnalysis(base)
	base.Price = 80
	expensive := RunIRRAnalysis(base)

	if cheap.IRR == nil || expensive.IRR == nil {
		t.Fatal("Expected IRR solutions at both prices")
	}
	// Paying more for the same cash flows must lower the implied return.
	if *cheap.IRR <= *expensive.IRR {
		t.Errorf("Expected IRR at price 40 (%f) > IRR at price 80 (%f)", *cheap.IRR, *expensive.IRR)
	}
}
