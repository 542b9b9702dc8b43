package valuation

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/calc"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

// Policy defaults applied when the metadata omits them.
const (
	defaultInflationAnchor = 0.02
	defaultRealGDPAnchor   = 0.01
	defaultHurdleBase      = 0.15
)

// Bundle is the deterministic valuation output. Built once per
// calculation call and never mutated afterward.
type Bundle struct {
	Inputs         WACCInputs            `json:"inputs"`
	WACC           WACCResult            `json:"wacc"`
	TerminalGrowth float64               `json:"terminal_growth"`
	TerminalInputs models.TerminalInputs `json:"terminal_inputs"`
	Hurdle         float64               `json:"hurdle"`
	HurdleDetails  models.HurdlePolicy   `json:"hurdle_details"`
	IRRAnalysis    calc.IRRAnalysis      `json:"irr_analysis"`
	FCFPaths       map[string][]float64  `json:"fcf_paths"`
	Price          float64               `json:"price"`
	Shares         float64               `json:"shares"`
	NetDebt        float64               `json:"net_debt"`
	TTMFCF         *float64              `json:"ttm_fcf"`
	Notes          string                `json:"notes"`
}

// Builder assembles a Bundle from a period's valuation metadata.
type Builder struct {
	validate *validator.Validate
}

// NewBuilder returns a valuation Builder.
func NewBuilder() *Builder {
	return &Builder{validate: validator.New()}
}

// Build derives the bundle from quarter metadata. It returns (nil, false)
// when the metadata is absent or incomplete; partial valuation inputs are
// a missing-data outcome, never an error.
func (b *Builder) Build(period models.Period) (*Bundle, bool) {
	meta := period.Metadata.Valuation
	if meta == nil {
		return nil, false
	}
	if err := b.validate.Struct(meta); err != nil {
		return nil, false
	}

	inputs := WACCInputs{
		RiskFreeRate:        *meta.RiskFreeRate,
		EquityRiskPremium:   *meta.EquityRiskPremium,
		Beta:                *meta.Beta,
		CostOfDebt:          *meta.CostOfDebt,
		TaxRate:             *meta.TaxRate,
		MarketEquityValue:   *meta.MarketEquityValue,
		MarketDebtValue:     *meta.MarketDebtValue,
		EquityAdjustmentBps: meta.EquityAdjustmentBps,
	}
	wacc := DeriveWACC(inputs)

	terminalInputs := models.TerminalInputs{
		Inflation: defaultInflationAnchor,
		RealGDP:   defaultRealGDPAnchor,
	}
	if meta.TerminalInputs != nil {
		terminalInputs = *meta.TerminalInputs
	}
	terminalGrowth := TerminalGrowth(terminalInputs, wacc.Point)

	hurdleDetails := models.HurdlePolicy{
		Base:      defaultHurdleBase,
		Rationale: "Base policy (15%).",
	}
	if meta.Hurdle != nil {
		hurdleDetails = *meta.Hurdle
	}
	hurdle := math.Max(hurdleDetails.Base+hurdleDetails.AdjustmentBps/10_000.0, 0)

	price, shares, netDebt, ok := pricingInputs(meta, period)
	if !ok {
		return nil, false
	}

	basePath, ok := meta.FCFPaths["Base"]
	if !ok || len(basePath) == 0 {
		return nil, false
	}
	scenarios := make(map[string][]float64)
	for name, path := range meta.FCFPaths {
		if name == "Base" {
			continue
		}
		if len(path) == 0 {
			return nil, false
		}
		scenarios[name] = path
	}

	analysis := calc.RunIRRAnalysis(calc.IRRAnalysisInput{
		Price:          price,
		Shares:         shares,
		NetDebt:        netDebt,
		WACC:           wacc.Point,
		TerminalGrowth: terminalGrowth,
		FCFPath:        basePath,
		Scenarios:      scenarios,
	})

	var ttmFCF *float64
	if v, found := period.Metadata.TTM[models.FieldFCF]; found {
		ttmFCF = &v
	}

	paths := make(map[string][]float64, len(meta.FCFPaths))
	for name, path := range meta.FCFPaths {
		paths[name] = append([]float64(nil), path...)
	}

	return &Bundle{
		Inputs:         inputs,
		WACC:           wacc,
		TerminalGrowth: terminalGrowth,
		TerminalInputs: terminalInputs,
		Hurdle:         hurdle,
		HurdleDetails:  hurdleDetails,
		IRRAnalysis:    analysis,
		FCFPaths:       paths,
		Price:          price,
		Shares:         shares,
		NetDebt:        netDebt,
		TTMFCF:         ttmFCF,
		Notes:          meta.Notes,
	}, true
}

// TerminalGrowth anchors terminal growth on inflation + real GDP and caps
// it at wacc - 50bps (floored at zero) so it can never approach or exceed
// the discount rate.
func TerminalGrowth(inputs models.TerminalInputs, waccPoint float64) float64 {
	baseline := inputs.Inflation + inputs.RealGDP
	return math.Min(baseline, math.Max(waccPoint-0.005, 0))
}

// pricingInputs resolves price, diluted shares and net debt. Net debt
// falls back to balance-sheet debt minus cash when not supplied.
func pricingInputs(meta *models.ValuationMeta, period models.Period) (price, shares, netDebt float64, ok bool) {
	if meta.SharePrice == nil || meta.SharesDiluted == nil {
		return 0, 0, 0, false
	}
	if meta.NetDebt != nil {
		netDebt = *meta.NetDebt
	} else {
		debt := period.BalanceSheet[models.FieldTotalDebt]
		cash := period.BalanceSheet[models.FieldCash]
		netDebt = calc.NetDebt(debt, cash)
	}
	return *meta.SharePrice, *meta.SharesDiluted, netDebt, true
}
