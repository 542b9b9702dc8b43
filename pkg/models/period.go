package models

// Statement field keys recognized by the normalizer, metric builder and
// delta engine. Lookups go through these constants so a typo is a
// compile-time error, not a silently missing metric.
const (
	FieldRevenue            = "Revenue"
	FieldGrossProfit        = "GrossProfit"
	FieldEBIT               = "EBIT"
	FieldEBITDA             = "EBITDA"
	FieldNetIncome          = "NetIncome"
	FieldCOGS               = "COGS"
	FieldCostOfGoodsSold    = "CostOfGoodsSold"
	FieldCFO                = "CFO"
	FieldCapEx              = "CapEx"
	FieldFCF                = "FCF"
	FieldTotalDebt          = "TotalDebt"
	FieldCash               = "Cash"
	FieldTotalAssets        = "TotalAssets"
	FieldTotalEquity        = "TotalEquity"
	FieldAccountsReceivable = "AccountsReceivable"
	FieldInventory          = "Inventory"
	FieldAccountsPayable    = "AccountsPayable"
	FieldSharesDiluted      = "SharesDiluted"
)

// Derived metric names.
const (
	MetricRevenue     = "Revenue"
	MetricFCF         = "FCF"
	MetricDSO         = "DSO"
	MetricDIH         = "DIH"
	MetricDPO         = "DPO"
	MetricCCC         = "CCC"
	MetricAccruals    = "Accruals Ratio"
	MetricNetLeverage = "Net Debt / EBITDA"
	MetricROIC        = "ROIC"
	MetricNRR         = "NRR"
	MetricWACCPoint   = "WACC-point"
	MetricTakeRate    = "Take Rate"
)

// TerminalInputs anchor the terminal growth rate.
type TerminalInputs struct {
	Inflation float64 `json:"inflation"`
	RealGDP   float64 `json:"real_gdp"`
}

// HurdlePolicy describes the policy hurdle rate and its adjustment.
type HurdlePolicy struct {
	Base          float64 `json:"base"`
	AdjustmentBps float64 `json:"adjustment_bps"`
	Rationale     string  `json:"rationale,omitempty"`
}

// ValuationMeta carries externally supplied market and macro inputs for
// the valuation builder. Optional floats are pointers; the seven WACC
// inputs are required for a bundle to be built.
type ValuationMeta struct {
	RiskFreeRate        *float64                 `json:"risk_free_rate" validate:"required"`
	EquityRiskPremium   *float64                 `json:"equity_risk_premium" validate:"required"`
	Beta                *float64                 `json:"beta" validate:"required"`
	CostOfDebt          *float64                 `json:"cost_of_debt" validate:"required"`
	TaxRate             *float64                 `json:"tax_rate" validate:"required"`
	MarketEquityValue   *float64                 `json:"market_equity_value" validate:"required"`
	MarketDebtValue     *float64                 `json:"market_debt_value" validate:"required"`
	EquityAdjustmentBps float64                  `json:"equity_adjustment_bps,omitempty"`
	SharePrice          *float64                 `json:"share_price,omitempty"`
	SharesDiluted       *float64                 `json:"shares_diluted,omitempty"`
	NetDebt             *float64                 `json:"net_debt,omitempty"`
	TerminalInputs      *TerminalInputs          `json:"terminal_inputs,omitempty"`
	Hurdle              *HurdlePolicy            `json:"hurdle,omitempty"`
	FCFPaths            map[string][]float64     `json:"fcf_paths,omitempty"`
	Notes               string                   `json:"notes,omitempty"`
	Provenance          map[string]ProvenanceRef `json:"provenance,omitempty"`
}

// PeriodMeta is the typed replacement for the open metadata blob carried
// by raw periods. Unrecognized keys are dropped at the decoding boundary.
type PeriodMeta struct {
	UnitScale         float64                  `json:"unit_scale,omitempty" validate:"gte=0"`
	OriginalUnitScale float64                  `json:"original_unit_scale,omitempty" validate:"gte=0"`
	UnitHint          string                   `json:"unit_hint,omitempty"`
	Currency          string                   `json:"currency,omitempty"`
	BusinessModel     string                   `json:"business_model,omitempty"`
	Provenance        map[string]ProvenanceRef `json:"provenance,omitempty"`
	// Valuation is validated by the valuation builder, not at the
	// normalization boundary: incomplete valuation inputs mean "no
	// bundle", never a malformed period.
	Valuation *ValuationMeta     `json:"valuation,omitempty" validate:"-"`
	TTM       map[string]float64 `json:"ttm,omitempty"`
	TTMPeriod string             `json:"ttm_period,omitempty"`
}

// Period is a company-quarter snapshot: three flat statement maps, named
// segments and typed metadata. Periods are value objects; normalization
// returns a new Period and never mutates its input.
type Period struct {
	Ticker          string                        `json:"ticker"`
	Label           string                        `json:"period"`
	IncomeStatement map[string]float64            `json:"income_stmt"`
	BalanceSheet    map[string]float64            `json:"balance_sheet"`
	CashFlow        map[string]float64            `json:"cash_flow"`
	Segments        map[string]map[string]float64 `json:"segments"`
	Metadata        PeriodMeta                    `json:"metadata"`
}

// Income returns an income statement field.
func (p Period) Income(key string) (float64, bool) {
	v, ok := p.IncomeStatement[key]
	return v, ok
}

// Balance returns a balance sheet field.
func (p Period) Balance(key string) (float64, bool) {
	v, ok := p.BalanceSheet[key]
	return v, ok
}

// Cash returns a cash flow statement field.
func (p Period) Cash(key string) (float64, bool) {
	v, ok := p.CashFlow[key]
	return v, ok
}

// CostOfGoods returns COGS under either recognized key.
func (p Period) CostOfGoods() (float64, bool) {
	if v, ok := p.IncomeStatement[FieldCostOfGoodsSold]; ok {
		return v, true
	}
	v, ok := p.IncomeStatement[FieldCOGS]
	return v, ok
}

// Clone returns a deep copy of the period.
func (p Period) Clone() Period {
	out := p
	out.IncomeStatement = cloneMap(p.IncomeStatement)
	out.BalanceSheet = cloneMap(p.BalanceSheet)
	out.CashFlow = cloneMap(p.CashFlow)
	if p.Segments != nil {
		out.Segments = make(map[string]map[string]float64, len(p.Segments))
		for name, seg := range p.Segments {
			out.Segments[name] = cloneMap(seg)
		}
	}
	out.Metadata = p.Metadata.clone()
	return out
}

func (m PeriodMeta) clone() PeriodMeta {
	out := m
	if m.Provenance != nil {
		out.Provenance = make(map[string]ProvenanceRef, len(m.Provenance))
		for k, v := range m.Provenance {
			out.Provenance[k] = v
		}
	}
	out.TTM = cloneMap(m.TTM)
	if m.Valuation != nil {
		val := *m.Valuation
		if m.Valuation.FCFPaths != nil {
			val.FCFPaths = make(map[string][]float64, len(m.Valuation.FCFPaths))
			for k, path := range m.Valuation.FCFPaths {
				val.FCFPaths[k] = append([]float64(nil), path...)
			}
		}
		if m.Valuation.Provenance != nil {
			val.Provenance = make(map[string]ProvenanceRef, len(m.Valuation.Provenance))
			for k, v := range m.Valuation.Provenance {
				val.Provenance[k] = v
			}
		}
		out.Valuation = &val
	}
	return out
}

func cloneMap(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
