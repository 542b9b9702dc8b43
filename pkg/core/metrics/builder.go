// Package metrics derives the fixed metric set from a normalized period
// and attaches provenance to every derived value.
package metrics

import (
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/calc"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

// Defaults applied when no source document backs a metric. System-derived
// metrics are exempt from quote verification.
const (
	systemURL   = "https://localhost/system"
	systemQuote = "Derived from normalized statements"
	systemPage  = "n/a"
)

// DefaultTaxRate is the statutory rate used for NOPAT when no effective
// rate is supplied.
const DefaultTaxRate = 0.21

// Builder derives metrics from a normalized period. The zero value is
// ready to use.
type Builder struct{}

// New returns a metric Builder.
func New() *Builder {
	return &Builder{}
}

// Build derives the fixed metric set. A metric whose required inputs are
// missing, or whose denominator is unsafely small, resolves to ABSTAIN
// rather than an error: a dossier can always be produced from partial
// data.
func (b *Builder) Build(period models.Period) []models.Metric {
	return []models.Metric{
		b.buildRevenue(period),
		b.buildFCF(period),
		b.buildDSO(period),
		b.buildDIH(period),
		b.buildDPO(period),
		b.buildCCC(period),
		b.buildAccruals(period),
		b.buildNetLeverage(period),
		b.buildROIC(period),
		b.buildNRR(period),
	}
}

// FromValue exposes the provenance-attaching choke point for synthetic
// metrics built outside this package (WACC components, valuation rates).
func (b *Builder) FromValue(name string, value models.MetricValue, unit string, period models.Period, inputs []string) models.Metric {
	return b.metricFromValue(name, value, unit, period, inputs)
}

// metricFromValue is the single path every derived metric passes through:
// it guarantees all four provenance fields are populated, defaulting to
// the system-derived marker when no document backs the value.
func (b *Builder) metricFromValue(name string, value models.MetricValue, unit string, period models.Period, inputs []string) models.Metric {
	ref, found := lookupProvenance(name, period.Metadata)
	if !found {
		ref = models.ProvenanceRef{
			SourceDocID:   models.SystemDocID,
			PageOrSection: systemPage,
			Quote:         systemQuote,
			URL:           systemURL,
		}
	}
	return models.Metric{
		Name:          name,
		Value:         value,
		Unit:          unit,
		Period:        period.Label,
		SourceDocID:   ref.SourceDocID,
		PageOrSection: ref.PageOrSection,
		Quote:         ref.Quote,
		URL:           ref.URL,
		Inputs:        inputs,
	}
}

// lookupProvenance resolves a metric's source: metadata.provenance first,
// then metadata.valuation.provenance; first match wins.
func lookupProvenance(name string, meta models.PeriodMeta) (models.ProvenanceRef, bool) {
	if ref, ok := meta.Provenance[name]; ok {
		return ref, true
	}
	if meta.Valuation != nil {
		if ref, ok := meta.Valuation.Provenance[name]; ok {
			return ref, true
		}
	}
	return models.ProvenanceRef{}, false
}

func maybe(v float64, ok bool) models.MetricValue {
	if !ok {
		return models.Abstained()
	}
	return models.Numeric(v)
}

func (b *Builder) buildRevenue(period models.Period) models.Metric {
	value := models.Abstained()
	if revenue, ok := period.Income(models.FieldRevenue); ok {
		value = models.Numeric(revenue)
	}
	return b.metricFromValue(models.MetricRevenue, value, "USD", period, nil)
}

func (b *Builder) buildFCF(period models.Period) models.Metric {
	value := models.Abstained()
	if fcf, ok := period.Cash(models.FieldFCF); ok {
		value = models.Numeric(fcf)
	} else {
		cfo, okCFO := period.Cash(models.FieldCFO)
		capex, okCapEx := period.Cash(models.FieldCapEx)
		if okCFO && okCapEx {
			// CapEx is carried signed, so FCF = CFO + CapEx.
			value = models.Numeric(cfo + capex)
		}
	}
	return b.metricFromValue(models.MetricFCF, value, "USD", period, []string{models.FieldCFO, models.FieldCapEx})
}

func (b *Builder) buildDSO(period models.Period) models.Metric {
	value := models.Abstained()
	ar, okAR := period.Balance(models.FieldAccountsReceivable)
	revenue, okRev := period.Income(models.FieldRevenue)
	if okAR && okRev {
		value = maybe(calc.DaysSalesOutstanding(ar, revenue))
	}
	return b.metricFromValue(models.MetricDSO, value, "days", period, []string{models.FieldAccountsReceivable, models.FieldRevenue})
}

func (b *Builder) buildDIH(period models.Period) models.Metric {
	value := models.Abstained()
	inventory, okInv := period.Balance(models.FieldInventory)
	cogs, okCOGS := period.CostOfGoods()
	if okInv && okCOGS {
		value = maybe(calc.DaysInventoryOnHand(inventory, cogs))
	}
	return b.metricFromValue(models.MetricDIH, value, "days", period, []string{models.FieldInventory, models.FieldCOGS})
}

func (b *Builder) buildDPO(period models.Period) models.Metric {
	value := models.Abstained()
	ap, okAP := period.Balance(models.FieldAccountsPayable)
	cogs, okCOGS := period.CostOfGoods()
	if okAP && okCOGS {
		value = maybe(calc.DaysPayablesOutstanding(ap, cogs))
	}
	return b.metricFromValue(models.MetricDPO, value, "days", period, []string{models.FieldAccountsPayable, models.FieldCOGS})
}

func (b *Builder) buildCCC(period models.Period) models.Metric {
	dso, okDSO := b.buildDSO(period).Value.Float()
	dih, okDIH := b.buildDIH(period).Value.Float()
	dpo, okDPO := b.buildDPO(period).Value.Float()
	value := models.Abstained()
	if okDSO && okDIH && okDPO {
		value = models.Numeric(calc.CashConversionCycle(dso, dih, dpo))
	}
	return b.metricFromValue(models.MetricCCC, value, "days", period, []string{models.MetricDSO, models.MetricDIH, models.MetricDPO})
}

func (b *Builder) buildAccruals(period models.Period) models.Metric {
	value := models.Abstained()
	netIncome, okNI := period.Income(models.FieldNetIncome)
	cfo, okCFO := period.Cash(models.FieldCFO)
	assets, okAssets := period.Balance(models.FieldTotalAssets)
	if okNI && okCFO && okAssets {
		value = maybe(calc.AccrualsRatio(netIncome, cfo, assets))
	}
	return b.metricFromValue(models.MetricAccruals, value, "ratio", period, []string{models.FieldNetIncome, models.FieldCFO, models.FieldTotalAssets})
}

func (b *Builder) buildNetLeverage(period models.Period) models.Metric {
	value := models.Abstained()
	debt, okDebt := period.Balance(models.FieldTotalDebt)
	cash, okCash := period.Balance(models.FieldCash)
	ebitda, okEBITDA := period.Income(models.FieldEBITDA)
	if !okEBITDA {
		ebitda, okEBITDA = period.Income(models.FieldEBIT)
	}
	if okDebt && okCash && okEBITDA {
		value = maybe(calc.NetLeverageRatio(debt, cash, ebitda))
	}
	return b.metricFromValue(models.MetricNetLeverage, value, "x", period, []string{models.FieldTotalDebt, models.FieldCash, models.FieldEBITDA})
}

func (b *Builder) buildROIC(period models.Period) models.Metric {
	value := models.Abstained()
	ebit, okEBIT := period.Income(models.FieldEBIT)
	equity, okEquity := period.Balance(models.FieldTotalEquity)
	debt, okDebt := period.Balance(models.FieldTotalDebt)
	cash, okCash := period.Balance(models.FieldCash)
	if okEBIT && okEquity && okDebt && okCash {
		nopat := calc.NOPAT(ebit, DefaultTaxRate)
		invested := calc.InvestedCapital(equity, debt, cash, 0)
		value = maybe(calc.ROIC(nopat, invested))
	}
	return b.metricFromValue(models.MetricROIC, value, "ratio", period, []string{models.FieldEBIT, "TaxRate", "InvestedCapital"})
}

// buildNRR emits the subscription retention placeholder. It always
// abstains here: retention inputs come from subscription disclosures this
// pipeline does not parse, and the verifier rejects NRR outright for
// non-subscription business models.
func (b *Builder) buildNRR(period models.Period) models.Metric {
	return b.metricFromValue(models.MetricNRR, models.Abstained(), "ratio", period, []string{"subscription_disclosures"})
}
