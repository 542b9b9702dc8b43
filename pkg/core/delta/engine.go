// Package delta computes quarter-over-quarter and year-over-year movement
// for the key statement lines and a handful of derived figures.
package delta

import (
	"fmt"
	"math"
	"strings"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/calc"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/storage"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

// Deltas maps metric name to its movement record.
type Deltas map[string]models.DeltaRecord

type statementLine struct {
	name    string
	section string
	field   string
}

// keyMetrics are read straight off the normalized statements, in a fixed
// report order.
var keyMetrics = []statementLine{
	{models.MetricRevenue, "income", models.FieldRevenue},
	{"Gross Profit", "income", models.FieldGrossProfit},
	{"EBIT", "income", models.FieldEBIT},
	{"CFO", "cash", models.FieldCFO},
	{models.MetricFCF, "cash", models.FieldFCF},
}

type derivedMetric struct {
	name    string
	extract func(models.Period) (float64, bool)
}

// derivedMetrics are computed per quarter before differencing.
var derivedMetrics = []derivedMetric{
	{"Owner Earnings", ownerEarnings},
	{"Net Debt", netDebt},
	{models.MetricAccruals, accrualsRatio},
	{"Accounts Receivable", balanceLine(models.FieldAccountsReceivable)},
	{"Inventory", balanceLine(models.FieldInventory)},
	{"Shares Diluted", sharesDiluted},
}

// Engine computes and persists delta snapshots per ticker.
type Engine struct {
	store storage.KV
}

// NewEngine wraps a KV store; a nil store disables persistence.
func NewEngine(store storage.KV) *Engine {
	return &Engine{store: store}
}

// Compute builds the delta table from the current quarter, the prior
// quarter and the quarter one year back. A metric appears only when all
// three periods carry it. The snapshot is persisted under the upper-cased
// ticker before returning.
func (e *Engine) Compute(current, prior, yearAgo models.Period) (Deltas, error) {
	deltas := make(Deltas)

	for _, line := range keyMetrics {
		record, ok := buildRecord(
			sectionValue(current, line.section, line.field),
			sectionValue(prior, line.section, line.field),
			sectionValue(yearAgo, line.section, line.field),
		)
		if ok {
			deltas[line.name] = record
		}
	}

	for _, dm := range derivedMetrics {
		record, ok := buildRecord(
			lift(dm.extract(current)),
			lift(dm.extract(prior)),
			lift(dm.extract(yearAgo)),
		)
		if ok {
			deltas[dm.name] = record
		}
	}

	if e.store != nil {
		key := deltaKey(current.Ticker)
		if err := e.store.Set(key, deltas); err != nil {
			return nil, fmt.Errorf("persist deltas for %s: %w", current.Ticker, err)
		}
	}
	return deltas, nil
}

// Fetch loads the last persisted snapshot for a ticker; an absent ticker
// yields an empty table.
func (e *Engine) Fetch(ticker string) (Deltas, error) {
	if e.store == nil {
		return Deltas{}, nil
	}
	var deltas Deltas
	found, err := e.store.Get(deltaKey(ticker), &deltas)
	if err != nil {
		return nil, fmt.Errorf("load deltas for %s: %w", ticker, err)
	}
	if !found || deltas == nil {
		return Deltas{}, nil
	}
	return deltas, nil
}

func deltaKey(ticker string) string {
	return "deltas:" + strings.ToUpper(ticker)
}

// buildRecord differences the three observations. Percent changes
// divide by the absolute base value and fall back to 0.0 when that base
// is zero or vanishingly small.
func buildRecord(current, prior, yearAgo *float64) (models.DeltaRecord, bool) {
	if current == nil || prior == nil || yearAgo == nil {
		return models.DeltaRecord{}, false
	}
	qoq := *current - *prior
	yoy := *current - *yearAgo
	return models.DeltaRecord{
		Current:    *current,
		QoQ:        qoq,
		YoY:        yoy,
		QoQPercent: percentChange(qoq, *prior),
		YoYPercent: percentChange(yoy, *yearAgo),
	}, true
}

// percentChange divides by the absolute base so the sign of the percent
// always tracks the direction of the move, even off a negative base.
func percentChange(diff, base float64) float64 {
	if v, ok := calc.SafeDiv(diff, math.Abs(base)); ok {
		return v
	}
	return 0.0
}

func sectionValue(period models.Period, section, field string) *float64 {
	var statements map[string]float64
	switch section {
	case "income":
		statements = period.IncomeStatement
	case "balance":
		statements = period.BalanceSheet
	case "cash":
		statements = period.CashFlow
	}
	if v, ok := statements[field]; ok {
		return &v
	}
	return nil
}

func lift(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

func balanceLine(field string) func(models.Period) (float64, bool) {
	return func(period models.Period) (float64, bool) {
		return period.Balance(field)
	}
}

// ownerEarnings is CFO plus signed CapEx; CFO alone when CapEx is not
// disclosed.
func ownerEarnings(period models.Period) (float64, bool) {
	cfo, ok := period.Cash(models.FieldCFO)
	if !ok {
		return 0, false
	}
	capex, ok := period.Cash(models.FieldCapEx)
	if !ok {
		return cfo, true
	}
	return cfo + capex, true
}

// netDebt is absent only when both debt and cash are undisclosed.
func netDebt(period models.Period) (float64, bool) {
	debt, debtOK := period.Balance(models.FieldTotalDebt)
	cash, cashOK := period.Balance(models.FieldCash)
	if !debtOK && !cashOK {
		return 0, false
	}
	return calc.NetDebt(debt, cash), true
}

func accrualsRatio(period models.Period) (float64, bool) {
	netIncome, niOK := period.Income(models.FieldNetIncome)
	cfo, cfoOK := period.Cash(models.FieldCFO)
	assets, assetsOK := period.Balance(models.FieldTotalAssets)
	if !niOK || !cfoOK || !assetsOK || assets == 0 {
		return 0, false
	}
	return calc.SafeDiv(netIncome-cfo, assets)
}

// sharesDiluted prefers the valuation metadata and falls back to the TTM
// block.
func sharesDiluted(period models.Period) (float64, bool) {
	if meta := period.Metadata.Valuation; meta != nil && meta.SharesDiluted != nil {
		return *meta.SharesDiluted, true
	}
	if v, ok := period.Metadata.TTM[models.FieldSharesDiluted]; ok {
		return v, true
	}
	return 0, false
}
