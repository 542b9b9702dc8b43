// Package gates evaluates the deterministic Stage-0 gate table and the
// Mature/Emergent path classification that feeds the final decision gate.
package gates

import (
	"fmt"
	"strings"
	"time"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

// DefaultFlipTriggerHorizonDays is how far out a Soft-Pass review falls due.
const DefaultFlipTriggerHorizonDays = 90

// Table groups the evaluated gate rows by severity.
type Table struct {
	Hard []models.GateRow `json:"hard"`
	Soft []models.GateRow `json:"soft"`
}

// StageZeroBuilder produces the gate table from a metric set and quarter
// metadata. Evaluation is pure given the metrics and the clock.
type StageZeroBuilder struct {
	flipTriggerHorizon int
	now                func() time.Time
}

// Option configures a StageZeroBuilder.
type Option func(*StageZeroBuilder)

// WithFlipTriggerHorizon overrides the Soft-Pass review horizon in days.
func WithFlipTriggerHorizon(days int) Option {
	return func(b *StageZeroBuilder) { b.flipTriggerHorizon = days }
}

// WithClock fixes the evaluation clock.
func WithClock(now func() time.Time) Option {
	return func(b *StageZeroBuilder) { b.now = now }
}

// NewStageZeroBuilder returns a builder with the default 90-day horizon.
func NewStageZeroBuilder(opts ...Option) *StageZeroBuilder {
	b := &StageZeroBuilder{
		flipTriggerHorizon: DefaultFlipTriggerHorizonDays,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build evaluates the five hard gates and six soft gates in their fixed
// order. The same inputs always produce the same table, modulo Soft-Pass
// due dates which track the clock.
func (b *StageZeroBuilder) Build(metrics []models.Metric, metadata models.PeriodMeta, path string) Table {
	byName := make(map[string]models.Metric, len(metrics))
	for _, metric := range metrics {
		byName[metric.Name] = metric
	}
	ttm := metadata.TTM

	return Table{
		Hard: []models.GateRow{
			b.circleOfCompetence(byName, ttm),
			b.fraudControls(byName),
			b.imminentSolvency(byName, ttm),
			b.valuation(byName),
			b.finalGate(path),
		},
		Soft: []models.GateRow{
			b.accountingSanity(byName),
			b.balanceSheetSurvival(ttm, byName),
			b.unitEconomics(byName),
			b.industry(),
			b.moat(byName),
			b.management(),
		},
	}
}

// Hard gates.

func (b *StageZeroBuilder) circleOfCompetence(metrics map[string]models.Metric, ttm map[string]float64) models.GateRow {
	revenue, ok := metricValue(metrics, models.MetricRevenue)
	if !ok || revenue == 0 {
		revenue, ok = ttm[models.FieldRevenue]
	}
	result := models.GateFail
	if ok && revenue > 0 {
		result = models.GatePass
	}
	return models.GateRow{
		Gate:           "Circle of Competence",
		HardOrSoft:     "Hard",
		WhatItMeans:    "Disclosures sufficient for analysis",
		MetricsSources: []string{metricSource(metrics, models.MetricRevenue)},
		PassRule:       "Revenue > 0 and segment disclosure present",
		Result:         result,
	}
}

func (b *StageZeroBuilder) fraudControls(metrics map[string]models.Metric) models.GateRow {
	accruals, ok := metricValue(metrics, models.MetricAccruals)
	result := models.GateFail
	if ok && accruals >= -0.1 && accruals <= 0.1 {
		result = models.GatePass
	}
	return models.GateRow{
		Gate:           "Fraud/Controls",
		HardOrSoft:     "Hard",
		WhatItMeans:    "Accruals within healthy bounds",
		MetricsSources: []string{metricSource(metrics, models.MetricAccruals)},
		PassRule:       "Accruals ratio within +/-10%",
		Result:         result,
	}
}

func (b *StageZeroBuilder) imminentSolvency(metrics map[string]models.Metric, ttm map[string]float64) models.GateRow {
	result := models.GateFail
	if leverage, ok := metricValue(metrics, models.MetricNetLeverage); ok && leverage <= 4 {
		result = models.GatePass
	}
	if fcf, ok := ttm[models.FieldFCF]; ok && fcf > 0 {
		result = models.GatePass
	}
	return models.GateRow{
		Gate:           "Imminent Solvency",
		HardOrSoft:     "Hard",
		WhatItMeans:    "Company can service near-term obligations",
		MetricsSources: []string{metricSource(metrics, models.MetricNetLeverage)},
		PassRule:       "Net leverage <=4x or TTM FCF > 0",
		Result:         result,
	}
}

func (b *StageZeroBuilder) valuation(metrics map[string]models.Metric) models.GateRow {
	roic, roicOK := metricValue(metrics, models.MetricROIC)
	wacc, waccOK := metricValue(metrics, models.MetricWACCPoint)
	result := models.GateFail
	if roicOK && waccOK && roic >= wacc {
		result = models.GatePass
	}
	return models.GateRow{
		Gate:        "Valuation",
		HardOrSoft:  "Hard",
		WhatItMeans: "Returns exceed cost of capital",
		MetricsSources: []string{
			metricSource(metrics, models.MetricROIC),
			metricSource(metrics, models.MetricWACCPoint),
		},
		PassRule: "ROIC >= WACC",
		Result:   result,
	}
}

func (b *StageZeroBuilder) finalGate(path string) models.GateRow {
	result := models.GateFail
	if path == PathMature {
		result = models.GatePass
	}
	return models.GateRow{
		Gate:           "Final Decision Gate",
		HardOrSoft:     "Hard",
		WhatItMeans:    "All hard gates satisfied and business classified as Mature",
		MetricsSources: []string{},
		PassRule:       "Path = Mature and prior hard gates pass",
		Result:         result,
	}
}

// Soft gates. A soft gate never fails; it degrades to Soft-Pass with a
// dated flip trigger.

func (b *StageZeroBuilder) accountingSanity(metrics map[string]models.Metric) models.GateRow {
	accruals, ok := metricValue(metrics, models.MetricAccruals)
	result := models.GateSoftPass
	if ok && accruals >= -0.15 && accruals <= 0.15 {
		result = models.GatePass
	}
	row := models.GateRow{
		Gate:           "Accounting Sanity",
		HardOrSoft:     "Soft",
		WhatItMeans:    "Earnings quality remains solid",
		MetricsSources: []string{metricSource(metrics, models.MetricAccruals)},
		PassRule:       "Accruals ratio within +/-15%",
		Result:         result,
	}
	if result == models.GateSoftPass {
		row.FlipTrigger = b.flipTrigger("Track accrual trend vs peers")
	}
	return row
}

func (b *StageZeroBuilder) balanceSheetSurvival(ttm map[string]float64, metrics map[string]models.Metric) models.GateRow {
	cash, cashOK := ttm[models.FieldCash]
	fcf, fcfOK := ttm[models.FieldFCF]
	result := models.GateSoftPass
	if cashOK && cash > 0 && fcfOK && fcf > 0 {
		result = models.GatePass
	}
	row := models.GateRow{
		Gate:           "Balance-sheet Survival",
		HardOrSoft:     "Soft",
		WhatItMeans:    "Liquidity runway supports thesis",
		MetricsSources: []string{metricSource(metrics, models.MetricFCF)},
		PassRule:       "Positive cash and FCF",
		Result:         result,
	}
	if result == models.GateSoftPass {
		row.FlipTrigger = b.flipTrigger("Refresh liquidity plan; monitor FCF")
	}
	return row
}

func (b *StageZeroBuilder) unitEconomics(metrics map[string]models.Metric) models.GateRow {
	takeRate, ok := metricValue(metrics, models.MetricTakeRate)
	result := models.GateSoftPass
	if ok && takeRate > 0.1 {
		result = models.GatePass
	}
	row := models.GateRow{
		Gate:           "Unit Economics",
		HardOrSoft:     "Soft",
		WhatItMeans:    "Contribution margins support scale",
		MetricsSources: []string{metricSource(metrics, models.MetricTakeRate)},
		PassRule:       "Take rate >10%",
		Result:         result,
	}
	if result == models.GateSoftPass {
		row.FlipTrigger = b.flipTrigger("Revisit unit economics vs plan")
	}
	return row
}

func (b *StageZeroBuilder) industry() models.GateRow {
	return models.GateRow{
		Gate:           "Industry",
		HardOrSoft:     "Soft",
		WhatItMeans:    "Industry structure remains attractive",
		MetricsSources: []string{},
		PassRule:       "Industry TAM and competition remain favorable",
		Result:         models.GateSoftPass,
		FlipTrigger:    b.flipTrigger("Refresh TAM & competitive notes"),
	}
}

func (b *StageZeroBuilder) moat(metrics map[string]models.Metric) models.GateRow {
	return models.GateRow{
		Gate:           "Moat",
		HardOrSoft:     "Soft",
		WhatItMeans:    "Defensible competitive advantages",
		MetricsSources: []string{metricSource(metrics, "Pricing Power")},
		PassRule:       "Evidence of moat remains intact",
		Result:         models.GateSoftPass,
		FlipTrigger:    b.flipTrigger("Review pricing power evidence"),
	}
}

func (b *StageZeroBuilder) management() models.GateRow {
	return models.GateRow{
		Gate:           "Management",
		HardOrSoft:     "Soft",
		WhatItMeans:    "Execution and governance remain strong",
		MetricsSources: []string{},
		PassRule:       "No new governance concerns",
		Result:         models.GateSoftPass,
		FlipTrigger:    b.flipTrigger("Check governance disclosures"),
	}
}

// Helpers.

func metricValue(metrics map[string]models.Metric, name string) (float64, bool) {
	metric, ok := metrics[name]
	if !ok {
		return 0, false
	}
	return metric.Value.Float()
}

// metricSource renders "docID | page | url", dropping empty parts; "n/a"
// when the metric is absent altogether.
func metricSource(metrics map[string]models.Metric, name string) string {
	metric, ok := metrics[name]
	if !ok {
		return "n/a"
	}
	parts := make([]string, 0, 3)
	for _, part := range []string{metric.SourceDocID, metric.PageOrSection, metric.URL} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " | ")
}

func (b *StageZeroBuilder) flipTrigger(description string) string {
	due := b.now().AddDate(0, 0, b.flipTriggerHorizon)
	return fmt.Sprintf("%s (due %s)", description, due.Format("2006-01-02"))
}
