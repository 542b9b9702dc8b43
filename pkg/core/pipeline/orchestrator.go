// Package pipeline runs the straight-line dossier computation:
// normalization, metric building, valuation, gate evaluation and delta
// analysis, assembled into one immutable report per invocation.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/delta"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/docstore"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/gates"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/metrics"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/normalize"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/provenance"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/report"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/storage"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/triggers"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/valuation"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

// Config wires the orchestrator's collaborators. Every field is optional:
// a nil document store skips provenance validation, a nil artifact store
// skips snapshot persistence, a nil monitor skips trigger evaluation.
type Config struct {
	DocumentStore docstore.Store
	Artifacts     storage.KV
	Monitor       *triggers.Monitor
	Logger        zerolog.Logger
}

// Orchestrator computes a dossier per company-quarter. Instances hold no
// per-run state; concurrent Run calls on independent periods are safe.
type Orchestrator struct {
	normalizer    *normalize.Normalizer
	metricBuilder *metrics.Builder
	valBuilder    *valuation.Builder
	stageZero     *gates.StageZeroBuilder
	deltaEngine   *delta.Engine
	provValidator *provenance.Validator
	monitor       *triggers.Monitor
	artifacts     storage.KV
	logger        zerolog.Logger
	now           func() time.Time
}

// New builds an orchestrator from the given collaborators.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		normalizer:    normalize.New(),
		metricBuilder: metrics.New(),
		valBuilder:    valuation.NewBuilder(),
		stageZero:     gates.NewStageZeroBuilder(),
		deltaEngine:   delta.NewEngine(cfg.Artifacts),
		provValidator: provenance.NewValidator(cfg.DocumentStore),
		monitor:       cfg.Monitor,
		artifacts:     cfg.Artifacts,
		logger:        cfg.Logger,
		now:           time.Now,
	}
}

// Run computes the dossier for a raw period. History is ordered most
// recent first. Only a structurally malformed period aborts the run;
// missing data degrades to ABSTAIN metrics, Emergent paths and absent
// valuation sections.
func (o *Orchestrator) Run(ctx context.Context, raw models.Period, history []models.Period) (*report.Dossier, error) {
	start := o.now()
	normalized, err := o.normalizer.Normalize(raw, history)
	if err != nil {
		return nil, fmt.Errorf("normalize %s %s: %w", raw.Ticker, raw.Label, err)
	}

	metricSet := o.metricBuilder.Build(normalized)

	bundle, hasValuation := o.valBuilder.Build(normalized)
	if hasValuation {
		metricSet = append(metricSet, o.valuationMetrics(bundle, normalized)...)
	} else {
		o.logger.Debug().Str("ticker", normalized.Ticker).Msg("valuation inputs incomplete, bundle skipped")
	}

	path := gates.DeterminePath(normalized, history)
	table := o.stageZero.Build(metricSet, normalized.Metadata, path.Path)

	deltas, err := o.computeDeltas(normalized, history)
	if err != nil {
		return nil, err
	}

	issues := o.provValidator.ValidateMetrics(ctx, metricSet)

	alerts := o.evaluateTriggers(normalized, metricSet)

	dossier := &report.Dossier{
		ID:               uuid.NewString(),
		Ticker:           normalized.Ticker,
		Period:           normalized.Label,
		GeneratedAt:      o.now(),
		Headline:         headline(path, table),
		Metrics:          metricSet,
		StageZero:        table,
		Path:             path,
		Deltas:           deltas,
		ProvenanceIssues: issues,
		TriggerAlerts:    alerts,
	}
	if hasValuation {
		dossier.Valuation = bundle
	}

	if err := o.persistSnapshot(dossier); err != nil {
		return nil, err
	}

	o.logger.Info().
		Str("ticker", normalized.Ticker).
		Str("period", normalized.Label).
		Str("path", path.Path).
		Int("metrics", len(metricSet)).
		Int("provenance_issues", len(issues)).
		Dur("elapsed", o.now().Sub(start)).
		Msg("dossier assembled")
	return dossier, nil
}

// valuationMetrics folds the derived rates into the metric set through the
// same provenance choke point as every other metric.
func (o *Orchestrator) valuationMetrics(bundle *valuation.Bundle, period models.Period) []models.Metric {
	waccInputs := []string{"rf", "erp", "beta", "rd", "tax", "weights"}
	out := []models.Metric{
		o.metricBuilder.FromValue(models.MetricWACCPoint, models.Numeric(bundle.WACC.Point), "rate", period, waccInputs),
		o.metricBuilder.FromValue("WACC-lower", models.Numeric(bundle.WACC.Lower), "rate", period, waccInputs),
		o.metricBuilder.FromValue("WACC-upper", models.Numeric(bundle.WACC.Upper), "rate", period, waccInputs),
		o.metricBuilder.FromValue("Cost of Equity", models.Numeric(bundle.WACC.CostOfEquity), "rate", period, []string{"rf", "beta", "erp"}),
		o.metricBuilder.FromValue("Cost of Debt (after tax)", models.Numeric(bundle.WACC.CostOfDebtAfterTax), "rate", period, []string{"rd", "tax"}),
		o.metricBuilder.FromValue("Terminal Growth", models.Numeric(bundle.TerminalGrowth), "rate", period, []string{"inflation", "real_gdp", models.MetricWACCPoint}),
		o.metricBuilder.FromValue("Hurdle IRR", models.Numeric(bundle.Hurdle), "rate", period, []string{"hurdle_policy"}),
	}
	if bundle.IRRAnalysis.IRR != nil {
		out = append(out, o.metricBuilder.FromValue(
			"Implied IRR", models.Numeric(*bundle.IRRAnalysis.IRR), "rate", period,
			[]string{"price", "shares", "net_debt", "fcf_paths"},
		))
	}
	return out
}

// computeDeltas needs a prior quarter and a year-ago quarter; shorter
// histories simply produce no deltas.
func (o *Orchestrator) computeDeltas(current models.Period, history []models.Period) (delta.Deltas, error) {
	if len(history) < 4 {
		return delta.Deltas{}, nil
	}
	deltas, err := o.deltaEngine.Compute(current, history[0], history[3])
	if err != nil {
		return nil, fmt.Errorf("delta analysis for %s: %w", current.Ticker, err)
	}
	return deltas, nil
}

func (o *Orchestrator) evaluateTriggers(period models.Period, metricSet []models.Metric) []string {
	if o.monitor == nil {
		return nil
	}
	values := make(map[string]float64, len(metricSet))
	for _, metric := range metricSet {
		if v, ok := metric.Value.Float(); ok {
			values[metric.Name] = v
		}
	}
	alerts, err := o.monitor.Evaluate(period.Ticker, values, o.now())
	if err != nil {
		o.logger.Warn().Err(err).Str("ticker", period.Ticker).Msg("trigger evaluation failed")
		return nil
	}
	out := make([]string, 0, len(alerts))
	for _, alert := range alerts {
		out = append(out, fmt.Sprintf("[%s] %s", alert.Status, alert.Message))
	}
	return out
}

func (o *Orchestrator) persistSnapshot(dossier *report.Dossier) error {
	if o.artifacts == nil {
		return nil
	}
	key := fmt.Sprintf("dossier:%s:%s", strings.ToUpper(dossier.Ticker), dossier.Period)
	if err := o.artifacts.Set(key, dossier); err != nil {
		return fmt.Errorf("persist dossier snapshot: %w", err)
	}
	return nil
}

// headline is the one-line summary the verifier cross-checks against the
// path classification.
func headline(path gates.PathDecision, table gates.Table) string {
	verdict := "PASS"
	for _, row := range table.Hard {
		if row.Result != models.GatePass {
			verdict = "FAIL"
			break
		}
	}
	return fmt.Sprintf("%s path. Hard gates: %s.", path.Path, verdict)
}

// LoadSnapshot retrieves a previously persisted dossier for a
// ticker/period pair.
func (o *Orchestrator) LoadSnapshot(ticker, period string) (*report.Dossier, bool, error) {
	if o.artifacts == nil {
		return nil, false, nil
	}
	key := fmt.Sprintf("dossier:%s:%s", strings.ToUpper(ticker), period)
	var dossier report.Dossier
	found, err := o.artifacts.Get(key, &dossier)
	if err != nil {
		return nil, false, fmt.Errorf("load dossier snapshot: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return &dossier, true, nil
}
