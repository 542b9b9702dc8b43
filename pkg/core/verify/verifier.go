// Package verify re-derives a dossier's numbers from the original raw
// period and issues an independent PASS/BLOCKER verdict. It never trusts
// the dossier's own computation.
package verify

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/docstore"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/gates"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/metrics"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/normalize"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/provenance"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/report"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/valuation"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

// Tolerances for the consistency cross-checks.
const (
	// DefaultSampleSize bounds how many dossier metrics get re-checked.
	DefaultSampleSize = 5
	// metricDriftTolerance is the allowed relative drift between a
	// declared metric value and its recomputation.
	metricDriftTolerance = 0.01
	sharesTolerance      = 0.01
	netDebtTolerance     = 0.05
)

// allowedDocTypes are the primary sources a dossier may cite.
var allowedDocTypes = map[string]struct{}{
	"10-K":       {},
	"20-F":       {},
	"10-Q":       {},
	"6-K":        {},
	"8-K":        {},
	"Proxy":      {},
	"IR-Deck":    {},
	"Transcript": {},
}

// hardGateNames in evaluation order; all five must be present and passing.
var hardGateNames = []string{
	"Circle of Competence",
	"Fraud/Controls",
	"Imminent Solvency",
	"Valuation",
	"Final Decision Gate",
}

// subscriptionOnlyMetrics are disallowed outside subscription businesses.
var subscriptionOnlyMetrics = []string{
	models.MetricNRR,
	"GRR",
	"Net Revenue Retention",
}

var restrictedBusinessModels = map[string]struct{}{
	"marketplace":      {},
	"commerce":         {},
	"non-subscription": {},
}

// Verifier recomputes the deterministic pipeline and cross-checks the
// dossier against it.
type Verifier struct {
	normalizer    *normalize.Normalizer
	metricBuilder *metrics.Builder
	valBuilder    *valuation.Builder
	provValidator *provenance.Validator
	sampleSize    int
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithSampleSize overrides how many dossier metrics are re-checked.
func WithSampleSize(n int) Option {
	return func(v *Verifier) { v.sampleSize = n }
}

// New returns a Verifier. The document store backs the provenance
// re-validation; nil disables it.
func New(store docstore.Store, opts ...Option) *Verifier {
	v := &Verifier{
		normalizer:    normalize.New(),
		metricBuilder: metrics.New(),
		valBuilder:    valuation.NewBuilder(),
		provValidator: provenance.NewValidator(store),
		sampleSize:    DefaultSampleSize,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify re-runs normalization, metric building and valuation on the raw
// period, then cross-checks the dossier. Every failed check contributes a
// reason; the verdict is BLOCKER iff any reason accumulated. Only a
// malformed raw period is an error.
func (v *Verifier) Verify(ctx context.Context, raw models.Period, history []models.Period, dossier *report.Dossier) (models.QAResult, error) {
	normalized, err := v.normalizer.Normalize(raw, history)
	if err != nil {
		return models.QAResult{}, fmt.Errorf("normalize raw period: %w", err)
	}
	fresh := v.metricBuilder.Build(normalized)
	freshByName := make(map[string]models.Metric, len(fresh))
	for _, metric := range fresh {
		freshByName[metric.Name] = metric
	}

	var reasons []string
	reasons = append(reasons, v.checkProvenance(ctx, fresh, freshByName)...)
	reasons = append(reasons, v.checkMetricSample(dossier.Metrics, freshByName)...)
	reasons = append(reasons, checkHardGates(dossier.StageZero.Hard)...)
	reasons = append(reasons, checkHeadline(dossier.Headline, normalized, history)...)
	reasons = append(reasons, v.checkValuationConsistency(dossier.Valuation, normalized)...)
	reasons = append(reasons, checkBusinessModel(dossier.Metrics, normalized.Metadata.BusinessModel)...)
	reasons = append(reasons, checkSources(dossier.Sources)...)

	if len(reasons) > 0 {
		return models.QAResult{Status: models.QABlocker, Reasons: reasons}, nil
	}
	return models.QAResult{Status: models.QAPass, Reasons: []string{}}, nil
}

// checkProvenance re-validates citations on the freshly computed metrics.
// System-derived metrics and transient document-load failures do not
// block: the former cite no document by construction, the latter say
// nothing about the dossier itself.
func (v *Verifier) checkProvenance(ctx context.Context, fresh []models.Metric, byName map[string]models.Metric) []string {
	var reasons []string
	for _, issue := range v.provValidator.ValidateMetrics(ctx, fresh) {
		if metric, ok := byName[issue.Metric]; ok && metric.IsSystemDerived() {
			continue
		}
		if issue.Reason == "unable to load source document" {
			continue
		}
		reasons = append(reasons, fmt.Sprintf("Provenance issue for %s: %s", issue.Metric, issue.Reason))
	}
	return reasons
}

// checkMetricSample compares the first sampleSize numeric dossier metrics
// against their recomputed values. Relative drift above 1% blocks;
// absolute drift when the recomputed value is exactly zero.
func (v *Verifier) checkMetricSample(declared []models.Metric, freshByName map[string]models.Metric) []string {
	var reasons []string
	sampled := 0
	for _, metric := range declared {
		if sampled >= v.sampleSize {
			break
		}
		value, ok := metric.Value.Float()
		if !ok {
			continue
		}
		sampled++
		fresh, ok := freshByName[metric.Name]
		if !ok {
			continue
		}
		expected, ok := fresh.Value.Float()
		if !ok {
			continue
		}
		var drift float64
		if expected == 0 {
			drift = math.Abs(value - expected)
		} else {
			drift = math.Abs(value-expected) / math.Abs(expected)
		}
		if drift > metricDriftTolerance {
			reasons = append(reasons, fmt.Sprintf("Metric mismatch for %s", metric.Name))
		}
	}
	return reasons
}

func checkHardGates(rows []models.GateRow) []string {
	seen := make(map[string]models.GateResult, len(rows))
	for _, row := range rows {
		seen[row.Gate] = row.Result
	}
	var reasons []string
	for _, gate := range hardGateNames {
		result, ok := seen[gate]
		switch {
		case !ok:
			reasons = append(reasons, fmt.Sprintf("Missing hard gate: %s", gate))
		case result != models.GatePass && string(result) != "PASS":
			reasons = append(reasons, fmt.Sprintf("Hard gate failed: %s", gate))
		}
	}
	return reasons
}

// checkHeadline re-classifies the path and rejects a dossier whose
// headline claims Mature while the classifier found failures.
func checkHeadline(headline string, normalized models.Period, history []models.Period) []string {
	if !strings.Contains(headline, gates.PathMature) {
		return nil
	}
	decision := gates.DeterminePath(normalized, history)
	if len(decision.Reasons) == 0 {
		return nil
	}
	return []string{fmt.Sprintf(
		"Headline claims Mature but path classification failed: %s",
		strings.Join(decision.Reasons, "; "),
	)}
}

// checkValuationConsistency compares the dossier's reverse-DCF pricing
// inputs against the quarter metadata: shares within 1%, net debt within
// 5% (absolute when the expected value is zero).
func (v *Verifier) checkValuationConsistency(bundle *valuation.Bundle, normalized models.Period) []string {
	if bundle == nil {
		return nil
	}
	meta := normalized.Metadata.Valuation
	var reasons []string

	if meta != nil && meta.SharesDiluted != nil {
		if exceedsTolerance(bundle.Shares, *meta.SharesDiluted, sharesTolerance) {
			reasons = append(reasons, "Reverse-DCF shares inconsistent with quarter metadata")
		}
	}

	wantNetDebt, ok := expectedNetDebt(meta, normalized)
	if ok && exceedsTolerance(bundle.NetDebt, wantNetDebt, netDebtTolerance) {
		reasons = append(reasons, "Reverse-DCF net debt inconsistent with quarter metadata")
	}
	return reasons
}

func expectedNetDebt(meta *models.ValuationMeta, period models.Period) (float64, bool) {
	if meta != nil && meta.NetDebt != nil {
		return *meta.NetDebt, true
	}
	debt, debtOK := period.Balance(models.FieldTotalDebt)
	cash, cashOK := period.Balance(models.FieldCash)
	if !debtOK && !cashOK {
		return 0, false
	}
	return debt - cash, true
}

func exceedsTolerance(actual, expected, tolerance float64) bool {
	if expected == 0 {
		return math.Abs(actual-expected) > tolerance
	}
	return math.Abs(actual-expected)/math.Abs(expected) > tolerance
}

// checkBusinessModel rejects subscription-only retention metrics carried
// with numeric values by non-subscription businesses.
func checkBusinessModel(declared []models.Metric, businessModel string) []string {
	model := strings.ToLower(strings.TrimSpace(businessModel))
	if _, restricted := restrictedBusinessModels[model]; !restricted {
		return nil
	}
	var reasons []string
	for _, metric := range declared {
		if _, ok := metric.Value.Float(); !ok {
			continue
		}
		for _, name := range subscriptionOnlyMetrics {
			if metric.Name == name {
				reasons = append(reasons, fmt.Sprintf(
					"Subscription metric %s not permitted for %s business model", metric.Name, model,
				))
				break
			}
		}
	}
	return reasons
}

func checkSources(sources []report.SourceClaim) []string {
	var reasons []string
	for _, claim := range sources {
		if _, ok := allowedDocTypes[claim.DocType]; !ok {
			reasons = append(reasons, fmt.Sprintf("Non-primary source detected: %s", claim.DocType))
		}
	}
	return reasons
}
