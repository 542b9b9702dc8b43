// Package normalize rescales raw statement figures to the canonical unit
// and rolls up trailing-twelve-month aggregates.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

// Flow metrics are summed across the trailing four quarters; stock metrics
// carry the latest value forward unsummed.
var (
	ttmIncomeFlows  = []string{models.FieldRevenue, models.FieldGrossProfit, models.FieldEBIT}
	ttmCashFlows    = []string{models.FieldCFO, models.FieldFCF}
	ttmBalanceStock = []string{
		models.FieldAccountsReceivable,
		models.FieldInventory,
		models.FieldTotalAssets,
		models.FieldCash,
		models.FieldTotalEquity,
	}
)

var periodPattern = regexp.MustCompile(`(\d{4}).*?Q([1-4])`)

// Normalizer is a pure transform: it never mutates its input and produces
// a new Period with unit scale 1.0 and a populated TTM snapshot.
type Normalizer struct {
	validate *validator.Validate
}

// New returns a Normalizer.
func New() *Normalizer {
	return &Normalizer{validate: validator.New()}
}

// Normalize rescales every numeric leaf of the period to the canonical
// unit and computes TTM aggregates from the current period plus up to the
// three most recent priors (history is ordered most recent first).
//
// The only error condition is structurally malformed metadata; missing
// numeric fields are silently skipped.
func (n *Normalizer) Normalize(period models.Period, history []models.Period) (models.Period, error) {
	if err := n.checkMetadata(period.Metadata); err != nil {
		return models.Period{}, err
	}

	out := n.rescale(period)

	trailing := []models.Period{out}
	for i, prior := range history {
		if i == 3 {
			break
		}
		if err := n.checkMetadata(prior.Metadata); err != nil {
			return models.Period{}, fmt.Errorf("history[%d]: %w", i, err)
		}
		trailing = append(trailing, n.rescale(prior))
	}

	ttm := make(map[string]float64)
	sumFlows(ttm, trailing, ttmIncomeFlows, func(p models.Period, key string) (float64, bool) { return p.Income(key) })
	sumFlows(ttm, trailing, ttmCashFlows, func(p models.Period, key string) (float64, bool) { return p.Cash(key) })
	for _, key := range ttmBalanceStock {
		if v, ok := out.Balance(key); ok {
			ttm[key] = v
		}
	}

	out.Metadata.TTM = ttm
	out.Metadata.TTMPeriod = n.ttmLabel(out)
	return out, nil
}

func (n *Normalizer) checkMetadata(meta models.PeriodMeta) error {
	if err := n.validate.Struct(meta); err != nil {
		return fmt.Errorf("malformed metadata: %w", err)
	}
	return nil
}

// rescale applies the resolved unit scale to every numeric leaf and pins
// metadata.unit_scale to 1.0. Rescaling an already-canonical period is a
// no-op on the numbers.
func (n *Normalizer) rescale(period models.Period) models.Period {
	out := period.Clone()
	scale := resolveScale(period.Metadata)
	if scale != 1.0 {
		scaleMap(out.IncomeStatement, scale)
		scaleMap(out.BalanceSheet, scale)
		scaleMap(out.CashFlow, scale)
		for _, segment := range out.Segments {
			scaleMap(segment, scale)
		}
	}
	if out.Metadata.OriginalUnitScale == 0 {
		out.Metadata.OriginalUnitScale = scale
	}
	out.Metadata.UnitScale = 1.0
	out.Metadata.UnitHint = ""
	return out
}

// resolveScale prefers an explicit numeric scale and falls back to
// pattern-matching a free-text unit hint.
func resolveScale(meta models.PeriodMeta) float64 {
	if meta.UnitScale > 0 {
		return meta.UnitScale
	}
	hint := strings.ToLower(meta.UnitHint)
	switch {
	case strings.Contains(hint, "billion"):
		return 1e9
	case strings.Contains(hint, "million"):
		return 1e6
	case strings.Contains(hint, "thousand"):
		return 1e3
	}
	return 1.0
}

func (n *Normalizer) ttmLabel(period models.Period) string {
	if m := periodPattern.FindStringSubmatch(period.Label); m != nil {
		return fmt.Sprintf("TTM-%sQ%s", m[1], m[2])
	}
	if period.Metadata.TTMPeriod != "" {
		return period.Metadata.TTMPeriod
	}
	return "TTM-" + period.Label
}

func sumFlows(ttm map[string]float64, periods []models.Period, keys []string, get func(models.Period, string) (float64, bool)) {
	for _, key := range keys {
		var sum float64
		found := false
		for _, p := range periods {
			if v, ok := get(p, key); ok {
				sum += v
				found = true
			}
		}
		if found {
			ttm[key] = sum
		}
	}
}

func scaleMap(m map[string]float64, scale float64) {
	for k, v := range m {
		m[k] = v * scale
	}
}
