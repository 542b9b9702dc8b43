package gates

import (
	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

// Path labels used by the final decision gate.
const (
	PathMature   = "Mature"
	PathEmergent = "Emergent"
)

// PathDecision is the classification plus the specific checks that failed.
// Reasons is empty iff Path is Mature.
type PathDecision struct {
	Path    string   `json:"path"`
	Reasons []string `json:"reasons"`
}

// DeterminePath classifies a company as Mature or Emergent from the
// current quarter's trailing figures and the disclosure history. History
// is ordered most recent first; the latest eight quarters must carry
// segment disclosure.
func DeterminePath(current models.Period, history []models.Period) PathDecision {
	ttm := current.Metadata.TTM

	var failures []string

	fcf, fcfOK := ttm[models.FieldFCF]
	if !fcfOK || fcf <= 0 {
		failures = append(failures, "TTM FCF <= 0")
	}

	ebit, ebitOK := ttm[models.FieldEBIT]
	if !ebitOK || ebit <= 0 {
		failures = append(failures, "TTM EBIT <= 0")
	}

	netDebt := current.BalanceSheet[models.FieldTotalDebt] - current.BalanceSheet[models.FieldCash]
	leverageOK := false
	if ebitOK && ebit > 0 {
		leverage := netDebt / ebit
		leverageOK = leverage <= 1.0 || netDebt <= 0
	}
	if !leverageOK {
		failures = append(failures, "Net leverage >1x or net debt positive")
	}

	if !segmentDisclosureOK(history) {
		failures = append(failures, "Segment disclosure < 8 quarters")
	}

	if len(failures) > 0 {
		return PathDecision{Path: PathEmergent, Reasons: failures}
	}
	return PathDecision{Path: PathMature, Reasons: []string{}}
}

func segmentDisclosureOK(history []models.Period) bool {
	if len(history) < 8 {
		return false
	}
	for _, quarter := range history[:8] {
		if len(quarter.Segments) == 0 {
			return false
		}
	}
	return true
}
