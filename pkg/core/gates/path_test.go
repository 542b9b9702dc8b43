package gates

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

func maturePeriod() models.Period {
	return models.Period{
		Ticker: "TEST",
		Label:  "2024Q2",
		BalanceSheet: map[string]float64{
			models.FieldTotalDebt: 100,
			models.FieldCash:      300,
		},
		Metadata: models.PeriodMeta{
			TTM: map[string]float64{
				models.FieldFCF:  400,
				models.FieldEBIT: 500,
			},
		},
	}
}

func segmentHistory(quarters int) []models.Period {
	history := make([]models.Period, quarters)
	for i := range history {
		history[i] = models.Period{
			Ticker: "TEST",
			Label:  fmt.Sprintf("Q%d", i),
			Segments: map[string]map[string]float64{
				"Core": {models.FieldRevenue: 100},
			},
		}
	}
	return history
}

func TestDeterminePathMature(t *testing.T) {
	decision := DeterminePath(maturePeriod(), segmentHistory(8))
	if decision.Path != PathMature {
		t.Fatalf("Expected Mature, got %s with reasons %v", decision.Path, decision.Reasons)
	}
	if decision.Reasons == nil || len(decision.Reasons) != 0 {
		t.Errorf("Mature path must carry an empty, non-nil reasons list, got %v", decision.Reasons)
	}
}

func TestDeterminePathNegativeFCFAlwaysEmergent(t *testing.T) {
	period := maturePeriod()
	period.Metadata.TTM[models.FieldFCF] = -10

	decision := DeterminePath(period, segmentHistory(8))
	if decision.Path != PathEmergent {
		t.Fatalf("Expected Emergent, got %s", decision.Path)
	}
	if len(decision.Reasons) == 0 {
		t.Fatal("Expected a non-empty reasons list")
	}
	found := false
	for _, reason := range decision.Reasons {
		if strings.Contains(reason, "FCF") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a reason mentioning FCF, got %v", decision.Reasons)
	}
}

func TestDeterminePathLeverage(t *testing.T) {
	period := maturePeriod()
	period.BalanceSheet[models.FieldTotalDebt] = 2000
	period.BalanceSheet[models.FieldCash] = 100

	decision := DeterminePath(period, segmentHistory(8))
	if decision.Path != PathEmergent {
		t.Fatalf("Expected Emergent at 3.8x leverage, got %s", decision.Path)
	}

	// Net cash passes the leverage check regardless of the ratio.
	period.BalanceSheet[models.FieldTotalDebt] = 0
	decision = DeterminePath(period, segmentHistory(8))
	if decision.Path != PathMature {
		t.Errorf("Expected Mature with net cash, got %s (%v)", decision.Path, decision.Reasons)
	}
}

func TestDeterminePathSegmentDisclosure(t *testing.T) {
	decision := DeterminePath(maturePeriod(), segmentHistory(7))
	if decision.Path != PathEmergent {
		t.Fatalf("Expected Emergent with 7 quarters of history, got %s", decision.Path)
	}

	// A recent quarter without segments breaks the streak even with a
	// long history.
	history := segmentHistory(10)
	history[3].Segments = nil
	decision = DeterminePath(maturePeriod(), history)
	if decision.Path != PathEmergent {
		t.Errorf("Expected Emergent with a gap in disclosure, got %s", decision.Path)
	}

	// A gap older than eight quarters does not matter.
	history = segmentHistory(10)
	history[9].Segments = nil
	decision = DeterminePath(maturePeriod(), history)
	if decision.Path != PathMature {
		t.Errorf("Expected Mature with an old gap, got %s (%v)", decision.Path, decision.Reasons)
	}
}

func TestDeterminePathCollectsAllFailures(t *testing.T) {
	decision := DeterminePath(models.Period{Ticker: "TEST"}, nil)
	if decision.Path != PathEmergent {
		t.Fatalf("Expected Emergent, got %s", decision.Path)
	}
	if len(decision.Reasons) != 4 {
		t.Errorf("Expected all 4 failure reasons, got %v", decision.Reasons)
	}
}
