package storage

import (
	"path/filepath"
	"testing"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

func newStore(t *testing.T) *JSONFileStore {
	t.Helper()
	store, err := NewJSONFileStore(filepath.Join(t.TempDir(), "nested", "state.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func TestSetGetRoundTrip(t *testing.T) {
	store := newStore(t)

	metric := models.Metric{
		Name:        "Revenue",
		Value:       models.Numeric(1000),
		Period:      "2024Q2",
		SourceDocID: "DOC-1",
	}
	if err := store.Set("metric", metric); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got models.Metric
	found, err := store.Get("metric", &got)
	if err != nil || !found {
		t.Fatalf("Get failed: found=%v err=%v", found, err)
	}
	if got.Name != "Revenue" {
		t.Errorf("Unexpected metric %+v", got)
	}
	if v, ok := got.Value.Float(); !ok || v != 1000 {
		t.Errorf("Metric value lost in round trip: %v", got.Value)
	}
}

func TestAbstainSurvivesRoundTrip(t *testing.T) {
	store := newStore(t)

	if err := store.Set("metric", models.Metric{Name: "NRR", Value: models.Abstained()}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	var got models.Metric
	if _, err := store.Get("metric", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.Value.IsAbstain() {
		t.Errorf("ABSTAIN sentinel lost in round trip: %v", got.Value)
	}
}

func TestGetMissingKey(t *testing.T) {
	store := newStore(t)
	var out models.Metric
	found, err := store.Get("nope", &out)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Error("Expected missing key to report not found")
	}
}

func TestDeleteAndKeys(t *testing.T) {
	store := newStore(t)
	if err := store.Set("a", 1); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set("b", 2); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Delete("a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	// Deleting twice is a no-op.
	if err := store.Delete("a"); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}

	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "b" {
		t.Errorf("Expected only key b, got %v", keys)
	}
}

func TestGateRowRoundTrip(t *testing.T) {
	store := newStore(t)
	rows := []models.GateRow{{
		Gate:           "Valuation",
		HardOrSoft:     "Hard",
		MetricsSources: []string{"DOC-1 | p. 10"},
		PassRule:       "ROIC >= WACC",
		Result:         models.GatePass,
	}}
	if err := store.Set("gates", rows); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	var got []models.GateRow
	if _, err := store.Get("gates", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != 1 || got[0].Result != models.GatePass {
		t.Errorf("Gate rows lost in round trip: %v", got)
	}
}
