package valuation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/docstore"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

const yamlConfig = `
valuation:
  risk_free_rate: 0.04
  equity_risk_premium: 0.05
  beta: 1.1
  cost_of_debt: 0.05
  tax_rate: 0.21
  market_equity_value: 900
  market_debt_value: 100
  share_price: 42.5
  shares_diluted: 120
  fcf_paths:
    Base: [500, 550, 600]
provenance:
  Revenue:
    source_doc_id: TEST-DOC-1
    page_or_section: p. 12
    quote: Total revenue was 500
    url: https://example.com/10k
documents:
  - id: TEST-DOC-1
    ticker: TEST
    doc_type: 10-K
    title: Annual report
    date: "2024-02-01"
    url: https://example.com/10k
    content: Total revenue was 500
`

const hjsonConfig = `
{
  # lenient syntax on purpose
  valuation: {
    risk_free_rate: 0.04
    equity_risk_premium: 0.05
    beta: 1.1
    cost_of_debt: 0.05
    tax_rate: 0.21
    market_equity_value: 900
    market_debt_value: 100
  }
}
`

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestConfigLoaderYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "TEST.yaml", yamlConfig)

	cfg, err := NewConfigLoader(dir).Load("test")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected a config")
	}
	if cfg.Valuation.Beta == nil || *cfg.Valuation.Beta != 1.1 {
		t.Errorf("Expected beta 1.1, got %v", cfg.Valuation.Beta)
	}
	if len(cfg.Valuation.FCFPaths["Base"]) != 3 {
		t.Errorf("Expected 3-point base path, got %v", cfg.Valuation.FCFPaths)
	}
	if cfg.Provenance["Revenue"].SourceDocID != "TEST-DOC-1" {
		t.Errorf("Expected provenance entry, got %+v", cfg.Provenance)
	}
}

func TestConfigLoaderHJSON(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "TEST.hjson", hjsonConfig)

	cfg, err := NewConfigLoader(dir).Load("TEST")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg == nil || cfg.Valuation.RiskFreeRate == nil || *cfg.Valuation.RiskFreeRate != 0.04 {
		t.Fatalf("Expected parsed hjson config, got %+v", cfg)
	}
}

func TestConfigLoaderMissingFile(t *testing.T) {
	cfg, err := NewConfigLoader(t.TempDir()).Load("NOPE")
	if err != nil {
		t.Fatalf("Missing config must not error, got %v", err)
	}
	if cfg != nil {
		t.Error("Expected nil config for a ticker without a file")
	}
}

func TestConfigApplyAttachesMetadataAndPersistsDocuments(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "TEST.yaml", yamlConfig)
	loader := NewConfigLoader(dir)

	cfg, err := loader.Load("TEST")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	store, err := docstore.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	period := models.Period{Ticker: "TEST", Label: "2024Q2"}
	out, err := loader.Apply(context.Background(), period, cfg, store)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if out.Metadata.Valuation == nil || out.Metadata.Valuation.SharePrice == nil {
		t.Fatal("Expected valuation metadata attached")
	}
	if _, ok := out.Metadata.Valuation.Provenance["Revenue"]; !ok {
		t.Error("Expected provenance merged into valuation metadata")
	}
	// Input stays untouched.
	if period.Metadata.Valuation != nil {
		t.Error("Apply mutated its input")
	}

	doc, content, err := store.Load(context.Background(), "TEST-DOC-1")
	if err != nil {
		t.Fatalf("document not persisted: %v", err)
	}
	if doc.PITHash == "" {
		t.Error("Expected a content hash filled in")
	}
	if string(content) != "Total revenue was 500" {
		t.Errorf("Unexpected stored content %q", content)
	}

	// Re-applying is idempotent.
	if _, err := loader.Apply(context.Background(), period, cfg, store); err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}
}
