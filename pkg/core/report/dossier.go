// Package report defines the assembled dossier: the single artifact the
// pipeline emits and the verifier re-checks.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/delta"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/gates"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/provenance"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/valuation"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

// SourceClaim is a dossier-level citation: which document type backed a
// headline metric. The verifier rejects non-primary document types.
type SourceClaim struct {
	Metric      string  `json:"metric"`
	Value       float64 `json:"value"`
	SourceDocID string  `json:"source_doc_id"`
	DocType     string  `json:"doc_type"`
	URL         string  `json:"url"`
}

// Dossier is the full computed research artifact for one company-quarter.
// It is a fresh value per pipeline run and is never mutated after
// assembly.
type Dossier struct {
	ID               string              `json:"id"`
	Ticker           string              `json:"ticker"`
	Period           string              `json:"period"`
	GeneratedAt      time.Time           `json:"generated_at"`
	Headline         string              `json:"headline"`
	Metrics          []models.Metric     `json:"metrics"`
	StageZero        gates.Table         `json:"stage_0"`
	Path             gates.PathDecision  `json:"path"`
	Valuation        *valuation.Bundle   `json:"valuation,omitempty"`
	Deltas           delta.Deltas        `json:"deltas,omitempty"`
	ProvenanceIssues []provenance.Issue  `json:"provenance_issues"`
	Sources          []SourceClaim       `json:"sources,omitempty"`
	TriggerAlerts    []string            `json:"trigger_alerts,omitempty"`
}

// Decode parses a serialized dossier. Payloads that fail strict JSON
// decoding get one repair attempt before giving up; dossiers may arrive
// from external tooling that mangles quoting or trailing commas.
func Decode(payload []byte) (*Dossier, error) {
	var dossier Dossier
	if err := json.Unmarshal(payload, &dossier); err == nil {
		return &dossier, nil
	}
	repaired, err := jsonrepair.RepairJSON(string(payload))
	if err != nil {
		return nil, fmt.Errorf("dossier payload is not valid JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &dossier); err != nil {
		return nil, fmt.Errorf("decode repaired dossier: %w", err)
	}
	return &dossier, nil
}

// Encode serializes the dossier for persistence.
func (d *Dossier) Encode() ([]byte, error) {
	payload, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode dossier: %w", err)
	}
	return payload, nil
}
