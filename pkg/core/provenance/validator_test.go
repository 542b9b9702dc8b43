package provenance

import (
	"context"
	"strings"
	"testing"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/docstore"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

func storeWith(t *testing.T, docs map[string]string) *docstore.FileStore {
	t.Helper()
	store, err := docstore.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	for id, content := range docs {
		doc := models.Document{ID: id, Ticker: "TEST", DocType: "10-K", Title: id, Date: "2024-02-01", URL: "https://example.com/" + id}
		if _, err := store.Save(context.Background(), doc, []byte(content)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	return store
}

func cited(name, docID, quote string) models.Metric {
	return models.Metric{
		Name:          name,
		Value:         models.Numeric(1),
		Period:        "2024Q2",
		SourceDocID:   docID,
		PageOrSection: "p. 10",
		Quote:         quote,
		URL:           "https://example.com/" + docID,
	}
}

func TestValidateMetricsCleanCitation(t *testing.T) {
	store := storeWith(t, map[string]string{
		"TEST-DOC-1": "Total net revenue was $500 million for the quarter.",
	})
	v := NewValidator(store)

	issues := v.ValidateMetrics(context.Background(), []models.Metric{
		cited("Revenue", "TEST-DOC-1", "Total net revenue was $500 million"),
	})
	if len(issues) != 0 {
		t.Errorf("Expected no issues, got %v", issues)
	}
}

func TestValidateMetricsNormalizedMatch(t *testing.T) {
	store := storeWith(t, map[string]string{
		"TEST-DOC-1": "Total Net Revenue\n  was $500 million for the quarter.",
	})
	v := NewValidator(store)

	// Case and line wrapping in the source must not break the match.
	issues := v.ValidateMetrics(context.Background(), []models.Metric{
		cited("Revenue", "TEST-DOC-1", "total net revenue was $500 million"),
	})
	if len(issues) != 0 {
		t.Errorf("Expected normalized match, got %v", issues)
	}
}

func TestValidateMetricsQuoteNotFound(t *testing.T) {
	store := storeWith(t, map[string]string{"TEST-DOC-1": "unrelated text"})
	v := NewValidator(store)

	issues := v.ValidateMetrics(context.Background(), []models.Metric{
		cited("Revenue", "TEST-DOC-1", "Total net revenue was $500 million"),
	})
	if len(issues) != 1 || issues[0].Reason != "quote not found in source document" {
		t.Errorf("Expected quote-not-found issue, got %v", issues)
	}
	if issues[0].Metric != "Revenue" {
		t.Errorf("Issue must name the metric, got %q", issues[0].Metric)
	}
}

func TestValidateMetricsMissingFields(t *testing.T) {
	store := storeWith(t, nil)
	v := NewValidator(store)

	issues := v.ValidateMetrics(context.Background(), []models.Metric{
		{Name: "Revenue", Value: models.Numeric(1), Period: "2024Q2"},
	})
	if len(issues) != 4 {
		t.Fatalf("Expected 4 missing-field issues, got %v", issues)
	}
	reasons := make(map[string]bool)
	for _, issue := range issues {
		reasons[issue.Reason] = true
	}
	for _, want := range []string{"missing source_doc_id", "missing page_or_section", "missing quote", "missing url"} {
		if !reasons[want] {
			t.Errorf("Missing expected reason %q in %v", want, issues)
		}
	}
}

func TestValidateMetricsQuoteTooLong(t *testing.T) {
	store := storeWith(t, map[string]string{"TEST-DOC-1": "text"})
	v := NewValidator(store)

	long := strings.Repeat("word ", 31)
	issues := v.ValidateMetrics(context.Background(), []models.Metric{
		cited("Revenue", "TEST-DOC-1", strings.TrimSpace(long)),
	})
	if len(issues) != 1 || issues[0].Reason != "quote exceeds 30 words" {
		t.Errorf("Expected quote-length issue, got %v", issues)
	}
}

func TestValidateMetricsUnknownDocument(t *testing.T) {
	store := storeWith(t, nil)
	v := NewValidator(store)

	issues := v.ValidateMetrics(context.Background(), []models.Metric{
		cited("Revenue", "MISSING-DOC", "any quote"),
	})
	if len(issues) != 1 || issues[0].Reason != "unable to load source document" {
		t.Errorf("Expected load failure issue, got %v", issues)
	}
}

func TestValidateMetricsHTMLSource(t *testing.T) {
	store := storeWith(t, map[string]string{
		"TEST-DOC-HTML": "<html><body><p>Total net revenue was <b>$500 million</b> for the quarter.</p></body></html>",
	})
	v := NewValidator(store)

	issues := v.ValidateMetrics(context.Background(), []models.Metric{
		cited("Revenue", "TEST-DOC-HTML", "Total net revenue was $500 million"),
	})
	if len(issues) != 0 {
		t.Errorf("Expected quote to match the extracted HTML text, got %v", issues)
	}
}

func TestValidateMetricsNilStoreSkips(t *testing.T) {
	v := NewValidator(nil)
	issues := v.ValidateMetrics(context.Background(), []models.Metric{{Name: "Revenue"}})
	if issues != nil {
		t.Errorf("Nil store must skip validation, got %v", issues)
	}
}
