// Package provenance verifies that every metric's citation resolves: the
// reference fields are present, the quote is short enough to be literal,
// and the quote actually appears in the stored source document.
package provenance

import (
	"context"
	"regexp"
	"strings"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/docstore"
	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

// MaxQuoteWords bounds a citation quote; longer quotes are paraphrases,
// not evidence.
const MaxQuoteWords = 30

// Issue names the metric and what failed about its citation.
type Issue struct {
	Metric string `json:"metric"`
	Reason string `json:"reason"`
}

// Validator checks metric citations against a document store. A nil
// store disables validation entirely.
type Validator struct {
	store docstore.Store
}

// NewValidator returns a validator backed by the given store.
func NewValidator(store docstore.Store) *Validator {
	return &Validator{store: store}
}

// ValidateMetrics checks every metric and returns all issues found. An
// empty slice means every citation resolved. Document text is cached for
// the duration of the call.
func (v *Validator) ValidateMetrics(ctx context.Context, metrics []models.Metric) []Issue {
	if v.store == nil {
		return nil
	}
	cache := newDocumentCache(v.store)
	var issues []Issue
	for _, metric := range metrics {
		issues = append(issues, v.validateMetric(ctx, cache, metric)...)
	}
	return issues
}

func (v *Validator) validateMetric(ctx context.Context, cache *documentCache, metric models.Metric) []Issue {
	var problems []Issue
	if metric.SourceDocID == "" {
		problems = append(problems, Issue{metric.Name, "missing source_doc_id"})
	}
	if metric.PageOrSection == "" {
		problems = append(problems, Issue{metric.Name, "missing page_or_section"})
	}
	if metric.Quote == "" {
		problems = append(problems, Issue{metric.Name, "missing quote"})
	} else if len(strings.Fields(metric.Quote)) > MaxQuoteWords {
		problems = append(problems, Issue{metric.Name, "quote exceeds 30 words"})
	}
	if metric.URL == "" {
		problems = append(problems, Issue{metric.Name, "missing url"})
	}
	if len(problems) > 0 {
		return problems
	}

	text, err := cache.fetchText(ctx, metric.SourceDocID)
	if err != nil {
		return []Issue{{metric.Name, "unable to load source document"}}
	}

	quote := strings.TrimSpace(metric.Quote)
	if quote == "" || strings.Contains(text, quote) {
		return nil
	}
	if strings.Contains(normalizeText(text), normalizeText(quote)) {
		return nil
	}
	return []Issue{{metric.Name, "quote not found in source document"}}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalizeText lowercases and collapses whitespace so quotes survive
// line wrapping and case differences in the source.
func normalizeText(value string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(value), " ")
}
