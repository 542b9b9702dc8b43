// Package models defines the data contracts shared by the deterministic
// research pipeline: periods, metrics with provenance, gate rows, deltas
// and verifier verdicts. Shapes mirror the persisted JSON payloads and must
// stay stable across releases.
package models

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// Abstain is the sentinel carried by metrics whose inputs were missing or
// whose denominator was unsafely small. A metric value is never null.
const Abstain = "ABSTAIN"

// MetricValue is either a finite number or the ABSTAIN sentinel.
// The zero value is ABSTAIN.
type MetricValue struct {
	value   float64
	numeric bool
}

// Numeric wraps a finite number into a MetricValue.
func Numeric(v float64) MetricValue {
	return MetricValue{value: v, numeric: true}
}

// Abstained returns the ABSTAIN sentinel value.
func Abstained() MetricValue {
	return MetricValue{}
}

// Float returns the numeric value and whether one is present.
func (m MetricValue) Float() (float64, bool) {
	return m.value, m.numeric
}

// IsAbstain reports whether the value is the ABSTAIN sentinel.
func (m MetricValue) IsAbstain() bool {
	return !m.numeric
}

// MarshalJSON emits either a JSON number or the string "ABSTAIN".
func (m MetricValue) MarshalJSON() ([]byte, error) {
	if !m.numeric {
		return json.Marshal(Abstain)
	}
	if math.IsNaN(m.value) || math.IsInf(m.value, 0) {
		return nil, fmt.Errorf("metric value is not finite: %f", m.value)
	}
	return json.Marshal(m.value)
}

// UnmarshalJSON accepts a JSON number or the string "ABSTAIN".
func (m *MetricValue) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*m = Numeric(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("metric value must be number or %q: %s", Abstain, string(data))
	}
	if s != Abstain {
		return fmt.Errorf("unexpected metric value sentinel %q", s)
	}
	*m = Abstained()
	return nil
}

// EncodeMsgpack mirrors the JSON contract for the msgpack-backed stores.
func (m MetricValue) EncodeMsgpack(enc *msgpack.Encoder) error {
	if !m.numeric {
		return enc.EncodeString(Abstain)
	}
	if math.IsNaN(m.value) || math.IsInf(m.value, 0) {
		return fmt.Errorf("metric value is not finite: %f", m.value)
	}
	return enc.EncodeFloat64(m.value)
}

// DecodeMsgpack accepts a number or the ABSTAIN sentinel string.
func (m *MetricValue) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeInterface()
	if err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*m = Numeric(v)
	case float32:
		*m = Numeric(float64(v))
	case int64:
		*m = Numeric(float64(v))
	case uint64:
		*m = Numeric(float64(v))
	case int:
		*m = Numeric(float64(v))
	case int8:
		*m = Numeric(float64(v))
	case int16:
		*m = Numeric(float64(v))
	case int32:
		*m = Numeric(float64(v))
	case uint8:
		*m = Numeric(float64(v))
	case uint16:
		*m = Numeric(float64(v))
	case uint32:
		*m = Numeric(float64(v))
	case string:
		if v != Abstain {
			return fmt.Errorf("unexpected metric value sentinel %q", v)
		}
		*m = Abstained()
	default:
		return fmt.Errorf("metric value must be number or %q, got %T", Abstain, raw)
	}
	return nil
}

// ProvenanceRef points a derived value back at a literal quote inside a
// specific source document.
type ProvenanceRef struct {
	SourceDocID   string `json:"source_doc_id"`
	PageOrSection string `json:"page_or_section"`
	Quote         string `json:"quote"`
	URL           string `json:"url"`
}

// Metric is a derived value with mandatory provenance. Synthetic metrics
// (WACC components and other system-derived values) carry the fixed
// SystemDocID source and are exempt from quote verification.
type Metric struct {
	Name          string            `json:"name"`
	Value         MetricValue       `json:"value"`
	Unit          string            `json:"unit"`
	Period        string            `json:"period"`
	SourceDocID   string            `json:"source_doc_id"`
	PageOrSection string            `json:"page_or_section"`
	Quote         string            `json:"quote"`
	URL           string            `json:"url"`
	Inputs        []string          `json:"inputs,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// SystemDocID marks metrics that are derived by the pipeline itself rather
// than quoted from a filed document.
const SystemDocID = "SYSTEM-DERIVED"

// IsSystemDerived reports whether the metric has no backing document.
func (m Metric) IsSystemDerived() bool {
	return m.SourceDocID == SystemDocID
}

// Document describes a point-in-time primary source document. Content is
// stored separately; the id is content-addressed via PITHash.
type Document struct {
	ID       string `json:"id"`
	Ticker   string `json:"ticker"`
	DocType  string `json:"doc_type"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	URL      string `json:"url"`
	PITHash  string `json:"pit_hash"`
	PDFPages int    `json:"pdf_pages,omitempty"`
}

// GateResult is the three-valued outcome of a Stage-0 gate.
type GateResult string

const (
	GatePass     GateResult = "Pass"
	GateSoftPass GateResult = "Soft-Pass"
	GateFail     GateResult = "Fail"
)

// GateRow is a single row in the Stage-0 gate table. Rows are produced
// fresh on every evaluation and never mutated.
type GateRow struct {
	Gate           string     `json:"gate"`
	HardOrSoft     string     `json:"hard_or_soft"`
	WhatItMeans    string     `json:"what_it_means"`
	MetricsSources []string   `json:"metrics_sources"`
	PassRule       string     `json:"pass_rule"`
	Result         GateResult `json:"result"`
	FlipTrigger    string     `json:"flip_trigger,omitempty"`
}

// QAStatus is the verifier verdict.
type QAStatus string

const (
	QAPass    QAStatus = "PASS"
	QABlocker QAStatus = "BLOCKER"
)

// QAResult is the verifier judgement: Reasons is empty iff Status is PASS.
type QAResult struct {
	Status  QAStatus `json:"status"`
	Reasons []string `json:"reasons"`
}

// DeltaRecord reports period-over-period movement for one metric.
// The five-field shape is a compatibility contract.
type DeltaRecord struct {
	Current    float64 `json:"current"`
	QoQ        float64 `json:"qoq"`
	YoY        float64 `json:"yoy"`
	QoQPercent float64 `json:"qoq_percent"`
	YoYPercent float64 `json:"yoy_percent"`
}
