package triggers

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestScheduleValidatesCronSpec(t *testing.T) {
	s := NewScheduler(NewMonitor(nil), nil, nil, zerolog.Nop())

	if err := s.Schedule("0 7 * * 1-5", []string{"TEST"}); err != nil {
		t.Errorf("Valid cron spec rejected: %v", err)
	}
	if err := s.Schedule("not a cron spec", []string{"TEST"}); err == nil {
		t.Error("Expected an error for a malformed cron spec")
	}
}

func TestRunOnceDeliversBreachAlerts(t *testing.T) {
	monitor := NewMonitor(nil)
	deadline := time.Now().Add(60 * 24 * time.Hour)
	if err := monitor.Upsert("TEST", "Revenue growth", 2000, CompareGTE, deadline); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	source := func(ticker string) (map[string]float64, error) {
		if ticker != "TEST" {
			t.Errorf("Unexpected ticker %q", ticker)
		}
		return map[string]float64{"Revenue growth": 1000}, nil
	}
	var gotTicker string
	var gotAlerts []Alert
	sink := func(ticker string, alerts []Alert) {
		gotTicker = ticker
		gotAlerts = alerts
	}

	s := NewScheduler(monitor, source, sink, zerolog.Nop())
	s.runOnce([]string{"TEST"})

	if gotTicker != "TEST" {
		t.Fatalf("Expected alerts delivered for TEST, sink saw %q", gotTicker)
	}
	if len(gotAlerts) != 1 || gotAlerts[0].Status != StatusBreach {
		t.Fatalf("Expected one BREACH alert, got %+v", gotAlerts)
	}
	if gotAlerts[0].Trigger != "Revenue growth" {
		t.Errorf("Unexpected trigger name %q", gotAlerts[0].Trigger)
	}
}

func TestRunOnceSkipsTickerWhenMetricsUnavailable(t *testing.T) {
	monitor := NewMonitor(nil)
	if err := monitor.Upsert("TEST", "Revenue growth", 2000, CompareGTE, time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	source := func(string) (map[string]float64, error) {
		return nil, errors.New("feed offline")
	}
	called := false
	sink := func(string, []Alert) { called = true }

	s := NewScheduler(monitor, source, sink, zerolog.Nop())
	s.runOnce([]string{"TEST"})

	if called {
		t.Error("Sink must not fire when the metric source fails")
	}
}
