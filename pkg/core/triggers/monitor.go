// Package triggers tracks KPI thresholds with deadlines and raises
// BREACH/DEADLINE alerts when fresh metric values arrive.
package triggers

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/storage"
)

// Alert statuses.
const (
	StatusBreach   = "BREACH"
	StatusDeadline = "DEADLINE"
)

// Comparison directions. A trigger states the condition that should HOLD;
// a breach is the condition failing.
const (
	CompareGTE = "gte"
	CompareLTE = "lte"
	CompareGT  = "gt"
	CompareLT  = "lt"
)

// Trigger is one monitored condition for a ticker.
type Trigger struct {
	Ticker     string    `json:"ticker"`
	Name       string    `json:"name"`
	Threshold  float64   `json:"threshold"`
	Comparison string    `json:"comparison"`
	Deadline   time.Time `json:"deadline"`
	CreatedAt  time.Time `json:"created_at"`
}

// Alert is raised when a trigger breaches or its deadline lapses.
type Alert struct {
	Trigger       string  `json:"trigger"`
	Message       string  `json:"message"`
	Status        string  `json:"status"`
	DaysRemaining int     `json:"days_remaining"`
	Threshold     float64 `json:"threshold"`
	Value         float64 `json:"value"`
}

// Monitor keeps triggers in memory, backed by a KV store per ticker so
// state survives restarts.
type Monitor struct {
	mu       sync.Mutex
	store    storage.KV
	triggers map[string]map[string]Trigger
	now      func() time.Time
}

// NewMonitor wraps a KV store; nil disables persistence.
func NewMonitor(store storage.KV) *Monitor {
	return &Monitor{
		store:    store,
		triggers: make(map[string]map[string]Trigger),
		now:      time.Now,
	}
}

// Upsert adds or replaces a trigger and persists the ticker's set.
func (m *Monitor) Upsert(ticker, name string, threshold float64, comparison string, deadline time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToUpper(ticker)
	m.ensureLoaded(key)
	m.triggers[key][name] = Trigger{
		Ticker:     key,
		Name:       name,
		Threshold:  threshold,
		Comparison: comparison,
		Deadline:   deadline,
		CreatedAt:  m.now(),
	}
	return m.persist(key)
}

// Remove deletes a trigger; removing an unknown name is a no-op.
func (m *Monitor) Remove(ticker, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToUpper(ticker)
	m.ensureLoaded(key)
	delete(m.triggers[key], name)
	return m.persist(key)
}

// Evaluate checks every trigger for the ticker against the supplied
// metric values. Triggers whose metric is absent are skipped. A lapsed
// deadline wins over a threshold breach for the same trigger.
func (m *Monitor) Evaluate(ticker string, metrics map[string]float64, today time.Time) ([]Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToUpper(ticker)
	m.ensureLoaded(key)

	names := make([]string, 0, len(m.triggers[key]))
	for name := range m.triggers[key] {
		names = append(names, name)
	}
	sort.Strings(names)

	var alerts []Alert
	for _, name := range names {
		trigger := m.triggers[key][name]
		value, ok := metrics[name]
		if !ok {
			continue
		}
		daysRemaining := int(trigger.Deadline.Sub(today).Hours() / 24)
		if today.After(trigger.Deadline) {
			alerts = append(alerts, Alert{
				Trigger:       name,
				Message:       fmt.Sprintf("Deadline passed without update for %s", name),
				Status:        StatusDeadline,
				DaysRemaining: daysRemaining,
				Threshold:     trigger.Threshold,
				Value:         value,
			})
			continue
		}
		if breached(trigger.Comparison, value, trigger.Threshold) {
			alerts = append(alerts, Alert{
				Trigger:       name,
				Message:       fmt.Sprintf("Breach detected for %s: value %g", name, value),
				Status:        StatusBreach,
				DaysRemaining: daysRemaining,
				Threshold:     trigger.Threshold,
				Value:         value,
			})
		}
	}
	return alerts, nil
}

// List returns the ticker's triggers ordered by deadline.
func (m *Monitor) List(ticker string) []Trigger {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToUpper(ticker)
	m.ensureLoaded(key)

	out := make([]Trigger, 0, len(m.triggers[key]))
	for _, trigger := range m.triggers[key] {
		out = append(out, trigger)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].Name < out[j].Name
		}
		return out[i].Deadline.Before(out[j].Deadline)
	})
	return out
}

// breached inverts the comparison: the trigger names the healthy
// condition, so gte breaches when the value drops below the threshold.
func breached(comparison string, value, threshold float64) bool {
	switch comparison {
	case CompareGTE:
		return value < threshold
	case CompareLTE:
		return value > threshold
	case CompareGT:
		return value <= threshold
	case CompareLT:
		return value >= threshold
	default:
		return false
	}
}

func (m *Monitor) ensureLoaded(key string) {
	if _, ok := m.triggers[key]; ok {
		return
	}
	m.triggers[key] = make(map[string]Trigger)
	if m.store == nil {
		return
	}
	var stored []Trigger
	found, err := m.store.Get(triggerKey(key), &stored)
	if err != nil || !found {
		return
	}
	for _, trigger := range stored {
		if trigger.Comparison == "" {
			trigger.Comparison = CompareGTE
		}
		trigger.Ticker = key
		m.triggers[key][trigger.Name] = trigger
	}
}

func (m *Monitor) persist(key string) error {
	if m.store == nil {
		return nil
	}
	stored := make([]Trigger, 0, len(m.triggers[key]))
	names := make([]string, 0, len(m.triggers[key]))
	for name := range m.triggers[key] {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		stored = append(stored, m.triggers[key][name])
	}
	if err := m.store.Set(triggerKey(key), stored); err != nil {
		return fmt.Errorf("persist triggers for %s: %w", key, err)
	}
	return nil
}

func triggerKey(ticker string) string {
	return "triggers:" + ticker
}
