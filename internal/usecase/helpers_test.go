package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/shopspring/decimal"
)

type recordingDispatcher struct {
	mu      sync.Mutex
	batches [][]settlement.NotificationIntent
}

func (d *recordingDispatcher) Dispatch(_ context.Context, intents []settlement.NotificationIntent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batches = append(d.batches, intents)
}

func (d *recordingDispatcher) all() []settlement.NotificationIntent {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []settlement.NotificationIntent
	for _, b := range d.batches {
		out = append(out, b...)
	}
	return out
}

type staticLock struct {
	locked bool
	err    error
}

func (l staticLock) IsLocked(context.Context) (bool, error) {
	return l.locked, l.err
}

type countingMetrics struct {
	mu            sync.Mutex
	runs          map[settlement.Status]int
	trades        map[string]int
	notifications map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		runs:          make(map[settlement.Status]int),
		trades:        make(map[string]int),
		notifications: make(map[string]int),
	}
}

func (m *countingMetrics) SettlementRun(status settlement.Status, _ int, _ decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[status]++
}

func (m *countingMetrics) Trade(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades[outcome]++
}

func (m *countingMetrics) Notification(_ string, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[result]++
}

func (m *countingMetrics) notification(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifications[result]
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

var newYork = mustLoadLocation("America/New_York")
