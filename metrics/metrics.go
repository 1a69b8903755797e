// Package metrics holds the daemon's operational counters, shared between
// the run loop and the ops endpoints.
package metrics

import "sync/atomic"

// Metrics captures counters for the run loop.
type Metrics struct {
	runsSucceeded     int64
	runsFailed        int64
	triggersCoalesced int64
	refreshTicks      int64
	webhookFailures   int64
}

// Snapshot provides a consistent view of the current metrics.
type Snapshot struct {
	RunsSucceeded     int64 `json:"runs_succeeded"`
	RunsFailed        int64 `json:"runs_failed"`
	TriggersCoalesced int64 `json:"triggers_coalesced"`
	RefreshTicks      int64 `json:"refresh_ticks"`
	WebhookFailures   int64 `json:"webhook_failures"`
}

// New creates a zeroed Metrics instance.
func New() *Metrics {
	return &Metrics{}
}

// RecordRunCompletion increments the success or failure counter.
func (m *Metrics) RecordRunCompletion(err error) {
	if err != nil {
		atomic.AddInt64(&m.runsFailed, 1)
		return
	}
	atomic.AddInt64(&m.runsSucceeded, 1)
}

// IncCoalesced records a trigger absorbed by an already-pending run.
func (m *Metrics) IncCoalesced() {
	atomic.AddInt64(&m.triggersCoalesced, 1)
}

// IncRefreshTick records a scheduled refresh firing.
func (m *Metrics) IncRefreshTick() {
	atomic.AddInt64(&m.refreshTicks, 1)
}

// IncWebhookFailure records a notification that could not be delivered.
func (m *Metrics) IncWebhookFailure() {
	atomic.AddInt64(&m.webhookFailures, 1)
}

// Snapshot returns a read-only view of the counters.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RunsSucceeded:     atomic.LoadInt64(&m.runsSucceeded),
		RunsFailed:        atomic.LoadInt64(&m.runsFailed),
		TriggersCoalesced: atomic.LoadInt64(&m.triggersCoalesced),
		RefreshTicks:      atomic.LoadInt64(&m.refreshTicks),
		WebhookFailures:   atomic.LoadInt64(&m.webhookFailures),
	}
}
