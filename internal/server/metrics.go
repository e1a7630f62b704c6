package server

import (
	"sync"
)

// Metrics counts upload outcomes since the server started
type Metrics struct {
	mu       sync.Mutex
	requests int64
	failures int64
	rejected int64
	verdicts map[string]int64
}

// MetricsSnapshot is the /metrics payload
type MetricsSnapshot struct {
	Requests int64            `json:"requests"`
	Failures int64            `json:"failures"`
	Rejected int64            `json:"rejected"`
	Verdicts map[string]int64 `json:"verdicts"`
}

func NewMetrics() *Metrics {
	return &Metrics{verdicts: make(map[string]int64)}
}

// Request counts an upload attempt
func (m *Metrics) Request() {
	m.mu.Lock()
	m.requests++
	m.mu.Unlock()
}

// Failure counts an upload that ended without a report
func (m *Metrics) Failure() {
	m.mu.Lock()
	m.failures++
	m.mu.Unlock()
}

// Rejected counts a rate-limited request
func (m *Metrics) Rejected() {
	m.mu.Lock()
	m.rejected++
	m.mu.Unlock()
}

// Verdict counts a completed analysis by its label
func (m *Metrics) Verdict(label string) {
	m.mu.Lock()
	m.verdicts[label]++
	m.mu.Unlock()
}

// Snapshot returns a copy of the counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	verdicts := make(map[string]int64, len(m.verdicts))
	for k, v := range m.verdicts {
		verdicts[k] = v
	}
	return MetricsSnapshot{
		Requests: m.requests,
		Failures: m.failures,
		Rejected: m.rejected,
		Verdicts: verdicts,
	}
}
