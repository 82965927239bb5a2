package sched

import (
	"sync"
	"time"
)

// metricsWindow bounds how many recent frames feed the FPS estimate.
const metricsWindow = 60

// MetricsSnapshot is the point-in-time view surfaced on the stats endpoint
// and in the window title.
type MetricsSnapshot struct {
	FPS          float64       `json:"fps"`
	Backend      string        `json:"backend"`
	Nodes        int           `json:"nodes"`
	VisibleNodes int           `json:"visible_nodes"`
	Edges        int           `json:"edges"`
	Frames       uint64        `json:"frames"`
	Coalesced    uint64        `json:"coalesced"`
	LastFrame    time.Duration `json:"last_frame_ns"`
	TickDuration time.Duration `json:"tick_ns"`
	BackendDrops int           `json:"backend_downgrades"`
	CollectedAt  time.Time     `json:"collected_at"`
}

// Metrics aggregates frame completions into a rolling FPS figure. It is
// fed by the scheduler and read by the stats endpoint.
type Metrics struct {
	mu     sync.Mutex
	stamps []time.Time

	tickNanos int64
	drops     int
}

// NewMetrics returns an empty aggregator.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordFrame notes a completed frame at time now.
func (m *Metrics) RecordFrame(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stamps = append(m.stamps, now)
	if len(m.stamps) > metricsWindow {
		m.stamps = m.stamps[len(m.stamps)-metricsWindow:]
	}
}

// RecordTick notes the most recent simulation tick duration.
func (m *Metrics) RecordTick(d time.Duration) {
	m.mu.Lock()
	m.tickNanos = int64(d)
	m.mu.Unlock()
}

// RecordDowngrade notes a backend failover.
func (m *Metrics) RecordDowngrade() {
	m.mu.Lock()
	m.drops++
	m.mu.Unlock()
}

// FPS estimates frames per second over the rolling window. Returns 0 until
// at least two frames have landed.
func (m *Metrics) FPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fpsLocked()
}

func (m *Metrics) fpsLocked() float64 {
	if len(m.stamps) < 2 {
		return 0
	}
	span := m.stamps[len(m.stamps)-1].Sub(m.stamps[0])
	if span <= 0 {
		return 0
	}
	return float64(len(m.stamps)-1) / span.Seconds()
}

// Snapshot assembles the full metrics view from the aggregator and the
// scheduler's counters.
func (m *Metrics) Snapshot(s *Scheduler, backend string, nodes, visible, edges int) MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := MetricsSnapshot{
		FPS:          m.fpsLocked(),
		Backend:      backend,
		Nodes:        nodes,
		VisibleNodes: visible,
		Edges:        edges,
		TickDuration: time.Duration(m.tickNanos),
		BackendDrops: m.drops,
		CollectedAt:  time.Now(),
	}
	if s != nil {
		snap.Frames = s.Frames()
		snap.Coalesced = s.Coalesced()
		snap.LastFrame = s.LastFrame()
	}
	return snap
}
