package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects runtime counters for memory operations.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	MessagesAdded    int64
	LaneSummaries    int64
	PersonaUpdates   int64
	ContextsRendered int64
	Saves            int64
	SaveFailures     int64
	ToolCalls        int64

	// Gauges
	ActiveAgents int64

	saveLatencies []time.Duration

	exporter MetricsExporter
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		saveLatencies: make([]time.Duration, 0, 256),
	}
}

func (m *Metrics) IncMessagesAdded()    { atomic.AddInt64(&m.MessagesAdded, 1) }
func (m *Metrics) IncLaneSummaries()    { atomic.AddInt64(&m.LaneSummaries, 1) }
func (m *Metrics) IncPersonaUpdates()   { atomic.AddInt64(&m.PersonaUpdates, 1) }
func (m *Metrics) IncContextsRendered() { atomic.AddInt64(&m.ContextsRendered, 1) }
func (m *Metrics) IncToolCalls()        { atomic.AddInt64(&m.ToolCalls, 1) }
func (m *Metrics) IncSaveFailures()     { atomic.AddInt64(&m.SaveFailures, 1) }

// SetActiveAgents sets the number of agents with a live manager.
func (m *Metrics) SetActiveAgents(n int) {
	atomic.StoreInt64(&m.ActiveAgents, int64(n))
}

// RecordSave counts a successful save and its latency.
func (m *Metrics) RecordSave(d time.Duration) {
	atomic.AddInt64(&m.Saves, 1)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveLatencies = append(m.saveLatencies, d)
}

// Counters returns a typed copy of the collector.
func (m *Metrics) Counters() Counters {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := Counters{
		MessagesAdded:    atomic.LoadInt64(&m.MessagesAdded),
		LaneSummaries:    atomic.LoadInt64(&m.LaneSummaries),
		PersonaUpdates:   atomic.LoadInt64(&m.PersonaUpdates),
		ContextsRendered: atomic.LoadInt64(&m.ContextsRendered),
		Saves:            atomic.LoadInt64(&m.Saves),
		SaveFailures:     atomic.LoadInt64(&m.SaveFailures),
		ToolCalls:        atomic.LoadInt64(&m.ToolCalls),
		ActiveAgents:     atomic.LoadInt64(&m.ActiveAgents),
	}
	if len(m.saveLatencies) > 0 {
		var total time.Duration
		for _, d := range m.saveLatencies {
			total += d
		}
		c.AvgSaveLatencyUs = total.Microseconds() / int64(len(m.saveLatencies))
	}
	return c
}

// GetSummary returns the counters keyed by their JSON names.
func (m *Metrics) GetSummary() map[string]interface{} {
	c := m.Counters()
	summary := map[string]interface{}{
		"messages_added":    c.MessagesAdded,
		"lane_summaries":    c.LaneSummaries,
		"persona_updates":   c.PersonaUpdates,
		"contexts_rendered": c.ContextsRendered,
		"saves":             c.Saves,
		"save_failures":     c.SaveFailures,
		"tool_calls":        c.ToolCalls,
		"active_agents":     c.ActiveAgents,
	}
	if c.Saves > 0 {
		summary["avg_save_latency_us"] = c.AvgSaveLatencyUs
	}
	return summary
}

// Reset resets all metrics
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	atomic.StoreInt64(&m.MessagesAdded, 0)
	atomic.StoreInt64(&m.LaneSummaries, 0)
	atomic.StoreInt64(&m.PersonaUpdates, 0)
	atomic.StoreInt64(&m.ContextsRendered, 0)
	atomic.StoreInt64(&m.Saves, 0)
	atomic.StoreInt64(&m.SaveFailures, 0)
	atomic.StoreInt64(&m.ToolCalls, 0)
	atomic.StoreInt64(&m.ActiveAgents, 0)

	m.saveLatencies = m.saveLatencies[:0]
}

// SetExporter attaches a metrics exporter.
func (m *Metrics) SetExporter(e MetricsExporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exporter = e
}

// Flush stamps s with the time and current counters and hands it to the
// exporter, if any. Export errors are dropped.
func (m *Metrics) Flush(s Snapshot) {
	m.mu.RLock()
	exporter := m.exporter
	m.mu.RUnlock()

	if exporter == nil {
		return
	}
	s.Timestamp = time.Now()
	s.Counters = m.Counters()
	_ = exporter.Export(s)
}
