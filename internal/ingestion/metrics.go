package ingestion

import (
	"sync"
	"time"
)

// SyncStats tracks inbound processing and config dispatch outcomes.
type SyncStats struct {
	MessagesReceived      int64         `json:"messagesReceived"`
	MessagesProcessed     int64         `json:"messagesProcessed"`
	MessagesDropped       int64         `json:"messagesDropped"`
	MessagesInvalid       int64         `json:"messagesInvalid"`
	MessagesFailed        int64         `json:"messagesFailed"`
	AlertsReceived        int64         `json:"alertsReceived"`
	ConfigsDispatched     int64         `json:"configsDispatched"`
	DispatchesFailed      int64         `json:"dispatchesFailed"`
	DispatchesSkipped     int64         `json:"dispatchesSkipped"`
	LastProcessedAt       time.Time     `json:"lastProcessedAt"`
	LastDispatchAt        time.Time     `json:"lastDispatchAt"`
	AverageProcessingTime time.Duration `json:"averageProcessingTime"`
}

// StatsTracker provides a goroutine-safe wrapper around SyncStats.
type StatsTracker struct {
	mu        sync.RWMutex
	stats     SyncStats
	listeners []func(SyncStats)
}

// NewStatsTracker builds a new tracker with zeroed stats.
func NewStatsTracker() *StatsTracker {
	return &StatsTracker{}
}

// Update applies a mutation in a thread-safe way.
func (t *StatsTracker) Update(fn func(*SyncStats)) {
	if fn == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fn(&t.stats)
	snapshot := t.stats
	for _, listener := range t.listeners {
		listener(snapshot)
	}
}

// Snapshot returns a copy of the current stats.
func (t *StatsTracker) Snapshot() SyncStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}

// Reset clears accumulated stats.
func (t *StatsTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = SyncStats{}
}

// OnChange registers a callback invoked whenever stats are updated.
func (t *StatsTracker) OnChange(listener func(SyncStats)) {
	if listener == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, listener)
}
