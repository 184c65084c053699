// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Push-based counters/gauges the engine updates as it runs --
// ioctx.Context.reportRan pushes "ioctx.handlers_run_total" with the
// number of handlers a Run call ran, once that Run returns, for
// example. Unlike DebugProbes' pull model,
// the value here is whatever was last Set, not recomputed on read.

package control

import (
	"sync"
	"time"
)

// MetricsRegistry is a concurrent-safe map of the last-set value per
// metric key, plus the time of the most recent Set across all keys.
type MetricsRegistry struct {
	mu          sync.RWMutex
	values      map[string]any
	lastUpdated time.Time
}

// NewMetricsRegistry returns an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{values: make(map[string]any)}
}

// Set records value under key, timestamping the update.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.values[key] = value
	mr.lastUpdated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns a point-in-time copy of every metric's last
// value.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.values))
	for k, v := range mr.values {
		out[k] = v
	}
	return out
}
