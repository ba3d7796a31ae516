// metrics.go - Metrics collection for the pool watcher daemon.
package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// MetricsCollector manages counters and gauges for the watcher loop.
type MetricsCollector struct {
	mu       sync.RWMutex
	counters map[string]int64
	gauges   map[string]float64
	started  time.Time
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		started:  time.Now(),
	}
}

// IncrementCounter increments a counter metric.
func (mc *MetricsCollector) IncrementCounter(name string, delta int64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.counters[name] += delta
}

// SetCounter pins a counter to an absolute value.
func (mc *MetricsCollector) SetCounter(name string, value int64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.counters[name] = value
}

// SetGauge sets a gauge metric.
func (mc *MetricsCollector) SetGauge(name string, value float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.gauges[name] = value
}

// Snapshot returns all metrics plus uptime.
func (mc *MetricsCollector) Snapshot() map[string]interface{} {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	out := map[string]interface{}{
		"uptime_seconds": time.Since(mc.started).Seconds(),
	}
	for name, v := range mc.counters {
		out[name] = v
	}
	for name, v := range mc.gauges {
		out[name] = v
	}
	return out
}

// Handler serves the metrics snapshot as JSON.
func (mc *MetricsCollector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(mc.Snapshot())
	})
}
