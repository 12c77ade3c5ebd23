package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates board operation metrics for the daemon
type Collector struct {
	// Operation counts by name (create, claim, report_inclusion, ...)
	opCounts   map[string]*uint64
	opCountsMu sync.RWMutex

	// Operation error counts by name
	errCounts   map[string]*uint64
	errCountsMu sync.RWMutex

	// Operation latencies by name
	latencies   map[string]*LatencyHistogram
	latenciesMu sync.RWMutex

	// Gauges
	requestCount   int64
	populationSize int64

	// Start time for uptime calculation
	startTime time.Time
}

// LatencyHistogram tracks operation latencies in buckets
type LatencyHistogram struct {
	// Buckets: [0-1ms], [1-5ms], [5-10ms], [10-25ms], [25-50ms], [50-100ms], [100-250ms], [250-500ms], [500-1000ms], [1000ms+]
	buckets [10]uint64
	sum     uint64 // Total latency in nanoseconds
	count   uint64 // Total count
	mu      sync.Mutex
}

// bucket boundaries in milliseconds
var bucketBoundaries = []int64{1, 5, 10, 25, 50, 100, 250, 500, 1000}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		opCounts:  make(map[string]*uint64),
		errCounts: make(map[string]*uint64),
		latencies: make(map[string]*LatencyHistogram),
		startTime: time.Now(),
	}
}

// RecordOp records an invocation of the named board operation
func (c *Collector) RecordOp(op string) {
	c.opCountsMu.Lock()
	counter, exists := c.opCounts[op]
	if !exists {
		var val uint64
		counter = &val
		c.opCounts[op] = counter
	}
	c.opCountsMu.Unlock()

	atomic.AddUint64(counter, 1)
}

// RecordError records a failed invocation of the named board operation
func (c *Collector) RecordError(op string) {
	c.errCountsMu.Lock()
	counter, exists := c.errCounts[op]
	if !exists {
		var val uint64
		counter = &val
		c.errCounts[op] = counter
	}
	c.errCountsMu.Unlock()

	atomic.AddUint64(counter, 1)
}

// RecordLatency records the latency of a board operation
func (c *Collector) RecordLatency(op string, duration time.Duration) {
	c.latenciesMu.Lock()
	hist, exists := c.latencies[op]
	if !exists {
		hist = &LatencyHistogram{}
		c.latencies[op] = hist
	}
	c.latenciesMu.Unlock()

	hist.Record(duration)
}

// Record adds a latency observation to the histogram
func (h *LatencyHistogram) Record(duration time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ms := duration.Milliseconds()
	bucket := len(bucketBoundaries)
	for i, boundary := range bucketBoundaries {
		if ms < boundary {
			bucket = i
			break
		}
	}
	h.buckets[bucket]++
	h.sum += uint64(duration.Nanoseconds())
	h.count++
}

// Count returns the number of observations
func (h *LatencyHistogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// SetRequestCount updates the posted-request gauge
func (c *Collector) SetRequestCount(n int64) {
	atomic.StoreInt64(&c.requestCount, n)
}

// SetPopulationSize updates the active-reporter gauge
func (c *Collector) SetPopulationSize(n int64) {
	atomic.StoreInt64(&c.populationSize, n)
}

// RequestCount returns the posted-request gauge
func (c *Collector) RequestCount() int64 {
	return atomic.LoadInt64(&c.requestCount)
}

// PopulationSize returns the active-reporter gauge
func (c *Collector) PopulationSize() int64 {
	return atomic.LoadInt64(&c.populationSize)
}

// OpCount returns the cumulative count for an operation
func (c *Collector) OpCount(op string) uint64 {
	c.opCountsMu.RLock()
	defer c.opCountsMu.RUnlock()
	if counter, ok := c.opCounts[op]; ok {
		return atomic.LoadUint64(counter)
	}
	return 0
}

// ErrorCount returns the cumulative error count for an operation
func (c *Collector) ErrorCount(op string) uint64 {
	c.errCountsMu.RLock()
	defer c.errCountsMu.RUnlock()
	if counter, ok := c.errCounts[op]; ok {
		return atomic.LoadUint64(counter)
	}
	return 0
}

// Ops returns a snapshot of all operation counts
func (c *Collector) Ops() map[string]uint64 {
	c.opCountsMu.RLock()
	defer c.opCountsMu.RUnlock()

	out := make(map[string]uint64, len(c.opCounts))
	for op, counter := range c.opCounts {
		out[op] = atomic.LoadUint64(counter)
	}
	return out
}

// Uptime returns time elapsed since the collector was created
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startTime)
}
