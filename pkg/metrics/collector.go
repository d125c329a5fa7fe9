package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks agent run metrics.
type Collector struct {
	// Run metrics
	runsStarted   uint64
	runsSucceeded uint64
	runsFailed    uint64
	runLatency    int64

	// Sampling metrics
	samplesCollected uint64
	samplingErrors   uint64

	// Aggregation metrics
	computeErrors uint64

	// Sink metrics
	publicWrites       uint64
	publicWriteErrors  uint64
	privateWrites      uint64
	privateWriteErrors uint64

	// History metrics
	historyWrites      uint64
	historyWriteErrors uint64

	startTime   time.Time
	lastRunTime atomic.Value // time.Time
	mu          sync.RWMutex
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	c := &Collector{
		startTime: time.Now(),
	}
	c.lastRunTime.Store(time.Time{})
	return c
}

// RecordRun records the outcome of one tracking run.
func (c *Collector) RecordRun(latency time.Duration, err error) {
	atomic.AddUint64(&c.runsStarted, 1)
	atomic.AddInt64(&c.runLatency, latency.Milliseconds())

	if err != nil {
		atomic.AddUint64(&c.runsFailed, 1)
	} else {
		atomic.AddUint64(&c.runsSucceeded, 1)
	}

	c.lastRunTime.Store(time.Now())
}

// RecordSampling records a sample collection attempt.
func (c *Collector) RecordSampling(count int, err error) {
	atomic.AddUint64(&c.samplesCollected, uint64(count))

	if err != nil {
		atomic.AddUint64(&c.samplingErrors, 1)
	}
}

// RecordCompute records an aggregation failure.
func (c *Collector) RecordCompute(err error) {
	if err != nil {
		atomic.AddUint64(&c.computeErrors, 1)
	}
}

// RecordPublicWrite records a write to the aggregator-readable sink.
func (c *Collector) RecordPublicWrite(err error) {
	atomic.AddUint64(&c.publicWrites, 1)
	if err != nil {
		atomic.AddUint64(&c.publicWriteErrors, 1)
	}
}

// RecordPrivateWrite records a write to the owner-only sink.
func (c *Collector) RecordPrivateWrite(err error) {
	atomic.AddUint64(&c.privateWrites, 1)
	if err != nil {
		atomic.AddUint64(&c.privateWriteErrors, 1)
	}
}

// RecordHistoryWrite records a history store insert.
func (c *Collector) RecordHistoryWrite(err error) {
	atomic.AddUint64(&c.historyWrites, 1)
	if err != nil {
		atomic.AddUint64(&c.historyWriteErrors, 1)
	}
}

// Snapshot returns the current metrics.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lastRun, _ := c.lastRunTime.Load().(time.Time)

	return map[string]interface{}{
		"uptime":   time.Since(c.startTime).Seconds(),
		"last_run": lastRun,
		"runs": map[string]interface{}{
			"started":    atomic.LoadUint64(&c.runsStarted),
			"succeeded":  atomic.LoadUint64(&c.runsSucceeded),
			"failed":     atomic.LoadUint64(&c.runsFailed),
			"latency_ms": atomic.LoadInt64(&c.runLatency),
		},
		"sampling": map[string]interface{}{
			"samples": atomic.LoadUint64(&c.samplesCollected),
			"errors":  atomic.LoadUint64(&c.samplingErrors),
		},
		"aggregation": map[string]interface{}{
			"errors": atomic.LoadUint64(&c.computeErrors),
		},
		"sinks": map[string]interface{}{
			"public": map[string]interface{}{
				"writes": atomic.LoadUint64(&c.publicWrites),
				"errors": atomic.LoadUint64(&c.publicWriteErrors),
			},
			"private": map[string]interface{}{
				"writes": atomic.LoadUint64(&c.privateWrites),
				"errors": atomic.LoadUint64(&c.privateWriteErrors),
			},
		},
		"history": map[string]interface{}{
			"writes": atomic.LoadUint64(&c.historyWrites),
			"errors": atomic.LoadUint64(&c.historyWriteErrors),
		},
	}
}

// Reset resets all metrics to zero.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	atomic.StoreUint64(&c.runsStarted, 0)
	atomic.StoreUint64(&c.runsSucceeded, 0)
	atomic.StoreUint64(&c.runsFailed, 0)
	atomic.StoreInt64(&c.runLatency, 0)

	atomic.StoreUint64(&c.samplesCollected, 0)
	atomic.StoreUint64(&c.samplingErrors, 0)
	atomic.StoreUint64(&c.computeErrors, 0)

	atomic.StoreUint64(&c.publicWrites, 0)
	atomic.StoreUint64(&c.publicWriteErrors, 0)
	atomic.StoreUint64(&c.privateWrites, 0)
	atomic.StoreUint64(&c.privateWriteErrors, 0)

	atomic.StoreUint64(&c.historyWrites, 0)
	atomic.StoreUint64(&c.historyWriteErrors, 0)

	c.lastRunTime.Store(time.Time{})
	c.startTime = time.Now()
}
