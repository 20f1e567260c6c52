// Package logger provides a zap-based stats collector for runs without a
// metrics backend. Values accumulate in memory and Flush emits one summary
// line per metric, so a batch analysis does not flood the log.
package logger

import (
	"sync"

	"go.uber.org/zap"

	"github.com/leonfresh/chessleaks/internal/stats"
)

// Collector implements stats.Collector by accumulating metrics and
// logging totals on Flush.
type Collector struct {
	logger *zap.Logger

	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]int64
	samples  map[string]*sample
}

type sample struct {
	count int64
	sum   float64
	max   float64
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a new logger-based collector.
// If logger is nil, a no-op logger is used.
func New(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		logger:   logger,
		counters: make(map[string]int64),
		gauges:   make(map[string]int64),
		samples:  make(map[string]*sample),
	}
}

// IncCounter adds delta to the running total for name.
func (c *Collector) IncCounter(name string, delta int64) {
	c.mu.Lock()
	c.counters[name] += delta
	c.mu.Unlock()
}

// SetGauge records the latest value for name.
func (c *Collector) SetGauge(name string, value int64) {
	c.mu.Lock()
	c.gauges[name] = value
	c.mu.Unlock()
}

// ObserveHistogram folds value into the running count, sum, and max for name.
func (c *Collector) ObserveHistogram(name string, value float64) {
	c.mu.Lock()
	s := c.samples[name]
	if s == nil {
		s = &sample{}
		c.samples[name] = s
	}
	s.count++
	s.sum += value
	if value > s.max {
		s.max = value
	}
	c.mu.Unlock()
}

// Flush logs every metric seen since the last flush and resets the
// accumulators.
func (c *Collector) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, total := range c.counters {
		c.logger.Info("counter",
			zap.String("metric", name),
			zap.Int64("total", total),
		)
	}
	for name, value := range c.gauges {
		c.logger.Info("gauge",
			zap.String("metric", name),
			zap.Int64("value", value),
		)
	}
	for name, s := range c.samples {
		mean := 0.0
		if s.count > 0 {
			mean = s.sum / float64(s.count)
		}
		c.logger.Info("histogram",
			zap.String("metric", name),
			zap.Int64("count", s.count),
			zap.Float64("mean", mean),
			zap.Float64("max", s.max),
		)
	}

	clear(c.counters)
	clear(c.gauges)
	clear(c.samples)
}
