package prometheus

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNew_CustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	if c == nil {
		t.Fatal("New() returned nil")
	}
	if c.registry != reg {
		t.Error("New() did not use the provided registry")
	}
}

func TestNew_DefaultRegistry(t *testing.T) {
	c := New(nil)
	if c == nil {
		t.Fatal("New(nil) returned nil")
	}
	if c.registry == nil {
		t.Error("New(nil) should fall back to the default registerer")
	}
}

func TestCollector_IncCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter("test_counter", 1)
	c.IncCounter("test_counter", 4)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("expected 1 metric family, got %d", len(metrics))
	}
	got := metrics[0].GetMetric()[0].GetCounter().GetValue()
	if got != 5 {
		t.Errorf("counter value = %v, want 5", got)
	}
}

func TestCollector_SetGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SetGauge("test_gauge", 42)
	c.SetGauge("test_gauge", 7)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	got := metrics[0].GetMetric()[0].GetGauge().GetValue()
	if got != 7 {
		t.Errorf("gauge value = %v, want 7", got)
	}
}

func TestCollector_ObserveHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveHistogram("test_histogram", 0.5)
	c.ObserveHistogram("test_histogram", 1.5)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	h := metrics[0].GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Errorf("histogram sample count = %d, want 2", h.GetSampleCount())
	}
	if h.GetSampleSum() != 2.0 {
		t.Errorf("histogram sample sum = %v, want 2.0", h.GetSampleSum())
	}
}

func TestCollector_ReuseMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	// Repeated use of the same name must reuse the registered metric.
	c.IncCounter("reused", 1)
	c.IncCounter("reused", 1)

	c.mu.RLock()
	n := len(c.counters)
	c.mu.RUnlock()
	if n != 1 {
		t.Errorf("expected 1 cached counter, got %d", n)
	}
}

func TestCollector_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	// Register a metric externally, then hit the same name via the collector.
	pre := prometheus.NewCounter(prometheus.CounterOpts{Name: "shared_counter", Help: "shared_counter"})
	if err := reg.Register(pre); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	pre.Add(3)

	c := New(reg)
	c.IncCounter("shared_counter", 2)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	got := metrics[0].GetMetric()[0].GetCounter().GetValue()
	if got != 5 {
		t.Errorf("counter value = %v, want 5 (existing metric should be reused)", got)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncCounter("concurrent_counter", 1)
				c.SetGauge("concurrent_gauge", int64(j))
				c.ObserveHistogram("concurrent_histogram", float64(j))
			}
		}()
	}
	wg.Wait()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(metrics) != 3 {
		t.Fatalf("expected 3 metric families, got %d", len(metrics))
	}
}
