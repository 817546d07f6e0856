package main

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// GMetrics is non-nil when -d stats is enabled.
var GMetrics *Metrics = nil

type Metric struct {
	name string
	// Number of times we've hit the code path.
	count int
	// Total time spent on the code path.
	sum time.Duration
	// Bytes produced, for passes.
	bytes int64
}

type Metrics struct {
	mu       sync.Mutex
	metrics_ []*Metric
	byName   map[string]*Metric
}

func NewMetrics() *Metrics {
	return &Metrics{byName: make(map[string]*Metric)}
}

// Record adds one observation to the metric called name, creating it on
// first use. Metrics are reported in creation order.
func (m *Metrics) Record(name string, d time.Duration, bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	metric, ok := m.byName[name]
	if !ok {
		metric = &Metric{name: name}
		m.byName[name] = metric
		m.metrics_ = append(m.metrics_, metric)
	}
	metric.count++
	metric.sum += d
	metric.bytes += int64(bytes)
}

// Report prints a summary table to w.
func (m *Metrics) Report(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	width := len("metric")
	for _, i := range m.metrics_ {
		width = max(len(i.name), width)
	}

	fmt.Fprintf(w, "%-*s\t%-6s\t%-9s\t%-10s\t%s\n", width,
		"metric", "count", "avg (us)", "total (ms)", "bytes")
	for _, metric := range m.metrics_ {
		micros := metric.sum.Microseconds()
		total := float64(micros) / 1000
		avg := float64(micros) / float64(metric.count)
		fmt.Fprintf(w, "%-*s\t%-6d\t%-9.1f\t%-10.1f\t%d\n", width, metric.name, metric.count, avg, total, metric.bytes)
	}
}

func GetTimeMillis() int64 {
	return time.Now().UnixMilli()
}
