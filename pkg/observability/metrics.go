package observability

import (
	"strings"
	"sync"
	"time"
)

// Metrics records counters, gauges, histograms and timings.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Histogram(name string, value float64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag labels a metric sample.
type Tag struct {
	Key   string
	Value string
}

// T creates a Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Gauge(string, float64, ...Tag)        {}
func (NoopMetrics) Histogram(string, float64, ...Tag)    {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// series holds every sample kind recorded under one key.
type series struct {
	counter bool
	count   int64
	gauge   float64
	samples []float64
	timings []time.Duration
}

// InMemoryMetrics keeps samples keyed by name and tags. The worker logs the
// counters with its outbox stats; tests assert against them.
type InMemoryMetrics struct {
	mu     sync.RWMutex
	series map[string]*series
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	m := &InMemoryMetrics{}
	m.Reset()
	return m
}

func (m *InMemoryMetrics) record(name string, tags []Tag, fn func(*series)) {
	key := formatKey(name, tags)
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.series[key]
	if !ok {
		s = &series{}
		m.series[key] = s
	}
	fn(s)
}

func (m *InMemoryMetrics) read(name string, tags []Tag) series {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.series[formatKey(name, tags)]; ok {
		return *s
	}
	return series{}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.record(name, tags, func(s *series) {
		s.counter = true
		s.count += value
	})
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.record(name, tags, func(s *series) { s.gauge = value })
}

func (m *InMemoryMetrics) Histogram(name string, value float64, tags ...Tag) {
	m.record(name, tags, func(s *series) { s.samples = append(s.samples, value) })
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.record(name, tags, func(s *series) { s.timings = append(s.timings, duration) })
}

// GetCounter returns the current value of a counter.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	return m.read(name, tags).count
}

// GetGauge returns the last value set on a gauge.
func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	return m.read(name, tags).gauge
}

// GetHistogram returns the values recorded for a histogram.
func (m *InMemoryMetrics) GetHistogram(name string, tags ...Tag) []float64 {
	return m.read(name, tags).samples
}

// GetTimings returns the durations recorded for a timer.
func (m *InMemoryMetrics) GetTimings(name string, tags ...Tag) []time.Duration {
	return m.read(name, tags).timings
}

// Counters returns a copy of every counter.
func (m *InMemoryMetrics) Counters() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int64)
	for key, s := range m.series {
		if s.counter {
			out[key] = s.count
		}
	}
	return out
}

// Reset clears all recorded metrics.
func (m *InMemoryMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series = make(map[string]*series)
}

// formatKey renders name:k=v:k=v in tag order.
func formatKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	for _, t := range tags {
		b.WriteByte(':')
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	return b.String()
}

// Metric names.
const (
	MetricRecalculationsTotal     = "eventline.recalculations.total"
	MetricRecalculationsFailed    = "eventline.recalculations.failed"
	MetricRecalculationsDuration  = "eventline.recalculations.duration"
	MetricBlocksSkipped           = "eventline.blocks.skipped"
	MetricDependenciesUnconverged = "eventline.dependencies.unconverged"

	MetricOutboxPublished = "eventline.outbox.published"
	MetricOutboxFailed    = "eventline.outbox.failed"
	MetricOutboxDead      = "eventline.outbox.dead"

	MetricSweepTimelines = "eventline.sweep.timelines"
	MetricSweepFailures  = "eventline.sweep.failures"
)
