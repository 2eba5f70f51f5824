package observability

import (
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements Metrics on top of a Prometheus registerer.
// Collectors are created on first use of a name; the label names are taken
// from the tags of that first call, so every call for a given name must use
// the same tag keys. Mismatched calls are logged and skipped.
type PrometheusMetrics struct {
	registerer prometheus.Registerer
	logger     *slog.Logger

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusMetrics creates a collector set registered on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusMetrics(reg prometheus.Registerer, logger *slog.Logger) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PrometheusMetrics{
		registerer: reg,
		logger:     logger,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// PrometheusName converts a dotted metric name to a Prometheus metric name.
func PrometheusName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

func (m *PrometheusMetrics) Counter(name string, value int64, tags ...Tag) {
	keys, values := splitTags(tags)

	m.mu.Lock()
	vec, ok := m.counters[name]
	if !ok {
		vec = register(m, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: PrometheusName(name) + "_total",
			Help: "Total of " + name + ".",
		}, keys))
		m.counters[name] = vec
	}
	m.mu.Unlock()

	c, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		m.logger.Warn("dropping metric sample", "metric", name, "error", err)
		return
	}
	c.Add(float64(value))
}

func (m *PrometheusMetrics) Gauge(name string, value float64, tags ...Tag) {
	keys, values := splitTags(tags)

	m.mu.Lock()
	vec, ok := m.gauges[name]
	if !ok {
		vec = register(m, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: PrometheusName(name),
			Help: "Current value of " + name + ".",
		}, keys))
		m.gauges[name] = vec
	}
	m.mu.Unlock()

	g, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		m.logger.Warn("dropping metric sample", "metric", name, "error", err)
		return
	}
	g.Set(value)
}

func (m *PrometheusMetrics) Histogram(name string, value float64, tags ...Tag) {
	m.observe(PrometheusName(name), name, value, tags)
}

// Timing records the duration in seconds under <name>_seconds.
func (m *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.observe(PrometheusName(name)+"_seconds", name, duration.Seconds(), tags)
}

func (m *PrometheusMetrics) observe(promName, name string, value float64, tags []Tag) {
	keys, values := splitTags(tags)

	m.mu.Lock()
	vec, ok := m.histograms[promName]
	if !ok {
		vec = register(m, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    promName,
			Help:    "Distribution of " + name + ".",
			Buckets: prometheus.DefBuckets,
		}, keys))
		m.histograms[promName] = vec
	}
	m.mu.Unlock()

	h, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		m.logger.Warn("dropping metric sample", "metric", name, "error", err)
		return
	}
	h.Observe(value)
}

// register registers c, reusing an identical collector that is already
// registered (for example by a second PrometheusMetrics on the same registry).
func register[C prometheus.Collector](m *PrometheusMetrics, c C) C {
	if err := m.registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		m.logger.Warn("failed to register metric", "error", err)
	}
	return c
}

// splitTags returns label names and values sorted by name.
func splitTags(tags []Tag) ([]string, []string) {
	sorted := make([]Tag, len(tags))
	copy(sorted, tags)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	keys := make([]string, len(sorted))
	values := make([]string, len(sorted))
	for i, t := range sorted {
		keys[i] = t.Key
		values[i] = t.Value
	}
	return keys, values
}
