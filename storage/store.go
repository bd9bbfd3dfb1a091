package storage

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
)

// Store is a registry of named, labeled metric series. Series are created
// lazily on first write: the label key set used on that first write is fixed
// for the metric name, and every later write to the same name must carry the
// exact same label keys. A mismatch is a programming error and panics via the
// underlying prometheus vector.
//
// Writes happen on the consumer and poller goroutines, reads happen on the
// scrape path. The prometheus vectors serialize per-series access themselves,
// the store only guards its own name lookup maps.
type Store struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	mu       sync.Mutex
	gauges   map[string]*prometheus.GaugeVec
	counters map[string]*prometheus.CounterVec
}

func NewStore(logger *zap.Logger) *Store {
	return &Store{
		logger:   logger.Named("storage"),
		registry: prometheus.NewRegistry(),
		gauges:   make(map[string]*prometheus.GaugeVec),
		counters: make(map[string]*prometheus.CounterVec),
	}
}

// SetGauge sets the current value of the gauge series identified by name and
// labels. Last write wins.
func (s *Store) SetGauge(name string, labels prometheus.Labels, value float64) {
	s.gaugeVec(name, labels).With(labels).Set(value)
}

// IncrementCounter increments the counter series identified by name and labels
// by one.
func (s *Store) IncrementCounter(name string, labels prometheus.Labels) {
	s.counterVec(name, labels).With(labels).Inc()
}

// Registry exposes the underlying registry so that an HTTP handler can serve
// all registered series in the Prometheus exposition format.
func (s *Store) Registry() *prometheus.Registry {
	return s.registry
}

// Snapshot gathers all registered series. The scrape endpoint does not use
// this (it gathers through the registry directly), it exists for tests and
// debug dumps.
func (s *Store) Snapshot() ([]*dto.MetricFamily, error) {
	return s.registry.Gather()
}

func (s *Store) gaugeVec(name string, labels prometheus.Labels) *prometheus.GaugeVec {
	s.mu.Lock()
	defer s.mu.Unlock()

	vec, exists := s.gauges[name]
	if exists {
		return vec
	}

	vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: helpFor(name)}, labelKeys(labels))
	s.registry.MustRegister(vec)
	s.gauges[name] = vec
	s.logger.Debug("registered gauge", zap.String("metric_name", name))

	return vec
}

func (s *Store) counterVec(name string, labels prometheus.Labels) *prometheus.CounterVec {
	s.mu.Lock()
	defer s.mu.Unlock()

	vec, exists := s.counters[name]
	if exists {
		return vec
	}

	vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: helpFor(name)}, labelKeys(labels))
	s.registry.MustRegister(vec)
	s.counters[name] = vec
	s.logger.Debug("registered counter", zap.String("metric_name", name))

	return vec
}

// labelKeys returns the sorted label key set. The sort makes the registered
// key order deterministic regardless of map iteration order.
func labelKeys(labels prometheus.Labels) []string {
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

func helpFor(name string) string {
	return "Series " + name + " maintained by the offset exporter."
}
