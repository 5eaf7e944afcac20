package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	amerrors "github.com/vnykmshr/allocmetrics/pkg/common/errors"
)

const helpText = "Allocator metric; the path label carries its canonical name."

// Registrar publishes and unpublishes metrics. Remove must be called at
// most once for every successful Add.
type Registrar interface {
	Add(m Metric) error
	Remove(m Metric) error
}

// Registry is a Registrar that indexes metrics by name and exports them
// through a Prometheus registerer. It is safe for concurrent use.
type Registry struct {
	config Config
	log    *slog.Logger

	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	metric    Metric
	collector prometheus.Collector
}

// NewRegistry creates a registry with the given configuration. Zero
// durations in config are replaced by their defaults.
func NewRegistry(config Config) *Registry {
	config = config.withDefaults()

	return &Registry{
		config:  config,
		log:     config.Logger,
		entries: make(map[string]*entry),
	}
}

// Add publishes m. It fails with ErrDuplicateMetric if a metric with the
// same name is already published.
func (r *Registry) Add(m Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := m.Name()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("add %q: %w", name, amerrors.ErrDuplicateMetric)
	}

	e := &entry{metric: m}
	if r.config.Registry != nil {
		e.collector = r.newCollector(m)
		if err := r.config.Registry.Register(e.collector); err != nil {
			if t, ok := m.(*Timer); ok {
				t.bind(nil)
			}
			return fmt.Errorf("add %q: register collector: %w", name, err)
		}
	}

	r.entries[name] = e
	r.log.Debug("metric added", slog.String("name", name))
	return nil
}

// Remove unpublishes m. It fails with ErrUnknownMetric if m is not the
// metric currently published under its name.
func (r *Registry) Remove(m Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := m.Name()
	e, exists := r.entries[name]
	if !exists || e.metric != m {
		return fmt.Errorf("remove %q: %w", name, amerrors.ErrUnknownMetric)
	}

	if e.collector != nil {
		r.config.Registry.Unregister(e.collector)
	}
	if t, ok := m.(*Timer); ok {
		t.bind(nil)
	}

	delete(r.entries, name)
	r.log.Debug("metric removed", slog.String("name", name))
	return nil
}

// Lookup returns the metric published under name.
func (r *Registry) Lookup(name string) (Metric, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.metric, true
}

// Names returns the names of all published metrics in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of published metrics.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot evaluates every published metric and returns the values by
// name. Each evaluation is bounded by the scrape timeout; metrics that fail
// or time out are left out of the result and logged.
func (r *Registry) Snapshot(ctx context.Context) map[string]float64 {
	r.mu.RLock()
	metrics := make([]Metric, 0, len(r.entries))
	for _, e := range r.entries {
		metrics = append(metrics, e.metric)
	}
	r.mu.RUnlock()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		values = make(map[string]float64, len(metrics))
	)

	for _, m := range metrics {
		wg.Add(1)
		go func(m Metric) {
			defer wg.Done()

			v, err := r.evaluate(ctx, m)
			if err != nil {
				return
			}

			mu.Lock()
			values[m.Name()] = v
			mu.Unlock()
		}(m)
	}
	wg.Wait()

	return values
}

func (r *Registry) evaluate(ctx context.Context, m Metric) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.ScrapeTimeout)
	defer cancel()

	v, err := m.Value(ctx)
	if err != nil {
		r.log.Warn("metric evaluation failed",
			slog.String("name", m.Name()),
			slog.Any("error", err))
	}
	return v, err
}

func (r *Registry) constLabels(path string) prometheus.Labels {
	labels := make(prometheus.Labels, len(r.config.Labels)+1)
	for k, v := range r.config.Labels {
		labels[k] = v
	}
	labels["path"] = path
	return labels
}

func (r *Registry) newCollector(m Metric) prometheus.Collector {
	name := PrometheusName(r.config.Namespace, m.Name())

	if t, ok := m.(*Timer); ok {
		summary := prometheus.NewSummary(prometheus.SummaryOpts{
			Name:        name,
			Help:        helpText,
			ConstLabels: r.constLabels(m.Name()),
			Objectives:  map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			MaxAge:      r.config.Window,
		})
		t.bind(summary)
		return summary
	}

	return &valueCollector{
		registry: r,
		metric:   m,
		desc:     prometheus.NewDesc(name, helpText, nil, r.constLabels(m.Name())),
	}
}

// valueCollector exports a gauge or counter by evaluating it on every
// collection.
type valueCollector struct {
	registry *Registry
	metric   Metric
	desc     *prometheus.Desc
}

func (c *valueCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *valueCollector) Collect(ch chan<- prometheus.Metric) {
	v, err := c.registry.evaluate(context.Background(), c.metric)
	if err != nil {
		// A described metric may yield no sample; the scrape goes on.
		return
	}
	ch <- prometheus.MustNewConstMetric(c.desc, c.metric.valueType(), v)
}
