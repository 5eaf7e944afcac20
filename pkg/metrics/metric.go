package metrics

import (
	"context"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric is a named value source. The name is the metric's identity in a
// registry and never changes once the metric is created.
type Metric interface {
	// Name returns the metric path, e.g. "allocator/mesos/allocation_runs".
	Name() string

	// Value returns the current value. Pull gauges evaluate their callback;
	// every other metric returns its stored value.
	Value(ctx context.Context) (float64, error)

	valueType() prometheus.ValueType
}

// ValueFunc computes a pull gauge value at scrape time.
type ValueFunc func(ctx context.Context) (float64, error)

// Constant returns a ValueFunc that always yields v.
func Constant(v float64) ValueFunc {
	return func(context.Context) (float64, error) {
		return v, nil
	}
}

// PullGauge is a gauge whose value is computed on demand by a callback.
type PullGauge struct {
	name string
	fn   ValueFunc
}

// NewPullGauge creates a pull gauge evaluating fn at scrape time.
func NewPullGauge(name string, fn ValueFunc) *PullGauge {
	if fn == nil {
		panic("pull gauge " + name + ": value func cannot be nil")
	}
	return &PullGauge{name: name, fn: fn}
}

// Name returns the metric path.
func (g *PullGauge) Name() string { return g.name }

// Value evaluates the callback.
func (g *PullGauge) Value(ctx context.Context) (float64, error) {
	return g.fn(ctx)
}

func (g *PullGauge) valueType() prometheus.ValueType { return prometheus.GaugeValue }

// PushGauge is a gauge whose value is set by application code.
type PushGauge struct {
	name string
	bits atomic.Uint64
}

// NewPushGauge creates a push gauge with value 0.
func NewPushGauge(name string) *PushGauge {
	return &PushGauge{name: name}
}

// Name returns the metric path.
func (g *PushGauge) Name() string { return g.name }

// Set stores v.
func (g *PushGauge) Set(v float64) {
	g.bits.Store(math.Float64bits(v))
}

// Get returns the stored value.
func (g *PushGauge) Get() float64 {
	return math.Float64frombits(g.bits.Load())
}

// Value returns the stored value.
func (g *PushGauge) Value(context.Context) (float64, error) {
	return g.Get(), nil
}

func (g *PushGauge) valueType() prometheus.ValueType { return prometheus.GaugeValue }

// Counter is a monotonically increasing metric.
type Counter struct {
	name string
	bits atomic.Uint64
}

// NewCounter creates a counter starting at 0.
func NewCounter(name string) *Counter {
	return &Counter{name: name}
}

// Name returns the metric path.
func (c *Counter) Name() string { return c.name }

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.Add(1) }

// Add increments the counter by delta. It panics if delta is negative.
func (c *Counter) Add(delta float64) {
	if delta < 0 {
		panic("counter " + c.name + ": cannot decrease")
	}
	for {
		old := c.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if c.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Get returns the current count.
func (c *Counter) Get() float64 {
	return math.Float64frombits(c.bits.Load())
}

// Value returns the current count.
func (c *Counter) Value(context.Context) (float64, error) {
	return c.Get(), nil
}

func (c *Counter) valueType() prometheus.ValueType { return prometheus.CounterValue }

// Timer records durations. The registry a timer is added to decides how
// long observations are retained for its exported quantiles.
type Timer struct {
	name  string
	last  atomic.Int64
	count atomic.Uint64
	obs   atomic.Pointer[observer]
}

type observer struct {
	prometheus.Observer
}

// NewTimer creates a timer with no observations.
func NewTimer(name string) *Timer {
	return &Timer{name: name}
}

// Name returns the metric path.
func (t *Timer) Name() string { return t.name }

// Record adds one observation.
func (t *Timer) Record(d time.Duration) {
	t.last.Store(int64(d))
	t.count.Add(1)
	if o := t.obs.Load(); o != nil {
		o.Observe(d.Seconds())
	}
}

// Since records the time elapsed since start.
func (t *Timer) Since(start time.Time) {
	t.Record(time.Since(start))
}

// Last returns the most recent observation.
func (t *Timer) Last() time.Duration {
	return time.Duration(t.last.Load())
}

// Count returns the number of observations recorded.
func (t *Timer) Count() uint64 {
	return t.count.Load()
}

// Value returns the most recent observation in seconds.
func (t *Timer) Value(context.Context) (float64, error) {
	return t.Last().Seconds(), nil
}

func (t *Timer) valueType() prometheus.ValueType { return prometheus.UntypedValue }

func (t *Timer) bind(o prometheus.Observer) {
	if o == nil {
		t.obs.Store(nil)
		return
	}
	t.obs.Store(&observer{o})
}

// PrometheusName maps a metric path to a valid Prometheus metric name by
// replacing every character outside [a-zA-Z0-9_:] with an underscore. The
// mapping is lossy; exported samples carry the exact path as a label.
func PrometheusName(namespace, path string) string {
	var b strings.Builder
	b.Grow(len(path) + 1)

	for i, r := range path {
		switch {
		case r == '_' || r == ':' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	return prometheus.BuildFQName(namespace, "", b.String())
}
