// Package metrics provides named metric objects and the registry that
// publishes them.
//
// # Overview
//
// A metric is a (name, value source) pair identified by a slash-separated
// path such as "allocator/mesos/allocation_runs". Four kinds exist:
//
//   - PullGauge: value computed by a ValueFunc at scrape time
//   - PushGauge: value stored by application code
//   - Counter: monotonically increasing value
//   - Timer: duration observations, exported as windowed quantiles
//
// Metrics are created by their owner and published through a Registrar.
// Add must precede any scrape of a metric; Remove unpublishes it and must be
// called at most once per successful Add.
//
// # Quick Start
//
//	reg := metrics.NewRegistry(metrics.Config{
//		Registry: prometheus.NewRegistry(),
//		Window:   time.Hour,
//	})
//
//	runs := metrics.NewCounter("allocator/mesos/allocation_runs")
//	if err := reg.Add(runs); err != nil {
//		return err
//	}
//	defer reg.Remove(runs)
//
//	runs.Inc()
//
// # Pull Gauges
//
// A pull gauge stores only a callback. The callback runs on whichever
// goroutine performs the scrape, bounded by Config.ScrapeTimeout:
//
//	total := metrics.NewPullGauge("allocator/mesos/resources/cpus/total",
//		process.Defer(allocatorProcess, func() float64 { return a.total("cpus") }))
//
// Constant wraps a value captured once, for facts that never change:
//
//	guarantee := metrics.NewPullGauge(path, metrics.Constant(4))
//
// # Prometheus Export
//
// Prometheus metric names cannot contain slashes, so each metric is exported
// under PrometheusName(namespace, path) and carries the exact path in a
// "path" label:
//
//	allocator_mesos_resources_cpus_total{path="allocator/mesos/resources/cpus/total"} 24
//
// Timers are exported as summaries whose observations expire after
// Config.Window. The window is a property of the registry, not of the code
// recording into the timer.
//
// # Snapshots
//
// Snapshot evaluates every published metric and returns the values by name.
// SnapshotHandler serves the same data as JSON:
//
//	http.Handle("/metrics/snapshot", metrics.SnapshotHandler(reg))
//
// Metrics whose evaluation fails or times out are omitted from the snapshot
// and from the Prometheus scrape, and a warning is logged.
package metrics
