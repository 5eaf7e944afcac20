/*
Package allocmetrics tracks the metrics of a multi-tenant resource allocator
whose set of metrics changes at runtime.

Roles, frameworks and quotas come and go while the allocator runs. Each one
owns a group of metrics that is registered when it appears and unregistered
exactly once when it goes away.

Metrics (pkg/metrics):
  - PullGauge, PushGauge, Counter, Timer: the metric kinds
  - Registry: name-indexed registry exported to Prometheus and as a JSON snapshot

Allocator (pkg/allocator):
  - Metrics: allocator-wide, per-resource, per-quota and per-role metrics
  - FrameworkMetrics: per-framework filter counters, fairness positions and suppression
  - paths: canonical metric names, with role and framework keys normalized

Execution (pkg/process, pkg/schedule):
  - process: single-worker sequential context that pull gauges read through
  - schedule: cron scheduling of allocation and churn cycles

Example usage:

	import (
		"github.com/vnykmshr/allocmetrics/pkg/allocator"
		"github.com/vnykmshr/allocmetrics/pkg/metrics"
		"github.com/vnykmshr/allocmetrics/pkg/process"
	)

	proc := process.New("allocator", 1024)
	reg := metrics.NewRegistry(metrics.DefaultConfig())

	_ = process.Run(ctx, proc, func() {
		m := allocator.NewMetrics(proc, alloc, reg)
		m.AddRole("eng/frontend")
	})
*/
package allocmetrics
