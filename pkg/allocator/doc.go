// Package allocator manages the lifecycle of the metrics that describe a
// multi-tenant resource allocator.
//
// The set of metrics changes as the allocator runs: roles come and go,
// quotas are set and removed, frameworks subscribe and leave. Two aggregates
// track that set and keep every metric registered exactly once:
//
//   - Metrics: allocator-wide metrics, quota gauges per role and active
//     offer filter gauges per role.
//   - FrameworkMetrics: per-framework filtered resource counters, fairness
//     positions and suppression gauges per role.
//
// # Usage
//
// Both aggregates are confined to the allocator's process. Values owned by
// the allocator are exposed through pull gauges that post a read into the
// same process, so a scrape never touches allocator state concurrently:
//
//	proc := process.New("allocator", 1024)
//	m := allocator.NewMetrics(proc, alloc, registry)
//
//	_ = process.Run(ctx, proc, func() {
//		m.AddRole("eng")
//		m.SetQuota("eng", allocator.Quota{Guarantee: map[string]float64{"cpus": 4}})
//	})
//
// # Paths
//
// Roles and framework identifiers are percent-encoded with NormalizeKey
// before they are placed in a metric path, so a hierarchical role such as
// "eng/frontend" occupies a single path segment:
//
//	allocator/mesos/offer_filters/roles/eng%2Ffrontend/active
//
// # Invariants
//
// Creating a metric that already exists, removing one that does not, and
// using an aggregate after Close are programming errors. They panic with an
// *InvariantError, as does the registry rejecting an add or remove.
//
// RemoveQuota leaves the role's guarantee gauges registered by default;
// they are replaced by the next SetQuota for the role and swept by Close.
// WithSymmetricQuotaRemoval removes them together with the allocated gauges.
package allocator
