package allocator

import (
	"log/slog"
	"sort"

	"github.com/vnykmshr/allocmetrics/pkg/metrics"
	"github.com/vnykmshr/allocmetrics/pkg/process"
)

// Metrics owns the allocator-wide metrics: the fixed gauges, counters and
// timers that live as long as the allocator, and the per-role quota and
// offer filter gauges that come and go with roles.
//
// Metrics holds no lock. All methods must be called from the allocator's
// process, or from a single goroutine that otherwise owns the allocator.
type Metrics struct {
	proc  *process.Process
	alloc Allocator
	reg   metrics.Registrar
	opts  options
	log   *slog.Logger

	// AllocationRuns counts completed allocation cycles.
	AllocationRuns *metrics.Counter

	// AllocationRun records the duration of each allocation cycle.
	AllocationRun *metrics.Timer

	// AllocationRunLatency records the delay between an allocation cycle
	// being requested and starting.
	AllocationRunLatency *metrics.Timer

	eventQueueDispatches       *metrics.PullGauge
	legacyEventQueueDispatches *metrics.PullGauge

	resourcesTotal              []*metrics.PullGauge
	resourcesOfferedOrAllocated []*metrics.PullGauge

	quotaGuarantee     map[string]map[string]*metrics.PullGauge
	quotaAllocated     map[string]map[string]*metrics.PullGauge
	offerFiltersActive map[string]*metrics.PullGauge

	closed bool
}

// NewMetrics creates and registers the fixed allocator metrics. Pull gauges
// read alloc by posting into proc, so they observe every mutation already
// dispatched to proc when the scrape happens.
func NewMetrics(proc *process.Process, alloc Allocator, reg metrics.Registrar, opts ...Option) *Metrics {
	o := newOptions(opts)

	m := &Metrics{
		proc:  proc,
		alloc: alloc,
		reg:   reg,
		opts:  o,
		log:   o.logger,

		AllocationRuns:       metrics.NewCounter(AllocationRunsPath),
		AllocationRun:        metrics.NewTimer(AllocationRunPath),
		AllocationRunLatency: metrics.NewTimer(AllocationRunLatencyPath),

		quotaGuarantee:     make(map[string]map[string]*metrics.PullGauge),
		quotaAllocated:     make(map[string]map[string]*metrics.PullGauge),
		offerFiltersActive: make(map[string]*metrics.PullGauge),
	}

	dispatches := process.Defer(proc, func() float64 {
		return float64(alloc.EventQueueDispatches())
	})
	m.eventQueueDispatches = metrics.NewPullGauge(EventQueueDispatchesPath, dispatches)
	m.legacyEventQueueDispatches = metrics.NewPullGauge(LegacyEventQueueDispatchesPath, dispatches)

	for _, metric := range m.fixed() {
		m.add("NewMetrics", metric.Name(), metric)
	}

	for _, resource := range o.resources {
		resource := resource

		total := metrics.NewPullGauge(ResourceTotalPath(resource),
			process.Defer(proc, func() float64 { return alloc.ResourcesTotal(resource) }))
		offered := metrics.NewPullGauge(ResourceOfferedOrAllocatedPath(resource),
			process.Defer(proc, func() float64 { return alloc.ResourcesOfferedOrAllocated(resource) }))

		m.add("NewMetrics", resource, total)
		m.add("NewMetrics", resource, offered)

		m.resourcesTotal = append(m.resourcesTotal, total)
		m.resourcesOfferedOrAllocated = append(m.resourcesOfferedOrAllocated, offered)
	}

	return m
}

func (m *Metrics) fixed() []metrics.Metric {
	return []metrics.Metric{
		m.eventQueueDispatches,
		m.legacyEventQueueDispatches,
		m.AllocationRuns,
		m.AllocationRun,
		m.AllocationRunLatency,
	}
}

// Close unregisters every metric owned by m, including per-role gauges that
// were never explicitly removed. m must not be used afterwards.
func (m *Metrics) Close() {
	m.checkOpen("Close", "")
	m.closed = true

	for _, metric := range m.fixed() {
		m.remove("Close", metric.Name(), metric)
	}
	for _, g := range m.resourcesTotal {
		m.remove("Close", g.Name(), g)
	}
	for _, g := range m.resourcesOfferedOrAllocated {
		m.remove("Close", g.Name(), g)
	}

	for _, role := range sortedKeys(m.quotaAllocated) {
		m.removeAll("Close", role, m.quotaAllocated[role])
	}
	for _, role := range sortedKeys(m.quotaGuarantee) {
		m.removeAll("Close", role, m.quotaGuarantee[role])
	}
	for _, role := range sortedKeys(m.offerFiltersActive) {
		m.remove("Close", role, m.offerFiltersActive[role])
	}

	m.quotaAllocated = nil
	m.quotaGuarantee = nil
	m.offerFiltersActive = nil

	m.log.Debug("allocator metrics closed")
}

// SetQuota registers the guarantee and offered_or_allocated gauges for
// every resource in quota. The role must not currently have a quota.
//
// Guarantee gauges report the value captured at call time. Guarantee gauges
// left over from an earlier RemoveQuota are replaced.
func (m *Metrics) SetQuota(role string, quota Quota) {
	m.checkOpen("SetQuota", role)
	_, exists := m.quotaAllocated[role]
	check(!exists, "SetQuota", role, "quota already set")

	if stale, ok := m.quotaGuarantee[role]; ok {
		m.removeAll("SetQuota", role, stale)
		delete(m.quotaGuarantee, role)
	}

	guarantees := make(map[string]*metrics.PullGauge, len(quota.Guarantee))
	allocated := make(map[string]*metrics.PullGauge, len(quota.Guarantee))

	for _, resource := range sortedKeys(quota.Guarantee) {
		resource := resource

		guarantee := metrics.NewPullGauge(QuotaGuaranteePath(role, resource),
			metrics.Constant(quota.Guarantee[resource]))
		offered := metrics.NewPullGauge(QuotaOfferedOrAllocatedPath(role, resource),
			process.Defer(m.proc, func() float64 { return m.alloc.QuotaAllocated(role, resource) }))

		m.add("SetQuota", role, guarantee)
		m.add("SetQuota", role, offered)

		guarantees[resource] = guarantee
		allocated[resource] = offered
	}

	m.quotaGuarantee[role] = guarantees
	m.quotaAllocated[role] = allocated

	m.log.Debug("quota metrics set",
		slog.String("role", role),
		slog.Int("resources", len(guarantees)))
}

// RemoveQuota unregisters the role's offered_or_allocated quota gauges. The
// role must have a quota. Guarantee gauges stay registered unless
// WithSymmetricQuotaRemoval is set.
func (m *Metrics) RemoveQuota(role string) {
	m.checkOpen("RemoveQuota", role)
	allocated, exists := m.quotaAllocated[role]
	check(exists, "RemoveQuota", role, "no quota set")

	m.removeAll("RemoveQuota", role, allocated)
	delete(m.quotaAllocated, role)

	if m.opts.symmetricQuotaRemoval {
		if guarantees, ok := m.quotaGuarantee[role]; ok {
			m.removeAll("RemoveQuota", role, guarantees)
			delete(m.quotaGuarantee, role)
		}
	}

	m.log.Debug("quota metrics removed", slog.String("role", role))
}

// AddRole registers the active offer filter gauge for a role that is not
// yet tracked.
func (m *Metrics) AddRole(role string) {
	m.checkOpen("AddRole", role)
	_, exists := m.offerFiltersActive[role]
	check(!exists, "AddRole", role, "role already added")

	g := metrics.NewPullGauge(OfferFiltersActivePath(role),
		process.Defer(m.proc, func() float64 { return float64(m.alloc.OfferFiltersActive(role)) }))

	m.add("AddRole", role, g)
	m.offerFiltersActive[role] = g
}

// RemoveRole unregisters the active offer filter gauge of a tracked role.
func (m *Metrics) RemoveRole(role string) {
	m.checkOpen("RemoveRole", role)
	g, exists := m.offerFiltersActive[role]
	check(exists, "RemoveRole", role, "role not added")

	delete(m.offerFiltersActive, role)
	m.remove("RemoveRole", role, g)
}

func (m *Metrics) checkOpen(op, key string) {
	check(!m.closed, op, key, "allocator metrics closed")
}

func (m *Metrics) add(op, key string, metric metrics.Metric) {
	if err := m.reg.Add(metric); err != nil {
		violation(op, key, "add "+metric.Name(), err)
	}
}

func (m *Metrics) remove(op, key string, metric metrics.Metric) {
	if err := m.reg.Remove(metric); err != nil {
		violation(op, key, "remove "+metric.Name(), err)
	}
}

func (m *Metrics) removeAll(op, role string, gauges map[string]*metrics.PullGauge) {
	for _, resource := range sortedKeys(gauges) {
		m.remove(op, role, gauges[resource])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
