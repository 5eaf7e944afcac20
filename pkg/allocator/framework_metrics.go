package allocator

import (
	"log/slog"

	"github.com/vnykmshr/allocmetrics/pkg/metrics"
)

// FilterReason names why offered resources were filtered out of a
// framework's offer.
type FilterReason string

const (
	// FilterGeneric counts filtered resources without attributing a reason.
	FilterGeneric               FilterReason = ""
	FilterDecline               FilterReason = "decline"
	FilterGPU                   FilterReason = "gpu_resources"
	FilterRegionAware           FilterReason = "region_aware"
	FilterReservationRefinement FilterReason = "reservation_refinement"
	FilterRevocable             FilterReason = "revocable_resources"
)

var filterReasons = []FilterReason{
	FilterGeneric,
	FilterDecline,
	FilterGPU,
	FilterRegionAware,
	FilterReservationRefinement,
	FilterRevocable,
}

type positions struct {
	min *metrics.PushGauge
	max *metrics.PushGauge
}

// FrameworkMetrics owns the metrics of a single framework: filtered
// resource counters, fairness positions and suppression state per role.
//
// Like Metrics, it holds no lock and must be confined to the allocator's
// process.
type FrameworkMetrics struct {
	info   FrameworkInfo
	prefix string
	reg    metrics.Registrar
	log    *slog.Logger

	resourcesFiltered map[FilterReason]*metrics.Counter
	positions         map[string]positions
	suppressed        map[string]*metrics.PushGauge

	closed bool
}

// NewFrameworkMetrics registers the framework's filtered resource counters
// and a suppression gauge, set to active, for each of its roles.
func NewFrameworkMetrics(info FrameworkInfo, reg metrics.Registrar, opts ...Option) *FrameworkMetrics {
	o := newOptions(opts)

	f := &FrameworkMetrics{
		info:              info,
		prefix:            FrameworkPrefix(info),
		reg:               reg,
		log:               o.logger.With(slog.String("framework", info.ID)),
		resourcesFiltered: make(map[FilterReason]*metrics.Counter, len(filterReasons)),
		positions:         make(map[string]positions),
		suppressed:        make(map[string]*metrics.PushGauge),
	}

	for _, reason := range filterReasons {
		c := metrics.NewCounter(ResourcesFilteredPath(f.prefix, reason))
		f.add("NewFrameworkMetrics", string(reason), c)
		f.resourcesFiltered[reason] = c
	}

	for _, role := range info.Roles {
		f.ReviveRole(role)
	}

	return f
}

// Info returns the framework this FrameworkMetrics was created for.
func (f *FrameworkMetrics) Info() FrameworkInfo {
	return f.info
}

// Close unregisters every metric owned by f. f must not be used afterwards.
func (f *FrameworkMetrics) Close() {
	f.checkOpen("Close", "")
	f.closed = true

	for _, reason := range filterReasons {
		f.remove("Close", string(reason), f.resourcesFiltered[reason])
	}
	for _, role := range sortedKeys(f.positions) {
		p := f.positions[role]
		f.remove("Close", role, p.min)
		f.remove("Close", role, p.max)
	}
	for _, role := range sortedKeys(f.suppressed) {
		f.remove("Close", role, f.suppressed[role])
	}

	f.positions = nil
	f.suppressed = nil

	f.log.Debug("framework metrics closed")
}

// IncResourcesFiltered counts one filtered offer. Every reason increments
// the generic counter; reasons other than FilterGeneric also increment
// their own counter.
func (f *FrameworkMetrics) IncResourcesFiltered(reason FilterReason) {
	f.checkOpen("IncResourcesFiltered", string(reason))
	c, ok := f.resourcesFiltered[reason]
	check(ok, "IncResourcesFiltered", string(reason), "unknown filter reason")

	f.resourcesFiltered[FilterGeneric].Inc()
	if reason != FilterGeneric {
		c.Inc()
	}
}

// SetFairnessPositions records the latest min and max position of the
// framework within role. The gauges are registered on first use.
func (f *FrameworkMetrics) SetFairnessPositions(role string, minPos, maxPos int) {
	f.checkOpen("SetFairnessPositions", role)

	p, ok := f.positions[role]
	if !ok {
		minPath, maxPath := LatestPositionPaths(f.prefix, role)
		p = positions{
			min: metrics.NewPushGauge(minPath),
			max: metrics.NewPushGauge(maxPath),
		}
		f.add("SetFairnessPositions", role, p.min)
		f.add("SetFairnessPositions", role, p.max)
		f.positions[role] = p
	}

	p.min.Set(float64(minPos))
	p.max.Set(float64(maxPos))
}

// RemoveFairnessPositions unregisters the role's position gauges if the
// role was ever ranked.
func (f *FrameworkMetrics) RemoveFairnessPositions(role string) {
	f.checkOpen("RemoveFairnessPositions", role)

	p, ok := f.positions[role]
	if !ok {
		return
	}
	delete(f.positions, role)
	f.remove("RemoveFairnessPositions", role, p.min)
	f.remove("RemoveFairnessPositions", role, p.max)
}

// ReviveRole marks role as active, registering its suppression gauge if
// needed.
func (f *FrameworkMetrics) ReviveRole(role string) {
	f.checkOpen("ReviveRole", role)
	f.suppressedGauge("ReviveRole", role).Set(0)
}

// SuppressRole marks role as suppressed, registering its suppression gauge
// if needed.
func (f *FrameworkMetrics) SuppressRole(role string) {
	f.checkOpen("SuppressRole", role)
	f.suppressedGauge("SuppressRole", role).Set(1)
}

// RemoveSuppressedRole unregisters the suppression gauge of a role the
// framework no longer subscribes to.
func (f *FrameworkMetrics) RemoveSuppressedRole(role string) {
	f.checkOpen("RemoveSuppressedRole", role)
	g, ok := f.suppressed[role]
	check(ok, "RemoveSuppressedRole", role, "role not tracked")

	delete(f.suppressed, role)
	f.remove("RemoveSuppressedRole", role, g)
}

func (f *FrameworkMetrics) suppressedGauge(op, role string) *metrics.PushGauge {
	if g, ok := f.suppressed[role]; ok {
		return g
	}

	g := metrics.NewPushGauge(SuppressedPath(f.prefix, role))
	f.add(op, role, g)
	f.suppressed[role] = g
	return g
}

func (f *FrameworkMetrics) checkOpen(op, key string) {
	check(!f.closed, op, key, "framework metrics closed")
}

func (f *FrameworkMetrics) add(op, key string, metric metrics.Metric) {
	if err := f.reg.Add(metric); err != nil {
		violation(op, key, "add "+metric.Name(), err)
	}
}

func (f *FrameworkMetrics) remove(op, key string, metric metrics.Metric) {
	if err := f.reg.Remove(metric); err != nil {
		violation(op, key, "remove "+metric.Name(), err)
	}
}
