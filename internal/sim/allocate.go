package sim

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/vnykmshr/allocmetrics/pkg/allocator"
)

// Allocate runs one allocation cycle: frameworks give back part of what
// they hold, then every role's frameworks are ranked by dominant share and
// offered resources in that order.
func (a *Allocator) Allocate(ctx context.Context) error {
	requested := time.Now()

	return a.do(ctx, "allocate", func() error {
		a.metrics.AllocationRunLatency.Since(requested)

		start := time.Now()
		a.allocate()
		a.metrics.AllocationRun.Since(start)
		a.metrics.AllocationRuns.Inc()
		return nil
	})
}

type candidate struct {
	fw    *framework
	share float64
}

func (a *Allocator) allocate() {
	a.release()

	// Filters installed in the previous cycle have expired.
	for role := range a.offerFilters {
		delete(a.offerFilters, role)
	}

	offers := 0
	for _, role := range sortedKeys(a.roleRefs) {
		candidates := a.rank(role)

		for i, c := range candidates {
			lo, hi := tieBounds(candidates, i)
			c.fw.metrics.SetFairnessPositions(role, lo, hi)
		}

		for _, c := range candidates {
			if a.offer(role, c.fw) {
				offers++
			}
		}
	}

	a.log.Debug("allocation cycle finished",
		slog.Int("roles", len(a.roleRefs)),
		slog.Int("offers", offers))
}

// release returns part of every allocation, as if tasks finished.
func (a *Allocator) release() {
	for _, fw := range a.frameworks {
		for role, alloc := range fw.allocation {
			for r, v := range alloc {
				v *= releaseFraction
				if v < 1e-6 {
					delete(alloc, r)
					continue
				}
				alloc[r] = v
			}
			if len(alloc) == 0 {
				delete(fw.allocation, role)
			}
		}
	}
}

// rank orders the role's unsuppressed frameworks by ascending dominant
// share, breaking ties by ID.
func (a *Allocator) rank(role string) []candidate {
	var candidates []candidate
	for _, id := range sortedKeys(a.frameworks) {
		fw := a.frameworks[id]
		suppressed, subscribed := fw.suppressed[role]
		if !subscribed || suppressed {
			continue
		}
		candidates = append(candidates, candidate{fw: fw, share: a.dominantShare(fw)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].share < candidates[j].share
	})
	return candidates
}

func (a *Allocator) dominantShare(fw *framework) float64 {
	var share float64
	for r, total := range a.total {
		if total <= 0 {
			continue
		}
		var held float64
		for _, alloc := range fw.allocation {
			held += alloc[r]
		}
		share = max(share, held/total)
	}
	return share
}

// tieBounds returns the first and last position sharing candidate i's
// dominant share.
func tieBounds(candidates []candidate, i int) (lo, hi int) {
	lo, hi = i, i
	for lo > 0 && candidates[lo-1].share == candidates[i].share {
		lo--
	}
	for hi < len(candidates)-1 && candidates[hi+1].share == candidates[i].share {
		hi++
	}
	return lo, hi
}

// offer hands the framework a slice of the unallocated resources and
// reports whether anything was granted.
func (a *Allocator) offer(role string, fw *framework) bool {
	if a.rng.Float64() < a.config.DeclineRate {
		fw.metrics.IncResourcesFiltered(allocator.FilterDecline)
		a.offerFilters[role]++
		return false
	}
	if a.rng.Float64() < a.config.RevocableRate {
		fw.metrics.IncResourcesFiltered(allocator.FilterRevocable)
	}

	granted := false
	for _, r := range a.config.Resources {
		if r == "gpus" && !fw.gpuAware {
			if a.available(r) > 0 {
				fw.metrics.IncResourcesFiltered(allocator.FilterGPU)
			}
			continue
		}

		amount := min(a.available(r), a.total[r]*grantFraction)
		if amount <= 0 {
			continue
		}

		alloc, ok := fw.allocation[role]
		if !ok {
			alloc = make(map[string]float64)
			fw.allocation[role] = alloc
		}
		alloc[r] += amount
		granted = true
	}

	if !granted {
		fw.metrics.IncResourcesFiltered(allocator.FilterGeneric)
	}
	return granted
}

func (a *Allocator) available(resource string) float64 {
	return a.total[resource] - a.ResourcesOfferedOrAllocated(resource)
}
