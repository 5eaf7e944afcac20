package allocator

import (
	"log/slog"
)

// Allocator is the read-only view of the allocator that pull gauges query.
// Its methods are only ever called from inside the allocator's process.
type Allocator interface {
	// EventQueueDispatches returns the number of events waiting in the
	// allocator's queue.
	EventQueueDispatches() int

	// ResourcesTotal returns the total capacity of a scalar resource.
	ResourcesTotal(resource string) float64

	// ResourcesOfferedOrAllocated returns how much of a scalar resource is
	// currently offered or allocated.
	ResourcesOfferedOrAllocated(resource string) float64

	// QuotaAllocated returns how much of a resource is offered or allocated
	// to a quota role.
	QuotaAllocated(role, resource string) float64

	// OfferFiltersActive returns the number of active offer filters for
	// a role.
	OfferFiltersActive(role string) int
}

// Quota is a role's guaranteed minimum, by resource name.
type Quota struct {
	Guarantee map[string]float64
}

// FrameworkInfo identifies a framework and the roles it subscribes to.
type FrameworkInfo struct {
	ID    string
	Name  string
	Roles []string
}

// DefaultResources returns the scalar resources tracked when no resources
// are configured.
func DefaultResources() []string {
	return []string{"cpus", "mem", "disk"}
}

// Option configures Metrics and FrameworkMetrics.
type Option func(*options)

type options struct {
	resources             []string
	symmetricQuotaRemoval bool
	logger                *slog.Logger
}

func newOptions(opts []Option) options {
	o := options{
		resources: DefaultResources(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithResources sets the scalar resources that get total and
// offered_or_allocated gauges. It has no effect on FrameworkMetrics.
func WithResources(resources ...string) Option {
	return func(o *options) {
		if len(resources) > 0 {
			o.resources = append([]string(nil), resources...)
		}
	}
}

// WithSymmetricQuotaRemoval makes RemoveQuota unregister the role's
// guarantee gauges together with its allocated gauges.
func WithSymmetricQuotaRemoval() Option {
	return func(o *options) {
		o.symmetricQuotaRemoval = true
	}
}

// WithLogger sets the logger for lifecycle diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
