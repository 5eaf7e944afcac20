package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/vnykmshr/allocmetrics/pkg/allocator"
	amerrors "github.com/vnykmshr/allocmetrics/pkg/common/errors"
	"github.com/vnykmshr/allocmetrics/pkg/metrics"
	"github.com/vnykmshr/allocmetrics/pkg/process"
)

var (
	// ErrUnknownFramework is returned for operations on a framework that is
	// not registered.
	ErrUnknownFramework = errors.New("unknown framework")

	// ErrUnknownRole is returned when a framework is not subscribed to the
	// role an operation names.
	ErrUnknownRole = errors.New("framework not subscribed to role")

	// ErrQuotaExists is returned when setting a quota on a role that has one.
	ErrQuotaExists = errors.New("quota already set")

	// ErrNoQuota is returned when removing a quota from a role without one.
	ErrNoQuota = errors.New("no quota set")
)

const (
	// DefaultDeclineRate is the probability a framework declines an offer.
	DefaultDeclineRate = 0.1

	// DefaultRevocableRate is the probability an offer is filtered for
	// carrying revocable resources.
	DefaultRevocableRate = 0.05

	grantFraction   = 0.05
	releaseFraction = 0.5
	quotaFraction   = 0.1
)

// Config holds simulator configuration.
type Config struct {
	// Resources are the scalar resource kinds the allocator tracks.
	Resources []string

	// Roles is the pool churn draws roles from.
	Roles []string

	// Frameworks is the number of frameworks Populate and churn aim for.
	Frameworks int

	// Agents and AgentResources set the initial cluster capacity.
	Agents         int
	AgentResources map[string]float64

	// Seed makes framework IDs and churn reproducible.
	Seed int64

	// DeclineRate and RevocableRate are per-offer filter probabilities.
	DeclineRate   float64
	RevocableRate float64

	// QueueSize is the capacity of the allocator process queue.
	QueueSize int

	// MetricOptions are passed to the allocator metrics aggregates.
	MetricOptions []allocator.Option

	Logger *slog.Logger

	// PanicHandler is called when a task on the allocator process panics.
	PanicHandler func(recovered interface{})
}

func (c Config) withDefaults() Config {
	if len(c.Resources) == 0 {
		c.Resources = allocator.DefaultResources()
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

type framework struct {
	info     allocator.FrameworkInfo
	metrics  *allocator.FrameworkMetrics
	gpuAware bool

	// suppressed by subscribed role
	suppressed map[string]bool

	// allocation by role, then resource
	allocation map[string]map[string]float64
}

// Allocator is an in-memory allocator. It implements allocator.Allocator
// and drives the allocator metrics aggregates through their whole
// lifecycle. Every exported method posts into the allocator's process.
type Allocator struct {
	proc    *process.Process
	metrics *allocator.Metrics
	reg     metrics.Registrar
	config  Config
	log     *slog.Logger

	// Owned by proc.
	rng           *rand.Rand
	total         map[string]float64
	frameworks    map[string]*framework
	roleRefs      map[string]int
	quotas        map[string]allocator.Quota
	offerFilters  map[string]int
	nextFramework int
	closed        bool
}

// New creates a simulator and registers the allocator metrics with reg.
func New(config Config, reg metrics.Registrar) *Allocator {
	config = config.withDefaults()

	a := &Allocator{
		reg:          reg,
		config:       config,
		log:          config.Logger.With(slog.String("component", "sim")),
		rng:          rand.New(rand.NewSource(config.Seed)),
		total:        make(map[string]float64),
		frameworks:   make(map[string]*framework),
		roleRefs:     make(map[string]int),
		quotas:       make(map[string]allocator.Quota),
		offerFilters: make(map[string]int),
	}

	for _, r := range config.Resources {
		a.total[r] = float64(config.Agents) * config.AgentResources[r]
	}

	a.proc = process.NewWithConfig(process.Config{
		Name:         "allocator",
		QueueSize:    config.QueueSize,
		Logger:       config.Logger,
		PanicHandler: config.PanicHandler,
	})

	opts := append([]allocator.Option{
		allocator.WithResources(config.Resources...),
		allocator.WithLogger(config.Logger),
	}, config.MetricOptions...)
	a.metrics = allocator.NewMetrics(a.proc, a, reg, opts...)

	return a
}

// Process returns the allocator's process.
func (a *Allocator) Process() *process.Process {
	return a.proc
}

// EventQueueDispatches implements allocator.Allocator.
func (a *Allocator) EventQueueDispatches() int {
	return a.proc.QueueSize()
}

// ResourcesTotal implements allocator.Allocator.
func (a *Allocator) ResourcesTotal(resource string) float64 {
	return a.total[resource]
}

// ResourcesOfferedOrAllocated implements allocator.Allocator.
func (a *Allocator) ResourcesOfferedOrAllocated(resource string) float64 {
	var sum float64
	for _, fw := range a.frameworks {
		for _, alloc := range fw.allocation {
			sum += alloc[resource]
		}
	}
	return sum
}

// QuotaAllocated implements allocator.Allocator.
func (a *Allocator) QuotaAllocated(role, resource string) float64 {
	var sum float64
	for _, fw := range a.frameworks {
		sum += fw.allocation[role][resource]
	}
	return sum
}

// OfferFiltersActive implements allocator.Allocator.
func (a *Allocator) OfferFiltersActive(role string) int {
	return a.offerFilters[role]
}

// do runs fn on the allocator's process and returns its error.
func (a *Allocator) do(ctx context.Context, op string, fn func() error) error {
	err, dispatchErr := process.Async(ctx, a.proc, func() error {
		if a.closed {
			return amerrors.ErrClosed
		}
		return fn()
	}).Get(ctx)

	if dispatchErr != nil {
		return fmt.Errorf("%s: %w", op, dispatchErr)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AddFramework registers a framework subscribed to roles and returns its
// info, including the generated ID.
func (a *Allocator) AddFramework(ctx context.Context, name string, roles []string) (allocator.FrameworkInfo, error) {
	var info allocator.FrameworkInfo
	err := a.do(ctx, "add framework", func() error {
		info = a.addFramework(name, roles)
		return nil
	})
	return info, err
}

// RemoveFramework unregisters a framework and releases its resources.
func (a *Allocator) RemoveFramework(ctx context.Context, id string) error {
	return a.do(ctx, "remove framework", func() error {
		fw, ok := a.frameworks[id]
		if !ok {
			return fmt.Errorf("%s: %w", id, ErrUnknownFramework)
		}
		a.removeFramework(fw)
		return nil
	})
}

// UpdateRoles replaces the roles a framework subscribes to.
func (a *Allocator) UpdateRoles(ctx context.Context, id string, roles []string) error {
	return a.do(ctx, "update roles", func() error {
		fw, ok := a.frameworks[id]
		if !ok {
			return fmt.Errorf("%s: %w", id, ErrUnknownFramework)
		}
		a.updateRoles(fw, roles)
		return nil
	})
}

// Suppress stops offers to a framework for one of its roles.
func (a *Allocator) Suppress(ctx context.Context, id, role string) error {
	return a.do(ctx, "suppress", func() error {
		fw, err := a.subscribed(id, role)
		if err != nil {
			return err
		}
		fw.suppressed[role] = true
		fw.metrics.SuppressRole(role)
		return nil
	})
}

// Revive resumes offers to a framework for one of its roles.
func (a *Allocator) Revive(ctx context.Context, id, role string) error {
	return a.do(ctx, "revive", func() error {
		fw, err := a.subscribed(id, role)
		if err != nil {
			return err
		}
		fw.suppressed[role] = false
		fw.metrics.ReviveRole(role)
		return nil
	})
}

// SetQuota sets the guaranteed minimum of a role without a quota.
func (a *Allocator) SetQuota(ctx context.Context, role string, quota allocator.Quota) error {
	return a.do(ctx, "set quota", func() error {
		return a.setQuota(role, quota)
	})
}

// RemoveQuota removes a role's quota.
func (a *Allocator) RemoveQuota(ctx context.Context, role string) error {
	return a.do(ctx, "remove quota", func() error {
		return a.removeQuota(role)
	})
}

// AddAgent adds an agent's capacity to the cluster totals.
func (a *Allocator) AddAgent(ctx context.Context, resources map[string]float64) error {
	return a.do(ctx, "add agent", func() error {
		for r, v := range resources {
			a.total[r] += v
		}
		return nil
	})
}

// Populate adds frameworks until the configured number is registered.
func (a *Allocator) Populate(ctx context.Context) error {
	return a.do(ctx, "populate", func() error {
		for len(a.frameworks) < a.config.Frameworks {
			a.addFramework("", a.pickRoles())
		}
		return nil
	})
}

// Frameworks returns the registered frameworks ordered by ID.
func (a *Allocator) Frameworks(ctx context.Context) ([]allocator.FrameworkInfo, error) {
	var infos []allocator.FrameworkInfo
	err := a.do(ctx, "frameworks", func() error {
		for _, id := range sortedKeys(a.frameworks) {
			infos = append(infos, a.frameworks[id].info)
		}
		return nil
	})
	return infos, err
}

// Roles returns the roles at least one framework subscribes to.
func (a *Allocator) Roles(ctx context.Context) ([]string, error) {
	var roles []string
	err := a.do(ctx, "roles", func() error {
		roles = sortedKeys(a.roleRefs)
		return nil
	})
	return roles, err
}

// Close unregisters every metric and stops the allocator's process.
func (a *Allocator) Close(ctx context.Context) error {
	err := a.do(ctx, "close", func() error {
		for _, id := range sortedKeys(a.frameworks) {
			a.frameworks[id].metrics.Close()
		}
		a.metrics.Close()

		a.frameworks = nil
		a.closed = true
		return nil
	})
	if err != nil {
		return err
	}

	select {
	case <-a.proc.Shutdown():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("close: %w", ctx.Err())
	}
}

func (a *Allocator) subscribed(id, role string) (*framework, error) {
	fw, ok := a.frameworks[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownFramework)
	}
	if _, ok := fw.suppressed[role]; !ok {
		return nil, fmt.Errorf("%s: role %q: %w", id, role, ErrUnknownRole)
	}
	return fw, nil
}

func (a *Allocator) addFramework(name string, roles []string) allocator.FrameworkInfo {
	a.nextFramework++
	if name == "" {
		name = fmt.Sprintf("framework-%d", a.nextFramework)
	}

	id := uuid.Must(uuid.NewRandomFromReader(a.rng)).String()
	info := allocator.FrameworkInfo{ID: id, Name: name, Roles: dedupe(roles)}

	fw := &framework{
		info:       info,
		metrics:    allocator.NewFrameworkMetrics(info, a.reg, allocator.WithLogger(a.config.Logger)),
		gpuAware:   a.rng.Intn(2) == 0,
		suppressed: make(map[string]bool, len(info.Roles)),
		allocation: make(map[string]map[string]float64),
	}
	for _, role := range info.Roles {
		fw.suppressed[role] = false
		a.retainRole(role)
	}
	a.frameworks[id] = fw

	a.log.Debug("framework added",
		slog.String("framework", id),
		slog.String("name", name),
		slog.Any("roles", info.Roles))
	return info
}

func (a *Allocator) removeFramework(fw *framework) {
	fw.metrics.Close()
	delete(a.frameworks, fw.info.ID)

	for _, role := range sortedKeys(fw.suppressed) {
		a.releaseRole(role)
	}

	a.log.Debug("framework removed", slog.String("framework", fw.info.ID))
}

func (a *Allocator) updateRoles(fw *framework, roles []string) {
	roles = dedupe(roles)

	next := make(map[string]bool, len(roles))
	for _, role := range roles {
		next[role] = true
	}

	for _, role := range sortedKeys(fw.suppressed) {
		if next[role] {
			continue
		}
		fw.metrics.RemoveSuppressedRole(role)
		fw.metrics.RemoveFairnessPositions(role)
		delete(fw.suppressed, role)
		delete(fw.allocation, role)
		a.releaseRole(role)
	}

	for _, role := range roles {
		if _, ok := fw.suppressed[role]; ok {
			continue
		}
		fw.suppressed[role] = false
		fw.metrics.ReviveRole(role)
		a.retainRole(role)
	}

	fw.info.Roles = roles
}

func (a *Allocator) retainRole(role string) {
	a.roleRefs[role]++
	if a.roleRefs[role] == 1 {
		a.metrics.AddRole(role)
	}
}

func (a *Allocator) releaseRole(role string) {
	a.roleRefs[role]--
	if a.roleRefs[role] > 0 {
		return
	}
	delete(a.roleRefs, role)
	delete(a.offerFilters, role)
	a.metrics.RemoveRole(role)
}

func (a *Allocator) setQuota(role string, quota allocator.Quota) error {
	if _, ok := a.quotas[role]; ok {
		return fmt.Errorf("%s: %w", role, ErrQuotaExists)
	}

	guarantee := make(map[string]float64, len(quota.Guarantee))
	for r, v := range quota.Guarantee {
		guarantee[r] = v
	}
	q := allocator.Quota{Guarantee: guarantee}

	a.quotas[role] = q
	a.metrics.SetQuota(role, q)
	return nil
}

func (a *Allocator) removeQuota(role string) error {
	if _, ok := a.quotas[role]; !ok {
		return fmt.Errorf("%s: %w", role, ErrNoQuota)
	}
	delete(a.quotas, role)
	a.metrics.RemoveQuota(role)
	return nil
}

func (a *Allocator) pickRoles() []string {
	pool := a.config.Roles
	if len(pool) == 0 {
		return nil
	}

	n := 1 + a.rng.Intn(min(2, len(pool)))
	roles := make([]string, 0, n)
	for _, i := range a.rng.Perm(len(pool))[:n] {
		roles = append(roles, pool[i])
	}
	return roles
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
