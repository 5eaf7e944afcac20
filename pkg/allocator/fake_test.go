package allocator

import (
	"errors"
	"testing"

	"github.com/vnykmshr/allocmetrics/internal/testutil"
	"github.com/vnykmshr/allocmetrics/pkg/metrics/metricstest"
	"github.com/vnykmshr/allocmetrics/pkg/process"
)

// fakeAllocator is an Allocator whose state tests mutate through the
// process, the same way a real allocator would.
type fakeAllocator struct {
	dispatches int
	total      map[string]float64
	offered    map[string]float64
	quota      map[string]map[string]float64
	filters    map[string]int
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{
		total:   make(map[string]float64),
		offered: make(map[string]float64),
		quota:   make(map[string]map[string]float64),
		filters: make(map[string]int),
	}
}

func (a *fakeAllocator) EventQueueDispatches() int { return a.dispatches }

func (a *fakeAllocator) ResourcesTotal(resource string) float64 { return a.total[resource] }

func (a *fakeAllocator) ResourcesOfferedOrAllocated(resource string) float64 {
	return a.offered[resource]
}

func (a *fakeAllocator) QuotaAllocated(role, resource string) float64 {
	return a.quota[role][resource]
}

func (a *fakeAllocator) OfferFiltersActive(role string) int { return a.filters[role] }

type fixture struct {
	proc  *process.Process
	alloc *fakeAllocator
	reg   *metricstest.RecordingRegistry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		proc:  process.New("allocator", 16),
		alloc: newFakeAllocator(),
		reg:   metricstest.NewRecordingRegistry(),
	}
	t.Cleanup(func() { <-f.proc.Shutdown() })
	return f
}

func (f *fixture) metrics(opts ...Option) *Metrics {
	opts = append([]Option{WithLogger(testutil.DiscardLogger())}, opts...)
	return NewMetrics(f.proc, f.alloc, f.reg, opts...)
}

// mutate applies fn to the allocator state on the process.
func (f *fixture) mutate(t *testing.T, fn func(a *fakeAllocator)) {
	t.Helper()

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	testutil.AssertNoError(t, process.Run(ctx, f.proc, func() { fn(f.alloc) }))
}

func (f *fixture) value(t *testing.T, name string) float64 {
	t.Helper()

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	v, err := f.reg.Value(ctx, name)
	testutil.AssertNoError(t, err)
	return v
}

func (f *fixture) live(name string) bool {
	_, ok := f.reg.Lookup(name)
	return ok
}

// assertInvariantPanic runs fn and checks that it panics with an
// *InvariantError for op.
func assertInvariantPanic(t *testing.T, op string, fn func()) *InvariantError {
	t.Helper()

	recovered := testutil.AssertPanics(t, fn)
	err, ok := recovered.(error)
	if !ok {
		t.Fatalf("panic value %v is not an error", recovered)
	}

	var ie *InvariantError
	if !errors.As(err, &ie) {
		t.Fatalf("panic value %v is not an *InvariantError", err)
	}
	testutil.AssertEqual(t, ie.Op, op)
	return ie
}
