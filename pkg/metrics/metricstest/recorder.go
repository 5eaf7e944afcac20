// Package metricstest provides a metrics.Registrar that records every call
// for assertions in tests.
package metricstest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	amerrors "github.com/vnykmshr/allocmetrics/pkg/common/errors"
	"github.com/vnykmshr/allocmetrics/pkg/metrics"
)

// Op identifies a registrar call.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// Call is one recorded Add or Remove.
type Call struct {
	Op     Op
	Name   string
	Metric metrics.Metric
}

// RecordingRegistry is a metrics.Registrar that enforces the registry
// contract and keeps a log of every call. It is safe for concurrent use.
type RecordingRegistry struct {
	mu    sync.Mutex
	calls []Call
	live  map[string]metrics.Metric
}

// NewRecordingRegistry creates an empty RecordingRegistry.
func NewRecordingRegistry() *RecordingRegistry {
	return &RecordingRegistry{live: make(map[string]metrics.Metric)}
}

// Add records the call and publishes m. Adding a name that is already live
// fails with ErrDuplicateMetric.
func (r *RecordingRegistry) Add(m metrics.Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, Call{Op: OpAdd, Name: m.Name(), Metric: m})
	if _, ok := r.live[m.Name()]; ok {
		return fmt.Errorf("add %q: %w", m.Name(), amerrors.ErrDuplicateMetric)
	}
	r.live[m.Name()] = m
	return nil
}

// Remove records the call and unpublishes m. Removing anything but the
// live object under m's name fails with ErrUnknownMetric.
func (r *RecordingRegistry) Remove(m metrics.Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, Call{Op: OpRemove, Name: m.Name(), Metric: m})
	if cur, ok := r.live[m.Name()]; !ok || cur != m {
		return fmt.Errorf("remove %q: %w", m.Name(), amerrors.ErrUnknownMetric)
	}
	delete(r.live, m.Name())
	return nil
}

// Calls returns a copy of the call log.
func (r *RecordingRegistry) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Reset clears the call log without touching the live set.
func (r *RecordingRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Lookup returns the live metric published under name.
func (r *RecordingRegistry) Lookup(name string) (metrics.Metric, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.live[name]
	return m, ok
}

// Len returns the number of live metrics.
func (r *RecordingRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// Names returns the sorted names of the live metrics.
func (r *RecordingRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.live))
	for name := range r.live {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Value evaluates the live metric published under name.
func (r *RecordingRegistry) Value(ctx context.Context, name string) (float64, error) {
	m, ok := r.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("value %q: %w", name, amerrors.ErrUnknownMetric)
	}
	return m.Value(ctx)
}

// Unbalanced returns every metric object that was not added exactly once
// and removed exactly once, keyed by name. An empty result means every
// object ever added has been cleanly removed.
func (r *RecordingRegistry) Unbalanced() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	type counts struct{ adds, removes int }
	perObject := make(map[metrics.Metric]*counts)
	var order []metrics.Metric

	for _, c := range r.calls {
		n, ok := perObject[c.Metric]
		if !ok {
			n = &counts{}
			perObject[c.Metric] = n
			order = append(order, c.Metric)
		}
		switch c.Op {
		case OpAdd:
			n.adds++
		case OpRemove:
			n.removes++
		}
	}

	out := make(map[string]string)
	for _, m := range order {
		n := perObject[m]
		if n.adds != 1 || n.removes != 1 {
			out[m.Name()] = fmt.Sprintf("added %d, removed %d", n.adds, n.removes)
		}
	}
	return out
}
