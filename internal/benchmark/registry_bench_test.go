package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/allocmetrics/internal/testutil"
	"github.com/vnykmshr/allocmetrics/pkg/allocator"
	"github.com/vnykmshr/allocmetrics/pkg/metrics"
	"github.com/vnykmshr/allocmetrics/pkg/process"
)

// BenchmarkRegistryAddRemove measures one publish and unpublish cycle of a
// role-scoped gauge, the unit of work behind role churn.
func BenchmarkRegistryAddRemove(b *testing.B) {
	reg := metrics.NewRegistry(metrics.Config{
		Registry: prometheus.NewRegistry(),
		Logger:   testutil.DiscardLogger(),
	})
	gauge := metrics.NewPullGauge(allocator.OfferFiltersActivePath("eng/frontend"), metrics.Constant(1))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := reg.Add(gauge); err != nil {
			b.Fatal(err)
		}
		if err := reg.Remove(gauge); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSnapshotDeferredGauges measures a snapshot whose pull gauges
// each read state on a process.
func BenchmarkSnapshotDeferredGauges(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("gauges_%d", n), func(b *testing.B) {
			proc := process.New("bench", n)
			defer func() { <-proc.Shutdown() }()

			reg := metrics.NewRegistry(metrics.Config{Logger: testutil.DiscardLogger()})
			state := 1.0
			for i := 0; i < n; i++ {
				path := allocator.OfferFiltersActivePath(fmt.Sprintf("role-%d", i))
				g := metrics.NewPullGauge(path, process.Defer(proc, func() float64 { return state }))
				if err := reg.Add(g); err != nil {
					b.Fatal(err)
				}
			}

			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if got := len(reg.Snapshot(ctx)); got != n {
					b.Fatalf("snapshot has %d values, want %d", got, n)
				}
			}
		})
	}
}

// BenchmarkNormalizeKey measures role and framework key normalization.
func BenchmarkNormalizeKey(b *testing.B) {
	keys := map[string]string{
		"plain":   "analytics",
		"nested":  "eng/frontend/canary",
		"unicode": "équipe données",
	}

	for name, key := range keys {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = allocator.NormalizeKey(key)
			}
		})
	}
}
