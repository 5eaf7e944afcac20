package integration

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/allocmetrics/internal/sim"
	"github.com/vnykmshr/allocmetrics/internal/testutil"
	"github.com/vnykmshr/allocmetrics/pkg/metrics"
)

func newSimulator(t *testing.T, reg metrics.Registrar) *sim.Allocator {
	t.Helper()

	return sim.New(sim.Config{
		Roles:          []string{"eng", "eng/frontend", "infra", "analytics"},
		Frameworks:     4,
		Agents:         3,
		AgentResources: map[string]float64{"cpus": 16, "mem": 65536, "disk": 1048576},
		Seed:           7,
		DeclineRate:    sim.DefaultDeclineRate,
		RevocableRate:  sim.DefaultRevocableRate,
		Logger:         testutil.DiscardLogger(),
	}, reg)
}

// exportedPaths gathers promReg and returns the sorted path labels of every
// exported series.
func exportedPaths(t *testing.T, promReg prometheus.Gatherer) []string {
	t.Helper()

	families, err := promReg.Gather()
	testutil.AssertNoError(t, err)

	var paths []string
	for _, family := range families {
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "path" {
					paths = append(paths, label.GetValue())
				}
			}
		}
	}
	sort.Strings(paths)
	return paths
}

// TestChurnExportsExactlyRegisteredMetrics drives the simulator through
// churn and allocation cycles while scraping concurrently, then checks that
// the Prometheus export matches the registry and that closing the allocator
// leaves nothing exported.
func TestChurnExportsExactlyRegisteredMetrics(t *testing.T) {
	promReg := prometheus.NewRegistry()
	reg := metrics.NewRegistry(metrics.Config{
		Registry:  promReg,
		Namespace: "mesos",
		Logger:    testutil.DiscardLogger(),
	})

	a := newSimulator(t, reg)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	testutil.AssertNoError(t, a.Populate(ctx))

	scrapeCtx, stopScraping := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for scrapeCtx.Err() == nil {
			if _, err := promReg.Gather(); err != nil {
				t.Errorf("gather during churn: %v", err)
				return
			}
		}
	}()

	for i := 0; i < 100; i++ {
		testutil.AssertNoError(t, a.Churn(ctx))
		testutil.AssertNoError(t, a.Allocate(ctx))
	}

	stopScraping()
	wg.Wait()

	names := reg.Names()
	paths := exportedPaths(t, promReg)
	testutil.AssertEqual(t, len(paths), len(names))
	for i := range names {
		testutil.AssertEqual(t, paths[i], names[i])
	}

	testutil.AssertNoError(t, a.Close(ctx))
	testutil.AssertEqual(t, reg.Len(), 0)
	testutil.AssertEqual(t, len(exportedPaths(t, promReg)), 0)
}

// TestSnapshotMatchesScrape checks that the JSON snapshot and the Prometheus
// export carry the same paths once the allocator is idle.
func TestSnapshotMatchesScrape(t *testing.T) {
	promReg := prometheus.NewRegistry()
	reg := metrics.NewRegistry(metrics.Config{
		Registry: promReg,
		Logger:   testutil.DiscardLogger(),
	})

	a := newSimulator(t, reg)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	defer func() { testutil.AssertNoError(t, a.Close(ctx)) }()

	testutil.AssertNoError(t, a.Populate(ctx))
	testutil.AssertNoError(t, a.Allocate(ctx))

	snapshot := reg.Snapshot(ctx)
	paths := exportedPaths(t, promReg)
	testutil.AssertEqual(t, len(snapshot), len(paths))
	for _, path := range paths {
		if _, ok := snapshot[path]; !ok {
			t.Errorf("snapshot is missing %q", path)
		}
	}
}
