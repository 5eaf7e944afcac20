package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vnykmshr/allocmetrics/internal/testutil"
	amerrors "github.com/vnykmshr/allocmetrics/pkg/common/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	testutil.AssertEqual(t, cfg.Metrics.Window, time.Hour)
	testutil.AssertEqual(t, cfg.Metrics.ScrapeTimeout, 5*time.Second)
	testutil.AssertEqual(t, strings.Join(cfg.Allocator.Resources, ","), "cpus,mem,disk")
	testutil.AssertEqual(t, cfg.Allocator.QueueSize, DefaultAllocatorQueueSize)
	testutil.AssertEqual(t, cfg.Allocator.SymmetricQuotaRemoval, false)
	testutil.AssertEqual(t, cfg.Server.ListenAddress, DefaultListenAddress)
	testutil.AssertEqual(t, cfg.Server.SnapshotRate, 5.0)
	testutil.AssertEqual(t, cfg.Server.SnapshotBurst, 10)
	testutil.AssertEqual(t, cfg.Logging.Level, "info")
	testutil.AssertEqual(t, cfg.Logging.Format, "text")
	testutil.AssertEqual(t, cfg.Simulation.AllocationSchedule, "@every 1s")
	testutil.AssertEqual(t, cfg.Simulation.Frameworks, DefaultFrameworks)
	testutil.AssertEqual(t, cfg.Simulation.AgentResources["cpus"], 16.0)

	testutil.AssertNoError(t, Validate(cfg))
}

func TestParse(t *testing.T) {
	data := []byte(`
metrics:
  namespace: mesos
  window: 30m
  labels:
    cluster: prod
allocator:
  resources: [cpus, gpus]
  symmetric_quota_removal: true
logging:
  level: debug
  format: json
simulation:
  roles: [eng, infra]
  seed: 42
`)

	cfg, err := Parse(data)
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, cfg.Metrics.Namespace, "mesos")
	testutil.AssertEqual(t, cfg.Metrics.Window, 30*time.Minute)
	testutil.AssertEqual(t, cfg.Metrics.Labels["cluster"], "prod")
	testutil.AssertEqual(t, strings.Join(cfg.Allocator.Resources, ","), "cpus,gpus")
	testutil.AssertEqual(t, cfg.Allocator.SymmetricQuotaRemoval, true)
	testutil.AssertEqual(t, cfg.Logging.Level, "debug")
	testutil.AssertEqual(t, cfg.Simulation.Seed, int64(42))

	// Untouched fields take their defaults.
	testutil.AssertEqual(t, cfg.Metrics.ScrapeTimeout, DefaultMetricsScrapeTimeout)
	testutil.AssertEqual(t, cfg.Allocator.QueueSize, DefaultAllocatorQueueSize)
	testutil.AssertEqual(t, cfg.Simulation.ChurnSchedule, DefaultChurnSchedule)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Server.ListenAddress, DefaultListenAddress)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("metrics:\n  windw: 1h\n"))
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, strings.Contains(err.Error(), "windw"), true)
}

func TestParseRejectsMalformedDuration(t *testing.T) {
	_, err := Parse([]byte("metrics:\n  window: soon\n"))
	testutil.AssertError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative window", func(c *Config) { c.Metrics.Window = -time.Second }, "window"},
		{"negative scrape timeout", func(c *Config) { c.Metrics.ScrapeTimeout = -1 }, "scrape_timeout"},
		{"duplicate resource", func(c *Config) { c.Allocator.Resources = []string{"cpus", "cpus"} }, "resources"},
		{"empty resource", func(c *Config) { c.Allocator.Resources = []string{"cpus", ""} }, "resources"},
		{"negative queue", func(c *Config) { c.Allocator.QueueSize = -5 }, "queue_size"},
		{"negative snapshot rate", func(c *Config) { c.Server.SnapshotRate = -1 }, "snapshot_rate"},
		{"negative snapshot burst", func(c *Config) { c.Server.SnapshotBurst = -1 }, "snapshot_burst"},
		{"unknown level", func(c *Config) { c.Logging.Level = "verbose" }, "level"},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }, "format"},
		{"bad schedule", func(c *Config) { c.Simulation.AllocationSchedule = "sometimes" }, "allocation_schedule"},
		{"duplicate role", func(c *Config) { c.Simulation.Roles = []string{"eng", "eng"} }, "roles"},
		{"negative agents", func(c *Config) { c.Simulation.Agents = -1 }, "agents"},
		{"negative capacity", func(c *Config) { c.Simulation.AgentResources = map[string]float64{"cpus": -1} }, "agent_resources.cpus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			testutil.AssertError(t, err)
			testutil.AssertEqual(t, errors.Is(err, amerrors.ErrInvalidConfiguration), true)

			var verr *amerrors.ValidationError
			testutil.AssertEqual(t, errors.As(err, &verr), true)
			testutil.AssertEqual(t, verr.Field, tt.field)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "verbose"
	cfg.Logging.Format = "xml"
	cfg.Simulation.Frameworks = -1

	err := Validate(cfg)
	testutil.AssertError(t, err)

	msg := err.Error()
	for _, field := range []string{"level", "format", "frameworks"} {
		if !strings.Contains(msg, "invalid "+field+"=") {
			t.Errorf("error %q does not mention %s", msg, field)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "allocmetrics.yaml")
	testutil.AssertNoError(t, os.WriteFile(path, []byte("server:\n  listen_address: :9000\n"), 0o600))

	cfg, err := Load(path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Server.ListenAddress, ":9000")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, errors.Is(err, os.ErrNotExist), true)
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Marshal(Default())
	testutil.AssertNoError(t, err)

	cfg, err := Parse(data)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Metrics.Window, DefaultMetricsWindow)
	testutil.AssertEqual(t, cfg.Simulation.Roles[1], "eng/frontend")
}
