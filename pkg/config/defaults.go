package config

import "time"

// Default values for configuration fields.
const (
	// Metrics defaults
	DefaultMetricsWindow        = time.Hour
	DefaultMetricsScrapeTimeout = 5 * time.Second

	// Allocator defaults
	DefaultAllocatorQueueSize = 1024

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:9464"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultSnapshotRate    = 5.0
	DefaultSnapshotBurst   = 10

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	// Simulation defaults
	DefaultAllocationSchedule = "@every 1s"
	DefaultChurnSchedule      = "@every 5s"
	DefaultFrameworks         = 4
	DefaultAgents             = 3
	DefaultSeed               = int64(1)
)

// DefaultResources returns the default scalar resource kinds.
func DefaultResources() []string {
	return []string{"cpus", "mem", "disk"}
}

// DefaultRoles returns the default simulation role pool.
func DefaultRoles() []string {
	return []string{"eng", "eng/frontend", "infra", "analytics"}
}

// DefaultAgentResources returns the default capacity of a simulated agent.
func DefaultAgentResources() map[string]float64 {
	return map[string]float64{
		"cpus": 16,
		"mem":  65536,
		"disk": 1048576,
	}
}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-valued field of cfg with its default.
func ApplyDefaults(cfg *Config) {
	// Metrics
	if cfg.Metrics.Window == 0 {
		cfg.Metrics.Window = DefaultMetricsWindow
	}
	if cfg.Metrics.ScrapeTimeout == 0 {
		cfg.Metrics.ScrapeTimeout = DefaultMetricsScrapeTimeout
	}

	// Allocator
	if len(cfg.Allocator.Resources) == 0 {
		cfg.Allocator.Resources = DefaultResources()
	}
	if cfg.Allocator.QueueSize == 0 {
		cfg.Allocator.QueueSize = DefaultAllocatorQueueSize
	}

	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.SnapshotRate == 0 {
		cfg.Server.SnapshotRate = DefaultSnapshotRate
	}
	if cfg.Server.SnapshotBurst == 0 {
		cfg.Server.SnapshotBurst = DefaultSnapshotBurst
	}

	// Logging
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	// Simulation
	if cfg.Simulation.AllocationSchedule == "" {
		cfg.Simulation.AllocationSchedule = DefaultAllocationSchedule
	}
	if cfg.Simulation.ChurnSchedule == "" {
		cfg.Simulation.ChurnSchedule = DefaultChurnSchedule
	}
	if cfg.Simulation.Frameworks == 0 {
		cfg.Simulation.Frameworks = DefaultFrameworks
	}
	if len(cfg.Simulation.Roles) == 0 {
		cfg.Simulation.Roles = DefaultRoles()
	}
	if cfg.Simulation.Agents == 0 {
		cfg.Simulation.Agents = DefaultAgents
	}
	if len(cfg.Simulation.AgentResources) == 0 {
		cfg.Simulation.AgentResources = DefaultAgentResources()
	}
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = DefaultSeed
	}
}
