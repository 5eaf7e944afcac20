package config

import (
	"time"
)

// Config is the root configuration of the allocmetrics service.
type Config struct {
	Metrics    MetricsConfig    `yaml:"metrics"`
	Allocator  AllocatorConfig  `yaml:"allocator"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Simulation SimulationConfig `yaml:"simulation"`
}

// MetricsConfig configures the metrics registry and its Prometheus export.
type MetricsConfig struct {
	// Namespace is prepended to every exported Prometheus metric name.
	Namespace string `yaml:"namespace"`

	// Labels are constant labels added to every exported metric.
	Labels map[string]string `yaml:"labels"`

	// Window is how long timer observations are retained.
	Window time.Duration `yaml:"window"`

	// ScrapeTimeout bounds every pull gauge evaluation.
	ScrapeTimeout time.Duration `yaml:"scrape_timeout"`
}

// AllocatorConfig configures the allocator metrics aggregates.
type AllocatorConfig struct {
	// Resources are the scalar resource kinds that get total and
	// offered_or_allocated gauges.
	Resources []string `yaml:"resources"`

	// QueueSize is the capacity of the allocator process queue.
	QueueSize int `yaml:"queue_size"`

	// SymmetricQuotaRemoval removes guarantee gauges together with
	// allocated gauges when a quota is removed.
	SymmetricQuotaRemoval bool `yaml:"symmetric_quota_removal"`
}

// ServerConfig configures the HTTP endpoint serving metrics.
type ServerConfig struct {
	ListenAddress   string        `yaml:"listen_address"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// SnapshotRate and SnapshotBurst bound requests to the JSON snapshot
	// endpoint, in requests per second. Every snapshot evaluates each pull
	// gauge on the allocator process.
	SnapshotRate  float64 `yaml:"snapshot_rate"`
	SnapshotBurst int     `yaml:"snapshot_burst"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// SimulationConfig drives the in-memory allocator behind the serve command.
type SimulationConfig struct {
	// AllocationSchedule is the cron expression for allocation cycles.
	AllocationSchedule string `yaml:"allocation_schedule"`

	// ChurnSchedule is the cron expression for framework, role and quota
	// churn.
	ChurnSchedule string `yaml:"churn_schedule"`

	// Frameworks is the number of frameworks kept registered.
	Frameworks int `yaml:"frameworks"`

	// Roles is the pool frameworks draw their roles from.
	Roles []string `yaml:"roles"`

	// Agents is the number of agents contributing resources.
	Agents int `yaml:"agents"`

	// AgentResources is the capacity of each agent, by resource name.
	AgentResources map[string]float64 `yaml:"agent_resources"`

	// Seed makes the churn sequence reproducible.
	Seed int64 `yaml:"seed"`
}
