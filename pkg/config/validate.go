package config

import (
	"errors"

	amerrors "github.com/vnykmshr/allocmetrics/pkg/common/errors"
	"github.com/vnykmshr/allocmetrics/pkg/common/validation"
	"github.com/vnykmshr/allocmetrics/pkg/schedule"
)

// Validate checks every section of cfg and returns all problems found,
// joined. Each problem is a *errors.ValidationError.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateMetrics(&cfg.Metrics)...)
	errs = append(errs, validateAllocator(&cfg.Allocator)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateSimulation(&cfg.Simulation)...)

	return errors.Join(errs...)
}

func validateMetrics(cfg *MetricsConfig) []error {
	return collect(
		validation.ValidatePositiveDuration("metrics", "window", cfg.Window),
		validation.ValidatePositiveDuration("metrics", "scrape_timeout", cfg.ScrapeTimeout),
	)
}

func validateAllocator(cfg *AllocatorConfig) []error {
	return collect(
		validation.ValidateUniqueNames("allocator", "resources", cfg.Resources),
		validation.ValidatePositive("allocator", "queue_size", cfg.QueueSize),
	)
}

func validateServer(cfg *ServerConfig) []error {
	errs := collect(
		validation.ValidateNotEmpty("server", "listen_address", cfg.ListenAddress),
		validation.ValidatePositiveDuration("server", "shutdown_timeout", cfg.ShutdownTimeout),
		validation.ValidatePositive("server", "snapshot_burst", cfg.SnapshotBurst),
	)
	if cfg.SnapshotRate < 0 {
		errs = append(errs, amerrors.NewValidationError("server", "snapshot_rate", cfg.SnapshotRate, "cannot be negative"))
	}
	return errs
}

func validateLogging(cfg *LoggingConfig) []error {
	return collect(
		validation.ValidateOneOf("logging", "level", cfg.Level, "debug", "info", "warn", "error"),
		validation.ValidateOneOf("logging", "format", cfg.Format, "text", "json"),
	)
}

func validateSimulation(cfg *SimulationConfig) []error {
	errs := collect(
		validateSchedule("simulation", "allocation_schedule", cfg.AllocationSchedule),
		validateSchedule("simulation", "churn_schedule", cfg.ChurnSchedule),
		validation.ValidatePositive("simulation", "frameworks", cfg.Frameworks),
		validation.ValidateUniqueNames("simulation", "roles", cfg.Roles),
		validation.ValidatePositive("simulation", "agents", cfg.Agents),
	)

	for name, v := range cfg.AgentResources {
		if v < 0 {
			errs = append(errs, amerrors.NewValidationError("simulation", "agent_resources."+name, v, "cannot be negative"))
		}
	}
	return errs
}

func validateSchedule(module, field, expr string) error {
	if err := schedule.Validate(expr); err != nil {
		return amerrors.NewValidationError(module, field, expr, err.Error()).
			WithHint("use a cron expression such as \"*/5 * * * *\" or \"@every 1s\"")
	}
	return nil
}

func collect(errs ...error) []error {
	var out []error
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}
