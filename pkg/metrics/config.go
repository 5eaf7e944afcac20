package metrics

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultWindow is how long timer observations stay in the exported
	// quantiles.
	DefaultWindow = time.Hour

	// DefaultScrapeTimeout bounds a single pull gauge evaluation.
	DefaultScrapeTimeout = 5 * time.Second
)

// Config holds configuration for a metrics registry.
type Config struct {
	// Registry is the Prometheus registerer metrics are exported through.
	// If nil, metrics are only available through Snapshot.
	Registry prometheus.Registerer

	// Namespace is prepended to every exported Prometheus metric name.
	Namespace string

	// Labels are additional constant labels added to every exported metric.
	Labels prometheus.Labels

	// Window is the retention window applied to timers.
	Window time.Duration

	// ScrapeTimeout bounds each pull gauge evaluation during a scrape or
	// snapshot.
	ScrapeTimeout time.Duration

	// Logger receives registration and scrape diagnostics.
	Logger *slog.Logger
}

// DefaultConfig returns a default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Registry:      prometheus.DefaultRegisterer,
		Namespace:     "",
		Labels:        nil,
		Window:        DefaultWindow,
		ScrapeTimeout: DefaultScrapeTimeout,
	}
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.ScrapeTimeout <= 0 {
		c.ScrapeTimeout = DefaultScrapeTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
