package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vnykmshr/allocmetrics/internal/sim"
	"github.com/vnykmshr/allocmetrics/pkg/allocator"
	amerrors "github.com/vnykmshr/allocmetrics/pkg/common/errors"
	"github.com/vnykmshr/allocmetrics/pkg/config"
	"github.com/vnykmshr/allocmetrics/pkg/logging"
	"github.com/vnykmshr/allocmetrics/pkg/metrics"
	"github.com/vnykmshr/allocmetrics/pkg/ratelimit"
	"github.com/vnykmshr/allocmetrics/pkg/schedule"
)

// snapshotThrottledPath counts snapshot requests rejected by the rate limit.
const snapshotThrottledPath = "allocmetrics/snapshot/throttled"

var serveFlags struct {
	listenAddress string
	logLevel      string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulated allocator and serve its metrics",
	Long: `Run an in-memory allocator that performs allocation cycles and role,
framework and quota churn on cron schedules, and serve its metrics:

  /metrics            Prometheus exposition
  /metrics/snapshot   JSON object keyed by metric path (?timeout=500ms)

The server stops on SIGINT or SIGTERM, unregistering every metric.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Logging.Level = serveFlags.logLevel
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	return serve(ctx, cfg, logger, cancel)
}

// serve runs until ctx is done or fail is called.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, fail func()) error {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	registry := metrics.NewRegistry(metrics.Config{
		Registry:      promReg,
		Namespace:     cfg.Metrics.Namespace,
		Labels:        prometheus.Labels(cfg.Metrics.Labels),
		Window:        cfg.Metrics.Window,
		ScrapeTimeout: cfg.Metrics.ScrapeTimeout,
		Logger:        logging.Component(logger, "registry"),
	})

	limiter, err := ratelimit.New(ratelimit.Limit(cfg.Server.SnapshotRate), cfg.Server.SnapshotBurst)
	if err != nil {
		return err
	}
	throttled := metrics.NewCounter(snapshotThrottledPath)
	if err := registry.Add(throttled); err != nil {
		return err
	}
	defer func() {
		_ = registry.Remove(throttled)
	}()

	simulator := newSimulator(cfg, registry, logger, fail)

	if err := simulator.Populate(ctx); err != nil {
		return errors.Join(err, simulator.Close(context.Background()))
	}

	scheduler, err := newScheduler(cfg, simulator, logger)
	if err != nil {
		return errors.Join(err, simulator.Close(context.Background()))
	}
	scheduler.Start()

	server := &http.Server{
		Addr:              cfg.Server.ListenAddress,
		Handler:           newMux(promReg, registry, limiter, throttled),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-serverErr:
		logger.Error("server failed", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	<-scheduler.Stop()
	return errors.Join(
		err,
		server.Shutdown(shutdownCtx),
		simulator.Close(shutdownCtx),
	)
}

func newSimulator(cfg *config.Config, reg metrics.Registrar, logger *slog.Logger, fail func()) *sim.Allocator {
	var opts []allocator.Option
	if cfg.Allocator.SymmetricQuotaRemoval {
		opts = append(opts, allocator.WithSymmetricQuotaRemoval())
	}

	return sim.New(sim.Config{
		Resources:      cfg.Allocator.Resources,
		Roles:          cfg.Simulation.Roles,
		Frameworks:     cfg.Simulation.Frameworks,
		Agents:         cfg.Simulation.Agents,
		AgentResources: cfg.Simulation.AgentResources,
		Seed:           cfg.Simulation.Seed,
		DeclineRate:    sim.DefaultDeclineRate,
		RevocableRate:  sim.DefaultRevocableRate,
		QueueSize:      cfg.Allocator.QueueSize,
		MetricOptions:  opts,
		Logger:         logging.Component(logger, "allocator"),
		PanicHandler: func(recovered interface{}) {
			// A broken metrics invariant leaves the registry in an unknown
			// state; stop serving.
			attrs := []any{slog.Any("recovered", recovered)}
			var ierr *allocator.InvariantError
			if err, ok := recovered.(error); ok && errors.As(err, &ierr) {
				attrs = append(attrs,
					slog.String("op", ierr.Op),
					slog.Bool("registry_conflict", amerrors.IsMetricConflict(ierr)))
			}
			logger.Error("allocator task panicked", attrs...)
			fail()
		},
	}, reg)
}

func newScheduler(cfg *config.Config, simulator *sim.Allocator, logger *slog.Logger) (*schedule.Scheduler, error) {
	scheduler := schedule.New(schedule.Config{Logger: logging.Component(logger, "schedule")})

	jobs := []struct {
		id   string
		expr string
		job  schedule.Job
	}{
		{"allocate", cfg.Simulation.AllocationSchedule, simulator.Allocate},
		{"churn", cfg.Simulation.ChurnSchedule, simulator.Churn},
	}

	for _, j := range jobs {
		if err := scheduler.Add(j.id, j.expr, j.job, schedule.Options{}); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", j.id, err)
		}
	}
	return scheduler, nil
}

func newMux(promReg *prometheus.Registry, registry *metrics.Registry, limiter *ratelimit.Bucket, throttled *metrics.Counter) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(promReg,
		promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))
	mux.Handle("/metrics/snapshot", ratelimit.Middleware(limiter, throttled, metrics.SnapshotHandler(registry)))
	return mux
}
