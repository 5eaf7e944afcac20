package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// parser accepts standard five-field expressions, an optional leading
// seconds field, and descriptors such as "@hourly" or "@every 5s".
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate reports whether expr is a valid schedule expression.
func Validate(expr string) error {
	if expr == "" {
		return fmt.Errorf("cron expression cannot be empty")
	}
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// NextRuns returns the next n activation times of expr after from.
func NextRuns(expr string, from time.Time, n int) ([]time.Time, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	runs := make([]time.Time, 0, n)
	current := from
	for i := 0; i < n; i++ {
		current = sched.Next(current)
		runs = append(runs, current)
	}
	return runs, nil
}

// Job is the work run on every activation. The context is canceled when
// the scheduler stops.
type Job func(ctx context.Context) error

// Options configures a single scheduled job.
type Options struct {
	// MaxRuns limits the number of activations (0 = unlimited).
	MaxRuns int

	// StopOnError removes the job after its first failed run.
	StopOnError bool

	// OnError is called when a run fails.
	OnError func(id string, err error)
}

// Config holds scheduler configuration.
type Config struct {
	// Location is the time zone expressions are evaluated in (default: time.Local).
	Location *time.Location

	// Logger receives job failures and scheduler diagnostics.
	Logger *slog.Logger
}

type entry struct {
	id      string
	expr    string
	cronID  cron.EntryID
	options Options
	runs    atomic.Int64
}

// Scheduler runs jobs on cron schedules. A job never overlaps with itself:
// an activation that fires while the previous run is still going is
// skipped. Scheduler is safe for concurrent use.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]*entry
	running bool
}

// New creates a stopped scheduler.
func New(config Config) *Scheduler {
	location := config.Location
	if location == nil {
		location = time.Local
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cl := cronLogger{log: logger}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:     logger,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
	}
}

// Add schedules job under id.
func (s *Scheduler) Add(id, expr string, job Job, options Options) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}
	if id == "" {
		return fmt.Errorf("job ID cannot be empty")
	}
	if err := Validate(expr); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; exists {
		return fmt.Errorf("job %q already scheduled", id)
	}

	e := &entry{id: id, expr: expr, options: options}
	cronID, err := s.cron.AddFunc(expr, func() { s.run(e, job) })
	if err != nil {
		return fmt.Errorf("schedule job %q: %w", id, err)
	}
	e.cronID = cronID
	s.entries[id] = e

	return nil
}

func (s *Scheduler) run(e *entry, job Job) {
	if s.ctx.Err() != nil {
		return
	}

	err := job(s.ctx)
	runs := e.runs.Add(1)

	if err != nil {
		s.log.Warn("scheduled job failed",
			slog.String("job", e.id),
			slog.Any("error", err))

		if e.options.OnError != nil {
			e.options.OnError(e.id, err)
		}
		if e.options.StopOnError {
			s.Remove(e.id)
			return
		}
	}

	if e.options.MaxRuns > 0 && runs >= int64(e.options.MaxRuns) {
		s.Remove(e.id)
	}
}

// Remove unschedules the job registered under id.
func (s *Scheduler) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[id]
	if !exists {
		return false
	}
	s.cron.Remove(e.cronID)
	delete(s.entries, id)
	return true
}

// Next returns the next activation of the job registered under id. It is
// the zero time while the scheduler is stopped.
func (s *Scheduler) Next(id string) (time.Time, bool) {
	s.mu.Lock()
	e, exists := s.entries[id]
	s.mu.Unlock()

	if !exists {
		return time.Time{}, false
	}
	return s.cron.Entry(e.cronID).Next, true
}

// Runs returns how many times the job registered under id has completed.
func (s *Scheduler) Runs(id string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.entries[id]; exists {
		return e.runs.Load()
	}
	return 0
}

// IDs returns the IDs of all scheduled jobs in sorted order.
func (s *Scheduler) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Start begins running jobs. It is a no-op if the scheduler is running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.ctx.Err() != nil {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop cancels the context passed to jobs and stops scheduling new runs.
// The returned channel is closed once running jobs have returned. A
// stopped scheduler cannot be restarted.
func (s *Scheduler) Stop() <-chan struct{} {
	s.mu.Lock()
	s.cancel()
	s.running = false
	s.mu.Unlock()

	return s.cron.Stop().Done()
}

// cronLogger routes cron's own diagnostics into slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
