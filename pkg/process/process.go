package process

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Config holds configuration options for creating a process.
type Config struct {
	// Name identifies the process in logs.
	Name string

	// QueueSize is the maximum number of dispatched tasks waiting for
	// execution. Must be greater than 0.
	QueueSize int

	// Logger receives task panics. Defaults to slog.Default().
	Logger *slog.Logger

	// PanicHandler is called after a dispatched task panics.
	// If nil, panics are recovered and logged as errors.
	PanicHandler func(recovered interface{})
}

// Process is a sequential execution context. Dispatched tasks run one at a
// time, in dispatch order, on a single goroutine owned by the process, so
// state touched only from tasks needs no locking.
type Process struct {
	config Config
	log    *slog.Logger

	taskQueue    chan func()
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	stopped      chan struct{}

	// mu orders enqueues against shutdown so that nothing is queued after
	// the worker has drained.
	mu         sync.RWMutex
	isShutdown bool

	totalDispatched atomic.Int64
	totalCompleted  atomic.Int64
}

// New creates a process with the given name and queue size.
func New(name string, queueSize int) *Process {
	return NewWithConfig(Config{
		Name:      name,
		QueueSize: queueSize,
	})
}

// NewWithConfig creates a process with the specified configuration.
func NewWithConfig(config Config) *Process {
	if config.QueueSize <= 0 {
		panic("queue size must be positive")
	}

	log := config.Logger
	if log == nil {
		log = slog.Default()
	}
	if config.Name != "" {
		log = log.With(slog.String("process", config.Name))
	}

	p := &Process{
		config:     config,
		log:        log,
		taskQueue:  make(chan func(), config.QueueSize),
		shutdownCh: make(chan struct{}),
		stopped:    make(chan struct{}),
	}

	go p.run()
	return p
}

// Name returns the configured process name.
func (p *Process) Name() string {
	return p.config.Name
}

// QueueSize returns the number of dispatched tasks not yet started.
func (p *Process) QueueSize() int {
	return len(p.taskQueue)
}

// TotalDispatched returns the number of tasks accepted by Dispatch.
func (p *Process) TotalDispatched() int64 {
	return p.totalDispatched.Load()
}

// TotalCompleted returns the number of tasks that finished running,
// including tasks that panicked.
func (p *Process) TotalCompleted() int64 {
	return p.totalCompleted.Load()
}

// Shutdown stops accepting tasks. Tasks already queued still run; the
// returned channel closes once the last of them has finished.
func (p *Process) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.isShutdown = true
		p.mu.Unlock()

		close(p.shutdownCh)
	})

	return p.stopped
}

// Done is closed when the process has stopped.
func (p *Process) Done() <-chan struct{} {
	return p.stopped
}
