package process

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	amerrors "github.com/vnykmshr/allocmetrics/pkg/common/errors"
)

// Dispatch enqueues fn for execution on the process. It blocks until the
// task is queued, ctx is done, or the process is shut down. The context
// applies to the queuing operation, not to the execution of fn.
func (p *Process) Dispatch(ctx context.Context, fn func()) error {
	if fn == nil {
		return fmt.Errorf("task cannot be nil")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	// Check if context is already canceled before attempting to queue
	select {
	case <-ctx.Done():
		return fmt.Errorf("cannot dispatch task: context canceled: %w", ctx.Err())
	default:
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.isShutdown {
		return fmt.Errorf("cannot dispatch task to %q: %w", p.config.Name, amerrors.ErrClosed)
	}

	select {
	case p.taskQueue <- fn:
		p.totalDispatched.Add(1)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cannot dispatch task: context canceled: %w", ctx.Err())
	}
}

// run is the main loop of the process.
func (p *Process) run() {
	defer close(p.stopped)

	for {
		select {
		case t := <-p.taskQueue:
			p.execute(t)
		case <-p.shutdownCh:
			// No enqueue can happen once isShutdown is set, so draining the
			// buffer here runs every accepted task.
			for {
				select {
				case t := <-p.taskQueue:
					p.execute(t)
				default:
					return
				}
			}
		}
	}
}

// execute runs a single task with panic containment.
func (p *Process) execute(fn func()) {
	defer p.totalCompleted.Add(1)

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("task panicked",
				slog.Any("recovered", r),
				slog.String("stack", string(debug.Stack())))

			if p.config.PanicHandler != nil {
				p.config.PanicHandler(r)
			}
		}
	}()

	fn()
}
