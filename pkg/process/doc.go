/*
Package process provides a sequential execution context for state that must
only ever be touched from one goroutine.

A Process owns a single worker goroutine that drains a bounded task queue in
dispatch order. Code that mutates allocator state, and the metric aggregates
mirroring it, runs as tasks on the allocator's process and therefore needs no
locks.

Basic usage:

	p := process.New("allocator", 1024)
	defer func() { <-p.Shutdown() }()

	if err := p.Dispatch(ctx, func() { state.addRole("eng") }); err != nil {
		return err
	}

Reading state from another goroutine:

Code running elsewhere, such as a metrics scrape, reads process-owned state
through a future. Async posts the function into the queue and resolves the
future once the process has run it:

	f := process.Async(ctx, p, func() int { return len(state.roles) })
	n, err := f.Get(ctx)

Defer binds a function to a process once and returns a callback that
performs such a read on every call, which is the shape expected by pull
gauges:

	active := process.Defer(p, func() float64 { return state.activeFilters("eng") })
	v, err := active(ctx)

The value read reflects every task dispatched before the read was issued. It
is not a transactional snapshot: tasks dispatched concurrently with the read
may or may not be visible.

Never wait on a future from inside the process it targets; the process would
wait for itself.

Shutdown:

Shutdown stops accepting new tasks, runs every task that was already queued
and then stops the worker. Dispatching to a stopped process fails with
errors.ErrClosed:

	<-p.Shutdown()
	err := p.Dispatch(ctx, fn) // errors.Is(err, errors.ErrClosed)

Panics:

A panicking task does not stop the process. The panic is logged and handed
to Config.PanicHandler, which applications use to turn invariant violations
into a fail-fast exit. A future whose function panicked resolves with an
error.
*/
package process
