/*
Package ratelimit provides a token bucket limiter and HTTP middleware built
on it.

The metrics server uses it to bound requests to the JSON snapshot endpoint.
A snapshot evaluates every pull gauge on the allocator process, so an
unbounded stream of snapshots competes with allocation work for the
process queue.

Token bucket:

	limiter, err := ratelimit.New(5, 10) // 5 tokens/sec, burst of 10
	if err != nil {
		return err
	}
	if limiter.Allow() {
		// serve
	}

Middleware:

	throttled := metrics.NewCounter("allocmetrics/snapshot/throttled")
	handler := ratelimit.Middleware(limiter, throttled, metrics.SnapshotHandler(registry))

Rejected requests get 429 Too Many Requests with a Retry-After header.
*/
package ratelimit
