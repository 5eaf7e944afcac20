package ratelimit

import (
	"math"
	"sync"
	"time"

	amerrors "github.com/vnykmshr/allocmetrics/pkg/common/errors"
)

// Limit is the number of tokens added per second. A zero Limit adds none.
type Limit float64

// Inf is the infinite rate limit; it allows all events.
var Inf = Limit(math.Inf(1))

// Every converts a minimum interval between events to a Limit.
func Every(interval time.Duration) Limit {
	if interval <= 0 {
		return Inf
	}
	return Limit(time.Second) / Limit(interval)
}

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Config holds configuration for a Bucket.
type Config struct {
	// Rate is the number of tokens added per second.
	Rate Limit

	// Burst is the maximum number of tokens the bucket holds. The bucket
	// starts full.
	Burst int

	// Clock provides the current time. If nil, SystemClock is used.
	Clock Clock
}

// Bucket is a token bucket limiter. It is safe for concurrent use.
type Bucket struct {
	mu         sync.Mutex
	limit      Limit
	burst      int
	tokens     float64
	lastUpdate time.Time
	clock      Clock
}

// New creates a full bucket refilled at rate tokens per second.
func New(rate Limit, burst int) (*Bucket, error) {
	return NewWithConfig(Config{Rate: rate, Burst: burst})
}

// NewWithConfig creates a bucket from config.
func NewWithConfig(config Config) (*Bucket, error) {
	if config.Rate < 0 {
		return nil, amerrors.NewValidationError("ratelimit", "rate", config.Rate, "rate cannot be negative").
			WithHint("use Inf to disable limiting")
	}
	if config.Burst <= 0 {
		return nil, amerrors.NewValidationError("ratelimit", "burst", config.Burst, "burst must be positive").
			WithHint("burst determines how many tokens can be consumed instantly")
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}

	return &Bucket{
		limit:      config.Rate,
		burst:      config.Burst,
		tokens:     float64(config.Burst),
		lastUpdate: config.Clock.Now(),
		clock:      config.Clock,
	}, nil
}

// Allow reports whether an event may happen now, consuming a token if so.
func (b *Bucket) Allow() bool {
	return b.AllowN(1)
}

// AllowN reports whether n events may happen now, consuming n tokens if so.
func (b *Bucket) AllowN(n int) bool {
	if n <= 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.limit == Inf {
		return true
	}

	b.refill(b.clock.Now())
	if b.tokens < float64(n) {
		return false
	}
	b.tokens -= float64(n)
	return true
}

// Delay returns how long until one token is available. It is zero when a
// token is available now, and negative when none will ever be.
func (b *Bucket) Delay() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.limit == Inf {
		return 0
	}

	b.refill(b.clock.Now())
	if b.tokens >= 1 {
		return 0
	}
	if b.limit == 0 {
		return -1
	}
	return time.Duration(float64(time.Second) * (1 - b.tokens) / float64(b.limit))
}

// Tokens returns the number of tokens currently available.
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(b.clock.Now())
	return b.tokens
}

// Limit returns the refill rate.
func (b *Bucket) Limit() Limit {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.limit
}

// Burst returns the bucket capacity.
func (b *Bucket) Burst() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.burst
}

func (b *Bucket) refill(now time.Time) {
	if b.limit == Inf {
		b.tokens = float64(b.burst)
		b.lastUpdate = now
		return
	}

	elapsed := now.Sub(b.lastUpdate)
	if elapsed <= 0 {
		return
	}

	b.tokens = math.Min(b.tokens+elapsed.Seconds()*float64(b.limit), float64(b.burst))
	b.lastUpdate = now
}
