package ratelimit

import (
	"errors"
	"testing"
	"time"

	"github.com/vnykmshr/allocmetrics/internal/testutil"
	amerrors "github.com/vnykmshr/allocmetrics/pkg/common/errors"
)

// MockClock implements Clock for testing
type MockClock struct {
	now time.Time
}

func (m *MockClock) Now() time.Time {
	return m.now
}

func (m *MockClock) Advance(d time.Duration) {
	m.now = m.now.Add(d)
}

func newTestBucket(t *testing.T, rate Limit, burst int) (*Bucket, *MockClock) {
	t.Helper()

	clock := &MockClock{now: time.Unix(0, 0)}
	b, err := NewWithConfig(Config{Rate: rate, Burst: burst, Clock: clock})
	testutil.AssertNoError(t, err)
	return b, clock
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		rate    Limit
		burst   int
		wantErr bool
	}{
		{"valid parameters", 10, 5, false},
		{"zero rate", 0, 5, false},
		{"infinite rate", Inf, 5, false},
		{"negative rate", -1, 5, true},
		{"zero burst", 10, 0, true},
		{"negative burst", 10, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.rate, tt.burst)
			if tt.wantErr {
				testutil.AssertError(t, err)
				testutil.AssertEqual(t, errors.Is(err, amerrors.ErrInvalidConfiguration), true)
				if b != nil {
					t.Error("expected nil bucket on error")
				}
				return
			}

			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, b.Limit(), tt.rate)
			testutil.AssertEqual(t, b.Burst(), tt.burst)
			testutil.AssertEqual(t, b.Tokens(), float64(tt.burst))
		})
	}
}

func TestEvery(t *testing.T) {
	testutil.AssertEqual(t, Every(100*time.Millisecond), Limit(10))
	testutil.AssertEqual(t, Every(0), Inf)
}

func TestAllowBurstThenRefill(t *testing.T) {
	b, clock := newTestBucket(t, 2, 3)

	for i := 0; i < 3; i++ {
		if !b.Allow() {
			t.Fatalf("request %d denied within burst", i)
		}
	}
	testutil.AssertEqual(t, b.Allow(), false)

	clock.Advance(500 * time.Millisecond)
	testutil.AssertEqual(t, b.Allow(), true)
	testutil.AssertEqual(t, b.Allow(), false)

	// Refill is capped at burst.
	clock.Advance(time.Hour)
	testutil.AssertEqual(t, b.Tokens(), 3.0)
}

func TestAllowN(t *testing.T) {
	b, _ := newTestBucket(t, 1, 5)

	testutil.AssertEqual(t, b.AllowN(4), true)
	testutil.AssertEqual(t, b.AllowN(2), false)
	testutil.AssertEqual(t, b.Tokens(), 1.0)
	testutil.AssertEqual(t, b.AllowN(0), true)
}

func TestDelay(t *testing.T) {
	b, clock := newTestBucket(t, 4, 1)

	testutil.AssertEqual(t, b.Delay(), time.Duration(0))
	b.Allow()
	testutil.AssertEqual(t, b.Delay(), 250*time.Millisecond)

	clock.Advance(100 * time.Millisecond)
	testutil.AssertEqual(t, b.Delay(), 150*time.Millisecond)
}

func TestZeroRate(t *testing.T) {
	b, clock := newTestBucket(t, 0, 2)

	testutil.AssertEqual(t, b.AllowN(2), true)
	clock.Advance(time.Hour)
	testutil.AssertEqual(t, b.Allow(), false)
	if b.Delay() >= 0 {
		t.Errorf("expected negative delay for empty zero-rate bucket, got %v", b.Delay())
	}
}

func TestInfiniteRate(t *testing.T) {
	b, _ := newTestBucket(t, Inf, 1)

	for i := 0; i < 100; i++ {
		if !b.Allow() {
			t.Fatalf("request %d denied with infinite rate", i)
		}
	}
	testutil.AssertEqual(t, b.Delay(), time.Duration(0))
}
