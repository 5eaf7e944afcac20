package testutil

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestEventually(t *testing.T) {
	t.Run("condition met immediately", func(t *testing.T) {
		called := false
		Eventually(t, func() bool {
			called = true
			return true
		}, 100*time.Millisecond, 10*time.Millisecond)

		if !called {
			t.Error("condition function should be called")
		}
	})

	t.Run("condition met after delay", func(t *testing.T) {
		var counter int32
		go func() {
			time.Sleep(50 * time.Millisecond)
			atomic.StoreInt32(&counter, 1)
		}()

		Eventually(t, func() bool {
			return atomic.LoadInt32(&counter) == 1
		}, 500*time.Millisecond, 10*time.Millisecond)
	})
}

func TestAssertPanics(t *testing.T) {
	r := AssertPanics(t, func() { panic("desync") })
	AssertEqual(t, r.(string), "desync")
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(t)
	defer cancel()

	deadline, ok := ctx.Deadline()
	AssertEqual(t, ok, true)
	AssertEqual(t, time.Until(deadline) <= TestTimeout, true)
}

func TestLogBuffer(t *testing.T) {
	lb := NewLogBuffer()
	log := lb.Logger()

	log.Debug("metric added", "name", "allocator/mesos/allocation_runs")
	log.Warn("scrape failed")

	AssertEqual(t, lb.Contains("metric added"), true)
	AssertEqual(t, lb.Contains("allocator/mesos/allocation_runs"), true)
	AssertEqual(t, lb.Contains("level=WARN"), true)
	AssertEqual(t, lb.Contains("missing"), false)
}

func TestDiscardLogger(t *testing.T) {
	// Must not panic or write anywhere.
	DiscardLogger().Error("ignored", "key", "value")
}
