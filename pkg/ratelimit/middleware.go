package ratelimit

import (
	"math"
	"net/http"
	"strconv"

	"github.com/vnykmshr/allocmetrics/pkg/metrics"
)

// Middleware serves next while limiter has tokens and rejects requests with
// 429 Too Many Requests otherwise. Rejections are counted on throttled when
// it is non-nil.
func Middleware(limiter *Bucket, throttled *metrics.Counter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if limiter.Allow() {
			next.ServeHTTP(w, req)
			return
		}

		if throttled != nil {
			throttled.Inc()
		}
		if delay := limiter.Delay(); delay >= 0 {
			seconds := int(math.Ceil(delay.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
	})
}
