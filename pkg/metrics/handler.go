package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// SnapshotHandler serves the registry snapshot as a JSON object mapping
// metric names to values. An optional "timeout" query parameter (a Go
// duration such as "500ms") bounds the whole snapshot.
func SnapshotHandler(r *Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ctx := req.Context()
		if raw := req.URL.Query().Get("timeout"); raw != "" {
			timeout, err := time.ParseDuration(raw)
			if err != nil || timeout <= 0 {
				http.Error(w, "invalid timeout "+raw, http.StatusBadRequest)
				return
			}

			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(r.Snapshot(ctx)); err != nil {
			r.log.Warn("write snapshot", "error", err)
		}
	})
}
