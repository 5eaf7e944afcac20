package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vnykmshr/allocmetrics/internal/testutil"
)

func TestSnapshotHandler(t *testing.T) {
	reg := NewRegistry(Config{Logger: testutil.DiscardLogger()})

	runs := NewCounter("allocator/mesos/allocation_runs")
	runs.Add(2)
	testutil.AssertNoError(t, reg.Add(runs))
	testutil.AssertNoError(t, reg.Add(NewPullGauge("allocator/mesos/resources/cpus/total", Constant(16))))

	handler := SnapshotHandler(reg)

	t.Run("get", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics/snapshot", nil))

		testutil.AssertEqual(t, rec.Code, http.StatusOK)
		testutil.AssertEqual(t, rec.Header().Get("Content-Type"), "application/json")

		var body map[string]float64
		testutil.AssertNoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		testutil.AssertEqual(t, body["allocator/mesos/allocation_runs"], 2.0)
		testutil.AssertEqual(t, body["allocator/mesos/resources/cpus/total"], 16.0)
	})

	t.Run("timeout", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics/snapshot?timeout=250ms", nil))
		testutil.AssertEqual(t, rec.Code, http.StatusOK)
	})

	t.Run("invalid timeout", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics/snapshot?timeout=soon", nil))
		testutil.AssertEqual(t, rec.Code, http.StatusBadRequest)
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/metrics/snapshot", nil))
		testutil.AssertEqual(t, rec.Code, http.StatusMethodNotAllowed)
		testutil.AssertEqual(t, rec.Header().Get("Allow"), "GET, HEAD")
	})
}
