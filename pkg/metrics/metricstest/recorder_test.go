package metricstest

import (
	"context"
	"errors"
	"testing"

	"github.com/vnykmshr/allocmetrics/internal/testutil"
	amerrors "github.com/vnykmshr/allocmetrics/pkg/common/errors"
	"github.com/vnykmshr/allocmetrics/pkg/metrics"
)

func TestRecordingRegistryContract(t *testing.T) {
	r := NewRecordingRegistry()
	g := metrics.NewPushGauge("roles/eng/suppressed")

	testutil.AssertNoError(t, r.Add(g))
	testutil.AssertEqual(t, errors.Is(r.Add(metrics.NewPushGauge(g.Name())), amerrors.ErrDuplicateMetric), true)

	// Same name, different object.
	testutil.AssertEqual(t, errors.Is(r.Remove(metrics.NewPushGauge(g.Name())), amerrors.ErrUnknownMetric), true)

	testutil.AssertNoError(t, r.Remove(g))
	testutil.AssertEqual(t, errors.Is(r.Remove(g), amerrors.ErrUnknownMetric), true)
	testutil.AssertEqual(t, r.Len(), 0)
	testutil.AssertEqual(t, len(r.Calls()), 5)
}

func TestRecordingRegistryUnbalanced(t *testing.T) {
	r := NewRecordingRegistry()
	a := metrics.NewCounter("a")
	b := metrics.NewCounter("b")

	testutil.AssertNoError(t, r.Add(a))
	testutil.AssertNoError(t, r.Add(b))
	testutil.AssertNoError(t, r.Remove(a))

	unbalanced := r.Unbalanced()
	testutil.AssertEqual(t, len(unbalanced), 1)
	testutil.AssertEqual(t, unbalanced["b"], "added 1, removed 0")

	testutil.AssertNoError(t, r.Remove(b))
	testutil.AssertEqual(t, len(r.Unbalanced()), 0)
}

func TestRecordingRegistryValue(t *testing.T) {
	r := NewRecordingRegistry()
	g := metrics.NewPullGauge("quota/guarantee", metrics.Constant(8))
	testutil.AssertNoError(t, r.Add(g))

	v, err := r.Value(context.Background(), g.Name())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 8.0)

	_, err = r.Value(context.Background(), "missing")
	testutil.AssertEqual(t, errors.Is(err, amerrors.ErrUnknownMetric), true)
	testutil.AssertEqual(t, r.Names()[0], "quota/guarantee")
}
