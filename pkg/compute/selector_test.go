package compute

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/BitEU/linkchart/pkg/errors"
	"github.com/BitEU/linkchart/pkg/observability"
)

// faultyBackend fails the first failN calls, then delegates to scalar.
type faultyBackend struct {
	name  string
	failN int
	calls int
	inner Backend
}

func newFaulty(name string, failN int) *faultyBackend {
	return &faultyBackend{name: name, failN: failN, inner: NewScalar()}
}

func (f *faultyBackend) fail() error {
	f.calls++
	if f.calls <= f.failN {
		return errors.New(errors.ErrCodeBackendRuntime, "%s: simulated memory exhaustion", f.name)
	}
	return nil
}

func (f *faultyBackend) Name() string { return f.name }

func (f *faultyBackend) MatMul(dst, a, b []float64, m, k, n int) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.inner.MatMul(dst, a, b, m, k, n)
}

func (f *faultyBackend) Elementwise(op Op, alpha float64, dst, x, y []float64) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.inner.Elementwise(op, alpha, dst, x, y)
}

func (f *faultyBackend) DistanceBatch(dst []float64, xs, ys []float64, px, py float64, idx []int) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.inner.DistanceBatch(dst, xs, ys, px, py, idx)
}

func (f *faultyBackend) Gather(dst, src []float64, idx []int) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.inner.Gather(dst, src, idx)
}

func (f *faultyBackend) Scatter(dst, src []float64, idx []int) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.inner.Scatter(dst, src, idx)
}

type downgradeRecorder struct {
	observability.NoopSimulationHooks
	mu     sync.Mutex
	events [][2]string
}

func (r *downgradeRecorder) OnBackendDowngrade(ctx context.Context, from, to string, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, [2]string{from, to})
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// Forcing the primary backend to fail on its first call completes the
// operation on the next backend in priority order, without crashing, and
// records exactly one downgrade event.
func TestDowngradeOnFirstCallFailure(t *testing.T) {
	defer observability.Reset()
	rec := &downgradeRecorder{}
	observability.SetSimulationHooks(rec)

	primary := newFaulty("primary", 1000) // fails forever
	s := NewSelector(quietLogger(), primary, NewScalar())

	dst := make([]float64, 2)
	if err := s.DistanceBatch(dst, []float64{3, 0}, []float64{4, 0}, 0, 0, []int{0}); err != nil {
		t.Fatalf("operation should succeed on fallback: %v", err)
	}
	if dst[0] != 25 {
		t.Errorf("dst[0] = %g, want 25", dst[0])
	}

	if len(rec.events) != 1 {
		t.Fatalf("downgrade events = %d, want exactly 1", len(rec.events))
	}
	if rec.events[0] != [2]string{"primary", "scalar"} {
		t.Errorf("event = %v", rec.events[0])
	}
	if s.Active() != "scalar" {
		t.Errorf("active = %s, want scalar", s.Active())
	}
	if !s.Degraded() {
		t.Error("selector should report degraded mode on last backend")
	}
}

func TestNoRepeatDowngradeLogging(t *testing.T) {
	defer observability.Reset()
	rec := &downgradeRecorder{}
	observability.SetSimulationHooks(rec)

	s := NewSelector(quietLogger(), newFaulty("primary", 1000), NewScalar())
	dst := make([]float64, 1)
	for i := 0; i < 5; i++ {
		if err := s.Gather(dst, []float64{1}, []int{0}); err != nil {
			t.Fatal(err)
		}
	}
	// After the first downgrade, subsequent calls go straight to the
	// fallback without new events.
	if len(rec.events) != 1 {
		t.Errorf("downgrade events = %d, want 1", len(rec.events))
	}
}

func TestExhaustedChain(t *testing.T) {
	s := NewSelector(quietLogger(), newFaulty("a", 1000), newFaulty("b", 1000))
	err := s.Gather(make([]float64, 1), []float64{1}, []int{0})
	if !errors.Is(err, errors.ErrCodeBackendExhausted) {
		t.Fatalf("expected BACKEND_EXHAUSTED, got %v", err)
	}
}

func TestTransientFailureRetriesOnce(t *testing.T) {
	// The fallback succeeds immediately; the failed op is re-issued exactly
	// once after the downgrade rather than bubbling the error.
	primary := newFaulty("primary", 1)
	s := NewSelector(quietLogger(), primary, NewScalar())

	if err := s.Elementwise(OpScale, 2, make([]float64, 1), []float64{3}, nil); err != nil {
		t.Fatalf("first call should recover: %v", err)
	}
	if s.Active() != "scalar" {
		t.Errorf("active = %s after downgrade", s.Active())
	}
}

func TestSelectAlwaysReturnsABackend(t *testing.T) {
	s := Select(quietLogger())
	if s.Active() == "" {
		t.Fatal("no active backend")
	}
	// Smoke test a call through the probed chain.
	dst := make([]float64, 1)
	if err := s.Gather(dst, []float64{7}, []int{0}); err != nil {
		t.Fatal(err)
	}
	if dst[0] != 7 {
		t.Errorf("dst = %v", dst)
	}
}
