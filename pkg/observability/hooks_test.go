package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingSimHooks struct {
	NoopSimulationHooks
	ticks      int
	downgrades int
}

func (h *recordingSimHooks) OnTickComplete(ctx context.Context, n int, d time.Duration, err error) {
	h.ticks++
}

func (h *recordingSimHooks) OnBackendDowngrade(ctx context.Context, from, to string, cause error) {
	h.downgrades++
}

func TestSetAndRetrieveHooks(t *testing.T) {
	defer Reset()

	rec := &recordingSimHooks{}
	SetSimulationHooks(rec)

	Simulation().OnTickComplete(context.Background(), 10, time.Millisecond, nil)
	Simulation().OnBackendDowngrade(context.Background(), "blas", "parallel", errors.New("oom"))

	if rec.ticks != 1 {
		t.Errorf("ticks = %d, want 1", rec.ticks)
	}
	if rec.downgrades != 1 {
		t.Errorf("downgrades = %d, want 1", rec.downgrades)
	}
}

func TestSetNilKeepsCurrent(t *testing.T) {
	defer Reset()

	rec := &recordingSimHooks{}
	SetSimulationHooks(rec)
	SetSimulationHooks(nil)

	Simulation().OnTickComplete(context.Background(), 1, 0, nil)
	if rec.ticks != 1 {
		t.Error("nil registration should not replace existing hooks")
	}
}

func TestReset(t *testing.T) {
	SetSimulationHooks(&recordingSimHooks{})
	SetRenderHooks(NoopRenderHooks{})
	Reset()

	if _, ok := Simulation().(NoopSimulationHooks); !ok {
		t.Error("Reset should restore no-op simulation hooks")
	}
	if _, ok := Export().(NoopExportHooks); !ok {
		t.Error("Reset should restore no-op export hooks")
	}
}
