package sched

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/BitEU/linkchart/pkg/config"
)

func testLogger() *log.Logger {
	logger := log.New(nil)
	logger.SetLevel(log.FatalLevel)
	return logger
}

func waitFrames(t *testing.T, count *atomic.Int32, want int32, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for count.Load() < want {
		select {
		case <-deadline:
			t.Fatalf("rendered %d frames, want at least %d", count.Load(), want)
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestBurstOfRequestsRendersOnce(t *testing.T) {
	var frames atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	s := New(func(ctx context.Context) error {
		if frames.Add(1) == 1 {
			close(started)
			<-release
		}
		return nil
	}, config.Default().Render, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	s.Request()
	<-started

	// Ten requests while the first frame is mid-render.
	for i := 0; i < 10; i++ {
		s.Request()
	}
	close(release)

	waitFrames(t, &frames, 2, 2*time.Second)
	time.Sleep(3 * s.interval)
	if n := frames.Load(); n != 2 {
		t.Errorf("burst during render produced %d frames, want 2", n)
	}
	if c := s.Coalesced(); c != 9 {
		t.Errorf("coalesced = %d, want 9", c)
	}
}

func TestIdleRequestRendersImmediately(t *testing.T) {
	var frames atomic.Int32
	s := New(func(ctx context.Context) error {
		frames.Add(1)
		return nil
	}, config.Default().Render, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	start := time.Now()
	s.Request()
	waitFrames(t, &frames, 1, time.Second)
	if elapsed := time.Since(start); elapsed > s.interval {
		t.Errorf("idle request took %v, want well under the %v ceiling", elapsed, s.interval)
	}
}

func TestSustainedLoadIsPaced(t *testing.T) {
	var frames atomic.Int32
	s := New(func(ctx context.Context) error {
		frames.Add(1)
		return nil
	}, config.Default().Render, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	stop := time.After(5 * s.interval)
	for running := true; running; {
		select {
		case <-stop:
			running = false
		default:
			s.Request()
			time.Sleep(time.Millisecond)
		}
	}

	// Five intervals of continuous requests admit at most six frames.
	if n := frames.Load(); n > 6 {
		t.Errorf("sustained load rendered %d frames in 5 intervals, ceiling allows 6", n)
	}
}

func TestRequestNeverBlocks(t *testing.T) {
	s := New(func(ctx context.Context) error { return nil }, config.Default().Render, testLogger())
	// No Run loop consuming; every request past the first must coalesce
	// without blocking the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			s.Request()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Request blocked")
	}
	if c := s.Coalesced(); c != 999 {
		t.Errorf("coalesced = %d, want 999", c)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(func(ctx context.Context) error { return nil }, config.Default().Render, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Run(ctx) }()
	cancel()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestMetricsRollingFPS(t *testing.T) {
	m := NewMetrics()
	if m.FPS() != 0 {
		t.Error("empty window should report 0 FPS")
	}

	base := time.Now()
	for i := 0; i < 11; i++ {
		m.RecordFrame(base.Add(time.Duration(i) * 100 * time.Millisecond))
	}
	fps := m.FPS()
	if fps < 9.9 || fps > 10.1 {
		t.Errorf("FPS = %.2f, want ~10", fps)
	}
}

func TestMetricsWindowBounded(t *testing.T) {
	m := NewMetrics()
	base := time.Now()
	for i := 0; i < metricsWindow*3; i++ {
		m.RecordFrame(base.Add(time.Duration(i) * time.Millisecond))
	}
	m.mu.Lock()
	n := len(m.stamps)
	m.mu.Unlock()
	if n != metricsWindow {
		t.Errorf("window holds %d stamps, want %d", n, metricsWindow)
	}
}
