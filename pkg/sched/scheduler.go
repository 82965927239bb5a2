package sched

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/BitEU/linkchart/pkg/config"
	"github.com/BitEU/linkchart/pkg/observability"
)

// FrameFunc renders one frame. It runs on the scheduler goroutine.
type FrameFunc func(ctx context.Context) error

// Scheduler coalesces redraw requests trailing-edge: a burst of requests
// while a frame is rendering produces exactly one follow-up frame, drawn
// from the latest state. When requests keep arriving, frames are paced at
// the configured ceiling; a lone request after quiet renders immediately.
type Scheduler struct {
	frame    FrameFunc
	interval time.Duration
	logger   *log.Logger

	trigger chan struct{}
	done    chan struct{}

	frames    atomic.Uint64
	coalesced atomic.Uint64
	lastNanos atomic.Int64
}

// New builds a scheduler around the given frame function.
func New(frame FrameFunc, cfg config.Render, logger *log.Logger) *Scheduler {
	return &Scheduler{
		frame:    frame,
		interval: time.Second / time.Duration(cfg.FrameRateCeiling),
		logger:   logger,
		trigger:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Request asks for a redraw. Safe from any goroutine; never blocks. A
// request that lands while one is already pending is absorbed into it.
func (s *Scheduler) Request() {
	select {
	case s.trigger <- struct{}{}:
	default:
		s.coalesced.Add(1)
		observability.Render().OnFrameCoalesced(context.Background(), "redraw")
	}
}

// Run consumes requests until ctx is cancelled. Blocks; callers run it on
// a dedicated goroutine.
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.done)
	var lastStart time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.trigger:
		}

		// The ceiling applies only under sustained load: back-to-back
		// frames are spaced an interval apart, but a request arriving
		// after idle time renders with no delay.
		if wait := s.interval - time.Since(lastStart); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		lastStart = time.Now()
		err := s.frame(ctx)
		elapsed := time.Since(lastStart)
		s.lastNanos.Store(int64(elapsed))
		s.frames.Add(1)
		observability.Render().OnFrameComplete(ctx, elapsed)
		if err != nil {
			s.logger.Error("frame render failed", "error", err)
		}
	}
}

// Done is closed once Run has returned.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// Frames returns the number of frames rendered so far.
func (s *Scheduler) Frames() uint64 { return s.frames.Load() }

// Coalesced returns the number of requests absorbed into a pending frame.
func (s *Scheduler) Coalesced() uint64 { return s.coalesced.Load() }

// LastFrame returns the duration of the most recent frame.
func (s *Scheduler) LastFrame() time.Duration {
	return time.Duration(s.lastNanos.Load())
}
