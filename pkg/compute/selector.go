package compute

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/BitEU/linkchart/pkg/errors"
	"github.com/BitEU/linkchart/pkg/observability"
)

// Probe describes one backend candidate in priority order.
type Probe struct {
	Name      string
	Available func() bool
	New       func() Backend
}

// DefaultProbes returns the built-in probe chain, highest priority first.
func DefaultProbes() []Probe {
	return []Probe{
		{Name: "blas", Available: blasAvailable, New: NewBLAS},
		{Name: "parallel", Available: parallelAvailable, New: NewParallel},
		{Name: "scalar", Available: func() bool { return true }, New: NewScalar},
	}
}

// Selector wraps a priority chain of backends behind the [Backend]
// interface. When a call on the active backend fails at runtime, the
// selector downgrades one level, logs the transition, and re-issues the
// failed operation once. It never panics into the caller's loop.
type Selector struct {
	mu     sync.Mutex
	chain  []Backend
	active int
	logger *log.Logger
}

// Select probes the default chain and returns a selector over the available
// backends. Unavailable backends are skipped with a debug log entry;
// skipping is never fatal. The scalar backend guarantees a non-empty chain.
func Select(logger *log.Logger) *Selector {
	return SelectFrom(logger, DefaultProbes())
}

// SelectFrom probes an explicit chain. Used by tests to inject failing
// backends; production callers want [Select].
func SelectFrom(logger *log.Logger, probes []Probe) *Selector {
	if logger == nil {
		logger = log.Default()
	}
	s := &Selector{logger: logger}
	for _, p := range probes {
		if !p.Available() {
			logger.Debug("compute backend unavailable, skipping", "backend", p.Name)
			continue
		}
		s.chain = append(s.chain, p.New())
	}
	if len(s.chain) == 0 {
		// Defensive only: the scalar probe is unconditional in practice.
		s.chain = []Backend{NewScalar()}
	}
	logger.Info("compute backend selected", "backend", s.chain[0].Name(), "chain", len(s.chain))
	return s
}

// NewSelector builds a selector over an explicit backend chain, highest
// priority first.
func NewSelector(logger *log.Logger, backends ...Backend) *Selector {
	if logger == nil {
		logger = log.Default()
	}
	if len(backends) == 0 {
		backends = []Backend{NewScalar()}
	}
	return &Selector{logger: logger, chain: backends}
}

// Active returns the name of the backend currently serving operations.
func (s *Selector) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chain[s.active].Name()
}

// Degraded reports whether the selector has fallen through to the last
// backend in the chain (CPU-only degraded mode).
func (s *Selector) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active == len(s.chain)-1 && len(s.chain) > 1
}

// do runs op on the active backend, downgrading and retrying once per level
// on failure. Exactly one downgrade event is logged per transition.
func (s *Selector) do(op func(Backend) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		b := s.chain[s.active]
		err := op(b)
		if err == nil {
			return nil
		}
		if s.active == len(s.chain)-1 {
			return errors.Wrap(errors.ErrCodeBackendExhausted, err,
				"all compute backends failed, last was %s", b.Name())
		}
		next := s.chain[s.active+1]
		s.logger.Warn("compute backend failed, downgrading",
			"from", b.Name(), "to", next.Name(), "error", err)
		observability.Simulation().OnBackendDowngrade(context.Background(), b.Name(), next.Name(), err)
		s.active++
	}
}

// Name implements Backend. It reports the active provider so metrics
// surfaces always show the backend actually doing the work.
func (s *Selector) Name() string { return s.Active() }

// MatMul implements Backend with downgrade-and-retry semantics.
func (s *Selector) MatMul(dst, a, b []float64, m, k, n int) error {
	return s.do(func(be Backend) error { return be.MatMul(dst, a, b, m, k, n) })
}

// Elementwise implements Backend with downgrade-and-retry semantics.
func (s *Selector) Elementwise(op Op, alpha float64, dst, x, y []float64) error {
	return s.do(func(be Backend) error { return be.Elementwise(op, alpha, dst, x, y) })
}

// DistanceBatch implements Backend with downgrade-and-retry semantics.
func (s *Selector) DistanceBatch(dst []float64, xs, ys []float64, px, py float64, idx []int) error {
	return s.do(func(be Backend) error { return be.DistanceBatch(dst, xs, ys, px, py, idx) })
}

// Gather implements Backend with downgrade-and-retry semantics.
func (s *Selector) Gather(dst, src []float64, idx []int) error {
	return s.do(func(be Backend) error { return be.Gather(dst, src, idx) })
}

// Scatter implements Backend with downgrade-and-retry semantics.
func (s *Selector) Scatter(dst, src []float64, idx []int) error {
	return s.do(func(be Backend) error { return be.Scatter(dst, src, idx) })
}

// Ensure Selector satisfies the capability interface.
var _ Backend = (*Selector)(nil)
