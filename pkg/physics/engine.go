package physics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/BitEU/linkchart/pkg/chart"
	"github.com/BitEU/linkchart/pkg/compute"
	"github.com/BitEU/linkchart/pkg/config"
	"github.com/BitEU/linkchart/pkg/errors"
	"github.com/BitEU/linkchart/pkg/observability"
)

// ===== Commands =====

type cmdKind int

const (
	cmdPin cmdKind = iota
	cmdMoveTo
	cmdUnpin
	cmdSetVisible
	cmdReload
)

type command struct {
	kind    cmdKind
	id      string
	x, y    float64
	visible []bool
	reload  *reloadPayload
}

type reloadPayload struct {
	ids  []string
	xs   []float64
	ys   []float64
	sym  []float64
	vis  []bool
	keep map[string]pinState
}

type pinState struct {
	x, y float64
}

// ===== Engine =====

// Engine runs the force simulation on its own goroutine and publishes
// immutable position snapshots. Readers never block the tick loop; callers
// steer the simulation through the command channel.
type Engine struct {
	cfg     config.Physics
	backend compute.Backend
	logger  *log.Logger

	snap atomic.Pointer[Snapshot]
	seq  atomic.Uint64

	cmds chan command
	done chan struct{}

	st *state

	mu   sync.Mutex
	pins map[string]pinState
}

// NewEngine builds an engine over the chart's current adjacency and
// positions. The backend is typically a compute.Selector so tick failures
// downgrade transparently.
func NewEngine(ch *chart.Chart, backend compute.Backend, cfg config.Physics, logger *log.Logger) (*Engine, error) {
	e := &Engine{
		cfg:     cfg,
		backend: backend,
		logger:  logger,
		cmds:    make(chan command, 64),
		done:    make(chan struct{}),
		pins:    make(map[string]pinState),
	}
	payload, err := snapshotChart(ch)
	if err != nil {
		return nil, err
	}
	if err := e.install(payload); err != nil {
		return nil, err
	}
	e.publish()
	return e, nil
}

func snapshotChart(ch *chart.Chart) (*reloadPayload, error) {
	adj := ch.Adjacency()
	ids := adj.IDs()
	xs := make([]float64, len(ids))
	ys := make([]float64, len(ids))
	for i, id := range ids {
		p := ch.Person(id)
		if p == nil {
			return nil, errors.New(errors.ErrCodeInternal, "adjacency references unknown person %q", id)
		}
		xs[i] = p.X
		ys[i] = p.Y
	}
	return &reloadPayload{ids: ids, xs: xs, ys: ys, sym: adj.Symmetrized(), vis: ch.Visible().Nodes}, nil
}

func (e *Engine) install(p *reloadPayload) error {
	st := newState(p.ids, p.xs, p.ys)
	if len(p.vis) == st.n {
		copy(st.visible, p.vis)
	}
	if len(p.sym) > 0 {
		if err := st.setWeights(p.sym, e.backend); err != nil {
			return err
		}
	}
	// A pin held across a reload keeps its node under the cursor even
	// though indices may have shifted.
	for id, pin := range p.keep {
		if i, ok := indexOf(st.ids, id); ok {
			st.pinned[i] = true
			st.pinX[i] = pin.x
			st.pinY[i] = pin.y
			st.x[i] = pin.x
			st.y[i] = pin.y
		}
	}
	e.st = st
	return nil
}

func indexOf(ids []string, id string) (int, bool) {
	for i, v := range ids {
		if v == id {
			return i, true
		}
	}
	return 0, false
}

// Run drives the tick loop until ctx is cancelled. It blocks; callers run
// it on a dedicated goroutine.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	interval := time.Second / time.Duration(e.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.drain()
			e.step(ctx)
		}
	}
}

// Done is closed once Run has returned.
func (e *Engine) Done() <-chan struct{} { return e.done }

func (e *Engine) drain() {
	for {
		select {
		case c := <-e.cmds:
			e.apply(c)
		default:
			return
		}
	}
}

func (e *Engine) apply(c command) {
	st := e.st
	switch c.kind {
	case cmdPin, cmdMoveTo:
		if i, ok := indexOf(st.ids, c.id); ok {
			st.pinned[i] = true
			st.pinX[i] = c.x
			st.pinY[i] = c.y
			st.x[i] = c.x
			st.y[i] = c.y
			st.vx[i] = 0
			st.vy[i] = 0
		}
	case cmdUnpin:
		if i, ok := indexOf(st.ids, c.id); ok {
			st.pinned[i] = false
		}
	case cmdSetVisible:
		if len(c.visible) != st.n {
			e.logger.Warn("visibility mask length mismatch", "want", st.n, "got", len(c.visible))
			return
		}
		copy(st.visible, c.visible)
		if err := st.remask(e.backend); err != nil {
			e.logger.Error("visibility remask failed", "error", err)
		}
	case cmdReload:
		if err := e.install(c.reload); err != nil {
			e.logger.Error("reload failed, keeping previous state", "error", err)
		}
	}
}

func (e *Engine) step(ctx context.Context) {
	start := time.Now()
	observability.Simulation().OnTickStart(ctx, e.st.n)

	err := e.st.tick(e.backend, e.cfg)
	if err != nil {
		// A failed tick discards its partial work; the previous positions
		// remain the published state.
		e.logger.Error("tick failed", "error", err)
		observability.Simulation().OnTickComplete(ctx, e.st.n, time.Since(start), err)
		return
	}
	e.publish()
	observability.Simulation().OnTickComplete(ctx, e.st.n, time.Since(start), nil)
}

func (e *Engine) publish() {
	st := e.st
	snap := &Snapshot{
		Seq:     e.seq.Add(1),
		At:      time.Now(),
		IDs:     append([]string(nil), st.ids...),
		X:       append([]float64(nil), st.x...),
		Y:       append([]float64(nil), st.y...),
		Visible: append([]bool(nil), st.visible...),
		Backend: e.backend.Name(),
	}
	e.snap.Store(snap)
}

// Snapshot returns the most recently published state. Never nil after
// NewEngine succeeds.
func (e *Engine) Snapshot() *Snapshot { return e.snap.Load() }

// ===== Steering =====

// Pin freezes a node at the given position until Unpin. Used by the drag
// state machine: a pinned node ignores simulation forces.
func (e *Engine) Pin(id string, x, y float64) {
	e.recordPin(id, x, y)
	e.send(command{kind: cmdPin, id: id, x: x, y: y})
}

// MoveTo repositions an already pinned node. Same effect as Pin; kept
// separate for readable call sites.
func (e *Engine) MoveTo(id string, x, y float64) {
	e.recordPin(id, x, y)
	e.send(command{kind: cmdMoveTo, id: id, x: x, y: y})
}

// Unpin releases a node back to the simulation at its current position.
func (e *Engine) Unpin(id string) {
	e.mu.Lock()
	delete(e.pins, id)
	e.mu.Unlock()
	e.send(command{kind: cmdUnpin, id: id})
}

func (e *Engine) recordPin(id string, x, y float64) {
	e.mu.Lock()
	e.pins[id] = pinState{x: x, y: y}
	e.mu.Unlock()
}

// SetVisible replaces the visibility mask. The mask is indexed like the
// snapshot's IDs.
func (e *Engine) SetVisible(mask []bool) {
	e.send(command{kind: cmdSetVisible, visible: append([]bool(nil), mask...)})
}

// Reload swaps in a rebuilt chart, carrying active pins across so an
// in-flight drag survives structural edits.
func (e *Engine) Reload(ch *chart.Chart) error {
	payload, err := snapshotChart(ch)
	if err != nil {
		return err
	}
	payload.keep = e.activePins()
	e.send(command{kind: cmdReload, reload: payload})
	return nil
}

func (e *Engine) activePins() map[string]pinState {
	e.mu.Lock()
	defer e.mu.Unlock()
	pins := make(map[string]pinState, len(e.pins))
	for id, p := range e.pins {
		pins[id] = p
	}
	return pins
}

func (e *Engine) send(c command) {
	select {
	case e.cmds <- c:
	default:
		e.logger.Warn("command queue full, dropping instruction")
	}
}

// StepOnce advances the simulation synchronously. Intended for headless
// layout (CLI) and tests where no tick goroutine is running.
func (e *Engine) StepOnce(ctx context.Context) error {
	e.drain()
	start := time.Now()
	observability.Simulation().OnTickStart(ctx, e.st.n)
	err := e.st.tick(e.backend, e.cfg)
	observability.Simulation().OnTickComplete(ctx, e.st.n, time.Since(start), err)
	if err != nil {
		return err
	}
	e.publish()
	return nil
}

// Settle runs ticks until velocities drop under the threshold or maxTicks
// elapse. Returns the number of ticks run.
func (e *Engine) Settle(ctx context.Context, maxTicks int, threshold float64) (int, error) {
	for t := 0; t < maxTicks; t++ {
		if err := ctx.Err(); err != nil {
			return t, errors.Wrap(errors.ErrCodeInternal, err, "layout interrupted after %d ticks", t)
		}
		if err := e.StepOnce(ctx); err != nil {
			return t, err
		}
		if e.quiet(threshold) {
			return t + 1, nil
		}
	}
	return maxTicks, nil
}

func (e *Engine) quiet(threshold float64) bool {
	st := e.st
	for i := 0; i < st.n; i++ {
		if !st.visible[i] || st.pinned[i] {
			continue
		}
		if st.vx[i]*st.vx[i]+st.vy[i]*st.vy[i] > threshold*threshold {
			return false
		}
	}
	return true
}
