package interact

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/BitEU/linkchart/pkg/chart"
	"github.com/BitEU/linkchart/pkg/config"
	"github.com/BitEU/linkchart/pkg/physics"
)

// Simulator is the slice of the physics engine the controller steers.
type Simulator interface {
	Snapshot() *physics.Snapshot
	Pin(id string, x, y float64)
	MoveTo(id string, x, y float64)
	Unpin(id string)
	SetVisible(mask []bool)
}

// Redrawer receives redraw requests. Satisfied by the render scheduler.
type Redrawer interface {
	Request()
}

// DragSession identifies one grab-move-release interaction.
type DragSession struct {
	ID     string
	NodeID string
	// grab offset keeps the card from snapping its centre to the cursor
	GrabDX float64
	GrabDY float64
	Start  time.Time
}

type dragPhase int

const (
	phaseIdle dragPhase = iota
	phaseDragging
)

// Controller owns pointer interaction state. One controller per chart
// window; all methods are called from the UI event goroutine, with internal
// locking so metrics readers can inspect state concurrently.
type Controller struct {
	sim      Simulator
	redraw   Redrawer
	viewport *Viewport
	index    *Index
	logger   *log.Logger

	canvasW float64
	canvasH float64

	// minimum spacing between forwarded move instructions
	moveInterval time.Duration

	mu       sync.Mutex
	phase    dragPhase
	session  *DragSession
	lastMove time.Time
	pendX    float64
	pendY    float64
	pending  bool
}

// NewController wires the controller to a simulator and redraw sink.
func NewController(sim Simulator, redraw Redrawer, vp *Viewport, cfg config.Physics, rcfg config.Render, logger *log.Logger) *Controller {
	c := &Controller{
		sim:          sim,
		redraw:       redraw,
		viewport:     vp,
		index:        NewIndex(),
		logger:       logger,
		canvasW:      cfg.CanvasWidth,
		canvasH:      cfg.CanvasHeight,
		moveInterval: time.Second / time.Duration(rcfg.FrameRateCeiling),
	}
	vp.OnZoomApplied(redraw.Request)
	return c
}

// Session returns the active drag session, or nil when idle.
func (c *Controller) Session() *DragSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// MouseDown starts a drag if the screen point lands on a card. Returns the
// grabbed node id, or "" when the press hit empty canvas.
func (c *Controller) MouseDown(sx, sy float64) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == phaseDragging {
		// A second press during a drag is a stray event; ignore it rather
		// than abandoning the live session.
		return ""
	}

	cx, cy := c.viewport.ToCanvas(sx, sy)
	snap := c.sim.Snapshot()
	id := c.index.Lookup(snap, cx, cy)
	if id == "" {
		return ""
	}

	nx, ny, _ := snap.Position(id)
	c.phase = phaseDragging
	c.session = &DragSession{
		ID:     uuid.NewString(),
		NodeID: id,
		GrabDX: nx - cx,
		GrabDY: ny - cy,
		Start:  time.Now(),
	}
	c.pending = false
	c.lastMove = time.Time{}

	c.sim.Pin(id, nx, ny)
	c.logger.Debug("drag started", "session", c.session.ID, "node", id)
	return id
}

// MouseMove advances an active drag. Move instructions are forwarded at
// most once per frame interval; intermediate positions within the interval
// collapse to the latest one. Outside a drag it is a no-op.
func (c *Controller) MouseMove(sx, sy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != phaseDragging {
		return
	}

	cx, cy := c.viewport.ToCanvas(sx, sy)
	x := clampRange(cx+c.session.GrabDX, 0, c.canvasW)
	y := clampRange(cy+c.session.GrabDY, 0, c.canvasH)

	now := time.Now()
	if now.Sub(c.lastMove) < c.moveInterval {
		c.pendX = x
		c.pendY = y
		c.pending = true
		return
	}
	c.lastMove = now
	c.pending = false
	c.sim.MoveTo(c.session.NodeID, x, y)
	c.redraw.Request()
}

// MouseUp ends the drag, flushing any coalesced position so the node is
// released exactly where the cursor last was.
func (c *Controller) MouseUp() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != phaseDragging {
		return
	}
	if c.pending {
		c.sim.MoveTo(c.session.NodeID, c.pendX, c.pendY)
		c.pending = false
	}
	c.sim.Unpin(c.session.NodeID)
	c.logger.Debug("drag finished", "session", c.session.ID,
		"duration", time.Since(c.session.Start))
	c.phase = phaseIdle
	c.session = nil
	c.redraw.Request()
}

// CancelDrag aborts an in-flight drag without flushing pending moves, for
// example when the window loses focus mid-gesture.
func (c *Controller) CancelDrag() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != phaseDragging {
		return
	}
	c.sim.Unpin(c.session.NodeID)
	c.phase = phaseIdle
	c.session = nil
	c.pending = false
	c.redraw.Request()
}

// ApplyFilter installs a new filter on the chart, propagates the resulting
// visibility mask to the simulation, and requests a single redraw no matter
// how many nodes changed visibility.
func (c *Controller) ApplyFilter(ch *chart.Chart, f chart.FilterState) {
	ch.SetFilter(f)
	vis := ch.Visible()

	snap := c.sim.Snapshot()
	adj := ch.Adjacency()
	mask := make([]bool, snap.Len())
	for i, id := range snap.IDs {
		if j, ok := adj.Index(id); ok {
			mask[i] = vis.Nodes[j]
		}
	}
	c.sim.SetVisible(mask)
	c.redraw.Request()
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
