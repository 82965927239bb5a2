package interact

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

const (
	minZoom = 0.2
	maxZoom = 5.0

	// zoomSettleDelay batches a burst of wheel events into one rescale.
	zoomSettleDelay = 50 * time.Millisecond
)

// Viewport maps between screen coordinates and the fixed canvas space the
// simulation runs in. Zoom and pan never change canvas positions; they only
// change how the canvas is projected.
type Viewport struct {
	mu      sync.Mutex
	zoom    float64
	offsetX float64
	offsetY float64

	pending  float64
	anchored bool
	anchorX  float64
	anchorY  float64
	debounce func(func())
	applied  func()
}

// NewViewport starts at 1:1 with no offset.
func NewViewport() *Viewport {
	return &Viewport{
		zoom:     1,
		pending:  1,
		debounce: debounce.New(zoomSettleDelay),
	}
}

// Zoom returns the current scale factor.
func (v *Viewport) Zoom() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom
}

// ToCanvas converts a screen point to canvas space under the current
// transform.
func (v *Viewport) ToCanvas(sx, sy float64) (float64, float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return (sx - v.offsetX) / v.zoom, (sy - v.offsetY) / v.zoom
}

// ToScreen converts a canvas point to screen space.
func (v *Viewport) ToScreen(cx, cy float64) (float64, float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return cx*v.zoom + v.offsetX, cy*v.zoom + v.offsetY
}

// Pan shifts the projection by a screen-space delta.
func (v *Viewport) Pan(dx, dy float64) {
	v.mu.Lock()
	v.offsetX += dx
	v.offsetY += dy
	v.mu.Unlock()
}

// RequestZoom accumulates a zoom step anchored at a screen point. Rapid
// successive steps are debounced: only the final accumulated factor is
// applied, once the wheel goes quiet. The anchor is the screen point of
// the first step in the burst.
func (v *Viewport) RequestZoom(factor, sx, sy float64) {
	v.mu.Lock()
	v.pending = clampZoom(v.pending * factor)
	if !v.anchored {
		v.anchorX = sx
		v.anchorY = sy
		v.anchored = true
	}
	v.mu.Unlock()
	v.debounce(v.applyPending)
}

// OnZoomApplied registers a callback fired after a debounced zoom lands.
// The render scheduler hooks in here to request a redraw.
func (v *Viewport) OnZoomApplied(fn func()) {
	v.mu.Lock()
	v.applied = fn
	v.mu.Unlock()
}

func (v *Viewport) applyPending() {
	v.mu.Lock()
	target := v.pending
	v.anchored = false
	if target == v.zoom {
		v.mu.Unlock()
		return
	}
	// Keep the canvas point under the anchor fixed while rescaling.
	cx := (v.anchorX - v.offsetX) / v.zoom
	cy := (v.anchorY - v.offsetY) / v.zoom
	v.zoom = target
	v.offsetX = v.anchorX - cx*v.zoom
	v.offsetY = v.anchorY - cy*v.zoom
	fn := v.applied
	v.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func clampZoom(z float64) float64 {
	if z < minZoom {
		return minZoom
	}
	if z > maxZoom {
		return maxZoom
	}
	return z
}
