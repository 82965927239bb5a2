package interact

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/BitEU/linkchart/pkg/physics"
)

func TestViewportRoundTrip(t *testing.T) {
	vp := NewViewport()
	vp.Pan(120, -40)

	cx, cy := vp.ToCanvas(500, 300)
	sx, sy := vp.ToScreen(cx, cy)
	if sx != 500 || sy != 300 {
		t.Errorf("round trip = (%.2f, %.2f), want (500, 300)", sx, sy)
	}
}

func TestZoomBurstAppliesOnce(t *testing.T) {
	vp := NewViewport()
	var applied atomic.Int32
	vp.OnZoomApplied(func() { applied.Add(1) })

	for i := 0; i < 8; i++ {
		vp.RequestZoom(1.1, 400, 300)
	}

	deadline := time.After(time.Second)
	for applied.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("debounced zoom never applied")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	time.Sleep(3 * zoomSettleDelay)
	if n := applied.Load(); n != 1 {
		t.Errorf("burst of 8 wheel steps applied %d times, want 1", n)
	}

	want := 1.0
	for i := 0; i < 8; i++ {
		want *= 1.1
	}
	if got := vp.Zoom(); got < want-1e-9 || got > want+1e-9 {
		t.Errorf("zoom = %.6f, want %.6f", got, want)
	}
}

func TestZoomClampedToRange(t *testing.T) {
	vp := NewViewport()
	for i := 0; i < 100; i++ {
		vp.RequestZoom(2.0, 0, 0)
	}
	time.Sleep(3 * zoomSettleDelay)
	if got := vp.Zoom(); got != maxZoom {
		t.Errorf("zoom = %.2f, want clamp at %.2f", got, maxZoom)
	}

	for i := 0; i < 100; i++ {
		vp.RequestZoom(0.5, 0, 0)
	}
	time.Sleep(3 * zoomSettleDelay)
	if got := vp.Zoom(); got != minZoom {
		t.Errorf("zoom = %.2f, want clamp at %.2f", got, minZoom)
	}
}

func TestZoomKeepsAnchorFixed(t *testing.T) {
	vp := NewViewport()
	ax, ay := 640.0, 360.0
	beforeX, beforeY := vp.ToCanvas(ax, ay)

	vp.RequestZoom(1.5, ax, ay)
	time.Sleep(3 * zoomSettleDelay)

	afterX, afterY := vp.ToCanvas(ax, ay)
	if diff := abs(afterX-beforeX) + abs(afterY-beforeY); diff > 1e-9 {
		t.Errorf("anchor drifted by %.6f canvas units", diff)
	}
}

func TestZoomBurstAnchorsAtFirstEvent(t *testing.T) {
	vp := NewViewport()
	ax, ay := 100.0, 100.0
	beforeX, beforeY := vp.ToCanvas(ax, ay)

	// Later steps in the burst arrive at a different screen point; the
	// first one still decides the anchor.
	vp.RequestZoom(1.25, ax, ay)
	vp.RequestZoom(1.25, 500, 400)
	vp.RequestZoom(1.25, 520, 410)
	time.Sleep(3 * zoomSettleDelay)

	afterX, afterY := vp.ToCanvas(ax, ay)
	if diff := abs(afterX-beforeX) + abs(afterY-beforeY); diff > 1e-9 {
		t.Errorf("first-event anchor drifted by %.6f canvas units", diff)
	}
}

func TestNewBurstReanchors(t *testing.T) {
	vp := NewViewport()

	vp.RequestZoom(1.5, 100, 100)
	time.Sleep(3 * zoomSettleDelay)

	ax, ay := 800.0, 600.0
	beforeX, beforeY := vp.ToCanvas(ax, ay)
	vp.RequestZoom(1.5, ax, ay)
	time.Sleep(3 * zoomSettleDelay)

	afterX, afterY := vp.ToCanvas(ax, ay)
	if diff := abs(afterX-beforeX) + abs(afterY-beforeY); diff > 1e-9 {
		t.Errorf("second-burst anchor drifted by %.6f canvas units", diff)
	}
}

func TestHitTestPrefersTopmostCard(t *testing.T) {
	snap := snapWith(
		[]string{"under", "over"},
		[]float64{500, 510},
		[]float64{400, 405},
	)
	ix := NewIndex()
	if id := ix.Lookup(snap, 505, 402); id != "over" {
		t.Errorf("overlapping lookup = %q, want %q", id, "over")
	}
}

func TestHitTestSkipsHiddenCards(t *testing.T) {
	snap := snapWith([]string{"a"}, []float64{500}, []float64{400})
	snap.Visible[0] = false

	ix := NewIndex()
	if id := ix.Lookup(snap, 500, 400); id != "" {
		t.Errorf("hidden card hit: %q", id)
	}
}

func TestHitTestReindexesOnNewSnapshot(t *testing.T) {
	ix := NewIndex()
	first := snapWith([]string{"a"}, []float64{500}, []float64{400})
	if id := ix.Lookup(first, 500, 400); id != "a" {
		t.Fatalf("lookup = %q, want a", id)
	}

	second := &physics.Snapshot{
		Seq:     2,
		IDs:     []string{"a"},
		X:       []float64{1200},
		Y:       []float64{900},
		Visible: []bool{true},
	}
	if id := ix.Lookup(second, 500, 400); id != "" {
		t.Error("stale index answered for moved node")
	}
	if id := ix.Lookup(second, 1200, 900); id != "a" {
		t.Errorf("lookup at new position = %q, want a", id)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
