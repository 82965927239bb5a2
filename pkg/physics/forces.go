package physics

import (
	"math"

	"github.com/BitEU/linkchart/pkg/compute"
	"github.com/BitEU/linkchart/pkg/config"
)

// minSeparationSq bounds the inverse-square denominator so coincident nodes
// don't produce infinite repulsion.
const minSeparationSq = 1.0

// state holds the simulation buffers. All mutation happens in the physics
// domain; ticks compute into the next* buffers and swap only on success, so
// a failed tick leaves the last stable state untouched.
type state struct {
	n   int
	ids []string

	x, y   []float64
	vx, vy []float64

	nextX, nextY   []float64
	nextVX, nextVY []float64

	visible []bool
	pinned  []bool
	pinX    []float64
	pinY    []float64

	// sym is the symmetrized adjacency (W + Wᵀ) masked by visibility; deg
	// is its row sums. Recomputed on structural and filter changes only.
	sym []float64
	deg []float64

	// scratch
	fx, fy   []float64
	ones     []float64
	distSq   []float64
	neighbor []int
}

func newState(ids []string, xs, ys []float64) *state {
	n := len(ids)
	st := &state{
		n:   n,
		ids: append([]string(nil), ids...),

		x: append([]float64(nil), xs...),
		y: append([]float64(nil), ys...),

		vx: make([]float64, n),
		vy: make([]float64, n),

		nextX:  make([]float64, n),
		nextY:  make([]float64, n),
		nextVX: make([]float64, n),
		nextVY: make([]float64, n),

		visible: make([]bool, n),
		pinned:  make([]bool, n),
		pinX:    make([]float64, n),
		pinY:    make([]float64, n),

		deg: make([]float64, n),

		fx:   make([]float64, n),
		fy:   make([]float64, n),
		ones: make([]float64, n),
	}
	for i := range st.visible {
		st.visible[i] = true
		st.ones[i] = 1
	}
	return st
}

// setWeights installs the symmetrized adjacency and recomputes the masked
// matrix and row sums for the current visibility.
func (st *state) setWeights(sym []float64, backend compute.Backend) error {
	st.sym = append([]float64(nil), sym...)
	return st.remask(backend)
}

// remask zeroes the weights of hidden rows/columns so hidden nodes exert
// and receive no attraction, then refreshes the row sums with a matmul
// against the ones vector. The chart's adjacency matrix is not touched.
func (st *state) remask(backend compute.Backend) error {
	if len(st.sym) == 0 {
		return nil
	}
	n := st.n
	masked := make([]float64, n*n)
	copy(masked, st.sym)
	for i := 0; i < n; i++ {
		if st.visible[i] {
			continue
		}
		for j := 0; j < n; j++ {
			masked[i*n+j] = 0
			masked[j*n+i] = 0
		}
	}
	st.sym = masked
	return backend.MatMul(st.deg, st.sym, st.ones, n, n, 1)
}

// tick advances the simulation one step on the given backend. On error the
// state buffers are left exactly as before the call.
func (st *state) tick(backend compute.Backend, p config.Physics) error {
	n := st.n
	if n == 0 {
		return nil
	}
	for i := range st.fx {
		st.fx[i] = 0
		st.fy[i] = 0
	}

	if err := st.addAttraction(backend, p.Spring); err != nil {
		return err
	}
	if err := st.addRepulsion(backend, p.Repulsion, p.CutoffRadius); err != nil {
		return err
	}

	// Integrate velocity then position: v' = damping·(v + f·dt), p' = p + v'·dt.
	if err := backend.Elementwise(compute.OpAXPY, p.DT, st.nextVX, st.fx, st.vx); err != nil {
		return err
	}
	if err := backend.Elementwise(compute.OpScale, p.Damping, st.nextVX, st.nextVX, nil); err != nil {
		return err
	}
	if err := backend.Elementwise(compute.OpAXPY, p.DT, st.nextVY, st.fy, st.vy); err != nil {
		return err
	}
	if err := backend.Elementwise(compute.OpScale, p.Damping, st.nextVY, st.nextVY, nil); err != nil {
		return err
	}
	if err := backend.Elementwise(compute.OpAXPY, p.DT, st.nextX, st.nextVX, st.x); err != nil {
		return err
	}
	if err := backend.Elementwise(compute.OpAXPY, p.DT, st.nextY, st.nextVY, st.y); err != nil {
		return err
	}

	// Pinned nodes receive forces from others but skip integration: their
	// position is driven externally by drag instructions.
	for i := 0; i < n; i++ {
		if st.pinned[i] {
			st.nextX[i] = st.pinX[i]
			st.nextY[i] = st.pinY[i]
			st.nextVX[i] = 0
			st.nextVY[i] = 0
		}
	}

	clamp(st.nextX, 0, p.CanvasWidth)
	clamp(st.nextY, 0, p.CanvasHeight)

	st.x, st.nextX = st.nextX, st.x
	st.y, st.nextY = st.nextY, st.y
	st.vx, st.nextVX = st.nextVX, st.vx
	st.vy, st.nextVY = st.nextVY, st.vy
	return nil
}

// addAttraction accumulates the per-edge spring force, proportional to edge
// weight: f_i += spring · (Σ_j w_ij·p_j − deg_i·p_i). The weighted neighbour
// sums come out of a single matmul per axis.
func (st *state) addAttraction(backend compute.Backend, spring float64) error {
	if len(st.sym) == 0 {
		return nil
	}
	n := st.n
	sx := st.nextX[:n] // reuse next buffers as scratch; overwritten later
	sy := st.nextY[:n]
	if err := backend.MatMul(sx, st.sym, st.x, n, n, 1); err != nil {
		return err
	}
	if err := backend.MatMul(sy, st.sym, st.y, n, n, 1); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		st.fx[i] += spring * (sx[i] - st.deg[i]*st.x[i])
		st.fy[i] += spring * (sy[i] - st.deg[i]*st.y[i])
	}
	return nil
}

// addRepulsion accumulates the pairwise inverse-square repulsion using the
// spatial grid and batched distance evaluation. Hidden nodes are excluded
// entirely: they exert no force on visible neighbours.
func (st *state) addRepulsion(backend compute.Backend, repulsion, cutoff float64) error {
	g := newGrid(cutoff, st.x, st.y, st.visible)
	cutoffSq := cutoff * cutoff

	for i := 0; i < st.n; i++ {
		if !st.visible[i] {
			continue
		}
		st.neighbor = g.neighbors(st.neighbor[:0], st.x[i], st.y[i], i)
		if len(st.neighbor) == 0 {
			continue
		}
		if cap(st.distSq) < len(st.neighbor) {
			st.distSq = make([]float64, len(st.neighbor))
		}
		st.distSq = st.distSq[:len(st.neighbor)]

		if err := backend.DistanceBatch(st.distSq, st.x, st.y, st.x[i], st.y[i], st.neighbor); err != nil {
			return err
		}
		for k, j := range st.neighbor {
			d2 := st.distSq[k]
			if d2 > cutoffSq {
				continue
			}
			if d2 < minSeparationSq {
				d2 = minSeparationSq
			}
			// k/d² along the unit vector away from j: k·Δ/d³.
			d := math.Sqrt(d2)
			scale := repulsion / (d2 * d)
			st.fx[i] += (st.x[i] - st.x[j]) * scale
			st.fy[i] += (st.y[i] - st.y[j]) * scale
		}
	}
	return nil
}

func clamp(v []float64, lo, hi float64) {
	for i := range v {
		if v[i] < lo {
			v[i] = lo
		} else if v[i] > hi {
			v[i] = hi
		}
	}
}
