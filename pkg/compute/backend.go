package compute

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch is returned when slice arguments disagree on length.
	ErrLengthMismatch = errors.New("slice lengths do not match")

	// ErrBadShape is returned by MatMul when the matrix dimensions are
	// inconsistent with the provided slices.
	ErrBadShape = errors.New("matrix shape does not match data length")

	// ErrIndexOutOfRange is returned by gather/scatter and distance-batch
	// operations when an index exceeds the source slice.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Op selects the elementwise operation applied by [Backend.Elementwise].
type Op int

const (
	// OpAdd computes dst = x + y.
	OpAdd Op = iota
	// OpSub computes dst = x - y.
	OpSub
	// OpMul computes dst = x .* y.
	OpMul
	// OpScale computes dst = alpha * x; y is ignored.
	OpScale
	// OpAXPY computes dst = alpha*x + y.
	OpAXPY
)

// Backend is the capability object exposed by the selector: the vectorized
// operations the physics engine issues each tick. All slices are row-major
// float64. Implementations must be safe for use from a single goroutine;
// calls are synchronous relative to the caller.
type Backend interface {
	// Name identifies the backend ("blas", "parallel", "scalar").
	Name() string

	// MatMul computes dst = a·b where a is m×k and b is k×n, row-major.
	MatMul(dst, a, b []float64, m, k, n int) error

	// Elementwise applies op across x and y into dst. dst may alias x or y.
	Elementwise(op Op, alpha float64, dst, x, y []float64) error

	// DistanceBatch writes the squared distance from (px, py) to each point
	// (xs[idx[i]], ys[idx[i]]) into dst[i].
	DistanceBatch(dst []float64, xs, ys []float64, px, py float64, idx []int) error

	// Gather copies src[idx[i]] into dst[i].
	Gather(dst, src []float64, idx []int) error

	// Scatter copies src[i] into dst[idx[i]].
	Scatter(dst, src []float64, idx []int) error
}

// checkMatMul validates MatMul arguments. Shared by all backends so shape
// errors behave identically regardless of the active provider.
func checkMatMul(dst, a, b []float64, m, k, n int) error {
	if m < 0 || k < 0 || n < 0 {
		return fmt.Errorf("%w: %dx%dx%d", ErrBadShape, m, k, n)
	}
	if len(a) != m*k || len(b) != k*n || len(dst) != m*n {
		return fmt.Errorf("%w: a=%d b=%d dst=%d for %dx%d·%dx%d",
			ErrBadShape, len(a), len(b), len(dst), m, k, k, n)
	}
	return nil
}

// checkElementwise validates Elementwise arguments.
func checkElementwise(op Op, dst, x, y []float64) error {
	if len(dst) != len(x) {
		return fmt.Errorf("%w: dst=%d x=%d", ErrLengthMismatch, len(dst), len(x))
	}
	if op != OpScale && len(y) != len(x) {
		return fmt.Errorf("%w: x=%d y=%d", ErrLengthMismatch, len(x), len(y))
	}
	return nil
}

// checkIndexed validates gather/scatter/distance-batch arguments.
func checkIndexed(dstLen, srcLen int, idx []int) error {
	if dstLen != len(idx) {
		return fmt.Errorf("%w: dst=%d idx=%d", ErrLengthMismatch, dstLen, len(idx))
	}
	for _, i := range idx {
		if i < 0 || i >= srcLen {
			return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, srcLen)
		}
	}
	return nil
}

// applyElementwise is the scalar reference implementation of Elementwise,
// reused by the scalar backend and by the parallel backend's chunks.
func applyElementwise(op Op, alpha float64, dst, x, y []float64, lo, hi int) {
	switch op {
	case OpAdd:
		for i := lo; i < hi; i++ {
			dst[i] = x[i] + y[i]
		}
	case OpSub:
		for i := lo; i < hi; i++ {
			dst[i] = x[i] - y[i]
		}
	case OpMul:
		for i := lo; i < hi; i++ {
			dst[i] = x[i] * y[i]
		}
	case OpScale:
		for i := lo; i < hi; i++ {
			dst[i] = alpha * x[i]
		}
	case OpAXPY:
		for i := lo; i < hi; i++ {
			dst[i] = alpha*x[i] + y[i]
		}
	}
}
