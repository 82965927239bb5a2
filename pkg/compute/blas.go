package compute

import (
	"github.com/klauspost/cpuid/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// blasBackend routes the dense kernels through gonum. The probe gates it on
// AVX2: on narrower machines the blocked kernels don't beat the parallel
// chunked loops, so the priority chain skips straight past it.
type blasBackend struct{}

// NewBLAS returns the gonum-backed backend, or ErrUnavailable via the probe
// when the CPU lacks AVX2.
func NewBLAS() Backend { return blasBackend{} }

// blasAvailable reports whether the blas backend should join the chain.
func blasAvailable() bool {
	return cpuid.CPU.Supports(cpuid.AVX2)
}

func (blasBackend) Name() string { return "blas" }

func (blasBackend) MatMul(dst, a, b []float64, m, k, n int) error {
	if err := checkMatMul(dst, a, b, m, k, n); err != nil {
		return err
	}
	if m == 0 || n == 0 {
		return nil
	}
	if k == 0 {
		for i := range dst {
			dst[i] = 0
		}
		return nil
	}
	am := mat.NewDense(m, k, a)
	bm := mat.NewDense(k, n, b)
	dm := mat.NewDense(m, n, dst)
	dm.Mul(am, bm)
	return nil
}

func (blasBackend) Elementwise(op Op, alpha float64, dst, x, y []float64) error {
	if err := checkElementwise(op, dst, x, y); err != nil {
		return err
	}
	switch op {
	case OpAdd:
		copy(dst, x)
		floats.Add(dst, y)
	case OpSub:
		copy(dst, x)
		floats.Sub(dst, y)
	case OpMul:
		copy(dst, x)
		floats.Mul(dst, y)
	case OpScale:
		copy(dst, x)
		floats.Scale(alpha, dst)
	case OpAXPY:
		// dst may alias x, so go through AddScaledTo's destination form.
		floats.AddScaledTo(dst, y, alpha, x)
	}
	return nil
}

func (blasBackend) DistanceBatch(dst []float64, xs, ys []float64, px, py float64, idx []int) error {
	if err := checkIndexed(len(dst), len(xs), idx); err != nil {
		return err
	}
	for i, j := range idx {
		dx := xs[j] - px
		dy := ys[j] - py
		dst[i] = dx*dx + dy*dy
	}
	return nil
}

func (blasBackend) Gather(dst, src []float64, idx []int) error {
	if err := checkIndexed(len(dst), len(src), idx); err != nil {
		return err
	}
	for i, j := range idx {
		dst[i] = src[j]
	}
	return nil
}

func (blasBackend) Scatter(dst, src []float64, idx []int) error {
	if err := checkIndexed(len(src), len(dst), idx); err != nil {
		return err
	}
	for i, j := range idx {
		dst[j] = src[i]
	}
	return nil
}
