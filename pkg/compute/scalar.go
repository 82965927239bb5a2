package compute

// scalarBackend is the plain-loop fallback. Always available; this is the
// provider the selector lands on in degraded mode.
type scalarBackend struct{}

// NewScalar returns the scalar CPU backend.
func NewScalar() Backend { return scalarBackend{} }

func (scalarBackend) Name() string { return "scalar" }

func (scalarBackend) MatMul(dst, a, b []float64, m, k, n int) error {
	if err := checkMatMul(dst, a, b, m, k, n); err != nil {
		return err
	}
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float64
			for l := 0; l < k; l++ {
				sum += a[i*k+l] * b[l*n+j]
			}
			dst[i*n+j] = sum
		}
	}
	return nil
}

func (scalarBackend) Elementwise(op Op, alpha float64, dst, x, y []float64) error {
	if err := checkElementwise(op, dst, x, y); err != nil {
		return err
	}
	applyElementwise(op, alpha, dst, x, y, 0, len(dst))
	return nil
}

func (scalarBackend) DistanceBatch(dst []float64, xs, ys []float64, px, py float64, idx []int) error {
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

func (scalarBackend) Gather(dst, src []float64, idx []int) error {
	if err := checkIndexed(len(dst), len(src), idx); err != nil {
		return err
	}
	for i, j := range idx {
		dst[i] = src[j]
	}
	return nil
}

func (scalarBackend) Scatter(dst, src []float64, idx []int) error {
	if err := checkIndexed(len(src), len(dst), idx); err != nil {
		return err
	}
	for i, j := range idx {
		dst[j] = src[i]
	}
	return nil
}
