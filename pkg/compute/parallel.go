package compute

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// parallelChunkMin is the smallest slice worth splitting across goroutines.
// Below this the scheduling overhead dominates.
const parallelChunkMin = 4096

// parallelBackend splits work across CPUs in contiguous chunks. Kernels fall
// back to the single-threaded path for small inputs.
type parallelBackend struct {
	workers int
}

// NewParallel returns the multicore CPU backend.
func NewParallel() Backend {
	return &parallelBackend{workers: runtime.GOMAXPROCS(0)}
}

// parallelAvailable reports whether the parallel backend should join the
// chain. With a single CPU it degenerates to scalar plus overhead.
func parallelAvailable() bool {
	return runtime.GOMAXPROCS(0) > 1
}

func (p *parallelBackend) Name() string { return "parallel" }

// split runs fn over [0, n) in chunks, one goroutine per worker.
func (p *parallelBackend) split(n int, fn func(lo, hi int)) {
	if n < parallelChunkMin || p.workers < 2 {
		fn(0, n)
		return
	}
	var g errgroup.Group
	chunk := (n + p.workers - 1) / p.workers
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait() // fn never errors; errgroup is used for the join
}

func (p *parallelBackend) MatMul(dst, a, b []float64, m, k, n int) error {
	if err := checkMatMul(dst, a, b, m, k, n); err != nil {
		return err
	}
	p.split(m, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			for j := 0; j < n; j++ {
				var sum float64
				for l := 0; l < k; l++ {
					sum += a[i*k+l] * b[l*n+j]
				}
				dst[i*n+j] = sum
			}
		}
	})
	return nil
}

func (p *parallelBackend) Elementwise(op Op, alpha float64, dst, x, y []float64) error {
	if err := checkElementwise(op, dst, x, y); err != nil {
		return err
	}
	p.split(len(dst), func(lo, hi int) {
		applyElementwise(op, alpha, dst, x, y, lo, hi)
	})
	return nil
}

func (p *parallelBackend) DistanceBatch(dst []float64, xs, ys []float64, px, py float64, idx []int) error {
	if err := checkIndexed(len(dst), len(xs), idx); err != nil {
		return err
	}
	p.split(len(idx), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dx := xs[idx[i]] - px
			dy := ys[idx[i]] - py
			dst[i] = dx*dx + dy*dy
		}
	})
	return nil
}

func (p *parallelBackend) Gather(dst, src []float64, idx []int) error {
	if err := checkIndexed(len(dst), len(src), idx); err != nil {
		return err
	}
	p.split(len(idx), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dst[i] = src[idx[i]]
		}
	})
	return nil
}

func (p *parallelBackend) Scatter(dst, src []float64, idx []int) error {
	if err := checkIndexed(len(src), len(dst), idx); err != nil {
		return err
	}
	// Scatter chunks by source index; idx entries are assumed distinct,
	// which holds for the engine's row-indexed writes.
	p.split(len(idx), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dst[idx[i]] = src[i]
		}
	})
	return nil
}
