// Package compute provides a uniform vectorized-math interface over
// interchangeable execution backends, selected by a priority probe at
// startup.
//
// # Backends
//
// Three providers implement [Backend]:
//
//   - blas: gonum-backed dense kernels, probed first and gated on AVX2
//     support so the blocked kernels actually pay off
//   - parallel: multicore chunked loops, probed when more than one CPU
//     is available
//   - scalar: plain loops, always available, the degraded-mode terminal
//     fallback
//
// # Failover
//
// [Select] returns a [Selector] that transparently downgrades to the next
// backend in priority order when a call fails at runtime, logs exactly one
// transition per downgrade, and re-issues the failed operation once. When
// every backend has failed the operation returns ErrCodeBackendExhausted.
// A failing backend never crashes the caller's loop.
package compute
