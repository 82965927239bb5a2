// Package interact translates pointer gestures into simulation
// instructions. It owns the drag state machine, the spatial hit-test
// index, and the viewport transform between screen and canvas space.
package interact
