package physics

// grid is a uniform spatial partition over node positions. Repulsion only
// considers nodes within the 3×3 cell neighbourhood, keeping the pairwise
// pass near O(N) for spread-out layouts instead of O(N²).
type grid struct {
	cell float64
	bins map[[2]int][]int
}

// newGrid bins the visible nodes by cell. Cell size equals the repulsion
// cutoff radius so a 3×3 neighbourhood covers every pair within range.
func newGrid(cell float64, xs, ys []float64, visible []bool) *grid {
	g := &grid{cell: cell, bins: make(map[[2]int][]int)}
	for i := range xs {
		if visible != nil && !visible[i] {
			continue
		}
		k := g.key(xs[i], ys[i])
		g.bins[k] = append(g.bins[k], i)
	}
	return g
}

func (g *grid) key(x, y float64) [2]int {
	return [2]int{int(x / g.cell), int(y / g.cell)}
}

// neighbors appends the indices in the 3×3 neighbourhood of (x, y) to buf,
// excluding self, and returns the extended slice.
func (g *grid) neighbors(buf []int, x, y float64, self int) []int {
	c := g.key(x, y)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, i := range g.bins[[2]int{c[0] + dx, c[1] + dy}] {
				if i != self {
					buf = append(buf, i)
				}
			}
		}
	}
	return buf
}
