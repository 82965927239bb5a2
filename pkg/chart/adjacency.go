package chart

import (
	"gonum.org/v1/gonum/mat"
)

// Adjacency is the dense directed weighted adjacency matrix of a chart,
// plus the index maps the physics engine needs to go between person ids and
// matrix rows.
//
// The dimension always equals the total loaded node count, independent of
// the active filter. It is rebuilt only on structural change (person or
// relationship added/removed), never on a filter toggle.
type Adjacency struct {
	ids   []string
	index map[string]int
	w     *mat.Dense
	out   [][]int // out-neighbour row indices, for sparse traversal
}

// buildAdjacency constructs the matrix for the given node order and edges.
// Parallel edges accumulate weight.
func buildAdjacency(order []string, rels []Relationship) *Adjacency {
	n := len(order)
	a := &Adjacency{
		ids:   append([]string(nil), order...),
		index: make(map[string]int, n),
		out:   make([][]int, n),
	}
	for i, id := range order {
		a.index[id] = i
	}
	if n > 0 {
		a.w = mat.NewDense(n, n, nil)
	}
	for _, r := range rels {
		i, ok := a.index[r.Src]
		if !ok {
			continue
		}
		j, ok := a.index[r.Dst]
		if !ok {
			continue
		}
		if a.w.At(i, j) == 0 {
			a.out[i] = append(a.out[i], j)
		}
		a.w.Set(i, j, a.w.At(i, j)+r.Weight)
	}
	return a
}

// Dim returns the matrix dimension (total loaded node count).
func (a *Adjacency) Dim() int { return len(a.ids) }

// IDs returns the person id for each matrix row, in row order.
func (a *Adjacency) IDs() []string { return a.ids }

// Index returns the matrix row for a person id.
func (a *Adjacency) Index(id string) (int, bool) {
	i, ok := a.index[id]
	return i, ok
}

// Weight returns the edge weight from row i to row j, zero if absent.
func (a *Adjacency) Weight(i, j int) float64 {
	if a.w == nil {
		return 0
	}
	return a.w.At(i, j)
}

// Out returns the out-neighbour rows of row i.
func (a *Adjacency) Out(i int) []int { return a.out[i] }

// Raw returns the row-major weight data backing the matrix. The slice is
// shared with the matrix; callers must treat it as read-only. Used to feed
// backend matrix operations without a copy.
func (a *Adjacency) Raw() []float64 {
	if a.w == nil {
		return nil
	}
	return a.w.RawMatrix().Data
}

// Symmetrized returns W + Wᵀ as row-major data. Attraction pulls both
// endpoints together regardless of edge direction, so the physics engine
// works on the symmetrized weights.
func (a *Adjacency) Symmetrized() []float64 {
	n := len(a.ids)
	if n == 0 {
		return nil
	}
	sym := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sym[i*n+j] = a.w.At(i, j) + a.w.At(j, i)
		}
	}
	return sym
}
