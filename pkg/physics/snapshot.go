package physics

import "time"

// Snapshot is an immutable copy of simulation state, published atomically
// once per tick. Readers in the foreground domain never observe a partially
// updated position set; every slice belongs to the snapshot alone.
type Snapshot struct {
	// Seq increases by one per published tick.
	Seq uint64
	// At is the publish time.
	At time.Time
	// IDs maps row index to person id, in adjacency row order.
	IDs []string
	// X, Y are node positions by row index.
	X, Y []float64
	// Visible is the filter-derived node visibility by row index.
	Visible []bool
	// Backend is the name of the compute backend that produced the tick.
	Backend string
}

// Position returns the coordinates for a person id, and whether it exists.
// Linear scan; callers needing bulk access should index IDs themselves.
func (s *Snapshot) Position(id string) (x, y float64, ok bool) {
	for i, sid := range s.IDs {
		if sid == id {
			return s.X[i], s.Y[i], true
		}
	}
	return 0, 0, false
}

// Len returns the node count.
func (s *Snapshot) Len() int { return len(s.IDs) }
