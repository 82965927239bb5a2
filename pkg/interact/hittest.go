package interact

import (
	"github.com/dhconnelly/rtreego"

	"github.com/BitEU/linkchart/pkg/physics"
)

// Card extents in canvas units. Hit testing targets the full card
// rectangle, not just the centre point.
const (
	cardWidth  = 150.0
	cardHeight = 80.0
)

type nodeBox struct {
	id   string
	rect rtreego.Rect
}

func (b *nodeBox) Bounds() rtreego.Rect { return b.rect }

// Index answers point queries against the nodes of a position snapshot.
// It is rebuilt lazily: Lookup compares the snapshot sequence and only
// reindexes when positions actually changed.
type Index struct {
	tree *rtreego.Rtree
	seq  uint64
}

// NewIndex returns an empty index; the first Lookup populates it.
func NewIndex() *Index {
	return &Index{}
}

// Lookup returns the id of the topmost visible node whose card covers the
// canvas point, or "" when the point hits empty space.
func (ix *Index) Lookup(snap *physics.Snapshot, cx, cy float64) string {
	if snap == nil {
		return ""
	}
	if ix.tree == nil || ix.seq != snap.Seq {
		ix.rebuild(snap)
	}

	p := rtreego.Point{cx, cy}
	rect := p.ToRect(0.5)
	hits := ix.tree.SearchIntersect(rect)
	if len(hits) == 0 {
		return ""
	}
	// Later snapshot order draws on top; prefer the last match so the
	// visually topmost card wins overlapping clicks.
	best := ""
	bestOrder := -1
	for _, h := range hits {
		box := h.(*nodeBox)
		for i, id := range snap.IDs {
			if id == box.id && i > bestOrder {
				best = id
				bestOrder = i
			}
		}
	}
	return best
}

func (ix *Index) rebuild(snap *physics.Snapshot) {
	tree := rtreego.NewTree(2, 4, 16)
	for i, id := range snap.IDs {
		if !snap.Visible[i] {
			continue
		}
		rect, err := rtreego.NewRect(
			rtreego.Point{snap.X[i] - cardWidth/2, snap.Y[i] - cardHeight/2},
			[]float64{cardWidth, cardHeight},
		)
		if err != nil {
			continue
		}
		tree.Insert(&nodeBox{id: id, rect: rect})
	}
	ix.tree = tree
	ix.seq = snap.Seq
}
