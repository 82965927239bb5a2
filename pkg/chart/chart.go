package chart

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidPersonID is returned by [Chart.AddPerson] when the id is empty.
	ErrInvalidPersonID = errors.New("person ID must not be empty")

	// ErrDuplicatePerson is returned by [Chart.AddPerson] when a person with
	// the same ID already exists. Person IDs must be unique.
	ErrDuplicatePerson = errors.New("duplicate person ID")

	// ErrUnknownPerson is returned when an operation references a person
	// that does not exist in the chart.
	ErrUnknownPerson = errors.New("unknown person")
)

// Grid placement constants for newly added people. New nodes are laid out in
// a three-column grid until the simulation takes over.
const (
	gridCols      = 3
	gridColWidth  = 300.0
	gridRowHeight = 150.0
	gridStartX    = 200.0
	gridStartY    = 120.0
)

// Person is a node in the link chart.
type Person struct {
	ID    string            `json:"id" bson:"id"`
	Alias string            `json:"alias,omitempty" bson:"alias,omitempty"` // Optional friendly name
	Attrs map[string]string `json:"attrs,omitempty" bson:"attrs,omitempty"`

	// Position and velocity in world coordinates. Mutated by the physics
	// domain during simulation; persisted on save.
	X  float64 `json:"x" bson:"x"`
	Y  float64 `json:"y" bson:"y"`
	VX float64 `json:"vx,omitempty" bson:"vx,omitempty"`
	VY float64 `json:"vy,omitempty" bson:"vy,omitempty"`

	// Pinned excludes the person from physics-driven integration while it is
	// under direct user control.
	Pinned  bool `json:"-" bson:"-"`
	Visible bool `json:"-" bson:"-"`

	// Color indexes the card color palette.
	Color int `json:"color,omitempty" bson:"color,omitempty"`

	// Aggregates from call-record import.
	TotalCalls    int     `json:"total_calls,omitempty" bson:"total_calls,omitempty"`
	TotalDuration float64 `json:"total_duration,omitempty" bson:"total_duration,omitempty"` // seconds
}

// DisplayName returns the alias if set, otherwise the ID.
func (p *Person) DisplayName() string {
	if p.Alias != "" {
		return p.Alias
	}
	return p.ID
}

// Relationship is a directed, weighted edge between two people.
type Relationship struct {
	Src    string  `json:"src" bson:"src"`
	Dst    string  `json:"dst" bson:"dst"`
	Weight float64 `json:"weight" bson:"weight"`
	Type   string  `json:"type,omitempty" bson:"type,omitempty"`

	// Call aggregates and the free-text note carried on the connection.
	Count int       `json:"count,omitempty" bson:"count,omitempty"`
	First time.Time `json:"first,omitempty" bson:"first,omitempty"`
	Last  time.Time `json:"last,omitempty" bson:"last,omitempty"`
	Note  string    `json:"note,omitempty" bson:"note,omitempty"`
}

// Label returns the edge label drawn next to the connection: the call count
// and, when known, the date range of the calls.
func (r *Relationship) Label() string {
	if r.Count <= 0 {
		return r.Type
	}
	if r.First.IsZero() || r.Last.IsZero() {
		return fmt.Sprintf("%d calls", r.Count)
	}
	return fmt.Sprintf("%d calls\n%s - %s",
		r.Count, r.First.Format("2006-01-02"), r.Last.Format("2006-01-02"))
}

// Chart is the full link-chart model: people, relationships, the adjacency
// matrix, and the active filter.
type Chart struct {
	people map[string]*Person
	order  []string // insertion order: index i ↔ adjacency row i
	rels   []Relationship

	adjacency *Adjacency // nil when structure changed since last build
	filter    FilterState

	droppedEdges int
}

// New creates an empty chart.
func New() *Chart {
	return &Chart{people: make(map[string]*Person)}
}

// Dataset is the normalized ingestion format supplied by external loaders.
type Dataset struct {
	Nodes []DatasetNode `json:"nodes"`
	Edges []DatasetEdge `json:"edges"`
}

// DatasetNode is one node entry of a Dataset.
type DatasetNode struct {
	ID    string            `json:"id"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// DatasetEdge is one edge entry of a Dataset.
type DatasetEdge struct {
	Src    string  `json:"src"`
	Dst    string  `json:"dst"`
	Weight float64 `json:"weight"`
	Type   string  `json:"type,omitempty"`
}

// LoadReport summarizes a dataset ingestion.
type LoadReport struct {
	People        int
	Relationships int
	DroppedEdges  int // edges referencing unknown node ids
}

// FromDataset normalizes a dataset into a chart. Edges referencing unknown
// node ids are dropped and counted in the report; the load continues.
func FromDataset(ds Dataset) (*Chart, LoadReport, error) {
	c := New()
	for _, n := range ds.Nodes {
		if err := c.AddPerson(Person{ID: n.ID, Attrs: n.Attrs}); err != nil {
			return nil, LoadReport{}, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range ds.Edges {
		_ = c.AddRelationship(Relationship{Src: e.Src, Dst: e.Dst, Weight: e.Weight, Type: e.Type})
	}
	report := LoadReport{
		People:        len(c.order),
		Relationships: len(c.rels),
		DroppedEdges:  c.droppedEdges,
	}
	return c, report, nil
}

// AddPerson adds a person to the chart. A zero position is replaced by the
// next grid slot so new nodes don't stack at the origin.
func (c *Chart) AddPerson(p Person) error {
	if p.ID == "" {
		return ErrInvalidPersonID
	}
	if _, ok := c.people[p.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePerson, p.ID)
	}
	if p.X == 0 && p.Y == 0 {
		p.X, p.Y = c.nextGridSlot()
	}
	if p.Color == 0 {
		p.Color = len(c.order) % cardColorCount
	}
	p.Visible = true
	c.people[p.ID] = &p
	c.order = append(c.order, p.ID)
	c.adjacency = nil
	return nil
}

// cardColorCount matches the card color palette size used by renderers.
const cardColorCount = 8

// nextGridSlot returns the grid position for the next new node.
func (c *Chart) nextGridSlot() (float64, float64) {
	i := len(c.order)
	row, col := i/gridCols, i%gridCols
	return gridStartX + float64(col)*gridColWidth, gridStartY + float64(row)*gridRowHeight
}

// UpdatePerson replaces mutable person attributes (alias, attrs, color).
// This is a non-structural change: the adjacency matrix is not rebuilt.
func (c *Chart) UpdatePerson(id string, update func(*Person)) error {
	p, ok := c.people[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPerson, id)
	}
	update(p)
	return nil
}

// RemovePerson deletes a person and every relationship touching it.
func (c *Chart) RemovePerson(id string) error {
	if _, ok := c.people[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPerson, id)
	}
	delete(c.people, id)
	for i, pid := range c.order {
		if pid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	kept := c.rels[:0]
	for _, r := range c.rels {
		if r.Src != id && r.Dst != id {
			kept = append(kept, r)
		}
	}
	c.rels = kept
	c.adjacency = nil
	return nil
}

// AddRelationship adds a directed edge. Edges referencing unknown people are
// dropped and counted, mirroring dataset ingestion semantics.
func (c *Chart) AddRelationship(r Relationship) error {
	if _, ok := c.people[r.Src]; !ok {
		c.droppedEdges++
		return fmt.Errorf("%w: %s", ErrUnknownPerson, r.Src)
	}
	if _, ok := c.people[r.Dst]; !ok {
		c.droppedEdges++
		return fmt.Errorf("%w: %s", ErrUnknownPerson, r.Dst)
	}
	c.rels = append(c.rels, r)
	c.adjacency = nil
	return nil
}

// SetNote attaches a free-text note to the first relationship between src and
// dst (either direction). Non-structural.
func (c *Chart) SetNote(src, dst, note string) error {
	for i := range c.rels {
		r := &c.rels[i]
		if (r.Src == src && r.Dst == dst) || (r.Src == dst && r.Dst == src) {
			r.Note = note
			return nil
		}
	}
	return fmt.Errorf("%w: %s-%s", ErrUnknownPerson, src, dst)
}

// Person returns the person with the given id, or nil.
func (c *Chart) Person(id string) *Person {
	return c.people[id]
}

// People returns all people in insertion order.
func (c *Chart) People() []*Person {
	out := make([]*Person, len(c.order))
	for i, id := range c.order {
		out[i] = c.people[id]
	}
	return out
}

// Relationships returns all edges.
func (c *Chart) Relationships() []Relationship {
	out := make([]Relationship, len(c.rels))
	copy(out, c.rels)
	return out
}

// Len returns the total loaded node count, independent of filters.
func (c *Chart) Len() int { return len(c.order) }

// DroppedEdges returns the cumulative count of edges dropped for referencing
// unknown node ids.
func (c *Chart) DroppedEdges() int { return c.droppedEdges }

// SetFilter replaces the filter state. Filters derive visible sets; they
// never touch the adjacency matrix.
func (c *Chart) SetFilter(f FilterState) {
	c.filter = f
	vis := f.Visible(c)
	for i, id := range c.order {
		c.people[id].Visible = vis.Nodes[i]
	}
}

// Filter returns the active filter state.
func (c *Chart) Filter() FilterState { return c.filter }

// Visible recomputes the visible node/edge sets for the active filter.
func (c *Chart) Visible() VisibleSet { return c.filter.Visible(c) }

// Adjacency returns the adjacency matrix, rebuilding it only if structure
// changed since the last build. Filter toggles never invalidate it.
func (c *Chart) Adjacency() *Adjacency {
	if c.adjacency == nil {
		c.adjacency = buildAdjacency(c.order, c.rels)
	}
	return c.adjacency
}

// ApplyPositions writes positions (and velocities) back into the model,
// typically from the latest physics snapshot before saving.
func (c *Chart) ApplyPositions(ids []string, xs, ys []float64) {
	for i, id := range ids {
		if p, ok := c.people[id]; ok && i < len(xs) && i < len(ys) {
			p.X, p.Y = xs[i], ys[i]
		}
	}
}
