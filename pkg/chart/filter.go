package chart

import (
	"strconv"
	"strings"
)

// Filter targets.
const (
	TargetNode = "node"
	TargetEdge = "edge"
)

// Filter operators.
const (
	OpEq       = "eq"
	OpNeq      = "neq"
	OpContains = "contains"
	OpGte      = "gte"
	OpLte      = "lte"
)

// Rule is a single predicate over node or edge attributes.
//
// For nodes, Field addresses the attribute map, plus the virtual fields
// "id" and "alias". For edges, Field addresses "type", "weight", "count",
// "src" and "dst". Numeric comparisons (gte/lte) parse both sides as
// floats; unparsable values never match.
type Rule struct {
	Target string `json:"target"`
	Field  string `json:"field"`
	Op     string `json:"op"`
	Value  string `json:"value"`
}

// FilterState is the set of active predicates. All rules must match
// (conjunction). The zero value matches everything.
type FilterState struct {
	Rules []Rule `json:"rules,omitempty"`
}

// VisibleSet holds the derived visibility masks, indexed by adjacency row
// (nodes) and relationship slice position (edges).
type VisibleSet struct {
	Nodes []bool
	Edges []bool
}

// Visible derives the visible node and edge sets for the chart. An edge is
// visible only when both endpoints are visible and every edge rule matches.
// The adjacency matrix is not consulted and not mutated.
func (f FilterState) Visible(c *Chart) VisibleSet {
	vs := VisibleSet{
		Nodes: make([]bool, len(c.order)),
		Edges: make([]bool, len(c.rels)),
	}

	nodeIdx := make(map[string]int, len(c.order))
	for i, id := range c.order {
		nodeIdx[id] = i
		vs.Nodes[i] = f.matchNode(c.people[id])
	}

	for i, r := range c.rels {
		si, sok := nodeIdx[r.Src]
		di, dok := nodeIdx[r.Dst]
		if !sok || !dok || !vs.Nodes[si] || !vs.Nodes[di] {
			continue
		}
		vs.Edges[i] = f.matchEdge(&c.rels[i])
	}
	return vs
}

func (f FilterState) matchNode(p *Person) bool {
	for _, r := range f.Rules {
		if r.Target != TargetNode {
			continue
		}
		var val string
		switch r.Field {
		case "id":
			val = p.ID
		case "alias":
			val = p.Alias
		default:
			val = p.Attrs[r.Field]
		}
		if !match(r.Op, val, r.Value) {
			return false
		}
	}
	return true
}

func (f FilterState) matchEdge(rel *Relationship) bool {
	for _, r := range f.Rules {
		if r.Target != TargetEdge {
			continue
		}
		var val string
		switch r.Field {
		case "type":
			val = rel.Type
		case "weight":
			val = strconv.FormatFloat(rel.Weight, 'f', -1, 64)
		case "count":
			val = strconv.Itoa(rel.Count)
		case "src":
			val = rel.Src
		case "dst":
			val = rel.Dst
		}
		if !match(r.Op, val, r.Value) {
			return false
		}
	}
	return true
}

func match(op, val, want string) bool {
	switch op {
	case OpEq:
		return val == want
	case OpNeq:
		return val != want
	case OpContains:
		return strings.Contains(strings.ToLower(val), strings.ToLower(want))
	case OpGte, OpLte:
		a, errA := strconv.ParseFloat(val, 64)
		b, errB := strconv.ParseFloat(want, 64)
		if errA != nil || errB != nil {
			return false
		}
		if op == OpGte {
			return a >= b
		}
		return a <= b
	}
	return false
}
