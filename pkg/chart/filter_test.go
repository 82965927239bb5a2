package chart

import "testing"

func buildTestChart(t *testing.T) *Chart {
	t.Helper()
	c := New()
	_ = c.AddPerson(Person{ID: "alice", Attrs: map[string]string{"city": "Berlin"}})
	_ = c.AddPerson(Person{ID: "bob", Attrs: map[string]string{"city": "Paris"}})
	_ = c.AddPerson(Person{ID: "carol", Attrs: map[string]string{"city": "Berlin"}})
	_ = c.AddRelationship(Relationship{Src: "alice", Dst: "bob", Weight: 4, Type: "call"})
	_ = c.AddRelationship(Relationship{Src: "bob", Dst: "carol", Weight: 1, Type: "sms"})
	return c
}

func TestZeroFilterShowsEverything(t *testing.T) {
	c := buildTestChart(t)
	vs := c.Visible()
	for i, v := range vs.Nodes {
		if !v {
			t.Errorf("node %d hidden by zero filter", i)
		}
	}
	for i, v := range vs.Edges {
		if !v {
			t.Errorf("edge %d hidden by zero filter", i)
		}
	}
}

func TestNodeAttributeFilter(t *testing.T) {
	c := buildTestChart(t)
	c.SetFilter(FilterState{Rules: []Rule{
		{Target: TargetNode, Field: "city", Op: OpEq, Value: "Berlin"},
	}})

	vs := c.Visible()
	a := c.Adjacency()
	bi, _ := a.Index("bob")
	if vs.Nodes[bi] {
		t.Error("bob should be hidden")
	}

	// An edge with a hidden endpoint is hidden regardless of edge rules.
	for i, v := range vs.Edges {
		if v {
			t.Errorf("edge %d visible although bob is hidden", i)
		}
	}
}

func TestEdgeFilter(t *testing.T) {
	c := buildTestChart(t)
	c.SetFilter(FilterState{Rules: []Rule{
		{Target: TargetEdge, Field: "weight", Op: OpGte, Value: "2"},
	}})
	vs := c.Visible()
	if !vs.Edges[0] {
		t.Error("weight-4 edge should be visible")
	}
	if vs.Edges[1] {
		t.Error("weight-1 edge should be hidden")
	}
	// Node visibility is unaffected by edge rules.
	for i, v := range vs.Nodes {
		if !v {
			t.Errorf("node %d hidden by edge rule", i)
		}
	}
}

// Hiding all of a node's edges keeps the node present in the adjacency
// matrix but excludes the edges from the visible set.
func TestFilterKeepsHiddenNodeInAdjacency(t *testing.T) {
	c := buildTestChart(t)
	before := c.Adjacency().Dim()

	c.SetFilter(FilterState{Rules: []Rule{
		{Target: TargetEdge, Field: "type", Op: OpEq, Value: "nothing-matches"},
	}})

	if got := c.Adjacency().Dim(); got != before {
		t.Errorf("dim changed to %d after filter", got)
	}
	for i, v := range c.Visible().Edges {
		if v {
			t.Errorf("edge %d should be hidden", i)
		}
	}
}

func TestMatchOperators(t *testing.T) {
	tests := []struct {
		op       string
		val      string
		want     string
		expected bool
	}{
		{OpEq, "a", "a", true},
		{OpEq, "a", "b", false},
		{OpNeq, "a", "b", true},
		{OpContains, "Berlin", "ber", true},
		{OpContains, "Berlin", "paris", false},
		{OpGte, "4", "2", true},
		{OpGte, "1", "2", false},
		{OpLte, "1", "2", true},
		{OpGte, "abc", "2", false}, // unparsable never matches
		{"unknown", "a", "a", false},
	}
	for _, tt := range tests {
		if got := match(tt.op, tt.val, tt.want); got != tt.expected {
			t.Errorf("match(%s, %q, %q) = %v, want %v", tt.op, tt.val, tt.want, got, tt.expected)
		}
	}
}
