package cli

import (
	"testing"

	"github.com/BitEU/linkchart/pkg/chart"
)

func hashTestChart(t *testing.T) *chart.Chart {
	t.Helper()
	ch := chart.New()
	for _, id := range []string{"555-0001", "555-0002", "555-0003"} {
		if err := ch.AddPerson(chart.Person{ID: id}); err != nil {
			t.Fatalf("AddPerson(%s): %v", id, err)
		}
	}
	if err := ch.AddRelationship(chart.Relationship{Src: "555-0001", Dst: "555-0002", Weight: 4}); err != nil {
		t.Fatalf("AddRelationship: %v", err)
	}
	return ch
}

func TestChartContentHashIgnoresPositions(t *testing.T) {
	ch := hashTestChart(t)
	before := chartContentHash(ch)

	ch.ApplyPositions([]string{"555-0001"}, []float64{999}, []float64{777})
	after := chartContentHash(ch)

	if before != after {
		t.Error("content hash should not depend on node positions")
	}
}

func TestChartContentHashSeesStructure(t *testing.T) {
	ch := hashTestChart(t)
	before := chartContentHash(ch)

	if err := ch.AddRelationship(chart.Relationship{Src: "555-0002", Dst: "555-0003", Weight: 1}); err != nil {
		t.Fatalf("AddRelationship: %v", err)
	}

	if chartContentHash(ch) == before {
		t.Error("content hash should change when a connection is added")
	}
}

func TestLayoutHashSeesPositions(t *testing.T) {
	ch := hashTestChart(t)
	before := layoutHash(ch)

	ch.ApplyPositions([]string{"555-0001"}, []float64{999}, []float64{777})

	if layoutHash(ch) == before {
		t.Error("layout hash should change when a node moves")
	}
}
