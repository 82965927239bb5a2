package render

import (
	"strings"
	"testing"
	"time"

	"github.com/BitEU/linkchart/pkg/chart"
	"github.com/BitEU/linkchart/pkg/physics"
)

func testChart(t *testing.T) *chart.Chart {
	t.Helper()
	ch := chart.New()
	for _, p := range []chart.Person{
		{ID: "555-0001", Alias: "Alice", X: 400, Y: 300, TotalCalls: 12, TotalDuration: 900},
		{ID: "555-0002", X: 900, Y: 600},
	} {
		if err := ch.AddPerson(p); err != nil {
			t.Fatal(err)
		}
	}
	first, _ := time.Parse("2006-01-02", "2025-03-01")
	last, _ := time.Parse("2006-01-02", "2025-03-09")
	if err := ch.AddRelationship(chart.Relationship{
		Src: "555-0001", Dst: "555-0002", Weight: 2, Count: 7, First: first, Last: last,
	}); err != nil {
		t.Fatal(err)
	}
	return ch
}

func testSnapshot(ch *chart.Chart) *physics.Snapshot {
	adj := ch.Adjacency()
	ids := adj.IDs()
	snap := &physics.Snapshot{Seq: 1, IDs: ids}
	for _, id := range ids {
		p := ch.Person(id)
		snap.X = append(snap.X, p.X)
		snap.Y = append(snap.Y, p.Y)
		snap.Visible = append(snap.Visible, true)
	}
	return snap
}

func TestRenderSVGEmitsTextLayer(t *testing.T) {
	ch := testChart(t)
	out := string(RenderSVG(testSnapshot(ch), ch))

	for _, want := range []string{
		"<svg", "</svg>",
		">Alice</text>",           // alias as display name
		">555-0001</text>",        // id line under the alias
		">555-0002</text>",        // id-only card
		"12 calls / 15m0s",        // call aggregates
		">7 calls</text>",         // edge label line one
		"2025-03-01 - 2025-03-09", // edge label date range
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
}

func TestRenderSVGSkipsHiddenCards(t *testing.T) {
	ch := testChart(t)
	snap := testSnapshot(ch)
	for i, id := range snap.IDs {
		if id == "555-0002" {
			snap.Visible[i] = false
		}
	}

	out := string(RenderSVG(snap, ch))
	if strings.Contains(out, ">555-0002</text>") {
		t.Error("hidden card rendered")
	}
	if !strings.Contains(out, ">Alice</text>") {
		t.Error("visible card missing")
	}
}

func TestRenderSVGOptions(t *testing.T) {
	ch := testChart(t)
	out := string(RenderSVG(testSnapshot(ch), ch,
		WithDimensions(1200, 800),
		WithBackground("#000000"),
		WithoutEdgeLabels(),
		WithTitle("Case 2025-114"),
	))

	if !strings.Contains(out, `width="1200"`) || !strings.Contains(out, `height="800"`) {
		t.Error("dimensions not applied")
	}
	if !strings.Contains(out, "fill:#000000") {
		t.Error("background not applied")
	}
	if strings.Contains(out, ">7 calls</text>") {
		t.Error("edge labels rendered despite WithoutEdgeLabels")
	}
	if !strings.Contains(out, "Case 2025-114") {
		t.Error("title missing")
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testChart(t))

	for _, want := range []string{
		"graph G {",
		"layout=fdp",
		`"555-0001" [label="Alice"]`,
		`"555-0002" [label="555-0002"]`,
		`"555-0001" -- "555-0002"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q in:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "->") {
		t.Error("undirected chart emitted directed edges")
	}
}

func TestParsePositions(t *testing.T) {
	dot := []byte(`graph G {
	"555-0001"	[label=Alice, pos="12.5,88.25", width=1];
	"555-0002"	[height=0.5, pos="-40,7"];
}`)
	pos := parsePositions(dot)
	if len(pos) != 2 {
		t.Fatalf("parsed %d positions, want 2", len(pos))
	}
	if p := pos["555-0001"]; p.x != 12.5 || p.y != 88.25 {
		t.Errorf("pos[555-0001] = %+v", p)
	}
	if p := pos["555-0002"]; p.x != -40 || p.y != 7 {
		t.Errorf("pos[555-0002] = %+v", p)
	}
}

func TestApplyScaledKeepsMargin(t *testing.T) {
	ch := testChart(t)
	pos := map[string]point{
		"555-0001": {0, 0},
		"555-0002": {100, 50},
	}
	applyScaled(ch, pos, 2400, 1600)

	for _, p := range ch.People() {
		if p.X < 100 || p.X > 2300 || p.Y < 100 || p.Y > 1500 {
			t.Errorf("%s scaled outside margin: (%.1f, %.1f)", p.ID, p.X, p.Y)
		}
	}
}
