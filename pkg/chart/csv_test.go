package chart

import (
	"strings"
	"testing"
	"time"
)

const sampleCSV = `Target Number,Call Direction,From or To Number,Date,Start,End
555-0001,Outbound,555-0002,2025-03-01,09:00:00,09:05:00
555-0001,Outbound,555-0002,2025-03-04,18:30:00,18:31:00
555-0002,Inbound,555-0003,2025-03-02,12:00:00,12:10:00
555-0001,Outbound,,2025-03-05,10:00:00,10:01:00
555-0001,Outbound,555-0004,2025-03-06,bad-time,10:01:00
`

func TestImportCSV(t *testing.T) {
	c := New()
	report, err := ImportCSV(c, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}

	if report.Records != 3 {
		t.Errorf("records = %d, want 3", report.Records)
	}
	if report.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", report.Skipped)
	}
	if report.NewPeople != 3 {
		t.Errorf("new people = %d, want 3", report.NewPeople)
	}
	if report.NewEdges != 2 {
		t.Errorf("new edges = %d, want 2", report.NewEdges)
	}

	// Repeated pair aggregates into one relationship.
	var pair *Relationship
	for _, r := range c.Relationships() {
		if pairKey(r.Src, r.Dst) == pairKey("555-0001", "555-0002") {
			rr := r
			pair = &rr
		}
	}
	if pair == nil {
		t.Fatal("missing 0001-0002 relationship")
	}
	if pair.Count != 2 || pair.Weight != 2 {
		t.Errorf("count/weight = %d/%g, want 2/2", pair.Count, pair.Weight)
	}
	wantFirst := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	wantLast := time.Date(2025, 3, 4, 18, 31, 0, 0, time.UTC)
	if !pair.First.Equal(wantFirst) || !pair.Last.Equal(wantLast) {
		t.Errorf("range %v..%v, want %v..%v", pair.First, pair.Last, wantFirst, wantLast)
	}
	if got := pair.Label(); !strings.Contains(got, "2 calls") || !strings.Contains(got, "2025-03-01") {
		t.Errorf("label = %q", got)
	}

	// Call totals accumulate on both endpoints.
	if p := c.Person("555-0001"); p.TotalCalls != 2 || p.TotalDuration != 360 {
		t.Errorf("555-0001 totals = %d calls / %gs, want 2 / 360", p.TotalCalls, p.TotalDuration)
	}

	// Inbound rows flip edge direction.
	var inbound bool
	for _, r := range c.Relationships() {
		if r.Src == "555-0003" && r.Dst == "555-0002" {
			inbound = true
		}
	}
	if !inbound {
		t.Error("inbound call should produce edge from caller to target")
	}
}

func TestImportCSVMissingColumn(t *testing.T) {
	c := New()
	_, err := ImportCSV(c, strings.NewReader("Target Number,Date\nx,2025-01-01\n"))
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
}

func TestImportCSVIntoExistingChart(t *testing.T) {
	c := New()
	_ = c.AddPerson(Person{ID: "555-0001"})
	report, err := ImportCSV(c, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	// 555-0001 already existed, so only two people are new.
	if report.NewPeople != 2 {
		t.Errorf("new people = %d, want 2", report.NewPeople)
	}
	if c.Len() != 3 {
		t.Errorf("total people = %d, want 3", c.Len())
	}
}

func TestImportCSVRefreshesAdjacencyOnMerge(t *testing.T) {
	c := New()
	_ = c.AddPerson(Person{ID: "555-0001"})
	_ = c.AddPerson(Person{ID: "555-0002"})
	_ = c.AddPerson(Person{ID: "555-0003"})
	if err := c.AddRelationship(Relationship{Src: "555-0001", Dst: "555-0002", Weight: 1, Count: 1}); err != nil {
		t.Fatalf("AddRelationship: %v", err)
	}

	// Warm the cached matrix before the merge import.
	adj := c.Adjacency()
	i, _ := adj.Index("555-0001")
	j, _ := adj.Index("555-0002")
	if got := adj.Weight(i, j); got != 1 {
		t.Fatalf("pre-import weight = %v, want 1", got)
	}

	if _, err := ImportCSV(c, strings.NewReader(sampleCSV)); err != nil {
		t.Fatal(err)
	}

	// sampleCSV carries two records for the existing pair.
	rel := c.Relationships()[0]
	if rel.Weight != 3 {
		t.Fatalf("relationship weight = %v, want 3", rel.Weight)
	}
	adj = c.Adjacency()
	if got := adj.Weight(i, j); got != rel.Weight {
		t.Errorf("post-import adjacency weight = %v, want %v", got, rel.Weight)
	}
}
