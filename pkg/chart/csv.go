package chart

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// CSV column headers for call-record imports. Matching is case-insensitive
// and ignores surrounding whitespace.
const (
	colTarget    = "target number"
	colDirection = "call direction"
	colFromTo    = "from or to number"
	colDate      = "date"
	colStart     = "start"
	colEnd       = "end"
)

// ImportReport summarizes a call-record CSV import.
type ImportReport struct {
	Records     int // call records processed
	Skipped     int // rows with missing or unparsable fields
	NewPeople   int
	NewEdges    int
	UpdatedEdge int // existing pairs that accumulated calls
}

// ImportCSV reads call records and merges them into the chart. Each record
// contributes to the pair's relationship: weight and count increment, and
// the first/last timestamps extend the date range. People are created on
// first sight and placed on the grid. Rows with missing fields are skipped
// and counted; the import continues.
func ImportCSV(c *Chart, r io.Reader) (ImportReport, error) {
	var report ImportReport

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return report, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colTarget, colFromTo, colDate, colStart, colEnd} {
		if _, ok := col[required]; !ok {
			return report, fmt.Errorf("missing column %q", required)
		}
	}

	// pair key (sorted) -> index into c.rels, to aggregate repeated pairs
	// without a per-record scan.
	pairIdx := make(map[[2]string]int)
	for i, rel := range c.rels {
		pairIdx[pairKey(rel.Src, rel.Dst)] = i
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return report, fmt.Errorf("read row: %w", err)
		}

		get := func(name string) string {
			i := col[name]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		target, fromTo := get(colTarget), get(colFromTo)
		date, start, end := get(colDate), get(colStart), get(colEnd)
		if target == "" || fromTo == "" || date == "" || start == "" || end == "" {
			report.Skipped++
			continue
		}

		startAt, err1 := time.Parse("2006-01-02 15:04:05", date+" "+start)
		endAt, err2 := time.Parse("2006-01-02 15:04:05", date+" "+end)
		if err1 != nil || err2 != nil {
			report.Skipped++
			continue
		}
		duration := endAt.Sub(startAt).Seconds()

		for _, id := range []string{target, fromTo} {
			if c.Person(id) == nil {
				_ = c.AddPerson(Person{ID: id})
				report.NewPeople++
			}
		}

		key := pairKey(target, fromTo)
		if i, ok := pairIdx[key]; ok {
			rel := &c.rels[i]
			rel.Weight++
			rel.Count++
			if startAt.Before(rel.First) || rel.First.IsZero() {
				rel.First = startAt
			}
			if endAt.After(rel.Last) {
				rel.Last = endAt
			}
			// Weight changed, so the cached matrix is stale.
			c.adjacency = nil
			report.UpdatedEdge++
		} else {
			rel := Relationship{
				Src: target, Dst: fromTo,
				Weight: 1, Type: "call",
				Count: 1, First: startAt, Last: endAt,
			}
			if dir := get(colDirection); strings.EqualFold(dir, "inbound") {
				rel.Src, rel.Dst = fromTo, target
			}
			if err := c.AddRelationship(rel); err != nil {
				report.Skipped++
				continue
			}
			pairIdx[key] = len(c.rels) - 1
			report.NewEdges++
		}

		for _, id := range []string{target, fromTo} {
			p := c.Person(id)
			p.TotalCalls++
			p.TotalDuration += duration
		}
		report.Records++
	}

	return report, nil
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
