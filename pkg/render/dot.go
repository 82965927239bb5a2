package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/BitEU/linkchart/pkg/chart"
	"github.com/BitEU/linkchart/pkg/errors"
)

// ToDOT converts a chart to Graphviz DOT format. The result can be fed to
// any Graphviz tool, or rendered through [SeedPositions] for layout.
func ToDOT(ch *chart.Chart) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=fdp;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n")
	buf.WriteString("\n")

	for _, p := range ch.People() {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", p.ID, p.DisplayName())
	}

	buf.WriteString("\n")
	for _, r := range ch.Relationships() {
		if label := r.Label(); label != "" {
			fmt.Fprintf(&buf, "  %q -- %q [label=%q];\n", r.Src, r.Dst, strings.ReplaceAll(label, "\n", " "))
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q;\n", r.Src, r.Dst)
	}

	buf.WriteString("}\n")
	return buf.String()
}

var posRe = regexp.MustCompile(`"([^"]+)"\s*\[[^\]]*pos="(-?[0-9.]+),(-?[0-9.]+)"`)

// SeedPositions runs Graphviz fdp over the chart and writes the resulting
// coordinates back as starting positions, scaled into the canvas box. A
// better starting layout lets the live simulation settle in far fewer
// ticks than the initial grid does.
func SeedPositions(ctx context.Context, ch *chart.Chart, canvasW, canvasH float64) error {
	if ch.Len() == 0 {
		return nil
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.FDP)

	g, err := graphviz.ParseBytes([]byte(ToDOT(ch)))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "fdp layout")
	}

	pos := parsePositions(buf.Bytes())
	if len(pos) == 0 {
		return nil
	}
	applyScaled(ch, pos, canvasW, canvasH)
	return nil
}

type point struct{ x, y float64 }

func parsePositions(dot []byte) map[string]point {
	pos := make(map[string]point)
	for _, m := range posRe.FindAllSubmatch(dot, -1) {
		x, errX := strconv.ParseFloat(string(m[2]), 64)
		y, errY := strconv.ParseFloat(string(m[3]), 64)
		if errX != nil || errY != nil {
			continue
		}
		pos[string(m[1])] = point{x, y}
	}
	return pos
}

// applyScaled maps the fdp coordinate box onto the canvas with a margin so
// no card starts clipped at the border.
func applyScaled(ch *chart.Chart, pos map[string]point, canvasW, canvasH float64) {
	minX, minY := pos[firstKey(pos)].x, pos[firstKey(pos)].y
	maxX, maxY := minX, minY
	for _, p := range pos {
		if p.x < minX {
			minX = p.x
		}
		if p.x > maxX {
			maxX = p.x
		}
		if p.y < minY {
			minY = p.y
		}
		if p.y > maxY {
			maxY = p.y
		}
	}
	spanX, spanY := maxX-minX, maxY-minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}

	const margin = 120.0
	for id, p := range pos {
		x := margin + (p.x-minX)/spanX*(canvasW-2*margin)
		y := margin + (p.y-minY)/spanY*(canvasH-2*margin)
		_ = ch.UpdatePerson(id, func(person *chart.Person) {
			person.X = x
			person.Y = y
			person.VX = 0
			person.VY = 0
		})
	}
}

func firstKey(m map[string]point) string {
	for k := range m {
		return k
	}
	return ""
}
