package render

import (
	"bytes"
	"fmt"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/BitEU/linkchart/pkg/chart"
	"github.com/BitEU/linkchart/pkg/physics"
)

// Card geometry in canvas units.
const (
	cardW = 150
	cardH = 80
)

// cardPalette maps Person.Color to a fill. Index 0 is the default.
var cardPalette = []string{
	"#fde9c8", "#d2e7f7", "#d9f2d9", "#f7d9d9",
	"#ead9f7", "#f7f0c8", "#d9f0f2", "#f2d9ea",
}

// Option configures SVG rendering.
type Option func(*renderer)

type renderer struct {
	width      int
	height     int
	pageW      int
	pageH      int
	background string
	edgeLabels bool
	title      string
}

// WithDimensions overrides the canvas size.
func WithDimensions(w, h int) Option {
	return func(r *renderer) { r.width, r.height = w, h }
}

// WithPageBox renders the canvas into a fixed output box, in pixels. The
// canvas keeps its logical coordinates via the viewBox, so the same chart
// scales to any page size without repositioning.
func WithPageBox(w, h int) Option {
	return func(r *renderer) { r.pageW, r.pageH = w, h }
}

// WithBackground sets the background fill.
func WithBackground(color string) Option {
	return func(r *renderer) { r.background = color }
}

// WithoutEdgeLabels suppresses call-count labels on connections.
func WithoutEdgeLabels() Option {
	return func(r *renderer) { r.edgeLabels = false }
}

// WithTitle draws a title in the top-left corner.
func WithTitle(title string) Option {
	return func(r *renderer) { r.title = title }
}

// RenderSVG draws the chart at the snapshot's positions. Every label is
// emitted as an SVG text element, so converting the result to PDF yields a
// selectable text layer rather than rasterized glyphs.
func RenderSVG(snap *physics.Snapshot, ch *chart.Chart, opts ...Option) []byte {
	r := renderer{
		width:      2400,
		height:     1600,
		background: "#ffffff",
		edgeLabels: true,
	}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	if r.pageW > 0 && r.pageH > 0 {
		canvas.Startview(r.pageW, r.pageH, 0, 0, r.width, r.height)
	} else {
		canvas.Start(r.width, r.height)
	}
	canvas.Rect(0, 0, r.width, r.height, "fill:"+r.background)

	drawEdges(canvas, snap, ch, r.edgeLabels)
	drawCards(canvas, snap, ch)

	if r.title != "" {
		canvas.Text(24, 40, r.title,
			"font-family:sans-serif;font-size:28px;font-weight:bold;fill:#333333")
	}

	canvas.End()
	return buf.Bytes()
}

func drawEdges(canvas *svg.SVG, snap *physics.Snapshot, ch *chart.Chart, labels bool) {
	vis := ch.Visible()
	for i, rel := range ch.Relationships() {
		if i < len(vis.Edges) && !vis.Edges[i] {
			continue
		}
		x1, y1, ok1 := snap.Position(rel.Src)
		x2, y2, ok2 := snap.Position(rel.Dst)
		if !ok1 || !ok2 {
			continue
		}
		width := 1 + int(rel.Weight)
		if width > 6 {
			width = 6
		}
		canvas.Line(int(x1), int(y1), int(x2), int(y2),
			fmt.Sprintf("stroke:#8a8a8a;stroke-width:%d", width))

		if labels {
			drawEdgeLabel(canvas, &rel, (x1+x2)/2, (y1+y2)/2)
		}
	}
}

func drawEdgeLabel(canvas *svg.SVG, rel *chart.Relationship, mx, my float64) {
	label := rel.Label()
	if label == "" {
		return
	}
	for i, line := range strings.Split(label, "\n") {
		canvas.Text(int(mx), int(my)+i*14, line,
			"font-family:sans-serif;font-size:12px;fill:#555555;text-anchor:middle")
	}
}

func drawCards(canvas *svg.SVG, snap *physics.Snapshot, ch *chart.Chart) {
	for i, id := range snap.IDs {
		if !snap.Visible[i] {
			continue
		}
		p := ch.Person(id)
		if p == nil {
			continue
		}
		x := int(snap.X[i]) - cardW/2
		y := int(snap.Y[i]) - cardH/2

		fill := cardPalette[0]
		if p.Color > 0 && p.Color < len(cardPalette) {
			fill = cardPalette[p.Color]
		}
		canvas.Roundrect(x, y, cardW, cardH, 8, 8,
			fmt.Sprintf("fill:%s;stroke:#444444;stroke-width:1.5", fill))

		canvas.Text(x+cardW/2, y+22, p.DisplayName(),
			"font-family:sans-serif;font-size:14px;font-weight:bold;fill:#222222;text-anchor:middle")
		if p.Alias != "" {
			canvas.Text(x+cardW/2, y+40, p.ID,
				"font-family:sans-serif;font-size:11px;fill:#555555;text-anchor:middle")
		}
		if p.TotalCalls > 0 {
			canvas.Text(x+cardW/2, y+62,
				fmt.Sprintf("%d calls / %s", p.TotalCalls, fmtDuration(p.TotalDuration)),
				"font-family:sans-serif;font-size:11px;fill:#555555;text-anchor:middle")
		}
	}
}

func fmtDuration(seconds float64) string {
	s := int(seconds)
	if s < 60 {
		return fmt.Sprintf("%ds", s)
	}
	if s < 3600 {
		return fmt.Sprintf("%dm%ds", s/60, s%60)
	}
	return fmt.Sprintf("%dh%dm", s/3600, (s%3600)/60)
}
